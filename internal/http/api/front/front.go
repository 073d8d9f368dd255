// Package front registers the public and signed-in user API.
package front

import (
	"github.com/gin-gonic/gin"
	"github.com/vanillai/vanillai/internal/catalog"
	"github.com/vanillai/vanillai/internal/config"
	"github.com/vanillai/vanillai/internal/http/api/front/handlers"
	"github.com/vanillai/vanillai/internal/http/middleware"
	"github.com/vanillai/vanillai/internal/ratelimit"
	"gorm.io/gorm"
)

// Rate limit buckets for write endpoints.
const (
	bucketAuth     = "auth"
	bucketPosts    = "posts"
	bucketComments = "comments"
	bucketLikes    = "likes"
)

// RegisterFrontRoutes registers routes under /v0.
func RegisterFrontRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, serverCfg config.ServerConfig, limiter *ratelimit.Manager) {
	if r == nil || db == nil {
		return
	}

	v0 := r.Group("/v0")
	v0.Use(middleware.OptionalUser(db, jwtCfg))
	authed := v0.Group("")
	authed.Use(middleware.RequireUser(db, jwtCfg))

	limit := func(bucket string) gin.HandlerFunc {
		return middleware.RateLimit(limiter, db, bucket)
	}

	siteHandler := handlers.NewSiteHandler()
	v0.GET("/site", siteHandler.Info)

	modelHandler := handlers.NewAIModelHandler(catalog.NewService(db))
	v0.GET("/ai-models", modelHandler.List)
	v0.GET("/ai-models/categories", modelHandler.Categories)
	v0.GET("/ai-models/compare", modelHandler.Compare)
	v0.GET("/ai-models/:id", modelHandler.Get)
	v0.GET("/ai-models/:id/details", modelHandler.Details)

	newsHandler := handlers.NewNewsHandler(db)
	v0.GET("/news", newsHandler.List)
	v0.GET("/news/:id", newsHandler.Get)

	postHandler := handlers.NewPostHandler(db)
	v0.GET("/posts", postHandler.List)
	v0.GET("/posts/:id", postHandler.Get)
	v0.POST("/posts/:id/like", limit(bucketLikes), postHandler.Like)
	authed.POST("/posts", limit(bucketPosts), postHandler.Create)
	authed.PUT("/posts/:id", limit(bucketPosts), postHandler.Update)
	authed.DELETE("/posts/:id", postHandler.Delete)

	commentHandler := handlers.NewCommentHandler(db)
	v0.GET("/posts/:id/comments", commentHandler.List)
	authed.POST("/posts/:id/comments", limit(bucketComments), commentHandler.Create)
	authed.DELETE("/comments/:id", commentHandler.Delete)

	authHandler := handlers.NewAuthHandler(db, jwtCfg, serverCfg)
	v0.POST("/auth/register", limit(bucketAuth), authHandler.Register)
	v0.POST("/auth/login", limit(bucketAuth), authHandler.Login)
	authed.GET("/me", authHandler.Me)
	authed.PUT("/me", authHandler.UpdateMe)
	authed.POST("/me/mfa/totp/prepare", authHandler.PrepareTOTP)
	authed.POST("/me/mfa/totp/confirm", authHandler.ConfirmTOTP)
	authed.POST("/me/mfa/totp/disable", authHandler.DisableTOTP)
}
