package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vanillai/vanillai/internal/config"
	handlers "github.com/vanillai/vanillai/internal/http/api/admin/handlers"
	"github.com/vanillai/vanillai/internal/http/middleware"
	"github.com/vanillai/vanillai/internal/models"
	"gorm.io/gorm"
)

// RegisterAdminRoutes registers admin routes, middleware, and handlers.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, serverCfg config.ServerConfig) {
	if r == nil || db == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/healthz", healthHandler.Healthz)

	authed := r.Group("/v0/admin")
	authed.Use(middleware.RequireUser(db, jwtCfg))
	authed.Use(adminOnlyMiddleware(serverCfg))

	statsHandler := handlers.NewStatsHandler(db)
	authed.GET("/stats", statsHandler.Summary)

	modelHandler := handlers.NewAIModelHandler(db)
	authed.POST("/ai-models", modelHandler.Create)
	authed.PUT("/ai-models/:id", modelHandler.Update)
	authed.DELETE("/ai-models/:id", modelHandler.Delete)
	authed.PUT("/ai-models/:id/details", modelHandler.UpsertDetails)
	authed.PUT("/ai-models/:id/pricing", modelHandler.UpdatePricing)

	seedHandler := handlers.NewSeedHandler(db)
	authed.POST("/seed", seedHandler.Seed)
	authed.POST("/pricing/apply-defaults", seedHandler.ApplyDefaultPricing)

	newsHandler := handlers.NewNewsHandler(db)
	authed.POST("/news", newsHandler.Create)
	authed.PUT("/news/:id", newsHandler.Update)
	authed.DELETE("/news/:id", newsHandler.Delete)

	contentHandler := handlers.NewContentHandler(db)
	authed.GET("/posts", contentHandler.ListPosts)
	authed.DELETE("/posts/:id", contentHandler.DeletePost)
	authed.GET("/comments", contentHandler.ListComments)
	authed.DELETE("/comments/:id", contentHandler.DeleteComment)

	userHandler := handlers.NewUserHandler(db)
	authed.GET("/users", userHandler.List)
	authed.GET("/users/:id", userHandler.Get)
	authed.PUT("/users/:id", userHandler.Update)
	authed.DELETE("/users/:id", userHandler.Delete)
	authed.POST("/users/:id/disable", userHandler.Disable)
	authed.POST("/users/:id/enable", userHandler.Enable)
	authed.PUT("/users/:id/password", userHandler.ChangePassword)

	settingHandler := handlers.NewSettingHandler(db)
	authed.POST("/settings", settingHandler.Create)
	authed.GET("/settings", settingHandler.List)
	authed.GET("/settings/:key", settingHandler.Get)
	authed.PUT("/settings/:key", settingHandler.Update)
	authed.DELETE("/settings/:key", settingHandler.Delete)
}

// adminOnlyMiddleware admits users with the admin role or a configured admin email.
func adminOnlyMiddleware(serverCfg config.ServerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if middleware.IsAdmin(c) {
			c.Next()
			return
		}
		if serverCfg.IsAdminEmail(c.GetString(middleware.ContextUserEmail)) {
			c.Set(middleware.ContextUserRole, models.RoleAdmin)
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin required"})
	}
}
