package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vanillai/vanillai/internal/config"
	"github.com/vanillai/vanillai/internal/models"
	"github.com/vanillai/vanillai/internal/security"
	"gorm.io/gorm"
)

// Context keys set by the auth middleware.
const (
	ContextUserID    = "userID"
	ContextUsername  = "username"
	ContextUserEmail = "userEmail"
	ContextUserRole  = "userRole"
)

var (
	errMissingHeader = errors.New("missing authorization header")
	errHeaderFormat  = errors.New("invalid authorization format")
	errEmptyToken    = errors.New("empty token")
)

// BearerToken extracts the token from an Authorization header.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", errMissingHeader
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		return "", errHeaderFormat
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errEmptyToken
	}
	return token, nil
}

// RequireUser rejects requests without a valid token for an enabled user.
func RequireUser(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, errToken := BearerToken(c.GetHeader("Authorization"))
		if errToken != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errToken.Error()})
			return
		}
		user, status, msg := loadUser(c, db, jwtCfg, token)
		if user == nil {
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
			return
		}
		setUser(c, user)
		c.Next()
	}
}

// OptionalUser attaches the user when a valid token is present and otherwise
// continues anonymously.
func OptionalUser(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, errToken := BearerToken(c.GetHeader("Authorization"))
		if errToken == nil {
			if user, _, _ := loadUser(c, db, jwtCfg, token); user != nil {
				setUser(c, user)
			}
		}
		c.Next()
	}
}

// UserID returns the authenticated user id, or 0.
func UserID(c *gin.Context) uint64 {
	if v, ok := c.Get(ContextUserID); ok {
		if id, okID := v.(uint64); okID {
			return id
		}
	}
	return 0
}

// IsAdmin reports whether the authenticated user has the admin role.
func IsAdmin(c *gin.Context) bool {
	return c.GetString(ContextUserRole) == models.RoleAdmin
}

func loadUser(c *gin.Context, db *gorm.DB, jwtCfg config.JWTConfig, token string) (*models.User, int, string) {
	claims, errJWT := security.ParseUserToken(jwtCfg.Secret, token)
	if errJWT != nil {
		return nil, http.StatusUnauthorized, "invalid token"
	}
	var user models.User
	if errFind := db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, http.StatusUnauthorized, "user not found"
		}
		return nil, http.StatusInternalServerError, "query failed"
	}
	if user.Disabled {
		return nil, http.StatusForbidden, "user disabled"
	}
	return &user, 0, ""
}

func setUser(c *gin.Context, user *models.User) {
	c.Set(ContextUserID, user.ID)
	c.Set(ContextUsername, user.Username)
	c.Set(ContextUserEmail, user.Email)
	c.Set(ContextUserRole, user.Role)
}
