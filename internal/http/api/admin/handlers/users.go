package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	dbutil "github.com/vanillai/vanillai/internal/db"
	"github.com/vanillai/vanillai/internal/http/api/render"
	"github.com/vanillai/vanillai/internal/http/middleware"
	"github.com/vanillai/vanillai/internal/models"
	"github.com/vanillai/vanillai/internal/security"
	"gorm.io/gorm"
)

// UserHandler manages user accounts.
type UserHandler struct {
	db *gorm.DB
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// List returns users with optional filters.
func (h *UserHandler) List(c *gin.Context) {
	var (
		usernameQ = strings.TrimSpace(c.Query("username"))
		emailQ    = strings.TrimSpace(c.Query("email"))
		roleQ     = strings.TrimSpace(c.Query("role"))
		searchQ   = strings.TrimSpace(c.Query("search"))
	)

	q := h.db.WithContext(c.Request.Context()).Model(&models.User{})
	if usernameQ != "" {
		q = q.Where(dbutil.CaseInsensitiveLikeExpr(h.db, "username"), dbutil.ContainsPattern(h.db, usernameQ))
	}
	if emailQ != "" {
		q = q.Where(dbutil.CaseInsensitiveLikeExpr(h.db, "email"), dbutil.ContainsPattern(h.db, emailQ))
	}
	if roleQ != "" {
		q = q.Where("role = ?", roleQ)
	}
	if searchQ != "" {
		pattern := dbutil.ContainsPattern(h.db, searchQ)
		if id, errParse := strconv.ParseUint(searchQ, 10, 64); errParse == nil {
			q = q.Where(
				"("+dbutil.CaseInsensitiveLikeExpr(h.db, "username")+" OR "+
					dbutil.CaseInsensitiveLikeExpr(h.db, "email")+" OR id = ?)",
				pattern, pattern, id,
			)
		} else {
			q = q.Where(
				"("+dbutil.CaseInsensitiveLikeExpr(h.db, "username")+" OR "+
					dbutil.CaseInsensitiveLikeExpr(h.db, "email")+")",
				pattern, pattern,
			)
		}
	}

	var rows []models.User
	if errFind := q.Order("created_at DESC").Order("id DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list users failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, render.User(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

// Get returns a user by ID.
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, render.User(&user))
}

// updateUserRequest defines the request body for user updates.
type updateUserRequest struct {
	Username  *string `json:"username" binding:"omitempty,username"`
	Email     *string `json:"email" binding:"omitempty,email,max=254"`
	Role      *string `json:"role" binding:"omitempty,oneof=user admin"`
	RateLimit *int    `json:"rate_limit" binding:"omitempty,min=0"`
	Disabled  *bool   `json:"disabled"`
}

// Update modifies a user account.
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var body updateUserRequest
	if !bindJSON(c, &body) {
		return
	}
	if id == middleware.UserID(c) {
		if (body.Role != nil && *body.Role != models.RoleAdmin) || (body.Disabled != nil && *body.Disabled) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot demote or disable yourself"})
			return
		}
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if body.Username != nil {
		updates["username"] = strings.TrimSpace(*body.Username)
	}
	if body.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*body.Email))
	}
	if body.Role != nil {
		updates["role"] = *body.Role
	}
	if body.RateLimit != nil {
		updates["rate_limit"] = *body.RateLimit
	}
	if body.Disabled != nil {
		updates["disabled"] = *body.Disabled
	}

	ctx := c.Request.Context()
	res := h.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "username or email already taken"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	var user models.User
	if errFind := h.db.WithContext(ctx).First(&user, id).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, render.User(&user))
}

// Delete removes a user together with their posts and comments.
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if id == middleware.UserID(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot delete yourself"})
		return
	}

	ctx := c.Request.Context()
	var user models.User
	if errFind := h.db.WithContext(ctx).First(&user, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	errTx := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var touched []uint64
		if errPluck := tx.Model(&models.Comment{}).
			Where("user_id = ?", id).
			Distinct("post_id").
			Pluck("post_id", &touched).Error; errPluck != nil {
			return errPluck
		}
		if errDelComments := tx.Where("user_id = ?", id).Delete(&models.Comment{}).Error; errDelComments != nil {
			return errDelComments
		}
		if len(touched) > 0 {
			if errRecount := tx.Model(&models.Post{}).
				Where("id IN ?", touched).
				UpdateColumn("comment_count", gorm.Expr("(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id)")).Error; errRecount != nil {
				return errRecount
			}
		}
		var owned []uint64
		if errPluck := tx.Model(&models.Post{}).Where("user_id = ?", id).Pluck("id", &owned).Error; errPluck != nil {
			return errPluck
		}
		if len(owned) > 0 {
			if errDelReplies := tx.Where("post_id IN ?", owned).Delete(&models.Comment{}).Error; errDelReplies != nil {
				return errDelReplies
			}
			if errDelPosts := tx.Where("id IN ?", owned).Delete(&models.Post{}).Error; errDelPosts != nil {
				return errDelPosts
			}
		}
		return tx.Delete(&models.User{}, id).Error
	})
	if errTx != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Disable blocks a user from signing in.
func (h *UserHandler) Disable(c *gin.Context) {
	h.setDisabled(c, true)
}

// Enable lifts a disable flag.
func (h *UserHandler) Enable(c *gin.Context) {
	h.setDisabled(c, false)
}

func (h *UserHandler) setDisabled(c *gin.Context, disabled bool) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if disabled && id == middleware.UserID(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot demote or disable yourself"})
		return
	}
	res := h.db.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"disabled": disabled, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// changePasswordRequest defines the request body for password resets.
type changePasswordRequest struct {
	Password string `json:"password" binding:"required,password,max=72"`
}

// ChangePassword resets a user's password and clears their TOTP enrollment.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var body changePasswordRequest
	if !bindJSON(c, &body) {
		return
	}
	hash, errHash := security.HashPassword(body.Password)
	if errHash != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash password failed"})
		return
	}
	res := h.db.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"password": hash, "totp_secret": "", "updated_at": time.Now().UTC()})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "change password failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
