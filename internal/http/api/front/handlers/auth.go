package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/vanillai/vanillai/internal/config"
	"github.com/vanillai/vanillai/internal/http/api/render"
	"github.com/vanillai/vanillai/internal/models"
	"github.com/vanillai/vanillai/internal/security"
	internalsettings "github.com/vanillai/vanillai/internal/settings"
	"gorm.io/gorm"
)

// AuthHandler handles registration, login and the current account.
type AuthHandler struct {
	db     *gorm.DB
	jwtCfg config.JWTConfig
	server config.ServerConfig
	now    func() time.Time
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, jwtCfg config.JWTConfig, server config.ServerConfig) *AuthHandler {
	return &AuthHandler{db: db, jwtCfg: jwtCfg, server: server, now: time.Now}
}

// registerRequest defines the request body for sign-up.
type registerRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Username string `json:"username" binding:"required,username"`
	Password string `json:"password" binding:"required,password,max=72"`
}

// Register creates an account and returns a session token.
func (h *AuthHandler) Register(c *gin.Context) {
	if !internalsettings.RegistrationEnabled() {
		c.JSON(http.StatusForbidden, gin.H{"error": "registration disabled"})
		return
	}
	var body registerRequest
	if !bindJSON(c, &body) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	username := strings.TrimSpace(body.Username)

	ctx := c.Request.Context()
	var taken int64
	if errCount := h.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ? OR username = ?", email, username).
		Count(&taken).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if taken > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "email or username already registered"})
		return
	}

	hash, errHash := security.HashPassword(body.Password)
	if errHash != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash password failed"})
		return
	}
	role := models.RoleUser
	if h.server.IsAdminEmail(email) {
		role = models.RoleAdmin
	}
	user := models.User{
		Username: username,
		Email:    email,
		Password: hash,
		Role:     role,
	}
	if errCreate := h.db.WithContext(ctx).Create(&user).Error; errCreate != nil {
		if errors.Is(errCreate, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "email or username already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create user failed"})
		return
	}
	log.WithField("user_id", user.ID).Info("user registered")
	h.respondWithToken(c, http.StatusCreated, &user)
}

// loginRequest defines the request body for password login.
type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	TOTPCode string `json:"totp_code"`
}

// Login checks credentials, and the TOTP code when enabled, and issues a token.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if !bindJSON(c, &body) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if !security.CheckPassword(user.Password, body.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if user.Disabled {
		c.JSON(http.StatusForbidden, gin.H{"error": "user disabled"})
		return
	}
	if user.TOTPSecret != "" {
		code := strings.TrimSpace(body.TOTPCode)
		if code == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "totp code required", "mfa_required": true})
			return
		}
		if !security.ValidateTOTP(user.TOTPSecret, code, h.now()) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid totp code"})
			return
		}
	}
	h.respondWithToken(c, http.StatusOK, &user)
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, user *models.User) {
	token, expiresAt, errIssue := security.IssueUserToken(h.jwtCfg.Secret, user.ID, user.Role, h.jwtCfg.Expiry, h.now())
	if errIssue != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "issue token failed"})
		return
	}
	c.JSON(status, gin.H{
		"token":      token,
		"expires_at": expiresAt,
		"user":       render.User(user),
	})
}

// Me returns the current account.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := h.current(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, render.User(user))
}

// updateMeRequest defines the request body for profile edits.
type updateMeRequest struct {
	Username  *string `json:"username" binding:"omitempty,username"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,max=2048"`
}

// UpdateMe edits the username and avatar of the current account.
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	var body updateMeRequest
	if !bindJSON(c, &body) {
		return
	}
	user, ok := h.current(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	updates := map[string]any{"updated_at": time.Now().UTC()}
	if body.Username != nil {
		username := strings.TrimSpace(*body.Username)
		if username != user.Username {
			var taken int64
			if errCount := h.db.WithContext(ctx).Model(&models.User{}).
				Where("username = ? AND id <> ?", username, user.ID).
				Count(&taken).Error; errCount != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
				return
			}
			if taken > 0 {
				c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
				return
			}
			updates["username"] = username
		}
	}
	if body.AvatarURL != nil {
		avatar := strings.TrimSpace(*body.AvatarURL)
		if avatar != "" && !strings.HasPrefix(avatar, "/") && !strings.HasPrefix(avatar, "https://") && !strings.HasPrefix(avatar, "http://") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "avatar_url must be a valid url"})
			return
		}
		updates["avatar_url"] = avatar
	}
	if errUpdate := h.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if errReload := h.db.WithContext(ctx).First(user, user.ID).Error; errReload != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, render.User(user))
}

// PrepareTOTP returns a fresh secret and otpauth URL to enrol an authenticator.
func (h *AuthHandler) PrepareTOTP(c *gin.Context) {
	user, ok := h.current(c)
	if !ok {
		return
	}
	if user.TOTPSecret != "" {
		c.JSON(http.StatusConflict, gin.H{"error": "totp already enabled"})
		return
	}
	secret, url, errGenerate := security.GenerateTOTP(user.Email)
	if errGenerate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "generate totp failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"secret": secret, "otpauth_url": url})
}

// confirmTOTPRequest defines the request body for TOTP enrolment.
type confirmTOTPRequest struct {
	Secret string `json:"secret" binding:"required"`
	Code   string `json:"code" binding:"required"`
}

// ConfirmTOTP stores the secret once a code generated from it validates.
func (h *AuthHandler) ConfirmTOTP(c *gin.Context) {
	var body confirmTOTPRequest
	if !bindJSON(c, &body) {
		return
	}
	user, ok := h.current(c)
	if !ok {
		return
	}
	secret := strings.TrimSpace(body.Secret)
	if !security.ValidateTOTP(secret, strings.TrimSpace(body.Code), h.now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid totp code"})
		return
	}
	if errUpdate := h.db.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{"totp_secret": secret, "updated_at": time.Now().UTC()}).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"totp_enabled": true})
}

// disableTOTPRequest defines the request body for removing TOTP.
type disableTOTPRequest struct {
	Code string `json:"code" binding:"required"`
}

// DisableTOTP removes TOTP after checking a current code.
func (h *AuthHandler) DisableTOTP(c *gin.Context) {
	var body disableTOTPRequest
	if !bindJSON(c, &body) {
		return
	}
	user, ok := h.current(c)
	if !ok {
		return
	}
	if user.TOTPSecret == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "totp not enabled"})
		return
	}
	if !security.ValidateTOTP(user.TOTPSecret, strings.TrimSpace(body.Code), h.now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid totp code"})
		return
	}
	if errUpdate := h.db.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{"totp_secret": "", "updated_at": time.Now().UTC()}).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"totp_enabled": false})
}

func (h *AuthHandler) current(c *gin.Context) (*models.User, bool) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, userID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return nil, false
	}
	return &user, true
}
