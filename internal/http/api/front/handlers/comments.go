package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vanillai/vanillai/internal/http/api/render"
	"github.com/vanillai/vanillai/internal/http/middleware"
	"github.com/vanillai/vanillai/internal/models"
	"github.com/vanillai/vanillai/internal/sanitize"
	"gorm.io/gorm"
)

// maxComments bounds a single comment listing.
const maxComments = 200

var errPostNotFound = errors.New("post not found")

// CommentHandler serves replies on community posts.
type CommentHandler struct {
	db *gorm.DB
}

// NewCommentHandler constructs a CommentHandler.
func NewCommentHandler(db *gorm.DB) *CommentHandler {
	return &CommentHandler{db: db}
}

// List returns the comments of a post, oldest first.
func (h *CommentHandler) List(c *gin.Context) {
	postID, ok := parseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	var exists int64
	if errCount := h.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", postID).Count(&exists).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if exists == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	var rows []models.Comment
	if errFind := h.db.WithContext(ctx).
		Preload("User", selectAuthor).
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Limit(maxComments).
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list comments failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, render.Comment(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"comments": out})
}

// createCommentRequest defines the request body for new comments.
type createCommentRequest struct {
	Content string `json:"content" binding:"required,max=1000"`
}

// Create adds a comment to a post and bumps its comment count.
func (h *CommentHandler) Create(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	postID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var body createCommentRequest
	if !bindJSON(c, &body) {
		return
	}
	content := sanitize.Text(body.Content)
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	comment := models.Comment{PostID: postID, UserID: userID, Content: content}
	errTx := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Post{}).
			Where("id = ?", postID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errPostNotFound
		}
		return tx.Create(&comment).Error
	})
	if errTx != nil {
		if errors.Is(errTx, errPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create comment failed"})
		return
	}

	if errLoad := h.db.WithContext(c.Request.Context()).
		Preload("User", selectAuthor).
		First(&comment, comment.ID).Error; errLoad != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusCreated, render.Comment(&comment))
}

// Delete removes a comment owned by the current user. Admins may delete any.
func (h *CommentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var comment models.Comment
	if errFind := h.db.WithContext(c.Request.Context()).First(&comment, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if comment.UserID != getUserID(c) && !middleware.IsAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	if errDelete := DeleteComment(h.db.WithContext(c.Request.Context()), &comment); errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteComment removes a comment and decrements the cached count of its post.
func DeleteComment(db *gorm.DB, comment *models.Comment) error {
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Comment{}, comment.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&models.Post{}).
			Where("id = ? AND comment_count > 0", comment.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count - ?", 1)).Error
	})
}
