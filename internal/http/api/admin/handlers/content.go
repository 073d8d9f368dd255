package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	dbutil "github.com/vanillai/vanillai/internal/db"
	frontHandlers "github.com/vanillai/vanillai/internal/http/api/front/handlers"
	"github.com/vanillai/vanillai/internal/http/api/render"
	"github.com/vanillai/vanillai/internal/models"
	"gorm.io/gorm"
)

const moderationPageSize = 50

// ContentHandler moderates community posts and comments.
type ContentHandler struct {
	db *gorm.DB
}

// NewContentHandler constructs a ContentHandler.
func NewContentHandler(db *gorm.DB) *ContentHandler {
	return &ContentHandler{db: db}
}

// ListPosts returns posts newest first, optionally filtered by author or title.
func (h *ContentHandler) ListPosts(c *gin.Context) {
	page, limit := pageQuery(c)
	q := h.db.WithContext(c.Request.Context()).Model(&models.Post{})
	if userID, okID := queryID(c, "user_id"); okID {
		q = q.Where("user_id = ?", userID)
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		q = q.Where(dbutil.CaseInsensitiveLikeExpr(h.db, "title"), dbutil.ContainsPattern(h.db, search))
	}

	var total int64
	if errCount := q.Session(&gorm.Session{}).Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	var rows []models.Post
	if errFind := q.Preload("User").
		Order("created_at DESC").Order("id DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, render.Post(&rows[i], false))
	}
	c.JSON(http.StatusOK, gin.H{"posts": out, "total": total, "page": page, "limit": limit})
}

// DeletePost removes a post and its comments.
func (h *ContentHandler) DeletePost(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var deleted int64
	errTx := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if errComments := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; errComments != nil {
			return errComments
		}
		res := tx.Delete(&models.Post{}, id)
		deleted = res.RowsAffected
		return res.Error
	})
	if errTx != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if deleted == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ListComments returns comments newest first, optionally filtered by post or author.
func (h *ContentHandler) ListComments(c *gin.Context) {
	page, limit := pageQuery(c)
	q := h.db.WithContext(c.Request.Context()).Model(&models.Comment{})
	if postID, okID := queryID(c, "post_id"); okID {
		q = q.Where("post_id = ?", postID)
	}
	if userID, okID := queryID(c, "user_id"); okID {
		q = q.Where("user_id = ?", userID)
	}

	var total int64
	if errCount := q.Session(&gorm.Session{}).Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	var rows []models.Comment
	if errFind := q.Preload("User").
		Order("created_at DESC").Order("id DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, render.Comment(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"comments": out, "total": total, "page": page, "limit": limit})
}

// DeleteComment removes a comment and keeps the post's count in sync.
func (h *ContentHandler) DeleteComment(c *gin.Context) {
	id, ok := parseID(c)
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
	if errDelete := frontHandlers.DeleteComment(h.db.WithContext(c.Request.Context()), &comment); errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.Status(http.StatusNoContent)
}
