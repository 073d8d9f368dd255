package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	dbutil "github.com/vanillai/vanillai/internal/db"
	"github.com/vanillai/vanillai/internal/http/api/render"
	"github.com/vanillai/vanillai/internal/models"
	internalsettings "github.com/vanillai/vanillai/internal/settings"
	"gorm.io/gorm"
)

// NewsHandler serves published news.
type NewsHandler struct {
	db *gorm.DB
}

// NewNewsHandler constructs a NewsHandler.
func NewNewsHandler(db *gorm.DB) *NewsHandler {
	return &NewsHandler{db: db}
}

// List returns news newest first, filtered by tag and q.
func (h *NewsHandler) List(c *gin.Context) {
	page, limit := pageParams(c, internalsettings.PageSize(internalsettings.NewsPageSizeKey, internalsettings.DefaultNewsPageSize))
	tag := strings.TrimSpace(c.Query("tag"))
	term := strings.TrimSpace(c.Query("q"))

	filtered := func() *gorm.DB {
		q := h.db.WithContext(c.Request.Context()).Model(&models.News{})
		if tag != "" {
			q = q.Where(dbutil.JSONArrayContainsExpr(h.db, "tags"), dbutil.JSONArrayContainsValue(h.db, tag))
		}
		if term != "" {
			pattern := dbutil.ContainsPattern(h.db, term)
			q = q.Where("("+dbutil.CaseInsensitiveLikeExpr(h.db, "title")+" OR "+dbutil.CaseInsensitiveLikeExpr(h.db, "excerpt")+")", pattern, pattern)
		}
		return q
	}

	var total int64
	if errCount := filtered().Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list news failed"})
		return
	}
	var rows []models.News
	if errFind := filtered().
		Order("published_date DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list news failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, render.News(&rows[i], false))
	}
	c.JSON(http.StatusOK, gin.H{"news": out, "total": total, "page": page, "limit": limit})
}

// Get returns one article with its body.
func (h *NewsHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var row models.News
	if errFind := h.db.WithContext(c.Request.Context()).First(&row, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, render.News(&row, true))
}
