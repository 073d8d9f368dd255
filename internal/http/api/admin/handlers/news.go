package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vanillai/vanillai/internal/http/api/render"
	"github.com/vanillai/vanillai/internal/models"
	"github.com/vanillai/vanillai/internal/sanitize"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const newsExcerptLength = 200

// NewsHandler manages news articles.
type NewsHandler struct {
	db *gorm.DB
}

// NewNewsHandler constructs a NewsHandler.
func NewNewsHandler(db *gorm.DB) *NewsHandler {
	return &NewsHandler{db: db}
}

// createNewsRequest defines the request body for publishing an article.
type createNewsRequest struct {
	Title         string   `json:"title" binding:"required,max=300"`
	Excerpt       string   `json:"excerpt" binding:"max=500"`
	Content       string   `json:"content" binding:"required,max=100000"`
	Source        string   `json:"source" binding:"required,max=100"`
	ImageURL      string   `json:"image_url" binding:"omitempty,max=2048"`
	PublishedDate string   `json:"published_date" binding:"omitempty,datetime=2006-01-02"`
	Tags          []string `json:"tags" binding:"max=10,dive,max=30"`
}

// Create publishes an article. Missing excerpts are derived from the body.
func (h *NewsHandler) Create(c *gin.Context) {
	var body createNewsRequest
	if !bindJSON(c, &body) {
		return
	}
	title := sanitize.Text(body.Title)
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is empty"})
		return
	}
	content := sanitize.HTML(body.Content)
	if sanitize.Text(content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is empty"})
		return
	}
	excerpt := sanitize.Text(body.Excerpt)
	if excerpt == "" {
		excerpt = sanitize.Excerpt(content, newsExcerptLength)
	}
	published := strings.TrimSpace(body.PublishedDate)
	if published == "" {
		published = time.Now().UTC().Format(time.DateOnly)
	}
	article := models.News{
		Title:         title,
		Excerpt:       excerpt,
		Content:       content,
		Source:        sanitize.Text(body.Source),
		ImageURL:      strings.TrimSpace(body.ImageURL),
		PublishedDate: published,
		Tags:          datatypes.NewJSONSlice(trimList(body.Tags)),
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&article).Error; errCreate != nil {
		if errors.Is(errCreate, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "title already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create news failed"})
		return
	}
	c.JSON(http.StatusCreated, render.News(&article, true))
}

// updateNewsRequest defines the request body for article edits.
type updateNewsRequest struct {
	Title         *string   `json:"title" binding:"omitempty,min=1,max=300"`
	Excerpt       *string   `json:"excerpt" binding:"omitempty,max=500"`
	Content       *string   `json:"content" binding:"omitempty,min=1,max=100000"`
	Source        *string   `json:"source" binding:"omitempty,min=1,max=100"`
	ImageURL      *string   `json:"image_url" binding:"omitempty,max=2048"`
	PublishedDate *string   `json:"published_date" binding:"omitempty,datetime=2006-01-02"`
	Tags          *[]string `json:"tags" binding:"omitempty,max=10,dive,max=30"`
}

// Update modifies an article.
func (h *NewsHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var body updateNewsRequest
	if !bindJSON(c, &body) {
		return
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if body.Title != nil {
		updates["title"] = sanitize.Text(*body.Title)
	}
	if body.Content != nil {
		updates["content"] = sanitize.HTML(*body.Content)
	}
	if body.Excerpt != nil {
		updates["excerpt"] = sanitize.Text(*body.Excerpt)
	}
	if body.Source != nil {
		updates["source"] = sanitize.Text(*body.Source)
	}
	if body.ImageURL != nil {
		updates["image_url"] = strings.TrimSpace(*body.ImageURL)
	}
	if body.PublishedDate != nil {
		updates["published_date"] = strings.TrimSpace(*body.PublishedDate)
	}
	if body.Tags != nil {
		updates["tags"] = datatypes.NewJSONSlice(trimList(*body.Tags))
	}

	ctx := c.Request.Context()
	res := h.db.WithContext(ctx).Model(&models.News{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "title already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	var article models.News
	if errFind := h.db.WithContext(ctx).First(&article, id).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, render.News(&article, true))
}

// Delete removes an article.
func (h *NewsHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	res := h.db.WithContext(c.Request.Context()).Delete(&models.News{}, id)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
