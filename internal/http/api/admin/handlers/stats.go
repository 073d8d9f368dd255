package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vanillai/vanillai/internal/models"
	"gorm.io/gorm"
)

// StatsHandler summarizes stored content for the dashboard.
type StatsHandler struct {
	db *gorm.DB
}

// NewStatsHandler constructs a StatsHandler.
func NewStatsHandler(db *gorm.DB) *StatsHandler {
	return &StatsHandler{db: db}
}

type categoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// Summary returns row counts per table and models per category.
func (h *StatsHandler) Summary(c *gin.Context) {
	ctx := c.Request.Context()
	counts := gin.H{}
	tables := []struct {
		name  string
		model any
	}{
		{"models", &models.AIModel{}},
		{"details", &models.AIModelDetail{}},
		{"news", &models.News{}},
		{"posts", &models.Post{}},
		{"comments", &models.Comment{}},
		{"users", &models.User{}},
	}
	for _, table := range tables {
		var n int64
		if errCount := h.db.WithContext(ctx).Model(table.model).Count(&n).Error; errCount != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		counts[table.name] = n
	}

	var categories []categoryCount
	if errGroup := h.db.WithContext(ctx).Model(&models.AIModel{}).
		Select("category, COUNT(*) AS count").
		Group("category").
		Order("category ASC").
		Scan(&categories).Error; errGroup != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if categories == nil {
		categories = []categoryCount{}
	}
	c.JSON(http.StatusOK, gin.H{"counts": counts, "categories": categories})
}
