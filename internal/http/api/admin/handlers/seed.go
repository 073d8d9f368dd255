package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/vanillai/vanillai/internal/seed"
	"gorm.io/gorm"
)

// SeedHandler loads the bundled sample dataset.
type SeedHandler struct {
	db *gorm.DB
}

// NewSeedHandler constructs a SeedHandler.
func NewSeedHandler(db *gorm.DB) *SeedHandler {
	return &SeedHandler{db: db}
}

// Seed inserts the missing sample rows and reports what was added.
func (h *SeedHandler) Seed(c *gin.Context) {
	result, errSeed := seed.Run(c.Request.Context(), h.db)
	if errSeed != nil {
		log.WithError(errSeed).Error("admin: seed dataset")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "seed failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"inserted": gin.H{
			"models":  result.Models,
			"details": result.Details,
			"news":    result.News,
			"authors": result.Authors,
			"posts":   result.Posts,
		},
	})
}

// ApplyDefaultPricing restores the bundled pricing of every seeded model.
func (h *SeedHandler) ApplyDefaultPricing(c *gin.Context) {
	results, errApply := seed.ApplyDefaultPricing(c.Request.Context(), h.db, nil)
	if errApply != nil {
		log.WithError(errApply).Error("admin: apply default pricing")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "apply pricing failed"})
		return
	}
	updated := 0
	for _, result := range results {
		if result.Success {
			updated++
		}
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "updated": updated, "total": len(results)})
}
