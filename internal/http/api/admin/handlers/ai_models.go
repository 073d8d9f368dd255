package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/vanillai/vanillai/internal/http/api/render"
	"github.com/vanillai/vanillai/internal/models"
	"github.com/vanillai/vanillai/internal/pricing"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AIModelHandler manages catalog entries and their details.
type AIModelHandler struct {
	db *gorm.DB
}

// NewAIModelHandler constructs an AIModelHandler.
func NewAIModelHandler(db *gorm.DB) *AIModelHandler {
	return &AIModelHandler{db: db}
}

// modelRequest defines the request body for creating a model.
type modelRequest struct {
	Name        string   `json:"name" binding:"required,max=100"`
	Category    string   `json:"category" binding:"required,max=50"`
	Company     string   `json:"company" binding:"required,max=100"`
	Pricing     string   `json:"pricing" binding:"required,max=200"`
	Features    []string `json:"features" binding:"required,min=1,max=20,dive,required,max=100"`
	Popularity  int      `json:"popularity" binding:"min=0,max=100"`
	ReleaseDate string   `json:"release_date" binding:"required,datetime=2006-01-02"`
	Description string   `json:"description" binding:"max=1000"`
	ImageURL    string   `json:"image_url" binding:"omitempty,max=2048"`
}

// Create inserts a model.
func (h *AIModelHandler) Create(c *gin.Context) {
	var body modelRequest
	if !bindJSON(c, &body) {
		return
	}
	model := models.AIModel{
		Name:        strings.TrimSpace(body.Name),
		Category:    strings.TrimSpace(body.Category),
		Company:     strings.TrimSpace(body.Company),
		Pricing:     strings.TrimSpace(body.Pricing),
		Features:    datatypes.NewJSONSlice(trimList(body.Features)),
		Popularity:  body.Popularity,
		ReleaseDate: body.ReleaseDate,
		Description: strings.TrimSpace(body.Description),
		ImageURL:    strings.TrimSpace(body.ImageURL),
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&model).Error; errCreate != nil {
		if errors.Is(errCreate, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "name already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create model failed"})
		return
	}
	c.JSON(http.StatusCreated, render.Model(&model))
}

// updateModelRequest defines the request body for model edits.
type updateModelRequest struct {
	Name        *string   `json:"name" binding:"omitempty,min=1,max=100"`
	Category    *string   `json:"category" binding:"omitempty,min=1,max=50"`
	Company     *string   `json:"company" binding:"omitempty,min=1,max=100"`
	Pricing     *string   `json:"pricing" binding:"omitempty,min=1,max=200"`
	Features    *[]string `json:"features" binding:"omitempty,min=1,max=20,dive,required,max=100"`
	Popularity  *int      `json:"popularity" binding:"omitempty,min=0,max=100"`
	ReleaseDate *string   `json:"release_date" binding:"omitempty,datetime=2006-01-02"`
	Description *string   `json:"description" binding:"omitempty,max=1000"`
	ImageURL    *string   `json:"image_url" binding:"omitempty,max=2048"`
}

// Update modifies a model.
func (h *AIModelHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var body updateModelRequest
	if !bindJSON(c, &body) {
		return
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	setString := func(column string, value *string) {
		if value != nil {
			updates[column] = strings.TrimSpace(*value)
		}
	}
	setString("name", body.Name)
	setString("category", body.Category)
	setString("company", body.Company)
	setString("pricing", body.Pricing)
	setString("release_date", body.ReleaseDate)
	setString("description", body.Description)
	setString("image_url", body.ImageURL)
	if body.Features != nil {
		updates["features"] = datatypes.NewJSONSlice(trimList(*body.Features))
	}
	if body.Popularity != nil {
		updates["popularity"] = *body.Popularity
	}

	ctx := c.Request.Context()
	res := h.db.WithContext(ctx).Model(&models.AIModel{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "name already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	var model models.AIModel
	if errFind := h.db.WithContext(ctx).First(&model, id).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, render.Model(&model))
}

// Delete removes a model and, by cascade, its details.
func (h *AIModelHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	res := h.db.WithContext(c.Request.Context()).Delete(&models.AIModel{}, id)
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

// detailsRequest defines the request body for a details upsert.
type detailsRequest struct {
	Overview       string          `json:"overview" binding:"max=5000"`
	UseCases       []string        `json:"use_cases" binding:"max=20,dive,max=200"`
	Strengths      []string        `json:"strengths" binding:"max=20,dive,max=200"`
	Limitations    []string        `json:"limitations" binding:"max=20,dive,max=200"`
	ExamplePrompts []string        `json:"example_prompts" binding:"max=20,dive,max=1000"`
	PricingDetails json.RawMessage `json:"pricing_details"`
	APIDocURL      string          `json:"api_documentation_url" binding:"omitempty,url,max=2048"`
}

// UpsertDetails replaces the details record of a model.
func (h *AIModelHandler) UpsertDetails(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var body detailsRequest
	if !bindJSON(c, &body) {
		return
	}
	pricingJSON, okPricing := normalizePricing(c, body.PricingDetails)
	if !okPricing {
		return
	}
	if !h.modelExists(c, id) {
		return
	}

	detail := models.AIModelDetail{
		ModelID:        id,
		Overview:       strings.TrimSpace(body.Overview),
		UseCases:       datatypes.NewJSONSlice(trimList(body.UseCases)),
		Strengths:      datatypes.NewJSONSlice(trimList(body.Strengths)),
		Limitations:    datatypes.NewJSONSlice(trimList(body.Limitations)),
		ExamplePrompts: datatypes.NewJSONSlice(trimList(body.ExamplePrompts)),
		PricingDetails: pricingJSON,
		APIDocURL:      strings.TrimSpace(body.APIDocURL),
	}
	ctx := c.Request.Context()
	if errUpsert := h.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "model_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"overview",
			"use_cases",
			"strengths",
			"limitations",
			"example_prompts",
			"pricing_details",
			"api_documentation_url",
			"updated_at",
		}),
	}).Create(&detail).Error; errUpsert != nil {
		log.WithError(errUpsert).Error("admin: upsert model details")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save details failed"})
		return
	}
	var saved models.AIModelDetail
	if errFind := h.db.WithContext(ctx).Where("model_id = ?", id).First(&saved).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, render.Detail(&saved))
}

// pricingRequest defines the request body for a pricing-only update.
type pricingRequest struct {
	PricingDetails json.RawMessage `json:"pricing_details"`
}

// UpdatePricing replaces only the structured pricing of a model, creating
// the details record when missing. A null payload clears it.
func (h *AIModelHandler) UpdatePricing(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var body pricingRequest
	if !bindJSON(c, &body) {
		return
	}
	pricingJSON, okPricing := normalizePricing(c, body.PricingDetails)
	if !okPricing {
		return
	}
	if !h.modelExists(c, id) {
		return
	}
	empty := datatypes.NewJSONSlice([]string{})
	detail := models.AIModelDetail{
		ModelID:        id,
		UseCases:       empty,
		Strengths:      empty,
		Limitations:    empty,
		ExamplePrompts: empty,
		PricingDetails: pricingJSON,
	}
	if errUpsert := h.db.WithContext(c.Request.Context()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "model_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"pricing_details", "updated_at"}),
	}).Create(&detail).Error; errUpsert != nil {
		log.WithError(errUpsert).Error("admin: update model pricing")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save pricing failed"})
		return
	}
	var pricingOut any
	if pricingJSON != nil {
		pricingOut = pricingJSON
	}
	c.JSON(http.StatusOK, gin.H{"model_id": id, "pricing_details": pricingOut})
}

func (h *AIModelHandler) modelExists(c *gin.Context, id uint64) bool {
	var count int64
	if errCount := h.db.WithContext(c.Request.Context()).Model(&models.AIModel{}).Where("id = ?", id).Count(&count).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return false
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return false
	}
	return true
}

// normalizePricing validates a submitted pricing payload and re-encodes it in
// canonical form. Empty and null payloads clear the pricing.
func normalizePricing(c *gin.Context, raw json.RawMessage) (datatypes.JSON, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, true
	}
	details, ok := pricing.Decode(raw)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pricing_details must be an object"})
		return nil, false
	}
	if errValidate := pricing.Validate(details); errValidate != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errValidate.Error()})
		return nil, false
	}
	encoded, errEncode := pricing.Encode(details)
	if errEncode != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pricing_details"})
		return nil, false
	}
	return datatypes.JSON(encoded), true
}
