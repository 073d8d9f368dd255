package models

import (
	"time"

	"gorm.io/datatypes"
)

// AIModel is a catalog entry shown in listings and comparisons.
type AIModel struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name     string `gorm:"type:varchar(100);not null;uniqueIndex"` // Display name.
	Category string `gorm:"type:varchar(50);not null;index"`        // Category label.
	Company  string `gorm:"type:varchar(100);not null;index"`       // Vendor name.
	Pricing  string `gorm:"type:varchar(200);not null"`             // Free-text pricing summary.

	Features   datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'"` // Ordered feature list.
	Popularity int                         `gorm:"not null;default:0;index"`         // Popularity 0-100.

	ReleaseDate string `gorm:"type:varchar(10);not null"` // Release date (YYYY-MM-DD).
	Description string `gorm:"type:text"`                 // Long description.
	ImageURL    string `gorm:"type:text"`                 // Cover image URL.

	Detail *AIModelDetail `gorm:"foreignKey:ModelID;constraint:OnDelete:CASCADE"` // Extended details.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName overrides the default table name.
func (AIModel) TableName() string {
	return "ai_models"
}

// AIModelDetail stores the extended description and pricing of a model.
type AIModelDetail struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	ModelID uint64 `gorm:"not null;uniqueIndex"` // Owning model ID.

	Overview       string                      `gorm:"type:text"`                        // Overview paragraph.
	UseCases       datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'"` // Typical use cases.
	Strengths      datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'"` // Strengths.
	Limitations    datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'"` // Limitations.
	ExamplePrompts datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'"` // Example prompts.

	PricingDetails datatypes.JSON `gorm:"type:jsonb"`                             // Structured pricing, null when unknown.
	APIDocURL      string         `gorm:"column:api_documentation_url;type:text"` // API documentation link.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName overrides the default table name.
func (AIModelDetail) TableName() string {
	return "ai_model_details"
}
