package models

import (
	"time"

	"gorm.io/datatypes"
)

// News is a published news article.
type News struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Title         string                      `gorm:"type:varchar(300);not null;uniqueIndex"` // Headline.
	Excerpt       string                      `gorm:"type:varchar(500);not null"`             // Short summary.
	Content       string                      `gorm:"type:text;not null"`                     // Sanitized HTML body.
	Source        string                      `gorm:"type:varchar(100);not null"`             // Publisher name.
	ImageURL      string                      `gorm:"type:text"`                              // Cover image URL.
	PublishedDate string                      `gorm:"type:varchar(10);not null;index"`        // Publication date (YYYY-MM-DD).
	Tags          datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'"`       // Topic tags.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
