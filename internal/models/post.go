package models

import (
	"time"

	"gorm.io/datatypes"
)

// Post is a community forum thread.
type Post struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"`    // Author ID.
	User   *User  `gorm:"foreignKey:UserID"` // Author.

	Title   string                      `gorm:"type:varchar(200);not null;index"` // Thread title.
	Content string                      `gorm:"type:text;not null"`               // Sanitized HTML body.
	Excerpt string                      `gorm:"type:text;not null"`               // Listing preview.
	Tags    datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'"` // Topic tags.

	Views        int64 `gorm:"not null;default:0"` // View counter.
	Likes        int64 `gorm:"not null;default:0"` // Like counter.
	CommentCount int64 `gorm:"not null;default:0"` // Cached comment count.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`       // Last update timestamp.
}

// Comment is a reply on a community post.
type Comment struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	PostID uint64 `gorm:"not null;index"`                                // Parent post ID.
	Post   *Post  `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"` // Parent post.
	UserID uint64 `gorm:"not null;index"`                                // Author ID.
	User   *User  `gorm:"foreignKey:UserID"`                             // Author.

	Content string `gorm:"type:text;not null"` // Plain-text body.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
