package models

import "time"

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an account stored in the database.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Username string `gorm:"type:varchar(20);not null;uniqueIndex"` // Unique display handle.
	Email    string `gorm:"type:text;not null;uniqueIndex"`        // Login email address.
	Password string `gorm:"type:text;not null"`                    // Hashed password.

	Role      string `gorm:"type:varchar(16);not null;default:'user'"` // Access role.
	AvatarURL string `gorm:"type:text"`                                // Avatar image URL.

	RateLimit int  `gorm:"not null;default:0"`     // Write rate limit per second override.
	Disabled  bool `gorm:"not null;default:false"` // Explicit disable flag.

	TOTPSecret string `gorm:"type:text"` // TOTP secret for MFA.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
