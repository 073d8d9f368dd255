package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vanillai/vanillai/internal/models"
	"gorm.io/gorm"
)

// ResolveLimit picks the write limit for a request.
// Authenticated users are counted by id, using their own override when set and
// the RATE_LIMIT setting otherwise. Anonymous clients are counted by IP.
func ResolveLimit(ctx context.Context, db *gorm.DB, userID uint64, clientIP string) (Decision, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if userID == 0 {
		limit := DefaultSettingsLimit()
		if limit <= 0 || strings.TrimSpace(clientIP) == "" {
			return Decision{}, nil
		}
		return Decision{Limit: limit, Scope: ScopeClient, ClientIP: strings.TrimSpace(clientIP)}, nil
	}

	userLimit, errUser := loadUserRateLimit(ctx, db, userID)
	if errUser != nil {
		return Decision{}, errUser
	}
	if userLimit > 0 {
		return Decision{Limit: userLimit, Scope: ScopeUser, UserID: userID}, nil
	}
	if limit := DefaultSettingsLimit(); limit > 0 {
		return Decision{Limit: limit, Scope: ScopeUser, UserID: userID}, nil
	}
	return Decision{}, nil
}

func loadUserRateLimit(ctx context.Context, db *gorm.DB, userID uint64) (int, error) {
	if db == nil || userID == 0 {
		return 0, nil
	}
	var user models.User
	if errFind := db.WithContext(ctx).
		Model(&models.User{}).
		Select("rate_limit").
		Where("id = ?", userID).
		Take(&user).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("ratelimit: load user: %w", errFind)
	}
	if user.RateLimit < 0 {
		return 0, nil
	}
	return user.RateLimit, nil
}
