package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/vanillai/vanillai/internal/models"
	"gorm.io/gorm"
)

var dbConfig atomic.Pointer[map[string]json.RawMessage]

// DBConfigValue returns the raw JSON value of a setting from the current snapshot.
func DBConfigValue(key string) (json.RawMessage, bool) {
	snapshot := dbConfig.Load()
	if snapshot == nil {
		return nil, false
	}
	raw, ok := (*snapshot)[strings.TrimSpace(key)]
	if !ok || len(bytes.TrimSpace(raw)) == 0 {
		return nil, false
	}
	return raw, true
}

// StoreDBConfig replaces the snapshot with the given values.
func StoreDBConfig(values map[string]json.RawMessage) {
	next := make(map[string]json.RawMessage, len(values))
	for key, value := range values {
		next[strings.TrimSpace(key)] = value
	}
	dbConfig.Store(&next)
}

// Refresh reloads the snapshot from the settings table.
func Refresh(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("settings: nil db")
	}
	var rows []models.Setting
	if errFind := db.WithContext(ctx).Find(&rows).Error; errFind != nil {
		return fmt.Errorf("settings: load: %w", errFind)
	}
	values := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		values[row.Key] = json.RawMessage(row.Value)
	}
	StoreDBConfig(values)
	return nil
}

// SiteName returns the configured site name.
func SiteName() string {
	if raw, ok := DBConfigValue(SiteNameKey); ok {
		if name, okParse := ParseString(raw); okParse && name != "" {
			return name
		}
	}
	return DefaultSiteName
}

// PageSize returns a positive page size for key, bounded by MaxPageSize.
func PageSize(key string, fallback int) int {
	if raw, ok := DBConfigValue(key); ok {
		if size, okParse := ParseNonNegativeInt(raw); okParse && size > 0 {
			if size > MaxPageSize {
				return MaxPageSize
			}
			return size
		}
	}
	return fallback
}

// RegistrationEnabled reports whether public sign-up is open.
func RegistrationEnabled() bool {
	if raw, ok := DBConfigValue(RegistrationEnabledKey); ok {
		if enabled, okParse := ParseBool(raw); okParse {
			return enabled
		}
	}
	return DefaultRegistrationEnabled
}

// ParseBool accepts JSON booleans, common truthy strings and 0/1.
func ParseBool(raw json.RawMessage) (bool, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false, false
	}
	var parsedBool bool
	if errUnmarshalBool := json.Unmarshal(raw, &parsedBool); errUnmarshalBool == nil {
		return parsedBool, true
	}
	var parsedString string
	if errUnmarshalString := json.Unmarshal(raw, &parsedString); errUnmarshalString == nil {
		switch strings.ToLower(strings.TrimSpace(parsedString)) {
		case "1", "true", "yes", "y", "on":
			return true, true
		case "0", "false", "no", "n", "off":
			return false, true
		default:
			return false, false
		}
	}
	var parsedFloat float64
	if errUnmarshalFloat := json.Unmarshal(raw, &parsedFloat); errUnmarshalFloat == nil {
		if parsedFloat == 1 {
			return true, true
		}
		if parsedFloat == 0 {
			return false, true
		}
	}
	return false, false
}

// ParseString accepts a JSON string and trims it.
func ParseString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	var parsedString string
	if errUnmarshal := json.Unmarshal(raw, &parsedString); errUnmarshal == nil {
		return strings.TrimSpace(parsedString), true
	}
	return "", false
}

// ParseNonNegativeInt accepts JSON integers, integral floats and numeric strings.
func ParseNonNegativeInt(raw json.RawMessage) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	var parsedInt int
	if errUnmarshalInt := json.Unmarshal(raw, &parsedInt); errUnmarshalInt == nil {
		return parsedInt, parsedInt >= 0
	}
	var parsedString string
	if errUnmarshalString := json.Unmarshal(raw, &parsedString); errUnmarshalString == nil {
		parsed, errParse := strconv.Atoi(strings.TrimSpace(parsedString))
		if errParse != nil {
			return 0, false
		}
		return parsed, parsed >= 0
	}
	var parsedFloat float64
	if errUnmarshalFloat := json.Unmarshal(raw, &parsedFloat); errUnmarshalFloat == nil {
		if math.IsNaN(parsedFloat) || math.IsInf(parsedFloat, 0) {
			return 0, false
		}
		if parsedFloat < 0 || parsedFloat != math.Trunc(parsedFloat) {
			return 0, false
		}
		return int(parsedFloat), true
	}
	return 0, false
}
