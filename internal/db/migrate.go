package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vanillai/vanillai/internal/models"
	internalsettings "github.com/vanillai/vanillai/internal/settings"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Migrate runs database migrations for the current dialect.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	switch DialectName(conn) {
	case DialectSQLite, DialectPostgres, "":
	default:
		return fmt.Errorf("db: unsupported dialect: %s", DialectName(conn))
	}

	if errAutoMigrate := conn.AutoMigrate(
		&models.User{},
		&models.AIModel{},
		&models.AIModelDetail{},
		&models.News{},
		&models.Post{},
		&models.Comment{},
		&models.Setting{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}

	if errSeed := ensureDefaultSettings(conn); errSeed != nil {
		return errSeed
	}

	// ddl defines an index or DDL statement to apply.
	type ddl struct {
		name string
		stmt string
	}
	ddls := []ddl{
		{name: "ai_models category", stmt: `CREATE INDEX IF NOT EXISTS idx_ai_models_category_popularity ON ai_models (category, popularity)`},
		{name: "ai_models release", stmt: `CREATE INDEX IF NOT EXISTS idx_ai_models_release_date ON ai_models (release_date)`},
		{name: "posts likes", stmt: `CREATE INDEX IF NOT EXISTS idx_posts_likes ON posts (likes)`},
		{name: "posts views", stmt: `CREATE INDEX IF NOT EXISTS idx_posts_views ON posts (views)`},
		{name: "comments post created", stmt: `CREATE INDEX IF NOT EXISTS idx_comments_post_created ON comments (post_id, created_at)`},
	}
	for _, item := range ddls {
		if errExec := conn.Exec(item.stmt).Error; errExec != nil {
			return fmt.Errorf("db: create index %s: %w", item.name, errExec)
		}
	}
	return nil
}

// ensureDefaultSettings seeds settings that must exist on a fresh database.
func ensureDefaultSettings(conn *gorm.DB) error {
	defaults := []struct {
		key   string
		value any
	}{
		{key: internalsettings.SiteNameKey, value: internalsettings.DefaultSiteName},
		{key: internalsettings.ModelsPageSizeKey, value: internalsettings.DefaultModelsPageSize},
		{key: internalsettings.NewsPageSizeKey, value: internalsettings.DefaultNewsPageSize},
		{key: internalsettings.PostsPageSizeKey, value: internalsettings.DefaultPostsPageSize},
		{key: internalsettings.RegistrationEnabledKey, value: internalsettings.DefaultRegistrationEnabled},
		{key: internalsettings.RateLimitKey, value: internalsettings.DefaultRateLimit},
	}
	for _, item := range defaults {
		if errEnsure := ensureSetting(conn, item.key, item.value); errEnsure != nil {
			return errEnsure
		}
	}
	return nil
}

// ensureSetting creates a setting or fills it when the stored value is empty.
func ensureSetting(conn *gorm.DB, key string, value any) error {
	payload, errMarshal := json.Marshal(value)
	if errMarshal != nil {
		return fmt.Errorf("db: marshal %s setting: %w", key, errMarshal)
	}

	var existing models.Setting
	if errFind := conn.Where("key = ?", key).First(&existing).Error; errFind == nil {
		trimmed := strings.TrimSpace(string(existing.Value))
		if len(existing.Value) == 0 || trimmed == "" || trimmed == "null" {
			if errUpdate := conn.Model(&existing).Updates(map[string]any{
				"value":      datatypes.JSON(payload),
				"updated_at": time.Now().UTC(),
			}).Error; errUpdate != nil {
				return fmt.Errorf("db: update %s setting: %w", key, errUpdate)
			}
		}
		return nil
	} else if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return fmt.Errorf("db: query %s setting: %w", key, errFind)
	}

	setting := models.Setting{
		Key:       key,
		Value:     payload,
		UpdatedAt: time.Now().UTC(),
	}
	if errCreate := conn.Create(&setting).Error; errCreate != nil {
		return fmt.Errorf("db: create %s setting: %w", key, errCreate)
	}
	return nil
}
