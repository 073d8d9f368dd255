package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath   = "CONFIG_PATH"
	EnvDBConnection = "DB_CONNECTION"
	EnvJWTSecret    = "JWT_SECRET"
	EnvJWTExpiry    = "JWT_EXPIRY"
)

// DefaultPort is the HTTP port used when neither file nor env sets one.
const DefaultPort = 8080

// AppConfig holds resolved application configuration values.
type AppConfig struct {
	ConfigPath string `env:"CONFIG_PATH"`
}

// LoadFromEnv loads app config from environment variables.
func LoadFromEnv() (AppConfig, error) {
	var cfg AppConfig
	if errParse := env.Parse(&cfg); errParse != nil {
		return AppConfig{}, fmt.Errorf("parse env: %w", errParse)
	}
	cfg.ConfigPath = ResolveConfigPath(cfg.ConfigPath)
	return cfg, nil
}

// ServerConfig holds HTTP server and runtime settings.
// Values come from the YAML file and are overridden by environment variables.
type ServerConfig struct {
	Host        string   `yaml:"host" env:"HOST"`
	Port        int      `yaml:"port" env:"PORT"`
	Debug       bool     `yaml:"debug" env:"DEBUG"`
	LogLevel    string   `yaml:"log-level" env:"LOG_LEVEL"`
	LogFormat   string   `yaml:"log-format" env:"LOG_FORMAT"`
	AdminEmails []string `yaml:"admin-emails" env:"ADMIN_EMAILS" envSeparator:","`
	CORSOrigins []string `yaml:"cors-origins" env:"CORS_ORIGINS" envSeparator:","`
}

// LoadServerConfig reads server settings from the config file and env overlay.
// A missing config file is not an error.
func LoadServerConfig(configPath string) (ServerConfig, error) {
	cfg := ServerConfig{Port: DefaultPort, LogLevel: "info", LogFormat: "text"}

	data, errRead := os.ReadFile(configPath)
	switch {
	case errRead == nil:
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
			return ServerConfig{}, fmt.Errorf("parse config file: %w", errUnmarshal)
		}
	case !errors.Is(errRead, os.ErrNotExist):
		return ServerConfig{}, fmt.Errorf("read config file: %w", errRead)
	}

	if errParse := env.Parse(&cfg); errParse != nil {
		return ServerConfig{}, fmt.Errorf("parse env: %w", errParse)
	}

	if cfg.Port <= 0 {
		cfg.Port = DefaultPort
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.AdminEmails = normalizeList(cfg.AdminEmails, true)
	cfg.CORSOrigins = normalizeList(cfg.CORSOrigins, false)
	return cfg, nil
}

// IsAdminEmail reports whether email is listed in admin-emails.
func (c ServerConfig) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, candidate := range c.AdminEmails {
		if candidate == email {
			return true
		}
	}
	return false
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", strings.TrimSpace(c.Host), c.Port)
}

func normalizeList(values []string, lower bool) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if lower {
			value = strings.ToLower(value)
		}
		out = append(out, value)
	}
	return out
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// ErrMissingDatabaseDSN indicates no database DSN is present in the config file.
var ErrMissingDatabaseDSN = errors.New("missing database dsn (set `database-dsn` or `database.dsn` in config file)")

// JWTConfig holds JWT secret and expiry settings.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

// LoadDatabaseDSN reads the database DSN from the YAML config file.
func LoadDatabaseDSN(configPath string) (string, error) {
	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		return dsn, nil
	}

	// fileConfig maps the YAML fields needed for DSN resolution.
	type fileConfig struct {
		DatabaseDSN string `yaml:"database-dsn"`
		Database    struct {
			DSN string `yaml:"dsn"`
		} `yaml:"database"`
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("read config file: %w", err)
	}

	var cfg fileConfig
	if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
		return "", fmt.Errorf("parse config file: %w", errUnmarshal)
	}

	if dsn := strings.TrimSpace(cfg.DatabaseDSN); dsn != "" {
		return dsn, nil
	}
	if dsn := strings.TrimSpace(cfg.Database.DSN); dsn != "" {
		return dsn, nil
	}
	return "", ErrMissingDatabaseDSN
}

// defaultJWTExpiry is used when the config omits or invalidates JWT expiry.
const defaultJWTExpiry = 30 * 24 * time.Hour

// LoadJWTConfig loads JWT settings from the YAML config file.
func LoadJWTConfig(configPath string) (JWTConfig, error) {
	// fileConfig maps the YAML fields needed for JWT settings.
	type fileConfig struct {
		JWT JWTConfig `yaml:"jwt"`
	}

	result := JWTConfig{Expiry: defaultJWTExpiry}

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result = cfg.JWT
		}
	}

	if secret := strings.TrimSpace(os.Getenv(EnvJWTSecret)); secret != "" {
		result.Secret = secret
	}
	if expiryRaw := strings.TrimSpace(os.Getenv(EnvJWTExpiry)); expiryRaw != "" {
		if expiry, errParse := time.ParseDuration(expiryRaw); errParse == nil && expiry > 0 {
			result.Expiry = expiry
		}
	}

	if result.Expiry <= 0 {
		result.Expiry = defaultJWTExpiry
	}
	return result, nil
}
