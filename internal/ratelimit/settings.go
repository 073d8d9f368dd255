package ratelimit

import (
	"strings"

	internalsettings "github.com/vanillai/vanillai/internal/settings"
)

// SettingsConfig captures rate limit settings stored in DB config.
type SettingsConfig struct {
	Limit         int
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// LoadSettingsConfig reads the rate limit settings from the current snapshot.
// Unparseable values keep their defaults.
func LoadSettingsConfig() SettingsConfig {
	cfg := SettingsConfig{
		Limit:       internalsettings.DefaultRateLimit,
		RedisPrefix: internalsettings.DefaultRateLimitRedisPrefix,
	}

	intValue(internalsettings.RateLimitKey, &cfg.Limit)
	intValue(internalsettings.RateLimitRedisDBKey, &cfg.RedisDB)
	stringValue(internalsettings.RateLimitRedisAddrKey, &cfg.RedisAddr)
	stringValue(internalsettings.RateLimitRedisPasswordKey, &cfg.RedisPassword)
	stringValue(internalsettings.RateLimitRedisPrefixKey, &cfg.RedisPrefix)
	if raw, ok := internalsettings.DBConfigValue(internalsettings.RateLimitRedisEnabledKey); ok {
		if enabled, okParse := internalsettings.ParseBool(raw); okParse {
			cfg.RedisEnabled = enabled
		}
	}

	if cfg.RedisPrefix = strings.TrimSpace(cfg.RedisPrefix); cfg.RedisPrefix == "" {
		cfg.RedisPrefix = internalsettings.DefaultRateLimitRedisPrefix
	}
	return cfg
}

// DefaultSettingsLimit returns the RATE_LIMIT setting, 0 meaning unlimited.
func DefaultSettingsLimit() int {
	return LoadSettingsConfig().Limit
}

func intValue(key string, dst *int) {
	if raw, ok := internalsettings.DBConfigValue(key); ok {
		if value, okParse := internalsettings.ParseNonNegativeInt(raw); okParse {
			*dst = value
		}
	}
}

func stringValue(key string, dst *string) {
	if raw, ok := internalsettings.DBConfigValue(key); ok {
		if value, okParse := internalsettings.ParseString(raw); okParse {
			*dst = value
		}
	}
}
