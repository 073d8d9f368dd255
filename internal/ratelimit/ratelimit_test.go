package ratelimit

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vanillai/vanillai/internal/db"
	"github.com/vanillai/vanillai/internal/models"
	internalsettings "github.com/vanillai/vanillai/internal/settings"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
	)
}

func TestMemoryLimiterWindow(t *testing.T) {
	limiter := NewMemoryLimiter()
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 200_000_000)

	for i := 0; i < 3; i++ {
		res, err := limiter.Allow(ctx, "k", 3, now)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 2-i, res.Remaining)
	}
	denied, err := limiter.Allow(ctx, "k", 3, now)
	require.NoError(t, err)
	assert.False(t, denied.Allowed)
	assert.Equal(t, time.Unix(1_700_000_001, 0).UTC(), denied.Reset)
	assert.Equal(t, 1, denied.RetryAfter(now))

	other, err := limiter.Allow(ctx, "other", 3, now)
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	next, err := limiter.Allow(ctx, "k", 3, now.Add(time.Second))
	require.NoError(t, err)
	assert.True(t, next.Allowed)
}

func TestMemoryLimiterUnlimited(t *testing.T) {
	limiter := NewMemoryLimiter()
	res, err := limiter.Allow(context.Background(), "k", 0, time.Now())
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	res, err = limiter.Allow(context.Background(), "", 1, time.Now())
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 0, limiter.Len())
}

func TestMemoryLimiterSweepsStaleWindows(t *testing.T) {
	limiter := NewMemoryLimiter()
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	for i := 0; i <= sweepThreshold; i++ {
		_, err := limiter.Allow(ctx, KeyForDecision("posts", Decision{Limit: 1, Scope: ScopeUser, UserID: uint64(i + 1)}), 1, now)
		require.NoError(t, err)
	}
	assert.Equal(t, sweepThreshold+1, limiter.Len())

	_, err := limiter.Allow(ctx, "fresh", 1, now.Add(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, limiter.Len())
}

func TestKeyForDecision(t *testing.T) {
	assert.Equal(t, "posts:u:7", KeyForDecision("posts", Decision{Limit: 2, Scope: ScopeUser, UserID: 7}))
	assert.Equal(t, "auth:ip:10.0.0.1", KeyForDecision("auth", Decision{Limit: 2, Scope: ScopeClient, ClientIP: " 10.0.0.1 "}))
	assert.Equal(t, "default:u:7", KeyForDecision("", Decision{Limit: 2, Scope: ScopeUser, UserID: 7}))
	assert.Empty(t, KeyForDecision("posts", Decision{Limit: 0, Scope: ScopeUser, UserID: 7}))
	assert.Empty(t, KeyForDecision("posts", Decision{Limit: 2, Scope: ScopeUser}))
	assert.Empty(t, KeyForDecision("posts", Decision{Limit: 2, Scope: ScopeNone}))
}

func TestResultRetryAfter(t *testing.T) {
	now := time.Unix(100, 0)
	assert.Equal(t, 1, Result{Reset: now.Add(300 * time.Millisecond)}.RetryAfter(now))
	assert.Equal(t, 2, Result{Reset: now.Add(1500 * time.Millisecond)}.RetryAfter(now))
	assert.Equal(t, 1, Result{Reset: now.Add(-time.Second)}.RetryAfter(now))
}

func storeSettings(t *testing.T, values map[string]any) {
	t.Helper()
	raw := make(map[string]json.RawMessage, len(values))
	for key, value := range values {
		encoded, err := json.Marshal(value)
		require.NoError(t, err)
		raw[key] = encoded
	}
	internalsettings.StoreDBConfig(raw)
	t.Cleanup(func() { internalsettings.StoreDBConfig(nil) })
}

func TestLoadSettingsConfig(t *testing.T) {
	storeSettings(t, map[string]any{
		internalsettings.RateLimitKey:              "5",
		internalsettings.RateLimitRedisEnabledKey:  "yes",
		internalsettings.RateLimitRedisAddrKey:     " 127.0.0.1:6379 ",
		internalsettings.RateLimitRedisDBKey:       -3,
		internalsettings.RateLimitRedisPrefixKey:   "  ",
		internalsettings.RateLimitRedisPasswordKey: 42,
	})
	cfg := LoadSettingsConfig()
	assert.Equal(t, SettingsConfig{
		Limit:        5,
		RedisEnabled: true,
		RedisAddr:    "127.0.0.1:6379",
		RedisPrefix:  internalsettings.DefaultRateLimitRedisPrefix,
	}, cfg)
}

func TestResolveLimit(t *testing.T) {
	conn, err := db.Open(db.BuildSQLiteDSN(filepath.Join(t.TempDir(), "rl.db")))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, errDB := conn.DB(); errDB == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, db.Migrate(conn))

	plain := models.User{Username: "plain", Email: "plain@example.com", Password: "x"}
	custom := models.User{Username: "custom", Email: "custom@example.com", Password: "x", RateLimit: 9}
	require.NoError(t, conn.Create(&plain).Error)
	require.NoError(t, conn.Create(&custom).Error)
	ctx := context.Background()

	storeSettings(t, map[string]any{internalsettings.RateLimitKey: 0})
	decision, err := ResolveLimit(ctx, conn, plain.ID, "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, Decision{}, decision)

	decision, err = ResolveLimit(ctx, conn, custom.ID, "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, Decision{Limit: 9, Scope: ScopeUser, UserID: custom.ID}, decision)

	storeSettings(t, map[string]any{internalsettings.RateLimitKey: 3})
	decision, err = ResolveLimit(ctx, conn, plain.ID, "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, Decision{Limit: 3, Scope: ScopeUser, UserID: plain.ID}, decision)

	decision, err = ResolveLimit(ctx, conn, 0, "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, Decision{Limit: 3, Scope: ScopeClient, ClientIP: "1.2.3.4"}, decision)

	decision, err = ResolveLimit(ctx, conn, 0, "")
	require.NoError(t, err)
	assert.Equal(t, Decision{}, decision)
}

func TestManagerUsesMemoryWhenRedisDisabled(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	calls := 0
	manager := NewManager(func() SettingsConfig { return SettingsConfig{} }, func() time.Time { return now },
		func(options *redis.Options) *redis.Client {
			calls++
			return redis.NewClient(options)
		})
	t.Cleanup(func() { _ = manager.Close() })

	decision := Decision{Limit: 1, Scope: ScopeUser, UserID: 1}
	first, err := manager.Check(context.Background(), "posts", decision)
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	second, err := manager.Check(context.Background(), "posts", decision)
	require.NoError(t, err)
	assert.False(t, second.Allowed)

	other, err := manager.Check(context.Background(), "comments", decision)
	require.NoError(t, err)
	assert.True(t, other.Allowed)
	assert.Equal(t, 0, calls)
}

func TestManagerBreakerFallsBackToMemory(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	calls := 0
	manager := NewManager(
		func() SettingsConfig {
			return SettingsConfig{RedisEnabled: true, RedisAddr: "127.0.0.1:1", RedisPrefix: "test"}
		},
		func() time.Time { return now },
		func(options *redis.Options) *redis.Client {
			calls++
			options.DialTimeout = 200 * time.Millisecond
			options.MaxRetries = -1
			return redis.NewClient(options)
		})
	t.Cleanup(func() { _ = manager.Close() })

	res, err := manager.Allow(context.Background(), "k", 1)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, calls)

	res, err = manager.Allow(context.Background(), "k", 1)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 1, calls)

	now = now.Add(redisBreakerDuration + time.Second)
	res, err = manager.Allow(context.Background(), "k", 1)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 2, calls)
}

func TestNilManagerAllows(t *testing.T) {
	var manager *Manager
	res, err := manager.Check(context.Background(), "posts", Decision{Limit: 1, Scope: ScopeUser, UserID: 1})
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.NoError(t, manager.Close())
}
