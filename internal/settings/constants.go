package settings

// DB config keys and defaults for settings.
const (
	// SiteNameKey is the DB config key for the public site name.
	SiteNameKey = "SITE_NAME"
	// DefaultSiteName is the fallback site name.
	DefaultSiteName = "VanillaAI"
	// ModelsPageSizeKey controls the default page size of model listings.
	ModelsPageSizeKey = "MODELS_PAGE_SIZE"
	// NewsPageSizeKey controls the default page size of news listings.
	NewsPageSizeKey = "NEWS_PAGE_SIZE"
	// PostsPageSizeKey controls the default page size of community listings.
	PostsPageSizeKey = "POSTS_PAGE_SIZE"
	// RegistrationEnabledKey toggles public sign-up.
	RegistrationEnabledKey = "REGISTRATION_ENABLED"
	// RateLimitKey controls the default write rate limit per second.
	RateLimitKey = "RATE_LIMIT"
	// RateLimitRedisEnabledKey toggles Redis-backed rate limiting.
	RateLimitRedisEnabledKey = "RATE_LIMIT_REDIS_ENABLED"
	// RateLimitRedisAddrKey defines the Redis address for rate limiting.
	RateLimitRedisAddrKey = "RATE_LIMIT_REDIS_ADDR"
	// RateLimitRedisPasswordKey defines the Redis password for rate limiting.
	RateLimitRedisPasswordKey = "RATE_LIMIT_REDIS_PASSWORD"
	// RateLimitRedisDBKey defines the Redis DB index for rate limiting.
	RateLimitRedisDBKey = "RATE_LIMIT_REDIS_DB"
	// RateLimitRedisPrefixKey defines the Redis key prefix for rate limiting.
	RateLimitRedisPrefixKey = "RATE_LIMIT_REDIS_PREFIX"
	// DefaultModelsPageSize is the fallback model page size.
	DefaultModelsPageSize = 12
	// DefaultNewsPageSize is the fallback news page size.
	DefaultNewsPageSize = 6
	// DefaultPostsPageSize is the fallback community page size.
	DefaultPostsPageSize = 10
	// DefaultRegistrationEnabled keeps sign-up open by default.
	DefaultRegistrationEnabled = true
	// DefaultRateLimit is the fallback rate limit (0 means unlimited).
	DefaultRateLimit = 0
	// DefaultRateLimitRedisPrefix is the fallback Redis key prefix.
	DefaultRateLimitRedisPrefix = "vanillai:rl"
	// MaxPageSize bounds any requested page size.
	MaxPageSize = 100
)
