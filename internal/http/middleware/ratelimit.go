package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/vanillai/vanillai/internal/ratelimit"
	"gorm.io/gorm"
)

// RateLimit counts requests in bucket against the caller's limit.
// It must run after OptionalUser or RequireUser so users are keyed by id.
func RateLimit(manager *ratelimit.Manager, db *gorm.DB, bucket string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if manager == nil {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		decision, errResolve := ratelimit.ResolveLimit(ctx, db, UserID(c), c.ClientIP())
		if errResolve != nil {
			log.WithError(errResolve).Warn("rate limit: resolve failed, allowing request")
			c.Next()
			return
		}
		if decision.Limit <= 0 {
			c.Next()
			return
		}
		result, errAllow := manager.Check(ctx, bucket, decision)
		if errAllow != nil {
			log.WithError(errAllow).Warn("rate limit: check failed, allowing request")
			c.Next()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		if !result.Allowed {
			c.Header("Retry-After", strconv.Itoa(result.RetryAfter(manager.Now())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
