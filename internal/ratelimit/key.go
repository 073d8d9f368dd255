package ratelimit

import (
	"fmt"
	"strings"
)

// KeyForDecision builds a limiter key for bucket and the resolved identity.
// An empty key disables limiting.
func KeyForDecision(bucket string, decision Decision) string {
	if decision.Limit <= 0 {
		return ""
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		bucket = "default"
	}
	switch decision.Scope {
	case ScopeUser:
		if decision.UserID == 0 {
			return ""
		}
		return fmt.Sprintf("%s:u:%d", bucket, decision.UserID)
	case ScopeClient:
		ip := strings.TrimSpace(decision.ClientIP)
		if ip == "" {
			return ""
		}
		return fmt.Sprintf("%s:ip:%s", bucket, ip)
	default:
		return ""
	}
}
