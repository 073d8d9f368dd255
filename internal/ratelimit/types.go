package ratelimit

import (
	"context"
	"time"
)

// Result describes the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
}

// RetryAfter returns the whole seconds until the window resets, at least 1.
func (r Result) RetryAfter(now time.Time) int {
	wait := r.Reset.Sub(now)
	if wait <= 0 {
		return 1
	}
	secs := int((wait + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// Limiter provides rate limit checks.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, now time.Time) (Result, error)
}

// Scope indicates who a limit is counted against.
type Scope int

const (
	ScopeNone Scope = iota
	ScopeUser
	ScopeClient
)

// Decision describes the resolved limit and the identity it applies to.
type Decision struct {
	Limit    int
	Scope    Scope
	UserID   uint64
	ClientIP string
}
