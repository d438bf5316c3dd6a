// Package ratelimit throttles notify API requests per device. Requests that
// carry a device GUID are limited per GUID; requests without one share a
// stricter per-address budget.
package ratelimit

import "time"

// Limiter decides whether a request identified by key may proceed.
// Implementations must be safe for concurrent use.
type Limiter interface {
	Allow(key string) (allowed bool, info Info)
	Close()
}

// Info is the budget state reported in response headers.
type Info struct {
	Limit      int           // requests per minute
	Remaining  int           // whole tokens left
	ResetAt    time.Time     // when the bucket refills completely
	RetryAfter time.Duration // wait before the next token, when denied
}
