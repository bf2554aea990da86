package services

import "time"

const (
	KeyUserSession = "user:%s:session:%s"
	KeyRateLimit   = "ratelimit:%s:%s"
	KeyLock        = "lock:%s"

	TTLUserSession = 24 * time.Hour

	DefaultRateLimitClaims = 10 // Max 10 claim attempts per minute
	DefaultRateLimitTasks  = 30 // Max 30 task completions per minute

	lockRetryDelay = 50 * time.Millisecond
)
