package ghclient

import (
	"sync"
	"time"
)

// RateLimitLowWatermark is the remaining-request threshold below which
// a warning is logged.
const RateLimitLowWatermark = 50

// rateLimitState tracks the shared rate limit state across requests so
// a limited process stops issuing calls until the window resets.
type rateLimitState struct {
	mu        sync.RWMutex
	limited   bool
	resetAt   time.Time
	remaining int
	limit     int
}

var globalRateLimitState = &rateLimitState{}

// IsLimited reports whether requests should currently be withheld.
func (s *rateLimitState) IsLimited() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.limited {
		return false
	}
	return time.Now().Before(s.resetAt)
}

// SetLimited marks the process rate limited until resetAt.
func (s *rateLimitState) SetLimited(limited bool, resetAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limited = limited
	s.resetAt = resetAt
}

// Update records quota information from response headers.
func (s *rateLimitState) Update(remaining, limit int, resetAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remaining = remaining
	s.limit = limit
	s.resetAt = resetAt
	if remaining == 0 {
		s.limited = true
	}
}

// Status returns the current quota snapshot.
func (s *rateLimitState) Status() (remaining, limit int, resetAt time.Time, limited bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remaining, s.limit, s.resetAt, s.limited && time.Now().Before(s.resetAt)
}

// IsRateLimited reports whether the shared state says we are limited.
func IsRateLimited() bool {
	return globalRateLimitState.IsLimited()
}

// RateLimitStatus returns the shared rate limit snapshot.
func RateLimitStatus() (remaining, limit int, resetAt time.Time, limited bool) {
	return globalRateLimitState.Status()
}
