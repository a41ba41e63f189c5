package collector

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/kurihiro0119/github-stars-analyzer/internal/errors"
)

// RateLimiter manages GitHub API rate limiting
type RateLimiter interface {
	Wait(ctx context.Context) error
	CheckLimit() (remaining int, resetTime time.Time, err error)
	UpdateLimit(remaining int, resetTime time.Time)
}

// githubRateLimiter implements RateLimiter for GitHub API
type githubRateLimiter struct {
	mu        sync.Mutex
	remaining int
	resetTime time.Time
	minDelay  time.Duration
	lastCall  time.Time
	logger    *zap.Logger
}

// NewRateLimiter creates a rate limiter enforcing minDelay between calls
func NewRateLimiter(minDelay time.Duration, logger *zap.Logger) RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &githubRateLimiter{
		remaining: 60, // unauthenticated GitHub API limit until the first response
		resetTime: time.Now().Add(time.Hour),
		minDelay:  minDelay,
		logger:    logger,
	}
}

// Wait waits until it's safe to make another API call.
// Calls are serialized: the lock is held while waiting. An exhausted
// limit is reported as a rate limit error instead of waiting for reset.
func (r *githubRateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.remaining <= 0 {
		if time.Until(r.resetTime) > 0 {
			r.logger.Warn("rate limit exhausted",
				zap.Time("reset", r.resetTime))
			return apperrors.NewRateLimitedError(r.resetTime)
		}
		// Window elapsed; the next response refreshes the real numbers
		r.remaining = 1
	}

	// Ensure minimum delay between requests
	if !r.lastCall.IsZero() {
		if elapsed := time.Since(r.lastCall); elapsed < r.minDelay {
			if err := sleep(ctx, r.minDelay-elapsed); err != nil {
				return err
			}
		}
	}

	r.lastCall = time.Now()
	r.remaining--
	return nil
}

// CheckLimit returns the current rate limit status
func (r *githubRateLimiter) CheckLimit() (remaining int, resetTime time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining, r.resetTime, nil
}

// UpdateLimit updates the rate limit from API response headers
func (r *githubRateLimiter) UpdateLimit(remaining int, resetTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remaining = remaining
	r.resetTime = resetTime
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
