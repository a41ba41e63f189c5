package collector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kurihiro0119/github-stars-analyzer/internal/errors"
)

func TestRateLimiterWait(t *testing.T) {
	t.Run("exhausted limit fails fast", func(t *testing.T) {
		rl := NewRateLimiter(0, nil)
		reset := time.Now().Add(time.Hour)
		rl.UpdateLimit(0, reset)

		err := rl.Wait(context.Background())
		require.Error(t, err)
		assert.True(t, apperrors.IsRateLimited(err))
	})

	t.Run("elapsed reset window allows a call", func(t *testing.T) {
		rl := NewRateLimiter(0, nil)
		rl.UpdateLimit(0, time.Now().Add(-time.Minute))

		require.NoError(t, rl.Wait(context.Background()))
	})

	t.Run("decrements remaining", func(t *testing.T) {
		rl := NewRateLimiter(0, nil)
		rl.UpdateLimit(5, time.Now().Add(time.Hour))

		require.NoError(t, rl.Wait(context.Background()))
		remaining, _, err := rl.CheckLimit()
		require.NoError(t, err)
		assert.Equal(t, 4, remaining)
	})

	t.Run("enforces the minimum delay", func(t *testing.T) {
		delay := 50 * time.Millisecond
		rl := NewRateLimiter(delay, nil)

		start := time.Now()
		require.NoError(t, rl.Wait(context.Background()))
		require.NoError(t, rl.Wait(context.Background()))
		assert.GreaterOrEqual(t, time.Since(start), delay)
	})

	t.Run("honours cancellation while delaying", func(t *testing.T) {
		rl := NewRateLimiter(time.Hour, nil)
		require.NoError(t, rl.Wait(context.Background()))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, rl.Wait(ctx), context.Canceled)
	})
}
