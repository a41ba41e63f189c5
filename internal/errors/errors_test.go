package errors

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf_WrappedError(t *testing.T) {
	err := fmt.Errorf("fetching stars: %w", NewNotFoundError("user octocat"))

	assert.Equal(t, ErrCodeNotFound, CodeOf(err))
	assert.True(t, IsNotFound(err))
	assert.False(t, IsRateLimited(err))
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Equal(t, ErrCodeInternal, CodeOf(fmt.Errorf("boom")))
	assert.False(t, IsNotFound(nil))
}

func TestNewRateLimitedError(t *testing.T) {
	reset := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	err := NewRateLimitedError(reset)

	assert.Equal(t, ErrCodeRateLimited, err.Code)
	assert.Equal(t, reset, err.ResetAt)
	assert.Contains(t, err.Error(), "resets at")
}

func TestNewRateLimitedError_UnknownReset(t *testing.T) {
	err := NewRateLimitedError(time.Time{})
	assert.Contains(t, err.Message, "resets at unknown")
}

func TestNewTransportError_IncludesStatus(t *testing.T) {
	err := NewTransportError(502, fmt.Errorf("bad gateway"))

	assert.Contains(t, err.Error(), "502")
	assert.Equal(t, 502, err.StatusCode)
	assert.EqualError(t, err.Unwrap(), "bad gateway")
}

func TestNewFetchFailedError(t *testing.T) {
	err := NewFetchFailedError(42, "star history", fmt.Errorf("timeout"))

	assert.Equal(t, int64(42), err.RepoID)
	assert.Equal(t, ErrCodeFetchFailed, CodeOf(err))
	assert.Contains(t, err.Error(), "repository 42")
}

func TestIsCredentialsRequired(t *testing.T) {
	assert.True(t, IsCredentialsRequired(NewCredentialsRequiredError()))
	assert.True(t, IsInvalidInput(NewInvalidInputError("username is required")))
}

func TestNewPendingError(t *testing.T) {
	err := NewPendingError(7, "trend")

	assert.True(t, IsPending(err))
	assert.Equal(t, int64(7), err.RepoID)
	assert.False(t, IsPending(NewNotFoundError("trend")))
}
