package session

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/github-stars-analyzer/internal/domain"
	apperrors "github.com/kurihiro0119/github-stars-analyzer/internal/errors"
)

func TestBeginOpensNewGeneration(t *testing.T) {
	s := New()
	assert.Empty(t, s.Generation())

	gen1 := s.Begin("octo")
	require.NotEmpty(t, gen1)
	assert.Equal(t, "octo", s.Username())
	assert.True(t, s.Current(gen1))

	gen2 := s.Begin("hubot")
	assert.NotEqual(t, gen1, gen2)
	assert.False(t, s.Current(gen1))
	assert.Equal(t, "hubot", s.Username())
}

func TestClaimSuppressesDuplicates(t *testing.T) {
	s := New()
	gen := s.Begin("octo")

	assert.True(t, s.Claim(gen, KindTrend, 1))
	assert.False(t, s.Claim(gen, KindTrend, 1), "pending fetch is not re-dispatched")
	assert.True(t, s.Claim(gen, KindContributors, 1), "kinds are guarded independently")

	assert.True(t, s.Complete(gen, KindTrend, 1))
	assert.True(t, s.Done(KindTrend, 1))
	assert.False(t, s.Claim(gen, KindTrend, 1), "completed fetch is not re-dispatched")
}

func TestReleaseAllowsRetry(t *testing.T) {
	s := New()
	gen := s.Begin("octo")

	require.True(t, s.Claim(gen, KindTrend, 7))
	s.Release(gen, KindTrend, 7)
	assert.False(t, s.Done(KindTrend, 7))
	assert.True(t, s.Claim(gen, KindTrend, 7))
}

func TestStaleGenerationIsDropped(t *testing.T) {
	s := New()
	old := s.Begin("octo")
	require.True(t, s.Claim(old, KindTrend, 1))

	current := s.Begin("hubot")

	assert.False(t, s.Complete(old, KindTrend, 1))
	assert.False(t, s.Done(KindTrend, 1))
	assert.False(t, s.Claim(old, KindTrend, 2))
	assert.False(t, s.SetSummary(old, &domain.Summary{TotalRepos: 9}))
	assert.Nil(t, s.Summary())

	s.Notify(old, 1, errors.New("late failure"))
	assert.Empty(t, s.Notices())

	assert.True(t, s.Claim(current, KindTrend, 1))
}

func TestResetClearsDerivedState(t *testing.T) {
	s := New()
	gen := s.Begin("octo")
	s.SetSummary(gen, &domain.Summary{TotalRepos: 3})
	s.Claim(gen, KindTrend, 1)
	s.Complete(gen, KindTrend, 1)
	s.Notify(gen, 1, apperrors.NewFetchFailedError(1, "trend", errors.New("boom")))

	s.Reset()

	assert.Empty(t, s.Generation())
	assert.Empty(t, s.Username())
	assert.Nil(t, s.Summary())
	assert.False(t, s.Done(KindTrend, 1))
	assert.Empty(t, s.Notices())
}

func TestNotices(t *testing.T) {
	s := New()
	gen := s.Begin("octo")

	s.Notify(gen, 42, apperrors.NewFetchFailedError(42, "trend", errors.New("boom")))
	s.Notify(gen, 43, errors.New("plain"))

	notices := s.Notices()
	require.Len(t, notices, 2)
	assert.Equal(t, apperrors.ErrCodeFetchFailed, notices[0].Code)
	assert.Equal(t, int64(42), notices[0].RepoID)
	assert.Contains(t, notices[0].Message, "boom")
	assert.Equal(t, apperrors.ErrCodeInternal, notices[1].Code)

	notices[0].Message = "mutated"
	assert.NotEqual(t, "mutated", s.Notices()[0].Message)
}

func TestClaimIsExclusiveUnderConcurrency(t *testing.T) {
	s := New()
	gen := s.Begin("octo")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		claimed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Claim(gen, KindContributors, 5) {
				mu.Lock()
				claimed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, claimed)
}

func TestAbortOnlyClearsActiveGeneration(t *testing.T) {
	s := New()
	old := s.Begin("octo")
	current := s.Begin("hubot")

	assert.False(t, s.Abort(old))
	assert.Equal(t, current, s.Generation())

	assert.True(t, s.Abort(current))
	assert.Empty(t, s.Generation())
}

func TestPendingTracksInFlightClaims(t *testing.T) {
	s := New()
	gen := s.Begin("octo")

	assert.False(t, s.Pending(gen, KindTrend, 1))
	require.True(t, s.Claim(gen, KindTrend, 1))
	assert.True(t, s.Pending(gen, KindTrend, 1))
	assert.False(t, s.Pending(gen, KindContributors, 1))

	s.Complete(gen, KindTrend, 1)
	assert.False(t, s.Pending(gen, KindTrend, 1))
	assert.False(t, s.Pending("stale", KindTrend, 1))
}

func TestInformRecordsRepositoryFreeNotice(t *testing.T) {
	s := New()
	gen := s.Begin("octo")

	s.Inform(gen, apperrors.ErrCodeEmptyCollection, "This user has no starred repositories.")
	s.Inform("stale", apperrors.ErrCodeEmptyCollection, "dropped")

	notices := s.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, apperrors.ErrCodeEmptyCollection, notices[0].Code)
	assert.Zero(t, notices[0].RepoID)
	assert.False(t, notices[0].At.IsZero())
}
