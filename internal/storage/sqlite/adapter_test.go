package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/github-stars-analyzer/internal/domain"
	apperrors "github.com/kurihiro0119/github-stars-analyzer/internal/errors"
	"github.com/kurihiro0119/github-stars-analyzer/internal/storage"
)

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	s, err := NewSQLiteStorage(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testRepos() []*domain.Repository {
	return []*domain.Repository{
		{ID: 30, FullName: "c/c", Stars: 5, Topics: []string{"go"}},
		{ID: 10, FullName: "a/a", Stars: 50, Topics: []string{}},
		{ID: 20, FullName: "b/b", Stars: 500, Language: "Go"},
	}
}

func TestRepositoriesKeepFetchOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.ReplaceRepositories(ctx, "gen1", testRepos()))

	repos, err := s.GetRepositories(ctx, "gen1")
	require.NoError(t, err)
	require.Len(t, repos, 3)
	assert.Equal(t, int64(30), repos[0].ID)
	assert.Equal(t, int64(10), repos[1].ID)
	assert.Equal(t, int64(20), repos[2].ID)
	assert.Equal(t, []string{"go"}, repos[0].Topics)

	repo, err := s.GetRepository(ctx, "gen1", 20)
	require.NoError(t, err)
	assert.Equal(t, "b/b", repo.FullName)

	_, err = s.GetRepository(ctx, "gen1", 99)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestReplaceDropsOlderGenerations(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.ReplaceRepositories(ctx, "gen1", testRepos()))
	_, err := s.SaveTrend(ctx, "gen1", &domain.TrendRecord{RepoID: 10, Trend: domain.TrendHot, ComputedAt: time.Now()})
	require.NoError(t, err)
	require.NoError(t, s.SaveContributors(ctx, "gen1", 10, []*domain.Contributor{{Login: "alice"}}))

	require.NoError(t, s.ReplaceRepositories(ctx, "gen2", testRepos()[:1]))

	old, err := s.GetRepositories(ctx, "gen1")
	require.NoError(t, err)
	assert.Empty(t, old)

	trends, err := s.GetTrends(ctx, "gen1")
	require.NoError(t, err)
	assert.Empty(t, trends)

	_, err = s.GetContributors(ctx, "gen1", 10)
	assert.True(t, apperrors.IsNotFound(err))

	current, err := s.GetRepositories(ctx, "gen2")
	require.NoError(t, err)
	assert.Len(t, current, 1)
}

func TestSaveTrendIsWriteOnce(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	first := &domain.TrendRecord{
		RepoID:     10,
		Windows:    []domain.WindowGrowth{{Days: 30, Stars: 12, MonthlyRate: 12}, {Days: 90, Stars: 18, MonthlyRate: 6}},
		Trend:      domain.TrendRising,
		Momentum:   &domain.Momentum{Label: domain.MomentumAccelerating, Percent: 100},
		ComputedAt: now,
	}
	saved, err := s.SaveTrend(ctx, "gen1", first)
	require.NoError(t, err)
	assert.True(t, saved)

	saved, err = s.SaveTrend(ctx, "gen1", &domain.TrendRecord{RepoID: 10, Trend: domain.TrendQuiet, ComputedAt: now})
	require.NoError(t, err)
	assert.False(t, saved)

	got, err := s.GetTrend(ctx, "gen1", 10)
	require.NoError(t, err)
	assert.Equal(t, domain.TrendRising, got.Trend)
	assert.Equal(t, first.Windows, got.Windows)
	assert.Equal(t, first.Momentum, got.Momentum)
	assert.True(t, now.Equal(got.ComputedAt))

	all, err := s.GetTrends(ctx, "gen1")
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Contains(t, all, int64(10))

	_, err = s.GetTrend(ctx, "gen1", 11)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestContributors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	want := []*domain.Contributor{{Login: "alice", Contributions: 3}, {Login: "bob", Contributions: 1}}
	require.NoError(t, s.SaveContributors(ctx, "gen1", 10, want))

	got, err := s.GetContributors(ctx, "gen1", 10)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, s.SaveContributors(ctx, "gen1", 11, nil))
	empty, err := s.GetContributors(ctx, "gen1", 11)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestBatches(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	batch := &domain.TrendBatch{ID: "b1", Strategy: "estimate", Requested: 2, Status: domain.BatchStatusInProgress, StartedAt: start}
	require.NoError(t, s.SaveBatch(ctx, "gen1", batch))

	batch.Status = domain.BatchStatusCompleted
	batch.Computed = []int64{1, 2}
	require.NoError(t, s.SaveBatch(ctx, "gen1", batch))
	require.NoError(t, s.SaveBatch(ctx, "gen1", &domain.TrendBatch{ID: "b2", StartedAt: start.Add(time.Minute)}))

	batches, err := s.GetBatches(ctx, "gen1")
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, "b1", batches[0].ID)
	assert.Equal(t, domain.BatchStatusCompleted, batches[0].Status)
	assert.Equal(t, []int64{1, 2}, batches[0].Computed)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.ReplaceRepositories(ctx, "gen1", testRepos()))
	require.NoError(t, s.Reset(ctx))

	repos, err := s.GetRepositories(ctx, "gen1")
	require.NoError(t, err)
	assert.Empty(t, repos)
}
