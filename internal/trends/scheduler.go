// Package trends runs serialized trend batches over a set of repositories.
package trends

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kurihiro0119/github-stars-analyzer/internal/collector"
	"github.com/kurihiro0119/github-stars-analyzer/internal/config"
	"github.com/kurihiro0119/github-stars-analyzer/internal/domain"
	apperrors "github.com/kurihiro0119/github-stars-analyzer/internal/errors"
	"github.com/kurihiro0119/github-stars-analyzer/internal/growth"
	"github.com/kurihiro0119/github-stars-analyzer/internal/session"
	"github.com/kurihiro0119/github-stars-analyzer/internal/storage"
)

// HistoryCoverageDays is how far back star history is fetched
const HistoryCoverageDays = 30

var errStale = errors.New("generation changed")

// Options configures a Scheduler
type Options struct {
	Strategy       string
	Delay          time.Duration
	HasCredentials bool
}

// Scheduler computes trend records one repository at a time
type Scheduler struct {
	opts    Options
	history collector.StarHistorySource
	session *session.Session
	store   storage.Store
	logger  *zap.Logger
	now     func() time.Time
}

// NewScheduler creates a scheduler. history may be nil for the estimate strategy.
func NewScheduler(opts Options, history collector.StarHistorySource, sess *session.Session, store storage.Store, logger *zap.Logger) *Scheduler {
	if opts.Strategy == "" {
		opts.Strategy = config.StrategyEstimate
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		opts:    opts,
		history: history,
		session: sess,
		store:   store,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *Scheduler) usesHistory() bool {
	return s.opts.Strategy != config.StrategyEstimate
}

// unlistable reports whether the REST stargazer listing cannot reach the
// newest stars of repo; such repositories are estimated instead
func (s *Scheduler) unlistable(repo *domain.Repository) bool {
	return s.opts.Strategy == config.StrategyREST && repo.Stars > collector.MaxListableStargazers
}

// Run computes trend records for repos in order. At most one repository is
// in flight and history fetches are spaced by the configured delay.
// Repositories already pending or completed are skipped; a failure for one
// repository becomes a session notice and the batch moves on.
func (s *Scheduler) Run(ctx context.Context, generation string, repos []*domain.Repository) (*domain.TrendBatch, error) {
	if s.usesHistory() && (!s.opts.HasCredentials || s.history == nil) {
		return nil, apperrors.NewCredentialsRequiredError()
	}

	batch := &domain.TrendBatch{
		ID:        uuid.NewString(),
		Strategy:  s.opts.Strategy,
		Requested: len(repos),
		Computed:  []int64{},
		Skipped:   []int64{},
		Failed:    []int64{},
		Status:    domain.BatchStatusInProgress,
		StartedAt: s.now(),
	}
	s.saveBatch(ctx, generation, batch)

	var mu sync.Mutex
	record := func(ids *[]int64, id int64) {
		mu.Lock()
		defer mu.Unlock()
		*ids = append(*ids, id)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(1)

	dispatched := 0
	for _, repo := range repos {
		repo := repo
		if ctx.Err() != nil {
			break
		}
		if !s.session.Claim(generation, session.KindTrend, repo.ID) {
			record(&batch.Skipped, repo.ID)
			continue
		}

		delay := dispatched > 0 && s.usesHistory()
		dispatched++
		g.Go(func() error {
			if delay && s.opts.Delay > 0 {
				if err := sleep(gctx, s.opts.Delay); err != nil {
					s.session.Release(generation, session.KindTrend, repo.ID)
					return err
				}
			}

			err := s.compute(gctx, generation, repo)
			switch {
			case err == nil:
				record(&batch.Computed, repo.ID)
			case errors.Is(err, errStale):
				record(&batch.Skipped, repo.ID)
			default:
				record(&batch.Failed, repo.ID)
				s.session.Notify(generation, repo.ID, err)
				s.logger.Warn("trend fetch failed",
					zap.Int64("repo_id", repo.ID),
					zap.String("repo", repo.FullName),
					zap.Error(err))
			}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	batch.FinishedAt = s.now()
	batch.Status = domain.BatchStatusCompleted
	if err != nil {
		batch.Status = domain.BatchStatusFailed
	}
	s.saveBatch(context.WithoutCancel(ctx), generation, batch)

	s.logger.Info("trend batch finished",
		zap.String("batch_id", batch.ID),
		zap.String("strategy", batch.Strategy),
		zap.Int("computed", len(batch.Computed)),
		zap.Int("skipped", len(batch.Skipped)),
		zap.Int("failed", len(batch.Failed)))

	return batch, err
}

// compute builds and stores the trend record of one claimed repository
func (s *Scheduler) compute(ctx context.Context, generation string, repo *domain.Repository) error {
	now := s.now()

	var rec *domain.TrendRecord
	if s.usesHistory() && !s.unlistable(repo) {
		since := now.AddDate(0, 0, -HistoryCoverageDays)
		starredAt, err := s.history.StarredSince(ctx, repo.Owner, repo.Name, since)
		if err != nil {
			s.session.Release(generation, session.KindTrend, repo.ID)
			return apperrors.NewFetchFailedError(repo.ID, "star history", err)
		}
		rec = growth.FromEvents(repo.ID, starredAt, now, HistoryCoverageDays)
	} else {
		rec = growth.Estimate(repo.ID, repo.Stars, repo.CreatedAt, repo.PushedAt, now)
	}

	if !s.session.Current(generation) {
		return errStale
	}
	if _, err := s.store.SaveTrend(ctx, generation, rec); err != nil {
		s.session.Release(generation, session.KindTrend, repo.ID)
		return apperrors.NewFetchFailedError(repo.ID, "trend", err)
	}
	if !s.session.Complete(generation, session.KindTrend, repo.ID) {
		return errStale
	}
	return nil
}

func (s *Scheduler) saveBatch(ctx context.Context, generation string, batch *domain.TrendBatch) {
	if err := s.store.SaveBatch(ctx, generation, batch); err != nil {
		s.logger.Warn("failed to save trend batch", zap.String("batch_id", batch.ID), zap.Error(err))
	}
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
