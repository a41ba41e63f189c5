// Package dashboard runs the starred-repository pipeline for one session:
// fetch, summarize, query, trend batches, contributors and export.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kurihiro0119/github-stars-analyzer/internal/aggregator"
	"github.com/kurihiro0119/github-stars-analyzer/internal/collector"
	"github.com/kurihiro0119/github-stars-analyzer/internal/domain"
	apperrors "github.com/kurihiro0119/github-stars-analyzer/internal/errors"
	"github.com/kurihiro0119/github-stars-analyzer/internal/export"
	"github.com/kurihiro0119/github-stars-analyzer/internal/query"
	"github.com/kurihiro0119/github-stars-analyzer/internal/session"
	"github.com/kurihiro0119/github-stars-analyzer/internal/storage"
	"github.com/kurihiro0119/github-stars-analyzer/internal/trends"
)

// DefaultTrendTopN is the batch size when none is requested
const DefaultTrendTopN = 10

// Deps holds the collaborators of a Service
type Deps struct {
	Collector  collector.Collector
	Scheduler  *trends.Scheduler
	Session    *session.Session
	Store      storage.Store
	Aggregator aggregator.Aggregator
	TrendTopN  int
	Logger     *zap.Logger
}

// Service is the dashboard backend
type Service struct {
	collector    collector.Collector
	scheduler    *trends.Scheduler
	session      *session.Session
	store        storage.Store
	aggregator   aggregator.Aggregator
	trendTopN    int
	contributors singleflight.Group
	logger       *zap.Logger
}

// NewService creates a dashboard service
func NewService(d Deps) *Service {
	if d.Aggregator == nil {
		d.Aggregator = aggregator.NewAggregator()
	}
	if d.TrendTopN <= 0 {
		d.TrendTopN = DefaultTrendTopN
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Service{
		collector:  d.Collector,
		scheduler:  d.Scheduler,
		session:    d.Session,
		store:      d.Store,
		aggregator: d.Aggregator,
		trendTopN:  d.TrendTopN,
		logger:     d.Logger,
	}
}

var errNoCollection = apperrors.NewInvalidInputError("no starred repositories loaded, fetch a user first")

// Fetch loads the starred repositories of username and rebuilds the summary.
// Any failure clears the derived state of the session.
func (s *Service) Fetch(ctx context.Context, username string) (*domain.Summary, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperrors.NewInvalidInputError("please enter a GitHub username")
	}

	generation := s.session.Begin(username)
	s.logger.Info("fetching starred repositories",
		zap.String("user", username),
		zap.String("generation", generation))

	repos, err := s.collector.ListStarred(ctx, username)
	if err != nil {
		s.abort(ctx, generation)
		return nil, err
	}

	summary := s.aggregator.Summarize(repos)
	if !s.session.Current(generation) {
		s.logger.Info("fetch superseded", zap.String("user", username))
		return summary, nil
	}

	if err := s.store.ReplaceRepositories(ctx, generation, repos); err != nil {
		s.abort(ctx, generation)
		return nil, apperrors.NewInternalError("failed to store repositories", err)
	}
	s.session.SetSummary(generation, summary)
	if len(repos) == 0 {
		s.session.Inform(generation, apperrors.ErrCodeEmptyCollection, "This user has no starred repositories.")
	}

	s.logger.Info("fetched starred repositories",
		zap.String("user", username),
		zap.Int("repos", summary.TotalRepos),
		zap.Int("stars", summary.TotalStars))
	return summary, nil
}

func (s *Service) abort(ctx context.Context, generation string) {
	if !s.session.Abort(generation) {
		return
	}
	if err := s.store.Reset(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn("failed to reset session store", zap.Error(err))
	}
}

// Reset discards the fetched collection and everything derived from it
func (s *Service) Reset(ctx context.Context) error {
	s.session.Reset()
	return s.store.Reset(ctx)
}

// Username returns the user of the loaded collection
func (s *Service) Username() string {
	return s.session.Username()
}

// Summary returns the summary of the loaded collection
func (s *Service) Summary() (*domain.Summary, error) {
	summary := s.session.Summary()
	if summary == nil {
		return nil, errNoCollection
	}
	return summary, nil
}

func (s *Service) snapshot(ctx context.Context) (string, []*domain.Repository, error) {
	generation := s.session.Generation()
	if generation == "" || s.session.Summary() == nil {
		return "", nil, errNoCollection
	}
	repos, err := s.store.GetRepositories(ctx, generation)
	if err != nil {
		return "", nil, apperrors.NewInternalError("failed to load repositories", err)
	}
	return generation, repos, nil
}

// Repositories returns the full collection in fetch order
func (s *Service) Repositories(ctx context.Context) ([]*domain.Repository, error) {
	_, repos, err := s.snapshot(ctx)
	return repos, err
}

// Query runs the query engine over the loaded collection and ranks the result
func (s *Service) Query(ctx context.Context, state domain.QueryState) ([]domain.RankedRepository, error) {
	generation, repos, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.store.GetTrends(ctx, generation)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load trends", err)
	}

	rows := query.Apply(repos, s.session.Summary(), state, records)
	return query.Rank(rows, records), nil
}

// RunTrends computes trend records for the topN most-starred repositories
// of the full collection, one repository at a time
func (s *Service) RunTrends(ctx context.Context, topN int) (*domain.TrendBatch, error) {
	generation, repos, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if topN <= 0 {
		topN = s.trendTopN
	}

	return s.scheduler.Run(ctx, generation, mostStarred(repos, topN))
}

func mostStarred(repos []*domain.Repository, n int) []*domain.Repository {
	sorted := make([]*domain.Repository, len(repos))
	copy(sorted, repos)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Stars > sorted[j].Stars
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Trends returns the computed trend records in collection order
func (s *Service) Trends(ctx context.Context) ([]*domain.TrendRecord, error) {
	generation, repos, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.store.GetTrends(ctx, generation)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load trends", err)
	}

	out := make([]*domain.TrendRecord, 0, len(records))
	for _, repo := range repos {
		if rec, ok := records[repo.ID]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Batches returns the trend batch reports of the loaded collection
func (s *Service) Batches(ctx context.Context) ([]*domain.TrendBatch, error) {
	generation, _, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.GetBatches(ctx, generation)
}

// Trend returns the trend record of one repository, computing it on first request
func (s *Service) Trend(ctx context.Context, repoID int64) (*domain.TrendRecord, error) {
	generation := s.session.Generation()
	if generation == "" {
		return nil, errNoCollection
	}

	rec, err := s.store.GetTrend(ctx, generation, repoID)
	if err == nil || !apperrors.IsNotFound(err) {
		return rec, err
	}

	repo, err := s.store.GetRepository(ctx, generation, repoID)
	if err != nil {
		return nil, err
	}
	if s.session.Pending(generation, session.KindTrend, repoID) {
		return nil, apperrors.NewPendingError(repoID, "trend")
	}
	batch, err := s.scheduler.Run(ctx, generation, []*domain.Repository{repo})
	if err != nil {
		return nil, err
	}
	if len(batch.Failed) > 0 {
		return nil, apperrors.NewFetchFailedError(repoID, "trend", nil)
	}

	rec, err = s.store.GetTrend(ctx, generation, repoID)
	if apperrors.IsNotFound(err) && s.session.Pending(generation, session.KindTrend, repoID) {
		// claimed by a batch that started between the checks above
		return nil, apperrors.NewPendingError(repoID, "trend")
	}
	return rec, err
}

// Contributors returns the top contributors of one repository. Concurrent
// requests for the same repository share one fetch and a completed fetch
// is served from the store.
func (s *Service) Contributors(ctx context.Context, repoID int64) ([]*domain.Contributor, error) {
	generation := s.session.Generation()
	if generation == "" {
		return nil, errNoCollection
	}

	cached, err := s.store.GetContributors(ctx, generation, repoID)
	if err == nil || !apperrors.IsNotFound(err) {
		return cached, err
	}

	repo, err := s.store.GetRepository(ctx, generation, repoID)
	if err != nil {
		return nil, err
	}

	v, err, _ := s.contributors.Do(fmt.Sprintf("%s/%d", generation, repoID), func() (any, error) {
		return s.fetchContributors(ctx, generation, repo)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*domain.Contributor), nil
}

func (s *Service) fetchContributors(ctx context.Context, generation string, repo *domain.Repository) ([]*domain.Contributor, error) {
	if !s.session.Claim(generation, session.KindContributors, repo.ID) {
		return s.store.GetContributors(ctx, generation, repo.ID)
	}

	list, err := s.collector.ListContributors(ctx, repo.Owner, repo.Name)
	if err != nil {
		s.session.Release(generation, session.KindContributors, repo.ID)
		fetchErr := apperrors.NewFetchFailedError(repo.ID, "contributors", err)
		s.session.Notify(generation, repo.ID, fetchErr)
		s.logger.Warn("contributor fetch failed",
			zap.String("repo", repo.FullName),
			zap.Error(err))
		return nil, fetchErr
	}

	if !s.session.Current(generation) {
		return list, nil
	}
	if err := s.store.SaveContributors(ctx, generation, repo.ID, list); err != nil {
		s.session.Release(generation, session.KindContributors, repo.ID)
		return nil, apperrors.NewInternalError("failed to store contributors", err)
	}
	s.session.Complete(generation, session.KindContributors, repo.ID)
	return list, nil
}

// Notices returns the per-repository failures of the current session
func (s *Service) Notices() []session.Notice {
	return s.session.Notices()
}

// ExportJSON writes the full collection and summary as JSON
func (s *Service) ExportJSON(ctx context.Context, w io.Writer) error {
	_, repos, err := s.snapshot(ctx)
	if err != nil {
		return err
	}
	return export.WriteJSON(w, repos, s.session.Summary())
}

// ExportCSV writes the full collection as CSV
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	_, repos, err := s.snapshot(ctx)
	if err != nil {
		return err
	}
	return export.WriteCSV(w, repos)
}

// Export writes the collection in the given format
func (s *Service) Export(ctx context.Context, w io.Writer, format export.Format) error {
	if format == export.FormatCSV {
		return s.ExportCSV(ctx, w)
	}
	return s.ExportJSON(ctx, w)
}
