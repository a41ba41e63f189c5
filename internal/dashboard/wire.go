package dashboard

import (
	"go.uber.org/zap"

	"github.com/kurihiro0119/github-stars-analyzer/internal/collector"
	"github.com/kurihiro0119/github-stars-analyzer/internal/config"
	"github.com/kurihiro0119/github-stars-analyzer/internal/session"
	"github.com/kurihiro0119/github-stars-analyzer/internal/storage"
	"github.com/kurihiro0119/github-stars-analyzer/internal/storage/sqlite"
	"github.com/kurihiro0119/github-stars-analyzer/internal/trends"
)

// NewFromConfig wires a Service against the GitHub API. The returned store
// must be closed by the caller.
func NewFromConfig(cfg *config.Config, logger *zap.Logger, opts ...collector.Option) (*Service, storage.Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := sqlite.NewSQLiteStorage(cfg.SQLitePath)
	if err != nil {
		return nil, nil, err
	}

	opts = append([]collector.Option{
		collector.WithMaxPages(cfg.MaxStarredPages),
		collector.WithLogger(logger.Named("collector")),
		collector.WithRateLimiter(collector.NewRateLimiter(0, logger)),
	}, opts...)
	gh := collector.NewGitHubCollector(cfg.GitHubToken, opts...)

	var history collector.StarHistorySource
	switch cfg.StarHistoryStrategy {
	case config.StrategyREST:
		history = gh
	case config.StrategyGraphQL:
		history = collector.NewGraphQLStarHistory(cfg.GitHubGraphQLURL, cfg.GitHubToken,
			collector.NewRateLimiter(0, logger), logger.Named("graphql"))
	}

	sess := session.New()
	scheduler := trends.NewScheduler(trends.Options{
		Strategy:       cfg.StarHistoryStrategy,
		Delay:          cfg.TrendFetchDelay,
		HasCredentials: cfg.GitHubToken != "",
	}, history, sess, store, logger.Named("trends"))

	svc := NewService(Deps{
		Collector: gh,
		Scheduler: scheduler,
		Session:   sess,
		Store:     store,
		TrendTopN: cfg.TrendTopN,
		Logger:    logger.Named("dashboard"),
	})
	return svc, store, nil
}
