package storage

import (
	"context"

	"github.com/kurihiro0119/github-stars-analyzer/internal/domain"
)

// Store is the abstract interface for the session store.
// Every record is scoped to a generation, the identifier of one fetch; a
// new generation replaces everything written under older ones.
type Store interface {
	// Repository operations
	ReplaceRepositories(ctx context.Context, generation string, repos []*domain.Repository) error
	GetRepositories(ctx context.Context, generation string) ([]*domain.Repository, error)
	GetRepository(ctx context.Context, generation string, id int64) (*domain.Repository, error)

	// Trend operations. A record is written once; SaveTrend reports false
	// when one already exists for the repository.
	SaveTrend(ctx context.Context, generation string, record *domain.TrendRecord) (bool, error)
	GetTrend(ctx context.Context, generation string, repoID int64) (*domain.TrendRecord, error)
	GetTrends(ctx context.Context, generation string) (map[int64]*domain.TrendRecord, error)

	// Contributor operations
	SaveContributors(ctx context.Context, generation string, repoID int64, contributors []*domain.Contributor) error
	GetContributors(ctx context.Context, generation string, repoID int64) ([]*domain.Contributor, error)

	// Batch report operations
	SaveBatch(ctx context.Context, generation string, batch *domain.TrendBatch) error
	GetBatches(ctx context.Context, generation string) ([]*domain.TrendBatch, error)

	// Reset drops every generation
	Reset(ctx context.Context) error

	// Connection management
	Close() error
}
