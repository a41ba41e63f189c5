package collector

import (
	"context"
	"time"

	"github.com/kurihiro0119/github-stars-analyzer/internal/domain"
)

// Collector defines the interface for collecting GitHub data
type Collector interface {
	// ListStarred retrieves the repositories starred by a user
	ListStarred(ctx context.Context, username string) ([]*domain.Repository, error)

	// ListContributors retrieves the top contributors of a repository
	ListContributors(ctx context.Context, owner, repo string) ([]*domain.Contributor, error)
}

// StarHistorySource retrieves "starred at" timestamps for a repository
type StarHistorySource interface {
	// StarredSince returns the timestamps of stars newer than since.
	// Implementations stop paginating once a page crosses since.
	StarredSince(ctx context.Context, owner, repo string, since time.Time) ([]time.Time, error)
}

// ProgressCallback is a callback function for reporting progress
type ProgressCallback func(page int, fetched int)
