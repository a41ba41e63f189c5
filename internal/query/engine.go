// Package query applies view presets, filters and sorting to a repository
// collection.
package query

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/kurihiro0119/github-stars-analyzer/internal/domain"
	"github.com/kurihiro0119/github-stars-analyzer/internal/topics"
)

// ViewLimit is the number of repositories kept by a windowing view mode
const ViewLimit = 20

// Trends looks up the trend record of a repository, if one was computed
type Trends map[int64]*domain.TrendRecord

// Apply runs the pipeline in a fixed order: view windowing, language filter,
// topic filter, then sorting. Sorting only applies to the "all" view; the
// other views keep their windowing order. The input slice is not modified.
func Apply(repos []*domain.Repository, summary *domain.Summary, state domain.QueryState, trends Trends) []*domain.Repository {
	result := window(repos, state.View)
	result = filterLanguage(result, state.Language)
	result = filterTopics(result, summary, state.Topics)

	if state.View == domain.ViewAll || state.View == "" {
		sortBy(result, state.SortKey, state.Direction, trends)
	}
	return result
}

// window applies the view-mode preset
func window(repos []*domain.Repository, view domain.ViewMode) []*domain.Repository {
	out := make([]*domain.Repository, len(repos))
	copy(out, repos)

	var field func(*domain.Repository) int64
	switch view {
	case domain.ViewTopStarred:
		field = func(r *domain.Repository) int64 { return int64(r.Stars) }
	case domain.ViewTopForked:
		field = func(r *domain.Repository) int64 { return int64(r.Forks) }
	case domain.ViewTopWatchers:
		field = func(r *domain.Repository) int64 { return int64(r.Watchers) }
	case domain.ViewRecent:
		field = func(r *domain.Repository) int64 { return r.UpdatedAt.UnixNano() }
	default:
		return out
	}

	slices.SortStableFunc(out, func(a, b *domain.Repository) int {
		return cmp.Compare(field(b), field(a))
	})
	if len(out) > ViewLimit {
		out = out[:ViewLimit]
	}
	return out
}

func filterLanguage(repos []*domain.Repository, language string) []*domain.Repository {
	if language == domain.AllLanguages {
		return repos
	}
	out := make([]*domain.Repository, 0, len(repos))
	for _, r := range repos {
		if r.Language == language {
			out = append(out, r)
		}
	}
	return out
}

// filterTopics keeps repositories matching any selected canonical key.
// The "others" key matches repositories that have topics, none of which
// canonicalize into the summary's filter vocabulary.
func filterTopics(repos []*domain.Repository, summary *domain.Summary, selected []string) []*domain.Repository {
	if len(selected) == 0 {
		return repos
	}

	keys := make(map[string]struct{}, len(selected))
	others := false
	for _, key := range selected {
		if key == domain.OthersTopic {
			others = true
			continue
		}
		keys[key] = struct{}{}
	}
	vocabulary := summary.FilterTopicKeys()

	out := make([]*domain.Repository, 0, len(repos))
	for _, r := range repos {
		if topics.Matches(r.Topics, keys) {
			out = append(out, r)
			continue
		}
		if others && len(r.Topics) > 0 && !topics.Matches(r.Topics, vocabulary) {
			out = append(out, r)
		}
	}
	return out
}

// missing sorts below every real growth value
const missing = math.MinInt64

func growthValue(trends Trends, id int64, days int) int64 {
	w, ok := trends[id].Window(days)
	if !ok {
		return missing
	}
	return int64(w.Stars)
}

func momentumValue(trends Trends, id int64) int64 {
	rec := trends[id]
	if rec == nil || rec.Momentum == nil {
		return missing
	}
	return int64(rec.Momentum.Percent)
}

// sortBy sorts in place with a stable sort; ties keep their prior order
func sortBy(repos []*domain.Repository, key domain.SortKey, dir domain.SortDirection, trends Trends) {
	var compare func(a, b *domain.Repository) int
	switch key {
	case domain.SortForks:
		compare = func(a, b *domain.Repository) int { return cmp.Compare(a.Forks, b.Forks) }
	case domain.SortWatchers:
		compare = func(a, b *domain.Repository) int { return cmp.Compare(a.Watchers, b.Watchers) }
	case domain.SortUpdated:
		compare = func(a, b *domain.Repository) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	case domain.SortName:
		compare = func(a, b *domain.Repository) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	case domain.SortOpenIssues:
		compare = func(a, b *domain.Repository) int { return cmp.Compare(a.OpenIssues, b.OpenIssues) }
	case domain.SortGrowth30:
		compare = func(a, b *domain.Repository) int {
			return cmp.Compare(growthValue(trends, a.ID, 30), growthValue(trends, b.ID, 30))
		}
	case domain.SortGrowth90:
		compare = func(a, b *domain.Repository) int {
			return cmp.Compare(growthValue(trends, a.ID, 90), growthValue(trends, b.ID, 90))
		}
	case domain.SortMomentum:
		compare = func(a, b *domain.Repository) int {
			return cmp.Compare(momentumValue(trends, a.ID), momentumValue(trends, b.ID))
		}
	default:
		compare = func(a, b *domain.Repository) int { return cmp.Compare(a.Stars, b.Stars) }
	}

	if dir != domain.SortAsc {
		asc := compare
		compare = func(a, b *domain.Repository) int { return asc(b, a) }
	}
	slices.SortStableFunc(repos, compare)
}
