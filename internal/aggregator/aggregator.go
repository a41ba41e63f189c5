package aggregator

import (
	"math"
	"slices"
	"sort"

	"github.com/kurihiro0119/github-stars-analyzer/internal/domain"
	"github.com/kurihiro0119/github-stars-analyzer/internal/topics"
)

// Ranking sizes
const (
	TopLanguagesLimit = 5
	TopTopicsLimit    = 10
	MostStarredLimit  = 5
	FilterTopicsLimit = 30
)

// Aggregator defines the interface for summarizing a repository collection
type Aggregator interface {
	// Summarize builds the Summary of repos. Empty input yields zero counts.
	Summarize(repos []*domain.Repository) *domain.Summary
}

// aggregator implements the Aggregator interface
type aggregator struct{}

// NewAggregator creates a new aggregator
func NewAggregator() Aggregator {
	return &aggregator{}
}

// Summarize builds the Summary of repos
func (a *aggregator) Summarize(repos []*domain.Repository) *domain.Summary {
	return Summarize(repos)
}

// Summarize builds the Summary of repos.
// Ties in every ranking keep first-encountered order.
func Summarize(repos []*domain.Repository) *domain.Summary {
	totalStars := 0
	for _, repo := range repos {
		totalStars += repo.Stars
	}

	languages := countLanguages(repos)
	canonical := countTopics(repos)

	summary := &domain.Summary{
		TotalRepos:   len(repos),
		TotalStars:   totalStars,
		AvgStars:     averageStars(totalStars, len(repos)),
		TopLanguages: head(languages, TopLanguagesLimit),
		TopTopics:    head(canonical, TopTopicsLimit),
		MostStarred:  mostStarred(repos, MostStarredLimit),
		Languages:    languageVocabulary(repos),
		FilterTopics: head(canonical, FilterTopicsLimit),
	}
	return summary
}

// averageStars is round(total/count), defined as 0 for an empty collection
func averageStars(totalStars, count int) int {
	if count == 0 {
		return 0
	}
	return int(math.Round(float64(totalStars) / float64(count)))
}

// countLanguages counts repositories per known language, sorted by
// descending count
func countLanguages(repos []*domain.Repository) []domain.LanguageCount {
	index := make(map[string]int)
	var counts []domain.LanguageCount

	for _, repo := range repos {
		if repo.Language == "" || repo.Language == domain.UnknownLanguage {
			continue
		}
		i, ok := index[repo.Language]
		if !ok {
			i = len(counts)
			index[repo.Language] = i
			counts = append(counts, domain.LanguageCount{Language: repo.Language})
		}
		counts[i].Count++
	}

	slices.SortStableFunc(counts, func(a, b domain.LanguageCount) int {
		return b.Count - a.Count
	})
	return counts
}

// countTopics counts each canonical key once per repository and collects
// raw variations across the whole collection
func countTopics(repos []*domain.Repository) []domain.CanonicalTopic {
	table := topics.NewTable()
	counts := make(map[string]int)

	for _, repo := range repos {
		seen := make(map[string]struct{}, len(repo.Topics))
		for _, raw := range repo.Topics {
			key := table.Add(raw)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			counts[key]++
		}
	}

	keys := table.Keys()
	result := make([]domain.CanonicalTopic, 0, len(keys))
	for _, key := range keys {
		result = append(result, domain.CanonicalTopic{
			Key:        key,
			Count:      counts[key],
			Variations: table.Variations(key),
		})
	}

	slices.SortStableFunc(result, func(a, b domain.CanonicalTopic) int {
		return b.Count - a.Count
	})
	return result
}

// mostStarred returns the n repositories with the most stars
func mostStarred(repos []*domain.Repository, n int) []*domain.Repository {
	sorted := make([]*domain.Repository, len(repos))
	copy(sorted, repos)
	slices.SortStableFunc(sorted, func(a, b *domain.Repository) int {
		return b.Stars - a.Stars
	})
	return head(sorted, n)
}

// languageVocabulary returns every distinct language value, ascending
func languageVocabulary(repos []*domain.Repository) []string {
	seen := make(map[string]struct{})
	languages := []string{}
	for _, repo := range repos {
		if repo.Language == "" {
			continue
		}
		if _, ok := seen[repo.Language]; ok {
			continue
		}
		seen[repo.Language] = struct{}{}
		languages = append(languages, repo.Language)
	}
	sort.Strings(languages)
	return languages
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		items = items[:n]
	}
	out := make([]T, len(items))
	copy(out, items)
	return out
}
