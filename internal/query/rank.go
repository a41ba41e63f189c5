package query

import (
	"fmt"

	"github.com/kurihiro0119/github-stars-analyzer/internal/domain"
)

var medals = []domain.Medal{domain.MedalGold, domain.MedalSilver, domain.MedalBronze}

// Rank assigns positional badges over the final ordered output
func Rank(repos []*domain.Repository, trends Trends) []domain.RankedRepository {
	ranked := make([]domain.RankedRepository, 0, len(repos))
	for i, r := range repos {
		entry := domain.RankedRepository{
			Rank:       i + 1,
			Label:      fmt.Sprintf("#%d", i+1),
			Repository: r,
			Trend:      trends[r.ID],
		}
		if i < len(medals) {
			entry.Medal = medals[i]
		}
		ranked = append(ranked, entry)
	}
	return ranked
}
