package query

import (
	"fmt"
	"strings"

	"github.com/kurihiro0119/github-stars-analyzer/internal/domain"
	apperrors "github.com/kurihiro0119/github-stars-analyzer/internal/errors"
)

var (
	viewModes = map[domain.ViewMode]bool{
		domain.ViewAll:         true,
		domain.ViewTopStarred:  true,
		domain.ViewTopForked:   true,
		domain.ViewTopWatchers: true,
		domain.ViewRecent:      true,
	}
	sortKeys = map[domain.SortKey]bool{
		domain.SortStars:      true,
		domain.SortForks:      true,
		domain.SortWatchers:   true,
		domain.SortUpdated:    true,
		domain.SortName:       true,
		domain.SortOpenIssues: true,
		domain.SortGrowth30:   true,
		domain.SortGrowth90:   true,
		domain.SortMomentum:   true,
	}
)

// ParseState builds a QueryState from textual values.
// Empty values fall back to the defaults; unknown values are rejected.
func ParseState(view, language string, topicKeys []string, sortKey, direction string) (domain.QueryState, error) {
	state := domain.DefaultQueryState()

	if view != "" {
		state.View = domain.ViewMode(strings.ToLower(view))
		if !viewModes[state.View] {
			return state, apperrors.NewInvalidInputError(fmt.Sprintf("unknown view mode %q", view))
		}
	}
	if sortKey != "" {
		state.SortKey = domain.SortKey(strings.ToLower(sortKey))
		if !sortKeys[state.SortKey] {
			return state, apperrors.NewInvalidInputError(fmt.Sprintf("unknown sort key %q", sortKey))
		}
	}
	switch strings.ToLower(direction) {
	case "":
	case string(domain.SortAsc):
		state.Direction = domain.SortAsc
	case string(domain.SortDesc):
		state.Direction = domain.SortDesc
	default:
		return state, apperrors.NewInvalidInputError(fmt.Sprintf("unknown sort direction %q", direction))
	}

	state.Language = language
	for _, key := range topicKeys {
		if key = strings.TrimSpace(key); key != "" {
			state.Topics = append(state.Topics, key)
		}
	}
	return state, nil
}
