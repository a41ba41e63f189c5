package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/kurihiro0119/github-stars-analyzer/internal/errors"
)

// DefaultGraphQLEndpoint is the public GitHub GraphQL API
const DefaultGraphQLEndpoint = "https://api.github.com/graphql"

// GraphQLStarHistory implements StarHistorySource against the GitHub
// GraphQL API. Stargazers are requested newest first, so the walk ends at
// the first edge older than the cutoff.
type GraphQLStarHistory struct {
	endpoint    string
	token       string
	httpClient  *http.Client
	rateLimiter RateLimiter
	maxPages    int
	logger      *zap.Logger
}

// NewGraphQLStarHistory creates a GraphQL star-history source. The GraphQL
// API rejects anonymous requests, so token must be set before use.
func NewGraphQLStarHistory(endpoint, token string, rl RateLimiter, logger *zap.Logger) *GraphQLStarHistory {
	if endpoint == "" {
		endpoint = DefaultGraphQLEndpoint
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if rl == nil {
		rl = NewRateLimiter(0, logger)
	}
	httpClient := newHTTPClient(token)
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GraphQLStarHistory{
		endpoint:    endpoint,
		token:       token,
		httpClient:  httpClient,
		rateLimiter: rl,
		maxPages:    DefaultMaxHistoryPages,
		logger:      logger,
	}
}

const stargazersQuery = `
query($owner: String!, $name: String!, $first: Int!, $after: String) {
  repository(owner: $owner, name: $name) {
    stargazers(first: $first, after: $after, orderBy: {field: STARRED_AT, direction: DESC}) {
      pageInfo {
        hasNextPage
        endCursor
      }
      edges {
        starredAt
      }
    }
  }
}
`

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

type stargazersData struct {
	Repository *struct {
		Stargazers struct {
			PageInfo struct {
				HasNextPage bool   `json:"hasNextPage"`
				EndCursor   string `json:"endCursor"`
			} `json:"pageInfo"`
			Edges []struct {
				StarredAt time.Time `json:"starredAt"`
			} `json:"edges"`
		} `json:"stargazers"`
	} `json:"repository"`
}

// StarredSince returns the timestamps of stars newer than since
func (g *GraphQLStarHistory) StarredSince(ctx context.Context, owner, repo string, since time.Time) ([]time.Time, error) {
	if g.token == "" {
		return nil, apperrors.NewCredentialsRequiredError()
	}

	var (
		starredAt []time.Time
		after     *string
	)
	for page := 0; page < g.maxPages; page++ {
		vars := map[string]any{
			"owner": owner,
			"name":  repo,
			"first": perPage,
		}
		if after != nil {
			vars["after"] = *after
		}

		body, err := g.doGraphQL(ctx, vars)
		if err != nil {
			return nil, err
		}

		var data stargazersData
		if err := json.Unmarshal(body, &data); err != nil {
			return nil, apperrors.NewTransportError(http.StatusOK, fmt.Errorf("parsing response: %w", err))
		}
		if data.Repository == nil {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("repository %s/%s", owner, repo))
		}

		crossed := false
		for _, edge := range data.Repository.Stargazers.Edges {
			if !edge.StarredAt.After(since) {
				crossed = true
				break
			}
			starredAt = append(starredAt, edge.StarredAt)
		}

		info := data.Repository.Stargazers.PageInfo
		if crossed || !info.HasNextPage {
			break
		}
		cursor := info.EndCursor
		after = &cursor
	}

	g.logger.Debug("fetched star history",
		zap.String("repo", owner+"/"+repo),
		zap.Int("stars", len(starredAt)))
	return starredAt, nil
}

func (g *GraphQLStarHistory) doGraphQL(ctx context.Context, variables map[string]any) (json.RawMessage, error) {
	if err := g.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqBody, err := json.Marshal(graphqlRequest{Query: stargazersQuery, Variables: variables})
	if err != nil {
		return nil, apperrors.NewInternalError("marshaling request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, apperrors.NewInternalError("creating request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewTransportError(0, err)
	}
	defer func() { _ = resp.Body.Close() }()
	g.updateRateLimitFromHeader(resp.Header)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewTransportError(resp.StatusCode, fmt.Errorf("reading response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, apperrors.NewCredentialsRequiredError()
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return nil, apperrors.NewRateLimitedError(rateLimitReset(resp.Header))
	case resp.StatusCode != http.StatusOK:
		return nil, apperrors.NewTransportError(resp.StatusCode,
			fmt.Errorf("GitHub API returned %d: %s", resp.StatusCode, string(respBody)))
	}

	var gqlResp graphqlResponse
	if err := json.Unmarshal(respBody, &gqlResp); err != nil {
		return nil, apperrors.NewTransportError(resp.StatusCode, fmt.Errorf("parsing response: %w", err))
	}

	if len(gqlResp.Errors) > 0 {
		first := gqlResp.Errors[0]
		switch first.Type {
		case "NOT_FOUND":
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("repository %v/%v", variables["owner"], variables["name"]))
		case "RATE_LIMITED":
			return nil, apperrors.NewRateLimitedError(rateLimitReset(resp.Header))
		}
		return nil, apperrors.NewTransportError(resp.StatusCode, fmt.Errorf("GraphQL error: %s", first.Message))
	}

	return gqlResp.Data, nil
}

// updateRateLimitFromHeader feeds the X-RateLimit-* headers of a response
// to the rate limiter. Responses without a limit header leave it unchanged.
func (g *GraphQLStarHistory) updateRateLimitFromHeader(header http.Header) {
	limit, err := strconv.Atoi(header.Get("X-RateLimit-Limit"))
	if err != nil || limit <= 0 {
		return
	}
	remaining, err := strconv.Atoi(header.Get("X-RateLimit-Remaining"))
	if err != nil {
		return
	}
	g.rateLimiter.UpdateLimit(remaining, rateLimitReset(header))
}
