package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kurihiro0119/github-stars-analyzer/internal/errors"
)

func graphqlPage(hasNext bool, cursor string, stamps ...time.Time) string {
	edges := make([]string, 0, len(stamps))
	for _, s := range stamps {
		edges = append(edges, fmt.Sprintf(`{"starredAt":%q}`, s.Format(time.RFC3339)))
	}
	return fmt.Sprintf(`{"data":{"repository":{"stargazers":{"pageInfo":{"hasNextPage":%t,"endCursor":%q},"edges":[%s]}}}}`,
		hasNext, cursor, strings.Join(edges, ","))
}

func TestGraphQLStarredSince(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	since := now.AddDate(0, 0, -30)
	ago := func(days int) time.Time { return now.AddDate(0, 0, -days) }

	t.Run("follows cursors until the cutoff", func(t *testing.T) {
		var cursors []any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "Bearer ghp_token", r.Header.Get("Authorization"))

			var req graphqlRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "octo", req.Variables["owner"])
			cursors = append(cursors, req.Variables["after"])

			if req.Variables["after"] == nil {
				fmt.Fprint(w, graphqlPage(true, "c1", ago(1), ago(2)))
				return
			}
			fmt.Fprint(w, graphqlPage(true, "c2", ago(10), ago(31), ago(40)))
		}))
		defer server.Close()

		g := NewGraphQLStarHistory(server.URL, "ghp_token", nil, nil)
		got, err := g.StarredSince(context.Background(), "octo", "repo1", since)
		require.NoError(t, err)
		assert.Len(t, got, 3)
		assert.Equal(t, []any{nil, "c1"}, cursors)
	})

	t.Run("requires a token", func(t *testing.T) {
		g := NewGraphQLStarHistory("http://127.0.0.1:0", "", nil, nil)
		_, err := g.StarredSince(context.Background(), "octo", "repo1", since)
		assert.True(t, apperrors.IsCredentialsRequired(err))
	})

	t.Run("missing repository", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"data":{"repository":null},"errors":[{"type":"NOT_FOUND","message":"Could not resolve"}]}`)
		}))
		defer server.Close()

		g := NewGraphQLStarHistory(server.URL, "token123", nil, nil)
		_, err := g.StarredSince(context.Background(), "octo", "gone", since)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("unauthorized", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		g := NewGraphQLStarHistory(server.URL, "bad", nil, nil)
		_, err := g.StarredSince(context.Background(), "octo", "repo1", since)
		assert.True(t, apperrors.IsCredentialsRequired(err))
	})

	t.Run("forbidden is rate limited", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		g := NewGraphQLStarHistory(server.URL, "token123", nil, nil)
		_, err := g.StarredSince(context.Background(), "octo", "repo1", since)
		assert.True(t, apperrors.IsRateLimited(err))
	})

	t.Run("legacy tokens use the token scheme", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "token token123", r.Header.Get("Authorization"))
			fmt.Fprint(w, graphqlPage(false, "", ago(1)))
		}))
		defer server.Close()

		g := NewGraphQLStarHistory(server.URL, "token123", nil, nil)
		got, err := g.StarredSince(context.Background(), "octo", "repo1", since)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})
}

func TestGraphQLStarredSince_TracksRateLimitHeaders(t *testing.T) {
	reset := time.Now().Add(time.Hour).Truncate(time.Second)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "5000")
		w.Header().Set("X-RateLimit-Remaining", "4990")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
		fmt.Fprint(w, graphqlPage(false, ""))
	}))
	defer server.Close()

	rl := NewRateLimiter(0, nil)
	g := NewGraphQLStarHistory(server.URL, "ghp_token", rl, nil)

	// more calls than the anonymous budget the limiter starts with
	for i := 0; i < 70; i++ {
		_, err := g.StarredSince(context.Background(), "octo", "repo1", time.Now().AddDate(0, 0, -30))
		require.NoError(t, err, "call %d", i+1)
	}

	remaining, resetAt, err := rl.CheckLimit()
	require.NoError(t, err)
	assert.Equal(t, 4990, remaining)
	assert.True(t, reset.Equal(resetAt))
}
