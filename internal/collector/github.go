package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v55/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/kurihiro0119/github-stars-analyzer/internal/domain"
	apperrors "github.com/kurihiro0119/github-stars-analyzer/internal/errors"
)

const (
	perPage             = 100
	contributorsPerPage = 5

	// DefaultMaxStarredPages bounds the starred listing to 1000 repositories
	DefaultMaxStarredPages = 10
	// DefaultMaxHistoryPages bounds a single star-history walk
	DefaultMaxHistoryPages = 20

	// MaxListableStargazers is how far the REST stargazer listing reaches:
	// GitHub serves at most 400 pages, so newer stars of larger
	// repositories are never listed
	MaxListableStargazers = 400 * perPage
)

// GitHubCollector implements Collector and StarHistorySource using the
// GitHub REST API
type GitHubCollector struct {
	client          *github.Client
	rateLimiter     RateLimiter
	maxPages        int
	maxHistoryPages int
	onProgress      ProgressCallback
	logger          *zap.Logger
}

// Option configures a GitHubCollector
type Option func(*GitHubCollector)

// WithMaxPages caps the number of starred pages fetched
func WithMaxPages(n int) Option {
	return func(c *GitHubCollector) {
		if n > 0 && n <= DefaultMaxStarredPages {
			c.maxPages = n
		}
	}
}

// WithMaxHistoryPages caps the number of stargazer pages walked per repository
func WithMaxHistoryPages(n int) Option {
	return func(c *GitHubCollector) {
		if n > 0 {
			c.maxHistoryPages = n
		}
	}
}

// WithRateLimiter replaces the default rate limiter
func WithRateLimiter(rl RateLimiter) Option {
	return func(c *GitHubCollector) {
		if rl != nil {
			c.rateLimiter = rl
		}
	}
}

// WithProgress reports each fetched starred page
func WithProgress(fn ProgressCallback) Option {
	return func(c *GitHubCollector) {
		c.onProgress = fn
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *GitHubCollector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBaseURL points the client at another API root (GitHub Enterprise, tests)
func WithBaseURL(baseURL string) Option {
	return func(c *GitHubCollector) {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		if u, err := url.Parse(baseURL); err == nil {
			c.client.BaseURL = u
		}
	}
}

// NewGitHubCollector creates a new GitHub collector.
// An empty token makes anonymous requests.
func NewGitHubCollector(token string, opts ...Option) *GitHubCollector {
	c := &GitHubCollector{
		client:          github.NewClient(newHTTPClient(token)),
		maxPages:        DefaultMaxStarredPages,
		maxHistoryPages: DefaultMaxHistoryPages,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rateLimiter == nil {
		c.rateLimiter = NewRateLimiter(0, c.logger)
	}
	return c
}

// TokenType returns the authorization scheme for a token: fine-grained and
// classic personal access tokens use Bearer, anything else the legacy
// "token" scheme
func TokenType(token string) string {
	if strings.HasPrefix(token, "github_pat_") || strings.HasPrefix(token, "ghp_") {
		return "Bearer"
	}
	return "token"
}

func newHTTPClient(token string) *http.Client {
	if token == "" {
		return nil
	}
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token, TokenType: TokenType(token)},
	)
	return oauth2.NewClient(context.Background(), ts)
}

// ListStarred retrieves the repositories starred by a user, 100 per page,
// until an empty page or the page cap is reached
func (c *GitHubCollector) ListStarred(ctx context.Context, username string) ([]*domain.Repository, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperrors.NewInvalidInputError("please enter a GitHub username")
	}

	var allRepos []*domain.Repository
	// stars added during the walk shift later pages, repeating repositories
	seen := make(map[int64]struct{})
	for page := 1; page <= c.maxPages; page++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		opts := &github.ActivityListStarredOptions{
			ListOptions: github.ListOptions{PerPage: perPage, Page: page},
		}
		starred, resp, err := c.client.Activity.ListStarred(ctx, username, opts)
		c.updateRateLimitFromResponse(resp)
		if err != nil {
			return nil, classifyError(err, resp, fmt.Sprintf("user %s", username))
		}

		if len(starred) == 0 {
			break
		}
		for _, s := range starred {
			id := s.GetRepository().GetID()
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			allRepos = append(allRepos, toDomainRepository(s.GetRepository(), s.GetStarredAt().Time))
		}

		c.logger.Debug("fetched starred page",
			zap.String("user", username),
			zap.Int("page", page),
			zap.Int("total", len(allRepos)))
		if c.onProgress != nil {
			c.onProgress(page, len(allRepos))
		}
	}

	return allRepos, nil
}

// ListContributors retrieves the top contributors of a repository
func (c *GitHubCollector) ListContributors(ctx context.Context, owner, repo string) ([]*domain.Contributor, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	opts := &github.ListContributorsOptions{
		ListOptions: github.ListOptions{PerPage: contributorsPerPage},
	}
	contributors, resp, err := c.client.Repositories.ListContributors(ctx, owner, repo, opts)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return nil, classifyError(err, resp, fmt.Sprintf("repository %s/%s", owner, repo))
	}

	result := make([]*domain.Contributor, 0, len(contributors))
	for _, contributor := range contributors {
		result = append(result, &domain.Contributor{
			Login:         contributor.GetLogin(),
			Contributions: contributor.GetContributions(),
			AvatarURL:     contributor.GetAvatarURL(),
			ProfileURL:    contributor.GetHTMLURL(),
		})
	}
	return result, nil
}

// StarredSince lists stargazer timestamps newer than since. Stargazers are
// listed oldest first, so the walk starts at the last page and stops at the
// first page whose oldest entry is not newer than since.
func (c *GitHubCollector) StarredSince(ctx context.Context, owner, repo string, since time.Time) ([]time.Time, error) {
	first, resp, err := c.listStargazers(ctx, owner, repo, 1)
	if err != nil {
		return nil, err
	}
	if resp.LastPage <= 1 {
		return newerThan(first, since), nil
	}

	var starredAt []time.Time
	for page, walked := resp.LastPage, 0; page >= 1 && walked < c.maxHistoryPages; page, walked = page-1, walked+1 {
		items := first
		if page > 1 {
			items, _, err = c.listStargazers(ctx, owner, repo, page)
			if err != nil {
				return nil, err
			}
		}

		starredAt = append(starredAt, newerThan(items, since)...)
		if len(items) == 0 || !items[0].GetStarredAt().Time.After(since) {
			break
		}
	}
	return starredAt, nil
}

func (c *GitHubCollector) listStargazers(ctx context.Context, owner, repo string, page int) ([]*github.Stargazer, *github.Response, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, nil, err
	}

	opts := &github.ListOptions{PerPage: perPage, Page: page}
	stargazers, resp, err := c.client.Activity.ListStargazers(ctx, owner, repo, opts)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return nil, resp, classifyError(err, resp, fmt.Sprintf("repository %s/%s", owner, repo))
	}
	return stargazers, resp, nil
}

func newerThan(stargazers []*github.Stargazer, since time.Time) []time.Time {
	var out []time.Time
	for _, s := range stargazers {
		if ts := s.GetStarredAt().Time; ts.After(since) {
			out = append(out, ts)
		}
	}
	return out
}

// updateRateLimitFromResponse updates the rate limiter from API response
func (c *GitHubCollector) updateRateLimitFromResponse(resp *github.Response) {
	if resp != nil && resp.Rate.Limit > 0 {
		c.rateLimiter.UpdateLimit(resp.Rate.Remaining, resp.Rate.Reset.Time)
	}
}

// classifyError maps a go-github error onto the application taxonomy
func classifyError(err error, resp *github.Response, resource string) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return apperrors.NewRateLimitedError(rateErr.Rate.Reset.Time)
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		var reset time.Time
		if abuseErr.RetryAfter != nil {
			reset = time.Now().Add(*abuseErr.RetryAfter)
		}
		return apperrors.NewRateLimitedError(reset)
	}

	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}
	switch status {
	case http.StatusNotFound:
		return apperrors.NewNotFoundError(resource)
	case http.StatusForbidden:
		return apperrors.NewRateLimitedError(rateLimitReset(resp.Header))
	}
	return apperrors.NewTransportError(status, err)
}

// rateLimitReset parses the X-RateLimit-Reset header (unix seconds)
func rateLimitReset(header http.Header) time.Time {
	v := header.Get("X-RateLimit-Reset")
	if v == "" {
		return time.Time{}
	}
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(secs, 0)
}

func toDomainRepository(r *github.Repository, starredAt time.Time) *domain.Repository {
	language := r.GetLanguage()
	if language == "" {
		language = domain.UnknownLanguage
	}
	description := r.GetDescription()
	if description == "" {
		description = domain.NoDescription
	}
	license := r.GetLicense().GetName()
	if license == "" {
		license = domain.NoLicense
	}
	topics := make([]string, len(r.Topics))
	copy(topics, r.Topics)

	return &domain.Repository{
		ID:          r.GetID(),
		Owner:       r.GetOwner().GetLogin(),
		Name:        r.GetName(),
		FullName:    r.GetFullName(),
		Description: description,
		URL:         r.GetHTMLURL(),
		Homepage:    r.GetHomepage(),
		Stars:       r.GetStargazersCount(),
		Forks:       r.GetForksCount(),
		Watchers:    r.GetWatchersCount(),
		OpenIssues:  r.GetOpenIssuesCount(),
		Language:    language,
		Topics:      topics,
		License:     license,
		CreatedAt:   r.GetCreatedAt().Time,
		UpdatedAt:   r.GetUpdatedAt().Time,
		PushedAt:    r.GetPushedAt().Time,
		StarredAt:   starredAt,
	}
}
