package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kurihiro0119/github-stars-analyzer/internal/domain"
	apperrors "github.com/kurihiro0119/github-stars-analyzer/internal/errors"
	"github.com/kurihiro0119/github-stars-analyzer/internal/session"
)

// Client is the API client for github-stars-analyzer
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// Fetch asks the server to load the starred repositories of username
func (c *Client) Fetch(ctx context.Context, username string) (*domain.Summary, error) {
	var response struct {
		Data *domain.Summary `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/fetch", nil, map[string]string{"username": username}, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetSummary retrieves the summary of the loaded collection
func (c *Client) GetSummary(ctx context.Context) (*domain.Summary, error) {
	var response struct {
		Data *domain.Summary `json:"data"`
	}
	if err := c.get(ctx, "/api/v1/summary", nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// ListRepos retrieves the ranked rows for a query
func (c *Client) ListRepos(ctx context.Context, state domain.QueryState) ([]domain.RankedRepository, error) {
	params := url.Values{}
	if state.View != "" {
		params.Set("view", string(state.View))
	}
	if state.Language != "" {
		params.Set("language", state.Language)
	}
	for _, topic := range state.Topics {
		params.Add("topic", topic)
	}
	if state.SortKey != "" {
		params.Set("sort", string(state.SortKey))
	}
	if state.Direction != "" {
		params.Set("order", string(state.Direction))
	}

	var response struct {
		Data []domain.RankedRepository `json:"data"`
	}
	if err := c.get(ctx, "/api/v1/repos", params, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// RunTrends starts a trend batch over the top repositories; top <= 0 uses the server default
func (c *Client) RunTrends(ctx context.Context, top int) (*domain.TrendBatch, error) {
	params := url.Values{}
	if top > 0 {
		params.Set("top", strconv.Itoa(top))
	}

	var response struct {
		Data *domain.TrendBatch `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/trends", params, nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// ListTrends retrieves the computed trend records and batch reports
func (c *Client) ListTrends(ctx context.Context) ([]*domain.TrendRecord, []*domain.TrendBatch, error) {
	var response struct {
		Data struct {
			Trends  []*domain.TrendRecord `json:"trends"`
			Batches []*domain.TrendBatch  `json:"batches"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/api/v1/trends", nil, &response); err != nil {
		return nil, nil, err
	}
	return response.Data.Trends, response.Data.Batches, nil
}

// GetTrend retrieves the trend record of one repository
func (c *Client) GetTrend(ctx context.Context, repoID int64) (*domain.TrendRecord, error) {
	var response struct {
		Data *domain.TrendRecord `json:"data"`
	}
	if err := c.get(ctx, fmt.Sprintf("/api/v1/repos/%d/trend", repoID), nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetContributors retrieves the top contributors of one repository
func (c *Client) GetContributors(ctx context.Context, repoID int64) ([]*domain.Contributor, error) {
	var response struct {
		Data []*domain.Contributor `json:"data"`
	}
	if err := c.get(ctx, fmt.Sprintf("/api/v1/repos/%d/contributors", repoID), nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetNotices retrieves the per-repository failures of the session
func (c *Client) GetNotices(ctx context.Context) ([]session.Notice, error) {
	var response struct {
		Data []session.Notice `json:"data"`
	}
	if err := c.get(ctx, "/api/v1/notices", nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// Export downloads the collection as "json" or "csv"
func (c *Client) Export(ctx context.Context, format string) ([]byte, error) {
	resp, err := c.send(ctx, http.MethodGet, "/api/v1/export/"+format, nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// HealthCheck checks if the API is healthy
func (c *Client) HealthCheck(ctx context.Context) error {
	var response struct {
		Status string `json:"status"`
	}
	if err := c.get(ctx, "/health", nil, &response); err != nil {
		return err
	}
	if response.Status != "ok" {
		return fmt.Errorf("unhealthy status: %s", response.Status)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, params, nil, result)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, result interface{}) error {
	resp, err := c.send(ctx, method, path, params, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return json.NewDecoder(resp.Body).Decode(result)
}

// send performs a request and converts error envelopes into *apperrors.AppError
func (c *Client) send(ctx context.Context, method, path string, params url.Values, body interface{}) (*http.Response, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, err
	}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)

		var envelope struct {
			Error struct {
				Code    apperrors.ErrCode `json:"code"`
				Message string            `json:"message"`
				ResetAt time.Time         `json:"reset_at"`
			} `json:"error"`
		}
		if json.Unmarshal(data, &envelope) == nil && envelope.Error.Code != "" {
			return nil, &apperrors.AppError{
				Code:       envelope.Error.Code,
				Message:    envelope.Error.Message,
				StatusCode: resp.StatusCode,
				ResetAt:    envelope.Error.ResetAt,
			}
		}
		return nil, fmt.Errorf("API error: %s - %s", resp.Status, string(data))
	}

	return resp, nil
}
