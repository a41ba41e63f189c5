package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kurihiro0119/github-stars-analyzer/internal/domain"
	apperrors "github.com/kurihiro0119/github-stars-analyzer/internal/errors"
	"github.com/kurihiro0119/github-stars-analyzer/internal/export"
	"github.com/kurihiro0119/github-stars-analyzer/internal/query"
	"github.com/kurihiro0119/github-stars-analyzer/internal/session"
)

// Dashboard is the backend the handlers serve
type Dashboard interface {
	Fetch(ctx context.Context, username string) (*domain.Summary, error)
	Username() string
	Summary() (*domain.Summary, error)
	Query(ctx context.Context, state domain.QueryState) ([]domain.RankedRepository, error)
	RunTrends(ctx context.Context, topN int) (*domain.TrendBatch, error)
	Trends(ctx context.Context) ([]*domain.TrendRecord, error)
	Batches(ctx context.Context) ([]*domain.TrendBatch, error)
	Trend(ctx context.Context, repoID int64) (*domain.TrendRecord, error)
	Contributors(ctx context.Context, repoID int64) ([]*domain.Contributor, error)
	Notices() []session.Notice
	Export(ctx context.Context, w io.Writer, format export.Format) error
}

// Handler handles API requests
type Handler struct {
	dashboard Dashboard
}

// NewHandler creates a new API handler
func NewHandler(d Dashboard) *Handler {
	return &Handler{
		dashboard: d,
	}
}

// FetchRequest is the body of a fetch request
type FetchRequest struct {
	Username string `json:"username"`
}

// Fetch loads the starred repositories of a user
// POST /api/v1/fetch
func (h *Handler) Fetch(c *gin.Context) {
	var req FetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewInvalidInputError("request body must be JSON with a username"))
		return
	}

	summary, err := h.dashboard.Fetch(c.Request.Context(), req.Username)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": summary,
	})
}

// GetSummary returns the summary of the loaded collection
// GET /api/v1/summary
func (h *Handler) GetSummary(c *gin.Context) {
	summary, err := h.dashboard.Summary()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": summary,
	})
}

// ListRepos returns the ranked rows of the current query
// GET /api/v1/repos?view=&language=&topic=&sort=&order=
func (h *Handler) ListRepos(c *gin.Context) {
	state, err := query.ParseState(
		c.Query("view"),
		c.Query("language"),
		c.QueryArray("topic"),
		c.Query("sort"),
		c.Query("order"),
	)
	if err != nil {
		respondError(c, err)
		return
	}

	rows, err := h.dashboard.Query(c.Request.Context(), state)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  rows,
		"count": len(rows),
		"query": state,
	})
}

// RunTrends computes trend records for the most-starred repositories
// POST /api/v1/trends?top=N
func (h *Handler) RunTrends(c *gin.Context) {
	topN := 0
	if v := c.Query("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(c, apperrors.NewInvalidInputError("top must be a positive integer"))
			return
		}
		topN = n
	}

	batch, err := h.dashboard.RunTrends(c.Request.Context(), topN)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": batch,
	})
}

// ListTrends returns the computed trend records and batch reports
// GET /api/v1/trends
func (h *Handler) ListTrends(c *gin.Context) {
	ctx := c.Request.Context()

	records, err := h.dashboard.Trends(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	batches, err := h.dashboard.Batches(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"trends":  records,
			"batches": batches,
		},
	})
}

// GetTrend returns the trend record of one repository
// GET /api/v1/repos/:id/trend
func (h *Handler) GetTrend(c *gin.Context) {
	id, ok := repoID(c)
	if !ok {
		return
	}

	record, err := h.dashboard.Trend(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": record,
	})
}

// GetContributors returns the top contributors of one repository
// GET /api/v1/repos/:id/contributors
func (h *Handler) GetContributors(c *gin.Context) {
	id, ok := repoID(c)
	if !ok {
		return
	}

	contributors, err := h.dashboard.Contributors(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": contributors,
	})
}

// GetNotices returns the per-repository failures of the session
// GET /api/v1/notices
func (h *Handler) GetNotices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data": h.dashboard.Notices(),
	})
}

// ExportJSON downloads the collection and summary as JSON
// GET /api/v1/export/json
func (h *Handler) ExportJSON(c *gin.Context) {
	h.export(c, export.FormatJSON)
}

// ExportCSV downloads the collection as CSV
// GET /api/v1/export/csv
func (h *Handler) ExportCSV(c *gin.Context) {
	h.export(c, export.FormatCSV)
}

func (h *Handler) export(c *gin.Context, format export.Format) {
	var buf bytes.Buffer
	if err := h.dashboard.Export(c.Request.Context(), &buf, format); err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s"`, export.Filename(h.dashboard.Username(), format)))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// HealthCheck returns the health status of the API
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// repoID parses the :id path parameter, responding with an error when invalid
func repoID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, apperrors.NewInvalidInputError(fmt.Sprintf("invalid repository id %q", c.Param("id"))))
		return 0, false
	}
	return id, true
}

// statusFor maps an error code onto an HTTP status
func statusFor(code apperrors.ErrCode) int {
	switch code {
	case apperrors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case apperrors.ErrCodeCredentialsRequired:
		return http.StatusUnauthorized
	case apperrors.ErrCodePending:
		return http.StatusConflict
	case apperrors.ErrCodeTransport, apperrors.ErrCodeFetchFailed:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		body := gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		}
		if !appErr.ResetAt.IsZero() {
			body["reset_at"] = appErr.ResetAt
		}
		c.JSON(statusFor(appErr.Code), gin.H{
			"error": body,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrCodeInternal,
			"message": err.Error(),
		},
	})
}
