package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/kurihiro0119/github-stars-analyzer/internal/domain"
	"github.com/kurihiro0119/github-stars-analyzer/internal/session"
)

func init() {
	color.NoColor = true
}

func sampleTrend() *domain.TrendRecord {
	return &domain.TrendRecord{
		RepoID: 1,
		Windows: []domain.WindowGrowth{
			{Days: 30, Stars: 1250, MonthlyRate: 1250},
			{Days: 90, Stars: 1800, MonthlyRate: 600},
		},
		Trend:     domain.TrendHot,
		Momentum:  &domain.Momentum{Label: domain.MomentumAccelerating, Percent: 108},
		Estimated: true,
	}
}

func TestCells(t *testing.T) {
	rec := sampleTrend()

	assert.Equal(t, "Hot*", trendCell(rec))
	assert.Equal(t, "-", trendCell(nil))
	assert.Equal(t, "+1,250 (1,250/mo)", growthCell(rec, 30))
	assert.Equal(t, "-", growthCell(rec, 365))
	assert.Equal(t, "-", growthCell(nil, 30))
	assert.Equal(t, "Accelerating +108%", momentumCell(rec))

	rec.Momentum = nil
	assert.Equal(t, "-", momentumCell(rec))
}

func TestRankCell(t *testing.T) {
	assert.Equal(t, "#1", rankCell(domain.RankedRepository{Label: "#1", Medal: domain.MedalGold}))
	assert.Equal(t, "#7", rankCell(domain.RankedRepository{Label: "#7"}))
}

func TestHeadAndWithTrend(t *testing.T) {
	rows := []domain.RankedRepository{
		{Rank: 1, Trend: sampleTrend()},
		{Rank: 2},
		{Rank: 3, Trend: sampleTrend()},
	}

	assert.Len(t, head(rows, 0), 3)
	assert.Len(t, head(rows, 2), 2)
	assert.Len(t, head(rows, 10), 3)

	filtered := withTrend(rows)
	assert.Len(t, filtered, 2)
	assert.Equal(t, 3, filtered[1].Rank)
}

func TestRenderRanked(t *testing.T) {
	var buf bytes.Buffer
	renderRanked(&buf, []domain.RankedRepository{{
		Rank:  1,
		Label: "#1",
		Medal: domain.MedalGold,
		Repository: &domain.Repository{
			FullName:  "octo/hello",
			Stars:     12345,
			Language:  "Go",
			UpdatedAt: time.Now().Add(-48 * time.Hour),
		},
		Trend: sampleTrend(),
	}})

	out := buf.String()
	assert.Contains(t, out, "1 repositories")
	assert.Contains(t, out, "octo/hello")
	assert.Contains(t, out, "12,345")
	assert.Contains(t, out, "2 days ago")
	assert.Contains(t, out, "Hot*")
}

func TestRenderNotices(t *testing.T) {
	var buf bytes.Buffer
	renderNotices(&buf, []session.Notice{{Message: "FETCH_FAILED: failed to fetch trend for repository 3"}})
	assert.Equal(t, "warning: FETCH_FAILED: failed to fetch trend for repository 3\n", buf.String())
}
