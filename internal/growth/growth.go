// Package growth estimates star growth over fixed look-back windows.
//
// Two strategies produce a domain.TrendRecord: FromEvents counts real
// "starred at" timestamps, Estimate derives numbers from repository
// metadata when no per-event history is available. Both classify with
// the same threshold table.
package growth

import (
	"math"
	"time"

	"github.com/kurihiro0119/github-stars-analyzer/internal/domain"
)

const day = 24 * time.Hour

// Label classifies a 30-day star count
func Label(stars30 int) domain.TrendLabel {
	switch {
	case stars30 > 100:
		return domain.TrendHot
	case stars30 >= 10:
		return domain.TrendRising
	case stars30 >= 1:
		return domain.TrendSteady
	default:
		return domain.TrendQuiet
	}
}

// MomentumOf compares the 30-day and 90-day monthly rates
func MomentumOf(rate30, rate90 int) domain.Momentum {
	diff := float64(rate30-rate90) / float64(max(rate90, 1)) * 100

	label := domain.MomentumStable
	switch {
	case diff > 20:
		label = domain.MomentumAccelerating
	case diff < -20:
		label = domain.MomentumSlowing
	}
	return domain.Momentum{Label: label, Percent: int(math.Round(diff))}
}

// monthlyRate normalizes a window count to a 30-day rate
func monthlyRate(count, days int) int {
	return int(math.Round(float64(count) / float64(days) * 30))
}

// FromEvents builds an empirical record from starred-at timestamps.
// Only windows no longer than coverageDays are reported, so a history
// fetched for the last 30 days yields a single window and no momentum.
func FromEvents(repoID int64, starredAt []time.Time, now time.Time, coverageDays int) *domain.TrendRecord {
	record := &domain.TrendRecord{
		RepoID:     repoID,
		ComputedAt: now,
	}

	for _, days := range domain.LookbackWindows {
		if days > coverageDays {
			break
		}
		cutoff := now.Add(-time.Duration(days) * day)
		count := 0
		for _, ts := range starredAt {
			if ts.After(cutoff) {
				count++
			}
		}
		record.Windows = append(record.Windows, domain.WindowGrowth{
			Days:        days,
			Stars:       count,
			MonthlyRate: monthlyRate(count, days),
		})
	}

	classify(record)
	return record
}

// classify sets the trend label and, with two or more windows, the momentum
func classify(record *domain.TrendRecord) {
	w30, _ := record.Window(30)
	record.Trend = Label(w30.Stars)

	w90, ok := record.Window(90)
	if !ok {
		return
	}
	m := MomentumOf(w30.MonthlyRate, w90.MonthlyRate)
	record.Momentum = &m
}
