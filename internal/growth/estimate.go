package growth

import (
	"math"
	"time"

	"github.com/kurihiro0119/github-stars-analyzer/internal/domain"
)

// windowDamping dampens longer windows, whose average rate is assumed lower
var windowDamping = map[int]float64{
	30:  1.0,
	90:  0.95,
	180: 0.9,
	365: 0.85,
}

// activityFactor weights recent pushes as a proxy for current attention
func activityFactor(daysSincePush float64) float64 {
	switch {
	case daysSincePush < 7:
		return 2.5
	case daysSincePush < 30:
		return 1.8
	case daysSincePush < 90:
		return 1.2
	case daysSincePush < 180:
		return 0.6
	case daysSincePush < 365:
		return 0.3
	default:
		return 0.1
	}
}

// ageDecayFactor discounts the lifetime average of older repositories
func ageDecayFactor(ageDays float64) float64 {
	switch {
	case ageDays > 3*365:
		return 0.4
	case ageDays > 2*365:
		return 0.6
	case ageDays > 365:
		return 0.8
	default:
		return 1.0
	}
}

// Estimate derives a trend record from total stars, creation and last push.
// Window counts never exceed the total star count and never decrease as
// the window grows.
func Estimate(repoID int64, stars int, createdAt, pushedAt, now time.Time) *domain.TrendRecord {
	ageDays := max(now.Sub(createdAt).Hours()/24, 1)
	daysSincePush := max(now.Sub(pushedAt).Hours()/24, 0)
	if pushedAt.IsZero() {
		daysSincePush = ageDays
	}

	lifetimePerDay := float64(stars) / ageDays
	currentRate := lifetimePerDay * activityFactor(daysSincePush) * ageDecayFactor(ageDays)

	record := &domain.TrendRecord{
		RepoID:     repoID,
		Estimated:  true,
		ComputedAt: now,
	}

	previous := 0
	for _, days := range domain.LookbackWindows {
		count := int(math.Round(currentRate * float64(days) * windowDamping[days]))
		count = min(count, max(stars, 0))
		count = max(count, previous)
		previous = count

		record.Windows = append(record.Windows, domain.WindowGrowth{
			Days:        days,
			Stars:       count,
			MonthlyRate: monthlyRate(count, days),
		})
	}

	classify(record)
	return record
}
