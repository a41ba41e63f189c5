package domain

import "time"

// TrendLabel is the qualitative label derived from the 30-day star count
type TrendLabel string

const (
	TrendQuiet  TrendLabel = "Quiet"
	TrendSteady TrendLabel = "Steady"
	TrendRising TrendLabel = "Rising"
	TrendHot    TrendLabel = "Hot"
)

// MomentumLabel classifies the change between the 30-day and 90-day rates
type MomentumLabel string

const (
	MomentumAccelerating MomentumLabel = "Accelerating"
	MomentumStable       MomentumLabel = "Stable"
	MomentumSlowing      MomentumLabel = "Slowing"
)

// Look-back windows in days
var LookbackWindows = []int{30, 90, 180, 365}

// WindowGrowth is the star delta observed over one look-back window
type WindowGrowth struct {
	Days        int `json:"days"`
	Stars       int `json:"stars"`
	MonthlyRate int `json:"monthly_rate"`
}

// Momentum is present only when both the 30-day and 90-day windows exist
type Momentum struct {
	Label   MomentumLabel `json:"label"`
	Percent int           `json:"percent"`
}

// TrendRecord is the growth estimate for one repository.
// Immutable once computed; never invalidated within a session.
type TrendRecord struct {
	RepoID     int64          `json:"repo_id"`
	Windows    []WindowGrowth `json:"windows"`
	Trend      TrendLabel     `json:"trend"`
	Momentum   *Momentum      `json:"momentum,omitempty"`
	Estimated  bool           `json:"estimated"`
	ComputedAt time.Time      `json:"computed_at"`
}

// Window returns the growth for the given window length
func (t *TrendRecord) Window(days int) (WindowGrowth, bool) {
	if t == nil {
		return WindowGrowth{}, false
	}
	for _, w := range t.Windows {
		if w.Days == days {
			return w, true
		}
	}
	return WindowGrowth{}, false
}
