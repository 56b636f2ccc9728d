package progress

import (
	"math"
	"time"

	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
)

const oneDay = 24 * time.Hour

// Pace compares the daily rate needed to reach the target with the rate achieved so far.
type Pace struct {
	Required      Metric `json:"required_per_day"`
	Actual        Metric `json:"actual_per_day"`
	DaysRemaining int    `json:"days_remaining"`
	DaysElapsed   int    `json:"days_elapsed"`
}

// CalculatePace divides the remaining amount by the whole days left in w, and the
// accumulated amount by the whole days elapsed since w started. Both divisors are
// floored at one day. Paces are not applicable without a target or before w starts.
func CalculatePace(goal *domain.Goal, accumulated float64, w Window, ref time.Time) Pace {
	remaining := wholeDays(w.End.Sub(ref))
	elapsed := wholeDays(minTime(ref, w.End).Sub(w.Start))

	p := Pace{
		Required:      NotApplicable(),
		Actual:        NotApplicable(),
		DaysRemaining: remaining,
		DaysElapsed:   elapsed,
	}

	if goal.Type == domain.GoalTypeOpen || goal.Target == nil || *goal.Target == 0 {
		return p
	}
	if ref.Before(w.Start) {
		p.DaysElapsed = 0
		return p
	}

	left := math.Max(*goal.Target-accumulated, 0)
	p.Required = Some(left / float64(max(remaining, 1)))
	p.Actual = Some(accumulated / float64(max(elapsed, 1)))

	return p
}

func wholeDays(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / oneDay)
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
