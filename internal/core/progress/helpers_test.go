package progress_test

import (
	"time"

	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
)

func ptr[T any](v T) *T { return &v }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func entry(t time.Time, v float64) *domain.LogEntry {
	return &domain.LogEntry{GoalID: "g1", UserID: "u1", Date: t, Value: v}
}

func fixedGoal(gt domain.GoalType, target *float64, start, end time.Time) *domain.Goal {
	return &domain.Goal{
		ID:     "g1",
		Type:   gt,
		Target: target,
		Timeframe: domain.Timeframe{
			Kind:    domain.TimeframeFixed,
			StartAt: start,
			EndAt:   &end,
		},
	}
}

func recurringGoal(r domain.Recurrence, start time.Time) *domain.Goal {
	return &domain.Goal{
		ID:     "g1",
		Type:   domain.GoalTypeSum,
		Target: ptr(10.0),
		Timeframe: domain.Timeframe{
			Kind:       domain.TimeframeRecurring,
			StartAt:    start,
			Recurrence: &r,
		},
	}
}

func streakGoal(policy domain.TodayPolicy, grace int) *domain.Goal {
	return &domain.Goal{
		ID:   "g1",
		Type: domain.GoalTypeStreak,
		Timeframe: domain.Timeframe{
			Kind:        domain.TimeframeRolling,
			StartAt:     date(2023, 1, 1),
			RollingDays: 30,
		},
		Streak: domain.StreakPolicy{Today: policy, GraceDays: grace},
	}
}
