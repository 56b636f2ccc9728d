package progress

import (
	"time"

	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
)

// Aggregate folds the logs that fall inside w into a single figure:
// the number of entries for count goals, the number of distinct hit days for streak goals
// and the sum of values for every other type.
func Aggregate(goal *domain.Goal, logs []*domain.LogEntry, w Window) float64 {
	loc := goalLocation(goal)
	seen := make(map[int]struct{})

	var total float64
	for _, l := range logs {
		if l == nil || !w.Contains(l.Date) {
			continue
		}
		total += contribution(goal, l, seen, loc)
	}
	return total
}

// contribution is what a single log adds to the aggregate of its goal,
// given the hit days already counted.
func contribution(goal *domain.Goal, l *domain.LogEntry, seen map[int]struct{}, loc *time.Location) float64 {
	switch goal.Type {
	case domain.GoalTypeCount:
		return 1
	case domain.GoalTypeStreak:
		if !l.Hit() {
			return 0
		}
		day := dayNumber(l.Date.In(loc))
		if _, ok := seen[day]; ok {
			return 0
		}
		seen[day] = struct{}{}
		return 1
	default:
		return l.Value
	}
}
