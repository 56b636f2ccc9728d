package progress

import (
	"sort"
	"time"

	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
)

type Streaks struct {
	Current int        `json:"current"`
	Longest int        `json:"longest"`
	LastHit *time.Time `json:"last_hit,omitempty"`
}

// ComputeStreaks counts runs of consecutive hit days in the goal's timezone.
//
// A day is hit when at least one of its logs has a positive value. Gaps of up to
// goal.Streak.GraceDays missed days do not break a run; the skipped days are not counted.
// The current streak ends at "today" (the day of ref) according to goal.Streak.Today;
// hit days after today only count toward the longest streak.
func ComputeStreaks(goal *domain.Goal, logs []*domain.LogEntry, ref time.Time) Streaks {
	loc := goalLocation(goal)
	days := hitDays(logs, loc)
	if len(days) == 0 {
		return Streaks{}
	}

	grace := max(goal.Streak.GraceDays, 0)

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i]-days[i-1]-1 <= grace {
			run++
		} else {
			run = 1
		}
		longest = max(longest, run)
	}

	today := dayNumber(ref.In(loc))
	last := sort.Search(len(days), func(i int) bool { return days[i] > today }) - 1
	if last < 0 {
		return Streaks{Longest: longest}
	}

	hit := dayStart(days[last], loc)
	s := Streaks{Longest: longest, LastHit: &hit}

	var missed int
	switch goal.Streak.Today {
	case domain.TodayStrict:
		missed = today - days[last]
	case domain.TodayLastHit:
		missed = 0
	default:
		// today is still open: only the days strictly between the last hit and today are missed
		missed = max(today-days[last]-1, 0)
	}
	if missed > grace {
		return s
	}

	s.Current = 1
	for i := last; i > 0; i-- {
		if days[i]-days[i-1]-1 > grace {
			break
		}
		s.Current++
	}

	return s
}

// currentRun returns the day numbers of the run counted by ComputeStreaks as the current streak.
func currentRun(goal *domain.Goal, logs []*domain.LogEntry, ref time.Time, current int) []int {
	if current <= 0 {
		return nil
	}
	loc := goalLocation(goal)
	days := hitDays(logs, loc)
	today := dayNumber(ref.In(loc))
	last := sort.Search(len(days), func(i int) bool { return days[i] > today }) - 1
	if last+1 < current {
		return nil
	}
	return days[last-current+1 : last+1]
}

// hitDays returns the sorted distinct day numbers that carry a qualifying log.
func hitDays(logs []*domain.LogEntry, loc *time.Location) []int {
	seen := make(map[int]struct{}, len(logs))
	days := make([]int, 0, len(logs))

	for _, l := range logs {
		if l == nil || !l.Hit() {
			continue
		}
		d := dayNumber(l.Date.In(loc))
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}

	sort.Ints(days)
	return days
}

func dayStart(n int, loc *time.Location) time.Time {
	u := time.Unix(int64(n)*86400, 0).UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, loc).UTC()
}
