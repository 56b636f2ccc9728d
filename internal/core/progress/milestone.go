package progress

import (
	"math"
	"sort"
	"time"

	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
)

// Threshold is a milestone resolved to an absolute amount in the goal's unit.
type Threshold struct {
	Label  string               `json:"label"`
	Kind   domain.MilestoneKind `json:"kind"`
	Amount float64              `json:"amount"`
	Value  float64              `json:"value"`
}

type Milestone struct {
	Threshold
	CrossedAt *time.Time `json:"crossed_at"`
}

// ResolveThresholds turns the goal's milestone definitions into absolute values,
// clamped to [0, target], deduplicated by value and sorted ascending.
// Percent thresholds need a target and are dropped without one.
func ResolveThresholds(goal *domain.Goal) []Threshold {
	out := make([]Threshold, 0, len(goal.Milestones))

	for _, m := range goal.Milestones {
		v := m.Amount
		if m.Kind == domain.MilestonePercent {
			if goal.Target == nil {
				continue
			}
			v = m.Amount * *goal.Target / 100
		}
		if goal.Target != nil && v > *goal.Target {
			v = *goal.Target
		}
		if v < 0 {
			v = 0
		}
		out = append(out, Threshold{Label: m.Label, Kind: m.Kind, Amount: m.Amount, Value: v})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Value < out[j].Value })

	uniq := out[:0]
	for i, t := range out {
		if i > 0 && t.Value == uniq[len(uniq)-1].Value {
			continue
		}
		uniq = append(uniq, t)
	}
	return uniq
}

// EvaluateMilestones returns the thresholds at or below accumulated, in ascending order.
// Each one carries the date of the log at which the running total inside w first reached
// it; CrossedAt stays nil when no log was needed or the running total never got there.
func EvaluateMilestones(goal *domain.Goal, logs []*domain.LogEntry, w Window, accumulated float64) []Milestone {
	thresholds := ResolveThresholds(goal)
	reached := make([]Milestone, 0, len(thresholds))
	for _, t := range thresholds {
		if t.Value > accumulated {
			break
		}
		reached = append(reached, Milestone{Threshold: t})
	}
	if len(reached) == 0 {
		return reached
	}

	inWindow := make([]*domain.LogEntry, 0, len(logs))
	for _, l := range logs {
		if l != nil && w.Contains(l.Date) {
			inWindow = append(inWindow, l)
		}
	}
	sort.SliceStable(inWindow, func(i, j int) bool { return inWindow[i].Date.Before(inWindow[j].Date) })

	loc := goalLocation(goal)
	seen := make(map[int]struct{})
	next := 0
	for next < len(reached) && reached[next].Value <= 0 {
		next++
	}

	var running float64
	for _, l := range inWindow {
		if next == len(reached) {
			break
		}
		running += contribution(goal, l, seen, loc)
		for next < len(reached) && running >= reached[next].Value {
			at := l.Date.UTC()
			reached[next].CrossedAt = &at
			next++
		}
	}

	return reached
}

// dateByRun re-dates the reached milestones of a streak goal to the day the current run
// reached each length. Hit days from earlier runs never date a milestone.
func dateByRun(goal *domain.Goal, reached []Milestone, run []int) {
	loc := goalLocation(goal)
	for i := range reached {
		reached[i].CrossedAt = nil
		n := int(math.Ceil(reached[i].Value))
		if n <= 0 || n > len(run) {
			continue
		}
		at := dayStart(run[n-1], loc)
		reached[i].CrossedAt = &at
	}
}

// NextThreshold returns the first threshold above accumulated, if any.
func NextThreshold(goal *domain.Goal, accumulated float64) *Threshold {
	for _, t := range ResolveThresholds(goal) {
		if t.Value > accumulated {
			return &t
		}
	}
	return nil
}
