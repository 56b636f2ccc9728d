// Package progress computes goal statistics from a goal definition and its logs.
//
// Every function is pure: inputs are never modified, nothing is cached and the same
// inputs always give the same output, so callers may use the package concurrently.
package progress

import (
	"time"

	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
)

// Result bundles every figure derived for a goal at a reference instant.
type Result struct {
	GoalID        string      `json:"goal_id"`
	GoalType      string      `json:"goal_type"`
	Unit          string      `json:"unit,omitempty"`
	Target        *float64    `json:"target"`
	Window        Window      `json:"window"`
	Accumulated   float64     `json:"accumulated"`
	Progress      Progress    `json:"progress"`
	Pace          Pace        `json:"pace"`
	Streak        Streaks     `json:"streak"`
	Milestones    []Milestone `json:"milestones_reached"`
	NextMilestone *Threshold  `json:"next_milestone"`
	Achieved      bool        `json:"achieved"`
	ComputedAt    time.Time   `json:"computed_at"`
}

// Calculate resolves the window enclosing ref and derives all statistics from logs,
// which should hold the goal's full history so that the longest streak is exact.
//
// Streak goals are measured on their current streak: progress and milestones compare
// the streak length against the target, while pace uses the hit days inside the window.
// Their milestones are dated by the day the current run reached each length.
func Calculate(goal *domain.Goal, logs []*domain.LogEntry, ref time.Time) (Result, error) {
	w, err := ResolveWindow(goal, ref)
	if err != nil {
		return Result{}, err
	}

	accumulated := Aggregate(goal, logs, w)
	streaks := ComputeStreaks(goal, logs, ref)

	basis := accumulated
	if goal.Type == domain.GoalTypeStreak {
		basis = float64(streaks.Current)
	}

	milestones := EvaluateMilestones(goal, logs, w, basis)
	if goal.Type == domain.GoalTypeStreak {
		dateByRun(goal, milestones, currentRun(goal, logs, ref, streaks.Current))
	}

	prog := CalculateProgress(basis, goal.Target)
	if goal.Type == domain.GoalTypeOpen {
		prog = CalculateProgress(basis, nil)
	}

	return Result{
		GoalID:        goal.ID,
		GoalType:      string(goal.Type),
		Unit:          goal.Unit,
		Target:        goal.Target,
		Window:        w,
		Accumulated:   accumulated,
		Progress:      prog,
		Pace:          CalculatePace(goal, accumulated, w, ref),
		Streak:        streaks,
		Milestones:    milestones,
		NextMilestone: NextThreshold(goal, basis),
		Achieved:      prog.Reached(),
		ComputedAt:    ref.UTC(),
	}, nil
}
