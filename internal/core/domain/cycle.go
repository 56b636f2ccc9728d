package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// CycleSummary is the frozen outcome of one finished period of a recurring goal.
type CycleSummary struct {
	ID         string    `json:"id" db:"id"`
	GoalID     string    `json:"goal_id" db:"goal_id"`
	CycleIndex int       `json:"cycle_index" db:"cycle_index"`
	StartAt    time.Time `json:"start_at" db:"start_at"`
	EndAt      time.Time `json:"end_at" db:"end_at"`
	Total      float64   `json:"total" db:"total"`
	Achieved   bool      `json:"achieved" db:"achieved"`
	StreakMax  int       `json:"streak_max" db:"streak_max"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

func NewCycleSummary(goalID string, index int, start, end time.Time) *CycleSummary {
	return &CycleSummary{
		ID:         uuid.NewString(),
		GoalID:     goalID,
		CycleIndex: index,
		StartAt:    start.UTC(),
		EndAt:      end.UTC(),
		CreatedAt:  time.Now().UTC(),
	}
}

// MilestoneReachedEvent is published once per threshold the first time a goal crosses it.
type MilestoneReachedEvent struct {
	EventID     string     `json:"event_id"`
	GoalID      string     `json:"goal_id"`
	OwnerID     string     `json:"owner_id"`
	GoalName    string     `json:"goal_name"`
	Label       string     `json:"label"`
	Threshold   float64    `json:"threshold"`
	Accumulated float64    `json:"accumulated"`
	CrossedAt   *time.Time `json:"crossed_at,omitempty"`
	OccurredAt  time.Time  `json:"occurred_at"`
}

var (
	ErrCycleNotSupported = errors.New("only recurring goals have cycles")
	ErrNoFinishedCycle   = errors.New("no finished cycle to close yet")
)
