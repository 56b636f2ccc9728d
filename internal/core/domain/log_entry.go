package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidLog   = errors.New("invalid log data")
	ErrNoteTooLong  = errors.New("log note is too long (max 1000 chars)")
	ErrNegativeLog  = errors.New("log value cannot be negative")
	ErrLogDateEmpty = errors.New("log date is required")
)

const MaxNoteLen = 1000

// LogEntry is a timestamped record of progress against a goal.
// For streak goals any positive value marks the day as hit.
type LogEntry struct {
	ID     string `json:"id" db:"id"`
	GoalID string `json:"goal_id" db:"goal_id"`
	UserID string `json:"user_id" db:"user_id"`

	Date  time.Time `json:"date" db:"date"`
	Value float64   `json:"value" db:"value"`
	Note  string    `json:"note,omitempty" db:"note"`

	Version   int       `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func NewLogEntry(goalID, userID string, date time.Time, value float64) *LogEntry {
	now := time.Now().UTC()

	if date.IsZero() {
		date = now
	}

	return &LogEntry{
		GoalID: goalID,
		UserID: userID,
		Date:   date.UTC(),
		Value:  value,

		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (e *LogEntry) Validate() error {
	if strings.TrimSpace(e.GoalID) == "" {
		return errors.Join(ErrInvalidLog, errors.New("goal_id is required"))
	}
	if strings.TrimSpace(e.UserID) == "" {
		return errors.Join(ErrInvalidLog, errors.New("user_id is required"))
	}
	if e.Value < 0 {
		return ErrNegativeLog
	}
	if e.Date.IsZero() {
		return ErrLogDateEmpty
	}
	if len(e.Note) > MaxNoteLen {
		return ErrNoteTooLong
	}
	return nil
}

// Hit reports whether the entry qualifies a calendar day for a streak.
func (e *LogEntry) Hit() bool {
	return e.Value > 0
}
