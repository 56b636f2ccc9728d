package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrGoalNotFound       = errors.New("goal not found")
	ErrGoalConflict       = errors.New("goal version conflict")
	ErrLogNotFound        = errors.New("log not found")
	ErrLogConflict        = errors.New("log version conflict")
	ErrCycleNotFound      = errors.New("cycle summary not found")
	ErrCycleAlreadyClosed = errors.New("cycle already closed")
	ErrReferenceMissing   = errors.New("referenced goal or user does not exist")
)

// GoalFilter narrows goal listings. Empty fields are ignored.
type GoalFilter struct {
	OwnerID    string
	Status     GoalStatus
	Type       GoalType
	Privacy    Privacy
	Query      string
	PublicOnly bool
	Limit      int
	Offset     int
}

type GoalRepository interface {
	// Create persists a new goal definition.
	Create(ctx context.Context, goal *Goal) error

	// GetByID retrieves a goal by its unique identifier.
	GetByID(ctx context.Context, id string) (*Goal, error)

	// GetByShareToken resolves a goal from its public share token.
	GetByShareToken(ctx context.Context, token string) (*Goal, error)

	// ListByOwnerID retrieves every goal of a user, newest first.
	ListByOwnerID(ctx context.Context, ownerID string) ([]*Goal, error)

	// List returns one page of goals matching filter plus the total match count.
	List(ctx context.Context, filter GoalFilter) ([]*Goal, int, error)

	// ListActive returns all goals in the active status, across users.
	ListActive(ctx context.Context) ([]*Goal, error)

	// Update modifies an existing goal.
	// Implementations must honour optimistic locking on Version.
	Update(ctx context.Context, goal *Goal) error

	// Delete permanently removes a goal together with its logs and cycle summaries.
	Delete(ctx context.Context, id string) error

	UpdateSnapshot(ctx context.Context, id string, snap GoalSnapshot) error
}

// LogQuery drives paginated log listings. GoalID or UserID must be set.
// From is inclusive and To exclusive; results are newest first unless Ascending.
type LogQuery struct {
	GoalID    string
	UserID    string
	From      *time.Time
	To        *time.Time
	Ascending bool
	Limit     int
	Offset    int
}

type LogRepository interface {
	Create(ctx context.Context, entry *LogEntry) error

	// Update modifies an existing log, checking its version.
	Update(ctx context.Context, entry *LogEntry) error

	Delete(ctx context.Context, id string) error

	GetByID(ctx context.Context, id string) (*LogEntry, error)

	// ListByGoalID returns the logs of a goal with from <= date < to, oldest first.
	ListByGoalID(ctx context.Context, goalID string, from, to time.Time) ([]*LogEntry, error)

	// History returns every log of a goal, oldest first.
	History(ctx context.Context, goalID string) ([]*LogEntry, error)

	// Search returns one page of logs matching q plus the total match count.
	Search(ctx context.Context, q LogQuery) ([]*LogEntry, int, error)

	// ListByUserID returns every log written by a user, oldest first.
	ListByUserID(ctx context.Context, userID string) ([]*LogEntry, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Update(ctx context.Context, user *User) error
}

type CycleRepository interface {
	// Create stores a summary. A second summary for the same goal and index yields ErrCycleAlreadyClosed.
	Create(ctx context.Context, summary *CycleSummary) error

	// ListByGoalID returns the summaries of a goal ordered by cycle index.
	ListByGoalID(ctx context.Context, goalID string) ([]*CycleSummary, error)
}
