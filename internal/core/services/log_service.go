package services

import (
	"context"
	"strings"
	"time"

	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
)

// Enqueuer receives the id of a goal whose logs just changed.
type Enqueuer interface {
	Enqueue(goalID string)
}

type LogService struct {
	repo     domain.LogRepository
	goalRepo domain.GoalRepository
	worker   Enqueuer
}

func NewLogService(repo domain.LogRepository, goalRepo domain.GoalRepository, worker Enqueuer) *LogService {
	return &LogService{
		repo:     repo,
		goalRepo: goalRepo,
		worker:   worker,
	}
}

type CreateLogInput struct {
	GoalID string
	UserID string
	Date   time.Time
	Value  float64
	Note   string
}

type UpdateLogInput struct {
	ID      string
	UserID  string
	Date    *time.Time
	Value   *float64
	Note    *string
	Version int
}

type ListLogsInput struct {
	GoalID    string
	UserID    string
	From      *time.Time
	To        *time.Time
	Ascending bool
	Page      int
	PageSize  int
}

func (s *LogService) Create(ctx context.Context, input CreateLogInput) (*domain.LogEntry, error) {
	entry := domain.NewLogEntry(input.GoalID, input.UserID, input.Date, input.Value)
	entry.Note = strings.TrimSpace(input.Note)

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	goal, err := s.goalRepo.GetByID(ctx, entry.GoalID)
	if err != nil {
		return nil, err
	}
	if !goal.IsOwnedBy(entry.UserID) {
		return nil, domain.ErrUnauthorized
	}
	if goal.Status == domain.GoalStatusArchived {
		return nil, domain.ErrGoalArchived
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}

	s.notify(entry.GoalID)

	return entry, nil
}

func (s *LogService) Update(ctx context.Context, input UpdateLogInput) (*domain.LogEntry, error) {
	existing, err := s.GetByID(ctx, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}

	if input.Version > 0 && existing.Version != input.Version {
		return nil, domain.ErrLogConflict
	}

	if input.Date != nil {
		existing.Date = input.Date.UTC()
	}
	if input.Value != nil {
		existing.Value = *input.Value
	}
	if input.Note != nil {
		existing.Note = strings.TrimSpace(*input.Note)
	}
	existing.UpdatedAt = time.Now().UTC()

	if err := existing.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}

	s.notify(existing.GoalID)

	return existing, nil
}

// GetByID returns a log to its author or to the owner of its goal.
func (s *LogService) GetByID(ctx context.Context, id string, userID string) (*domain.LogEntry, error) {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.UserID == userID {
		return entry, nil
	}

	goal, err := s.goalRepo.GetByID(ctx, entry.GoalID)
	if err != nil {
		return nil, err
	}
	if !goal.IsOwnedBy(userID) {
		return nil, domain.ErrUnauthorized
	}
	return entry, nil
}

// ListByGoal pages through the logs of a goal readable by the caller.
func (s *LogService) ListByGoal(ctx context.Context, input ListLogsInput) (domain.Page[*domain.LogEntry], error) {
	goal, err := s.goalRepo.GetByID(ctx, input.GoalID)
	if err != nil {
		return domain.Page[*domain.LogEntry]{}, err
	}
	if !goal.VisibleTo(input.UserID) {
		return domain.Page[*domain.LogEntry]{}, domain.ErrUnauthorized
	}

	return s.search(ctx, domain.LogQuery{
		GoalID:    input.GoalID,
		From:      input.From,
		To:        input.To,
		Ascending: input.Ascending,
	}, input.Page, input.PageSize)
}

// ListShared pages through the logs of a goal already resolved from a share token.
func (s *LogService) ListShared(ctx context.Context, goal *domain.Goal, page, pageSize int) (domain.Page[*domain.LogEntry], error) {
	return s.search(ctx, domain.LogQuery{GoalID: goal.ID}, page, pageSize)
}

func (s *LogService) ListByUser(ctx context.Context, input ListLogsInput) (domain.Page[*domain.LogEntry], error) {
	return s.search(ctx, domain.LogQuery{
		UserID:    input.UserID,
		From:      input.From,
		To:        input.To,
		Ascending: input.Ascending,
	}, input.Page, input.PageSize)
}

func (s *LogService) search(ctx context.Context, q domain.LogQuery, page, pageSize int) (domain.Page[*domain.LogEntry], error) {
	page, size := normalizePage(page, pageSize)
	q.Limit = size
	q.Offset = (page - 1) * size

	logs, total, err := s.repo.Search(ctx, q)
	if err != nil {
		return domain.Page[*domain.LogEntry]{}, err
	}
	return domain.NewPage(logs, page, size, total), nil
}

func (s *LogService) Delete(ctx context.Context, id string, userID string) error {
	entry, err := s.GetByID(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.notify(entry.GoalID)

	return nil
}

func (s *LogService) notify(goalID string) {
	if s.worker != nil {
		s.worker.Enqueue(goalID)
	}
}
