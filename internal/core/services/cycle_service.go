package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
	"github.com/comitanigiacomo/kanso-goals/internal/core/progress"
)

type CycleService struct {
	repo     domain.CycleRepository
	goalRepo domain.GoalRepository
	logRepo  domain.LogRepository
	now      func() time.Time
}

func NewCycleService(repo domain.CycleRepository, goalRepo domain.GoalRepository, logRepo domain.LogRepository) *CycleService {
	return &CycleService{
		repo:     repo,
		goalRepo: goalRepo,
		logRepo:  logRepo,
		now:      time.Now,
	}
}

// Close freezes the most recent finished period of an owned recurring goal.
func (s *CycleService) Close(ctx context.Context, goalID, userID string) (*domain.CycleSummary, error) {
	goal, err := s.goalRepo.GetByID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if !goal.IsOwnedBy(userID) {
		return nil, domain.ErrUnauthorized
	}
	return s.closePrevious(ctx, goal, s.now())
}

func (s *CycleService) List(ctx context.Context, goalID, userID string) ([]*domain.CycleSummary, error) {
	goal, err := s.goalRepo.GetByID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if !goal.VisibleTo(userID) {
		return nil, domain.ErrUnauthorized
	}

	summaries, err := s.repo.ListByGoalID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []*domain.CycleSummary{}
	}
	return summaries, nil
}

// CloseFinished ends active fixed goals whose window is over and closes the previous
// period of every active recurring goal. It returns how many goals changed.
// Failures on single goals are logged and skipped.
func (s *CycleService) CloseFinished(ctx context.Context, now time.Time) (int, error) {
	goals, err := s.goalRepo.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("cycle service: failed to list active goals: %w", err)
	}

	closed := 0
	for _, g := range goals {
		if ctx.Err() != nil {
			return closed, ctx.Err()
		}

		switch g.Timeframe.Kind {
		case domain.TimeframeFixed:
			if g.Timeframe.EndAt == nil || now.Before(*g.Timeframe.EndAt) {
				continue
			}
			g.End()
			if err := s.goalRepo.Update(ctx, g); err != nil {
				slog.Error("failed to end goal", "goal_id", g.ID, "error", err)
				continue
			}
			closed++

		case domain.TimeframeRecurring:
			_, err := s.closePrevious(ctx, g, now)
			switch {
			case err == nil:
				closed++
			case errors.Is(err, domain.ErrCycleAlreadyClosed), errors.Is(err, domain.ErrNoFinishedCycle):
			default:
				slog.Error("failed to close cycle", "goal_id", g.ID, "error", err)
			}
		}
	}

	return closed, nil
}

func (s *CycleService) closePrevious(ctx context.Context, goal *domain.Goal, now time.Time) (*domain.CycleSummary, error) {
	if goal.Timeframe.Kind != domain.TimeframeRecurring {
		return nil, domain.ErrCycleNotSupported
	}

	cur, err := progress.ResolveWindow(goal, now)
	if err != nil {
		return nil, err
	}
	prev, err := progress.PreviousWindow(goal, cur)
	if err != nil {
		return nil, err
	}
	index, err := progress.PeriodIndex(goal, prev)
	if err != nil {
		return nil, err
	}
	if index < 1 {
		return nil, domain.ErrNoFinishedCycle
	}

	logs, err := s.logRepo.ListByGoalID(ctx, goal.ID, prev.Start, prev.End)
	if err != nil {
		return nil, err
	}

	summary := domain.NewCycleSummary(goal.ID, index, prev.Start, prev.End)
	summary.Total = progress.Aggregate(goal, logs, prev)
	summary.StreakMax = progress.ComputeStreaks(goal, logs, prev.End.Add(-time.Nanosecond)).Longest
	summary.Achieved = cycleAchieved(goal, summary)

	if err := s.repo.Create(ctx, summary); err != nil {
		return nil, err
	}

	slog.Info("cycle closed", "goal_id", goal.ID, "cycle_index", index, "total", summary.Total, "achieved", summary.Achieved)
	return summary, nil
}

// cycleAchieved compares the period against the target: the longest run for streak
// goals and the total for the rest. Open goals never achieve anything.
func cycleAchieved(goal *domain.Goal, c *domain.CycleSummary) bool {
	if goal.Target == nil || goal.Type == domain.GoalTypeOpen {
		return false
	}
	if goal.Type == domain.GoalTypeStreak {
		return float64(c.StreakMax) >= *goal.Target
	}
	return c.Total >= *goal.Target
}
