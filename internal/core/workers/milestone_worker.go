package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
	"github.com/comitanigiacomo/kanso-goals/internal/core/progress"
	"github.com/google/uuid"
)

type GoalRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Goal, error)
	UpdateSnapshot(ctx context.Context, id string, snap domain.GoalSnapshot) error
}

type LogRepository interface {
	History(ctx context.Context, goalID string) ([]*domain.LogEntry, error)
}

// Publisher delivers milestone notifications to whoever listens for them.
type Publisher interface {
	PublishMilestone(ctx context.Context, event domain.MilestoneReachedEvent) error
}

type MilestoneJob struct {
	GoalID string
}

// MilestoneWorker recomputes a goal after its logs change, keeps the streak and milestone
// snapshot on the goal row current and announces thresholds crossed for the first time.
type MilestoneWorker struct {
	goalRepo  GoalRepository
	logRepo   LogRepository
	publisher Publisher
	jobs      chan MilestoneJob
	now       func() time.Time
}

func NewMilestoneWorker(gRepo GoalRepository, lRepo LogRepository, publisher Publisher) *MilestoneWorker {
	return &MilestoneWorker{
		goalRepo:  gRepo,
		logRepo:   lRepo,
		publisher: publisher,
		jobs:      make(chan MilestoneJob, 100),
		now:       time.Now,
	}
}

func (w *MilestoneWorker) Start(ctx context.Context) {
	go func() {
		slog.Info("milestone worker started")
		for {
			select {
			case job := <-w.jobs:
				w.processJob(ctx, job)
			case <-ctx.Done():
				slog.Info("milestone worker shutting down")
				return
			}
		}
	}()
}

func (w *MilestoneWorker) Enqueue(goalID string) {
	select {
	case w.jobs <- MilestoneJob{GoalID: goalID}:
	default:
		slog.Warn("milestone worker queue full, dropping job", "goal_id", goalID)
	}
}

func (w *MilestoneWorker) processJob(ctx context.Context, job MilestoneJob) {
	goal, err := w.goalRepo.GetByID(ctx, job.GoalID)
	if err != nil {
		slog.Error("worker failed to fetch goal", "goal_id", job.GoalID, "error", err)
		return
	}

	history, err := w.logRepo.History(ctx, job.GoalID)
	if err != nil {
		slog.Error("worker failed to fetch logs", "goal_id", job.GoalID, "error", err)
		return
	}

	now := w.now().UTC()
	res, err := progress.Calculate(goal, history, now)
	if err != nil {
		slog.Error("worker failed to compute progress", "goal_id", job.GoalID, "error", err)
		return
	}

	period := milestonePeriod(goal, res.Window)
	known := goal.MilestonesReached
	if !domain.SamePeriod(goal.MilestonePeriod, period) {
		known = 0
	}

	if w.publisher != nil {
		w.announce(ctx, goal, res, newlyReached(res.Milestones, known), now)
	}

	snap := domain.GoalSnapshot{
		CurrentStreak:     res.Streak.Current,
		LongestStreak:     res.Streak.Longest,
		MilestonesReached: len(res.Milestones),
		MilestonePeriod:   period,
	}
	if snap.Equal(goal.Snapshot()) {
		return
	}

	if err := w.goalRepo.UpdateSnapshot(ctx, goal.ID, snap); err != nil {
		slog.Error("worker failed to update snapshot", "goal_id", goal.ID, "error", err)
		return
	}
	slog.Info("goal snapshot updated",
		"goal_id", goal.ID,
		"current_streak", snap.CurrentStreak,
		"longest_streak", snap.LongestStreak,
		"milestones_reached", snap.MilestonesReached,
	)
}

func (w *MilestoneWorker) announce(ctx context.Context, goal *domain.Goal, res progress.Result, fresh []progress.Milestone, now time.Time) {
	for _, m := range fresh {
		event := domain.MilestoneReachedEvent{
			EventID:     uuid.NewString(),
			GoalID:      goal.ID,
			OwnerID:     goal.OwnerID,
			GoalName:    goal.Name,
			Label:       m.Label,
			Threshold:   m.Value,
			Accumulated: res.Accumulated,
			CrossedAt:   m.CrossedAt,
			OccurredAt:  now,
		}
		if err := w.publisher.PublishMilestone(ctx, event); err != nil {
			slog.Error("worker failed to publish milestone", "goal_id", goal.ID, "label", m.Label, "error", err)
		}
	}
}

// milestonePeriod identifies the period milestones are counted in. Only recurring goals have one;
// fixed and rolling goals keep a single running count.
func milestonePeriod(goal *domain.Goal, window progress.Window) *time.Time {
	if goal.Timeframe.Kind != domain.TimeframeRecurring {
		return nil
	}
	start := window.Start.UTC()
	return &start
}

// newlyReached returns the milestones beyond the count already announced in the current period.
// Reached milestones are always a prefix of the ascending thresholds.
func newlyReached(reached []progress.Milestone, known int) []progress.Milestone {
	if known < 0 {
		known = 0
	}
	if len(reached) <= known {
		return nil
	}
	return reached[known:]
}
