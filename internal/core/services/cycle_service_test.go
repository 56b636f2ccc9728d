package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
	"github.com/comitanigiacomo/kanso-goals/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func weeklyGoal(id string) *domain.Goal {
	monday := time.Monday
	return &domain.Goal{
		ID:      id,
		OwnerID: "user-1",
		Name:    "Weekly reading",
		Type:    domain.GoalTypeSum,
		Target:  ptr(10.0),
		Timeframe: domain.Timeframe{
			Kind:       domain.TimeframeRecurring,
			StartAt:    day(2024, 1, 1),
			Recurrence: &domain.Recurrence{Period: domain.PeriodWeekly, WeekStart: &monday},
		},
		Timezone: "UTC",
		Status:   domain.GoalStatusActive,
		Version:  1,
	}
}

func newCycleService(cycles *MockCycleRepo, goals *MockGoalRepo, logs *MockLogRepo, now time.Time) *services.CycleService {
	svc := services.NewCycleService(cycles, goals, logs)
	svc.SetClock(func() time.Time { return now })
	return svc
}

func TestCycleService_Close(t *testing.T) {
	ctx := context.Background()

	t.Run("Success: Freezes the previous week", func(t *testing.T) {
		cycles, goals, logs := new(MockCycleRepo), new(MockGoalRepo), new(MockLogRepo)
		goals.On("GetByID", ctx, "g1").Return(weeklyGoal("g1"), nil)
		logs.On("ListByGoalID", ctx, "g1", day(2024, 1, 1), day(2024, 1, 8)).Return([]*domain.LogEntry{
			logAt("g1", day(2024, 1, 2), 6),
			logAt("g1", day(2024, 1, 3), 5),
		}, nil)
		cycles.On("Create", ctx, mock.MatchedBy(func(c *domain.CycleSummary) bool {
			return c.GoalID == "g1" && c.CycleIndex == 1
		})).Return(nil)

		summary, err := newCycleService(cycles, goals, logs, day(2024, 1, 10)).Close(ctx, "g1", "user-1")

		require.NoError(t, err)
		assert.Equal(t, day(2024, 1, 1), summary.StartAt)
		assert.Equal(t, day(2024, 1, 8), summary.EndAt)
		assert.Equal(t, 11.0, summary.Total)
		assert.True(t, summary.Achieved)
		assert.Equal(t, 2, summary.StreakMax)
		cycles.AssertExpectations(t)
	})

	t.Run("Fail: Nothing finished during the first period", func(t *testing.T) {
		goals := new(MockGoalRepo)
		goals.On("GetByID", ctx, "g1").Return(weeklyGoal("g1"), nil)

		_, err := newCycleService(new(MockCycleRepo), goals, new(MockLogRepo), day(2024, 1, 3)).Close(ctx, "g1", "user-1")
		assert.ErrorIs(t, err, domain.ErrNoFinishedCycle)
	})

	t.Run("Fail: Fixed goals have no cycles", func(t *testing.T) {
		goals := new(MockGoalRepo)
		goals.On("GetByID", ctx, "g1").Return(sumGoal("g1", "user-1"), nil)

		_, err := newCycleService(new(MockCycleRepo), goals, new(MockLogRepo), day(2024, 1, 10)).Close(ctx, "g1", "user-1")
		assert.ErrorIs(t, err, domain.ErrCycleNotSupported)
	})

	t.Run("Security: Only the owner closes cycles", func(t *testing.T) {
		goals := new(MockGoalRepo)
		goals.On("GetByID", ctx, "g1").Return(weeklyGoal("g1"), nil)

		_, err := newCycleService(new(MockCycleRepo), goals, new(MockLogRepo), day(2024, 1, 10)).Close(ctx, "g1", "intruder")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestCycleService_CloseFinished(t *testing.T) {
	ctx := context.Background()
	now := day(2024, 2, 2)

	expired := sumGoal("fixed-done", "user-1")
	running := sumGoal("fixed-running", "user-1")
	later := day(2024, 3, 1)
	running.Timeframe.EndAt = &later
	weekly := weeklyGoal("weekly")
	closedAlready := weeklyGoal("weekly-closed")

	cycles, goals, logs := new(MockCycleRepo), new(MockGoalRepo), new(MockLogRepo)
	goals.On("ListActive", ctx).Return([]*domain.Goal{expired, running, weekly, closedAlready}, nil)
	goals.On("Update", ctx, mock.MatchedBy(func(g *domain.Goal) bool {
		return g.ID == "fixed-done" && g.Status == domain.GoalStatusEnded
	})).Return(nil)
	logs.On("ListByGoalID", ctx, mock.Anything, mock.Anything, mock.Anything).Return([]*domain.LogEntry{}, nil)
	cycles.On("Create", ctx, mock.MatchedBy(func(c *domain.CycleSummary) bool { return c.GoalID == "weekly" })).Return(nil)
	cycles.On("Create", ctx, mock.MatchedBy(func(c *domain.CycleSummary) bool { return c.GoalID == "weekly-closed" })).
		Return(domain.ErrCycleAlreadyClosed)

	closed, err := services.NewCycleService(cycles, goals, logs).CloseFinished(ctx, now)

	require.NoError(t, err)
	assert.Equal(t, 2, closed)
	goals.AssertExpectations(t)
	goals.AssertNumberOfCalls(t, "Update", 1)

	t.Run("Fail: Listing error", func(t *testing.T) {
		goals := new(MockGoalRepo)
		goals.On("ListActive", ctx).Return(nil, errors.New("db down"))

		_, err := services.NewCycleService(new(MockCycleRepo), goals, new(MockLogRepo)).CloseFinished(ctx, now)
		assert.Error(t, err)
	})
}

func TestCycleService_List(t *testing.T) {
	ctx := context.Background()
	goals, cycles := new(MockGoalRepo), new(MockCycleRepo)
	goals.On("GetByID", ctx, "g1").Return(weeklyGoal("g1"), nil)
	cycles.On("ListByGoalID", ctx, "g1").Return(nil, nil)

	list, err := services.NewCycleService(cycles, goals, nil).List(ctx, "g1", "user-1")

	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}
