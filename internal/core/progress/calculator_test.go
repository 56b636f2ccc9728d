package progress_test

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
	"github.com/comitanigiacomo/kanso-goals/internal/core/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate_SumGoal(t *testing.T) {
	goal := fixedGoal(domain.GoalTypeSum, ptr(20.0), date(2024, 1, 1), date(2024, 1, 11))
	goal.Milestones = []domain.MilestoneThreshold{percent("quarter", 25), percent("half", 50), percent("three quarters", 75)}

	logs := []*domain.LogEntry{
		entry(at(2024, 1, 1, 9, 0), 3),
		entry(at(2024, 1, 2, 9, 0), 5),
		entry(at(2024, 1, 3, 9, 0), 4),
	}

	res, err := progress.Calculate(goal, logs, date(2024, 1, 5))
	require.NoError(t, err)

	assert.Equal(t, "g1", res.GoalID)
	assert.Equal(t, 12.0, res.Accumulated)
	assert.InDelta(t, 60, res.Progress.Display.Or(-1), 1e-9)
	assert.InDelta(t, 8.0/6, res.Pace.Required.Or(-1), 1e-9)
	assert.InDelta(t, 3, res.Pace.Actual.Or(-1), 1e-9)
	assert.Equal(t, 3, res.Streak.Longest)
	assert.Equal(t, 0, res.Streak.Current, "January 4 was missed")
	assert.Len(t, res.Milestones, 2)
	require.NotNil(t, res.NextMilestone)
	assert.Equal(t, 15.0, res.NextMilestone.Value)
	assert.False(t, res.Achieved)
	assert.Equal(t, progress.PositionActive, res.Window.Position)
}

func TestCalculate_StreakGoalMeasuresCurrentStreak(t *testing.T) {
	goal := streakGoal(domain.TodayOpen, 0)
	goal.Target = ptr(3.0)

	res, err := progress.Calculate(goal, hits(1, 2, 3), at(2024, 1, 3, 20, 0))
	require.NoError(t, err)

	assert.Equal(t, 3, res.Streak.Current)
	assert.Equal(t, 3.0, res.Accumulated)
	assert.Equal(t, 100.0, res.Progress.Display.Or(-1))
	assert.True(t, res.Achieved)
}

func TestCalculate_StreakMilestonesDatedByCurrentRun(t *testing.T) {
	goal := streakGoal(domain.TodayOpen, 0)
	goal.Milestones = []domain.MilestoneThreshold{absolute("one", 1), absolute("two", 2)}

	t.Run("Earlier run does not date the milestone", func(t *testing.T) {
		res, err := progress.Calculate(goal, hits(1, 2, 10), at(2024, 1, 10, 20, 0))
		require.NoError(t, err)

		require.Equal(t, 1, res.Streak.Current)
		require.Len(t, res.Milestones, 1)
		require.NotNil(t, res.Milestones[0].CrossedAt)
		assert.Equal(t, date(2024, 1, 10), *res.Milestones[0].CrossedAt)
	})

	t.Run("Each length dated inside the run", func(t *testing.T) {
		res, err := progress.Calculate(goal, hits(1, 8, 9, 10), at(2024, 1, 10, 20, 0))
		require.NoError(t, err)

		require.Equal(t, 3, res.Streak.Current)
		require.Len(t, res.Milestones, 2)
		assert.Equal(t, date(2024, 1, 8), *res.Milestones[0].CrossedAt)
		assert.Equal(t, date(2024, 1, 9), *res.Milestones[1].CrossedAt)
	})
}

func TestCalculate_OpenGoal(t *testing.T) {
	goal := fixedGoal(domain.GoalTypeOpen, nil, date(2024, 1, 1), date(2024, 2, 1))

	res, err := progress.Calculate(goal, []*domain.LogEntry{entry(date(2024, 1, 2), 7)}, date(2024, 1, 10))
	require.NoError(t, err)

	assert.Equal(t, 7.0, res.Accumulated)
	assert.False(t, res.Progress.Ratio.Applicable())
	assert.False(t, res.Pace.Required.Applicable())

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	prog := raw["progress"].(map[string]any)
	assert.Nil(t, prog["percent"])
	assert.Contains(t, prog, "percent")
}

func TestCalculate_InvalidTimeframe(t *testing.T) {
	goal := &domain.Goal{Type: domain.GoalTypeSum, Target: ptr(1.0), Timeframe: domain.Timeframe{Kind: "yearly"}}

	_, err := progress.Calculate(goal, nil, date(2024, 1, 1))
	assert.ErrorIs(t, err, domain.ErrInvalidTimeframe)
}

func TestCalculate_Idempotent(t *testing.T) {
	monday := domain.Recurrence{Period: domain.PeriodWeekly}
	wd := date(2024, 1, 1).Weekday()
	monday.WeekStart = &wd

	goal := recurringGoal(monday, date(2024, 1, 1))
	goal.Milestones = []domain.MilestoneThreshold{percent("half", 50), absolute("two", 2)}
	goal.Streak = domain.StreakPolicy{Today: domain.TodayOpen, GraceDays: 1}

	logs := []*domain.LogEntry{
		entry(date(2024, 1, 9), 2),
		entry(date(2024, 1, 8), 1),
		entry(date(2024, 1, 11), 4),
	}
	snapshot := make([]domain.LogEntry, len(logs))
	for i, l := range logs {
		snapshot[i] = *l
	}

	ref := at(2024, 1, 11, 15, 0)
	first, err := progress.Calculate(goal, logs, ref)
	require.NoError(t, err)
	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := progress.Calculate(goal, logs, ref)
			assert.NoError(t, err)
			data, _ := json.Marshal(res)
			assert.Equal(t, string(firstJSON), string(data))
		}()
	}
	wg.Wait()

	for i, l := range logs {
		assert.Equal(t, snapshot[i], *l, "input logs must not be modified")
	}
}
