package progress_test

import (
	"testing"

	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
	"github.com/comitanigiacomo/kanso-goals/internal/core/progress"
	"github.com/stretchr/testify/assert"
)

func TestAggregate(t *testing.T) {
	w := progress.Window{Start: date(2024, 1, 1), End: date(2024, 1, 8)}

	logs := []*domain.LogEntry{
		entry(at(2024, 1, 1, 8, 0), 3),
		entry(at(2024, 1, 2, 9, 0), 5),
	}

	tests := []struct {
		name string
		gt   domain.GoalType
		logs []*domain.LogEntry
		want float64
	}{
		{"Sum adds values", domain.GoalTypeSum, logs, 8},
		{"Milestone adds values", domain.GoalTypeMilestone, logs, 8},
		{"Open adds values", domain.GoalTypeOpen, logs, 8},
		{"Count counts entries", domain.GoalTypeCount, logs, 2},
		{
			"Count ignores values",
			domain.GoalTypeCount,
			[]*domain.LogEntry{entry(date(2024, 1, 3), 0), entry(date(2024, 1, 3), 10), entry(date(2024, 1, 4), 2.5)},
			3,
		},
		{
			"Streak counts distinct hit days",
			domain.GoalTypeStreak,
			[]*domain.LogEntry{
				entry(at(2024, 1, 3, 7, 0), 1),
				entry(at(2024, 1, 3, 21, 0), 1),
				entry(at(2024, 1, 4, 7, 0), 0),
				entry(at(2024, 1, 5, 7, 0), 1),
			},
			2,
		},
		{"Empty", domain.GoalTypeSum, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			goal := &domain.Goal{Type: tt.gt}
			assert.Equal(t, tt.want, progress.Aggregate(goal, tt.logs, w))
		})
	}
}

func TestAggregate_Boundaries(t *testing.T) {
	w := progress.Window{Start: date(2024, 1, 1), End: date(2024, 1, 8)}
	goal := &domain.Goal{Type: domain.GoalTypeSum}

	logs := []*domain.LogEntry{
		entry(date(2023, 12, 31), 100),
		entry(date(2024, 1, 1), 1),
		entry(at(2024, 1, 7, 23, 59), 2),
		entry(date(2024, 1, 8), 1000),
	}

	assert.Equal(t, 3.0, progress.Aggregate(goal, logs, w), "start is inclusive and end is exclusive")

	next := progress.Window{Start: date(2024, 1, 8), End: date(2024, 1, 15)}
	assert.Equal(t, 1000.0, progress.Aggregate(goal, logs, next), "a log on the boundary belongs to the window starting there")
}

func TestAggregate_StreakUsesGoalTimezone(t *testing.T) {
	w := progress.Window{Start: date(2024, 1, 1), End: date(2024, 1, 8)}
	logs := []*domain.LogEntry{
		entry(at(2024, 1, 2, 23, 30), 1),
		entry(at(2024, 1, 3, 10, 0), 1),
	}

	utc := &domain.Goal{Type: domain.GoalTypeStreak}
	rome := &domain.Goal{Type: domain.GoalTypeStreak, Timezone: "Europe/Rome"}

	assert.Equal(t, 2.0, progress.Aggregate(utc, logs, w))
	assert.Equal(t, 1.0, progress.Aggregate(rome, logs, w), "both logs fall on January 3 in Rome")
}
