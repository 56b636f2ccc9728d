package domain_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestNewLogEntry(t *testing.T) {
	t.Run("Success: Normalizes date to UTC", func(t *testing.T) {
		rome, _ := time.LoadLocation("Europe/Rome")
		date := time.Date(2024, 3, 10, 9, 0, 0, 0, rome)

		e := domain.NewLogEntry("g1", "u1", date, 2.5)

		assert.Equal(t, time.UTC, e.Date.Location())
		assert.True(t, e.Date.Equal(date))
		assert.Equal(t, 1, e.Version)
		assert.NoError(t, e.Validate())
	})

	t.Run("Success: Zero date defaults to now", func(t *testing.T) {
		e := domain.NewLogEntry("g1", "u1", time.Time{}, 1)
		assert.WithinDuration(t, time.Now().UTC(), e.Date, 2*time.Second)
	})
}

func TestLogEntry_Validate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		entry   domain.LogEntry
		wantErr error
	}{
		{"Valid", domain.LogEntry{GoalID: "g", UserID: "u", Date: now, Value: 0}, nil},
		{"Missing goal", domain.LogEntry{UserID: "u", Date: now}, domain.ErrInvalidLog},
		{"Missing user", domain.LogEntry{GoalID: "g", Date: now}, domain.ErrInvalidLog},
		{"Negative value", domain.LogEntry{GoalID: "g", UserID: "u", Date: now, Value: -1}, domain.ErrNegativeLog},
		{"Missing date", domain.LogEntry{GoalID: "g", UserID: "u"}, domain.ErrLogDateEmpty},
		{"Note too long", domain.LogEntry{GoalID: "g", UserID: "u", Date: now, Note: strings.Repeat("n", domain.MaxNoteLen+1)}, domain.ErrNoteTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestLogEntry_Hit(t *testing.T) {
	assert.True(t, (&domain.LogEntry{Value: 0.5}).Hit())
	assert.False(t, (&domain.LogEntry{Value: 0}).Hit())
}
