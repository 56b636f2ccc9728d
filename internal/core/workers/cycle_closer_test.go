package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stubCloser struct {
	calls int
	err   error
}

func (s *stubCloser) CloseFinished(ctx context.Context, now time.Time) (int, error) {
	s.calls++
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("missing deadline")
	}
	return 2, s.err
}

func TestCycleScheduler(t *testing.T) {
	t.Run("Fail: Invalid schedule", func(t *testing.T) {
		s := NewCycleScheduler(&stubCloser{}, "not a schedule")
		assert.Error(t, s.Start())
	})

	t.Run("Success: Start and stop", func(t *testing.T) {
		s := NewCycleScheduler(&stubCloser{}, "@every 1h")
		assert.NoError(t, s.Start())
		s.Stop()
	})

	t.Run("Success: Run passes a bounded context", func(t *testing.T) {
		closer := &stubCloser{}
		s := NewCycleScheduler(closer, "@hourly")
		s.run()
		assert.Equal(t, 1, closer.calls)
	})

	t.Run("Resilience: Run survives closer errors", func(t *testing.T) {
		closer := &stubCloser{err: errors.New("db down")}
		s := NewCycleScheduler(closer, "@hourly")
		assert.NotPanics(t, s.run)
	})
}
