package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// CycleCloser is implemented by the service that freezes finished periods into summaries.
type CycleCloser interface {
	CloseFinished(ctx context.Context, now time.Time) (int, error)
}

// CycleScheduler runs CloseFinished on a cron schedule.
type CycleScheduler struct {
	cron     *cron.Cron
	closer   CycleCloser
	schedule string
	timeout  time.Duration
}

func NewCycleScheduler(closer CycleCloser, schedule string) *CycleScheduler {
	return &CycleScheduler{
		cron:     cron.New(),
		closer:   closer,
		schedule: schedule,
		timeout:  5 * time.Minute,
	}
}

func (s *CycleScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.run); err != nil {
		return fmt.Errorf("invalid cycle close schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	slog.Info("cycle scheduler started", "schedule", s.schedule)
	return nil
}

func (s *CycleScheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("cycle scheduler stopped")
}

func (s *CycleScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	closed, err := s.closer.CloseFinished(ctx, start.UTC())
	if err != nil {
		slog.Error("closing finished cycles failed", "error", err)
		return
	}

	slog.Info("finished cycles closed", "closed", closed, "duration_ms", time.Since(start).Milliseconds())
}
