package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

func ptr[T any](v T) *T {
	return &v
}

type MockGoalRepo struct {
	mock.Mock
}

var _ domain.GoalRepository = (*MockGoalRepo)(nil)

func (m *MockGoalRepo) Create(ctx context.Context, g *domain.Goal) error {
	return m.Called(ctx, g).Error(0)
}

func (m *MockGoalRepo) GetByID(ctx context.Context, id string) (*domain.Goal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Goal), args.Error(1)
}

func (m *MockGoalRepo) GetByShareToken(ctx context.Context, token string) (*domain.Goal, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Goal), args.Error(1)
}

func (m *MockGoalRepo) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Goal, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Goal), args.Error(1)
}

func (m *MockGoalRepo) List(ctx context.Context, f domain.GoalFilter) ([]*domain.Goal, int, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*domain.Goal), args.Int(1), args.Error(2)
}

func (m *MockGoalRepo) ListActive(ctx context.Context) ([]*domain.Goal, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Goal), args.Error(1)
}

func (m *MockGoalRepo) Update(ctx context.Context, g *domain.Goal) error {
	return m.Called(ctx, g).Error(0)
}

func (m *MockGoalRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockGoalRepo) UpdateSnapshot(ctx context.Context, id string, snap domain.GoalSnapshot) error {
	return m.Called(ctx, id, snap).Error(0)
}

type MockLogRepo struct {
	mock.Mock
}

var _ domain.LogRepository = (*MockLogRepo)(nil)

func (m *MockLogRepo) Create(ctx context.Context, e *domain.LogEntry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockLogRepo) Update(ctx context.Context, e *domain.LogEntry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockLogRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockLogRepo) GetByID(ctx context.Context, id string) (*domain.LogEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LogEntry), args.Error(1)
}

func (m *MockLogRepo) ListByGoalID(ctx context.Context, goalID string, from, to time.Time) ([]*domain.LogEntry, error) {
	args := m.Called(ctx, goalID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LogEntry), args.Error(1)
}

func (m *MockLogRepo) History(ctx context.Context, goalID string) ([]*domain.LogEntry, error) {
	args := m.Called(ctx, goalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LogEntry), args.Error(1)
}

func (m *MockLogRepo) Search(ctx context.Context, q domain.LogQuery) ([]*domain.LogEntry, int, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*domain.LogEntry), args.Int(1), args.Error(2)
}

func (m *MockLogRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.LogEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LogEntry), args.Error(1)
}

type MockCycleRepo struct {
	mock.Mock
}

var _ domain.CycleRepository = (*MockCycleRepo)(nil)

func (m *MockCycleRepo) Create(ctx context.Context, c *domain.CycleSummary) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCycleRepo) ListByGoalID(ctx context.Context, goalID string) ([]*domain.CycleSummary, error) {
	args := m.Called(ctx, goalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CycleSummary), args.Error(1)
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []string
}

func (q *recordingQueue) Enqueue(goalID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, goalID)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sumGoal(id, owner string) *domain.Goal {
	end := day(2024, 2, 1)
	return &domain.Goal{
		ID:      id,
		OwnerID: owner,
		Name:    "Read",
		Type:    domain.GoalTypeSum,
		Target:  ptr(100.0),
		Timeframe: domain.Timeframe{
			Kind:    domain.TimeframeFixed,
			StartAt: day(2024, 1, 1),
			EndAt:   &end,
		},
		Timezone: "UTC",
		Privacy:  domain.PrivacyPrivate,
		Status:   domain.GoalStatusActive,
		Version:  1,
	}
}

func logAt(goalID string, t time.Time, v float64) *domain.LogEntry {
	return &domain.LogEntry{ID: "log-" + t.Format("0102"), GoalID: goalID, UserID: "user-1", Date: t, Value: v, Version: 1}
}
