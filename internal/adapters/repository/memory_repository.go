package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
	"github.com/google/uuid"
)

// InMemoryStore keeps every aggregate in maps guarded by one lock, so cascades and
// reference checks behave like the SQL schema. Values are copied on the way in and out.
type InMemoryStore struct {
	mu     sync.RWMutex
	users  map[string]*domain.User
	goals  map[string]*domain.Goal
	logs   map[string]*domain.LogEntry
	cycles map[string]*domain.CycleSummary
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:  make(map[string]*domain.User),
		goals:  make(map[string]*domain.Goal),
		logs:   make(map[string]*domain.LogEntry),
		cycles: make(map[string]*domain.CycleSummary),
	}
}

func (s *InMemoryStore) Goals() *InMemoryGoalRepository   { return &InMemoryGoalRepository{s: s} }
func (s *InMemoryStore) Logs() *InMemoryLogRepository     { return &InMemoryLogRepository{s: s} }
func (s *InMemoryStore) Users() *InMemoryUserRepository   { return &InMemoryUserRepository{s: s} }
func (s *InMemoryStore) Cycles() *InMemoryCycleRepository { return &InMemoryCycleRepository{s: s} }

type InMemoryGoalRepository struct{ s *InMemoryStore }

var _ domain.GoalRepository = (*InMemoryGoalRepository)(nil)

func (r *InMemoryGoalRepository) Create(ctx context.Context, goal *domain.Goal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[goal.OwnerID]; !ok {
		return domain.ErrReferenceMissing
	}
	if _, ok := r.s.goals[goal.ID]; ok {
		return domain.ErrGoalConflict
	}

	goal.Version = 1
	r.s.goals[goal.ID] = cloneGoal(goal)
	return nil
}

func (r *InMemoryGoalRepository) GetByID(ctx context.Context, id string) (*domain.Goal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	g, ok := r.s.goals[id]
	if !ok {
		return nil, domain.ErrGoalNotFound
	}
	return cloneGoal(g), nil
}

func (r *InMemoryGoalRepository) GetByShareToken(ctx context.Context, token string) (*domain.Goal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, g := range r.s.goals {
		if g.ShareToken != nil && *g.ShareToken == token {
			return cloneGoal(g), nil
		}
	}
	return nil, domain.ErrGoalNotFound
}

func (r *InMemoryGoalRepository) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Goal, error) {
	goals, _, err := r.List(ctx, domain.GoalFilter{OwnerID: ownerID})
	return goals, err
}

func (r *InMemoryGoalRepository) ListActive(ctx context.Context) ([]*domain.Goal, error) {
	goals, _, err := r.List(ctx, domain.GoalFilter{Status: domain.GoalStatusActive})
	return goals, err
}

func (r *InMemoryGoalRepository) List(ctx context.Context, f domain.GoalFilter) ([]*domain.Goal, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	query := strings.ToLower(strings.TrimSpace(f.Query))

	var matched []*domain.Goal
	for _, g := range r.s.goals {
		if f.OwnerID != "" && g.OwnerID != f.OwnerID {
			continue
		}
		if f.PublicOnly && g.Privacy != domain.PrivacyPublic {
			continue
		}
		if !f.PublicOnly && f.Privacy != "" && g.Privacy != f.Privacy {
			continue
		}
		if f.Status != "" && g.Status != f.Status {
			continue
		}
		if f.Type != "" && g.Type != f.Type {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(g.Name), query) &&
			!strings.Contains(strings.ToLower(g.Description), query) {
			continue
		}
		matched = append(matched, g)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	matched = paginate(matched, f.Limit, f.Offset)

	out := make([]*domain.Goal, 0, len(matched))
	for _, g := range matched {
		out = append(out, cloneGoal(g))
	}
	return out, total, nil
}

func (r *InMemoryGoalRepository) Update(ctx context.Context, goal *domain.Goal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.goals[goal.ID]
	if !ok {
		return domain.ErrGoalNotFound
	}
	if stored.Version != goal.Version {
		return domain.ErrGoalConflict
	}
	if goal.ShareToken != nil {
		for id, g := range r.s.goals {
			if id != goal.ID && g.ShareToken != nil && *g.ShareToken == *goal.ShareToken {
				return fmt.Errorf("%w: share token already taken", domain.ErrGoalConflict)
			}
		}
	}

	goal.Version++
	goal.UpdatedAt = time.Now().UTC()

	next := cloneGoal(goal)
	next.ApplySnapshot(stored.Snapshot())
	r.s.goals[goal.ID] = next
	return nil
}

func (r *InMemoryGoalRepository) UpdateSnapshot(ctx context.Context, id string, snap domain.GoalSnapshot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	g, ok := r.s.goals[id]
	if !ok {
		return domain.ErrGoalNotFound
	}
	g.ApplySnapshot(snap)
	r.s.goals[id] = cloneGoal(g)
	return nil
}

func (r *InMemoryGoalRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.goals[id]; !ok {
		return domain.ErrGoalNotFound
	}

	delete(r.s.goals, id)
	for lid, l := range r.s.logs {
		if l.GoalID == id {
			delete(r.s.logs, lid)
		}
	}
	for cid, c := range r.s.cycles {
		if c.GoalID == id {
			delete(r.s.cycles, cid)
		}
	}
	return nil
}

type InMemoryLogRepository struct{ s *InMemoryStore }

var _ domain.LogRepository = (*InMemoryLogRepository)(nil)

func (r *InMemoryLogRepository) Create(ctx context.Context, entry *domain.LogEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.goals[entry.GoalID]; !ok {
		return domain.ErrReferenceMissing
	}
	if _, ok := r.s.users[entry.UserID]; !ok {
		return domain.ErrReferenceMissing
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if _, ok := r.s.logs[entry.ID]; ok {
		return domain.ErrLogConflict
	}

	entry.Version = 1
	entry.Date = entry.Date.UTC()
	copied := *entry
	r.s.logs[entry.ID] = &copied
	return nil
}

func (r *InMemoryLogRepository) Update(ctx context.Context, entry *domain.LogEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.logs[entry.ID]
	if !ok {
		return domain.ErrLogNotFound
	}
	if stored.Version != entry.Version {
		return domain.ErrLogConflict
	}

	entry.Version++
	entry.UpdatedAt = time.Now().UTC()
	copied := *entry
	r.s.logs[entry.ID] = &copied
	return nil
}

func (r *InMemoryLogRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.logs[id]; !ok {
		return domain.ErrLogNotFound
	}
	delete(r.s.logs, id)
	return nil
}

func (r *InMemoryLogRepository) GetByID(ctx context.Context, id string) (*domain.LogEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	l, ok := r.s.logs[id]
	if !ok {
		return nil, domain.ErrLogNotFound
	}
	copied := *l
	return &copied, nil
}

func (r *InMemoryLogRepository) ListByGoalID(ctx context.Context, goalID string, from, to time.Time) ([]*domain.LogEntry, error) {
	return r.filter(func(l *domain.LogEntry) bool {
		return l.GoalID == goalID && !l.Date.Before(from) && l.Date.Before(to)
	}, true), nil
}

func (r *InMemoryLogRepository) History(ctx context.Context, goalID string) ([]*domain.LogEntry, error) {
	return r.filter(func(l *domain.LogEntry) bool { return l.GoalID == goalID }, true), nil
}

func (r *InMemoryLogRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.LogEntry, error) {
	return r.filter(func(l *domain.LogEntry) bool { return l.UserID == userID }, true), nil
}

func (r *InMemoryLogRepository) Search(ctx context.Context, q domain.LogQuery) ([]*domain.LogEntry, int, error) {
	if q.GoalID == "" && q.UserID == "" {
		return nil, 0, errors.Join(domain.ErrInvalidLog, errors.New("goal_id or user_id is required"))
	}

	logs := r.filter(func(l *domain.LogEntry) bool {
		if q.GoalID != "" && l.GoalID != q.GoalID {
			return false
		}
		if q.UserID != "" && l.UserID != q.UserID {
			return false
		}
		if q.From != nil && l.Date.Before(*q.From) {
			return false
		}
		if q.To != nil && !l.Date.Before(*q.To) {
			return false
		}
		return true
	}, q.Ascending)

	total := len(logs)
	return paginate(logs, q.Limit, q.Offset), total, nil
}

func (r *InMemoryLogRepository) filter(keep func(*domain.LogEntry) bool, ascending bool) []*domain.LogEntry {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*domain.LogEntry
	for _, l := range r.s.logs {
		if keep(l) {
			copied := *l
			out = append(out, &copied)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !ascending {
			a, b = b, a
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out
}

type InMemoryUserRepository struct{ s *InMemoryStore }

var _ domain.UserRepository = (*InMemoryUserRepository)(nil)

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	copied := *user
	r.s.users[user.ID] = &copied
	return nil
}

func (r *InMemoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *InMemoryUserRepository) Update(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	copied := *user
	r.s.users[user.ID] = &copied
	return nil
}

type InMemoryCycleRepository struct{ s *InMemoryStore }

var _ domain.CycleRepository = (*InMemoryCycleRepository)(nil)

func (r *InMemoryCycleRepository) Create(ctx context.Context, summary *domain.CycleSummary) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.goals[summary.GoalID]; !ok {
		return domain.ErrReferenceMissing
	}
	for _, c := range r.s.cycles {
		if c.GoalID == summary.GoalID && c.CycleIndex == summary.CycleIndex {
			return fmt.Errorf("%w: cycle %d", domain.ErrCycleAlreadyClosed, summary.CycleIndex)
		}
	}
	if summary.ID == "" {
		summary.ID = uuid.NewString()
	}
	copied := *summary
	r.s.cycles[summary.ID] = &copied
	return nil
}

func (r *InMemoryCycleRepository) ListByGoalID(ctx context.Context, goalID string) ([]*domain.CycleSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*domain.CycleSummary
	for _, c := range r.s.cycles {
		if c.GoalID == goalID {
			copied := *c
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CycleIndex < out[j].CycleIndex })
	return out, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func cloneGoal(g *domain.Goal) *domain.Goal {
	c := *g
	if g.Target != nil {
		t := *g.Target
		c.Target = &t
	}
	if g.Timeframe.EndAt != nil {
		e := *g.Timeframe.EndAt
		c.Timeframe.EndAt = &e
	}
	if g.Timeframe.Recurrence != nil {
		rec := *g.Timeframe.Recurrence
		if rec.WeekStart != nil {
			ws := *rec.WeekStart
			rec.WeekStart = &ws
		}
		c.Timeframe.Recurrence = &rec
	}
	if g.ShareToken != nil {
		tok := *g.ShareToken
		c.ShareToken = &tok
	}
	if g.Milestones != nil {
		c.Milestones = append([]domain.MilestoneThreshold(nil), g.Milestones...)
	}
	if g.MilestonePeriod != nil {
		p := *g.MilestonePeriod
		c.MilestonePeriod = &p
	}
	return &c
}
