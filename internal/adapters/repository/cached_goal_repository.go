package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
	"github.com/redis/go-redis/v9"
)

const goalCacheTTL = 30 * time.Minute

var _ domain.GoalRepository = (*CachedGoalRepository)(nil)

// CachedGoalRepository keeps single goals and per-owner goal lists in Redis.
// Filtered and paginated listings always go to the underlying repository.
type CachedGoalRepository struct {
	next  domain.GoalRepository
	cache *redis.Client
}

func NewCachedGoalRepository(next domain.GoalRepository, cache *redis.Client) *CachedGoalRepository {
	return &CachedGoalRepository{
		next:  next,
		cache: cache,
	}
}

func goalKey(id string) string {
	return fmt.Sprintf("goals:%s", id)
}

func ownerKey(ownerID string) string {
	return fmt.Sprintf("goals:owner:%s", ownerID)
}

func (r *CachedGoalRepository) invalidate(ctx context.Context, g *domain.Goal) {
	if err := r.cache.Del(ctx, goalKey(g.ID), ownerKey(g.OwnerID)).Err(); err != nil {
		slog.Warn("[CACHE] failed to invalidate goal", "goal_id", g.ID, "error", err)
	}
}

// load reads key into dst. A miss, a Redis failure or corrupt data all report false.
func (r *CachedGoalRepository) load(ctx context.Context, key string, dst any) bool {
	val, err := r.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("[CACHE] redis read error", "key", key, "error", err)
		}
		return false
	}

	if err := json.Unmarshal(val, dst); err != nil {
		slog.Warn("[CACHE] corrupted entry, cleaning up key", "key", key)
		r.cache.Del(ctx, key)
		return false
	}
	return true
}

func (r *CachedGoalRepository) store(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, data, goalCacheTTL).Err(); err != nil {
		slog.Warn("[CACHE] redis set error", "key", key, "error", err)
	}
}

func (r *CachedGoalRepository) GetByID(ctx context.Context, id string) (*domain.Goal, error) {
	var cached domain.Goal
	if r.load(ctx, goalKey(id), &cached) {
		return &cached, nil
	}

	g, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, goalKey(id), g)
	return g, nil
}

func (r *CachedGoalRepository) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Goal, error) {
	var cached []*domain.Goal
	if r.load(ctx, ownerKey(ownerID), &cached) {
		return cached, nil
	}

	goals, err := r.next.ListByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	r.store(ctx, ownerKey(ownerID), goals)
	return goals, nil
}

func (r *CachedGoalRepository) GetByShareToken(ctx context.Context, token string) (*domain.Goal, error) {
	return r.next.GetByShareToken(ctx, token)
}

func (r *CachedGoalRepository) List(ctx context.Context, filter domain.GoalFilter) ([]*domain.Goal, int, error) {
	return r.next.List(ctx, filter)
}

func (r *CachedGoalRepository) ListActive(ctx context.Context) ([]*domain.Goal, error) {
	return r.next.ListActive(ctx)
}

func (r *CachedGoalRepository) Create(ctx context.Context, goal *domain.Goal) error {
	if err := r.next.Create(ctx, goal); err != nil {
		return err
	}
	r.invalidate(ctx, goal)
	return nil
}

func (r *CachedGoalRepository) Update(ctx context.Context, goal *domain.Goal) error {
	if err := r.next.Update(ctx, goal); err != nil {
		if errors.Is(err, domain.ErrGoalConflict) {
			r.invalidate(ctx, goal)
		}
		return err
	}
	r.invalidate(ctx, goal)
	return nil
}

func (r *CachedGoalRepository) Delete(ctx context.Context, id string) error {
	goal, err := r.next.GetByID(ctx, id)
	if err == nil && goal != nil {
		defer r.invalidate(ctx, goal)
	}

	return r.next.Delete(ctx, id)
}

func (r *CachedGoalRepository) UpdateSnapshot(ctx context.Context, id string, snap domain.GoalSnapshot) error {
	goal, err := r.next.GetByID(ctx, id)
	if err == nil && goal != nil {
		defer r.invalidate(ctx, goal)
	}

	return r.next.UpdateSnapshot(ctx, id, snap)
}
