package repository

import (
	"context"
	"fmt"

	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type SQLCycleRepository struct {
	db *sqlx.DB
}

var _ domain.CycleRepository = (*SQLCycleRepository)(nil)

func NewSQLCycleRepository(db *sqlx.DB) *SQLCycleRepository {
	return &SQLCycleRepository{db: db}
}

func (r *SQLCycleRepository) Create(ctx context.Context, s *domain.CycleSummary) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	query := `
		INSERT INTO cycle_summaries (id, goal_id, cycle_index, start_at, end_at, total, achieved, streak_max, created_at)
		VALUES (:id, :goal_id, :cycle_index, :start_at, :end_at, :total, :achieved, :streak_max, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: cycle %d", domain.ErrCycleAlreadyClosed, s.CycleIndex)
		}
		if isForeignKeyViolation(err) {
			return domain.ErrReferenceMissing
		}
		return fmt.Errorf("failed to insert cycle summary: %w", err)
	}
	return nil
}

func (r *SQLCycleRepository) ListByGoalID(ctx context.Context, goalID string) ([]*domain.CycleSummary, error) {
	query := r.db.Rebind(`
		SELECT id, goal_id, cycle_index, start_at, end_at, total, achieved, streak_max, created_at
		FROM cycle_summaries
		WHERE goal_id = ?
		ORDER BY cycle_index ASC`)

	var out []*domain.CycleSummary
	if err := r.db.SelectContext(ctx, &out, query, goalID); err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	for _, s := range out {
		s.StartAt = s.StartAt.UTC()
		s.EndAt = s.EndAt.UTC()
		s.CreatedAt = s.CreatedAt.UTC()
	}
	return out, nil
}
