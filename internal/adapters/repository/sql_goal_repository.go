package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
	"github.com/jmoiron/sqlx"
)

// SQLGoalRepository stores goals in Postgres or SQLite. Queries use ? placeholders
// and are rebound to the driver's bind style by sqlx.
type SQLGoalRepository struct {
	db *sqlx.DB
}

var _ domain.GoalRepository = (*SQLGoalRepository)(nil)

func NewSQLGoalRepository(db *sqlx.DB) *SQLGoalRepository {
	return &SQLGoalRepository{db: db}
}

const goalColumns = `id, owner_id, name, description, emoji, goal_type, unit, target,
	timeframe_kind, start_at, end_at, rolling_days, recurrence, timezone,
	streak_today, grace_days, milestones, privacy, status, share_token,
	current_streak, longest_streak, milestones_reached, milestone_period, version, created_at, updated_at`

// goalRow is the flattened storage shape of a goal; recurrence and milestones are JSON text.
type goalRow struct {
	ID                string          `db:"id"`
	OwnerID           string          `db:"owner_id"`
	Name              string          `db:"name"`
	Description       string          `db:"description"`
	Emoji             string          `db:"emoji"`
	Type              string          `db:"goal_type"`
	Unit              string          `db:"unit"`
	Target            sql.NullFloat64 `db:"target"`
	TimeframeKind     string          `db:"timeframe_kind"`
	StartAt           time.Time       `db:"start_at"`
	EndAt             sql.NullTime    `db:"end_at"`
	RollingDays       int             `db:"rolling_days"`
	Recurrence        sql.NullString  `db:"recurrence"`
	Timezone          string          `db:"timezone"`
	StreakToday       string          `db:"streak_today"`
	GraceDays         int             `db:"grace_days"`
	Milestones        string          `db:"milestones"`
	Privacy           string          `db:"privacy"`
	Status            string          `db:"status"`
	ShareToken        sql.NullString  `db:"share_token"`
	CurrentStreak     int             `db:"current_streak"`
	LongestStreak     int             `db:"longest_streak"`
	MilestonesReached int             `db:"milestones_reached"`
	MilestonePeriod   sql.NullTime    `db:"milestone_period"`
	Version           int             `db:"version"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"`
}

func newGoalRow(g *domain.Goal) (*goalRow, error) {
	milestones := g.Milestones
	if milestones == nil {
		milestones = []domain.MilestoneThreshold{}
	}
	msJSON, err := json.Marshal(milestones)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal milestones: %w", err)
	}

	row := &goalRow{
		ID:                g.ID,
		OwnerID:           g.OwnerID,
		Name:              g.Name,
		Description:       g.Description,
		Emoji:             g.Emoji,
		Type:              string(g.Type),
		Unit:              g.Unit,
		TimeframeKind:     string(g.Timeframe.Kind),
		StartAt:           g.Timeframe.StartAt.UTC(),
		RollingDays:       g.Timeframe.RollingDays,
		Timezone:          g.Timezone,
		StreakToday:       string(g.Streak.Today),
		GraceDays:         g.Streak.GraceDays,
		Milestones:        string(msJSON),
		Privacy:           string(g.Privacy),
		Status:            string(g.Status),
		CurrentStreak:     g.CurrentStreak,
		LongestStreak:     g.LongestStreak,
		MilestonesReached: g.MilestonesReached,
		Version:           g.Version,
		CreatedAt:         g.CreatedAt.UTC(),
		UpdatedAt:         g.UpdatedAt.UTC(),
	}

	if g.Target != nil {
		row.Target = sql.NullFloat64{Float64: *g.Target, Valid: true}
	}
	if g.Timeframe.EndAt != nil {
		row.EndAt = sql.NullTime{Time: g.Timeframe.EndAt.UTC(), Valid: true}
	}
	if g.Timeframe.Recurrence != nil {
		recJSON, err := json.Marshal(g.Timeframe.Recurrence)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal recurrence: %w", err)
		}
		row.Recurrence = sql.NullString{String: string(recJSON), Valid: true}
	}
	if g.ShareToken != nil {
		row.ShareToken = sql.NullString{String: *g.ShareToken, Valid: true}
	}
	row.MilestonePeriod = nullPeriod(g.MilestonePeriod)

	return row, nil
}

func (r *goalRow) toDomain() (*domain.Goal, error) {
	g := &domain.Goal{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Name:        r.Name,
		Description: r.Description,
		Emoji:       r.Emoji,
		Type:        domain.GoalType(r.Type),
		Unit:        r.Unit,
		Timeframe: domain.Timeframe{
			Kind:        domain.TimeframeKind(r.TimeframeKind),
			StartAt:     r.StartAt.UTC(),
			RollingDays: r.RollingDays,
		},
		Timezone:          r.Timezone,
		Streak:            domain.StreakPolicy{Today: domain.TodayPolicy(r.StreakToday), GraceDays: r.GraceDays},
		Privacy:           domain.Privacy(r.Privacy),
		Status:            domain.GoalStatus(r.Status),
		CurrentStreak:     r.CurrentStreak,
		LongestStreak:     r.LongestStreak,
		MilestonesReached: r.MilestonesReached,
		Version:           r.Version,
		CreatedAt:         r.CreatedAt.UTC(),
		UpdatedAt:         r.UpdatedAt.UTC(),
	}

	if r.Target.Valid {
		target := r.Target.Float64
		g.Target = &target
	}
	if r.EndAt.Valid {
		end := r.EndAt.Time.UTC()
		g.Timeframe.EndAt = &end
	}
	if r.Recurrence.Valid && r.Recurrence.String != "" {
		var rec domain.Recurrence
		if err := json.Unmarshal([]byte(r.Recurrence.String), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recurrence: %w", err)
		}
		g.Timeframe.Recurrence = &rec
	}
	if r.Milestones != "" {
		if err := json.Unmarshal([]byte(r.Milestones), &g.Milestones); err != nil {
			return nil, fmt.Errorf("failed to unmarshal milestones: %w", err)
		}
		if len(g.Milestones) == 0 {
			g.Milestones = nil
		}
	}
	if r.ShareToken.Valid {
		token := r.ShareToken.String
		g.ShareToken = &token
	}
	if r.MilestonePeriod.Valid {
		period := r.MilestonePeriod.Time.UTC()
		g.MilestonePeriod = &period
	}

	return g, nil
}

func nullPeriod(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func toGoals(rows []goalRow) ([]*domain.Goal, error) {
	goals := make([]*domain.Goal, 0, len(rows))
	for i := range rows {
		g, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, nil
}

func (r *SQLGoalRepository) Create(ctx context.Context, g *domain.Goal) error {
	row, err := newGoalRow(g)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO goals (` + goalColumns + `)
        VALUES (
            :id, :owner_id, :name, :description, :emoji, :goal_type, :unit, :target,
            :timeframe_kind, :start_at, :end_at, :rolling_days, :recurrence, :timezone,
            :streak_today, :grace_days, :milestones, :privacy, :status, :share_token,
            :current_streak, :longest_streak, :milestones_reached, :milestone_period, 1, :created_at, :updated_at
        )`

	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrReferenceMissing
		}
		if isUniqueViolation(err) {
			return domain.ErrGoalConflict
		}
		return fmt.Errorf("failed to insert goal: %w", err)
	}

	g.Version = 1
	return nil
}

func (r *SQLGoalRepository) get(ctx context.Context, where string, arg any) (*domain.Goal, error) {
	query := r.db.Rebind(`SELECT ` + goalColumns + ` FROM goals WHERE ` + where)

	var row goalRow
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrGoalNotFound
		}
		return nil, fmt.Errorf("database scan error: %w", err)
	}

	return row.toDomain()
}

func (r *SQLGoalRepository) GetByID(ctx context.Context, id string) (*domain.Goal, error) {
	return r.get(ctx, "id = ?", id)
}

func (r *SQLGoalRepository) GetByShareToken(ctx context.Context, token string) (*domain.Goal, error) {
	return r.get(ctx, "share_token = ?", token)
}

func (r *SQLGoalRepository) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Goal, error) {
	query := r.db.Rebind(`SELECT ` + goalColumns + ` FROM goals WHERE owner_id = ? ORDER BY created_at DESC, id`)

	var rows []goalRow
	if err := r.db.SelectContext(ctx, &rows, query, ownerID); err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	return toGoals(rows)
}

func (r *SQLGoalRepository) ListActive(ctx context.Context) ([]*domain.Goal, error) {
	query := r.db.Rebind(`SELECT ` + goalColumns + ` FROM goals WHERE status = ? ORDER BY created_at, id`)

	var rows []goalRow
	if err := r.db.SelectContext(ctx, &rows, query, string(domain.GoalStatusActive)); err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	return toGoals(rows)
}

func (r *SQLGoalRepository) List(ctx context.Context, f domain.GoalFilter) ([]*domain.Goal, int, error) {
	var conds []string
	var args []any

	if f.OwnerID != "" {
		conds = append(conds, "owner_id = ?")
		args = append(args, f.OwnerID)
	}
	if f.PublicOnly {
		conds = append(conds, "privacy = ?")
		args = append(args, string(domain.PrivacyPublic))
	} else if f.Privacy != "" {
		conds = append(conds, "privacy = ?")
		args = append(args, string(f.Privacy))
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Type != "" {
		conds = append(conds, "goal_type = ?")
		args = append(args, string(f.Type))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		conds = append(conds, "(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)")
		pattern := "%" + strings.ToLower(q) + "%"
		args = append(args, pattern, pattern)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(`SELECT COUNT(*) FROM goals`+where), args...); err != nil {
		return nil, 0, fmt.Errorf("count query error: %w", err)
	}

	query := `SELECT ` + goalColumns + ` FROM goals` + where + ` ORDER BY created_at DESC, id`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	var rows []goalRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, 0, fmt.Errorf("query error: %w", err)
	}

	goals, err := toGoals(rows)
	if err != nil {
		return nil, 0, err
	}
	return goals, total, nil
}

func (r *SQLGoalRepository) Update(ctx context.Context, g *domain.Goal) error {
	row, err := newGoalRow(g)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	query := r.db.Rebind(`
        UPDATE goals SET
            name=?, description=?, emoji=?, goal_type=?, unit=?, target=?,
            timeframe_kind=?, start_at=?, end_at=?, rolling_days=?, recurrence=?, timezone=?,
            streak_today=?, grace_days=?, milestones=?, privacy=?, status=?, share_token=?,
            updated_at=?, version = version + 1
        WHERE id=? AND version=?
        RETURNING version`)

	var newVersion int
	err = r.db.QueryRowContext(ctx, query,
		row.Name, row.Description, row.Emoji, row.Type, row.Unit, row.Target,
		row.TimeframeKind, row.StartAt, row.EndAt, row.RollingDays, row.Recurrence, row.Timezone,
		row.StreakToday, row.GraceDays, row.Milestones, row.Privacy, row.Status, row.ShareToken,
		now, row.ID, row.Version,
	).Scan(&newVersion)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r.missingOrConflict(ctx, g.ID)
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: share token already taken", domain.ErrGoalConflict)
		}
		return fmt.Errorf("update query failed: %w", err)
	}

	g.Version = newVersion
	g.UpdatedAt = now
	return nil
}

func (r *SQLGoalRepository) missingOrConflict(ctx context.Context, id string) error {
	var count int
	if err := r.db.GetContext(ctx, &count, r.db.Rebind(`SELECT COUNT(*) FROM goals WHERE id = ?`), id); err != nil {
		return fmt.Errorf("existence check failed: %w", err)
	}
	if count == 0 {
		return domain.ErrGoalNotFound
	}
	return domain.ErrGoalConflict
}

// UpdateSnapshot writes the worker-maintained counters without touching the version,
// so a background recomputation never invalidates a client's pending edit.
func (r *SQLGoalRepository) UpdateSnapshot(ctx context.Context, id string, snap domain.GoalSnapshot) error {
	query := r.db.Rebind(`
        UPDATE goals
        SET current_streak = ?, longest_streak = ?, milestones_reached = ?, milestone_period = ?
        WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query,
		snap.CurrentStreak, snap.LongestStreak, snap.MilestonesReached, nullPeriod(snap.MilestonePeriod), id)
	if err != nil {
		return fmt.Errorf("snapshot update failed: %w", err)
	}
	return expectAffected(res, domain.ErrGoalNotFound)
}

func (r *SQLGoalRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM cycle_summaries WHERE goal_id = ?`,
		`DELETE FROM logs WHERE goal_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, tx.Rebind(q), id); err != nil {
			return fmt.Errorf("delete query failed: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM goals WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete query failed: %w", err)
	}
	if err := expectAffected(res, domain.ErrGoalNotFound); err != nil {
		return err
	}

	return tx.Commit()
}

func expectAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
