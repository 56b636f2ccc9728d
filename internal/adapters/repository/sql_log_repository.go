package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type SQLLogRepository struct {
	db *sqlx.DB
}

var _ domain.LogRepository = (*SQLLogRepository)(nil)

func NewSQLLogRepository(db *sqlx.DB) *SQLLogRepository {
	return &SQLLogRepository{db: db}
}

const logColumns = `id, goal_id, user_id, date, value, note, version, created_at, updated_at`

func (r *SQLLogRepository) Create(ctx context.Context, entry *domain.LogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.Date = entry.Date.UTC()

	query := `
		INSERT INTO logs (` + logColumns + `)
		VALUES (:id, :goal_id, :user_id, :date, :value, :note, 1, :created_at, :updated_at)`

	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrReferenceMissing
		}
		if isUniqueViolation(err) {
			return domain.ErrLogConflict
		}
		return fmt.Errorf("failed to insert log: %w", err)
	}

	entry.Version = 1
	return nil
}

func (r *SQLLogRepository) GetByID(ctx context.Context, id string) (*domain.LogEntry, error) {
	var entry domain.LogEntry
	query := r.db.Rebind(`SELECT ` + logColumns + ` FROM logs WHERE id = ?`)

	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLogNotFound
		}
		return nil, fmt.Errorf("database scan error: %w", err)
	}

	return normalizeLog(&entry), nil
}

func (r *SQLLogRepository) ListByGoalID(ctx context.Context, goalID string, from, to time.Time) ([]*domain.LogEntry, error) {
	query := r.db.Rebind(`
		SELECT ` + logColumns + ` FROM logs
		WHERE goal_id = ? AND date >= ? AND date < ?
		ORDER BY date ASC, created_at ASC`)

	return r.selectLogs(ctx, query, goalID, from.UTC(), to.UTC())
}

func (r *SQLLogRepository) History(ctx context.Context, goalID string) ([]*domain.LogEntry, error) {
	query := r.db.Rebind(`SELECT ` + logColumns + ` FROM logs WHERE goal_id = ? ORDER BY date ASC, created_at ASC`)
	return r.selectLogs(ctx, query, goalID)
}

func (r *SQLLogRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.LogEntry, error) {
	query := r.db.Rebind(`SELECT ` + logColumns + ` FROM logs WHERE user_id = ? ORDER BY date ASC, created_at ASC`)
	return r.selectLogs(ctx, query, userID)
}

func (r *SQLLogRepository) Search(ctx context.Context, q domain.LogQuery) ([]*domain.LogEntry, int, error) {
	var conds []string
	var args []any

	if q.GoalID != "" {
		conds = append(conds, "goal_id = ?")
		args = append(args, q.GoalID)
	}
	if q.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, q.UserID)
	}
	if len(conds) == 0 {
		return nil, 0, errors.Join(domain.ErrInvalidLog, errors.New("goal_id or user_id is required"))
	}
	if q.From != nil {
		conds = append(conds, "date >= ?")
		args = append(args, q.From.UTC())
	}
	if q.To != nil {
		conds = append(conds, "date < ?")
		args = append(args, q.To.UTC())
	}

	where := " WHERE " + strings.Join(conds, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(`SELECT COUNT(*) FROM logs`+where), args...); err != nil {
		return nil, 0, fmt.Errorf("count query error: %w", err)
	}

	order := " ORDER BY date DESC, created_at DESC"
	if q.Ascending {
		order = " ORDER BY date ASC, created_at ASC"
	}
	query := `SELECT ` + logColumns + ` FROM logs` + where + order
	if q.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, q.Limit, q.Offset)
	}

	logs, err := r.selectLogs(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

func (r *SQLLogRepository) selectLogs(ctx context.Context, query string, args ...any) ([]*domain.LogEntry, error) {
	var logs []*domain.LogEntry
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	for _, l := range logs {
		normalizeLog(l)
	}
	return logs, nil
}

func (r *SQLLogRepository) Update(ctx context.Context, entry *domain.LogEntry) error {
	now := time.Now().UTC()
	query := r.db.Rebind(`
		UPDATE logs
		SET date = ?, value = ?, note = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
		RETURNING version`)

	var newVersion int
	err := r.db.QueryRowContext(ctx, query,
		entry.Date.UTC(), entry.Value, entry.Note, now, entry.ID, entry.Version,
	).Scan(&newVersion)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			exists, checkErr := r.exists(ctx, entry.ID)
			if checkErr != nil {
				return checkErr
			}
			if !exists {
				return domain.ErrLogNotFound
			}
			return domain.ErrLogConflict
		}
		return fmt.Errorf("update query failed: %w", err)
	}

	entry.Version = newVersion
	entry.UpdatedAt = now
	return nil
}

func (r *SQLLogRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM logs WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete query failed: %w", err)
	}
	return expectAffected(res, domain.ErrLogNotFound)
}

func (r *SQLLogRepository) exists(ctx context.Context, id string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, r.db.Rebind(`SELECT COUNT(*) FROM logs WHERE id = ?`), id); err != nil {
		return false, fmt.Errorf("existence check failed: %w", err)
	}
	return count > 0, nil
}

// normalizeLog puts scanned timestamps in UTC; drivers may return them in the local zone.
func normalizeLog(l *domain.LogEntry) *domain.LogEntry {
	l.Date = l.Date.UTC()
	l.CreatedAt = l.CreatedAt.UTC()
	l.UpdatedAt = l.UpdatedAt.UTC()
	return l
}
