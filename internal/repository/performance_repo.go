package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"routineboard/internal/database"
	"routineboard/internal/models"
	"routineboard/internal/routine"
)

// PerformanceRepository handles per-routine aggregates
type PerformanceRepository struct {
	db database.DBTX
}

// NewPerformanceRepository creates a new performance repository
func NewPerformanceRepository(db database.DBTX) *PerformanceRepository {
	return &PerformanceRepository{db: db}
}

// ListRoutinePerformance retrieves aggregates matching the filter. Empty filter fields match everything.
func (r *PerformanceRepository) ListRoutinePerformance(ctx context.Context, filter routine.PerformanceFilter) ([]models.RoutinePerformance, error) {
	query := `
		SELECT routine_id, child_profile_id, best_duration_seconds, best_session_id,
			last_completed_session_id, last_completed_at, streak_days, updated_at
		FROM routine_performance
		WHERE 1 = 1
	`
	var args []any
	if filter.RoutineID != "" {
		query += " AND routine_id = ?"
		args = append(args, filter.RoutineID)
	}
	if filter.ChildProfileID != "" {
		query += " AND child_profile_id = ?"
		args = append(args, filter.ChildProfileID)
	}
	query += " ORDER BY updated_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query performance: %w", err)
	}
	defer rows.Close()

	var out []models.RoutinePerformance
	for rows.Next() {
		var p models.RoutinePerformance
		var best sql.NullInt64
		var bestSession, lastSession sql.NullString
		var lastCompleted sql.NullTime
		if err := rows.Scan(
			&p.RoutineID,
			&p.ChildProfileID,
			&best,
			&bestSession,
			&lastSession,
			&lastCompleted,
			&p.StreakDays,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan performance: %w", err)
		}
		p.BestDurationSeconds = intPtr(best)
		p.BestSessionID = stringPtr(bestSession)
		p.LastCompletedSessionID = stringPtr(lastSession)
		p.LastCompletedAt = timePtr(lastCompleted)
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpsertPerformance writes the aggregate for one routine and child
func (r *PerformanceRepository) UpsertPerformance(ctx context.Context, p *models.RoutinePerformance) error {
	p.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, r.db.GetDialect().UpsertPerformanceQuery(),
		p.RoutineID,
		p.ChildProfileID,
		nullIntPtr(p.BestDurationSeconds),
		nullStringPtr(p.BestSessionID),
		nullStringPtr(p.LastCompletedSessionID),
		nullTimePtr(p.LastCompletedAt),
		p.StreakDays,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert performance: %w", err)
	}
	return nil
}
