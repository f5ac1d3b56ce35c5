package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"routineboard/internal/database"
	"routineboard/internal/models"
)

// SessionRepository handles dated routine sessions and their steps
type SessionRepository struct {
	db database.DBTX
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db database.DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `
	s.id, s.routine_id, s.child_profile_id, r.name, s.session_date, s.status,
	s.started_at, s.planned_end_at, s.completed_at, s.duration_seconds,
	s.best_time_beaten, s.total_points, s.points_awarded, r.start_time, r.end_time`

func scanSession(row interface{ Scan(...any) error }) (*models.SessionWindow, error) {
	var out models.SessionWindow
	s := &out.Session
	var started, plannedEnd, completed sql.NullTime
	var duration sql.NullInt64
	var start, end sql.NullString
	if err := row.Scan(
		&s.ID,
		&s.RoutineID,
		&s.ChildProfileID,
		&s.RoutineName,
		&s.SessionDate,
		&s.Status,
		&started,
		&plannedEnd,
		&completed,
		&duration,
		&s.BestTimeBeaten,
		&s.TotalPoints,
		&s.PointsAwarded,
		&start,
		&end,
	); err != nil {
		return nil, err
	}
	s.StartedAt = timePtr(started)
	s.PlannedEndAt = timePtr(plannedEnd)
	s.CompletedAt = timePtr(completed)
	s.DurationSeconds = intPtr(duration)
	out.StartTime = start.String
	out.EndTime = end.String
	return &out, nil
}

// GetSessionViewModel retrieves a session with its ordered steps, nil when absent
func (r *SessionRepository) GetSessionViewModel(ctx context.Context, sessionID string) (*models.SessionViewModel, error) {
	window, err := r.GetSessionWindow(ctx, sessionID)
	if err != nil || window == nil {
		return nil, err
	}
	return &window.Session, nil
}

// GetSessionWindow retrieves a session with its steps and its routine's window labels
func (r *SessionRepository) GetSessionWindow(ctx context.Context, sessionID string) (*models.SessionWindow, error) {
	query := "SELECT " + sessionColumns + " FROM routine_sessions s JOIN routines r ON r.id = s.routine_id WHERE s.id = ?"
	window, err := scanSession(r.db.QueryRowContext(ctx, query, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	steps, err := r.listSteps(ctx, "WHERE st.session_id = ?", sessionID)
	if err != nil {
		return nil, err
	}
	window.Session.Steps = steps[sessionID]
	if window.Session.Steps == nil {
		window.Session.Steps = []models.TaskStep{}
	}
	return window, nil
}

// ListSessionsForChildBetween retrieves the child's sessions dated fromDate..toDate inclusive,
// ordered by date then routine start time
func (r *SessionRepository) ListSessionsForChildBetween(ctx context.Context, childID, fromDate, toDate string) ([]models.SessionWindow, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM routine_sessions s
		JOIN routines r ON r.id = s.routine_id
		WHERE s.child_profile_id = ? AND s.session_date >= ? AND s.session_date <= ?
		ORDER BY s.session_date, COALESCE(r.start_time, ''), r.name
	`
	rows, err := r.db.QueryContext(ctx, query, childID, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var windows []models.SessionWindow
	for rows.Next() {
		window, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		windows = append(windows, *window)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	rows.Close()

	steps, err := r.listSteps(ctx, `
		JOIN routine_sessions s ON s.id = st.session_id
		WHERE s.child_profile_id = ? AND s.session_date >= ? AND s.session_date <= ?`,
		childID, fromDate, toDate)
	if err != nil {
		return nil, err
	}
	for i := range windows {
		windows[i].Session.Steps = steps[windows[i].Session.ID]
		if windows[i].Session.Steps == nil {
			windows[i].Session.Steps = []models.TaskStep{}
		}
	}
	return windows, nil
}

// listSteps loads steps matching the filter clause, grouped by session id
func (r *SessionRepository) listSteps(ctx context.Context, filter string, args ...any) (map[string][]models.TaskStep, error) {
	query := `
		SELECT st.session_id, st.id, st.title, st.description, st.points, st.duration_seconds, st.is_optional, st.status
		FROM session_steps st
		` + filter + `
		ORDER BY st.session_id, st.position
	`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query session steps: %w", err)
	}
	defer rows.Close()

	steps := make(map[string][]models.TaskStep)
	for rows.Next() {
		var sessionID string
		var step models.TaskStep
		var description sql.NullString
		var duration sql.NullInt64
		if err := rows.Scan(
			&sessionID,
			&step.ID,
			&step.Title,
			&description,
			&step.Points,
			&duration,
			&step.IsOptional,
			&step.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session step: %w", err)
		}
		step.Description = stringPtr(description)
		step.DurationSeconds = intPtr(duration)
		steps[sessionID] = append(steps[sessionID], step)
	}
	return steps, rows.Err()
}

// CreateSession inserts a scheduled session and its steps. It reports false without
// writing steps when the routine already has a session for that child and date.
func (r *SessionRepository) CreateSession(ctx context.Context, session *models.SessionViewModel) (bool, error) {
	dialect := r.db.GetDialect()
	insert := dialect.InsertIgnoreQuery("routine_sessions",
		"id", "routine_id", "child_profile_id", "session_date", "status", "total_points", "created_at")

	result, err := r.db.ExecContext(ctx, insert,
		session.ID, session.RoutineID, session.ChildProfileID, session.SessionDate,
		models.SessionScheduled, session.PointsAvailable(), time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to create session: %w", err)
	}
	created, err := affected(result)
	if err != nil {
		return false, fmt.Errorf("failed to create session: %w", err)
	}
	if !created {
		return false, nil
	}

	stepInsert := `
		INSERT INTO session_steps (id, session_id, position, title, description, points, duration_seconds, is_optional, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i, step := range session.Steps {
		if _, err := r.db.ExecContext(ctx, stepInsert,
			step.ID, session.ID, i, step.Title, nullStringPtr(step.Description),
			step.Points, nullIntPtr(step.DurationSeconds), step.IsOptional, models.StepPending,
		); err != nil {
			return false, fmt.Errorf("failed to create session step: %w", err)
		}
	}
	session.Status = models.SessionScheduled
	session.TotalPoints = session.PointsAvailable()
	return true, nil
}

// SessionExists reports whether the routine already has a session for the child on date
func (r *SessionRepository) SessionExists(ctx context.Context, routineID, childID, date string) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM routine_sessions WHERE routine_id = ? AND child_profile_id = ? AND session_date = ?"
	if err := r.db.QueryRowContext(ctx, query, routineID, childID, date).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check session: %w", err)
	}
	return count > 0, nil
}

// MarkStarted moves a scheduled session to in_progress.
// It reports false when the session was not scheduled.
func (r *SessionRepository) MarkStarted(ctx context.Context, sessionID string, startedAt, plannedEndAt time.Time) (bool, error) {
	query := `
		UPDATE routine_sessions
		SET status = ?, started_at = ?, planned_end_at = ?
		WHERE id = ? AND status = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		models.SessionInProgress, startedAt.UTC(), plannedEndAt.UTC(), sessionID, models.SessionScheduled)
	if err != nil {
		return false, fmt.Errorf("failed to start session: %w", err)
	}
	return affected(result)
}

// SetStepStatus updates one step of a session. It reports false when no such step exists.
func (r *SessionRepository) SetStepStatus(ctx context.Context, sessionID, stepID string, status models.StepStatus, at time.Time) (bool, error) {
	var completedAt sql.NullTime
	if status == models.StepCompleted {
		completedAt = sql.NullTime{Time: at.UTC(), Valid: true}
	}
	query := "UPDATE session_steps SET status = ?, completed_at = ? WHERE session_id = ? AND id = ?"
	result, err := r.db.ExecContext(ctx, query, status, completedAt, sessionID, stepID)
	if err != nil {
		return false, fmt.Errorf("failed to update step: %w", err)
	}
	return affected(result)
}

// CompletionRecord is what MarkCompleted writes onto a finished session
type CompletionRecord struct {
	CompletedAt     time.Time
	DurationSeconds int
	BestTimeBeaten  bool
	PointsAwarded   int
}

// MarkCompleted finishes an in_progress session. It reports false when the session
// was not in progress.
func (r *SessionRepository) MarkCompleted(ctx context.Context, sessionID string, record CompletionRecord) (bool, error) {
	query := `
		UPDATE routine_sessions
		SET status = ?, completed_at = ?, duration_seconds = ?, best_time_beaten = ?, points_awarded = ?
		WHERE id = ? AND status = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		models.SessionCompleted, record.CompletedAt.UTC(), record.DurationSeconds, record.BestTimeBeaten,
		record.PointsAwarded, sessionID, models.SessionInProgress)
	if err != nil {
		return false, fmt.Errorf("failed to complete session: %w", err)
	}
	return affected(result)
}

// MarkSkipped closes scheduled and abandoned in-progress sessions dated before the given date
func (r *SessionRepository) MarkSkipped(ctx context.Context, childID, beforeDate string) (int64, error) {
	query := "UPDATE routine_sessions SET status = ? WHERE child_profile_id = ? AND session_date < ? AND status IN (?, ?)"
	result, err := r.db.ExecContext(ctx, query, models.SessionSkipped, childID, beforeDate, models.SessionScheduled, models.SessionInProgress)
	if err != nil {
		return 0, fmt.Errorf("failed to skip stale sessions: %w", err)
	}
	return result.RowsAffected()
}

// MaxPointsAwarded returns the child's highest points on the routine over sessions
// completed before the given one
func (r *SessionRepository) MaxPointsAwarded(ctx context.Context, routineID, childID, sessionID string) (*int, error) {
	return r.aggregate(ctx, "MAX(points_awarded)", "", routineID, childID, sessionID)
}

// PreviousBestDuration returns the fastest duration over sessions of the routine
// completed before the given one
func (r *SessionRepository) PreviousBestDuration(ctx context.Context, routineID, childID, sessionID string) (*int, error) {
	return r.aggregate(ctx, "MIN(duration_seconds)", " AND duration_seconds IS NOT NULL", routineID, childID, sessionID)
}

// aggregate only looks at sessions that finished earlier than sessionID. When
// sessionID has no completion time yet, every other completed session counts.
func (r *SessionRepository) aggregate(ctx context.Context, expr, extra, routineID, childID, sessionID string) (*int, error) {
	query := "SELECT " + expr + ` FROM routine_sessions
		WHERE routine_id = ? AND child_profile_id = ? AND status = ? AND id <> ?
		AND (
			(SELECT completed_at FROM routine_sessions WHERE id = ?) IS NULL
			OR completed_at < (SELECT completed_at FROM routine_sessions WHERE id = ?)
		)` + extra

	var value sql.NullInt64
	err := r.db.QueryRowContext(ctx, query,
		routineID, childID, models.SessionCompleted, sessionID, sessionID, sessionID,
	).Scan(&value)
	if err != nil {
		return nil, fmt.Errorf("failed to compute %s: %w", expr, err)
	}
	return intPtr(value), nil
}

// NextScheduledSession returns the child's earliest scheduled session dated strictly after afterDate
func (r *SessionRepository) NextScheduledSession(ctx context.Context, childID, afterDate string) (*models.UpcomingSession, error) {
	query := `
		SELECT s.id, s.routine_id, s.session_date, s.status, r.name, r.start_time
		FROM routine_sessions s
		JOIN routines r ON r.id = s.routine_id
		WHERE s.child_profile_id = ? AND s.status = ? AND s.session_date > ?
		ORDER BY s.session_date, COALESCE(r.start_time, ''), r.name
		LIMIT 1
	`
	next := &models.UpcomingSession{}
	var start sql.NullString
	err := r.db.QueryRowContext(ctx, query, childID, models.SessionScheduled, afterDate).Scan(
		&next.ID,
		&next.RoutineID,
		&next.SessionDate,
		&next.Status,
		&next.RoutineName,
		&start,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get next session: %w", err)
	}
	next.StartTime = start.String
	return next, nil
}
