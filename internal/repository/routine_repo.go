package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"routineboard/internal/database"
	"routineboard/internal/models"
)

// RoutineRepository handles routine templates and their tasks
type RoutineRepository struct {
	db database.DBTX
}

// NewRoutineRepository creates a new routine repository
func NewRoutineRepository(db database.DBTX) *RoutineRepository {
	return &RoutineRepository{db: db}
}

// UpsertRoutine writes the routine row and replaces its tasks in position order.
// Run it inside a transaction so the task swap is atomic.
func (r *RoutineRepository) UpsertRoutine(ctx context.Context, routine *models.Routine) error {
	now := time.Now().UTC()

	var exists int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM routines WHERE id = ?", routine.ID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check routine: %w", err)
	}

	if exists > 0 {
		query := `
			UPDATE routines
			SET family_id = ?, child_profile_id = ?, name = ?, start_time = ?, end_time = ?, active = ?, updated_at = ?
			WHERE id = ?
		`
		if _, err := r.db.ExecContext(ctx, query,
			routine.FamilyID, routine.ChildProfileID, routine.Name,
			nullString(routine.StartTime), nullString(routine.EndTime), routine.Active, now, routine.ID,
		); err != nil {
			return fmt.Errorf("failed to update routine: %w", err)
		}
	} else {
		query := `
			INSERT INTO routines (id, family_id, child_profile_id, name, start_time, end_time, active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		if _, err := r.db.ExecContext(ctx, query,
			routine.ID, routine.FamilyID, routine.ChildProfileID, routine.Name,
			nullString(routine.StartTime), nullString(routine.EndTime), routine.Active, now, now,
		); err != nil {
			return fmt.Errorf("failed to create routine: %w", err)
		}
		routine.CreatedAt = now
	}
	routine.UpdatedAt = now

	if _, err := r.db.ExecContext(ctx, "DELETE FROM routine_tasks WHERE routine_id = ?", routine.ID); err != nil {
		return fmt.Errorf("failed to clear routine tasks: %w", err)
	}

	insert := `
		INSERT INTO routine_tasks (id, routine_id, position, title, description, points, duration_seconds, is_optional)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i := range routine.Tasks {
		task := &routine.Tasks[i]
		task.RoutineID = routine.ID
		task.Position = i
		if _, err := r.db.ExecContext(ctx, insert,
			task.ID, task.RoutineID, task.Position, task.Title,
			nullStringPtr(task.Description), task.Points, nullIntPtr(task.DurationSeconds), task.IsOptional,
		); err != nil {
			return fmt.Errorf("failed to create routine task %s: %w", task.ID, err)
		}
	}

	return nil
}

// ListActiveRoutinesForChild retrieves the child's active routines with their tasks
func (r *RoutineRepository) ListActiveRoutinesForChild(ctx context.Context, childID string) ([]models.Routine, error) {
	query := `
		SELECT id, family_id, child_profile_id, name, start_time, end_time, active, created_at, updated_at
		FROM routines
		WHERE child_profile_id = ? AND active = ` + r.db.GetDialect().BoolValue(true) + `
		ORDER BY start_time, name
	`
	rows, err := r.db.QueryContext(ctx, query, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to query routines: %w", err)
	}
	defer rows.Close()

	var routines []models.Routine
	for rows.Next() {
		var routine models.Routine
		var start, end sql.NullString
		if err := rows.Scan(
			&routine.ID,
			&routine.FamilyID,
			&routine.ChildProfileID,
			&routine.Name,
			&start,
			&end,
			&routine.Active,
			&routine.CreatedAt,
			&routine.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan routine: %w", err)
		}
		routine.StartTime = start.String
		routine.EndTime = end.String
		routines = append(routines, routine)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate routines: %w", err)
	}
	rows.Close()

	for i := range routines {
		tasks, err := r.GetRoutineTasks(ctx, routines[i].ID)
		if err != nil {
			return nil, err
		}
		routines[i].Tasks = tasks
	}

	return routines, nil
}

// GetRoutineTasks retrieves a routine's tasks in position order
func (r *RoutineRepository) GetRoutineTasks(ctx context.Context, routineID string) ([]models.RoutineTask, error) {
	query := `
		SELECT id, routine_id, position, title, description, points, duration_seconds, is_optional
		FROM routine_tasks
		WHERE routine_id = ?
		ORDER BY position ASC
	`
	rows, err := r.db.QueryContext(ctx, query, routineID)
	if err != nil {
		return nil, fmt.Errorf("failed to query routine tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.RoutineTask
	for rows.Next() {
		var task models.RoutineTask
		var description sql.NullString
		var duration sql.NullInt64
		if err := rows.Scan(
			&task.ID,
			&task.RoutineID,
			&task.Position,
			&task.Title,
			&description,
			&task.Points,
			&duration,
			&task.IsOptional,
		); err != nil {
			return nil, fmt.Errorf("failed to scan routine task: %w", err)
		}
		task.Description = stringPtr(description)
		task.DurationSeconds = intPtr(duration)
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}
