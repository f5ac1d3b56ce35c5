package models

import "time"

// Routine is a named set of tasks scheduled within a daily time window.
// StartTime and EndTime are wall-clock "HH:MM" labels in the family timezone;
// an empty value means the routine has no bound on that side.
type Routine struct {
	ID             string        `json:"id"`
	FamilyID       string        `json:"family_id"`
	ChildProfileID string        `json:"child_profile_id"`
	Name           string        `json:"name"`
	StartTime      string        `json:"start_time,omitempty"`
	EndTime        string        `json:"end_time,omitempty"`
	Active         bool          `json:"active"`
	Tasks          []RoutineTask `json:"tasks,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// RoutineTask is a template step copied into every session of its routine
type RoutineTask struct {
	ID              string  `json:"id"`
	RoutineID       string  `json:"routine_id"`
	Position        int     `json:"position"`
	Title           string  `json:"title"`
	Description     *string `json:"description,omitempty"`
	Points          int     `json:"points"`
	DurationSeconds *int    `json:"duration_seconds,omitempty"`
	IsOptional      bool    `json:"is_optional"`
}

// PointsAvailable sums the points of every task in the routine
func (r *Routine) PointsAvailable() int {
	total := 0
	for _, task := range r.Tasks {
		total += task.Points
	}
	return total
}
