package models

import "time"

// SessionStatus is the lifecycle state of one routine occurrence
type SessionStatus string

const (
	SessionScheduled  SessionStatus = "scheduled"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionSkipped    SessionStatus = "skipped"
)

// StepStatus is the state of a single task inside a session
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepCompleted StepStatus = "completed"
	StepSkipped   StepStatus = "skipped"
)

// SessionDateLayout is the storage format of SessionViewModel.SessionDate
const SessionDateLayout = "2006-01-02"

// TaskStep is one task of a session. Steps are owned by their session.
type TaskStep struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     *string    `json:"description,omitempty"`
	Points          int        `json:"points"`
	DurationSeconds *int       `json:"duration_seconds,omitempty"`
	IsOptional      bool       `json:"is_optional"`
	Status          StepStatus `json:"status"`
}

// SessionViewModel is one dated occurrence of a routine for one child
type SessionViewModel struct {
	ID              string        `json:"id"`
	RoutineID       string        `json:"routine_id"`
	ChildProfileID  string        `json:"child_profile_id"`
	RoutineName     string        `json:"routine_name"`
	SessionDate     string        `json:"session_date"`
	Status          SessionStatus `json:"status"`
	StartedAt       *time.Time    `json:"started_at,omitempty"`
	PlannedEndAt    *time.Time    `json:"planned_end_at,omitempty"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty"`
	DurationSeconds *int          `json:"duration_seconds,omitempty"`
	BestTimeBeaten  bool          `json:"best_time_beaten"`
	TotalPoints     int           `json:"total_points"`
	PointsAwarded   int           `json:"points_awarded"`
	Steps           []TaskStep    `json:"steps"`
}

// IsCompleted reports whether the session reached its terminal completed state
func (s *SessionViewModel) IsCompleted() bool {
	return s.Status == SessionCompleted
}

// Step returns the step with the given id, or nil
func (s *SessionViewModel) Step(stepID string) *TaskStep {
	for i := range s.Steps {
		if s.Steps[i].ID == stepID {
			return &s.Steps[i]
		}
	}
	return nil
}

// PendingMandatorySteps lists required steps that are not completed yet
func (s *SessionViewModel) PendingMandatorySteps() []TaskStep {
	var pending []TaskStep
	for _, step := range s.Steps {
		if !step.IsOptional && step.Status != StepCompleted {
			pending = append(pending, step)
		}
	}
	return pending
}

// EarnedPoints sums the points of completed steps
func (s *SessionViewModel) EarnedPoints() int {
	total := 0
	for _, step := range s.Steps {
		if step.Status == StepCompleted {
			total += step.Points
		}
	}
	return total
}

// PlannedDurationSeconds sums the planned durations of all steps
func (s *SessionViewModel) PlannedDurationSeconds() int {
	total := 0
	for _, step := range s.Steps {
		if step.DurationSeconds != nil {
			total += *step.DurationSeconds
		}
	}
	return total
}

// PointsAvailable sums the points of every step
func (s *SessionViewModel) PointsAvailable() int {
	total := 0
	for _, step := range s.Steps {
		total += step.Points
	}
	return total
}

// SessionWindow pairs a session with its routine's "HH:MM" window labels
type SessionWindow struct {
	Session   SessionViewModel
	StartTime string
	EndTime   string
}
