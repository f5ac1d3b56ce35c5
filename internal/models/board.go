package models

import "time"

// BoardStatus is the group a routine is placed in on the child's board
type BoardStatus string

const (
	BoardToday     BoardStatus = "today"
	BoardUpcoming  BoardStatus = "upcoming"
	BoardCompleted BoardStatus = "completed"
)

// RoutineBoardEntry is one routine's placement on the board.
// StartAt/EndAt are the window bounds resolved to instants; nil means unbounded.
type RoutineBoardEntry struct {
	SessionID       string      `json:"session_id"`
	RoutineID       string      `json:"routine_id"`
	Name            string      `json:"name"`
	Status          BoardStatus `json:"status"`
	StartAt         *time.Time  `json:"start_at,omitempty"`
	EndAt           *time.Time  `json:"end_at,omitempty"`
	PointsAvailable int         `json:"points_available"`
}

// RoutineBoardData groups the board entries. Today[0] is the primary routine.
type RoutineBoardData struct {
	Today     []RoutineBoardEntry `json:"today"`
	Upcoming  []RoutineBoardEntry `json:"upcoming"`
	Completed []RoutineBoardEntry `json:"completed"`
}

// Len returns the number of entries across all groups
func (b *RoutineBoardData) Len() int {
	return len(b.Today) + len(b.Upcoming) + len(b.Completed)
}
