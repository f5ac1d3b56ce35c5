package models

import "time"

// TabStatus is the presentation state of a session tab
type TabStatus string

const (
	TabActive    TabStatus = "active"
	TabUpcoming  TabStatus = "upcoming"
	TabCompleted TabStatus = "completed"
)

// Tab is the derived, UI-facing view of one session's actionability
type Tab struct {
	ID                  string     `json:"id"`
	RoutineID           string     `json:"routine_id"`
	Name                string     `json:"name"`
	Status              TabStatus  `json:"status"`
	IsCurrent           bool       `json:"is_current"`
	IsInProgress        bool       `json:"is_in_progress"`
	IsLocked            bool       `json:"is_locked"`
	CanStart            bool       `json:"can_start"`
	BadgeLabel          string     `json:"badge_label"`
	AvailabilityMessage *string    `json:"availability_message"`
	CompletionSummary   *string    `json:"completion_summary"`
	Points              int        `json:"points"`
	StartAt             *time.Time `json:"start_at,omitempty"`
	EndAt               *time.Time `json:"end_at,omitempty"`
	MandatoryTaskIDs    []string   `json:"mandatory_task_ids"`
	Tasks               []TaskStep `json:"tasks"`
	CompletedTasks      []TaskStep `json:"completed_tasks"`
	SuccessHref         string     `json:"success_href"`
}

// IsMandatory reports whether the task id belongs to the tab's required tasks
func (t *Tab) IsMandatory(taskID string) bool {
	for _, id := range t.MandatoryTaskIDs {
		if id == taskID {
			return true
		}
	}
	return false
}

// TabsModel is the full tab list plus the session actionable right now
type TabsModel struct {
	Tabs            []Tab   `json:"tabs"`
	ActiveSessionID *string `json:"active_session_id"`
}

// Tab returns the tab for a session id, or nil
func (m *TabsModel) Tab(sessionID string) *Tab {
	for i := range m.Tabs {
		if m.Tabs[i].ID == sessionID {
			return &m.Tabs[i]
		}
	}
	return nil
}
