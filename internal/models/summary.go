package models

import "time"

// RoutinePerformance is the per-child aggregate kept for each routine
type RoutinePerformance struct {
	RoutineID              string     `json:"routine_id"`
	ChildProfileID         string     `json:"child_profile_id"`
	BestDurationSeconds    *int       `json:"best_duration_seconds"`
	BestSessionID          *string    `json:"best_session_id"`
	LastCompletedSessionID *string    `json:"last_completed_session_id"`
	LastCompletedAt        *time.Time `json:"last_completed_at"`
	StreakDays             int        `json:"streak_days"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// ChildAchievement is a badge awarded to a child
type ChildAchievement struct {
	AchievementID string         `json:"achievement_id"`
	Code          string         `json:"code"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	IconURL       string         `json:"icon_url"`
	AwardedAt     time.Time      `json:"awarded_at"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// UpcomingSession is the row returned by the next-scheduled-session lookup
type UpcomingSession struct {
	ID          string        `json:"id"`
	RoutineID   string        `json:"routine_id"`
	SessionDate string        `json:"session_date"`
	Status      SessionStatus `json:"status"`
	RoutineName string        `json:"routine_name"`
	StartTime   string        `json:"start_time,omitempty"`
}

// NextRoutine points the celebration view at what comes next
type NextRoutine struct {
	SessionID string     `json:"session_id"`
	Name      string     `json:"name"`
	StartAt   *time.Time `json:"start_at"`
}

// RoutineSuccessSummary drives the post-completion celebration view
type RoutineSuccessSummary struct {
	SessionID                   string             `json:"session_id"`
	RoutineName                 string             `json:"routine_name"`
	PointsEarned                int                `json:"points_earned"`
	PointsRecord                *int               `json:"points_record"`
	TotalDurationSeconds        *int               `json:"total_duration_seconds"`
	TotalTimeMinutes            int                `json:"total_time_minutes"`
	BestDurationSeconds         *int               `json:"best_duration_seconds"`
	PreviousBestDurationSeconds *int               `json:"previous_best_duration_seconds"`
	ImprovementSeconds          *int               `json:"improvement_seconds,omitempty"`
	BestTimeBeaten              bool               `json:"best_time_beaten"`
	StreakDays                  int                `json:"streak_days"`
	BadgesUnlocked              []ChildAchievement `json:"badges_unlocked"`
	NextRoutine                 *NextRoutine       `json:"next_routine,omitempty"`
}

// Achievement is a badge definition children can unlock
type Achievement struct {
	ID          string `json:"id" yaml:"id"`
	Code        string `json:"code" yaml:"code"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	IconURL     string `json:"icon_url" yaml:"icon_url"`
}
