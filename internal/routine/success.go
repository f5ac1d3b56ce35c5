package routine

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"routineboard/internal/models"
)

// PerformanceFilter scopes the performance aggregate lookup
type PerformanceFilter struct {
	RoutineID      string
	ChildProfileID string
}

// AchievementFilter scopes the achievements lookup. SessionID narrows the
// result to badges awarded for that session when set.
type AchievementFilter struct {
	ChildProfileID string
	SessionID      string
}

// PerformanceLister reads per-routine performance aggregates
type PerformanceLister interface {
	ListRoutinePerformance(ctx context.Context, filter PerformanceFilter) ([]models.RoutinePerformance, error)
}

// AchievementLister reads a child's unlocked achievements
type AchievementLister interface {
	ListChildAchievements(ctx context.Context, filter AchievementFilter) ([]models.ChildAchievement, error)
}

// SessionHistory answers point lookups against historical session rows.
// The record lookups only consider sessions completed before sessionID, and
// NextScheduledSession only sessions dated strictly after afterDate.
// A nil result with a nil error means no row matched.
type SessionHistory interface {
	MaxPointsAwarded(ctx context.Context, routineID, childProfileID, sessionID string) (*int, error)
	PreviousBestDuration(ctx context.Context, routineID, childProfileID, sessionID string) (*int, error)
	NextScheduledSession(ctx context.Context, childProfileID, afterDate string) (*models.UpcomingSession, error)
}

// Resolver computes the post-completion summary of a session
type Resolver struct {
	performance  PerformanceLister
	achievements AchievementLister
	history      SessionHistory
}

// NewResolver creates a resolver over the given collaborators
func NewResolver(performance PerformanceLister, achievements AchievementLister, history SessionHistory) *Resolver {
	return &Resolver{
		performance:  performance,
		achievements: achievements,
		history:      history,
	}
}

// Resolve builds the success summary for a completed session. The lookups are
// independent reads and run concurrently; any collaborator failure aborts the
// whole computation with a *DependencyError.
func (r *Resolver) Resolve(ctx context.Context, sessionID string, session models.SessionViewModel, timezone string) (*models.RoutineSuccessSummary, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTimezone, timezone, err)
	}

	var (
		aggregate    *models.RoutinePerformance
		badges       []models.ChildAchievement
		pointsRecord *int
		previousBest *int
		next         *models.UpcomingSession
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := r.performance.ListRoutinePerformance(gctx, PerformanceFilter{
			RoutineID:      session.RoutineID,
			ChildProfileID: session.ChildProfileID,
		})
		if err != nil {
			return dependencyUnavailable("performance", err)
		}
		if len(rows) > 0 {
			aggregate = &rows[0]
		}
		return nil
	})

	g.Go(func() error {
		rows, err := r.achievements.ListChildAchievements(gctx, AchievementFilter{
			ChildProfileID: session.ChildProfileID,
			SessionID:      sessionID,
		})
		if err != nil {
			return dependencyUnavailable("achievements", err)
		}
		badges = rows
		return nil
	})

	g.Go(func() error {
		record, err := r.history.MaxPointsAwarded(gctx, session.RoutineID, session.ChildProfileID, sessionID)
		if err != nil {
			return dependencyUnavailable("points record", err)
		}
		pointsRecord = record
		return nil
	})

	// Only a beaten record needs the prior holder's time.
	if session.BestTimeBeaten {
		g.Go(func() error {
			best, err := r.history.PreviousBestDuration(gctx, session.RoutineID, session.ChildProfileID, sessionID)
			if err != nil {
				return dependencyUnavailable("previous best", err)
			}
			previousBest = best
			return nil
		})
	}

	g.Go(func() error {
		upcoming, err := r.history.NextScheduledSession(gctx, session.ChildProfileID, session.SessionDate)
		if err != nil {
			return dependencyUnavailable("next routine", err)
		}
		next = upcoming
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &models.RoutineSuccessSummary{
		SessionID:            sessionID,
		RoutineName:          session.RoutineName,
		PointsEarned:         session.PointsAwarded,
		PointsRecord:         pointsRecord,
		TotalDurationSeconds: copyInt(session.DurationSeconds),
		TotalTimeMinutes:     totalTimeMinutes(&session),
		BestTimeBeaten:       session.BestTimeBeaten,
		BadgesUnlocked:       badges,
	}
	if summary.BadgesUnlocked == nil {
		summary.BadgesUnlocked = []models.ChildAchievement{}
	}
	if aggregate != nil {
		summary.StreakDays = aggregate.StreakDays
	}

	if session.BestTimeBeaten {
		summary.BestDurationSeconds = copyInt(session.DurationSeconds)
		summary.PreviousBestDurationSeconds = previousBest
		if previousBest != nil && session.DurationSeconds != nil {
			improvement := *previousBest - *session.DurationSeconds
			summary.ImprovementSeconds = &improvement
		}
	} else {
		if aggregate != nil {
			summary.BestDurationSeconds = copyInt(aggregate.BestDurationSeconds)
		}
		summary.PreviousBestDurationSeconds = copyInt(summary.BestDurationSeconds)
	}

	if next != nil {
		summary.NextRoutine = &models.NextRoutine{
			SessionID: next.ID,
			Name:      next.RoutineName,
			StartAt:   WallClock(next.SessionDate, next.StartTime, loc),
		}
	}

	return summary, nil
}

// totalTimeMinutes prefers the measured duration and falls back to the plan
func totalTimeMinutes(session *models.SessionViewModel) int {
	if session.DurationSeconds != nil {
		return roundMinutes(*session.DurationSeconds)
	}
	return roundMinutes(session.PlannedDurationSeconds())
}

// WallClock resolves a session date and an "HH:MM" label to an instant in loc.
// It returns nil when either part is missing or malformed.
func WallClock(date, clock string, loc *time.Location) *time.Time {
	if date == "" || clock == "" {
		return nil
	}
	t, err := time.ParseInLocation(models.SessionDateLayout+" "+clockLayout, date+" "+clock, loc)
	if err != nil {
		return nil
	}
	return &t
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
