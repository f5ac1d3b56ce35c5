package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"routineboard/internal/database"
	"routineboard/internal/models"
	"routineboard/internal/repository"
)

// SchedulerService materializes routine occurrences into dated sessions
type SchedulerService struct {
	db              *database.DB
	children        *repository.ChildRepository
	families        *repository.FamilyRepository
	routines        *repository.RoutineRepository
	sessions        *repository.SessionRepository
	upcomingDays    int
	defaultTimezone string
}

// NewSchedulerService creates a scheduler that keeps today plus upcomingDays materialized
func NewSchedulerService(db *database.DB, upcomingDays int, defaultTimezone string) *SchedulerService {
	return &SchedulerService{
		db:              db,
		children:        repository.NewChildRepository(db),
		families:        repository.NewFamilyRepository(db),
		routines:        repository.NewRoutineRepository(db),
		sessions:        repository.NewSessionRepository(db),
		upcomingDays:    upcomingDays,
		defaultTimezone: defaultTimezone,
	}
}

// MaterializeResult counts what one horizon pass changed
type MaterializeResult struct {
	Children int
	Created  int
	Skipped  int64
}

// MaterializeDay creates a scheduled session for every active routine of the
// child that has none on date. It returns the number of sessions created.
func (s *SchedulerService) MaterializeDay(ctx context.Context, childID, date string) (int, error) {
	if _, err := time.Parse(models.SessionDateLayout, date); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	routines, err := s.routines.ListActiveRoutinesForChild(ctx, childID)
	if err != nil {
		return 0, err
	}

	created := 0
	for i := range routines {
		exists, err := s.sessions.SessionExists(ctx, routines[i].ID, childID, date)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}

		session := newSession(&routines[i], childID, date)
		var ok bool
		err = s.db.WithTx(ctx, func(tx *database.Tx) error {
			var txErr error
			ok, txErr = repository.NewSessionRepository(tx).CreateSession(ctx, session)
			return txErr
		})
		if err != nil {
			return created, fmt.Errorf("failed to materialize %s on %s: %w", routines[i].ID, date, err)
		}
		if ok {
			created++
		}
	}
	return created, nil
}

func newSession(r *models.Routine, childID, date string) *models.SessionViewModel {
	steps := make([]models.TaskStep, len(r.Tasks))
	for i, task := range r.Tasks {
		steps[i] = models.TaskStep{
			ID:              uuid.NewString(),
			Title:           task.Title,
			Description:     task.Description,
			Points:          task.Points,
			DurationSeconds: task.DurationSeconds,
			IsOptional:      task.IsOptional,
			Status:          models.StepPending,
		}
	}
	return &models.SessionViewModel{
		ID:             uuid.NewString(),
		RoutineID:      r.ID,
		ChildProfileID: childID,
		RoutineName:    r.Name,
		SessionDate:    date,
		Status:         models.SessionScheduled,
		Steps:          steps,
	}
}

// MaterializeHorizon skips stale open sessions and materializes today
// through the upcoming horizon for every child, each in its family's zone
func (s *SchedulerService) MaterializeHorizon(ctx context.Context, now time.Time) (*MaterializeResult, error) {
	children, err := s.children.ListAllChildren(ctx)
	if err != nil {
		return nil, err
	}

	zones := make(map[string]*time.Location)
	result := &MaterializeResult{}
	for _, child := range children {
		loc, ok := zones[child.FamilyID]
		if !ok {
			loc, err = s.familyLocation(ctx, child.FamilyID)
			if err != nil {
				return result, err
			}
			zones[child.FamilyID] = loc
		}

		local := now.In(loc)
		skipped, err := s.sessions.MarkSkipped(ctx, child.ID, local.Format(models.SessionDateLayout))
		if err != nil {
			return result, err
		}
		result.Skipped += skipped

		for day := 0; day <= s.upcomingDays; day++ {
			created, err := s.MaterializeDay(ctx, child.ID, local.AddDate(0, 0, day).Format(models.SessionDateLayout))
			if err != nil {
				return result, err
			}
			result.Created += created
		}
		result.Children++
	}

	log.Info().
		Int("children", result.Children).
		Int("created", result.Created).
		Int64("skipped", result.Skipped).
		Msg("Materialized routine sessions")
	return result, nil
}

func (s *SchedulerService) familyLocation(ctx context.Context, familyID string) (*time.Location, error) {
	family, err := s.families.GetFamilyByID(ctx, familyID)
	if err != nil {
		return nil, err
	}
	timezone := ""
	if family != nil {
		timezone = family.Timezone
	}
	_, loc, err := resolveTimezone(timezone, s.defaultTimezone)
	return loc, err
}

// Run materializes on every tick until ctx is done. Failures are logged and
// retried on the next tick.
func (s *SchedulerService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			if _, err := s.MaterializeHorizon(ctx, t); err != nil {
				log.Warn().Err(err).Msg("Materializer tick failed")
			}
		}
	}
}
