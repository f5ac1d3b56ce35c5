package service

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"routineboard/internal/database"
	"routineboard/internal/models"
	"routineboard/internal/repository"
	"routineboard/internal/routine"
)

type sentNotification struct {
	to, childName, routineName string
	summary                    *models.RoutineSuccessSummary
}

type fakeNotifier struct {
	sent []sentNotification
}

func (f *fakeNotifier) SendRoutineCompleted(ctx context.Context, to, childName, routineName string, summary *models.RoutineSuccessSummary) error {
	f.sent = append(f.sent, sentNotification{to, childName, routineName, summary})
	return nil
}

type ServiceSuite struct {
	suite.Suite
	ctx        context.Context
	db         *database.DB
	loc        *time.Location
	board      *BoardService
	completion *CompletionService
	scheduler  *SchedulerService
	notifier   *fakeNotifier
}

func TestServiceSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping service integration tests in short mode")
	}
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	db, err := database.OpenSQLite(filepath.Join(s.T().TempDir(), "service.db"))
	s.Require().NoError(err)
	_, err = db.RunMigrations(s.ctx, "../../migrations")
	s.Require().NoError(err)
	s.db = db

	loc, err := time.LoadLocation("Europe/Warsaw")
	s.Require().NoError(err)
	s.loc = loc

	families := repository.NewFamilyRepository(db)
	children := repository.NewChildRepository(db)
	routines := repository.NewRoutineRepository(db)
	sessions := repository.NewSessionRepository(db)

	s.Require().NoError(families.UpsertFamily(s.ctx, &models.Family{
		ID: "fam-1", Name: "Kowalscy", Timezone: "Europe/Warsaw", NotifyEmail: "parent@example.com",
	}))
	s.Require().NoError(children.UpsertChild(s.ctx, &models.ChildProfile{
		ID: "kid-1", FamilyID: "fam-1", Name: "Ola", AvatarColor: "#ff8800", PINHash: "hash",
	}))

	brush := 120
	for _, r := range []*models.Routine{
		{ID: "morning", Name: "Morning", StartTime: "06:00", EndTime: "08:00"},
		{ID: "evening", Name: "Evening", StartTime: "18:00", EndTime: "20:00"},
	} {
		r.FamilyID, r.ChildProfileID, r.Active = "fam-1", "kid-1", true
		r.Tasks = []models.RoutineTask{
			{ID: r.ID + "-brush", Title: "Brush teeth", Points: 10, DurationSeconds: &brush},
			{ID: r.ID + "-read", Title: "Read", Points: 5, IsOptional: true},
		}
		s.Require().NoError(routines.UpsertRoutine(s.ctx, r))
	}

	resolver := routine.NewResolver(
		repository.NewPerformanceRepository(db),
		repository.NewAchievementRepository(db),
		sessions,
	)
	s.board = NewBoardService(children, sessions, resolver, BoardOptions{
		Locale:          routine.LocaleEnglish,
		UpcomingDays:    1,
		DefaultTimezone: "UTC",
	})
	s.notifier = &fakeNotifier{}
	s.completion = NewCompletionService(db, s.board, s.notifier)
	s.scheduler = NewSchedulerService(db, 1, "UTC")
}

func (s *ServiceSuite) TearDownTest() {
	s.db.Close()
}

func (s *ServiceSuite) at(day, hour, minute int) time.Time {
	return time.Date(2026, 3, day, hour, minute, 0, 0, s.loc)
}

// sessionFor finds the session of a routine on the child's current board
func (s *ServiceSuite) sessionFor(now time.Time, routineID string) models.SessionViewModel {
	board, err := s.board.Board(s.ctx, "kid-1", now)
	s.Require().NoError(err)
	for _, session := range board.Sessions {
		if session.RoutineID == routineID && session.SessionDate == board.Today {
			return session
		}
	}
	s.FailNow("no session for " + routineID)
	return models.SessionViewModel{}
}

func (s *ServiceSuite) stepID(session models.SessionViewModel, title string) string {
	for _, step := range session.Steps {
		if step.Title == title {
			return step.ID
		}
	}
	s.FailNow("no step " + title)
	return ""
}

// finish runs a session from start to completion, doing the optional step when read is set
func (s *ServiceSuite) finish(start time.Time, minutes int, read bool) *models.RoutineSuccessSummary {
	session := s.sessionFor(start, "morning")
	_, err := s.completion.Start(s.ctx, "kid-1", session.ID, start)
	s.Require().NoError(err)
	_, err = s.completion.CompleteStep(s.ctx, "kid-1", session.ID, s.stepID(session, "Brush teeth"), start.Add(time.Minute))
	s.Require().NoError(err)
	if read {
		_, err = s.completion.CompleteStep(s.ctx, "kid-1", session.ID, s.stepID(session, "Read"), start.Add(2*time.Minute))
		s.Require().NoError(err)
	}
	summary, err := s.completion.Complete(s.ctx, "kid-1", session.ID, start.Add(time.Duration(minutes)*time.Minute))
	s.Require().NoError(err)
	return summary
}

func (s *ServiceSuite) TestMaterializeHorizon() {
	now := s.at(10, 6, 30)
	result, err := s.scheduler.MaterializeHorizon(s.ctx, now)
	s.Require().NoError(err)
	s.Equal(1, result.Children)
	s.Equal(4, result.Created)

	again, err := s.scheduler.MaterializeHorizon(s.ctx, now)
	s.Require().NoError(err)
	s.Equal(0, again.Created)

	next, err := s.scheduler.MaterializeHorizon(s.ctx, s.at(11, 6, 30))
	s.Require().NoError(err)
	s.Equal(2, next.Created)
	s.EqualValues(2, next.Skipped)
}

func (s *ServiceSuite) TestMaterializeHorizonSkipsAbandonedStart() {
	now := s.at(10, 6, 30)
	_, err := s.scheduler.MaterializeHorizon(s.ctx, now)
	s.Require().NoError(err)

	morning := s.sessionFor(now, "morning")
	_, err = s.completion.Start(s.ctx, "kid-1", morning.ID, now)
	s.Require().NoError(err)

	next, err := s.scheduler.MaterializeHorizon(s.ctx, s.at(11, 7, 0))
	s.Require().NoError(err)
	s.EqualValues(2, next.Skipped)

	stored, err := repository.NewSessionRepository(s.db).GetSessionViewModel(s.ctx, morning.ID)
	s.Require().NoError(err)
	s.Require().NotNil(stored)
	s.Equal(models.SessionSkipped, stored.Status)
}

func (s *ServiceSuite) TestMaterializeDayRejectsBadDate() {
	_, err := s.scheduler.MaterializeDay(s.ctx, "kid-1", "10/03/2026")
	s.ErrorIs(err, ErrInvalidDate)
}

func (s *ServiceSuite) TestBoardGrouping() {
	now := s.at(10, 6, 30)
	_, err := s.scheduler.MaterializeHorizon(s.ctx, now)
	s.Require().NoError(err)

	board, err := s.board.Board(s.ctx, "kid-1", now)
	s.Require().NoError(err)
	s.Equal("Europe/Warsaw", board.Timezone)
	s.Equal("2026-03-10", board.Today)

	s.Require().Len(board.Data.Today, 2)
	s.Equal("morning", board.Data.Today[0].RoutineID)
	s.Equal("evening", board.Data.Today[1].RoutineID)
	s.Equal(15, board.Data.Today[0].PointsAvailable)
	s.Require().NotNil(board.Data.Today[0].StartAt)
	s.True(board.Data.Today[0].StartAt.Equal(s.at(10, 6, 0)))
	s.Len(board.Data.Upcoming, 2)
	s.Empty(board.Data.Completed)
	s.Len(board.Sessions, 4)

	// Once the morning window is over the evening routine leads
	late := s.at(10, 9, 0)
	board, err = s.board.Board(s.ctx, "kid-1", late)
	s.Require().NoError(err)
	s.Equal("evening", board.Data.Today[0].RoutineID)
	s.Equal("morning", board.Data.Today[1].RoutineID)

	tabs, err := s.board.Tabs(s.ctx, "kid-1", now)
	s.Require().NoError(err)
	s.Require().NotNil(tabs.ActiveSessionID)
	s.Len(tabs.Tabs, 4)
	s.True(tabs.Tabs[0].CanStart)
	s.False(tabs.Tabs[1].CanStart)
}

func (s *ServiceSuite) TestBoardUnknownChild() {
	_, err := s.board.Board(s.ctx, "nobody", s.at(10, 6, 30))
	s.ErrorIs(err, ErrChildNotFound)
}

func (s *ServiceSuite) TestStartRules() {
	now := s.at(10, 6, 30)
	_, err := s.scheduler.MaterializeHorizon(s.ctx, now)
	s.Require().NoError(err)

	evening := s.sessionFor(now, "evening")
	_, err = s.completion.Start(s.ctx, "kid-1", evening.ID, now)
	s.ErrorIs(err, ErrSessionNotStartable)

	_, err = s.completion.Start(s.ctx, "kid-2", evening.ID, now)
	s.ErrorIs(err, ErrNotSessionOwner)

	_, err = s.completion.Start(s.ctx, "kid-1", "missing", now)
	s.ErrorIs(err, ErrSessionNotFound)

	morning := s.sessionFor(now, "morning")
	started, err := s.completion.Start(s.ctx, "kid-1", morning.ID, now)
	s.Require().NoError(err)
	s.Equal(models.SessionInProgress, started.Status)
	s.Require().NotNil(started.PlannedEndAt)
	s.True(started.PlannedEndAt.Equal(now.Add(2 * time.Minute)))

	_, err = s.completion.Start(s.ctx, "kid-1", morning.ID, now)
	s.ErrorIs(err, ErrSessionNotStartable)

	tabs, err := s.board.Tabs(s.ctx, "kid-1", now)
	s.Require().NoError(err)
	s.True(tabs.Tabs[0].IsInProgress)
	s.True(tabs.Tabs[1].IsLocked)
}

func (s *ServiceSuite) TestStepRules() {
	now := s.at(10, 6, 30)
	_, err := s.scheduler.MaterializeHorizon(s.ctx, now)
	s.Require().NoError(err)
	morning := s.sessionFor(now, "morning")
	brush := s.stepID(morning, "Brush teeth")

	_, err = s.completion.CompleteStep(s.ctx, "kid-1", morning.ID, brush, now)
	s.ErrorIs(err, ErrSessionNotInProgress)

	_, err = s.completion.Start(s.ctx, "kid-1", morning.ID, now)
	s.Require().NoError(err)

	_, err = s.completion.SkipStep(s.ctx, "kid-1", morning.ID, brush, now)
	s.ErrorIs(err, ErrStepNotOptional)

	_, err = s.completion.CompleteStep(s.ctx, "kid-1", morning.ID, "missing", now)
	s.ErrorIs(err, ErrStepNotFound)

	_, err = s.completion.Complete(s.ctx, "kid-1", morning.ID, now.Add(time.Minute))
	s.ErrorIs(err, ErrMandatoryStepsPending)

	updated, err := s.completion.SkipStep(s.ctx, "kid-1", morning.ID, s.stepID(morning, "Read"), now)
	s.Require().NoError(err)
	s.Equal(models.StepSkipped, updated.Step(s.stepID(morning, "Read")).Status)
}

func (s *ServiceSuite) TestCompleteFirstSession() {
	now := s.at(10, 6, 30)
	_, err := s.scheduler.MaterializeHorizon(s.ctx, now)
	s.Require().NoError(err)

	summary := s.finish(now, 10, false)
	s.Equal("Morning", summary.RoutineName)
	s.Equal(10, summary.PointsEarned)
	s.Nil(summary.PointsRecord)
	s.Equal(10, summary.TotalTimeMinutes)
	s.True(summary.BestTimeBeaten)
	s.Nil(summary.PreviousBestDurationSeconds)
	s.Nil(summary.ImprovementSeconds)
	s.Equal(1, summary.StreakDays)
	s.Require().Len(summary.BadgesUnlocked, 1)
	s.Equal(BadgeFirstFinish, summary.BadgesUnlocked[0].Code)
	s.Require().NotNil(summary.NextRoutine)
	// The evening session on the same day is not offered
	s.Equal("Morning", summary.NextRoutine.Name)
	s.True(summary.NextRoutine.StartAt.Equal(s.at(11, 6, 0)))

	s.Require().Len(s.notifier.sent, 1)
	s.Equal("parent@example.com", s.notifier.sent[0].to)
	s.Equal("Ola", s.notifier.sent[0].childName)
	s.Equal("Morning", s.notifier.sent[0].routineName)

	board, err := s.board.Board(s.ctx, "kid-1", now.Add(15*time.Minute))
	s.Require().NoError(err)
	s.Require().Len(board.Data.Completed, 1)
	s.Equal("morning", board.Data.Completed[0].RoutineID)
	s.Equal("evening", board.Data.Today[0].RoutineID)

	_, err = s.completion.Complete(s.ctx, "kid-1", summary.SessionID, now.Add(20*time.Minute))
	s.ErrorIs(err, ErrSessionNotInProgress)
}

func (s *ServiceSuite) TestCompleteBeatsBestAndExtendsStreak() {
	day1 := s.at(10, 6, 30)
	_, err := s.scheduler.MaterializeHorizon(s.ctx, day1)
	s.Require().NoError(err)
	s.finish(day1, 10, false)

	day2 := s.at(11, 6, 30)
	_, err = s.scheduler.MaterializeHorizon(s.ctx, day2)
	s.Require().NoError(err)
	summary := s.finish(day2, 8, true)

	s.True(summary.BestTimeBeaten)
	s.Require().NotNil(summary.PreviousBestDurationSeconds)
	s.Equal(600, *summary.PreviousBestDurationSeconds)
	s.Require().NotNil(summary.ImprovementSeconds)
	s.Equal(120, *summary.ImprovementSeconds)
	s.Require().NotNil(summary.PointsRecord)
	s.Equal(10, *summary.PointsRecord)
	s.Equal(15, summary.PointsEarned)
	s.Equal(2, summary.StreakDays)

	var codes []string
	for _, badge := range summary.BadgesUnlocked {
		codes = append(codes, badge.Code)
	}
	s.ElementsMatch([]string{BadgeBestTime, BadgeAllOptional}, codes)

	day3 := s.at(12, 6, 30)
	_, err = s.scheduler.MaterializeHorizon(s.ctx, day3)
	s.Require().NoError(err)
	slower := s.finish(day3, 12, false)
	s.False(slower.BestTimeBeaten)
	s.Require().NotNil(slower.BestDurationSeconds)
	s.Equal(480, *slower.BestDurationSeconds)
	s.Equal(3, slower.StreakDays)
	s.Require().Len(slower.BadgesUnlocked, 1)
	s.Equal(BadgeStreak3, slower.BadgesUnlocked[0].Code)
}

type failingResolver struct{}

func (failingResolver) Resolve(context.Context, string, models.SessionViewModel, string) (*models.RoutineSuccessSummary, error) {
	return nil, fmt.Errorf("achievements: %w", routine.ErrDependencyUnavailable)
}

func (s *ServiceSuite) TestCompleteKeepsCommittedResultWhenSummaryFails() {
	now := s.at(10, 6, 30)
	_, err := s.scheduler.MaterializeHorizon(s.ctx, now)
	s.Require().NoError(err)

	sessions := repository.NewSessionRepository(s.db)
	board := NewBoardService(repository.NewChildRepository(s.db), sessions, failingResolver{}, BoardOptions{
		Locale:          routine.LocaleEnglish,
		UpcomingDays:    1,
		DefaultTimezone: "UTC",
	})
	s.completion = NewCompletionService(s.db, board, s.notifier)

	summary := s.finish(now, 10, true)
	s.Equal(15, summary.PointsEarned)
	s.Require().NotNil(summary.TotalDurationSeconds)
	s.Equal(600, *summary.TotalDurationSeconds)
	s.Equal(10, summary.TotalTimeMinutes)
	s.True(summary.BestTimeBeaten)
	s.Equal(1, summary.StreakDays)
	s.NotNil(summary.BadgesUnlocked)
	s.Nil(summary.NextRoutine)

	stored, err := sessions.GetSessionViewModel(s.ctx, summary.SessionID)
	s.Require().NoError(err)
	s.Require().NotNil(stored)
	s.Equal(models.SessionCompleted, stored.Status)

	s.Require().Len(s.notifier.sent, 1)
	s.Equal(summary, s.notifier.sent[0].summary)

	_, err = board.SuccessSummary(s.ctx, "kid-1", summary.SessionID)
	s.ErrorIs(err, routine.ErrDependencyUnavailable)
}

func (s *ServiceSuite) TestSuccessSummaryRules() {
	now := s.at(10, 6, 30)
	_, err := s.scheduler.MaterializeHorizon(s.ctx, now)
	s.Require().NoError(err)
	morning := s.sessionFor(now, "morning")

	_, err = s.board.SuccessSummary(s.ctx, "kid-1", morning.ID)
	s.ErrorIs(err, ErrSessionNotCompleted)

	_, err = s.board.SuccessSummary(s.ctx, "kid-1", "missing")
	s.ErrorIs(err, ErrSessionNotFound)

	summary := s.finish(now, 10, false)
	_, err = s.board.SuccessSummary(s.ctx, "kid-2", summary.SessionID)
	s.ErrorIs(err, ErrNotSessionOwner)

	again, err := s.board.SuccessSummary(s.ctx, "kid-1", summary.SessionID)
	s.Require().NoError(err)
	s.Equal(summary.PointsEarned, again.PointsEarned)
	s.Equal(summary.TotalDurationSeconds, again.TotalDurationSeconds)
	s.Len(again.BadgesUnlocked, len(summary.BadgesUnlocked))
}
