package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"routineboard/internal/database"
	"routineboard/internal/models"
	"routineboard/internal/repository"
	"routineboard/internal/routine"
)

// Badge codes awarded on completion
const (
	BadgeFirstFinish = "first_finish"
	BadgeBestTime    = "best_time"
	BadgeStreak3     = "streak_3"
	BadgeStreak7     = "streak_7"
	BadgeAllOptional = "all_optional"
)

// CompletionNotifier receives a summary once a session is completed
type CompletionNotifier interface {
	SendRoutineCompleted(ctx context.Context, to, childName, routineName string, summary *models.RoutineSuccessSummary) error
}

// CompletionService advances sessions as the child works through them
type CompletionService struct {
	db       *database.DB
	sessions *repository.SessionRepository
	board    *BoardService
	notifier CompletionNotifier
}

// NewCompletionService creates a new completion service. notifier may be nil.
func NewCompletionService(db *database.DB, board *BoardService, notifier CompletionNotifier) *CompletionService {
	return &CompletionService{
		db:       db,
		sessions: repository.NewSessionRepository(db),
		board:    board,
		notifier: notifier,
	}
}

// Start begins a session the child's board currently offers to start
func (s *CompletionService) Start(ctx context.Context, childID, sessionID string, now time.Time) (*models.SessionViewModel, error) {
	window, err := s.board.ownedSession(ctx, childID, sessionID)
	if err != nil {
		return nil, err
	}
	if window.Session.Status != models.SessionScheduled {
		return nil, ErrSessionNotStartable
	}

	tabs, err := s.board.Tabs(ctx, childID, now)
	if err != nil {
		return nil, err
	}
	if tab := tabs.Tab(sessionID); tab == nil || !tab.CanStart {
		return nil, ErrSessionNotStartable
	}

	plannedEnd := now.Add(time.Duration(window.Session.PlannedDurationSeconds()) * time.Second)
	started, err := s.sessions.MarkStarted(ctx, sessionID, now, plannedEnd)
	if err != nil {
		return nil, err
	}
	if !started {
		return nil, ErrSessionNotStartable
	}

	log.Info().Str("child_id", childID).Str("session_id", sessionID).Msg("Session started")
	return s.reload(ctx, sessionID)
}

// CompleteStep marks one step of a running session as done
func (s *CompletionService) CompleteStep(ctx context.Context, childID, sessionID, stepID string, now time.Time) (*models.SessionViewModel, error) {
	return s.setStep(ctx, childID, sessionID, stepID, models.StepCompleted, now)
}

// SkipStep skips an optional step of a running session
func (s *CompletionService) SkipStep(ctx context.Context, childID, sessionID, stepID string, now time.Time) (*models.SessionViewModel, error) {
	return s.setStep(ctx, childID, sessionID, stepID, models.StepSkipped, now)
}

func (s *CompletionService) setStep(ctx context.Context, childID, sessionID, stepID string, status models.StepStatus, now time.Time) (*models.SessionViewModel, error) {
	window, err := s.board.ownedSession(ctx, childID, sessionID)
	if err != nil {
		return nil, err
	}
	if window.Session.Status != models.SessionInProgress {
		return nil, ErrSessionNotInProgress
	}
	step := window.Session.Step(stepID)
	if step == nil {
		return nil, ErrStepNotFound
	}
	if status == models.StepSkipped && !step.IsOptional {
		return nil, ErrStepNotOptional
	}

	updated, err := s.sessions.SetStepStatus(ctx, sessionID, stepID, status, now)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, ErrStepNotFound
	}
	return s.reload(ctx, sessionID)
}

// Complete finishes a running session, updates the routine aggregate and
// awards badges in one transaction, then returns the celebration summary.
func (s *CompletionService) Complete(ctx context.Context, childID, sessionID string, now time.Time) (*models.RoutineSuccessSummary, error) {
	window, err := s.board.ownedSession(ctx, childID, sessionID)
	if err != nil {
		return nil, err
	}
	session := window.Session
	if session.Status != models.SessionInProgress || session.StartedAt == nil {
		return nil, ErrSessionNotInProgress
	}
	if pending := session.PendingMandatorySteps(); len(pending) > 0 {
		return nil, fmt.Errorf("%w: %d left", ErrMandatoryStepsPending, len(pending))
	}

	child, err := s.board.child(ctx, childID)
	if err != nil {
		return nil, err
	}
	_, loc, err := s.board.location(&child.Family)
	if err != nil {
		return nil, err
	}

	duration := int(now.Sub(*session.StartedAt) / time.Second)
	if duration < 0 {
		duration = 0
	}

	var outcome *completionOutcome
	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		var txErr error
		outcome, txErr = s.recordCompletion(ctx, tx, &session, duration, now, loc)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("child_id", childID).
		Str("session_id", sessionID).
		Int("duration_seconds", duration).
		Strs("badges", outcome.awarded).
		Msg("Session completed")

	// Already committed: fall back to what the session itself recorded
	summary, err := s.board.SuccessSummary(ctx, childID, sessionID)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("Success summary unavailable, returning committed result")
		summary = committedSummary(&session, outcome.streakDays)
	}
	s.notify(ctx, child, session.RoutineName, summary)
	return summary, nil
}

type completionOutcome struct {
	awarded    []string
	streakDays int
}

// recordCompletion writes the completion and updates session to match the stored row
func (s *CompletionService) recordCompletion(ctx context.Context, tx *database.Tx, session *models.SessionViewModel, duration int, now time.Time, loc *time.Location) (*completionOutcome, error) {
	perfRepo := repository.NewPerformanceRepository(tx)
	rows, err := perfRepo.ListRoutinePerformance(ctx, routine.PerformanceFilter{
		RoutineID:      session.RoutineID,
		ChildProfileID: session.ChildProfileID,
	})
	if err != nil {
		return nil, err
	}

	perf := models.RoutinePerformance{RoutineID: session.RoutineID, ChildProfileID: session.ChildProfileID}
	if len(rows) > 0 {
		perf = rows[0]
	}
	hadBest := perf.BestDurationSeconds != nil
	beaten := !hadBest || duration < *perf.BestDurationSeconds

	completed, err := repository.NewSessionRepository(tx).MarkCompleted(ctx, session.ID, repository.CompletionRecord{
		CompletedAt:     now,
		DurationSeconds: duration,
		BestTimeBeaten:  beaten,
		PointsAwarded:   session.EarnedPoints(),
	})
	if err != nil {
		return nil, err
	}
	if !completed {
		return nil, ErrSessionNotInProgress
	}
	completedAt, seconds := now, duration
	session.Status = models.SessionCompleted
	session.CompletedAt = &completedAt
	session.DurationSeconds = &seconds
	session.BestTimeBeaten = beaten
	session.PointsAwarded = session.EarnedPoints()

	perf.StreakDays = nextStreak(perf.LastCompletedAt, perf.StreakDays, now, loc)
	if beaten {
		best, bestSession := duration, session.ID
		perf.BestDurationSeconds = &best
		perf.BestSessionID = &bestSession
	}
	lastSession, lastAt := session.ID, now
	perf.LastCompletedSessionID = &lastSession
	perf.LastCompletedAt = &lastAt
	if err := perfRepo.UpsertPerformance(ctx, &perf); err != nil {
		return nil, err
	}

	achievements := repository.NewAchievementRepository(tx)
	metadata := map[string]any{
		"routine_id":       session.RoutineID,
		"duration_seconds": duration,
		"streak_days":      perf.StreakDays,
	}
	var awarded []string
	for _, code := range earnedBadges(session, beaten && hadBest, perf.StreakDays) {
		ok, err := achievements.AwardOnce(ctx, session.ChildProfileID, code, session.ID, now, metadata)
		if err != nil {
			return nil, err
		}
		if ok {
			awarded = append(awarded, code)
		}
	}
	return &completionOutcome{awarded: awarded, streakDays: perf.StreakDays}, nil
}

// committedSummary is built from the completed session alone, without history lookups
func committedSummary(session *models.SessionViewModel, streakDays int) *models.RoutineSuccessSummary {
	summary := &models.RoutineSuccessSummary{
		SessionID:      session.ID,
		RoutineName:    session.RoutineName,
		PointsEarned:   session.PointsAwarded,
		BestTimeBeaten: session.BestTimeBeaten,
		StreakDays:     streakDays,
		BadgesUnlocked: []models.ChildAchievement{},
	}
	if session.DurationSeconds != nil {
		duration := *session.DurationSeconds
		summary.TotalDurationSeconds = &duration
		summary.TotalTimeMinutes = (duration + 30) / 60
		if session.BestTimeBeaten {
			best := duration
			summary.BestDurationSeconds = &best
		}
	}
	return summary
}

// nextStreak extends the streak when the previous completion was on the
// previous local day and restarts it otherwise
func nextStreak(lastCompletedAt *time.Time, streak int, now time.Time, loc *time.Location) int {
	if lastCompletedAt == nil {
		return 1
	}
	today := now.In(loc).Format(models.SessionDateLayout)
	yesterday := now.In(loc).AddDate(0, 0, -1).Format(models.SessionDateLayout)

	switch lastCompletedAt.In(loc).Format(models.SessionDateLayout) {
	case today:
		return max(streak, 1)
	case yesterday:
		return streak + 1
	default:
		return 1
	}
}

// earnedBadges lists the badge codes a completion qualifies for
func earnedBadges(session *models.SessionViewModel, improvedBest bool, streak int) []string {
	codes := []string{BadgeFirstFinish}
	if improvedBest {
		codes = append(codes, BadgeBestTime)
	}
	if streak >= 3 {
		codes = append(codes, BadgeStreak3)
	}
	if streak >= 7 {
		codes = append(codes, BadgeStreak7)
	}

	optional, done := 0, 0
	for _, step := range session.Steps {
		if step.IsOptional {
			optional++
			if step.Status == models.StepCompleted {
				done++
			}
		}
	}
	if optional > 0 && optional == done {
		codes = append(codes, BadgeAllOptional)
	}
	return codes
}

func (s *CompletionService) notify(ctx context.Context, child *models.ChildWithFamily, routineName string, summary *models.RoutineSuccessSummary) {
	if s.notifier == nil || child.Family.NotifyEmail == "" {
		return
	}
	if err := s.notifier.SendRoutineCompleted(ctx, child.Family.NotifyEmail, child.Child.Name, routineName, summary); err != nil {
		log.Warn().Err(err).Str("session_id", summary.SessionID).Msg("Failed to send completion notification")
	}
}

func (s *CompletionService) reload(ctx context.Context, sessionID string) (*models.SessionViewModel, error) {
	session, err := s.sessions.GetSessionViewModel(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}
