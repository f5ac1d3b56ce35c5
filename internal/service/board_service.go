package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"routineboard/internal/models"
	"routineboard/internal/routine"
)

// ChildDirectory resolves a child together with its family settings
type ChildDirectory interface {
	GetChildWithFamily(ctx context.Context, childID string) (*models.ChildWithFamily, error)
}

// SessionReader loads the sessions a board is built from
type SessionReader interface {
	GetSessionWindow(ctx context.Context, sessionID string) (*models.SessionWindow, error)
	ListSessionsForChildBetween(ctx context.Context, childID, fromDate, toDate string) ([]models.SessionWindow, error)
}

// SummaryResolver computes the celebration summary of a completed session
type SummaryResolver interface {
	Resolve(ctx context.Context, sessionID string, session models.SessionViewModel, timezone string) (*models.RoutineSuccessSummary, error)
}

// BoardOptions carries the deployment settings the board depends on
type BoardOptions struct {
	Locale          routine.Locale
	UpcomingDays    int
	DefaultTimezone string
}

// BoardService assembles a child's routine board from stored sessions
type BoardService struct {
	children ChildDirectory
	sessions SessionReader
	resolver SummaryResolver
	opts     BoardOptions
}

// NewBoardService creates a new board service
func NewBoardService(children ChildDirectory, sessions SessionReader, resolver SummaryResolver, opts BoardOptions) *BoardService {
	if opts.Locale == "" {
		opts.Locale = routine.LocalePolish
	}
	return &BoardService{
		children: children,
		sessions: sessions,
		resolver: resolver,
		opts:     opts,
	}
}

// Board is a child's grouped board plus the sessions backing its entries
type Board struct {
	Child    models.ChildWithFamily
	Timezone string
	Today    string
	Data     models.RoutineBoardData
	Sessions []models.SessionViewModel
}

// Board groups the child's sessions for the family's current day
func (s *BoardService) Board(ctx context.Context, childID string, now time.Time) (*Board, error) {
	child, err := s.child(ctx, childID)
	if err != nil {
		return nil, err
	}
	timezone, loc, err := s.location(&child.Family)
	if err != nil {
		return nil, err
	}

	local := now.In(loc)
	today := local.Format(models.SessionDateLayout)
	until := local.AddDate(0, 0, s.opts.UpcomingDays).Format(models.SessionDateLayout)

	windows, err := s.sessions.ListSessionsForChildBetween(ctx, childID, today, until)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	data, sessions := groupBoard(windows, today, loc, now)
	return &Board{
		Child:    *child,
		Timezone: timezone,
		Today:    today,
		Data:     data,
		Sessions: sessions,
	}, nil
}

// Tabs renders the child's board as tabs
func (s *BoardService) Tabs(ctx context.Context, childID string, now time.Time) (*models.TabsModel, error) {
	board, err := s.Board(ctx, childID, now)
	if err != nil {
		return nil, err
	}
	return routine.BuildTabsModel(board.Data, board.Sessions, board.Timezone, now, routine.WithLocale(s.opts.Locale))
}

// SuccessSummary resolves the celebration view for one of the child's completed sessions
func (s *BoardService) SuccessSummary(ctx context.Context, childID, sessionID string) (*models.RoutineSuccessSummary, error) {
	window, err := s.ownedSession(ctx, childID, sessionID)
	if err != nil {
		return nil, err
	}
	if !window.Session.IsCompleted() {
		return nil, ErrSessionNotCompleted
	}

	child, err := s.child(ctx, childID)
	if err != nil {
		return nil, err
	}
	timezone, _, err := s.location(&child.Family)
	if err != nil {
		return nil, err
	}

	return s.resolver.Resolve(ctx, sessionID, window.Session, timezone)
}

func (s *BoardService) child(ctx context.Context, childID string) (*models.ChildWithFamily, error) {
	child, err := s.children.GetChildWithFamily(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to load child: %w", err)
	}
	if child == nil {
		return nil, ErrChildNotFound
	}
	return child, nil
}

func (s *BoardService) ownedSession(ctx context.Context, childID, sessionID string) (*models.SessionWindow, error) {
	window, err := s.sessions.GetSessionWindow(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if window == nil {
		return nil, ErrSessionNotFound
	}
	if window.Session.ChildProfileID != childID {
		return nil, ErrNotSessionOwner
	}
	return window, nil
}

// location returns the family zone, falling back to the deployment default
func (s *BoardService) location(family *models.Family) (string, *time.Location, error) {
	return resolveTimezone(family.Timezone, s.opts.DefaultTimezone)
}

func resolveTimezone(timezone, fallback string) (string, *time.Location, error) {
	if timezone == "" {
		timezone = fallback
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %q: %v", routine.ErrInvalidTimezone, timezone, err)
	}
	return timezone, loc, nil
}

// groupBoard places sessions dated today or later. The running session leads
// today, followed by sessions whose window is still open and then the ones
// that have already ended. Skipped sessions never appear.
func groupBoard(windows []models.SessionWindow, today string, loc *time.Location, now time.Time) (models.RoutineBoardData, []models.SessionViewModel) {
	data := models.RoutineBoardData{
		Today:     []models.RoutineBoardEntry{},
		Upcoming:  []models.RoutineBoardEntry{},
		Completed: []models.RoutineBoardEntry{},
	}
	sessions := make([]models.SessionViewModel, 0, len(windows))

	var running, open, ended []models.RoutineBoardEntry
	var completed []models.SessionWindow

	for _, w := range windows {
		session := w.Session
		entry := boardEntry(&w, loc)

		switch {
		case session.Status == models.SessionSkipped:
			continue
		case session.SessionDate == today && session.Status == models.SessionCompleted:
			entry.Status = models.BoardCompleted
			completed = append(completed, w)
		case session.SessionDate == today && session.Status == models.SessionInProgress:
			entry.Status = models.BoardToday
			running = append(running, entry)
		case session.SessionDate == today:
			entry.Status = models.BoardToday
			if entry.EndAt != nil && now.After(*entry.EndAt) {
				ended = append(ended, entry)
			} else {
				open = append(open, entry)
			}
		case session.Status == models.SessionScheduled:
			entry.Status = models.BoardUpcoming
			data.Upcoming = append(data.Upcoming, entry)
		default:
			continue
		}
		sessions = append(sessions, session)
	}

	data.Today = append(data.Today, running...)
	data.Today = append(data.Today, open...)
	data.Today = append(data.Today, ended...)

	sort.SliceStable(completed, func(i, j int) bool {
		a, b := completed[i].Session.CompletedAt, completed[j].Session.CompletedAt
		if a == nil || b == nil {
			return a != nil
		}
		return a.After(*b)
	})
	for i := range completed {
		entry := boardEntry(&completed[i], loc)
		entry.Status = models.BoardCompleted
		data.Completed = append(data.Completed, entry)
	}

	return data, sessions
}

func boardEntry(w *models.SessionWindow, loc *time.Location) models.RoutineBoardEntry {
	return models.RoutineBoardEntry{
		SessionID:       w.Session.ID,
		RoutineID:       w.Session.RoutineID,
		Name:            w.Session.RoutineName,
		StartAt:         routine.WallClock(w.Session.SessionDate, w.StartTime, loc),
		EndAt:           routine.WallClock(w.Session.SessionDate, w.EndTime, loc),
		PointsAvailable: w.Session.PointsAvailable(),
	}
}
