// Package routine derives the child's routine board state: which session is
// actionable now, how the others are locked or scheduled, and the summary
// shown after a session completes.
package routine

import (
	"fmt"
	"time"

	"routineboard/internal/models"
)

// SuccessHrefTemplate is the deep link into the post-completion view
const SuccessHrefTemplate = "/child/routines/%s/success"

// SuccessHref returns the celebration link for a session
func SuccessHref(sessionID string) string {
	return fmt.Sprintf(SuccessHrefTemplate, sessionID)
}

type buildOptions struct {
	locale Locale
}

// Option customizes BuildTabsModel
type Option func(*buildOptions)

// WithLocale selects the message catalog
func WithLocale(locale Locale) Option {
	return func(o *buildOptions) {
		o.locale = locale
	}
}

type placedEntry struct {
	entry models.RoutineBoardEntry
	role  role
}

// BuildTabsModel turns the board and its sessions into ordered tabs. It is a
// pure function of its inputs: the same arguments always yield the same model.
// Tabs are ordered today, upcoming, completed, keeping board order within each.
// ActiveSessionID is the in-progress tab if there is one, else today's primary.
func BuildTabsModel(board models.RoutineBoardData, sessions []models.SessionViewModel, timezone string, now time.Time, opts ...Option) (*models.TabsModel, error) {
	options := buildOptions{locale: LocalePolish}
	for _, opt := range opts {
		opt(&options)
	}
	messages := catalogFor(options.locale)

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTimezone, timezone, err)
	}
	now = now.In(loc)

	placed, err := placeEntries(board)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.SessionViewModel, len(sessions))
	for i := range sessions {
		byID[sessions[i].ID] = &sessions[i]
	}

	matched := make([]*models.SessionViewModel, len(placed))
	for i, p := range placed {
		session, ok := byID[p.entry.SessionID]
		if !ok {
			return nil, missingSession(p.entry.SessionID)
		}
		matched[i] = session
	}

	held := len(board.Today) > 0 && matched[0].Status == models.SessionInProgress

	model := &models.TabsModel{Tabs: make([]models.Tab, 0, len(placed))}
	for i, p := range placed {
		session := matched[i]
		bounds := windowBounds{start: p.entry.StartAt, end: p.entry.EndAt}
		key := transitionKey{role: p.role, phase: sessionPhase(session, bounds, now), held: held}

		state, ok := lookupTransition(key)
		if !ok {
			return nil, invalidBoard("session %q: no transition for %s routine in %s phase (status %s)",
				session.ID, key.role, key.phase, session.Status)
		}

		model.Tabs = append(model.Tabs, buildTab(p.entry, session, state, bounds, messages, loc))
	}

	model.ActiveSessionID = activeSessionID(model.Tabs, board)

	return model, nil
}

// activeSessionID picks the running tab, else the primary. The transition
// table only lets the primary run, so both choices agree on valid boards.
func activeSessionID(tabs []models.Tab, board models.RoutineBoardData) *string {
	for i := range tabs {
		if tabs[i].IsInProgress {
			id := tabs[i].ID
			return &id
		}
	}
	if len(board.Today) > 0 {
		id := board.Today[0].SessionID
		return &id
	}
	return nil
}

// placeEntries flattens the board in render order and rejects duplicate sessions
func placeEntries(board models.RoutineBoardData) ([]placedEntry, error) {
	placed := make([]placedEntry, 0, board.Len())
	seen := make(map[string]models.BoardStatus, board.Len())

	add := func(group models.BoardStatus, entries []models.RoutineBoardEntry, roleFor func(int) role) error {
		for i, entry := range entries {
			if entry.SessionID == "" {
				return invalidBoard("%s entry %d has no session id", group, i)
			}
			if prev, dup := seen[entry.SessionID]; dup {
				return invalidBoard("session %q appears in both %s and %s", entry.SessionID, prev, group)
			}
			seen[entry.SessionID] = group
			placed = append(placed, placedEntry{entry: entry, role: roleFor(i)})
		}
		return nil
	}

	todayRole := func(i int) role {
		if i == 0 {
			return rolePrimary
		}
		return roleSecondary
	}
	if err := add(models.BoardToday, board.Today, todayRole); err != nil {
		return nil, err
	}
	if err := add(models.BoardUpcoming, board.Upcoming, func(int) role { return roleUpcoming }); err != nil {
		return nil, err
	}
	if err := add(models.BoardCompleted, board.Completed, func(int) role { return roleCompleted }); err != nil {
		return nil, err
	}
	return placed, nil
}

func buildTab(entry models.RoutineBoardEntry, session *models.SessionViewModel, state tabState, bounds windowBounds, messages catalog, loc *time.Location) models.Tab {
	tasks := make([]models.TaskStep, len(session.Steps))
	copy(tasks, session.Steps)

	mandatory := make([]string, 0, len(tasks))
	completed := make([]models.TaskStep, 0, len(tasks))
	for _, step := range tasks {
		if !step.IsOptional {
			mandatory = append(mandatory, step.ID)
		}
		if step.Status == models.StepCompleted {
			completed = append(completed, step)
		}
	}

	tab := models.Tab{
		ID:                  session.ID,
		RoutineID:           entry.RoutineID,
		Name:                entry.Name,
		Status:              state.status,
		IsCurrent:           state.current,
		IsInProgress:        state.inProgress,
		IsLocked:            state.locked,
		BadgeLabel:          messages.badge(state.badge, bounds, loc),
		AvailabilityMessage: messages.availability(state.message, bounds, loc),
		Points:              entry.PointsAvailable,
		StartAt:             copyTime(entry.StartAt),
		EndAt:               copyTime(entry.EndAt),
		MandatoryTaskIDs:    mandatory,
		Tasks:               tasks,
		CompletedTasks:      completed,
		SuccessHref:         SuccessHref(session.ID),
	}
	if tab.Name == "" {
		tab.Name = session.RoutineName
	}
	tab.CanStart = tab.Status == models.TabActive && !tab.IsInProgress && !tab.IsLocked

	if state.status == models.TabCompleted {
		tab.Points = session.PointsAwarded
		tab.CompletionSummary = messages.completionSummary(session.CompletedAt, session.DurationSeconds, loc)
	}

	return tab
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
