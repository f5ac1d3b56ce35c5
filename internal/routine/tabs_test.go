package routine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routineboard/internal/models"
)

const testZone = "Europe/Warsaw"

func warsaw(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(testZone)
	require.NoError(t, err)
	return loc
}

// at returns 2026-03-10 hh:mm in the test zone
func at(t *testing.T, hh, mm int) time.Time {
	return time.Date(2026, 3, 10, hh, mm, 0, 0, warsaw(t))
}

func atPtr(t *testing.T, hh, mm int) *time.Time {
	v := at(t, hh, mm)
	return &v
}

func entry(t *testing.T, id string, status models.BoardStatus, start, end [2]int) models.RoutineBoardEntry {
	return models.RoutineBoardEntry{
		SessionID:       id,
		RoutineID:       "r-" + id,
		Name:            "Routine " + id,
		Status:          status,
		StartAt:         atPtr(t, start[0], start[1]),
		EndAt:           atPtr(t, end[0], end[1]),
		PointsAvailable: 30,
	}
}

func session(id string, status models.SessionStatus) models.SessionViewModel {
	return models.SessionViewModel{
		ID:             id,
		RoutineID:      "r-" + id,
		ChildProfileID: "kid-1",
		RoutineName:    "Routine " + id,
		SessionDate:    "2026-03-10",
		Status:         status,
		Steps: []models.TaskStep{
			{ID: id + "-brush", Title: "Brush teeth", Points: 10, Status: models.StepCompleted},
			{ID: id + "-dress", Title: "Get dressed", Points: 15, Status: models.StepPending},
			{ID: id + "-read", Title: "Read", Points: 5, IsOptional: true, Status: models.StepPending},
		},
	}
}

func TestBuildTabsModel_PrimaryInProgress(t *testing.T) {
	board := models.RoutineBoardData{
		Today: []models.RoutineBoardEntry{entry(t, "morning", models.BoardToday, [2]int{6, 0}, [2]int{7, 0})},
	}
	sessions := []models.SessionViewModel{session("morning", models.SessionInProgress)}

	model, err := BuildTabsModel(board, sessions, testZone, at(t, 6, 10))
	require.NoError(t, err)
	require.Len(t, model.Tabs, 1)

	tab := model.Tabs[0]
	assert.True(t, tab.IsCurrent)
	assert.True(t, tab.IsInProgress)
	assert.False(t, tab.IsLocked)
	assert.False(t, tab.CanStart)
	assert.Equal(t, models.TabActive, tab.Status)
	assert.Nil(t, tab.AvailabilityMessage)
	require.NotNil(t, model.ActiveSessionID)
	assert.Equal(t, "morning", *model.ActiveSessionID)
}

func TestBuildTabsModel_SecondaryLockedWhilePrimaryRuns(t *testing.T) {
	board := models.RoutineBoardData{
		Today: []models.RoutineBoardEntry{
			entry(t, "morning", models.BoardToday, [2]int{6, 0}, [2]int{13, 0}),
			entry(t, "evening", models.BoardToday, [2]int{18, 0}, [2]int{22, 0}),
		},
	}
	sessions := []models.SessionViewModel{
		session("morning", models.SessionInProgress),
		session("evening", models.SessionScheduled),
	}

	model, err := BuildTabsModel(board, sessions, testZone, at(t, 12, 5))
	require.NoError(t, err)
	require.Len(t, model.Tabs, 2)

	secondary := model.Tabs[1]
	assert.Equal(t, models.TabUpcoming, secondary.Status)
	assert.True(t, secondary.IsLocked)
	assert.False(t, secondary.IsCurrent)
	require.NotNil(t, secondary.AvailabilityMessage)
	assert.Equal(t, "Ta rutyna będzie dostępna po ukończeniu aktualnej misji.", *secondary.AvailabilityMessage)
}

func TestBuildTabsModel_PrimaryInProgressLocksEverythingElse(t *testing.T) {
	board := models.RoutineBoardData{
		Today: []models.RoutineBoardEntry{
			entry(t, "morning", models.BoardToday, [2]int{6, 0}, [2]int{9, 0}),
			entry(t, "noon", models.BoardToday, [2]int{12, 0}, [2]int{13, 0}),
			entry(t, "late", models.BoardToday, [2]int{5, 0}, [2]int{6, 0}),
		},
		Upcoming:  []models.RoutineBoardEntry{entry(t, "tomorrow", models.BoardUpcoming, [2]int{6, 0}, [2]int{7, 0})},
		Completed: []models.RoutineBoardEntry{entry(t, "done", models.BoardCompleted, [2]int{5, 0}, [2]int{5, 30})},
	}
	sessions := []models.SessionViewModel{
		session("morning", models.SessionInProgress),
		session("noon", models.SessionScheduled),
		session("late", models.SessionScheduled),
		session("tomorrow", models.SessionScheduled),
		session("done", models.SessionCompleted),
	}
	sessions[4].CompletedAt = atPtr(t, 5, 20)

	model, err := BuildTabsModel(board, sessions, testZone, at(t, 8, 0), WithLocale(LocaleEnglish))
	require.NoError(t, err)
	require.Len(t, model.Tabs, 5)

	active := 0
	for i, tab := range model.Tabs {
		if tab.Status == models.TabActive {
			active++
		}
		if i == 0 {
			assert.False(t, tab.IsLocked)
			continue
		}
		assert.True(t, tab.IsLocked, "tab %s should be locked", tab.ID)
		assert.False(t, tab.IsCurrent)
		if tab.Status != models.TabCompleted {
			require.NotNil(t, tab.AvailabilityMessage)
			assert.Equal(t, "This routine will be available once the current mission is finished.", *tab.AvailabilityMessage)
		}
	}
	assert.Equal(t, 1, active)

	done := model.Tab("done")
	require.NotNil(t, done)
	assert.Nil(t, done.AvailabilityMessage)
	require.NotNil(t, done.CompletionSummary)
	assert.Equal(t, "Last completed at 05:20.", *done.CompletionSummary)
}

func TestBuildTabsModel_PrimaryWindowPhases(t *testing.T) {
	tests := []struct {
		name        string
		now         [2]int
		wantStatus  models.TabStatus
		wantMessage string
		wantBadge   string
		canStart    bool
	}{
		{
			name:        "before start",
			now:         [2]int{5, 30},
			wantStatus:  models.TabUpcoming,
			wantMessage: "This routine is inactive right now. It will be available at 06:00.",
			wantBadge:   "Soon · 06:00",
		},
		{
			name:       "exactly at start",
			now:        [2]int{6, 0},
			wantStatus: models.TabActive,
			wantBadge:  "Active",
			canStart:   true,
		},
		{
			name:       "exactly at end",
			now:        [2]int{7, 0},
			wantStatus: models.TabActive,
			wantBadge:  "Active",
			canStart:   true,
		},
		{
			name:        "past end",
			now:         [2]int{12, 0},
			wantStatus:  models.TabUpcoming,
			wantMessage: "This routine was available until 07:00. Try again at the next scheduled time.",
			wantBadge:   "Ended · 07:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board := models.RoutineBoardData{
				Today: []models.RoutineBoardEntry{entry(t, "morning", models.BoardToday, [2]int{6, 0}, [2]int{7, 0})},
			}
			sessions := []models.SessionViewModel{session("morning", models.SessionScheduled)}

			model, err := BuildTabsModel(board, sessions, testZone, at(t, tt.now[0], tt.now[1]), WithLocale(LocaleEnglish))
			require.NoError(t, err)

			tab := model.Tabs[0]
			assert.Equal(t, tt.wantStatus, tab.Status)
			assert.True(t, tab.IsCurrent)
			assert.False(t, tab.IsLocked)
			assert.Equal(t, tt.canStart, tab.CanStart)
			assert.Equal(t, tt.wantBadge, tab.BadgeLabel)
			if tt.wantMessage == "" {
				assert.Nil(t, tab.AvailabilityMessage)
			} else {
				require.NotNil(t, tab.AvailabilityMessage)
				assert.Equal(t, tt.wantMessage, *tab.AvailabilityMessage)
			}
			require.NotNil(t, model.ActiveSessionID)
			assert.Equal(t, "morning", *model.ActiveSessionID)
		})
	}
}

func TestBuildTabsModel_PastWindowPolish(t *testing.T) {
	board := models.RoutineBoardData{
		Today: []models.RoutineBoardEntry{entry(t, "morning", models.BoardToday, [2]int{6, 0}, [2]int{7, 0})},
	}
	sessions := []models.SessionViewModel{session("morning", models.SessionScheduled)}

	model, err := BuildTabsModel(board, sessions, testZone, at(t, 12, 0))
	require.NoError(t, err)

	require.NotNil(t, model.Tabs[0].AvailabilityMessage)
	assert.Equal(t, "Ta rutyna była dostępna do 07:00. Spróbuj ponownie w kolejnym terminie.", *model.Tabs[0].AvailabilityMessage)
}

func TestBuildTabsModel_UpcomingEntriesFollowTheirOwnWindow(t *testing.T) {
	board := models.RoutineBoardData{
		Today: []models.RoutineBoardEntry{entry(t, "morning", models.BoardToday, [2]int{6, 0}, [2]int{7, 0})},
		Upcoming: []models.RoutineBoardEntry{
			entry(t, "evening", models.BoardUpcoming, [2]int{18, 0}, [2]int{20, 0}),
			entry(t, "lunch", models.BoardUpcoming, [2]int{6, 30}, [2]int{8, 0}),
			entry(t, "dawn", models.BoardUpcoming, [2]int{5, 0}, [2]int{6, 0}),
		},
	}
	sessions := []models.SessionViewModel{
		session("morning", models.SessionScheduled),
		session("evening", models.SessionScheduled),
		session("lunch", models.SessionScheduled),
		session("dawn", models.SessionScheduled),
	}

	model, err := BuildTabsModel(board, sessions, testZone, at(t, 6, 45), WithLocale(LocaleEnglish))
	require.NoError(t, err)

	evening := model.Tab("evening")
	require.NotNil(t, evening)
	assert.Equal(t, models.TabUpcoming, evening.Status)
	assert.False(t, evening.IsLocked)
	require.NotNil(t, evening.AvailabilityMessage)
	assert.Contains(t, *evening.AvailabilityMessage, "18:00")
	assert.Equal(t, "Soon · 18:00", evening.BadgeLabel)

	lunch := model.Tab("lunch")
	require.NotNil(t, lunch)
	assert.Equal(t, models.TabUpcoming, lunch.Status)
	assert.Nil(t, lunch.AvailabilityMessage)

	dawn := model.Tab("dawn")
	require.NotNil(t, dawn)
	require.NotNil(t, dawn.AvailabilityMessage)
	assert.Contains(t, *dawn.AvailabilityMessage, "06:00")
	assert.Equal(t, "Ended · 06:00", dawn.BadgeLabel)
}

func TestBuildTabsModel_UnboundedWindow(t *testing.T) {
	board := models.RoutineBoardData{
		Today: []models.RoutineBoardEntry{{SessionID: "any", RoutineID: "r-any", Name: "Anytime", StartAt: atPtr(t, 9, 0)}},
	}
	sessions := []models.SessionViewModel{session("any", models.SessionScheduled)}

	model, err := BuildTabsModel(board, sessions, testZone, at(t, 23, 0))
	require.NoError(t, err)

	tab := model.Tabs[0]
	assert.Equal(t, models.TabActive, tab.Status)
	assert.Nil(t, tab.AvailabilityMessage)
	assert.True(t, tab.CanStart)
}

func TestBuildTabsModel_CompletedTab(t *testing.T) {
	completedAt := time.Date(2026, 3, 10, 5, 42, 0, 0, time.UTC) // 06:42 in Warsaw
	duration := 1530

	done := session("done", models.SessionCompleted)
	done.CompletedAt = &completedAt
	done.DurationSeconds = &duration
	done.PointsAwarded = 25

	board := models.RoutineBoardData{
		Completed: []models.RoutineBoardEntry{entry(t, "done", models.BoardCompleted, [2]int{6, 0}, [2]int{7, 0})},
	}

	model, err := BuildTabsModel(board, []models.SessionViewModel{done}, testZone, at(t, 8, 0), WithLocale(LocaleEnglish))
	require.NoError(t, err)

	tab := model.Tabs[0]
	assert.Equal(t, models.TabCompleted, tab.Status)
	assert.False(t, tab.IsLocked)
	assert.Equal(t, 25, tab.Points)
	assert.Equal(t, "Done", tab.BadgeLabel)
	require.NotNil(t, tab.CompletionSummary)
	assert.Equal(t, "Last completed at 06:42. Duration: 26 min.", *tab.CompletionSummary)
	require.Len(t, tab.CompletedTasks, 1)
	assert.Equal(t, "done-brush", tab.CompletedTasks[0].ID)
	assert.Nil(t, model.ActiveSessionID)
}

func TestBuildTabsModel_TaskBreakdown(t *testing.T) {
	board := models.RoutineBoardData{
		Today: []models.RoutineBoardEntry{entry(t, "morning", models.BoardToday, [2]int{6, 0}, [2]int{7, 0})},
	}
	model, err := BuildTabsModel(board, []models.SessionViewModel{session("morning", models.SessionScheduled)}, testZone, at(t, 6, 30))
	require.NoError(t, err)

	tab := model.Tabs[0]
	assert.Equal(t, []string{"morning-brush", "morning-dress"}, tab.MandatoryTaskIDs)
	assert.Len(t, tab.Tasks, 3)
	assert.Len(t, tab.CompletedTasks, 1)
	assert.Equal(t, "/child/routines/morning/success", tab.SuccessHref)
	assert.Equal(t, 30, tab.Points)
}

func TestBuildTabsModel_OrderingAndActiveSession(t *testing.T) {
	board := models.RoutineBoardData{
		Completed: []models.RoutineBoardEntry{entry(t, "c", models.BoardCompleted, [2]int{5, 0}, [2]int{6, 0})},
		Upcoming:  []models.RoutineBoardEntry{entry(t, "u", models.BoardUpcoming, [2]int{18, 0}, [2]int{19, 0})},
		Today: []models.RoutineBoardEntry{
			entry(t, "t1", models.BoardToday, [2]int{6, 0}, [2]int{9, 0}),
			entry(t, "t2", models.BoardToday, [2]int{10, 0}, [2]int{11, 0}),
		},
	}
	sessions := []models.SessionViewModel{
		session("u", models.SessionScheduled),
		session("c", models.SessionCompleted),
		session("t2", models.SessionScheduled),
		session("t1", models.SessionScheduled),
	}

	model, err := BuildTabsModel(board, sessions, testZone, at(t, 7, 0))
	require.NoError(t, err)

	var order []string
	for _, tab := range model.Tabs {
		order = append(order, tab.ID)
	}
	assert.Equal(t, []string{"t1", "t2", "u", "c"}, order)
	require.NotNil(t, model.ActiveSessionID)
	assert.Equal(t, "t1", *model.ActiveSessionID)

	second := model.Tab("t2")
	assert.Equal(t, models.TabUpcoming, second.Status)
	assert.False(t, second.IsLocked)
	assert.False(t, second.IsCurrent)
}

func TestBuildTabsModel_Idempotent(t *testing.T) {
	board := models.RoutineBoardData{
		Today: []models.RoutineBoardEntry{
			entry(t, "morning", models.BoardToday, [2]int{6, 0}, [2]int{7, 0}),
			entry(t, "evening", models.BoardToday, [2]int{18, 0}, [2]int{20, 0}),
		},
	}
	sessions := []models.SessionViewModel{
		session("morning", models.SessionInProgress),
		session("evening", models.SessionScheduled),
	}
	now := at(t, 6, 20)

	first, err := BuildTabsModel(board, sessions, testZone, now)
	require.NoError(t, err)
	second, err := BuildTabsModel(board, sessions, testZone, now)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuildTabsModel_FormatsInFamilyZone(t *testing.T) {
	start := time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 10, 19, 0, 0, 0, time.UTC)
	board := models.RoutineBoardData{
		Today: []models.RoutineBoardEntry{{SessionID: "e", RoutineID: "r", Name: "Evening", StartAt: &start, EndAt: &end}},
	}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	model, err := BuildTabsModel(board, []models.SessionViewModel{session("e", models.SessionScheduled)}, "America/New_York", now, WithLocale(LocaleEnglish))
	require.NoError(t, err)

	require.NotNil(t, model.Tabs[0].AvailabilityMessage)
	assert.Equal(t, "This routine is inactive right now. It will be available at 13:00.", *model.Tabs[0].AvailabilityMessage)
}

func TestBuildTabsModel_ContractViolations(t *testing.T) {
	morning := entry(t, "morning", models.BoardToday, [2]int{6, 0}, [2]int{7, 0})

	tests := []struct {
		name     string
		board    models.RoutineBoardData
		sessions []models.SessionViewModel
		zone     string
		wantErr  error
	}{
		{
			name:    "missing session",
			board:   models.RoutineBoardData{Today: []models.RoutineBoardEntry{morning}},
			zone:    testZone,
			wantErr: ErrMissingSessionData,
		},
		{
			name: "duplicate across groups",
			board: models.RoutineBoardData{
				Today:    []models.RoutineBoardEntry{morning},
				Upcoming: []models.RoutineBoardEntry{morning},
			},
			sessions: []models.SessionViewModel{session("morning", models.SessionScheduled)},
			zone:     testZone,
			wantErr:  ErrInvalidBoardState,
		},
		{
			name: "running session that is not primary",
			board: models.RoutineBoardData{
				Today: []models.RoutineBoardEntry{morning, entry(t, "evening", models.BoardToday, [2]int{18, 0}, [2]int{19, 0})},
			},
			sessions: []models.SessionViewModel{
				session("morning", models.SessionScheduled),
				session("evening", models.SessionInProgress),
			},
			zone:    testZone,
			wantErr: ErrInvalidBoardState,
		},
		{
			name:     "completed session in today",
			board:    models.RoutineBoardData{Today: []models.RoutineBoardEntry{morning}},
			sessions: []models.SessionViewModel{session("morning", models.SessionCompleted)},
			zone:     testZone,
			wantErr:  ErrInvalidBoardState,
		},
		{
			name:     "unfinished session in completed",
			board:    models.RoutineBoardData{Completed: []models.RoutineBoardEntry{morning}},
			sessions: []models.SessionViewModel{session("morning", models.SessionScheduled)},
			zone:     testZone,
			wantErr:  ErrInvalidBoardState,
		},
		{
			name:     "unknown zone",
			board:    models.RoutineBoardData{Today: []models.RoutineBoardEntry{morning}},
			sessions: []models.SessionViewModel{session("morning", models.SessionScheduled)},
			zone:     "Mars/Olympus",
			wantErr:  ErrInvalidTimezone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, err := BuildTabsModel(tt.board, tt.sessions, tt.zone, at(t, 6, 30))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, model)
		})
	}
}

func TestActiveSessionID(t *testing.T) {
	board := models.RoutineBoardData{Today: []models.RoutineBoardEntry{{SessionID: "t1"}, {SessionID: "t2"}}}

	tests := []struct {
		name  string
		tabs  []models.Tab
		board models.RoutineBoardData
		want  *string
	}{
		{
			name:  "running tab wins over primary",
			tabs:  []models.Tab{{ID: "t1"}, {ID: "t2", IsInProgress: true}},
			board: board,
			want:  strPtr("t2"),
		},
		{
			name:  "primary when nothing runs",
			tabs:  []models.Tab{{ID: "t1"}, {ID: "t2"}},
			board: board,
			want:  strPtr("t1"),
		},
		{
			name: "empty board",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, activeSessionID(tt.tabs, tt.board))
		})
	}
}

func strPtr(s string) *string { return &s }
