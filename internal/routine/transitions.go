package routine

import (
	"time"

	"routineboard/internal/models"
)

// role is where an entry sits on the board relative to the primary routine
type role int

const (
	rolePrimary role = iota
	roleSecondary
	roleUpcoming
	roleCompleted
)

func (r role) String() string {
	switch r {
	case rolePrimary:
		return "primary"
	case roleSecondary:
		return "secondary"
	case roleUpcoming:
		return "upcoming"
	default:
		return "completed"
	}
}

// phase is the session's position against its own window at the render instant
type phase int

const (
	phaseUnbounded phase = iota
	phaseBeforeWindow
	phaseInWindow
	phaseAfterWindow
	phaseInProgress
	phaseDone
)

func (p phase) String() string {
	switch p {
	case phaseUnbounded:
		return "unbounded"
	case phaseBeforeWindow:
		return "before-window"
	case phaseInWindow:
		return "in-window"
	case phaseAfterWindow:
		return "after-window"
	case phaseInProgress:
		return "in-progress"
	default:
		return "done"
	}
}

// transitionKey selects a row of the table. held is true while the primary
// session is running, which locks every other tab.
type transitionKey struct {
	role  role
	phase phase
	held  bool
}

type tabState struct {
	status     models.TabStatus
	current    bool
	inProgress bool
	locked     bool
	message    messageKind
	badge      badgeKind
}

// transitions is the complete state table. A key that is not listed is a board
// the builder refuses to render.
var transitions = map[transitionKey]tabState{
	// primary, nothing running
	{rolePrimary, phaseUnbounded, false}:    {status: models.TabActive, current: true, badge: badgeActive},
	{rolePrimary, phaseBeforeWindow, false}: {status: models.TabUpcoming, current: true, message: messageNotYetAvailable, badge: badgeSoon},
	{rolePrimary, phaseInWindow, false}:     {status: models.TabActive, current: true, badge: badgeActive},
	{rolePrimary, phaseAfterWindow, false}:  {status: models.TabUpcoming, current: true, message: messageWindowPassed, badge: badgeEnded},

	// primary running holds the lock
	{rolePrimary, phaseInProgress, true}: {status: models.TabActive, current: true, inProgress: true, badge: badgeInProgress},

	// other today entries and upcoming entries while free
	{roleSecondary, phaseUnbounded, false}:    {status: models.TabUpcoming, badge: badgeSoon},
	{roleSecondary, phaseBeforeWindow, false}: {status: models.TabUpcoming, message: messageNotYetAvailable, badge: badgeSoon},
	{roleSecondary, phaseInWindow, false}:     {status: models.TabUpcoming, badge: badgeSoon},
	{roleSecondary, phaseAfterWindow, false}:  {status: models.TabUpcoming, message: messageWindowPassed, badge: badgeEnded},
	{roleUpcoming, phaseUnbounded, false}:     {status: models.TabUpcoming, badge: badgeSoon},
	{roleUpcoming, phaseBeforeWindow, false}:  {status: models.TabUpcoming, message: messageNotYetAvailable, badge: badgeSoon},
	{roleUpcoming, phaseInWindow, false}:      {status: models.TabUpcoming, badge: badgeSoon},
	{roleUpcoming, phaseAfterWindow, false}:   {status: models.TabUpcoming, message: messageWindowPassed, badge: badgeEnded},

	// everything else is demoted while the primary runs
	{roleSecondary, phaseUnbounded, true}:    {status: models.TabUpcoming, locked: true, message: messageLockedByCurrent, badge: badgeSoon},
	{roleSecondary, phaseBeforeWindow, true}: {status: models.TabUpcoming, locked: true, message: messageLockedByCurrent, badge: badgeSoon},
	{roleSecondary, phaseInWindow, true}:     {status: models.TabUpcoming, locked: true, message: messageLockedByCurrent, badge: badgeSoon},
	{roleSecondary, phaseAfterWindow, true}:  {status: models.TabUpcoming, locked: true, message: messageLockedByCurrent, badge: badgeEnded},
	{roleUpcoming, phaseUnbounded, true}:     {status: models.TabUpcoming, locked: true, message: messageLockedByCurrent, badge: badgeSoon},
	{roleUpcoming, phaseBeforeWindow, true}:  {status: models.TabUpcoming, locked: true, message: messageLockedByCurrent, badge: badgeSoon},
	{roleUpcoming, phaseInWindow, true}:      {status: models.TabUpcoming, locked: true, message: messageLockedByCurrent, badge: badgeSoon},
	{roleUpcoming, phaseAfterWindow, true}:   {status: models.TabUpcoming, locked: true, message: messageLockedByCurrent, badge: badgeEnded},

	// completed entries keep their summary
	{roleCompleted, phaseDone, false}: {status: models.TabCompleted, badge: badgeDone},
	{roleCompleted, phaseDone, true}:  {status: models.TabCompleted, locked: true, badge: badgeDone},
}

func lookupTransition(key transitionKey) (tabState, bool) {
	state, ok := transitions[key]
	return state, ok
}

type windowBounds struct {
	start *time.Time
	end   *time.Time
}

// windowPhase places now against [start, end], inclusive on both ends.
// A window missing either bound is always open.
func windowPhase(bounds windowBounds, now time.Time) phase {
	if bounds.start == nil || bounds.end == nil {
		return phaseUnbounded
	}
	switch {
	case now.Before(*bounds.start):
		return phaseBeforeWindow
	case now.After(*bounds.end):
		return phaseAfterWindow
	default:
		return phaseInWindow
	}
}

// sessionPhase combines the session lifecycle with the window phase
func sessionPhase(session *models.SessionViewModel, bounds windowBounds, now time.Time) phase {
	switch session.Status {
	case models.SessionInProgress:
		return phaseInProgress
	case models.SessionCompleted:
		return phaseDone
	default:
		return windowPhase(bounds, now)
	}
}
