package routine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"routineboard/internal/models"
)

func TestWindowPhase(t *testing.T) {
	start := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)
	bounded := windowBounds{start: &start, end: &end}

	tests := []struct {
		name   string
		bounds windowBounds
		now    time.Time
		want   phase
	}{
		{"before", bounded, start.Add(-time.Second), phaseBeforeWindow},
		{"at start", bounded, start, phaseInWindow},
		{"inside", bounded, start.Add(30 * time.Minute), phaseInWindow},
		{"at end", bounded, end, phaseInWindow},
		{"after", bounded, end.Add(time.Second), phaseAfterWindow},
		{"no start", windowBounds{end: &end}, end.Add(time.Hour), phaseUnbounded},
		{"no end", windowBounds{start: &start}, start.Add(-time.Hour), phaseUnbounded},
		{"no bounds", windowBounds{}, start, phaseUnbounded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, windowPhase(tt.bounds, tt.now))
		})
	}
}

func TestSessionPhase(t *testing.T) {
	start := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	bounds := windowBounds{start: &start, end: &end}
	late := end.Add(time.Hour)

	assert.Equal(t, phaseInProgress, sessionPhase(&models.SessionViewModel{Status: models.SessionInProgress}, bounds, late))
	assert.Equal(t, phaseDone, sessionPhase(&models.SessionViewModel{Status: models.SessionCompleted}, bounds, late))
	assert.Equal(t, phaseAfterWindow, sessionPhase(&models.SessionViewModel{Status: models.SessionScheduled}, bounds, late))
}

func TestTransitionTable(t *testing.T) {
	t.Run("only the primary is ever current", func(t *testing.T) {
		for key, state := range transitions {
			assert.Equal(t, key.role == rolePrimary, state.current, "key %s/%s/%v", key.role, key.phase, key.held)
		}
	})

	t.Run("the running primary is the only active tab while held", func(t *testing.T) {
		for key, state := range transitions {
			if !key.held {
				continue
			}
			if key.role == rolePrimary {
				assert.Equal(t, models.TabActive, state.status)
				assert.False(t, state.locked)
				continue
			}
			assert.NotEqual(t, models.TabActive, state.status, "key %s/%s", key.role, key.phase)
			assert.True(t, state.locked, "key %s/%s", key.role, key.phase)
		}
	})

	t.Run("nothing is locked while free", func(t *testing.T) {
		for key, state := range transitions {
			if !key.held {
				assert.False(t, state.locked, "key %s/%s", key.role, key.phase)
			}
		}
	})

	t.Run("contradictions have no row", func(t *testing.T) {
		missing := []transitionKey{
			{rolePrimary, phaseInProgress, false},
			{rolePrimary, phaseDone, false},
			{rolePrimary, phaseInWindow, true},
			{roleSecondary, phaseInProgress, false},
			{roleSecondary, phaseInProgress, true},
			{roleUpcoming, phaseDone, false},
			{roleCompleted, phaseInWindow, false},
			{roleCompleted, phaseInProgress, true},
		}
		for _, key := range missing {
			_, ok := lookupTransition(key)
			assert.False(t, ok, "key %s/%s/%v", key.role, key.phase, key.held)
		}
	})

	t.Run("held locks carry the lock message", func(t *testing.T) {
		for key, state := range transitions {
			if key.held && key.role != rolePrimary && key.role != roleCompleted {
				assert.Equal(t, messageLockedByCurrent, state.message)
			}
		}
	})
}

func TestRoleAndPhaseNames(t *testing.T) {
	assert.Equal(t, "primary", rolePrimary.String())
	assert.Equal(t, "completed", roleCompleted.String())
	assert.Equal(t, "before-window", phaseBeforeWindow.String())
	assert.Equal(t, "done", phaseDone.String())
}
