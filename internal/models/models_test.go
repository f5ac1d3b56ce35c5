package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestSessionPendingMandatorySteps(t *testing.T) {
	tests := []struct {
		name  string
		steps []TaskStep
		want  []string
	}{
		{
			name: "all mandatory done",
			steps: []TaskStep{
				{ID: "a", Status: StepCompleted},
				{ID: "b", Status: StepCompleted},
			},
			want: nil,
		},
		{
			name: "optional pending is ignored",
			steps: []TaskStep{
				{ID: "a", Status: StepCompleted},
				{ID: "b", IsOptional: true, Status: StepPending},
			},
			want: nil,
		},
		{
			name: "skipped mandatory still pending",
			steps: []TaskStep{
				{ID: "a", Status: StepSkipped},
				{ID: "b", Status: StepPending},
				{ID: "c", Status: StepCompleted},
			},
			want: []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := SessionViewModel{Steps: tt.steps}
			var got []string
			for _, step := range session.PendingMandatorySteps() {
				got = append(got, step.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSessionPointsAndDuration(t *testing.T) {
	session := SessionViewModel{
		Steps: []TaskStep{
			{ID: "brush", Points: 10, DurationSeconds: intPtr(120), Status: StepCompleted},
			{ID: "dress", Points: 5, DurationSeconds: intPtr(300), Status: StepPending},
			{ID: "bed", Points: 3, IsOptional: true, Status: StepSkipped},
		},
	}

	assert.Equal(t, 10, session.EarnedPoints())
	assert.Equal(t, 420, session.PlannedDurationSeconds())
	assert.NotNil(t, session.Step("dress"))
	assert.Nil(t, session.Step("missing"))
}

func TestRoutinePointsAvailable(t *testing.T) {
	routine := Routine{Tasks: []RoutineTask{{Points: 10}, {Points: 15}, {Points: 0}}}
	assert.Equal(t, 25, routine.PointsAvailable())
}

func TestTabsModelLookup(t *testing.T) {
	model := TabsModel{Tabs: []Tab{
		{ID: "s1", MandatoryTaskIDs: []string{"t1", "t2"}},
		{ID: "s2"},
	}}

	tab := model.Tab("s1")
	if assert.NotNil(t, tab) {
		assert.True(t, tab.IsMandatory("t2"))
		assert.False(t, tab.IsMandatory("t3"))
	}
	assert.Nil(t, model.Tab("nope"))
}

func TestSessionPointsAvailable(t *testing.T) {
	session := SessionViewModel{Steps: []TaskStep{{Points: 4}, {Points: 6, IsOptional: true}}}
	assert.Equal(t, 10, session.PointsAvailable())
}
