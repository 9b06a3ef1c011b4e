package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectNewRecordDropsIdentity(t *testing.T) {
	p := Project{ProjectID: 42, Name: "Trip", Description: "Packing", IsTemplate: true}

	rec := p.NewRecord()

	assert.Equal(t, int64(0), rec.ProjectID)
	assert.Equal(t, "Trip", rec.Name)
	assert.Equal(t, "Packing", rec.Description)
	assert.True(t, rec.IsTemplate)
}

func TestStepNewRecordInjectsOwner(t *testing.T) {
	s := Step{StepID: 9, Name: "Passport", Description: "check expiry"}

	rec := s.NewRecord(7)

	assert.Equal(t, StepRecord{Name: "Passport", Description: "check expiry", ProjectOwnerID: 7}, rec)
}

func TestNewStepRecords(t *testing.T) {
	tests := []struct {
		name  string
		steps []Step
		want  []StepRecord
	}{
		{
			name:  "nil input yields empty slice",
			steps: nil,
			want:  []StepRecord{},
		},
		{
			name:  "order preserved and identities dropped",
			steps: []Step{{StepID: 5, Name: "a"}, {StepID: 3, Name: "b"}},
			want: []StepRecord{
				{Name: "a", ProjectOwnerID: 2},
				{Name: "b", ProjectOwnerID: 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewStepRecords(tt.steps, 2)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProjectFromRecordCarriesIdentity(t *testing.T) {
	rec := ProjectRecord{ProjectID: 3, Name: "Trip", Description: "d"}
	steps := []StepRecord{
		{StepID: 10, Name: "Passport", ProjectOwnerID: 3},
		{StepID: 11, Name: "Tickets", ProjectOwnerID: 3},
	}

	p := ProjectFromRecord(rec, steps)

	assert.Equal(t, int64(3), p.ProjectID)
	assert.False(t, p.IsTemplate)
	assert.Equal(t, []Step{{StepID: 10, Name: "Passport"}, {StepID: 11, Name: "Tickets"}}, p.Steps)
}

func TestProjectWithStepsDomainEmptySteps(t *testing.T) {
	pw := ProjectWithSteps{Project: ProjectRecord{ProjectID: 1, Name: "x"}}

	p := pw.Domain()

	assert.NotNil(t, p.Steps)
	assert.Empty(t, p.Steps)
}

func TestHeaderFromRecord(t *testing.T) {
	tests := []struct {
		name      string
		rec       ProjectRecord
		wantName  string
		wantLabel string
	}{
		{
			name:      "clean template name",
			rec:       ProjectRecord{ProjectID: 1, Name: "Camping", IsTemplate: true},
			wantName:  "Camping",
			wantLabel: "Camping (Template)",
		},
		{
			name:      "legacy suffix trimmed for display",
			rec:       ProjectRecord{ProjectID: 2, Name: "Camping (Template)", IsTemplate: true},
			wantName:  "Camping",
			wantLabel: "Camping (Template)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := HeaderFromRecord(tt.rec)
			assert.Equal(t, tt.rec.ProjectID, h.ProjectID)
			assert.Equal(t, tt.wantName, h.Name)
			assert.Equal(t, tt.wantLabel, h.Label())
		})
	}
}

func TestDisplayNameLeavesLiveProjectsAlone(t *testing.T) {
	rec := ProjectRecord{Name: "Trip (Template)"}
	assert.Equal(t, "Trip (Template)", rec.DisplayName())
}
