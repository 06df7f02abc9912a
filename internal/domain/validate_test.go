package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProject() *Project {
	return &Project{
		ID:     "p1",
		Status: StatusDraft,
		Buildings: []*Building{
			{ID: "b1", Name: "Main", Areas: []*Area{{ID: "a1", Name: "Store",
				Rooms:       []*Room{{ID: "r1", Name: "Office"}},
				Commodities: []*Commodity{{ID: "c1", Name: "Paper", StackingHeight: 2.5}},
			}}},
		},
		SpecialRisks:  []*SpecialRisk{{ID: "s1", RiskType: RiskGenerator}},
		Extinguishers: []*Extinguisher{{ID: "e1", ServiceDate: "2024-03-01"}},
	}
}

func TestProjectValidate_OK(t *testing.T) {
	require.NoError(t, validProject().Validate())
}

func TestProjectValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Project)
	}{
		{"unknown status", func(p *Project) { p.Status = "archived" }},
		{"empty status", func(p *Project) { p.Status = "" }},
		{"negative year", func(p *Project) { p.ConstructionYear = -1 }},
		{"bad assessment date", func(p *Project) { p.AssessmentDate = "01/02/2024" }},
		{"unknown risk type", func(p *Project) { p.SpecialRisks[0].RiskType = "volcano" }},
		{"negative floor area", func(p *Project) { p.Buildings[0].FloorArea = -10 }},
		{"negative stacking height", func(p *Project) { p.Buildings[0].Areas[0].Commodities[0].StackingHeight = -1 }},
		{"duplicate child id", func(p *Project) { p.Buildings[0].Areas[0].Rooms[0].ID = "b1" }},
		{"child id equals project id", func(p *Project) { p.SpecialRisks[0].ID = "p1" }},
		{"nil building", func(p *Project) { p.Buildings = append(p.Buildings, nil) }},
		{"bad service date", func(p *Project) { p.Extinguishers[0].ServiceDate = "soon" }},
		{"negative hydrant pressure", func(p *Project) { p.Hydrants = []*Hydrant{{ID: "h1", Pressure: -1}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProject()
			tt.mutate(p)
			err := p.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
		})
	}
}

func TestProjectValidate_EmptyIDsAllowed(t *testing.T) {
	p := &Project{Status: StatusDraft, Buildings: []*Building{{Name: "A"}, {Name: "B"}}}
	assert.NoError(t, p.Validate())
}
