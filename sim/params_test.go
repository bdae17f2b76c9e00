package sim

import (
	"strings"
	"testing"
)

func validParams() Params {
	return Params{
		SeparationWeight: 1.5,
		AlignmentWeight:  1.0,
		CohesionWeight:   1.0,
		SeparationRadius: 25,
		AlignmentRadius:  50,
		CohesionRadius:   50,
		MaxSpeed:         240,
		MaxForce:         360,
		WorldWidth:       1000,
		WorldHeight:      1000,
		AgentCount:       100,
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Params)
		hardCap int
		wantErr string
	}{
		{"valid", func(p *Params) {}, 0, ""},
		{"zero agents is valid", func(p *Params) { p.AgentCount = 0 }, 0, ""},
		{"negative separation weight", func(p *Params) { p.SeparationWeight = -0.1 }, 0, "weights"},
		{"negative cohesion weight", func(p *Params) { p.CohesionWeight = -1 }, 0, "weights"},
		{"zero separation radius", func(p *Params) { p.SeparationRadius = 0 }, 0, "radii"},
		{"negative alignment radius", func(p *Params) { p.AlignmentRadius = -5 }, 0, "radii"},
		{"zero max speed", func(p *Params) { p.MaxSpeed = 0 }, 0, "max speed"},
		{"zero max force", func(p *Params) { p.MaxForce = 0 }, 0, "max force"},
		{"zero world width", func(p *Params) { p.WorldWidth = 0 }, 0, "world"},
		{"negative world height", func(p *Params) { p.WorldHeight = -10 }, 0, "world"},
		{"negative agent count", func(p *Params) { p.AgentCount = -1 }, 0, "agent count"},
		{"count above hard cap", func(p *Params) { p.AgentCount = 1001 }, 1000, "capacity"},
		{"count at hard cap", func(p *Params) { p.AgentCount = 1000 }, 1000, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := validParams()
			tc.mutate(&p)
			err := p.Validate(tc.hardCap)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestMaxRadius(t *testing.T) {
	p := validParams()
	if got := p.MaxRadius(); got != 50 {
		t.Errorf("MaxRadius = %v, want 50", got)
	}
	p.SeparationRadius = 80
	if got := p.MaxRadius(); got != 80 {
		t.Errorf("MaxRadius = %v, want 80", got)
	}
}
