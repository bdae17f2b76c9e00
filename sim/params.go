// Package sim implements the flocking engine: the agent store, the
// separation/alignment/cohesion force pipeline, the fixed-timestep
// integrator, and the step driver that orchestrates them.
package sim

import (
	"fmt"
	"math"

	"github.com/pthm-cable/murmur/config"
)

// Params holds the simulation parameters adjustable at runtime.
// Changes are staged through Simulator.ApplyParams and take effect at
// the next tick boundary, never mid-tick.
type Params struct {
	SeparationWeight float64
	AlignmentWeight  float64
	CohesionWeight   float64

	SeparationRadius float64
	AlignmentRadius  float64
	CohesionRadius   float64

	MaxSpeed float64
	MaxForce float64

	WorldWidth  float64
	WorldHeight float64

	AgentCount int
}

// FromConfig builds Params from the loaded configuration.
func FromConfig(cfg *config.Config) Params {
	return Params{
		SeparationWeight: cfg.Flock.SeparationWeight,
		AlignmentWeight:  cfg.Flock.AlignmentWeight,
		CohesionWeight:   cfg.Flock.CohesionWeight,
		SeparationRadius: cfg.Flock.SeparationRadius,
		AlignmentRadius:  cfg.Flock.AlignmentRadius,
		CohesionRadius:   cfg.Flock.CohesionRadius,
		MaxSpeed:         cfg.Flock.MaxSpeed,
		MaxForce:         cfg.Flock.MaxForce,
		WorldWidth:       cfg.World.Width,
		WorldHeight:      cfg.World.Height,
		AgentCount:       cfg.Population.Initial,
	}
}

// Validate checks the parameters against the rules in the external
// interface contract: out-of-range values are rejected, not clamped,
// so a UI can surface the rejection. hardCap bounds AgentCount; pass
// 0 to skip the capacity check.
func (p Params) Validate(hardCap int) error {
	if p.SeparationWeight < 0 || p.AlignmentWeight < 0 || p.CohesionWeight < 0 {
		return fmt.Errorf("sim: rule weights must be >= 0 (got %v, %v, %v)",
			p.SeparationWeight, p.AlignmentWeight, p.CohesionWeight)
	}
	if p.SeparationRadius <= 0 || p.AlignmentRadius <= 0 || p.CohesionRadius <= 0 {
		return fmt.Errorf("sim: perception radii must be > 0 (got %v, %v, %v)",
			p.SeparationRadius, p.AlignmentRadius, p.CohesionRadius)
	}
	if p.MaxSpeed <= 0 {
		return fmt.Errorf("sim: max speed must be > 0 (got %v)", p.MaxSpeed)
	}
	if p.MaxForce <= 0 {
		return fmt.Errorf("sim: max force must be > 0 (got %v)", p.MaxForce)
	}
	if p.WorldWidth <= 0 || p.WorldHeight <= 0 {
		return fmt.Errorf("sim: world dimensions must be > 0 (got %v x %v)",
			p.WorldWidth, p.WorldHeight)
	}
	if p.AgentCount < 0 {
		return fmt.Errorf("sim: agent count must be >= 0 (got %d)", p.AgentCount)
	}
	if hardCap > 0 && p.AgentCount > hardCap {
		return fmt.Errorf("sim: agent count %d exceeds capacity %d", p.AgentCount, hardCap)
	}
	return nil
}

// MaxRadius returns the largest perception radius, which floors the
// grid cell size and drives the single neighbor query per agent.
func (p Params) MaxRadius() float64 {
	return math.Max(p.SeparationRadius, math.Max(p.AlignmentRadius, p.CohesionRadius))
}
