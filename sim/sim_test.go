package sim

import (
	"math"
	"testing"
	"time"
)

func newTestSim(t *testing.T, p Params) *Simulator {
	t.Helper()
	s, err := New(p, Options{Seed: 42, DT: 1.0 / 60.0, MaxTicksPerFrame: 4, HardCap: 100000})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Stop)
	return s
}

// tick advances exactly n fixed ticks. Duration truncates below DT,
// so one extra nanosecond keeps every call over the threshold.
func tick(s *Simulator, n int) {
	dt := time.Duration(float64(time.Second)*s.DT()) + time.Nanosecond
	for i := 0; i < n; i++ {
		s.Advance(dt)
	}
}

func TestStateMachine(t *testing.T) {
	s := newTestSim(t, validParams())

	if s.State() != StateIdle {
		t.Fatalf("initial state = %v, want idle", s.State())
	}
	if got := s.Advance(time.Second); got != 0 {
		t.Errorf("idle Advance ran %d ticks", got)
	}

	s.Start()
	if s.State() != StateRunning {
		t.Fatalf("state after Start = %v", s.State())
	}
	if s.Agents().Len() != 100 {
		t.Fatalf("Start created %d agents, want 100", s.Agents().Len())
	}

	tick(s, 3)
	if s.Tick() != 3 {
		t.Errorf("tick count = %d, want 3", s.Tick())
	}

	s.Pause()
	if s.State() != StatePaused {
		t.Fatalf("state after Pause = %v", s.State())
	}
	frozen := s.Alpha()
	if got := s.Advance(time.Second); got != 0 {
		t.Errorf("paused Advance ran %d ticks", got)
	}
	if s.Alpha() != frozen {
		t.Errorf("alpha changed while paused: %v -> %v", frozen, s.Alpha())
	}

	s.Resume()
	if s.State() != StateRunning {
		t.Fatalf("state after Resume = %v", s.State())
	}

	s.Pause()
	s.Reset()
	if s.State() != StateRunning {
		t.Fatalf("state after Reset = %v, want running", s.State())
	}
	if s.Tick() != 0 {
		t.Errorf("tick count after Reset = %d", s.Tick())
	}
}

func TestCatchUpCap(t *testing.T) {
	s := newTestSim(t, validParams())
	s.Start()

	// Ten seconds of backlog must not run 600 ticks.
	ran := s.Advance(10 * time.Second)
	if ran != 4 {
		t.Errorf("Advance ran %d ticks, want cap of 4", ran)
	}
	if a := s.Alpha(); a < 0 || a >= 1 {
		t.Errorf("alpha = %v, want [0,1)", a)
	}
}

func TestInvariantsAfterIntegration(t *testing.T) {
	p := validParams()
	p.AgentCount = 500
	s := newTestSim(t, p)
	s.Start()
	tick(s, 30)

	v := s.Agents()
	const eps = 1e-9
	for i := 0; i < v.Len(); i++ {
		vx, vy := v.Velocity(i)
		if speed := math.Hypot(vx, vy); speed > p.MaxSpeed+eps {
			t.Fatalf("agent %d speed %v exceeds max %v", i, speed, p.MaxSpeed)
		}
		x, y := v.Position(i)
		if x < 0 || x >= p.WorldWidth || y < 0 || y >= p.WorldHeight {
			t.Fatalf("agent %d position (%v, %v) outside world", i, x, y)
		}
	}
}

func TestSingleAgentStraightLine(t *testing.T) {
	p := validParams()
	p.AgentCount = 1
	s := newTestSim(t, p)
	s.Start()

	v := s.Agents()
	x0, y0 := v.Position(0)
	vx0, vy0 := v.Velocity(0)

	tick(s, 1)

	// No neighbors possible: zero acceleration, pure extrapolation.
	vx, vy := v.Velocity(0)
	if vx != vx0 || vy != vy0 {
		t.Errorf("velocity changed with no neighbors: (%v,%v) -> (%v,%v)", vx0, vy0, vx, vy)
	}
	wantX := x0 + vx0*s.DT()
	wantY := y0 + vy0*s.DT()
	x, y := v.Position(0)
	if math.Abs(x-wantX) > 1e-9 || math.Abs(y-wantY) > 1e-9 {
		t.Errorf("position (%v,%v), want straight-line (%v,%v)", x, y, wantX, wantY)
	}

	// Snapshot was taken at tick start.
	px, py := v.PrevPosition(0)
	if px != x0 || py != y0 {
		t.Errorf("prev position (%v,%v), want (%v,%v)", px, py, x0, y0)
	}
}

func TestShrinkWhileRunning(t *testing.T) {
	p := validParams()
	p.AgentCount = 1000
	s := newTestSim(t, p)
	s.Start()
	tick(s, 2)

	p.AgentCount = 100
	if err := s.ApplyParams(p); err != nil {
		t.Fatalf("ApplyParams: %v", err)
	}

	// Resize happens at the tick boundary, before the rebuild; the
	// next ticks must only reference the surviving 100 agents.
	tick(s, 5)

	if got := s.Agents().Len(); got != 100 {
		t.Fatalf("agent count = %d, want 100", got)
	}
}

func TestGrowPreservesSurvivors(t *testing.T) {
	p := validParams()
	p.AgentCount = 10
	s := newTestSim(t, p)
	s.Start()
	s.Pause()

	v := s.Agents()
	x0, y0 := v.Position(3)

	p.AgentCount = 50
	if err := s.ApplyParams(p); err != nil {
		t.Fatalf("ApplyParams: %v", err)
	}
	s.Resume()
	tick(s, 1)

	if got := s.Agents().Len(); got != 50 {
		t.Fatalf("agent count = %d, want 50", got)
	}
	// Index handles stay valid: agent 3 moved by integration but was
	// not reshuffled or rerandomized. One tick moves it at most
	// MaxSpeed*dt.
	x1, y1 := s.Agents().Position(3)
	dx := math.Abs(x1 - x0)
	dy := math.Abs(y1 - y0)
	limit := p.MaxSpeed*s.DT() + 1e-9
	if dx > limit && dx < p.WorldWidth-limit {
		t.Errorf("agent 3 jumped in x: %v -> %v", x0, x1)
	}
	if dy > limit && dy < p.WorldHeight-limit {
		t.Errorf("agent 3 jumped in y: %v -> %v", y0, y1)
	}
}

func TestApplyParamsRejectionKeepsPrevious(t *testing.T) {
	s := newTestSim(t, validParams())
	s.Start()

	bad := validParams()
	bad.MaxSpeed = -1
	if err := s.ApplyParams(bad); err == nil {
		t.Fatal("expected validation error")
	}
	tick(s, 1)
	if got := s.Params().MaxSpeed; got != 240 {
		t.Errorf("MaxSpeed = %v after rejected apply, want 240", got)
	}

	over := validParams()
	over.AgentCount = 1 << 30
	if err := s.ApplyParams(over); err == nil {
		t.Fatal("expected capacity error")
	}
}

func TestApplyParamsStagedToBoundary(t *testing.T) {
	s := newTestSim(t, validParams())
	s.Start()

	p := validParams()
	p.CohesionWeight = 2.5
	if err := s.ApplyParams(p); err != nil {
		t.Fatalf("ApplyParams: %v", err)
	}

	// Not yet in effect: no tick boundary has passed.
	if got := s.Params().CohesionWeight; got != 1.0 {
		t.Errorf("CohesionWeight = %v before boundary, want 1.0", got)
	}

	tick(s, 1)
	if got := s.Params().CohesionWeight; got != 2.5 {
		t.Errorf("CohesionWeight = %v after boundary, want 2.5", got)
	}
}

func TestNearestAgent(t *testing.T) {
	p := validParams()
	p.AgentCount = 50
	s := newTestSim(t, p)
	s.Start()
	tick(s, 1)

	v := s.Agents()
	x, y := v.Position(7)
	idx, ok := s.NearestAgent(x, y, 5)
	if !ok {
		t.Fatal("no agent found at an agent's own position")
	}
	// Either agent 7 itself or a closer coincident one.
	gx, gy := v.Position(idx)
	topoDist := math.Hypot(gx-x, gy-y)
	if topoDist > 5 {
		t.Errorf("selected agent %d is %v away", idx, topoDist)
	}

	if _, ok := s.NearestAgent(x+1e6, y, 0.0001); ok {
		t.Error("found agent where none should be")
	}
}

func TestResetRerandomizes(t *testing.T) {
	p := validParams()
	p.AgentCount = 200
	s := newTestSim(t, p)
	s.Start()
	tick(s, 10)

	s.Reset()
	if got := s.Agents().Len(); got != 200 {
		t.Fatalf("agent count after reset = %d", got)
	}
	if s.Alpha() != 0 {
		t.Errorf("alpha after reset = %v, want 0", s.Alpha())
	}
	tick(s, 1)
}
