package sim

import (
	"math"
	"math/rand"
	"time"

	"github.com/pthm-cable/murmur/spatial"
)

// State is the driver state machine: Idle until Start, then
// Running/Paused under external control.
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Phase names used by the timing hook.
const (
	PhaseRebuild   = "rebuild"
	PhaseForces    = "forces"
	PhaseIntegrate = "integrate"
)

// Options configures a Simulator beyond its Params.
type Options struct {
	Seed             int64
	DT               float64 // seconds per physics tick
	MaxTicksPerFrame int     // catch-up cap per Advance call
	RetuneInterval   int     // ticks between grid re-tune checks
	HardCap          int     // max agent count accepted by ApplyParams (0 = unlimited)
	GridTuning       spatial.Tuning
	Workers          int // 0 = GOMAXPROCS

	// PhaseHook, if set, receives the duration of each tick phase.
	PhaseHook func(phase string, d time.Duration)
}

// Simulator is the step driver. It exclusively owns the agent store
// and the grid while a tick is in flight; external collaborators read
// state only between ticks, through the views it hands out.
//
// Each tick runs three strictly ordered phases with a full barrier
// between them: grid rebuild, force pipeline, integration.
type Simulator struct {
	params Params
	staged *Params // applied at the next tick boundary

	topo  spatial.Topology
	grid  *spatial.Grid
	store *Store
	pipe  pipeline
	pool  *pool
	rng   *rand.Rand

	opts Options

	state       State
	tick        int64
	accumulator float64
	alpha       float64
	forceRetune bool
}

// New creates a simulator in the Idle state. params must validate.
func New(params Params, opts Options) (*Simulator, error) {
	if err := params.Validate(opts.HardCap); err != nil {
		return nil, err
	}
	if opts.DT <= 0 {
		opts.DT = 1.0 / 60.0
	}
	if opts.MaxTicksPerFrame <= 0 {
		opts.MaxTicksPerFrame = 4
	}
	if opts.RetuneInterval <= 0 {
		opts.RetuneInterval = 60
	}
	if opts.GridTuning.Target <= 0 {
		opts.GridTuning = spatial.Tuning{Target: 8, Low: 0.5, High: 2.0}
	}

	s := &Simulator{
		params: params,
		opts:   opts,
		rng:    rand.New(rand.NewSource(opts.Seed)),
		pool:   newPool(opts.Workers),
	}
	s.topo = spatial.Topology{Width: params.WorldWidth, Height: params.WorldHeight}
	s.grid = spatial.NewGrid(s.topo, params.MaxRadius(), params.AgentCount, opts.GridTuning)
	s.store = &Store{}
	return s, nil
}

// Start transitions Idle -> Running and initializes the agent store
// with randomized agents. No-op in any other state.
func (s *Simulator) Start() {
	if s.state != StateIdle {
		return
	}
	s.store.Resize(s.params.AgentCount, s.topo, s.params.MaxSpeed, s.rng)
	s.state = StateRunning
}

// Pause requests a pause; because Advance only ever observes it
// between ticks, the in-flight tick always completes.
func (s *Simulator) Pause() {
	if s.state == StateRunning {
		s.state = StatePaused
	}
}

// Resume transitions Paused -> Running.
func (s *Simulator) Resume() {
	if s.state == StatePaused {
		s.state = StateRunning
	}
}

// Reset rerandomizes the agent store from the current parameters
// (including any staged change) and enters Running from any state.
func (s *Simulator) Reset() {
	s.applyStaged()
	s.store.truncate(0)
	s.store.Resize(s.params.AgentCount, s.topo, s.params.MaxSpeed, s.rng)
	s.accumulator = 0
	s.alpha = 0
	s.tick = 0
	s.forceRetune = true
	s.state = StateRunning
}

// Stop shuts down the worker pool. The simulator is not reusable
// afterwards.
func (s *Simulator) Stop() {
	s.pool.stop()
}

// ApplyParams validates and stages a parameter change for the next
// tick boundary. On validation failure the previous parameters remain
// in effect and the error is returned for the UI to surface.
func (s *Simulator) ApplyParams(p Params) error {
	if err := p.Validate(s.opts.HardCap); err != nil {
		return err
	}
	staged := p
	s.staged = &staged
	return nil
}

// applyStaged installs a staged parameter set. A radius, count, or
// world change forces a grid re-tune before the next rebuild.
func (s *Simulator) applyStaged() {
	if s.staged == nil {
		return
	}
	prev := s.params
	s.params = *s.staged
	s.staged = nil

	if s.params.WorldWidth != prev.WorldWidth || s.params.WorldHeight != prev.WorldHeight {
		s.topo = spatial.Topology{Width: s.params.WorldWidth, Height: s.params.WorldHeight}
		s.grid = spatial.NewGrid(s.topo, s.params.MaxRadius(), s.store.Len(), s.opts.GridTuning)
		// Re-wrap agents into the new bounds.
		for i := 0; i < s.store.Len(); i++ {
			s.store.PosX[i], s.store.PosY[i] = s.topo.Wrap(s.store.PosX[i], s.store.PosY[i])
			s.store.PrevPosX[i], s.store.PrevPosY[i] = s.topo.Wrap(s.store.PrevPosX[i], s.store.PrevPosY[i])
		}
	}

	if s.params.MaxRadius() != prev.MaxRadius() || s.params.AgentCount != prev.AgentCount {
		s.forceRetune = true
	}

	// Structural count change: resize before the next rebuild so the
	// grid never references a stale index.
	if s.params.AgentCount != s.store.Len() && s.state != StateIdle {
		s.store.Resize(s.params.AgentCount, s.topo, s.params.MaxSpeed, s.rng)
	}
}

// Advance accumulates elapsed wall-clock time and runs as many whole
// fixed ticks as it permits, capped to avoid a catch-up spiral.
// Returns the number of ticks executed. While Paused or Idle no ticks
// run and the interpolation factor stays frozen.
func (s *Simulator) Advance(elapsed time.Duration) int {
	if s.state != StateRunning {
		return 0
	}

	s.accumulator += elapsed.Seconds()

	ticks := 0
	for s.accumulator >= s.opts.DT && ticks < s.opts.MaxTicksPerFrame {
		s.step()
		s.accumulator -= s.opts.DT
		ticks++
	}

	// Drop backlog beyond the cap instead of chasing it forever.
	if s.accumulator >= s.opts.DT {
		s.accumulator = math.Mod(s.accumulator, s.opts.DT)
	}

	s.alpha = s.accumulator / s.opts.DT
	return ticks
}

// step runs one fixed tick: boundary work (staged params, re-tune
// check), snapshot, then the three barrier-separated phases.
func (s *Simulator) step() {
	s.applyStaged()

	if s.forceRetune || (s.opts.RetuneInterval > 0 && s.tick%int64(s.opts.RetuneInterval) == 0) {
		s.grid.Retune(s.params.MaxRadius(), s.store.Len())
		s.forceRetune = false
	}

	s.store.Snapshot()

	n := s.store.Len()
	params := s.params // snapshot for the tick; staged changes wait for the boundary

	// Phase 1: rebuild. Single pass; append-only into reused buckets.
	t0 := time.Now()
	s.grid.Rebuild(s.store.PosX, s.store.PosY)
	s.record(PhaseRebuild, t0)

	// Phase 2: forces. Read-only over store and grid, one accel slot
	// written per agent.
	t0 = time.Now()
	s.pipe.resize(n)
	s.pool.run(n, func(start, end, worker int) {
		s.pipe.computeRange(start, end, s.store, s.grid, params, &s.pool.scratches[worker])
	})
	s.record(PhaseForces, t0)

	// Phase 3: integrate. Disjoint-by-index writes.
	t0 = time.Now()
	s.pool.run(n, func(start, end, worker int) {
		integrateRange(start, end, s.store, &s.pipe, s.topo, params.MaxSpeed, s.opts.DT)
	})
	s.record(PhaseIntegrate, t0)

	s.tick++
}

func (s *Simulator) record(phase string, start time.Time) {
	if s.opts.PhaseHook != nil {
		s.opts.PhaseHook(phase, time.Since(start))
	}
}

// Agents returns a read-only view of the agent store. Valid only
// between ticks.
func (s *Simulator) Agents() View { return s.store.View() }

// Alpha returns the interpolation factor in [0, 1): the fraction of
// progress into the next physics tick.
func (s *Simulator) Alpha() float64 { return s.alpha }

// GridStats returns spatial grid diagnostics for debug overlays.
func (s *Simulator) GridStats() spatial.Stats { return s.grid.Stats() }

// Params returns the parameters currently in effect.
func (s *Simulator) Params() Params { return s.params }

// State returns the driver state.
func (s *Simulator) State() State { return s.state }

// Tick returns the number of completed fixed ticks.
func (s *Simulator) Tick() int64 { return s.tick }

// DT returns the fixed timestep in seconds.
func (s *Simulator) DT() float64 { return s.opts.DT }

// Workers returns the size of the worker pool.
func (s *Simulator) Workers() int { return s.pool.numWorkers }

// NearestAgent returns the index of the closest agent within maxDist
// of the given world position, using the grid from the last rebuild.
// Used for selection by proximity; valid only between ticks.
func (s *Simulator) NearestAgent(x, y, maxDist float64) (int, bool) {
	x, y = s.topo.Wrap(x, y)
	ns := s.grid.QueryInto(nil, x, y, maxDist, -1, s.store.PosX, s.store.PosY)
	best := -1
	bestSq := math.Inf(1)
	for _, n := range ns {
		if n.DistSq < bestSq {
			bestSq = n.DistSq
			best = int(n.Index)
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}
