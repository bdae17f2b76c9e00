package sim

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/murmur/spatial"
)

// Store owns the flat agent state. Layout is struct-of-arrays so the
// grid, the force pipeline, and the renderer can walk contiguous
// buffers. An agent's identity is its index; order never changes
// tick-to-tick (grow appends, shrink truncates, all updates mutate in
// place), so an index held by external code stays valid until the
// count drops below it.
type Store struct {
	PosX, PosY []float64
	VelX, VelY []float64

	// Snapshot taken at the start of the most recent tick, for
	// render-time interpolation.
	PrevPosX, PrevPosY []float64
	PrevVelX, PrevVelY []float64
}

// NewStore creates a store with count randomized agents.
func NewStore(count int, topo spatial.Topology, maxSpeed float64, rng *rand.Rand) *Store {
	s := &Store{}
	s.Resize(count, topo, maxSpeed, rng)
	return s
}

// Len returns the agent count.
func (s *Store) Len() int { return len(s.PosX) }

// Resize grows or shrinks the store to count agents. Grown slots are
// appended with randomized state; surviving agents keep their index
// and state. Shrinking truncates, keeping capacity for later growth.
func (s *Store) Resize(count int, topo spatial.Topology, maxSpeed float64, rng *rand.Rand) {
	old := s.Len()
	if count <= old {
		s.truncate(count)
		return
	}

	s.PosX = grow(s.PosX, count)
	s.PosY = grow(s.PosY, count)
	s.VelX = grow(s.VelX, count)
	s.VelY = grow(s.VelY, count)
	s.PrevPosX = grow(s.PrevPosX, count)
	s.PrevPosY = grow(s.PrevPosY, count)
	s.PrevVelX = grow(s.PrevVelX, count)
	s.PrevVelY = grow(s.PrevVelY, count)

	for i := old; i < count; i++ {
		s.randomize(i, topo, maxSpeed, rng)
	}
}

func (s *Store) truncate(count int) {
	s.PosX = s.PosX[:count]
	s.PosY = s.PosY[:count]
	s.VelX = s.VelX[:count]
	s.VelY = s.VelY[:count]
	s.PrevPosX = s.PrevPosX[:count]
	s.PrevPosY = s.PrevPosY[:count]
	s.PrevVelX = s.PrevVelX[:count]
	s.PrevVelY = s.PrevVelY[:count]
}

// randomize places agent i uniformly in the world with a random
// heading at half max speed.
func (s *Store) randomize(i int, topo spatial.Topology, maxSpeed float64, rng *rand.Rand) {
	s.PosX[i] = rng.Float64() * topo.Width
	s.PosY[i] = rng.Float64() * topo.Height

	angle := rng.Float64() * 2 * math.Pi
	speed := maxSpeed * 0.5
	s.VelX[i] = math.Cos(angle) * speed
	s.VelY[i] = math.Sin(angle) * speed

	s.PrevPosX[i] = s.PosX[i]
	s.PrevPosY[i] = s.PosY[i]
	s.PrevVelX[i] = s.VelX[i]
	s.PrevVelY[i] = s.VelY[i]
}

// Snapshot copies current state into the previous-state buffers.
// Called once at the start of every tick, before any mutation.
func (s *Store) Snapshot() {
	copy(s.PrevPosX, s.PosX)
	copy(s.PrevPosY, s.PosY)
	copy(s.PrevVelX, s.VelX)
	copy(s.PrevVelY, s.VelY)
}

func grow(b []float64, n int) []float64 {
	if cap(b) >= n {
		return b[:n]
	}
	nb := make([]float64, n)
	copy(nb, b)
	return nb
}

// View is a read-only window onto the agent store, handed out by the
// driver between ticks for rendering, selection, and debug overlays.
// Callers must not mutate the returned slices and must not hold them
// across a tick.
type View struct {
	s *Store
}

// View returns a read-only view of the store.
func (s *Store) View() View { return View{s: s} }

// Len returns the agent count.
func (v View) Len() int { return v.s.Len() }

// Position returns agent i's current wrapped position.
func (v View) Position(i int) (x, y float64) { return v.s.PosX[i], v.s.PosY[i] }

// Velocity returns agent i's current velocity.
func (v View) Velocity(i int) (x, y float64) { return v.s.VelX[i], v.s.VelY[i] }

// PrevPosition returns agent i's position at the start of the latest tick.
func (v View) PrevPosition(i int) (x, y float64) { return v.s.PrevPosX[i], v.s.PrevPosY[i] }

// Buffers exposes the raw state arrays for bulk consumers (the
// renderer converts and interpolates them wholesale). Read-only.
func (v View) Buffers() (posX, posY, prevX, prevY, velX, velY []float64) {
	return v.s.PosX, v.s.PosY, v.s.PrevPosX, v.s.PrevPosY, v.s.VelX, v.s.VelY
}
