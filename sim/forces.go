package sim

import (
	"math"

	"github.com/pthm-cable/murmur/spatial"
)

// pipeline computes per-agent steering accelerations. It reads the
// agent store and the grid (both immutable during the phase) and
// writes exactly one slot of the acceleration buffers per agent, so
// the phase parallelizes over index ranges with no locking.
type pipeline struct {
	AccX, AccY []float64
}

func (f *pipeline) resize(n int) {
	if cap(f.AccX) < n {
		f.AccX = make([]float64, n)
		f.AccY = make([]float64, n)
		return
	}
	f.AccX = f.AccX[:n]
	f.AccY = f.AccY[:n]
}

// computeRange processes agents [i0, i1). One grid query at the
// largest perception radius serves all three rules; each candidate is
// filtered against the per-rule radius, which amortizes the grid
// traversal (the three radii usually overlap heavily).
func (f *pipeline) computeRange(i0, i1 int, st *Store, grid *spatial.Grid, p Params, scratch *[]spatial.Neighbor) {
	maxRadius := p.MaxRadius()
	sepRsq := p.SeparationRadius * p.SeparationRadius
	alignRsq := p.AlignmentRadius * p.AlignmentRadius
	cohRsq := p.CohesionRadius * p.CohesionRadius

	for i := i0; i < i1; i++ {
		x := st.PosX[i]
		y := st.PosY[i]
		vx := st.VelX[i]
		vy := st.VelY[i]

		*scratch = grid.QueryInto((*scratch)[:0], x, y, maxRadius, int32(i), st.PosX, st.PosY)

		var sepX, sepY float64
		var alignX, alignY float64
		var cohX, cohY float64
		var sepN, alignN, cohN int

		for _, n := range *scratch {
			// Separation: repulsion away from the neighbor, weighted
			// inversely by distance. A coincident neighbor gets a unit
			// push in a fixed direction instead of a division by zero.
			if n.DistSq < sepRsq {
				if n.DistSq == 0 {
					sepX += 1
				} else {
					d := math.Sqrt(n.DistSq)
					sepX += (-n.DX / d) / d
					sepY += (-n.DY / d) / d
				}
				sepN++
			}

			// Alignment: average neighbor velocity.
			if n.DistSq < alignRsq {
				alignX += st.VelX[n.Index]
				alignY += st.VelY[n.Index]
				alignN++
			}

			// Cohesion: centroid of neighbors, accumulated as toroidal
			// deltas so a flock across the seam pulls the short way.
			if n.DistSq < cohRsq {
				cohX += n.DX
				cohY += n.DY
				cohN++
			}
		}

		var ax, ay float64

		if sepN > 0 {
			sx, sy := steer(sepX/float64(sepN), sepY/float64(sepN), vx, vy, p.MaxSpeed, p.MaxForce)
			ax += sx * p.SeparationWeight
			ay += sy * p.SeparationWeight
		}
		if alignN > 0 {
			sx, sy := steer(alignX/float64(alignN), alignY/float64(alignN), vx, vy, p.MaxSpeed, p.MaxForce)
			ax += sx * p.AlignmentWeight
			ay += sy * p.AlignmentWeight
		}
		if cohN > 0 {
			sx, sy := steer(cohX/float64(cohN), cohY/float64(cohN), vx, vy, p.MaxSpeed, p.MaxForce)
			ax += sx * p.CohesionWeight
			ay += sy * p.CohesionWeight
		}

		f.AccX[i] = ax
		f.AccY[i] = ay
	}
}

// steer turns a desired direction into a Reynolds steering
// acceleration: scale the direction to max speed, subtract the current
// velocity, clamp the result to max force. A zero direction steers
// nowhere.
func steer(dirX, dirY, velX, velY, maxSpeed, maxForce float64) (float64, float64) {
	lenSq := dirX*dirX + dirY*dirY
	if lenSq == 0 {
		return 0, 0
	}
	scale := maxSpeed / math.Sqrt(lenSq)
	sx := dirX*scale - velX
	sy := dirY*scale - velY

	forceSq := sx*sx + sy*sy
	if forceSq > maxForce*maxForce {
		clamp := maxForce / math.Sqrt(forceSq)
		sx *= clamp
		sy *= clamp
	}
	return sx, sy
}
