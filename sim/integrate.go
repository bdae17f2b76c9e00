package sim

import (
	"math"

	"github.com/pthm-cable/murmur/spatial"
)

// integrateRange advances agents [i0, i1) by one fixed timestep:
// apply the computed acceleration, clamp speed to max (direction
// preserved), advance position, wrap into world bounds. Each task
// reads one acceleration slot and mutates only its own agent slots,
// so the phase parallelizes with no cross-agent dependency.
func integrateRange(i0, i1 int, st *Store, f *pipeline, topo spatial.Topology, maxSpeed, dt float64) {
	maxSpeedSq := maxSpeed * maxSpeed

	for i := i0; i < i1; i++ {
		vx := st.VelX[i] + f.AccX[i]*dt
		vy := st.VelY[i] + f.AccY[i]*dt

		speedSq := vx*vx + vy*vy
		if speedSq > maxSpeedSq {
			scale := maxSpeed / math.Sqrt(speedSq)
			vx *= scale
			vy *= scale
		}

		x, y := topo.Wrap(st.PosX[i]+vx*dt, st.PosY[i]+vy*dt)

		st.VelX[i] = vx
		st.VelY[i] = vy
		st.PosX[i] = x
		st.PosY[i] = y
	}
}
