// Package spatial provides the toroidal world topology and the
// adaptive cell grid used for neighbor queries.
package spatial

import "math"

// Topology describes a rectangular world whose opposite edges are
// identified. All positions live in [0, Width) x [0, Height).
type Topology struct {
	Width  float64
	Height float64
}

// Wrap maps a coordinate pair into [0, Width) x [0, Height) by floored
// modulo on each axis.
func (t Topology) Wrap(x, y float64) (float64, float64) {
	return wrapAxis(x, t.Width), wrapAxis(y, t.Height)
}

// Delta returns the minimum-magnitude displacement from (x1, y1) to
// (x2, y2), choosing per axis between the direct and the wrapped path.
func (t Topology) Delta(x1, y1, x2, y2 float64) (dx, dy float64) {
	dx = x2 - x1
	dy = y2 - y1

	if dx > t.Width/2 {
		dx -= t.Width
	} else if dx < -t.Width/2 {
		dx += t.Width
	}
	if dy > t.Height/2 {
		dy -= t.Height
	} else if dy < -t.Height/2 {
		dy += t.Height
	}

	return dx, dy
}

// DistSq returns the squared toroidal distance between two points.
// Callers must use this instead of raw Euclidean distance, or neighbor
// checks near the world boundary are wrong.
func (t Topology) DistSq(x1, y1, x2, y2 float64) float64 {
	dx, dy := t.Delta(x1, y1, x2, y2)
	return dx*dx + dy*dy
}

// wrapAxis maps v into [0, size) via floored modulo.
func wrapAxis(v, size float64) float64 {
	if size <= 0 {
		return 0
	}
	if v >= 0 && v < size {
		return v
	}
	v = math.Mod(v, size)
	if v < 0 {
		v += size
	}
	return v
}
