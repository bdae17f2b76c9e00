package spatial

import "math"

// Neighbor holds a nearby agent with precomputed spatial data.
// This avoids recomputing toroidal delta and distance in the force rules.
type Neighbor struct {
	Index  int32
	DX, DY float64 // toroidal delta from query origin
	DistSq float64 // squared distance (avoid sqrt in hot path)
}

// Stats describes the current grid state for diagnostics.
type Stats struct {
	OccupiedCells int
	MaxBucket     int
	CellSize      float64
	Cols, Rows    int
}

// Tuning controls the adaptive cell sizing policy. Re-tuning fires
// when average occupancy (agents per cell) leaves the band
// [Target*Low, Target*High].
type Tuning struct {
	Target float64
	Low    float64
	High   float64
}

// Grid partitions agents into uniform square cells so each neighbor
// query inspects O(1) expected cells regardless of agent count.
//
// Buckets are rebuilt from scratch every tick; bucket capacity is
// reused across rebuilds to bound allocation churn. Cell size is
// adjusted by Retune and never drops below the largest perception
// radius, which guarantees a 3x3 window covers any rule radius.
type Grid struct {
	topo     Topology
	cellSize float64
	cols     int
	rows     int
	tuning   Tuning

	buckets [][]int32

	// Wrap lookup tables: colWrap[c+cols] is the true column for the
	// (possibly out-of-range) window column c, for c in [-cols, 2*cols).
	// Avoids per-cell modulo when iterating neighbor windows across the
	// toroidal boundary.
	colWrap []int
	rowWrap []int
}

// NewGrid creates a grid over the given topology. The initial cell
// size is the largest perception radius; Retune may grow it toward the
// occupancy target.
func NewGrid(topo Topology, maxRadius float64, agentCount int, tuning Tuning) *Grid {
	g := &Grid{topo: topo, tuning: tuning}
	g.resize(g.pickCellSize(maxRadius, agentCount))
	return g
}

// pickCellSize returns a cell size that puts average occupancy at the
// tuning target, floored at the largest perception radius so query
// windows stay correct, and capped at the world extent.
func (g *Grid) pickCellSize(maxRadius float64, agentCount int) float64 {
	size := maxRadius
	if g.tuning.Target > 0 && agentCount > 0 {
		wantCells := float64(agentCount) / g.tuning.Target
		if wantCells >= 1 {
			byDensity := math.Sqrt(g.topo.Width * g.topo.Height / wantCells)
			if byDensity > size {
				size = byDensity
			}
		}
	}
	if size <= 0 {
		// Degenerate configuration: one cell covering the world.
		size = math.Max(g.topo.Width, g.topo.Height)
	}
	if size > g.topo.Width {
		size = g.topo.Width
	}
	if size > g.topo.Height && g.topo.Height > 0 {
		// Keep at least one full cell per axis.
		size = g.topo.Height
	}
	return size
}

// resize recomputes dimensions, buckets, and wrap lookup tables for
// the given cell size. Existing bucket contents are discarded; the
// next Rebuild repopulates them.
func (g *Grid) resize(cellSize float64) {
	g.cellSize = cellSize
	g.cols = int(math.Ceil(g.topo.Width / cellSize))
	g.rows = int(math.Ceil(g.topo.Height / cellSize))
	if g.cols < 1 {
		g.cols = 1
	}
	if g.rows < 1 {
		g.rows = 1
	}

	g.buckets = make([][]int32, g.cols*g.rows)
	for i := range g.buckets {
		g.buckets[i] = make([]int32, 0, 8)
	}

	g.colWrap = buildWrapLookup(g.cols)
	g.rowWrap = buildWrapLookup(g.rows)
}

// buildWrapLookup precomputes wrapped coordinates for window offsets
// in [-n, 2n). Index with lookup[c+n].
func buildWrapLookup(n int) []int {
	lookup := make([]int, 3*n)
	for i := range lookup {
		c := i - n
		lookup[i] = ((c % n) + n) % n
	}
	return lookup
}

// Retune checks average occupancy against the tuning band and, if it
// deviates, recomputes the cell size (floored at maxRadius) and
// rebuilds dimensions and wrap tables. It must run between ticks,
// before the next Rebuild. Returns true if the grid changed.
func (g *Grid) Retune(maxRadius float64, agentCount int) bool {
	want := g.pickCellSize(maxRadius, agentCount)

	// A radius increase above the current cell size always forces a
	// resize to keep queries correct.
	if maxRadius > g.cellSize {
		g.resize(want)
		return true
	}

	if g.tuning.Target <= 0 || agentCount == 0 {
		return false
	}

	occupancy := float64(agentCount) / float64(g.cols*g.rows)
	low := g.tuning.Target * g.tuning.Low
	high := g.tuning.Target * g.tuning.High
	if occupancy >= low && occupancy <= high {
		return false
	}

	// Avoid thrashing on sub-percent differences.
	if math.Abs(want-g.cellSize) < g.cellSize*0.01 {
		return false
	}

	g.resize(want)
	return true
}

// Rebuild clears all buckets (keeping capacity) and inserts every
// agent. After a rebuild each agent index appears in exactly one
// bucket.
func (g *Grid) Rebuild(xs, ys []float64) {
	for i := range g.buckets {
		g.buckets[i] = g.buckets[i][:0]
	}
	for i := range xs {
		idx := g.cellIndex(xs[i], ys[i])
		g.buckets[idx] = append(g.buckets[idx], int32(i))
	}
}

// cellIndex returns the flat bucket index for a world position.
// Positions are expected to be wrapped; the modulo guards the
// x == Width edge produced by ceil-sized dimensions.
func (g *Grid) cellIndex(x, y float64) int {
	col := int(x/g.cellSize) % g.cols
	row := int(y/g.cellSize) % g.rows
	if col < 0 {
		col += g.cols
	}
	if row < 0 {
		row += g.rows
	}
	return row*g.cols + col
}

// QueryInto appends all agents within radius of (x, y) to dst,
// excluding the agent at index exclude (pass a negative index to keep
// everything). Candidates are filtered by toroidal distance, so the
// result is exact, not just cell-coarse. Reuse dst across calls to
// avoid allocations.
func (g *Grid) QueryInto(dst []Neighbor, x, y, radius float64, exclude int32, xs, ys []float64) []Neighbor {
	if radius <= 0 || len(xs) == 0 {
		return dst
	}

	win := int(math.Ceil(radius / g.cellSize))
	if win < 1 {
		win = 1
	}

	centerCol := int(x/g.cellSize) % g.cols
	centerRow := int(y/g.cellSize) % g.rows
	radiusSq := radius * radius

	// When the window spans the whole axis, visit each cell once
	// instead of wrapping onto already-visited cells.
	c0, c1 := -win, win
	if 2*win+1 >= g.cols {
		c0, c1 = 0, g.cols-1
		centerCol = 0
	}
	r0, r1 := -win, win
	if 2*win+1 >= g.rows {
		r0, r1 = 0, g.rows-1
		centerRow = 0
	}

	for dr := r0; dr <= r1; dr++ {
		row := g.rowWrap[centerRow+dr+g.rows]
		rowBase := row * g.cols
		for dc := c0; dc <= c1; dc++ {
			col := g.colWrap[centerCol+dc+g.cols]

			for _, idx := range g.buckets[rowBase+col] {
				if idx == exclude {
					continue
				}
				dx, dy := g.topo.Delta(x, y, xs[idx], ys[idx])
				distSq := dx*dx + dy*dy
				if distSq <= radiusSq {
					dst = append(dst, Neighbor{Index: idx, DX: dx, DY: dy, DistSq: distSq})
				}
			}
		}
	}

	return dst
}

// Stats computes diagnostics from the current bucket state.
func (g *Grid) Stats() Stats {
	s := Stats{CellSize: g.cellSize, Cols: g.cols, Rows: g.rows}
	for i := range g.buckets {
		n := len(g.buckets[i])
		if n > 0 {
			s.OccupiedCells++
		}
		if n > s.MaxBucket {
			s.MaxBucket = n
		}
	}
	return s
}

// CellSize returns the current cell side length.
func (g *Grid) CellSize() float64 { return g.cellSize }

// Dims returns the current grid dimensions.
func (g *Grid) Dims() (cols, rows int) { return g.cols, g.rows }
