package spatial

import (
	"math"
	"math/rand"
	"sort"
	"testing"
)

func defaultTuning() Tuning {
	return Tuning{Target: 8, Low: 0.5, High: 2.0}
}

// bruteNeighbors is the reference implementation: exhaustive pairwise
// toroidal distance checks.
func bruteNeighbors(topo Topology, xs, ys []float64, x, y, radius float64, exclude int32) []int32 {
	var out []int32
	rsq := radius * radius
	for i := range xs {
		if int32(i) == exclude {
			continue
		}
		if topo.DistSq(x, y, xs[i], ys[i]) <= rsq {
			out = append(out, int32(i))
		}
	}
	return out
}

func sortedIndices(ns []Neighbor) []int32 {
	out := make([]int32, len(ns))
	for i, n := range ns {
		out[i] = n.Index
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func TestQueryMatchesBruteForce(t *testing.T) {
	topo := Topology{Width: 500, Height: 400}

	tests := []struct {
		name   string
		count  int
		radius float64
	}{
		{"sparse", 50, 40},
		{"medium", 500, 40},
		{"dense", 3000, 25},
		{"radius larger than cell", 400, 120},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(1))
			xs := make([]float64, tc.count)
			ys := make([]float64, tc.count)
			for i := range xs {
				xs[i] = rng.Float64() * topo.Width
				ys[i] = rng.Float64() * topo.Height
			}

			g := NewGrid(topo, 40, tc.count, defaultTuning())
			g.Rebuild(xs, ys)

			var scratch []Neighbor
			for i := 0; i < tc.count; i += 7 {
				scratch = g.QueryInto(scratch[:0], xs[i], ys[i], tc.radius, int32(i), xs, ys)
				got := sortedIndices(scratch)
				want := bruteNeighbors(topo, xs, ys, xs[i], ys[i], tc.radius, int32(i))

				if len(got) != len(want) {
					t.Fatalf("agent %d: got %d neighbors, want %d", i, len(got), len(want))
				}
				for j := range got {
					if got[j] != want[j] {
						t.Fatalf("agent %d: neighbor set mismatch at %d: %d vs %d", i, j, got[j], want[j])
					}
				}
			}
		})
	}
}

func TestQueryStraddlesBoundary(t *testing.T) {
	topo := Topology{Width: 500, Height: 500}
	rng := rand.New(rand.NewSource(2))

	// Cluster straddling the (0,0) corner.
	const count = 200
	xs := make([]float64, count)
	ys := make([]float64, count)
	for i := range xs {
		x := rng.Float64()*60 - 30
		y := rng.Float64()*60 - 30
		xs[i], ys[i] = topo.Wrap(x, y)
	}

	g := NewGrid(topo, 25, count, defaultTuning())
	g.Rebuild(xs, ys)

	var scratch []Neighbor
	for i := 0; i < count; i++ {
		scratch = g.QueryInto(scratch[:0], xs[i], ys[i], 25, int32(i), xs, ys)
		got := sortedIndices(scratch)
		want := bruteNeighbors(topo, xs, ys, xs[i], ys[i], 25, int32(i))
		if len(got) != len(want) {
			t.Fatalf("agent %d at (%v,%v): got %d neighbors, want %d",
				i, xs[i], ys[i], len(got), len(want))
		}
		for j := range got {
			if got[j] != want[j] {
				t.Fatalf("agent %d: neighbor mismatch", i)
			}
		}
	}
}

func TestWrapNeighborScenario(t *testing.T) {
	// Two agents at (0,0) and (width-1, 0) with separation radius 2:
	// distance is 1 via the wrap, not width-1.
	topo := Topology{Width: 100, Height: 100}
	xs := []float64{0, 99}
	ys := []float64{0, 0}

	g := NewGrid(topo, 2, 2, defaultTuning())
	g.Rebuild(xs, ys)

	ns := g.QueryInto(nil, xs[0], ys[0], 2, 0, xs, ys)
	if len(ns) != 1 || ns[0].Index != 1 {
		t.Fatalf("expected agent 1 as wrap neighbor, got %v", ns)
	}
	if math.Abs(ns[0].DistSq-1) > 1e-9 {
		t.Errorf("DistSq = %v, want 1", ns[0].DistSq)
	}
	if math.Abs(ns[0].DX-(-1)) > 1e-9 {
		t.Errorf("DX = %v, want -1 (short path through the wrap)", ns[0].DX)
	}
}

func TestRebuildIdempotent(t *testing.T) {
	topo := Topology{Width: 300, Height: 300}
	rng := rand.New(rand.NewSource(3))

	const count = 500
	xs := make([]float64, count)
	ys := make([]float64, count)
	for i := range xs {
		xs[i] = rng.Float64() * topo.Width
		ys[i] = rng.Float64() * topo.Height
	}

	g := NewGrid(topo, 30, count, defaultTuning())
	g.Rebuild(xs, ys)

	first := make([][]int32, len(g.buckets))
	total := 0
	for i, b := range g.buckets {
		first[i] = append([]int32(nil), b...)
		total += len(b)
	}

	// Every agent in exactly one bucket.
	if total != count {
		t.Fatalf("buckets hold %d entries, want %d", total, count)
	}

	g.Rebuild(xs, ys)
	for i, b := range g.buckets {
		if len(b) != len(first[i]) {
			t.Fatalf("bucket %d changed size across rebuilds", i)
		}
		for j := range b {
			if b[j] != first[i][j] {
				t.Fatalf("bucket %d content changed across rebuilds", i)
			}
		}
	}
}

func TestRetuneReturnsOccupancyToBand(t *testing.T) {
	topo := Topology{Width: 2000, Height: 2000}
	tuning := defaultTuning()

	g := NewGrid(topo, 20, 100, tuning)

	// 100x the population: occupancy should leave the band and retune
	// should bring it back.
	const count = 10000
	changed := g.Retune(20, count)
	if !changed {
		t.Fatal("expected retune to fire after 100x count increase")
	}

	cols, rows := g.Dims()
	occupancy := float64(count) / float64(cols*rows)
	low := tuning.Target * tuning.Low
	high := tuning.Target * tuning.High
	if occupancy < low || occupancy > high {
		t.Errorf("occupancy %v outside band [%v, %v]", occupancy, low, high)
	}

	// Cell size floor: never below the largest perception radius.
	if g.CellSize() < 20 {
		t.Errorf("cell size %v below perception radius floor", g.CellSize())
	}
}

func TestRetuneRespectsRadiusFloor(t *testing.T) {
	topo := Topology{Width: 1000, Height: 1000}
	g := NewGrid(topo, 10, 100000, defaultTuning())

	// Huge population wants tiny cells, but the radius floor wins.
	g.Retune(50, 100000)
	if g.CellSize() < 50 {
		t.Errorf("cell size %v below new radius 50", g.CellSize())
	}
}

func TestEmptyGrid(t *testing.T) {
	topo := Topology{Width: 100, Height: 100}
	g := NewGrid(topo, 10, 0, defaultTuning())
	g.Rebuild(nil, nil)

	ns := g.QueryInto(nil, 50, 50, 10, -1, nil, nil)
	if len(ns) != 0 {
		t.Errorf("empty grid returned %d neighbors", len(ns))
	}

	s := g.Stats()
	if s.OccupiedCells != 0 || s.MaxBucket != 0 {
		t.Errorf("empty grid stats = %+v", s)
	}
}

func TestStats(t *testing.T) {
	topo := Topology{Width: 100, Height: 100}
	g := NewGrid(topo, 50, 4, defaultTuning())

	// Three agents in one cell, one in another.
	xs := []float64{10, 11, 12, 80}
	ys := []float64{10, 11, 12, 80}
	g.Rebuild(xs, ys)

	s := g.Stats()
	if s.OccupiedCells != 2 {
		t.Errorf("OccupiedCells = %d, want 2", s.OccupiedCells)
	}
	if s.MaxBucket != 3 {
		t.Errorf("MaxBucket = %d, want 3", s.MaxBucket)
	}
}
