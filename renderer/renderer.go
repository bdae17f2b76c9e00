// Package renderer draws the flock with fixed-timestep interpolation
// between the previous and current tick states.
package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/pthm-cable/murmur/camera"
	"github.com/pthm-cable/murmur/sim"
	"github.com/pthm-cable/murmur/spatial"
)

// agentRadius is the on-screen half-size of an agent at zoom 1.
const agentRadius = 4.0

// Renderer holds float32 copies of the tick state and blends them per
// frame. Conversion from the simulation's float64 buffers happens once
// per tick in Sync; the per-frame Lerp runs on flat float32 vectors.
type Renderer struct {
	topo spatial.Topology

	// Tick state, refreshed by Sync. prev is unwrapped relative to
	// curr so the blend never sweeps across the world.
	prevX, prevY []float32
	currX, currY []float32
	velX, velY   []float32

	// Per-frame blend output
	lerpX, lerpY []float32
}

// New creates a renderer for the given world.
func New(topo spatial.Topology) *Renderer {
	return &Renderer{topo: topo}
}

// SetWorld updates the world dimensions after a parameter change.
func (r *Renderer) SetWorld(topo spatial.Topology) { r.topo = topo }

// Sync copies the latest tick state out of the agent view. Call once
// after every simulation tick, never mid-tick.
func (r *Renderer) Sync(v sim.View) {
	n := v.Len()
	r.resize(n)

	posX, posY, prevX, prevY, velX, velY := v.Buffers()
	for i := 0; i < n; i++ {
		r.currX[i] = float32(posX[i])
		r.currY[i] = float32(posY[i])
		r.velX[i] = float32(velX[i])
		r.velY[i] = float32(velY[i])

		// Unwrap: lerp from (curr - shortest delta) so an agent that
		// wrapped this tick slides off one edge instead of streaking
		// across the screen.
		dx, dy := r.topo.Delta(prevX[i], prevY[i], posX[i], posY[i])
		r.prevX[i] = float32(posX[i] - dx)
		r.prevY[i] = float32(posY[i] - dy)
	}
}

// Lerp blends prev and curr by alpha into the frame buffers.
func (r *Renderer) Lerp(alpha float64) {
	n := len(r.currX)
	if n == 0 {
		return
	}
	t := float32(alpha)

	px := blas32.Vector{N: n, Inc: 1, Data: r.prevX}
	py := blas32.Vector{N: n, Inc: 1, Data: r.prevY}
	cx := blas32.Vector{N: n, Inc: 1, Data: r.currX}
	cy := blas32.Vector{N: n, Inc: 1, Data: r.currY}
	lx := blas32.Vector{N: n, Inc: 1, Data: r.lerpX}
	ly := blas32.Vector{N: n, Inc: 1, Data: r.lerpY}

	blas32.Copy(px, lx)     // lerpX = prevX
	blas32.Scal(1-t, lx)    // lerpX = (1-t)*prevX
	blas32.Axpy(t, cx, lx)  // lerpX = (1-t)*prevX + t*currX

	blas32.Copy(py, ly)
	blas32.Scal(1-t, ly)
	blas32.Axpy(t, cy, ly)
}

// Draw renders every visible agent as an oriented triangle, with ghost
// copies at the view seams. selected (-1 for none) gets a highlight
// ring.
func (r *Renderer) Draw(cam *camera.Camera, selected int) {
	size := agentRadius * cam.Zoom
	if size < 1.5 {
		size = 1.5
	}

	for i := range r.lerpX {
		wx := float64(r.lerpX[i])
		wy := float64(r.lerpY[i])

		if !cam.IsVisible(wx, wy, agentRadius) {
			continue
		}

		heading := math.Atan2(float64(r.velY[i]), float64(r.velX[i]))
		color := agentColor(i == selected)

		sx, sy := cam.WorldToScreen(wx, wy)
		drawOrientedTriangle(float32(sx), float32(sy), float32(heading), float32(size), color)

		for _, g := range cam.GhostPositions(wx, wy, agentRadius) {
			drawOrientedTriangle(float32(g.X), float32(g.Y), float32(heading), float32(size), color)
		}
	}

	if selected >= 0 && selected < len(r.lerpX) {
		r.drawSelectionRing(cam, selected)
	}
}

// DrawGridOverlay draws the spatial grid cell boundaries, for the
// debug overlay.
func (r *Renderer) DrawGridOverlay(cam *camera.Camera, gs spatial.Stats) {
	if gs.CellSize <= 0 {
		return
	}
	lineColor := rl.Color{R: 80, G: 90, B: 100, A: 90}

	for c := 0; c < gs.Cols; c++ {
		wx := float64(c) * gs.CellSize
		sx, _ := cam.WorldToScreen(wx, cam.Y)
		if sx < 0 || sx > cam.ViewportW {
			continue
		}
		rl.DrawLine(int32(sx), 0, int32(sx), int32(cam.ViewportH), lineColor)
	}
	for row := 0; row < gs.Rows; row++ {
		wy := float64(row) * gs.CellSize
		_, sy := cam.WorldToScreen(cam.X, wy)
		if sy < 0 || sy > cam.ViewportH {
			continue
		}
		rl.DrawLine(0, int32(sy), int32(cam.ViewportW), int32(sy), lineColor)
	}
}

// drawSelectionRing draws a pulsing ring and the perception radius
// around the selected agent.
func (r *Renderer) drawSelectionRing(cam *camera.Camera, i int) {
	wx := float64(r.lerpX[i])
	wy := float64(r.lerpY[i])
	sx, sy := cam.WorldToScreen(wx, wy)

	pulse := float32(8 + 3*math.Sin(rl.GetTime()*4))
	radius := pulse * float32(cam.Zoom)

	rl.DrawCircleLines(int32(sx), int32(sy), radius, rl.Color{R: 255, G: 255, B: 255, A: 200})
	rl.DrawCircleLines(int32(sx), int32(sy), radius+1, rl.Color{R: 255, G: 255, B: 255, A: 100})
}

// DrawPerceptionRadii draws the three rule radii around the selected
// agent.
func (r *Renderer) DrawPerceptionRadii(cam *camera.Camera, i int, p sim.Params) {
	if i < 0 || i >= len(r.lerpX) {
		return
	}
	sx, sy := cam.WorldToScreen(float64(r.lerpX[i]), float64(r.lerpY[i]))

	rl.DrawCircleLines(int32(sx), int32(sy), float32(p.SeparationRadius*cam.Zoom), rl.Color{R: 230, G: 110, B: 100, A: 160})
	rl.DrawCircleLines(int32(sx), int32(sy), float32(p.AlignmentRadius*cam.Zoom), rl.Color{R: 120, G: 200, B: 120, A: 160})
	rl.DrawCircleLines(int32(sx), int32(sy), float32(p.CohesionRadius*cam.Zoom), rl.Color{R: 110, G: 150, B: 230, A: 160})
}

// Len returns the number of agents in the frame buffers.
func (r *Renderer) Len() int { return len(r.lerpX) }

// Position returns the interpolated world position of agent i, for
// camera follow.
func (r *Renderer) Position(i int) (x, y float64) {
	return float64(r.lerpX[i]), float64(r.lerpY[i])
}

func (r *Renderer) resize(n int) {
	if cap(r.currX) < n {
		r.prevX = make([]float32, n)
		r.prevY = make([]float32, n)
		r.currX = make([]float32, n)
		r.currY = make([]float32, n)
		r.velX = make([]float32, n)
		r.velY = make([]float32, n)
		r.lerpX = make([]float32, n)
		r.lerpY = make([]float32, n)
		return
	}
	r.prevX = r.prevX[:n]
	r.prevY = r.prevY[:n]
	r.currX = r.currX[:n]
	r.currY = r.currY[:n]
	r.velX = r.velX[:n]
	r.velY = r.velY[:n]
	r.lerpX = r.lerpX[:n]
	r.lerpY = r.lerpY[:n]
}

func agentColor(selected bool) rl.Color {
	if selected {
		return rl.Color{R: 255, G: 220, B: 120, A: 255}
	}
	return rl.Color{R: 170, G: 200, B: 235, A: 255}
}

// drawOrientedTriangle draws a triangle pointing in the heading direction.
func drawOrientedTriangle(x, y, heading, radius float32, color rl.Color) {
	cos := float32(math.Cos(float64(heading)))
	sin := float32(math.Sin(float64(heading)))

	// Front point
	frontX := x + cos*radius*1.5
	frontY := y + sin*radius*1.5

	// Back left
	backAngle := heading + math.Pi*0.8
	backLeftX := x + float32(math.Cos(float64(backAngle)))*radius
	backLeftY := y + float32(math.Sin(float64(backAngle)))*radius

	// Back right
	backAngle = heading - math.Pi*0.8
	backRightX := x + float32(math.Cos(float64(backAngle)))*radius
	backRightY := y + float32(math.Sin(float64(backAngle)))*radius

	v1 := rl.Vector2{X: frontX, Y: frontY}
	v2 := rl.Vector2{X: backLeftX, Y: backLeftY}
	v3 := rl.Vector2{X: backRightX, Y: backRightY}

	// DrawTriangle requires counter-clockwise winding (v1, v3, v2)
	rl.DrawTriangle(v1, v3, v2, color)
}
