// Package camera provides a 2D camera system for viewport control.
package camera

import (
	"math"

	"github.com/pthm-cable/murmur/spatial"
)

// Point is a screen-space position.
type Point struct {
	X, Y float64
}

// Camera controls the viewport into the simulation world.
// Supports pan, zoom, and target following with toroidal wrapping.
type Camera struct {
	// Position is the camera center in world coordinates
	X, Y float64

	// Zoom level (1.0 = 1:1, 2.0 = 2x magnification)
	Zoom float64

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float64

	// Zoom constraints
	MinZoom, MaxZoom float64

	topo spatial.Topology
}

// New creates a camera centered on the world with 1:1 zoom.
func New(viewportW, viewportH float64, topo spatial.Topology) *Camera {
	c := &Camera{
		X:         topo.Width / 2,
		Y:         topo.Height / 2,
		Zoom:      1.0,
		ViewportW: viewportW,
		ViewportH: viewportH,
		MaxZoom:   8.0,
		topo:      topo,
	}
	c.MinZoom = c.floorZoom()
	if c.Zoom < c.MinZoom {
		c.Zoom = c.MinZoom
	}
	return c
}

// floorZoom is the smallest zoom at which the viewport never exceeds
// the world in either dimension.
func (c *Camera) floorZoom() float64 {
	return math.Max(c.ViewportW/c.topo.Width, c.ViewportH/c.topo.Height)
}

// WorldToScreen converts world coordinates to screen coordinates via
// the shortest toroidal path to the camera center.
func (c *Camera) WorldToScreen(wx, wy float64) (sx, sy float64) {
	dx, dy := c.topo.Delta(c.X, c.Y, wx, wy)
	sx = c.ViewportW/2 + dx*c.Zoom
	sy = c.ViewportH/2 + dy*c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen coordinates to wrapped world
// coordinates.
func (c *Camera) ScreenToWorld(sx, sy float64) (wx, wy float64) {
	dx := (sx - c.ViewportW/2) / c.Zoom
	dy := (sy - c.ViewportH/2) / c.Zoom
	return c.topo.Wrap(c.X+dx, c.Y+dy)
}

// IsVisible reports whether a circle at (wx, wy) with the given radius
// could be visible on screen (conservative check for culling).
func (c *Camera) IsVisible(wx, wy, radius float64) bool {
	dx, dy := c.topo.Delta(c.X, c.Y, wx, wy)
	halfW := c.ViewportW/(2*c.Zoom) + radius
	halfH := c.ViewportH/(2*c.Zoom) + radius
	return math.Abs(dx) <= halfW && math.Abs(dy) <= halfH
}

// GhostPositions returns additional screen positions for agents near
// the view edges so they appear on both sides while wrapping. Up to 3
// extra positions (corners produce both axes plus the diagonal).
func (c *Camera) GhostPositions(wx, wy, radius float64) []Point {
	var ghosts []Point

	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)
	dx, dy := c.topo.Delta(c.X, c.Y, wx, wy)

	hGhost := false
	var hx float64
	switch {
	case dx > halfW-radius && dx < halfW+radius:
		hGhost = true
		hx = c.ViewportW/2 + (dx-c.topo.Width)*c.Zoom
	case dx < -halfW+radius && dx > -halfW-radius:
		hGhost = true
		hx = c.ViewportW/2 + (dx+c.topo.Width)*c.Zoom
	}

	vGhost := false
	var vy float64
	switch {
	case dy > halfH-radius && dy < halfH+radius:
		vGhost = true
		vy = c.ViewportH/2 + (dy-c.topo.Height)*c.Zoom
	case dy < -halfH+radius && dy > -halfH-radius:
		vGhost = true
		vy = c.ViewportH/2 + (dy+c.topo.Height)*c.Zoom
	}

	sx := c.ViewportW/2 + dx*c.Zoom
	sy := c.ViewportH/2 + dy*c.Zoom

	if hGhost {
		ghosts = append(ghosts, Point{hx, sy})
	}
	if vGhost {
		ghosts = append(ghosts, Point{sx, vy})
	}
	if hGhost && vGhost {
		ghosts = append(ghosts, Point{hx, vy})
	}

	return ghosts
}

// Resize updates viewport dimensions and recalculates zoom constraints.
func (c *Camera) Resize(viewportW, viewportH float64) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.MinZoom = c.floorZoom()
	if c.Zoom < c.MinZoom {
		c.Zoom = c.MinZoom
	}
}

// SetWorld points the camera at a world of new dimensions, recentering
// and reclamping zoom.
func (c *Camera) SetWorld(topo spatial.Topology) {
	c.topo = topo
	c.MinZoom = c.floorZoom()
	if c.Zoom < c.MinZoom {
		c.Zoom = c.MinZoom
	}
	c.X, c.Y = c.topo.Wrap(c.X, c.Y)
}

// Pan moves the camera by the given delta in screen pixels, wrapping
// around world boundaries.
func (c *Camera) Pan(dx, dy float64) {
	c.X, c.Y = c.topo.Wrap(c.X+dx/c.Zoom, c.Y+dy/c.Zoom)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float64) {
	c.Zoom = math.Min(math.Max(zoom, c.MinZoom), c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float64) {
	c.SetZoom(c.Zoom * factor)
}

// ZoomAt zooms by the given factor while keeping the world point under
// the screen position (sx, sy) fixed.
func (c *Camera) ZoomAt(factor, sx, sy float64) {
	bx, by := c.ScreenToWorld(sx, sy)
	c.SetZoom(c.Zoom * factor)
	ax, ay := c.ScreenToWorld(sx, sy)
	dx, dy := c.topo.Delta(ax, ay, bx, by)
	c.X, c.Y = c.topo.Wrap(c.X+dx, c.Y+dy)
}

// CenterOn snaps the camera center to a world position.
func (c *Camera) CenterOn(wx, wy float64) {
	c.X, c.Y = c.topo.Wrap(wx, wy)
}

// Follow eases the camera toward a world position along the shortest
// toroidal path. blend is the fraction of the remaining distance
// covered this call, in [0, 1].
func (c *Camera) Follow(wx, wy, blend float64) {
	if blend <= 0 {
		return
	}
	if blend > 1 {
		blend = 1
	}
	dx, dy := c.topo.Delta(c.X, c.Y, wx, wy)
	c.X, c.Y = c.topo.Wrap(c.X+dx*blend, c.Y+dy*blend)
}

// Reset returns the camera to the default position and zoom.
func (c *Camera) Reset() {
	c.X = c.topo.Width / 2
	c.Y = c.topo.Height / 2
	c.Zoom = 1.0
	if c.Zoom < c.MinZoom {
		c.Zoom = c.MinZoom
	}
}
