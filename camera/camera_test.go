package camera

import (
	"math"
	"testing"

	"github.com/pthm-cable/murmur/spatial"
)

func newTestCamera() *Camera {
	return New(1280, 720, spatial.Topology{Width: 2560, Height: 1440})
}

func TestNew(t *testing.T) {
	cam := newTestCamera()

	// Should be centered on world
	if cam.X != 1280 || cam.Y != 720 {
		t.Errorf("expected camera at (1280, 720), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom 1.0, got %f", cam.Zoom)
	}
}

func TestWorldToScreenCentered(t *testing.T) {
	cam := newTestCamera()

	// Camera center should map to screen center
	sx, sy := cam.WorldToScreen(1280, 720)
	if math.Abs(sx-640) > 0.01 || math.Abs(sy-360) > 0.01 {
		t.Errorf("expected screen center (640, 360), got (%f, %f)", sx, sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := newTestCamera()

	testCases := []struct{ sx, sy float64 }{
		{640, 360},  // center
		{100, 100},  // top-left
		{1200, 600}, // near bottom-right
	}

	for _, tc := range testCases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if math.Abs(sx-tc.sx) > 0.01 || math.Abs(sy-tc.sy) > 0.01 {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestToroidalWrap(t *testing.T) {
	cam := newTestCamera()
	cam.X = 100 // Near left edge

	// Agent at world right edge should appear on the left side of
	// screen (closer via toroidal distance)
	sx, _ := cam.WorldToScreen(2500, 720)

	if sx >= 640 {
		t.Errorf("expected agent on left of screen, got x=%f", sx)
	}
}

func TestPanWraps(t *testing.T) {
	cam := newTestCamera()
	cam.X = 100

	// Pan left should wrap to right side of world
	cam.Pan(-200, 0)

	if cam.X < 2000 {
		t.Errorf("expected X to wrap around, got %f", cam.X)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := newTestCamera()

	// MinZoom should be max(1280/2560, 720/1440) = max(0.5, 0.5) = 0.5
	if cam.MinZoom != 0.5 {
		t.Errorf("expected MinZoom 0.5, got %f", cam.MinZoom)
	}

	cam.SetZoom(0.1) // Below min
	if cam.Zoom != 0.5 {
		t.Errorf("expected zoom clamped to 0.5, got %f", cam.Zoom)
	}

	cam.SetZoom(10.0) // Above max
	if cam.Zoom != 8.0 {
		t.Errorf("expected zoom clamped to 8.0, got %f", cam.Zoom)
	}
}

func TestMinZoomPreventsDeadSpace(t *testing.T) {
	// Asymmetric world/viewport ratios
	cam := New(800, 600, spatial.Topology{Width: 1600, Height: 800})

	// MinZoom should be max(800/1600, 600/800) = max(0.5, 0.75) = 0.75
	if math.Abs(cam.MinZoom-0.75) > 0.001 {
		t.Errorf("expected MinZoom 0.75, got %f", cam.MinZoom)
	}

	// At min zoom, visible area exactly fits the world in the limiting
	// dimension
	cam.SetZoom(cam.MinZoom)
	visibleH := cam.ViewportH / cam.Zoom
	if math.Abs(visibleH-800) > 0.01 {
		t.Errorf("at min zoom, visible height %f should equal world height 800", visibleH)
	}
}

func TestIsVisible(t *testing.T) {
	cam := newTestCamera()

	// Visible range in world coords: (640, 360) to (1920, 1080)
	if !cam.IsVisible(1280, 720, 10) {
		t.Error("center should be visible")
	}

	if cam.IsVisible(2400, 1300, 10) {
		t.Error("far point should not be visible")
	}

	if !cam.IsVisible(600, 720, 100) {
		t.Error("edge point with large radius should be visible")
	}
}

func TestZoomAtKeepsCursorAnchored(t *testing.T) {
	cam := newTestCamera()

	// World point under an off-center screen position
	const sx, sy = 900, 200
	bx, by := cam.ScreenToWorld(sx, sy)

	cam.ZoomAt(1.5, sx, sy)

	ax, ay := cam.ScreenToWorld(sx, sy)
	if math.Abs(ax-bx) > 0.01 || math.Abs(ay-by) > 0.01 {
		t.Errorf("anchor moved: (%f,%f) -> (%f,%f)", bx, by, ax, ay)
	}
}

func TestFollowTakesShortPath(t *testing.T) {
	cam := newTestCamera()
	cam.X, cam.Y = 100, 720

	// Target across the seam; one full-blend step must land on it
	// without sweeping across the whole world.
	cam.Follow(2500, 720, 1.0)
	if math.Abs(cam.X-2500) > 0.01 {
		t.Errorf("camera x = %f, want 2500", cam.X)
	}

	// Partial blend moves part of the way, through the wrap.
	cam.CenterOn(100, 720)
	cam.Follow(2500, 720, 0.5)
	// Shortest delta is -160, so half a step goes to 100-80 = 20.
	if math.Abs(cam.X-20) > 0.01 {
		t.Errorf("camera x = %f, want 20", cam.X)
	}
}

func TestGhostPositionsNearSeam(t *testing.T) {
	cam := newTestCamera()
	cam.SetZoom(cam.MinZoom) // whole world visible

	// Agent at the right world edge, camera at center: the agent sits
	// at the visible boundary and needs a horizontal ghost.
	ghosts := cam.GhostPositions(2559, 720, 10)
	if len(ghosts) == 0 {
		t.Fatal("expected at least one ghost position at the seam")
	}
}

func TestReset(t *testing.T) {
	cam := newTestCamera()
	cam.X = 500
	cam.Y = 500
	cam.Zoom = 2.5

	cam.Reset()

	if cam.X != 1280 || cam.Y != 720 {
		t.Errorf("expected position (1280, 720), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom 1.0, got %f", cam.Zoom)
	}
}
