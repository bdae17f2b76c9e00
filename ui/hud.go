package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/murmur/spatial"
	"github.com/pthm-cable/murmur/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title        string
	Agents       int
	Tick         int64
	FPS          int32
	State        string
	Selected     int // -1 for none
	ScreenWidth  int32
	ScreenHeight int32
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Agents: %d | Tick: %d | FPS: %d", data.Agents, data.Tick, data.FPS),
		10, 35, 16, rl.LightGray,
	)

	stateColor := rl.Green
	if data.State != "running" {
		stateColor = rl.Yellow
	}
	rl.DrawText(data.State, 10, 55, 16, stateColor)

	if data.Selected >= 0 {
		rl.DrawText(fmt.Sprintf("following agent %d", data.Selected), 10, 75, 16, rl.SkyBlue)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// DebugData holds data for the debug overlay.
type DebugData struct {
	Alpha   float64
	Workers int
	Grid    spatial.Stats
	Perf    telemetry.PerfStats
	Flock   telemetry.WindowStats
}

// DebugPanel renders the debug overlay with grid, perf, and flock
// diagnostics.
type DebugPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewDebugPanel creates a new debug panel.
func NewDebugPanel(x, y, width int32) *DebugPanel {
	return &DebugPanel{renderer: NewRenderer(), x: x, y: y, width: width}
}

// Draw renders the debug panel.
func (d *DebugPanel) Draw(data DebugData) {
	r := d.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	height := lineHeight*16 + padding*2
	r.DrawPanel(d.x, d.y, d.width, height)

	x := d.x + padding
	y := d.y + padding

	y = r.DrawSectionHeader(x, y, "Grid")
	y = r.DrawLabelValue(x, y, "cell size", fmt.Sprintf("%.1f", data.Grid.CellSize))
	y = r.DrawLabelValue(x, y, "dims", fmt.Sprintf("%dx%d", data.Grid.Cols, data.Grid.Rows))
	y = r.DrawLabelValue(x, y, "occupied", fmt.Sprintf("%d", data.Grid.OccupiedCells))
	y = r.DrawLabelValue(x, y, "max bucket", fmt.Sprintf("%d", data.Grid.MaxBucket))

	y = r.DrawSectionHeader(x, y, "Timing")
	y = r.DrawLabelValue(x, y, "avg tick", data.Perf.AvgTickDuration.Round(time.Microsecond).String())
	y = r.DrawLabelValue(x, y, "ticks/s", fmt.Sprintf("%.0f", data.Perf.TicksPerSecond))
	y = r.DrawLabelValue(x, y, "alpha", fmt.Sprintf("%.2f", data.Alpha))
	y = r.DrawLabelValue(x, y, "workers", fmt.Sprintf("%d", data.Workers))
	for _, phase := range []string{telemetry.PhaseRebuild, telemetry.PhaseForces, telemetry.PhaseIntegrate} {
		y = r.DrawLabelValue(x, y, phase, fmt.Sprintf("%.1f%%", data.Perf.PhasePct[phase]))
	}

	y = r.DrawSectionHeader(x, y, "Flock")
	y = r.DrawLabelValue(x, y, "speed mean", fmt.Sprintf("%.1f", data.Flock.SpeedMean))
	r.DrawLabelValue(x, y, "polarization", fmt.Sprintf("%.3f", data.Flock.Polarization))
}
