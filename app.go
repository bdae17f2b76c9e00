package main

import (
	"fmt"
	"log/slog"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/murmur/camera"
	"github.com/pthm-cable/murmur/config"
	"github.com/pthm-cable/murmur/renderer"
	"github.com/pthm-cable/murmur/sim"
	"github.com/pthm-cable/murmur/spatial"
	"github.com/pthm-cable/murmur/telemetry"
	"github.com/pthm-cable/murmur/ui"
)

// Options configures an App beyond the loaded config.
type Options struct {
	Seed      int64
	LogStats  bool
	OutputDir string
	Headless  bool
}

// App wires the simulator to the camera, renderer, UI, and telemetry.
type App struct {
	cfg  *config.Config
	opts Options

	sim  *sim.Simulator
	cam  *camera.Camera
	ren  *renderer.Renderer
	topo spatial.Topology

	hud         *ui.HUD
	debugPanel  *ui.DebugPanel
	paramsPanel *ui.ParamsPanel

	perf *telemetry.PerfCollector
	out  *telemetry.OutputManager

	selected   int
	showDebug  bool
	showGrid   bool
	showRadii  bool
	lastSynced int64
	lastFlock  telemetry.WindowStats

	statsWindowTicks int64
	lastStatsWindow  int64
}

// NewApp builds the full application from config and options.
func NewApp(cfg *config.Config, opts Options) (*App, error) {
	a := &App{
		cfg:      cfg,
		opts:     opts,
		selected: -1,
		perf:     telemetry.NewPerfCollector(cfg.Telemetry.PerfSamples),
	}

	a.statsWindowTicks = int64(cfg.Telemetry.StatsWindow * cfg.Physics.TickRate)
	if a.statsWindowTicks < 1 {
		a.statsWindowTicks = 1
	}

	params := sim.FromConfig(cfg)
	s, err := sim.New(params, sim.Options{
		Seed:             opts.Seed,
		DT:               cfg.Derived.DT,
		MaxTicksPerFrame: cfg.Physics.MaxTicksPerFrame,
		RetuneInterval:   cfg.Grid.RetuneInterval,
		HardCap:          cfg.Population.HardCap,
		GridTuning: spatial.Tuning{
			Target: cfg.Grid.TargetOccupancy,
			Low:    cfg.Grid.OccupancyLow,
			High:   cfg.Grid.OccupancyHigh,
		},
		PhaseHook: a.phaseHook,
	})
	if err != nil {
		return nil, fmt.Errorf("creating simulator: %w", err)
	}
	a.sim = s

	a.out, err = telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		s.Stop()
		return nil, err
	}
	if err := a.out.WriteConfig(cfg); err != nil {
		slog.Warn("failed to write config snapshot", "error", err)
	}

	a.topo = spatial.Topology{Width: params.WorldWidth, Height: params.WorldHeight}
	if !opts.Headless {
		a.cam = camera.New(float64(cfg.Screen.Width), float64(cfg.Screen.Height), a.topo)
		a.ren = renderer.New(a.topo)
		a.hud = ui.NewHUD()
		a.debugPanel = ui.NewDebugPanel(int32(cfg.Screen.Width)-230, 10, 220)
		a.paramsPanel = ui.NewParamsPanel(10, 100, 280, params, cfg.Population.HardCap)
	}

	s.Start()
	a.syncRenderState()
	return a, nil
}

// phaseHook feeds simulator phase timings into the perf collector.
func (a *App) phaseHook(phase string, d time.Duration) {
	if phase == sim.PhaseRebuild {
		a.perf.StartTick()
	}
	a.perf.RecordPhase(phase, d)
	if phase == sim.PhaseIntegrate {
		a.perf.EndTick()
	}
}

// Update advances the simulation by the frame time and handles input.
func (a *App) Update() {
	overPanel := false
	if a.paramsPanel.IsVisible() {
		mouse := rl.GetMousePosition()
		overPanel = mouse.X < 300 && mouse.Y > 90
	}
	a.handleInput(overPanel)

	elapsed := time.Duration(float64(time.Second) * float64(rl.GetFrameTime()))
	a.sim.Advance(elapsed)

	a.afterTicks()

	// The renderer needs fresh tick buffers exactly once per tick.
	if a.sim.Tick() != a.lastSynced {
		a.syncRenderState()
	}
	a.ren.Lerp(a.sim.Alpha())

	if a.selected >= 0 && a.selected < a.ren.Len() {
		x, y := a.ren.Position(a.selected)
		a.cam.Follow(x, y, 0.1)
	} else {
		a.selected = -1
	}

	a.perf.RecordFrame()
}

// UpdateHeadless advances the simulation by exactly one fixed tick.
// Duration truncates below DT, so one extra nanosecond keeps the
// accumulator over the threshold.
func (a *App) UpdateHeadless() {
	a.sim.Advance(time.Duration(float64(time.Second)*a.sim.DT()) + time.Nanosecond)
	a.afterTicks()
}

// afterTicks does window-boundary telemetry for any ticks that ran.
// Multiple ticks can run per frame, so boundaries are detected by
// window index rather than an exact modulo.
func (a *App) afterTicks() {
	tick := a.sim.Tick()
	window := tick / a.statsWindowTicks
	if window == a.lastStatsWindow {
		return
	}
	a.lastStatsWindow = window

	v := a.sim.Agents()
	_, _, _, _, velX, velY := v.Buffers()
	a.lastFlock = telemetry.CollectWindow(tick, float64(tick)*a.sim.DT(), velX, velY, a.sim.GridStats())

	perfStats := a.perf.Stats()

	if a.opts.LogStats {
		a.lastFlock.LogStats()
		perfStats.LogStats()
	}
	if err := a.out.WriteStats(a.lastFlock); err != nil {
		slog.Warn("stats output failed", "error", err)
	}
	if err := a.out.WritePerf(perfStats, tick); err != nil {
		slog.Warn("perf output failed", "error", err)
	}
}

// syncRenderState refreshes the renderer copy and tracks world-size
// parameter changes.
func (a *App) syncRenderState() {
	p := a.sim.Params()
	if p.WorldWidth != a.topo.Width || p.WorldHeight != a.topo.Height {
		a.topo = spatial.Topology{Width: p.WorldWidth, Height: p.WorldHeight}
		if a.cam != nil {
			a.cam.SetWorld(a.topo)
		}
		if a.ren != nil {
			a.ren.SetWorld(a.topo)
		}
	}
	if a.ren != nil {
		a.ren.Sync(a.sim.Agents())
	}
	a.lastSynced = a.sim.Tick()
}

// handleInput processes camera, selection, and state controls.
func (a *App) handleInput(overPanel bool) {
	// Keyboard
	switch {
	case rl.IsKeyPressed(rl.KeySpace):
		if a.sim.State() == sim.StateRunning {
			a.sim.Pause()
		} else {
			a.sim.Resume()
		}
	case rl.IsKeyPressed(rl.KeyR):
		a.sim.Reset()
		a.selected = -1
		a.paramsPanel.Sync(a.sim.Params())
		a.syncRenderState()
	case rl.IsKeyPressed(rl.KeyTab):
		a.paramsPanel.Toggle()
	case rl.IsKeyPressed(rl.KeyF1):
		a.showDebug = !a.showDebug
	case rl.IsKeyPressed(rl.KeyG):
		a.showGrid = !a.showGrid
	case rl.IsKeyPressed(rl.KeyP):
		a.showRadii = !a.showRadii
	case rl.IsKeyPressed(rl.KeyEscape):
		a.selected = -1
	case rl.IsKeyPressed(rl.KeyC):
		a.cam.Reset()
	}

	if overPanel {
		return
	}

	// Zoom at the cursor
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		mouse := rl.GetMousePosition()
		a.cam.ZoomAt(1+float64(wheel)*0.1, float64(mouse.X), float64(mouse.Y))
	}

	// Pan with the right button
	if rl.IsMouseButtonDown(rl.MouseRightButton) {
		delta := rl.GetMouseDelta()
		a.cam.Pan(-float64(delta.X), -float64(delta.Y))
	}

	// Select the nearest agent with the left button
	if rl.IsMouseButtonPressed(rl.MouseLeftButton) {
		mouse := rl.GetMousePosition()
		wx, wy := a.cam.ScreenToWorld(float64(mouse.X), float64(mouse.Y))
		pickRadius := 20 / a.cam.Zoom
		if idx, ok := a.sim.NearestAgent(wx, wy, pickRadius); ok {
			a.selected = idx
		} else {
			a.selected = -1
		}
	}
}

// Draw renders one frame.
func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 12, G: 15, B: 20, A: 255})

	if a.showGrid {
		a.ren.DrawGridOverlay(a.cam, a.sim.GridStats())
	}

	a.ren.Draw(a.cam, a.selected)

	if a.showRadii && a.selected >= 0 {
		a.ren.DrawPerceptionRadii(a.cam, a.selected, a.sim.Params())
	}

	a.hud.Draw(ui.HUDData{
		Title:        "murmur",
		Agents:       a.sim.Agents().Len(),
		Tick:         a.sim.Tick(),
		FPS:          rl.GetFPS(),
		State:        a.sim.State().String(),
		Selected:     a.selected,
		ScreenWidth:  int32(a.cfg.Screen.Width),
		ScreenHeight: int32(a.cfg.Screen.Height),
	})
	a.hud.DrawControls(int32(a.cfg.Screen.Width), int32(a.cfg.Screen.Height),
		"space pause | r reset | tab params | f1 debug | g grid | p radii | c camera | click select | wheel zoom | rmb pan")

	a.paramsPanel.Draw(a.sim.ApplyParams)

	if a.showDebug {
		a.debugPanel.Draw(ui.DebugData{
			Alpha:   a.sim.Alpha(),
			Workers: a.sim.Workers(),
			Grid:    a.sim.GridStats(),
			Perf:    a.perf.Stats(),
			Flock:   a.lastFlock,
		})
	}

	rl.EndDrawing()
}

// Tick returns the current simulation tick.
func (a *App) Tick() int64 { return a.sim.Tick() }

// Close shuts down the worker pool and flushes output files.
func (a *App) Close() {
	a.sim.Stop()
	if err := a.out.Close(); err != nil {
		slog.Warn("closing output", "error", err)
	}
}
