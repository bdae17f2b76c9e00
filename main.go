package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/murmur/config"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int64("max-ticks", 0, "Stop after N ticks (0 = unlimited)")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	// Structured JSON logging to stdout
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	opts := Options{
		Seed:      rngSeed,
		LogStats:  *logStats,
		OutputDir: *outputDir,
		Headless:  *headless,
	}

	if *headless {
		app, err := NewApp(cfg, opts)
		if err != nil {
			slog.Error("failed to start", "error", err)
			os.Exit(1)
		}
		defer app.Close()

		slog.Info("starting headless simulation",
			"seed", rngSeed,
			"agents", cfg.Population.Initial,
			"max_ticks", *maxTicks,
		)

		for {
			app.UpdateHeadless()

			if *maxTicks > 0 && app.Tick() >= *maxTicks {
				slog.Info("max ticks reached", "tick", app.Tick())
				return
			}
		}
	}

	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "murmur")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))
	rl.SetExitKey(0) // escape deselects instead of quitting

	app, err := NewApp(cfg, opts)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	for !rl.WindowShouldClose() {
		app.Update()
		app.Draw()

		if *maxTicks > 0 && app.Tick() >= *maxTicks {
			break
		}
	}
}
