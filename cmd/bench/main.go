// Command bench measures simulation throughput across agent counts.
// It runs the full tick pipeline headless and reports ticks per second
// with a per-phase breakdown, optionally as CSV.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/murmur/config"
	"github.com/pthm-cable/murmur/sim"
	"github.com/pthm-cable/murmur/spatial"
)

// Result is one benchmark row.
type Result struct {
	Agents      int     `csv:"agents"`
	Ticks       int     `csv:"ticks"`
	Workers     int     `csv:"workers"`
	TotalMS     float64 `csv:"total_ms"`
	TicksPerSec float64 `csv:"ticks_per_sec"`
	RebuildUS   float64 `csv:"rebuild_us"`
	ForcesUS    float64 `csv:"forces_us"`
	IntegrateUS float64 `csv:"integrate_us"`
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	countsArg := flag.String("counts", "1000,5000,10000,20000,50000", "Comma-separated agent counts")
	ticks := flag.Int("ticks", 600, "Ticks to run per count")
	warmup := flag.Int("warmup", 60, "Warmup ticks excluded from timing")
	workers := flag.Int("workers", 0, "Worker count (0 = GOMAXPROCS)")
	seed := flag.Int64("seed", 42, "RNG seed")
	csvPath := flag.String("csv", "", "Write results as CSV to this path")

	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	counts, err := parseCounts(*countsArg)
	if err != nil {
		slog.Error("invalid -counts", "error", err)
		os.Exit(1)
	}

	results := make([]Result, 0, len(counts))
	for _, n := range counts {
		res, err := run(cfg, n, *ticks, *warmup, *workers, *seed)
		if err != nil {
			slog.Error("benchmark failed", "agents", n, "error", err)
			os.Exit(1)
		}
		results = append(results, res)

		fmt.Printf("%8d agents: %8.1f ticks/s  (rebuild %6.0fus  forces %8.0fus  integrate %6.0fus)\n",
			res.Agents, res.TicksPerSec, res.RebuildUS, res.ForcesUS, res.IntegrateUS)
	}

	if *csvPath != "" {
		if err := writeCSV(*csvPath, results); err != nil {
			slog.Error("failed to write csv", "error", err)
			os.Exit(1)
		}
	}
}

// run executes one benchmark configuration and aggregates phase times.
func run(cfg *config.Config, agents, ticks, warmup int, workers int, seed int64) (Result, error) {
	params := sim.FromConfig(cfg)
	params.AgentCount = agents

	var phaseTotals map[string]time.Duration
	hook := func(phase string, d time.Duration) {
		if phaseTotals != nil {
			phaseTotals[phase] += d
		}
	}

	s, err := sim.New(params, sim.Options{
		Seed:           seed,
		DT:             cfg.Derived.DT,
		RetuneInterval: cfg.Grid.RetuneInterval,
		HardCap:        agents,
		GridTuning: spatial.Tuning{
			Target: cfg.Grid.TargetOccupancy,
			Low:    cfg.Grid.OccupancyLow,
			High:   cfg.Grid.OccupancyHigh,
		},
		Workers:   workers,
		PhaseHook: hook,
	})
	if err != nil {
		return Result{}, err
	}
	defer s.Stop()

	s.Start()

	// Duration truncates below DT; one extra nanosecond guarantees a
	// tick per Advance call.
	tickDur := time.Duration(float64(time.Second)*s.DT()) + time.Nanosecond
	for i := 0; i < warmup; i++ {
		s.Advance(tickDur)
	}

	phaseTotals = make(map[string]time.Duration)
	start := time.Now()
	for i := 0; i < ticks; i++ {
		s.Advance(tickDur)
	}
	total := time.Since(start)

	perTick := func(phase string) float64 {
		return float64(phaseTotals[phase].Microseconds()) / float64(ticks)
	}

	return Result{
		Agents:      agents,
		Ticks:       ticks,
		Workers:     s.Workers(),
		TotalMS:     float64(total.Milliseconds()),
		TicksPerSec: float64(ticks) / total.Seconds(),
		RebuildUS:   perTick(sim.PhaseRebuild),
		ForcesUS:    perTick(sim.PhaseForces),
		IntegrateUS: perTick(sim.PhaseIntegrate),
	}, nil
}

func parseCounts(arg string) ([]int, error) {
	parts := strings.Split(arg, ",")
	counts := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", p, err)
		}
		if n <= 0 {
			return nil, fmt.Errorf("count %d must be positive", n)
		}
		counts = append(counts, n)
	}
	return counts, nil
}

func writeCSV(path string, results []Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.Marshal(results, f); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	return nil
}
