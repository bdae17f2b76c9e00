package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/murmur/spatial"
)

// WindowStats holds aggregated flock statistics for a time window.
type WindowStats struct {
	WindowEndTick int64   `csv:"window_end"`
	SimTimeSec    float64 `csv:"sim_time"`

	Agents int `csv:"agents"`

	// Speed distribution (sampled at window end)
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedP10  float64 `csv:"speed_p10"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`

	// Polarization is the magnitude of the mean heading in [0, 1]:
	// 1 when every agent moves the same direction, ~0 when headings
	// are uniformly scattered.
	Polarization float64 `csv:"polarization"`

	// Grid diagnostics
	OccupiedCells int     `csv:"occupied_cells"`
	MaxBucket     int     `csv:"max_bucket"`
	CellSize      float64 `csv:"cell_size"`
}

// CollectWindow samples flock statistics from the velocity buffers and
// grid diagnostics at a window boundary.
func CollectWindow(tick int64, simTime float64, velX, velY []float64, gs spatial.Stats) WindowStats {
	ws := WindowStats{
		WindowEndTick: tick,
		SimTimeSec:    simTime,
		Agents:        len(velX),
		OccupiedCells: gs.OccupiedCells,
		MaxBucket:     gs.MaxBucket,
		CellSize:      gs.CellSize,
	}

	speeds := make([]float64, len(velX))
	for i := range velX {
		speeds[i] = math.Hypot(velX[i], velY[i])
	}
	ws.SpeedMean, ws.SpeedStd, ws.SpeedP10, ws.SpeedP50, ws.SpeedP90 = SpeedStats(speeds)
	ws.Polarization = Polarization(velX, velY)
	return ws
}

// SpeedStats calculates mean, std, and percentiles from speed values.
func SpeedStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)
	if n > 1 {
		std = stat.StdDev(values, nil)
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)

	return mean, std, p10, p50, p90
}

// Polarization computes the flock order parameter: the magnitude of
// the average unit heading. Agents at rest are skipped.
func Polarization(velX, velY []float64) float64 {
	var sumX, sumY float64
	count := 0
	for i := range velX {
		speed := math.Hypot(velX[i], velY[i])
		if speed == 0 {
			continue
		}
		sumX += velX[i] / speed
		sumY += velY[i] / speed
		count++
	}
	if count == 0 {
		return 0
	}
	return math.Hypot(sumX, sumY) / float64(count)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("agents", s.Agents),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_std", s.SpeedStd),
		slog.Float64("speed_p10", s.SpeedP10),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("polarization", s.Polarization),
		slog.Int("occupied_cells", s.OccupiedCells),
		slog.Int("max_bucket", s.MaxBucket),
		slog.Float64("cell_size", s.CellSize),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"agents", s.Agents,
		"speed_mean", s.SpeedMean,
		"speed_std", s.SpeedStd,
		"speed_p10", s.SpeedP10,
		"speed_p50", s.SpeedP50,
		"speed_p90", s.SpeedP90,
		"polarization", s.Polarization,
		"occupied_cells", s.OccupiedCells,
		"max_bucket", s.MaxBucket,
		"cell_size", s.CellSize,
	)
}
