package analytics

import (
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/l33tquant/ta-statistics/internal/model"
	"github.com/l33tquant/ta-statistics/pkg/windowstats"
)

// MetricStats describes one metric's rolling window. Statistics that are not
// defined yet (window not full, zero deviation) are left nil.
type MetricStats struct {
	Mean    *float64 `json:"rolling_avg,omitempty"`
	StdDev  *float64 `json:"rolling_std,omitempty"`
	Median  *float64 `json:"rolling_median,omitempty"`
	Min     *float64 `json:"rolling_min,omitempty"`
	Max     *float64 `json:"rolling_max,omitempty"`
	P95     *float64 `json:"rolling_p95,omitempty"`
	ZScore  *float64 `json:"zscore,omitempty"`
	Anomaly bool     `json:"anomaly"`
}

type Snapshot struct {
	TimeUnix int64       `json:"timestamp"`
	DeviceID string      `json:"device_id,omitempty"`
	CPU      MetricStats `json:"cpu"`
	RPS      MetricStats `json:"rps"`
	Samples  int         `json:"window_count"`
}

// Analyzer is fed from a single goroutine; Latest may be called from any.
type Analyzer struct {
	cpuWindow *windowstats.WindowStats[float64]
	rpsWindow *windowstats.WindowStats[float64]
	threshold float64
	logger    *zap.Logger

	mu     sync.RWMutex
	latest Snapshot
}

func NewAnalyzer(window int, threshold float64, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		cpuWindow: windowstats.NewWindowStats[float64](window),
		rpsWindow: windowstats.NewWindowStats[float64](window),
		threshold: threshold,
		logger:    logger,
	}
}

// SetDDOF switches both windows between population and sample statistics.
func (a *Analyzer) SetDDOF(ddof bool) {
	a.cpuWindow.SetDDOF(ddof)
	a.rpsWindow.SetDDOF(ddof)
}

func (a *Analyzer) SetRecomputeEvery(n int) {
	a.cpuWindow.SetRecomputeEvery(n)
	a.rpsWindow.SetRecomputeEvery(n)
}

func (a *Analyzer) Process(m model.Sample) Snapshot {
	m = m.Stamped(time.Now())

	a.cpuWindow.Push(m.CPU)
	a.rpsWindow.Push(m.RPS)

	res := Snapshot{
		TimeUnix: m.Timestamp,
		DeviceID: m.DeviceID,
		CPU:      a.describe(a.cpuWindow),
		RPS:      a.describe(a.rpsWindow),
		Samples:  a.cpuWindow.Size(),
	}

	if res.CPU.Anomaly {
		a.warn("cpu", m, m.CPU, *res.CPU.ZScore)
	}
	if res.RPS.Anomaly {
		a.warn("rps", m, m.RPS, *res.RPS.ZScore)
	}

	a.mu.Lock()
	a.latest = res
	a.mu.Unlock()

	return res
}

func (a *Analyzer) Latest() Snapshot {
	a.mu.RLock()
	res := a.latest
	a.mu.RUnlock()
	return res
}

func (a *Analyzer) describe(w *windowstats.WindowStats[float64]) MetricStats {
	s := MetricStats{
		Mean:   optional(w.Mean()),
		StdDev: optional(w.StdDev()),
		Median: optional(w.Median()),
		Min:    optional(w.Min()),
		Max:    optional(w.Max()),
		P95:    optional(w.Percentile(95)),
		ZScore: optional(w.ZScore()),
	}
	s.Anomaly = s.ZScore != nil && math.Abs(*s.ZScore) >= a.threshold
	return s
}

func (a *Analyzer) warn(metric string, m model.Sample, value, z float64) {
	a.logger.Warn("anomaly detected",
		zap.String("metric", metric),
		zap.String("device_id", m.DeviceID),
		zap.Int64("timestamp", m.Timestamp),
		zap.Float64("value", value),
		zap.Float64("zscore", z),
		zap.Float64("threshold", a.threshold),
	)
}

// optional drops NaN and undefined results so the JSON encoder never sees them.
func optional(v float64, ok bool) *float64 {
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
