// Package simulation estimates the forward return distribution of a
// weighted portfolio by resampling its historical daily returns.
//
// The default method is a block bootstrap: consecutive runs of trading
// days are stitched together so short-term autocorrelation survives the
// resampling. Blocks index into the aligned return history, so the
// cross-sectional relationship between holdings is preserved by
// construction. An iid bootstrap and a historical rolling-window replay
// are available for comparison.
package simulation

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/rs/zerolog"

	"github.com/rkapoor/sortino/pkg/formulas"
)

// Method selects how paths are generated.
type Method string

const (
	// MethodBlock resamples consecutive blocks of trading days.
	MethodBlock Method = "block"
	// MethodIID resamples single days independently.
	MethodIID Method = "iid"
	// MethodHistorical replays every rolling window of the history once.
	MethodHistorical Method = "historical"
)

// Defaults for a quarterly look-ahead.
const (
	DefaultBlockLength = 5
	DefaultHorizon     = 63
	DefaultPaths       = 10000
	DefaultSeed        = 42
)

// Config describes one simulation run.
type Config struct {
	Method      Method
	BlockLength int
	Horizon     int // trading days to project
	Paths       int
	Seed        int64
}

// Validate rejects configurations that cannot produce paths.
func (c Config) Validate() error {
	switch c.Method {
	case MethodBlock, MethodIID, MethodHistorical, "":
	default:
		return fmt.Errorf("unknown simulation method %q", c.Method)
	}
	if c.Horizon <= 0 {
		return fmt.Errorf("horizon %d must be positive", c.Horizon)
	}
	if c.method() != MethodHistorical && c.Paths <= 0 {
		return fmt.Errorf("paths %d must be positive", c.Paths)
	}
	if c.method() == MethodBlock && c.BlockLength <= 0 {
		return fmt.Errorf("block length %d must be positive", c.BlockLength)
	}
	return nil
}

func (c Config) method() Method {
	if c.Method == "" {
		return MethodBlock
	}
	return c.Method
}

// PercentilePoint is one percentile of the terminal return distribution.
type PercentilePoint struct {
	Percentile int
	Return     float64
}

// reportedPercentiles are the distribution points every summary carries.
var reportedPercentiles = []int{1, 5, 10, 25, 50, 75, 90, 95, 99}

// DrawdownSummary describes the per-path maximum drawdown distribution.
// Values are negative fractions, zero when no path ever went underwater.
type DrawdownSummary struct {
	Median float64
	P90    float64 // 90th percentile of drawdown depth
	P95    float64
	Worst  float64
}

// Summary is the outcome of a simulation run.
type Summary struct {
	Method  Method
	Horizon int
	Paths   int

	Mean        float64
	StdDev      float64
	Percentiles []PercentilePoint

	ProbLoss   float64 // P(terminal return < 0)
	ProbDown10 float64 // P(terminal return < -10%)
	ProbDown20 float64
	ProbDown30 float64
	ProbGain10 float64 // P(terminal return > +10%)
	ProbGain20 float64
	ProbGain30 float64
	ProbGain50 float64

	VaR95  float64 // loss fraction at the 5th percentile, positive
	VaR99  float64
	CVaR95 float64 // mean loss beyond VaR95, positive

	Drawdown DrawdownSummary
}

// Percentile returns the terminal return at the given reported percentile.
func (s Summary) Percentile(p int) (float64, bool) {
	for _, pt := range s.Percentiles {
		if pt.Percentile == p {
			return pt.Return, true
		}
	}
	return 0, false
}

// Simulator generates resampled portfolio paths.
type Simulator struct {
	log zerolog.Logger
}

// New returns a simulator logging through the given logger.
func New(log zerolog.Logger) *Simulator {
	return &Simulator{log: log.With().Str("component", "simulation").Logger()}
}

// PortfolioReturns collapses per-symbol daily returns into one weighted
// series. Every weighted symbol must be present with the same history
// length; weights are normalized so partial weight sums still describe a
// full portfolio.
func PortfolioReturns(returns map[string][]float64, weights map[string]float64) ([]float64, error) {
	var symbols []string
	var total float64
	for s, w := range weights {
		if w <= 0 {
			continue
		}
		if _, ok := returns[s]; !ok {
			return nil, fmt.Errorf("no return history for %s", s)
		}
		symbols = append(symbols, s)
		total += w
	}
	if len(symbols) == 0 || total <= 0 {
		return nil, fmt.Errorf("no weighted symbols to simulate")
	}
	sort.Strings(symbols)

	n := len(returns[symbols[0]])
	for _, s := range symbols {
		if len(returns[s]) != n {
			return nil, fmt.Errorf("return history for %s has %d days, want %d", s, len(returns[s]), n)
		}
	}
	if n == 0 {
		return nil, fmt.Errorf("empty return history")
	}

	port := make([]float64, n)
	for _, s := range symbols {
		w := weights[s] / total
		for i, r := range returns[s] {
			port[i] += w * r
		}
	}
	return port, nil
}

// Run resamples the weighted portfolio history and summarizes the
// terminal return distribution over the configured horizon.
func (s *Simulator) Run(returns map[string][]float64, weights map[string]float64, cfg Config) (Summary, error) {
	if err := cfg.Validate(); err != nil {
		return Summary{}, fmt.Errorf("invalid simulation config: %w", err)
	}
	port, err := PortfolioReturns(returns, weights)
	if err != nil {
		return Summary{}, err
	}
	if cfg.method() == MethodBlock && len(port) < cfg.BlockLength {
		var held []string
		for sym, w := range weights {
			if w > 0 {
				held = append(held, sym)
			}
		}
		sort.Strings(held)
		return Summary{}, fmt.Errorf("insufficient history for %v: %d daily returns cannot fill a block of %d", held, len(port), cfg.BlockLength)
	}
	return s.RunSeries(port, cfg)
}

// RunSeries resamples an already-collapsed portfolio return series.
func (s *Simulator) RunSeries(port []float64, cfg Config) (Summary, error) {
	if err := cfg.Validate(); err != nil {
		return Summary{}, fmt.Errorf("invalid simulation config: %w", err)
	}

	var terminals, drawdowns []float64
	var err error
	switch cfg.method() {
	case MethodBlock:
		terminals, drawdowns, err = blockPaths(port, cfg)
	case MethodIID:
		terminals, drawdowns, err = iidPaths(port, cfg)
	case MethodHistorical:
		terminals, drawdowns, err = historicalPaths(port, cfg)
	}
	if err != nil {
		return Summary{}, err
	}

	sum := summarize(terminals, drawdowns, cfg)
	s.log.Info().
		Str("method", string(sum.Method)).
		Int("paths", sum.Paths).
		Int("horizon", sum.Horizon).
		Float64("median", median(terminals)).
		Float64("prob_loss", sum.ProbLoss).
		Msg("simulation complete")
	return sum, nil
}

// blockPaths draws ceil(horizon/block) consecutive blocks per path. The
// final block is truncated so every path is exactly horizon days long.
func blockPaths(port []float64, cfg Config) (terminals, drawdowns []float64, err error) {
	if len(port) < cfg.BlockLength {
		return nil, nil, fmt.Errorf("history of %d daily returns is shorter than block length %d", len(port), cfg.BlockLength)
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	starts := len(port) - cfg.BlockLength + 1

	terminals = make([]float64, cfg.Paths)
	drawdowns = make([]float64, cfg.Paths)
	path := make([]float64, 0, cfg.Horizon)
	for p := 0; p < cfg.Paths; p++ {
		path = path[:0]
		for len(path) < cfg.Horizon {
			start := rng.Intn(starts)
			take := cfg.BlockLength
			if rest := cfg.Horizon - len(path); take > rest {
				take = rest
			}
			path = append(path, port[start:start+take]...)
		}
		terminals[p], drawdowns[p] = walk(path)
	}
	return terminals, drawdowns, nil
}

// iidPaths draws each day independently, destroying autocorrelation.
func iidPaths(port []float64, cfg Config) (terminals, drawdowns []float64, err error) {
	if len(port) == 0 {
		return nil, nil, fmt.Errorf("empty return history")
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	terminals = make([]float64, cfg.Paths)
	drawdowns = make([]float64, cfg.Paths)
	path := make([]float64, cfg.Horizon)
	for p := 0; p < cfg.Paths; p++ {
		for i := range path {
			path[i] = port[rng.Intn(len(port))]
		}
		terminals[p], drawdowns[p] = walk(path)
	}
	return terminals, drawdowns, nil
}

// historicalPaths replays every rolling horizon-length window once. The
// path count is determined by the history, not by cfg.Paths.
func historicalPaths(port []float64, cfg Config) (terminals, drawdowns []float64, err error) {
	if len(port) < cfg.Horizon {
		return nil, nil, fmt.Errorf("history of %d daily returns is shorter than horizon %d", len(port), cfg.Horizon)
	}
	windows := len(port) - cfg.Horizon + 1
	terminals = make([]float64, windows)
	drawdowns = make([]float64, windows)
	for i := 0; i < windows; i++ {
		terminals[i], drawdowns[i] = walk(port[i : i+cfg.Horizon])
	}
	return terminals, drawdowns, nil
}

// walk compounds one path and tracks its maximum drawdown along the way.
func walk(path []float64) (terminal, maxDrawdown float64) {
	value, peak := 1.0, 1.0
	for _, r := range path {
		value *= 1 + r
		if value > peak {
			peak = value
		} else if dd := value/peak - 1; dd < maxDrawdown {
			maxDrawdown = dd
		}
	}
	return value - 1, maxDrawdown
}

func summarize(terminals, drawdowns []float64, cfg Config) Summary {
	sum := Summary{
		Method:  cfg.method(),
		Horizon: cfg.Horizon,
		Paths:   len(terminals),
		Mean:    formulas.Mean(terminals),
		StdDev:  formulas.StdDev(terminals),
	}

	for _, p := range reportedPercentiles {
		sum.Percentiles = append(sum.Percentiles, PercentilePoint{
			Percentile: p,
			Return:     formulas.Percentile(terminals, float64(p)),
		})
	}

	n := float64(len(terminals))
	for _, t := range terminals {
		if t < 0 {
			sum.ProbLoss++
		}
		if t < -0.10 {
			sum.ProbDown10++
		}
		if t < -0.20 {
			sum.ProbDown20++
		}
		if t < -0.30 {
			sum.ProbDown30++
		}
		if t > 0.10 {
			sum.ProbGain10++
		}
		if t > 0.20 {
			sum.ProbGain20++
		}
		if t > 0.30 {
			sum.ProbGain30++
		}
		if t > 0.50 {
			sum.ProbGain50++
		}
	}
	sum.ProbLoss /= n
	sum.ProbDown10 /= n
	sum.ProbDown20 /= n
	sum.ProbDown30 /= n
	sum.ProbGain10 /= n
	sum.ProbGain20 /= n
	sum.ProbGain30 /= n
	sum.ProbGain50 /= n

	sum.VaR95 = math.Max(0, -formulas.Percentile(terminals, 5))
	sum.VaR99 = math.Max(0, -formulas.Percentile(terminals, 1))
	sum.CVaR95 = math.Max(0, -formulas.CalculateCVaR(terminals, 0.95))

	sum.Drawdown = DrawdownSummary{
		// Drawdowns are negative, so depth percentiles read from the low end.
		Median: formulas.Percentile(drawdowns, 50),
		P90:    formulas.Percentile(drawdowns, 10),
		P95:    formulas.Percentile(drawdowns, 5),
		Worst:  minOf(drawdowns),
	}
	return sum
}

func median(values []float64) float64 {
	return formulas.Percentile(values, 50)
}

func minOf(values []float64) float64 {
	var min float64
	for i, v := range values {
		if i == 0 || v < min {
			min = v
		}
	}
	return min
}
