package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkapoor/sortino/internal/domain"
)

func series(symbol string, closes ...float64) domain.PriceSeries {
	ps := domain.PriceSeries{Symbol: symbol}
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, c := range closes {
		ps.Points = append(ps.Points, domain.PricePoint{Date: day, Close: c})
		day = day.AddDate(0, 0, 1)
	}
	return ps
}

// small windows keep the arithmetic checkable by hand
var testCfg = Config{ShortWindow: 2, LongWindow: 4, ShortWeight: 0.5}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, testCfg.Validate())
	assert.Error(t, Config{ShortWindow: 0, LongWindow: 4, ShortWeight: 0.5}.Validate())
	assert.Error(t, Config{ShortWindow: 10, LongWindow: 4, ShortWeight: 0.5}.Validate())
	assert.Error(t, Config{ShortWindow: 2, LongWindow: 4, ShortWeight: 1.5}.Validate())
}

func TestComputeScore(t *testing.T) {
	// returns: -0.05, +0.158, -0.10, +0.212 -> two distinct negative days
	card := Compute(series("A", 100, 95, 110, 99, 120), testCfg)

	require.Equal(t, ReasonIncluded, card.Reason)
	assert.InDelta(t, 120.0/110.0-1, card.MomShort, 1e-9)
	assert.InDelta(t, 0.2, card.MomLong, 1e-9)
	assert.InDelta(t, 0.5*card.MomShort+0.5*card.MomLong, card.Combined, 1e-12)

	// downside vol: sample stddev of {-0.05, -0.10} annualized
	wantVol := math.Sqrt(0.00125) * math.Sqrt(252)
	assert.InDelta(t, wantVol, card.DownsideVol, 1e-9)
	assert.InDelta(t, card.Combined/card.DownsideVol, card.Score, 1e-12)
}

func TestComputeInsufficientHistory(t *testing.T) {
	card := Compute(series("A", 100, 101, 102, 103), testCfg) // needs 5 points
	assert.Equal(t, ReasonInsufficientHistory, card.Reason)
	assert.False(t, card.Eligible())
	assert.Equal(t, 4, card.HistoryDays)
}

func TestComputeDegenerateVolatility(t *testing.T) {
	// Monotonic rise: no negative days, downside vol undefined
	card := Compute(series("A", 100, 101, 102, 103, 104), testCfg)
	assert.Equal(t, ReasonDegenerateVol, card.Reason)
	assert.Equal(t, 0.0, card.Score)
	assert.Positive(t, card.Combined, "momentum itself is fine")
}

func TestComputeNegativeMomentum(t *testing.T) {
	// Steady decline with distinct negative days
	card := Compute(series("A", 120, 110, 104, 95, 90), testCfg)
	assert.Equal(t, ReasonNegativeMomentum, card.Reason)
	assert.Negative(t, card.Combined)
	assert.Negative(t, card.Score, "score still reported for the log")
}

func TestComputeMomentumFilterUsesBlendWeight(t *testing.T) {
	// momShort = 108/112-1 < 0, momLong = 108/100-1 > 0. The raw sum is
	// positive, but the filter follows the weighted blend: at ShortWeight
	// 0.8 the blend is negative and the symbol is excluded, while the
	// even blend keeps it in.
	ps := series("A", 100, 106, 112, 110, 108)

	heavy := Compute(ps, Config{ShortWindow: 2, LongWindow: 4, ShortWeight: 0.8})
	assert.Equal(t, ReasonNegativeMomentum, heavy.Reason)
	assert.Negative(t, heavy.Combined)
	assert.Positive(t, heavy.MomShort+heavy.MomLong)

	even := Compute(ps, testCfg)
	assert.Equal(t, ReasonIncluded, even.Reason)
	assert.Positive(t, even.Combined)
}

func TestComputeAllSortedAndDeterministic(t *testing.T) {
	input := map[string]domain.PriceSeries{
		"ZZZ": series("ZZZ", 100, 95, 110, 99, 120),
		"AAA": series("AAA", 100, 95, 110, 99, 120),
	}

	first := ComputeAll(input, testCfg)
	second := ComputeAll(input, testCfg)

	require.Len(t, first, 2)
	assert.Equal(t, "AAA", first[0].Symbol)
	assert.Equal(t, "ZZZ", first[1].Symbol)
	assert.Equal(t, first, second)
}

func TestComputeDrawdowns(t *testing.T) {
	m := ComputeDrawdowns(series("A", 100, 120, 90, 110, 130, 117))

	assert.InDelta(t, -0.25, m.MaxDrawdown, 1e-9)
	assert.InDelta(t, -0.10, m.CurrentDrawdown, 1e-9)
	assert.Equal(t, 2, m.MaxDurationDays)
	assert.InDelta(t, 1.5, m.AvgDurationDays, 1e-9)
}
