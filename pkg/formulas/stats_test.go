package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateReturns(t *testing.T) {
	tests := []struct {
		name     string
		prices   []float64
		expected []float64
	}{
		{
			name:     "simple rise",
			prices:   []float64{100, 110, 121},
			expected: []float64{0.10, 0.10},
		},
		{
			name:     "flat series",
			prices:   []float64{50, 50, 50},
			expected: []float64{0, 0},
		},
		{
			name:     "too short",
			prices:   []float64{100},
			expected: []float64{},
		},
		{
			name:     "zero price guarded",
			prices:   []float64{0, 100},
			expected: []float64{0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateReturns(tt.prices)
			assert.Equal(t, len(tt.expected), len(result))
			for i := range tt.expected {
				assert.InDelta(t, tt.expected[i], result[i], 1e-12)
			}
		})
	}
}

func TestDownsideDeviation(t *testing.T) {
	t.Run("only negative days counted", func(t *testing.T) {
		returns := []float64{0.01, -0.02, 0.03, -0.02, 0.05, -0.02}
		// All negative days equal: sample stddev of {-0.02,-0.02,-0.02} is 0
		assert.InDelta(t, 0, DownsideDeviation(returns), 1e-12)
	})

	t.Run("no negative days is degenerate", func(t *testing.T) {
		returns := []float64{0.01, 0.02, 0.0, 0.03}
		assert.Equal(t, 0.0, DownsideDeviation(returns))
	})

	t.Run("single negative day is degenerate", func(t *testing.T) {
		returns := []float64{0.01, -0.02, 0.03}
		assert.Equal(t, 0.0, DownsideDeviation(returns))
	})

	t.Run("annualization factor applied", func(t *testing.T) {
		returns := []float64{-0.01, -0.03, 0.02, 0.02}
		daily := StdDev([]float64{-0.01, -0.03})
		assert.InDelta(t, daily*math.Sqrt(252), DownsideDeviation(returns), 1e-12)
	})
}

func TestPercentile(t *testing.T) {
	data := []float64{5, 1, 4, 2, 3}

	assert.InDelta(t, 1, Percentile(data, 0), 1e-12)
	assert.InDelta(t, 3, Percentile(data, 50), 1e-12)
	assert.InDelta(t, 5, Percentile(data, 100), 1e-12)

	// Input must not be reordered
	assert.Equal(t, []float64{5, 1, 4, 2, 3}, data)
}

func TestPercentileMonotonic(t *testing.T) {
	data := []float64{-0.3, -0.1, 0.0, 0.05, 0.12, 0.4, -0.22, 0.07}
	prev := math.Inf(-1)
	for _, p := range []float64{1, 5, 25, 50, 75, 95} {
		v := Percentile(data, p)
		assert.GreaterOrEqual(t, v, prev, "percentiles must be non-decreasing")
		prev = v
	}
}

func TestCompoundReturn(t *testing.T) {
	assert.InDelta(t, 0.21, CompoundReturn([]float64{0.1, 0.1}), 1e-12)
	assert.InDelta(t, 0, CompoundReturn(nil), 1e-12)
	assert.InDelta(t, -0.19, CompoundReturn([]float64{-0.1, -0.1}), 1e-12)
}

func TestCalculateCVaR(t *testing.T) {
	tests := []struct {
		name       string
		returns    []float64
		confidence float64
		expected   float64
	}{
		{
			name:       "empty",
			returns:    nil,
			confidence: 0.95,
			expected:   0,
		},
		{
			name:       "single observation",
			returns:    []float64{-0.05},
			confidence: 0.95,
			expected:   -0.05,
		},
		{
			name:       "worst 50 percent averaged",
			returns:    []float64{-0.10, -0.02, 0.01, 0.05},
			confidence: 0.5,
			expected:   -0.06,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CalculateCVaR(tt.returns, tt.confidence), 1e-12)
		})
	}
}
