package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func series(closes ...float64) PriceSeries {
	ps := PriceSeries{Symbol: "TEST"}
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, c := range closes {
		ps.Points = append(ps.Points, PricePoint{Date: day, Close: c})
		day = day.AddDate(0, 0, 1)
	}
	return ps
}

func TestWindowReturn(t *testing.T) {
	tests := []struct {
		name     string
		closes   []float64
		lookback int
		expected float64
	}{
		{
			name:     "full window",
			closes:   []float64{100, 105, 110, 120},
			lookback: 3,
			expected: 0.20,
		},
		{
			name:     "short window",
			closes:   []float64{100, 105, 110, 120},
			lookback: 1,
			expected: 120.0/110.0 - 1,
		},
		{
			name:     "lookback longer than history shrinks",
			closes:   []float64{100, 110},
			lookback: 126,
			expected: 0.10,
		},
		{
			name:     "too short",
			closes:   []float64{100},
			lookback: 63,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, series(tt.closes...).WindowReturn(tt.lookback), 1e-12)
		})
	}
}

func TestPortfolioWeights(t *testing.T) {
	t.Run("dollar amounts normalize", func(t *testing.T) {
		p := Portfolio{Holdings: []Holding{
			{Symbol: "PAAS", Amount: 6000},
			{Symbol: "XOM", Amount: 4000},
		}}
		w := p.Weights()
		assert.InDelta(t, 0.6, w["PAAS"], 1e-12)
		assert.InDelta(t, 0.4, w["XOM"], 1e-12)
	})

	t.Run("duplicate symbols merge", func(t *testing.T) {
		p := Portfolio{Holdings: []Holding{
			{Symbol: "XOM", Amount: 1},
			{Symbol: "XOM", Amount: 1},
		}}
		assert.InDelta(t, 1.0, p.Weights()["XOM"], 1e-12)
		assert.Equal(t, []string{"XOM"}, p.Symbols())
	})

	t.Run("empty portfolio", func(t *testing.T) {
		assert.Nil(t, Portfolio{}.Weights())
	})
}
