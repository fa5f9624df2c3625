package correlation

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeMatrix(t *testing.T) {
	an := New(zerolog.Nop())
	returns := map[string][]float64{
		"GDX": {0.01, -0.02, 0.015, -0.005, 0.02},
		"GLD": {0.008, -0.018, 0.012, -0.004, 0.019}, // tracks GDX closely
		"XOM": {-0.01, 0.02, -0.012, 0.004, -0.02},   // moves the other way
	}

	m, err := an.Compute(returns)
	require.NoError(t, err)
	require.Equal(t, []string{"GDX", "GLD", "XOM"}, m.Symbols)

	for i := range m.Symbols {
		assert.InDelta(t, 1.0, m.Values[i][i], 1e-12)
		for j := range m.Symbols {
			assert.InDelta(t, m.Values[j][i], m.Values[i][j], 1e-12, "matrix must be symmetric")
			assert.LessOrEqual(t, m.Values[i][j], 1.0+1e-9)
			assert.GreaterOrEqual(t, m.Values[i][j], -1.0-1e-9)
		}
	}

	c, ok := m.At("GDX", "GLD")
	require.True(t, ok)
	assert.Greater(t, c, HighCorrelationThreshold)

	c, ok = m.At("GDX", "XOM")
	require.True(t, ok)
	assert.Negative(t, c)

	_, ok = m.At("GDX", "MISSING")
	assert.False(t, ok)
}

func TestHighPairs(t *testing.T) {
	an := New(zerolog.Nop())
	returns := map[string][]float64{
		"GDX": {0.01, -0.02, 0.015, -0.005, 0.02},
		"GLD": {0.008, -0.018, 0.012, -0.004, 0.019},
		"XOM": {-0.01, 0.02, -0.012, 0.004, -0.02},
	}
	m, err := an.Compute(returns)
	require.NoError(t, err)

	pairs := m.HighPairs(HighCorrelationThreshold)
	require.Len(t, pairs, 1)
	assert.Equal(t, "GDX", pairs[0].SymbolA)
	assert.Equal(t, "GLD", pairs[0].SymbolB)
	assert.GreaterOrEqual(t, pairs[0].Correlation, HighCorrelationThreshold)
}

func TestComputeErrors(t *testing.T) {
	an := New(zerolog.Nop())

	t.Run("one symbol", func(t *testing.T) {
		_, err := an.Compute(map[string][]float64{"GDX": {0.01, 0.02, 0.03}})
		assert.Error(t, err)
	})

	t.Run("too few days", func(t *testing.T) {
		_, err := an.Compute(map[string][]float64{
			"GDX": {0.01, 0.02},
			"GLD": {0.01, 0.02},
		})
		assert.Error(t, err)
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := an.Compute(map[string][]float64{
			"GDX": {0.01, 0.02, 0.03},
			"GLD": {0.01, 0.02},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "GLD")
	})
}
