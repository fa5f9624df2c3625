// Package correlation computes pairwise Pearson correlations over daily
// returns, flagging pairs that move closely enough to undermine the
// diversification an allocation assumes.
package correlation

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/rkapoor/sortino/pkg/formulas"
)

// HighCorrelationThreshold marks a pair as effectively one position.
const HighCorrelationThreshold = 0.80

// Pair is one flagged symbol pair.
type Pair struct {
	SymbolA     string
	SymbolB     string
	Correlation float64
}

// Matrix holds the full pairwise correlation grid in symbol order.
type Matrix struct {
	Symbols []string
	Values  [][]float64
}

// At returns the correlation between two symbols, or false when either
// symbol is not in the matrix.
func (m Matrix) At(a, b string) (float64, bool) {
	ia, ib := -1, -1
	for i, s := range m.Symbols {
		if s == a {
			ia = i
		}
		if s == b {
			ib = i
		}
	}
	if ia < 0 || ib < 0 {
		return 0, false
	}
	return m.Values[ia][ib], true
}

// HighPairs returns every pair at or above the threshold, strongest first.
func (m Matrix) HighPairs(threshold float64) []Pair {
	var pairs []Pair
	for i := range m.Symbols {
		for j := i + 1; j < len(m.Symbols); j++ {
			if c := m.Values[i][j]; c >= threshold {
				pairs = append(pairs, Pair{
					SymbolA:     m.Symbols[i],
					SymbolB:     m.Symbols[j],
					Correlation: c,
				})
			}
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Correlation > pairs[j].Correlation })
	return pairs
}

// Analyzer builds correlation matrices from aligned return series.
type Analyzer struct {
	log zerolog.Logger
}

// New returns an analyzer logging through the given logger.
func New(log zerolog.Logger) *Analyzer {
	return &Analyzer{log: log.With().Str("component", "correlation").Logger()}
}

// Compute builds the matrix over the given aligned daily returns. Every
// series must cover the same trading days; at least three observations
// are needed for a meaningful coefficient.
func (a *Analyzer) Compute(returns map[string][]float64) (Matrix, error) {
	symbols := make([]string, 0, len(returns))
	for s := range returns {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	if len(symbols) < 2 {
		return Matrix{}, fmt.Errorf("need at least two symbols, got %d", len(symbols))
	}
	n := len(returns[symbols[0]])
	if n < 3 {
		return Matrix{}, fmt.Errorf("need at least 3 aligned daily returns, got %d", n)
	}
	for _, s := range symbols {
		if len(returns[s]) != n {
			return Matrix{}, fmt.Errorf("return series for %s has %d days, want %d", s, len(returns[s]), n)
		}
	}

	m := Matrix{Symbols: symbols, Values: make([][]float64, len(symbols))}
	for i := range symbols {
		m.Values[i] = make([]float64, len(symbols))
		m.Values[i][i] = 1
	}
	for i := range symbols {
		for j := i + 1; j < len(symbols); j++ {
			c := formulas.Correlation(returns[symbols[i]], returns[symbols[j]])
			m.Values[i][j] = c
			m.Values[j][i] = c
		}
	}

	a.log.Debug().Int("symbols", len(symbols)).Int("days", n).Msg("correlation matrix computed")
	return m, nil
}
