package history

import (
	"fmt"
	"sort"
	"time"

	"github.com/rkapoor/sortino/internal/domain"
	"github.com/rkapoor/sortino/pkg/formulas"
)

// Aligned holds the per-symbol close series restricted to the trading days on
// which every requested symbol has an observation. This is the cross-
// sectionally aligned view the simulator requires: row i of every symbol's
// slice refers to the same date.
type Aligned struct {
	Dates   []time.Time
	Symbols []string
	Closes  map[string][]float64
}

// Len returns the number of common trading days.
func (a Aligned) Len() int { return len(a.Dates) }

// Returns computes the daily-return matrix from the aligned closes. Every
// slice has length Len()-1 and shares row indices across symbols.
func (a Aligned) Returns() map[string][]float64 {
	returns := make(map[string][]float64, len(a.Symbols))
	for _, symbol := range a.Symbols {
		returns[symbol] = formulas.CalculateReturns(a.Closes[symbol])
	}
	return returns
}

// Align intersects the requested symbols' series on their common dates.
// Symbols with no data at all are an error; the caller decides beforehand
// which symbols it needs.
func Align(seriesBySymbol map[string]domain.PriceSeries, symbols []string) (Aligned, error) {
	if len(symbols) == 0 {
		return Aligned{}, fmt.Errorf("no symbols requested for alignment")
	}

	for _, symbol := range symbols {
		ps, ok := seriesBySymbol[symbol]
		if !ok || ps.Len() == 0 {
			return Aligned{}, fmt.Errorf("no price history for %s", symbol)
		}
	}

	// Count date occurrences across the requested symbols; a date common to
	// all of them appears exactly len(symbols) times.
	counts := make(map[time.Time]int)
	for _, symbol := range symbols {
		for _, p := range seriesBySymbol[symbol].Points {
			counts[p.Date] = counts[p.Date] + 1
		}
	}

	var common []time.Time
	for date, n := range counts {
		if n == len(symbols) {
			common = append(common, date)
		}
	}
	if len(common) == 0 {
		return Aligned{}, fmt.Errorf("symbols share no common trading days")
	}
	sort.Slice(common, func(i, j int) bool { return common[i].Before(common[j]) })

	aligned := Aligned{
		Dates:   common,
		Symbols: append([]string(nil), symbols...),
		Closes:  make(map[string][]float64, len(symbols)),
	}

	index := make(map[time.Time]int, len(common))
	for i, date := range common {
		index[date] = i
	}
	for _, symbol := range symbols {
		closes := make([]float64, len(common))
		for _, p := range seriesBySymbol[symbol].Points {
			if i, ok := index[p.Date]; ok {
				closes[i] = p.Close
			}
		}
		aligned.Closes[symbol] = closes
	}

	return aligned, nil
}
