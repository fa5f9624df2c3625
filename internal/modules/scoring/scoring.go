// Package scoring computes the momentum/downside-volatility score that drives
// the allocator: score = blended trailing momentum divided by annualized
// downside deviation. Reward per unit of harmful variance, not total variance.
package scoring

import (
	"fmt"
	"sort"

	"github.com/rkapoor/sortino/internal/domain"
	"github.com/rkapoor/sortino/pkg/formulas"
)

// Reason explains why a symbol is or is not eligible for allocation.
type Reason string

const (
	ReasonIncluded            Reason = "included"
	ReasonInsufficientHistory Reason = "insufficient-history"
	ReasonDegenerateVol       Reason = "degenerate-downside-volatility"
	ReasonNegativeMomentum    Reason = "non-positive-momentum"
	ReasonTaxExcluded         Reason = "tax-excluded"
	ReasonBelowMinimum        Reason = "below-minimum-position"
	ReasonNotInUniverse       Reason = "not-in-universe"
)

// Config holds the lookback windows and the momentum blend weight.
type Config struct {
	ShortWindow int     // trading days, e.g. 63
	LongWindow  int     // trading days, e.g. 126
	ShortWeight float64 // weight of the short-window momentum; long gets 1-w
}

// Validate checks the scoring parameters.
func (c Config) Validate() error {
	if c.ShortWindow <= 0 || c.LongWindow <= 0 {
		return fmt.Errorf("lookback windows must be positive: %d/%d", c.ShortWindow, c.LongWindow)
	}
	if c.ShortWindow > c.LongWindow {
		return fmt.Errorf("short window %d exceeds long window %d", c.ShortWindow, c.LongWindow)
	}
	if c.ShortWeight < 0 || c.ShortWeight > 1 {
		return fmt.Errorf("short momentum weight must be in [0,1]: %v", c.ShortWeight)
	}
	return nil
}

// Card is the per-symbol scoring result. A card with Reason != ReasonIncluded
// carries whatever values could still be computed, for reporting.
type Card struct {
	Symbol      string  `json:"symbol"`
	HistoryDays int     `json:"history_days"`
	MomShort    float64 `json:"mom_short"`
	MomLong     float64 `json:"mom_long"`
	Combined    float64 `json:"combined_momentum"`
	DownsideVol float64 `json:"downside_vol"`
	Score       float64 `json:"score"`
	Reason      Reason  `json:"reason"`
}

// Eligible reports whether the symbol passed every scoring filter.
func (c Card) Eligible() bool { return c.Reason == ReasonIncluded }

// Compute scores a single symbol's price series.
//
// A series shorter than the long lookback is insufficient: shrinking the
// window silently would make cross-symbol momentum incomparable, so the
// symbol is flagged instead. Zero downside volatility (no two negative days
// in the window) leaves the score undefined; the symbol is flagged, never
// divided by zero.
//
// Momentum eligibility is judged on the blend-weighted combination of the
// short and long returns, not on their raw sum: a ShortWeight that tips the
// blend non-positive excludes the symbol even when one leg is positive, so
// the filter and the score always agree in sign.
func Compute(ps domain.PriceSeries, cfg Config) Card {
	card := Card{
		Symbol:      ps.Symbol,
		HistoryDays: ps.Len(),
		Reason:      ReasonIncluded,
	}

	if ps.Len() < cfg.LongWindow+1 {
		card.Reason = ReasonInsufficientHistory
		return card
	}

	card.MomShort = ps.WindowReturn(cfg.ShortWindow)
	card.MomLong = ps.WindowReturn(cfg.LongWindow)
	card.Combined = cfg.ShortWeight*card.MomShort + (1-cfg.ShortWeight)*card.MomLong

	closes := ps.Closes()
	windowReturns := formulas.CalculateReturns(closes[len(closes)-cfg.LongWindow-1:])
	card.DownsideVol = formulas.DownsideDeviation(windowReturns)

	if card.DownsideVol <= 0 {
		card.Reason = ReasonDegenerateVol
		return card
	}

	card.Score = card.Combined / card.DownsideVol

	if card.Combined <= 0 {
		card.Reason = ReasonNegativeMomentum
	}
	return card
}

// ComputeAll scores every series, returning cards sorted by symbol for
// deterministic output.
func ComputeAll(seriesBySymbol map[string]domain.PriceSeries, cfg Config) []Card {
	symbols := make([]string, 0, len(seriesBySymbol))
	for s := range seriesBySymbol {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	cards := make([]Card, 0, len(symbols))
	for _, symbol := range symbols {
		cards = append(cards, Compute(seriesBySymbol[symbol], cfg))
	}
	return cards
}
