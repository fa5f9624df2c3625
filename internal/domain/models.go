// Package domain provides core domain models and types.
package domain

import "time"

// Sector represents a concentration bucket in the universe. Every security
// carries exactly one sector tag; the allocator enforces a combined-weight cap
// per sector.
type Sector string

const (
	SectorGold          Sector = "gold"
	SectorSilver        Sector = "silver"
	SectorMixedPrecious Sector = "mixed-precious"
	SectorOilGas        Sector = "oil-and-gas"
	SectorNatGas        Sector = "nat-gas"
	SectorUranium       Sector = "uranium"
	SectorCopper        Sector = "copper"
	SectorExUSValue     Sector = "ex-us-value"
	SectorBitcoinProxy  Sector = "bitcoin-proxy"
	SectorREIT          Sector = "reit"
	SectorUnknown       Sector = "unknown"
)

// KnownSectors lists every valid sector tag for universe validation.
var KnownSectors = []Sector{
	SectorGold,
	SectorSilver,
	SectorMixedPrecious,
	SectorOilGas,
	SectorNatGas,
	SectorUranium,
	SectorCopper,
	SectorExUSValue,
	SectorBitcoinProxy,
	SectorREIT,
}

// Security describes one member of the investment universe. Price data lives
// separately in PriceSeries; Security is the hand-curated part.
type Security struct {
	Symbol string `json:"symbol" yaml:"symbol"`
	Name   string `json:"name" yaml:"name"`
	Sector Sector `json:"sector" yaml:"sector"`
	// SimpleTaxStatement is true when the issuer sends a plain year-end 1099
	// (no K-1, no PFIC paperwork). Securities without it are excluded from
	// allocation regardless of score.
	SimpleTaxStatement bool `json:"simple_tax_statement" yaml:"simple_tax_statement"`
	// DividendYield is the stated trailing yield in percent, used by the
	// screening reports only.
	DividendYield float64 `json:"dividend_yield,omitempty" yaml:"dividend_yield,omitempty"`
}

// PricePoint is one observation of a total-return-adjusted price series.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceSeries is a time-ordered total-return price history for one symbol.
// Prices are assumed dividend-reinvested, so percentage changes represent
// true economic return.
type PriceSeries struct {
	Symbol string       `json:"symbol"`
	Points []PricePoint `json:"points"`
}

// Len returns the number of observations.
func (ps PriceSeries) Len() int { return len(ps.Points) }

// Closes returns the raw close values in date order.
func (ps PriceSeries) Closes() []float64 {
	closes := make([]float64, len(ps.Points))
	for i, p := range ps.Points {
		closes[i] = p.Close
	}
	return closes
}

// WindowReturn returns the simple percentage change over the trailing window
// of the given length (in observations). A series shorter than the window
// falls back to its full available length.
func (ps PriceSeries) WindowReturn(lookback int) float64 {
	n := len(ps.Points)
	if n < 2 {
		return 0
	}
	if lookback >= n {
		lookback = n - 1
	}
	start := ps.Points[n-1-lookback].Close
	if start == 0 {
		return 0
	}
	return ps.Points[n-1].Close/start - 1
}

// Holding is one position of a fixed portfolio handed to the simulator:
// either a dollar amount at the reference date or a fractional weight.
type Holding struct {
	Symbol string  `yaml:"symbol"`
	Amount float64 `yaml:"amount"`
}

// Portfolio is a fixed snapshot of holdings, the simulator's unit of input.
// The human-maintained holdings table is authoritative; this type is only a
// value passed between commands, never stored state.
type Portfolio struct {
	Holdings []Holding `yaml:"holdings"`
}

// TotalAmount sums the holding amounts (dollars or weights, whichever the
// snapshot uses).
func (p Portfolio) TotalAmount() float64 {
	total := 0.0
	for _, h := range p.Holdings {
		total += h.Amount
	}
	return total
}

// Weights normalizes the holdings into fractions of the total. Returns nil
// when the total is not strictly positive.
func (p Portfolio) Weights() map[string]float64 {
	total := p.TotalAmount()
	if total <= 0 {
		return nil
	}
	weights := make(map[string]float64, len(p.Holdings))
	for _, h := range p.Holdings {
		weights[h.Symbol] += h.Amount / total
	}
	return weights
}

// Symbols returns the held symbols in declaration order, deduplicated.
func (p Portfolio) Symbols() []string {
	seen := make(map[string]bool, len(p.Holdings))
	var symbols []string
	for _, h := range p.Holdings {
		if !seen[h.Symbol] {
			seen[h.Symbol] = true
			symbols = append(symbols, h.Symbol)
		}
	}
	return symbols
}
