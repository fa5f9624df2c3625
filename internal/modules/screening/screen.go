// Package screening produces a read-only research table for a set of
// candidate securities: momentum, downside volatility, score, drawdown
// and trend indicators side by side. It never touches allocations.
package screening

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/rkapoor/sortino/internal/domain"
	"github.com/rkapoor/sortino/internal/modules/scoring"
	"github.com/rkapoor/sortino/pkg/formulas"
)

const (
	emaLength = 200
	rsiLength = 14
)

// Row is one screened security. Indicator fields are only meaningful
// when their Has* flag is set; short histories leave them unset rather
// than dropping the row.
type Row struct {
	Symbol        string
	Name          string
	Sector        domain.Sector
	DividendYield float64

	Card      scoring.Card
	Drawdown  scoring.DrawdownMetrics
	AnnualVol float64 // total annualized volatility, for comparison with downside

	EMADev float64 // (price - EMA200) / EMA200
	HasEMA bool
	RSI    float64 // RSI-14
	HasRSI bool
}

// Screener scores and decorates candidate securities for review.
type Screener struct {
	log zerolog.Logger
	cfg scoring.Config
}

// New returns a screener using the given scoring windows.
func New(log zerolog.Logger, cfg scoring.Config) *Screener {
	return &Screener{
		log: log.With().Str("component", "screening").Logger(),
		cfg: cfg,
	}
}

// Screen builds one row per security, best score first. Securities with
// no price history at all are skipped with a warning; partial histories
// get a row with whatever could be computed.
func (s *Screener) Screen(securities []domain.Security, series map[string]domain.PriceSeries) []Row {
	rows := make([]Row, 0, len(securities))
	for _, sec := range securities {
		ps, ok := series[sec.Symbol]
		if !ok || ps.Len() == 0 {
			s.log.Warn().Str("symbol", sec.Symbol).Msg("no price history, skipping")
			continue
		}

		row := Row{
			Symbol:        sec.Symbol,
			Name:          sec.Name,
			Sector:        sec.Sector,
			DividendYield: sec.DividendYield,
			Card:          scoring.Compute(ps, s.cfg),
		}

		closes := ps.Closes()
		row.Drawdown = scoring.ComputeDrawdowns(ps)
		row.AnnualVol = formulas.AnnualizedVolatility(formulas.CalculateReturns(closes))
		row.EMADev, row.HasEMA = formulas.DistanceFromEMA(closes, emaLength)
		row.RSI, row.HasRSI = formulas.RSI(closes, rsiLength)
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Card, rows[j].Card
		if a.Eligible() != b.Eligible() {
			return a.Eligible()
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return rows[i].Symbol < rows[j].Symbol
	})

	s.log.Info().Int("rows", len(rows)).Msg("screen complete")
	return rows
}

// BySector filters securities to one sector before screening.
func (s *Screener) BySector(securities []domain.Security, series map[string]domain.PriceSeries, sector domain.Sector) []Row {
	var subset []domain.Security
	for _, sec := range securities {
		if sec.Sector == sector {
			subset = append(subset, sec)
		}
	}
	return s.Screen(subset, series)
}
