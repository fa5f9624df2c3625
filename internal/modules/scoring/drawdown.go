package scoring

import (
	"github.com/rkapoor/sortino/internal/domain"
	"github.com/rkapoor/sortino/pkg/formulas"
)

// DrawdownMetrics summarizes the pain profile of one symbol's history.
type DrawdownMetrics struct {
	Symbol          string  `json:"symbol"`
	MaxDrawdown     float64 `json:"max_drawdown"`
	MaxDurationDays int     `json:"max_dd_duration_days"`
	AvgDurationDays float64 `json:"avg_dd_duration_days"`
	CurrentDrawdown float64 `json:"current_drawdown"`
	WorstRolling3M  float64 `json:"worst_rolling_3m_dd"`
}

// rolling3MWindow is ~3 months of trading days for the rolling drawdown.
const rolling3MWindow = 63

// ComputeDrawdowns derives drawdown metrics from a total-return price series.
func ComputeDrawdowns(ps domain.PriceSeries) DrawdownMetrics {
	closes := ps.Closes()
	m := DrawdownMetrics{
		Symbol:          ps.Symbol,
		MaxDrawdown:     formulas.MaxDrawdown(closes),
		CurrentDrawdown: formulas.CurrentDrawdown(closes),
		WorstRolling3M:  formulas.WorstRollingDrawdown(closes, rolling3MWindow),
	}

	periods := formulas.UnderwaterPeriods(closes)
	if len(periods) > 0 {
		total := 0
		for _, p := range periods {
			if p > m.MaxDurationDays {
				m.MaxDurationDays = p
			}
			total += p
		}
		m.AvgDurationDays = float64(total) / float64(len(periods))
	}
	return m
}
