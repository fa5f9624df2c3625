package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/rkapoor/sortino/internal/domain"
	"github.com/rkapoor/sortino/internal/modules/allocation"
	"github.com/rkapoor/sortino/internal/modules/report"
	"github.com/rkapoor/sortino/internal/modules/scoring"
	"github.com/rkapoor/sortino/internal/modules/universe"
)

// buildCards scores every universe member against the loaded price data.
// Universe members with no price series are excluded for missing history,
// and price-data symbols the universe does not define are surfaced as
// excluded candidates rather than silently dropped.
func buildCards(uni *universe.Universe, series map[string]domain.PriceSeries, cfg scoring.Config) []scoring.Card {
	var cards []scoring.Card
	for _, symbol := range uni.Symbols() {
		ps, ok := series[symbol]
		if !ok {
			cards = append(cards, scoring.Card{
				Symbol: symbol,
				Reason: scoring.ReasonInsufficientHistory,
			})
			continue
		}
		cards = append(cards, scoring.Compute(ps, cfg))
	}

	var strays []string
	for symbol := range series {
		if !uni.Contains(symbol) {
			strays = append(strays, symbol)
		}
	}
	sort.Strings(strays)
	for _, symbol := range strays {
		cards = append(cards, scoring.Card{
			Symbol: symbol,
			Reason: scoring.ReasonNotInUniverse,
		})
	}
	return cards
}

func newAllocateCmd(a *app) *cobra.Command {
	var (
		capital     float64
		minPosition float64
		maxPosition float64
		maxSector   float64
		shortWindow int
		longWindow  int
		shortWeight float64
		simulate    bool
		noReport    bool
	)

	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Compute a constrained momentum-weighted target allocation",
		Long: `Scores every universe member by blended 3/6-month momentum divided by
downside volatility, filters out negative momentum and tax-unfriendly
holdings, and converts the remaining scores into weights under position
and sector constraints. The run is written to the data directory as a
markdown decision log plus a JSON snapshot.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Flags not set explicitly fall back to the configured defaults.
			flags := cmd.Flags()
			if !flags.Changed("capital") {
				capital = a.cfg.Allocation.Capital
			}
			if !flags.Changed("min-position") {
				minPosition = a.cfg.Allocation.MinPosition
			}
			if !flags.Changed("max-position") {
				maxPosition = a.cfg.Allocation.MaxPosition
			}
			if !flags.Changed("max-sector") {
				maxSector = a.cfg.Allocation.MaxSector
			}
			if !flags.Changed("short-window") {
				shortWindow = a.cfg.Allocation.ShortWindow
			}
			if !flags.Changed("long-window") {
				longWindow = a.cfg.Allocation.LongWindow
			}
			if !flags.Changed("short-weight") {
				shortWeight = a.cfg.Allocation.ShortWeight
			}

			uni, err := a.loadUniverse()
			if err != nil {
				return err
			}
			series, err := a.loadSeries()
			if err != nil {
				return err
			}

			scoreCfg := scoring.Config{
				ShortWindow: shortWindow,
				LongWindow:  longWindow,
				ShortWeight: shortWeight,
			}
			if err := scoreCfg.Validate(); err != nil {
				return err
			}

			cards := buildCards(uni, series, scoreCfg)

			eng := allocation.New(a.log)
			res, err := eng.Allocate(cards, uni.SectorOf, uni.TaxEligible, allocation.Params{
				MinPosition: minPosition,
				MaxPosition: maxPosition,
				MaxSector:   maxSector,
				Capital:     capital,
			})
			if err != nil {
				return err
			}

			rep := report.Report{RunID: res.RunID, Allocation: &res}

			if simulate && res.Status != allocation.StatusEmptyUniverse {
				sums, err := a.simulatePortfolio(series, weightsOf(res))
				if err != nil {
					a.log.Warn().Err(err).Msg("simulation skipped")
				} else {
					rep.Simulations = sums
				}
			}

			fmt.Print(report.Render(rep))
			if noReport {
				return nil
			}
			return a.writeReport(rep)
		},
	}

	cmd.Flags().Float64Var(&capital, "capital", 0, "total capital to allocate, USD")
	cmd.Flags().Float64Var(&minPosition, "min-position", 0, "exclusion floor as a fraction")
	cmd.Flags().Float64Var(&maxPosition, "max-position", 0, "per-position cap as a fraction")
	cmd.Flags().Float64Var(&maxSector, "max-sector", 0, "per-sector cap as a fraction")
	cmd.Flags().IntVar(&shortWindow, "short-window", 0, "short momentum lookback, trading days")
	cmd.Flags().IntVar(&longWindow, "long-window", 0, "long momentum lookback, trading days")
	cmd.Flags().Float64Var(&shortWeight, "short-weight", 0, "blend weight of the short momentum")
	cmd.Flags().BoolVar(&simulate, "simulate", false, "follow with a risk simulation of the result")
	cmd.Flags().BoolVar(&noReport, "no-report", false, "print only, skip writing report files")
	return cmd
}

func weightsOf(res allocation.Result) map[string]float64 {
	weights := map[string]float64{}
	for _, row := range res.Rows {
		if row.Included() && row.Weight > 0 {
			weights[row.Symbol] = row.Weight
		}
	}
	return weights
}
