package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rkapoor/sortino/internal/domain"
	"github.com/rkapoor/sortino/internal/modules/scoring"
	"github.com/rkapoor/sortino/internal/modules/screening"
)

func newScreenCmd(a *app) *cobra.Command {
	var sector string

	cmd := &cobra.Command{
		Use:   "screen",
		Short: "Print a research table for the universe or one sector",
		Long: `Scores every candidate and prints momentum, downside volatility, max
drawdown, dividend yield and trend indicators (EMA-200 deviation,
RSI-14) in one table. Purely informational; nothing is allocated or
written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			uni, err := a.loadUniverse()
			if err != nil {
				return err
			}
			series, err := a.loadSeries()
			if err != nil {
				return err
			}

			var securities []domain.Security
			for _, symbol := range uni.Symbols() {
				sec, _ := uni.Security(symbol)
				securities = append(securities, sec)
			}

			scr := screening.New(a.log, scoring.Config{
				ShortWindow: a.cfg.Allocation.ShortWindow,
				LongWindow:  a.cfg.Allocation.LongWindow,
				ShortWeight: a.cfg.Allocation.ShortWeight,
			})

			var rows []screening.Row
			if sector != "" {
				rows = scr.BySector(securities, series, domain.Sector(sector))
				if len(rows) == 0 {
					return fmt.Errorf("no screenable members in sector %q", sector)
				}
			} else {
				rows = scr.Screen(securities, series)
			}

			printScreen(rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&sector, "sector", "", "limit the screen to one sector tag")
	return cmd
}

func printScreen(rows []screening.Row) {
	fmt.Printf("%-8s %-18s %7s %7s %7s %7s %8s %7s %7s %6s %6s  %s\n",
		"SYMBOL", "SECTOR", "MOM3M", "MOM6M", "DVOL", "TVOL", "SCORE", "MAXDD", "EMA200", "RSI", "YIELD", "STATUS")
	for _, r := range rows {
		ema, rsi := "-", "-"
		if r.HasEMA {
			ema = fmt.Sprintf("%+.1f%%", r.EMADev*100)
		}
		if r.HasRSI {
			rsi = fmt.Sprintf("%.0f", r.RSI)
		}
		fmt.Printf("%-8s %-18s %6.1f%% %6.1f%% %6.1f%% %6.1f%% %8.3f %6.1f%% %7s %6s %5.1f%%  %s\n",
			r.Symbol, r.Sector,
			r.Card.MomShort*100, r.Card.MomLong*100, r.Card.DownsideVol*100, r.AnnualVol*100,
			r.Card.Score, r.Drawdown.MaxDrawdown*100, ema, rsi, r.DividendYield*100, r.Card.Reason)
	}
}
