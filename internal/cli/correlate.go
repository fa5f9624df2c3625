package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rkapoor/sortino/internal/modules/correlation"
	"github.com/rkapoor/sortino/internal/modules/history"
)

func newCorrelateCmd(a *app) *cobra.Command {
	var threshold float64

	cmd := &cobra.Command{
		Use:   "correlate [symbols...]",
		Short: "Pairwise return correlations across the universe or given symbols",
		Long: `Computes the Pearson correlation matrix over aligned daily returns and
flags pairs that move closely enough to count as one position. With no
arguments the whole universe is analyzed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			series, err := a.loadSeries()
			if err != nil {
				return err
			}

			symbols := args
			if len(symbols) == 0 {
				uni, err := a.loadUniverse()
				if err != nil {
					return err
				}
				symbols = uni.Symbols()
			}

			aligned, err := history.Align(series, symbols)
			if err != nil {
				return err
			}

			an := correlation.New(a.log)
			m, err := an.Compute(aligned.Returns())
			if err != nil {
				return err
			}

			printMatrix(m)

			pairs := m.HighPairs(threshold)
			if len(pairs) == 0 {
				fmt.Printf("\nNo pairs at or above %.2f.\n", threshold)
				return nil
			}
			fmt.Printf("\nHighly correlated pairs (>= %.2f):\n", threshold)
			for _, p := range pairs {
				fmt.Printf("  %-8s %-8s %.3f\n", p.SymbolA, p.SymbolB, p.Correlation)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", correlation.HighCorrelationThreshold,
		"correlation level that flags a pair")
	return cmd
}

func printMatrix(m correlation.Matrix) {
	fmt.Printf("%-8s", "")
	for _, s := range m.Symbols {
		fmt.Printf(" %7s", s)
	}
	fmt.Println()
	for i, s := range m.Symbols {
		fmt.Printf("%-8s", s)
		for j := range m.Symbols {
			fmt.Printf(" %7.3f", m.Values[i][j])
		}
		fmt.Println()
	}
}
