package cli

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rkapoor/sortino/internal/domain"
	"github.com/rkapoor/sortino/internal/modules/history"
	"github.com/rkapoor/sortino/internal/modules/report"
	"github.com/rkapoor/sortino/internal/modules/simulation"
)

func newSimulateCmd(a *app) *cobra.Command {
	var (
		portfolioPath string
		blockLength   int
		horizon       int
		paths         int
		seed          int64
		method        string
		noReport      bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Estimate the forward return distribution of a portfolio",
		Long: `Resamples the aligned daily return history of the given holdings and
reports the terminal return distribution over the horizon: percentiles,
loss probabilities, VaR/CVaR and the per-path drawdown distribution.

The portfolio file is a YAML list of holdings:

    holdings:
      - symbol: GDX
        amount: 20000
      - symbol: CCJ
        amount: 10000

Amounts are dollars; only their proportions matter.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("block") {
				blockLength = a.cfg.Simulation.BlockLength
			}
			if !flags.Changed("horizon") {
				horizon = a.cfg.Simulation.Horizon
			}
			if !flags.Changed("paths") {
				paths = a.cfg.Simulation.Paths
			}
			if !flags.Changed("seed") {
				seed = a.cfg.Simulation.Seed
			}

			portfolio, err := loadPortfolio(portfolioPath)
			if err != nil {
				return err
			}
			weights := portfolio.Weights()
			if weights == nil {
				return fmt.Errorf("portfolio has no positive holdings")
			}

			series, err := a.loadSeries()
			if err != nil {
				return err
			}
			symbols := portfolio.Symbols()
			aligned, err := history.Align(series, symbols)
			if err != nil {
				return err
			}

			sim := simulation.New(a.log)
			sum, err := sim.Run(aligned.Returns(), weights, simulation.Config{
				Method:      simulation.Method(method),
				BlockLength: blockLength,
				Horizon:     horizon,
				Paths:       paths,
				Seed:        seed,
			})
			if err != nil {
				return err
			}

			rep := report.Report{
				RunID:       uuid.New().String(),
				Simulations: map[string]*simulation.Summary{method: &sum},
			}
			fmt.Print(report.Render(rep))
			if noReport {
				return nil
			}
			return a.writeReport(rep)
		},
	}

	cmd.Flags().StringVar(&portfolioPath, "portfolio", "", "portfolio YAML file (required)")
	cmd.Flags().IntVar(&blockLength, "block", 0, "trading days per sampled block")
	cmd.Flags().IntVar(&horizon, "horizon", 0, "trading days to simulate")
	cmd.Flags().IntVar(&paths, "paths", 0, "number of simulated paths")
	cmd.Flags().Int64Var(&seed, "seed", 0, "RNG seed for reproducible runs")
	cmd.Flags().StringVar(&method, "method", string(simulation.MethodBlock), "block, iid or historical")
	cmd.Flags().BoolVar(&noReport, "no-report", false, "print only, skip writing report files")
	cmd.MarkFlagRequired("portfolio")
	return cmd
}

type portfolioFile struct {
	Holdings []domain.Holding `yaml:"holdings"`
}

func loadPortfolio(path string) (domain.Portfolio, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Portfolio{}, fmt.Errorf("failed to read portfolio file: %w", err)
	}
	var pf portfolioFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return domain.Portfolio{}, fmt.Errorf("failed to parse portfolio file: %w", err)
	}
	if len(pf.Holdings) == 0 {
		return domain.Portfolio{}, fmt.Errorf("portfolio file %s lists no holdings", path)
	}
	return domain.Portfolio{Holdings: pf.Holdings}, nil
}
