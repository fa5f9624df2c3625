// Package cli wires the research commands together: shared configuration,
// logging, the price history store and the universe definition.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rkapoor/sortino/internal/config"
	"github.com/rkapoor/sortino/internal/database"
	"github.com/rkapoor/sortino/internal/domain"
	"github.com/rkapoor/sortino/internal/modules/history"
	"github.com/rkapoor/sortino/internal/modules/report"
	"github.com/rkapoor/sortino/internal/modules/simulation"
	"github.com/rkapoor/sortino/internal/modules/universe"
	"github.com/rkapoor/sortino/pkg/logger"
)

// app carries the dependencies every command shares. Commands resolve
// their data lazily so `sortino --help` works without a database.
type app struct {
	cfg *config.Config
	log zerolog.Logger

	universePath string
	pricesCSV    string
}

// Execute builds the command tree and runs it.
func Execute() {
	a := &app{}

	root := &cobra.Command{
		Use:   "sortino",
		Short: "Momentum-weighted portfolio allocation and risk simulation",
		Long: `sortino is a personal investment-research workbench. It scores a
universe of securities by momentum per unit of downside volatility,
turns the scores into a constrained target allocation, and estimates
the risk of the result with a block-bootstrap Monte Carlo simulation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.Pretty})
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.universePath, "universe", "", "universe YAML file (default <data-dir>/universe.yaml)")
	root.PersistentFlags().StringVar(&a.pricesCSV, "prices", "", "price history CSV; overrides the history database")

	root.AddCommand(
		newAllocateCmd(a),
		newSimulateCmd(a),
		newScreenCmd(a),
		newCorrelateCmd(a),
		newImportCmd(a),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadUniverse reads the universe YAML from the flag or the data dir.
func (a *app) loadUniverse() (*universe.Universe, error) {
	path := a.universePath
	if path == "" {
		path = filepath.Join(a.cfg.DataDir, "universe.yaml")
	}
	u, err := universe.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load universe: %w", err)
	}
	return u, nil
}

// openStore opens the price history database in the data dir.
func (a *app) openStore() (*history.Store, *database.DB, error) {
	db, err := database.New(database.Config{
		Path: filepath.Join(a.cfg.DataDir, "history.db"),
		Name: "history",
	})
	if err != nil {
		return nil, nil, err
	}
	store, err := history.NewStore(db, a.log)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, db, nil
}

// loadSeries returns all price history, preferring the --prices CSV when
// given so a run can be reproduced from a single file.
func (a *app) loadSeries() (map[string]domain.PriceSeries, error) {
	if a.pricesCSV != "" {
		series, err := history.ReadCSVFile(a.pricesCSV)
		if err != nil {
			return nil, fmt.Errorf("failed to read prices CSV: %w", err)
		}
		return series, nil
	}
	store, db, err := a.openStore()
	if err != nil {
		return nil, err
	}
	defer db.Close()
	series, err := store.LoadAll()
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("price history is empty; run `sortino import --csv <file>` first")
	}
	return series, nil
}

// simulatePortfolio aligns the held symbols' histories and runs the block
// bootstrap alongside the historical replay so the decision log shows the
// resampled and the as-it-happened view side by side.
func (a *app) simulatePortfolio(series map[string]domain.PriceSeries, weights map[string]float64) (map[string]*simulation.Summary, error) {
	symbols := make([]string, 0, len(weights))
	for s := range weights {
		symbols = append(symbols, s)
	}
	aligned, err := history.Align(series, symbols)
	if err != nil {
		return nil, err
	}
	returns := aligned.Returns()

	sim := simulation.New(a.log)
	cfg := simulation.Config{
		Method:      simulation.MethodBlock,
		BlockLength: a.cfg.Simulation.BlockLength,
		Horizon:     a.cfg.Simulation.Horizon,
		Paths:       a.cfg.Simulation.Paths,
		Seed:        a.cfg.Simulation.Seed,
	}

	block, err := sim.Run(returns, weights, cfg)
	if err != nil {
		return nil, err
	}
	sums := map[string]*simulation.Summary{"block-bootstrap": &block}

	histCfg := cfg
	histCfg.Method = simulation.MethodHistorical
	if hist, err := sim.Run(returns, weights, histCfg); err == nil {
		sums["historical"] = &hist
	} else {
		a.log.Warn().Err(err).Msg("historical replay skipped")
	}
	return sums, nil
}

// writeReport persists a run in the reports directory under the data dir.
func (a *app) writeReport(rep report.Report) error {
	w, err := report.NewWriter(a.log, filepath.Join(a.cfg.DataDir, "reports"))
	if err != nil {
		return err
	}
	mdPath, _, err := w.Write(rep)
	if err != nil {
		return err
	}
	fmt.Printf("\nReport written to %s\n", mdPath)
	return nil
}
