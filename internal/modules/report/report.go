// Package report renders allocation and simulation results as a markdown
// decision log and a JSON snapshot, both written to the data directory
// and stamped with the run ID.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rkapoor/sortino/internal/modules/allocation"
	"github.com/rkapoor/sortino/internal/modules/simulation"
)

// Report bundles the artifacts of one research run.
type Report struct {
	RunID       string                         `json:"run_id"`
	GeneratedAt time.Time                      `json:"generated_at"`
	Allocation  *allocation.Result             `json:"allocation,omitempty"`
	Simulations map[string]*simulation.Summary `json:"simulations,omitempty"`
}

// Writer persists reports under a base directory.
type Writer struct {
	log zerolog.Logger
	dir string
}

// NewWriter returns a writer rooted at dir, creating it if needed.
func NewWriter(log zerolog.Logger, dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	return &Writer{
		log: log.With().Str("component", "report").Logger(),
		dir: dir,
	}, nil
}

// Write renders the report as markdown and JSON side by side and returns
// the two file paths.
func (w *Writer) Write(rep Report) (mdPath, jsonPath string, err error) {
	if rep.GeneratedAt.IsZero() {
		rep.GeneratedAt = time.Now().UTC()
	}
	stem := fmt.Sprintf("run-%s-%s", rep.GeneratedAt.Format("2006-01-02"), shortID(rep.RunID))

	mdPath = filepath.Join(w.dir, stem+".md")
	if err := os.WriteFile(mdPath, []byte(Render(rep)), 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write markdown report: %w", err)
	}

	blob, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("failed to encode report: %w", err)
	}
	jsonPath = filepath.Join(w.dir, stem+".json")
	if err := os.WriteFile(jsonPath, blob, 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write json report: %w", err)
	}

	w.log.Info().Str("run_id", rep.RunID).Str("markdown", mdPath).Str("json", jsonPath).Msg("report written")
	return mdPath, jsonPath, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "manual"
	}
	return id
}

// Render produces the markdown decision log for a report.
func Render(rep Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Portfolio run %s\n\n", shortID(rep.RunID))
	fmt.Fprintf(&b, "Generated %s\n", rep.GeneratedAt.Format("2006-01-02 15:04 MST"))

	if rep.Allocation != nil {
		renderAllocation(&b, rep.Allocation)
	}
	if len(rep.Simulations) > 0 {
		names := make([]string, 0, len(rep.Simulations))
		for name := range rep.Simulations {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			renderSimulation(&b, name, rep.Simulations[name])
		}
	}
	return b.String()
}

func renderAllocation(b *strings.Builder, res *allocation.Result) {
	fmt.Fprintf(b, "\n## Allocation (%s)\n\n", res.Status)
	fmt.Fprintf(b, "Capital $%.0f, position %.0f%%-%.0f%%, sector cap %.0f%%. ",
		res.Params.Capital, res.Params.MinPosition*100, res.Params.MaxPosition*100, res.Params.MaxSector*100)
	fmt.Fprintf(b, "Converged in %d iterations, weight sum %.4f.\n\n", res.Iterations, res.WeightSum)
	for _, note := range res.Notes {
		fmt.Fprintf(b, "> %s\n\n", note)
	}

	fmt.Fprintf(b, "```\n")
	fmt.Fprintf(b, "%-8s %-18s %8s %10s %8s %9s\n", "SYMBOL", "SECTOR", "WEIGHT", "DOLLARS", "SCORE", "MOM 3/6M")
	for _, row := range res.Included() {
		fmt.Fprintf(b, "%-8s %-18s %7.2f%% %10.0f %8.3f %4.0f/%3.0f%%\n",
			row.Symbol, row.Sector, row.Weight*100, row.Dollars,
			row.Card.Score, row.Card.MomShort*100, row.Card.MomLong*100)
	}
	fmt.Fprintf(b, "```\n")

	var excluded []allocation.Row
	for _, row := range res.Rows {
		if !row.Included() {
			excluded = append(excluded, row)
		}
	}
	if len(excluded) > 0 {
		fmt.Fprintf(b, "\nExcluded:\n\n")
		for _, row := range excluded {
			fmt.Fprintf(b, "- %s: %s\n", row.Symbol, row.Reason)
		}
	}

	if len(res.SectorTotals) > 0 {
		fmt.Fprintf(b, "\nSector totals:\n\n```\n")
		for _, st := range res.SectorTotals {
			fmt.Fprintf(b, "%-18s %7.2f%% %10.0f\n", st.Sector, st.Weight*100, st.Dollars)
		}
		fmt.Fprintf(b, "```\n")
	}

	if len(res.DCAPlan) > 0 {
		fmt.Fprintf(b, "\nWeekly buys over %d weeks:\n\n```\n", res.DCAPlan[0].Weeks)
		for _, line := range res.DCAPlan {
			fmt.Fprintf(b, "%-8s $%6.0f/week  (target $%.0f)\n", line.Symbol, line.Weekly, line.Dollars)
		}
		fmt.Fprintf(b, "```\n")
	}
}

func renderSimulation(b *strings.Builder, name string, sum *simulation.Summary) {
	fmt.Fprintf(b, "\n## Simulation: %s\n\n", name)
	fmt.Fprintf(b, "%s method, %d paths over %d trading days.\n\n```\n", sum.Method, sum.Paths, sum.Horizon)

	for _, pt := range sum.Percentiles {
		fmt.Fprintf(b, "p%-3d %8.2f%%\n", pt.Percentile, pt.Return*100)
	}
	fmt.Fprintf(b, "\nmean %8.2f%%  stdev %7.2f%%\n", sum.Mean*100, sum.StdDev*100)
	fmt.Fprintf(b, "P(loss) %.1f%%  P(<-10%%) %.1f%%  P(<-20%%) %.1f%%  P(<-30%%) %.1f%%\n",
		sum.ProbLoss*100, sum.ProbDown10*100, sum.ProbDown20*100, sum.ProbDown30*100)
	fmt.Fprintf(b, "P(>+10%%) %.1f%%  P(>+20%%) %.1f%%  P(>+30%%) %.1f%%  P(>+50%%) %.1f%%\n",
		sum.ProbGain10*100, sum.ProbGain20*100, sum.ProbGain30*100, sum.ProbGain50*100)
	fmt.Fprintf(b, "VaR95 %.2f%%  VaR99 %.2f%%  CVaR95 %.2f%%\n",
		sum.VaR95*100, sum.VaR99*100, sum.CVaR95*100)
	fmt.Fprintf(b, "drawdown median %.2f%%  p95 %.2f%%  worst %.2f%%\n",
		sum.Drawdown.Median*100, sum.Drawdown.P95*100, sum.Drawdown.Worst*100)
	fmt.Fprintf(b, "```\n")
}
