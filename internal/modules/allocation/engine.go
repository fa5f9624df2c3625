// Package allocation turns momentum scores into target portfolio weights.
//
// Weights start proportional to score and are then pushed through a
// fixed-point constraint loop: positions below the floor are excluded,
// positions above the cap are clamped, and sectors above the sector cap
// are scaled down. Freed weight is redistributed proportionally among the
// remaining recipients. The loop runs until a full pass changes nothing
// or the iteration cap is hit, in which case the run is reported as
// infeasible together with the constraints that were still oscillating.
package allocation

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rkapoor/sortino/internal/domain"
	"github.com/rkapoor/sortino/internal/modules/scoring"
)

const (
	// DefaultTolerance is the weight tolerance used for constraint and
	// convergence checks.
	DefaultTolerance = 1e-9

	// DefaultMaxIterations bounds the constraint loop. A run that has not
	// settled by then is cycling between mutually incompatible constraints.
	DefaultMaxIterations = 100
)

// Params are the knobs of a single allocation run.
type Params struct {
	MinPosition   float64 // exclusion floor, fraction of portfolio
	MaxPosition   float64 // per-position cap, fraction of portfolio
	MaxSector     float64 // per-sector cap, fraction of portfolio
	Capital       float64 // dollars to allocate
	Tolerance     float64 // zero means DefaultTolerance
	MaxIterations int     // zero means DefaultMaxIterations
}

// Validate rejects parameter sets that cannot describe a portfolio.
func (p Params) Validate() error {
	if p.MinPosition < 0 || p.MinPosition >= 1 {
		return fmt.Errorf("min position %.4f out of range [0,1)", p.MinPosition)
	}
	if p.MaxPosition <= 0 || p.MaxPosition > 1 {
		return fmt.Errorf("max position %.4f out of range (0,1]", p.MaxPosition)
	}
	if p.MinPosition > p.MaxPosition {
		return fmt.Errorf("min position %.4f exceeds max position %.4f", p.MinPosition, p.MaxPosition)
	}
	if p.MaxSector <= 0 || p.MaxSector > 1 {
		return fmt.Errorf("max sector %.4f out of range (0,1]", p.MaxSector)
	}
	if p.Capital < 0 {
		return fmt.Errorf("capital %.2f is negative", p.Capital)
	}
	return nil
}

func (p Params) tolerance() float64 {
	if p.Tolerance > 0 {
		return p.Tolerance
	}
	return DefaultTolerance
}

func (p Params) maxIterations() int {
	if p.MaxIterations > 0 {
		return p.MaxIterations
	}
	return DefaultMaxIterations
}

// Status classifies the outcome of an allocation run.
type Status string

const (
	// StatusFeasible means the final weights satisfy every constraint and
	// sum to one.
	StatusFeasible Status = "feasible"

	// StatusInfeasible means the constraints could not all be satisfied.
	// The result still carries the last weight snapshot so the caller can
	// see how close the run got.
	StatusInfeasible Status = "infeasible"

	// StatusEmptyUniverse means no security survived scoring and tax
	// filtering, so there was nothing to allocate.
	StatusEmptyUniverse Status = "empty-universe"
)

// Row is the outcome for one security, included or not.
type Row struct {
	Symbol  string
	Sector  domain.Sector
	Card    scoring.Card
	Reason  scoring.Reason
	Weight  float64 // final weight, zero when excluded
	Dollars float64 // Weight * Capital, rounded for manual order entry
}

// Included reports whether the row carries portfolio weight.
func (r Row) Included() bool { return r.Reason == scoring.ReasonIncluded }

// SectorTotal is the aggregate weight of one sector in the final portfolio.
type SectorTotal struct {
	Sector  domain.Sector
	Weight  float64
	Dollars float64
}

// Metrics summarizes the final portfolio as a whole.
type Metrics struct {
	Positions      int
	MaxWeight      float64
	Top3Weight     float64 // concentration of the three largest positions
	AvgMomShort    float64 // weight-averaged short momentum
	AvgMomLong     float64 // weight-averaged long momentum
	AvgDownsideVol float64 // weight-averaged downside volatility
	AvgScore       float64 // weight-averaged score
}

// DCALine is one position's slice of a weekly dollar-cost-averaging plan.
type DCALine struct {
	Symbol  string
	Weekly  float64 // dollars per week, rounded to $100, floored at $100
	Weeks   int
	Dollars float64 // total target for the position
}

// dcaWeeks spreads each position over roughly a quarter of weekly buys.
const dcaWeeks = 12

// Result is a full allocation run: per-symbol rows, sector totals, the
// convergence record and portfolio-level metrics.
type Result struct {
	RunID        string
	Status       Status
	Params       Params
	Rows         []Row
	SectorTotals []SectorTotal
	Metrics      Metrics
	DCAPlan      []DCALine

	Iterations  int
	Converged   bool
	WeightSum   float64  // sum of final weights, 1 when feasible
	Oscillating []string // constraints still changing when the cap was hit
	Notes       []string // weight the loop could not place anywhere
}

// Included returns the rows that carry weight, largest first.
func (r Result) Included() []Row {
	var rows []Row
	for _, row := range r.Rows {
		if row.Included() {
			rows = append(rows, row)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Weight > rows[j].Weight })
	return rows
}

// Engine computes constrained allocations from score cards.
type Engine struct {
	log zerolog.Logger
}

// New returns an allocation engine logging through the given logger.
func New(log zerolog.Logger) *Engine {
	return &Engine{log: log.With().Str("component", "allocation").Logger()}
}

// Allocate runs the full pipeline for one set of score cards. The sector
// and tax lookups come from the universe definition; symbols the lookups
// do not know fall into SectorUnknown and are treated as tax ineligible.
func (e *Engine) Allocate(cards []scoring.Card, sectorOf func(string) domain.Sector, taxEligible func(string) bool, p Params) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, fmt.Errorf("invalid allocation params: %w", err)
	}

	res := Result{
		RunID:  uuid.New().String(),
		Params: p,
	}

	weights := map[string]float64{}
	sectors := map[string]domain.Sector{}
	var sumScore float64
	for _, c := range cards {
		reason := c.Reason
		if reason == scoring.ReasonIncluded && !taxEligible(c.Symbol) {
			reason = scoring.ReasonTaxExcluded
		}
		row := Row{
			Symbol: c.Symbol,
			Sector: sectorOf(c.Symbol),
			Card:   c,
			Reason: reason,
		}
		res.Rows = append(res.Rows, row)
		if reason == scoring.ReasonIncluded {
			weights[c.Symbol] = c.Score
			sectors[c.Symbol] = row.Sector
			sumScore += c.Score
		}
	}
	sort.SliceStable(res.Rows, func(i, j int) bool { return res.Rows[i].Symbol < res.Rows[j].Symbol })

	if len(weights) == 0 || sumScore <= 0 {
		res.Status = StatusEmptyUniverse
		e.log.Warn().Int("candidates", len(cards)).Msg("no eligible securities to allocate")
		return res, nil
	}
	for s := range weights {
		weights[s] /= sumScore
	}

	state := e.applyConstraints(weights, sectors, p)
	res.Iterations = state.iterations
	res.Converged = state.converged
	res.Oscillating = state.oscillating
	res.Notes = state.notes

	var sum float64
	for _, w := range state.weights {
		sum += w
	}
	res.WeightSum = sum

	switch {
	case len(state.weights) == 0:
		// Eligible candidates existed but the floor excluded them all.
		res.Status = StatusInfeasible
	case state.converged && math.Abs(sum-1) <= 1e-6:
		res.Status = StatusFeasible
	default:
		res.Status = StatusInfeasible
	}

	for i := range res.Rows {
		row := &res.Rows[i]
		if row.Reason != scoring.ReasonIncluded {
			continue
		}
		w, ok := state.weights[row.Symbol]
		if !ok {
			row.Reason = scoring.ReasonBelowMinimum
			continue
		}
		row.Weight = w
		row.Dollars = RoundDollars(w * p.Capital)
	}

	res.SectorTotals = sectorTotals(res.Rows)
	res.Metrics = portfolioMetrics(res.Rows)
	res.DCAPlan = dcaPlan(res.Rows)

	e.log.Info().
		Str("run_id", res.RunID).
		Str("status", string(res.Status)).
		Int("iterations", res.Iterations).
		Int("positions", res.Metrics.Positions).
		Float64("weight_sum", res.WeightSum).
		Msg("allocation run complete")

	return res, nil
}

// constraint names reported when the loop fails to settle.
const (
	constraintFloor  = "position-floor"
	constraintCap    = "position-cap"
	constraintSector = "sector-cap"
)

type loopState struct {
	weights     map[string]float64
	iterations  int
	converged   bool
	oscillating []string
	notes       []string
}

// applyConstraints runs the fixed-point loop over a copy of the initial
// weights. Each pass applies the floor, the position cap and the sector
// cap in that order; the pass that changes nothing ends the loop. All
// passes walk symbols in sorted order so a run is exactly reproducible.
func (e *Engine) applyConstraints(initial map[string]float64, sectors map[string]domain.Sector, p Params) loopState {
	tol := p.tolerance()
	weights := make(map[string]float64, len(initial))
	symbols := make([]string, 0, len(initial))
	for s, w := range initial {
		weights[s] = w
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	state := loopState{weights: weights}
	for state.iterations < p.maxIterations() {
		state.iterations++
		var changed []string

		var did bool
		symbols, did = e.applyFloor(weights, symbols, p.MinPosition, tol)
		if did {
			changed = append(changed, constraintFloor)
		}
		if len(symbols) == 0 {
			state.notes = append(state.notes, "position floor excluded every candidate")
			state.converged = true
			return state
		}
		if lost, did := applyCap(weights, symbols, p.MaxPosition, tol); did {
			changed = append(changed, constraintCap)
			if lost > tol {
				state.notes = append(state.notes, fmt.Sprintf("position cap stranded %.4f weight with no recipient", lost))
			}
		}
		if lost, did := applySectorCap(weights, symbols, sectors, p.MaxSector, tol); did {
			changed = append(changed, constraintSector)
			if lost > tol {
				state.notes = append(state.notes, fmt.Sprintf("sector cap stranded %.4f weight with no recipient", lost))
			}
		}

		if len(changed) == 0 {
			state.converged = true
			return state
		}
		state.oscillating = changed
	}

	e.log.Warn().
		Int("iterations", state.iterations).
		Strs("constraints", state.oscillating).
		Msg("constraint loop did not converge")
	return state
}

// applyFloor excludes every active position below the floor and hands its
// weight proportionally to the survivors. Returns the surviving symbols
// and whether anything changed.
func (e *Engine) applyFloor(weights map[string]float64, symbols []string, floor, tol float64) ([]string, bool) {
	if floor <= 0 {
		return symbols, false
	}
	var freed, kept float64
	survivors := symbols[:0]
	excluded := false
	for _, s := range symbols {
		w := weights[s]
		if w < floor-tol {
			e.log.Debug().Str("symbol", s).Float64("weight", w).Msg("excluded below position floor")
			delete(weights, s)
			freed += w
			excluded = true
		} else {
			survivors = append(survivors, s)
			kept += w
		}
	}
	if !excluded {
		return symbols, false
	}
	if kept <= 0 {
		return survivors, true
	}
	scale := (kept + freed) / kept
	for _, s := range survivors {
		weights[s] *= scale
	}
	return survivors, true
}

// applyCap clamps positions above the cap and redistributes the excess to
// positions still under it. Returns the weight that had nowhere to go.
func applyCap(weights map[string]float64, symbols []string, limit, tol float64) (lost float64, changed bool) {
	var excess, room float64
	for _, s := range symbols {
		if w := weights[s]; w > limit+tol {
			excess += w - limit
		} else if w < limit-tol {
			room += w
		}
	}
	if excess == 0 {
		return 0, false
	}
	for _, s := range symbols {
		if weights[s] > limit+tol {
			weights[s] = limit
		}
	}
	if room <= 0 {
		return excess, true
	}
	for _, s := range symbols {
		if w := weights[s]; w < limit-tol {
			weights[s] = w + excess*w/room
		}
	}
	return 0, true
}

// applySectorCap scales down sectors above the cap and redistributes the
// excess to symbols in sectors below it.
func applySectorCap(weights map[string]float64, symbols []string, sectors map[string]domain.Sector, limit, tol float64) (lost float64, changed bool) {
	totals := map[domain.Sector]float64{}
	for _, s := range symbols {
		totals[sectors[s]] += weights[s]
	}

	var excess float64
	over := map[domain.Sector]bool{}
	for _, s := range symbols {
		sector := sectors[s]
		if over[sector] {
			continue
		}
		if total := totals[sector]; total > limit+tol {
			over[sector] = true
			excess += total - limit
		}
	}
	if excess == 0 {
		return 0, false
	}

	var room float64
	for _, s := range symbols {
		sector := sectors[s]
		if over[sector] {
			weights[s] = weights[s] * limit / totals[sector]
		} else if totals[sector] < limit-tol {
			room += weights[s]
		}
	}
	if room <= 0 {
		return excess, true
	}
	for _, s := range symbols {
		sector := sectors[s]
		if !over[sector] && totals[sector] < limit-tol {
			weights[s] += excess * weights[s] / room
		}
	}
	return 0, true
}

// RoundDollars rounds a dollar amount for manual order entry: amounts
// under $500 round to the nearest $100, everything else to the nearest
// $1000.
func RoundDollars(v float64) float64 {
	if v < 500 {
		return math.Round(v/100) * 100
	}
	return math.Round(v/1000) * 1000
}

func sectorTotals(rows []Row) []SectorTotal {
	byName := map[domain.Sector]*SectorTotal{}
	for _, r := range rows {
		if !r.Included() {
			continue
		}
		t, ok := byName[r.Sector]
		if !ok {
			t = &SectorTotal{Sector: r.Sector}
			byName[r.Sector] = t
		}
		t.Weight += r.Weight
		t.Dollars += r.Dollars
	}
	totals := make([]SectorTotal, 0, len(byName))
	for _, t := range byName {
		totals = append(totals, *t)
	}
	sort.SliceStable(totals, func(i, j int) bool {
		if totals[i].Weight != totals[j].Weight {
			return totals[i].Weight > totals[j].Weight
		}
		return totals[i].Sector < totals[j].Sector
	})
	return totals
}

func portfolioMetrics(rows []Row) Metrics {
	var m Metrics
	var weightSum float64
	var included []Row
	for _, r := range rows {
		if !r.Included() {
			continue
		}
		included = append(included, r)
		weightSum += r.Weight
		if r.Weight > m.MaxWeight {
			m.MaxWeight = r.Weight
		}
	}
	m.Positions = len(included)
	if weightSum <= 0 {
		return m
	}
	sort.SliceStable(included, func(i, j int) bool { return included[i].Weight > included[j].Weight })
	for i, r := range included {
		if i < 3 {
			m.Top3Weight += r.Weight
		}
		frac := r.Weight / weightSum
		m.AvgMomShort += frac * r.Card.MomShort
		m.AvgMomLong += frac * r.Card.MomLong
		m.AvgDownsideVol += frac * r.Card.DownsideVol
		m.AvgScore += frac * r.Card.Score
	}
	return m
}

// dcaPlan spreads each included position over weekly buys. Weekly amounts
// round to the nearest $100 and never drop below $100.
func dcaPlan(rows []Row) []DCALine {
	var plan []DCALine
	for _, r := range rows {
		if !r.Included() || r.Dollars <= 0 {
			continue
		}
		weekly := math.Round(r.Dollars/dcaWeeks/100) * 100
		if weekly < 100 {
			weekly = 100
		}
		plan = append(plan, DCALine{
			Symbol:  r.Symbol,
			Weekly:  weekly,
			Weeks:   dcaWeeks,
			Dollars: r.Dollars,
		})
	}
	sort.SliceStable(plan, func(i, j int) bool { return plan[i].Dollars > plan[j].Dollars })
	return plan
}
