// Package maintenance selects dormant-but-valuable relationships to
// re-engage within a time budget: a 0/1 knapsack over nodes whose
// dormancy exceeds a minimum threshold.
package maintenance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/okian/vigil/internal/domain/network"
	"github.com/okian/vigil/internal/domain/value"
	"github.com/okian/vigil/internal/selector"
	"github.com/okian/vigil/internal/solver"
	"github.com/okian/vigil/pkg/logger"
	"github.com/okian/vigil/pkg/metrics"
)

// Default configuration constants.
const (
	defaultBudgetMinutes   = 2800
	defaultMinDormancyDays = 30
)

// Candidate is one dormant relationship considered for re-engagement.
type Candidate struct {
	ID          string
	Value       float64 // re-engagement value per the configured model
	Cost        float64 // effort in minutes
	DaysDormant int
}

// Selector runs the maintenance selection methods over one immutable
// snapshot.
type Selector struct {
	snap            *network.Snapshot
	budgetMinutes   float64
	minDormancyDays int
	valueModel      value.Model
	costModel       value.CostModel
	exact           solver.Solver
	approx          solver.Solver
	log             logger.Logger
	metrics         *metrics.Manager

	candidates []Candidate // fixed at construction
}

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithBudget sets the total time budget in minutes.
func WithBudget(minutes float64) Option {
	return func(s *Selector) {
		s.budgetMinutes = minutes
	}
}

// WithMinDormancy sets the dormancy threshold in days; only nodes
// dormant longer are candidates.
func WithMinDormancy(days int) Option {
	return func(s *Selector) {
		s.minDormancyDays = days
	}
}

// WithModels sets the value and cost models.
func WithModels(v value.Model, c value.CostModel) Option {
	return func(s *Selector) {
		if v != nil {
			s.valueModel = v
		}
		if c != nil {
			s.costModel = c
		}
	}
}

// WithSolvers sets the exact and approximate solver implementations.
func WithSolvers(exact, approx solver.Solver) Option {
	return func(s *Selector) {
		if exact != nil {
			s.exact = exact
		}
		if approx != nil {
			s.approx = approx
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Selector) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics sets the metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Selector) {
		s.metrics = m
	}
}

// New creates a maintenance selector. A non-positive time budget is a
// configuration error.
func New(snap *network.Snapshot, opts ...Option) (*Selector, error) {
	s := &Selector{
		snap:            snap,
		budgetMinutes:   defaultBudgetMinutes,
		minDormancyDays: defaultMinDormancyDays,
		exact:           solver.NewExact(),
		approx:          solver.NewApprox(),
		log:             logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.budgetMinutes <= 0 {
		return nil, fmt.Errorf("%w: maintenance budget must be positive, got %g", selector.ErrInvalidBudget, s.budgetMinutes)
	}
	if s.minDormancyDays < 0 {
		return nil, fmt.Errorf("%w: minimum dormancy must not be negative, got %d", selector.ErrInvalidBudget, s.minDormancyDays)
	}
	if s.valueModel == nil {
		m, err := value.ModelFor(value.ModelLogUrgency, 0)
		if err != nil {
			return nil, err
		}
		s.valueModel = m
	}
	if s.costModel == nil {
		c, err := value.CostFor(value.CostUniform, defaultCostMinutes)
		if err != nil {
			return nil, err
		}
		s.costModel = c
	}
	s.candidates = s.buildCandidates()
	return s, nil
}

const defaultCostMinutes = 45

// buildCandidates filters the snapshot to dormant, connected nodes
// with positive reputation and prices them with the configured models.
func (s *Selector) buildCandidates() []Candidate {
	var out []Candidate
	for _, id := range s.snap.AllNodeIDs() {
		days := s.snap.DormancyDays(id)
		if days <= s.minDormancyDays {
			continue
		}
		degree := s.snap.Degree(id)
		score := s.snap.Score(id)
		if degree == 0 || score <= 0 {
			continue
		}
		out = append(out, Candidate{
			ID:          id,
			Value:       s.valueModel.Value(score, degree, float64(days)),
			Cost:        s.costModel.Cost(degree),
			DaysDormant: days,
		})
	}
	return out
}

// Candidates returns the priced candidate set, ascending by id.
func (s *Selector) Candidates() []Candidate {
	return s.candidates
}

func (s *Selector) problem() solver.KnapsackProblem {
	items := make([]solver.Item, len(s.candidates))
	for i, c := range s.candidates {
		items[i] = solver.Item{ID: c.ID, Value: c.Value, Cost: c.Cost}
	}
	return solver.KnapsackProblem{Items: items, Budget: s.budgetMinutes}
}

// Exact solves the knapsack with the exact solver. When the solver
// times out, is infeasible or unavailable, the ratio-greedy result
// stands in and the result is tagged as a fallback.
func (s *Selector) Exact(ctx context.Context) selector.Result {
	p := s.problem()
	start := time.Now()
	sol, err := s.exact.Knapsack(ctx, p)
	s.recordSolve(string(selector.MethodExact), time.Since(start))
	if err != nil {
		s.log.Warn(ctx, "exact maintenance solve failed, using ratio-greedy fallback", logger.Error(err))
		if s.metrics != nil {
			s.metrics.RecordFallback(selector.ProblemMaintenance)
		}
		fallback := s.Approx()
		fallback.Method = selector.MethodExact
		fallback.Fallback = true
		return fallback
	}
	return selector.Result{
		Method:     selector.MethodExact,
		NodeIDs:    sol.Selected,
		Objective:  sol.Objective,
		BudgetUsed: sol.Cost,
	}
}

// Approx selects by descending value-to-cost ratio, then runs one
// bounded swap-improvement pass. Ties break on higher value, then
// lowest node id.
func (s *Selector) Approx() selector.Result {
	p := s.problem()
	start := time.Now()
	sol, err := s.approx.Knapsack(context.Background(), p)
	if err != nil {
		// Only a negative budget can fail the greedy path, and New
		// rejects those.
		s.recordSolve(string(selector.MethodRatioGreedy), time.Since(start))
		return selector.Result{Method: selector.MethodRatioGreedy, NodeIDs: []string{}}
	}
	sol = s.improveBySwap(sol)
	s.recordSolve(string(selector.MethodRatioGreedy), time.Since(start))
	return selector.Result{
		Method:     selector.MethodRatioGreedy,
		NodeIDs:    sol.Selected,
		Objective:  sol.Objective,
		BudgetUsed: sol.Cost,
	}
}

// improveBySwap makes a single pass over the excluded candidates and
// swaps one in whenever trading it for a cheaper-valued selected
// candidate raises total value without breaking the budget.
func (s *Selector) improveBySwap(sol solver.Solution) solver.Solution {
	byID := make(map[string]Candidate, len(s.candidates))
	for _, c := range s.candidates {
		byID[c.ID] = c
	}
	selected := make(map[string]struct{}, len(sol.Selected))
	for _, id := range sol.Selected {
		selected[id] = struct{}{}
	}

	for _, cand := range s.candidates {
		if _, ok := selected[cand.ID]; ok {
			continue
		}
		bestSwap := ""
		for id := range selected {
			cur := byID[id]
			newCost := sol.Cost - cur.Cost + cand.Cost
			if newCost > s.budgetMinutes || cand.Value <= cur.Value {
				continue
			}
			// Prefer evicting the lowest-value holder; ties by id keep
			// the pass deterministic.
			if bestSwap == "" || cur.Value < byID[bestSwap].Value ||
				(cur.Value == byID[bestSwap].Value && id < bestSwap) {
				bestSwap = id
			}
		}
		if bestSwap == "" {
			continue
		}
		out := byID[bestSwap]
		delete(selected, bestSwap)
		selected[cand.ID] = struct{}{}
		sol.Cost += cand.Cost - out.Cost
		sol.Objective += cand.Value - out.Value
	}

	ids := make([]string, 0, len(selected))
	for id := range selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	sol.Selected = ids
	return sol
}

func (s *Selector) recordSolve(method string, d time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordSolve(selector.ProblemMaintenance, method, d)
	}
}
