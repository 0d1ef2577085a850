// Package sentinel selects the sentinel set: at most K nodes whose
// combined coverage sets reach the largest number of distinct nodes.
package sentinel

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/okian/vigil/internal/domain/network"
	"github.com/okian/vigil/internal/selector"
	"github.com/okian/vigil/internal/solver"
	"github.com/okian/vigil/pkg/logger"
	"github.com/okian/vigil/pkg/metrics"
)

// Default configuration constants.
const (
	defaultBudgetK   = 10
	defaultThreshold = 1.0
)

// Selector runs the three sentinel selection methods over one
// immutable snapshot.
type Selector struct {
	snap      *network.Snapshot
	budgetK   int
	threshold float64
	exact     solver.Solver
	approx    solver.Solver
	log       logger.Logger
	metrics   *metrics.Manager
}

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithBudget sets the maximum number of sentinels K.
func WithBudget(k int) Option {
	return func(s *Selector) {
		s.budgetK = k
	}
}

// WithThreshold sets the coverage weight threshold.
func WithThreshold(t float64) Option {
	return func(s *Selector) {
		s.threshold = t
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

// New creates a sentinel selector. A non-positive budget or threshold
// is a configuration error.
func New(snap *network.Snapshot, opts ...Option) (*Selector, error) {
	s := &Selector{
		snap:      snap,
		budgetK:   defaultBudgetK,
		threshold: defaultThreshold,
		exact:     solver.NewExact(),
		approx:    solver.NewApprox(),
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.budgetK <= 0 {
		return nil, fmt.Errorf("%w: sentinel budget must be positive, got %d", selector.ErrInvalidBudget, s.budgetK)
	}
	if s.threshold <= 0 {
		return nil, fmt.Errorf("%w: coverage threshold must be positive, got %g", selector.ErrInvalidBudget, s.threshold)
	}
	return s, nil
}

// problem builds the max-coverage instance: every node with at least
// one connection is a candidate; its coverage set is fixed by the
// snapshot and threshold.
func (s *Selector) problem() solver.CoverageProblem {
	var candidates []string
	covers := make(map[string][]string)
	for _, id := range s.snap.AllNodeIDs() {
		if s.snap.Degree(id) == 0 {
			continue
		}
		candidates = append(candidates, id)
		covers[id] = s.snap.CoverageSet(id, s.threshold)
	}
	return solver.CoverageProblem{
		Candidates: candidates,
		Covers:     covers,
		Budget:     s.budgetK,
	}
}

// Exact solves the selection with the exact solver. When the solver
// times out, is infeasible or unavailable, the greedy result stands in
// and the result is tagged as a fallback.
func (s *Selector) Exact(ctx context.Context) selector.Result {
	p := s.problem()
	start := time.Now()
	sol, err := s.exact.MaxCoverage(ctx, p)
	s.recordSolve(string(selector.MethodExact), time.Since(start))
	if err != nil {
		s.log.Warn(ctx, "exact sentinel solve failed, using greedy fallback", logger.Error(err))
		if s.metrics != nil {
			s.metrics.RecordFallback(selector.ProblemSentinel)
		}
		fallback := s.Greedy()
		fallback.Method = selector.MethodExact
		fallback.Fallback = true
		return fallback
	}
	return selector.Result{
		Method:     selector.MethodExact,
		NodeIDs:    sol.Selected,
		Objective:  sol.Objective,
		BudgetUsed: float64(len(sol.Selected)),
	}
}

// Greedy selects by maximal marginal coverage gain, ties broken by
// lowest node id. Carries the standard (1 - 1/e) guarantee relative to
// the optimum.
func (s *Selector) Greedy() selector.Result {
	p := s.problem()
	start := time.Now()
	sol, err := s.approx.MaxCoverage(context.Background(), p)
	s.recordSolve(string(selector.MethodGreedy), time.Since(start))
	if err != nil {
		// Only a negative budget can fail the greedy path, and New
		// rejects those.
		return selector.Result{Method: selector.MethodGreedy, NodeIDs: []string{}}
	}
	return selector.Result{
		Method:     selector.MethodGreedy,
		NodeIDs:    sol.Selected,
		Objective:  sol.Objective,
		BudgetUsed: float64(len(sol.Selected)),
	}
}

// Naive selects the top-K nodes by degree, ties broken by lowest node
// id. Comparison baseline only, never the production selection.
func (s *Selector) Naive() selector.Result {
	start := time.Now()

	ids := make([]string, 0, s.snap.NodeCount())
	for _, id := range s.snap.AllNodeIDs() {
		if s.snap.Degree(id) > 0 {
			ids = append(ids, id)
		}
	}
	sort.SliceStable(ids, func(a, b int) bool {
		da, db := s.snap.Degree(ids[a]), s.snap.Degree(ids[b])
		if da != db {
			return da > db
		}
		return ids[a] < ids[b]
	})
	if len(ids) > s.budgetK {
		ids = ids[:s.budgetK]
	}

	covered := make(map[string]struct{})
	for _, id := range ids {
		for _, t := range s.snap.CoverageSet(id, s.threshold) {
			covered[t] = struct{}{}
		}
	}
	s.recordSolve(string(selector.MethodNaive), time.Since(start))

	return selector.Result{
		Method:     selector.MethodNaive,
		NodeIDs:    ids,
		Objective:  float64(len(covered)),
		BudgetUsed: float64(len(ids)),
	}
}

func (s *Selector) recordSolve(method string, d time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordSolve(selector.ProblemSentinel, method, d)
	}
}
