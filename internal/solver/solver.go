// Package solver abstracts the integer-programming backend behind a
// small interface with two implementations: NewExact, a branch and
// bound search run under a configurable time limit, and NewApprox, the
// pure greedy fallback. The pipeline is fully functional with only the
// approximate implementation present.
package solver

import (
	"context"
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInfeasible  = errors.New("infeasible problem")
	ErrTimeout     = errors.New("solver time limit exceeded")
	ErrUnavailable = errors.New("solver unavailable")
)

// CoverageProblem is a maximum coverage instance: pick at most Budget
// candidates maximizing the number of distinct covered elements.
type CoverageProblem struct {
	Candidates []string
	Covers     map[string][]string // candidate id -> covered element ids
	Budget     int
}

// Item is one knapsack candidate.
type Item struct {
	ID    string
	Value float64
	Cost  float64
}

// KnapsackProblem is a 0/1 knapsack instance: pick items maximizing
// total value with total cost at most Budget.
type KnapsackProblem struct {
	Items  []Item
	Budget float64
}

// Solution is the outcome of one solve.
type Solution struct {
	Selected  []string
	Objective float64
	Cost      float64
}

// Solver solves the two selection formulations. Implementations must
// be deterministic given identical input.
type Solver interface {
	// MaxCoverage solves p, honoring ctx for cancellation.
	MaxCoverage(ctx context.Context, p CoverageProblem) (Solution, error)

	// Knapsack solves p, honoring ctx for cancellation.
	Knapsack(ctx context.Context, p KnapsackProblem) (Solution, error)
}
