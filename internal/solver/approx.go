package solver

import (
	"context"
	"sort"
)

// approxSolver implements Solver with greedy heuristics only. It has
// no tunables and never times out.
type approxSolver struct{}

// NewApprox creates the approximate solver: classic maximal marginal
// gain for coverage, value-to-cost ratio greedy for knapsack. Ties
// break on the lowest candidate id so results are deterministic.
func NewApprox() Solver {
	return approxSolver{}
}

func (approxSolver) MaxCoverage(_ context.Context, p CoverageProblem) (Solution, error) {
	if p.Budget < 0 {
		return Solution{}, ErrInfeasible
	}

	candidates := append([]string(nil), p.Candidates...)
	sort.Strings(candidates)

	covered := make(map[string]struct{})
	chosen := make(map[string]struct{})
	var selected []string

	for len(selected) < p.Budget {
		best := ""
		bestGain := 0
		for _, c := range candidates {
			if _, ok := chosen[c]; ok {
				continue
			}
			gain := 0
			for _, t := range p.Covers[c] {
				if _, ok := covered[t]; !ok {
					gain++
				}
			}
			// Strict improvement keeps the lowest-id winner on ties.
			if gain > bestGain {
				bestGain = gain
				best = c
			}
		}
		if best == "" {
			break // no candidate adds new coverage
		}
		chosen[best] = struct{}{}
		selected = append(selected, best)
		for _, t := range p.Covers[best] {
			covered[t] = struct{}{}
		}
	}

	if selected == nil {
		selected = []string{}
	}
	return Solution{
		Selected:  selected,
		Objective: float64(len(covered)),
		Cost:      float64(len(selected)),
	}, nil
}

func (approxSolver) Knapsack(_ context.Context, p KnapsackProblem) (Solution, error) {
	if p.Budget < 0 {
		return Solution{}, ErrInfeasible
	}
	for _, it := range p.Items {
		if it.Cost < 0 {
			return Solution{}, ErrInfeasible
		}
	}

	items := sortItemsByRatio(p.Items)

	var (
		selected  []string
		value     float64
		remaining = p.Budget
	)
	for _, it := range items {
		if it.Cost > remaining {
			continue
		}
		selected = append(selected, it.ID)
		value += it.Value
		remaining -= it.Cost
	}

	if selected == nil {
		selected = []string{}
	}
	return Solution{
		Selected:  selected,
		Objective: value,
		Cost:      p.Budget - remaining,
	}, nil
}

// sortItemsByRatio orders items by descending value/cost ratio, then
// descending value, then ascending id. Zero-cost items sort first.
func sortItemsByRatio(items []Item) []Item {
	out := append([]Item(nil), items...)
	sort.Slice(out, func(i, j int) bool {
		ri, rj := ratio(out[i]), ratio(out[j])
		if ri != rj {
			return ri > rj
		}
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func ratio(it Item) float64 {
	if it.Cost <= 0 {
		if it.Value > 0 {
			return maxRatio
		}
		return 0
	}
	return it.Value / it.Cost
}

// maxRatio stands in for an infinite ratio without NaN hazards.
const maxRatio = 1e18
