package solver

import (
	"context"
	"fmt"
	"math/bits"
	"sort"
	"time"
)

// Default exact-solver configuration constants.
const (
	defaultTimeLimit   = 10 * time.Minute
	deadlineCheckEvery = 4096 // search nodes between deadline checks
	objectiveEpsilon   = 1e-9 // objective-value rounding for stable ties
)

// exactSolver implements Solver with a depth-first branch and bound
// search. Candidates are explored in a fixed order and incumbents only
// replaced on strict improvement, so results are deterministic.
type exactSolver struct {
	timeLimit time.Duration
}

// ExactOption applies a configuration option to the exact solver.
type ExactOption func(*exactSolver)

// WithTimeLimit bounds each solve call. A zero or negative limit makes
// every call time out immediately, forcing the caller's fallback path.
func WithTimeLimit(d time.Duration) ExactOption {
	return func(s *exactSolver) {
		s.timeLimit = d
	}
}

// NewExact creates the exact solver with configuration options.
func NewExact(opts ...ExactOption) Solver {
	s := &exactSolver{
		timeLimit: defaultTimeLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// budget tracks the search deadline across recursive calls.
type searchBudget struct {
	deadline time.Time
	ctx      context.Context
	nodes    int
}

func (b *searchBudget) spend() error {
	b.nodes++
	if b.nodes%deadlineCheckEvery != 0 {
		return nil
	}
	if err := b.ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if time.Now().After(b.deadline) {
		return ErrTimeout
	}
	return nil
}

func (s *exactSolver) newBudget(ctx context.Context) (*searchBudget, error) {
	if s.timeLimit <= 0 {
		return nil, ErrTimeout
	}
	deadline := time.Now().Add(s.timeLimit)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	return &searchBudget{deadline: deadline, ctx: ctx}, nil
}

func (s *exactSolver) MaxCoverage(ctx context.Context, p CoverageProblem) (Solution, error) {
	if p.Budget < 0 {
		return Solution{}, ErrInfeasible
	}
	budget, err := s.newBudget(ctx)
	if err != nil {
		return Solution{}, err
	}

	// Index the element universe and encode coverage sets as bitsets.
	elemIndex := make(map[string]int)
	ids := append([]string(nil), p.Candidates...)
	sort.Strings(ids)
	for _, c := range ids {
		for _, t := range p.Covers[c] {
			if _, ok := elemIndex[t]; !ok {
				elemIndex[t] = len(elemIndex)
			}
		}
	}
	sets := make([]bitset, len(ids))
	for i, c := range ids {
		sets[i] = newBitset(len(elemIndex))
		for _, t := range p.Covers[c] {
			sets[i].set(elemIndex[t])
		}
	}

	k := p.Budget
	if k > len(ids) {
		k = len(ids)
	}

	// Explore larger sets first; it tightens the bound sooner. Equal
	// sizes keep ascending id order.
	order := make([]int, len(ids))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return sets[order[a]].count() > sets[order[b]].count()
	})

	// Greedy incumbent gives the initial lower bound.
	incumbent, _ := NewApprox().MaxCoverage(ctx, CoverageProblem{
		Candidates: ids,
		Covers:     p.Covers,
		Budget:     k,
	})
	bestCount := int(incumbent.Objective)
	bestPick := append([]string(nil), incumbent.Selected...)

	// suffixSizes[i] holds the set sizes from position i on, used for
	// the "best possible remaining gain" bound.
	sizes := make([]int, len(order))
	for i, oi := range order {
		sizes[i] = sets[oi].count()
	}

	covered := newBitset(len(elemIndex))
	picked := make([]string, 0, k)

	var walk func(pos, count int) error
	walk = func(pos, count int) error {
		if err := budget.spend(); err != nil {
			return err
		}
		if count > bestCount {
			bestCount = count
			bestPick = append([]string(nil), picked...)
		}
		if len(picked) == k || pos == len(order) {
			return nil
		}

		// Upper bound: current coverage plus the largest remaining set
		// sizes, one per unused pick.
		bound := count
		for i, left := pos, k-len(picked); i < len(order) && left > 0; i, left = i+1, left-1 {
			bound += sizes[i]
		}
		if bound <= bestCount {
			return nil
		}

		ci := order[pos]

		// Include branch.
		gained := covered.orDiff(sets[ci])
		picked = append(picked, ids[ci])
		if err := walk(pos+1, count+len(gained)); err != nil {
			return err
		}
		picked = picked[:len(picked)-1]
		covered.clearAll(gained)

		// Exclude branch.
		return walk(pos+1, count)
	}
	if err := walk(0, 0); err != nil {
		return Solution{}, err
	}

	sort.Strings(bestPick)
	return Solution{
		Selected:  bestPick,
		Objective: float64(bestCount),
		Cost:      float64(len(bestPick)),
	}, nil
}

func (s *exactSolver) Knapsack(ctx context.Context, p KnapsackProblem) (Solution, error) {
	if p.Budget < 0 {
		return Solution{}, ErrInfeasible
	}
	for _, it := range p.Items {
		if it.Cost < 0 {
			return Solution{}, ErrInfeasible
		}
	}
	budget, err := s.newBudget(ctx)
	if err != nil {
		return Solution{}, err
	}

	items := sortItemsByRatio(p.Items)

	// Ratio-greedy incumbent gives the initial lower bound.
	incumbent, _ := NewApprox().Knapsack(ctx, p)
	bestValue := incumbent.Objective
	bestCost := incumbent.Cost
	bestPick := append([]string(nil), incumbent.Selected...)

	picked := make([]string, 0, len(items))

	var walk func(pos int, val, cost float64) error
	walk = func(pos int, val, cost float64) error {
		if err := budget.spend(); err != nil {
			return err
		}
		if val > bestValue+objectiveEpsilon {
			bestValue = val
			bestCost = cost
			bestPick = append([]string(nil), picked...)
		}
		if pos == len(items) {
			return nil
		}
		if bound := val + fractionalBound(items[pos:], p.Budget-cost); bound <= bestValue+objectiveEpsilon {
			return nil
		}

		it := items[pos]
		if it.Cost <= p.Budget-cost {
			picked = append(picked, it.ID)
			if err := walk(pos+1, val+it.Value, cost+it.Cost); err != nil {
				return err
			}
			picked = picked[:len(picked)-1]
		}
		return walk(pos+1, val, cost)
	}
	if err := walk(0, 0, 0); err != nil {
		return Solution{}, err
	}

	sort.Strings(bestPick)
	return Solution{
		Selected:  bestPick,
		Objective: bestValue,
		Cost:      bestCost,
	}, nil
}

// fractionalBound is the LP relaxation of the remaining items: fill
// the leftover budget in ratio order, splitting the first item that
// does not fit.
func fractionalBound(items []Item, remaining float64) float64 {
	bound := 0.0
	for _, it := range items {
		if it.Value <= 0 {
			continue
		}
		if it.Cost <= remaining {
			bound += it.Value
			remaining -= it.Cost
			continue
		}
		if it.Cost > 0 {
			bound += it.Value * (remaining / it.Cost)
		}
		break
	}
	return bound
}

// bitset is a fixed-size bit vector used to encode coverage sets.
type bitset []uint64

func newBitset(n int) bitset {
	return make(bitset, (n+63)/64)
}

func (b bitset) set(i int) {
	b[i/64] |= 1 << (uint(i) % 64)
}

// orDiff merges other into b and returns the bit indices that were
// newly set, so the caller can undo the merge.
func (b bitset) orDiff(other bitset) []int {
	var gained []int
	for w := range other {
		diff := other[w] &^ b[w]
		if diff == 0 {
			continue
		}
		b[w] |= diff
		for bit := 0; bit < 64; bit++ {
			if diff&(1<<uint(bit)) != 0 {
				gained = append(gained, w*64+bit)
			}
		}
	}
	return gained
}

func (b bitset) clearAll(bits []int) {
	for _, i := range bits {
		b[i/64] &^= 1 << (uint(i) % 64)
	}
}

func (b bitset) count() int {
	total := 0
	for _, w := range b {
		total += bits.OnesCount64(w)
	}
	return total
}
