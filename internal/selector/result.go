// Package selector holds the types shared by the sentinel and
// maintenance selectors.
package selector

// Method identifies how a selection was produced.
type Method string

// Selection methods.
const (
	MethodExact       Method = "exact"
	MethodGreedy      Method = "greedy"
	MethodNaive       Method = "naive"
	MethodRatioGreedy Method = "ratio_greedy"
)

// Problem labels used in logs and metrics.
const (
	ProblemSentinel    = "sentinel"
	ProblemMaintenance = "maintenance"
)

// Result is one immutable selection outcome.
type Result struct {
	// Method that produced the selection. A fallback keeps the exact
	// method label with Fallback set.
	Method Method

	// NodeIDs in selection order.
	NodeIDs []string

	// Objective achieved: unique coverage count for sentinels, total
	// value for maintenance.
	Objective float64

	// BudgetUsed: picks consumed for sentinels, minutes for maintenance.
	BudgetUsed float64

	// Fallback is set when the exact solver was unavailable, infeasible
	// or timed out and the approximate result stands in.
	Fallback bool
}

// Size returns the number of selected nodes.
func (r Result) Size() int {
	return len(r.NodeIDs)
}

// Contains reports whether id is part of the selection.
func (r Result) Contains(id string) bool {
	for _, n := range r.NodeIDs {
		if n == id {
			return true
		}
	}
	return false
}
