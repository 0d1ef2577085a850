package export

// Types in this file mirror the JSON contract consumed by the
// visualization layer. Field names and shapes are fixed; additive
// changes require a new artifact, not a reshaped one.

// VizMetadata is the optional display block on a graph node.
type VizMetadata struct {
	Name  string `json:"name"`
	Job   string `json:"job"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// VizNode is one node of graph_viz.json.
type VizNode struct {
	ID       string       `json:"id"`
	Group    string       `json:"group,omitempty"`
	Val      float64      `json:"val"`
	Degree   int          `json:"degree"`
	Metadata *VizMetadata `json:"metadata,omitempty"`
}

// VizLink is one undirected link of graph_viz.json.
type VizLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// GraphViz is the graph_viz.json document.
type GraphViz struct {
	Nodes []VizNode `json:"nodes"`
	Links []VizLink `json:"links"`
}

// SentinelList holds one method's sentinel selection.
type SentinelList struct {
	Sentinels []string `json:"sentinels"`
}

// SentinelResults is the sentinel_results.json document.
type SentinelResults struct {
	IP     SentinelList `json:"ip"`
	Greedy SentinelList `json:"greedy"`
}

// MaintenanceNode is one selected node of maintenance_results.json.
type MaintenanceNode struct {
	ID          string  `json:"id"`
	Weight      float64 `json:"weight,omitempty"`
	Value       float64 `json:"value,omitempty"`
	DaysDormant int     `json:"days_dormant"`
}

// MaintenanceResults is the maintenance_results.json document.
type MaintenanceResults struct {
	SelectedNodes []MaintenanceNode `json:"selected_nodes"`
}

// MethodSummary describes one selection method's outcome in
// summary.json.
type MethodSummary struct {
	Selected   int     `json:"selected"`
	Objective  float64 `json:"objective"`
	BudgetUsed float64 `json:"budget_used"`
	RuntimeSec float64 `json:"runtime_sec"`
	Fallback   bool    `json:"fallback,omitempty"`
}

// Summary is the supplemental summary.json document.
type Summary struct {
	RunID   string `json:"run_id"`
	Dataset struct {
		Nodes          int `json:"nodes"`
		Edges          int `json:"edges"`
		SkippedRecords int `json:"skipped_records"`
	} `json:"dataset"`
	Sentinel struct {
		BudgetK             int           `json:"budget_k"`
		Exact               MethodSummary `json:"exact"`
		Greedy              MethodSummary `json:"greedy"`
		Naive               MethodSummary `json:"naive"`
		GreedyVsOptimalPct  float64       `json:"greedy_vs_optimal_pct"`
		NaiveVsOptimalPct   float64       `json:"naive_vs_optimal_pct"`
		ExactGainOverNaive  float64       `json:"exact_gain_over_naive_pct"`
	} `json:"sentinel"`
	Maintenance struct {
		BudgetMinutes float64       `json:"budget_minutes"`
		Exact         MethodSummary `json:"exact"`
		Approx        MethodSummary `json:"approx"`
	} `json:"maintenance"`
}
