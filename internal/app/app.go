// Package app wires the pipeline together: build one immutable network
// snapshot, run the sentinel and maintenance selections on it, assign
// roles once, and export the artifacts.
package app

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/vigil/internal/config"
	"github.com/okian/vigil/internal/domain/model"
	"github.com/okian/vigil/internal/domain/network"
	"github.com/okian/vigil/internal/domain/value"
	"github.com/okian/vigil/internal/export"
	"github.com/okian/vigil/internal/selector"
	"github.com/okian/vigil/internal/selector/maintenance"
	"github.com/okian/vigil/internal/selector/sentinel"
	"github.com/okian/vigil/internal/solver"
	"github.com/okian/vigil/pkg/logger"
	"github.com/okian/vigil/pkg/metrics"
)

// Pipeline runs one full optimization pass.
type Pipeline struct {
	cfg     *config.Config
	log     logger.Logger
	metrics *metrics.Manager
}

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// WithMetrics sets the metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(p *Pipeline) {
		if m != nil {
			p.metrics = m
		}
	}
}

// New creates a Pipeline for the given configuration. The config must
// already be validated.
func New(cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:     cfg,
		log:     logger.Nop(),
		metrics: metrics.NewManager(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunReport summarizes a completed pipeline run.
type RunReport struct {
	RunID         string
	Nodes         int
	Edges         int
	Skipped       int
	ArtifactPaths []string

	SentinelExact     selector.Result
	SentinelGreedy    selector.Result
	SentinelNaive     selector.Result
	MaintenanceExact  selector.Result
	MaintenanceApprox selector.Result
}

// Run executes the full pipeline: load, build, select, export.
func (p *Pipeline) Run(ctx context.Context) (*RunReport, error) {
	runID := uuid.NewString()
	log := p.log.Named("pipeline")
	log.Info(ctx, "run starting", logger.String("run_id", runID))

	snap, err := p.buildSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	sentinelSel, maintenanceSel, err := p.buildSelectors(snap)
	if err != nil {
		return nil, err
	}

	// The two selections are independent reads of the same immutable
	// snapshot, so they run concurrently.
	var (
		wg sync.WaitGroup

		sExact, sGreedy, sNaive          selector.Result
		sExactDur, sGreedyDur, sNaiveDur time.Duration

		mExact, mApprox       selector.Result
		mExactDur, mApproxDur time.Duration
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		start := time.Now()
		sGreedy = sentinelSel.Greedy()
		sGreedyDur = time.Since(start)

		start = time.Now()
		sExact = sentinelSel.Exact(ctx)
		sExactDur = time.Since(start)

		start = time.Now()
		sNaive = sentinelSel.Naive()
		sNaiveDur = time.Since(start)
	}()
	go func() {
		defer wg.Done()
		start := time.Now()
		mApprox = maintenanceSel.Approx()
		mApproxDur = time.Since(start)

		start = time.Now()
		mExact = maintenanceSel.Exact(ctx)
		mExactDur = time.Since(start)
	}()
	wg.Wait()

	p.recordSelections(sExact, sGreedy, sNaive, mExact, mApprox)
	log.Info(ctx, "selections complete",
		logger.Int("sentinels", sExact.Size()),
		logger.Float64("sentinel_coverage", sExact.Objective),
		logger.Bool("sentinel_fallback", sExact.Fallback),
		logger.Int("maintenance_selected", mExact.Size()),
		logger.Float64("maintenance_value", mExact.Objective),
		logger.Bool("maintenance_fallback", mExact.Fallback),
	)

	// Roles are write-once, assigned only after both selectors finish.
	roles := selector.NewRoleSet()
	if err := roles.Assign(sExact.NodeIDs, mExact.NodeIDs); err != nil {
		return nil, err
	}

	summary := buildSummary(runID, snap, p.cfg, methodTimings{
		sentinelExact:  timed{sExact, sExactDur},
		sentinelGreedy: timed{sGreedy, sGreedyDur},
		sentinelNaive:  timed{sNaive, sNaiveDur},
		maintExact:     timed{mExact, mExactDur},
		maintApprox:    timed{mApprox, mApproxDur},
	})

	writer, err := export.NewWriter(p.cfg.OutputDir,
		export.WithLogger(p.log),
		export.WithMetrics(p.metrics),
	)
	if err != nil {
		return nil, err
	}
	paths, err := writer.Write(ctx, export.Input{
		Snapshot:         snap,
		Roles:            roles,
		SentinelExact:    sExact,
		SentinelGreedy:   sGreedy,
		MaintenanceExact: mExact,
		Candidates:       maintenanceSel.Candidates(),
		MaintenanceSort:  p.cfg.MaintenanceSort,
		Summary:          summary,
	})
	if err != nil {
		return nil, err
	}

	log.Info(ctx, "run complete", logger.String("run_id", runID), logger.Int("artifacts", len(paths)))
	return &RunReport{
		RunID:             runID,
		Nodes:             snap.NodeCount(),
		Edges:             snap.EdgeCount(),
		Skipped:           snap.SkippedRecords(),
		ArtifactPaths:     paths,
		SentinelExact:     sExact,
		SentinelGreedy:    sGreedy,
		SentinelNaive:     sNaive,
		MaintenanceExact:  mExact,
		MaintenanceApprox: mApprox,
	}, nil
}

func (p *Pipeline) buildSnapshot(ctx context.Context) (*network.Snapshot, error) {
	start := time.Now()

	in, err := os.Open(p.cfg.InputPath)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	builder := network.NewBuilder(network.WithLogger(p.log))
	if err := builder.ReadCSV(ctx, in); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	var identities model.Directory
	if p.cfg.IdentityPath != "" {
		f, err := os.Open(p.cfg.IdentityPath)
		if err != nil {
			return nil, fmt.Errorf("open identities: %w", err)
		}
		identities, err = model.ReadDirectory(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read identities: %w", err)
		}
	}

	snap, err := builder.Build(ctx, identities)
	if err != nil {
		return nil, err
	}

	p.metrics.RecordParsed(snap.EdgeCount())
	p.metrics.RecordSkipped(snap.SkippedRecords())
	p.metrics.RecordSnapshot(snap.NodeCount(), snap.EdgeCount(), time.Since(start))
	return snap, nil
}

func (p *Pipeline) buildSelectors(snap *network.Snapshot) (*sentinel.Selector, *maintenance.Selector, error) {
	exact := solver.NewExact(solver.WithTimeLimit(time.Duration(p.cfg.SolverTimeLimitMS) * time.Millisecond))
	approx := solver.NewApprox()

	sentinelSel, err := sentinel.New(snap,
		sentinel.WithBudget(p.cfg.SentinelBudgetK),
		sentinel.WithThreshold(p.cfg.CoverageThreshold),
		sentinel.WithSolvers(exact, approx),
		sentinel.WithLogger(p.log),
		sentinel.WithMetrics(p.metrics),
	)
	if err != nil {
		return nil, nil, err
	}

	valueModel, err := value.ModelFor(p.cfg.DormancyModel, p.cfg.DecayHalfLifeDays)
	if err != nil {
		return nil, nil, err
	}
	costModel, err := value.CostFor(p.cfg.CostModel, p.cfg.MaintenanceCostMinutes)
	if err != nil {
		return nil, nil, err
	}
	maintenanceSel, err := maintenance.New(snap,
		maintenance.WithBudget(p.cfg.MaintenanceBudgetMinutes),
		maintenance.WithMinDormancy(p.cfg.MinDormancyDays),
		maintenance.WithModels(valueModel, costModel),
		maintenance.WithSolvers(exact, approx),
		maintenance.WithLogger(p.log),
		maintenance.WithMetrics(p.metrics),
	)
	if err != nil {
		return nil, nil, err
	}
	return sentinelSel, maintenanceSel, nil
}

func (p *Pipeline) recordSelections(sExact, sGreedy, sNaive, mExact, mApprox selector.Result) {
	record := func(problem string, r selector.Result) {
		p.metrics.RecordSelection(problem, string(r.Method), r.Size(), r.Objective)
	}
	record(selector.ProblemSentinel, sExact)
	record(selector.ProblemSentinel, sGreedy)
	record(selector.ProblemSentinel, sNaive)
	record(selector.ProblemMaintenance, mExact)
	record(selector.ProblemMaintenance, mApprox)
}

type timed struct {
	result selector.Result
	dur    time.Duration
}

type methodTimings struct {
	sentinelExact  timed
	sentinelGreedy timed
	sentinelNaive  timed
	maintExact     timed
	maintApprox    timed
}

func buildSummary(runID string, snap *network.Snapshot, cfg *config.Config, t methodTimings) *export.Summary {
	s := &export.Summary{RunID: runID}
	s.Dataset.Nodes = snap.NodeCount()
	s.Dataset.Edges = snap.EdgeCount()
	s.Dataset.SkippedRecords = snap.SkippedRecords()

	toSummary := func(x timed) export.MethodSummary {
		return export.MethodSummary{
			Selected:   x.result.Size(),
			Objective:  x.result.Objective,
			BudgetUsed: x.result.BudgetUsed,
			RuntimeSec: x.dur.Seconds(),
			Fallback:   x.result.Fallback,
		}
	}

	s.Sentinel.BudgetK = cfg.SentinelBudgetK
	s.Sentinel.Exact = toSummary(t.sentinelExact)
	s.Sentinel.Greedy = toSummary(t.sentinelGreedy)
	s.Sentinel.Naive = toSummary(t.sentinelNaive)
	if opt := t.sentinelExact.result.Objective; opt > 0 {
		s.Sentinel.GreedyVsOptimalPct = t.sentinelGreedy.result.Objective / opt * 100
		s.Sentinel.NaiveVsOptimalPct = t.sentinelNaive.result.Objective / opt * 100
	}
	if naive := t.sentinelNaive.result.Objective; naive > 0 {
		s.Sentinel.ExactGainOverNaive = (t.sentinelExact.result.Objective - naive) / naive * 100
	}

	s.Maintenance.BudgetMinutes = cfg.MaintenanceBudgetMinutes
	s.Maintenance.Exact = toSummary(t.maintExact)
	s.Maintenance.Approx = toSummary(t.maintApprox)
	return s
}
