// Package config defines pipeline configuration and loading.
//
// Conventions follow the rest of the project: defaults come from New,
// Load layers an optional YAML file and VIGIL_* environment variables
// on top, and validation runs before any computation starts.
package config

import (
	"fmt"

	"github.com/okian/vigil/internal/domain/value"
	"github.com/okian/vigil/internal/export"
)

// Config contains the full pipeline configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// InputPath is the endorsement record CSV.
	InputPath string `koanf:"input_path"`

	// IdentityPath is the optional identity CSV (id,name,job,email,phone).
	IdentityPath string `koanf:"identity_path"`

	// OutputDir receives the exported artifacts.
	OutputDir string `koanf:"output_dir"`

	// SentinelBudgetK is the maximum number of sentinels.
	SentinelBudgetK int `koanf:"sentinel_budget_k"`

	// CoverageThreshold is the positive edge weight a connection must
	// exceed to count as coverage.
	CoverageThreshold float64 `koanf:"coverage_threshold"`

	// MaintenanceBudgetMinutes is the total re-engagement time budget.
	MaintenanceBudgetMinutes float64 `koanf:"maintenance_budget_minutes"`

	// MinDormancyDays is the dormancy threshold for maintenance
	// candidates.
	MinDormancyDays int `koanf:"min_dormancy_days"`

	// SolverTimeLimitMS bounds each exact solve. Zero forces the
	// approximate fallback on every exact call.
	SolverTimeLimitMS int `koanf:"solver_time_limit_ms"`

	// DormancyModel names the maintenance value model: log_urgency or
	// exp_decay.
	DormancyModel string `koanf:"dormancy_model"`

	// DecayHalfLifeDays parameterizes exp_decay.
	DecayHalfLifeDays float64 `koanf:"decay_half_life_days"`

	// CostModel names the re-engagement cost model: uniform or depth.
	CostModel string `koanf:"cost_model"`

	// MaintenanceCostMinutes is the base re-engagement cost per node.
	MaintenanceCostMinutes float64 `koanf:"maintenance_cost_minutes"`

	// MaintenanceSort orders maintenance_results.json: dormancy or value.
	MaintenanceSort string `koanf:"maintenance_sort"`

	// MetricsAddr, when set, exposes Prometheus metrics over HTTP while
	// the pipeline runs, e.g. ":9090".
	MetricsAddr string `koanf:"metrics_addr"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:                 "info",
		InputPath:                "data/endorsements.csv",
		IdentityPath:             "",
		OutputDir:                "results",
		SentinelBudgetK:          10,
		CoverageThreshold:        1,
		MaintenanceBudgetMinutes: 2800,
		MinDormancyDays:          30,
		SolverTimeLimitMS:        600_000,
		DormancyModel:            value.ModelLogUrgency,
		DecayHalfLifeDays:        180,
		CostModel:                value.CostUniform,
		MaintenanceCostMinutes:   45,
		MaintenanceSort:          export.SortByDormancy,
	}
}

// Validate rejects invalid combinations before any selector executes.
func (c *Config) Validate() error {
	if c.InputPath == "" {
		return fmt.Errorf("%w: input_path must not be empty", ErrInvalidConfig)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output_dir must not be empty", ErrInvalidConfig)
	}
	if c.SentinelBudgetK <= 0 {
		return fmt.Errorf("%w: sentinel_budget_k must be positive, got %d", ErrInvalidConfig, c.SentinelBudgetK)
	}
	if c.CoverageThreshold <= 0 {
		return fmt.Errorf("%w: coverage_threshold must be positive, got %g", ErrInvalidConfig, c.CoverageThreshold)
	}
	if c.MaintenanceBudgetMinutes <= 0 {
		return fmt.Errorf("%w: maintenance_budget_minutes must be positive, got %g", ErrInvalidConfig, c.MaintenanceBudgetMinutes)
	}
	if c.MinDormancyDays < 0 {
		return fmt.Errorf("%w: min_dormancy_days must not be negative, got %d", ErrInvalidConfig, c.MinDormancyDays)
	}
	if c.SolverTimeLimitMS < 0 {
		return fmt.Errorf("%w: solver_time_limit_ms must not be negative, got %d", ErrInvalidConfig, c.SolverTimeLimitMS)
	}
	if _, err := value.ModelFor(c.DormancyModel, c.DecayHalfLifeDays); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := value.CostFor(c.CostModel, c.MaintenanceCostMinutes); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	switch c.MaintenanceSort {
	case export.SortByDormancy, export.SortByValue:
	default:
		return fmt.Errorf("%w: unknown maintenance_sort %q", ErrInvalidConfig, c.MaintenanceSort)
	}
	return nil
}
