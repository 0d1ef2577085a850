package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	config "github.com/okian/vigil/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaults(t *testing.T) {
	Convey("Given a default configuration", t, func() {
		cfg := config.New()

		Convey("Then it validates cleanly", func() {
			So(cfg.Validate(), ShouldBeNil)
		})

		Convey("Then the selection defaults are in place", func() {
			So(cfg.SentinelBudgetK, ShouldEqual, 10)
			So(cfg.CoverageThreshold, ShouldEqual, 1)
			So(cfg.MaintenanceBudgetMinutes, ShouldEqual, 2800)
			So(cfg.MinDormancyDays, ShouldEqual, 30)
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given invalid configurations", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty input path", func(c *config.Config) { c.InputPath = "" }},
			{"empty output dir", func(c *config.Config) { c.OutputDir = "" }},
			{"zero sentinel budget", func(c *config.Config) { c.SentinelBudgetK = 0 }},
			{"negative coverage threshold", func(c *config.Config) { c.CoverageThreshold = -1 }},
			{"zero maintenance budget", func(c *config.Config) { c.MaintenanceBudgetMinutes = 0 }},
			{"negative dormancy threshold", func(c *config.Config) { c.MinDormancyDays = -1 }},
			{"negative solver time limit", func(c *config.Config) { c.SolverTimeLimitMS = -1 }},
			{"unknown dormancy model", func(c *config.Config) { c.DormancyModel = "linear" }},
			{"unknown cost model", func(c *config.Config) { c.CostModel = "cubic" }},
			{"unknown maintenance sort", func(c *config.Config) { c.MaintenanceSort = "degree" }},
		}
		for _, tc := range cases {
			Convey("Then "+tc.name+" is rejected", func() {
				cfg := config.New()
				tc.mutate(cfg)
				err := cfg.Validate()
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		}
	})
}

func TestLoadFromEnv(t *testing.T) {
	Convey("Given pipeline settings in the environment", t, func() {
		t.Setenv("VIGIL_SENTINEL_BUDGET_K", "25")
		t.Setenv("VIGIL_OUTPUT_DIR", "out")
		t.Setenv("VIGIL_DORMANCY_MODEL", "exp_decay")

		cfg, err := config.Load(context.Background())
		So(err, ShouldBeNil)

		Convey("Then env values override defaults", func() {
			So(cfg.SentinelBudgetK, ShouldEqual, 25)
			So(cfg.OutputDir, ShouldEqual, "out")
			So(cfg.DormancyModel, ShouldEqual, "exp_decay")
		})

		Convey("Then untouched settings keep their defaults", func() {
			So(cfg.MaintenanceBudgetMinutes, ShouldEqual, 2800)
		})
	})
}

func TestLoadFromFile(t *testing.T) {
	Convey("Given a YAML configuration file", t, func() {
		path := filepath.Join(t.TempDir(), "vigil.yaml")
		body := "sentinel_budget_k: 5\nmaintenance_budget_minutes: 120\n"
		So(os.WriteFile(path, []byte(body), 0o600), ShouldBeNil)
		t.Setenv("VIGIL_CONFIG", path)

		Convey("When loading without env overrides", func() {
			cfg, err := config.Load(context.Background())
			So(err, ShouldBeNil)

			Convey("Then file values apply over defaults", func() {
				So(cfg.SentinelBudgetK, ShouldEqual, 5)
				So(cfg.MaintenanceBudgetMinutes, ShouldEqual, 120)
			})
		})

		Convey("When an env var overrides the file", func() {
			t.Setenv("VIGIL_SENTINEL_BUDGET_K", "7")
			cfg, err := config.Load(context.Background())
			So(err, ShouldBeNil)

			Convey("Then the env value wins", func() {
				So(cfg.SentinelBudgetK, ShouldEqual, 7)
			})
		})
	})
}

func TestLoadFailures(t *testing.T) {
	Convey("Given broken load inputs", t, func() {
		Convey("Then a missing config file fails to load", func() {
			t.Setenv("VIGIL_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
			_, err := config.Load(context.Background())
			So(errors.Is(err, config.ErrLoadConfig), ShouldBeTrue)
		})

		Convey("Then an invalid loaded value fails validation", func() {
			// Convey re-runs the outer closure per leaf, and t.Setenv from
			// the previous branch only unsets at test end, so clear the
			// file path to keep this branch isolated.
			t.Setenv("VIGIL_CONFIG", "")
			t.Setenv("VIGIL_SENTINEL_BUDGET_K", "-3")
			_, err := config.Load(context.Background())
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}
