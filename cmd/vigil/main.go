// Command vigil runs the full optimization pipeline: build the trust
// network snapshot, compute the sentinel and maintenance selections,
// and export the result artifacts.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/vigil/internal/app"
	"github.com/okian/vigil/internal/config"
	"github.com/okian/vigil/pkg/logger"
	"github.com/okian/vigil/pkg/metrics"
)

// Metrics server timeout constants.
const (
	readHeaderTimeout = 5 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM. Cancellation aborts
	// an in-flight exact solve; the run then fails cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	manager := metrics.NewManager()

	// An exact solve can run for minutes; when configured, expose the
	// run's metrics over HTTP for the duration.
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(manager.Registry(), promhttp.HandlerOpts{}))
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: readHeaderTimeout,
		}
		go func() {
			log.Info(ctx, "metrics listener starting", logger.String("addr", cfg.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Warn(ctx, "metrics listener failed", logger.Error(err))
			}
		}()
		defer srv.Close()
	}

	pipeline := app.New(cfg,
		app.WithLogger(log),
		app.WithMetrics(manager),
	)
	report, err := pipeline.Run(ctx)
	if err != nil {
		log.Error(ctx, "pipeline failed", logger.Error(err))
		os.Exit(1)
	}

	log.Info(ctx, "pipeline finished",
		logger.String("run_id", report.RunID),
		logger.Int("nodes", report.Nodes),
		logger.Int("edges", report.Edges),
		logger.Int("skipped_records", report.Skipped),
		logger.Int("sentinels", report.SentinelExact.Size()),
		logger.Int("maintenance", report.MaintenanceExact.Size()),
		logger.Int("artifacts", len(report.ArtifactPaths)),
	)
}
