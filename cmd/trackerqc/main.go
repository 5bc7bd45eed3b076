// cmd/trackerqc/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wearalytics/tracker-qc/pkg/config"
	"github.com/wearalytics/tracker-qc/pkg/engine"
	"github.com/wearalytics/tracker-qc/pkg/ledger"
	"github.com/wearalytics/tracker-qc/pkg/loader"
	"github.com/wearalytics/tracker-qc/pkg/model"
	"github.com/wearalytics/tracker-qc/pkg/report"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env if present; real environment variables take precedence
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	led, err := buildLedger(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer led.Close() //nolint:errcheck

	ld, err := loader.NewLoader(cfg.DataDir, logger)
	if err != nil {
		return err
	}

	raw, err := ld.LoadAll()
	if err != nil {
		return fmt.Errorf("failed to load export files: %w", err)
	}

	eng, err := engine.NewEngine(cfg.Bounds, led, logger)
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}

	_, rep, err := eng.Run(ctx, raw)
	if err != nil {
		return fmt.Errorf("validation run failed: %w", err)
	}

	if err := writeReport(cfg.ReportPath, rep, logger); err != nil {
		return err
	}

	// A FAIL report is a successful run: the cleaned output was produced
	// and the report explains every adjustment.
	if !rep.Passed {
		logger.Warn("Validation finished with failures, see report",
			zap.String("report", cfg.ReportPath),
			zap.Strings("failedRules", rep.FailedRules()))
	}

	return nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.LogFormat == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

func buildLedger(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ledger.Ledger, error) {
	if cfg.Ledger == nil {
		logger.Info("No remediation ledger configured, records are report-only")
		return ledger.Nop{}, nil
	}

	led, err := ledger.NewPostgresLedger(ctx, cfg.Ledger, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect remediation ledger: %w", err)
	}
	return led, nil
}

func writeReport(path string, rep *model.ValidationReport, logger *zap.Logger) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(report.Markdown(rep)), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	logger.Info("Wrote validation report", zap.String("path", path))
	return nil
}
