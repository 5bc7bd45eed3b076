// pkg/ledger/postgres.go
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/wearalytics/tracker-qc/pkg/config"
	"github.com/wearalytics/tracker-qc/pkg/model"
)

// PostgresLedger persists remediation records to a PostgreSQL tracking table
type PostgresLedger struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewPostgresLedger connects to PostgreSQL and ensures the tracking table exists
func NewPostgresLedger(ctx context.Context, cfg *config.LedgerConfig, logger *zap.Logger) (*PostgresLedger, error) {
	if cfg == nil {
		return nil, errors.New("ledger configuration cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	logger = logger.Named("ledger")
	logger.Info("Connecting to remediation ledger",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database))

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ledger database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	l := &PostgresLedger{db: db, logger: logger}
	if err := l.setupTrackingTable(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup tracking table: %w", err)
	}

	return l, nil
}

// setupTrackingTable ensures the remediated_on_ingest tracking table exists
func (l *PostgresLedger) setupTrackingTable(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS public.remediated_on_ingest (
			id SERIAL PRIMARY KEY,
			run_id TEXT NOT NULL,
			dataset TEXT NOT NULL,
			rule_name TEXT NOT NULL,
			action TEXT NOT NULL,
			row_identifier TEXT NOT NULL,
			field_name TEXT,
			original_value TEXT,
			new_value TEXT,
			reason TEXT NOT NULL,
			occurred_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := l.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create tracking table: %w", err)
	}

	l.logger.Info("Ensured remediated_on_ingest table exists")
	return nil
}

// Record batch inserts remediation records inside a single transaction
func (l *PostgresLedger) Record(ctx context.Context, runID string, records []model.RemediationRecord) error {
	if len(records) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				l.logger.Error("Failed to rollback transaction",
					zap.Error(rbErr),
					zap.Error(err))
			}
		}
	}()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO public.remediated_on_ingest
		(run_id, dataset, rule_name, action, row_identifier,
		 field_name, original_value, new_value, reason, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		_, err = stmt.ExecContext(ctx,
			runID,
			string(rec.Dataset),
			rec.Rule,
			rec.Action,
			rec.RowIdentifier,
			nullableString(rec.FieldName),
			nullableValue(rec.OriginalValue),
			nullableString(rec.NewValue),
			rec.Reason,
			rec.OccurredAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert remediation record: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	l.logger.Info("Recorded remediation operations",
		zap.String("runID", runID),
		zap.Int("count", len(records)))
	return nil
}

// Close closes the underlying database connection
func (l *PostgresLedger) Close() error {
	return l.db.Close()
}

// nullableString maps empty strings to SQL NULL
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullableValue renders an arbitrary original value as a nullable string
func nullableValue(v interface{}) *string {
	if v == nil {
		return nil
	}
	s := fmt.Sprintf("%v", v)
	return &s
}
