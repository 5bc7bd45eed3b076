// pkg/engine/metrics.go
package engine

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wearalytics/tracker-qc/pkg/model"
)

// DatasetMetrics tracks the outcome of cleaning one dataset
type DatasetMetrics struct {
	Kind         model.DatasetKind
	RowsIn       int
	RowsOut      int
	RowsDropped  int
	Remediations int
	FailedRules  int
	Duration     time.Duration
}

// RunMetrics tracks per-dataset and total figures for one engine run
type RunMetrics struct {
	mu        sync.Mutex
	logger    *zap.Logger
	StartTime time.Time
	EndTime   time.Time
	Datasets  map[model.DatasetKind]*DatasetMetrics

	TotalRowsIn       int
	TotalRowsOut      int
	TotalRemediations int
	TotalFailedRules  int
}

// NewRunMetrics creates a metrics collector for one run
func NewRunMetrics(logger *zap.Logger) *RunMetrics {
	return &RunMetrics{
		logger:    logger,
		StartTime: time.Now(),
		Datasets:  make(map[model.DatasetKind]*DatasetMetrics),
	}
}

// RecordDataset records the figures for one cleaned dataset
func (m *RunMetrics) RecordDataset(dm DatasetMetrics) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dm.RowsDropped = dm.RowsIn - dm.RowsOut
	m.Datasets[dm.Kind] = &dm

	m.TotalRowsIn += dm.RowsIn
	m.TotalRowsOut += dm.RowsOut
	m.TotalRemediations += dm.Remediations
	m.TotalFailedRules += dm.FailedRules

	if m.logger != nil {
		m.logger.Info("Dataset cleaned",
			zap.String("dataset", string(dm.Kind)),
			zap.Int("rowsIn", dm.RowsIn),
			zap.Int("rowsOut", dm.RowsOut),
			zap.Int("rowsDropped", dm.RowsDropped),
			zap.Int("failedRules", dm.FailedRules),
			zap.Int("remediations", dm.Remediations),
			zap.Duration("duration", dm.Duration))
	}
}

// Complete marks the run as finished and logs the totals
func (m *RunMetrics) Complete() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.EndTime = time.Now()

	if m.logger != nil {
		m.logger.Info("Validation run completed",
			zap.Int("datasets", len(m.Datasets)),
			zap.Int("totalRowsIn", m.TotalRowsIn),
			zap.Int("totalRowsOut", m.TotalRowsOut),
			zap.Int("totalRowsDropped", m.TotalRowsIn-m.TotalRowsOut),
			zap.Int("totalFailedRules", m.TotalFailedRules),
			zap.Int("totalRemediations", m.TotalRemediations),
			zap.Duration("duration", m.Duration()))
	}
}

// Duration returns the elapsed run time
func (m *RunMetrics) Duration() time.Duration {
	if m.EndTime.IsZero() {
		return time.Since(m.StartTime)
	}
	return m.EndTime.Sub(m.StartTime)
}
