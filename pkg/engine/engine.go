// pkg/engine/engine.go
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wearalytics/tracker-qc/pkg/cleaner"
	"github.com/wearalytics/tracker-qc/pkg/config"
	"github.com/wearalytics/tracker-qc/pkg/ledger"
	"github.com/wearalytics/tracker-qc/pkg/model"
	"github.com/wearalytics/tracker-qc/pkg/validator"
)

// standingRecommendations is static report content, appended to every
// report regardless of the run's outcomes.
var standingRecommendations = []string{
	"Implement stricter validation at data collection time to reduce downstream cleaning.",
	"Handle missing values consistently across all device export files.",
	"Document the expected schema and units for each export file.",
}

// Engine orchestrates validation and remediation across all dataset kinds.
// Each run takes and returns independent values, so concurrent invocation
// of one engine on different inputs is safe.
type Engine struct {
	validators map[model.DatasetKind]*validator.DatasetValidator
	cleaner    *cleaner.Cleaner
	verifier   *verifier
	ledger     ledger.Ledger
	logger     *zap.Logger
}

// NewEngine builds validators for every dataset kind up front, so any
// catalog misconfiguration surfaces here rather than mid-run.
func NewEngine(bounds config.Bounds, led ledger.Ledger, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if led == nil {
		led = ledger.Nop{}
	}

	validators := make(map[model.DatasetKind]*validator.DatasetValidator)
	for _, kind := range model.KindOrder() {
		v, err := validator.New(kind, bounds, logger)
		if err != nil {
			return nil, err
		}
		validators[kind] = v
	}

	cl, err := cleaner.NewCleaner(logger)
	if err != nil {
		return nil, err
	}

	return &Engine{
		validators: validators,
		cleaner:    cl,
		verifier:   newVerifier(validators, cl, logger),
		ledger:     led,
		logger:     logger.Named("engine"),
	}, nil
}

// datasetRun holds the intermediate results for one dataset
type datasetRun struct {
	result   *validator.Result
	duration time.Duration
}

// Run validates and remediates every supplied raw dataset and returns the
// cleaned datasets plus the validation report. Data-quality failures never
// halt the run: remediation resolves them and the report explains every
// decision. Configuration errors and unhandled failures abort with no
// partial report.
func (e *Engine) Run(
	ctx context.Context,
	raw map[model.DatasetKind]*model.Dataset,
) (map[model.DatasetKind]*model.Dataset, *model.ValidationReport, error) {
	runID := uuid.New().String()
	start := time.Now()
	metrics := NewRunMetrics(e.logger)

	e.logger.Info("Starting validation run",
		zap.String("runID", runID),
		zap.Int("datasets", len(raw)))

	// Validators are pure functions over immutable inputs, so each
	// dataset is validated in its own goroutine; report assembly below
	// happens strictly in the fixed kind order.
	runs := make(map[model.DatasetKind]*datasetRun, len(raw))
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)

	for _, kind := range model.KindOrder() {
		ds, ok := raw[kind]
		if !ok {
			continue
		}

		wg.Add(1)
		go func(kind model.DatasetKind, ds *model.Dataset) {
			defer wg.Done()

			vStart := time.Now()
			result, err := e.validators[kind].Validate(ds)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			runs[kind] = &datasetRun{result: result, duration: time.Since(vStart)}
		}(kind, ds)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, nil, firstErr
	}

	// Remediate and assemble the report in the fixed kind order
	cleaned := make(map[model.DatasetKind]*model.Dataset, len(raw))
	sections := make([]model.ReportSection, 0, len(raw))
	allRecords := make([]model.RemediationRecord, 0)
	passed := true

	for _, kind := range model.KindOrder() {
		ds, ok := raw[kind]
		if !ok {
			continue
		}
		run := runs[kind]

		cleanedDS, records, summaries, err := e.cleaner.Remediate(ds, run.result.Outcomes, run.result.Offending)
		if err != nil {
			return nil, nil, err
		}

		cleaned[kind] = cleanedDS
		allRecords = append(allRecords, records...)

		section := model.ReportSection{
			Dataset:      kind,
			Outcomes:     run.result.Outcomes,
			Remediations: summaries,
			RowsIn:       ds.Len(),
			RowsOut:      cleanedDS.Len(),
		}
		if section.Failed() {
			passed = false
		}
		sections = append(sections, section)

		failedRules := 0
		for _, o := range run.result.Outcomes {
			if o.Failed() {
				failedRules++
			}
		}
		metrics.RecordDataset(DatasetMetrics{
			Kind:         kind,
			RowsIn:       ds.Len(),
			RowsOut:      cleanedDS.Len(),
			Remediations: len(records),
			FailedRules:  failedRules,
			Duration:     run.duration,
		})
	}

	// The cleaned output must satisfy every row-removing rule; anything
	// remediation could not resolve is a hard error, not a quiet FAIL.
	if err := e.verifier.verify(cleaned); err != nil {
		return nil, nil, err
	}

	// Ledger persistence is best-effort: the report remains the complete
	// account of every remediation even when the store is unavailable.
	if err := e.ledger.Record(ctx, runID, allRecords); err != nil {
		e.logger.Error("Failed to persist remediation records",
			zap.String("runID", runID),
			zap.Error(err))
	}

	metrics.Complete()

	report := &model.ValidationReport{
		RunID:           runID,
		GeneratedAt:     start,
		Duration:        time.Since(start),
		Sections:        sections,
		Passed:          passed,
		Recommendations: standingRecommendations,
	}

	e.logger.Info("Validation run finished",
		zap.String("runID", runID),
		zap.Bool("passed", report.Passed),
		zap.Strings("failedRules", report.FailedRules()))

	return cleaned, report, nil
}
