// pkg/validator/validator.go
package validator

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/wearalytics/tracker-qc/pkg/config"
	"github.com/wearalytics/tracker-qc/pkg/model"
	"github.com/wearalytics/tracker-qc/pkg/rules"
)

// ErrConfiguration marks errors caused by engine/validator configuration
// rather than by the data. Configuration errors are fatal at construction
// or run start; no partial report is produced.
var ErrConfiguration = errors.New("configuration error")

// DatasetValidator binds the fixed, ordered rule catalog to one dataset
// kind and executes every rule against the same untouched input, so all
// verdicts reflect the raw data and remain auditable.
type DatasetValidator struct {
	kind   model.DatasetKind
	schema []string
	rules  []rules.Rule
	logger *zap.Logger
}

// Result carries the ordered rule outcomes plus the offending row index
// set per rule, which the remediation policy consumes.
type Result struct {
	Outcomes  []model.RuleOutcome
	Offending map[string][]int // rule name -> offending row indexes
}

// New creates a validator for the dataset kind with its standard catalog
func New(kind model.DatasetKind, bounds config.Bounds, logger *zap.Logger) (*DatasetValidator, error) {
	catalog, err := rules.CatalogFor(kind, bounds)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return NewWithCatalog(kind, catalog, logger)
}

// NewWithCatalog creates a validator for an explicit catalog. Every rule's
// referenced fields are checked against the kind's canonical schema here:
// a rule naming an unknown field is a configuration error, not a runtime
// FAIL verdict.
func NewWithCatalog(kind model.DatasetKind, catalog []rules.Rule, logger *zap.Logger) (*DatasetValidator, error) {
	schema, err := model.SchemaFor(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	declared := make(map[string]bool, len(schema))
	for _, f := range schema {
		declared[f] = true
	}
	for _, r := range catalog {
		for _, f := range r.Fields {
			if !declared[f] {
				return nil, fmt.Errorf("%w: rule %q references field %q absent from %s schema",
					ErrConfiguration, r.Name, f, kind)
			}
		}
	}

	return &DatasetValidator{
		kind:   kind,
		schema: schema,
		rules:  catalog,
		logger: logger.Named("validator").With(zap.String("dataset", string(kind))),
	}, nil
}

// Kind returns the dataset kind this validator is bound to
func (v *DatasetValidator) Kind() model.DatasetKind {
	return v.kind
}

// RuleNames returns the catalog rule names in execution order
func (v *DatasetValidator) RuleNames() []string {
	names := make([]string, len(v.rules))
	for i, r := range v.rules {
		names[i] = r.Name
	}
	return names
}

// Validate executes every catalog rule, in order, against the raw dataset.
// The dataset is never mutated; rules do not see each other's remediation.
func (v *DatasetValidator) Validate(ds *model.Dataset) (*Result, error) {
	if ds.Kind != v.kind {
		return nil, fmt.Errorf("%w: validator for %s invoked on %s dataset",
			ErrConfiguration, v.kind, ds.Kind)
	}
	if err := v.checkSchema(ds); err != nil {
		return nil, err
	}

	result := &Result{
		Outcomes:  make([]model.RuleOutcome, 0, len(v.rules)),
		Offending: make(map[string][]int, len(v.rules)),
	}

	for _, r := range v.rules {
		outcome, offending := r.Evaluate(ds)
		result.Outcomes = append(result.Outcomes, outcome)
		result.Offending[r.Name] = offending

		if outcome.Failed() {
			v.logger.Warn("Rule failed",
				zap.String("rule", r.Name),
				zap.String("classification", outcome.Classification.String()),
				zap.Int("offendingRows", outcome.OffendingRows))
		} else {
			v.logger.Debug("Rule passed", zap.String("rule", r.Name))
		}
	}

	return result, nil
}

// checkSchema verifies the dataset carries exactly the canonical field set
func (v *DatasetValidator) checkSchema(ds *model.Dataset) error {
	if len(ds.Fields) != len(v.schema) {
		return fmt.Errorf("%w: %s dataset has %d fields, schema declares %d",
			ErrConfiguration, v.kind, len(ds.Fields), len(v.schema))
	}
	declared := make(map[string]bool, len(v.schema))
	for _, f := range v.schema {
		declared[f] = true
	}
	for _, f := range ds.Fields {
		if !declared[f] {
			return fmt.Errorf("%w: %s dataset carries undeclared field %q",
				ErrConfiguration, v.kind, f)
		}
	}
	return nil
}
