// pkg/engine/verifier.go
package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wearalytics/tracker-qc/pkg/cleaner"
	"github.com/wearalytics/tracker-qc/pkg/model"
	"github.com/wearalytics/tracker-qc/pkg/validator"
)

// verifier re-evaluates the full rule catalog against the cleaned datasets.
// Any failure whose policy action would remove rows means remediation left
// invalid data behind, which the engine refuses to hand downstream.
// Informational (pass-through) failures are expected to persist.
type verifier struct {
	validators map[model.DatasetKind]*validator.DatasetValidator
	cleaner    *cleaner.Cleaner
	logger     *zap.Logger
}

func newVerifier(
	validators map[model.DatasetKind]*validator.DatasetValidator,
	cl *cleaner.Cleaner,
	logger *zap.Logger,
) *verifier {
	return &verifier{
		validators: validators,
		cleaner:    cl,
		logger:     logger.Named("verifier"),
	}
}

// verify checks every cleaned dataset in the fixed kind order
func (v *verifier) verify(cleaned map[model.DatasetKind]*model.Dataset) error {
	for _, kind := range model.KindOrder() {
		ds, ok := cleaned[kind]
		if !ok {
			continue
		}

		result, err := v.validators[kind].Validate(ds)
		if err != nil {
			return fmt.Errorf("failed to re-validate cleaned %s dataset: %w", kind, err)
		}

		for _, outcome := range result.Outcomes {
			if !outcome.Failed() {
				continue
			}

			action, handled := v.cleaner.ActionFor(outcome.Classification, kind)
			if handled && action == cleaner.ActionInformational {
				v.logger.Debug("Informational failure persists after cleaning",
					zap.String("dataset", string(kind)),
					zap.String("rule", outcome.Rule))
				continue
			}

			return fmt.Errorf("cleaned %s dataset still fails rule %q (%d offending rows): remediation incomplete",
				kind, outcome.Rule, outcome.OffendingRows)
		}

		v.logger.Debug("Cleaned dataset verified",
			zap.String("dataset", string(kind)),
			zap.Int("rows", ds.Len()))
	}

	return nil
}
