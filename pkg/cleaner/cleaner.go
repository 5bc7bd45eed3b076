// pkg/cleaner/cleaner.go
package cleaner

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/wearalytics/tracker-qc/pkg/model"
)

// Cleaner applies the remediation policy to a validated dataset and
// records every action it takes
type Cleaner struct {
	policy map[policyKey]string
	logger *zap.Logger
	now    func() time.Time
}

// NewCleaner creates a Cleaner with the standard decision table
func NewCleaner(logger *zap.Logger) (*Cleaner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Cleaner{
		policy: defaultPolicy(),
		logger: logger.Named("cleaner"),
		now:    time.Now,
	}, nil
}

// ActionFor returns the remediation action for a classification on a
// dataset kind, and whether the decision table covers that combination.
func (c *Cleaner) ActionFor(classification model.Classification, kind model.DatasetKind) (string, bool) {
	action, ok := c.policy[policyKey{classification, kind}]
	return action, ok
}

// Remediate produces the cleaned counterpart of the raw dataset. Offending
// rows are dropped or filtered per the decision table; temporal failures
// pass through. The raw dataset is never mutated. Remediation is
// idempotent: re-running on an already-cleaned dataset removes nothing.
func (c *Cleaner) Remediate(
	ds *model.Dataset,
	outcomes []model.RuleOutcome,
	offending map[string][]int,
) (*model.Dataset, []model.RemediationRecord, []model.RemediationSummary, error) {
	drop := make(map[int]bool)
	records := make([]model.RemediationRecord, 0)
	summaries := make([]model.RemediationSummary, 0)

	for _, outcome := range outcomes {
		if !outcome.Failed() {
			continue
		}

		action, ok := c.ActionFor(outcome.Classification, ds.Kind)
		if !ok {
			return nil, nil, nil, &UnhandledFailureError{
				Rule:           outcome.Rule,
				Classification: outcome.Classification,
				Dataset:        ds.Kind,
			}
		}

		rows := offending[outcome.Rule]
		reason := reasonFor(outcome.Classification, action)

		for _, i := range rows {
			records = append(records, model.RemediationRecord{
				Dataset:       ds.Kind,
				Rule:          outcome.Rule,
				Action:        action,
				RowIdentifier: ds.RowIdentifier(i),
				Reason:        reason,
				OccurredAt:    c.now(),
			})
			if action == ActionRowsExcluded || action == ActionOutliersFiltered {
				drop[i] = true
			}
		}

		summaries = append(summaries, model.RemediationSummary{
			Rule:   outcome.Rule,
			Action: action,
			Rows:   len(rows),
			Detail: detailFor(action, len(rows)),
		})

		c.logger.Info("Applied remediation",
			zap.String("dataset", string(ds.Kind)),
			zap.String("rule", outcome.Rule),
			zap.String("action", action),
			zap.Int("rows", len(rows)))
	}

	cleaned := ds.WithoutRows(drop)

	// Value-level cleaning on the surviving rows
	imputed := c.imputeWeightFat(cleaned)
	if len(imputed) > 0 {
		records = append(records, imputed...)
		summaries = append(summaries, model.RemediationSummary{
			Rule:   "fat_median_imputation",
			Action: ActionValueImputed,
			Rows:   len(imputed),
			Detail: detailFor(ActionValueImputed, len(imputed)),
		})
	}

	return cleaned, records, summaries, nil
}
