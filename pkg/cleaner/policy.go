// pkg/cleaner/policy.go
package cleaner

import (
	"fmt"

	"github.com/wearalytics/tracker-qc/pkg/model"
)

// Remediation actions recorded with each operation
const (
	// ActionRowsExcluded drops offending rows as sensor/collection errors
	ActionRowsExcluded = "rows_excluded"
	// ActionOutliersFiltered drops offending rows but reports them as
	// filtered outliers rather than excluded missing data
	ActionOutliersFiltered = "outliers_filtered"
	// ActionInformational records the failure without touching any rows
	ActionInformational = "informational"
	// ActionValueImputed replaces a missing value with a derived one
	ActionValueImputed = "value_imputed"
)

// UnhandledFailureError is returned when a rule fails and the policy table
// has no action for its classification on that dataset. The engine refuses
// to silently pass invalid data downstream.
type UnhandledFailureError struct {
	Rule           string
	Classification model.Classification
	Dataset        model.DatasetKind
}

func (e *UnhandledFailureError) Error() string {
	return fmt.Sprintf("unhandled validation failure: no remediation action for rule %q (%s) on dataset %s",
		e.Rule, e.Classification, e.Dataset)
}

// policyKey addresses the decision table: the action depends on the rule's
// classification plus the dataset kind, never on rule-writing order.
type policyKey struct {
	classification model.Classification
	kind           model.DatasetKind
}

// defaultPolicy builds the remediation decision table:
//   - structural failures (missing required fields): drop offending rows
//   - range and cross-field failures: drop offending rows, except the
//     sleep range rule, whose drops are reported as filtered outliers
//   - temporal failures: informational, rows pass through unchanged
func defaultPolicy() map[policyKey]string {
	policy := make(map[policyKey]string)

	for _, kind := range model.KindOrder() {
		policy[policyKey{model.ClassificationStructural, kind}] = ActionRowsExcluded
		policy[policyKey{model.ClassificationRange, kind}] = ActionRowsExcluded
		policy[policyKey{model.ClassificationCrossField, kind}] = ActionRowsExcluded
		policy[policyKey{model.ClassificationTemporal, kind}] = ActionInformational
	}

	// Sleep-duration extremes are legitimate-looking measurements filtered
	// as outliers; the report wording stays distinct from missing-data drops.
	policy[policyKey{model.ClassificationRange, model.KindSleep}] = ActionOutliersFiltered

	return policy
}

// reasonFor maps a classification to the recorded remediation reason
func reasonFor(classification model.Classification, action string) string {
	if action == ActionOutliersFiltered {
		return "duration_outlier"
	}
	switch classification {
	case model.ClassificationStructural:
		return "missing_required_fields"
	case model.ClassificationRange:
		return "value_out_of_range"
	case model.ClassificationCrossField:
		return "inconsistent_fields"
	case model.ClassificationTemporal:
		return "outside_observation_window"
	default:
		return "unspecified"
	}
}

// detailFor builds the human-readable summary wording per action
func detailFor(action string, rows int) string {
	switch action {
	case ActionOutliersFiltered:
		return fmt.Sprintf("%d outlier row(s) filtered from the cleaned dataset", rows)
	case ActionRowsExcluded:
		return fmt.Sprintf("%d row(s) excluded from the cleaned dataset", rows)
	case ActionInformational:
		return fmt.Sprintf("%d row(s) recorded, no rows removed", rows)
	default:
		return fmt.Sprintf("%d row(s) affected", rows)
	}
}
