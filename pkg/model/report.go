// pkg/model/report.go
package model

import (
	"fmt"
	"time"
)

// Verdict is the aggregate outcome of one rule against one dataset
type Verdict string

const (
	VerdictPass Verdict = "PASS"
	VerdictFail Verdict = "FAIL"
)

// Classification groups rules by the kind of integrity they check
type Classification int

const (
	// ClassificationStructural covers missing/required field checks
	ClassificationStructural Classification = iota
	// ClassificationRange covers value bounds against domain constants
	ClassificationRange
	// ClassificationCrossField covers logical relationships between fields
	ClassificationCrossField
	// ClassificationTemporal covers date/time bounds
	ClassificationTemporal
)

// String returns a string representation of the classification
func (c Classification) String() string {
	switch c {
	case ClassificationStructural:
		return "structural"
	case ClassificationRange:
		return "range"
	case ClassificationCrossField:
		return "cross-field"
	case ClassificationTemporal:
		return "temporal"
	default:
		return fmt.Sprintf("Unknown(%d)", c)
	}
}

// RuleOutcome is the result of applying a single rule to a dataset.
// A rule with zero offending rows is always PASS; one or more offending
// rows is always FAIL.
type RuleOutcome struct {
	Rule           string
	Classification Classification
	Verdict        Verdict
	OffendingRows  int
	Explanation    string
}

// Failed reports whether the outcome is a FAIL verdict
func (o RuleOutcome) Failed() bool {
	return o.Verdict == VerdictFail
}

// RemediationRecord is one audited remediation action taken against
// a row or value that failed validation
type RemediationRecord struct {
	Dataset       DatasetKind // Dataset the row belongs to
	Rule          string      // Rule whose failure triggered the action
	Action        string      // Action taken (e.g. "rows_excluded")
	RowIdentifier string      // Identifies the affected row
	FieldName     string      // Column involved, if a single one applies
	OriginalValue interface{} // Original value (may be nil)
	NewValue      string      // New value after remediation, empty for drops
	Reason        string      // Why the action was taken
	OccurredAt    time.Time   // When the remediation occurred
}

// RemediationSummary aggregates the remediation taken for one failing rule
type RemediationSummary struct {
	Rule   string
	Action string
	Rows   int
	Detail string
}

// ReportSection holds every rule outcome for one dataset, in catalog order
type ReportSection struct {
	Dataset      DatasetKind
	Outcomes     []RuleOutcome
	Remediations []RemediationSummary
	RowsIn       int
	RowsOut      int
}

// Failed reports whether any outcome in the section is a FAIL
func (s ReportSection) Failed() bool {
	for _, o := range s.Outcomes {
		if o.Failed() {
			return true
		}
	}
	return false
}

// ValidationReport is the complete, ordered ledger of all rule outcomes
// across all datasets for one engine run. It is constructed once per run
// and immutable afterwards.
type ValidationReport struct {
	RunID           string
	GeneratedAt     time.Time
	Duration        time.Duration
	Sections        []ReportSection
	Passed          bool
	Recommendations []string
}

// Section returns the section for a dataset kind, nil when absent
func (r *ValidationReport) Section(kind DatasetKind) *ReportSection {
	for i := range r.Sections {
		if r.Sections[i].Dataset == kind {
			return &r.Sections[i]
		}
	}
	return nil
}

// FailedRules returns the names of all failing rules, prefixed with their
// dataset, in report order. Downstream analysis branches on these names.
func (r *ValidationReport) FailedRules() []string {
	failed := make([]string, 0)
	for _, s := range r.Sections {
		for _, o := range s.Outcomes {
			if o.Failed() {
				failed = append(failed, fmt.Sprintf("%s.%s", s.Dataset, o.Rule))
			}
		}
	}
	return failed
}
