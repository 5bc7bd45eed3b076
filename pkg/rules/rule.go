// pkg/rules/rule.go
package rules

import (
	"fmt"

	"github.com/wearalytics/tracker-qc/pkg/model"
)

// Rule is a single named integrity check against one dataset. Rules are
// declarative values: stateless, pure, and deterministic. A rule never
// mutates the dataset it evaluates.
type Rule struct {
	Name           string
	Classification model.Classification
	Fields         []string // schema fields the check reads

	// Check returns the indexes of offending rows. An empty dataset
	// yields no offenders (vacuously true).
	Check func(ds *model.Dataset) []int

	// Explain produces the outcome explanation for the given
	// offending-row count (0 means PASS).
	Explain func(offending int) string
}

// Evaluate applies the rule to the dataset and returns the outcome plus
// the offending row indexes. Zero offenders always verdicts PASS; one or
// more always verdicts FAIL.
func (r Rule) Evaluate(ds *model.Dataset) (model.RuleOutcome, []int) {
	offending := r.Check(ds)

	outcome := model.RuleOutcome{
		Rule:           r.Name,
		Classification: r.Classification,
		Verdict:        model.VerdictPass,
		OffendingRows:  len(offending),
		Explanation:    r.Explain(len(offending)),
	}
	if len(offending) > 0 {
		outcome.Verdict = model.VerdictFail
	}

	return outcome, offending
}

// perRow lifts a row predicate into a check function. Rows failing the
// predicate are offenders.
func perRow(pred func(row model.Row) bool) func(*model.Dataset) []int {
	return func(ds *model.Dataset) []int {
		offending := make([]int, 0)
		for i, row := range ds.Rows {
			if !pred(row) {
				offending = append(offending, i)
			}
		}
		return offending
	}
}

// presentAll reports whether every named field is non-nil in the row
func presentAll(row model.Row, fields []string) bool {
	for _, f := range fields {
		if row[f] == nil {
			return false
		}
	}
	return true
}

// inRange reports whether the field value lies within [min, max].
// Missing or non-numeric values are not this check's concern (presence
// rules cover them) and never count as offenders.
func inRange(row model.Row, field string, min, max float64) bool {
	v, ok := model.AsFloat(row[field])
	if !ok {
		return true
	}
	return v >= min && v <= max
}

// atLeast reports whether the field value is >= min, skipping missing values
func atLeast(row model.Row, field string, min float64) bool {
	v, ok := model.AsFloat(row[field])
	if !ok {
		return true
	}
	return v >= min
}

// greaterThan reports whether the field value is > min, skipping missing values
func greaterThan(row model.Row, field string, min float64) bool {
	v, ok := model.AsFloat(row[field])
	if !ok {
		return true
	}
	return v > min
}

// explainRange builds a standard explanation pair for a bounded field
func explainRange(what, bound string) func(int) string {
	return func(offending int) string {
		if offending == 0 {
			return fmt.Sprintf("all %s within %s", what, bound)
		}
		return fmt.Sprintf("%d %s with %s outside %s", offending, rowWord(offending), what, bound)
	}
}

func rowWord(n int) string {
	if n == 1 {
		return "row"
	}
	return "rows"
}
