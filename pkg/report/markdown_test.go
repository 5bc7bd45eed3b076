package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wearalytics/tracker-qc/pkg/model"
)

func sampleReport() *model.ValidationReport {
	return &model.ValidationReport{
		RunID:       "run-42",
		GeneratedAt: time.Date(2016, 5, 12, 9, 30, 0, 0, time.UTC),
		Passed:      false,
		Sections: []model.ReportSection{
			{
				Dataset: model.KindDailyActivity,
				Outcomes: []model.RuleOutcome{
					{Rule: "no_missing_values", Classification: model.ClassificationStructural, Verdict: model.VerdictPass, Explanation: "all rows carry the required fields"},
					{Rule: "valid_steps", Classification: model.ClassificationRange, Verdict: model.VerdictFail, OffendingRows: 2, Explanation: "2 rows with total steps values outside the non-negative range"},
				},
				Remediations: []model.RemediationSummary{
					{Rule: "valid_steps", Action: "rows_excluded", Rows: 2, Detail: "2 row(s) excluded from the cleaned dataset"},
				},
				RowsIn:  10,
				RowsOut: 8,
			},
			{
				Dataset: model.KindSleep,
				Outcomes: []model.RuleOutcome{
					{Rule: "valid_sleep_duration", Classification: model.ClassificationRange, Verdict: model.VerdictPass, Explanation: "all sleep durations fall within the (0, 1440] minute range"},
				},
				RowsIn:  5,
				RowsOut: 5,
			},
		},
		Recommendations: []string{"Document the expected schema and units for each export file."},
	}
}

func TestMarkdownHeader(t *testing.T) {
	out := Markdown(sampleReport())

	assert.True(t, strings.HasPrefix(out, "# Data Validation Report\n"))
	assert.Contains(t, out, "Run: run-42")
	assert.Contains(t, out, "Generated: 2016-05-12T09:30:00Z")
	assert.Contains(t, out, "Overall: **FAIL**")
}

func TestMarkdownPassHeader(t *testing.T) {
	r := sampleReport()
	r.Passed = true

	assert.Contains(t, Markdown(r), "Overall: **PASS**")
}

func TestMarkdownSectionsInReportOrder(t *testing.T) {
	out := Markdown(sampleReport())

	daily := strings.Index(out, "## daily_activity")
	sleep := strings.Index(out, "## sleep")
	require.NotEqual(t, -1, daily)
	require.NotEqual(t, -1, sleep)
	assert.Less(t, daily, sleep)
}

func TestMarkdownOutcomeBullets(t *testing.T) {
	out := Markdown(sampleReport())

	assert.Contains(t, out, "- no_missing_values: PASS")
	assert.Contains(t, out, "- valid_steps: FAIL (2 offending)")
	assert.Contains(t, out, "Rows: 10 in, 8 out")
	assert.NotContains(t, out, "(0 offending)", "passing rules never show an offender count")
}

func TestMarkdownRemediationBlock(t *testing.T) {
	out := Markdown(sampleReport())

	assert.Contains(t, out, "Remediation:")
	assert.Contains(t, out, "- valid_steps: rows_excluded")

	// The sleep section had no remediation, so exactly one block renders
	assert.Equal(t, 1, strings.Count(out, "Remediation:"))
}

func TestMarkdownRecommendations(t *testing.T) {
	out := Markdown(sampleReport())
	assert.Contains(t, out, "## Recommendations")
	assert.Contains(t, out, "- Document the expected schema and units for each export file.")

	r := sampleReport()
	r.Recommendations = nil
	assert.NotContains(t, Markdown(r), "## Recommendations")
}

func TestMarkdownIsDeterministic(t *testing.T) {
	r := sampleReport()
	assert.Equal(t, Markdown(r), Markdown(r))
}
