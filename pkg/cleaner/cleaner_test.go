package cleaner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wearalytics/tracker-qc/pkg/config"
	"github.com/wearalytics/tracker-qc/pkg/model"
	"github.com/wearalytics/tracker-qc/pkg/validator"
)

func newDataset(t *testing.T, kind model.DatasetKind, rows ...model.Row) *model.Dataset {
	t.Helper()

	ds, err := model.NewDataset(kind)
	require.NoError(t, err)

	for _, r := range rows {
		full := make(model.Row, len(ds.Fields))
		for _, f := range ds.Fields {
			full[f] = nil
		}
		for k, v := range r {
			full[k] = v
		}
		ds.Rows = append(ds.Rows, full)
	}
	return ds
}

func validate(t *testing.T, ds *model.Dataset) *validator.Result {
	t.Helper()

	v, err := validator.New(ds.Kind, config.DefaultBounds(), zap.NewNop())
	require.NoError(t, err)

	result, err := v.Validate(ds)
	require.NoError(t, err)
	return result
}

func newCleaner(t *testing.T) *Cleaner {
	t.Helper()

	c, err := NewCleaner(zap.NewNop())
	require.NoError(t, err)
	return c
}

func date(day int) time.Time {
	return time.Date(2016, 4, day, 0, 0, 0, 0, time.UTC)
}

func TestNegativeStepsRowDropped(t *testing.T) {
	ds := newDataset(t, model.KindDailyActivity,
		model.Row{"Id": "1", "Date": date(1), "TotalSteps": float64(-5), "Calories": float64(2000)},
	)
	result := validate(t, ds)

	c := newCleaner(t)
	cleaned, records, summaries, err := c.Remediate(ds, result.Outcomes, result.Offending)
	require.NoError(t, err)

	assert.Equal(t, 0, cleaned.Len())
	assert.Equal(t, 1, ds.Len(), "raw dataset must stay untouched")

	var found bool
	for _, rec := range records {
		if rec.Rule == "valid_steps" {
			found = true
			assert.Equal(t, ActionRowsExcluded, rec.Action)
			assert.Equal(t, "value_out_of_range", rec.Reason)
		}
	}
	assert.True(t, found, "expected a remediation record for valid_steps")
	assert.NotEmpty(t, summaries)
}

func TestSleepOutlierFilteredNotExcluded(t *testing.T) {
	ds := newDataset(t, model.KindSleep,
		model.Row{"Id": "1", "Date": date(1), "TotalMinutesAsleep": float64(2000), "TotalTimeInBed": float64(2100)},
	)
	result := validate(t, ds)

	c := newCleaner(t)
	cleaned, records, summaries, err := c.Remediate(ds, result.Outcomes, result.Offending)
	require.NoError(t, err)

	assert.Equal(t, 0, cleaned.Len())

	require.Len(t, records, 1)
	assert.Equal(t, "valid_sleep_duration", records[0].Rule)
	assert.Equal(t, ActionOutliersFiltered, records[0].Action)
	assert.Equal(t, "duration_outlier", records[0].Reason)

	require.Len(t, summaries, 1)
	assert.Equal(t, ActionOutliersFiltered, summaries[0].Action)
	assert.Contains(t, summaries[0].Detail, "outlier")
	assert.NotContains(t, summaries[0].Detail, "excluded")
}

func TestCleanWeightRowPassesThroughUnchanged(t *testing.T) {
	ds := newDataset(t, model.KindWeight,
		model.Row{"Id": "1", "Date": date(1), "Weight": float64(85), "Bmi": float64(26)},
	)
	result := validate(t, ds)
	for _, o := range result.Outcomes {
		require.Equal(t, model.VerdictPass, o.Verdict, o.Rule)
	}

	c := newCleaner(t)
	cleaned, records, summaries, err := c.Remediate(ds, result.Outcomes, result.Offending)
	require.NoError(t, err)

	require.Equal(t, 1, cleaned.Len())
	assert.Equal(t, ds.Rows[0], cleaned.Rows[0])
	assert.Empty(t, records)
	assert.Empty(t, summaries)
}

func TestRemediationIsIdempotent(t *testing.T) {
	ds := newDataset(t, model.KindDailyActivity,
		model.Row{"Id": "1", "Date": date(1), "TotalSteps": float64(-5), "Calories": float64(2000)},
		model.Row{"Id": "1", "Date": date(2), "TotalSteps": float64(500), "Calories": float64(1900)},
		model.Row{"Id": "2", "Date": date(2), "Calories": float64(1800)}, // missing Id fields ok; TotalSteps nil
	)
	result := validate(t, ds)

	c := newCleaner(t)
	cleaned, _, _, err := c.Remediate(ds, result.Outcomes, result.Offending)
	require.NoError(t, err)

	// Second pass: every rule re-verdicts PASS and nothing more is removed
	secondResult := validate(t, cleaned)
	for _, o := range secondResult.Outcomes {
		assert.Equal(t, model.VerdictPass, o.Verdict, o.Rule)
	}

	recleaned, records, _, err := c.Remediate(cleaned, secondResult.Outcomes, secondResult.Offending)
	require.NoError(t, err)
	assert.Equal(t, cleaned.Len(), recleaned.Len())
	assert.Empty(t, records)
	assert.Equal(t, cleaned.Rows, recleaned.Rows)
}

func TestTemporalFailureIsInformational(t *testing.T) {
	outside := time.Date(2016, 6, 1, 0, 0, 0, 0, time.UTC)
	ds := newDataset(t, model.KindDailyActivity,
		model.Row{"Id": "1", "Date": date(1), "TotalSteps": float64(100), "Calories": float64(2000)},
		model.Row{"Id": "1", "Date": outside, "TotalSteps": float64(100), "Calories": float64(2000)},
	)
	result := validate(t, ds)

	c := newCleaner(t)
	cleaned, records, summaries, err := c.Remediate(ds, result.Outcomes, result.Offending)
	require.NoError(t, err)

	// Rows outside the observation window are recorded but not removed
	assert.Equal(t, 2, cleaned.Len())
	require.Len(t, records, 1)
	assert.Equal(t, ActionInformational, records[0].Action)
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].Rows)
}

func TestUnhandledClassificationAborts(t *testing.T) {
	ds := newDataset(t, model.KindSleep,
		model.Row{"Id": "1", "Date": date(1), "TotalMinutesAsleep": float64(400), "TotalTimeInBed": float64(420)},
	)

	outcomes := []model.RuleOutcome{{
		Rule:           "synthetic_rule",
		Classification: model.Classification(99),
		Verdict:        model.VerdictFail,
		OffendingRows:  1,
	}}
	offending := map[string][]int{"synthetic_rule": {0}}

	c := newCleaner(t)
	_, _, _, err := c.Remediate(ds, outcomes, offending)
	require.Error(t, err)

	var unhandled *UnhandledFailureError
	require.ErrorAs(t, err, &unhandled)
	assert.Equal(t, "synthetic_rule", unhandled.Rule)
	assert.Contains(t, err.Error(), "synthetic_rule")
}

func TestFatMedianImputation(t *testing.T) {
	ds := newDataset(t, model.KindWeight,
		model.Row{"Id": "1", "Date": date(1), "Weight": float64(85), "Bmi": float64(26), "Fat": float64(20)},
		model.Row{"Id": "1", "Date": date(2), "Weight": float64(86), "Bmi": float64(26), "Fat": float64(30)},
		model.Row{"Id": "1", "Date": date(3), "Weight": float64(84), "Bmi": float64(26)},
		model.Row{"Id": "2", "Date": date(1), "Weight": float64(70), "Bmi": float64(22)},
	)
	result := validate(t, ds)

	c := newCleaner(t)
	cleaned, records, summaries, err := c.Remediate(ds, result.Outcomes, result.Offending)
	require.NoError(t, err)

	// User 1's missing fat becomes the median of 20 and 30
	assert.Equal(t, float64(25), cleaned.Rows[2]["Fat"])
	// User 2 reported no fat values, so theirs stays missing
	assert.Nil(t, cleaned.Rows[3]["Fat"])
	// The raw dataset keeps its nil
	assert.Nil(t, ds.Rows[2]["Fat"])

	require.Len(t, records, 1)
	assert.Equal(t, ActionValueImputed, records[0].Action)
	assert.Equal(t, "Fat", records[0].FieldName)
	assert.Equal(t, "25", records[0].NewValue)

	require.Len(t, summaries, 1)
	assert.Equal(t, "fat_median_imputation", summaries[0].Rule)
}

func TestActionForCoversEveryKindAndClassification(t *testing.T) {
	c := newCleaner(t)

	classifications := []model.Classification{
		model.ClassificationStructural,
		model.ClassificationRange,
		model.ClassificationCrossField,
		model.ClassificationTemporal,
	}
	for _, kind := range model.KindOrder() {
		for _, cls := range classifications {
			_, ok := c.ActionFor(cls, kind)
			assert.True(t, ok, "no action for %s on %s", cls, kind)
		}
	}

	// Sleep range failures filter, everything else's range failures drop
	action, _ := c.ActionFor(model.ClassificationRange, model.KindSleep)
	assert.Equal(t, ActionOutliersFiltered, action)
	action, _ = c.ActionFor(model.ClassificationRange, model.KindDailyActivity)
	assert.Equal(t, ActionRowsExcluded, action)
}
