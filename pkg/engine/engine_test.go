package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wearalytics/tracker-qc/pkg/cleaner"
	"github.com/wearalytics/tracker-qc/pkg/config"
	"github.com/wearalytics/tracker-qc/pkg/model"
)

// capturingLedger records every call so tests can inspect what the
// engine persisted.
type capturingLedger struct {
	runID   string
	records []model.RemediationRecord
	calls   int
}

func (c *capturingLedger) Record(_ context.Context, runID string, records []model.RemediationRecord) error {
	c.runID = runID
	c.records = append(c.records, records...)
	c.calls++
	return nil
}

func (c *capturingLedger) Close() error { return nil }

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

func date(day int) time.Time {
	return time.Date(2016, 4, day, 0, 0, 0, 0, time.UTC)
}

func cleanInput(t *testing.T) map[model.DatasetKind]*model.Dataset {
	t.Helper()

	return map[model.DatasetKind]*model.Dataset{
		model.KindDailyActivity: newDataset(t, model.KindDailyActivity,
			model.Row{
				"Id": "1", "Date": date(1), "TotalSteps": float64(8000), "TotalDistance": float64(6.2),
				"Calories": float64(2100), "VeryActiveMinutes": float64(30), "FairlyActiveMinutes": float64(20),
				"LightlyActiveMinutes": float64(200), "SedentaryMinutes": float64(700),
			},
		),
		model.KindSleep: newDataset(t, model.KindSleep,
			model.Row{"Id": "1", "Date": date(1), "TotalMinutesAsleep": float64(420), "TotalTimeInBed": float64(450)},
		),
		model.KindHeartRate: newDataset(t, model.KindHeartRate,
			model.Row{"Id": "1", "Timestamp": time.Date(2016, 4, 1, 8, 0, 0, 0, time.UTC), "Value": float64(72)},
			model.Row{"Id": "1", "Timestamp": time.Date(2016, 4, 1, 8, 0, 5, 0, time.UTC), "Value": float64(74)},
		),
		model.KindWeight: newDataset(t, model.KindWeight,
			model.Row{"Id": "1", "Date": date(1), "Weight": float64(85), "Bmi": float64(26)},
		),
		model.KindHourlyCalories: newDataset(t, model.KindHourlyCalories,
			model.Row{"Id": "1", "Date": date(1), "Hour": float64(8), "Calories": float64(120)},
		),
		model.KindHourlySteps: newDataset(t, model.KindHourlySteps,
			model.Row{"Id": "1", "Date": date(1), "Hour": float64(8), "StepTotal": float64(900)},
		),
		model.KindHourlyIntensities: newDataset(t, model.KindHourlyIntensities,
			model.Row{"Id": "1", "Date": date(1), "Hour": float64(8), "TotalIntensity": float64(40), "AverageIntensity": float64(0.7)},
		),
	}
}

func newEngine(t *testing.T, led *capturingLedger) *Engine {
	t.Helper()

	eng, err := NewEngine(config.DefaultBounds(), led, zap.NewNop())
	require.NoError(t, err)
	return eng
}

func TestRunAllPass(t *testing.T) {
	led := &capturingLedger{}
	eng := newEngine(t, led)

	raw := cleanInput(t)
	cleaned, rep, err := eng.Run(context.Background(), raw)
	require.NoError(t, err)

	assert.True(t, rep.Passed)
	assert.NotEmpty(t, rep.RunID)
	assert.Len(t, rep.Sections, len(raw))
	assert.NotEmpty(t, rep.Recommendations)

	for _, section := range rep.Sections {
		assert.Equal(t, section.RowsIn, section.RowsOut, string(section.Dataset))
		assert.Empty(t, section.Remediations, string(section.Dataset))
		for _, o := range section.Outcomes {
			assert.Equal(t, model.VerdictPass, o.Verdict, "%s/%s", section.Dataset, o.Rule)
		}
	}

	for kind, ds := range raw {
		require.Contains(t, cleaned, kind)
		assert.Equal(t, ds.Len(), cleaned[kind].Len())
	}

	assert.Equal(t, 1, led.calls)
	assert.Equal(t, rep.RunID, led.runID)
	assert.Empty(t, led.records)
}

func TestRunRemediatesOutOfRangeHeartRate(t *testing.T) {
	led := &capturingLedger{}
	eng := newEngine(t, led)

	raw := cleanInput(t)
	raw[model.KindHeartRate].Rows = append(raw[model.KindHeartRate].Rows, model.Row{
		"Id": "1", "Timestamp": time.Date(2016, 4, 1, 8, 0, 10, 0, time.UTC), "Value": float64(225),
	})

	cleaned, rep, err := eng.Run(context.Background(), raw)
	require.NoError(t, err)

	assert.False(t, rep.Passed)
	assert.Contains(t, rep.FailedRules(), "valid_heart_rate")

	section := rep.Section(model.KindHeartRate)
	require.NotNil(t, section)
	assert.Equal(t, 3, section.RowsIn)
	assert.Equal(t, 2, section.RowsOut)

	var outcome *model.RuleOutcome
	for i := range section.Outcomes {
		if section.Outcomes[i].Rule == "valid_heart_rate" {
			outcome = &section.Outcomes[i]
		}
	}
	require.NotNil(t, outcome)
	assert.Equal(t, model.VerdictFail, outcome.Verdict)
	assert.Equal(t, 1, outcome.OffendingRows)
	assert.Contains(t, outcome.Explanation, "40-220")

	assert.Equal(t, 2, cleaned[model.KindHeartRate].Len())

	require.NotEmpty(t, led.records)
	assert.Equal(t, "valid_heart_rate", led.records[0].Rule)
	assert.Equal(t, cleaner.ActionRowsExcluded, led.records[0].Action)
}

func TestRunLeavesCleanWeightRowUntouched(t *testing.T) {
	eng := newEngine(t, &capturingLedger{})

	raw := cleanInput(t)
	want := raw[model.KindWeight].Clone()

	cleaned, _, err := eng.Run(context.Background(), raw)
	require.NoError(t, err)

	require.Equal(t, 1, cleaned[model.KindWeight].Len())
	assert.Equal(t, want.Rows[0], cleaned[model.KindWeight].Rows[0])
	assert.Equal(t, want.Rows, raw[model.KindWeight].Rows, "raw input must not be mutated")
}

func TestRunIsDeterministic(t *testing.T) {
	eng := newEngine(t, &capturingLedger{})

	raw := cleanInput(t)
	raw[model.KindSleep].Rows = append(raw[model.KindSleep].Rows, model.Row{
		"Id": "2", "Date": date(2), "TotalMinutesAsleep": float64(2000), "TotalTimeInBed": float64(2100),
	})

	cleanedA, repA, err := eng.Run(context.Background(), raw)
	require.NoError(t, err)
	cleanedB, repB, err := eng.Run(context.Background(), raw)
	require.NoError(t, err)

	assert.NotEqual(t, repA.RunID, repB.RunID)
	assert.Equal(t, repA.Passed, repB.Passed)

	require.Equal(t, len(repA.Sections), len(repB.Sections))
	for i := range repA.Sections {
		assert.Equal(t, repA.Sections[i].Dataset, repB.Sections[i].Dataset)
		assert.Equal(t, repA.Sections[i].Outcomes, repB.Sections[i].Outcomes)
		assert.Equal(t, repA.Sections[i].Remediations, repB.Sections[i].Remediations)
		assert.Equal(t, repA.Sections[i].RowsOut, repB.Sections[i].RowsOut)
	}

	for kind := range cleanedA {
		assert.Equal(t, cleanedA[kind].Rows, cleanedB[kind].Rows, string(kind))
	}
}

func TestRunSectionsFollowKindOrder(t *testing.T) {
	eng := newEngine(t, &capturingLedger{})

	// Supply kinds out of order and with gaps; the report still follows
	// the fixed kind order over the kinds present.
	raw := map[model.DatasetKind]*model.Dataset{
		model.KindWeight: newDataset(t, model.KindWeight,
			model.Row{"Id": "1", "Date": date(1), "Weight": float64(85), "Bmi": float64(26)},
		),
		model.KindSleep: newDataset(t, model.KindSleep,
			model.Row{"Id": "1", "Date": date(1), "TotalMinutesAsleep": float64(420), "TotalTimeInBed": float64(450)},
		),
	}

	_, rep, err := eng.Run(context.Background(), raw)
	require.NoError(t, err)

	require.Len(t, rep.Sections, 2)
	assert.Equal(t, model.KindSleep, rep.Sections[0].Dataset)
	assert.Equal(t, model.KindWeight, rep.Sections[1].Dataset)
	assert.Nil(t, rep.Section(model.KindHeartRate))
}

func TestRunEmptyDatasetsPass(t *testing.T) {
	eng := newEngine(t, &capturingLedger{})

	raw := make(map[model.DatasetKind]*model.Dataset, len(model.KindOrder()))
	for _, kind := range model.KindOrder() {
		raw[kind] = newDataset(t, kind)
	}

	cleaned, rep, err := eng.Run(context.Background(), raw)
	require.NoError(t, err)

	assert.True(t, rep.Passed)
	for _, kind := range model.KindOrder() {
		assert.Equal(t, 0, cleaned[kind].Len())
	}
}

func TestRunAbortsOnWrongSchema(t *testing.T) {
	eng := newEngine(t, &capturingLedger{})

	ds := newDataset(t, model.KindSleep)
	ds.Fields = append(ds.Fields, "Unexpected")

	_, rep, err := eng.Run(context.Background(), map[model.DatasetKind]*model.Dataset{
		model.KindSleep: ds,
	})
	require.Error(t, err)
	assert.Nil(t, rep, "no partial report on configuration errors")
}

func TestNewEngineRequiresLogger(t *testing.T) {
	_, err := NewEngine(config.DefaultBounds(), &capturingLedger{}, nil)
	assert.Error(t, err)
}
