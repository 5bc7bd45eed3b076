// pkg/model/dataset.go
package model

import (
	"fmt"
	"time"
)

// DatasetKind identifies one of the supported wearable export categories
type DatasetKind string

const (
	KindDailyActivity     DatasetKind = "daily_activity"
	KindSleep             DatasetKind = "sleep"
	KindHeartRate         DatasetKind = "heart_rate"
	KindWeight            DatasetKind = "weight"
	KindHourlyCalories    DatasetKind = "hourly_calories"
	KindHourlySteps       DatasetKind = "hourly_steps"
	KindHourlyIntensities DatasetKind = "hourly_intensities"
)

// KindOrder returns the fixed order in which datasets are validated
// and reported. The order is stable for reproducibility.
func KindOrder() []DatasetKind {
	return []DatasetKind{
		KindDailyActivity,
		KindSleep,
		KindHeartRate,
		KindWeight,
		KindHourlyCalories,
		KindHourlySteps,
		KindHourlyIntensities,
	}
}

// Row is one observation: field name -> typed value.
// A nil value means the field is missing for this row.
type Row map[string]interface{}

// Dataset is a named, ordered sequence of rows sharing a schema
type Dataset struct {
	Kind   DatasetKind
	Fields []string // canonical field order
	Rows   []Row
}

// schemas holds the canonical field set per dataset kind
var schemas = map[DatasetKind][]string{
	KindDailyActivity: {
		"Id", "Date", "TotalSteps", "TotalDistance", "Calories",
		"VeryActiveMinutes", "FairlyActiveMinutes", "LightlyActiveMinutes", "SedentaryMinutes",
	},
	KindSleep:             {"Id", "Date", "TotalMinutesAsleep", "TotalTimeInBed"},
	KindHeartRate:         {"Id", "Timestamp", "Value"},
	KindWeight:            {"Id", "Date", "Weight", "Bmi", "Fat"},
	KindHourlyCalories:    {"Id", "Date", "Hour", "Calories"},
	KindHourlySteps:       {"Id", "Date", "Hour", "StepTotal"},
	KindHourlyIntensities: {"Id", "Date", "Hour", "TotalIntensity", "AverageIntensity"},
}

// ActivityMinuteFields are the daily activity minute-breakdown columns
// that participate in the total-minutes consistency check.
var ActivityMinuteFields = []string{
	"VeryActiveMinutes", "FairlyActiveMinutes", "LightlyActiveMinutes", "SedentaryMinutes",
}

// SchemaFor returns the canonical schema for a dataset kind
func SchemaFor(kind DatasetKind) ([]string, error) {
	schema, ok := schemas[kind]
	if !ok {
		return nil, fmt.Errorf("unknown dataset kind: %s", kind)
	}
	// Return a copy so callers cannot mutate the canonical schema
	out := make([]string, len(schema))
	copy(out, schema)
	return out, nil
}

// NewDataset creates an empty dataset with the canonical schema for kind
func NewDataset(kind DatasetKind) (*Dataset, error) {
	schema, err := SchemaFor(kind)
	if err != nil {
		return nil, err
	}
	return &Dataset{Kind: kind, Fields: schema, Rows: make([]Row, 0)}, nil
}

// HasField reports whether the dataset schema declares the field
func (d *Dataset) HasField(name string) bool {
	for _, f := range d.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// Len returns the number of rows
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// Value returns the value of field in row i, nil when missing
func (d *Dataset) Value(i int, field string) interface{} {
	return d.Rows[i][field]
}

// RowIdentifier builds a human-readable identifier for row i, used when
// recording remediation actions against that row.
func (d *Dataset) RowIdentifier(i int) string {
	row := d.Rows[i]
	id := "?"
	if v := row["Id"]; v != nil {
		id = fmt.Sprintf("%v", v)
	}
	when := ""
	if t, ok := AsTime(row["Date"]); ok {
		when = t.Format("2006-01-02")
	} else if t, ok := AsTime(row["Timestamp"]); ok {
		when = t.Format(time.RFC3339)
	}
	if when == "" {
		return fmt.Sprintf("%s/%s#%d", d.Kind, id, i)
	}
	return fmt.Sprintf("%s/%s@%s#%d", d.Kind, id, when, i)
}

// WithoutRows returns a copy of the dataset with the given row indexes
// removed. Row order among the survivors is preserved.
func (d *Dataset) WithoutRows(drop map[int]bool) *Dataset {
	out := &Dataset{Kind: d.Kind, Fields: d.Fields, Rows: make([]Row, 0, len(d.Rows))}
	for i, row := range d.Rows {
		if drop[i] {
			continue
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// Clone returns a deep copy of the dataset (rows are copied so the
// original is never mutated by remediation).
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{Kind: d.Kind, Fields: d.Fields, Rows: make([]Row, len(d.Rows))}
	for i, row := range d.Rows {
		cp := make(Row, len(row))
		for k, v := range row {
			cp[k] = v
		}
		out.Rows[i] = cp
	}
	return out
}

// AsFloat converts a stored value to float64.
// Returns false when the value is nil or not numeric.
func AsFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	default:
		return 0, false
	}
}

// AsTime converts a stored value to time.Time.
// Returns false when the value is nil or not a time.
func AsTime(v interface{}) (time.Time, bool) {
	t, ok := v.(time.Time)
	if !ok || t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}
