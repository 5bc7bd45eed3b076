// pkg/rules/catalog.go
package rules

import (
	"fmt"
	"sort"

	"github.com/wearalytics/tracker-qc/pkg/config"
	"github.com/wearalytics/tracker-qc/pkg/model"
)

// CatalogFor returns the fixed, ordered rule catalog for a dataset kind.
// The catalog order determines report presentation order and is stable.
// Domain constants come from the bounds table, never from literals here.
func CatalogFor(kind model.DatasetKind, b config.Bounds) ([]Rule, error) {
	switch kind {
	case model.KindDailyActivity:
		return dailyActivityCatalog(b), nil
	case model.KindSleep:
		return sleepCatalog(b), nil
	case model.KindHeartRate:
		return heartRateCatalog(b), nil
	case model.KindWeight:
		return weightCatalog(b), nil
	case model.KindHourlyCalories:
		return hourlyCatalog(b, "Calories", requireAtLeast("hourly calories", "Calories", 0)), nil
	case model.KindHourlySteps:
		return hourlyCatalog(b, "StepTotal", requireAtLeast("hourly steps", "StepTotal", 0)), nil
	case model.KindHourlyIntensities:
		return hourlyCatalog(b, "", intensityValuesRule(b)), nil
	default:
		return nil, fmt.Errorf("no rule catalog for dataset kind: %s", kind)
	}
}

func dailyActivityCatalog(b config.Bounds) []Rule {
	required := []string{"Id", "Date", "TotalSteps", "Calories"}

	return []Rule{
		noMissingValues("no_missing_values", required),
		validDateRange(b.ObservationWindowDays),
		requireAtLeast("total steps", "TotalSteps", 0).named("valid_steps"),
		requireAtLeast("total distance", "TotalDistance", 0).named("valid_distance"),
		{
			Name:           "valid_calories",
			Classification: model.ClassificationRange,
			Fields:         []string{"Calories"},
			Check: perRow(func(row model.Row) bool {
				return greaterThan(row, "Calories", 0)
			}),
			Explain: explainRange("calorie values", "the positive range"),
		},
		{
			Name:           "valid_minutes",
			Classification: model.ClassificationRange,
			Fields:         model.ActivityMinuteFields,
			Check: perRow(func(row model.Row) bool {
				for _, f := range model.ActivityMinuteFields {
					if !atLeast(row, f, 0) {
						return false
					}
				}
				return true
			}),
			Explain: explainRange("activity-minute values", "the non-negative range"),
		},
		validTotalMinutes(b.DayMinutes),
	}
}

func sleepCatalog(b config.Bounds) []Rule {
	required := []string{"Id", "Date", "TotalMinutesAsleep", "TotalTimeInBed"}
	durationBound := fmt.Sprintf("the (0, %g] minute range", b.SleepMaxMinutes)

	return []Rule{
		noMissingValues("no_missing_values", required),
		{
			Name:           "valid_sleep_duration",
			Classification: model.ClassificationRange,
			Fields:         []string{"TotalMinutesAsleep"},
			Check: perRow(func(row model.Row) bool {
				v, ok := model.AsFloat(row["TotalMinutesAsleep"])
				if !ok {
					return true
				}
				return v > 0 && v <= b.SleepMaxMinutes
			}),
			Explain: explainRange("sleep durations", durationBound),
		},
		{
			Name:           "valid_time_in_bed",
			Classification: model.ClassificationCrossField,
			Fields:         []string{"TotalMinutesAsleep", "TotalTimeInBed"},
			Check: perRow(func(row model.Row) bool {
				asleep, okA := model.AsFloat(row["TotalMinutesAsleep"])
				inBed, okB := model.AsFloat(row["TotalTimeInBed"])
				if !okA || !okB {
					return true
				}
				return inBed >= asleep
			}),
			Explain: func(offending int) string {
				if offending == 0 {
					return "time in bed covers minutes asleep for every row"
				}
				return fmt.Sprintf("%d %s report more minutes asleep than time in bed", offending, rowWord(offending))
			},
		},
	}
}

func heartRateCatalog(b config.Bounds) []Rule {
	required := []string{"Id", "Timestamp", "Value"}
	bpmBound := fmt.Sprintf("the %g-%g bpm range", b.HeartRateMin, b.HeartRateMax)

	return []Rule{
		noMissingValues("no_missing_values", required),
		{
			Name:           "valid_heart_rate",
			Classification: model.ClassificationRange,
			Fields:         []string{"Value"},
			Check: perRow(func(row model.Row) bool {
				return inRange(row, "Value", b.HeartRateMin, b.HeartRateMax)
			}),
			Explain: explainRange("heart rate values", bpmBound),
		},
		{
			Name:           "valid_timestamps",
			Classification: model.ClassificationTemporal,
			Fields:         []string{"Timestamp"},
			Check: perRow(func(row model.Row) bool {
				_, ok := model.AsTime(row["Timestamp"])
				return ok
			}),
			Explain: func(offending int) string {
				if offending == 0 {
					return "all timestamps parse to valid date-times"
				}
				return fmt.Sprintf("%d %s with missing or unparseable timestamps", offending, rowWord(offending))
			},
		},
	}
}

func weightCatalog(b config.Bounds) []Rule {
	required := []string{"Id", "Date", "Weight", "Bmi"}
	weightBound := fmt.Sprintf("the %g-%g kg range", b.WeightMinKg, b.WeightMaxKg)
	bmiBound := fmt.Sprintf("the %g-%g range", b.BmiMin, b.BmiMax)

	return []Rule{
		{
			Name:           "valid_weight",
			Classification: model.ClassificationRange,
			Fields:         []string{"Weight"},
			Check: perRow(func(row model.Row) bool {
				return inRange(row, "Weight", b.WeightMinKg, b.WeightMaxKg)
			}),
			Explain: explainRange("weight values", weightBound),
		},
		{
			Name:           "valid_bmi",
			Classification: model.ClassificationRange,
			Fields:         []string{"Bmi"},
			Check: perRow(func(row model.Row) bool {
				return inRange(row, "Bmi", b.BmiMin, b.BmiMax)
			}),
			Explain: explainRange("BMI values", bmiBound),
		},
		noMissingValues("no_missing_required", required),
	}
}

// hourlyCatalog builds the shared catalog shape for the three hourly kinds:
// presence check, hour-of-day bound, then the kind-specific value rule.
func hourlyCatalog(b config.Bounds, metricField string, valueRule Rule) []Rule {
	required := []string{"Id", "Date", "Hour"}
	if metricField != "" {
		required = append(required, metricField)
	} else {
		required = append(required, "TotalIntensity", "AverageIntensity")
	}
	hourBound := fmt.Sprintf("the %g-%g range", b.HourMin, b.HourMax)

	return []Rule{
		noMissingValues("no_missing_values", required),
		{
			Name:           "valid_hours",
			Classification: model.ClassificationRange,
			Fields:         []string{"Hour"},
			Check: perRow(func(row model.Row) bool {
				return inRange(row, "Hour", b.HourMin, b.HourMax)
			}),
			Explain: explainRange("hour-of-day values", hourBound),
		},
		valueRule.named("valid_values"),
	}
}

func intensityValuesRule(b config.Bounds) Rule {
	totalBound := fmt.Sprintf("the 0-%g range", b.IntensityTotalMax)

	return Rule{
		Classification: model.ClassificationRange,
		Fields:         []string{"TotalIntensity", "AverageIntensity"},
		Check: perRow(func(row model.Row) bool {
			return inRange(row, "TotalIntensity", 0, b.IntensityTotalMax) &&
				inRange(row, "AverageIntensity", 0, b.IntensityAverageMax)
		}),
		Explain: explainRange("intensity values", totalBound),
	}
}

// noMissingValues builds a presence rule: every declared required field
// must be non-nil for the row. The required-field set is part of the
// rule's identity for its dataset.
func noMissingValues(name string, required []string) Rule {
	return Rule{
		Name:           name,
		Classification: model.ClassificationStructural,
		Fields:         required,
		Check: perRow(func(row model.Row) bool {
			return presentAll(row, required)
		}),
		Explain: func(offending int) string {
			if offending == 0 {
				return "all rows carry the required fields"
			}
			return fmt.Sprintf("%d %s missing one or more required fields", offending, rowWord(offending))
		},
	}
}

// requireAtLeast builds a non-negative style range rule over one field
func requireAtLeast(what, field string, min float64) Rule {
	bound := fmt.Sprintf("the >= %g range", min)
	if min == 0 {
		bound = "the non-negative range"
	}

	return Rule{
		Classification: model.ClassificationRange,
		Fields:         []string{field},
		Check: perRow(func(row model.Row) bool {
			return atLeast(row, field, min)
		}),
		Explain: explainRange(what+" values", bound),
	}
}

// validDateRange checks that every date falls inside the observation
// window anchored at the dataset's earliest date. Rows beyond the window
// are the offenders.
func validDateRange(windowDays int) Rule {
	return Rule{
		Name:           "valid_date_range",
		Classification: model.ClassificationTemporal,
		Fields:         []string{"Date"},
		Check: func(ds *model.Dataset) []int {
			var haveMin bool
			var min int64 // earliest date, unix seconds
			for _, row := range ds.Rows {
				t, ok := model.AsTime(row["Date"])
				if !ok {
					continue
				}
				if !haveMin || t.Unix() < min {
					min = t.Unix()
					haveMin = true
				}
			}
			if !haveMin {
				return nil
			}

			limit := min + int64(windowDays)*24*60*60
			offending := make([]int, 0)
			for i, row := range ds.Rows {
				t, ok := model.AsTime(row["Date"])
				if !ok {
					continue
				}
				if t.Unix() > limit {
					offending = append(offending, i)
				}
			}
			return offending
		},
		Explain: func(offending int) string {
			if offending == 0 {
				return fmt.Sprintf("all dates fall within the %d-day observation window", windowDays)
			}
			return fmt.Sprintf("%d %s dated beyond the %d-day observation window", offending, rowWord(offending), windowDays)
		},
	}
}

// validTotalMinutes is the group rule: activity minutes summed per Id+Date
// may not exceed the minutes in a day. Every row of a violating group is
// an offender.
func validTotalMinutes(dayMinutes float64) Rule {
	return Rule{
		Name:           "valid_total_minutes",
		Classification: model.ClassificationCrossField,
		Fields:         model.ActivityMinuteFields,
		Check: func(ds *model.Dataset) []int {
			groups := make(map[string][]int)
			sums := make(map[string]float64)

			for i, row := range ds.Rows {
				key := groupKey(row, i)
				groups[key] = append(groups[key], i)
				for _, f := range model.ActivityMinuteFields {
					if v, ok := model.AsFloat(row[f]); ok {
						sums[key] += v
					}
				}
			}

			offending := make([]int, 0)
			for key, sum := range sums {
				if sum > dayMinutes {
					offending = append(offending, groups[key]...)
				}
			}
			sort.Ints(offending)
			return offending
		},
		Explain: func(offending int) string {
			if offending == 0 {
				return fmt.Sprintf("activity minutes sum to at most %g per day", dayMinutes)
			}
			return fmt.Sprintf("%d %s in days whose activity minutes exceed %g", offending, rowWord(offending), dayMinutes)
		},
	}
}

// groupKey builds the Id+Date grouping key. Rows without an Id or Date
// cannot be grouped and form singleton groups.
func groupKey(row model.Row, i int) string {
	id := row["Id"]
	date, ok := model.AsTime(row["Date"])
	if id == nil || !ok {
		return fmt.Sprintf("row-%d", i)
	}
	return fmt.Sprintf("%v|%s", id, date.Format("2006-01-02"))
}

// named returns a copy of the rule with its name set; used where a
// shared rule shape serves several catalogs.
func (r Rule) named(name string) Rule {
	r.Name = name
	return r
}
