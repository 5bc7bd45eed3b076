// pkg/config/bounds.go
package config

import "errors"

// Bounds holds the fixed physiological and temporal constants the rule
// catalog checks against. Loaded once per run and treated as immutable;
// rules receive it at catalog construction instead of scattering literals.
type Bounds struct {
	// Heart rate, beats per minute
	HeartRateMin float64
	HeartRateMax float64

	// Body weight, kilograms
	WeightMinKg float64
	WeightMaxKg float64

	// Body mass index
	BmiMin float64
	BmiMax float64

	// Sleep duration upper bound, minutes
	SleepMaxMinutes float64

	// Minutes in one day; caps the summed activity-minute breakdown
	DayMinutes float64

	// Observation window for the daily activity export, days
	ObservationWindowDays int

	// Hour-of-day bounds for hourly exports
	HourMin float64
	HourMax float64

	// Hourly intensity bounds: total is minutes-weighted on a 0-3 scale
	IntensityTotalMax   float64
	IntensityAverageMax float64
}

// DefaultBounds returns the standard constants for consumer fitness trackers
func DefaultBounds() Bounds {
	return Bounds{
		HeartRateMin:          40,
		HeartRateMax:          220,
		WeightMinKg:           20,
		WeightMaxKg:           300,
		BmiMin:                15,
		BmiMax:                50,
		SleepMaxMinutes:       1440,
		DayMinutes:            1440,
		ObservationWindowDays: 31,
		HourMin:               0,
		HourMax:               23,
		IntensityTotalMax:     180,
		IntensityAverageMax:   3,
	}
}

// Validate ensures the bounds describe non-empty intervals
func (b Bounds) Validate() error {
	if b.HeartRateMin >= b.HeartRateMax {
		return errors.New("heart rate bounds must describe a non-empty interval")
	}
	if b.WeightMinKg >= b.WeightMaxKg {
		return errors.New("weight bounds must describe a non-empty interval")
	}
	if b.BmiMin >= b.BmiMax {
		return errors.New("BMI bounds must describe a non-empty interval")
	}
	if b.SleepMaxMinutes <= 0 {
		return errors.New("sleep duration bound must be positive")
	}
	if b.DayMinutes <= 0 {
		return errors.New("day minutes bound must be positive")
	}
	if b.ObservationWindowDays <= 0 {
		return errors.New("observation window must be positive")
	}
	return nil
}
