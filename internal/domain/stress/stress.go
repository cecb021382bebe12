// Package stress converts workout records into Training Stress Scores.
package stress

import (
	"math"

	"github.com/okian/twin/internal/domain/model"
)

// Normalization constants and neutral defaults for missing metrics.
const (
	referenceSets       = 20.0 // 20 sets = 100% volume
	referenceDuration   = 60.0 // 60 minutes = 100% duration
	defaultAvgIntensity = 75.0
	defaultDuration     = 60.0
	percent             = 100.0
)

// Names of fields reported in Stress.Defaulted.
const (
	FieldTSS          = "tss"
	FieldExercises    = "exercises"
	FieldAvgIntensity = "avg_intensity"
	FieldDuration     = "duration"
)

// Stress is a computed training stress score with the list of fields that
// were substituted by defaults.
type Stress struct {
	TSS       float64
	Defaulted []string
}

// Derived reports whether the score came from raw metrics rather than a
// precomputed value.
func (s Stress) Derived() bool {
	for _, f := range s.Defaulted {
		if f == FieldTSS {
			return false
		}
	}
	return true
}

// Calculate returns the TSS of w. A precomputed TSS is returned unchanged
// (negative values clamp to zero). Otherwise the score is derived from volume,
// intensity and duration weighted by p.
func Calculate(w model.Workout, p model.Parameters) Stress {
	if w.TSS != nil {
		if *w.TSS < 0 || math.IsNaN(*w.TSS) {
			return Stress{TSS: 0, Defaulted: []string{FieldTSS}}
		}
		return Stress{TSS: *w.TSS}
	}

	var defaulted []string
	if len(w.Exercises) == 0 {
		defaulted = append(defaulted, FieldExercises)
	}

	intensity := defaultAvgIntensity
	if w.AvgIntensity != nil {
		intensity = *w.AvgIntensity
	} else {
		defaulted = append(defaulted, FieldAvgIntensity)
	}

	duration := defaultDuration
	if w.Duration != nil {
		duration = *w.Duration
	} else {
		defaulted = append(defaulted, FieldDuration)
	}

	volumeScore := float64(w.TotalSets()) / referenceSets * percent
	durationScore := duration / referenceDuration * percent

	tss := math.Round((volumeScore*p.VolumeWeight + intensity*p.IntensityWeight) * durationScore / percent)
	if tss < 0 || math.IsNaN(tss) {
		tss = 0
	}
	return Stress{TSS: tss, Defaulted: defaulted}
}

// TSS is a shortcut for Calculate(w, p).TSS.
func TSS(w model.Workout, p model.Parameters) float64 {
	return Calculate(w, p).TSS
}
