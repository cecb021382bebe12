package model

import (
	"math"
	"time"
)

// Parameters are the calibrated constants of the impulse-response model.
type Parameters struct {
	TauFit float64 `json:"tau_fit"` // fitness decay constant, days
	TauFat float64 `json:"tau_fat"` // fatigue decay constant, days
	KFit   float64 `json:"k_fit"`   // fitness gain per TSS
	KFat   float64 `json:"k_fat"`   // fatigue gain per TSS
	P0     float64 `json:"p_0"`     // baseline performance

	VolumeWeight    float64 `json:"volume_weight"`
	IntensityWeight float64 `json:"intensity_weight"`

	// Reserved recovery adjustments. Carried but not applied by the model.
	SleepModifier  float64 `json:"sleep_modifier"`
	HRVModifier    float64 `json:"hrv_modifier"`
	StressModifier float64 `json:"stress_modifier"`
}

// DefaultParameters returns the population defaults.
func DefaultParameters() Parameters {
	return Parameters{
		TauFit:          42,
		KFit:            0.1,
		TauFat:          15,
		KFat:            0.2,
		P0:              100,
		VolumeWeight:    0.4,
		IntensityWeight: 0.6,
		SleepModifier:   0.15,
		HRVModifier:     0.10,
		StressModifier:  0.10,
	}
}

// State is the point-in-time model state of a twin.
type State struct {
	Fitness     float64
	Fatigue     float64
	Performance float64
	Timestamp   time.Time
}

// NewState returns a state with the given accumulators and the performance
// derived from p0.
func NewState(p0, fitness, fatigue float64, at time.Time) State {
	return State{
		Fitness:     fitness,
		Fatigue:     fatigue,
		Performance: p0 + fitness - fatigue,
		Timestamp:   at,
	}
}

// Form is fitness minus fatigue.
func (s State) Form() float64 { return s.Fitness - s.Fatigue }

// HistoryEntry records the state right after a processed session.
type HistoryEntry struct {
	Date        time.Time `json:"date"`
	TSS         float64   `json:"tss"`
	Fitness     float64   `json:"fitness"`
	Fatigue     float64   `json:"fatigue"`
	Performance float64   `json:"performance"`
}

// Round rounds x to the given number of decimal places, halves away from zero.
func Round(x float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(x*scale) / scale
}
