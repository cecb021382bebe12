package model

import "time"

// Exercise is one movement of a workout. Only the set count feeds the model.
type Exercise struct {
	Name string `json:"name" yaml:"name"`
	Sets int    `json:"sets" yaml:"sets"`
}

// Workout is either a logged training session or a planned workout. Either a
// precomputed TSS or the raw metrics it is derived from may be supplied.
type Workout struct {
	ID           string     `json:"id,omitempty" yaml:"id,omitempty"`
	Date         time.Time  `json:"date" yaml:"date"`
	TSS          *float64   `json:"tss,omitempty" yaml:"tss,omitempty"`
	Exercises    []Exercise `json:"exercises,omitempty" yaml:"exercises,omitempty"`
	AvgIntensity *float64   `json:"avg_intensity,omitempty" yaml:"avg_intensity,omitempty"` // percent
	Duration     *float64   `json:"duration,omitempty" yaml:"duration,omitempty"`           // minutes
	Type         string     `json:"type,omitempty" yaml:"type,omitempty"`
}

// Plan is an ordered list of planned workouts.
type Plan []Workout

// TotalSets sums the set counts of all exercises.
func (w Workout) TotalSets() int {
	total := 0
	for _, ex := range w.Exercises {
		if ex.Sets > 0 {
			total += ex.Sets
		}
	}
	return total
}

// SimulationDay is one projected day of a simulation run.
type SimulationDay struct {
	Day         int       `json:"day"`
	Date        time.Time `json:"date"`
	Fitness     float64   `json:"fitness"`
	Fatigue     float64   `json:"fatigue"`
	Form        float64   `json:"form"`
	Performance float64   `json:"performance"`
	HasWorkout  bool      `json:"has_workout"`
	TSS         float64   `json:"tss"`
}

// Float returns a pointer to v, for optional numeric fields.
func Float(v float64) *float64 { return &v }
