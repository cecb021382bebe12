package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/twin/internal/domain/model"
	"github.com/okian/twin/internal/domain/scenario"
)

const dateOnly = "2006-01-02"

// parseTime accepts RFC3339 or a bare date, read as midnight UTC. Empty input
// yields the zero time.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(dateOnly, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q; must be RFC3339 or YYYY-MM-DD", s)
	}
	return t, nil
}

// workoutRequest mirrors model.Workout with a string date.
type workoutRequest struct {
	ID           string           `json:"id,omitempty"`
	Date         string           `json:"date"`
	TSS          *float64         `json:"tss,omitempty"`
	Exercises    []model.Exercise `json:"exercises,omitempty"`
	AvgIntensity *float64         `json:"avg_intensity,omitempty"`
	Duration     *float64         `json:"duration,omitempty"`
	Type         string           `json:"type,omitempty"`
}

func (w workoutRequest) toWorkout() (model.Workout, error) {
	at, err := parseTime(w.Date)
	if err != nil {
		return model.Workout{}, err
	}
	return model.Workout{
		ID:           w.ID,
		Date:         at,
		TSS:          w.TSS,
		Exercises:    w.Exercises,
		AvgIntensity: w.AvgIntensity,
		Duration:     w.Duration,
		Type:         w.Type,
	}, nil
}

func toPlan(in []workoutRequest) (model.Plan, error) {
	if len(in) == 0 {
		return nil, nil
	}
	plan := make(model.Plan, 0, len(in))
	for i, w := range in {
		wo, err := w.toWorkout()
		if err != nil {
			return nil, fmt.Errorf("workout %d: %w", i, err)
		}
		plan = append(plan, wo)
	}
	return plan, nil
}

type scenarioRequest struct {
	Name string           `json:"name"`
	Plan []workoutRequest `json:"plan"`
	Days int              `json:"days,omitempty"`
}

func toScenarios(in []scenarioRequest) ([]scenario.Scenario, error) {
	out := make([]scenario.Scenario, 0, len(in))
	for _, sc := range in {
		plan, err := toPlan(sc.Plan)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
		}
		out = append(out, scenario.Scenario{Name: sc.Name, Plan: plan, Days: sc.Days})
	}
	return out, nil
}
