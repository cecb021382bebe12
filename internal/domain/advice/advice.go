// Package advice turns a twin's current state into training recommendations.
package advice

import (
	"math"

	"github.com/okian/twin/internal/domain/model"
	"github.com/okian/twin/internal/domain/twin"
)

const (
	increaseAbove     = 10.0
	decreaseBelow     = -10.0
	deloadFatigueRate = 1.5
	plateauWindow     = 7
	plateauDelta      = 1.0
	freshAbove        = 5.0
	fatiguedBelow     = -5.0
)

// Type tags a recommendation.
type Type string

const (
	TypeIncrease Type = "increase"
	TypeDecrease Type = "decrease"
	TypeWarning  Type = "warning"
	TypePlateau  Type = "plateau"
)

// Status summarizes readiness.
type Status string

const (
	StatusFresh    Status = "fresh"
	StatusFatigued Status = "fatigued"
	StatusNeutral  Status = "neutral"
)

// Recommendation is one piece of advice.
type Recommendation struct {
	Type    Type   `json:"type"`
	Message string `json:"message"`
	Action  string `json:"action"`
}

// CurrentState is the rounded state shown with the advice.
type CurrentState struct {
	Fitness     float64 `json:"fitness"`
	Fatigue     float64 `json:"fatigue"`
	Form        float64 `json:"form"`
	Performance float64 `json:"performance"`
	Description string  `json:"description"`
}

// Report is the full advice for one twin.
type Report struct {
	CurrentState    CurrentState     `json:"current_state"`
	Status          Status           `json:"status"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Recommend builds the report for t. Rules fire independently.
func Recommend(t *twin.Twin) (Report, error) {
	if t == nil {
		return Report{}, twin.ErrNilTwin
	}
	s := t.State
	form := s.Form()

	recs := make([]Recommendation, 0, 3)
	switch {
	case form > increaseAbove:
		recs = append(recs, Recommendation{
			Type:    TypeIncrease,
			Message: "Form is positive - can handle increased training load",
			Action:  "Increase TSS by 10-15%",
		})
	case form < decreaseBelow:
		recs = append(recs, Recommendation{
			Type:    TypeDecrease,
			Message: "Fatigue exceeds fitness - recovery needed",
			Action:  "Reduce training load by 20-30%",
		})
	}
	if s.Fatigue > s.Fitness*deloadFatigueRate {
		recs = append(recs, Recommendation{
			Type:    TypeWarning,
			Message: "High fatigue accumulation",
			Action:  "Consider a deload week",
		})
	}
	if Plateaued(t.History) {
		recs = append(recs, Recommendation{
			Type:    TypePlateau,
			Message: "Fitness has plateaued",
			Action:  "Increase training stimulus or try different modality",
		})
	}

	return Report{
		CurrentState: CurrentState{
			Fitness:     model.Round(s.Fitness, 1),
			Fatigue:     model.Round(s.Fatigue, 1),
			Form:        model.Round(form, 1),
			Performance: model.Round(s.Performance, 1),
			Description: FormDescription(form),
		},
		Status:          StatusOf(form),
		Recommendations: recs,
	}, nil
}

// Plateaued reports whether fitness moved less than one point across the
// trailing seven history entries.
func Plateaued(history []model.HistoryEntry) bool {
	n := len(history)
	if n < plateauWindow {
		return false
	}
	delta := history[n-1].Fitness - history[n-plateauWindow].Fitness
	return math.Abs(delta) < plateauDelta
}

// StatusOf classifies form.
func StatusOf(form float64) Status {
	switch {
	case form > freshAbove:
		return StatusFresh
	case form < fatiguedBelow:
		return StatusFatigued
	default:
		return StatusNeutral
	}
}

// FormDescription returns a human-readable label for form.
func FormDescription(form float64) string {
	switch {
	case form > 25:
		return "Very fresh (possibly detrained)"
	case form > 10:
		return "Fresh and ready to race"
	case form > 0:
		return "Neutral - good for training"
	case form > -10:
		return "Slightly fatigued"
	case form > -25:
		return "Tired but building fitness"
	default:
		return "Very fatigued - rest needed"
	}
}
