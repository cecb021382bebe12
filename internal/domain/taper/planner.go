// Package taper searches pre-competition taper strategies for the one that
// peaks an athlete's projected performance on a target date.
package taper

import (
	"math"
	"time"

	"github.com/okian/twin/internal/domain/model"
	"github.com/okian/twin/internal/domain/simulation"
	"github.com/okian/twin/internal/domain/twin"
)

// MinLeadDays is the shortest lead time that still allows a taper.
const MinLeadDays = 7

// Status of an optimization.
type Status string

const (
	StatusSuccess Status = "success"
	StatusTooLate Status = "too_late"
)

const tooLateMessage = "Not enough time for effective peaking"

var tooLateRecommendations = []string{"Focus on recovery and rest", "Reduce volume 50%"}

// StrategyResult is the projected outcome of one strategy.
type StrategyResult struct {
	Strategy        string     `json:"strategy"`
	PeakPerformance float64    `json:"peak_performance"`
	Form            float64    `json:"form"`
	Plan            model.Plan `json:"plan"`
}

// Result is the outcome of Optimize. A too_late result carries only the
// message and recommendations.
type Result struct {
	Status                  Status           `json:"status"`
	DaysToTarget            int              `json:"days_to_target"`
	Message                 string           `json:"message,omitempty"`
	Recommendations         []string         `json:"recommendations,omitempty"`
	Recommended             string           `json:"recommended,omitempty"`
	ExpectedPeakPerformance float64          `json:"expected_peak_performance,omitempty"`
	ExpectedForm            float64          `json:"expected_form,omitempty"`
	Alternatives            []StrategyResult `json:"alternatives,omitempty"`
	TaperPlan               model.Plan       `json:"taper_plan,omitempty"`
}

// Planner evaluates candidate tapers with a Simulator.
type Planner struct {
	sim *simulation.Simulator
}

// NewPlanner creates a Planner. A nil simulator gets the defaults.
func NewPlanner(sim *simulation.Simulator) *Planner {
	if sim == nil {
		sim = simulation.New()
	}
	return &Planner{sim: sim}
}

// DaysToTarget is the whole number of days from reference to target, rounded up.
func DaysToTarget(reference, target time.Time) int {
	return int(math.Ceil(float64(target.Sub(reference)) / float64(24*time.Hour)))
}

// Optimize picks the best taper for target as seen from reference. The
// current plan is accepted for later extension and not consulted.
func (p *Planner) Optimize(t *twin.Twin, target, reference time.Time, _ model.Plan) (Result, error) {
	if t == nil {
		return Result{}, twin.ErrNilTwin
	}

	days := DaysToTarget(reference, target)
	if days < MinLeadDays {
		recs := make([]string, len(tooLateRecommendations))
		copy(recs, tooLateRecommendations)
		return Result{
			Status:          StatusTooLate,
			DaysToTarget:    days,
			Message:         tooLateMessage,
			Recommendations: recs,
		}, nil
	}
	if err := p.sim.CheckHorizon(days); err != nil {
		return Result{}, err
	}

	strategies := Candidates(days)
	results := make([]StrategyResult, 0, len(strategies))
	best := -1
	for _, s := range strategies {
		plan, err := GeneratePlan(s, days, reference)
		if err != nil {
			return Result{}, err
		}
		run, err := p.sim.Simulate(t, plan, days, reference)
		if err != nil {
			return Result{}, err
		}
		last := run[len(run)-1]
		results = append(results, StrategyResult{
			Strategy:        s.Name,
			PeakPerformance: last.Performance,
			Form:            last.Form,
			Plan:            plan,
		})
		if best < 0 || last.Performance > results[best].PeakPerformance {
			best = len(results) - 1
		}
	}

	winner := results[best]
	return Result{
		Status:                  StatusSuccess,
		DaysToTarget:            days,
		Recommended:             winner.Strategy,
		ExpectedPeakPerformance: winner.PeakPerformance,
		ExpectedForm:            winner.Form,
		Alternatives:            results,
		TaperPlan:               winner.Plan,
	}, nil
}
