package taper

import (
	"fmt"
	"math"
	"time"

	"github.com/okian/twin/internal/domain/model"
)

const (
	// BaselineTSS is the daily load held before the taper window opens.
	BaselineTSS = 50.0
	// restEvery forces a rest day every n days into the taper window.
	restEvery = 3
	// minLoggedTSS drops days at or below this load from the plan.
	minLoggedTSS = 5.0

	recoveryBelow = 20.0
	lightBelow    = 40.0
)

// Day type tags.
const (
	TypeRecovery = "recovery"
	TypeLight    = "light"
	TypeNormal   = "normal"
)

// Strategy is one candidate taper.
type Strategy struct {
	Name      string
	Reduction Reduction
	Duration  int
}

// Candidates returns the three strategies evaluated for a given lead time.
func Candidates(daysToTarget int) []Strategy {
	return []Strategy{
		{Name: "Linear Taper", Reduction: Linear, Duration: min(14, daysToTarget)},
		{Name: "Step Taper", Reduction: Step, Duration: min(10, daysToTarget)},
		{Name: "Exponential Taper", Reduction: Exponential, Duration: min(14, daysToTarget)},
	}
}

// GeneratePlan builds the day-by-day plan of strategy for days days after
// reference.
func GeneratePlan(s Strategy, days int, reference time.Time) (model.Plan, error) {
	if s.Duration <= 0 {
		return nil, fmt.Errorf("%w: %s has duration %d", ErrInvalidStrategy, s.Name, s.Duration)
	}

	taperStart := days - s.Duration
	plan := make(model.Plan, 0, days)
	for d := 1; d <= days; d++ {
		tss := BaselineTSS
		if d > taperStart {
			progress := float64(d-taperStart) / float64(s.Duration)
			tss = s.Reduction.Shape(BaselineTSS, progress)
			if (d-taperStart)%restEvery == 0 {
				tss = 0
			}
		}
		if tss <= minLoggedTSS {
			continue
		}
		plan = append(plan, model.Workout{
			Date: reference.AddDate(0, 0, d),
			TSS:  model.Float(math.Round(tss)),
			Type: dayType(tss),
		})
	}
	return plan, nil
}

func dayType(tss float64) string {
	switch {
	case tss < recoveryBelow:
		return TypeRecovery
	case tss < lightBelow:
		return TypeLight
	default:
		return TypeNormal
	}
}
