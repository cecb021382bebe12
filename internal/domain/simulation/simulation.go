// Package simulation projects a twin's state forward over a training plan.
package simulation

import (
	"errors"
	"fmt"
	"time"

	"github.com/okian/twin/internal/domain/model"
	"github.com/okian/twin/internal/domain/stress"
	"github.com/okian/twin/internal/domain/twin"
)

// DefaultMaxDays bounds the simulation horizon (about three years).
const DefaultMaxDays = 3 * 365

// Sentinel kinds for simulation errors.
var (
	ErrInvalidHorizon = errors.New("simulation horizon must be at least one day")
	ErrHorizonTooLong = errors.New("simulation horizon exceeds maximum")
)

// Simulator runs day-by-day projections. It holds no state beyond its limits
// and is safe for concurrent use.
type Simulator struct {
	maxDays int
}

// Option applies a configuration option to the Simulator.
type Option func(*Simulator)

// WithMaxDays caps the horizon accepted by Run.
func WithMaxDays(n int) Option {
	return func(s *Simulator) {
		if n > 0 {
			s.maxDays = n
		}
	}
}

// New creates a Simulator.
func New(opts ...Option) *Simulator {
	s := &Simulator{maxDays: DefaultMaxDays}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxDays returns the configured horizon cap.
func (s *Simulator) MaxDays() int { return s.maxDays }

// CheckHorizon validates a horizon against the simulator limits.
func (s *Simulator) CheckHorizon(days int) error {
	switch {
	case days < 1:
		return fmt.Errorf("%w: got %d", ErrInvalidHorizon, days)
	case days > s.maxDays:
		return fmt.Errorf("%w: %d > %d", ErrHorizonTooLong, days, s.maxDays)
	}
	return nil
}

// Simulate projects t forward for days days starting after reference. The
// twin is read, never mutated.
func (s *Simulator) Simulate(t *twin.Twin, plan model.Plan, days int, reference time.Time) ([]model.SimulationDay, error) {
	if t == nil {
		return nil, twin.ErrNilTwin
	}
	return s.Run(t.State, t.Params, plan, days, reference)
}

// Run projects state forward one day at a time. Day n falls on reference plus
// n calendar days; a plan entry applies when it lands on the same calendar day in the
// reference location. At most one entry applies per day and the first match
// wins.
func (s *Simulator) Run(state model.State, params model.Parameters, plan model.Plan, days int, reference time.Time) ([]model.SimulationDay, error) {
	if err := s.CheckHorizon(days); err != nil {
		return nil, err
	}

	loc := reference.Location()
	byDay := make(map[calendarDay]int, len(plan))
	for i, w := range plan {
		key := dayOf(w.Date, loc)
		if _, ok := byDay[key]; !ok {
			byDay[key] = i
		}
	}

	out := make([]model.SimulationDay, 0, days)
	cur := state
	for d := 1; d <= days; d++ {
		date := reference.AddDate(0, 0, d)

		var tss float64
		idx, hasWorkout := byDay[dayOf(date, loc)]
		if hasWorkout {
			tss = stress.TSS(plan[idx], params)
		}

		cur = twin.Step(cur, params, 1, tss)
		cur.Timestamp = date

		out = append(out, model.SimulationDay{
			Day:         d,
			Date:        date,
			Fitness:     model.Round(cur.Fitness, 1),
			Fatigue:     model.Round(cur.Fatigue, 1),
			Form:        model.Round(cur.Form(), 1),
			Performance: model.Round(cur.Performance, 1),
			HasWorkout:  hasWorkout,
			TSS:         model.Round(tss, 1),
		})
	}
	return out, nil
}

type calendarDay struct {
	year  int
	month time.Month
	day   int
}

func dayOf(t time.Time, loc *time.Location) calendarDay {
	y, m, d := t.In(loc).Date()
	return calendarDay{year: y, month: m, day: d}
}
