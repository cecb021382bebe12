package twin

import (
	"fmt"
	"math"
	"time"

	"github.com/okian/twin/internal/domain/model"
)

const day = 24 * time.Hour

// Days returns the signed gap from a to b in fractional days.
func Days(a, b time.Time) float64 {
	return float64(b.Sub(a)) / float64(day)
}

// Advance decays s to instant at and applies a training impulse of tss. It
// returns the new state and leaves s untouched. Events dated before
// s.Timestamp are rejected.
func Advance(s model.State, p model.Parameters, at time.Time, tss float64) (model.State, error) {
	dt := Days(s.Timestamp, at)
	if dt < 0 {
		return s, fmt.Errorf("%w: %s before %s", ErrNonMonotonicTime,
			at.Format(time.RFC3339), s.Timestamp.Format(time.RFC3339))
	}
	next := Step(s, p, dt, tss)
	next.Timestamp = at
	return next, nil
}

// Step applies the recurrence for a gap of dt days (dt >= 0) without touching
// the timestamp.
func Step(s model.State, p model.Parameters, dt, tss float64) model.State {
	fitness := s.Fitness * math.Exp(-dt/p.TauFit)
	fatigue := s.Fatigue * math.Exp(-dt/p.TauFat)
	fitness += p.KFit * tss
	fatigue += p.KFat * tss
	return model.State{
		Fitness:     fitness,
		Fatigue:     fatigue,
		Performance: p.P0 + fitness - fatigue,
		Timestamp:   s.Timestamp,
	}
}
