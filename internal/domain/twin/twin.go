// Package twin implements the per-athlete digital twin: the impulse-response
// state recurrence, session ingestion and the append-only history ledger.
//
// A Twin is not safe for concurrent mutation. Callers serialize writers, and
// readers work on a Snapshot.
package twin

import (
	"fmt"
	"sort"
	"time"

	"github.com/okian/twin/internal/domain/calibration"
	"github.com/okian/twin/internal/domain/model"
	"github.com/okian/twin/internal/domain/stress"
)

// Twin is the stateful model instance of one athlete.
type Twin struct {
	ID      string
	Profile model.AthleteProfile
	Params  model.Parameters
	State   model.State
	History []model.HistoryEntry
}

// Applied describes a processed session.
type Applied struct {
	Entry     model.HistoryEntry
	Defaulted []string
}

// Option applies a construction option to a Twin.
type Option func(*Twin)

// WithID sets the twin identifier. Defaults to the profile ID.
func WithID(id string) Option {
	return func(t *Twin) {
		if id != "" {
			t.ID = id
		}
	}
}

// WithParameters overrides the calibrated parameters.
func WithParameters(p model.Parameters) Option {
	return func(t *Twin) {
		t.Params = p
	}
}

// New creates a zeroed twin for profile whose state is anchored at createdAt.
func New(profile model.AthleteProfile, createdAt time.Time, opts ...Option) *Twin {
	t := &Twin{
		ID:      profile.ID,
		Profile: profile,
		Params:  calibration.Calibrate(profile),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.State = model.NewState(t.Params.P0, 0, 0, createdAt)
	return t
}

// FromHistory creates a twin and replays sessions through it. The initial
// state is anchored at the earliest session (or createdAt if earlier); after
// replay the state is decayed to createdAt when that is later than the last
// session.
func FromHistory(profile model.AthleteProfile, createdAt time.Time, sessions []model.Workout, opts ...Option) (*Twin, error) {
	anchor := createdAt
	for _, s := range sessions {
		if !s.Date.IsZero() && s.Date.Before(anchor) {
			anchor = s.Date
		}
	}
	t := New(profile, anchor, opts...)
	if _, err := t.Ingest(sessions); err != nil {
		return nil, err
	}
	if createdAt.After(t.State.Timestamp) {
		next, err := Advance(t.State, t.Params, createdAt, 0)
		if err != nil {
			return nil, err
		}
		t.State = next
	}
	return t, nil
}

// Record applies one session to the twin and appends a history entry.
func (t *Twin) Record(session model.Workout) (Applied, error) {
	if t == nil {
		return Applied{}, ErrNilTwin
	}
	if session.Date.IsZero() {
		return Applied{}, ErrMissingDate
	}
	s := stress.Calculate(session, t.Params)
	next, err := Advance(t.State, t.Params, session.Date, s.TSS)
	if err != nil {
		return Applied{}, err
	}
	t.State = next

	entry := model.HistoryEntry{
		Date:        next.Timestamp,
		TSS:         s.TSS,
		Fitness:     next.Fitness,
		Fatigue:     next.Fatigue,
		Performance: next.Performance,
	}
	t.History = append(t.History, entry)
	return Applied{Entry: entry, Defaulted: s.Defaulted}, nil
}

// Ingest sorts sessions by date and records them in order. The batch is
// validated up front, so on error the twin is unchanged. It returns the number
// of sessions applied; an empty batch is a no-op.
func (t *Twin) Ingest(sessions []model.Workout) (int, error) {
	if t == nil {
		return 0, ErrNilTwin
	}
	if len(sessions) == 0 {
		return 0, nil
	}

	sorted := make([]model.Workout, len(sessions))
	copy(sorted, sessions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	for i, s := range sorted {
		if s.Date.IsZero() {
			return 0, fmt.Errorf("session %d: %w", i, ErrMissingDate)
		}
	}
	if first := sorted[0].Date; first.Before(t.State.Timestamp) {
		return 0, fmt.Errorf("%w: earliest session %s before %s", ErrNonMonotonicTime,
			first.Format(time.RFC3339), t.State.Timestamp.Format(time.RFC3339))
	}

	for i, s := range sorted {
		if _, err := t.Record(s); err != nil {
			return i, err
		}
	}
	return len(sorted), nil
}

// Recalibrate replaces the profile and re-derives the parameters. The
// accumulators are kept and performance is recomputed against the new p_0.
func (t *Twin) Recalibrate(profile model.AthleteProfile) {
	t.Profile = profile
	t.Params = calibration.Calibrate(profile)
	t.State = model.NewState(t.Params.P0, t.State.Fitness, t.State.Fatigue, t.State.Timestamp)
}

// Snapshot returns a deep copy that can be read while the twin keeps changing.
func (t *Twin) Snapshot() *Twin {
	if t == nil {
		return nil
	}
	c := *t
	c.History = make([]model.HistoryEntry, len(t.History))
	copy(c.History, t.History)
	return &c
}
