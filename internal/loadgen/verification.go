package loadgen

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
)

// The API rounds each state value to one decimal.
const roundingTolerance = 0.15

// ErrMismatch reports a twin whose state fails a consistency check.
var ErrMismatch = errors.New("twin state mismatch")

// TwinState mirrors the fields of GET /twins/{id} that are verified.
type TwinState struct {
	AthleteID string `json:"athlete_id"`
	Params    struct {
		P0 float64 `json:"p_0"`
	} `json:"params"`
	State struct {
		Fitness     float64 `json:"fitness"`
		Fatigue     float64 `json:"fatigue"`
		Performance float64 `json:"performance"`
	} `json:"state"`
	Sessions int `json:"sessions"`
}

// Check verifies performance = p_0 + fitness - fatigue and, unless
// wantSessions is negative, the session count.
func (t TwinState) Check(wantSessions int) error {
	want := t.Params.P0 + t.State.Fitness - t.State.Fatigue
	if math.Abs(t.State.Performance-want) > roundingTolerance {
		return fmt.Errorf("%w: %s performance %.1f, want %.1f", ErrMismatch, t.AthleteID, t.State.Performance, want)
	}
	if wantSessions >= 0 && t.Sessions != wantSessions {
		return fmt.Errorf("%w: %s has %d sessions, want %d", ErrMismatch, t.AthleteID, t.Sessions, wantSessions)
	}
	if t.State.Fitness < 0 || t.State.Fatigue < 0 {
		return fmt.Errorf("%w: %s has negative accumulators", ErrMismatch, t.AthleteID)
	}
	return nil
}

type recommendationsResponse struct {
	Status          string `json:"status"`
	Recommendations []struct {
		Type string `json:"type"`
	} `json:"recommendations"`
}

func verify(ctx context.Context, client *Client, athletes []Athlete, stats *Stats) error {
	var errs []error
	for _, a := range athletes {
		var t TwinState
		if _, err := client.Do(ctx, http.MethodGet, "/twins/"+a.ID, nil, &t); err != nil {
			errs = append(errs, fmt.Errorf("get %s: %w", a.ID, err))
			continue
		}
		want := len(a.Sessions)
		if stats.SessionsFailed > 0 {
			want = -1
		}
		if err := t.Check(want); err != nil {
			errs = append(errs, err)
			continue
		}
		stats.TwinsVerified++

		var rec recommendationsResponse
		if _, err := client.Do(ctx, http.MethodGet, "/twins/"+a.ID+"/recommendations", nil, &rec); err != nil {
			errs = append(errs, fmt.Errorf("recommendations %s: %w", a.ID, err))
			continue
		}
		if rec.Status == "" {
			errs = append(errs, fmt.Errorf("%w: %s recommendations carry no status", ErrMismatch, a.ID))
			continue
		}
		stats.Recommendations++
	}
	return errors.Join(errs...)
}
