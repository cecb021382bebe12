// Package model contains domain models passed between layers.
package model

import "time"

// Event is an ingestion request flowing through the queue to the worker
// that owns the athlete.
type Event struct {
	EventID    string    // athleteID/sessionID, used for idempotency
	AthleteID  string    // twin owning the session
	Session    Workout   // session to apply
	ReceivedAt time.Time // enqueue instant
}
