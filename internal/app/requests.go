package service

import (
	"time"

	"github.com/okian/twin/internal/domain/model"
	"github.com/okian/twin/internal/domain/scenario"
)

// CreateTwinRequest describes a new twin. History is replayed before the twin
// is stored; CreatedAt defaults to the service clock.
type CreateTwinRequest struct {
	Profile   model.ProfileInput
	History   []model.Workout
	CreatedAt time.Time
}

// Ingest outcomes.
const (
	StatusAccepted  = "accepted"
	StatusDuplicate = "duplicate"
)

// IngestResult reports what happened to a submitted session.
type IngestResult struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
	Duplicate bool   `json:"duplicate"`
}

// SimulateRequest projects a plan forward. Days defaults to the service
// scenario horizon and Reference to the service clock.
type SimulateRequest struct {
	Plan      model.Plan
	Days      int
	Reference time.Time
}

// OptimizeRequest searches a taper toward Target.
type OptimizeRequest struct {
	Target      time.Time
	Reference   time.Time
	CurrentPlan model.Plan
}

// CompareRequest ranks scenarios.
type CompareRequest struct {
	Scenarios []scenario.Scenario
	Reference time.Time
}

// Stats is a point-in-time view of the service.
type Stats struct {
	Started          bool  `json:"started"`
	Twins            int   `json:"twins"`
	Workers          int   `json:"workers"`
	QueueLength      int   `json:"queue_length"`
	QueueCapacity    int   `json:"queue_capacity"`
	DedupeSize       int64 `json:"dedupe_size"`
	SessionsApplied  int64 `json:"sessions_applied"`
	SessionsRejected int64 `json:"sessions_rejected"`
	MaxHorizonDays   int   `json:"max_horizon_days"`
}
