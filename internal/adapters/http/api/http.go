// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/okian/twin/internal/adapters/repository"
	service "github.com/okian/twin/internal/app"
	"github.com/okian/twin/internal/domain/advice"
	"github.com/okian/twin/internal/domain/model"
	"github.com/okian/twin/internal/domain/scenario"
	"github.com/okian/twin/internal/domain/simulation"
	"github.com/okian/twin/internal/domain/taper"
	"github.com/okian/twin/internal/domain/twin"
)

const maxBodyBytes = 1 << 20

// TwinDependencies manage the twin lifecycle.
type TwinDependencies interface {
	CreateTwin(ctx context.Context, req service.CreateTwinRequest) (*twin.Twin, error)
	GetTwin(ctx context.Context, id string) (*twin.Twin, error)
	DeleteTwin(ctx context.Context, id string) error
	Recalibrate(ctx context.Context, id string, in model.ProfileInput) (*twin.Twin, error)
	History(ctx context.Context, id string, limit int) ([]model.HistoryEntry, error)
}

// SessionDependencies ingest logged sessions.
type SessionDependencies interface {
	RecordSession(ctx context.Context, athleteID string, session model.Workout) (service.IngestResult, error)
	RecordSessionSync(ctx context.Context, athleteID string, session model.Workout) (twin.Applied, bool, error)
}

// ProjectionDependencies run the read-only engines against a twin.
type ProjectionDependencies interface {
	Simulate(ctx context.Context, id string, req service.SimulateRequest) ([]model.SimulationDay, error)
	OptimizePeaking(ctx context.Context, id string, req service.OptimizeRequest) (taper.Result, error)
	CompareScenarios(ctx context.Context, id string, req service.CompareRequest) (scenario.Result, error)
	Recommendations(ctx context.Context, id string) (advice.Report, error)
}

// Dependencies required by HTTP handlers.
type Dependencies interface {
	TwinDependencies
	SessionDependencies
	ProjectionDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	twinsHandler      *TwinsHandler
	sessionsHandler   *SessionsHandler
	projectionHandler *ProjectionHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(deps),
		twinsHandler:      NewTwinsHandler(deps),
		sessionsHandler:   NewSessionsHandler(deps),
		projectionHandler: NewProjectionHandler(deps),
	}
}

type route struct {
	name    string
	method  string
	path    string
	handler http.HandlerFunc
}

func (s *Server) routes() []route {
	return []route{
		{"healthz", http.MethodGet, "/healthz", s.healthHandler.HandleHealth},
		{"stats", http.MethodGet, "/stats", s.statsHandler.HandleStats},

		{"twins_create", http.MethodPost, "/twins", s.twinsHandler.HandleCreate},
		{"twins_get", http.MethodGet, "/twins/{id}", s.twinsHandler.HandleGet},
		{"twins_delete", http.MethodDelete, "/twins/{id}", s.twinsHandler.HandleDelete},
		{"recalibrate", http.MethodPost, "/twins/{id}/recalibrate", s.twinsHandler.HandleRecalibrate},
		{"history", http.MethodGet, "/twins/{id}/history", s.twinsHandler.HandleHistory},

		{"sessions", http.MethodPost, "/twins/{id}/sessions", s.sessionsHandler.HandlePostSession},

		{"simulate", http.MethodPost, "/twins/{id}/simulate", s.projectionHandler.HandleSimulate},
		{"optimize", http.MethodPost, "/twins/{id}/optimize", s.projectionHandler.HandleOptimize},
		{"compare", http.MethodPost, "/twins/{id}/compare", s.projectionHandler.HandleCompare},
		{"recommendations", http.MethodGet, "/twins/{id}/recommendations", s.projectionHandler.HandleRecommendations},
	}
}

// Register attaches all HTTP routes to router and instruments every route
// the router matches.
func (s *Server) Register(_ context.Context, router *mux.Router) {
	for _, rt := range s.routes() {
		router.HandleFunc(rt.path, rt.handler).Methods(rt.method).Name(rt.name)
	}
	router.Use(Instrument)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail writes err with the status and code of its kind.
func fail(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}

// decode reads a JSON body into v. An empty body leaves v untouched; a body
// over maxBodyBytes fails with ErrTooLarge.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: body exceeds %d bytes", ErrTooLarge, tooLarge.Limit)
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// classify maps an upstream error onto an API kind.
func classify(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrAlreadyExists),
		errors.Is(err, repository.ErrCapacityExceeded),
		errors.Is(err, twin.ErrNonMonotonicTime):
		return ErrConflict
	case errors.Is(err, service.ErrBackpressure):
		return ErrBackpressure
	case errors.Is(err, service.ErrNotStarted):
		return ErrUnavailable
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrTooManyScenarios),
		errors.Is(err, twin.ErrMissingDate),
		errors.Is(err, simulation.ErrInvalidHorizon),
		errors.Is(err, simulation.ErrHorizonTooLong),
		errors.Is(err, scenario.ErrUnnamedScenario),
		errors.Is(err, taper.ErrInvalidStrategy):
		return ErrBadRequest
	default:
		return nil
	}
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, twin.ErrNonMonotonicTime):
		return http.StatusConflict, "non_monotonic"
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
