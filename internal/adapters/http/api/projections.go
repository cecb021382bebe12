package api

import (
	"net/http"

	"github.com/gorilla/mux"

	service "github.com/okian/twin/internal/app"
	"github.com/okian/twin/internal/domain/model"
)

type simulateRequest struct {
	Plan      []workoutRequest `json:"plan"`
	Days      int              `json:"days,omitempty"`
	Reference string           `json:"reference,omitempty"`
}

type optimizeRequest struct {
	TargetDate  string           `json:"target_date"`
	Reference   string           `json:"reference,omitempty"`
	CurrentPlan []workoutRequest `json:"current_plan,omitempty"`
}

type compareRequest struct {
	Scenarios []scenarioRequest `json:"scenarios"`
	Reference string            `json:"reference,omitempty"`
}

type simulateResponse struct {
	AthleteID  string                `json:"athlete_id"`
	Simulation []model.SimulationDay `json:"simulation"`
}

// ProjectionHandler handles simulate, optimize, compare and advise requests.
type ProjectionHandler struct {
	deps ProjectionDependencies
}

// NewProjectionHandler creates a new projection handler.
func NewProjectionHandler(deps ProjectionDependencies) *ProjectionHandler {
	return &ProjectionHandler{deps: deps}
}

// HandleSimulate handles POST /twins/{id}/simulate requests.
func (h *ProjectionHandler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	const op = "api.simulate"
	var req simulateRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	plan, err := toPlan(req.Plan)
	if err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	ref, err := parseTime(req.Reference)
	if err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	id := mux.Vars(r)["id"]
	run, err := h.deps.Simulate(r.Context(), id, service.SimulateRequest{Plan: plan, Days: req.Days, Reference: ref})
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, simulateResponse{AthleteID: id, Simulation: run})
}

// HandleOptimize handles POST /twins/{id}/optimize requests.
func (h *ProjectionHandler) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	const op = "api.optimize"
	var req optimizeRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	target, err := parseTime(req.TargetDate)
	if err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	ref, err := parseTime(req.Reference)
	if err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	current, err := toPlan(req.CurrentPlan)
	if err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.OptimizePeaking(r.Context(), mux.Vars(r)["id"], service.OptimizeRequest{
		Target:      target,
		Reference:   ref,
		CurrentPlan: current,
	})
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleCompare handles POST /twins/{id}/compare requests.
func (h *ProjectionHandler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "api.compare"
	var req compareRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	scenarios, err := toScenarios(req.Scenarios)
	if err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	ref, err := parseTime(req.Reference)
	if err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.CompareScenarios(r.Context(), mux.Vars(r)["id"], service.CompareRequest{Scenarios: scenarios, Reference: ref})
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleRecommendations handles GET /twins/{id}/recommendations requests.
func (h *ProjectionHandler) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	const op = "api.recommendations"
	report, err := h.deps.Recommendations(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}
