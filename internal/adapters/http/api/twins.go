package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	service "github.com/okian/twin/internal/app"
	"github.com/okian/twin/internal/domain/model"
	"github.com/okian/twin/internal/domain/twin"
)

// profileRequest carries the optional athlete traits.
type profileRequest struct {
	TrainingAge         *float64 `json:"training_age,omitempty"`
	Age                 *float64 `json:"age,omitempty"`
	Cluster             string   `json:"cluster,omitempty"`
	BaselinePerformance *float64 `json:"baseline_performance,omitempty"`
}

func (p profileRequest) toInput(id string) model.ProfileInput {
	return model.ProfileInput{
		ID:                  id,
		TrainingAge:         p.TrainingAge,
		Age:                 p.Age,
		Cluster:             p.Cluster,
		BaselinePerformance: p.BaselinePerformance,
	}
}

// createTwinRequest mirrors the OpenAPI schema for POST /twins.
type createTwinRequest struct {
	AthleteID string `json:"athlete_id,omitempty"`
	profileRequest
	History   []workoutRequest `json:"history,omitempty"`
	CreatedAt string           `json:"created_at,omitempty"`
}

type profileResponse struct {
	TrainingAge         float64 `json:"training_age"`
	Age                 float64 `json:"age"`
	Cluster             string  `json:"cluster"`
	BaselinePerformance float64 `json:"baseline_performance"`
}

type stateResponse struct {
	Timestamp   string  `json:"timestamp"`
	Fitness     float64 `json:"fitness"`
	Fatigue     float64 `json:"fatigue"`
	Form        float64 `json:"form"`
	Performance float64 `json:"performance"`
}

type twinResponse struct {
	AthleteID string           `json:"athlete_id"`
	Profile   profileResponse  `json:"profile"`
	Params    model.Parameters `json:"params"`
	State     stateResponse    `json:"state"`
	Sessions  int              `json:"sessions"`
}

func newTwinResponse(t *twin.Twin) twinResponse {
	s := t.State
	return twinResponse{
		AthleteID: t.ID,
		Profile: profileResponse{
			TrainingAge:         t.Profile.TrainingAge,
			Age:                 t.Profile.Age,
			Cluster:             t.Profile.Cluster.String(),
			BaselinePerformance: t.Profile.BaselinePerformance,
		},
		Params: t.Params,
		State: stateResponse{
			Timestamp:   formatTime(s.Timestamp),
			Fitness:     model.Round(s.Fitness, 1),
			Fatigue:     model.Round(s.Fatigue, 1),
			Form:        model.Round(s.Form(), 1),
			Performance: model.Round(s.Performance, 1),
		},
		Sessions: len(t.History),
	}
}

// TwinsHandler handles twin lifecycle requests.
type TwinsHandler struct {
	deps TwinDependencies
}

// NewTwinsHandler creates a new twins handler.
func NewTwinsHandler(deps TwinDependencies) *TwinsHandler {
	return &TwinsHandler{deps: deps}
}

// HandleCreate handles POST /twins requests.
func (h *TwinsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_twin"
	var req createTwinRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	history, err := toPlan(req.History)
	if err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	createdAt, err := parseTime(req.CreatedAt)
	if err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	t, err := h.deps.CreateTwin(r.Context(), service.CreateTwinRequest{
		Profile:   req.toInput(strings.TrimSpace(req.AthleteID)),
		History:   history,
		CreatedAt: createdAt,
	})
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, newTwinResponse(t))
}

// HandleGet handles GET /twins/{id} requests.
func (h *TwinsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_twin"
	t, err := h.deps.GetTwin(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newTwinResponse(t))
}

// HandleDelete handles DELETE /twins/{id} requests.
func (h *TwinsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_twin"
	if err := h.deps.DeleteTwin(r.Context(), mux.Vars(r)["id"]); err != nil {
		fail(w, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRecalibrate handles POST /twins/{id}/recalibrate requests.
func (h *TwinsHandler) HandleRecalibrate(w http.ResponseWriter, r *http.Request) {
	const op = "api.recalibrate"
	var req profileRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	t, err := h.deps.Recalibrate(r.Context(), mux.Vars(r)["id"], req.toInput(""))
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newTwinResponse(t))
}

// HandleHistory handles GET /twins/{id}/history?limit=N requests.
func (h *TwinsHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.history"
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			fail(w, NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}
	entries, err := h.deps.History(r.Context(), mux.Vars(r)["id"], limit)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}
