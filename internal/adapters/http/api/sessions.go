package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	service "github.com/okian/twin/internal/app"
	"github.com/okian/twin/internal/domain/model"
)

type appliedResponse struct {
	Status    string             `json:"status"`
	SessionID string             `json:"session_id,omitempty"`
	Duplicate bool               `json:"duplicate"`
	Entry     model.HistoryEntry `json:"entry"`
	Defaulted []string           `json:"defaulted,omitempty"`
}

// SessionsHandler handles session ingestion.
type SessionsHandler struct {
	deps SessionDependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps SessionDependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// HandlePostSession handles POST /twins/{id}/sessions requests. Sessions are
// queued (202) unless ?sync=true asks for the update to be applied inline.
func (h *SessionsHandler) HandlePostSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_session"
	sync, _ := strconv.ParseBool(r.URL.Query().Get("sync"))

	var req workoutRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	session, err := req.toWorkout()
	if err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	id := mux.Vars(r)["id"]

	if sync {
		applied, dup, err := h.deps.RecordSessionSync(r.Context(), id, session)
		if err != nil {
			fail(w, Wrap(op, err))
			return
		}
		if dup {
			writeJSON(w, http.StatusOK, service.IngestResult{Status: service.StatusDuplicate, SessionID: session.ID, Duplicate: true})
			return
		}
		writeJSON(w, http.StatusOK, appliedResponse{
			Status:    "applied",
			SessionID: session.ID,
			Entry:     applied.Entry,
			Defaulted: applied.Defaulted,
		})
		return
	}

	res, err := h.deps.RecordSession(r.Context(), id, session)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	status := http.StatusAccepted
	if res.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}
