package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	apihttp "lantern-backend/internal/api/http"
	"lantern-backend/internal/audit"
	"lantern-backend/internal/auth"
	decayapp "lantern-backend/internal/decay/application"
	"lantern-backend/internal/gameerr"
)

// Handler serves /api/v1/lantern/decay.
type Handler struct {
	scheduler *decayapp.Scheduler
	guard     auth.Guard
	audit     audit.Logger
}

type intervalRequest struct {
	IntervalSeconds *int `json:"interval_seconds"`
}

type intervalResponse struct {
	IntervalSeconds int  `json:"interval_seconds"`
	Running         bool `json:"running"`
}

// NewHandler constructs a handler. auditLogger may be nil.
func NewHandler(scheduler *decayapp.Scheduler, guard auth.Guard, auditLogger audit.Logger) (*Handler, error) {
	if scheduler == nil {
		return nil, errors.New("decay handler: nil scheduler")
	}
	if guard == nil {
		return nil, errors.New("decay handler: nil guard")
	}
	if auditLogger == nil {
		auditLogger = audit.Nop{}
	}
	return &Handler{scheduler: scheduler, guard: guard, audit: auditLogger}, nil
}

// ServeHTTP handles PUT with {"interval_seconds": N}; 0 disables decay.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	h.guard.Require(auth.CommandSetDecayInterval, http.HandlerFunc(h.handleSet)).ServeHTTP(w, r)
}

func (h *Handler) handleSet(w http.ResponseWriter, r *http.Request) {
	var req intervalRequest
	if err := apihttp.DecodeJSON(r, &req); err != nil {
		apihttp.WriteError(w, err)
		return
	}
	if req.IntervalSeconds == nil || *req.IntervalSeconds < 0 {
		apihttp.WriteError(w, gameerr.InvalidData("interval_seconds must be zero or positive"))
		return
	}
	if err := h.scheduler.Reconfigure(time.Duration(*req.IntervalSeconds) * time.Second); err != nil {
		apihttp.WriteError(w, err)
		return
	}

	identity, _ := auth.IdentityFromContext(r.Context())
	_ = h.audit.Log(r.Context(), audit.Entry{
		Actor:        identity.UserID,
		Role:         string(identity.Role),
		Action:       audit.ActionDecayInterval,
		ResourceType: "decay",
		ResourceID:   strconv.Itoa(*req.IntervalSeconds),
		Metadata:     audit.Metadata(req),
	})

	apihttp.WriteJSON(w, http.StatusOK, intervalResponse{
		IntervalSeconds: int(h.scheduler.Interval() / time.Second),
		Running:         h.scheduler.Running(),
	})
}
