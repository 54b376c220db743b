package http

import (
	"errors"
	"net/http"

	apihttp "lantern-backend/internal/api/http"
	"lantern-backend/internal/auth"
	"lantern-backend/internal/gameerr"
	hackapp "lantern-backend/internal/hacking/application"
)

// Handler serves /api/v1/lantern/hack.
type Handler struct {
	service *hackapp.Service
	guard   auth.Guard
}

type guessRequest struct {
	Password       string `json:"password"`
	BoostingSignal *bool  `json:"boostingSignal"`
}

// NewHandler constructs a handler. GET requires GetLanternHack and POST requires HackLantern.
func NewHandler(service *hackapp.Service, guard auth.Guard) (*Handler, error) {
	if service == nil {
		return nil, errors.New("hack handler: nil service")
	}
	if guard == nil {
		return nil, errors.New("hack handler: nil guard")
	}
	return &Handler{service: service, guard: guard}, nil
}

// ServeHTTP dispatches by method.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.guard.Require(auth.CommandGetLanternHack, http.HandlerFunc(h.handleGet)).ServeHTTP(w, r)
	case http.MethodPost:
		h.guard.Require(auth.CommandHackLantern, http.HandlerFunc(h.handleGuess)).ServeHTTP(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	stationID, ok, err := apihttp.IntQuery(r, "station_id")
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	if !ok {
		apihttp.WriteError(w, gameerr.InvalidData("station_id is required"))
		return
	}
	view, err := h.service.RequestHack(r.Context(), auth.UserIDFromContext(r.Context()), stationID)
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessRequest
	if err := apihttp.DecodeJSON(r, &req); err != nil {
		apihttp.WriteError(w, err)
		return
	}
	if req.BoostingSignal == nil {
		apihttp.WriteError(w, gameerr.InvalidData("boostingSignal is required"))
		return
	}
	outcome, err := h.service.SubmitGuess(r.Context(), hackapp.GuessRequest{
		Owner:          auth.UserIDFromContext(r.Context()),
		Password:       req.Password,
		BoostingSignal: *req.BoostingSignal,
	})
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, outcome)
}
