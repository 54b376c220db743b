package http

import (
	"errors"
	"net/http"

	apihttp "lantern-backend/internal/api/http"
	stationapp "lantern-backend/internal/stations/application"
)

// Handler serves the public station list.
type Handler struct {
	service *stationapp.Service
}

// NewHandler constructs a handler.
func NewHandler(service *stationapp.Service) (*Handler, error) {
	if service == nil {
		return nil, errors.New("stations handler: nil service")
	}
	return &Handler{service: service}, nil
}

// ServeHTTP handles GET /api/v1/lantern/stations.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	list, err := h.service.ListStations(r.Context())
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, list)
}
