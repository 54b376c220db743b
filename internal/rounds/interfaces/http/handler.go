package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	apihttp "lantern-backend/internal/api/http"
	"lantern-backend/internal/auth"
	"lantern-backend/internal/gameerr"
	roundapp "lantern-backend/internal/rounds/application"
	rounds "lantern-backend/internal/rounds/domain"
)

const (
	roundsPath = "/api/v1/lantern/rounds"
	teamsPath  = "/api/v1/lantern/teams"
)

// Handler serves round and team endpoints.
type Handler struct {
	service *roundapp.Service
	guard   auth.Guard
	now     func() time.Time
}

// NewHandler constructs a handler.
func NewHandler(service *roundapp.Service, guard auth.Guard) (*Handler, error) {
	if service == nil {
		return nil, errors.New("rounds handler: nil service")
	}
	if guard == nil {
		return nil, errors.New("rounds handler: nil guard")
	}
	return &Handler{service: service, guard: guard, now: func() time.Time { return time.Now().UTC() }}, nil
}

// ServeHTTP handles /api/v1/lantern/rounds and /api/v1/lantern/teams with subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == roundsPath || strings.HasPrefix(path, roundsPath+"/"):
		h.routeRounds(w, r, strings.TrimPrefix(path, roundsPath))
	case path == teamsPath || strings.HasPrefix(path, teamsPath+"/"):
		h.routeTeams(w, r, strings.TrimPrefix(path, teamsPath))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) routeRounds(w http.ResponseWriter, r *http.Request, rest string) {
	switch {
	case rest == "" && r.Method == http.MethodGet:
		h.guard.Require(auth.CommandGetRound, http.HandlerFunc(h.handleGetRounds)).ServeHTTP(w, r)
	case rest == "" && r.Method == http.MethodPost:
		h.guard.Require(auth.CommandCreateRound, http.HandlerFunc(h.handleCreateRound)).ServeHTTP(w, r)
	case rest == "/active" && r.Method == http.MethodGet:
		h.guard.Require(auth.CommandGetRound, http.HandlerFunc(h.handleActiveRound)).ServeHTTP(w, r)
	case rest == "/end" && r.Method == http.MethodPost:
		h.guard.Require(auth.CommandEndRound, http.HandlerFunc(h.handleEndRound)).ServeHTTP(w, r)
	case strings.HasSuffix(rest, "/start") && r.Method == http.MethodPost:
		id := strings.TrimSuffix(strings.TrimPrefix(rest, "/"), "/start")
		h.guard.Require(auth.CommandStartRound, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.handleStartRound(w, r, id)
		})).ServeHTTP(w, r)
	case rest == "" || rest == "/active" || rest == "/end" || strings.HasSuffix(rest, "/start"):
		w.WriteHeader(http.StatusMethodNotAllowed)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) routeTeams(w http.ResponseWriter, r *http.Request, rest string) {
	switch {
	case rest == "" && r.Method == http.MethodGet:
		h.guard.Require(auth.CommandGetTeams, http.HandlerFunc(h.handleListTeams)).ServeHTTP(w, r)
	case rest == "" && r.Method == http.MethodPost:
		h.guard.Require(auth.CommandCreateTeam, http.HandlerFunc(h.handleCreateTeam)).ServeHTTP(w, r)
	case (rest == "/export.xlsx" || rest == "/export.pdf") && r.Method == http.MethodGet:
		format := strings.TrimPrefix(rest, "/export.")
		h.guard.Require(auth.CommandExportTeams, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.handleExport(w, r, format)
		})).ServeHTTP(w, r)
	case rest != "" && !strings.Contains(strings.TrimPrefix(rest, "/"), "/") && r.Method == http.MethodPost:
		shortName := strings.TrimPrefix(rest, "/")
		h.guard.Require(auth.CommandUpdateTeam, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.handleUpdateTeam(w, r, shortName)
		})).ServeHTTP(w, r)
	case strings.Contains(strings.TrimPrefix(rest, "/"), "/"):
		w.WriteHeader(http.StatusNotFound)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleGetRounds(w http.ResponseWriter, r *http.Request) {
	value := r.URL.Query().Get("round_id")
	if value == "" {
		list, err := h.service.ListRounds(r.Context())
		if err != nil {
			apihttp.WriteError(w, err)
			return
		}
		apihttp.WriteJSON(w, http.StatusOK, list)
		return
	}
	roundID, err := parseRoundID(value)
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	round, err := h.service.GetRound(r.Context(), roundID)
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, round)
}

func (h *Handler) handleActiveRound(w http.ResponseWriter, r *http.Request) {
	round, err := h.service.ActiveRound(r.Context())
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, round)
}

func (h *Handler) handleCreateRound(w http.ResponseWriter, r *http.Request) {
	var input roundapp.RoundInput
	if err := apihttp.DecodeJSON(r, &input); err != nil {
		apihttp.WriteError(w, err)
		return
	}
	round, err := h.service.CreateRound(r.Context(), input)
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusCreated, round)
}

func (h *Handler) handleStartRound(w http.ResponseWriter, r *http.Request, id string) {
	roundID, err := parseRoundID(id)
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	round, err := h.service.StartRound(r.Context(), roundID)
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, round)
}

func (h *Handler) handleEndRound(w http.ResponseWriter, r *http.Request) {
	round, err := h.service.EndRound(r.Context())
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, round)
}

func (h *Handler) handleListTeams(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListTeams(r.Context())
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var team rounds.Team
	if err := apihttp.DecodeJSON(r, &team); err != nil {
		apihttp.WriteError(w, err)
		return
	}
	created, err := h.service.CreateTeam(r.Context(), team)
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdateTeam(w http.ResponseWriter, r *http.Request, shortName string) {
	var patch rounds.TeamPatch
	if err := apihttp.DecodeJSON(r, &patch); err != nil {
		apihttp.WriteError(w, err)
		return
	}
	team, err := h.service.UpdateTeam(r.Context(), shortName, patch)
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, team)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request, format string) {
	teams, err := h.service.ListTeams(r.Context())
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	round, err := h.service.ActiveRound(r.Context())
	if err != nil {
		if !errors.Is(err, gameerr.ErrDoesNotExist) {
			apihttp.WriteError(w, err)
			return
		}
		round = nil
	}

	var (
		data        []byte
		contentType string
	)
	switch format {
	case "pdf":
		data, err = BuildStandingsPDF(teams, round, h.now())
		contentType = "application/pdf"
	default:
		data, err = BuildStandingsXLSX(teams, round, h.now())
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		apihttp.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=\"standings."+format+"\"")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func parseRoundID(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, gameerr.InvalidData("round id must be a positive integer")
	}
	return id, nil
}
