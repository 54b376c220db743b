package apihttp

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"lantern-backend/internal/auth"
	"lantern-backend/internal/gameerr"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteJSON encodes value with the given status.
func WriteJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// WriteError maps the error taxonomy to an HTTP response.
func WriteError(w http.ResponseWriter, err error) {
	status, code := StatusFor(err)
	message := "internal error"
	if status < http.StatusInternalServerError {
		message = err.Error()
	}
	WriteJSON(w, status, errorBody{Error: code, Message: message})
}

// StatusFor resolves the HTTP status and error code for err.
func StatusFor(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, gameerr.ErrInvalidData):
		return http.StatusBadRequest, "InvalidData"
	case errors.Is(err, gameerr.ErrUnauthorized), errors.Is(err, auth.ErrUnauthorized), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, gameerr.ErrNotAllowed), errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden, "NotAllowed"
	case errors.Is(err, gameerr.ErrDoesNotExist):
		return http.StatusNotFound, "DoesNotExist"
	case errors.Is(err, gameerr.ErrConflict):
		return http.StatusConflict, "Conflict"
	case errors.Is(err, gameerr.ErrExternal):
		return http.StatusBadGateway, "External"
	case errors.Is(err, gameerr.ErrDatabase):
		return http.StatusInternalServerError, "Database"
	default:
		return http.StatusInternalServerError, "Internal"
	}
}

// DecodeJSON decodes a request body strictly. Any shape violation is InvalidData.
func DecodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return gameerr.InvalidData("empty body")
	}
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return gameerr.InvalidData("empty body")
		}
		return gameerr.InvalidData(err.Error())
	}
	return nil
}

// IntQuery parses an optional integer query parameter.
func IntQuery(r *http.Request, key string) (int, bool, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, gameerr.InvalidData(key + " must be an integer")
	}
	return parsed, true, nil
}
