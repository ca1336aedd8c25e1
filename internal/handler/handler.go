// Package handler contains chi HTTP handlers and middleware that translate
// HTTP requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Shivanand-hulikatti/event-admission/internal/auth"
	"github.com/Shivanand-hulikatti/event-admission/internal/model"
	"github.com/Shivanand-hulikatti/event-admission/internal/repository"
	"github.com/Shivanand-hulikatti/event-admission/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20 // 1 MB

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeDecodeError reports a body that could not be decoded.
func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
}

// pathID parses the {id} URL parameter. Malformed ids come back as 0,
// which every store reports as not found.
func pathID(r *http.Request) int64 {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// errorStatus maps a service-layer error to an HTTP status and a message
// that is safe to show the client. resource names the thing that was not
// found.
func errorStatus(err error, resource string) (int, string) {
	var verr *service.ValidationError
	var oerr *service.OwnershipError

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.As(err, &oerr):
		return http.StatusForbidden, oerr.Error()
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden, auth.ErrForbidden.Error()
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, auth.ErrInvalidCredentials.Error()
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, auth.ErrInvalidToken.Error()
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, auth.ErrUnauthenticated.Error()
	case errors.Is(err, repository.ErrAlreadyRegistered):
		return http.StatusBadRequest, "you are already registered for this event"
	case errors.Is(err, repository.ErrEventFull):
		return http.StatusBadRequest, "event is full"
	case errors.Is(err, repository.ErrEmailTaken):
		return http.StatusBadRequest, "email already registered"
	case errors.Is(err, repository.ErrNotRegistered):
		return http.StatusNotFound, "you are not registered for this event"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, resource + " not found"
	case errors.Is(err, repository.ErrCapacityBelowOccupancy):
		return http.StatusConflict, "max_attendees cannot be lower than the current number of registrations"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// writeServiceError writes the mapped error response. Server errors are
// logged with the request's logger and never leak their cause.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, resource string) {
	status, msg := errorStatus(err, resource)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	writeError(w, status, msg)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
