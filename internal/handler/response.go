package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON or writeError so the API has one
// success shape and one error shape:
//
//	{"error": "not_found", "message": "Question not found."}
//
// The "error" field is the machine-readable apperror.Code, "message" is
// safe to show to a user.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/qius-alx/social-network/internal/apperror"
	"github.com/qius-alx/social-network/internal/auth"
	"github.com/qius-alx/social-network/internal/model"
	"github.com/qius-alx/social-network/internal/service"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// MessageResponse is the body of endpoints that only confirm an action.
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are gone already; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status.
//
// errors.Is walks the whole chain, so a service returning
// fmt.Errorf("creating answer: %w", apperror.NotFoundMessage(...)) still
// lands on 404. Anything that is not an *apperror.AppError is a 500 with a
// generic message: raw errors can carry SQL or file paths.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		status = http.StatusConflict
	}

	code := string(appErr.Code)
	if code == "" {
		code = "internal_error"
	}
	writeJSON(w, status, ErrorResponse{Error: code, Message: appErr.Message})
}

// decodeJSON reads a JSON body into v. Bodies over 1 MiB and malformed JSON
// are validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperror.ValidationFailed("", "Invalid JSON body")
	}
	return nil
}

// pageFromQuery reads ?page and ?limit. Unparseable values become zero and
// the service substitutes its defaults.
func pageFromQuery(r *http.Request) service.Page {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return service.Page{Page: page, Limit: limit}
}

// caller returns the authenticated profile. Routes behind auth.RequireAuth
// always have one; a missing profile means the route was mounted without it.
func caller(w http.ResponseWriter, r *http.Request) (*model.Profile, bool) {
	p, ok := auth.ProfileFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated())
		return nil, false
	}
	return p, true
}
