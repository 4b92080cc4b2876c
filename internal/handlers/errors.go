package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/crucial707/sqlgate/internal/db"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// ErrMessageInternal is the generic message for 500 responses. Do not expose internal details to clients.
const ErrMessageInternal = "internal server error"

// ErrorResponse is the body of every non-gateway error response.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail any    `json:"detail"`
	Path   string `json:"path"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("encode response", "error", err)
		writeBody(w, http.StatusInternalServerError, []byte(`{"error":"`+ErrMessageInternal+`"}`))
		return
	}
	writeBody(w, status, body)
}

// writeResult sends v, or a 500 error body when v cannot be encoded as JSON
// (for example a NaN or infinite float read from the database).
func writeResult(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("encode response",
			"request_id", chimw.GetReqID(r.Context()),
			"path", r.URL.Path,
			"error", err)
		JSONError(w, r, http.StatusInternalServerError, ErrMessageInternal, "result could not be encoded as JSON")
		return
	}
	writeBody(w, status, body)
}

func writeBody(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		slog.Warn("write response", "error", err)
	}
}

// JSONError sends {error, detail, path}.
func JSONError(w http.ResponseWriter, r *http.Request, status int, message string, detail any) {
	JSON(w, status, ErrorResponse{Error: message, Detail: detail, Path: r.URL.Path})
}

// writeDBError maps a repository error onto the response. Not-found is
// always 404; any other database failure gets failStatus, which differs
// per operation (400 for mutations, 500 for reads).
func writeDBError(w http.ResponseWriter, r *http.Request, err error, failStatus int) {
	if errors.Is(err, db.ErrNotFound) {
		JSONError(w, r, http.StatusNotFound, "not_found", "User not found")
		return
	}

	slog.Error("database error",
		"request_id", chimw.GetReqID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"error", err)

	if failStatus >= http.StatusInternalServerError {
		JSONError(w, r, failStatus, ErrMessageInternal, "database error")
		return
	}
	JSONError(w, r, failStatus, "database_error", dbErrorDetail(err))
}

// dbErrorDetail describes a database failure without echoing driver text.
func dbErrorDetail(err error) string {
	switch {
	case errors.Is(err, db.ErrDuplicateKey):
		return "a user with these values already exists"
	case errors.Is(err, db.ErrConstraint):
		return "constraint violation"
	case errors.Is(err, db.ErrTimeout):
		return "database operation timed out"
	case errors.Is(err, db.ErrConnection):
		return "database unavailable"
	default:
		return "database error"
	}
}
