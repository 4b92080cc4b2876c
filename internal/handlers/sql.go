package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/crucial707/sqlgate/internal/db"
	"github.com/crucial707/sqlgate/internal/gateway"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// StatementExecutor runs one decoded statement. *gateway.Executor implements it.
type StatementExecutor interface {
	Execute(ctx context.Context, st gateway.Statement) (*gateway.Result, error)
}

// ==========================
// SQLHandler
// ==========================
type SQLHandler struct {
	Executor StatementExecutor
	// ExposeErrors includes the engine's error text in query error bodies.
	ExposeErrors bool
}

type sqlReadResponse struct {
	Status  string           `json:"status"`
	Columns []string         `json:"columns"`
	Data    []map[string]any `json:"data"`
}

type sqlWriteResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	AffectedRows int64  `json:"affected_rows"`
}

type sqlErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

// ==========================
// Execute SQL
// ==========================
// Execute serves GET /sql?query=<url-encoded base64>[&params=<url-encoded base64 JSON>].
func (h *SQLHandler) Execute(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("query") {
		JSONError(w, r, http.StatusUnprocessableEntity, "validation_error",
			[]FieldError{{Field: "query", Message: "field required"}})
		return
	}

	text, err := gateway.Decode(q.Get("query"))
	if err != nil {
		h.writeGatewayError(w, r, err)
		return
	}
	params, err := gateway.DecodeParams(q.Get("params"))
	if err != nil {
		h.writeGatewayError(w, r, err)
		return
	}

	res, err := h.Executor.Execute(r.Context(), gateway.Statement{Text: text, Params: params})
	if err != nil {
		h.writeGatewayError(w, r, err)
		return
	}

	if res.Kind == gateway.Read {
		writeResult(w, r, http.StatusOK, sqlReadResponse{Status: "success", Columns: res.Columns, Data: res.Rows})
		return
	}
	writeResult(w, r, http.StatusOK, sqlWriteResponse{
		Status:       "success",
		Message:      "Query executed successfully",
		AffectedRows: res.RowsAffected,
	})
}

func (h *SQLHandler) writeGatewayError(w http.ResponseWriter, r *http.Request, err error) {
	var gwErr *gateway.Error
	if !errors.As(err, &gwErr) || gwErr.Kind == gateway.KindInternal {
		slog.Error("sql gateway failure",
			"request_id", chimw.GetReqID(r.Context()),
			"error", err)
		JSONError(w, r, http.StatusInternalServerError, ErrMessageInternal, "unexpected failure while executing the statement")
		return
	}

	body := sqlErrorResponse{Status: "error", Error: string(gwErr.Kind), Detail: gwErr.Message}
	status := http.StatusBadRequest

	switch gwErr.Kind {
	case gateway.KindForbidden:
		status = http.StatusForbidden
	case gateway.KindQuery:
		body.Code = gwErr.Code
		if h.ExposeErrors && gwErr.Err != nil {
			body.Detail = gwErr.Message + ": " + engineMessage(gwErr.Err)
		}
	}

	JSON(w, status, body)
}

// engineMessage returns the driver's own error text.
func engineMessage(err error) string {
	var dbe *db.DBError
	if errors.As(err, &dbe) && dbe.Cause != nil {
		return dbe.Cause.Error()
	}
	return err.Error()
}
