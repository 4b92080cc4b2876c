package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/sqlgate/internal/db"
	"github.com/crucial707/sqlgate/internal/gateway"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLHandler(t *testing.T, policy gateway.Policy, expose bool) (*SQLHandler, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })

	ex := gateway.NewExecutor(sqlx.NewDb(raw, db.DriverPostgres), gateway.Options{
		Policy: policy,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return &SQLHandler{Executor: ex, ExposeErrors: expose}, mock
}

func sqlRequest(statement string, params map[string]any) *http.Request {
	target := "/sql?query=" + gateway.Encode(statement)
	if params != nil {
		enc, _ := gateway.EncodeParams(params)
		target += "&params=" + enc
	}
	return httptest.NewRequest("GET", target, nil)
}

func decodeMap(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}

var openPolicy = gateway.Policy{Enabled: true}

func TestSQLHandler_Read(t *testing.T) {
	h, mock := newSQLHandler(t, openPolicy, true)

	mock.ExpectBegin()
	mock.ExpectQuery("select id, email from users").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).AddRow(1, "a@x.com"))
	mock.ExpectRollback()

	rr := httptest.NewRecorder()
	h.Execute(rr, sqlRequest("select id, email from users", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeMap(t, rr)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, []any{"id", "email"}, body["columns"])
	assert.Equal(t, []any{map[string]any{"id": float64(1), "email": "a@x.com"}}, body["data"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLHandler_ReadNoRows(t *testing.T) {
	h, mock := newSQLHandler(t, openPolicy, true)

	mock.ExpectBegin()
	mock.ExpectQuery("select").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	rr := httptest.NewRecorder()
	h.Execute(rr, sqlRequest("SELECT id FROM users WHERE false", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []any{}, decodeMap(t, rr)["data"])
}

func TestSQLHandler_Write(t *testing.T) {
	h, mock := newSQLHandler(t, openPolicy, true)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users SET username = \$1 WHERE id = \$2`).
		WithArgs("z", int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rr := httptest.NewRecorder()
	h.Execute(rr, sqlRequest("UPDATE users SET username = :name WHERE id = :id", map[string]any{"name": "z", "id": 2}))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decodeMap(t, rr)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "Query executed successfully", body["message"])
	assert.Equal(t, float64(1), body["affected_rows"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLHandler_MalformedPayloadNeverTouchesDatabase(t *testing.T) {
	for _, raw := range []string{"", "c2VsZWN0IDE", "not*base64", url.QueryEscape("////"), gateway.Encode("  ")} {
		h, mock := newSQLHandler(t, openPolicy, true)

		rr := httptest.NewRecorder()
		h.Execute(rr, httptest.NewRequest("GET", "/sql?query="+raw, nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code, raw)
		body := decodeMap(t, rr)
		assert.Equal(t, "error", body["status"])
		assert.Equal(t, "decoding_error", body["error"])
		assert.NoError(t, mock.ExpectationsWereMet())
	}
}

func TestSQLHandler_BadParams(t *testing.T) {
	h, mock := newSQLHandler(t, openPolicy, true)

	target := "/sql?query=" + gateway.Encode("select 1") + "&params=" + gateway.Encode(`{"a":[1]}`)
	rr := httptest.NewRecorder()
	h.Execute(rr, httptest.NewRequest("GET", target, nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "decoding_error", decodeMap(t, rr)["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLHandler_MissingQuery(t *testing.T) {
	h, _ := newSQLHandler(t, openPolicy, true)

	rr := httptest.NewRecorder()
	h.Execute(rr, httptest.NewRequest("GET", "/sql", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "/sql", decodeErrorBody(t, rr).Path)
}

func TestSQLHandler_QueryError(t *testing.T) {
	engineErr := &pq.Error{Code: "42P01", Message: `relation "nope" does not exist`}

	t.Run("exposed", func(t *testing.T) {
		h, mock := newSQLHandler(t, openPolicy, true)
		mock.ExpectBegin()
		mock.ExpectExec("insert").WillReturnError(engineErr)
		mock.ExpectRollback()

		rr := httptest.NewRecorder()
		h.Execute(rr, sqlRequest("insert into nope values (1)", nil))

		require.Equal(t, http.StatusBadRequest, rr.Code)
		body := decodeMap(t, rr)
		assert.Equal(t, "query_error", body["error"])
		assert.Equal(t, "42P01", body["code"])
		assert.Contains(t, body["detail"], `relation "nope" does not exist`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("hidden", func(t *testing.T) {
		h, mock := newSQLHandler(t, openPolicy, false)
		mock.ExpectBegin()
		mock.ExpectExec("insert").WillReturnError(engineErr)
		mock.ExpectRollback()

		rr := httptest.NewRecorder()
		h.Execute(rr, sqlRequest("insert into nope values (1)", nil))

		require.Equal(t, http.StatusBadRequest, rr.Code)
		body := decodeMap(t, rr)
		assert.Equal(t, "statement failed", body["detail"])
		assert.Equal(t, "42P01", body["code"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSQLHandler_Forbidden(t *testing.T) {
	h, mock := newSQLHandler(t, gateway.Policy{Enabled: true, Allow: []string{"select"}}, true)

	rr := httptest.NewRecorder()
	h.Execute(rr, sqlRequest("DROP TABLE users", nil))

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "forbidden", decodeMap(t, rr)["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

type stubExecutor struct {
	res *gateway.Result
	err error
}

func (s stubExecutor) Execute(context.Context, gateway.Statement) (*gateway.Result, error) {
	return s.res, s.err
}

func TestSQLHandler_InternalError(t *testing.T) {
	h := &SQLHandler{Executor: stubExecutor{err: errors.New("boom")}, ExposeErrors: true}

	rr := httptest.NewRecorder()
	h.Execute(rr, sqlRequest("select 1", nil))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	body := decodeErrorBody(t, rr)
	assert.Equal(t, ErrMessageInternal, body.Error)
	assert.NotContains(t, body.Detail, "boom")
	assert.Equal(t, "/sql", body.Path)
}

func TestSQLHandler_UnencodableResult(t *testing.T) {
	for name, v := range map[string]float64{"+Inf": math.Inf(1), "-Inf": math.Inf(-1), "NaN": math.NaN()} {
		t.Run(name, func(t *testing.T) {
			h := &SQLHandler{Executor: stubExecutor{res: &gateway.Result{
				Kind:    gateway.Read,
				Columns: []string{"x"},
				Rows:    []map[string]any{{"x": v}},
			}}}

			rr := httptest.NewRecorder()
			h.Execute(rr, sqlRequest("select x", nil))

			require.Equal(t, http.StatusInternalServerError, rr.Code)
			body := decodeErrorBody(t, rr)
			assert.Equal(t, ErrMessageInternal, body.Error)
			assert.Equal(t, "result could not be encoded as JSON", body.Detail)
			assert.Equal(t, "/sql", body.Path)
		})
	}
}
