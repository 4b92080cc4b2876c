package gateway

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/crucial707/sqlgate/internal/db"
	"github.com/crucial707/sqlgate/internal/metrics"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// DefaultTimeout bounds a statement when Options.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// StatementKind is the read/write classification of a statement.
type StatementKind string

const (
	Read  StatementKind = "read"
	Write StatementKind = "write"
)

// Classify treats a statement as a read when, trimmed and lower-cased, it
// starts with "select". Everything else is a write.
func Classify(statement string) StatementKind {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(statement)), "select") {
		return Read
	}
	return Write
}

// Statement is one decoded ad-hoc statement with its optional named
// parameters (bound to :name placeholders).
type Statement struct {
	Text   string
	Params map[string]any
}

// Result is what a successful execution produces. Rows and Columns are set
// for reads, RowsAffected for writes.
type Result struct {
	Kind         StatementKind
	Columns      []string
	Rows         []map[string]any
	RowsAffected int64
}

// Options configures an Executor.
type Options struct {
	Policy  Policy
	Timeout time.Duration
	Logger  *slog.Logger
}

// Executor runs ad-hoc statements, each inside its own transaction.
// Reads are always rolled back; writes are committed only after the
// statement succeeded. Every exit path releases the transaction.
type Executor struct {
	db      *sqlx.DB
	policy  Policy
	timeout time.Duration
	logger  *slog.Logger
}

func NewExecutor(conn *sqlx.DB, opts Options) *Executor {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Executor{
		db:      conn,
		policy:  opts.Policy,
		timeout: opts.Timeout,
		logger:  opts.Logger,
	}
}

// Execute classifies, runs and finalizes st. Errors are *Error values.
func (e *Executor) Execute(ctx context.Context, st Statement) (res *Result, err error) {
	kind := Classify(st.Text)
	execID := uuid.NewString()
	start := time.Now()
	outcome := "rolled_back"

	defer func() {
		dur := time.Since(start)
		if err != nil {
			outcome = string(KindOf(err))
		}
		metrics.RecordStatement(string(kind), outcome, dur.Seconds())
		// The statement text is never logged; only its shape.
		e.logger.Info("sql gateway statement",
			"exec_id", execID,
			"kind", kind,
			"keyword", LeadingKeyword(st.Text),
			"length", len(st.Text),
			"params", len(st.Params),
			"outcome", outcome,
			"duration_ms", dur.Milliseconds())
	}()

	if err := e.policy.Check(st.Text); err != nil {
		return nil, err
	}

	query, args, err := e.bind(st)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, internalError("begin transaction", err)
	}

	done := false
	defer func() {
		if p := recover(); p != nil {
			db.Rollback(tx)
			panic(p)
		}
		if !done {
			db.Rollback(tx)
		}
	}()

	if kind == Read {
		cols, rows, err := readRows(ctx, tx, query, args)
		if err != nil {
			return nil, e.queryError(ctx, err)
		}
		// Reads never commit; the deferred rollback closes the transaction.
		return &Result{Kind: Read, Columns: cols, Rows: rows}, nil
	}

	out, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, e.queryError(ctx, err)
	}
	affected, err := out.RowsAffected()
	if err != nil {
		return nil, internalError("read affected row count", err)
	}
	if affected < 0 {
		affected = 0
	}
	if err := tx.Commit(); err != nil {
		return nil, e.queryError(ctx, err)
	}
	done = true
	outcome = "committed"

	return &Result{Kind: Write, RowsAffected: affected}, nil
}

// bind resolves :name placeholders when parameters are given and rewrites
// the result into the driver's placeholder style. Without parameters the
// statement is passed through untouched, so postgres "::" casts survive.
func (e *Executor) bind(st Statement) (string, []any, error) {
	if len(st.Params) == 0 {
		return st.Text, nil, nil
	}
	query, args, err := sqlx.Named(st.Text, st.Params)
	if err != nil {
		return "", nil, &Error{Kind: KindQuery, Message: "parameter binding failed", Err: err}
	}
	return e.db.Rebind(query), args, nil
}

// queryError wraps an engine failure. Drivers report a cancelled statement
// in their own words, so the context is consulted as well.
func (e *Executor) queryError(ctx context.Context, err error) *Error {
	mapped := db.MapError(err)
	msg := "statement failed"
	if errors.Is(mapped, db.ErrTimeout) || ctx.Err() != nil {
		msg = "statement exceeded the execution time limit"
	}
	return &Error{Kind: KindQuery, Message: msg, Code: db.Code(mapped), Err: mapped}
}

func readRows(ctx context.Context, tx *sqlx.Tx, query string, args []any) ([]string, []map[string]any, error) {
	rows, err := tx.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	types := columnTypeNames(rows, len(cols))

	out := []map[string]any{}
	for rows.Next() {
		row := make(map[string]any, len(cols))
		if err := rows.MapScan(row); err != nil {
			return nil, nil, err
		}
		for i, c := range cols {
			row[c] = normalizeValue(row[c], types[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return cols, out, nil
}
