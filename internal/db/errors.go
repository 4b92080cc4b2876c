package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a query matches no rows.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey is returned on unique constraint violations.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrConstraint is returned for other integrity constraint violations.
	ErrConstraint = errors.New("constraint violation")
	// ErrTimeout is returned when a statement exceeds its deadline or is canceled.
	ErrTimeout = errors.New("statement timeout")
	// ErrConnection is returned when the driver cannot reach the server.
	ErrConnection = errors.New("connection failed")
	// ErrQuery is the catch-all for statements the engine rejected.
	ErrQuery = errors.New("query failed")
)

// DBError keeps the classified sentinel next to the original driver error.
type DBError struct {
	Sentinel error
	Cause    error
	// Code is the engine's error code: SQLSTATE for postgres, the error
	// number for mysql, "sqlite:<extended code>" for sqlite.
	Code string
}

func (e *DBError) Error() string {
	return fmt.Sprintf("%s: %v", e.Sentinel, e.Cause)
}

func (e *DBError) Is(target error) bool { return errors.Is(e.Sentinel, target) }
func (e *DBError) Unwrap() error        { return e.Cause }

// Code returns the engine error code carried by err, if any.
func Code(err error) string {
	var dbe *DBError
	if errors.As(err, &dbe) {
		return dbe.Code
	}
	return ""
}

// MapError translates driver errors into *DBError values. Errors it does not
// recognise are returned unchanged; nil stays nil.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var dbe *DBError
	if errors.As(err, &dbe) {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return &DBError{Sentinel: ErrNotFound, Cause: err}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &DBError{Sentinel: ErrTimeout, Cause: err}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		return &DBError{Sentinel: sentinelForSQLState(code), Cause: err, Code: code}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &DBError{Sentinel: sentinelForSQLState(pgErr.Code), Cause: err, Code: pgErr.Code}
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return &DBError{Sentinel: sentinelForMySQL(myErr.Number), Cause: err, Code: strconv.Itoa(int(myErr.Number))}
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return &DBError{
			Sentinel: sentinelForSQLite(liteErr),
			Cause:    err,
			Code:     "sqlite:" + strconv.Itoa(int(liteErr.ExtendedCode)),
		}
	}

	return err
}

// PostgreSQL SQLSTATE codes: https://www.postgresql.org/docs/current/errcodes-appendix.html
func sentinelForSQLState(code string) error {
	switch {
	case code == "23505":
		return ErrDuplicateKey
	case len(code) == 5 && code[:2] == "23":
		return ErrConstraint
	case code == "57014":
		return ErrTimeout
	case len(code) == 5 && code[:2] == "08":
		return ErrConnection
	}
	return ErrQuery
}

func sentinelForMySQL(number uint16) error {
	switch number {
	case 1062: // ER_DUP_ENTRY
		return ErrDuplicateKey
	case 1048, 1216, 1217, 1451, 1452, 3819:
		return ErrConstraint
	case 3024: // ER_QUERY_TIMEOUT
		return ErrTimeout
	case 1045, 2002, 2003, 2006, 2013:
		return ErrConnection
	}
	return ErrQuery
}

func sentinelForSQLite(err sqlite3.Error) error {
	switch {
	case err.ExtendedCode == sqlite3.ErrConstraintUnique, err.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
		return ErrDuplicateKey
	case err.Code == sqlite3.ErrConstraint:
		return ErrConstraint
	case err.Code == sqlite3.ErrInterrupt:
		return ErrTimeout
	case err.Code == sqlite3.ErrCantOpen:
		return ErrConnection
	}
	return ErrQuery
}
