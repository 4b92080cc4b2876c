package gateway

import (
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// normalizeValue turns a raw driver value into something encoding/json
// renders faithfully. dbType is the column's database type name, possibly empty.
func normalizeValue(v any, dbType string) any {
	switch val := v.(type) {
	case []byte:
		if isBinaryType(dbType) {
			return val // base64 in JSON
		}
		if isDecimalType(dbType) {
			if d, err := decimal.NewFromString(string(val)); err == nil {
				return d
			}
		}
		return string(val)
	case string:
		if isDecimalType(dbType) {
			if d, err := decimal.NewFromString(val); err == nil {
				return d
			}
		}
		return val
	case time.Time:
		return val.Format(time.RFC3339Nano)
	default:
		return val
	}
}

func isDecimalType(dbType string) bool {
	switch strings.ToUpper(dbType) {
	case "NUMERIC", "DECIMAL", "MONEY":
		return true
	}
	return false
}

func isBinaryType(dbType string) bool {
	switch strings.ToUpper(dbType) {
	case "BYTEA", "BLOB", "BINARY", "VARBINARY", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB":
		return true
	}
	return false
}

// columnTypeNames returns the database type name per column, or empty names
// when the driver does not report them.
func columnTypeNames(rows interface {
	ColumnTypes() ([]*sql.ColumnType, error)
}, n int) []string {
	names := make([]string, n)
	types, err := rows.ColumnTypes()
	if err != nil {
		return names
	}
	for i, ct := range types {
		if i < n {
			names[i] = ct.DatabaseTypeName()
		}
	}
	return names
}
