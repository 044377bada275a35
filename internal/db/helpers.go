package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
)

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NullIfEmpty helps store optional strings without wiping existing data.
func NullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// NullFloat stores a nil pointer as NULL.
func NullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func NullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func NullInt64(v *int64) any {
	if v == nil || *v <= 0 {
		return nil
	}
	return *v
}

// FloatPtr turns a scanned nullable column back into an optional value.
func FloatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func IntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func Int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid || v.Int64 <= 0 {
		return nil
	}
	i := v.Int64
	return &i
}

// JSON marshals v for a JSON column. Nil maps and slices become NULL.
func JSON(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case map[string]float64:
		if x == nil {
			return nil, nil
		}
	case map[string]any:
		if x == nil {
			return nil, nil
		}
	case []string:
		if x == nil {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// ScanJSON decodes a nullable JSON column into dst. NULL and empty leave dst alone.
func ScanJSON(raw sql.NullString, dst any) error {
	s := strings.TrimSpace(raw.String)
	if !raw.Valid || s == "" || s == "null" {
		return nil
	}
	return json.Unmarshal([]byte(s), dst)
}

// HasTable reports whether table exists in the current schema.
func HasTable(ctx context.Context, q Querier, table string) bool {
	var name sql.NullString
	err := q.QueryRowContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		LIMIT 1
	`, table).Scan(&name)
	if err != nil {
		return false
	}
	return name.Valid && name.String != ""
}

// DateRange appends created_at bounds for YYYY-MM-DD inputs.
func DateRange(column, from, to string, where []string, args []any) ([]string, []any) {
	if from = strings.TrimSpace(from); from != "" {
		where = append(where, "DATE("+column+") >= ?")
		args = append(args, from)
	}
	if to = strings.TrimSpace(to); to != "" {
		where = append(where, "DATE("+column+") <= ?")
		args = append(args, to)
	}
	return where, args
}

// Where joins conditions into a WHERE clause, or returns "".
func Where(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}
