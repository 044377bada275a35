package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"leadengine/internal/domain"
	"leadengine/internal/sanitize"
	"leadengine/internal/utils"
)

// withTx runs fn inside one transaction; any error rolls everything back.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	if db == nil {
		return fmt.Errorf("database not connected")
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// notFound turns sql.ErrNoRows into a NotFoundError for resource.
func notFound(resource string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFoundError{Resource: resource, Err: err}
	}
	return err
}

func checkDates(from, to string) error {
	if from != "" && !utils.ValidDate(from) {
		return domain.ValidationError{Field: "date_from", Msg: "expected YYYY-MM-DD"}
	}
	if to != "" && !utils.ValidDate(to) {
		return domain.ValidationError{Field: "date_to", Msg: "expected YYYY-MM-DD"}
	}
	return nil
}

func str(record map[string]any, key string) string {
	s, _ := record[key].(string)
	return strings.TrimSpace(s)
}

func floatPtr(record map[string]any, key string) *float64 {
	f, ok := record[key].(float64)
	if !ok {
		return nil
	}
	return &f
}

// intPtr reads a count the guard already checked as a whole number.
func intPtr(record map[string]any, key string) *int {
	f, ok := record[key].(float64)
	if !ok || f != math.Trunc(f) || f < 0 || f > sanitize.MaxCount {
		return nil
	}
	i := int(f)
	return &i
}
