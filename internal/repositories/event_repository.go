package repositories

import (
	"context"
	"database/sql"
	"time"

	intconfig "leadengine/internal/config"
	intdb "leadengine/internal/db"
	"leadengine/internal/domain/models"
)

// SecurityLogRepository stores advisory security events.
type SecurityLogRepository struct {
	DB *sql.DB
}

func (r SecurityLogRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r SecurityLogRepository) Insert(ctx context.Context, e models.SecurityEvent) error {
	details, err := intdb.JSON(e.Details)
	if err != nil {
		return err
	}
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err = r.db().ExecContext(ctx, `
		INSERT INTO security_logs (event_type, severity, details, user_fingerprint, user_agent, timestamp)
		VALUES (?,?,?,?,?,?)`,
		string(e.Type), string(e.Severity), details, intdb.NullIfEmpty(e.Fingerprint), intdb.NullIfEmpty(e.UserAgent), ts)
	return err
}

// List returns the newest events first, optionally of one type or severity.
func (r SecurityLogRepository) List(ctx context.Context, eventType, severity string, limit int) ([]models.SecurityEvent, error) {
	where := []string{}
	args := []any{}
	if eventType != "" {
		where = append(where, "event_type=?")
		args = append(args, eventType)
	}
	if severity != "" {
		where = append(where, "severity=?")
		args = append(args, severity)
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db().QueryContext(ctx, `
		SELECT id, event_type, severity, details, COALESCE(user_fingerprint,''), COALESCE(user_agent,''), timestamp
		FROM security_logs`+intdb.Where(where)+`
		ORDER BY timestamp DESC, id DESC LIMIT ?`, append(args, limit)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.SecurityEvent{}
	for rows.Next() {
		var (
			e        models.SecurityEvent
			typ, sev string
			details  sql.NullString
		)
		if err := rows.Scan(&e.ID, &typ, &sev, &details, &e.Fingerprint, &e.UserAgent, &e.Timestamp); err != nil {
			return nil, err
		}
		e.Type = models.SecurityEventType(typ)
		e.Severity = models.Severity(sev)
		if err := intdb.ScanJSON(details, &e.Details); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// WebhookRepository is the outbox read by the automation integrations.
type WebhookRepository struct {
	DB *sql.DB
}

func (r WebhookRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// Enqueue writes an unprocessed event, inside q when given.
func (r WebhookRepository) Enqueue(ctx context.Context, q intdb.Querier, eventType string, payload any) (int64, error) {
	if q == nil {
		q = r.db()
	}
	body, err := intdb.JSON(payload)
	if err != nil {
		return 0, err
	}
	res, err := q.ExecContext(ctx, `
		INSERT INTO webhook_events (event_type, payload, processed, created_at)
		VALUES (?,?,0,?)`, eventType, body, time.Now())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
