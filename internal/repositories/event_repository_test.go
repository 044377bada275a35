package repositories

import (
	"context"
	"testing"
	"time"

	"leadengine/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSecurityLogInsert(t *testing.T) {
	db, mock := newMock(t)
	ts := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO security_logs").
		WithArgs("rate_limit_exceeded", "medium", `{"action":"form_submit"}`, "fp", nil, ts).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := SecurityLogRepository{DB: db}.Insert(context.Background(), models.SecurityEvent{
		Type:        models.EventRateLimitExceeded,
		Severity:    models.SeverityMedium,
		Details:     map[string]any{"action": "form_submit"},
		Fingerprint: "fp",
		Timestamp:   ts,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSecurityLogList(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery("FROM security_logs WHERE severity=\\?").
		WithArgs("high", 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_type", "severity", "details", "fp", "ua", "timestamp"}).
			AddRow(3, "xss_attempt", "high", `{"field":"message"}`, "fp", "ua", now))

	out, err := SecurityLogRepository{DB: db}.List(context.Background(), "", "high", 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].Type != models.EventXSSAttempt || out[0].Details["field"] != "message" {
		t.Fatalf("unexpected events %+v", out)
	}
}

func TestWebhookEnqueue(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO webhook_events").
		WithArgs(models.WebhookLeadCreated, `{"id":5}`, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(11, 1))

	id, err := WebhookRepository{DB: db}.Enqueue(context.Background(), nil, models.WebhookLeadCreated, map[string]any{"id": 5})
	if err != nil || id != 11 {
		t.Fatalf("got %d %v", id, err)
	}
}
