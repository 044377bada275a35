package models

import "time"

type SecurityEventType string

const (
	EventRateLimitExceeded   SecurityEventType = "rate_limit_exceeded"
	EventInvalidInput        SecurityEventType = "invalid_input"
	EventXSSAttempt          SecurityEventType = "xss_attempt"
	EventSQLInjectionAttempt SecurityEventType = "sql_injection_attempt"
	EventSuspiciousActivity  SecurityEventType = "suspicious_activity"
	EventCaptchaFailed       SecurityEventType = "captcha_failed"
	EventUnauthorizedAccess  SecurityEventType = "unauthorized_access"
	EventFormSpam            SecurityEventType = "form_spam"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SecurityEvent is an advisory record; nothing is blocked because of it.
type SecurityEvent struct {
	ID          int64             `json:"id"`
	Type        SecurityEventType `json:"event_type"`
	Severity    Severity          `json:"severity"`
	Details     map[string]any    `json:"details"`
	Fingerprint string            `json:"user_fingerprint"`
	UserAgent   string            `json:"user_agent"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Outbox event names picked up by the automation integrations.
const (
	WebhookLeadCreated        = "lead.created"
	WebhookLeadUpdated        = "lead.updated"
	WebhookPropertyCreated    = "property.created"
	WebhookPropertyUpdated    = "property.updated"
	WebhookValuationCompleted = "valuation.completed"
)

type WebhookEvent struct {
	ID          int64      `json:"id"`
	EventType   string     `json:"event_type"`
	Payload     any        `json:"payload"`
	Processed   bool       `json:"processed"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
