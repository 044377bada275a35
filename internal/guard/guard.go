// Package guard gates public, lead-producing form submissions.
//
// A submission passes, in order: bot verification, rate limit, terms
// consent and field sanitization. The first failing step ends the call and
// nothing after it runs, including persistence.
package guard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadengine/internal/domain"
	"leadengine/internal/domain/models"
	"leadengine/internal/ratelimit"
	"leadengine/internal/sanitize"
	"leadengine/internal/utils"
)

// Record is a sanitized form keyed by field name.
type Record = map[string]any

// PersonalData is checked first, in this order, for every form.
var PersonalData = sanitize.Schema{
	{Name: "name", Type: sanitize.TypeText},
	{Name: "surname", Type: sanitize.TypeText},
	{Name: "email", Type: sanitize.TypeEmail},
	{Name: "phone", Type: sanitize.TypePhone},
	{Name: "whatsapp", Type: sanitize.TypePhone},
}

// LeadDetails covers the optional per-form fields of the lead forms.
var LeadDetails = sanitize.Schema{
	{Name: "message", Type: sanitize.TypeText},
	{Name: "address", Type: sanitize.TypeText},
	{Name: "locality", Type: sanitize.TypeText},
	{Name: "neighborhood", Type: sanitize.TypeText},
	{Name: "property_type", Type: sanitize.TypeText},
	{Name: "condition", Type: sanitize.TypeText},
	{Name: "preferred_zone", Type: sanitize.TypeText},
	{Name: "experience", Type: sanitize.TypeText},
	{Name: "utm_source", Type: sanitize.TypeText},
	{Name: "utm_medium", Type: sanitize.TypeText},
	{Name: "utm_campaign", Type: sanitize.TypeText},
	{Name: "cv_url", Type: sanitize.TypeURL},
	{Name: "covered_area", Type: sanitize.TypeNumber},
	{Name: "total_area", Type: sanitize.TypeNumber},
	{Name: "rooms", Type: sanitize.TypeCount},
	{Name: "bedrooms", Type: sanitize.TypeCount},
	{Name: "bathrooms", Type: sanitize.TypeCount},
	{Name: "budget_min", Type: sanitize.TypeNumber},
	{Name: "budget_max", Type: sanitize.TypeNumber},
}

// LeadRequired are the contact fields every lead form must carry.
var LeadRequired = []string{"name", "surname", "email", "phone"}

// FormState is everything the browser sends with one submission.
type FormState struct {
	CaptchaToken string
	AcceptsTerms bool
	Fingerprint  string
	UserAgent    string
	Fields       map[string]any
}

type Limiter interface {
	Check(identifier string, p ratelimit.Policy) ratelimit.Result
}

// SecurityLogger must not block and must swallow its own failures.
type SecurityLogger interface {
	Log(models.SecurityEvent)
}

// Saver persists an accepted record and returns its id.
type Saver interface {
	Save(ctx context.Context, record Record) (int64, error)
}

type SaverFunc func(ctx context.Context, record Record) (int64, error)

func (f SaverFunc) Save(ctx context.Context, record Record) (int64, error) { return f(ctx, record) }

type Guard struct {
	Limiter  Limiter
	Security SecurityLogger
	Policy   ratelimit.Policy
	// Schema runs after PersonalData. Nil means LeadDetails.
	Schema sanitize.Schema
	// Required fields must be present and non-empty after sanitizing.
	Required []string
	// Sanitize defaults to sanitize.FormData.
	Sanitize  func(map[string]any, sanitize.Schema) (map[string]any, error)
	RequestID string
	Now       func() time.Time
}

// Run executes the checks and returns the sanitized record. It performs no
// persistence.
func (g Guard) Run(form FormState) (Record, error) {
	if strings.TrimSpace(form.CaptchaToken) == "" {
		g.report(form, models.EventCaptchaFailed, models.SeverityLow, map[string]any{
			"action": g.policy().Action,
		})
		return nil, domain.CaptchaRequiredError{}
	}

	if g.Limiter != nil {
		p := g.policy()
		id := ratelimit.Identifier(g.fingerprint(form), p.Action)
		if res := g.Limiter.Check(id, p); !res.Allowed {
			g.report(form, models.EventRateLimitExceeded, models.SeverityMedium, map[string]any{
				"action":       p.Action,
				"max_requests": p.MaxRequests,
				"window_ms":    p.Window.Milliseconds(),
			})
			utils.LogEvent(g.RequestID, "guard", "rate_limited", "action="+p.Action)
			return nil, domain.RateLimitedError{Action: p.Action}
		}
	}

	if !form.AcceptsTerms {
		return nil, domain.ConsentRequiredError{}
	}

	g.inspect(form)

	if err := g.checkRequired(form.Fields); err != nil {
		g.reportInvalid(form, err)
		return nil, err
	}

	schema := PersonalData.Append(g.schema()...)
	record, err := g.sanitizer()(form.Fields, schema)
	if err != nil {
		g.reportInvalid(form, err)
		return nil, err
	}
	if record == nil {
		record = Record{}
	}
	// "<>" sanitizes to nothing
	if err := g.checkRequired(record); err != nil {
		g.reportInvalid(form, err)
		return nil, err
	}

	if wa, _ := record["whatsapp"].(string); wa == "" {
		if phone, ok := record["phone"].(string); ok && phone != "" {
			record["whatsapp"] = phone
		}
	}
	return record, nil
}

// Submit runs the guard and hands an accepted record to saver.
func (g Guard) Submit(ctx context.Context, form FormState, saver Saver) (int64, Record, error) {
	record, err := g.Run(form)
	if err != nil {
		return 0, nil, err
	}
	id, err := saver.Save(ctx, record)
	if err != nil {
		utils.LogEvent(g.RequestID, "guard", "save_failed", err.Error())
		return 0, record, domain.Upstream("save submission", err)
	}
	return id, record, nil
}

func (g Guard) checkRequired(fields map[string]any) error {
	for _, name := range g.Required {
		if blank(fields[name]) {
			return domain.ValidationError{Field: name, Msg: "required"}
		}
	}
	return nil
}

func blank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}

func (g Guard) policy() ratelimit.Policy {
	if g.Policy.Action == "" {
		return ratelimit.FormSubmit
	}
	return g.Policy
}

func (g Guard) schema() sanitize.Schema {
	if g.Schema == nil {
		return LeadDetails
	}
	return g.Schema
}

func (g Guard) sanitizer() func(map[string]any, sanitize.Schema) (map[string]any, error) {
	if g.Sanitize != nil {
		return g.Sanitize
	}
	return sanitize.FormData
}

func (g Guard) fingerprint(form FormState) string {
	if fp := strings.TrimSpace(form.Fingerprint); fp != "" {
		return fp
	}
	return ratelimit.Fingerprint(form.UserAgent)
}

func (g Guard) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

// inspect runs the advisory detectors over the raw string fields.
func (g Guard) inspect(form FormState) {
	for name, v := range form.Fields {
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		if sanitize.LooksLikeXSS(s) {
			g.report(form, models.EventXSSAttempt, models.SeverityHigh, map[string]any{
				"field": name,
				"input": utils.Truncate(s, 200),
			})
		}
		if sanitize.LooksLikeSQLInjection(s) {
			g.report(form, models.EventSQLInjectionAttempt, models.SeverityHigh, map[string]any{
				"field": name,
				"input": utils.Truncate(s, 200),
			})
		}
	}
}

func (g Guard) reportInvalid(form FormState, err error) {
	details := map[string]any{"error": err.Error()}
	var field string
	if ve, ok := asValidation(err); ok {
		field = ve.Field
		details["field"] = field
	}
	if raw, ok := form.Fields[field]; ok && field != "" {
		details["input"] = utils.Truncate(fmt.Sprint(raw), 100)
	}
	g.report(form, models.EventInvalidInput, models.SeverityLow, details)
}

func (g Guard) report(form FormState, t models.SecurityEventType, sev models.Severity, details map[string]any) {
	if g.Security == nil {
		return
	}
	g.Security.Log(models.SecurityEvent{
		Type:        t,
		Severity:    sev,
		Details:     details,
		Fingerprint: form.Fingerprint,
		UserAgent:   form.UserAgent,
		Timestamp:   g.now(),
	})
}

func asValidation(err error) (domain.ValidationError, bool) {
	var ve domain.ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}
