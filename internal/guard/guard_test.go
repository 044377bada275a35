package guard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"leadengine/internal/domain"
	"leadengine/internal/domain/models"
	"leadengine/internal/ratelimit"
	"leadengine/internal/sanitize"
)

type recordingSaver struct {
	calls   int
	records []Record
	err     error
}

func (s *recordingSaver) Save(_ context.Context, r Record) (int64, error) {
	s.calls++
	s.records = append(s.records, r)
	if s.err != nil {
		return 0, s.err
	}
	return int64(s.calls), nil
}

type recordingLog struct {
	mu     sync.Mutex
	events []models.SecurityEvent
}

func (l *recordingLog) Log(e models.SecurityEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *recordingLog) types() []models.SecurityEventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.SecurityEventType, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Type)
	}
	return out
}

func validForm() FormState {
	return FormState{
		CaptchaToken: "tok",
		AcceptsTerms: true,
		Fingerprint:  "fp1",
		UserAgent:    "test-agent",
		Fields: map[string]any{
			"name":    " Ana <b>",
			"surname": "Gómez",
			"email":   "ANA@Example.com",
			"phone":   "+54 261 555-1234",
			"message": "Quiero tasar mi casa",
		},
	}
}

func newGuard(log *recordingLog) Guard {
	return Guard{
		Limiter:  ratelimit.New(),
		Security: log,
		Policy:   ratelimit.FormSubmit,
		Now:      func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) },
	}
}

func TestSubmitAcceptsValidForm(t *testing.T) {
	saver := &recordingSaver{}
	g := newGuard(&recordingLog{})

	id, rec, err := g.Submit(context.Background(), validForm(), saver)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 1 || saver.calls != 1 {
		t.Fatalf("expected one save, got id=%d calls=%d", id, saver.calls)
	}
	if rec["name"] != "Ana b" {
		t.Fatalf("name = %q", rec["name"])
	}
	if rec["email"] != "ana@example.com" {
		t.Fatalf("email = %q", rec["email"])
	}
	if rec["whatsapp"] != "+54 261 555-1234" {
		t.Fatalf("whatsapp should fall back to the phone, got %q", rec["whatsapp"])
	}
}

func TestWhatsAppKeptWhenSupplied(t *testing.T) {
	form := validForm()
	form.Fields["whatsapp"] = "261 999"
	rec, err := newGuard(&recordingLog{}).Run(form)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec["whatsapp"] != "261 999" {
		t.Fatalf("whatsapp = %q", rec["whatsapp"])
	}
}

func TestMissingCaptchaStopsEverything(t *testing.T) {
	log := &recordingLog{}
	saver := &recordingSaver{}
	limiter := ratelimit.New()
	g := newGuard(log)
	g.Limiter = limiter

	form := validForm()
	form.CaptchaToken = "  "
	_, _, err := g.Submit(context.Background(), form, saver)
	if !domain.IsCaptchaRequired(err) {
		t.Fatalf("expected captcha required, got %v", err)
	}
	if saver.calls != 0 {
		t.Fatalf("save must not run")
	}
	if limiter.Len() != 0 {
		t.Fatalf("rate limit must not be consumed before the captcha passes")
	}
	if got := log.types(); len(got) != 1 || got[0] != models.EventCaptchaFailed {
		t.Fatalf("events = %v", got)
	}
}

func TestRateLimited(t *testing.T) {
	log := &recordingLog{}
	saver := &recordingSaver{}
	g := newGuard(log)

	for i := 0; i < ratelimit.FormSubmit.MaxRequests; i++ {
		if _, _, err := g.Submit(context.Background(), validForm(), saver); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}
	_, _, err := g.Submit(context.Background(), validForm(), saver)
	if !domain.IsRateLimited(err) {
		t.Fatalf("expected rate limited, got %v", err)
	}
	if saver.calls != ratelimit.FormSubmit.MaxRequests {
		t.Fatalf("rejected submission reached the store")
	}
	types := log.types()
	if types[len(types)-1] != models.EventRateLimitExceeded {
		t.Fatalf("expected rate limit event, got %v", types)
	}

	other := validForm()
	other.Fingerprint = "fp2"
	if _, _, err := g.Submit(context.Background(), other, saver); err != nil {
		t.Fatalf("other device must not be limited: %v", err)
	}
}

func TestConsentShortCircuits(t *testing.T) {
	saver := &recordingSaver{}
	sanitizeCalls := 0
	g := newGuard(&recordingLog{})
	g.Sanitize = func(m map[string]any, s sanitize.Schema) (map[string]any, error) {
		sanitizeCalls++
		return sanitize.FormData(m, s)
	}

	form := validForm()
	form.AcceptsTerms = false
	_, _, err := g.Submit(context.Background(), form, saver)
	if !domain.IsConsentRequired(err) {
		t.Fatalf("expected consent required, got %v", err)
	}
	if sanitizeCalls != 0 || saver.calls != 0 {
		t.Fatalf("sanitize=%d save=%d, want none", sanitizeCalls, saver.calls)
	}
}

func TestInvalidFieldIsReported(t *testing.T) {
	log := &recordingLog{}
	saver := &recordingSaver{}
	form := validForm()
	form.Fields["email"] = "nope"
	form.Fields["phone"] = "123456789012345678901234567"

	_, _, err := newGuard(log).Submit(context.Background(), form, saver)
	var ve domain.ValidationError
	if !errors.As(err, &ve) || ve.Field != "email" {
		t.Fatalf("expected email validation error, got %v", err)
	}
	if saver.calls != 0 {
		t.Fatalf("invalid form reached the store")
	}
	if form.Fields["email"] != "nope" {
		t.Fatalf("caller's values must be preserved for correction")
	}

	log.mu.Lock()
	defer log.mu.Unlock()
	last := log.events[len(log.events)-1]
	if last.Type != models.EventInvalidInput || last.Details["field"] != "email" || last.Details["input"] != "nope" {
		t.Fatalf("unexpected event %+v", last)
	}
}

func TestRequiredContactFields(t *testing.T) {
	cases := map[string]func(f map[string]any){
		"email":   func(f map[string]any) { delete(f, "email") },
		"name":    func(f map[string]any) { f["name"] = "   " },
		"surname": func(f map[string]any) { f["surname"] = "<>" },
		"phone":   func(f map[string]any) { f["phone"] = nil },
	}
	for field, mutate := range cases {
		log := &recordingLog{}
		saver := &recordingSaver{}
		g := newGuard(log)
		g.Required = LeadRequired

		form := validForm()
		mutate(form.Fields)
		_, _, err := g.Submit(context.Background(), form, saver)
		var ve domain.ValidationError
		if !errors.As(err, &ve) || ve.Field != field || ve.Msg != "required" {
			t.Fatalf("%s: expected required error, got %v", field, err)
		}
		if saver.calls != 0 {
			t.Fatalf("%s: incomplete form reached the store", field)
		}
		if types := log.types(); len(types) == 0 || types[len(types)-1] != models.EventInvalidInput {
			t.Fatalf("%s: rejection not logged: %v", field, types)
		}
	}

	g := newGuard(&recordingLog{})
	g.Required = LeadRequired
	if _, _, err := g.Submit(context.Background(), validForm(), &recordingSaver{}); err != nil {
		t.Fatalf("complete form rejected: %v", err)
	}
}

func TestDetectorsOnlyLog(t *testing.T) {
	log := &recordingLog{}
	form := validForm()
	form.Fields["message"] = "<script>alert(1)</script>; DROP TABLE leads"

	rec, err := newGuard(log).Run(form)
	if err != nil {
		t.Fatalf("detectors must not block: %v", err)
	}
	if rec["message"] != "scriptalert(1)/script; DROP TABLE leads" {
		t.Fatalf("message = %q", rec["message"])
	}
	seen := map[models.SecurityEventType]bool{}
	for _, ty := range log.types() {
		seen[ty] = true
	}
	if !seen[models.EventXSSAttempt] || !seen[models.EventSQLInjectionAttempt] {
		t.Fatalf("expected both detector events, got %v", log.types())
	}
}

func TestSaveFailureIsUpstream(t *testing.T) {
	saver := &recordingSaver{err: errors.New("db down")}
	_, _, err := newGuard(&recordingLog{}).Submit(context.Background(), validForm(), saver)
	if !domain.IsUpstream(err) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestNilSecurityLoggerIsFine(t *testing.T) {
	g := Guard{}
	form := validForm()
	form.CaptchaToken = ""
	if _, err := g.Run(form); !domain.IsCaptchaRequired(err) {
		t.Fatalf("expected captcha required, got %v", err)
	}
}

func TestExtraSchema(t *testing.T) {
	g := newGuard(&recordingLog{})
	form := validForm()
	form.Fields["cv_url"] = "ftp://cv"
	_, err := g.Run(form)
	var ve domain.ValidationError
	if !errors.As(err, &ve) || ve.Field != "cv_url" {
		t.Fatalf("expected cv_url validation error, got %v", err)
	}

	g.Schema = sanitize.Schema{}
	if _, err := g.Run(validForm()); err != nil {
		t.Fatalf("empty extra schema should only check personal data: %v", err)
	}
}
