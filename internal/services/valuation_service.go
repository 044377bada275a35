package services

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	intconfig "leadengine/internal/config"
	"leadengine/internal/domain"
	"leadengine/internal/domain/models"
	"leadengine/internal/guard"
	"leadengine/internal/ratelimit"
	"leadengine/internal/repositories"
	"leadengine/internal/sanitize"
	"leadengine/internal/utils"
	"leadengine/internal/valuation"
)

// ValuationService runs public estimates and serves the admin valuation views.
type ValuationService struct {
	RuleRepo        repositories.PricingRuleRepository
	ValuationRepo   repositories.ValuationRepository
	WebhookRepo     repositories.WebhookRepository
	Leads           LeadService
	Limiter         guard.Limiter
	Security        guard.SecurityLogger
	DefaultCurrency string
	DB              *sql.DB
	RequestID       string
	// Rules overrides RuleRepo as the estimator's rule source.
	Rules  valuation.RuleFinder
	Loader func(ctx context.Context, id int64) (models.Valuation, error)
}

// EstimateInput is a public estimate request with optional contact details.
type EstimateInput struct {
	valuation.Request
	Name        string `json:"name"`
	Surname     string `json:"surname"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Fingerprint string `json:"-"`
	UserAgent   string `json:"-"`
}

var contactSchema = sanitize.Schema{
	{Name: "name", Type: sanitize.TypeText},
	{Name: "surname", Type: sanitize.TypeText},
	{Name: "email", Type: sanitize.TypeEmail},
	{Name: "phone", Type: sanitize.TypePhone},
}

func (s ValuationService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s ValuationService) rules() valuation.RuleFinder {
	if s.Rules != nil {
		return s.Rules
	}
	return s.RuleRepo
}

// Estimate computes and stores a valuation, enqueueing valuation.completed
// with it. The caller gets the stored row back.
func (s ValuationService) Estimate(ctx context.Context, in EstimateInput) (models.Valuation, error) {
	if err := s.checkRate(in); err != nil {
		return models.Valuation{}, err
	}

	contact, err := s.sanitizeContact(in)
	if err != nil {
		return models.Valuation{}, err
	}

	est := valuation.Estimator{Rules: s.rules(), DefaultCurrency: s.DefaultCurrency}
	res, err := est.Estimate(ctx, in.Request)
	if err != nil {
		return models.Valuation{}, err
	}

	v := models.Valuation{
		PropertyType:   models.NormalizePropertyType(in.PropertyType),
		Locality:       models.NormalizeLocality(in.Locality),
		Neighborhood:   sanitize.Text(in.Neighborhood),
		CoveredArea:    in.CoveredArea,
		TotalArea:      in.TotalArea,
		Bedrooms:       in.Bedrooms,
		Bathrooms:      in.Bathrooms,
		Condition:      models.NormalizeCondition(in.Condition),
		Extras:         models.NormalizeExtras(in.Extras),
		EstimatedValue: res.Estimated,
		MinimumValue:   res.Minimum,
		MaximumValue:   res.Maximum,
		Currency:       res.Currency,
		RuleSource:     res.RuleSource,
		Name:           str(contact, "name"),
		Surname:        str(contact, "surname"),
		Email:          str(contact, "email"),
		Phone:          str(contact, "phone"),
	}

	err = withTx(ctx, s.db(), func(tx *sql.Tx) error {
		id, err := s.ValuationRepo.Create(ctx, tx, v)
		if err != nil {
			return err
		}
		v.ID = id
		_, err = s.WebhookRepo.Enqueue(ctx, tx, models.WebhookValuationCompleted, v)
		return err
	})
	if err != nil {
		return models.Valuation{}, domain.Upstream("store valuation", err)
	}

	utils.LogEvent(s.RequestID, "valuation", "estimate",
		fmt.Sprintf("valuation_id=%d rule=%s estimated=%d", v.ID, v.RuleSource, v.EstimatedValue))
	return v, nil
}

func (s ValuationService) checkRate(in EstimateInput) error {
	if s.Limiter == nil {
		return nil
	}
	fp := in.Fingerprint
	if fp == "" {
		fp = ratelimit.Fingerprint(in.UserAgent)
	}
	p := ratelimit.Valuation
	if res := s.Limiter.Check(ratelimit.Identifier(fp, p.Action), p); res.Allowed {
		return nil
	}
	if s.Security != nil {
		s.Security.Log(models.SecurityEvent{
			Type:     models.EventRateLimitExceeded,
			Severity: models.SeverityMedium,
			Details: map[string]any{
				"action":       p.Action,
				"max_requests": p.MaxRequests,
				"window_ms":    p.Window.Milliseconds(),
			},
			Fingerprint: in.Fingerprint,
			UserAgent:   in.UserAgent,
		})
	}
	return domain.RateLimitedError{Action: p.Action}
}

// sanitizeContact cleans the optional contact block; email is only
// checked when one was given.
func (s ValuationService) sanitizeContact(in EstimateInput) (map[string]any, error) {
	raw := map[string]any{}
	for k, v := range map[string]string{"name": in.Name, "surname": in.Surname, "email": in.Email, "phone": in.Phone} {
		if v != "" {
			raw[k] = v
		}
	}
	return sanitize.FormData(raw, contactSchema)
}

// Contact turns a stored valuation into a tasacion lead and links the two.
func (s ValuationService) Contact(ctx context.Context, id int64, sub LeadSubmission) (models.Lead, error) {
	v, err := s.load(ctx, id)
	if err != nil {
		return models.Lead{}, err
	}

	fields := make(map[string]any, len(sub.Form.Fields)+8)
	for k, val := range sub.Form.Fields {
		fields[k] = val
	}
	setDefault(fields, "name", v.Name)
	setDefault(fields, "surname", v.Surname)
	setDefault(fields, "email", v.Email)
	setDefault(fields, "phone", v.Phone)
	setDefault(fields, "property_type", v.PropertyType)
	setDefault(fields, "locality", v.Locality)
	setDefault(fields, "neighborhood", v.Neighborhood)
	setDefault(fields, "condition", v.Condition)
	setDefault(fields, "covered_area", v.CoveredArea)
	if v.TotalArea != nil {
		setDefault(fields, "total_area", *v.TotalArea)
	}
	if v.Bedrooms != nil {
		setDefault(fields, "bedrooms", *v.Bedrooms)
	}
	if v.Bathrooms != nil {
		setDefault(fields, "bathrooms", *v.Bathrooms)
	}
	setDefault(fields, "message", fmt.Sprintf("Valuation #%d: %s (%s - %s)",
		v.ID,
		utils.FormatMoney(v.EstimatedValue, v.Currency),
		utils.FormatMoney(v.MinimumValue, v.Currency),
		utils.FormatMoney(v.MaximumValue, v.Currency)))

	sub.Type = models.LeadTypeValuation
	sub.Form.Fields = fields
	if len(sub.Extras) == 0 {
		sub.Extras = v.Extras
	}

	lead, err := s.Leads.Create(ctx, sub)
	if err != nil {
		return models.Lead{}, err
	}
	if err := s.ValuationRepo.LinkLead(ctx, nil, v.ID, lead.ID); err != nil {
		utils.LogEvent(s.RequestID, "valuation", "link_lead_failed", err.Error())
	}
	return lead, nil
}

func setDefault(fields map[string]any, key string, v any) {
	if cur, ok := fields[key]; ok && cur != nil && cur != "" {
		return
	}
	if sv, ok := v.(string); ok && sv == "" {
		return
	}
	fields[key] = v
}

func (s ValuationService) load(ctx context.Context, id int64) (models.Valuation, error) {
	if s.Loader != nil {
		return s.Loader(ctx, id)
	}
	v, err := s.ValuationRepo.GetByID(ctx, id)
	if err != nil {
		return models.Valuation{}, notFound("valuation", err)
	}
	return v, nil
}

func (s ValuationService) Get(ctx context.Context, id int64) (models.Valuation, error) {
	return s.load(ctx, id)
}

func (s ValuationService) List(ctx context.Context, f models.ValuationFilter) ([]models.Valuation, error) {
	if err := checkDates(f.DateFrom, f.DateTo); err != nil {
		return nil, err
	}
	f.PropertyType = models.NormalizePropertyType(f.PropertyType)
	f.Locality = models.NormalizeLocality(f.Locality)
	return s.ValuationRepo.List(ctx, f)
}

func (s ValuationService) Stats(ctx context.Context, f models.ValuationFilter) (models.ValuationStats, error) {
	if err := checkDates(f.DateFrom, f.DateTo); err != nil {
		return models.ValuationStats{}, err
	}
	f.PropertyType = models.NormalizePropertyType(f.PropertyType)
	f.Locality = models.NormalizeLocality(f.Locality)
	return s.ValuationRepo.Stats(ctx, f)
}

// Report renders one valuation as a PDF and returns it with a file name.
func (s ValuationService) Report(ctx context.Context, id int64) ([]byte, string, error) {
	v, err := s.load(ctx, id)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "valuation", "report", "valuation_id="+strconv.FormatInt(id, 10))
	return buildValuationPDF(v)
}
