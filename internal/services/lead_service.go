package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	intconfig "leadengine/internal/config"
	"leadengine/internal/domain"
	"leadengine/internal/domain/models"
	"leadengine/internal/guard"
	"leadengine/internal/ratelimit"
	"leadengine/internal/repositories"
	"leadengine/internal/utils"
)

// LeadService captures leads from the public forms and serves the admin views.
type LeadService struct {
	LeadRepo    repositories.LeadRepository
	WebhookRepo repositories.WebhookRepository
	Limiter     guard.Limiter
	Security    guard.SecurityLogger
	DB          *sql.DB
	RequestID   string
}

// LeadSubmission is one public form post.
type LeadSubmission struct {
	Type       string
	Source     string
	PropertyID *int64
	Extras     []string
	IPAddress  string
	Form       guard.FormState
}

func (s LeadService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s LeadService) guard() guard.Guard {
	return guard.Guard{
		Limiter:   s.Limiter,
		Security:  s.Security,
		Policy:    ratelimit.FormSubmit,
		Required:  guard.LeadRequired,
		RequestID: s.RequestID,
	}
}

// Create runs the submission guard and stores the lead together with its
// lead.created outbox event.
func (s LeadService) Create(ctx context.Context, sub LeadSubmission) (models.Lead, error) {
	if !models.OneOf(sub.Type, models.LeadTypes) {
		return models.Lead{}, domain.ValidationError{Field: "type", Msg: "unknown lead type"}
	}

	var lead models.Lead
	saver := guard.SaverFunc(func(ctx context.Context, record guard.Record) (int64, error) {
		lead = LeadFromRecord(record)
		lead.Type = sub.Type
		lead.Status = models.LeadStatusNew
		lead.Source = sub.Source
		if lead.Source == "" {
			lead.Source = "web"
		}
		lead.PropertyID = sub.PropertyID
		lead.Extras = models.NormalizeExtras(sub.Extras)
		lead.IPAddress = sub.IPAddress
		lead.UserAgent = utils.Truncate(sub.Form.UserAgent, 255)

		err := withTx(ctx, s.db(), func(tx *sql.Tx) error {
			id, err := s.LeadRepo.Create(ctx, tx, lead)
			if err != nil {
				return err
			}
			lead.ID = id
			_, err = s.WebhookRepo.Enqueue(ctx, tx, models.WebhookLeadCreated, lead)
			return err
		})
		return lead.ID, err
	})

	if _, _, err := s.guard().Submit(ctx, sub.Form, saver); err != nil {
		return models.Lead{}, err
	}
	utils.LogEvent(s.RequestID, "lead", "create", fmt.Sprintf("lead_id=%d type=%s", lead.ID, lead.Type))
	return lead, nil
}

// LeadFromRecord maps a sanitized form record onto a lead.
func LeadFromRecord(r guard.Record) models.Lead {
	return models.Lead{
		Name:          str(r, "name"),
		Surname:       str(r, "surname"),
		Email:         str(r, "email"),
		Phone:         str(r, "phone"),
		WhatsApp:      str(r, "whatsapp"),
		PropertyType:  models.NormalizePropertyType(str(r, "property_type")),
		Address:       str(r, "address"),
		Locality:      models.NormalizeLocality(str(r, "locality")),
		Neighborhood:  str(r, "neighborhood"),
		CoveredArea:   floatPtr(r, "covered_area"),
		TotalArea:     floatPtr(r, "total_area"),
		Rooms:         intPtr(r, "rooms"),
		Bedrooms:      intPtr(r, "bedrooms"),
		Bathrooms:     intPtr(r, "bathrooms"),
		Condition:     conditionOrEmpty(str(r, "condition")),
		BudgetMin:     floatPtr(r, "budget_min"),
		BudgetMax:     floatPtr(r, "budget_max"),
		PreferredZone: str(r, "preferred_zone"),
		Experience:    str(r, "experience"),
		Message:       str(r, "message"),
		CVURL:         str(r, "cv_url"),
		UTMSource:     str(r, "utm_source"),
		UTMMedium:     str(r, "utm_medium"),
		UTMCampaign:   str(r, "utm_campaign"),
	}
}

func conditionOrEmpty(raw string) string {
	if raw == "" {
		return ""
	}
	return models.NormalizeCondition(raw)
}

func (s LeadService) Get(ctx context.Context, id int64) (models.Lead, error) {
	l, err := s.LeadRepo.GetByID(ctx, id)
	if err != nil {
		return models.Lead{}, notFound("lead", err)
	}
	return l, nil
}

func (s LeadService) List(ctx context.Context, f models.LeadFilter, page domain.Pagination) ([]models.Lead, domain.Pagination, error) {
	if f.Status != "" && !models.OneOf(f.Status, models.LeadStatuses) {
		return nil, page, domain.ValidationError{Field: "status", Msg: "unknown lead status"}
	}
	if err := checkDates(f.DateFrom, f.DateTo); err != nil {
		return nil, page, err
	}
	page = page.Normalize()
	leads, total, err := s.LeadRepo.List(ctx, f, page)
	if err != nil {
		return nil, page, err
	}
	page.Total = total
	return leads, page, nil
}

// Update applies the admin edit and enqueues lead.updated in the same transaction.
func (s LeadService) Update(ctx context.Context, id int64, u models.LeadUpdate) (models.Lead, error) {
	if u.Status != nil && !models.OneOf(*u.Status, models.LeadStatuses) {
		return models.Lead{}, domain.ValidationError{Field: "status", Msg: "unknown lead status"}
	}
	if u.Message != nil {
		clean := utils.Truncate(*u.Message, 1000)
		u.Message = &clean
	}

	err := withTx(ctx, s.db(), func(tx *sql.Tx) error {
		if err := s.LeadRepo.Update(ctx, tx, id, u); err != nil {
			return err
		}
		_, err := s.WebhookRepo.Enqueue(ctx, tx, models.WebhookLeadUpdated, map[string]any{
			"id":      id,
			"changes": u,
		})
		return err
	})
	if err != nil {
		return models.Lead{}, notFound("lead", err)
	}
	utils.LogEvent(s.RequestID, "lead", "update", "lead_id="+strconv.FormatInt(id, 10))
	return s.Get(ctx, id)
}

// Assign gives the lead to the active advisor with the fewest leads.
func (s LeadService) Assign(ctx context.Context, id int64) (models.Advisor, error) {
	a, err := s.LeadRepo.AssignLeastLoaded(ctx, id)
	if errors.Is(err, repositories.ErrNoAdvisor) {
		return models.Advisor{}, domain.ConflictError{Resource: "lead", Msg: "no active advisor available", Err: err}
	}
	if err != nil {
		return models.Advisor{}, notFound("lead", err)
	}
	if _, err := s.WebhookRepo.Enqueue(ctx, nil, models.WebhookLeadUpdated, map[string]any{
		"id":                  id,
		"assigned_advisor_id": a.ID,
	}); err != nil {
		utils.LogEvent(s.RequestID, "lead", "assign_event_failed", err.Error())
	}
	utils.LogEvent(s.RequestID, "lead", "assign", fmt.Sprintf("lead_id=%d advisor_id=%d", id, a.ID))
	return a, nil
}
