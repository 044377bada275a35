package services

import (
	"context"
	"database/sql"
	"strconv"

	intconfig "leadengine/internal/config"
	"leadengine/internal/domain"
	"leadengine/internal/domain/models"
	"leadengine/internal/repositories"
	"leadengine/internal/sanitize"
	"leadengine/internal/utils"
)

type PropertyService struct {
	Repo            repositories.PropertyRepository
	WebhookRepo     repositories.WebhookRepository
	DefaultCurrency string
	DB              *sql.DB
	RequestID       string
}

func (s PropertyService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

// Search lists active listings for the public site.
func (s PropertyService) Search(ctx context.Context, f models.PropertyFilter) ([]models.Property, error) {
	f.ActiveOnly = true
	return s.List(ctx, f)
}

func (s PropertyService) List(ctx context.Context, f models.PropertyFilter) ([]models.Property, error) {
	f.Search = sanitize.Search(f.Search)
	f.Locality = models.NormalizeLocality(f.Locality)
	f.Type = models.NormalizePropertyType(f.Type)
	if f.Operation != "" && !models.OneOf(f.Operation, models.Operations) {
		return nil, domain.ValidationError{Field: "operation", Msg: "unknown operation"}
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return nil, domain.ValidationError{Field: "min_price", Msg: "greater than max_price"}
	}
	return s.Repo.List(ctx, f)
}

// Get returns one listing. Inactive listings are hidden unless includeInactive.
func (s PropertyService) Get(ctx context.Context, id int64, includeInactive bool) (models.Property, error) {
	p, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return models.Property{}, notFound("property", err)
	}
	if !p.Active && !includeInactive {
		return models.Property{}, domain.NotFoundError{Resource: "property"}
	}
	return p, nil
}

func (s PropertyService) Create(ctx context.Context, p models.Property) (models.Property, error) {
	p = s.normalize(p)
	if err := validateProperty(p); err != nil {
		return models.Property{}, err
	}
	err := withTx(ctx, s.db(), func(tx *sql.Tx) error {
		id, err := s.Repo.Create(ctx, tx, p)
		if err != nil {
			return err
		}
		p.ID = id
		_, err = s.WebhookRepo.Enqueue(ctx, tx, models.WebhookPropertyCreated, p)
		return err
	})
	if err != nil {
		return models.Property{}, err
	}
	utils.LogEvent(s.RequestID, "property", "create", "property_id="+strconv.FormatInt(p.ID, 10))
	return s.Get(ctx, p.ID, true)
}

func (s PropertyService) Update(ctx context.Context, id int64, p models.Property) (models.Property, error) {
	p.ID = id
	p = s.normalize(p)
	if err := validateProperty(p); err != nil {
		return models.Property{}, err
	}
	err := withTx(ctx, s.db(), func(tx *sql.Tx) error {
		if err := s.Repo.Update(ctx, tx, p); err != nil {
			return err
		}
		_, err := s.WebhookRepo.Enqueue(ctx, tx, models.WebhookPropertyUpdated, p)
		return err
	})
	if err != nil {
		return models.Property{}, notFound("property", err)
	}
	utils.LogEvent(s.RequestID, "property", "update", "property_id="+strconv.FormatInt(id, 10))
	return s.Get(ctx, id, true)
}

func (s PropertyService) Delete(ctx context.Context, id int64) error {
	if err := s.Repo.Deactivate(ctx, id); err != nil {
		return notFound("property", err)
	}
	utils.LogEvent(s.RequestID, "property", "deactivate", "property_id="+strconv.FormatInt(id, 10))
	return nil
}

func (s PropertyService) SetFeatured(ctx context.Context, id int64, featured bool) error {
	if err := s.Repo.SetFeatured(ctx, id, featured); err != nil {
		return notFound("property", err)
	}
	utils.LogEvent(s.RequestID, "property", "featured", "property_id="+strconv.FormatInt(id, 10)+" featured="+strconv.FormatBool(featured))
	return nil
}

func (s PropertyService) Stats(ctx context.Context) (models.PropertyStats, error) {
	return s.Repo.Stats(ctx)
}

func (s PropertyService) normalize(p models.Property) models.Property {
	p.Title = sanitize.Text(p.Title)
	p.Description = sanitize.Text(p.Description)
	p.Address = sanitize.Text(p.Address)
	p.Neighborhood = sanitize.Text(p.Neighborhood)
	p.Type = models.NormalizePropertyType(p.Type)
	p.Locality = models.NormalizeLocality(p.Locality)
	if p.Condition != "" {
		p.Condition = models.NormalizeCondition(p.Condition)
	}
	p.Extras = models.NormalizeExtras(p.Extras)
	def := s.DefaultCurrency
	if def == "" {
		def = "USD"
	}
	p.Currency = models.NormalizeCurrency(p.Currency, def)
	if p.MainImage == "" && len(p.Images) > 0 {
		p.MainImage = p.Images[0]
	}
	return p
}

func validateProperty(p models.Property) error {
	switch {
	case p.Title == "":
		return domain.ValidationError{Field: "title", Msg: "required"}
	case p.Type == "":
		return domain.ValidationError{Field: "type", Msg: "required"}
	case !models.OneOf(p.Operation, models.Operations):
		return domain.ValidationError{Field: "operation", Msg: "unknown operation"}
	case p.Locality == "":
		return domain.ValidationError{Field: "locality", Msg: "required"}
	case !positive(p.Price):
		return domain.ValidationError{Field: "price", Msg: "must be greater than zero"}
	case !models.OneOf(p.Currency, models.Currencies):
		return domain.ValidationError{Field: "currency", Msg: "must be ARS or USD"}
	case p.CoveredArea < 0:
		return domain.ValidationError{Field: "covered_area", Msg: "must not be negative"}
	}
	for _, img := range p.Images {
		if _, err := sanitize.URL(img); err != nil {
			return domain.ValidationError{Field: "images", Msg: err.Error()}
		}
	}
	return nil
}
