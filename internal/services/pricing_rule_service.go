package services

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"leadengine/internal/domain"
	"leadengine/internal/domain/models"
	"leadengine/internal/repositories"
	"leadengine/internal/utils"
)

// PricingRuleService maintains the valuation rules. At most one active rule
// exists per (property type, locality).
type PricingRuleService struct {
	Repo      repositories.PricingRuleRepository
	RequestID string
}

func (s PricingRuleService) List(ctx context.Context, f models.PricingRuleFilter) ([]models.PricingRule, error) {
	f.PropertyType = models.NormalizePropertyType(f.PropertyType)
	f.Locality = models.NormalizeLocality(f.Locality)
	return s.Repo.List(ctx, f)
}

func (s PricingRuleService) Get(ctx context.Context, id int64) (models.PricingRule, error) {
	r, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return models.PricingRule{}, notFound("pricing rule", err)
	}
	return r, nil
}

// Active returns the active rule for a key, or NotFoundError.
func (s PricingRuleService) Active(ctx context.Context, propertyType, locality string) (models.PricingRule, error) {
	r, err := s.Repo.FindActiveRule(ctx, models.NormalizePropertyType(propertyType), models.NormalizeLocality(locality))
	if err != nil {
		return models.PricingRule{}, err
	}
	if r == nil {
		return models.PricingRule{}, domain.NotFoundError{Resource: "pricing rule"}
	}
	return *r, nil
}

// Create stores a new active rule, filling missing multiplier tables with
// the defaults.
func (s PricingRuleService) Create(ctx context.Context, r models.PricingRule) (models.PricingRule, error) {
	r = normalizeRule(r)
	r.Active = true
	if err := validateRule(r); err != nil {
		return models.PricingRule{}, err
	}
	if err := s.ensureUnique(ctx, r, 0); err != nil {
		return models.PricingRule{}, err
	}

	id, err := s.Repo.Create(ctx, r)
	if err != nil {
		return models.PricingRule{}, err
	}
	utils.LogEvent(s.RequestID, "pricing_rule", "create",
		fmt.Sprintf("id=%d key=%s/%s", id, r.PropertyType, r.Locality))
	return s.Get(ctx, id)
}

// Update replaces the rule's coefficients and state.
func (s PricingRuleService) Update(ctx context.Context, id int64, r models.PricingRule) (models.PricingRule, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return models.PricingRule{}, err
	}
	r.ID = id
	r = normalizeRule(r)
	if err := validateRule(r); err != nil {
		return models.PricingRule{}, err
	}
	if r.Active {
		if err := s.ensureUnique(ctx, r, id); err != nil {
			return models.PricingRule{}, err
		}
	}
	if err := s.Repo.Update(ctx, r); err != nil {
		return models.PricingRule{}, notFound("pricing rule", err)
	}
	utils.LogEvent(s.RequestID, "pricing_rule", "update", "id="+strconv.FormatInt(id, 10))
	return s.Get(ctx, id)
}

// Delete deactivates the rule; rules are never removed.
func (s PricingRuleService) Delete(ctx context.Context, id int64) error {
	if err := s.Repo.Deactivate(ctx, id); err != nil {
		return notFound("pricing rule", err)
	}
	utils.LogEvent(s.RequestID, "pricing_rule", "deactivate", "id="+strconv.FormatInt(id, 10))
	return nil
}

func (s PricingRuleService) ensureUnique(ctx context.Context, r models.PricingRule, excludeID int64) error {
	dup, err := s.Repo.HasActive(ctx, r.PropertyType, r.Locality, excludeID)
	if err != nil {
		return err
	}
	if dup {
		return domain.ConflictError{
			Resource: "pricing rule",
			Msg:      fmt.Sprintf("an active rule already exists for %s in %s", r.PropertyType, r.Locality),
		}
	}
	return nil
}

func normalizeRule(r models.PricingRule) models.PricingRule {
	r.PropertyType = models.NormalizePropertyType(r.PropertyType)
	r.Locality = models.NormalizeLocality(r.Locality)

	if len(r.ConditionMultipliers) == 0 {
		r.ConditionMultipliers = copyTable(models.DefaultConditionMultipliers)
	} else {
		out := make(map[string]float64, len(r.ConditionMultipliers))
		for k, v := range r.ConditionMultipliers {
			out[models.NormalizeCondition(k)] = v
		}
		r.ConditionMultipliers = out
	}

	if len(r.ExtraMultipliers) == 0 {
		r.ExtraMultipliers = copyTable(models.DefaultExtraMultipliers)
	} else {
		out := make(map[string]float64, len(r.ExtraMultipliers))
		for k, v := range r.ExtraMultipliers {
			key, ok := models.NormalizeExtra(k)
			if !ok {
				// kept as-is so validation can name it
				key = k
			}
			out[key] = v
		}
		r.ExtraMultipliers = out
	}
	return r
}

func validateRule(r models.PricingRule) error {
	if r.PropertyType == "" {
		return domain.ValidationError{Field: "property_type", Msg: "required"}
	}
	if r.Locality == "" {
		return domain.ValidationError{Field: "locality", Msg: "required"}
	}
	if !positive(r.BasePricePerAreaUnit) {
		return domain.ValidationError{Field: "base_price_per_area_unit", Msg: "must be greater than zero"}
	}
	if r.BasePricePerLandAreaUnit != nil && !positive(*r.BasePricePerLandAreaUnit) {
		return domain.ValidationError{Field: "base_price_per_land_area_unit", Msg: "must be greater than zero"}
	}
	for k, v := range r.ConditionMultipliers {
		if !models.IsKnownCondition(k) {
			return domain.ValidationError{Field: "condition_multipliers", Msg: fmt.Sprintf("unknown condition %q", k)}
		}
		if !positive(v) {
			return domain.ValidationError{Field: "condition_multipliers", Msg: fmt.Sprintf("%s must be greater than zero", k)}
		}
	}
	for k, v := range r.ExtraMultipliers {
		if _, ok := models.DefaultExtraMultipliers[k]; !ok {
			return domain.ValidationError{Field: "extra_multipliers", Msg: fmt.Sprintf("unknown extra %q", k)}
		}
		if !positive(v) {
			return domain.ValidationError{Field: "extra_multipliers", Msg: fmt.Sprintf("%s must be greater than zero", k)}
		}
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func copyTable(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
