package models

import "time"

// PricingRule holds the valuation coefficients for one (property type, locality) pair.
// Rules are never hard-deleted; deactivating keeps old estimates traceable.
type PricingRule struct {
	ID                       int64              `json:"id"`
	PropertyType             string             `json:"property_type"`
	Locality                 string             `json:"locality"`
	BasePricePerAreaUnit     float64            `json:"base_price_per_area_unit"`
	BasePricePerLandAreaUnit *float64           `json:"base_price_per_land_area_unit,omitempty"`
	ConditionMultipliers     map[string]float64 `json:"condition_multipliers"`
	ExtraMultipliers         map[string]float64 `json:"extra_multipliers"`
	Active                   bool               `json:"active"`
	CreatedAt                time.Time          `json:"created_at"`
	UpdatedAt                time.Time          `json:"updated_at"`
}

// PricingRuleFilter narrows admin listings. Nil Active lists both states.
type PricingRuleFilter struct {
	PropertyType string
	Locality     string
	Active       *bool
}
