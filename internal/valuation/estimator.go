// Package valuation turns a property description into a price estimate
// and range, either from a stored pricing rule or from built-in defaults.
package valuation

import (
	"context"
	"math"
	"strconv"

	"leadengine/internal/domain"
	"leadengine/internal/domain/models"
)

const (
	// DefaultBasePrice is the price per covered area unit when no active
	// rule matches the request.
	DefaultBasePrice = 1000.0

	// DefaultExtraStep is the flat increment per selected extra on the
	// default path. Rules use their own multiplicative table instead.
	DefaultExtraStep = 0.02

	MinimumFactor = 0.85
	MaximumFactor = 1.15

	// SourceDefault marks results computed without a stored rule.
	SourceDefault = "default"

	// maxValue keeps the rounded maximum inside int64.
	maxValue = 9e18
)

// Request describes the property being valued. Bedrooms and Bathrooms are
// descriptive only and never enter the price.
type Request struct {
	PropertyType string   `json:"property_type"`
	Locality     string   `json:"locality"`
	Neighborhood string   `json:"neighborhood,omitempty"`
	CoveredArea  float64  `json:"covered_area"`
	TotalArea    *float64 `json:"total_area,omitempty"`
	Condition    string   `json:"condition"`
	Extras       []string `json:"extras"`
	Bedrooms     *int     `json:"bedrooms,omitempty"`
	Bathrooms    *int     `json:"bathrooms,omitempty"`
	Currency     string   `json:"currency,omitempty"`
}

// Result always satisfies Minimum <= Estimated <= Maximum.
type Result struct {
	Estimated  int64  `json:"estimated"`
	Minimum    int64  `json:"minimum"`
	Maximum    int64  `json:"maximum"`
	RuleSource string `json:"rule_source"`
	Currency   string `json:"currency"`
}

// RuleFinder looks up the active rule for a (property type, locality) key.
// It returns nil and no error when nothing matches.
type RuleFinder interface {
	FindActiveRule(ctx context.Context, propertyType, locality string) (*models.PricingRule, error)
}

type Estimator struct {
	Rules           RuleFinder
	DefaultCurrency string
}

// Estimate validates req, looks up the matching rule and computes the result.
// Rule store failures come back as domain.UpstreamError.
func (e Estimator) Estimate(ctx context.Context, req Request) (Result, error) {
	if err := validate(req); err != nil {
		return Result{}, err
	}

	var rule *models.PricingRule
	if e.Rules != nil {
		found, err := e.Rules.FindActiveRule(ctx,
			models.NormalizePropertyType(req.PropertyType),
			models.NormalizeLocality(req.Locality))
		if err != nil {
			return Result{}, domain.Upstream("find pricing rule", err)
		}
		if found != nil && found.Active {
			rule = found
		}
	}

	res, err := Compute(req, rule)
	if err != nil {
		return Result{}, err
	}
	res.Currency = models.NormalizeCurrency(req.Currency, e.currency())
	return res, nil
}

func (e Estimator) currency() string {
	if e.DefaultCurrency != "" {
		return e.DefaultCurrency
	}
	return "USD"
}

// Compute is the pure pricing step. A nil rule selects the default tables.
func Compute(req Request, rule *models.PricingRule) (Result, error) {
	if err := validate(req); err != nil {
		return Result{}, err
	}

	condition := models.NormalizeCondition(req.Condition)
	extras := models.NormalizeExtras(req.Extras)

	var raw float64
	source := SourceDefault
	if rule != nil {
		price := rule.BasePricePerAreaUnit
		if price <= 0 {
			price = DefaultBasePrice
		}
		raw = req.CoveredArea * price * factor(rule.ConditionMultipliers, condition)
		for _, x := range extras {
			if m, ok := rule.ExtraMultipliers[x]; ok {
				raw *= m
			}
		}
		source = strconv.FormatInt(rule.ID, 10)
	} else {
		raw = req.CoveredArea * DefaultBasePrice * factor(models.DefaultConditionMultipliers, condition)
		raw *= 1 + float64(len(extras))*DefaultExtraStep
	}
	if math.IsNaN(raw) || math.IsInf(raw, 0) || raw*MaximumFactor > maxValue {
		return Result{}, domain.InvalidInputError{Field: "covered_area", Msg: "too large to value"}
	}

	return Result{
		Estimated:  round(raw),
		Minimum:    round(raw * MinimumFactor),
		Maximum:    round(raw * MaximumFactor),
		RuleSource: source,
	}, nil
}

// factor returns the multiplier for key, or 1 when the table has none.
func factor(table map[string]float64, key string) float64 {
	if m, ok := table[key]; ok && m > 0 {
		return m
	}
	return 1
}

func validate(req Request) error {
	a := req.CoveredArea
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return domain.InvalidInputError{Field: "covered_area", Msg: "must be a number"}
	}
	if a <= 0 {
		return domain.InvalidInputError{Field: "covered_area", Msg: "must be greater than zero"}
	}
	return nil
}

// round is half away from zero.
func round(x float64) int64 {
	return int64(math.Round(x))
}
