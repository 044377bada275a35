package models

import (
	"strings"

	"leadengine/internal/utils"
)

// Property conditions.
const (
	ConditionNew             = "new"
	ConditionGood            = "good"
	ConditionFair            = "fair"
	ConditionNeedsRenovation = "needs-renovation"
)

// Property extras.
const (
	ExtraGarage          = "garage"
	ExtraYard            = "yard"
	ExtraPool            = "pool"
	ExtraGrill           = "grill"
	ExtraAirConditioning = "air-conditioning"
	ExtraHeating         = "heating"
	ExtraSecurity        = "security"
	ExtraAmenities       = "amenities"
)

var Conditions = []string{ConditionNew, ConditionGood, ConditionFair, ConditionNeedsRenovation}

var Extras = []string{
	ExtraGarage, ExtraYard, ExtraPool, ExtraGrill,
	ExtraAirConditioning, ExtraHeating, ExtraSecurity, ExtraAmenities,
}

// the public site posts the Spanish values
var conditionAliases = map[string]string{
	"nuevo":        ConditionNew,
	"a-estrenar":   ConditionNew,
	"bueno":        ConditionGood,
	"regular":      ConditionFair,
	"a-renovar":    ConditionNeedsRenovation,
	"para-renovar": ConditionNeedsRenovation,
}

var extraAliases = map[string]string{
	"cochera":            ExtraGarage,
	"patio":              ExtraYard,
	"jardin":             ExtraYard,
	"pileta":             ExtraPool,
	"piscina":            ExtraPool,
	"parrilla":           ExtraGrill,
	"aire":               ExtraAirConditioning,
	"a/c":                ExtraAirConditioning,
	"ac":                 ExtraAirConditioning,
	"aire-acondicionado": ExtraAirConditioning,
	"calefaccion":        ExtraHeating,
	"seguridad":          ExtraSecurity,
}

// DefaultConditionMultipliers apply on the fallback path and seed new rules.
var DefaultConditionMultipliers = map[string]float64{
	ConditionNew:             1.1,
	ConditionGood:            1.0,
	ConditionFair:            0.9,
	ConditionNeedsRenovation: 0.75,
}

// DefaultExtraMultipliers seed new rules created without an extras table.
var DefaultExtraMultipliers = map[string]float64{
	ExtraGarage:          1.02,
	ExtraYard:            1.02,
	ExtraPool:            1.03,
	ExtraGrill:           1.01,
	ExtraAirConditioning: 1.01,
	ExtraHeating:         1.01,
	ExtraSecurity:        1.02,
	ExtraAmenities:       1.02,
}

// NormalizeCondition maps aliases onto the canonical condition names.
// Unknown values are returned folded but otherwise untouched.
func NormalizeCondition(raw string) string {
	key := utils.FoldKey(raw)
	if c, ok := conditionAliases[key]; ok {
		return c
	}
	return key
}

func IsKnownCondition(c string) bool {
	_, ok := DefaultConditionMultipliers[c]
	return ok
}

// NormalizeExtra returns the canonical extra name and whether it is known.
func NormalizeExtra(raw string) (string, bool) {
	key := utils.FoldKey(raw)
	if e, ok := extraAliases[key]; ok {
		return e, true
	}
	_, ok := DefaultExtraMultipliers[key]
	return key, ok
}

// NormalizeExtras canonicalizes a selection, dropping unknown values and
// duplicates while keeping the caller's order.
func NormalizeExtras(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		e, ok := NormalizeExtra(r)
		if !ok {
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

// NormalizeLocality folds a department label into its key.
func NormalizeLocality(raw string) string {
	return utils.FoldKey(raw)
}

// NormalizePropertyType folds a property type label into its key.
func NormalizePropertyType(raw string) string {
	return utils.FoldKey(raw)
}

// Lead types as posted by each public form.
const (
	LeadTypeSell       = "vender"
	LeadTypeBuy        = "comprar"
	LeadTypeRent       = "alquilar"
	LeadTypeManagement = "administracion"
	LeadTypeContact    = "contacto"
	LeadTypeJobs       = "trabaja-con-nosotros"
	LeadTypeValuation  = "tasacion"
)

var LeadTypes = []string{
	LeadTypeSell, LeadTypeBuy, LeadTypeRent, LeadTypeManagement,
	LeadTypeContact, LeadTypeJobs, LeadTypeValuation,
}

// Lead statuses.
const (
	LeadStatusNew        = "nuevo"
	LeadStatusContacted  = "contactado"
	LeadStatusInProgress = "en-proceso"
	LeadStatusClosed     = "cerrado"
	LeadStatusDiscarded  = "descartado"
)

var LeadStatuses = []string{
	LeadStatusNew, LeadStatusContacted, LeadStatusInProgress, LeadStatusClosed, LeadStatusDiscarded,
}

// Property operations.
const (
	OperationSale          = "venta"
	OperationRent          = "alquiler"
	OperationTemporaryRent = "alquiler-temporal"
)

var Operations = []string{OperationSale, OperationRent, OperationTemporaryRent}

var Currencies = []string{"ARS", "USD"}

// OneOf reports whether v is in set.
func OneOf(v string, set []string) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}

// NormalizeCurrency upper-cases a currency label, defaulting to def.
func NormalizeCurrency(raw, def string) string {
	c := strings.ToUpper(strings.TrimSpace(raw))
	if c == "" {
		return def
	}
	return c
}
