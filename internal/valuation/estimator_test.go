package valuation

import (
	"context"
	"errors"
	"math"
	"testing"

	"leadengine/internal/domain"
	"leadengine/internal/domain/models"
)

type stubRules struct {
	rule  *models.PricingRule
	err   error
	calls int
	key   [2]string
}

func (s *stubRules) FindActiveRule(_ context.Context, propertyType, locality string) (*models.PricingRule, error) {
	s.calls++
	s.key = [2]string{propertyType, locality}
	return s.rule, s.err
}

func houseRequest() Request {
	return Request{PropertyType: "casa", Locality: "ciudad", CoveredArea: 120, Condition: "good"}
}

func TestEstimateWithRule(t *testing.T) {
	rules := &stubRules{rule: &models.PricingRule{
		ID:                   42,
		BasePricePerAreaUnit: 1200,
		ConditionMultipliers: map[string]float64{models.ConditionGood: 1.0},
		ExtraMultipliers:     map[string]float64{},
		Active:               true,
	}}
	est := Estimator{Rules: rules}

	got, err := est.Estimate(context.Background(), houseRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Result{Estimated: 144000, Minimum: 122400, Maximum: 165600, RuleSource: "42", Currency: "USD"}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestEstimateWithoutRule(t *testing.T) {
	est := Estimator{Rules: &stubRules{}}

	got, err := est.Estimate(context.Background(), houseRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Result{Estimated: 120000, Minimum: 102000, Maximum: 138000, RuleSource: SourceDefault, Currency: "USD"}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestInactiveRuleFallsBackToDefault(t *testing.T) {
	est := Estimator{Rules: &stubRules{rule: &models.PricingRule{ID: 7, BasePricePerAreaUnit: 5000, Active: false}}}
	got, err := est.Estimate(context.Background(), houseRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.RuleSource != SourceDefault || got.Estimated != 120000 {
		t.Fatalf("inactive rule must not be used, got %+v", got)
	}
}

func TestEstimateFoldsLookupKey(t *testing.T) {
	rules := &stubRules{}
	req := houseRequest()
	req.PropertyType = " Casa "
	req.Locality = "Luján de Cuyo"
	if _, err := (Estimator{Rules: rules}).Estimate(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rules.key != [2]string{"casa", "lujan-de-cuyo"} {
		t.Fatalf("lookup key = %v", rules.key)
	}
}

func TestEstimateWrapsStoreFailure(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := (Estimator{Rules: &stubRules{err: boom}}).Estimate(context.Background(), houseRequest())
	if !domain.IsUpstream(err) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("cause should be preserved")
	}
}

func TestEstimateRejectsBadArea(t *testing.T) {
	rules := &stubRules{}
	for _, area := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		req := houseRequest()
		req.CoveredArea = area
		if _, err := (Estimator{Rules: rules}).Estimate(context.Background(), req); !domain.IsInvalidInput(err) {
			t.Fatalf("area %v: expected invalid input, got %v", area, err)
		}
	}
	if rules.calls != 0 {
		t.Fatalf("store must not be consulted for malformed input")
	}
}

func TestRangeInvariant(t *testing.T) {
	rule := &models.PricingRule{
		ID:                   1,
		BasePricePerAreaUnit: 873.37,
		ConditionMultipliers: models.DefaultConditionMultipliers,
		ExtraMultipliers:     models.DefaultExtraMultipliers,
		Active:               true,
	}
	areas := []float64{0.5, 1, 33.3, 120, 999.99, 12345.678}
	for _, area := range areas {
		for _, cond := range append(models.Conditions, "unknown") {
			for _, r := range []*models.PricingRule{nil, rule} {
				req := Request{CoveredArea: area, Condition: cond, Extras: models.Extras}
				got, err := Compute(req, r)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got.Minimum > got.Estimated || got.Estimated > got.Maximum {
					t.Fatalf("range broken for area=%v cond=%s: %+v", area, cond, got)
				}
			}
		}
	}
}

func TestHugeAreaIsRejected(t *testing.T) {
	rule := &models.PricingRule{ID: 2, BasePricePerAreaUnit: 1e9, Active: true}
	cases := []struct {
		area float64
		rule *models.PricingRule
	}{
		{1e16, nil},
		{1e300, nil},
		{1e10, rule},
		{math.MaxFloat64, rule},
	}
	for _, tc := range cases {
		_, err := Compute(Request{CoveredArea: tc.area, Condition: "good"}, tc.rule)
		var ie domain.InvalidInputError
		if !errors.As(err, &ie) || ie.Field != "covered_area" {
			t.Fatalf("area %v: expected covered_area invalid input, got %v", tc.area, err)
		}
	}

	got, err := Compute(Request{CoveredArea: 1e12, Condition: "new"}, nil)
	if err != nil {
		t.Fatalf("large but representable area rejected: %v", err)
	}
	if got.Minimum > got.Estimated || got.Estimated > got.Maximum || got.Minimum <= 0 {
		t.Fatalf("range broken: %+v", got)
	}
}

func TestRangeUsesUnroundedValue(t *testing.T) {
	got, err := Compute(Request{CoveredArea: 1.5000003333, Condition: "fair"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	raw := 1.5000003333 * 1000 * 0.9
	if got.Minimum != int64(math.Round(raw*0.85)) || got.Maximum != int64(math.Round(raw*1.15)) {
		t.Fatalf("bounds must derive from the raw value, got %+v", got)
	}
}

func TestDefaultExtrasAreAdditive(t *testing.T) {
	base := Request{CoveredArea: 100, Condition: "new"}
	prev, _ := Compute(base, nil)
	baseTimesCondition := 100 * DefaultBasePrice * 1.1

	for i := 1; i <= len(models.Extras); i++ {
		req := base
		req.Extras = models.Extras[:i]
		got, err := Compute(req, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Estimated <= prev.Estimated {
			t.Fatalf("adding an extra must increase the estimate")
		}
		step := got.Estimated - prev.Estimated
		if want := int64(math.Round(baseTimesCondition * DefaultExtraStep)); step != want {
			t.Fatalf("extra %d added %d, want %d", i, step, want)
		}
		prev = got
	}
}

func TestRuleExtrasAreMultiplicative(t *testing.T) {
	rule := &models.PricingRule{
		ID:                   3,
		BasePricePerAreaUnit: 1000,
		ConditionMultipliers: map[string]float64{models.ConditionGood: 1},
		ExtraMultipliers:     map[string]float64{models.ExtraPool: 1.1, models.ExtraGarage: 1.2},
		Active:               true,
	}
	req := Request{CoveredArea: 100, Condition: "bueno", Extras: []string{"pileta", "cochera", "heating", "pool"}}
	got, err := Compute(req, rule)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// heating is not in the rule's table; the duplicate pool counts once
	if want := int64(math.Round(100 * 1000 * 1.1 * 1.2)); got.Estimated != want {
		t.Fatalf("estimated %d want %d", got.Estimated, want)
	}
}

func TestZeroExtrasMultiplierIsOne(t *testing.T) {
	rule := &models.PricingRule{ID: 9, BasePricePerAreaUnit: 1000, ExtraMultipliers: models.DefaultExtraMultipliers, Active: true}
	for _, r := range []*models.PricingRule{nil, rule} {
		got, _ := Compute(Request{CoveredArea: 80, Condition: "good"}, r)
		if got.Estimated != 80000 {
			t.Fatalf("zero extras should not change the value, got %+v", got)
		}
	}
}

func TestUnknownConditionUsesOne(t *testing.T) {
	rule := &models.PricingRule{
		ID:                   5,
		BasePricePerAreaUnit: 2000,
		ConditionMultipliers: map[string]float64{models.ConditionNew: 1.5},
		Active:               true,
	}
	for _, r := range []*models.PricingRule{nil, rule} {
		got, err := Compute(Request{CoveredArea: 10, Condition: "ruinoso"}, r)
		if err != nil {
			t.Fatalf("unknown condition must not fail: %v", err)
		}
		price := DefaultBasePrice
		if r != nil {
			price = r.BasePricePerAreaUnit
		}
		if got.Estimated != int64(10*price) {
			t.Fatalf("unknown condition should use multiplier 1, got %+v", got)
		}
	}
}

func TestConditionAliases(t *testing.T) {
	a, _ := Compute(Request{CoveredArea: 50, Condition: "A renovar"}, nil)
	b, _ := Compute(Request{CoveredArea: 50, Condition: models.ConditionNeedsRenovation}, nil)
	if a != b || a.Estimated != 37500 {
		t.Fatalf("alias mismatch: %+v vs %+v", a, b)
	}
}

func TestRuleWithoutBasePriceUsesDefault(t *testing.T) {
	got, _ := Compute(Request{CoveredArea: 10, Condition: "good"}, &models.PricingRule{ID: 11, Active: true})
	if got.Estimated != 10000 || got.RuleSource != "11" {
		t.Fatalf("got %+v", got)
	}
}

func TestCurrencyIsCarried(t *testing.T) {
	req := houseRequest()
	req.Currency = "ars"
	got, _ := (Estimator{Rules: &stubRules{}, DefaultCurrency: "USD"}).Estimate(context.Background(), req)
	if got.Currency != "ARS" || got.Estimated != 120000 {
		t.Fatalf("currency must be a label only, got %+v", got)
	}
}
