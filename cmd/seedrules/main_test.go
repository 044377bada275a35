package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"leadengine/internal/domain"
	"leadengine/internal/domain/models"
)

const sampleYAML = `
rules:
  - property_type: casa
    locality: godoy-cruz
    base_price_per_area_unit: 1000
    base_price_per_land_area_unit: 50
    extra_multipliers:
      pool: 1.05
  - property_type: departamento
    locality: ciudad
    base_price_per_area_unit: 1400
`

func TestParseRules(t *testing.T) {
	rules, err := parseRules(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("parseRules: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("got %d rules", len(rules))
	}
	if rules[0].BasePricePerLandAreaUnit == nil || *rules[0].BasePricePerLandAreaUnit != 50 {
		t.Fatalf("land price = %v", rules[0].BasePricePerLandAreaUnit)
	}
	if rules[0].ExtraMultipliers["pool"] != 1.05 {
		t.Fatalf("extras = %v", rules[0].ExtraMultipliers)
	}
	if rules[1].BasePricePerLandAreaUnit != nil || rules[1].ConditionMultipliers != nil {
		t.Fatalf("unset fields should stay empty: %+v", rules[1])
	}
}

func TestParseRulesRejectsUnknownFieldsAndEmptyFiles(t *testing.T) {
	if _, err := parseRules(strings.NewReader("rules:\n  - property_typ: casa\n")); err == nil {
		t.Fatalf("expected error for unknown field")
	}
	if _, err := parseRules(strings.NewReader("rules: []\n")); err == nil {
		t.Fatalf("expected error for empty rule list")
	}
}

type fakeStore struct {
	active  map[string]int64
	created []models.PricingRule
	updated []int64
	fail    error
}

func (f *fakeStore) Active(_ context.Context, pt, loc string) (models.PricingRule, error) {
	if f.fail != nil {
		return models.PricingRule{}, f.fail
	}
	if id, ok := f.active[pt+"/"+loc]; ok {
		return models.PricingRule{ID: id}, nil
	}
	return models.PricingRule{}, domain.NotFoundError{Resource: "pricing rule"}
}

func (f *fakeStore) Create(_ context.Context, r models.PricingRule) (models.PricingRule, error) {
	f.created = append(f.created, r)
	return r, nil
}

func (f *fakeStore) Update(_ context.Context, id int64, r models.PricingRule) (models.PricingRule, error) {
	if !r.Active {
		return r, errors.New("seeded rules must stay active")
	}
	f.updated = append(f.updated, id)
	return r, nil
}

func TestSeedUpsertsByKey(t *testing.T) {
	store := &fakeStore{active: map[string]int64{"casa/godoy-cruz": 7}}
	rules, _ := parseRules(strings.NewReader(sampleYAML))

	created, updated, err := seed(context.Background(), store, rules)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if created != 1 || updated != 1 {
		t.Fatalf("created=%d updated=%d", created, updated)
	}
	if len(store.updated) != 1 || store.updated[0] != 7 {
		t.Fatalf("updated ids = %v", store.updated)
	}
	if store.created[0].Locality != "ciudad" {
		t.Fatalf("created = %+v", store.created)
	}
}

func TestSeedStopsOnStoreError(t *testing.T) {
	store := &fakeStore{fail: errors.New("db down")}
	rules, _ := parseRules(strings.NewReader(sampleYAML))
	if _, _, err := seed(context.Background(), store, rules); err == nil {
		t.Fatalf("expected error")
	}
}
