// Command seedrules loads valuation pricing rules from a YAML file into the
// database. An existing active rule for the same key is updated in place.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	intconfig "leadengine/internal/config"
	"leadengine/internal/domain"
	"leadengine/internal/domain/models"
	"leadengine/internal/repositories"
	"leadengine/internal/services"
	"leadengine/internal/utils"

	"gopkg.in/yaml.v3"
)

type ruleFile struct {
	Rules []ruleEntry `yaml:"rules"`
}

type ruleEntry struct {
	PropertyType             string             `yaml:"property_type"`
	Locality                 string             `yaml:"locality"`
	BasePricePerAreaUnit     float64            `yaml:"base_price_per_area_unit"`
	BasePricePerLandAreaUnit *float64           `yaml:"base_price_per_land_area_unit"`
	ConditionMultipliers     map[string]float64 `yaml:"condition_multipliers"`
	ExtraMultipliers         map[string]float64 `yaml:"extra_multipliers"`
}

func parseRules(r io.Reader) ([]models.PricingRule, error) {
	var f ruleFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("no rules in file")
	}

	out := make([]models.PricingRule, 0, len(f.Rules))
	for _, e := range f.Rules {
		out = append(out, models.PricingRule{
			PropertyType:             e.PropertyType,
			Locality:                 e.Locality,
			BasePricePerAreaUnit:     e.BasePricePerAreaUnit,
			BasePricePerLandAreaUnit: e.BasePricePerLandAreaUnit,
			ConditionMultipliers:     e.ConditionMultipliers,
			ExtraMultipliers:         e.ExtraMultipliers,
		})
	}
	return out, nil
}

// ruleStore is the part of PricingRuleService the seeder needs.
type ruleStore interface {
	Active(ctx context.Context, propertyType, locality string) (models.PricingRule, error)
	Create(ctx context.Context, r models.PricingRule) (models.PricingRule, error)
	Update(ctx context.Context, id int64, r models.PricingRule) (models.PricingRule, error)
}

// seed upserts every rule and reports how many were created and updated.
func seed(ctx context.Context, store ruleStore, rules []models.PricingRule) (created, updated int, err error) {
	for i, r := range rules {
		existing, err := store.Active(ctx, r.PropertyType, r.Locality)
		switch {
		case err == nil:
			r.Active = true
			if _, err := store.Update(ctx, existing.ID, r); err != nil {
				return created, updated, fmt.Errorf("rule %d (%s/%s): %w", i+1, r.PropertyType, r.Locality, err)
			}
			updated++
		case domain.IsNotFound(err):
			if _, err := store.Create(ctx, r); err != nil {
				return created, updated, fmt.Errorf("rule %d (%s/%s): %w", i+1, r.PropertyType, r.Locality, err)
			}
			created++
		default:
			return created, updated, err
		}
	}
	return created, updated, nil
}

func main() {
	path := flag.String("file", "rules.yaml", "YAML file with pricing rules")
	flag.Parse()

	env := intconfig.LoadEnv()
	utils.SetupLogger(utils.LogConfig{Level: env.LogLevel, Format: env.LogFormat})

	f, err := os.Open(*path)
	if err != nil {
		slog.Error("open rules file", "file", *path, "err", err)
		os.Exit(1)
	}
	rules, err := parseRules(f)
	f.Close()
	if err != nil {
		slog.Error("parse rules file", "file", *path, "err", err)
		os.Exit(1)
	}

	db := intconfig.ConnectDB(env)
	defer intconfig.CloseDB()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	svc := services.PricingRuleService{Repo: repositories.PricingRuleRepository{DB: db}, RequestID: "seedrules"}
	created, updated, err := seed(ctx, svc, rules)
	if err != nil {
		slog.Error("seed pricing rules", "created", created, "updated", updated, "err", err)
		intconfig.CloseDB()
		os.Exit(1)
	}
	slog.Info("pricing rules seeded", "created", created, "updated", updated)
}
