package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	intconfig "leadengine/internal/config"
	intdb "leadengine/internal/db"
	"leadengine/internal/domain/models"
)

// PricingRuleRepository wraps DB access for pricing_rules.
type PricingRuleRepository struct {
	DB *sql.DB
}

func (r PricingRuleRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const pricingRuleColumns = `
	id,
	property_type,
	locality,
	base_price_per_area_unit,
	base_price_per_land_area_unit,
	condition_multipliers,
	extra_multipliers,
	active,
	created_at,
	updated_at`

// FindActiveRule returns the active rule for the key, or nil when none matches.
func (r PricingRuleRepository) FindActiveRule(ctx context.Context, propertyType, locality string) (*models.PricingRule, error) {
	row := r.db().QueryRowContext(ctx, `SELECT `+pricingRuleColumns+`
		FROM pricing_rules
		WHERE property_type=? AND locality=? AND active=1
		ORDER BY id DESC LIMIT 1`, propertyType, locality)
	rule, err := scanPricingRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r PricingRuleRepository) GetByID(ctx context.Context, id int64) (models.PricingRule, error) {
	if id <= 0 {
		return models.PricingRule{}, sql.ErrNoRows
	}
	row := r.db().QueryRowContext(ctx, `SELECT `+pricingRuleColumns+` FROM pricing_rules WHERE id=? LIMIT 1`, id)
	return scanPricingRule(row)
}

func (r PricingRuleRepository) List(ctx context.Context, f models.PricingRuleFilter) ([]models.PricingRule, error) {
	where := []string{}
	args := []any{}
	if f.PropertyType != "" {
		where = append(where, "property_type=?")
		args = append(args, f.PropertyType)
	}
	if f.Locality != "" {
		where = append(where, "locality=?")
		args = append(args, f.Locality)
	}
	if f.Active != nil {
		where = append(where, "active=?")
		args = append(args, *f.Active)
	}

	rows, err := r.db().QueryContext(ctx, `SELECT `+pricingRuleColumns+` FROM pricing_rules`+
		intdb.Where(where)+` ORDER BY property_type, locality, id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.PricingRule{}
	for rows.Next() {
		rule, err := scanPricingRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

// HasActive reports whether another active rule already uses the key.
func (r PricingRuleRepository) HasActive(ctx context.Context, propertyType, locality string, excludeID int64) (bool, error) {
	var n int
	err := r.db().QueryRowContext(ctx, `
		SELECT COUNT(*) FROM pricing_rules
		WHERE property_type=? AND locality=? AND active=1 AND id<>?`,
		propertyType, locality, excludeID).Scan(&n)
	return n > 0, err
}

func (r PricingRuleRepository) Create(ctx context.Context, rule models.PricingRule) (int64, error) {
	cond, err := intdb.JSON(rule.ConditionMultipliers)
	if err != nil {
		return 0, err
	}
	extras, err := intdb.JSON(rule.ExtraMultipliers)
	if err != nil {
		return 0, err
	}
	now := time.Now()
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO pricing_rules
			(property_type, locality, base_price_per_area_unit, base_price_per_land_area_unit,
			 condition_multipliers, extra_multipliers, active, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		rule.PropertyType, rule.Locality, rule.BasePricePerAreaUnit, intdb.NullFloat(rule.BasePricePerLandAreaUnit),
		cond, extras, rule.Active, now, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r PricingRuleRepository) Update(ctx context.Context, rule models.PricingRule) error {
	cond, err := intdb.JSON(rule.ConditionMultipliers)
	if err != nil {
		return err
	}
	extras, err := intdb.JSON(rule.ExtraMultipliers)
	if err != nil {
		return err
	}
	res, err := r.db().ExecContext(ctx, `
		UPDATE pricing_rules SET
			property_type=?, locality=?, base_price_per_area_unit=?, base_price_per_land_area_unit=?,
			condition_multipliers=?, extra_multipliers=?, active=?, updated_at=?
		WHERE id=?`,
		rule.PropertyType, rule.Locality, rule.BasePricePerAreaUnit, intdb.NullFloat(rule.BasePricePerLandAreaUnit),
		cond, extras, rule.Active, time.Now(), rule.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Deactivate soft-deletes a rule; rows are never removed.
func (r PricingRuleRepository) Deactivate(ctx context.Context, id int64) error {
	res, err := r.db().ExecContext(ctx, `UPDATE pricing_rules SET active=0, updated_at=? WHERE id=?`, time.Now(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPricingRule(s rowScanner) (models.PricingRule, error) {
	var (
		rule       models.PricingRule
		land       sql.NullFloat64
		cond, extr sql.NullString
	)
	if err := s.Scan(
		&rule.ID,
		&rule.PropertyType,
		&rule.Locality,
		&rule.BasePricePerAreaUnit,
		&land,
		&cond,
		&extr,
		&rule.Active,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	); err != nil {
		return models.PricingRule{}, err
	}
	rule.BasePricePerLandAreaUnit = intdb.FloatPtr(land)
	if err := intdb.ScanJSON(cond, &rule.ConditionMultipliers); err != nil {
		return models.PricingRule{}, fmt.Errorf("pricing rule %d condition_multipliers: %w", rule.ID, err)
	}
	if err := intdb.ScanJSON(extr, &rule.ExtraMultipliers); err != nil {
		return models.PricingRule{}, fmt.Errorf("pricing rule %d extra_multipliers: %w", rule.ID, err)
	}
	if rule.ConditionMultipliers == nil {
		rule.ConditionMultipliers = map[string]float64{}
	}
	if rule.ExtraMultipliers == nil {
		rule.ExtraMultipliers = map[string]float64{}
	}
	return rule, nil
}

// requireRow turns an update that touched nothing into sql.ErrNoRows.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
