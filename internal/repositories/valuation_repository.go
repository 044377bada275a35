package repositories

import (
	"context"
	"database/sql"
	"math"
	"time"

	intconfig "leadengine/internal/config"
	intdb "leadengine/internal/db"
	"leadengine/internal/domain/models"
)

type ValuationRepository struct {
	DB *sql.DB
}

func (r ValuationRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const valuationColumns = `
	id, property_type, locality, COALESCE(neighborhood,''),
	covered_area, total_area, bedrooms, bathrooms,
	COALESCE(property_condition,''), extras,
	estimated_value, minimum_value, maximum_value,
	currency, rule_source,
	COALESCE(name,''), COALESCE(surname,''), COALESCE(email,''), COALESCE(phone,''),
	lead_id, created_at`

func (r ValuationRepository) Create(ctx context.Context, q intdb.Querier, v models.Valuation) (int64, error) {
	if q == nil {
		q = r.db()
	}
	extras, err := intdb.JSON(v.Extras)
	if err != nil {
		return 0, err
	}
	res, err := q.ExecContext(ctx, `
		INSERT INTO valuations (
			property_type, locality, neighborhood,
			covered_area, total_area, bedrooms, bathrooms,
			property_condition, extras,
			estimated_value, minimum_value, maximum_value,
			currency, rule_source,
			name, surname, email, phone,
			lead_id, created_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		v.PropertyType, v.Locality, intdb.NullIfEmpty(v.Neighborhood),
		v.CoveredArea, intdb.NullFloat(v.TotalArea), intdb.NullInt(v.Bedrooms), intdb.NullInt(v.Bathrooms),
		intdb.NullIfEmpty(v.Condition), extras,
		v.EstimatedValue, v.MinimumValue, v.MaximumValue,
		v.Currency, v.RuleSource,
		intdb.NullIfEmpty(v.Name), intdb.NullIfEmpty(v.Surname), intdb.NullIfEmpty(v.Email), intdb.NullIfEmpty(v.Phone),
		intdb.NullInt64(v.LeadID), time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r ValuationRepository) GetByID(ctx context.Context, id int64) (models.Valuation, error) {
	if id <= 0 {
		return models.Valuation{}, sql.ErrNoRows
	}
	row := r.db().QueryRowContext(ctx, `SELECT `+valuationColumns+` FROM valuations WHERE id=? LIMIT 1`, id)
	return scanValuation(row)
}

// LinkLead records the lead created from a valuation's contact form.
func (r ValuationRepository) LinkLead(ctx context.Context, q intdb.Querier, id, leadID int64) error {
	if q == nil {
		q = r.db()
	}
	res, err := q.ExecContext(ctx, `UPDATE valuations SET lead_id=? WHERE id=?`, leadID, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r ValuationRepository) List(ctx context.Context, f models.ValuationFilter) ([]models.Valuation, error) {
	where, args := valuationWhere(f)
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db().QueryContext(ctx, `SELECT `+valuationColumns+` FROM valuations`+intdb.Where(where)+
		` ORDER BY created_at DESC, id DESC LIMIT ?`, append(args, limit)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Valuation{}
	for rows.Next() {
		v, err := scanValuation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Stats groups by property type and by locality with rounded average estimates.
func (r ValuationRepository) Stats(ctx context.Context, f models.ValuationFilter) (models.ValuationStats, error) {
	where, args := valuationWhere(f)
	clause := intdb.Where(where)
	stats := models.ValuationStats{
		ByType:     map[string]models.GroupStat{},
		ByLocality: map[string]models.GroupStat{},
	}

	if err := r.db().QueryRowContext(ctx, `SELECT COUNT(*) FROM valuations`+clause, args...).Scan(&stats.Total); err != nil {
		return stats, err
	}
	if err := r.groupStats(ctx, "property_type", clause, args, stats.ByType); err != nil {
		return stats, err
	}
	if err := r.groupStats(ctx, "locality", clause, args, stats.ByLocality); err != nil {
		return stats, err
	}
	return stats, nil
}

func (r ValuationRepository) groupStats(ctx context.Context, column, clause string, args []any, into map[string]models.GroupStat) error {
	rows, err := r.db().QueryContext(ctx, `
		SELECT `+column+`, COUNT(*), COALESCE(AVG(estimated_value),0)
		FROM valuations`+clause+`
		GROUP BY `+column, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key   string
			count int
			avg   float64
		)
		if err := rows.Scan(&key, &count, &avg); err != nil {
			return err
		}
		into[key] = models.GroupStat{Count: count, Average: int64(math.Round(avg))}
	}
	return rows.Err()
}

func valuationWhere(f models.ValuationFilter) ([]string, []any) {
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
	return intdb.DateRange("created_at", f.DateFrom, f.DateTo, where, args)
}

func scanValuation(s rowScanner) (models.Valuation, error) {
	var (
		v                   models.Valuation
		total               sql.NullFloat64
		bedrooms, bathrooms sql.NullInt64
		extras              sql.NullString
		leadID              sql.NullInt64
	)
	if err := s.Scan(
		&v.ID, &v.PropertyType, &v.Locality, &v.Neighborhood,
		&v.CoveredArea, &total, &bedrooms, &bathrooms,
		&v.Condition, &extras,
		&v.EstimatedValue, &v.MinimumValue, &v.MaximumValue,
		&v.Currency, &v.RuleSource,
		&v.Name, &v.Surname, &v.Email, &v.Phone,
		&leadID, &v.CreatedAt,
	); err != nil {
		return models.Valuation{}, err
	}
	v.TotalArea = intdb.FloatPtr(total)
	v.Bedrooms = intdb.IntPtr(bedrooms)
	v.Bathrooms = intdb.IntPtr(bathrooms)
	v.LeadID = intdb.Int64Ptr(leadID)
	if err := intdb.ScanJSON(extras, &v.Extras); err != nil {
		return models.Valuation{}, err
	}
	if v.Extras == nil {
		v.Extras = []string{}
	}
	return v, nil
}
