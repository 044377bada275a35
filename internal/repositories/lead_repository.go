package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	intconfig "leadengine/internal/config"
	intdb "leadengine/internal/db"
	"leadengine/internal/domain"
	"leadengine/internal/domain/models"
)

// ErrNoAdvisor means no active advisor can take a lead.
var ErrNoAdvisor = errors.New("no active advisor available")

type LeadRepository struct {
	DB *sql.DB
}

func (r LeadRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const leadColumns = `
	id, type, status,
	COALESCE(name,''), COALESCE(surname,''), COALESCE(email,''), COALESCE(phone,''), COALESCE(whatsapp,''),
	COALESCE(source,''),
	COALESCE(property_type,''), COALESCE(address,''), COALESCE(locality,''), COALESCE(neighborhood,''),
	covered_area, total_area, rooms, bedrooms, bathrooms,
	COALESCE(property_condition,''), extras,
	budget_min, budget_max,
	COALESCE(preferred_zone,''), COALESCE(experience,''), COALESCE(message,''), COALESCE(cv_url,''),
	assigned_advisor_id, property_id,
	COALESCE(utm_source,''), COALESCE(utm_medium,''), COALESCE(utm_campaign,''),
	COALESCE(ip_address,''), COALESCE(user_agent,''),
	created_at, updated_at`

// Create inserts a lead inside q so callers can pair it with an outbox row.
func (r LeadRepository) Create(ctx context.Context, q intdb.Querier, l models.Lead) (int64, error) {
	if q == nil {
		q = r.db()
	}
	extras, err := intdb.JSON(l.Extras)
	if err != nil {
		return 0, err
	}
	now := time.Now()
	res, err := q.ExecContext(ctx, `
		INSERT INTO leads (
			type, status, name, surname, email, phone, whatsapp, source,
			property_type, address, locality, neighborhood,
			covered_area, total_area, rooms, bedrooms, bathrooms,
			property_condition, extras, budget_min, budget_max,
			preferred_zone, experience, message, cv_url,
			assigned_advisor_id, property_id,
			utm_source, utm_medium, utm_campaign, ip_address, user_agent,
			created_at, updated_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		l.Type, l.Status, l.Name, l.Surname, l.Email, intdb.NullIfEmpty(l.Phone), intdb.NullIfEmpty(l.WhatsApp), l.Source,
		intdb.NullIfEmpty(l.PropertyType), intdb.NullIfEmpty(l.Address), intdb.NullIfEmpty(l.Locality), intdb.NullIfEmpty(l.Neighborhood),
		intdb.NullFloat(l.CoveredArea), intdb.NullFloat(l.TotalArea), intdb.NullInt(l.Rooms), intdb.NullInt(l.Bedrooms), intdb.NullInt(l.Bathrooms),
		intdb.NullIfEmpty(l.Condition), extras, intdb.NullFloat(l.BudgetMin), intdb.NullFloat(l.BudgetMax),
		intdb.NullIfEmpty(l.PreferredZone), intdb.NullIfEmpty(l.Experience), intdb.NullIfEmpty(l.Message), intdb.NullIfEmpty(l.CVURL),
		intdb.NullInt64(l.AssignedAdvisorID), intdb.NullInt64(l.PropertyID),
		intdb.NullIfEmpty(l.UTMSource), intdb.NullIfEmpty(l.UTMMedium), intdb.NullIfEmpty(l.UTMCampaign),
		intdb.NullIfEmpty(l.IPAddress), intdb.NullIfEmpty(l.UserAgent),
		now, now,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r LeadRepository) GetByID(ctx context.Context, id int64) (models.Lead, error) {
	if id <= 0 {
		return models.Lead{}, sql.ErrNoRows
	}
	row := r.db().QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id=? LIMIT 1`, id)
	return scanLead(row)
}

// List returns leads newest first.
func (r LeadRepository) List(ctx context.Context, f models.LeadFilter, page domain.Pagination) ([]models.Lead, int, error) {
	where := []string{}
	args := []any{}
	if f.Type != "" {
		where = append(where, "type=?")
		args = append(args, f.Type)
	}
	if f.Status != "" {
		where = append(where, "status=?")
		args = append(args, f.Status)
	}
	if f.AdvisorID > 0 {
		where = append(where, "assigned_advisor_id=?")
		args = append(args, f.AdvisorID)
	}
	where, args = intdb.DateRange("created_at", f.DateFrom, f.DateTo, where, args)
	clause := intdb.Where(where)

	var total int
	if err := r.db().QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	p := page.Normalize()
	rows, err := r.db().QueryContext(ctx, `SELECT `+leadColumns+` FROM leads`+clause+
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, append(args, p.PageSize, p.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []models.Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, l)
	}
	return out, total, rows.Err()
}

// Update applies the non-nil fields of u and refreshes updated_at.
func (r LeadRepository) Update(ctx context.Context, q intdb.Querier, id int64, u models.LeadUpdate) error {
	if q == nil {
		q = r.db()
	}
	sets := []string{}
	args := []any{}
	if u.Status != nil {
		sets = append(sets, "status=?")
		args = append(args, *u.Status)
	}
	if u.Message != nil {
		sets = append(sets, "message=?")
		args = append(args, *u.Message)
	}
	if u.AssignedAdvisorID != nil {
		sets = append(sets, "assigned_advisor_id=?")
		args = append(args, intdb.NullInt64(u.AssignedAdvisorID))
	}
	if u.PropertyID != nil {
		sets = append(sets, "property_id=?")
		args = append(args, intdb.NullInt64(u.PropertyID))
	}
	sets = append(sets, "updated_at=?")
	args = append(args, time.Now(), id)

	query := `UPDATE leads SET ` + strings.Join(sets, ", ") + ` WHERE id=?`
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// AssignLeastLoaded gives the lead to the active advisor with the fewest
// leads and bumps that advisor's counter in one transaction.
func (r LeadRepository) AssignLeastLoaded(ctx context.Context, leadID int64) (models.Advisor, error) {
	tx, err := r.db().BeginTx(ctx, nil)
	if err != nil {
		return models.Advisor{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var a models.Advisor
	err = tx.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(surname,''), COALESCE(email,''), COALESCE(phone,''), COALESCE(whatsapp,''), active, leads_count
		FROM advisors
		WHERE active=1
		ORDER BY leads_count ASC, id ASC
		LIMIT 1 FOR UPDATE`).Scan(&a.ID, &a.Name, &a.Surname, &a.Email, &a.Phone, &a.WhatsApp, &a.Active, &a.LeadsCount)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Advisor{}, ErrNoAdvisor
	}
	if err != nil {
		return models.Advisor{}, err
	}

	res, err := tx.ExecContext(ctx, `UPDATE leads SET assigned_advisor_id=?, updated_at=? WHERE id=?`, a.ID, time.Now(), leadID)
	if err != nil {
		return models.Advisor{}, err
	}
	if err := requireRow(res); err != nil {
		return models.Advisor{}, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE advisors SET leads_count=leads_count+1 WHERE id=?`, a.ID); err != nil {
		return models.Advisor{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Advisor{}, err
	}
	a.LeadsCount++
	return a, nil
}

func scanLead(s rowScanner) (models.Lead, error) {
	var (
		l                          models.Lead
		covered, total             sql.NullFloat64
		rooms, bedrooms, bathrooms sql.NullInt64
		extras                     sql.NullString
		budgetMin, budgetMax       sql.NullFloat64
		advisorID, propertyID      sql.NullInt64
	)
	if err := s.Scan(
		&l.ID, &l.Type, &l.Status,
		&l.Name, &l.Surname, &l.Email, &l.Phone, &l.WhatsApp,
		&l.Source,
		&l.PropertyType, &l.Address, &l.Locality, &l.Neighborhood,
		&covered, &total, &rooms, &bedrooms, &bathrooms,
		&l.Condition, &extras,
		&budgetMin, &budgetMax,
		&l.PreferredZone, &l.Experience, &l.Message, &l.CVURL,
		&advisorID, &propertyID,
		&l.UTMSource, &l.UTMMedium, &l.UTMCampaign,
		&l.IPAddress, &l.UserAgent,
		&l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		return models.Lead{}, err
	}
	l.CoveredArea = intdb.FloatPtr(covered)
	l.TotalArea = intdb.FloatPtr(total)
	l.Rooms = intdb.IntPtr(rooms)
	l.Bedrooms = intdb.IntPtr(bedrooms)
	l.Bathrooms = intdb.IntPtr(bathrooms)
	l.BudgetMin = intdb.FloatPtr(budgetMin)
	l.BudgetMax = intdb.FloatPtr(budgetMax)
	l.AssignedAdvisorID = intdb.Int64Ptr(advisorID)
	l.PropertyID = intdb.Int64Ptr(propertyID)
	if err := intdb.ScanJSON(extras, &l.Extras); err != nil {
		return models.Lead{}, err
	}
	return l, nil
}

