package repositories

import (
	"context"
	"database/sql"
	"strings"
	"time"

	intconfig "leadengine/internal/config"
	intdb "leadengine/internal/db"
	"leadengine/internal/domain/models"
)

type PropertyRepository struct {
	DB *sql.DB
}

func (r PropertyRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const propertyColumns = `
	id, title, COALESCE(description,''), type, operation,
	COALESCE(address,''), locality, COALESCE(neighborhood,''),
	lat, lng, price, currency,
	COALESCE(covered_area,0), total_area,
	COALESCE(rooms,0), COALESCE(bedrooms,0), COALESCE(bathrooms,0),
	COALESCE(property_condition,''), extras, images, COALESCE(main_image,''),
	advisor_id, active, featured,
	published_at, created_at, updated_at`

// List orders featured listings first, then newest.
func (r PropertyRepository) List(ctx context.Context, f models.PropertyFilter) ([]models.Property, error) {
	where := []string{}
	args := []any{}
	if f.ActiveOnly {
		where = append(where, "active=1")
	}
	if f.Type != "" {
		where = append(where, "type=?")
		args = append(args, f.Type)
	}
	if f.Operation != "" {
		where = append(where, "operation=?")
		args = append(args, f.Operation)
	}
	if f.Locality != "" {
		where = append(where, "locality=?")
		args = append(args, f.Locality)
	}
	if f.MinPrice != nil {
		where = append(where, "price>=?")
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		where = append(where, "price<=?")
		args = append(args, *f.MaxPrice)
	}
	if f.Featured {
		where = append(where, "featured=1")
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		where = append(where, "(title LIKE ? OR description LIKE ? OR address LIKE ? OR neighborhood LIKE ?)")
		args = append(args, like, like, like, like)
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db().QueryContext(ctx, `SELECT `+propertyColumns+` FROM properties`+intdb.Where(where)+
		` ORDER BY featured DESC, published_at DESC, id DESC LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r PropertyRepository) GetByID(ctx context.Context, id int64) (models.Property, error) {
	if id <= 0 {
		return models.Property{}, sql.ErrNoRows
	}
	row := r.db().QueryRowContext(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id=? LIMIT 1`, id)
	return scanProperty(row)
}

func (r PropertyRepository) Create(ctx context.Context, q intdb.Querier, p models.Property) (int64, error) {
	if q == nil {
		q = r.db()
	}
	args, err := propertyArgs(p)
	if err != nil {
		return 0, err
	}
	now := time.Now()
	published := p.PublishedAt
	if published.IsZero() {
		published = now
	}
	args = append(args, published, now, now)
	res, err := q.ExecContext(ctx, `
		INSERT INTO properties (
			title, description, type, operation, address, locality, neighborhood,
			lat, lng, price, currency, covered_area, total_area,
			rooms, bedrooms, bathrooms, property_condition, extras, images, main_image,
			advisor_id, active, featured,
			published_at, created_at, updated_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r PropertyRepository) Update(ctx context.Context, q intdb.Querier, p models.Property) error {
	if q == nil {
		q = r.db()
	}
	args, err := propertyArgs(p)
	if err != nil {
		return err
	}
	args = append(args, time.Now(), p.ID)
	res, err := q.ExecContext(ctx, `
		UPDATE properties SET
			title=?, description=?, type=?, operation=?, address=?, locality=?, neighborhood=?,
			lat=?, lng=?, price=?, currency=?, covered_area=?, total_area=?,
			rooms=?, bedrooms=?, bathrooms=?, property_condition=?, extras=?, images=?, main_image=?,
			advisor_id=?, active=?, featured=?,
			updated_at=?
		WHERE id=?`, args...)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Deactivate hides a listing without removing it.
func (r PropertyRepository) Deactivate(ctx context.Context, id int64) error {
	res, err := r.db().ExecContext(ctx, `UPDATE properties SET active=0, updated_at=? WHERE id=?`, time.Now(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r PropertyRepository) SetFeatured(ctx context.Context, id int64, featured bool) error {
	res, err := r.db().ExecContext(ctx, `UPDATE properties SET featured=?, updated_at=? WHERE id=?`, featured, time.Now(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r PropertyRepository) Stats(ctx context.Context) (models.PropertyStats, error) {
	stats := models.PropertyStats{ByType: map[string]int{}, ByOperation: map[string]int{}}
	err := r.db().QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(active=1),0), COALESCE(SUM(featured=1),0)
		FROM properties`).Scan(&stats.Total, &stats.Active, &stats.Featured)
	if err != nil {
		return stats, err
	}
	if err := r.countBy(ctx, "type", stats.ByType); err != nil {
		return stats, err
	}
	if err := r.countBy(ctx, "operation", stats.ByOperation); err != nil {
		return stats, err
	}
	return stats, nil
}

func (r PropertyRepository) countBy(ctx context.Context, column string, into map[string]int) error {
	rows, err := r.db().QueryContext(ctx, `SELECT `+column+`, COUNT(*) FROM properties GROUP BY `+column)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		into[key] = n
	}
	return rows.Err()
}

func propertyArgs(p models.Property) ([]any, error) {
	extras, err := intdb.JSON(p.Extras)
	if err != nil {
		return nil, err
	}
	images, err := intdb.JSON(p.Images)
	if err != nil {
		return nil, err
	}
	return []any{
		p.Title, intdb.NullIfEmpty(p.Description), p.Type, p.Operation,
		intdb.NullIfEmpty(p.Address), p.Locality, intdb.NullIfEmpty(p.Neighborhood),
		intdb.NullFloat(p.Lat), intdb.NullFloat(p.Lng), p.Price, p.Currency,
		p.CoveredArea, intdb.NullFloat(p.TotalArea),
		p.Rooms, p.Bedrooms, p.Bathrooms, intdb.NullIfEmpty(p.Condition), extras, images, intdb.NullIfEmpty(p.MainImage),
		intdb.NullInt64(p.AdvisorID), p.Active, p.Featured,
	}, nil
}

func scanProperty(s rowScanner) (models.Property, error) {
	var (
		p               models.Property
		lat, lng, total sql.NullFloat64
		extras, images  sql.NullString
		advisorID       sql.NullInt64
		published       sql.NullTime
	)
	if err := s.Scan(
		&p.ID, &p.Title, &p.Description, &p.Type, &p.Operation,
		&p.Address, &p.Locality, &p.Neighborhood,
		&lat, &lng, &p.Price, &p.Currency,
		&p.CoveredArea, &total,
		&p.Rooms, &p.Bedrooms, &p.Bathrooms,
		&p.Condition, &extras, &images, &p.MainImage,
		&advisorID, &p.Active, &p.Featured,
		&published, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return models.Property{}, err
	}
	p.Lat = intdb.FloatPtr(lat)
	p.Lng = intdb.FloatPtr(lng)
	p.TotalArea = intdb.FloatPtr(total)
	p.AdvisorID = intdb.Int64Ptr(advisorID)
	if published.Valid {
		p.PublishedAt = published.Time
	}
	if err := intdb.ScanJSON(extras, &p.Extras); err != nil {
		return models.Property{}, err
	}
	if err := intdb.ScanJSON(images, &p.Images); err != nil {
		return models.Property{}, err
	}
	if p.Extras == nil {
		p.Extras = []string{}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return p, nil
}
