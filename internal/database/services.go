package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"homeservices/internal/models"
)

const serviceColumns = `id, name, category, description, price_min, price_max, currency, thumbnail_url, duration,
                        features, is_active, popularity, average_rating, total_bookings, created_at, updated_at`

func (db *DB) CreateService(ctx context.Context, svc *models.Service) error {
	features, err := toJSON(nonNilStrings(svc.Features))
	if err != nil {
		return err
	}
	query := `INSERT INTO services (name, category, description, price_min, price_max, currency, thumbnail_url,
                                    duration, features, is_active, popularity, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		svc.Name,
		svc.Category,
		svc.Description,
		svc.PriceRange.Min,
		svc.PriceRange.Max,
		svc.PriceRange.Currency,
		svc.ThumbnailURL,
		svc.Duration,
		features,
		svc.IsActive,
		svc.Popularity,
		now,
		now,
	)
	if err != nil {
		return conflictOr(err, "failed to create service")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	svc.ID = id
	svc.CreatedAt = now
	svc.UpdatedAt = now
	return nil
}

func (db *DB) GetService(ctx context.Context, id int64) (*models.Service, error) {
	svc, err := scanService(db.QueryRowContext(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("service %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return svc, nil
}

// GetServiceByName matches case-insensitively.
func (db *DB) GetServiceByName(ctx context.Context, name string) (*models.Service, error) {
	svc, err := scanService(db.QueryRowContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE name = ? COLLATE NOCASE`, strings.TrimSpace(name)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("service %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return svc, nil
}

func scanService(row rowScanner) (*models.Service, error) {
	var s models.Service
	var features string
	err := row.Scan(
		&s.ID, &s.Name, &s.Category, &s.Description, &s.PriceRange.Min, &s.PriceRange.Max, &s.PriceRange.Currency,
		&s.ThumbnailURL, &s.Duration, &features, &s.IsActive, &s.Popularity, &s.AverageRating, &s.TotalBookings,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := fromJSON(sql.NullString{String: features, Valid: true}, &s.Features); err != nil {
		return nil, err
	}
	return &s, nil
}

func (db *DB) queryServices(ctx context.Context, query string, args ...interface{}) ([]*models.Service, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query services: %w", err)
	}
	defer rows.Close()

	var services []*models.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate services: %w", err)
	}
	return services, nil
}

var serviceSortColumns = map[string]string{
	"popularity":    "popularity",
	"name":          "name",
	"createdAt":     "created_at",
	"averageRating": "average_rating",
	"totalBookings": "total_bookings",
	"price":         "price_min",
}

func (db *DB) ListServices(ctx context.Context, filter models.ServiceFilter) ([]*models.Service, int, error) {
	var where []string
	var args []interface{}
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.IsActive != nil {
		where = append(where, "is_active = ?")
		args = append(args, *filter.IsActive)
	}
	if filter.Search != "" {
		where = append(where, `(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`)
		p := likePattern(filter.Search)
		args = append(args, p, p)
	}
	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM services`+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count services: %w", err)
	}

	column, ok := serviceSortColumns[filter.SortBy]
	if !ok {
		column = "popularity"
	}
	query := `SELECT ` + serviceColumns + ` FROM services` + whereSQL +
		` ORDER BY ` + column + ` ` + sortDirection(filter.SortOrder) + `, id ASC LIMIT ? OFFSET ?`
	pageArgs := append(append([]interface{}{}, args...), filter.Limit, offset(filter.Page, filter.Limit))

	services, err := db.queryServices(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	return services, total, nil
}

// ActiveCategories lists the distinct categories that have at least one active service.
func (db *DB) ActiveCategories(ctx context.Context) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT DISTINCT category FROM services WHERE is_active = 1 ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// SearchServices matches active services on name, description or features.
func (db *DB) SearchServices(ctx context.Context, query, category string, limit int) ([]*models.Service, error) {
	p := likePattern(query)
	sqlQuery := `SELECT ` + serviceColumns + ` FROM services
                 WHERE is_active = 1
                   AND (LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(features) LIKE ? ESCAPE '\')`
	args := []interface{}{p, p, p}
	if category != "" {
		sqlQuery += ` AND category = ?`
		args = append(args, category)
	}
	sqlQuery += ` ORDER BY popularity DESC, average_rating DESC, id ASC LIMIT ?`
	args = append(args, limit)
	return db.queryServices(ctx, sqlQuery, args...)
}

func (db *DB) PopularServices(ctx context.Context, limit int) ([]*models.Service, error) {
	return db.queryServices(ctx, `SELECT `+serviceColumns+` FROM services WHERE is_active = 1
                                  ORDER BY popularity DESC, average_rating DESC, total_bookings DESC, id ASC
                                  LIMIT ?`, limit)
}

// UpdateService applies the non-nil fields of the patch.
func (db *DB) UpdateService(ctx context.Context, id int64, patch models.ServicePatch) error {
	var sets []string
	var args []interface{}
	add := func(column string, v interface{}) {
		sets = append(sets, column+" = ?")
		args = append(args, v)
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.PriceMin != nil {
		add("price_min", *patch.PriceMin)
	}
	if patch.PriceMax != nil {
		add("price_max", *patch.PriceMax)
	}
	if patch.Currency != nil {
		add("currency", *patch.Currency)
	}
	if patch.ThumbnailURL != nil {
		add("thumbnail_url", *patch.ThumbnailURL)
	}
	if patch.Duration != nil {
		add("duration", *patch.Duration)
	}
	if patch.Features != nil {
		raw, err := toJSON(patch.Features)
		if err != nil {
			return err
		}
		add("features", raw)
	}
	if patch.IsActive != nil {
		add("is_active", *patch.IsActive)
	}
	add("updated_at", time.Now())
	args = append(args, id)

	res, err := db.ExecContext(ctx, `UPDATE services SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return conflictOr(err, "failed to update service")
	}
	return checkAffected(res, "service")
}

func (db *DB) DeleteService(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM services WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}
	return checkAffected(res, "service")
}

// IncrementServiceBookings bumps both counters atomically.
func (db *DB) IncrementServiceBookings(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx,
		`UPDATE services SET total_bookings = total_bookings + 1, popularity = popularity + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to increment service counters: %w", err)
	}
	return checkAffected(res, "service")
}

// RefreshServiceRating recomputes average_rating from approved reviews of bookings that reference the service.
func (db *DB) RefreshServiceRating(ctx context.Context, id int64) error {
	query := `UPDATE services SET average_rating = COALESCE((
                  SELECT ROUND(AVG(r.rating), 1) FROM reviews r
                  JOIN booking_services bs ON bs.booking_id = r.booking_id
                  WHERE bs.service_id = services.id AND r.is_approved = 1
              ), 0)
              WHERE id = ?`
	if _, err := db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to refresh service rating: %w", err)
	}
	return nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
