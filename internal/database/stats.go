package database

import (
	"context"
	"fmt"
	"time"

	"homeservices/internal/models"
)

const (
	dashboardPopularLimit = 5
	dashboardRecentLimit  = 5
)

// DashboardStats aggregates the admin dashboard. since bounds the period stats and
// trendFrom bounds the daily booking trend.
func (db *DB) DashboardStats(ctx context.Context, since time.Time, trendFrom time.Time) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}
	ov := &stats.Overview

	scalars := []struct {
		query string
		args  []interface{}
		dest  interface{}
	}{
		{`SELECT COUNT(*) FROM users WHERE role = ?`, []interface{}{models.RoleUser}, &ov.TotalUsers},
		{`SELECT COUNT(*) FROM bookings`, nil, &ov.TotalBookings},
		{`SELECT COUNT(*) FROM services WHERE is_active = 1`, nil, &ov.TotalServices},
		{`SELECT COALESCE(SUM(actual_cost), 0) FROM bookings WHERE status = ?`, []interface{}{models.StatusCompleted}, &ov.TotalRevenue},
		{`SELECT COALESCE(AVG(actual_cost), 0) FROM bookings WHERE status = ? AND actual_cost IS NOT NULL`,
			[]interface{}{models.StatusCompleted}, &ov.AvgOrderValue},
		{`SELECT COUNT(*) FROM bookings WHERE created_at >= ?`, []interface{}{since}, &stats.PeriodStats.NewBookings},
		{`SELECT COUNT(*) FROM users WHERE role = ? AND created_at >= ?`, []interface{}{models.RoleUser, since}, &stats.PeriodStats.NewUsers},
		{`SELECT COALESCE(SUM(actual_cost), 0) FROM bookings WHERE status = ? AND completed_at >= ?`,
			[]interface{}{models.StatusCompleted, since}, &stats.PeriodStats.Revenue},
	}
	for _, s := range scalars {
		if err := db.QueryRowContext(ctx, s.query, s.args...).Scan(s.dest); err != nil {
			return nil, fmt.Errorf("failed to compute dashboard stats: %w", err)
		}
	}
	stats.PeriodStats.Period = int(time.Since(since).Hours()/24 + 0.5)

	counts, err := db.bookingStatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	stats.BookingStatus = counts

	if stats.PopularServices, err = db.PopularServices(ctx, dashboardPopularLimit); err != nil {
		return nil, err
	}
	if stats.RecentBookings, err = db.queryBookings(ctx, `SELECT `+bookingColumns+
		` FROM bookings ORDER BY created_at DESC, id DESC LIMIT ?`, dashboardRecentLimit); err != nil {
		return nil, err
	}
	if stats.BookingTrends, err = db.bookingTrends(ctx, trendFrom); err != nil {
		return nil, err
	}
	if stats.CategoryStats, err = db.categoryCounts(ctx); err != nil {
		return nil, err
	}
	return stats, nil
}

func (db *DB) bookingStatusCounts(ctx context.Context) (models.StatusCounts, error) {
	var counts models.StatusCounts
	rows, err := db.QueryContext(ctx, `SELECT status, COUNT(*) FROM bookings GROUP BY status`)
	if err != nil {
		return counts, fmt.Errorf("failed to count booking statuses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status models.BookingStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return counts, fmt.Errorf("failed to scan status count: %w", err)
		}
		switch status {
		case models.StatusPending:
			counts.Pending = n
		case models.StatusConfirmed:
			counts.Confirmed = n
		case models.StatusInProgress:
			counts.InProgress = n
		case models.StatusCompleted:
			counts.Completed = n
		case models.StatusCancelled:
			counts.Cancelled = n
		}
	}
	return counts, rows.Err()
}

// bookingTrends counts bookings per local creation day. Timestamps are stored with their
// zone offset, so the first ten characters are the local date.
func (db *DB) bookingTrends(ctx context.Context, from time.Time) ([]models.DayCount, error) {
	rows, err := db.QueryContext(ctx, `SELECT substr(created_at, 1, 10) AS day, COUNT(*) FROM bookings
                                       WHERE created_at >= ? GROUP BY day ORDER BY day`, from)
	if err != nil {
		return nil, fmt.Errorf("failed to compute booking trends: %w", err)
	}
	defer rows.Close()

	trends := []models.DayCount{}
	for rows.Next() {
		var d models.DayCount
		if err := rows.Scan(&d.Date, &d.Count); err != nil {
			return nil, fmt.Errorf("failed to scan trend: %w", err)
		}
		trends = append(trends, d)
	}
	return trends, rows.Err()
}

func (db *DB) categoryCounts(ctx context.Context) ([]models.CategoryCount, error) {
	rows, err := db.QueryContext(ctx, `SELECT json_extract(li.value, '$.category') AS category, COUNT(*) AS n
                                       FROM bookings b, json_each(b.services) li
                                       GROUP BY category ORDER BY n DESC, category ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to compute category stats: %w", err)
	}
	defer rows.Close()

	out := []models.CategoryCount{}
	for rows.Next() {
		var c models.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (db *DB) EnhancedStats(ctx context.Context) (*models.EnhancedStats, error) {
	stats := &models.EnhancedStats{}

	counts, err := db.bookingStatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	stats.Bookings.StatusCounts = counts
	stats.Bookings.Total = counts.Total()

	scalars := []struct {
		query string
		args  []interface{}
		dest  *int
	}{
		{`SELECT COUNT(*) FROM users WHERE role = ?`, []interface{}{models.RoleUser}, &stats.Users.Total},
		{`SELECT COUNT(*) FROM users WHERE role = ? AND is_active = 1`, []interface{}{models.RoleUser}, &stats.Users.Active},
		{`SELECT COUNT(*) FROM support_requests`, nil, &stats.Support.Total},
		{`SELECT COUNT(*) FROM support_requests WHERE status = ?`, []interface{}{models.SupportOpen}, &stats.Support.Open},
		{`SELECT COUNT(*) FROM support_requests WHERE status = ?`, []interface{}{models.SupportResolved}, &stats.Support.Resolved},
		{`SELECT COUNT(*) FROM gallery WHERE is_active = 1`, nil, &stats.Gallery.Total},
		{`SELECT COUNT(*) FROM gallery WHERE is_active = 1 AND media_type = ?`, []interface{}{models.MediaImage}, &stats.Gallery.Images},
		{`SELECT COUNT(*) FROM gallery WHERE is_active = 1 AND media_type = ?`, []interface{}{models.MediaVideo}, &stats.Gallery.Videos},
	}
	for _, s := range scalars {
		if err := db.QueryRowContext(ctx, s.query, s.args...).Scan(s.dest); err != nil {
			return nil, fmt.Errorf("failed to compute enhanced stats: %w", err)
		}
	}
	return stats, nil
}
