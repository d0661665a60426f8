package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"homeservices/internal/models"
)

const reviewColumns = `id, booking_id, user_id, customer_name, service_category, service_name, rating, feedback,
                       is_approved, is_displayed_on_homepage, admin_reply, created_at, updated_at`

// CreateReview relies on the UNIQUE booking_id column; a second review for the same
// booking returns a *ConflictError regardless of approval state.
func (db *DB) CreateReview(ctx context.Context, review *models.Review) error {
	query := `INSERT INTO reviews (booking_id, user_id, customer_name, service_category, service_name, rating,
                                   feedback, is_approved, is_displayed_on_homepage, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		review.BookingID,
		review.UserID,
		review.CustomerName,
		review.ServiceCategory,
		review.ServiceName,
		review.Rating,
		review.Feedback,
		review.IsApproved,
		review.IsDisplayedOnHomepage,
		now,
		now,
	)
	if err != nil {
		return conflictOr(err, "failed to create review")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	review.ID = id
	review.CreatedAt = now
	review.UpdatedAt = now
	return nil
}

func (db *DB) GetReview(ctx context.Context, id int64) (*models.Review, error) {
	return db.queryReview(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id)
}

func (db *DB) GetReviewByBooking(ctx context.Context, bookingID int64) (*models.Review, error) {
	return db.queryReview(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE booking_id = ?`, bookingID)
}

func (db *DB) queryReview(ctx context.Context, query string, args ...interface{}) (*models.Review, error) {
	r, err := scanReview(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("review: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return r, nil
}

func scanReview(row rowScanner) (*models.Review, error) {
	var r models.Review
	var reply sql.NullString
	err := row.Scan(
		&r.ID, &r.BookingID, &r.UserID, &r.CustomerName, &r.ServiceCategory, &r.ServiceName, &r.Rating,
		&r.Feedback, &r.IsApproved, &r.IsDisplayedOnHomepage, &reply, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if reply.Valid {
		r.AdminReply = &models.AdminReply{}
		if err := fromJSON(reply, r.AdminReply); err != nil {
			return nil, err
		}
	}
	return &r, nil
}

func (db *DB) queryReviews(ctx context.Context, query string, args ...interface{}) ([]*models.Review, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*models.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reviews: %w", err)
	}
	return reviews, nil
}

// ListReviews filters by approval state: all, approved or pending.
func (db *DB) ListReviews(ctx context.Context, status string, page, limit int) ([]*models.Review, int, error) {
	whereSQL := ""
	switch status {
	case models.ReviewFilterApproved:
		whereSQL = " WHERE is_approved = 1"
	case models.ReviewFilterPending:
		whereSQL = " WHERE is_approved = 0"
	}

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews`+whereSQL).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	reviews, err := db.queryReviews(ctx, `SELECT `+reviewColumns+` FROM reviews`+whereSQL+
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, limit, offset(page, limit))
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (db *DB) HomepageReviews(ctx context.Context, limit int) ([]*models.Review, error) {
	return db.queryReviews(ctx, `SELECT `+reviewColumns+` FROM reviews
                                 WHERE is_approved = 1 AND is_displayed_on_homepage = 1
                                 ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
}

// SetReviewFlags updates approval and homepage visibility independently.
func (db *DB) SetReviewFlags(ctx context.Context, id int64, approved, displayed *bool) error {
	query := `UPDATE reviews SET
                is_approved = COALESCE(?, is_approved),
                is_displayed_on_homepage = COALESCE(?, is_displayed_on_homepage),
                updated_at = ?
              WHERE id = ?`
	res, err := db.ExecContext(ctx, query, nullBool(approved), nullBool(displayed), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update review flags: %w", err)
	}
	return checkAffected(res, "review")
}

func (db *DB) SetReviewReply(ctx context.Context, id int64, reply models.AdminReply) error {
	raw, err := toJSON(reply)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, `UPDATE reviews SET admin_reply = ?, updated_at = ? WHERE id = ?`, raw, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set review reply: %w", err)
	}
	return checkAffected(res, "review")
}

func (db *DB) DeleteReview(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return checkAffected(res, "review")
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}
