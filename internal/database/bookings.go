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

const bookingColumns = `id, booking_code, user_id, name, email, phone, address, location, services, date, time,
                        work_description, status, estimated_cost, actual_cost, technician_notes, admin_notes,
                        completed_at, rating, feedback, technician, has_technician, notifications,
                        admin_reply, admin_reply_date, created_at, updated_at`

// CreateBooking inserts the booking and its catalog links in one transaction.
// A booking code collision surfaces as a *ConflictError on bookings.booking_code.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	address, err := toJSON(booking.Address)
	if err != nil {
		return err
	}
	location, err := nullableJSON(booking.Location, booking.Location == nil)
	if err != nil {
		return err
	}
	services, err := toJSON(booking.Services)
	if err != nil {
		return err
	}
	technician, err := nullableJSON(booking.Technician, booking.Technician == nil)
	if err != nil {
		return err
	}
	notifications, err := toJSON(booking.Notifications)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `INSERT INTO bookings (
				booking_code, user_id, name, email, phone, address, location, services, date, time,
				work_description, status, estimated_cost, technician, has_technician, notifications,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := tx.ExecContext(ctx, query,
		booking.BookingCode,
		booking.UserID,
		booking.Name,
		strings.ToLower(booking.Email),
		booking.Phone,
		address,
		location,
		services,
		booking.Date.Format(models.DateLayout),
		booking.Time,
		booking.WorkDescription,
		booking.Status,
		booking.EstimatedCost,
		technician,
		booking.HasTechnician,
		notifications,
		now,
		now,
	)
	if err != nil {
		return conflictOr(err, "failed to create booking")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	for _, serviceID := range booking.ServiceIDs() {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO booking_services (booking_id, service_id) VALUES (?, ?)`, id, serviceID); err != nil {
			return fmt.Errorf("failed to link booking service: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}

	booking.ID = id
	booking.Email = strings.ToLower(booking.Email)
	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	booking, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

func (db *DB) GetBookingByCode(ctx context.Context, code string) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE booking_code = ?`, code)
	booking, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking %s: %w", code, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		b                                         models.Booking
		address, services, notifications, dateStr string
		location, technician                      sql.NullString
		estimated, actual                         sql.NullFloat64
		rating                                    sql.NullInt64
	)
	err := row.Scan(
		&b.ID, &b.BookingCode, &b.UserID, &b.Name, &b.Email, &b.Phone, &address, &location, &services,
		&dateStr, &b.Time, &b.WorkDescription, &b.Status, &estimated, &actual, &b.TechnicianNotes,
		&b.AdminNotes, &b.CompletedAt, &rating, &b.Feedback, &technician, &b.HasTechnician,
		&notifications, &b.AdminReply, &b.AdminReplyDate, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := fromJSON(sql.NullString{String: address, Valid: true}, &b.Address); err != nil {
		return nil, err
	}
	if err := fromJSON(sql.NullString{String: services, Valid: true}, &b.Services); err != nil {
		return nil, err
	}
	if err := fromJSON(sql.NullString{String: notifications, Valid: true}, &b.Notifications); err != nil {
		return nil, err
	}
	if location.Valid {
		b.Location = &models.Location{}
		if err := fromJSON(location, b.Location); err != nil {
			return nil, err
		}
	}
	if technician.Valid {
		b.Technician = &models.Technician{}
		if err := fromJSON(technician, b.Technician); err != nil {
			return nil, err
		}
	}

	b.Date, err = time.ParseInLocation(models.DateLayout, dateStr, time.Local)
	if err != nil {
		return nil, fmt.Errorf("failed to parse booking date %q: %w", dateStr, err)
	}
	if estimated.Valid {
		b.EstimatedCost = &estimated.Float64
	}
	if actual.Valid {
		b.ActualCost = &actual.Float64
	}
	if rating.Valid {
		r := int(rating.Int64)
		b.Rating = &r
	}
	return &b, nil
}

var bookingSortColumns = map[string]string{
	"createdAt": "created_at",
	"date":      "date",
	"status":    "status",
	"name":      "name",
	"updatedAt": "updated_at",
}

// ListBookings returns one page of bookings matching the filter and the total match count.
func (db *DB) ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, int, error) {
	var where []string
	var args []interface{}

	if filter.UserID != nil {
		where = append(where, "user_id = ?")
		args = append(args, *filter.UserID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		where = append(where, `(LOWER(booking_code) LIKE ? ESCAPE '\' OR LOWER(name) LIKE ? ESCAPE '\'
                               OR LOWER(email) LIKE ? ESCAPE '\' OR phone LIKE ? ESCAPE '\')`)
		p := likePattern(filter.Search)
		args = append(args, p, p, p, p)
	}
	if filter.DateFrom != nil {
		where = append(where, "date >= ?")
		args = append(args, filter.DateFrom.Format(models.DateLayout))
	}
	if filter.DateTo != nil {
		where = append(where, "date <= ?")
		args = append(args, filter.DateTo.Format(models.DateLayout))
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	column, ok := bookingSortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	query := `SELECT ` + bookingColumns + ` FROM bookings` + whereSQL +
		` ORDER BY ` + column + ` ` + sortDirection(filter.SortOrder) + `, id DESC LIMIT ? OFFSET ?`
	pageArgs := append(append([]interface{}{}, args...), filter.Limit, offset(filter.Page, filter.Limit))

	bookings, err := db.queryBookings(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// GetAllBookings returns every booking, newest first.
func (db *DB) GetAllBookings(ctx context.Context) ([]*models.Booking, error) {
	return db.queryBookings(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY created_at DESC, id DESC`)
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}

// UpdateBookingStatus applies a status change with its optional fields in a single statement.
// completed_at is stamped only on the first entry into Completed.
func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, update models.StatusUpdate, now time.Time) error {
	sets := []string{"status = ?", "updated_at = ?"}
	args := []interface{}{update.Status, now}

	if update.Status == models.StatusCompleted {
		sets = append(sets, "completed_at = COALESCE(completed_at, ?)")
		args = append(args, now)
	}
	if update.TechnicianNotes != nil {
		sets = append(sets, "technician_notes = ?")
		args = append(args, *update.TechnicianNotes)
	}
	if update.AdminNotes != nil {
		sets = append(sets, "admin_notes = ?")
		args = append(args, *update.AdminNotes)
	}
	if update.EstimatedCost != nil {
		sets = append(sets, "estimated_cost = ?")
		args = append(args, *update.EstimatedCost)
	}
	if update.ActualCost != nil {
		sets = append(sets, "actual_cost = ?")
		args = append(args, *update.ActualCost)
	}
	where := "id = ?"
	args = append(args, id)
	if update.From != "" {
		where += " AND status = ?"
		args = append(args, update.From)
	}

	res, err := db.ExecContext(ctx, `UPDATE bookings SET `+strings.Join(sets, ", ")+` WHERE `+where, args...)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if update.From != "" {
		return db.checkGuarded(ctx, res, "bookings", id)
	}
	return checkAffected(res, "booking")
}

// AssignTechnician records the technician and forces the booking into Confirmed. A booking
// that reached a terminal status is left alone and reported as ErrConflict.
func (db *DB) AssignTechnician(ctx context.Context, id int64, tech models.Technician) error {
	raw, err := toJSON(tech)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx,
		`UPDATE bookings SET technician = ?, has_technician = 1, status = ?, updated_at = ?
         WHERE id = ? AND status NOT IN (?, ?)`,
		raw, models.StatusConfirmed, time.Now(), id, models.StatusCompleted, models.StatusCancelled)
	if err != nil {
		return fmt.Errorf("failed to assign technician: %w", err)
	}
	return db.checkGuarded(ctx, res, "bookings", id)
}

func (db *DB) SetBookingFeedback(ctx context.Context, id int64, rating int, feedback string) error {
	res, err := db.ExecContext(ctx, `UPDATE bookings SET rating = ?, feedback = ?, updated_at = ? WHERE id = ?`,
		rating, feedback, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set booking feedback: %w", err)
	}
	return checkAffected(res, "booking")
}

func (db *DB) SetBookingAdminReply(ctx context.Context, id int64, reply string, at time.Time) error {
	res, err := db.ExecContext(ctx, `UPDATE bookings SET admin_reply = ?, admin_reply_date = ?, updated_at = ? WHERE id = ?`,
		reply, at, at, id)
	if err != nil {
		return fmt.Errorf("failed to set booking reply: %w", err)
	}
	return checkAffected(res, "booking")
}

func (db *DB) MarkNotified(ctx context.Context, id int64, flags models.NotificationFlags) error {
	raw, err := toJSON(flags)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `UPDATE bookings SET notifications = ? WHERE id = ?`, raw, id); err != nil {
		return fmt.Errorf("failed to update notification flags: %w", err)
	}
	return nil
}

func (db *DB) DeleteBooking(ctx context.Context, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM booking_services WHERE booking_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete booking links: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if err := checkAffected(res, "booking"); err != nil {
		return err
	}
	return tx.Commit()
}

// CountActiveBookingsForService counts Pending, Confirmed and InProgress bookings referencing the service.
func (db *DB) CountActiveBookingsForService(ctx context.Context, serviceID int64) (int, error) {
	query := `SELECT COUNT(*) FROM bookings b
              JOIN booking_services bs ON bs.booking_id = b.id
              WHERE bs.service_id = ? AND b.status IN (?, ?, ?)`
	var count int
	err := db.QueryRowContext(ctx, query, serviceID,
		models.StatusPending, models.StatusConfirmed, models.StatusInProgress).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active bookings: %w", err)
	}
	return count, nil
}
