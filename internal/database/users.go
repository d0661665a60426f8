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

const userColumns = `id, name, email, phone, password_hash, role, is_active, last_login, created_at, updated_at`

func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (name, email, phone, password_hash, role, is_active, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	result, err := db.ExecContext(ctx, query,
		user.Name,
		strings.ToLower(user.Email),
		user.Phone,
		user.PasswordHash,
		user.Role,
		user.IsActive,
		now,
		now,
	)
	if err != nil {
		return conflictOr(err, "failed to create user")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	user.ID = id
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return db.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return db.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(strings.TrimSpace(email)))
}

func (db *DB) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	return db.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE phone = ?`, strings.TrimSpace(phone))
}

func (db *DB) queryUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	user, err := scanUser(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.Phone, &user.PasswordHash,
		&user.Role, &user.IsActive, &user.LastLogin, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (db *DB) UpdateUserProfile(ctx context.Context, id int64, name, phone string) error {
	res, err := db.ExecContext(ctx, `UPDATE users SET name = ?, phone = ?, updated_at = ? WHERE id = ?`,
		name, phone, time.Now(), id)
	if err != nil {
		return conflictOr(err, "failed to update user profile")
	}
	return checkAffected(res, "user")
}

func (db *DB) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := db.ExecContext(ctx, `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return checkAffected(res, "user")
}

func (db *DB) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := db.ExecContext(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

func (db *DB) SetUserActive(ctx context.Context, id int64, active bool) error {
	res, err := db.ExecContext(ctx, `UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}
	return checkAffected(res, "user")
}

// DeleteUser removes the user and every booking they own, returning the number of bookings removed.
func (db *DB) DeleteUser(ctx context.Context, id int64) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM booking_services WHERE booking_id IN (SELECT id FROM bookings WHERE user_id = ?)`, id); err != nil {
		return 0, fmt.Errorf("failed to delete user booking links: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE user_id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user bookings: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	res, err = tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user: %w", err)
	}
	if err := checkAffected(res, "user"); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit user delete: %w", err)
	}
	return int(removed), nil
}

// ListUsers returns customer accounts with their booking aggregates.
func (db *DB) ListUsers(ctx context.Context, filter models.UserFilter) ([]*models.UserSummary, int, error) {
	where := []string{"u.role = ?"}
	args := []interface{}{models.RoleUser}
	if filter.Search != "" {
		where = append(where, "(LOWER(u.name) LIKE ? ESCAPE '\\' OR LOWER(u.email) LIKE ? ESCAPE '\\' OR u.phone LIKE ? ESCAPE '\\')")
		p := likePattern(filter.Search)
		args = append(args, p, p, p)
	}
	if filter.IsActive != nil {
		where = append(where, "u.is_active = ?")
		args = append(args, *filter.IsActive)
	}
	whereSQL := " WHERE " + strings.Join(where, " AND ")

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users u`+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := `SELECT u.id, u.name, u.email, u.phone, u.password_hash, u.role, u.is_active, u.last_login,
                     u.created_at, u.updated_at,
                     (SELECT COUNT(*) FROM bookings b WHERE b.user_id = u.id),
                     (SELECT MAX(b.created_at) FROM bookings b WHERE b.user_id = u.id)
              FROM users u` + whereSQL + ` ORDER BY u.created_at DESC LIMIT ? OFFSET ?`
	pageArgs := append(append([]interface{}{}, args...), filter.Limit, offset(filter.Page, filter.Limit))

	rows, err := db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.UserSummary
	for rows.Next() {
		var s models.UserSummary
		var lastBooking sql.NullString
		if err := rows.Scan(
			&s.ID, &s.Name, &s.Email, &s.Phone, &s.PasswordHash, &s.Role, &s.IsActive, &s.LastLogin,
			&s.CreatedAt, &s.UpdatedAt, &s.TotalBookings, &lastBooking,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		if t, ok := parseStoredTime(lastBooking); ok {
			s.LastBooking = &t
		}
		users = append(users, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, total, nil
}

// parseStoredTime decodes a timestamp returned by an aggregate, where the driver
// hands back text instead of a typed time.
func parseStoredTime(raw sql.NullString) (time.Time, bool) {
	if !raw.Valid || raw.String == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, raw.String); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
