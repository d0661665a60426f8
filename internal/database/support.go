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

const supportColumns = `id, name, email, phone, subject, message, category, priority, status, assigned_to,
                        admin_notes, resolved_at, resolved_by, created_at, updated_at`

func (db *DB) CreateSupportRequest(ctx context.Context, req *models.SupportRequest) error {
	query := `INSERT INTO support_requests (name, email, phone, subject, message, category, priority, status,
                                            created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		req.Name, strings.ToLower(req.Email), req.Phone, req.Subject, req.Message,
		req.Category, req.Priority, req.Status, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create support request: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	req.ID = id
	req.Email = strings.ToLower(req.Email)
	req.CreatedAt = now
	req.UpdatedAt = now
	return nil
}

func (db *DB) GetSupportRequest(ctx context.Context, id int64) (*models.SupportRequest, error) {
	r, err := scanSupport(db.QueryRowContext(ctx, `SELECT `+supportColumns+` FROM support_requests WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("support request %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get support request: %w", err)
	}
	return r, nil
}

func scanSupport(row rowScanner) (*models.SupportRequest, error) {
	var r models.SupportRequest
	err := row.Scan(
		&r.ID, &r.Name, &r.Email, &r.Phone, &r.Subject, &r.Message, &r.Category, &r.Priority, &r.Status,
		&r.AssignedTo, &r.AdminNotes, &r.ResolvedAt, &r.ResolvedBy, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (db *DB) ListSupportRequests(ctx context.Context, status, priority string, page, limit int) ([]*models.SupportRequest, int, error) {
	var where []string
	var args []interface{}
	if status != "" {
		where = append(where, "status = ?")
		args = append(args, status)
	}
	if priority != "" {
		where = append(where, "priority = ?")
		args = append(args, priority)
	}
	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM support_requests`+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count support requests: %w", err)
	}

	pageArgs := append(append([]interface{}{}, args...), limit, offset(page, limit))
	rows, err := db.QueryContext(ctx, `SELECT `+supportColumns+` FROM support_requests`+whereSQL+
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list support requests: %w", err)
	}
	defer rows.Close()

	var out []*models.SupportRequest
	for rows.Next() {
		r, err := scanSupport(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan support request: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate support requests: %w", err)
	}
	return out, total, nil
}

// UpdateSupportRequest applies the update; resolved_at and resolved_by are stamped only
// the first time the request enters Resolved.
func (db *DB) UpdateSupportRequest(ctx context.Context, id int64, update models.SupportUpdate, actor int64, now time.Time) error {
	sets := []string{"updated_at = ?"}
	args := []interface{}{now}
	if update.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *update.Status)
		if *update.Status == models.SupportResolved {
			sets = append(sets, "resolved_at = COALESCE(resolved_at, ?)", "resolved_by = COALESCE(resolved_by, ?)")
			args = append(args, now, actor)
		}
	}
	if update.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, *update.Priority)
	}
	if update.AdminNotes != nil {
		sets = append(sets, "admin_notes = ?")
		args = append(args, *update.AdminNotes)
	}
	if update.AssignedTo != nil {
		sets = append(sets, "assigned_to = ?")
		args = append(args, *update.AssignedTo)
	}
	args = append(args, id)

	res, err := db.ExecContext(ctx, `UPDATE support_requests SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("failed to update support request: %w", err)
	}
	return checkAffected(res, "support request")
}
