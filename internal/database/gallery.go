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

const galleryColumns = `id, title, description, category, section, media_type, file_name, object_key, url,
                        file_size, mime_type, uploaded_by, is_active, view_count, created_at, updated_at`

func (db *DB) CreateGalleryItem(ctx context.Context, item *models.GalleryItem) error {
	query := `INSERT INTO gallery (title, description, category, section, media_type, file_name, object_key, url,
                                   file_size, mime_type, uploaded_by, is_active, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		item.Title, item.Description, item.Category, item.Section, item.MediaType, item.FileName,
		item.ObjectKey, item.URL, item.FileSize, item.MimeType, item.UploadedBy, item.IsActive, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create gallery item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	item.ID = id
	item.CreatedAt = now
	item.UpdatedAt = now
	return nil
}

func (db *DB) GetGalleryItem(ctx context.Context, id int64) (*models.GalleryItem, error) {
	item, err := scanGallery(db.QueryRowContext(ctx, `SELECT `+galleryColumns+` FROM gallery WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("gallery item %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get gallery item: %w", err)
	}
	return item, nil
}

func scanGallery(row rowScanner) (*models.GalleryItem, error) {
	var g models.GalleryItem
	err := row.Scan(
		&g.ID, &g.Title, &g.Description, &g.Category, &g.Section, &g.MediaType, &g.FileName, &g.ObjectKey,
		&g.URL, &g.FileSize, &g.MimeType, &g.UploadedBy, &g.IsActive, &g.ViewCount, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ListGalleryItems returns active items, optionally narrowed by category and section.
func (db *DB) ListGalleryItems(ctx context.Context, category, section string) ([]*models.GalleryItem, error) {
	where := []string{"is_active = 1"}
	var args []interface{}
	if category != "" {
		where = append(where, "category = ?")
		args = append(args, category)
	}
	if section != "" {
		where = append(where, "section = ?")
		args = append(args, section)
	}

	rows, err := db.QueryContext(ctx, `SELECT `+galleryColumns+` FROM gallery WHERE `+
		strings.Join(where, " AND ")+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list gallery: %w", err)
	}
	defer rows.Close()

	var items []*models.GalleryItem
	for rows.Next() {
		g, err := scanGallery(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan gallery item: %w", err)
		}
		items = append(items, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate gallery: %w", err)
	}
	return items, nil
}

func (db *DB) DeleteGalleryItem(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM gallery WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete gallery item: %w", err)
	}
	return checkAffected(res, "gallery item")
}
