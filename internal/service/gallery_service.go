package service

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"

	"homeservices/internal/auth"
	"homeservices/internal/domain"
	"homeservices/internal/logging"
	"homeservices/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// UploadInput is one multipart gallery upload. Body is read at most Size bytes.
type UploadInput struct {
	Title       string    `json:"title" validate:"required,max=100"`
	Description string    `json:"description" validate:"max=500"`
	Category    string    `json:"category" validate:"required"`
	Section     string    `json:"section"`
	FileName    string    `json:"file" validate:"required"`
	ContentType string    `json:"-"`
	Size        int64     `json:"-"`
	Body        io.Reader `json:"-"`
}

type GalleryService struct {
	items  domain.GalleryRepository
	store  domain.ObjectStore
	now    func() time.Time
	logger *zerolog.Logger
}

func NewGalleryService(items domain.GalleryRepository, store domain.ObjectStore, logger *zerolog.Logger) *GalleryService {
	return &GalleryService{
		items:  items,
		store:  store,
		now:    time.Now,
		logger: logging.Component(logger, "gallery_service"),
	}
}

// List returns active media, optionally narrowed by category and section.
func (s *GalleryService) List(ctx context.Context, category, section string) ([]*models.GalleryItem, error) {
	items, err := s.items.ListGalleryItems(ctx, strings.TrimSpace(category), strings.TrimSpace(section))
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*models.GalleryItem{}
	}
	return items, nil
}

// Upload stores the media object first and the row second; a failed insert removes the object.
func (s *GalleryService) Upload(ctx context.Context, actor *auth.Principal, in UploadInput) (*models.GalleryItem, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	in.Section = strings.TrimSpace(in.Section)
	if in.Section == "" {
		in.Section = models.DefaultGallerySection
	}
	if in.Body == nil {
		return nil, domain.NewValidationError("Please select a file to upload", "file")
	}
	if err := validateInput("Validation error", in); err != nil {
		return nil, err
	}
	if !models.Contains(models.GalleryCategories, in.Category) {
		return nil, domain.NewValidationError("Invalid category", "category")
	}
	if !models.Contains(models.GallerySections, in.Section) {
		return nil, domain.NewValidationError("Invalid section", "section")
	}
	mediaType, ok := mediaTypeOf(in.ContentType)
	if !ok {
		return nil, domain.NewValidationError("Only image and video files are allowed", "file")
	}
	if in.Size <= 0 || in.Size > models.MaxGalleryFileSize {
		return nil, domain.NewValidationError("File size must be between 1 byte and 10MB", "file")
	}

	key := s.objectKey(in.FileName)
	url, err := s.store.Put(ctx, key, in.Body, in.Size, in.ContentType)
	if err != nil {
		return nil, err
	}

	item := &models.GalleryItem{
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		Category:    in.Category,
		Section:     in.Section,
		MediaType:   mediaType,
		FileName:    path.Base(in.FileName),
		ObjectKey:   key,
		URL:         url,
		FileSize:    in.Size,
		MimeType:    in.ContentType,
		UploadedBy:  actor.UserID,
		IsActive:    true,
	}
	if err := s.items.CreateGalleryItem(ctx, item); err != nil {
		if derr := s.store.Delete(ctx, key); derr != nil {
			s.logger.Warn().Err(derr).Str("key", key).Msg("failed to remove orphaned media")
		}
		return nil, err
	}
	s.logger.Info().Int64("item_id", item.ID).Str("key", key).Int64("size", in.Size).Msg("gallery media uploaded")
	return item, nil
}

func (s *GalleryService) objectKey(fileName string) string {
	ext := strings.ToLower(path.Ext(path.Base(fileName)))
	return "gallery/" + s.now().Format("2006/01") + "/" + uuid.NewString() + ext
}

func mediaTypeOf(contentType string) (string, bool) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	switch {
	case strings.HasPrefix(ct, "image/"):
		return models.MediaImage, true
	case strings.HasPrefix(ct, "video/"):
		return models.MediaVideo, true
	default:
		return "", false
	}
}

// Delete removes the row and then the stored object. A missing object is logged, not returned.
func (s *GalleryService) Delete(ctx context.Context, actor *auth.Principal, rawID string) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	item, err := s.items.GetGalleryItem(ctx, id)
	if err != nil {
		return err
	}
	if err := s.items.DeleteGalleryItem(ctx, id); err != nil {
		return err
	}
	if item.ObjectKey != "" {
		if err := s.store.Delete(ctx, item.ObjectKey); err != nil && !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn().Err(err).Str("key", item.ObjectKey).Msg("failed to remove media object")
		}
	}
	s.logger.Info().Int64("item_id", id).Int64("by", actor.UserID).Msg("gallery media deleted")
	return nil
}
