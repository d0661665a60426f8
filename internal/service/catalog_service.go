package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"homeservices/internal/auth"
	"homeservices/internal/domain"
	"homeservices/internal/events"
	"homeservices/internal/logging"
	"homeservices/internal/models"

	"github.com/rs/zerolog"
)

const catalogCachePrefix = "catalog:"

type PriceInput struct {
	Min      *float64 `json:"min"`
	Max      *float64 `json:"max"`
	Currency string   `json:"currency" validate:"omitempty,len=3"`
}

type ServiceInput struct {
	Name         string      `json:"name" validate:"min=3,max=100"`
	Category     string      `json:"category" validate:"category"`
	Description  string      `json:"description" validate:"min=10,max=1000"`
	PriceRange   *PriceInput `json:"priceRange"`
	ThumbnailURL string      `json:"thumbnailURL" validate:"omitempty,http_url"`
	Duration     string      `json:"duration" validate:"max=50"`
	Features     []string    `json:"features" validate:"max=20,dive,max=100"`
	IsActive     *bool       `json:"isActive"`
	Popularity   int         `json:"popularity" validate:"gte=0"`
}

// ServiceUpdateInput is a partial update; nil fields are left untouched.
type ServiceUpdateInput struct {
	Name         *string     `json:"name" validate:"omitnil,min=3,max=100"`
	Category     *string     `json:"category" validate:"omitnil,category"`
	Description  *string     `json:"description" validate:"omitnil,min=10,max=1000"`
	PriceRange   *PriceInput `json:"priceRange"`
	ThumbnailURL *string     `json:"thumbnailURL" validate:"omitempty,http_url"`
	Duration     *string     `json:"duration" validate:"omitnil,max=50"`
	Features     []string    `json:"features" validate:"omitempty,max=20,dive,max=100"`
	IsActive     *bool       `json:"isActive"`
}

// CatalogPage is one page of the catalog plus the categories that currently have active services.
type CatalogPage struct {
	Services   []*models.Service `json:"services"`
	Categories []string          `json:"categories"`
	Pagination models.Pagination `json:"pagination"`
}

type catalogEvent struct {
	ServiceID int64  `json:"service_id"`
	Action    string `json:"action"`
}

type CatalogService struct {
	services domain.ServiceRepository
	bookings domain.BookingRepository
	cache    domain.Cache
	events   domain.EventPublisher
	ttl      time.Duration
	logger   *zerolog.Logger
}

// NewCatalogService builds the catalog. cache and eventBus may be nil.
func NewCatalogService(services domain.ServiceRepository, bookings domain.BookingRepository, cache domain.Cache,
	eventBus domain.EventPublisher, ttl time.Duration, logger *zerolog.Logger) *CatalogService {
	return &CatalogService{
		services: services,
		bookings: bookings,
		cache:    cache,
		events:   eventBus,
		ttl:      ttl,
		logger:   logging.Component(logger, "catalog_service"),
	}
}

func (s *CatalogService) AddService(ctx context.Context, actor *auth.Principal, in ServiceInput) (*models.Service, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" || in.Category == "" || in.Description == "" || in.PriceRange == nil {
		return nil, domain.NewValidationError("Please provide all required fields (name, category, description, priceRange)",
			"name", "category", "description", "priceRange")
	}
	if in.PriceRange.Min == nil || in.PriceRange.Max == nil {
		return nil, domain.NewValidationError("Price range must include min and max values", "priceRange")
	}
	if err := checkPrices(*in.PriceRange.Min, *in.PriceRange.Max); err != nil {
		return nil, err
	}
	if err := validateInput("Validation error", in); err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, in.Name, 0); err != nil {
		return nil, err
	}

	svc := &models.Service{
		Name:         in.Name,
		Category:     in.Category,
		Description:  in.Description,
		PriceRange:   models.PriceRange{Min: *in.PriceRange.Min, Max: *in.PriceRange.Max, Currency: in.PriceRange.Currency},
		ThumbnailURL: in.ThumbnailURL,
		Duration:     in.Duration,
		Features:     in.Features,
		IsActive:     true,
		Popularity:   in.Popularity,
	}
	if in.IsActive != nil {
		svc.IsActive = *in.IsActive
	}
	if svc.PriceRange.Currency == "" {
		svc.PriceRange.Currency = models.DefaultCurrency
	}
	if svc.Duration == "" {
		svc.Duration = models.DefaultDuration
	}
	if svc.Features == nil {
		svc.Features = []string{}
	}

	if err := s.services.CreateService(ctx, svc); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, duplicateServiceError()
		}
		return nil, err
	}

	s.logger.Info().Int64("service_id", svc.ID).Str("name", svc.Name).Msg("service added")
	s.changed(ctx, svc.ID, "created")
	return svc, nil
}

func (s *CatalogService) UpdateService(ctx context.Context, actor *auth.Principal, id int64, in ServiceUpdateInput) (*models.Service, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		in.Name = &trimmed
	}
	if err := validateInput("Validation error", in); err != nil {
		return nil, err
	}

	current, err := s.services.GetService(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil && !strings.EqualFold(*in.Name, current.Name) {
		if err := s.ensureNameFree(ctx, *in.Name, id); err != nil {
			return nil, err
		}
	}

	patch := models.ServicePatch{
		Name:         in.Name,
		Category:     in.Category,
		Description:  in.Description,
		ThumbnailURL: in.ThumbnailURL,
		Duration:     in.Duration,
		Features:     in.Features,
		IsActive:     in.IsActive,
	}
	if p := in.PriceRange; p != nil {
		lo, hi := current.PriceRange.Min, current.PriceRange.Max
		if p.Min != nil {
			lo = *p.Min
		}
		if p.Max != nil {
			hi = *p.Max
		}
		if err := checkPrices(lo, hi); err != nil {
			return nil, err
		}
		patch.PriceMin, patch.PriceMax = p.Min, p.Max
		if p.Currency != "" {
			patch.Currency = &p.Currency
		}
	}

	if err := s.services.UpdateService(ctx, id, patch); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, duplicateServiceError()
		}
		return nil, err
	}

	updated, err := s.services.GetService(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("service_id", id).Msg("service updated")
	s.changed(ctx, id, "updated")
	return updated, nil
}

// DeleteService refuses while any Pending, Confirmed or InProgress booking references the service.
func (s *CatalogService) DeleteService(ctx context.Context, actor *auth.Principal, id int64) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	if _, err := s.services.GetService(ctx, id); err != nil {
		return err
	}

	active, err := s.bookings.CountActiveBookingsForService(ctx, id)
	if err != nil {
		return err
	}
	if active > 0 {
		return domain.NewValidationError("Cannot delete service with active bookings. Please complete or cancel existing bookings first.")
	}

	if err := s.services.DeleteService(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("service_id", id).Msg("service deleted")
	s.changed(ctx, id, "deleted")
	return nil
}

func (s *CatalogService) GetService(ctx context.Context, id int64) (*models.Service, error) {
	return s.services.GetService(ctx, id)
}

func (s *CatalogService) ListServices(ctx context.Context, filter models.ServiceFilter) (*CatalogPage, error) {
	filter.Page, filter.Limit = models.NormalizePage(filter.Page, filter.Limit, models.DefaultCatalogPageSize)
	filter.Search = strings.TrimSpace(filter.Search)

	active := "any"
	if filter.IsActive != nil {
		active = fmt.Sprint(*filter.IsActive)
	}
	key := fmt.Sprintf("%slist:%s:%s:%s:%s:%s:%d:%d", catalogCachePrefix, filter.Category, active,
		strings.ToLower(filter.Search), filter.SortBy, filter.SortOrder, filter.Page, filter.Limit)

	var page CatalogPage
	if s.cacheGet(ctx, key, &page) {
		return &page, nil
	}

	services, total, err := s.services.ListServices(ctx, filter)
	if err != nil {
		return nil, err
	}
	categories, err := s.services.ActiveCategories(ctx)
	if err != nil {
		return nil, err
	}
	page = CatalogPage{
		Services:   nonNilServices(services),
		Categories: categories,
		Pagination: models.NewPagination(filter.Page, filter.Limit, total),
	}
	if page.Categories == nil {
		page.Categories = []string{}
	}
	s.cacheSet(ctx, key, page)
	return &page, nil
}

func (s *CatalogService) PopularServices(ctx context.Context, limit int) ([]*models.Service, error) {
	_, limit = models.NormalizePage(1, limit, models.DefaultPopularLimit)
	key := fmt.Sprintf("%spopular:%d", catalogCachePrefix, limit)

	var out []*models.Service
	if s.cacheGet(ctx, key, &out) {
		return out, nil
	}
	services, err := s.services.PopularServices(ctx, limit)
	if err != nil {
		return nil, err
	}
	out = nonNilServices(services)
	s.cacheSet(ctx, key, out)
	return out, nil
}

// ServicesByCategory lists active services of one category, most popular first.
func (s *CatalogService) ServicesByCategory(ctx context.Context, category string, limit int, sortBy, sortOrder string) ([]*models.Service, error) {
	if !models.IsServiceCategory(category) {
		return nil, domain.NewValidationError("Invalid category. Allowed values: "+strings.Join(models.ServiceCategories, ", "), "category")
	}
	_, limit = models.NormalizePage(1, limit, models.DefaultSearchLimit)
	active := true
	page, err := s.ListServices(ctx, models.ServiceFilter{
		Category:  category,
		IsActive:  &active,
		SortBy:    sortBy,
		SortOrder: sortOrder,
		Page:      1,
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}
	return page.Services, nil
}

// SearchServices matches active services by name, description or features.
func (s *CatalogService) SearchServices(ctx context.Context, query, category string, limit int) ([]*models.Service, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < models.MinSearchQueryLength {
		return nil, domain.NewValidationError("Search query must be at least 2 characters long", "q")
	}
	_, limit = models.NormalizePage(1, limit, models.DefaultSearchLimit)
	key := fmt.Sprintf("%ssearch:%s:%s:%d", catalogCachePrefix, strings.ToLower(query), category, limit)

	var out []*models.Service
	if s.cacheGet(ctx, key, &out) {
		return out, nil
	}
	services, err := s.services.SearchServices(ctx, query, category, limit)
	if err != nil {
		return nil, err
	}
	out = nonNilServices(services)
	s.cacheSet(ctx, key, out)
	return out, nil
}

// InvalidateCache drops every cached catalog response. It is safe to use as an event handler.
func (s *CatalogService) InvalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePrefix(ctx, catalogCachePrefix); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate catalog cache")
	}
}

func (s *CatalogService) changed(ctx context.Context, id int64, action string) {
	s.InvalidateCache(ctx)
	if s.events == nil {
		return
	}
	if err := s.events.PublishJSON(events.EventCatalogChanged, catalogEvent{ServiceID: id, Action: action}); err != nil {
		s.logger.Error().Err(err).Int64("service_id", id).Msg("publish event error")
	}
}

func (s *CatalogService) ensureNameFree(ctx context.Context, name string, self int64) error {
	existing, err := s.services.GetServiceByName(ctx, name)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != self:
		return duplicateServiceError()
	}
	return nil
}

func (s *CatalogService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	ok, err := s.cache.GetJSON(ctx, key, dest)
	if err != nil {
		s.logger.Debug().Err(err).Str("key", key).Msg("catalog cache read failed")
		return false
	}
	return ok
}

func (s *CatalogService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	if err := s.cache.SetJSON(ctx, key, value, s.ttl); err != nil {
		s.logger.Debug().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
}

func checkPrices(lo, hi float64) error {
	if lo < 0 || hi < 0 {
		return domain.NewValidationError("Price values cannot be negative", "priceRange")
	}
	if lo > hi {
		return domain.NewValidationError("Minimum price cannot be greater than maximum price", "priceRange")
	}
	return nil
}

func duplicateServiceError() error {
	return domain.NewValidationError("Service with this name already exists", "name")
}

func nonNilServices(s []*models.Service) []*models.Service {
	if s == nil {
		return []*models.Service{}
	}
	return s
}
