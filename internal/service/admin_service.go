package service

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"
	"time"

	"homeservices/internal/auth"
	"homeservices/internal/config"
	"homeservices/internal/domain"
	"homeservices/internal/export"
	"homeservices/internal/logging"
	"homeservices/internal/models"

	"github.com/jinzhu/now"
	"github.com/rs/zerolog"
)

const (
	statsCachePrefix = "stats:"
	maxStatsPeriod   = 365
	trendDays        = 7
)

// UserListInput filters the staff users listing.
type UserListInput struct {
	Search string
	Status string
	Page   int
	Limit  int
}

type UserPage struct {
	Users      []*models.UserSummary `json:"users"`
	Pagination models.Pagination     `json:"pagination"`
}

type ComponentHealth struct {
	Status    string  `json:"status"`
	LatencyMS float64 `json:"latencyMs"`
	Error     string  `json:"error,omitempty"`
}

type MemoryHealth struct {
	AllocMB     float64 `json:"allocMb"`
	SysMB       float64 `json:"sysMb"`
	HeapObjects uint64  `json:"heapObjects"`
	NumGC       uint32  `json:"numGc"`
}

type SystemHealth struct {
	Status      string          `json:"status"`
	Database    ComponentHealth `json:"database"`
	Cache       ComponentHealth `json:"cache"`
	Uptime      float64         `json:"uptime"`
	Goroutines  int             `json:"goroutines"`
	Memory      MemoryHealth    `json:"memory"`
	Version     string          `json:"version"`
	Environment string          `json:"environment"`
	Timestamp   time.Time       `json:"timestamp"`
}

type AdminService struct {
	users     domain.UserRepository
	bookings  domain.BookingRepository
	stats     domain.StatsRepository
	cache     domain.Cache
	statsTTL  time.Duration
	app       config.AppConfig
	startedAt time.Time
	now       func() time.Time
	logger    *zerolog.Logger
}

// NewAdminService wires the dashboard. cache may be nil, which disables stats caching.
func NewAdminService(
	users domain.UserRepository,
	bookings domain.BookingRepository,
	stats domain.StatsRepository,
	cache domain.Cache,
	statsTTL time.Duration,
	app config.AppConfig,
	logger *zerolog.Logger,
) *AdminService {
	return &AdminService{
		users:     users,
		bookings:  bookings,
		stats:     stats,
		cache:     cache,
		statsTTL:  statsTTL,
		app:       app,
		startedAt: time.Now(),
		now:       time.Now,
		logger:    logging.Component(logger, "admin_service"),
	}
}

// DashboardStats aggregates the last periodDays days; zero or negative means the default.
func (s *AdminService) DashboardStats(ctx context.Context, actor *auth.Principal, periodDays int) (*models.DashboardStats, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if periodDays <= 0 {
		periodDays = models.DefaultStatsPeriodDays
	}
	if periodDays > maxStatsPeriod {
		periodDays = maxStatsPeriod
	}

	key := statsCachePrefix + "dashboard:" + strconv.Itoa(periodDays)
	var stats models.DashboardStats
	if s.cacheGet(ctx, key, &stats) {
		return &stats, nil
	}

	today := now.With(s.now()).BeginningOfDay()
	since := today.AddDate(0, 0, -periodDays)
	trendFrom := today.AddDate(0, 0, -(trendDays - 1))

	fresh, err := s.stats.DashboardStats(ctx, since, trendFrom)
	if err != nil {
		return nil, err
	}
	fresh.PeriodStats.Period = periodDays
	s.cacheSet(ctx, key, fresh)
	return fresh, nil
}

func (s *AdminService) EnhancedStats(ctx context.Context, actor *auth.Principal) (*models.EnhancedStats, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	key := statsCachePrefix + "enhanced"
	var stats models.EnhancedStats
	if s.cacheGet(ctx, key, &stats) {
		return &stats, nil
	}
	fresh, err := s.stats.EnhancedStats(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, fresh)
	return fresh, nil
}

// InvalidateStats drops cached dashboard figures. It is subscribed to booking events.
func (s *AdminService) InvalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePrefix(ctx, statsCachePrefix); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate stats cache")
	}
}

func (s *AdminService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil || s.statsTTL <= 0 {
		return false
	}
	hit, err := s.cache.GetJSON(ctx, key, dest)
	if err != nil {
		s.logger.Debug().Err(err).Str("key", key).Msg("stats cache read failed")
		return false
	}
	return hit
}

func (s *AdminService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil || s.statsTTL <= 0 {
		return
	}
	if err := s.cache.SetJSON(ctx, key, value, s.statsTTL); err != nil {
		s.logger.Debug().Err(err).Str("key", key).Msg("stats cache write failed")
	}
}

func (s *AdminService) ListUsers(ctx context.Context, actor *auth.Principal, in UserListInput) (*UserPage, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	page, limit := models.NormalizePage(in.Page, in.Limit, models.DefaultAdminPageSize)
	filter := models.UserFilter{Search: strings.TrimSpace(in.Search), Page: page, Limit: limit}
	switch in.Status {
	case "", "all":
	case "active", "inactive":
		active := in.Status == "active"
		filter.IsActive = &active
	default:
		return nil, domain.NewValidationError("Invalid status filter. Allowed values: all, active, inactive", "status")
	}

	users, total, err := s.users.ListUsers(ctx, filter)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*models.UserSummary{}
	}
	return &UserPage{Users: users, Pagination: models.NewPagination(page, limit, total)}, nil
}

// SetUserStatus activates or deactivates a customer. Admin accounts cannot be changed.
func (s *AdminService) SetUserStatus(ctx context.Context, actor *auth.Principal, rawID string, isActive *bool) (*models.User, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}
	if isActive == nil {
		return nil, domain.NewValidationError("isActive must be a boolean value", "isActive")
	}
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role.IsStaff() {
		return nil, domain.NewValidationError("Cannot modify admin user status", "id")
	}

	if err := s.users.SetUserActive(ctx, id, *isActive); err != nil {
		return nil, err
	}
	user.IsActive = *isActive
	s.InvalidateStats(ctx)
	s.logger.Info().Int64("user_id", id).Bool("active", user.IsActive).Int64("by", actor.UserID).Msg("user status changed")
	return user, nil
}

// DeleteUser removes an account with its bookings and returns how many bookings went with it.
func (s *AdminService) DeleteUser(ctx context.Context, actor *auth.Principal, rawID string) (int, error) {
	if err := requireStaff(actor); err != nil {
		return 0, err
	}
	id, err := parseID(rawID)
	if err != nil {
		return 0, err
	}
	if id == actor.UserID {
		return 0, domain.NewValidationError("You cannot delete your own account", "id")
	}
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if user.Role.IsStaff() {
		return 0, domain.NewValidationError("Cannot delete admin user", "id")
	}

	removed, err := s.users.DeleteUser(ctx, id)
	if err != nil {
		return 0, err
	}
	s.InvalidateStats(ctx)
	s.logger.Info().Int64("user_id", id).Int("bookings", removed).Int64("by", actor.UserID).Msg("user deleted")
	return removed, nil
}

// SystemHealth probes storage and the cache. It needs no principal so the public
// health check can reuse it.
func (s *AdminService) SystemHealth(ctx context.Context) *SystemHealth {
	h := &SystemHealth{
		Status:      "healthy",
		Database:    probe(ctx, s.stats.Ping),
		Uptime:      time.Since(s.startedAt).Seconds(),
		Goroutines:  runtime.NumGoroutine(),
		Version:     s.app.Version,
		Environment: s.app.Environment,
		Timestamp:   s.now(),
	}
	if s.cache != nil {
		h.Cache = probe(ctx, s.cache.Ping)
	} else {
		h.Cache = ComponentHealth{Status: "disabled"}
	}
	if h.Database.Status != "connected" {
		h.Status = "unhealthy"
	} else if h.Cache.Status == "disconnected" {
		h.Status = "degraded"
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	h.Memory = MemoryHealth{
		AllocMB:     float64(m.Alloc) / (1 << 20),
		SysMB:       float64(m.Sys) / (1 << 20),
		HeapObjects: m.HeapObjects,
		NumGC:       m.NumGC,
	}
	return h
}

func probe(ctx context.Context, ping func(context.Context) error) ComponentHealth {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := ping(ctx)
	c := ComponentHealth{Status: "connected", LatencyMS: float64(time.Since(start).Microseconds()) / 1000}
	if err != nil {
		c.Status = "disconnected"
		c.Error = err.Error()
	}
	return c
}

// ExportBookings streams every booking as an Excel workbook.
func (s *AdminService) ExportBookings(ctx context.Context, actor *auth.Principal, w io.Writer) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	bookings, err := s.bookings.GetAllBookings(ctx)
	if err != nil {
		return err
	}
	if err := export.WriteBookings(w, bookings); err != nil {
		return fmt.Errorf("failed to export bookings: %w", err)
	}
	s.logger.Info().Int("rows", len(bookings)).Int64("by", actor.UserID).Msg("bookings exported")
	return nil
}

// ExportFileName names the workbook for the download header.
func (s *AdminService) ExportFileName() string {
	return export.FileName(s.now())
}
