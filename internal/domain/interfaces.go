package domain

import (
	"context"
	"io"
	"time"

	"homeservices/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*models.User, error)
	UpdateUserProfile(ctx context.Context, id int64, name, phone string) error
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	SetUserActive(ctx context.Context, id int64, active bool) error
	DeleteUser(ctx context.Context, id int64) (int, error)
	ListUsers(ctx context.Context, filter models.UserFilter) ([]*models.UserSummary, int, error)
}

type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetBookingByCode(ctx context.Context, code string) (*models.Booking, error)
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, int, error)
	GetAllBookings(ctx context.Context) ([]*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id int64, update models.StatusUpdate, now time.Time) error
	AssignTechnician(ctx context.Context, id int64, tech models.Technician) error
	SetBookingFeedback(ctx context.Context, id int64, rating int, feedback string) error
	SetBookingAdminReply(ctx context.Context, id int64, reply string, at time.Time) error
	MarkNotified(ctx context.Context, id int64, flags models.NotificationFlags) error
	DeleteBooking(ctx context.Context, id int64) error
	CountActiveBookingsForService(ctx context.Context, serviceID int64) (int, error)
}

type ServiceRepository interface {
	CreateService(ctx context.Context, svc *models.Service) error
	GetService(ctx context.Context, id int64) (*models.Service, error)
	GetServiceByName(ctx context.Context, name string) (*models.Service, error)
	ListServices(ctx context.Context, filter models.ServiceFilter) ([]*models.Service, int, error)
	ActiveCategories(ctx context.Context) ([]string, error)
	SearchServices(ctx context.Context, query, category string, limit int) ([]*models.Service, error)
	PopularServices(ctx context.Context, limit int) ([]*models.Service, error)
	UpdateService(ctx context.Context, id int64, patch models.ServicePatch) error
	DeleteService(ctx context.Context, id int64) error
	IncrementServiceBookings(ctx context.Context, id int64) error
	RefreshServiceRating(ctx context.Context, id int64) error
}

type ReviewRepository interface {
	CreateReview(ctx context.Context, review *models.Review) error
	GetReview(ctx context.Context, id int64) (*models.Review, error)
	GetReviewByBooking(ctx context.Context, bookingID int64) (*models.Review, error)
	ListReviews(ctx context.Context, status string, page, limit int) ([]*models.Review, int, error)
	HomepageReviews(ctx context.Context, limit int) ([]*models.Review, error)
	SetReviewFlags(ctx context.Context, id int64, approved, displayed *bool) error
	SetReviewReply(ctx context.Context, id int64, reply models.AdminReply) error
	DeleteReview(ctx context.Context, id int64) error
}

type SupportRepository interface {
	CreateSupportRequest(ctx context.Context, req *models.SupportRequest) error
	GetSupportRequest(ctx context.Context, id int64) (*models.SupportRequest, error)
	ListSupportRequests(ctx context.Context, status, priority string, page, limit int) ([]*models.SupportRequest, int, error)
	UpdateSupportRequest(ctx context.Context, id int64, update models.SupportUpdate, actor int64, now time.Time) error
}

type GalleryRepository interface {
	CreateGalleryItem(ctx context.Context, item *models.GalleryItem) error
	GetGalleryItem(ctx context.Context, id int64) (*models.GalleryItem, error)
	ListGalleryItems(ctx context.Context, category, section string) ([]*models.GalleryItem, error)
	DeleteGalleryItem(ctx context.Context, id int64) error
}

type StatsRepository interface {
	DashboardStats(ctx context.Context, since time.Time, trendFrom time.Time) (*models.DashboardStats, error)
	EnhancedStats(ctx context.Context) (*models.EnhancedStats, error)
	Ping(ctx context.Context) error
}

// Cache is a JSON value cache with prefix invalidation and fixed-window counters.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Ping(ctx context.Context) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type SheetsWriter interface {
	UpsertBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatus(ctx context.Context, bookingID int64, status string) error
	DeleteBookingRow(ctx context.Context, bookingID int64) error
}

type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, bookingID int64, booking *models.Booking, status string) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ObjectStore keeps uploaded gallery media.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}
