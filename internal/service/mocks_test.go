package service

import (
	"context"
	"io"
	"sync"
	"time"

	"homeservices/internal/models"
	"homeservices/internal/notify"

	"github.com/stretchr/testify/mock"
)

// MockBookingRepository is a mock of domain.BookingRepository.
type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) CreateBooking(ctx context.Context, booking *models.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetBookingByCode(ctx context.Context, code string) (*models.Booking, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.Booking), args.Int(1), args.Error(2)
}

func (m *MockBookingRepository) GetAllBookings(ctx context.Context) ([]*models.Booking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdateBookingStatus(ctx context.Context, id int64, update models.StatusUpdate, now time.Time) error {
	args := m.Called(ctx, id, update, now)
	return args.Error(0)
}

func (m *MockBookingRepository) AssignTechnician(ctx context.Context, id int64, tech models.Technician) error {
	args := m.Called(ctx, id, tech)
	return args.Error(0)
}

func (m *MockBookingRepository) SetBookingFeedback(ctx context.Context, id int64, rating int, feedback string) error {
	args := m.Called(ctx, id, rating, feedback)
	return args.Error(0)
}

func (m *MockBookingRepository) SetBookingAdminReply(ctx context.Context, id int64, reply string, at time.Time) error {
	args := m.Called(ctx, id, reply, at)
	return args.Error(0)
}

func (m *MockBookingRepository) MarkNotified(ctx context.Context, id int64, flags models.NotificationFlags) error {
	args := m.Called(ctx, id, flags)
	return args.Error(0)
}

func (m *MockBookingRepository) DeleteBooking(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBookingRepository) CountActiveBookingsForService(ctx context.Context, serviceID int64) (int, error) {
	args := m.Called(ctx, serviceID)
	return args.Int(0), args.Error(1)
}

// MockServiceRepository is a mock of domain.ServiceRepository.
type MockServiceRepository struct {
	mock.Mock
}

func (m *MockServiceRepository) CreateService(ctx context.Context, svc *models.Service) error {
	args := m.Called(ctx, svc)
	return args.Error(0)
}

func (m *MockServiceRepository) GetService(ctx context.Context, id int64) (*models.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}

func (m *MockServiceRepository) GetServiceByName(ctx context.Context, name string) (*models.Service, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}

func (m *MockServiceRepository) ListServices(ctx context.Context, filter models.ServiceFilter) ([]*models.Service, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.Service), args.Int(1), args.Error(2)
}

func (m *MockServiceRepository) ActiveCategories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockServiceRepository) SearchServices(ctx context.Context, query, category string, limit int) ([]*models.Service, error) {
	args := m.Called(ctx, query, category, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Service), args.Error(1)
}

func (m *MockServiceRepository) PopularServices(ctx context.Context, limit int) ([]*models.Service, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Service), args.Error(1)
}

func (m *MockServiceRepository) UpdateService(ctx context.Context, id int64, patch models.ServicePatch) error {
	args := m.Called(ctx, id, patch)
	return args.Error(0)
}

func (m *MockServiceRepository) DeleteService(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockServiceRepository) IncrementServiceBookings(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockServiceRepository) RefreshServiceRating(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockReviewRepository is a mock of domain.ReviewRepository.
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) CreateReview(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) GetReview(ctx context.Context, id int64) (*models.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewRepository) GetReviewByBooking(ctx context.Context, bookingID int64) (*models.Review, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewRepository) ListReviews(ctx context.Context, status string, page, limit int) ([]*models.Review, int, error) {
	args := m.Called(ctx, status, page, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.Review), args.Int(1), args.Error(2)
}

func (m *MockReviewRepository) HomepageReviews(ctx context.Context, limit int) ([]*models.Review, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Review), args.Error(1)
}

func (m *MockReviewRepository) SetReviewFlags(ctx context.Context, id int64, approved, displayed *bool) error {
	args := m.Called(ctx, id, approved, displayed)
	return args.Error(0)
}

func (m *MockReviewRepository) SetReviewReply(ctx context.Context, id int64, reply models.AdminReply) error {
	args := m.Called(ctx, id, reply)
	return args.Error(0)
}

func (m *MockReviewRepository) DeleteReview(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockUserRepository is a mock of domain.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UpdateUserProfile(ctx context.Context, id int64, name, phone string) error {
	args := m.Called(ctx, id, name, phone)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockUserRepository) SetUserActive(ctx context.Context, id int64, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

func (m *MockUserRepository) DeleteUser(ctx context.Context, id int64) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *MockUserRepository) ListUsers(ctx context.Context, filter models.UserFilter) ([]*models.UserSummary, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.UserSummary), args.Int(1), args.Error(2)
}

// MockSupportRepository is a mock of domain.SupportRepository.
type MockSupportRepository struct {
	mock.Mock
}

func (m *MockSupportRepository) CreateSupportRequest(ctx context.Context, req *models.SupportRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockSupportRepository) GetSupportRequest(ctx context.Context, id int64) (*models.SupportRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SupportRequest), args.Error(1)
}

func (m *MockSupportRepository) ListSupportRequests(ctx context.Context, status, priority string, page, limit int) ([]*models.SupportRequest, int, error) {
	args := m.Called(ctx, status, priority, page, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.SupportRequest), args.Int(1), args.Error(2)
}

func (m *MockSupportRepository) UpdateSupportRequest(ctx context.Context, id int64, update models.SupportUpdate, actor int64, now time.Time) error {
	args := m.Called(ctx, id, update, actor, now)
	return args.Error(0)
}

// MockStatsRepository is a mock of domain.StatsRepository.
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) DashboardStats(ctx context.Context, since time.Time, trendFrom time.Time) (*models.DashboardStats, error) {
	args := m.Called(ctx, since, trendFrom)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DashboardStats), args.Error(1)
}

func (m *MockStatsRepository) EnhancedStats(ctx context.Context) (*models.EnhancedStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EnhancedStats), args.Error(1)
}

func (m *MockStatsRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockGalleryRepository is a mock of domain.GalleryRepository.
type MockGalleryRepository struct {
	mock.Mock
}

func (m *MockGalleryRepository) CreateGalleryItem(ctx context.Context, item *models.GalleryItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockGalleryRepository) GetGalleryItem(ctx context.Context, id int64) (*models.GalleryItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GalleryItem), args.Error(1)
}

func (m *MockGalleryRepository) ListGalleryItems(ctx context.Context, category, section string) ([]*models.GalleryItem, error) {
	args := m.Called(ctx, category, section)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.GalleryItem), args.Error(1)
}

func (m *MockGalleryRepository) DeleteGalleryItem(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockObjectStore is a mock of domain.ObjectStore.
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, key, body, size, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// fakeNotifier renders one job per channel and records deliveries.
type fakeNotifier struct {
	mu        sync.Mutex
	delivered []string
	fail      map[string]bool
	disabled  map[string]bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{fail: map[string]bool{}, disabled: map[string]bool{}}
}

func (n *fakeNotifier) CustomerCreatedJobs(b *models.Booking) []notify.Job {
	return []notify.Job{
		{Name: "email_customer", Channel: notify.ChannelEmail, Message: notify.Message{To: b.Email}},
		{Name: "sms_customer", Channel: notify.ChannelSMS, Message: notify.Message{To: b.Phone}},
	}
}

func (n *fakeNotifier) StaffCreatedJobs(b *models.Booking) []notify.Job {
	return []notify.Job{
		{Name: "email_staff", Channel: notify.ChannelEmail, Message: notify.Message{To: "ops@example.com"}},
	}
}

func (n *fakeNotifier) StatusChangedJobs(b *models.Booking, old models.BookingStatus) []notify.Job {
	return []notify.Job{
		{Name: "email_customer_status", Channel: notify.ChannelEmail, Message: notify.Message{To: b.Email, Subject: string(old) + "->" + string(b.Status)}},
	}
}

func (n *fakeNotifier) Deliver(ctx context.Context, job notify.Job) notify.Result {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.disabled[job.Name] {
		return notify.Result{Channel: job.Channel, Disabled: true}
	}
	if n.fail[job.Name] {
		return notify.Result{Channel: job.Channel, Error: "provider down"}
	}
	n.delivered = append(n.delivered, job.Name)
	return notify.Result{Channel: job.Channel, Success: true, MessageID: "msg-" + job.Name}
}

func (n *fakeNotifier) deliveredNames() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.delivered...)
}

type publishedEvent struct {
	Type    string
	Payload interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) PublishJSON(eventType string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Type: eventType, Payload: payload})
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type syncCall struct {
	TaskType  string
	BookingID int64
	Status    string
}

type fakeSyncWorker struct {
	mu    sync.Mutex
	calls []syncCall
}

func (w *fakeSyncWorker) EnqueueTask(ctx context.Context, taskType string, bookingID int64, booking *models.Booking, status string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, syncCall{TaskType: taskType, BookingID: bookingID, Status: status})
	return nil
}
