package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"homeservices/internal/config"
	"homeservices/internal/domain"
	"homeservices/internal/models"
	"homeservices/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type adminFixture struct {
	users    *MockUserRepository
	bookings *MockBookingRepository
	stats    *MockStatsRepository
	cache    *repository.MemoryCache
	svc      *AdminService
}

func newAdminFixture() *adminFixture {
	logger := zerolog.Nop()
	f := &adminFixture{
		users:    new(MockUserRepository),
		bookings: new(MockBookingRepository),
		stats:    new(MockStatsRepository),
		cache:    repository.NewMemoryCache(),
	}
	f.svc = NewAdminService(f.users, f.bookings, f.stats, f.cache, time.Minute,
		config.AppConfig{Version: "1.2.0", Environment: "test"}, &logger)
	f.svc.now = func() time.Time { return time.Date(2026, 10, 19, 15, 4, 0, 0, time.Local) }
	return f
}

func TestAdminService_DashboardStats(t *testing.T) {
	f := newAdminFixture()
	since := time.Date(2026, 9, 19, 0, 0, 0, 0, time.Local)
	trendFrom := time.Date(2026, 10, 13, 0, 0, 0, 0, time.Local)
	f.stats.On("DashboardStats", mock.Anything, since, trendFrom).
		Return(&models.DashboardStats{Overview: models.Overview{TotalBookings: 12}}, nil).Once()

	stats, err := f.svc.DashboardStats(context.Background(), staff, 0)
	require.NoError(t, err)
	assert.Equal(t, 12, stats.Overview.TotalBookings)
	assert.Equal(t, 30, stats.PeriodStats.Period)

	cached, err := f.svc.DashboardStats(context.Background(), staff, 30)
	require.NoError(t, err)
	assert.Equal(t, 12, cached.Overview.TotalBookings)
	f.stats.AssertNumberOfCalls(t, "DashboardStats", 1)

	f.svc.InvalidateStats(context.Background())
	f.stats.On("DashboardStats", mock.Anything, since, trendFrom).
		Return(&models.DashboardStats{Overview: models.Overview{TotalBookings: 13}}, nil).Once()
	fresh, err := f.svc.DashboardStats(context.Background(), staff, 30)
	require.NoError(t, err)
	assert.Equal(t, 13, fresh.Overview.TotalBookings)
}

func TestAdminService_StatsRequireStaff(t *testing.T) {
	f := newAdminFixture()
	_, err := f.svc.DashboardStats(context.Background(), customer, 7)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.svc.EnhancedStats(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	f.stats.AssertNotCalled(t, "DashboardStats", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminService_EnhancedStats(t *testing.T) {
	f := newAdminFixture()
	enhanced := &models.EnhancedStats{}
	enhanced.Support.Open = 2
	f.stats.On("EnhancedStats", mock.Anything).Return(enhanced, nil).Once()

	for i := 0; i < 2; i++ {
		got, err := f.svc.EnhancedStats(context.Background(), staff)
		require.NoError(t, err)
		assert.Equal(t, 2, got.Support.Open)
	}
	f.stats.AssertExpectations(t)
}

func TestAdminService_ListUsers(t *testing.T) {
	f := newAdminFixture()
	active := true
	f.users.On("ListUsers", mock.Anything, models.UserFilter{Search: "asha", IsActive: &active, Page: 1, Limit: 20}).
		Return([]*models.UserSummary{{User: models.User{ID: 7}, TotalBookings: 3}}, 1, nil)

	page, err := f.svc.ListUsers(context.Background(), staff, UserListInput{Search: " asha ", Status: "active"})
	require.NoError(t, err)
	require.Len(t, page.Users, 1)
	assert.Equal(t, 3, page.Users[0].TotalBookings)
	assert.Equal(t, models.Pagination{Current: 1, Pages: 1, Total: 1, Limit: 20}, page.Pagination)

	_, err = f.svc.ListUsers(context.Background(), staff, UserListInput{Status: "banned"})
	assert.True(t, domain.IsValidation(err))
}

func TestAdminService_SetUserStatus(t *testing.T) {
	f := newAdminFixture()
	f.users.On("GetUserByID", mock.Anything, int64(7)).Return(&models.User{ID: 7, Role: models.RoleUser, IsActive: true}, nil)
	f.users.On("GetUserByID", mock.Anything, int64(2)).Return(&models.User{ID: 2, Role: models.RoleAdmin, IsActive: true}, nil)
	f.users.On("SetUserActive", mock.Anything, int64(7), false).Return(nil)

	inactive := false
	user, err := f.svc.SetUserStatus(context.Background(), staff, "7", &inactive)
	require.NoError(t, err)
	assert.False(t, user.IsActive)

	_, err = f.svc.SetUserStatus(context.Background(), staff, "2", &inactive)
	assert.True(t, domain.IsValidation(err))

	_, err = f.svc.SetUserStatus(context.Background(), staff, "7", nil)
	assert.True(t, domain.IsValidation(err))
	f.users.AssertNumberOfCalls(t, "SetUserActive", 1)
}

func TestAdminService_DeleteUser(t *testing.T) {
	t.Run("cascades bookings", func(t *testing.T) {
		f := newAdminFixture()
		f.users.On("GetUserByID", mock.Anything, int64(7)).Return(&models.User{ID: 7, Role: models.RoleUser}, nil)
		f.users.On("DeleteUser", mock.Anything, int64(7)).Return(4, nil)

		removed, err := f.svc.DeleteUser(context.Background(), staff, "7")
		require.NoError(t, err)
		assert.Equal(t, 4, removed)
	})

	t.Run("not self", func(t *testing.T) {
		f := newAdminFixture()
		_, err := f.svc.DeleteUser(context.Background(), staff, "1")
		assert.True(t, domain.IsValidation(err))
		f.users.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newAdminFixture()
		f.users.On("GetUserByID", mock.Anything, int64(99)).Return(nil, domain.ErrNotFound)
		_, err := f.svc.DeleteUser(context.Background(), staff, "99")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("bad id", func(t *testing.T) {
		f := newAdminFixture()
		_, err := f.svc.DeleteUser(context.Background(), staff, "abc")
		assert.True(t, domain.IsValidation(err))
	})
}

func TestAdminService_SystemHealth(t *testing.T) {
	f := newAdminFixture()
	f.stats.On("Ping", mock.Anything).Return(nil).Once()

	h := f.svc.SystemHealth(context.Background())
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, "connected", h.Database.Status)
	assert.Equal(t, "connected", h.Cache.Status)
	assert.Equal(t, "1.2.0", h.Version)
	assert.Positive(t, h.Goroutines)
	assert.Positive(t, h.Memory.SysMB)

	f.stats.On("Ping", mock.Anything).Return(errors.New("disk I/O error")).Once()
	h = f.svc.SystemHealth(context.Background())
	assert.Equal(t, "unhealthy", h.Status)
	assert.Equal(t, "disk I/O error", h.Database.Error)
}

func TestAdminService_ExportBookings(t *testing.T) {
	f := newAdminFixture()
	f.bookings.On("GetAllBookings", mock.Anything).Return([]*models.Booking{
		bookingIn(models.StatusCompleted),
	}, nil)

	var buf bytes.Buffer
	require.NoError(t, f.svc.ExportBookings(context.Background(), staff, &buf))

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()
	first, err := wb.GetCellValue("Bookings", "A2")
	require.NoError(t, err)
	assert.Equal(t, "AX-20261019-ABCD", first)

	assert.ErrorIs(t, f.svc.ExportBookings(context.Background(), customer, &buf), domain.ErrForbidden)
}
