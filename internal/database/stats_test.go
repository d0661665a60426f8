package database

import (
	"context"
	"testing"
	"time"

	"homeservices/internal/models"

	"github.com/jinzhu/now"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardStats(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateUser(ctx, newTestUser("one@example.com", "+919800000101")))
	require.NoError(t, db.CreateUser(ctx, newTestUser("two@example.com", "+919800000102")))
	require.NoError(t, db.CreateService(ctx, newTestService("Tap Repair", "Plumbing Services")))

	statuses := []models.BookingStatus{models.StatusPending, models.StatusPending, models.StatusConfirmed, models.StatusCompleted}
	var completedID int64
	for i, st := range statuses {
		b := newTestBooking("AX-20250101-ST0"+string(rune('A'+i)), 1, st)
		if i == 3 {
			b.Services = []models.LineItem{{ServiceName: "Tap Repair", Category: "Plumbing Services"}}
		}
		require.NoError(t, db.CreateBooking(ctx, b))
		if st == models.StatusCompleted {
			completedID = b.ID
		}
	}
	cost := 1500.0
	require.NoError(t, db.UpdateBookingStatus(ctx, completedID, models.StatusUpdate{Status: models.StatusCompleted, ActualCost: &cost}, time.Now()))

	stats, err := db.DashboardStats(ctx, time.Now().AddDate(0, 0, -30), now.BeginningOfDay().AddDate(0, 0, -6))
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Overview.TotalUsers)
	assert.Equal(t, 4, stats.Overview.TotalBookings)
	assert.Equal(t, 1, stats.Overview.TotalServices)
	assert.Equal(t, 1500.0, stats.Overview.TotalRevenue)
	assert.Equal(t, 1500.0, stats.Overview.AvgOrderValue)
	assert.Equal(t, 30, stats.PeriodStats.Period)
	assert.Equal(t, 4, stats.PeriodStats.NewBookings)
	assert.Equal(t, 1500.0, stats.PeriodStats.Revenue)

	assert.Equal(t, models.StatusCounts{Pending: 2, Confirmed: 1, Completed: 1}, stats.BookingStatus)
	assert.Len(t, stats.RecentBookings, 4)
	require.Len(t, stats.BookingTrends, 1)
	assert.Equal(t, time.Now().Format(models.DateLayout), stats.BookingTrends[0].Date)
	assert.Equal(t, 4, stats.BookingTrends[0].Count)

	require.Len(t, stats.CategoryStats, 2)
	assert.Equal(t, models.CategoryCount{Category: "AC Services", Count: 3}, stats.CategoryStats[0])
	assert.Equal(t, models.CategoryCount{Category: "Plumbing Services", Count: 1}, stats.CategoryStats[1])
}

func TestEnhancedStats(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	u := newTestUser("active@example.com", "+919800000201")
	require.NoError(t, db.CreateUser(ctx, u))
	inactive := newTestUser("idle@example.com", "+919800000202")
	inactive.IsActive = false
	require.NoError(t, db.CreateUser(ctx, inactive))

	require.NoError(t, db.CreateBooking(ctx, newTestBooking("AX-20250101-ENH1", u.ID, models.StatusCancelled)))
	require.NoError(t, db.CreateSupportRequest(ctx, &models.SupportRequest{
		Name: "A", Email: "a@example.com", Subject: "s", Message: "m", Category: "General", Priority: "Low", Status: models.SupportOpen,
	}))
	require.NoError(t, db.CreateGalleryItem(ctx, &models.GalleryItem{
		Title: "t", Category: "AC", Section: models.DefaultGallerySection, MediaType: models.MediaImage, FileName: "f",
		ObjectKey: "k", URL: "u", FileSize: 1, MimeType: "image/png", UploadedBy: 1, IsActive: true,
	}))

	stats, err := db.EnhancedStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Users.Total)
	assert.Equal(t, 1, stats.Users.Active)
	assert.Equal(t, 1, stats.Bookings.Total)
	assert.Equal(t, 1, stats.Bookings.Cancelled)
	assert.Equal(t, 1, stats.Support.Open)
	assert.Equal(t, 1, stats.Gallery.Images)
	assert.Zero(t, stats.Gallery.Videos)
}
