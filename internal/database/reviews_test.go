package database

import (
	"context"
	"testing"
	"time"

	"homeservices/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReview(bookingID int64) *models.Review {
	return &models.Review{
		BookingID:             bookingID,
		UserID:                1,
		CustomerName:          "Asha Kumar",
		ServiceCategory:       "AC Services",
		ServiceName:           "AC Repair",
		Rating:                5,
		Feedback:              "Quick and tidy work",
		IsApproved:            true,
		IsDisplayedOnHomepage: true,
	}
}

func TestReviewLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	r := newTestReview(10)
	require.NoError(t, db.CreateReview(ctx, r))

	got, err := db.GetReviewByBooking(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)
	assert.Nil(t, got.AdminReply)

	t.Run("SecondReviewRejectedAfterApprovalRevoked", func(t *testing.T) {
		revoked := false
		require.NoError(t, db.SetReviewFlags(ctx, r.ID, &revoked, nil))

		err := db.CreateReview(ctx, newTestReview(10))
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("FlagsAreIndependent", func(t *testing.T) {
		hidden := false
		require.NoError(t, db.SetReviewFlags(ctx, r.ID, nil, &hidden))
		got, err := db.GetReview(ctx, r.ID)
		require.NoError(t, err)
		assert.False(t, got.IsApproved, "approval untouched by display toggle")
		assert.False(t, got.IsDisplayedOnHomepage)

		approved := true
		require.NoError(t, db.SetReviewFlags(ctx, r.ID, &approved, nil))
		got, err = db.GetReview(ctx, r.ID)
		require.NoError(t, err)
		assert.True(t, got.IsApproved)
		assert.False(t, got.IsDisplayedOnHomepage)
	})

	t.Run("Reply", func(t *testing.T) {
		staff := int64(2)
		now := time.Now()
		require.NoError(t, db.SetReviewReply(ctx, r.ID, models.AdminReply{Text: "Thank you!", RepliedBy: &staff, RepliedAt: &now}))
		require.NoError(t, db.SetReviewReply(ctx, r.ID, models.AdminReply{Text: "Thanks again", RepliedBy: &staff, RepliedAt: &now}))
		got, err := db.GetReview(ctx, r.ID)
		require.NoError(t, err)
		require.NotNil(t, got.AdminReply)
		assert.Equal(t, "Thanks again", got.AdminReply.Text)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, db.DeleteReview(ctx, r.ID))
		_, err := db.GetReview(ctx, r.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestReviewListing(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for i := int64(1); i <= 4; i++ {
		r := newTestReview(i)
		r.IsApproved = i != 2
		r.IsDisplayedOnHomepage = i != 3
		require.NoError(t, db.CreateReview(ctx, r))
	}

	home, err := db.HomepageReviews(ctx, 6)
	require.NoError(t, err)
	require.Len(t, home, 2)
	for _, r := range home {
		assert.True(t, r.IsApproved)
		assert.True(t, r.IsDisplayedOnHomepage)
	}

	_, total, err := db.ListReviews(ctx, models.ReviewFilterAll, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, total)

	pending, total, err := db.ListReviews(ctx, models.ReviewFilterPending, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, int64(2), pending[0].BookingID)

	_, total, err = db.ListReviews(ctx, models.ReviewFilterApproved, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}
