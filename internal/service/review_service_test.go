package service

import (
	"context"
	"testing"
	"time"

	"homeservices/internal/domain"
	"homeservices/internal/events"
	"homeservices/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type reviewFixture struct {
	reviews   *MockReviewRepository
	bookings  *MockBookingRepository
	services  *MockServiceRepository
	publisher *fakePublisher
	svc       *ReviewService
	now       time.Time
}

func newReviewFixture() *reviewFixture {
	logger := zerolog.Nop()
	f := &reviewFixture{
		reviews:   new(MockReviewRepository),
		bookings:  new(MockBookingRepository),
		services:  new(MockServiceRepository),
		publisher: &fakePublisher{},
		now:       time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewReviewService(f.reviews, f.bookings, f.services, f.publisher, &logger)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func completedBooking() *models.Booking {
	id := int64(2)
	b := bookingIn(models.StatusCompleted)
	b.Services = []models.LineItem{{ServiceID: &id, ServiceName: "AC Repair", Category: "AC Services"}}
	return b
}

func TestReviewService_CreateReview(t *testing.T) {
	f := newReviewFixture()
	f.bookings.On("GetBooking", mock.Anything, int64(5)).Return(completedBooking(), nil)
	f.reviews.On("CreateReview", mock.Anything, mock.MatchedBy(func(r *models.Review) bool {
		return r.ServiceName == "AC Repair" && r.ServiceCategory == "AC Services" && r.CustomerName == "Asha Rao" &&
			r.IsApproved && r.IsDisplayedOnHomepage
	})).Run(func(args mock.Arguments) { args.Get(1).(*models.Review).ID = 11 }).Return(nil)
	f.bookings.On("SetBookingFeedback", mock.Anything, int64(5), 4, "Quick and tidy").Return(nil)
	f.services.On("RefreshServiceRating", mock.Anything, int64(2)).Return(nil)

	r, err := f.svc.CreateReview(context.Background(), customer, ReviewInput{BookingID: 5, Rating: 4, Feedback: " Quick and tidy "})
	require.NoError(t, err)
	assert.Equal(t, int64(11), r.ID)
	assert.Equal(t, []string{events.EventBookingFeedback}, f.publisher.types())
	f.reviews.AssertExpectations(t)
	f.bookings.AssertExpectations(t)
	f.services.AssertExpectations(t)
}

func TestReviewService_CreateReview_SecondReviewRejected(t *testing.T) {
	f := newReviewFixture()
	f.bookings.On("GetBooking", mock.Anything, int64(5)).Return(completedBooking(), nil)
	f.reviews.On("CreateReview", mock.Anything, mock.Anything).Return(domain.ErrConflict)

	_, err := f.svc.CreateReview(context.Background(), customer, ReviewInput{BookingID: 5, Rating: 4, Feedback: "Again"})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Review already exists for this booking", ve.Message)
	f.bookings.AssertNotCalled(t, "SetBookingFeedback", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewService_CreateReview_Rejections(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()

	_, err := f.svc.CreateReview(ctx, customer, ReviewInput{BookingID: 5, Rating: 4})
	assert.True(t, domain.IsValidation(err))

	_, err = f.svc.CreateReview(ctx, customer, ReviewInput{BookingID: 5, Rating: 9, Feedback: "x"})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Rating must be between 1 and 5", ve.Message)

	f.bookings.On("GetBooking", mock.Anything, int64(5)).Return(bookingIn(models.StatusConfirmed), nil)
	_, err = f.svc.CreateReview(ctx, customer, ReviewInput{BookingID: 5, Rating: 4, Feedback: "ok"})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "You can only review completed bookings", ve.Message)

	_, err = f.svc.CreateReview(ctx, stranger, ReviewInput{BookingID: 5, Rating: 4, Feedback: "ok"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.CreateReview(ctx, nil, ReviewInput{BookingID: 5, Rating: 4, Feedback: "ok"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestReviewService_Reply(t *testing.T) {
	f := newReviewFixture()
	f.reviews.On("GetReview", mock.Anything, int64(11)).Return(&models.Review{ID: 11, BookingID: 5}, nil)
	f.reviews.On("SetReviewReply", mock.Anything, int64(11), mock.MatchedBy(func(r models.AdminReply) bool {
		return r.Text == "Thank you!" && *r.RepliedBy == staff.UserID && r.RepliedAt.Equal(f.now)
	})).Return(nil)
	f.bookings.On("SetBookingAdminReply", mock.Anything, int64(5), "Thank you!", f.now).Return(nil)

	r, err := f.svc.Reply(context.Background(), staff, 11, ReplyInput{Text: " Thank you! "})
	require.NoError(t, err)
	require.NotNil(t, r.AdminReply)
	assert.Equal(t, "Thank you!", r.AdminReply.Text)
	f.bookings.AssertExpectations(t)

	_, err = f.svc.Reply(context.Background(), staff, 11, ReplyInput{Text: "  "})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Reply text is required", ve.Message)
}

func TestReviewService_SetFlags(t *testing.T) {
	f := newReviewFixture()
	no := false
	f.reviews.On("SetReviewFlags", mock.Anything, int64(11), &no, (*bool)(nil)).Return(nil)
	f.reviews.On("GetReview", mock.Anything, int64(11)).Return(&models.Review{ID: 11, BookingID: 5}, nil)
	f.bookings.On("GetBooking", mock.Anything, int64(5)).Return(completedBooking(), nil)
	f.services.On("RefreshServiceRating", mock.Anything, int64(2)).Return(nil)

	_, err := f.svc.SetFlags(context.Background(), staff, 11, ReviewFlagsInput{IsApproved: &no})
	require.NoError(t, err)
	f.services.AssertExpectations(t)

	_, err = f.svc.SetFlags(context.Background(), staff, 11, ReviewFlagsInput{})
	assert.True(t, domain.IsValidation(err))

	_, err = f.svc.SetFlags(context.Background(), customer, 11, ReviewFlagsInput{IsApproved: &no})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestReviewService_Listings(t *testing.T) {
	f := newReviewFixture()
	f.reviews.On("HomepageReviews", mock.Anything, models.DefaultHomepageReviews).Return(nil, nil)
	home, err := f.svc.HomepageReviews(context.Background(), 0)
	require.NoError(t, err)
	assert.NotNil(t, home)

	f.reviews.On("ListReviews", mock.Anything, models.ReviewFilterPending, 2, 5).Return([]*models.Review{{ID: 1}}, 6, nil)
	list, page, err := f.svc.ListReviews(context.Background(), staff, "pending", 2, 5)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 2, page.Pages)

	_, _, err = f.svc.ListReviews(context.Background(), staff, "hidden", 1, 5)
	assert.True(t, domain.IsValidation(err))
}

func TestReviewService_DeleteReview(t *testing.T) {
	f := newReviewFixture()
	f.reviews.On("GetReview", mock.Anything, int64(11)).Return(&models.Review{ID: 11, BookingID: 5}, nil)
	f.reviews.On("DeleteReview", mock.Anything, int64(11)).Return(nil)
	f.bookings.On("GetBooking", mock.Anything, int64(5)).Return(nil, domain.ErrNotFound)

	require.NoError(t, f.svc.DeleteReview(context.Background(), staff, 11))
	f.reviews.AssertExpectations(t)
	f.services.AssertNotCalled(t, "RefreshServiceRating", mock.Anything, mock.Anything)
}
