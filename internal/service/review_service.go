package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"homeservices/internal/auth"
	"homeservices/internal/domain"
	"homeservices/internal/events"
	"homeservices/internal/logging"
	"homeservices/internal/models"

	"github.com/rs/zerolog"
)

type ReviewInput struct {
	BookingID int64  `json:"bookingId"`
	Rating    int    `json:"rating"`
	Feedback  string `json:"feedback" validate:"max=1000"`
}

type ReviewFlagsInput struct {
	IsApproved            *bool `json:"isApproved"`
	IsDisplayedOnHomepage *bool `json:"isDisplayedOnHomepage"`
}

type ReplyInput struct {
	Text string `json:"replyText" validate:"max=500"`
}

type ReviewService struct {
	reviews  domain.ReviewRepository
	bookings domain.BookingRepository
	services domain.ServiceRepository
	events   domain.EventPublisher
	now      func() time.Time
	logger   *zerolog.Logger
}

func NewReviewService(reviews domain.ReviewRepository, bookings domain.BookingRepository, services domain.ServiceRepository,
	eventBus domain.EventPublisher, logger *zerolog.Logger) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		bookings: bookings,
		services: services,
		events:   eventBus,
		now:      time.Now,
		logger:   logging.Component(logger, "review_service"),
	}
}

// CreateReview records the owner's review of a completed booking. The booking id is
// unique in the reviews table, so a booking can be reviewed once even if the review
// is later unapproved.
func (s *ReviewService) CreateReview(ctx context.Context, actor *auth.Principal, in ReviewInput) (*models.Review, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	in.Feedback = strings.TrimSpace(in.Feedback)
	if in.BookingID <= 0 || in.Rating == 0 || in.Feedback == "" {
		return nil, domain.NewValidationError("Booking ID, rating, and feedback are required", "bookingId", "rating", "feedback")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, domain.NewValidationError("Rating must be between 1 and 5", "rating")
	}
	if err := validateInput("Validation error", in); err != nil {
		return nil, err
	}

	booking, err := s.bookings.GetBooking(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}
	if !booking.IsOwnedBy(actor.UserID) {
		return nil, domain.WithReason(domain.ErrForbidden, "You can only review your own bookings")
	}
	if booking.Status != models.StatusCompleted {
		return nil, domain.NewValidationError("You can only review completed bookings", "bookingId")
	}

	review := &models.Review{
		BookingID:             booking.ID,
		UserID:                actor.UserID,
		CustomerName:          booking.Name,
		ServiceCategory:       models.DefaultCategory,
		Rating:                in.Rating,
		Feedback:              in.Feedback,
		IsApproved:            true,
		IsDisplayedOnHomepage: true,
	}
	if len(booking.Services) > 0 {
		review.ServiceName = booking.Services[0].ServiceName
		review.ServiceCategory = booking.Services[0].Category
	}

	if err := s.reviews.CreateReview(ctx, review); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.NewValidationError("Review already exists for this booking", "bookingId")
		}
		return nil, err
	}

	if err := s.bookings.SetBookingFeedback(ctx, booking.ID, in.Rating, in.Feedback); err != nil {
		s.logger.Warn().Err(err).Int64("booking_id", booking.ID).Msg("failed to copy review onto booking")
	}
	s.refreshRatings(ctx, booking)

	if s.events != nil {
		payload := events.BookingEventPayload{
			BookingID:    booking.ID,
			BookingCode:  booking.BookingCode,
			UserID:       booking.UserID,
			CustomerName: booking.Name,
			Status:       string(booking.Status),
			Date:         booking.Date,
			ChangedBy:    "customer",
			ChangedByID:  actor.UserID,
		}
		if err := s.events.PublishJSON(events.EventBookingFeedback, payload); err != nil {
			s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("publish event error")
		}
	}

	s.logger.Info().Int64("review_id", review.ID).Int64("booking_id", booking.ID).Int("rating", review.Rating).Msg("review created")
	return review, nil
}

// HomepageReviews returns approved reviews flagged for the homepage.
func (s *ReviewService) HomepageReviews(ctx context.Context, limit int) ([]*models.Review, error) {
	_, limit = models.NormalizePage(1, limit, models.DefaultHomepageReviews)
	reviews, err := s.reviews.HomepageReviews(ctx, limit)
	if err != nil {
		return nil, err
	}
	return nonNilReviews(reviews), nil
}

func (s *ReviewService) ListReviews(ctx context.Context, actor *auth.Principal, status string, page, limit int) ([]*models.Review, models.Pagination, error) {
	if err := requireStaff(actor); err != nil {
		return nil, models.Pagination{}, err
	}
	if status == "" {
		status = models.ReviewFilterAll
	}
	if status != models.ReviewFilterAll && status != models.ReviewFilterApproved && status != models.ReviewFilterPending {
		return nil, models.Pagination{}, domain.NewValidationError("Status must be one of all, approved, pending", "status")
	}
	page, limit = models.NormalizePage(page, limit, models.DefaultPageSize)

	reviews, total, err := s.reviews.ListReviews(ctx, status, page, limit)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return nonNilReviews(reviews), models.NewPagination(page, limit, total), nil
}

// SetFlags toggles approval and homepage display independently.
func (s *ReviewService) SetFlags(ctx context.Context, actor *auth.Principal, id int64, in ReviewFlagsInput) (*models.Review, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if in.IsApproved == nil && in.IsDisplayedOnHomepage == nil {
		return nil, domain.NewValidationError("Nothing to update", "isApproved", "isDisplayedOnHomepage")
	}
	if err := s.reviews.SetReviewFlags(ctx, id, in.IsApproved, in.IsDisplayedOnHomepage); err != nil {
		return nil, err
	}

	review, err := s.reviews.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.IsApproved != nil {
		if booking, err := s.bookings.GetBooking(ctx, review.BookingID); err == nil {
			s.refreshRatings(ctx, booking)
		}
	}
	return review, nil
}

// Reply sets or overwrites the staff reply and mirrors it onto the booking.
func (s *ReviewService) Reply(ctx context.Context, actor *auth.Principal, id int64, in ReplyInput) (*models.Review, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	in.Text = strings.TrimSpace(in.Text)
	if in.Text == "" {
		return nil, domain.NewValidationError("Reply text is required", "replyText")
	}
	if err := validateInput("Validation error", in); err != nil {
		return nil, err
	}

	review, err := s.reviews.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}

	at := s.now()
	by := actor.UserID
	reply := models.AdminReply{Text: in.Text, RepliedBy: &by, RepliedAt: &at}
	if err := s.reviews.SetReviewReply(ctx, id, reply); err != nil {
		return nil, err
	}
	if err := s.bookings.SetBookingAdminReply(ctx, review.BookingID, in.Text, at); err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.logger.Warn().Err(err).Int64("booking_id", review.BookingID).Msg("failed to mirror reply onto booking")
	}

	review.AdminReply = &reply
	return review, nil
}

func (s *ReviewService) DeleteReview(ctx context.Context, actor *auth.Principal, id int64) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	review, err := s.reviews.GetReview(ctx, id)
	if err != nil {
		return err
	}
	if err := s.reviews.DeleteReview(ctx, id); err != nil {
		return err
	}
	if booking, err := s.bookings.GetBooking(ctx, review.BookingID); err == nil {
		s.refreshRatings(ctx, booking)
	}
	s.logger.Info().Int64("review_id", id).Msg("review deleted")
	return nil
}

func (s *ReviewService) refreshRatings(ctx context.Context, booking *models.Booking) {
	for _, id := range booking.ServiceIDs() {
		if err := s.services.RefreshServiceRating(ctx, id); err != nil {
			s.logger.Warn().Err(err).Int64("service_id", id).Msg("failed to refresh service rating")
		}
	}
}

func nonNilReviews(r []*models.Review) []*models.Review {
	if r == nil {
		return []*models.Review{}
	}
	return r
}
