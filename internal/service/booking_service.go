package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"homeservices/internal/auth"
	"homeservices/internal/domain"
	"homeservices/internal/effects"
	"homeservices/internal/events"
	"homeservices/internal/logging"
	"homeservices/internal/metrics"
	"homeservices/internal/models"
	"homeservices/internal/notify"
	"homeservices/internal/worker"

	"github.com/jinzhu/now"
	"github.com/rs/zerolog"
)

// bookingCodeAlphabet omits 0/O and 1/I so codes survive being read aloud.
const bookingCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const statusUpdateAttempts = 3

// Notifier renders and delivers booking notifications one job at a time.
type Notifier interface {
	CustomerCreatedJobs(b *models.Booking) []notify.Job
	StaffCreatedJobs(b *models.Booking) []notify.Job
	StatusChangedJobs(b *models.Booking, old models.BookingStatus) []notify.Job
	Deliver(ctx context.Context, job notify.Job) notify.Result
}

type AddressInput struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode" validate:"pincode"`
}

type LineItemInput struct {
	ServiceID      *int64 `json:"serviceId"`
	ServiceName    string `json:"serviceName"`
	Category       string `json:"category"`
	EstimatedPrice string `json:"estimatedPrice"`
}

type CreateBookingInput struct {
	Name            string           `json:"name" validate:"min=2,max=50"`
	Email           string           `json:"email" validate:"mail"`
	Phone           string           `json:"phone" validate:"phone"`
	Address         *AddressInput    `json:"address"`
	Location        *models.Location `json:"location"`
	Services        []LineItemInput  `json:"services"`
	Date            string           `json:"date"`
	Time            string           `json:"time" validate:"slot"`
	WorkDescription string           `json:"workDescription" validate:"max=1000"`
}

type StatusInput struct {
	Status          string   `json:"status"`
	TechnicianNotes *string  `json:"technicianNotes" validate:"omitempty,max=500"`
	AdminNotes      *string  `json:"adminNotes" validate:"omitempty,max=500"`
	EstimatedCost   *float64 `json:"estimatedCost" validate:"omitempty,gte=0"`
	ActualCost      *float64 `json:"actualCost" validate:"omitempty,gte=0"`
}

type TechnicianInput struct {
	Name  string `json:"technicianName" validate:"required,max=100"`
	Phone string `json:"technicianPhone" validate:"required,phone"`
	Email string `json:"technicianEmail" validate:"omitempty,mail"`
}

type FeedbackInput struct {
	Rating   int    `json:"rating" validate:"min=1,max=5"`
	Feedback string `json:"feedback" validate:"max=500"`
}

type BookingService struct {
	bookings domain.BookingRepository
	services domain.ServiceRepository
	notifier Notifier
	events   domain.EventPublisher
	syncer   domain.SyncWorker
	runner   *effects.Runner
	timeout  time.Duration
	now      func() time.Time
	logger   *zerolog.Logger
}

// NewBookingService wires the lifecycle. eventBus and syncer may be nil.
func NewBookingService(
	bookings domain.BookingRepository,
	services domain.ServiceRepository,
	notifier Notifier,
	eventBus domain.EventPublisher,
	syncer domain.SyncWorker,
	runner *effects.Runner,
	effectTimeout time.Duration,
	logger *zerolog.Logger,
) *BookingService {
	return &BookingService{
		bookings: bookings,
		services: services,
		notifier: notifier,
		events:   eventBus,
		syncer:   syncer,
		runner:   runner,
		timeout:  effectTimeout,
		now:      time.Now,
		logger:   logging.Component(logger, "booking_service"),
	}
}

// CreateBooking validates, persists a Pending booking and schedules the post-commit
// notifications and catalog counter updates. Effect failures never fail the call.
func (s *BookingService) CreateBooking(ctx context.Context, actor *auth.Principal, in CreateBookingInput) (*models.Booking, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}

	if missing := missingBookingFields(in); len(missing) > 0 {
		return nil, domain.NewValidationError("Please provide all required fields", missing...)
	}
	if in.Address.Street == "" || in.Address.City == "" || in.Address.Pincode == "" {
		return nil, domain.NewValidationError("Complete address is required (street, city, pincode)", "address")
	}
	if err := validateInput("Validation error", in); err != nil {
		return nil, err
	}

	date, err := parseBookingDate(in.Date)
	if err != nil {
		return nil, domain.NewValidationError("Invalid service date", "date")
	}
	if date.Before(now.With(s.now()).BeginningOfDay()) {
		return nil, domain.NewValidationError("Service date cannot be in the past", "date")
	}

	items, err := s.normalizeLineItems(ctx, in.Services)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		UserID:          actor.UserID,
		Name:            strings.TrimSpace(in.Name),
		Email:           strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:           strings.TrimSpace(in.Phone),
		Address:         models.Address{Street: in.Address.Street, City: in.Address.City, State: in.Address.State, Pincode: in.Address.Pincode},
		Location:        in.Location,
		Services:        items,
		Date:            date,
		Time:            in.Time,
		WorkDescription: in.WorkDescription,
		Status:          models.StatusPending,
	}
	if booking.Location != nil && booking.Location.CapturedAt == nil {
		at := s.now()
		booking.Location.CapturedAt = &at
	}

	if err := s.persistWithCode(ctx, booking); err != nil {
		return nil, err
	}

	metrics.IncBookingCreated()
	s.logger.Info().Str("booking", booking.BookingCode).Int64("user_id", booking.UserID).Msg("booking created")
	s.publishEvent(events.EventBookingCreated, booking, "", "customer", actor.UserID)
	s.enqueueSync(ctx, worker.TaskUpsert, booking)

	s.runCreatedEffects(ctx, booking)
	return booking, nil
}

func missingBookingFields(in CreateBookingInput) []string {
	var missing []string
	check := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	check("name", in.Name)
	check("email", in.Email)
	check("phone", in.Phone)
	if in.Address == nil {
		missing = append(missing, "address")
	}
	if len(in.Services) == 0 {
		missing = append(missing, "services")
	}
	check("date", in.Date)
	check("time", in.Time)
	return missing
}

// parseBookingDate takes the calendar day of either a plain date or an RFC 3339 timestamp.
func parseBookingDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) > len(models.DateLayout) {
		raw = raw[:len(models.DateLayout)]
	}
	return time.ParseInLocation(models.DateLayout, raw, time.Local)
}

// normalizeLineItems snapshots each requested service. A line item links to the catalog
// by id, or by case-insensitive name when no id is given. Catalog data fills only the
// fields the client left empty; an unknown catalog id is dropped from the snapshot.
func (s *BookingService) normalizeLineItems(ctx context.Context, in []LineItemInput) ([]models.LineItem, error) {
	items := make([]models.LineItem, 0, len(in))
	for i, raw := range in {
		item := models.LineItem{
			ServiceName:    strings.TrimSpace(raw.ServiceName),
			Category:       strings.TrimSpace(raw.Category),
			EstimatedPrice: strings.TrimSpace(raw.EstimatedPrice),
		}

		svc, err := s.catalogEntry(ctx, raw.ServiceID, item.ServiceName)
		if err != nil {
			return nil, err
		}
		if svc != nil {
			id := svc.ID
			item.ServiceID = &id
			if item.ServiceName == "" {
				item.ServiceName = svc.Name
			}
			if item.Category == "" {
				item.Category = svc.Category
			}
			if item.EstimatedPrice == "" {
				item.EstimatedPrice = formatPriceRange(svc.PriceRange)
			}
		}

		if item.ServiceName == "" {
			return nil, domain.NewValidationError("Service name is required", fmt.Sprintf("services[%d].serviceName", i))
		}
		if item.Category == "" {
			item.Category = models.DefaultCategory
		}
		items = append(items, item)
	}
	return items, nil
}

// catalogEntry returns nil without error when nothing in the catalog matches.
func (s *BookingService) catalogEntry(ctx context.Context, id *int64, name string) (*models.Service, error) {
	var (
		svc *models.Service
		err error
	)
	switch {
	case id != nil:
		svc, err = s.services.GetService(ctx, *id)
	case name != "":
		svc, err = s.services.GetServiceByName(ctx, name)
	default:
		return nil, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		if id != nil {
			s.logger.Warn().Int64("service_id", *id).Msg("line item references unknown service")
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func formatPriceRange(p models.PriceRange) string {
	currency := p.Currency
	if currency == "" {
		currency = models.DefaultCurrency
	}
	if p.Min == p.Max {
		return fmt.Sprintf("%s %.0f", currency, p.Min)
	}
	return fmt.Sprintf("%s %.0f - %.0f", currency, p.Min, p.Max)
}

// persistWithCode retries code generation on a uniqueness collision.
func (s *BookingService) persistWithCode(ctx context.Context, booking *models.Booking) error {
	var lastErr error
	for attempt := 1; attempt <= models.BookingCodeMaxAttempts; attempt++ {
		code, err := GenerateBookingCode(s.now())
		if err != nil {
			return err
		}
		booking.BookingCode = code

		err = s.bookings.CreateBooking(ctx, booking)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return err
		}
		lastErr = err
		s.logger.Warn().Str("code", code).Int("attempt", attempt).Msg("booking code collision")
	}
	return fmt.Errorf("failed to generate unique booking code after %d attempts: %w", models.BookingCodeMaxAttempts, lastErr)
}

// GenerateBookingCode returns AX-YYYYMMDD-XXXX with a random suffix.
func GenerateBookingCode(at time.Time) (string, error) {
	suffix := make([]byte, models.BookingCodeSuffixLength)
	radix := big.NewInt(int64(len(bookingCodeAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, radix)
		if err != nil {
			return "", fmt.Errorf("failed to generate booking code: %w", err)
		}
		suffix[i] = bookingCodeAlphabet[n.Int64()]
	}
	return fmt.Sprintf("AX-%s-%s", at.Format("20060102"), suffix), nil
}

func (s *BookingService) runCreatedEffects(ctx context.Context, booking *models.Booking) {
	snapshot := *booking
	list := effects.NewList(s.timeout)
	sent := newDeliveryLog()

	customer := s.notifier.CustomerCreatedJobs(&snapshot)
	staff := s.notifier.StaffCreatedJobs(&snapshot)
	for _, job := range append(append([]notify.Job{}, customer...), staff...) {
		s.addDelivery(list, job, sent)
	}
	serviceIDs := snapshot.ServiceIDs()
	for _, id := range serviceIDs {
		id := id
		list.Add(fmt.Sprintf("increment_service_%d", id), func(ctx context.Context) error {
			return s.services.IncrementServiceBookings(ctx, id)
		})
	}

	s.runner.Run(ctx, "booking created effects", list, func(ctx context.Context, _ effects.Report) {
		s.markNotified(ctx, snapshot.ID, models.NotificationFlags{
			CustomerNotified: sent.any(customer),
			AdminNotified:    sent.any(staff),
		})
		// counters have moved, so cached popularity listings are stale only from here on
		s.publishCatalogBooked(serviceIDs)
	})
}

func (s *BookingService) runStatusEffects(ctx context.Context, booking *models.Booking, old models.BookingStatus) {
	snapshot := *booking
	list := effects.NewList(s.timeout)
	sent := newDeliveryLog()
	jobs := s.notifier.StatusChangedJobs(&snapshot, old)
	for _, job := range jobs {
		s.addDelivery(list, job, sent)
	}

	s.runner.Run(ctx, "booking status effects", list, func(ctx context.Context, _ effects.Report) {
		flags := snapshot.Notifications
		flags.CustomerNotified = sent.any(jobs)
		s.markNotified(ctx, snapshot.ID, flags)
	})
}

func (s *BookingService) addDelivery(list *effects.List, job notify.Job, sent *deliveryLog) {
	list.Add(job.Name, func(ctx context.Context) error {
		res := s.notifier.Deliver(ctx, job)
		if res.Success {
			sent.record(job.Name)
		}
		return res.Err()
	})
}

// deliveryLog collects the jobs that reached a recipient. Disabled channels never do.
type deliveryLog struct {
	mu   sync.Mutex
	sent map[string]bool
}

func newDeliveryLog() *deliveryLog {
	return &deliveryLog{sent: make(map[string]bool)}
}

func (d *deliveryLog) record(name string) {
	d.mu.Lock()
	d.sent[name] = true
	d.mu.Unlock()
}

func (d *deliveryLog) any(jobs []notify.Job) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, j := range jobs {
		if d.sent[j.Name] {
			return true
		}
	}
	return false
}

func (s *BookingService) markNotified(ctx context.Context, id int64, flags models.NotificationFlags) {
	if !flags.CustomerNotified && !flags.AdminNotified {
		return
	}
	at := s.now()
	flags.LastNotificationSent = &at
	if err := s.bookings.MarkNotified(ctx, id, flags); err != nil {
		s.logger.Warn().Err(err).Int64("booking_id", id).Msg("failed to record notification flags")
	}
}

// GetBooking resolves a numeric id or a booking code.
func (s *BookingService) GetBooking(ctx context.Context, actor *auth.Principal, ref string) (*models.Booking, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	booking, err := s.lookup(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && !booking.IsOwnedBy(actor.UserID) {
		return nil, domain.ErrForbidden
	}
	return booking, nil
}

func (s *BookingService) lookup(ctx context.Context, ref string) (*models.Booking, error) {
	ref = strings.TrimSpace(ref)
	if id, err := parseID(ref); err == nil {
		return s.bookings.GetBooking(ctx, id)
	}
	if strings.HasPrefix(strings.ToUpper(ref), "AX-") {
		return s.bookings.GetBookingByCode(ctx, strings.ToUpper(ref))
	}
	return nil, domain.NewValidationError("Invalid booking id", "id")
}

// ListUserBookings returns one customer's bookings; customers may only list their own.
func (s *BookingService) ListUserBookings(ctx context.Context, actor *auth.Principal, userID int64, filter models.BookingFilter) ([]*models.Booking, models.Pagination, error) {
	if actor == nil {
		return nil, models.Pagination{}, domain.ErrUnauthorized
	}
	if !actor.IsStaff() && actor.UserID != userID {
		return nil, models.Pagination{}, domain.ErrForbidden
	}
	filter.UserID = &userID
	filter.Page, filter.Limit = models.NormalizePage(filter.Page, filter.Limit, models.DefaultPageSize)
	return s.list(ctx, filter)
}

// ListBookings is the staff view over every booking.
func (s *BookingService) ListBookings(ctx context.Context, actor *auth.Principal, filter models.BookingFilter) ([]*models.Booking, models.Pagination, error) {
	if err := requireStaff(actor); err != nil {
		return nil, models.Pagination{}, err
	}
	filter.Page, filter.Limit = models.NormalizePage(filter.Page, filter.Limit, models.DefaultAdminPageSize)
	return s.list(ctx, filter)
}

func (s *BookingService) list(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, models.Pagination, error) {
	if filter.Status != "" {
		if _, ok := models.ParseBookingStatus(string(filter.Status)); !ok {
			return nil, models.Pagination{}, invalidStatusError()
		}
	}
	bookings, total, err := s.bookings.ListBookings(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	return bookings, models.NewPagination(filter.Page, filter.Limit, total), nil
}

func invalidStatusError() error {
	return domain.NewValidationError("Valid status is required. Allowed values: "+strings.Join(models.StatusLabels(), ", "), "status")
}

// UpdateStatus applies a staff transition. completed_at is stamped on the first entry
// into Completed only; customers are notified when the status actually changes.
func (s *BookingService) UpdateStatus(ctx context.Context, actor *auth.Principal, id int64, in StatusInput) (*models.Booking, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	next, ok := models.ParseBookingStatus(in.Status)
	if !ok {
		return nil, invalidStatusError()
	}
	if err := validateInput("Validation error", in); err != nil {
		return nil, err
	}

	old, err := s.applyStatus(ctx, id, models.StatusUpdate{
		Status:          next,
		TechnicianNotes: in.TechnicianNotes,
		AdminNotes:      in.AdminNotes,
		EstimatedCost:   in.EstimatedCost,
		ActualCost:      in.ActualCost,
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if old != next {
		metrics.IncStatusTransition(string(old), string(next))
		s.logger.Info().Str("booking", updated.BookingCode).Str("from", string(old)).Str("to", string(next)).Msg("booking status changed")
		s.publishEvent(events.EventBookingStatusChanged, updated, old, "staff", actor.UserID)
		s.enqueueSync(ctx, worker.TaskUpdateStatus, updated)
		s.runStatusEffects(ctx, updated, old)
	}
	return updated, nil
}

// applyStatus checks the transition against the stored status and writes it only while
// that status is unchanged. A concurrent change is re-read and checked again.
func (s *BookingService) applyStatus(ctx context.Context, id int64, update models.StatusUpdate) (models.BookingStatus, error) {
	for attempt := 1; attempt <= statusUpdateAttempts; attempt++ {
		current, err := s.bookings.GetBooking(ctx, id)
		if err != nil {
			return "", err
		}
		old := current.Status
		if !old.CanTransitionTo(update.Status) {
			return "", domain.NewValidationError(fmt.Sprintf("Cannot change status of a %s booking to %s", old, update.Status), "status")
		}

		update.From = old
		err = s.bookings.UpdateBookingStatus(ctx, id, update, s.now())
		if err == nil {
			return old, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return "", err
		}
		s.logger.Warn().Int64("booking_id", id).Str("from", string(old)).Int("attempt", attempt).Msg("booking status changed concurrently")
	}
	return "", domain.WithReason(domain.ErrConflict, "Booking was updated by someone else, please reload and try again")
}

// AssignTechnician records the technician and forces Confirmed. The customer is
// notified like any other status change when the booking was not Confirmed before.
func (s *BookingService) AssignTechnician(ctx context.Context, actor *auth.Principal, id int64, in TechnicianInput) (*models.Booking, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	in.Name, in.Phone, in.Email = strings.TrimSpace(in.Name), strings.TrimSpace(in.Phone), strings.TrimSpace(in.Email)
	if in.Name == "" || in.Phone == "" {
		return nil, domain.NewValidationError("Technician name and phone are required", "name", "phone")
	}
	if err := validateInput("Validation error", in); err != nil {
		return nil, err
	}

	current, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	old := current.Status
	if old.IsTerminal() {
		return nil, domain.NewValidationError(fmt.Sprintf("Cannot assign a technician to a %s booking", old), "status")
	}

	at := s.now()
	by := actor.UserID
	tech := models.Technician{Name: in.Name, Phone: in.Phone, Email: strings.ToLower(in.Email), AssignedAt: &at, AssignedBy: &by}
	if err := s.bookings.AssignTechnician(ctx, id, tech); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.NewValidationError("Cannot assign a technician to a completed or cancelled booking", "status")
		}
		return nil, err
	}

	updated, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publishEvent(events.EventBookingTechnicianAssigned, updated, old, "staff", actor.UserID)
	s.enqueueSync(ctx, worker.TaskUpsert, updated)
	if old != models.StatusConfirmed {
		metrics.IncStatusTransition(string(old), string(models.StatusConfirmed))
		s.runStatusEffects(ctx, updated, old)
	}
	return updated, nil
}

// AddFeedback stores the owner's rating on a completed booking; a second call overwrites.
func (s *BookingService) AddFeedback(ctx context.Context, actor *auth.Principal, id int64, in FeedbackInput) (*models.Booking, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, domain.NewValidationError("Rating must be between 1 and 5", "rating")
	}
	in.Feedback = strings.TrimSpace(in.Feedback)
	if err := validateInput("Validation error", in); err != nil {
		return nil, err
	}

	booking, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.IsOwnedBy(actor.UserID) {
		return nil, domain.ErrForbidden
	}
	if booking.Status != models.StatusCompleted {
		return nil, domain.NewValidationError("Feedback can only be added to completed bookings", "status")
	}

	if err := s.bookings.SetBookingFeedback(ctx, id, in.Rating, in.Feedback); err != nil {
		return nil, err
	}
	updated, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publishEvent(events.EventBookingFeedback, updated, "", "customer", actor.UserID)
	return updated, nil
}

// DeleteBooking removes a Pending or Cancelled booking for its owner or staff.
func (s *BookingService) DeleteBooking(ctx context.Context, actor *auth.Principal, id int64) error {
	if actor == nil {
		return domain.ErrUnauthorized
	}
	booking, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsStaff() && !booking.IsOwnedBy(actor.UserID) {
		return domain.ErrForbidden
	}
	if !booking.Status.Deletable() {
		return domain.NewValidationError("Only pending or cancelled bookings can be deleted", "status")
	}

	if err := s.bookings.DeleteBooking(ctx, id); err != nil {
		return err
	}

	changedBy := "customer"
	if actor.IsStaff() {
		changedBy = "staff"
	}
	s.logger.Info().Str("booking", booking.BookingCode).Str("by", changedBy).Msg("booking deleted")
	s.publishEvent(events.EventBookingDeleted, booking, "", changedBy, actor.UserID)
	s.enqueueSync(ctx, worker.TaskDelete, booking)
	return nil
}

func (s *BookingService) publishCatalogBooked(serviceIDs []int64) {
	if s.events == nil {
		return
	}
	for _, id := range serviceIDs {
		if err := s.events.PublishJSON(events.EventCatalogChanged, catalogEvent{ServiceID: id, Action: "booked"}); err != nil {
			s.logger.Error().Err(err).Int64("service_id", id).Msg("publish event error")
		}
	}
}

func (s *BookingService) publishEvent(eventType string, b *models.Booking, previous models.BookingStatus, changedBy string, changedByID int64) {
	if s.events == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:      b.ID,
		BookingCode:    b.BookingCode,
		UserID:         b.UserID,
		CustomerName:   b.Name,
		Services:       b.ServiceNames(),
		Status:         string(b.Status),
		PreviousStatus: string(previous),
		Date:           b.Date,
		ChangedBy:      changedBy,
		ChangedByID:    changedByID,
	}

	if err := s.events.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", b.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueSync(ctx context.Context, taskType string, b *models.Booking) {
	if s.syncer == nil {
		return
	}

	var status string
	if taskType == worker.TaskUpdateStatus {
		status = string(b.Status)
	}
	snapshot := *b
	if err := s.syncer.EnqueueTask(ctx, taskType, b.ID, &snapshot, status); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", b.ID).Str("task", taskType).Msg("sheets enqueue error")
	}
}
