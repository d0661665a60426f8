package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"homeservices/internal/domain"
	"homeservices/internal/models"
	"homeservices/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jinzhu/now"
	"github.com/rs/zerolog"
)

const (
	listLimit   = 20
	statsPeriod = 7
)

const helpText = `Staff console commands:
/today - bookings scheduled for today
/tomorrow - bookings scheduled for tomorrow
/pending - bookings waiting for confirmation
/booking <code> - booking details
/status <code> <status> - change a booking status
/stats - last 7 days at a glance`

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	args := strings.Fields(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		b.reply(chatID, helpText)
	case "today":
		day := now.With(b.now()).BeginningOfDay()
		b.listBookings(ctx, chatID, "Today", models.BookingFilter{DateFrom: &day, DateTo: &day, SortBy: "date", SortOrder: "asc"})
	case "tomorrow":
		day := now.With(b.now()).BeginningOfDay().AddDate(0, 0, 1)
		b.listBookings(ctx, chatID, "Tomorrow", models.BookingFilter{DateFrom: &day, DateTo: &day, SortBy: "date", SortOrder: "asc"})
	case "pending":
		b.listBookings(ctx, chatID, "Pending", models.BookingFilter{Status: models.StatusPending, SortBy: "createdAt", SortOrder: "asc"})
	case "booking":
		if len(args) != 1 {
			b.reply(chatID, "Usage: /booking <code>")
			return
		}
		booking, err := b.bookings.GetBooking(ctx, b.actor, args[0])
		if err != nil {
			b.replyError(ctx, chatID, err)
			return
		}
		b.reply(chatID, formatBooking(booking))
	case "status":
		b.changeStatus(ctx, chatID, args)
	case "stats":
		stats, err := b.stats.DashboardStats(ctx, b.actor, statsPeriod)
		if err != nil {
			b.replyError(ctx, chatID, err)
			return
		}
		b.reply(chatID, formatStats(stats))
	default:
		b.reply(chatID, "Unknown command.\n\n"+helpText)
	}
}

func (b *Bot) listBookings(ctx context.Context, chatID int64, title string, filter models.BookingFilter) {
	filter.Limit = listLimit
	bookings, page, err := b.bookings.ListBookings(ctx, b.actor, filter)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	if len(bookings) == 0 {
		b.reply(chatID, title+": no bookings.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d booking(s)\n\n", title, page.Total)
	for _, bk := range bookings {
		sb.WriteString(formatBookingLine(bk))
		sb.WriteByte('\n')
	}
	if page.Total > len(bookings) {
		fmt.Fprintf(&sb, "\n...and %d more in the admin panel.", page.Total-len(bookings))
	}
	b.reply(chatID, sb.String())
}

func (b *Bot) changeStatus(ctx context.Context, chatID int64, args []string) {
	if len(args) != 2 {
		b.reply(chatID, "Usage: /status <code> <"+strings.Join(models.StatusLabels(), "|")+">")
		return
	}
	booking, err := b.bookings.GetBooking(ctx, b.actor, args[0])
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}

	updated, err := b.bookings.UpdateStatus(ctx, b.actor, booking.ID, service.StatusInput{Status: args[1]})
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	zerolog.Ctx(ctx).Info().Str("booking", updated.BookingCode).Str("status", string(updated.Status)).Msg("status changed from console")
	b.reply(chatID, fmt.Sprintf("%s is now %s.", updated.BookingCode, updated.Status))
}

// replyError shows validation and lookup failures verbatim and hides everything else.
func (b *Bot) replyError(ctx context.Context, chatID int64, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		b.reply(chatID, ve.Message)
	case errors.Is(err, domain.ErrNotFound):
		b.reply(chatID, "Booking not found.")
	case errors.Is(err, domain.ErrConflict):
		b.reply(chatID, "The booking changed meanwhile. Check it and try again.")
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrUnauthorized):
		b.reply(chatID, "The console account is not allowed to do that.")
	default:
		zerolog.Ctx(ctx).Error().Err(err).Msg("console command failed")
		b.reply(chatID, "Something went wrong. Please try again.")
	}
}

func formatBookingLine(bk *models.Booking) string {
	return fmt.Sprintf("%s | %s %s | %s | %s | %s",
		bk.BookingCode, bk.Date.Format("02 Jan"), bk.Time, bk.Status, bk.Name, strings.Join(bk.ServiceNames(), ", "))
}

func formatBooking(bk *models.Booking) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Booking %s\n", bk.BookingCode)
	fmt.Fprintf(&sb, "Status: %s\n", bk.Status)
	fmt.Fprintf(&sb, "Customer: %s, %s, %s\n", bk.Name, bk.Phone, bk.Email)
	fmt.Fprintf(&sb, "When: %s %s\n", bk.Date.Format("Mon 02 Jan 2006"), bk.Time)
	fmt.Fprintf(&sb, "Address: %s\n", bk.Address.String())
	fmt.Fprintf(&sb, "Services: %s\n", strings.Join(bk.ServiceNames(), ", "))
	if bk.WorkDescription != "" {
		fmt.Fprintf(&sb, "Notes: %s\n", bk.WorkDescription)
	}
	if bk.Technician != nil {
		fmt.Fprintf(&sb, "Technician: %s (%s)\n", bk.Technician.Name, bk.Technician.Phone)
	}
	if bk.ActualCost != nil {
		fmt.Fprintf(&sb, "Charged: %.0f\n", *bk.ActualCost)
	}
	fmt.Fprintf(&sb, "Created: %s", bk.CreatedAt.Format(time.DateTime))
	return sb.String()
}

func formatStats(s *models.DashboardStats) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Last %d days\n", s.PeriodStats.Period)
	fmt.Fprintf(&sb, "New bookings: %d\nNew customers: %d\nRevenue: %.0f\n\n",
		s.PeriodStats.NewBookings, s.PeriodStats.NewUsers, s.PeriodStats.Revenue)
	c := s.BookingStatus
	fmt.Fprintf(&sb, "All bookings: %d\nPending %d, Confirmed %d, InProgress %d, Completed %d, Cancelled %d",
		c.Total(), c.Pending, c.Confirmed, c.InProgress, c.Completed, c.Cancelled)
	return sb.String()
}
