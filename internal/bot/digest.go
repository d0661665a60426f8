package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"homeservices/internal/models"

	"github.com/jinzhu/now"
)

const defaultDigestHour = 19

// StartDigest posts tomorrow's open bookings to the staff chat once a day.
func (b *Bot) StartDigest(ctx context.Context) {
	if b == nil || b.client == nil || b.cfg.ChatID == 0 {
		return
	}

	hour, minute, err := parseDigestTime(b.cfg.DigestTime)
	if err != nil {
		b.logger.Error().Err(err).Str("digest_time", b.cfg.DigestTime).Msg("invalid digest time; digest disabled")
		return
	}

	go func() {
		timer := time.NewTimer(untilNext(b.now(), hour, minute))
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				b.sendDigest(ctx)
				timer.Reset(untilNext(b.now(), hour, minute))
			}
		}
	}()
}

func (b *Bot) sendDigest(ctx context.Context) {
	day := now.With(b.now()).BeginningOfDay().AddDate(0, 0, 1)
	bookings, _, err := b.bookings.ListBookings(ctx, b.actor, models.BookingFilter{
		DateFrom: &day, DateTo: &day, SortBy: "date", SortOrder: "asc", Limit: models.MaxPageSize,
	})
	if err != nil {
		b.logger.Error().Err(err).Time("day", day).Msg("digest: list bookings failed")
		return
	}

	var open []*models.Booking
	for _, bk := range bookings {
		if !bk.Status.IsTerminal() {
			open = append(open, bk)
		}
	}
	b.reply(b.cfg.ChatID, formatDigest(day, open))
}

func formatDigest(day time.Time, bookings []*models.Booking) string {
	if len(bookings) == 0 {
		return fmt.Sprintf("No open bookings for %s.", day.Format("Mon 02 Jan"))
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d open booking(s) for %s\n\n", len(bookings), day.Format("Mon 02 Jan"))
	for _, bk := range bookings {
		sb.WriteString(formatBookingLine(bk))
		if bk.Technician == nil {
			sb.WriteString(" | no technician")
		}
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}

func parseDigestTime(raw string) (int, int, error) {
	if raw == "" {
		return defaultDigestHour, 0, nil
	}
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, 0, fmt.Errorf("digest time must be HH:MM: %w", err)
	}
	return t.Hour(), t.Minute(), nil
}

func untilNext(from time.Time, hour, minute int) time.Duration {
	next := time.Date(from.Year(), from.Month(), from.Day(), hour, minute, 0, 0, from.Location())
	if !next.After(from) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(from)
}
