package bot

import (
	"context"
	"strconv"
	"time"

	"homeservices/internal/auth"
	"homeservices/internal/config"
	"homeservices/internal/domain"
	"homeservices/internal/logging"
	"homeservices/internal/metrics"
	"homeservices/internal/models"
	"homeservices/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	updateTimeout = 30 * time.Second

	// strangers get a few "staff only" replies per window, then silence
	strangerReplies = 3
	strangerWindow  = 10 * time.Minute
)

// Client is the part of the Telegram API the console uses.
type Client interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	StopReceivingUpdates()
}

type BookingConsole interface {
	GetBooking(ctx context.Context, actor *auth.Principal, ref string) (*models.Booking, error)
	ListBookings(ctx context.Context, actor *auth.Principal, filter models.BookingFilter) ([]*models.Booking, models.Pagination, error)
	UpdateStatus(ctx context.Context, actor *auth.Principal, id int64, in service.StatusInput) (*models.Booking, error)
}

type StatsConsole interface {
	DashboardStats(ctx context.Context, actor *auth.Principal, periodDays int) (*models.DashboardStats, error)
}

// Bot is the staff command console. Every command runs as actor, so the usual
// service rules and notifications apply exactly as for the admin panel.
type Bot struct {
	client   Client
	cfg      config.TelegramConfig
	bookings BookingConsole
	stats    StatsConsole
	cache    domain.Cache
	actor    *auth.Principal
	managers map[int64]bool
	now      func() time.Time
	logger   *zerolog.Logger
}

// New builds the console. cache may be nil, which disables the stranger throttle.
func New(client Client, cfg config.TelegramConfig, bookings BookingConsole, stats StatsConsole,
	cache domain.Cache, actor *auth.Principal, logger *zerolog.Logger) *Bot {
	managers := make(map[int64]bool, len(cfg.ManagerIDs))
	for _, id := range cfg.ManagerIDs {
		managers[id] = true
	}
	return &Bot{
		client:   client,
		cfg:      cfg,
		bookings: bookings,
		stats:    stats,
		cache:    cache,
		actor:    actor,
		managers: managers,
		now:      time.Now,
		logger:   logging.Component(logger, "telegram_console"),
	}
}

// Start consumes updates until ctx ends or the update channel closes.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.client.GetUpdatesChan(u)

	b.logger.Info().Int("managers", len(b.managers)).Msg("staff console started")
	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("staff console stopping")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.processUpdate(ctx, update)
		}
	}
}

// Stop stops receiving Telegram updates (best-effort).
func (b *Bot) Stop() {
	if b == nil || b.client == nil {
		return
	}
	b.client.StopReceivingUpdates()
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	command := msg.Command()
	if command == "" {
		command = "text"
	}
	start := time.Now()
	defer func() { metrics.ObserveBotUpdate(command, time.Since(start)) }()

	updateCtx, cancel := context.WithTimeout(ctx, updateTimeout)
	defer cancel()
	l := b.logger.With().
		Str("request_id", uuid.NewString()).
		Int64("telegram_id", msg.From.ID).
		Str("command", command).
		Logger()
	updateCtx = l.WithContext(updateCtx)

	b.withRecovery(msg.Chat.ID, func() {
		if !b.managers[msg.From.ID] {
			b.rejectStranger(updateCtx, msg)
			return
		}
		b.handleCommand(updateCtx, msg)
	})
}

func (b *Bot) withRecovery(chatID int64, handler func()) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().Interface("panic", r).Msg("recovered from panic in update handler")
			b.reply(chatID, "Something went wrong. Please try again.")
		}
	}()
	handler()
}

func (b *Bot) rejectStranger(ctx context.Context, msg *tgbotapi.Message) {
	zerolog.Ctx(ctx).Warn().Str("username", msg.From.UserName).Msg("console used by non-manager")
	if b.cache != nil {
		allowed, err := b.cache.CheckRateLimit(ctx, "tg:"+strconv.FormatInt(msg.From.ID, 10), strangerReplies, strangerWindow)
		if err == nil && !allowed {
			return
		}
	}
	b.reply(msg.Chat.ID, "This bot is for staff only.")
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.client.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send reply")
	}
}
