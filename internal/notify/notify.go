// Package notify delivers booking notifications over email, SMS, WhatsApp and Telegram.
// Delivery is best effort: every attempt yields a Result and never a panic or a
// returned error, and a channel without credentials reports itself as disabled.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"homeservices/internal/config"
	"homeservices/internal/domain"
	"homeservices/internal/logging"
	"homeservices/internal/metrics"
	"homeservices/internal/models"

	"github.com/rs/zerolog"
)

type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelTelegram Channel = "telegram"
)

// ErrNoRecipient is reported when a staff channel has no configured address.
var ErrNoRecipient = errors.New("no recipient configured")

// Message is a rendered notification. Subject and HTML are used by email only.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Result is the uniform outcome of one channel attempt.
type Result struct {
	Channel   Channel `json:"channel"`
	Success   bool    `json:"success"`
	Disabled  bool    `json:"disabled,omitempty"`
	MessageID string  `json:"messageId,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// Err converts a failed attempt into an error. Disabled channels are not failures.
func (r Result) Err() error {
	if r.Success || r.Disabled {
		return nil
	}
	return errors.New(string(r.Channel) + ": " + r.Error)
}

// Sender is one transport.
type Sender interface {
	Channel() Channel
	Enabled() bool
	Send(ctx context.Context, msg Message) (string, error)
}

// Job is a message bound to a channel, named for diagnostics.
type Job struct {
	Name    string
	Channel Channel
	Message Message
}

type Dispatcher struct {
	senders  map[Channel]Sender
	order    []Channel
	staff    config.StaffContacts
	telegram bool
	tpl      templates
	timeout  time.Duration
	logger   *zerolog.Logger
}

// New builds a dispatcher with the transports described by cfg. bot may be nil,
// in which case the Telegram channel is absent.
func New(cfg config.NotificationConfig, bot domain.TelegramSender, logger *zerolog.Logger) *Dispatcher {
	senders := []Sender{
		NewEmailSender(cfg.Email, cfg.Timeout),
		NewSMSSender(cfg.SMS, cfg.Timeout),
		NewWhatsAppSender(cfg.WhatsApp, cfg.Timeout),
	}
	if bot != nil && cfg.Telegram.ChatID != 0 {
		senders = append(senders, NewTelegramSender(bot, cfg.Telegram.ChatID))
	}
	return NewDispatcher(cfg, senders, logger)
}

func NewDispatcher(cfg config.NotificationConfig, senders []Sender, logger *zerolog.Logger) *Dispatcher {
	d := &Dispatcher{
		senders: make(map[Channel]Sender, len(senders)),
		staff:   cfg.Staff,
		tpl:     templates{brand: cfg.Brand, support: cfg.SupportContact},
		timeout: cfg.Timeout,
		logger:  logging.Component(logger, "notify"),
	}
	for _, s := range senders {
		d.senders[s.Channel()] = s
		d.order = append(d.order, s.Channel())
		if s.Channel() == ChannelTelegram {
			d.telegram = true
		}
	}
	if d.timeout <= 0 {
		d.timeout = 10 * time.Second
	}
	return d
}

// Enabled reports whether the channel has a transport with credentials.
func (d *Dispatcher) Enabled(ch Channel) bool {
	s, ok := d.senders[ch]
	return ok && s.Enabled()
}

// Notify sends one message on one channel within the dispatcher timeout.
func (d *Dispatcher) Notify(ctx context.Context, ch Channel, msg Message) Result {
	res := Result{Channel: ch}
	s, ok := d.senders[ch]
	if !ok || !s.Enabled() {
		res.Disabled = true
		metrics.IncNotification(string(ch), "disabled")
		d.logger.Debug().Str("channel", string(ch)).Msg("channel disabled, message skipped")
		return res
	}
	if msg.To == "" && ch != ChannelTelegram {
		res.Error = ErrNoRecipient.Error()
		metrics.IncNotification(string(ch), "failed")
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	id, err := s.Send(ctx, msg)
	if err != nil {
		res.Error = err.Error()
		metrics.IncNotification(string(ch), "failed")
		d.logger.Warn().Err(err).Str("channel", string(ch)).Str("to", msg.To).Msg("notification failed")
		return res
	}
	res.Success = true
	res.MessageID = id
	metrics.IncNotification(string(ch), "sent")
	d.logger.Info().Str("channel", string(ch)).Str("to", msg.To).Str("message_id", id).Msg("notification sent")
	return res
}

// Deliver sends a prepared job.
func (d *Dispatcher) Deliver(ctx context.Context, job Job) Result {
	if job.Message.To == "" && job.Channel != ChannelTelegram {
		return Result{Channel: job.Channel, Disabled: true}
	}
	return d.Notify(ctx, job.Channel, job.Message)
}

// CustomerCreatedJobs renders the booking confirmation for the customer on every channel.
func (d *Dispatcher) CustomerCreatedJobs(b *models.Booking) []Job {
	return []Job{
		{Name: "whatsapp_customer", Channel: ChannelWhatsApp, Message: d.tpl.customerCreatedText(b, b.Phone)},
		{Name: "email_customer", Channel: ChannelEmail, Message: d.tpl.customerCreatedEmail(b)},
		{Name: "sms_customer", Channel: ChannelSMS, Message: d.tpl.customerCreatedSMS(b)},
	}
}

// StaffCreatedJobs renders the new-booking alert for staff. A staff channel without a
// configured address is skipped by Deliver.
func (d *Dispatcher) StaffCreatedJobs(b *models.Booking) []Job {
	jobs := []Job{
		{Name: "whatsapp_staff", Channel: ChannelWhatsApp, Message: d.tpl.staffAlertText(b, d.staff.WhatsApp)},
		{Name: "email_staff", Channel: ChannelEmail, Message: d.tpl.staffAlertEmail(b, d.staff.Email)},
		{Name: "sms_staff", Channel: ChannelSMS, Message: d.tpl.staffAlertSMS(b, d.staff.Phone)},
	}
	if d.telegram {
		jobs = append(jobs, Job{Name: "telegram_staff", Channel: ChannelTelegram, Message: d.tpl.staffAlertText(b, "")})
	}
	return jobs
}

// StatusChangedJobs renders the status update for the customer.
func (d *Dispatcher) StatusChangedJobs(b *models.Booking, old models.BookingStatus) []Job {
	return []Job{
		{Name: "email_customer_status", Channel: ChannelEmail, Message: d.tpl.statusEmail(b, old)},
		{Name: "sms_customer_status", Channel: ChannelSMS, Message: d.tpl.statusSMS(b)},
		{Name: "whatsapp_customer_status", Channel: ChannelWhatsApp, Message: d.tpl.statusText(b, b.Phone)},
	}
}

func (d *Dispatcher) NotifyCustomerCreated(ctx context.Context, b *models.Booking) []Result {
	return d.deliverAll(ctx, d.CustomerCreatedJobs(b))
}

func (d *Dispatcher) NotifyStaffCreated(ctx context.Context, b *models.Booking) []Result {
	return d.deliverAll(ctx, d.StaffCreatedJobs(b))
}

func (d *Dispatcher) NotifyCustomerStatusChanged(ctx context.Context, b *models.Booking, old models.BookingStatus) []Result {
	return d.deliverAll(ctx, d.StatusChangedJobs(b, old))
}

// deliverAll attempts every job concurrently; results keep job order.
func (d *Dispatcher) deliverAll(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))
	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func(i int, job Job) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i] = Result{Channel: job.Channel, Error: "panic during delivery"}
					d.logger.Error().Interface("panic", r).Str("job", job.Name).Msg("notification panic")
				}
			}()
			results[i] = d.Deliver(ctx, job)
		}(i, job)
	}
	wg.Wait()
	return results
}
