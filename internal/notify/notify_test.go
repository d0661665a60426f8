package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"homeservices/internal/config"
	"homeservices/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testBooking() *models.Booking {
	return &models.Booking{
		ID:          1,
		BookingCode: "AX-20250314-K7QZ",
		Name:        "Asha Kumar",
		Email:       "asha@example.com",
		Phone:       "+919812345678",
		Address:     models.Address{Street: "12 Main Rd", City: "Chennai", State: "TN", Pincode: "600001"},
		Services: []models.LineItem{
			{ServiceName: "AC Repair", Category: "AC Services"},
			{ServiceName: "Gas Refill", Category: "AC Services"},
		},
		Date:   time.Date(2025, 3, 14, 0, 0, 0, 0, time.Local),
		Time:   "10:30",
		Status: models.StatusPending,
	}
}

// providers fakes the three HTTP providers behind one server.
type providers struct {
	emails   int32
	sms      int32
	whatsapp int32
	failSMS  bool
	delay    time.Duration
	lastSMS  atomic.Value
}

func (p *providers) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /emails", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		var body emailPayload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "bookings@axteam.com", body.From)
		assert.NotEmpty(t, body.HTML)
		atomic.AddInt32(&p.emails, 1)
		_, _ = io.WriteString(w, `{"id":"em_123"}`)
	})
	mux.HandleFunc("POST /2010-04-01/Accounts/AC42/Messages.json", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC42", user)
		assert.Equal(t, "secret", pass)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "+15005550006", r.PostForm.Get("From"))
		p.lastSMS.Store(r.PostForm.Get("Body"))
		atomic.AddInt32(&p.sms, 1)
		if p.failSMS {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"code":21211,"message":"invalid To number"}`)
			return
		}
		_, _ = io.WriteString(w, `{"sid":"SM123"}`)
	})
	mux.HandleFunc("POST /PN1/messages", func(w http.ResponseWriter, r *http.Request) {
		if p.delay > 0 {
			select {
			case <-time.After(p.delay):
			case <-r.Context().Done():
				return
			}
		}
		assert.Equal(t, "Bearer wa_token", r.Header.Get("Authorization"))
		var body whatsAppPayload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "whatsapp", body.MessagingProduct)
		assert.False(t, strings.HasPrefix(body.To, "+"))
		atomic.AddInt32(&p.whatsapp, 1)
		_, _ = io.WriteString(w, `{"messages":[{"id":"wamid.1"}]}`)
	})
	return mux
}

func testConfig(baseURL string) config.NotificationConfig {
	return config.NotificationConfig{
		Timeout:        2 * time.Second,
		Brand:          "AX TEAM",
		SupportContact: "+919876543210",
		Staff:          config.StaffContacts{Email: "ops@axteam.com", Phone: "+919800000001", WhatsApp: "+919800000002"},
		Email:          config.EmailConfig{APIKey: "re_test", BaseURL: baseURL, From: "bookings@axteam.com"},
		SMS:            config.SMSConfig{AccountSID: "AC42", AuthToken: "secret", From: "+15005550006", BaseURL: baseURL},
		WhatsApp:       config.WhatsAppConfig{AccessToken: "wa_token", PhoneNumberID: "PN1", BaseURL: baseURL},
	}
}

func newTestDispatcher(t *testing.T, p *providers, mutate func(*config.NotificationConfig)) *Dispatcher {
	srv := httptest.NewServer(p.handler(t))
	t.Cleanup(srv.Close)
	cfg := testConfig(srv.URL)
	if mutate != nil {
		mutate(&cfg)
	}
	logger := zerolog.New(io.Discard)
	return New(cfg, nil, &logger)
}

func TestNotifyCustomerCreated(t *testing.T) {
	p := &providers{}
	d := newTestDispatcher(t, p, nil)

	results := d.NotifyCustomerCreated(context.Background(), testBooking())
	require.Len(t, results, 3)
	for _, r := range results {
		assert.True(t, r.Success, "channel %s: %s", r.Channel, r.Error)
		assert.NoError(t, r.Err())
	}
	assert.Equal(t, "wamid.1", results[0].MessageID)
	assert.Equal(t, "em_123", results[1].MessageID)
	assert.Equal(t, "SM123", results[2].MessageID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&p.emails))
	assert.Equal(t, int32(1), atomic.LoadInt32(&p.sms))
	assert.Equal(t, int32(1), atomic.LoadInt32(&p.whatsapp))
}

func TestFailingChannelDoesNotBlockOthers(t *testing.T) {
	p := &providers{failSMS: true}
	d := newTestDispatcher(t, p, nil)

	results := d.NotifyCustomerStatusChanged(context.Background(), testBooking(), models.StatusPending)
	require.Len(t, results, 3)

	byChannel := map[Channel]Result{}
	for _, r := range results {
		byChannel[r.Channel] = r
	}
	assert.True(t, byChannel[ChannelEmail].Success)
	assert.True(t, byChannel[ChannelWhatsApp].Success)

	sms := byChannel[ChannelSMS]
	assert.False(t, sms.Success)
	assert.False(t, sms.Disabled)
	assert.Contains(t, sms.Error, "status 400")
	assert.Error(t, sms.Err())
}

func TestDisabledChannels(t *testing.T) {
	logger := zerolog.New(io.Discard)
	d := New(config.NotificationConfig{Timeout: time.Second}, nil, &logger)

	results := d.NotifyStaffCreated(context.Background(), testBooking())
	require.Len(t, results, 3, "telegram is absent without a bot")
	for _, r := range results {
		assert.True(t, r.Disabled)
		assert.False(t, r.Success)
		assert.Empty(t, r.Error)
		assert.NoError(t, r.Err())
	}
	assert.False(t, d.Enabled(ChannelEmail))
}

func TestStaffChannelWithoutRecipientIsSkipped(t *testing.T) {
	p := &providers{}
	d := newTestDispatcher(t, p, func(c *config.NotificationConfig) { c.Staff.Phone = "" })

	results := d.NotifyStaffCreated(context.Background(), testBooking())
	require.Len(t, results, 3)
	assert.True(t, results[0].Success)
	assert.True(t, results[1].Success)
	assert.True(t, results[2].Disabled)
	assert.Zero(t, atomic.LoadInt32(&p.sms))
}

func TestNotifyTimeout(t *testing.T) {
	p := &providers{delay: time.Second}
	d := newTestDispatcher(t, p, func(c *config.NotificationConfig) { c.Timeout = 50 * time.Millisecond })

	start := time.Now()
	res := d.Notify(context.Background(), ChannelWhatsApp, Message{To: "+919812345678", Text: "hi"})
	assert.Less(t, time.Since(start), 900*time.Millisecond)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

type mockBot struct {
	mock.Mock
}

func (m *mockBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

func TestTelegramStaffAlert(t *testing.T) {
	bot := new(mockBot)
	bot.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		msg, ok := c.(tgbotapi.MessageConfig)
		return ok && msg.ChatID == -100500 && strings.Contains(msg.Text, "AX-20250314-K7QZ")
	})).Return(tgbotapi.Message{MessageID: 77}, nil).Once()

	logger := zerolog.New(io.Discard)
	cfg := config.NotificationConfig{Timeout: time.Second, Telegram: config.TelegramConfig{ChatID: -100500}}
	d := New(cfg, bot, &logger)

	results := d.NotifyStaffCreated(context.Background(), testBooking())
	require.Len(t, results, 4)
	tg := results[3]
	assert.Equal(t, ChannelTelegram, tg.Channel)
	assert.True(t, tg.Success)
	assert.Equal(t, "77", tg.MessageID)
	bot.AssertExpectations(t)
}

func TestTelegramFailure(t *testing.T) {
	bot := new(mockBot)
	bot.On("Send", mock.Anything).Return(tgbotapi.Message{}, errors.New("chat not found"))

	s := NewTelegramSender(bot, 1)
	_, err := s.Send(context.Background(), Message{Text: "x"})
	assert.EqualError(t, err, "chat not found")

	logger := zerolog.New(io.Discard)
	d := NewDispatcher(config.NotificationConfig{}, []Sender{s}, &logger)
	res := d.Notify(context.Background(), ChannelTelegram, Message{Text: "x"})
	assert.False(t, res.Success)
	assert.Equal(t, "chat not found", res.Error)
}

func TestJobNames(t *testing.T) {
	logger := zerolog.Nop()
	d := New(testConfig("http://unused"), nil, &logger)
	b := testBooking()

	var names []string
	for _, j := range append(d.CustomerCreatedJobs(b), d.StaffCreatedJobs(b)...) {
		names = append(names, j.Name)
	}
	assert.Equal(t, []string{
		"whatsapp_customer", "email_customer", "sms_customer",
		"whatsapp_staff", "email_staff", "sms_staff",
	}, names)
}
