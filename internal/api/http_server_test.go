package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"homeservices/internal/auth"
	"homeservices/internal/config"
	"homeservices/internal/database"
	"homeservices/internal/effects"
	"homeservices/internal/export"
	"homeservices/internal/models"
	"homeservices/internal/notify"
	"homeservices/internal/repository"
	"homeservices/internal/service"
	"homeservices/internal/storage"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin-secret"
)

type testEnv struct {
	db     *database.DB
	server *httptest.Server
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
}

func newTestEnv(t *testing.T, mutate func(*config.APIConfig)) *testEnv {
	t.Helper()
	logger := zerolog.Nop()

	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.APIConfig{
		Auth: config.APIAuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour, LoginAttempts: 5, LoginWindow: time.Minute},
	}
	if mutate != nil {
		mutate(&cfg)
	}

	cache := repository.NewMemoryCache()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, "homeservices")
	dispatcher := notify.New(config.NotificationConfig{Timeout: time.Second}, nil, &logger)
	runner := effects.NewRunner(false, &logger)
	app := config.AppConfig{Name: "homeservices", Environment: "test", Version: "test"}

	svc := Services{
		Users:    service.NewUserService(db, tokens, cache, cfg.Auth, &logger),
		Bookings: service.NewBookingService(db, db, dispatcher, nil, nil, runner, time.Second, &logger),
		Catalog:  service.NewCatalogService(db, db, cache, nil, time.Minute, &logger),
		Reviews:  service.NewReviewService(db, db, db, nil, &logger),
		Admin:    service.NewAdminService(db, db, db, cache, time.Minute, app, &logger),
		Support:  service.NewSupportService(db, &logger),
		Gallery:  service.NewGalleryService(db, storage.NewDiskStore(t.TempDir(), "/media"), &logger),
	}

	created, err := svc.Users.EnsureAdmin(context.Background(), config.AdminConfig{Email: adminEmail, Password: adminPassword})
	require.NoError(t, err)
	require.True(t, created)

	srv := NewHTTPServer(cfg, svc, tokens, db, HTTPOptions{App: app}, &logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &testEnv{db: db, server: ts}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*http.Response, apiResponse) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.send(t, req)
}

func (e *testEnv) send(t *testing.T, req *http.Request) (*http.Response, apiResponse) {
	t.Helper()
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out apiResponse
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func decodeData(t *testing.T, res apiResponse, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(res.Data, dest), string(res.Data))
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	resp, res := e.do(t, http.MethodPost, "/api/auth/admin-login", "", map[string]string{
		"email": adminEmail, "password": adminPassword,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, res.Message)
	var out service.AuthResult
	decodeData(t, res, &out)
	return out.Token
}

func (e *testEnv) register(t *testing.T, email, phone string) (string, *models.User) {
	t.Helper()
	resp, res := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Asha Rao", "email": email, "phone": phone, "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, res.Message)
	assert.Equal(t, "User registered successfully", res.Message)
	var out service.AuthResult
	decodeData(t, res, &out)
	require.NotEmpty(t, out.Token)
	return out.Token, out.User
}

func (e *testEnv) addService(t *testing.T, adminToken string) *models.Service {
	t.Helper()
	resp, res := e.do(t, http.MethodPost, "/api/services", adminToken, map[string]any{
		"name":        "AC Repair",
		"category":    "AC Services",
		"description": "Gas top-up, cleaning and cooling checks",
		"priceRange":  map[string]any{"min": 499, "max": 1499},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, res.Message)
	var out struct {
		Service models.Service `json:"service"`
	}
	decodeData(t, res, &out)
	return &out.Service
}

func bookingBody(serviceID int64) map[string]any {
	return map[string]any{
		"name":     "Asha Rao",
		"email":    "asha@example.com",
		"phone":    "+91 98765 43210",
		"address":  map[string]string{"street": "12 MG Road", "city": "Pune", "state": "MH", "pincode": "411001"},
		"services": []map[string]any{{"serviceId": serviceID}},
		"date":     time.Now().AddDate(0, 0, 1).Format(models.DateLayout),
		"time":     "10:30 AM",
	}
}

func (e *testEnv) createBooking(t *testing.T, token string, serviceID int64) *models.Booking {
	t.Helper()
	resp, res := e.do(t, http.MethodPost, "/api/bookings", token, bookingBody(serviceID))
	require.Equal(t, http.StatusCreated, resp.StatusCode, res.Message)
	var out struct {
		Booking models.Booking `json:"booking"`
	}
	decodeData(t, res, &out)
	return &out.Booking
}

func TestBookingLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.adminToken(t)
	svc := env.addService(t, admin)
	customerToken, _ := env.register(t, "asha@example.com", "+91 98765 43210")

	t.Run("create is pending and bumps the service counter", func(t *testing.T) {
		booking := env.createBooking(t, customerToken, svc.ID)
		assert.Equal(t, models.StatusPending, booking.Status)
		assert.Regexp(t, `^AX-\d{8}-[A-Z2-9]{4}$`, booking.BookingCode)
		require.Len(t, booking.Services, 1)
		assert.Equal(t, "AC Repair", booking.Services[0].ServiceName)
		assert.Equal(t, "AC Services", booking.Services[0].Category)

		stored, err := env.db.GetService(context.Background(), svc.ID)
		require.NoError(t, err)
		assert.Equal(t, svc.TotalBookings+1, stored.TotalBookings)

		resp, res := env.do(t, http.MethodGet, "/api/bookings/"+booking.BookingCode, customerToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, res.Message)
	})

	t.Run("completing twice keeps the first completion stamp", func(t *testing.T) {
		booking := env.createBooking(t, customerToken, svc.ID)
		path := fmt.Sprintf("/api/bookings/%d/status", booking.ID)

		resp, res := env.do(t, http.MethodPatch, path, admin, map[string]any{"status": "Completed", "actualCost": 999})
		require.Equal(t, http.StatusOK, resp.StatusCode, res.Message)
		var first struct {
			Booking models.Booking `json:"booking"`
		}
		decodeData(t, res, &first)
		require.NotNil(t, first.Booking.CompletedAt)

		time.Sleep(10 * time.Millisecond)
		resp, res = env.do(t, http.MethodPatch, path, admin, map[string]any{"status": "Completed"})
		require.Equal(t, http.StatusOK, resp.StatusCode, res.Message)
		var second struct {
			Booking models.Booking `json:"booking"`
		}
		decodeData(t, res, &second)
		require.NotNil(t, second.Booking.CompletedAt)
		assert.True(t, first.Booking.CompletedAt.Equal(*second.Booking.CompletedAt))

		resp, res = env.do(t, http.MethodPatch, path, admin, map[string]any{"status": "Pending"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, res.Message, "Cannot change status")
	})

	t.Run("owner cannot delete a completed booking", func(t *testing.T) {
		booking := env.createBooking(t, customerToken, svc.ID)
		resp, _ := env.do(t, http.MethodPatch, fmt.Sprintf("/api/bookings/%d/status", booking.ID), admin,
			map[string]any{"status": "Completed"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, res := env.do(t, http.MethodDelete, fmt.Sprintf("/api/bookings/%d", booking.ID), customerToken, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.False(t, res.Success)
		assert.Equal(t, "Only pending or cancelled bookings can be deleted", res.Message)
	})

	t.Run("owner deletes a pending booking", func(t *testing.T) {
		booking := env.createBooking(t, customerToken, svc.ID)
		resp, res := env.do(t, http.MethodDelete, fmt.Sprintf("/api/bookings/%d", booking.ID), customerToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, res.Message)
		assert.Equal(t, "Booking deleted successfully", res.Message)

		resp, _ = env.do(t, http.MethodGet, "/api/bookings/"+booking.BookingCode, customerToken, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("other customers cannot read the booking", func(t *testing.T) {
		booking := env.createBooking(t, customerToken, svc.ID)
		other, _ := env.register(t, "ravi@example.com", "+91 91234 56789")
		resp, _ := env.do(t, http.MethodGet, "/api/bookings/"+booking.BookingCode, other, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("staff listing filters by status", func(t *testing.T) {
		resp, res := env.do(t, http.MethodGet, "/api/bookings?status=Completed", admin, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, res.Message)
		var out struct {
			Bookings   []models.Booking  `json:"bookings"`
			Pagination models.Pagination `json:"pagination"`
		}
		decodeData(t, res, &out)
		assert.Equal(t, 2, out.Pagination.Total)
		for _, b := range out.Bookings {
			assert.Equal(t, models.StatusCompleted, b.Status)
		}

		resp, _ = env.do(t, http.MethodGet, "/api/bookings?dateFrom=19-10-2026", admin, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestBookingByServiceName(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.adminToken(t)
	svc := env.addService(t, admin)
	customerToken, _ := env.register(t, "asha@example.com", "+91 98765 43210")

	body := bookingBody(0)
	body["services"] = []map[string]any{{"serviceName": "AC Repair", "category": "AC Services"}}
	body["date"] = time.Now().AddDate(0, 0, 3).Format(models.DateLayout)
	body["time"] = "10:00"

	resp, res := env.do(t, http.MethodPost, "/api/bookings", customerToken, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, res.Message)
	var out struct {
		Booking models.Booking `json:"booking"`
	}
	decodeData(t, res, &out)
	assert.Equal(t, models.StatusPending, out.Booking.Status)
	assert.Regexp(t, `^AX-\d{8}-[A-Z2-9]{4}$`, out.Booking.BookingCode)
	require.Len(t, out.Booking.Services, 1)
	require.NotNil(t, out.Booking.Services[0].ServiceID)
	assert.Equal(t, svc.ID, *out.Booking.Services[0].ServiceID)

	stored, err := env.db.GetService(context.Background(), svc.ID)
	require.NoError(t, err)
	assert.Equal(t, svc.TotalBookings+1, stored.TotalBookings)

	resp, res = env.do(t, http.MethodDelete, fmt.Sprintf("/api/services/%d", svc.ID), admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, res.Message, "Cannot delete service with active bookings")
}

func TestBookingValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.adminToken(t)
	svc := env.addService(t, admin)
	token, _ := env.register(t, "asha@example.com", "+91 98765 43210")

	tests := []struct {
		name    string
		mutate  func(map[string]any)
		message string
	}{
		{"missing phone", func(b map[string]any) { delete(b, "phone") }, "Please provide all required fields"},
		{"past date", func(b map[string]any) { b["date"] = "2020-01-01" }, "Service date cannot be in the past"},
		{"incomplete address", func(b map[string]any) { b["address"] = map[string]string{"city": "Pune"} },
			"Complete address is required (street, city, pincode)"},
		{"bad slot", func(b map[string]any) { b["time"] = "soon" }, "Validation error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := bookingBody(svc.ID)
			tt.mutate(body)
			resp, res := env.do(t, http.MethodPost, "/api/bookings", token, body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.message, res.Message)
		})
	}

	t.Run("malformed json", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/bookings", bytes.NewBufferString("{"))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, res := env.send(t, req)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Invalid JSON body", res.Message)
	})
}

func TestAuthGuard(t *testing.T) {
	env := newTestEnv(t, nil)
	customerToken, user := env.register(t, "asha@example.com", "+91 98765 43210")

	t.Run("missing token", func(t *testing.T) {
		resp, res := env.do(t, http.MethodGet, "/api/auth/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "No token provided, access denied", res.Message)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, env.server.URL+"/api/auth/me", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Token "+customerToken)
		resp, res := env.send(t, req)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Invalid token format. Use Bearer token", res.Message)
	})

	t.Run("garbage token", func(t *testing.T) {
		resp, res := env.do(t, http.MethodGet, "/api/auth/me", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Token is not valid", res.Message)
	})

	t.Run("expired token", func(t *testing.T) {
		stale := auth.NewTokenManager("test-secret", -time.Minute, "homeservices")
		token, err := stale.Issue(user)
		require.NoError(t, err)
		resp, res := env.do(t, http.MethodGet, "/api/auth/me", token, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Token has expired", res.Message)
	})

	t.Run("customer on a staff route", func(t *testing.T) {
		resp, res := env.do(t, http.MethodGet, "/api/admin/stats", customerToken, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "Admin access required", res.Message)
	})

	t.Run("me returns the account without the hash", func(t *testing.T) {
		resp, res := env.do(t, http.MethodGet, "/api/auth/me", customerToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotContains(t, string(res.Data), "password")
		var out struct {
			User models.User `json:"user"`
		}
		decodeData(t, res, &out)
		assert.Equal(t, "asha@example.com", out.User.Email)
	})

	t.Run("deactivated account", func(t *testing.T) {
		admin := env.adminToken(t)
		resp, res := env.do(t, http.MethodPatch, fmt.Sprintf("/api/admin/users/%d/status", user.ID), admin,
			map[string]any{"isActive": false})
		require.Equal(t, http.StatusOK, resp.StatusCode, res.Message)
		assert.Equal(t, "User deactivated successfully", res.Message)

		resp, res = env.do(t, http.MethodGet, "/api/auth/me", customerToken, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Account is deactivated", res.Message)
	})
}

func TestLoginAndConflicts(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register(t, "asha@example.com", "+91 98765 43210")

	resp, res := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Asha", "email": "ASHA@example.com", "phone": "+91 90000 00000", "password": "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, res.Success)

	resp, res = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "asha@example.com", "password": "wrong-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid credentials", res.Message)

	resp, res = env.do(t, http.MethodPost, "/api/auth/admin-login", "", map[string]string{
		"email": "asha@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Not authorized", res.Message)

	resp, res = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "asha@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, res.Message)
}

func TestCatalogRoutes(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.adminToken(t)
	svc := env.addService(t, admin)

	resp, res := env.do(t, http.MethodPost, "/api/services", admin, map[string]any{
		"name": "ac repair", "category": "AC Services", "description": "Another description here",
		"priceRange": map[string]any{"min": 100, "max": 200},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, res.Message)

	resp, res = env.do(t, http.MethodGet, fmt.Sprintf("/api/services/%d", svc.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, res.Message)

	resp, _ = env.do(t, http.MethodGet, "/api/services/99999", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/services/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, res = env.do(t, http.MethodGet, "/api/services/search?q=repair", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, res.Message)
	var found struct {
		Services []models.Service `json:"services"`
		Count    int              `json:"count"`
	}
	decodeData(t, res, &found)
	assert.Equal(t, 1, found.Count)

	resp, res = env.do(t, http.MethodDelete, fmt.Sprintf("/api/services/%d", svc.ID), admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, res.Message)
	assert.Equal(t, "Service deleted successfully", res.Message)
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, res := env.do(t, http.MethodGet, "/api/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Route not found", res.Message)
}

func TestSupportRoutes(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.adminToken(t)

	resp, res := env.do(t, http.MethodPost, "/api/support", "", map[string]string{
		"name": "Asha", "email": "asha@example.com", "subject": "Leaking tap", "message": "The kitchen tap drips",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, res.Message)
	var created struct {
		Request models.SupportRequest `json:"request"`
	}
	decodeData(t, res, &created)

	resp, res = env.do(t, http.MethodPatch, fmt.Sprintf("/api/support/%d", created.Request.ID), admin,
		map[string]string{"status": "Resolved"})
	require.Equal(t, http.StatusOK, resp.StatusCode, res.Message)

	resp, _ = env.do(t, http.MethodGet, "/api/support", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminRoutes(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.adminToken(t)
	svc := env.addService(t, admin)
	customerToken, user := env.register(t, "asha@example.com", "+91 98765 43210")
	env.createBooking(t, customerToken, svc.ID)

	t.Run("stats", func(t *testing.T) {
		resp, res := env.do(t, http.MethodGet, "/api/admin/stats?period=7", admin, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, res.Message)
		var stats models.DashboardStats
		decodeData(t, res, &stats)
		assert.Equal(t, 1, stats.Overview.TotalBookings)
		assert.Equal(t, 1, stats.Overview.TotalUsers)
		assert.Equal(t, 7, stats.PeriodStats.Period)
	})

	t.Run("system health", func(t *testing.T) {
		resp, res := env.do(t, http.MethodGet, "/api/admin/system-health", admin, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, res.Message)
		var health service.SystemHealth
		decodeData(t, res, &health)
		assert.Equal(t, "healthy", health.Status)
		assert.Equal(t, "connected", health.Database.Status)
	})

	t.Run("export", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodGet, "/api/admin/export/bookings", admin, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, export.ContentType, resp.Header.Get("Content-Type"))
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment; filename=")
	})

	t.Run("export accepts a query token", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, env.server.URL+"/api/admin/export/bookings?token="+admin, nil)
		require.NoError(t, err)
		resp, _ := env.send(t, req)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("query token is refused elsewhere", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, env.server.URL+"/api/admin/stats?token="+admin, nil)
		require.NoError(t, err)
		resp, res := env.send(t, req)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "No token provided, access denied", res.Message)
	})

	t.Run("status toggle needs a boolean", func(t *testing.T) {
		resp, res := env.do(t, http.MethodPatch, fmt.Sprintf("/api/admin/users/%d/status", user.ID), admin, map[string]any{})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "isActive must be a boolean value", res.Message)
	})

	t.Run("delete user cascades bookings", func(t *testing.T) {
		resp, res := env.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", user.ID), admin, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, res.Message)
		var out struct {
			DeletedBookings int `json:"deletedBookings"`
		}
		decodeData(t, res, &out)
		assert.Equal(t, 1, out.DeletedBookings)
	})
}

func TestGalleryUpload(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.adminToken(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "Split AC install"))
	require.NoError(t, mw.WriteField("category", "AC"))
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="ac.JPG"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte("fake-jpeg-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/gallery", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+admin)

	resp, res := env.send(t, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode, res.Message)
	var out struct {
		Item models.GalleryItem `json:"item"`
	}
	decodeData(t, res, &out)
	assert.Equal(t, models.MediaImage, out.Item.MediaType)
	assert.Equal(t, models.DefaultGallerySection, out.Item.Section)
	assert.Regexp(t, `^/media/gallery/\d{4}/\d{2}/.+\.jpg$`, out.Item.URL)

	resp, res = env.do(t, http.MethodGet, "/api/gallery", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Items []models.GalleryItem `json:"items"`
	}
	decodeData(t, res, &list)
	assert.Len(t, list.Items, 1)

	resp, _ = env.do(t, http.MethodDelete, fmt.Sprintf("/api/gallery/%d", out.Item.ID), admin, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, err := env.server.Client().Get(env.server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}
