package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"homeservices/internal/auth"
	"homeservices/internal/config"
	"homeservices/internal/models"
	"homeservices/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// TokenVerifier turns a bearer token into the claims it was issued with.
type TokenVerifier interface {
	Verify(token string) (*auth.Principal, error)
}

// AccountLookup reloads the account behind a token.
type AccountLookup interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// Services groups the operations the HTTP API exposes.
type Services struct {
	Users    *service.UserService
	Bookings *service.BookingService
	Catalog  *service.CatalogService
	Reviews  *service.ReviewService
	Admin    *service.AdminService
	Support  *service.SupportService
	Gallery  *service.GalleryService
}

type HTTPOptions struct {
	App config.AppConfig
	// MediaRoot serves locally stored gallery uploads under /media/ when set.
	MediaRoot string
}

// HTTPServer is the JSON API under /api.
type HTTPServer struct {
	cfg      config.APIConfig
	app      config.AppConfig
	svc      Services
	tokens   TokenVerifier
	accounts AccountLookup
	limiter  *rateLimiter
	log      *zerolog.Logger
	server   *http.Server
}

func NewHTTPServer(cfg config.APIConfig, svc Services, tokens TokenVerifier, accounts AccountLookup,
	opts HTTPOptions, logger *zerolog.Logger) *HTTPServer {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "http").Logger()
	}
	srv := &HTTPServer{
		cfg:      cfg,
		app:      opts.App,
		svc:      svc,
		tokens:   tokens,
		accounts: accounts,
		limiter:  newRateLimiter(cfg.RateLimit),
		log:      &l,
	}

	mux := http.NewServeMux()
	srv.routes(mux)
	if opts.MediaRoot != "" {
		mux.Handle("GET /media/", http.StripPrefix("/media/", http.FileServer(http.Dir(opts.MediaRoot))))
	}

	var handler http.Handler = mux
	handler = srv.rateLimit(handler)
	handler = cors(cfg.CORS.AllowedOrigins)(handler)
	handler = recoverer(handler)
	handler = accessLog()(handler)
	handler = requestID(handler)
	handler = hlog.NewHandler(l)(handler)

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}
	return srv
}

func (s *HTTPServer) routes(mux *http.ServeMux) {
	handle := func(pattern string, level access, h http.HandlerFunc) {
		mux.HandleFunc(pattern, s.guard(level, h))
	}

	handle("GET /healthz", public, s.handleHealthz)

	handle("POST /api/auth/register", public, s.handleRegister)
	handle("POST /api/auth/login", public, s.handleLogin)
	handle("POST /api/auth/admin-login", public, s.handleAdminLogin)
	handle("GET /api/auth/me", authenticated, s.handleMe)
	handle("GET /api/auth/profile", authenticated, s.handleMe)
	handle("PUT /api/auth/profile", authenticated, s.handleUpdateProfile)
	handle("PUT /api/auth/change-password", authenticated, s.handleChangePassword)

	handle("POST /api/bookings", authenticated, s.handleCreateBooking)
	handle("GET /api/bookings", staffOnly, s.handleListBookings)
	handle("GET /api/bookings/user/{userId}", authenticated, s.handleUserBookings)
	handle("GET /api/bookings/{id}", authenticated, s.handleGetBooking)
	handle("PATCH /api/bookings/{id}/status", staffOnly, s.handleUpdateStatus)
	handle("PATCH /api/bookings/{id}/feedback", authenticated, s.handleFeedback)
	handle("DELETE /api/bookings/{id}", authenticated, s.handleDeleteBooking)

	handle("GET /api/services", public, s.handleListServices)
	handle("GET /api/services/popular", public, s.handlePopularServices)
	handle("GET /api/services/search", public, s.handleSearchServices)
	handle("GET /api/services/category/{category}", public, s.handleServicesByCategory)
	handle("GET /api/services/{id}", public, s.handleGetService)
	handle("POST /api/services", staffOnly, s.handleAddService)
	handle("PATCH /api/services/{id}", staffOnly, s.handleUpdateService)
	handle("DELETE /api/services/{id}", staffOnly, s.handleDeleteService)

	handle("POST /api/reviews", authenticated, s.handleCreateReview)
	handle("GET /api/reviews/homepage", public, s.handleHomepageReviews)
	handle("GET /api/reviews", staffOnly, s.handleListReviews)
	handle("PATCH /api/reviews/{id}/reply", staffOnly, s.handleReplyReview)
	handle("PATCH /api/reviews/{id}/approval", staffOnly, s.handleReviewFlags)
	handle("DELETE /api/reviews/{id}", staffOnly, s.handleDeleteReview)

	handle("GET /api/admin/stats", staffOnly, s.handleStats)
	handle("GET /api/admin/stats/enhanced", staffOnly, s.handleEnhancedStats)
	handle("GET /api/admin/users", staffOnly, s.handleListUsers)
	handle("PATCH /api/admin/users/{id}/status", staffOnly, s.handleToggleUser)
	handle("DELETE /api/admin/users/{id}", staffOnly, s.handleDeleteUser)
	handle("GET /api/admin/system-health", staffOnly, s.handleSystemHealth)
	handle("GET /api/admin/export/bookings", staffDownload, s.handleExportBookings)
	handle("POST /api/admin/bookings/{id}/technician", staffOnly, s.handleAssignTechnician)

	handle("POST /api/support", public, s.handleCreateSupport)
	handle("GET /api/support", staffOnly, s.handleListSupport)
	handle("PATCH /api/support/{id}", staffOnly, s.handleUpdateSupport)

	handle("GET /api/gallery", public, s.handleListGallery)
	handle("POST /api/gallery", staffOnly, s.handleUploadGallery)
	handle("DELETE /api/gallery/{id}", staffOnly, s.handleDeleteGallery)

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Route not found")
	})
}

// Handler exposes the full middleware chain, mainly for httptest.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.svc.Admin == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	h := s.svc.Admin.SystemHealth(r.Context())
	status := http.StatusOK
	if h.Status == "unhealthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status":   h.Status,
		"database": h.Database.Status,
		"cache":    h.Cache.Status,
		"version":  h.Version,
	})
}
