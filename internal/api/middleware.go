package api

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"homeservices/internal/auth"
	"homeservices/internal/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

const (
	requestIDHeader  = "X-Request-ID"
	clientKeyUnknown = "unknown"
)

type access int

const (
	public access = iota
	authenticated
	staffOnly
	// staffDownload also accepts ?token= so a browser can open the file directly.
	staffDownload
)

// requestID tags the request logger and the response with an id, reusing the caller's when sent.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		logger := hlog.FromRequest(r).With().Str("request_id", id).Logger()
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))
	})
}

// accessLog records every response in the log and the request metrics. The route label
// is the matched mux pattern so path parameters do not explode cardinality.
func accessLog() func(http.Handler) http.Handler {
	return hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTP(route, status, duration)

		var event *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			event = hlog.FromRequest(r).Error()
		case status >= http.StatusBadRequest:
			event = hlog.FromRequest(r).Warn()
		default:
			event = hlog.FromRequest(r).Info()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Str("remote", clientIP(r)).
			Msg("http request")
	})
}

func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				hlog.FromRequest(r).Error().Interface("panic", rec).Bytes("stack", debug.Stack()).Msg("handler panic")
				writeMessage(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// cors answers preflight requests and echoes an allowed Origin. An empty list or "*" allows any.
func cors(allowed []string) func(http.Handler) http.Handler {
	allowAll := len(allowed) == 0
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			allowAll = true
		}
		set[strings.TrimRight(o, "/")] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAll || set[origin]) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Add("Vary", "Origin")
				if r.Method == http.MethodOptions {
					h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
					h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
					h.Set("Access-Control-Max-Age", "600")
				}
			}
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *HTTPServer) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(clientIP(r)) {
			w.Header().Set("Retry-After", "1")
			writeMessage(w, http.StatusTooManyRequests, "Too many requests from this IP, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// guard authenticates the bearer token for non-public routes. The account is reloaded so
// deactivation and role changes take effect before the token expires.
func (s *HTTPServer) guard(level access, next http.HandlerFunc) http.HandlerFunc {
	if level == public {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		token, msg := bearerToken(r, level == staffDownload)
		if token == "" {
			writeMessage(w, http.StatusUnauthorized, msg)
			return
		}
		claims, err := s.tokens.Verify(token)
		if err != nil {
			s.writeError(w, r, err, "Token is not valid")
			return
		}
		user, err := s.accounts.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Token is not valid")
			return
		}
		if !user.IsActive {
			writeMessage(w, http.StatusUnauthorized, "Account is deactivated")
			return
		}

		p := &auth.Principal{UserID: user.ID, Email: user.Email, Role: user.Role}
		if (level == staffOnly || level == staffDownload) && !p.IsStaff() {
			writeMessage(w, http.StatusForbidden, "Admin access required")
			return
		}

		logger := hlog.FromRequest(r).With().Int64("user_id", p.UserID).Logger()
		ctx := logger.WithContext(auth.WithPrincipal(r.Context(), p))
		next(w, r.WithContext(ctx))
	}
}

// bearerToken reads the Authorization header. allowQuery adds the ?token= fallback used by
// download links.
func bearerToken(r *http.Request, allowQuery bool) (string, string) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		if allowQuery {
			if t := strings.TrimSpace(r.URL.Query().Get("token")); t != "" {
				return t, ""
			}
		}
		return "", "No token provided, access denied"
	}
	rest, ok := strings.CutPrefix(header, "Bearer")
	if !ok || (rest != "" && rest[0] != ' ') {
		return "", "Invalid token format. Use Bearer token"
	}
	token := strings.TrimSpace(rest)
	if token == "" {
		return "", "No token provided, access denied"
	}
	return token, ""
}

func principal(r *http.Request) *auth.Principal {
	p, _ := auth.FromContext(r.Context())
	return p
}
