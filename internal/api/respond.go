package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"homeservices/internal/auth"
	"homeservices/internal/domain"

	"github.com/rs/zerolog/hlog"
)

// envelope is the body of every JSON response.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeData(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	writeJSON(w, statusCode, envelope{Success: true, Message: message, Data: data})
}

func writeMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, envelope{Success: false, Message: message})
}

// writeError maps a service error onto a status code. Unknown errors are logged and
// answered with fallback; the detail is echoed only in development.
func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, envelope{Message: ve.Message, Errors: ve.Fields})
		return
	}

	status, message := http.StatusInternalServerError, fallback
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		status, message = http.StatusUnauthorized, "Token has expired"
	case errors.Is(err, auth.ErrTokenInvalid):
		status, message = http.StatusUnauthorized, "Token is not valid"
	case errors.Is(err, domain.ErrUnauthorized):
		status, message = http.StatusUnauthorized, "Authentication required"
	case errors.Is(err, domain.ErrForbidden):
		status, message = http.StatusForbidden, "Access denied"
	case errors.Is(err, domain.ErrNotFound):
		status, message = http.StatusNotFound, "Resource not found"
	case errors.Is(err, domain.ErrRateLimited):
		status, message = http.StatusTooManyRequests, "Too many requests"
	case errors.Is(err, domain.ErrConflict):
		status, message = http.StatusConflict, "Resource already exists"
	}

	var reason *domain.ReasonError
	if errors.As(err, &reason) && status != http.StatusInternalServerError {
		message = reason.Message
	}

	body := envelope{Message: message}
	if status == http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Str("path", r.URL.Path).Msg(fallback)
		if s.app.IsDevelopment() {
			body.Error = err.Error()
		}
	}
	writeJSON(w, status, body)
}

const maxJSONBody = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dest); err != nil {
		return domain.NewValidationError("Invalid JSON body")
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.PathValue(name)), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("Invalid id", name)
	}
	return id, nil
}

func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(name)))
	if err != nil {
		return 0
	}
	return n
}

func queryBool(r *http.Request, name string) *bool {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get(name))) {
	case "true", "1":
		v := true
		return &v
	case "false", "0":
		v := false
		return &v
	}
	return nil
}
