// Package service holds the application operations behind the HTTP API. Every
// operation takes the calling principal explicitly and returns domain errors.
package service

import (
	"strconv"
	"strings"

	"homeservices/internal/auth"
	"homeservices/internal/domain"
)

func requireStaff(actor *auth.Principal) error {
	if actor == nil {
		return domain.ErrUnauthorized
	}
	if !actor.IsStaff() {
		return domain.ErrForbidden
	}
	return nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("Invalid id", "id")
	}
	return id, nil
}
