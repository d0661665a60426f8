package service

import (
	"context"
	"strings"
	"time"

	"homeservices/internal/auth"
	"homeservices/internal/domain"
	"homeservices/internal/logging"
	"homeservices/internal/models"

	"github.com/rs/zerolog"
)

type SupportInput struct {
	Name     string `json:"name" validate:"required,max=50"`
	Email    string `json:"email" validate:"mail"`
	Phone    string `json:"phone" validate:"omitempty,phone"`
	Subject  string `json:"subject" validate:"required,max=100"`
	Message  string `json:"message" validate:"required,max=1000"`
	Category string `json:"category" validate:"omitempty,oneof=Technical Billing General Complaint Feedback"`
	Priority string `json:"priority" validate:"omitempty,oneof=Low Medium High Urgent"`
}

type SupportUpdateInput struct {
	Status     *string `json:"status"`
	Priority   *string `json:"priority" validate:"omitnil,oneof=Low Medium High Urgent"`
	AdminNotes *string `json:"adminNotes" validate:"omitnil,max=1000"`
	AssignedTo *int64  `json:"assignedTo" validate:"omitnil,gt=0"`
}

type SupportListInput struct {
	Status   string
	Priority string
	Page     int
	Limit    int
}

type SupportPage struct {
	Requests   []*models.SupportRequest `json:"requests"`
	Pagination models.Pagination        `json:"pagination"`
}

type SupportService struct {
	requests domain.SupportRepository
	now      func() time.Time
	logger   *zerolog.Logger
}

func NewSupportService(requests domain.SupportRepository, logger *zerolog.Logger) *SupportService {
	return &SupportService{
		requests: requests,
		now:      time.Now,
		logger:   logging.Component(logger, "support_service"),
	}
}

// CreateRequest is public; category defaults to General and priority to Medium.
func (s *SupportService) CreateRequest(ctx context.Context, in SupportInput) (*models.SupportRequest, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Subject = strings.TrimSpace(in.Subject)
	if in.Name == "" || in.Email == "" || in.Subject == "" || strings.TrimSpace(in.Message) == "" {
		return nil, domain.NewValidationError("Name, email, subject and message are required", "name", "email", "subject", "message")
	}
	if err := validateInput("Validation error", in); err != nil {
		return nil, err
	}

	req := &models.SupportRequest{
		Name:     in.Name,
		Email:    in.Email,
		Phone:    in.Phone,
		Subject:  in.Subject,
		Message:  in.Message,
		Category: in.Category,
		Priority: in.Priority,
		Status:   models.SupportOpen,
	}
	if req.Category == "" {
		req.Category = models.DefaultCategory
	}
	if req.Priority == "" {
		req.Priority = "Medium"
	}
	if err := s.requests.CreateSupportRequest(ctx, req); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("request_id", req.ID).Str("category", req.Category).Msg("support request created")
	return req, nil
}

func (s *SupportService) ListRequests(ctx context.Context, actor *auth.Principal, in SupportListInput) (*SupportPage, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if in.Status != "" && !isSupportStatus(in.Status) {
		return nil, invalidSupportStatus()
	}
	if in.Priority != "" && !models.Contains(models.SupportPriorities, in.Priority) {
		return nil, domain.NewValidationError("Invalid priority. Allowed values: "+strings.Join(models.SupportPriorities, ", "), "priority")
	}

	page, limit := models.NormalizePage(in.Page, in.Limit, models.DefaultAdminPageSize)
	reqs, total, err := s.requests.ListSupportRequests(ctx, in.Status, in.Priority, page, limit)
	if err != nil {
		return nil, err
	}
	if reqs == nil {
		reqs = []*models.SupportRequest{}
	}
	return &SupportPage{Requests: reqs, Pagination: models.NewPagination(page, limit, total)}, nil
}

// UpdateRequest applies a staff update. The resolution stamp is written once, by storage.
func (s *SupportService) UpdateRequest(ctx context.Context, actor *auth.Principal, rawID string, in SupportUpdateInput) (*models.SupportRequest, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}
	if in.Status == nil && in.Priority == nil && in.AdminNotes == nil && in.AssignedTo == nil {
		return nil, domain.NewValidationError("Nothing to update", "status", "priority", "adminNotes", "assignedTo")
	}
	if in.Status != nil && !isSupportStatus(*in.Status) {
		return nil, invalidSupportStatus()
	}
	if err := validateInput("Validation error", in); err != nil {
		return nil, err
	}

	update := models.SupportUpdate{Priority: in.Priority, AdminNotes: in.AdminNotes, AssignedTo: in.AssignedTo}
	if in.Status != nil {
		status := models.SupportStatus(*in.Status)
		update.Status = &status
	}
	if err := s.requests.UpdateSupportRequest(ctx, id, update, actor.UserID, s.now()); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("request_id", id).Int64("by", actor.UserID).Msg("support request updated")
	return s.requests.GetSupportRequest(ctx, id)
}

func isSupportStatus(v string) bool {
	for _, st := range models.SupportStatuses {
		if string(st) == v {
			return true
		}
	}
	return false
}

func invalidSupportStatus() error {
	names := make([]string, len(models.SupportStatuses))
	for i, st := range models.SupportStatuses {
		names[i] = string(st)
	}
	return domain.NewValidationError("Invalid status. Allowed values: "+strings.Join(names, ", "), "status")
}
