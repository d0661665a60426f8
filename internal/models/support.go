package models

import "time"

type SupportStatus string

const (
	SupportOpen       SupportStatus = "Open"
	SupportInProgress SupportStatus = "In Progress"
	SupportResolved   SupportStatus = "Resolved"
	SupportClosed     SupportStatus = "Closed"
)

var (
	SupportStatuses   = []SupportStatus{SupportOpen, SupportInProgress, SupportResolved, SupportClosed}
	SupportCategories = []string{"Technical", "Billing", "General", "Complaint", "Feedback"}
	SupportPriorities = []string{"Low", "Medium", "High", "Urgent"}
)

type SupportRequest struct {
	ID         int64         `json:"id"`
	Name       string        `json:"name"`
	Email      string        `json:"email"`
	Phone      string        `json:"phone,omitempty"`
	Subject    string        `json:"subject"`
	Message    string        `json:"message"`
	Category   string        `json:"category"`
	Priority   string        `json:"priority"`
	Status     SupportStatus `json:"status"`
	AssignedTo *int64        `json:"assignedTo,omitempty"`
	AdminNotes string        `json:"adminNotes,omitempty"`
	ResolvedAt *time.Time    `json:"resolvedAt,omitempty"`
	ResolvedBy *int64        `json:"resolvedBy,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

type SupportUpdate struct {
	Status     *SupportStatus
	Priority   *string
	AdminNotes *string
	AssignedTo *int64
}

func Contains(values []string, v string) bool {
	for _, known := range values {
		if known == v {
			return true
		}
	}
	return false
}
