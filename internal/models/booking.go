package models

import (
	"fmt"
	"strings"
	"time"
)

type BookingStatus string

const (
	StatusPending    BookingStatus = "Pending"
	StatusConfirmed  BookingStatus = "Confirmed"
	StatusInProgress BookingStatus = "InProgress"
	StatusCompleted  BookingStatus = "Completed"
	StatusCancelled  BookingStatus = "Cancelled"
)

// BookingStatuses lists every permitted status in lifecycle order.
var BookingStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
}

// ParseBookingStatus accepts only the exact labels from BookingStatuses.
func ParseBookingStatus(raw string) (BookingStatus, bool) {
	for _, s := range BookingStatuses {
		if string(s) == raw {
			return s, true
		}
	}
	return "", false
}

// StatusLabels returns the permitted status values as plain strings.
func StatusLabels() []string {
	out := make([]string, len(BookingStatuses))
	for i, s := range BookingStatuses {
		out[i] = string(s)
	}
	return out
}

func (s BookingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsActive reports whether the booking still occupies catalog capacity.
func (s BookingStatus) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusInProgress
}

// Deletable reports whether a booking in this status may be removed.
func (s BookingStatus) Deletable() bool {
	return s == StatusPending || s == StatusCancelled
}

// CanTransitionTo reports whether a staff command may move a booking from s to next.
// Terminal states only accept the same status again.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if s == next {
		return true
	}
	return !s.IsTerminal()
}

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

func (a Address) String() string {
	parts := []string{a.Street, a.City}
	if a.State != "" {
		parts = append(parts, a.State)
	}
	s := strings.Join(parts, ", ")
	if a.Pincode != "" {
		s += " - " + a.Pincode
	}
	return s
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Location struct {
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Formatted   string       `json:"formatted,omitempty"`
	PlaceID     string       `json:"placeId,omitempty"`
	CapturedAt  *time.Time   `json:"capturedAt,omitempty"`
}

// LineItem is a snapshot of one requested service taken when the booking is created.
type LineItem struct {
	ServiceID      *int64 `json:"serviceId,omitempty"`
	ServiceName    string `json:"serviceName"`
	Category       string `json:"category"`
	EstimatedPrice string `json:"estimatedPrice"`
}

type Technician struct {
	Name       string     `json:"name"`
	Phone      string     `json:"phone"`
	Email      string     `json:"email,omitempty"`
	AssignedAt *time.Time `json:"assignedAt,omitempty"`
	AssignedBy *int64     `json:"assignedBy,omitempty"`
}

// NotificationFlags is advisory bookkeeping only.
type NotificationFlags struct {
	AdminNotified        bool       `json:"adminNotified"`
	CustomerNotified     bool       `json:"customerNotified"`
	TechnicianNotified   bool       `json:"technicianNotified"`
	LastNotificationSent *time.Time `json:"lastNotificationSent,omitempty"`
}

type Booking struct {
	ID              int64             `json:"id"`
	BookingCode     string            `json:"bookingId"`
	UserID          int64             `json:"userId"`
	Name            string            `json:"name"`
	Email           string            `json:"email"`
	Phone           string            `json:"phone"`
	Address         Address           `json:"address"`
	Location        *Location         `json:"location,omitempty"`
	Services        []LineItem        `json:"services"`
	Date            time.Time         `json:"date"`
	Time            string            `json:"time"`
	WorkDescription string            `json:"workDescription,omitempty"`
	Status          BookingStatus     `json:"status"`
	EstimatedCost   *float64          `json:"estimatedCost,omitempty"`
	ActualCost      *float64          `json:"actualCost,omitempty"`
	TechnicianNotes string            `json:"technicianNotes,omitempty"`
	AdminNotes      string            `json:"adminNotes,omitempty"`
	CompletedAt     *time.Time        `json:"completedAt,omitempty"`
	Rating          *int              `json:"rating,omitempty"`
	Feedback        string            `json:"feedback,omitempty"`
	Technician      *Technician       `json:"technician,omitempty"`
	HasTechnician   bool              `json:"hasTechnician"`
	Notifications   NotificationFlags `json:"notifications"`
	AdminReply      string            `json:"adminReply,omitempty"`
	AdminReplyDate  *time.Time        `json:"adminReplyDate,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// ServiceNames returns line item names in request order.
func (b *Booking) ServiceNames() []string {
	names := make([]string, 0, len(b.Services))
	for _, s := range b.Services {
		names = append(names, s.ServiceName)
	}
	return names
}

// ServiceIDs returns catalog ids referenced by line items.
func (b *Booking) ServiceIDs() []int64 {
	var ids []int64
	for _, s := range b.Services {
		if s.ServiceID != nil {
			ids = append(ids, *s.ServiceID)
		}
	}
	return ids
}

func (b *Booking) IsOwnedBy(userID int64) bool {
	return b.UserID == userID
}

func (b *Booking) String() string {
	return fmt.Sprintf("%s (%s, %s)", b.BookingCode, b.Status, b.Date.Format(DateLayout))
}

// StatusUpdate carries the optional fields that travel with a status change.
type StatusUpdate struct {
	Status BookingStatus
	// From, when set, applies the update only while the stored status still equals it.
	From            BookingStatus
	TechnicianNotes *string
	AdminNotes      *string
	EstimatedCost   *float64
	ActualCost      *float64
}

// BookingFilter narrows booking listings.
type BookingFilter struct {
	UserID    *int64
	Status    BookingStatus
	Search    string
	DateFrom  *time.Time
	DateTo    *time.Time
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}
