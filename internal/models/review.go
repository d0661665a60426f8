package models

import "time"

type AdminReply struct {
	Text      string     `json:"text"`
	RepliedBy *int64     `json:"repliedBy,omitempty"`
	RepliedAt *time.Time `json:"repliedAt,omitempty"`
}

type Review struct {
	ID                    int64       `json:"id"`
	BookingID             int64       `json:"bookingId"`
	UserID                int64       `json:"userId"`
	CustomerName          string      `json:"customerName"`
	ServiceCategory       string      `json:"serviceCategory"`
	ServiceName           string      `json:"serviceName"`
	Rating                int         `json:"rating"`
	Feedback              string      `json:"feedback"`
	IsApproved            bool        `json:"isApproved"`
	IsDisplayedOnHomepage bool        `json:"isDisplayedOnHomepage"`
	AdminReply            *AdminReply `json:"adminReply,omitempty"`
	CreatedAt             time.Time   `json:"createdAt"`
	UpdatedAt             time.Time   `json:"updatedAt"`
}

const (
	ReviewFilterAll      = "all"
	ReviewFilterApproved = "approved"
	ReviewFilterPending  = "pending"
)
