package models

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) IsStaff() bool {
	return r == RoleAdmin
}

type User struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	IsActive     bool       `json:"isActive"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// UserSummary is the admin listing row with booking aggregates.
type UserSummary struct {
	User
	TotalBookings int        `json:"totalBookings"`
	LastBooking   *time.Time `json:"lastBooking,omitempty"`
}

type UserFilter struct {
	Search   string
	IsActive *bool
	Page     int
	Limit    int
}
