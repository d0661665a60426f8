package models

type StatusCounts struct {
	Pending    int `json:"pending"`
	Confirmed  int `json:"confirmed"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
	Cancelled  int `json:"cancelled"`
}

func (c StatusCounts) Total() int {
	return c.Pending + c.Confirmed + c.InProgress + c.Completed + c.Cancelled
}

type Overview struct {
	TotalUsers    int     `json:"totalUsers"`
	TotalBookings int     `json:"totalBookings"`
	TotalServices int     `json:"totalServices"`
	TotalRevenue  float64 `json:"totalRevenue"`
	AvgOrderValue float64 `json:"avgOrderValue"`
}

type PeriodStats struct {
	Period      int     `json:"period"`
	NewBookings int     `json:"newBookings"`
	NewUsers    int     `json:"newUsers"`
	Revenue     float64 `json:"revenue"`
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type DashboardStats struct {
	Overview        Overview        `json:"overview"`
	PeriodStats     PeriodStats     `json:"periodStats"`
	BookingStatus   StatusCounts    `json:"bookingStatus"`
	PopularServices []*Service      `json:"popularServices"`
	RecentBookings  []*Booking      `json:"recentBookings"`
	BookingTrends   []DayCount      `json:"bookingTrends"`
	CategoryStats   []CategoryCount `json:"categoryStats"`
}

type EnhancedStats struct {
	Users struct {
		Total  int `json:"total"`
		Active int `json:"active"`
	} `json:"users"`
	Bookings struct {
		StatusCounts
		Total int `json:"total"`
	} `json:"bookings"`
	Support struct {
		Total    int `json:"total"`
		Open     int `json:"open"`
		Resolved int `json:"resolved"`
	} `json:"support"`
	Gallery struct {
		Total  int `json:"total"`
		Images int `json:"images"`
		Videos int `json:"videos"`
	} `json:"gallery"`
}
