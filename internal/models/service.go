package models

import "time"

// ServiceCategories is the fixed catalog category enumeration.
var ServiceCategories = []string{
	"AC Services",
	"Appliance Services",
	"Electrical Services",
	"Plumbing Services",
	"Home Maintenance",
	"Interior Services",
	"Painting Services",
	"CCTV Services",
	"Cleaning Services",
	"General Repairs",
}

func IsServiceCategory(c string) bool {
	for _, known := range ServiceCategories {
		if known == c {
			return true
		}
	}
	return false
}

type PriceRange struct {
	Min      float64 `json:"min" yaml:"min"`
	Max      float64 `json:"max" yaml:"max"`
	Currency string  `json:"currency" yaml:"currency"`
}

// Service is one offerable catalog entry.
type Service struct {
	ID            int64      `json:"id" yaml:"-"`
	Name          string     `json:"name" yaml:"name"`
	Category      string     `json:"category" yaml:"category"`
	Description   string     `json:"description" yaml:"description"`
	PriceRange    PriceRange `json:"priceRange" yaml:"price_range"`
	ThumbnailURL  string     `json:"thumbnailURL,omitempty" yaml:"thumbnail_url"`
	Duration      string     `json:"duration" yaml:"duration"`
	Features      []string   `json:"features" yaml:"features"`
	IsActive      bool       `json:"isActive" yaml:"is_active"`
	Popularity    int        `json:"popularity" yaml:"popularity"`
	AverageRating float64    `json:"averageRating" yaml:"-"`
	TotalBookings int        `json:"totalBookings" yaml:"-"`
	CreatedAt     time.Time  `json:"createdAt" yaml:"-"`
	UpdatedAt     time.Time  `json:"updatedAt" yaml:"-"`
}

type ServiceFilter struct {
	Category  string
	IsActive  *bool
	Search    string
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

// ServicePatch carries a partial catalog update; nil fields are left untouched.
type ServicePatch struct {
	Name         *string
	Category     *string
	Description  *string
	PriceMin     *float64
	PriceMax     *float64
	Currency     *string
	ThumbnailURL *string
	Duration     *string
	Features     []string
	IsActive     *bool
}
