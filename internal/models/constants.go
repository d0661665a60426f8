package models

const (
	// DateLayout is the storage and wire format for booking dates.
	DateLayout = "2006-01-02"

	// DefaultCategory labels line items submitted without a category.
	DefaultCategory = "General"

	DefaultCurrency = "INR"
	DefaultDuration = "2-4 hours"

	DefaultPage              = 1
	DefaultPageSize          = 10
	DefaultAdminPageSize     = 20
	DefaultCatalogPageSize   = 50
	MaxPageSize              = 100
	DefaultPopularLimit      = 6
	DefaultHomepageReviews   = 6
	DefaultSearchLimit       = 20
	MinSearchQueryLength     = 2
	DefaultStatsPeriodDays   = 30
	BookingCodeSuffixLength  = 4
	BookingCodeMaxAttempts   = 5
	MinPasswordLength        = 6
	MaxGalleryFileSize       = 10 << 20
	DefaultStatsCacheSeconds = 60
)

// Pagination is returned with every paginated listing.
type Pagination struct {
	Current int `json:"current"`
	Pages   int `json:"pages"`
	Total   int `json:"total"`
	Limit   int `json:"limit"`
}

func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Current: page, Pages: pages, Total: total, Limit: limit}
}

// NormalizePage clamps page and limit to sane values.
func NormalizePage(page, limit, defaultLimit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}
