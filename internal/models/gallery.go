package models

import "time"

var (
	GalleryCategories = []string{
		"Washing Machine", "Refrigerator", "Geyser", "Water Purifier",
		"Microven", "AC", "Interior", "Electrical Service",
		"Home Maintenance & Services", "Wall Painting", "CCTV",
		"AC Advanced Piping",
	}
	GallerySections = []string{"Appliance Services", "Home Repair & Service"}
)

const (
	MediaImage = "image"
	MediaVideo = "video"

	DefaultGallerySection = "Appliance Services"
)

type GalleryItem struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	Section     string    `json:"section"`
	MediaType   string    `json:"mediaType"`
	FileName    string    `json:"fileName"`
	ObjectKey   string    `json:"-"`
	URL         string    `json:"url"`
	FileSize    int64     `json:"fileSize"`
	MimeType    string    `json:"mimeType"`
	UploadedBy  int64     `json:"uploadedBy"`
	IsActive    bool      `json:"isActive"`
	ViewCount   int       `json:"viewCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
