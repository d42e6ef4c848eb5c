package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProductStatus is the moderation state of a catalog item.
type ProductStatus string

const (
	// ProductStatusInactive is the state of a newly created product awaiting approval.
	ProductStatusInactive ProductStatus = "inactive"
	// ProductStatusActive products are visible to shoppers and search.
	ProductStatusActive ProductStatus = "active"
	// ProductStatusRejected products were declined by an admin.
	ProductStatusRejected ProductStatus = "rejected"
)

// IsValid reports whether s is a known status.
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusInactive, ProductStatusActive, ProductStatusRejected:
		return true
	default:
		return false
	}
}

// DefaultProductImageURL is stored when a vendor does not provide an image.
const DefaultProductImageURL = "/placeholder.svg?height=400&width=400"

// Product is a catalog item joined with its vendor name and average review rating.
type Product struct {
	ID            uuid.UUID     `json:"id"`
	VendorID      uuid.UUID     `json:"vendor_id"`
	VendorName    string        `json:"vendor_name,omitempty"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Category      string        `json:"category"`
	Price         float64       `json:"price"`
	StockQuantity int           `json:"stock_quantity"`
	ImageURL      string        `json:"image_url,omitempty"`
	Tags          []string      `json:"tags"`
	Status        ProductStatus `json:"status"`
	AvgRating     float64       `json:"avg_rating"`
	HasEmbedding  bool          `json:"-"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// VendorProduct is a product in a vendor's listing with its order line count.
type VendorProduct struct {
	Product

	TotalSales int64 `json:"total_sales"`
}

// CreateProductRequest is the vendor payload for a new catalog item.
// Price and StockQuantity are pointers so that an explicit 0 passes "required".
type CreateProductRequest struct {
	Name          string   `json:"name" validate:"required,max=255,no_null_bytes"`
	Description   string   `json:"description" validate:"required,no_null_bytes"`
	Category      string   `json:"category" validate:"required,max=100,no_null_bytes"`
	Price         *float64 `json:"price" validate:"required,gte=0"`
	StockQuantity *int     `json:"stock_quantity" validate:"required,gte=0"`
	ImageURL      string   `json:"image_url,omitempty" validate:"omitempty,max=2048,no_null_bytes"`
	Tags          []string `json:"tags,omitempty" validate:"omitempty,max=50,dive,max=50,no_null_bytes"`
}

// UpdateProductRequest is a partial update; nil fields are left unchanged.
type UpdateProductRequest struct {
	Name          *string   `json:"name,omitempty" validate:"omitempty,min=1,max=255,no_null_bytes"`
	Description   *string   `json:"description,omitempty" validate:"omitempty,min=1,no_null_bytes"`
	Category      *string   `json:"category,omitempty" validate:"omitempty,min=1,max=100,no_null_bytes"`
	Price         *float64  `json:"price,omitempty" validate:"omitempty,gte=0"`
	StockQuantity *int      `json:"stock_quantity,omitempty" validate:"omitempty,gte=0"`
	ImageURL      *string   `json:"image_url,omitempty" validate:"omitempty,max=2048,no_null_bytes"`
	Tags          *[]string `json:"tags,omitempty" validate:"omitempty,max=50,dive,max=50,no_null_bytes"`
}

// ChangesEmbeddingText reports whether the update touches a field that feeds the product embedding.
func (r *UpdateProductRequest) ChangesEmbeddingText() bool {
	return r.Name != nil || r.Description != nil || r.Category != nil || r.Tags != nil
}

// IsEmpty reports whether the update sets no fields.
func (r *UpdateProductRequest) IsEmpty() bool {
	return !r.ChangesEmbeddingText() && r.Price == nil && r.StockQuantity == nil && r.ImageURL == nil
}

// CreateProductResponse is returned after a vendor creates a product.
type CreateProductResponse struct {
	Product

	EmbeddingGenerated bool   `json:"embedding_generated"`
	Message            string `json:"message"`
}

// ListProductsFilters are the query parameters of the public catalog listing.
type ListProductsFilters struct {
	Category string `form:"category" validate:"omitempty,max=100,no_null_bytes"`
	Limit    int    `form:"limit" validate:"omitempty,min=1,max=100"`
	Offset   int    `form:"offset" validate:"omitempty,min=0"`
}

// JoinTags encodes tags for the comma-separated tags column.
func JoinTags(tags []string) string {
	cleaned := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}

	return strings.Join(cleaned, ",")
}

// SplitTags decodes the comma-separated tags column, dropping blanks.
func SplitTags(raw string) []string {
	tags := []string{}

	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	return tags
}
