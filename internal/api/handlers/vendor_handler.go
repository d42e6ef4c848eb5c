package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/formbricks/storefront/internal/api/response"
	"github.com/formbricks/storefront/internal/api/validation"
	"github.com/formbricks/storefront/internal/models"
)

// VendorProductsService is the vendor side of the catalog.
type VendorProductsService interface {
	CreateProduct(ctx context.Context, vendorID uuid.UUID, req *models.CreateProductRequest) (*models.CreateProductResponse, error)
	UpdateProduct(ctx context.Context, vendorID, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error)
	ListVendorProducts(ctx context.Context, vendorID uuid.UUID) ([]models.VendorProduct, error)
}

// VendorStatsService returns a vendor's dashboard totals.
type VendorStatsService interface {
	Vendor(ctx context.Context, vendorID uuid.UUID) (*models.VendorStats, error)
}

// VendorHandler serves /v1/vendor routes. All routes require the vendor role.
type VendorHandler struct {
	products VendorProductsService
	stats    VendorStatsService
}

// NewVendorHandler creates a new vendor handler.
func NewVendorHandler(products VendorProductsService, stats VendorStatsService) *VendorHandler {
	return &VendorHandler{products: products, stats: stats}
}

// ListProducts handles GET /v1/vendor/products.
func (h *VendorHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}

	products, err := h.products.ListVendorProducts(r.Context(), p.UserID)
	if err != nil {
		response.RespondAppError(w, r, err, "Failed to list products")

		return
	}

	response.RespondJSON(w, http.StatusOK, products)
}

// CreateProduct handles POST /v1/vendor/products.
func (h *VendorHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}

	var req models.CreateProductRequest
	if err := validation.DecodeJSON(r, &req); err != nil {
		validation.RespondDecodeError(w, err)

		return
	}

	created, err := h.products.CreateProduct(r.Context(), p.UserID, &req)
	if err != nil {
		response.RespondAppError(w, r, err, "Failed to create product")

		return
	}

	response.RespondJSON(w, http.StatusCreated, created)
}

// UpdateProduct handles PATCH /v1/vendor/products/{id}.
func (h *VendorHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}

	id, ok := pathID(w, r, "Product")
	if !ok {
		return
	}

	var req models.UpdateProductRequest
	if err := validation.DecodeJSON(r, &req); err != nil {
		validation.RespondDecodeError(w, err)

		return
	}

	product, err := h.products.UpdateProduct(r.Context(), p.UserID, id, &req)
	if err != nil {
		response.RespondAppError(w, r, err, "Failed to update product")

		return
	}

	response.RespondJSON(w, http.StatusOK, product)
}

// Stats handles GET /v1/vendor/stats.
func (h *VendorHandler) Stats(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}

	stats, err := h.stats.Vendor(r.Context(), p.UserID)
	if err != nil {
		response.RespondAppError(w, r, err, "Failed to load vendor stats")

		return
	}

	response.RespondJSON(w, http.StatusOK, stats)
}
