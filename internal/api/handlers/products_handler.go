package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/formbricks/storefront/internal/api/response"
	"github.com/formbricks/storefront/internal/api/validation"
	"github.com/formbricks/storefront/internal/models"
	"github.com/formbricks/storefront/internal/service"
)

// ProductsService defines the catalog operations used by ProductsHandler.
type ProductsService interface {
	ListProducts(ctx context.Context, filters *models.ListProductsFilters) ([]models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Featured(ctx context.Context) ([]models.Product, error)
	Trending(ctx context.Context) ([]models.ScoredProduct, error)
	Recommendations(ctx context.Context, id uuid.UUID) (*models.Recommendations, error)
	FilterOptions(ctx context.Context) (*models.FilterOptions, error)
	SmartFilter(ctx context.Context, req *models.SmartFilterRequest) ([]models.Product, error)
	VectorSearch(ctx context.Context, req *models.VectorSearchRequest) ([]models.BlendedProduct, error)
}

// ProductsHandler serves the public catalog.
type ProductsHandler struct {
	service ProductsService
}

// NewProductsHandler creates a new products handler.
func NewProductsHandler(service ProductsService) *ProductsHandler {
	return &ProductsHandler{service: service}
}

// List handles GET /v1/products.
func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	var filters models.ListProductsFilters
	if err := validation.ValidateAndDecodeQueryParams(r, &filters); err != nil {
		validation.RespondDecodeError(w, err)

		return
	}

	products, err := h.service.ListProducts(r.Context(), &filters)
	if err != nil {
		response.RespondAppError(w, r, err, "Failed to list products")

		return
	}

	response.RespondJSON(w, http.StatusOK, products)
}

// Get handles GET /v1/products/{id}.
func (h *ProductsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Product")
	if !ok {
		return
	}

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		response.RespondAppError(w, r, err, "Failed to get product")

		return
	}

	response.RespondJSON(w, http.StatusOK, product)
}

// Featured handles GET /v1/products/featured.
func (h *ProductsHandler) Featured(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.Featured(r.Context())
	if err != nil {
		response.RespondAppError(w, r, err, "Failed to load featured products")

		return
	}

	response.RespondJSON(w, http.StatusOK, products)
}

// Trending handles GET /v1/products/trending.
func (h *ProductsHandler) Trending(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.Trending(r.Context())
	if err != nil {
		response.RespondAppError(w, r, err, "Failed to load trending products")

		return
	}

	response.RespondJSON(w, http.StatusOK, products)
}

// Recommendations handles GET /v1/products/{id}/recommendations.
func (h *ProductsHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Product")
	if !ok {
		return
	}

	recs, err := h.service.Recommendations(r.Context(), id)
	if err != nil {
		response.RespondAppError(w, r, err, "Failed to load recommendations")

		return
	}

	response.RespondJSON(w, http.StatusOK, recs)
}

// FilterOptions handles GET /v1/products/filter-options.
func (h *ProductsHandler) FilterOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.service.FilterOptions(r.Context())
	if err != nil {
		response.RespondAppError(w, r, err, "Failed to load filter options")

		return
	}

	response.RespondJSON(w, http.StatusOK, opts)
}

// SmartFilter handles POST /v1/products/smart-filter.
func (h *ProductsHandler) SmartFilter(w http.ResponseWriter, r *http.Request) {
	var req models.SmartFilterRequest
	if err := validation.DecodeJSON(r, &req); err != nil {
		validation.RespondDecodeError(w, err)

		return
	}

	products, err := h.service.SmartFilter(r.Context(), &req)
	if err != nil {
		response.RespondAppError(w, r, err, "Failed to filter products")

		return
	}

	response.RespondJSON(w, http.StatusOK, products)
}

// VectorSearch handles POST /v1/products/vector-search.
func (h *ProductsHandler) VectorSearch(w http.ResponseWriter, r *http.Request) {
	var req models.VectorSearchRequest
	if err := validation.DecodeJSON(r, &req); err != nil {
		validation.RespondDecodeError(w, err)

		return
	}

	results, err := h.service.VectorSearch(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuery) {
			response.RespondBadRequest(w, "query required")

			return
		}

		response.RespondAppError(w, r, err, "Vector search failed")

		return
	}

	response.RespondJSON(w, http.StatusOK, results)
}
