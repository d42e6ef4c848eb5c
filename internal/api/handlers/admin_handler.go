package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/formbricks/storefront/internal/api/response"
	"github.com/formbricks/storefront/internal/models"
)

// ModerationService approves and rejects vendor products.
type ModerationService interface {
	ListPending(ctx context.Context) ([]models.Product, error)
	Approve(ctx context.Context, id uuid.UUID) error
	Reject(ctx context.Context, id uuid.UUID) error
}

// AdminStatsService returns storefront-wide totals.
type AdminStatsService interface {
	Admin(ctx context.Context) (*models.AdminStats, error)
}

// AdminHandler serves /v1/admin routes. All routes require the admin role.
type AdminHandler struct {
	moderation ModerationService
	stats      AdminStatsService
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(moderation ModerationService, stats AdminStatsService) *AdminHandler {
	return &AdminHandler{moderation: moderation, stats: stats}
}

// moderationResult is the body returned after approve/reject.
type moderationResult struct {
	ID     uuid.UUID            `json:"id"`
	Status models.ProductStatus `json:"status"`
}

// ListPending handles GET /v1/admin/products/pending.
func (h *AdminHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	products, err := h.moderation.ListPending(r.Context())
	if err != nil {
		response.RespondAppError(w, r, err, "Failed to list pending products")

		return
	}

	response.RespondJSON(w, http.StatusOK, products)
}

// Approve handles POST /v1/admin/products/{id}/approve.
func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.moderation.Approve, models.ProductStatusActive)
}

// Reject handles POST /v1/admin/products/{id}/reject.
func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.moderation.Reject, models.ProductStatusRejected)
}

func (h *AdminHandler) moderate(
	w http.ResponseWriter, r *http.Request, apply func(context.Context, uuid.UUID) error, status models.ProductStatus,
) {
	id, ok := pathID(w, r, "Product")
	if !ok {
		return
	}

	if err := apply(r.Context(), id); err != nil {
		response.RespondAppError(w, r, err, "Failed to moderate product")

		return
	}

	response.RespondJSON(w, http.StatusOK, moderationResult{ID: id, Status: status})
}

// Stats handles GET /v1/admin/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Admin(r.Context())
	if err != nil {
		response.RespondAppError(w, r, err, "Failed to load stats")

		return
	}

	response.RespondJSON(w, http.StatusOK, stats)
}
