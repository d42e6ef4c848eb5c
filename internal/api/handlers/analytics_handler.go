package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/formbricks/storefront/internal/api/response"
	"github.com/formbricks/storefront/internal/api/validation"
	"github.com/formbricks/storefront/internal/models"
)

// AnalyticsService records interactions.
type AnalyticsService interface {
	Track(ctx context.Context, userID uuid.UUID, req *models.TrackEventRequest) (*models.Interaction, error)
	Preferences(ctx context.Context, userID uuid.UUID) (*models.Preferences, error)
}

// AnalyticsHandler serves /v1/analytics routes.
type AnalyticsHandler struct {
	service AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(service AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// Track handles POST /v1/analytics/track.
func (h *AnalyticsHandler) Track(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}

	var req models.TrackEventRequest
	if err := validation.DecodeJSON(r, &req); err != nil {
		validation.RespondDecodeError(w, err)

		return
	}

	interaction, err := h.service.Track(r.Context(), p.UserID, &req)
	if err != nil {
		response.RespondAppError(w, r, err, "Failed to track event")

		return
	}

	response.RespondJSON(w, http.StatusCreated, interaction)
}

// Preferences handles GET /v1/analytics/preferences.
func (h *AnalyticsHandler) Preferences(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}

	prefs, err := h.service.Preferences(r.Context(), p.UserID)
	if err != nil {
		response.RespondAppError(w, r, err, "Failed to load preferences")

		return
	}

	response.RespondJSON(w, http.StatusOK, prefs)
}
