package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/formbricks/storefront/internal/api/response"
	"github.com/formbricks/storefront/internal/models"
	"github.com/formbricks/storefront/internal/service"
)

// SearchService runs hybrid product search.
type SearchService interface {
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
}

// SearchHandler handles GET /v1/products/search.
type SearchHandler struct {
	service SearchService
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(service SearchService) *SearchHandler {
	return &SearchHandler{service: service}
}

const maxQueryLength = 500

// Search handles GET /v1/products/search?q=.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if len(query) > maxQueryLength {
		response.RespondBadRequest(w, "query too long")

		return
	}

	results, err := h.service.Search(r.Context(), query)
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuery) {
			response.RespondBadRequest(w, "query required")

			return
		}

		if errors.Is(err, service.ErrSearchUnavailable) {
			slog.ErrorContext(r.Context(), "search unavailable", "error", err)
			response.RespondInternalServerError(w, "search failed")

			return
		}

		response.RespondAppError(w, r, err, "search failed")

		return
	}

	response.RespondJSON(w, http.StatusOK, models.SearchResponse{
		Query:   query,
		Results: results,
		Count:   len(results),
	})
}
