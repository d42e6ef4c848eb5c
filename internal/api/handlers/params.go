package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/formbricks/storefront/internal/api/response"
	"github.com/formbricks/storefront/internal/auth"
)

// pathID parses the {id} path value, writing 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, label string) (uuid.UUID, bool) {
	raw := r.PathValue("id")
	if raw == "" {
		response.RespondBadRequest(w, label+" ID is required")

		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		response.RespondBadRequest(w, "Invalid "+label+" ID")

		return uuid.Nil, false
	}

	return id, true
}

// caller returns the authenticated principal, writing 401 when absent.
func caller(w http.ResponseWriter, r *http.Request) (*auth.Principal, bool) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		response.RespondUnauthorized(w, "Not authenticated")

		return nil, false
	}

	return p, true
}
