package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"github.com/google/uuid"

	"github.com/formbricks/storefront/internal/api/response"
	"github.com/formbricks/storefront/internal/apperrors"
	"github.com/formbricks/storefront/internal/auth"
)

// TokenVerifier validates a raw session token.
type TokenVerifier interface {
	Verify(raw string) (*auth.Principal, error)
}

// RoleResolver returns the current role of a user from the user store.
type RoleResolver interface {
	GetRole(ctx context.Context, userID uuid.UUID) (string, error)
}

// Auth rejects requests without a valid session token and stores the
// principal in the request context.
func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := auth.TokenFromRequest(r)
			if err != nil {
				if errors.Is(err, auth.ErrNoToken) {
					response.RespondUnauthorized(w, "Not authenticated")
				} else {
					response.RespondUnauthorized(w, "Invalid Authorization header format. Expected: Bearer <token>")
				}

				return
			}

			principal, err := verifier.Verify(raw)
			if err != nil {
				response.RespondUnauthorized(w, "Invalid token")

				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}

// OptionalAuth stores the principal when a valid token is present and
// otherwise serves the request anonymously.
func OptionalAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := auth.TokenFromRequest(r)
			if err != nil {
				next.ServeHTTP(w, r)

				return
			}

			principal, err := verifier.Verify(raw)
			if err != nil {
				slog.DebugContext(r.Context(), "optional auth: ignoring invalid token", "error", err)
				next.ServeHTTP(w, r)

				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireRole allows only callers whose stored role is one of roles. The
// role is read from the user store, not the token, so demotions apply at once.
// Must run after Auth.
func RequireRole(resolver RoleResolver, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				response.RespondUnauthorized(w, "Not authenticated")

				return
			}

			role, err := resolver.GetRole(r.Context(), principal.UserID)
			if err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					response.RespondForbidden(w, "Access denied")

					return
				}

				slog.ErrorContext(r.Context(), "require role: lookup failed", "user_id", principal.UserID, "error", err)
				response.RespondInternalServerError(w, "Failed to authorize request")

				return
			}

			if !slices.Contains(roles, role) {
				response.RespondForbidden(w, "Access denied")

				return
			}

			p := *principal
			p.Role = role

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), &p)))
		})
	}
}
