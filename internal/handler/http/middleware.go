package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/pkg/httputil"
	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/pkg/logger"

	"github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/internal/identity"
)

type contextKey string

const identityKey contextKey = "identity"

// ContentTypeJSON sets the response content type for API routes.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Auth resolves the Bearer token into an identity and stores it on the
// request context. Requests without a token pass through anonymous; an
// invalid token is rejected.
func Auth(verifier *identity.TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token := strings.TrimPrefix(header, "Bearer ")
			if token == header {
				httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "authorization header must use the Bearer scheme"},
				})
				return
			}

			id, err := verifier.Verify(token)
			if err != nil {
				httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "invalid or expired token"},
				})
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, id)
			ctx = logger.WithUserID(ctx, id.UID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests that did not authenticate.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IdentityFromContext(r.Context()) == nil {
			httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "authentication required"},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests whose identity is not an admin.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := IdentityFromContext(r.Context())
		if id == nil {
			httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "authentication required"},
			})
			return
		}
		if !id.IsAdmin() {
			httputil.WriteJSON(w, http.StatusForbidden, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "FORBIDDEN", Message: "admin role required"},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IdentityFromContext returns the authenticated identity, or nil.
func IdentityFromContext(ctx context.Context) *identity.Identity {
	id, _ := ctx.Value(identityKey).(*identity.Identity)
	return id
}
