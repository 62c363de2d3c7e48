package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"postcart/internal/domain"
)

type contextKey string

const sellerIDKey contextKey = "seller_id"

// SellerAuth authenticates API requests with an opaque bearer token and
// resolves the owning seller
type SellerAuth struct {
	verifier domain.TokenVerifier
	logger   *slog.Logger
}

// NewSellerAuth creates a new seller authentication middleware
func NewSellerAuth(verifier domain.TokenVerifier, logger *slog.Logger) *SellerAuth {
	return &SellerAuth{
		verifier: verifier,
		logger:   logger,
	}
}

// Middleware returns the authentication middleware handler. Authenticated
// requests carry the seller ID in the request context.
func (a *SellerAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			a.logger.Warn("Request rejected - no authorization header",
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			http.Error(w, "Unauthorized - missing Authorization header", http.StatusUnauthorized)
			return
		}

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			http.Error(w, "Unauthorized - expected Bearer token", http.StatusUnauthorized)
			return
		}

		sellerID, err := a.verifier.Verify(r.Context(), token)
		if err != nil {
			a.logger.Warn("Request rejected - invalid token",
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			http.Error(w, "Unauthorized - invalid API token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), sellerIDKey, sellerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SellerID returns the authenticated seller ID from the request context,
// or "" for unauthenticated requests
func SellerID(ctx context.Context) string {
	id, _ := ctx.Value(sellerIDKey).(string)
	return id
}
