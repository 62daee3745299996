package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/jobhub/internal/common"
	"github.com/dmitrijs2005/jobhub/internal/server/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// accessTokenMiddleware rejects requests without a valid bearer token and
// stores the token claims in the request context.
func (s *Server) accessTokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(header, common.BearerPrefix)
		if !ok || strings.TrimSpace(token) == "" {
			writeError(w, http.StatusUnauthorized, "missing token")
			return
		}

		claims := s.credentials.VerifyToken(strings.TrimSpace(token))
		if claims == nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func claimsFrom(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*auth.Claims)
	return c, ok
}
