package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/crewhub/internal/auth"
)

// Auth authenticates the bearer token and stores the actor in the request
// context. WebSocket clients that cannot set headers may pass the token in
// the access_token query parameter.
func Auth(jwtSecret, issuer string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := extractBearer(r)
			if tok == "" {
				tok = r.URL.Query().Get("access_token")
			}
			if tok == "" {
				http.Error(w, `{"title":"Unauthorized","status":401,"detail":"missing credentials"}`, http.StatusUnauthorized)
				return
			}

			actor, err := auth.ValidateToken(jwtSecret, issuer, tok)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("middleware.Auth: rejected token")
				http.Error(w, `{"title":"Unauthorized","status":401,"detail":"invalid credentials"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), *actor)))
		})
	}
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return h[7:]
	}
	return ""
}
