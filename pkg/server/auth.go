package server

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/powerroof/powerroof/pkg/log"
)

type contextKey string

const adminContextKey contextKey = "admin"

// adminMiddleware only lets through requests carrying a valid Google ID token
// whose email is listed in admin-emails.
func (s *Server) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.bypassAuth {
			ctx = context.WithValue(ctx, adminContextKey, identity{})
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}
		if s.verifier == nil {
			log.Ctx(ctx).WarnContext(ctx, "price write rejected, no oidc audience configured")
			writeJSONError(w, "writes are disabled", http.StatusForbidden)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSONError(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			log.Ctx(ctx).WarnContext(ctx, "invalid auth header")
			writeJSONError(w, "invalid auth header", http.StatusBadRequest)
			return
		}

		id, err := s.verifier(ctx, token)
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "token validation failed", slog.Any("error", err))
			writeJSONError(w, "invalid auth token", http.StatusUnauthorized)
			return
		}
		if !s.isAdmin(id.Email) {
			log.Ctx(ctx).WarnContext(ctx, "price write denied", slog.String("email", id.Email))
			writeJSONError(w, "forbidden", http.StatusForbidden)
			return
		}

		ctx = log.With(ctx, log.Ctx(ctx).With(slog.String("authEmail", id.Email)))
		ctx = context.WithValue(ctx, adminContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) isAdmin(email string) bool {
	if email == "" {
		return false
	}
	for _, admin := range s.adminEmails {
		if subtle.ConstantTimeCompare([]byte(email), []byte(admin)) == 1 {
			return true
		}
	}
	return false
}
