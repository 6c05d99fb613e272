package api

import (
	"context"
	"net/http"

	"github.com/hivereads/hive-server/internal/http/response"
)

// userHeader carries the requesting user's id. Hive instances run behind a
// trusted reverse proxy that authenticates and injects this header;
// in-process auth is out of scope here.
const userHeader = "X-Hive-User"

type contextKey string

const userIDKey contextKey = "userID"

// UserID extracts the requesting user's id from a request. Empty when the
// header is absent.
func UserID(r *http.Request) string {
	return r.Header.Get(userHeader)
}

// requireUser rejects requests without a user identity and stores the id on
// the request context for handlers.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := UserID(r)
		if userID == "" {
			response.Unauthorized(w, "missing "+userHeader+" header", s.logger)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userFromContext returns the authenticated user id set by requireUser.
func userFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}
