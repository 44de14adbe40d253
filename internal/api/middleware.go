package api

import (
	"net/http"
	"strings"

	"github.com/mkraev/dockeep/internal/auth"
)

// authedHandler is a handler that runs with a verified user id.
type authedHandler func(w http.ResponseWriter, r *http.Request, userID string)

// withAuth verifies the bearer token and passes the user id through. Missing
// or invalid credentials end the request with 401 before any business code
// runs.
func (h *Handler) withAuth(next authedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		userID, err := auth.GetUserIDFromToken(token, h.secret)
		if err != nil {
			http.Error(w, "invalid bearer token", http.StatusUnauthorized)
			return
		}

		next(w, r, userID)
	})
}
