package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mkraev/dockeep/internal/common"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(msg string) error {
	return fmt.Errorf("%w: %s", common.ErrValidation, msg)
}

// writeError maps the shared error taxonomy onto HTTP statuses. Anything
// unclassified is a 500 with the cause logged, never echoed.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, common.ErrDuplicate):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, common.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, common.ErrInvalidToken):
		http.Error(w, "invalid bearer token", http.StatusUnauthorized)
	default:
		h.log.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
