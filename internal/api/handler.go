// Package api serves the document HTTP API: health, auth, document CRUD and
// the version/branch/tag sub-resources. Every authenticated route expects
// "Authorization: Bearer <token>".
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mkraev/dockeep/internal/auth"
	"github.com/mkraev/dockeep/internal/common"
	"github.com/mkraev/dockeep/internal/documents"
	"github.com/mkraev/dockeep/internal/logging"
	"github.com/mkraev/dockeep/internal/users"
)

type Handler struct {
	users    *users.Store
	docs     *documents.Store
	secret   []byte
	tokenTTL time.Duration
	log      logging.Logger
}

func NewHandler(us *users.Store, ds *documents.Store, secret []byte, tokenTTL time.Duration, log logging.Logger) *Handler {
	return &Handler{users: us, docs: ds, secret: secret, tokenTTL: tokenTTL, log: log}
}

// Routes builds the full route table.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", h.health)
	mux.HandleFunc("POST /api/auth/register", h.register)
	mux.HandleFunc("POST /api/auth/login", h.login)

	mux.Handle("GET /api/documents", h.withAuth(h.listDocuments))
	mux.Handle("POST /api/documents", h.withAuth(h.saveDocument))
	mux.Handle("GET /api/documents/{id}", h.withAuth(h.getDocument))
	mux.Handle("DELETE /api/documents/{id}", h.withAuth(h.deleteDocument))

	mux.Handle("POST /api/documents/{id}/versions", h.withAuth(h.saveVersion))
	mux.Handle("GET /api/documents/{id}/versions", h.withAuth(h.listVersions))
	mux.Handle("POST /api/documents/{id}/versions/{vid}/restore", h.withAuth(h.restoreVersion))
	mux.Handle("GET /api/documents/{id}/versions/{v1}/compare/{v2}", h.withAuth(h.compareVersions))

	mux.Handle("POST /api/documents/{id}/branches", h.withAuth(h.createBranch))
	mux.Handle("GET /api/documents/{id}/branches", h.withAuth(h.listBranches))
	mux.Handle("POST /api/documents/{id}/versions/{vid}/tags", h.withAuth(h.createTag))
	mux.Handle("GET /api/documents/{id}/versions/{vid}/tags", h.withAuth(h.listTags))

	return mux
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, badRequest("invalid json"))
		return
	}

	u, err := h.users.CreateUser(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, badRequest("invalid json"))
		return
	}

	u, err := h.users.ValidateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if u == nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateToken(u.ID, h.secret, h.tokenTTL)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: u})
}

func (h *Handler) listDocuments(w http.ResponseWriter, r *http.Request, userID string) {
	list, err := h.docs.UserDocuments(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) getDocument(w http.ResponseWriter, r *http.Request, userID string) {
	d, err := h.docs.UserDocument(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type saveDocumentRequest struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// saveDocument upserts. A missing id means "create": the server assigns one.
// A write the server accepts is by definition confirmed, so last_saved is
// aligned with last_modified before the document is returned.
func (h *Handler) saveDocument(w http.ResponseWriter, r *http.Request, userID string) {
	var req saveDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, badRequest("invalid json"))
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	d, err := h.docs.SaveDocument(r.Context(), req.ID, req.Title, req.Content, userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.docs.MarkSaved(r.Context(), d.ID, userID); err != nil {
		h.writeError(w, r, err)
		return
	}
	d.LastSaved = d.LastModified
	writeJSON(w, http.StatusOK, d)
}

// deleteDocument answers 404 when nothing was removed, not 204. A client
// deleting several documents needs an unknown id reported as that item's
// failure, so a repeated delete of the same id is not treated as a no-op
// success. Revisit if plain idempotent deletes ever outweigh batch
// attribution.
func (h *Handler) deleteDocument(w http.ResponseWriter, r *http.Request, userID string) {
	n, err := h.docs.DeleteUserDocument(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if n == 0 {
		h.writeError(w, r, common.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
