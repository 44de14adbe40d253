package api

import (
	"encoding/json"
	"net/http"
	"strconv"
)

type saveVersionRequest struct {
	Document      saveDocumentRequest `json:"document"`
	CommitMessage string              `json:"commitMessage"`
}

func (h *Handler) saveVersion(w http.ResponseWriter, r *http.Request, userID string) {
	docID := r.PathValue("id")

	var req saveVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, badRequest("invalid json"))
		return
	}

	v, err := h.docs.SaveDocumentWithVersion(r.Context(), docID, req.Document.Title, req.Document.Content, userID, userID, req.CommitMessage)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.docs.MarkSaved(r.Context(), docID, userID); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *Handler) listVersions(w http.ResponseWriter, r *http.Request, userID string) {
	history, err := h.docs.VersionHistory(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *Handler) restoreVersion(w http.ResponseWriter, r *http.Request, userID string) {
	number, err := versionNumber(r.PathValue("vid"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	v, restoreErr := h.docs.RestoreVersion(r.Context(), r.PathValue("id"), userID, number, userID)
	if restoreErr != nil {
		h.writeError(w, r, restoreErr)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *Handler) compareVersions(w http.ResponseWriter, r *http.Request, userID string) {
	from, err := versionNumber(r.PathValue("v1"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	to, err := versionNumber(r.PathValue("v2"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	cmp, err := h.docs.CompareVersions(r.Context(), r.PathValue("id"), userID, from, to)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

type createBranchRequest struct {
	Name        string `json:"name"`
	FromVersion int64  `json:"fromVersion"`
}

func (h *Handler) createBranch(w http.ResponseWriter, r *http.Request, userID string) {
	var req createBranchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, badRequest("invalid json"))
		return
	}

	b, err := h.docs.CreateBranch(r.Context(), r.PathValue("id"), userID, req.Name, req.FromVersion)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handler) listBranches(w http.ResponseWriter, r *http.Request, userID string) {
	list, err := h.docs.Branches(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type createTagRequest struct {
	Name string `json:"name"`
}

func (h *Handler) createTag(w http.ResponseWriter, r *http.Request, userID string) {
	number, err := versionNumber(r.PathValue("vid"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req createTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, badRequest("invalid json"))
		return
	}

	tag, err := h.docs.CreateTag(r.Context(), r.PathValue("id"), userID, number, req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

func (h *Handler) listTags(w http.ResponseWriter, r *http.Request, userID string) {
	number, err := versionNumber(r.PathValue("vid"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// Tags are listed per document; the version segment just scopes the URL.
	tags, err := h.docs.Tags(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	filtered := tags[:0:0]
	for _, t := range tags {
		if t.Number == number {
			filtered = append(filtered, t)
		}
	}
	writeJSON(w, http.StatusOK, filtered)
}

func versionNumber(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 1 {
		return 0, badRequest("invalid version number")
	}
	return n, nil
}
