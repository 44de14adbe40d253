package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/mkraev/dockeep/internal/documents"
	"github.com/mkraev/dockeep/internal/logging"
	"github.com/mkraev/dockeep/internal/models"
	"github.com/mkraev/dockeep/internal/storage"
	"github.com/mkraev/dockeep/internal/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()

	b, err := storage.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	h := NewHandler(users.New(b), documents.New(b), []byte("test-secret"), time.Hour, logging.NewDefault())
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp, raw
}

// registerAndLogin creates a user and returns a valid bearer token.
func registerAndLogin(t *testing.T, srv *httptest.Server, email, username string) string {
	t.Helper()

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "",
		map[string]string{"email": email, "username": username, "password": "pw1234"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, raw := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "",
		map[string]string{"email": email, "password": "pw1234"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var lr struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(raw, &lr))
	require.NotEmpty(t, lr.Token)
	return lr.Token
}

func TestHealth_Unauthenticated(t *testing.T) {
	srv := setupServer(t)

	resp, raw := doJSON(t, http.MethodGet, srv.URL+"/api/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(raw))
}

func TestDocuments_RequireBearer(t *testing.T) {
	srv := setupServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/documents", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/documents", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	srv := setupServer(t)
	_ = registerAndLogin(t, srv, "a@x.com", "alice")

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "",
		map[string]string{"email": "a@x.com", "username": "other", "password": "pw1234"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestLogin_WrongPassword(t *testing.T) {
	srv := setupServer(t)
	_ = registerAndLogin(t, srv, "a@x.com", "alice")

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "",
		map[string]string{"email": "a@x.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDocumentLifecycle(t *testing.T) {
	srv := setupServer(t)
	token := registerAndLogin(t, srv, "a@x.com", "alice")

	// Create with a client-generated id.
	resp, raw := doJSON(t, http.MethodPost, srv.URL+"/api/documents", token,
		map[string]string{"id": "doc-1", "title": "T", "content": "<p>hi</p>"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var d models.Document
	require.NoError(t, json.Unmarshal(raw, &d))
	assert.Equal(t, "doc-1", d.ID)
	assert.False(t, d.Dirty(), "a server-accepted write is confirmed")

	// List.
	resp, raw = doJSON(t, http.MethodGet, srv.URL+"/api/documents", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []models.DocumentSummary
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "doc-1", list[0].ID)

	// Fetch.
	resp, raw = doJSON(t, http.MethodGet, srv.URL+"/api/documents/doc-1", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &d))
	assert.Equal(t, "<p>hi</p>", d.Content)

	// Delete.
	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/documents/doc-1", token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Gone now.
	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/documents/doc-1", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, raw = doJSON(t, http.MethodGet, srv.URL+"/api/documents", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Empty(t, list)
}

func TestDocuments_OwnershipIsolation(t *testing.T) {
	srv := setupServer(t)
	alice := registerAndLogin(t, srv, "a@x.com", "alice")
	bob := registerAndLogin(t, srv, "b@x.com", "bob")

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/documents", alice,
		map[string]string{"id": "doc-1", "title": "T", "content": "c"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/documents/doc-1", bob, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/documents/doc-1", bob, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestVersionEndpoints(t *testing.T) {
	srv := setupServer(t)
	token := registerAndLogin(t, srv, "a@x.com", "alice")

	for i, content := range []string{"one\n", "two\n"} {
		resp, raw := doJSON(t, http.MethodPost, srv.URL+"/api/documents/doc-1/versions", token,
			map[string]any{
				"document":      map[string]string{"title": "T", "content": content},
				"commitMessage": fmt.Sprintf("save %d", i+1),
			})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var v models.DocumentVersion
		require.NoError(t, json.Unmarshal(raw, &v))
		assert.Equal(t, int64(i+1), v.Number)
	}

	resp, raw := doJSON(t, http.MethodGet, srv.URL+"/api/documents/doc-1/versions", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history []models.DocumentVersion
	require.NoError(t, json.Unmarshal(raw, &history))
	require.Len(t, history, 2)
	assert.Equal(t, int64(2), history[0].Number)

	// Compare.
	resp, raw = doJSON(t, http.MethodGet, srv.URL+"/api/documents/doc-1/versions/1/compare/2", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cmp documents.Comparison
	require.NoError(t, json.Unmarshal(raw, &cmp))
	assert.Equal(t, 1, cmp.LinesAdded)
	assert.Equal(t, 1, cmp.LinesRemoved)

	// Restore v1 → creates v3.
	resp, raw = doJSON(t, http.MethodPost, srv.URL+"/api/documents/doc-1/versions/1/restore", token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var restored models.DocumentVersion
	require.NoError(t, json.Unmarshal(raw, &restored))
	assert.Equal(t, int64(3), restored.Number)
	assert.Equal(t, "one\n", restored.Content)

	// Branch and tag.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/documents/doc-1/branches", token,
		map[string]any{"name": "draft", "fromVersion": 1})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, raw = doJSON(t, http.MethodGet, srv.URL+"/api/documents/doc-1/branches", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var branches []models.Branch
	require.NoError(t, json.Unmarshal(raw, &branches))
	require.Len(t, branches, 1)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/documents/doc-1/versions/2/tags", token,
		map[string]string{"name": "v1.0"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, raw = doJSON(t, http.MethodGet, srv.URL+"/api/documents/doc-1/versions/2/tags", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tags []models.Tag
	require.NoError(t, json.Unmarshal(raw, &tags))
	require.Len(t, tags, 1)
	assert.Equal(t, "v1.0", tags[0].Name)
}
