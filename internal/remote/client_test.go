package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mkraev/dockeep/internal/logging"
	"github.com/mkraev/dockeep/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckHealth_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"), "health probe is unauthenticated")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer srv.Close()

	c := New(srv.URL, logging.NewDefault())
	assert.NoError(t, c.CheckHealth(context.Background()))
}

func TestDo_AttachesBearer(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode([]models.DocumentSummary{})
	}))
	defer srv.Close()

	c := New(srv.URL, logging.NewDefault())
	c.SetToken("tok-123")

	_, err := c.Documents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", got)
}

func TestDo_AuthFailurePurgesAndFiresHookOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	hookCalls := 0
	c := New(srv.URL, logging.NewDefault(), WithAuthFailureHook(func() { hookCalls++ }))
	c.SetToken("expired")

	_, err := c.Documents(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, c.Token(), "credential purged")
	assert.Equal(t, 1, hookCalls)

	// A second call with no credential classifies the same way but the
	// hook does not fire again.
	_, err = c.Documents(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 1, hookCalls)
}

func TestDo_ForbiddenIsAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(srv.URL, logging.NewDefault())
	c.SetToken("tok")

	err := c.DeleteDocument(context.Background(), "doc-1")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestDo_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, logging.NewDefault())
	_, err := c.Documents(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDo_ConnectionRefusedIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // shut down before calling

	c := New(srv.URL, logging.NewDefault())
	err := c.CheckHealth(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDo_TimeoutIsUnavailable(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer func() { close(block); srv.Close() }()

	c := New(srv.URL, logging.NewDefault(), WithTimeout(50*time.Millisecond))
	err := c.CheckHealth(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDo_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, logging.NewDefault())
	c.SetToken("tok")

	_, err := c.Document(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLogin_InstallsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/login", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": "tok-456",
			"user":  models.User{ID: "u1", Email: "a@x.com", Username: "alice"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, logging.NewDefault())
	u, err := c.Login(context.Background(), "a@x.com", "pw1234")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "tok-456", c.Token())
}
