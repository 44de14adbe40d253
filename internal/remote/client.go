// Package remote is the authenticated HTTP client for the document API.
// Every call's outcome is classified as exactly one of: success (decoded
// payload), ErrUnauthorized (credential purged, OnAuthFailure hook fired), or
// ErrUnavailable (network error, timeout, 5xx). Calls carry a bounded
// timeout, so a hung server surfaces as ErrUnavailable rather than a stall.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mkraev/dockeep/internal/logging"
	"github.com/mkraev/dockeep/internal/models"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
	log     logging.Logger

	mu            sync.Mutex
	token         string
	onAuthFailure func()
}

type Option func(*Client)

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithAuthFailureHook installs the global 401/403 handler. The hook runs
// after the credential has been purged; the application shell uses it to
// force re-authentication.
func WithAuthFailureHook(fn func()) Option {
	return func(c *Client) { c.onAuthFailure = fn }
}

func New(baseURL string, log logging.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		log:     log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetToken installs the bearer credential attached to every request.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the current credential, empty after a purge.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// do executes one call and classifies the outcome. A non-nil out receives the
// decoded 2xx body.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.purgeCredential(ctx)
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: server returned %s", ErrUnavailable, resp.Status)
	case resp.StatusCode >= 400:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("server rejected request: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// purgeCredential drops the token and fires the auth-failure hook once per
// incident. With the token gone, concurrent calls fail fast without firing
// the hook again.
func (c *Client) purgeCredential(ctx context.Context) {
	c.mu.Lock()
	hadToken := c.token != ""
	c.token = ""
	hook := c.onAuthFailure
	c.mu.Unlock()

	c.log.Warn(ctx, "credential rejected, purging")
	if hadToken && hook != nil {
		hook()
	}
}

// CheckHealth probes liveness without credentials. It is called once at
// session start to pick the sync strategy; it is never re-polled mid-session.
func (c *Client) CheckHealth(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil)
}

// Register creates an account on the remote store.
func (c *Client) Register(ctx context.Context, email, username, password string) error {
	in := map[string]string{"email": email, "username": username, "password": password}
	return c.do(ctx, http.MethodPost, "/api/auth/register", in, nil)
}

// Login exchanges credentials for a bearer token and installs it.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	in := map[string]string{"email": email, "password": password}
	var out struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", in, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out.User, nil
}

func (c *Client) Documents(ctx context.Context) ([]models.DocumentSummary, error) {
	var out []models.DocumentSummary
	if err := c.do(ctx, http.MethodGet, "/api/documents", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Document(ctx context.Context, id string) (*models.Document, error) {
	out := &models.Document{}
	if err := c.do(ctx, http.MethodGet, "/api/documents/"+id, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SaveDocument(ctx context.Context, doc *models.Document) (*models.Document, error) {
	in := map[string]string{"id": doc.ID, "title": doc.Title, "content": doc.Content}
	out := &models.Document{}
	if err := c.do(ctx, http.MethodPost, "/api/documents", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/documents/"+id, nil, nil)
}

func (c *Client) SaveVersion(ctx context.Context, doc *models.Document, commitMessage string) (*models.DocumentVersion, error) {
	in := map[string]any{
		"document":      map[string]string{"id": doc.ID, "title": doc.Title, "content": doc.Content},
		"commitMessage": commitMessage,
	}
	out := &models.DocumentVersion{}
	if err := c.do(ctx, http.MethodPost, "/api/documents/"+doc.ID+"/versions", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Versions(ctx context.Context, docID string) ([]models.DocumentVersion, error) {
	var out []models.DocumentVersion
	if err := c.do(ctx, http.MethodGet, "/api/documents/"+docID+"/versions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RestoreVersion(ctx context.Context, docID string, number int64) (*models.DocumentVersion, error) {
	out := &models.DocumentVersion{}
	path := fmt.Sprintf("/api/documents/%s/versions/%d/restore", docID, number)
	if err := c.do(ctx, http.MethodPost, path, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CompareVersions(ctx context.Context, docID string, from, to int64) (json.RawMessage, error) {
	var out json.RawMessage
	path := fmt.Sprintf("/api/documents/%s/versions/%d/compare/%d", docID, from, to)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateBranch(ctx context.Context, docID, name string, fromVersion int64) (*models.Branch, error) {
	in := map[string]any{"name": name, "fromVersion": fromVersion}
	out := &models.Branch{}
	if err := c.do(ctx, http.MethodPost, "/api/documents/"+docID+"/branches", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Branches(ctx context.Context, docID string) ([]models.Branch, error) {
	var out []models.Branch
	if err := c.do(ctx, http.MethodGet, "/api/documents/"+docID+"/branches", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateTag(ctx context.Context, docID string, number int64, name string) (*models.Tag, error) {
	in := map[string]string{"name": name}
	out := &models.Tag{}
	path := fmt.Sprintf("/api/documents/%s/versions/%d/tags", docID, number)
	if err := c.do(ctx, http.MethodPost, path, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Tags(ctx context.Context, docID string, number int64) ([]models.Tag, error) {
	var out []models.Tag
	path := fmt.Sprintf("/api/documents/%s/versions/%d/tags", docID, number)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
