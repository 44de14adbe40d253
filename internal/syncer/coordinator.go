// Package syncer decides, per session, whether the remote store or the local
// mirror is authoritative, and propagates mutations to both sides.
//
// The session state machine is ModeUnknown -> (health probe) -> ModeServerUp
// or ModeServerDown. A transport failure on any later call demotes the
// session to ModeServerDown for its remaining lifetime; there is no automatic
// re-probe. Only the coordinator flips the mode.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mkraev/dockeep/internal/localcache"
	"github.com/mkraev/dockeep/internal/logging"
	"github.com/mkraev/dockeep/internal/models"
	"github.com/mkraev/dockeep/internal/remote"
)

type Mode string

const (
	ModeUnknown    Mode = "unknown"
	ModeServerUp   Mode = "server-up"
	ModeServerDown Mode = "server-down"
)

// RemoteAPI is the slice of the remote client the coordinator uses. The
// concrete *remote.Client satisfies it; tests substitute a fake.
type RemoteAPI interface {
	CheckHealth(ctx context.Context) error
	Documents(ctx context.Context) ([]models.DocumentSummary, error)
	Document(ctx context.Context, id string) (*models.Document, error)
	SaveDocument(ctx context.Context, doc *models.Document) (*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	Versions(ctx context.Context, docID string) ([]models.DocumentVersion, error)
	SaveVersion(ctx context.Context, doc *models.Document, commitMessage string) (*models.DocumentVersion, error)
}

// WriteReport states which sides of a mutation persisted. A mutation never
// claims success while silently failing on a side it claimed to write.
type WriteReport struct {
	Local  bool
	Remote bool
}

// BatchFailure attributes a failed batch-delete item.
type BatchFailure struct {
	ID  string
	Err error
}

// BatchResult reports a batch delete. When Failed is non-empty, no local
// removal happened for ANY item of the batch.
type BatchResult struct {
	Deleted []string
	Failed  []BatchFailure
}

type Coordinator struct {
	remote RemoteAPI
	cache  *localcache.Cache
	userID string
	log    logging.Logger

	mu   sync.Mutex
	mode Mode
}

func New(r RemoteAPI, cache *localcache.Cache, userID string, log logging.Logger) *Coordinator {
	return &Coordinator{remote: r, cache: cache, userID: userID, log: log, mode: ModeUnknown}
}

// Mode returns the session's current sync mode.
func (c *Coordinator) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Coordinator) setMode(mode Mode) Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.mode
	c.mode = mode
	return prev
}

// demote drops the session to ModeServerDown after a transport failure.
func (c *Coordinator) demote(ctx context.Context, cause error) {
	if prev := c.setMode(ModeServerDown); prev != ModeServerDown {
		c.log.Warn(ctx, "server unreachable, session demoted to local-only", "cause", cause)
	}
}

// Load decides the session's authoritative source and returns the document
// list. On ModeServerUp the remote list unconditionally replaces the local
// mirror (pull-wins); on ModeServerDown the mirror is served as-is.
func (c *Coordinator) Load(ctx context.Context) ([]models.Document, error) {
	if c.Mode() == ModeUnknown {
		if err := c.remote.CheckHealth(ctx); err != nil {
			c.setMode(ModeServerDown)
			c.log.Info(ctx, "health probe failed, starting in local-only mode", "cause", err)
		} else {
			c.setMode(ModeServerUp)
			c.log.Info(ctx, "health probe ok, starting in server mode")
		}
	}

	if c.Mode() == ModeServerDown {
		return c.cache.Documents(c.userID), nil
	}

	docs, err := c.pullAll(ctx)
	if err != nil {
		if errors.Is(err, remote.ErrUnavailable) {
			c.demote(ctx, err)
			return c.cache.Documents(c.userID), nil
		}
		return nil, err
	}

	if dirty := c.countDirty(); dirty > 0 {
		c.log.Warn(ctx, "pull-wins load discarding dirty local documents", "count", dirty)
	}
	if err := c.cache.ReplaceAll(c.userID, docs); err != nil {
		return nil, fmt.Errorf("replacing local mirror: %w", err)
	}
	return docs, nil
}

// pullAll fetches the full remote document list, content included.
func (c *Coordinator) pullAll(ctx context.Context) ([]models.Document, error) {
	summaries, err := c.remote.Documents(ctx)
	if err != nil {
		return nil, err
	}

	docs := make([]models.Document, 0, len(summaries))
	for _, s := range summaries {
		d, err := c.remote.Document(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, nil
}

func (c *Coordinator) countDirty() int {
	n := 0
	for _, d := range c.cache.Documents(c.userID) {
		if d.Dirty() {
			n++
		}
	}
	return n
}

// Save writes the edit snapshot locally first (the UI never blocks on the
// network), then pushes to the remote store when the session is ServerUp.
// The report states exactly which sides persisted.
func (c *Coordinator) Save(ctx context.Context, doc *models.Document) (WriteReport, error) {
	var report WriteReport

	doc.OwnerID = c.userID
	doc.LastModified = models.NowMillis()
	if doc.CreatedAt == 0 {
		doc.CreatedAt = doc.LastModified
	}
	doc.UpdatedAt = doc.LastModified

	if err := c.cache.SaveDocument(c.userID, doc); err != nil {
		return report, err
	}
	report.Local = true

	if c.Mode() != ModeServerUp {
		return report, nil
	}

	saved, err := c.remote.SaveDocument(ctx, doc)
	if err != nil {
		if errors.Is(err, remote.ErrUnavailable) {
			c.demote(ctx, err)
			return report, nil
		}
		if errors.Is(err, remote.ErrUnauthorized) {
			// Handled globally by the client's purge hook; the local
			// write stands.
			c.log.Warn(ctx, "remote save rejected credential", "doc", doc.ID)
			return report, nil
		}
		return report, err
	}

	report.Remote = true
	doc.LastSaved = saved.LastSaved
	if doc.LastSaved == 0 {
		doc.LastSaved = doc.LastModified
	}
	if err := c.cache.SaveDocument(c.userID, doc); err != nil {
		return report, err
	}
	return report, nil
}

// Delete removes one document. When the session is ServerUp the remote
// deletion must be confirmed before any local removal; a failed remote
// delete leaves the mirror untouched. In local-only mode removal is
// immediate.
func (c *Coordinator) Delete(ctx context.Context, id string) (WriteReport, error) {
	var report WriteReport

	if c.Mode() == ModeServerUp {
		if err := c.remote.DeleteDocument(ctx, id); err != nil {
			if errors.Is(err, remote.ErrUnavailable) {
				c.demote(ctx, err)
			}
			return report, fmt.Errorf("remote delete unconfirmed: %w", err)
		}
		report.Remote = true
	}

	if _, err := c.cache.DeleteDocument(c.userID, id); err != nil {
		return report, err
	}
	report.Local = true
	return report, nil
}

// BatchDelete attempts each remote deletion individually and is
// all-or-nothing at batch granularity: if any item fails remotely, the
// failures are itemized and NO local removal happens for the batch.
// Attempts run sequentially; a slow call stalls the remainder of its batch.
func (c *Coordinator) BatchDelete(ctx context.Context, ids []string) (*BatchResult, error) {
	result := &BatchResult{}

	if c.Mode() == ModeServerUp {
		unreachable := false
		for _, id := range ids {
			if unreachable {
				result.Failed = append(result.Failed, BatchFailure{ID: id, Err: remote.ErrUnavailable})
				continue
			}
			if err := c.remote.DeleteDocument(ctx, id); err != nil {
				if errors.Is(err, remote.ErrUnavailable) {
					c.demote(ctx, err)
					unreachable = true
				}
				result.Failed = append(result.Failed, BatchFailure{ID: id, Err: err})
			}
		}
		if len(result.Failed) > 0 {
			c.log.Warn(ctx, "batch delete incomplete, skipping local removal",
				"failed", len(result.Failed), "total", len(ids))
			return result, nil
		}
	}

	for _, id := range ids {
		if _, err := c.cache.DeleteDocument(c.userID, id); err != nil {
			return result, err
		}
		result.Deleted = append(result.Deleted, id)
	}
	return result, nil
}

// SaveWithHistory saves the snapshot and, when the remote is reachable,
// records a named version there, mirroring the returned history locally.
func (c *Coordinator) SaveWithHistory(ctx context.Context, doc *models.Document, commitMessage string) (WriteReport, error) {
	report, err := c.Save(ctx, doc)
	if err != nil || !report.Remote {
		return report, err
	}

	if _, err := c.remote.SaveVersion(ctx, doc, commitMessage); err != nil {
		if errors.Is(err, remote.ErrUnavailable) {
			c.demote(ctx, err)
			return report, nil
		}
		return report, err
	}

	if versions, err := c.remote.Versions(ctx, doc.ID); err == nil {
		if err := c.cache.SaveVersions(c.userID, doc.ID, versions); err != nil {
			return report, err
		}
	}
	return report, nil
}

// History returns the document's version list, remote first when reachable
// (mirrored into the cache), otherwise the mirrored copy.
func (c *Coordinator) History(ctx context.Context, docID string) ([]models.DocumentVersion, error) {
	if c.Mode() == ModeServerUp {
		versions, err := c.remote.Versions(ctx, docID)
		if err == nil {
			if err := c.cache.SaveVersions(c.userID, docID, versions); err != nil {
				return nil, err
			}
			return versions, nil
		}
		if errors.Is(err, remote.ErrUnavailable) {
			c.demote(ctx, err)
		} else {
			return nil, err
		}
	}
	return c.cache.Versions(c.userID, docID), nil
}
