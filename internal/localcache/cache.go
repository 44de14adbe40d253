// Package localcache is the durable per-user document mirror used when the
// remote store is unreachable. It is capacity-limited storage, not an
// evictable cache: once a user holds MaxDocumentsPerUser documents, further
// creations are rejected and nothing is ever dropped to make room.
//
// The on-disk layout is one JSON file with two maps: user id → ordered
// document list, and user id → document id → version list.
package localcache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mkraev/dockeep/internal/common"
	"github.com/mkraev/dockeep/internal/logging"
	"github.com/mkraev/dockeep/internal/models"
)

// MaxDocumentsPerUser is the fixed per-user capacity.
const MaxDocumentsPerUser = 20

type Cache struct {
	path string
	log  logging.Logger
	data cacheFile
}

type cacheFile struct {
	Documents map[string][]models.Document                    `json:"documents"`
	Versions  map[string]map[string][]models.DocumentVersion `json:"versions"`
}

// Open loads the mirror at path, creating an empty one if the file does not
// exist yet.
func Open(path string, log logging.Logger) (*Cache, error) {
	c := &Cache{
		path: path,
		log:  log,
		data: cacheFile{
			Documents: map[string][]models.Document{},
			Versions:  map[string]map[string][]models.DocumentVersion{},
		},
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("reading cache file: %w", err)
	}
	if err := json.Unmarshal(raw, &c.data); err != nil {
		return nil, fmt.Errorf("parsing cache file: %w", err)
	}
	if c.data.Documents == nil {
		c.data.Documents = map[string][]models.Document{}
	}
	if c.data.Versions == nil {
		c.data.Versions = map[string]map[string][]models.DocumentVersion{}
	}
	return c, nil
}

// SaveDocument upserts. A new id beyond the capacity limit is rejected with
// common.ErrCapacityExceeded; updates to existing documents always pass.
// New documents go to the front of the ordered list.
func (c *Cache) SaveDocument(userID string, doc *models.Document) error {
	docs := c.data.Documents[userID]

	for i := range docs {
		if docs[i].ID == doc.ID {
			docs[i] = *doc
			return c.persist()
		}
	}

	if len(docs) >= MaxDocumentsPerUser {
		return fmt.Errorf("%w (limit %d)", common.ErrCapacityExceeded, MaxDocumentsPerUser)
	}

	c.data.Documents[userID] = append([]models.Document{*doc}, docs...)
	return c.persist()
}

// ReplaceAll swaps the user's entire mirrored list for docs. This is the
// pull-wins hydration path: the remote list is authoritative, so the cap does
// not apply here and pre-existing local-only documents are discarded.
func (c *Cache) ReplaceAll(userID string, docs []models.Document) error {
	replaced := make([]models.Document, len(docs))
	copy(replaced, docs)
	c.data.Documents[userID] = replaced
	return c.persist()
}

// Documents returns a copy of the user's ordered document list.
func (c *Cache) Documents(userID string) []models.Document {
	docs := c.data.Documents[userID]
	out := make([]models.Document, len(docs))
	copy(out, docs)
	return out
}

// Document returns one mirrored document or common.ErrNotFound.
func (c *Cache) Document(userID, id string) (*models.Document, error) {
	for _, d := range c.data.Documents[userID] {
		if d.ID == id {
			copied := d
			return &copied, nil
		}
	}
	return nil, common.ErrNotFound
}

// DeleteDocument removes the document and its mirrored versions. Removing an
// absent id is a no-op reported through the boolean.
func (c *Cache) DeleteDocument(userID, id string) (bool, error) {
	docs := c.data.Documents[userID]
	for i := range docs {
		if docs[i].ID == id {
			c.data.Documents[userID] = append(docs[:i:i], docs[i+1:]...)
			if versions := c.data.Versions[userID]; versions != nil {
				delete(versions, id)
			}
			return true, c.persist()
		}
	}
	return false, nil
}

// SaveVersions mirrors a document's version list.
func (c *Cache) SaveVersions(userID, docID string, versions []models.DocumentVersion) error {
	if c.data.Versions[userID] == nil {
		c.data.Versions[userID] = map[string][]models.DocumentVersion{}
	}
	copied := make([]models.DocumentVersion, len(versions))
	copy(copied, versions)
	c.data.Versions[userID][docID] = copied
	return c.persist()
}

// Versions returns the mirrored version list, oldest first as stored.
func (c *Cache) Versions(userID, docID string) []models.DocumentVersion {
	versions := c.data.Versions[userID][docID]
	out := make([]models.DocumentVersion, len(versions))
	copy(out, versions)
	return out
}

// persist writes the whole file atomically: temp file in the same directory,
// then rename.
func (c *Cache) persist() error {
	raw, err := json.MarshalIndent(c.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}

	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, ".cache-*")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("closing cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replacing cache file: %w", err)
	}

	c.log.Debug(context.Background(), "cache persisted", "path", c.path)
	return nil
}
