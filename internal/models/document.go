// Package models holds the persistence-layer data model shared by the SQL
// stores, the local mirror, the HTTP API, and the sync coordinator.
package models

import "time"

// Document is one rich-text document. The ID is client-generated and globally
// unique. OwnerID is set at creation and never reassigned.
//
// LastModified is the client's logical clock (epoch millis) advanced on every
// edit snapshot; LastSaved is the epoch millis of the last confirmed remote
// persist. A document is dirty while LastModified > LastSaved.
type Document struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	OwnerID      string `json:"-"`
	CreatedAt    int64  `json:"createdAt"`
	UpdatedAt    int64  `json:"updatedAt"`
	LastModified int64  `json:"lastModified"`
	LastSaved    int64  `json:"lastSaved"`
}

// Dirty reports whether the document has local edits not yet confirmed by the
// remote store.
func (d *Document) Dirty() bool {
	return d.LastModified > d.LastSaved
}

// DocumentSummary is the listing shape: everything but the content.
type DocumentSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Summary derives the listing shape from a full document.
func (d *Document) Summary() DocumentSummary {
	return DocumentSummary{ID: d.ID, Title: d.Title, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt}
}

// NowMillis is the single clock used for CreatedAt/UpdatedAt/LastModified/
// LastSaved values across the module.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
