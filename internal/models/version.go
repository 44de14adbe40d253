package models

// DocumentVersion is one row of a document's append-only history.
// Number is monotonic per document and starts at 1. History rows are never
// updated or deleted; restoring an old version appends a new row.
type DocumentVersion struct {
	DocumentID string `json:"documentId"`
	Number     int64  `json:"versionNumber"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	AuthorID   string `json:"authorId"`
	Message    string `json:"commitMessage"`
	CreatedAt  int64  `json:"createdAt"`
}

// Branch is a named pointer created from a specific version of a document.
type Branch struct {
	ID          string `json:"id"`
	DocumentID  string `json:"documentId"`
	Name        string `json:"name"`
	FromVersion int64  `json:"fromVersion"`
	CreatedAt   int64  `json:"createdAt"`
}

// Tag is a named label on one version of a document. Tag names are unique per
// document.
type Tag struct {
	DocumentID string `json:"documentId"`
	Number     int64  `json:"versionNumber"`
	Name       string `json:"name"`
	CreatedAt  int64  `json:"createdAt"`
}
