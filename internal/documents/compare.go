package documents

import (
	"context"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Hunk is one run of consecutive lines sharing a diff operation.
type Hunk struct {
	Op   string `json:"op"` // "added", "removed" or "unchanged"
	Text string `json:"text"`
}

// Comparison is a line-level diff between two versions of one document.
type Comparison struct {
	DocumentID   string `json:"documentId"`
	From         int64  `json:"from"`
	To           int64  `json:"to"`
	Hunks        []Hunk `json:"hunks"`
	LinesAdded   int    `json:"linesAdded"`
	LinesRemoved int    `json:"linesRemoved"`
}

// CompareVersions diffs version `from` against version `to` line by line.
// Ownership rules match every other lookup: a non-owner gets ErrNotFound.
func (s *Store) CompareVersions(ctx context.Context, id, ownerID string, from, to int64) (*Comparison, error) {
	if _, err := s.UserDocument(ctx, id, ownerID); err != nil {
		return nil, err
	}
	a, err := s.version(ctx, s.db, id, from)
	if err != nil {
		return nil, err
	}
	b, err := s.version(ctx, s.db, id, to)
	if err != nil {
		return nil, err
	}

	cmp := &Comparison{DocumentID: id, From: from, To: to, Hunks: diffLines(a.Content, b.Content)}
	for _, h := range cmp.Hunks {
		n := countLines(h.Text)
		switch h.Op {
		case "added":
			cmp.LinesAdded += n
		case "removed":
			cmp.LinesRemoved += n
		}
	}
	return cmp, nil
}

// diffLines runs diff-match-patch in line mode: lines are mapped to runes,
// diffed, then mapped back, which keeps hunks aligned on line boundaries.
func diffLines(a, b string) []Hunk {
	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	hunks := make([]Hunk, 0, len(diffs))
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		h := Hunk{Text: d.Text}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			h.Op = "added"
		case diffmatchpatch.DiffDelete:
			h.Op = "removed"
		default:
			h.Op = "unchanged"
		}
		hunks = append(hunks, h)
	}
	return hunks
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
