package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/mkraev/dockeep/internal/models"
	"github.com/mkraev/dockeep/internal/syncer"
)

var errNotLoggedIn = errors.New("not logged in")

func (a *App) requireLogin() error {
	if !a.isLoggedIn() {
		fmt.Println("Please log in first.")
		return errNotLoggedIn
	}
	return nil
}

// List prints the current document list from the session's authoritative
// source.
func (a *App) List(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	docs := a.cache.Documents(a.userID)
	if len(docs) == 0 {
		fmt.Println("No documents.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tUPDATED\tSTATE")
	for _, d := range docs {
		state := "saved"
		if d.Dirty() {
			state = "dirty"
		}
		updated := time.UnixMilli(d.UpdatedAt).Format("2006-01-02 15:04")
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.ID, d.Title, updated, state)
	}
	return w.Flush()
}

// Save creates a new document, or edits an existing one when an id is
// given. With a commit message the snapshot also records a named version.
func (a *App) Save(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	doc := &models.Document{ID: uuid.NewString()}
	if len(args) > 0 {
		existing, err := a.cache.Document(a.userID, args[0])
		if err != nil {
			fmt.Println("Unknown document:", args[0])
			return err
		}
		doc = existing
	}

	title, err := GetSimpleText(a.reader, "Title:", os.Stdout)
	if err != nil {
		return err
	}
	if title != "" {
		doc.Title = title
	}
	content, err := GetMultiline(a.reader, "Content:", os.Stdout)
	if err != nil {
		return err
	}
	doc.Content = content

	message, err := GetSimpleText(a.reader, "Commit message (empty for plain save):", os.Stdout)
	if err != nil {
		return err
	}

	var report syncer.WriteReport
	if message != "" {
		report, err = a.coord.SaveWithHistory(ctx, doc, message)
	} else {
		report, err = a.coord.Save(ctx, doc)
	}
	if err != nil {
		fmt.Println("Save failed:", err)
		return err
	}

	switch {
	case report.Remote:
		fmt.Println("Saved locally and on the server.")
	case report.Local:
		fmt.Println("Saved locally; the server is unreachable.")
	}
	return nil
}

// Open prints a single document.
func (a *App) Open(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if len(args) == 0 {
		fmt.Println("Usage: open <id>")
		return nil
	}

	doc, err := a.cache.Document(a.userID, args[0])
	if err != nil {
		fmt.Println("Unknown document:", args[0])
		return err
	}
	fmt.Printf("# %s\n\n%s\n", doc.Title, doc.Content)
	return nil
}

// Delete removes one or more documents. With several ids the removal is
// all-or-nothing: any remote failure leaves every local copy in place.
func (a *App) Delete(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if len(args) == 0 {
		fmt.Println("Usage: delete <id> [id...]")
		return nil
	}

	result, err := a.coord.BatchDelete(ctx, args)
	if err != nil {
		fmt.Println("Delete failed:", err)
		return err
	}
	for _, f := range result.Failed {
		fmt.Printf("  %s: %v\n", f.ID, f.Err)
	}
	if len(result.Failed) > 0 {
		fmt.Printf("Nothing removed: %d of %d deletion(s) failed.\n", len(result.Failed), len(args))
		return nil
	}
	fmt.Printf("Deleted %d document(s).\n", len(result.Deleted))
	return nil
}

// Sync re-runs the load so the local mirror converges to the server again.
func (a *App) Sync(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	docs, err := a.coord.Load(ctx)
	if err != nil {
		fmt.Println("Sync failed:", err)
		return err
	}
	fmt.Printf("Synced, %d document(s), mode %s.\n", len(docs), a.coord.Mode())
	return nil
}
