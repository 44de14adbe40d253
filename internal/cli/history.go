package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/mkraev/dockeep/internal/documents"
)

// History prints a document's recorded versions, newest first.
func (a *App) History(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if len(args) == 0 {
		fmt.Println("Usage: history <id>")
		return nil
	}

	versions, err := a.coord.History(ctx, args[0])
	if err != nil {
		fmt.Println("History failed:", err)
		return err
	}
	if len(versions) == 0 {
		fmt.Println("No versions recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tCREATED\tMESSAGE")
	for _, v := range versions {
		created := time.UnixMilli(v.CreatedAt).Format("2006-01-02 15:04")
		fmt.Fprintf(w, "%d\t%s\t%s\n", v.Number, created, v.Message)
	}
	return w.Flush()
}

// Restore copies an old version's title and content into a new version at
// the top of the document's history. Server only.
func (a *App) Restore(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if len(args) < 2 {
		fmt.Println("Usage: restore <id> <version>")
		return nil
	}
	number, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		fmt.Println("Version must be a number:", args[1])
		return err
	}

	v, err := a.client.RestoreVersion(ctx, args[0], number)
	if err != nil {
		fmt.Println("Restore failed:", err)
		return err
	}
	fmt.Printf("Restored version %d as version %d.\n", number, v.Number)

	// Pull so the restored content reaches the local mirror.
	return a.Sync(ctx)
}

// Compare prints a line diff between two versions of a document.
func (a *App) Compare(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if len(args) < 3 {
		fmt.Println("Usage: compare <id> <from> <to>")
		return nil
	}
	from, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		fmt.Println("Version must be a number:", args[1])
		return err
	}
	to, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		fmt.Println("Version must be a number:", args[2])
		return err
	}

	raw, err := a.client.CompareVersions(ctx, args[0], from, to)
	if err != nil {
		fmt.Println("Compare failed:", err)
		return err
	}

	var cmp documents.Comparison
	if err := json.Unmarshal(raw, &cmp); err != nil {
		return fmt.Errorf("decoding comparison: %w", err)
	}

	fmt.Printf("v%d -> v%d: +%d -%d line(s)\n", cmp.From, cmp.To, cmp.LinesAdded, cmp.LinesRemoved)
	for _, h := range cmp.Hunks {
		prefix := " "
		switch h.Op {
		case "added":
			prefix = "+"
		case "removed":
			prefix = "-"
		}
		fmt.Printf("%s %s\n", prefix, h.Text)
	}
	return nil
}
