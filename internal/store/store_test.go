package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/store"
	"github.com/starford/othala/internal/testutil"
)

func TestNoteRoundTrip(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()

	folder := "f1"
	in := models.Note{
		ID:       "n1",
		Title:    "First",
		FolderID: &folder,
		Cells: []models.Cell{
			{ID: "c1", Type: models.CellMarkdown, Content: "hello"},
			{ID: "c2", Type: models.CellCode, Content: "x := 1"},
		},
	}
	stored, err := db.PutNote(ctx, in)
	if err != nil {
		t.Fatal(err)
	}

	got, err := db.GetNote(ctx, "n1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "First" || got.FolderID == nil || *got.FolderID != "f1" {
		t.Errorf("got = %+v", got)
	}
	if len(got.Cells) != 2 || got.Cells[1].Type != models.CellCode || got.Cells[1].Content != "x := 1" {
		t.Errorf("cells = %+v", got.Cells)
	}
	if !got.UpdatedAt.Equal(stored.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, stored.UpdatedAt)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	db := testutil.TestDB(t)
	_, err := db.GetNote(context.Background(), "missing")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPutNote_StampsTimestamps(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()

	// The caller's UpdatedAt is ignored.
	stale := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	stored, err := db.PutNote(ctx, models.Note{ID: "n1", UpdatedAt: stale})
	if err != nil {
		t.Fatal(err)
	}
	if stored.UpdatedAt.Equal(stale) {
		t.Error("UpdatedAt should be stamped by the write path")
	}
	if stored.CreatedAt.IsZero() {
		t.Error("CreatedAt should be stamped on first write")
	}

	// CreatedAt survives updates.
	got, _ := db.GetNote(ctx, "n1")
	if _, err := db.PutNote(ctx, got); err != nil {
		t.Fatal(err)
	}
	after, _ := db.GetNote(ctx, "n1")
	if !after.CreatedAt.Equal(got.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", got.CreatedAt, after.CreatedAt)
	}
}

func TestPutNote_Rejects(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()

	if _, err := db.PutNote(ctx, models.Note{}); err == nil {
		t.Error("empty id should be rejected")
	}

	bad := models.Note{ID: "n1", Cells: []models.Cell{{ID: "c1", Type: "video"}}}
	if _, err := db.PutNote(ctx, bad); err == nil {
		t.Error("unknown cell type should be rejected")
	}
}

func TestNotesIn(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()

	f1 := "f1"
	dangling := "gone"
	put := func(id string, folder *string) {
		t.Helper()
		if _, err := db.PutNote(ctx, models.Note{ID: id, FolderID: folder}); err != nil {
			t.Fatal(err)
		}
	}
	put("root-1", nil)
	put("in-f1", &f1)
	put("dangling", &dangling)

	root, err := db.NotesIn(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(root) != 1 || root[0].ID != "root-1" {
		t.Errorf("root notes = %+v", root)
	}

	inF1, err := db.NotesIn(ctx, &f1)
	if err != nil {
		t.Fatal(err)
	}
	if len(inF1) != 1 || inF1[0].ID != "in-f1" {
		t.Errorf("f1 notes = %+v", inF1)
	}

	// A folder id with no folder record still resolves its notes.
	orphans, err := db.NotesIn(ctx, &dangling)
	if err != nil {
		t.Fatal(err)
	}
	if len(orphans) != 1 || orphans[0].ID != "dangling" {
		t.Errorf("dangling notes = %+v", orphans)
	}
}

func TestDeleteNote(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()

	if _, err := db.PutNote(ctx, models.Note{ID: "n1"}); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteNote(ctx, "n1"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.GetNote(ctx, "n1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	// Absent id is a no-op.
	if err := db.DeleteNote(ctx, "n1"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestFolderRoundTrip(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()

	parent := "p1"
	if _, err := db.PutFolder(ctx, models.Folder{ID: "f1", Name: "Work", ParentID: &parent}); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetFolder(ctx, "f1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Work" || got.ParentID == nil || *got.ParentID != "p1" {
		t.Errorf("got = %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should be stamped")
	}

	all, err := db.AllFolders(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("folders = %d, want 1", len(all))
	}

	if err := db.DeleteFolder(ctx, "f1"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.GetFolder(ctx, "f1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteFolder_LeavesNotes(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()

	f1 := "f1"
	if _, err := db.PutFolder(ctx, models.Folder{ID: f1, Name: "Work"}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.PutNote(ctx, models.Note{ID: "n1", FolderID: &f1}); err != nil {
		t.Fatal(err)
	}

	if err := db.DeleteFolder(ctx, f1); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetNote(ctx, "n1")
	if err != nil {
		t.Fatal(err)
	}
	if got.FolderID == nil || *got.FolderID != f1 {
		t.Errorf("note folder = %v, want dangling %q", got.FolderID, f1)
	}
}

func TestUserStats(t *testing.T) {
	db := testutil.TestDB(t)
	ctx := context.Background()

	// Missing record yields a zeroed singleton, not an error.
	stats, err := db.UserStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.ID != models.UserStatsID || stats.NotesCreated != 0 {
		t.Errorf("stats = %+v", stats)
	}

	stats.NotesCreated = 3
	stats.CellsEdited = 42
	if err := db.PutUserStats(ctx, stats); err != nil {
		t.Fatal(err)
	}

	got, err := db.UserStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.NotesCreated != 3 || got.CellsEdited != 42 {
		t.Errorf("got = %+v", got)
	}
}

func TestReopenAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	db, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()

	if _, err := db.PutNote(ctx, models.Note{ID: "n1", Title: "persists"}); err != nil {
		t.Fatal(err)
	}

	// Close drops the handle; the next call re-opens transparently.
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}
	got, err := db.GetNote(ctx, "n1")
	if err != nil {
		t.Fatalf("read after close: %v", err)
	}
	if got.Title != "persists" {
		t.Errorf("got = %+v", got)
	}
}
