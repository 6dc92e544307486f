// Package testutil provides shared test helpers for setting up record stores and fixtures.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/store"
)

// TestDB creates a temporary SQLite store that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "othala-test.db")
	db, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Note builds a note with markdown cells holding the given contents.
func Note(title string, contents ...string) models.Note {
	cells := make([]models.Cell, 0, len(contents))
	for _, c := range contents {
		cells = append(cells, models.Cell{
			ID:      uuid.NewString(),
			Type:    models.CellMarkdown,
			Content: c,
		})
	}
	return models.Note{
		ID:    uuid.NewString(),
		Title: title,
		Cells: cells,
	}
}
