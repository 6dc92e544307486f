package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/models"
)

// GetNote returns the note with the given id, or apperr.ErrNotFound.
func (db *DB) GetNote(ctx context.Context, id string) (models.Note, error) {
	conn, err := db.handle()
	if err != nil {
		return models.Note{}, err
	}
	row := conn.QueryRowContext(ctx,
		`SELECT id, title, folder_id, cells, created_at, updated_at FROM notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return models.Note{}, apperr.ErrNotFound
	}
	if err != nil {
		return models.Note{}, db.checkConn(fmt.Errorf("store: get note: %w", err))
	}
	return n, nil
}

// AllNotes returns every stored note, unordered. Callers sort.
func (db *DB) AllNotes(ctx context.Context) ([]models.Note, error) {
	conn, err := db.handle()
	if err != nil {
		return nil, err
	}
	rows, err := conn.QueryContext(ctx,
		`SELECT id, title, folder_id, cells, created_at, updated_at FROM notes`)
	if err != nil {
		return nil, db.checkConn(fmt.Errorf("store: all notes: %w", err))
	}
	defer rows.Close()

	var out []models.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan note: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// NotesIn returns every note whose folder matches folderID (nil selects the
// root). Implemented as a full scan plus filter rather than an index lookup:
// it must tolerate dangling folder references and survives schema migrations
// that drop the secondary index.
func (db *DB) NotesIn(ctx context.Context, folderID *string) ([]models.Note, error) {
	all, err := db.AllNotes(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Note
	for _, n := range all {
		if sameFolder(n.FolderID, folderID) {
			out = append(out, n)
		}
	}
	return out, nil
}

// PutNote upserts the note by id, replacing the whole record. The write
// path is authoritative for UpdatedAt: the caller's value is ignored and
// the stamped record is returned.
func (db *DB) PutNote(ctx context.Context, n models.Note) (models.Note, error) {
	if n.ID == "" {
		return models.Note{}, fmt.Errorf("store: put note: empty id")
	}
	for _, c := range n.Cells {
		if !c.Type.Valid() {
			return models.Note{}, fmt.Errorf("store: put note %s: unknown cell type %q", n.ID, c.Type)
		}
	}

	conn, err := db.handle()
	if err != nil {
		return models.Note{}, err
	}

	// Millisecond resolution matches the stored column, so the returned
	// record is identical to what a later read yields.
	now := time.Now().Truncate(time.Millisecond)
	n.UpdatedAt = now
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}

	cells, err := json.Marshal(n.Cells)
	if err != nil {
		return models.Note{}, fmt.Errorf("store: marshal cells: %w", err)
	}

	_, err = conn.ExecContext(ctx, `
		INSERT INTO notes (id, title, folder_id, cells, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title      = excluded.title,
			folder_id  = excluded.folder_id,
			cells      = excluded.cells,
			updated_at = excluded.updated_at
	`, n.ID, n.Title, nullableString(n.FolderID), string(cells), n.CreatedAt.UnixMilli(), n.UpdatedAt.UnixMilli())
	if err != nil {
		return models.Note{}, db.checkConn(fmt.Errorf("store: put note: %w", err))
	}
	return n, nil
}

// DeleteNote removes a note. Deleting an absent id is a no-op.
func (db *DB) DeleteNote(ctx context.Context, id string) error {
	conn, err := db.handle()
	if err != nil {
		return err
	}
	if _, err := conn.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id); err != nil {
		return db.checkConn(fmt.Errorf("store: delete note: %w", err))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(r rowScanner) (models.Note, error) {
	var (
		n        models.Note
		folderID sql.NullString
		cells    string
		created  int64
		updated  int64
	)
	if err := r.Scan(&n.ID, &n.Title, &folderID, &cells, &created, &updated); err != nil {
		return models.Note{}, err
	}
	if err := json.Unmarshal([]byte(cells), &n.Cells); err != nil {
		return models.Note{}, err
	}
	n.FolderID = optionalString(folderID)
	n.CreatedAt = time.UnixMilli(created)
	n.UpdatedAt = time.UnixMilli(updated)
	return n, nil
}

func sameFolder(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
