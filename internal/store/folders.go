package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/models"
)

// GetFolder returns the folder with the given id, or apperr.ErrNotFound.
func (db *DB) GetFolder(ctx context.Context, id string) (models.Folder, error) {
	conn, err := db.handle()
	if err != nil {
		return models.Folder{}, err
	}
	var (
		f        models.Folder
		parentID sql.NullString
		created  int64
	)
	err = conn.QueryRowContext(ctx,
		`SELECT id, name, parent_id, created_at FROM folders WHERE id = ?`, id).
		Scan(&f.ID, &f.Name, &parentID, &created)
	if err == sql.ErrNoRows {
		return models.Folder{}, apperr.ErrNotFound
	}
	if err != nil {
		return models.Folder{}, db.checkConn(fmt.Errorf("store: get folder: %w", err))
	}
	f.ParentID = optionalString(parentID)
	f.CreatedAt = time.UnixMilli(created)
	return f, nil
}

// AllFolders returns every stored folder, unordered.
func (db *DB) AllFolders(ctx context.Context) ([]models.Folder, error) {
	conn, err := db.handle()
	if err != nil {
		return nil, err
	}
	rows, err := conn.QueryContext(ctx, `SELECT id, name, parent_id, created_at FROM folders`)
	if err != nil {
		return nil, db.checkConn(fmt.Errorf("store: all folders: %w", err))
	}
	defer rows.Close()

	var out []models.Folder
	for rows.Next() {
		var (
			f        models.Folder
			parentID sql.NullString
			created  int64
		)
		if err := rows.Scan(&f.ID, &f.Name, &parentID, &created); err != nil {
			return nil, fmt.Errorf("store: scan folder: %w", err)
		}
		f.ParentID = optionalString(parentID)
		f.CreatedAt = time.UnixMilli(created)
		out = append(out, f)
	}
	return out, rows.Err()
}

// PutFolder upserts a folder by id, replacing the whole record.
func (db *DB) PutFolder(ctx context.Context, f models.Folder) (models.Folder, error) {
	if f.ID == "" {
		return models.Folder{}, fmt.Errorf("store: put folder: empty id")
	}
	conn, err := db.handle()
	if err != nil {
		return models.Folder{}, err
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().Truncate(time.Millisecond)
	}
	_, err = conn.ExecContext(ctx, `
		INSERT INTO folders (id, name, parent_id, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name      = excluded.name,
			parent_id = excluded.parent_id
	`, f.ID, f.Name, nullableString(f.ParentID), f.CreatedAt.UnixMilli())
	if err != nil {
		return models.Folder{}, db.checkConn(fmt.Errorf("store: put folder: %w", err))
	}
	return f, nil
}

// DeleteFolder removes a folder. Notes inside it are not cascaded or
// re-parented; folder queries tolerate the resulting dangling references.
func (db *DB) DeleteFolder(ctx context.Context, id string) error {
	conn, err := db.handle()
	if err != nil {
		return err
	}
	if _, err := conn.ExecContext(ctx, `DELETE FROM folders WHERE id = ?`, id); err != nil {
		return db.checkConn(fmt.Errorf("store: delete folder: %w", err))
	}
	return nil
}
