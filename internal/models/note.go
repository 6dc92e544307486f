// Package models defines the domain types for Othala.
package models

import "time"

// CellType enumerates the kinds of content a cell can hold. It is a closed
// set: rendering and split logic branch exhaustively on it, so the store
// rejects anything else at the write boundary.
type CellType string

const (
	CellMarkdown CellType = "markdown"
	CellCode     CellType = "code"
)

// Valid reports whether t is one of the known cell types.
func (t CellType) Valid() bool {
	return t == CellMarkdown || t == CellCode
}

// Cell is one ordered, independently typed unit of content within a Note.
// Its ID is assigned once at creation and never reused or mutated; a cell
// has no lifecycle of its own outside the Cells slice of a Note.
type Cell struct {
	ID      string   `json:"id"`
	Type    CellType `json:"type"`
	Content string   `json:"content"`
}

// Note is a titled, folder-scoped ordered sequence of cells. FolderID nil
// means the note lives at the root. Cell order is significant and persisted.
//
// UpdatedAt is stamped by the persistence write path, never by callers, so
// it reflects true last-write time even when the in-memory value is stale.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	FolderID  *string   `json:"folderId"`
	Cells     []Cell    `json:"cells"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CloneCells returns a copy of the note with its own backing array for
// Cells. Cell contents are strings, so element copies are enough to give
// value semantics to the history engine's snapshots.
func (n Note) CloneCells() Note {
	cells := make([]Cell, len(n.Cells))
	copy(cells, n.Cells)
	n.Cells = cells
	return n
}

// Folder is a named grouping container for notes. ParentID allows shallow
// nesting; cycle prevention is left to callers.
type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  *string   `json:"parentId"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserStatsID is the fixed key of the singleton UserStats record.
const UserStatsID = "current-user"

// UserStats is an auxiliary singleton record with no behavior of its own.
type UserStats struct {
	ID           string `json:"id"`
	NotesCreated int    `json:"notesCreated"`
	CellsEdited  int    `json:"cellsEdited"`
	StreakDays   int    `json:"streakDays"`
}
