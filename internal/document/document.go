// Package document holds the pure structural transforms over a note's cell
// sequence. Every function returns a new Note value and leaves its input
// untouched; the editing session routes these values through the history
// engine and the save path.
package document

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/othala/internal/models"
)

// NewCell creates an empty cell of the given type with a fresh identifier.
func NewCell(t models.CellType) models.Cell {
	return models.Cell{ID: uuid.NewString(), Type: t}
}

// IndexOf returns the position of the cell with the given id, or -1.
func IndexOf(n models.Note, cellID string) int {
	for i, c := range n.Cells {
		if c.ID == cellID {
			return i
		}
	}
	return -1
}

// MoveCell moves the cell at index from to index to; all other cells keep
// their relative order. Indices are clamped to the cell count, and a move
// onto itself returns the note unchanged.
func MoveCell(n models.Note, from, to int) models.Note {
	out := n.CloneCells()
	if len(out.Cells) == 0 {
		return out
	}
	from = clamp(from, len(out.Cells)-1)
	to = clamp(to, len(out.Cells)-1)
	if from == to {
		return out
	}
	cell := out.Cells[from]
	rest := append(out.Cells[:from], out.Cells[from+1:]...)
	out.Cells = append(rest[:to], append([]models.Cell{cell}, rest[to:]...)...)
	return out
}

// InsertCell inserts cell at the given index, or appends when at is nil or
// past the end.
func InsertCell(n models.Note, cell models.Cell, at *int) models.Note {
	out := n.CloneCells()
	if at == nil || *at >= len(out.Cells) {
		out.Cells = append(out.Cells, cell)
		return out
	}
	i := clamp(*at, len(out.Cells))
	out.Cells = append(out.Cells[:i], append([]models.Cell{cell}, out.Cells[i:]...)...)
	return out
}

// RemoveCell removes the cell with the given id. An unknown id is a silent
// no-op: the cell may have been removed by another action in the same batch.
func RemoveCell(n models.Note, cellID string) models.Note {
	i := IndexOf(n, cellID)
	if i < 0 {
		return n.CloneCells()
	}
	out := n.CloneCells()
	out.Cells = append(out.Cells[:i], out.Cells[i+1:]...)
	return out
}

// WithContent replaces the content of one cell, by id. Unknown ids are a
// silent no-op.
func WithContent(n models.Note, cellID, content string) models.Note {
	out := n.CloneCells()
	for i := range out.Cells {
		if out.Cells[i].ID == cellID {
			out.Cells[i].Content = content
			break
		}
	}
	return out
}

// Split cuts the cell with the given id at a rune-counted content index:
// the original keeps the text before the cut, an empty cell of the target
// type goes immediately after it, and a markdown cell holding the remainder
// goes after that. The concatenation of the first and third cells' content
// always equals the original content. Returns the new id of the inserted
// empty cell, or "" when the id is unknown.
func Split(n models.Note, cellID string, cut int, target models.CellType) (models.Note, string) {
	i := IndexOf(n, cellID)
	if i < 0 {
		return n.CloneCells(), ""
	}
	out := n.CloneCells()

	content := out.Cells[i].Content
	runes := []rune(content)
	cut = clamp(cut, len(runes))
	before, after := string(runes[:cut]), string(runes[cut:])

	out.Cells[i].Content = before
	middle := NewCell(target)
	tail := models.Cell{ID: uuid.NewString(), Type: models.CellMarkdown, Content: after}

	out.Cells = append(out.Cells[:i+1],
		append([]models.Cell{middle, tail}, out.Cells[i+1:]...)...)
	return out, middle.ID
}

// Clone deep-duplicates a note into the target folder: fresh note id, fresh
// id for every cell (cell ids are never shared across notes), and a title
// marked as a copy. Timestamps are reset so the write path stamps them.
func Clone(n models.Note, targetFolder *string) models.Note {
	out := n.CloneCells()
	out.ID = uuid.NewString()
	out.FolderID = targetFolder
	out.Title = n.Title + " (Copy)"
	out.CreatedAt = time.Time{}
	out.UpdatedAt = time.Time{}
	for i := range out.Cells {
		out.Cells[i].ID = uuid.NewString()
	}
	return out
}

// Flatten joins cell contents in order with a blank-line separator. It is
// the only projection AI tooling consumes and has no side effects.
func Flatten(n models.Note) string {
	parts := make([]string, len(n.Cells))
	for i, c := range n.Cells {
		parts[i] = c.Content
	}
	return strings.Join(parts, "\n\n")
}

// EnsureCell guarantees the note holds at least one cell, inserting an
// empty markdown cell when the sequence is empty. An editing session never
// operates on a zero-cell note.
func EnsureCell(n models.Note) models.Note {
	if len(n.Cells) > 0 {
		return n
	}
	out := n.CloneCells()
	out.Cells = append(out.Cells, NewCell(models.CellMarkdown))
	return out
}

func clamp(i, max int) int {
	if i < 0 {
		return 0
	}
	if i > max {
		return max
	}
	return i
}
