// Package editor implements the editing session for a single note: the
// structural operation engine, the single-slot cell clipboard, selection
// tracking, and the wiring of every operation through the history engine.
// While a session is active it is the sole owner of the in-memory note;
// other surfaces observe changes through the save path and the bus.
package editor

import (
	"sync"
	"time"

	"github.com/starford/othala/internal/document"
	"github.com/starford/othala/internal/history"
	"github.com/starford/othala/internal/models"
)

// Option configures a Session.
type Option func(*Session)

// WithIdleWindow overrides the typing-coalescing idle window.
func WithIdleWindow(d time.Duration) Option {
	return func(s *Session) { s.idle = d }
}

// WithCursorReporter registers the status-bar callback: 1-indexed line and
// column, purely informational.
func WithCursorReporter(fn func(line, col int)) Option {
	return func(s *Session) { s.onCursor = fn }
}

// Session owns a note being edited. Every structural operation computes a
// new note value and routes it through the history engine, which in turn
// invokes the save function; the session never partially applies a change.
type Session struct {
	mu        sync.Mutex
	hist      *history.History
	selected  string
	clipboard *models.Cell

	idle     time.Duration
	onCursor func(line, col int)
}

// NewSession starts editing a note. An empty cell sequence gains one empty
// markdown cell immediately: a session never operates on zero cells. The
// save function is called with a complete note after every change.
func NewSession(note models.Note, save func(models.Note), opts ...Option) *Session {
	s := &Session{}
	for _, opt := range opts {
		opt(s)
	}
	if save == nil {
		save = func(models.Note) {}
	}
	note = document.EnsureCell(note)
	s.hist = history.New(note, s.idle, history.CommitFunc(save))
	return s
}

// Note returns a snapshot of the current state.
func (s *Session) Note() models.Note {
	return s.hist.Current()
}

// Selected returns the id of the selected cell, or "".
func (s *Session) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Select marks a cell as the current selection. Unknown ids are ignored;
// an empty id clears the selection.
func (s *Session) Select(cellID string) {
	if cellID != "" && document.IndexOf(s.hist.Current(), cellID) < 0 {
		return
	}
	s.mu.Lock()
	s.selected = cellID
	s.mu.Unlock()
}

// AddCell inserts a new empty cell of the given type at the index, or
// appends when at is nil. The new cell becomes the selection.
func (s *Session) AddCell(t models.CellType, at *int) models.Cell {
	cell := document.NewCell(t)
	s.hist.CommitStructural(document.InsertCell(s.hist.Current(), cell, at))
	s.mu.Lock()
	s.selected = cell.ID
	s.mu.Unlock()
	return cell
}

// DeleteCell removes a cell by id. Deleting the only remaining cell clears
// its content instead; the note must never drop to zero cells. Deleting
// the selected cell clears the selection. Unknown ids are a silent no-op.
func (s *Session) DeleteCell(cellID string) {
	note := s.hist.Current()
	if document.IndexOf(note, cellID) < 0 {
		return
	}
	if len(note.Cells) == 1 {
		s.hist.CommitStructural(document.WithContent(note, cellID, ""))
	} else {
		s.hist.CommitStructural(document.RemoveCell(note, cellID))
	}
	s.mu.Lock()
	if s.selected == cellID {
		s.selected = ""
	}
	s.mu.Unlock()
}

// Reorder moves the cell at index from to index to, keeping all other
// cells in relative order. Indices are clamped to the current cell count.
func (s *Session) Reorder(from, to int) {
	note := s.hist.Current()
	moved := document.MoveCell(note, from, to)
	if !sameOrder(note, moved) {
		s.hist.CommitStructural(moved)
	}
}

// MoveUp moves the selected cell one position toward the front.
func (s *Session) MoveUp() {
	s.moveSelected(-1)
}

// MoveDown moves the selected cell one position toward the end.
func (s *Session) MoveDown() {
	s.moveSelected(+1)
}

func (s *Session) moveSelected(delta int) {
	s.mu.Lock()
	sel := s.selected
	s.mu.Unlock()
	if sel == "" {
		return
	}
	note := s.hist.Current()
	i := document.IndexOf(note, sel)
	if i < 0 {
		return
	}
	j := i + delta
	if j < 0 || j >= len(note.Cells) {
		return
	}
	s.hist.CommitStructural(document.MoveCell(note, i, j))
}

// Split cuts a cell at a content index, inserting an empty cell of the
// target type and a markdown cell with the remainder. This backs the
// slash-command flow: a trigger typed at the end of a markdown cell opens a
// code cell without leaving the keyboard. The new empty cell becomes the
// selection. Unknown ids are a silent no-op.
func (s *Session) Split(cellID string, cut int, target models.CellType) {
	next, middleID := document.Split(s.hist.Current(), cellID, cut, target)
	if middleID == "" {
		return
	}
	s.hist.CommitStructural(next)
	s.mu.Lock()
	s.selected = middleID
	s.mu.Unlock()
}

// SetContent replaces one cell's content through the typing policy: a burst
// of calls within the idle window forms a single undo step, but every call
// is durably saved. Unknown ids are a silent no-op.
func (s *Session) SetContent(cellID, content string) {
	note := s.hist.Current()
	if document.IndexOf(note, cellID) < 0 {
		return
	}
	s.hist.CommitTyping(document.WithContent(note, cellID, content))
}

// Copy places the selected cell in the clipboard. No-op without a selection.
func (s *Session) Copy() {
	s.mu.Lock()
	sel := s.selected
	s.mu.Unlock()
	if sel == "" {
		return
	}
	note := s.hist.Current()
	i := document.IndexOf(note, sel)
	if i < 0 {
		return
	}
	cell := note.Cells[i]
	s.mu.Lock()
	s.clipboard = &cell
	s.mu.Unlock()
}

// Cut copies the selected cell and then deletes it.
func (s *Session) Cut() {
	s.mu.Lock()
	sel := s.selected
	s.mu.Unlock()
	if sel == "" {
		return
	}
	s.Copy()
	s.DeleteCell(sel)
}

// Paste inserts the clipboard cell immediately after the selection, or at
// the end with no selection. The pasted cell gets a fresh id, keeping cell
// ids unique within the note, and becomes the new selection. No-op with an
// empty clipboard.
func (s *Session) Paste() {
	s.mu.Lock()
	clip := s.clipboard
	sel := s.selected
	s.mu.Unlock()
	if clip == nil {
		return
	}

	cell := *clip
	cell.ID = document.NewCell(cell.Type).ID

	note := s.hist.Current()
	var at *int
	if i := document.IndexOf(note, sel); i >= 0 {
		after := i + 1
		at = &after
	}
	s.hist.CommitStructural(document.InsertCell(note, cell, at))
	s.mu.Lock()
	s.selected = cell.ID
	s.mu.Unlock()
}

// Undo steps back one history entry; it reports whether anything changed.
func (s *Session) Undo() bool {
	return s.hist.Undo()
}

// Redo reapplies the most recently undone entry.
func (s *Session) Redo() bool {
	return s.hist.Redo()
}

// CanUndo reports whether an undo step is available.
func (s *Session) CanUndo() bool { return s.hist.CanUndo() }

// CanRedo reports whether a redo step is available.
func (s *Session) CanRedo() bool { return s.hist.CanRedo() }

// Flatten returns the note's cell contents joined with blank lines.
func (s *Session) Flatten() string {
	return document.Flatten(s.hist.Current())
}

// ReportCursor forwards a 1-indexed line/column position to the registered
// status-bar callback. It carries no behavioral coupling.
func (s *Session) ReportCursor(line, col int) {
	if s.onCursor != nil {
		s.onCursor(line, col)
	}
}

// Close cancels the pending typing timer.
func (s *Session) Close() {
	s.hist.Stop()
}

func sameOrder(a, b models.Note) bool {
	if len(a.Cells) != len(b.Cells) {
		return false
	}
	for i := range a.Cells {
		if a.Cells[i].ID != b.Cells[i].ID {
			return false
		}
	}
	return true
}
