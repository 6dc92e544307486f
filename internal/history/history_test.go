package history

import (
	"sync"
	"testing"
	"time"

	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/testutil"
)

// commitRecorder collects every state pushed through the commit callback.
type commitRecorder struct {
	mu    sync.Mutex
	notes []models.Note
}

func (r *commitRecorder) commit(n models.Note) {
	r.mu.Lock()
	r.notes = append(r.notes, n)
	r.mu.Unlock()
}

func (r *commitRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notes)
}

func withContent(n models.Note, content string) models.Note {
	out := n.CloneCells()
	out.Cells[0].Content = content
	return out
}

func TestStructuralUndoRedo(t *testing.T) {
	rec := &commitRecorder{}
	base := testutil.Note("n", "a")
	h := New(base, 0, rec.commit)
	defer h.Stop()

	h.CommitStructural(withContent(base, "b"))
	h.CommitStructural(withContent(base, "c"))

	if !h.CanUndo() || h.UndoDepth() != 2 {
		t.Fatalf("UndoDepth = %d, want 2", h.UndoDepth())
	}

	if !h.Undo() {
		t.Fatal("Undo failed")
	}
	if got := h.Current().Cells[0].Content; got != "b" {
		t.Errorf("after undo: %q, want %q", got, "b")
	}

	if !h.Redo() {
		t.Fatal("Redo failed")
	}
	if got := h.Current().Cells[0].Content; got != "c" {
		t.Errorf("after redo: %q, want %q", got, "c")
	}

	// Every transition went through commit: 2 edits, 1 undo, 1 redo.
	if rec.count() != 4 {
		t.Errorf("commits = %d, want 4", rec.count())
	}
}

func TestUndoRedo_EmptyStacks(t *testing.T) {
	h := New(testutil.Note("n", "a"), 0, func(models.Note) {})
	defer h.Stop()

	if h.Undo() {
		t.Error("Undo on empty past should report false")
	}
	if h.Redo() {
		t.Error("Redo on empty future should report false")
	}
	if h.CanUndo() || h.CanRedo() {
		t.Error("fresh history should have no steps")
	}
}

func TestNewEditClearsFuture(t *testing.T) {
	base := testutil.Note("n", "a")
	h := New(base, 0, func(models.Note) {})
	defer h.Stop()

	h.CommitStructural(withContent(base, "b"))
	h.Undo()
	if !h.CanRedo() {
		t.Fatal("expected a redo step")
	}

	h.CommitStructural(withContent(base, "x"))
	if h.CanRedo() {
		t.Error("new edit should clear the future stack")
	}
}

func TestTypingCoalescing(t *testing.T) {
	base := testutil.Note("n", "")
	h := New(base, 50*time.Millisecond, func(models.Note) {})
	defer h.Stop()

	// A rapid burst shares one undo step.
	h.CommitTyping(withContent(base, "H"))
	h.CommitTyping(withContent(base, "He"))
	h.CommitTyping(withContent(base, "Hel"))

	if h.UndoDepth() != 1 {
		t.Fatalf("UndoDepth during burst = %d, want 1", h.UndoDepth())
	}

	// After the idle window a new burst opens a new step.
	time.Sleep(100 * time.Millisecond)
	h.CommitTyping(withContent(base, "Hell"))
	h.CommitTyping(withContent(base, "Hello"))

	if h.UndoDepth() != 2 {
		t.Fatalf("UndoDepth after pause = %d, want 2", h.UndoDepth())
	}

	h.Undo()
	if got := h.Current().Cells[0].Content; got != "Hel" {
		t.Errorf("first undo: %q, want %q", got, "Hel")
	}
	h.Undo()
	if got := h.Current().Cells[0].Content; got != "" {
		t.Errorf("second undo: %q, want empty", got)
	}
}

func TestTypingThenStructuralAreSeparateSteps(t *testing.T) {
	base := testutil.Note("n", "")
	h := New(base, time.Minute, func(models.Note) {})
	defer h.Stop()

	h.CommitTyping(withContent(base, "abc"))
	h.CommitStructural(withContent(base, "abc!"))

	if h.UndoDepth() != 2 {
		t.Errorf("UndoDepth = %d, want 2", h.UndoDepth())
	}
}

func TestCurrentReturnsCopy(t *testing.T) {
	base := testutil.Note("n", "a")
	h := New(base, 0, func(models.Note) {})
	defer h.Stop()

	snap := h.Current()
	snap.Cells[0].Content = "tampered"

	if got := h.Current().Cells[0].Content; got != "a" {
		t.Errorf("internal state mutated: %q", got)
	}
}
