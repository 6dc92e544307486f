// Package history implements the undo/redo engine for note editing. It
// keeps whole-note snapshots on two stacks, past and future, bounded only
// by memory, and applies two grouping policies: structural edits are one
// undo step each, while rapid text entry is coalesced into a single step
// per typing burst.
package history

import (
	"sync"
	"time"

	"github.com/starford/othala/internal/models"
)

// DefaultIdleWindow is the trailing inactivity window that closes a typing
// burst. Keystrokes closer together than this share one undo step.
const DefaultIdleWindow = time.Second

// CommitFunc receives every new current state: structural commits, typing
// commits, undos, and redos all flow through it. The function is expected
// to durably save the state it receives.
type CommitFunc func(models.Note)

// History tracks the current note state and its undo/redo stacks. It is
// safe for use from the idle-timer goroutine.
type History struct {
	mu      sync.Mutex
	current models.Note
	past    []models.Note
	future  []models.Note

	typing bool
	idle   time.Duration
	timer  *time.Timer

	commit CommitFunc
}

// New creates a history rooted at the given state. idle <= 0 selects
// DefaultIdleWindow. The commit function must not be nil.
func New(current models.Note, idle time.Duration, commit CommitFunc) *History {
	if idle <= 0 {
		idle = DefaultIdleWindow
	}
	return &History{current: current.CloneCells(), idle: idle, commit: commit}
}

// Current returns a snapshot of the present state.
func (h *History) Current() models.Note {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current.CloneCells()
}

// CommitStructural records a discrete operation: the previous state is
// pushed onto the past stack, the future stack is cleared, and next becomes
// current. One user action, one undo step.
func (h *History) CommitStructural(next models.Note) {
	h.mu.Lock()
	h.past = append(h.past, h.current)
	h.future = nil
	h.current = next.CloneCells()
	h.mu.Unlock()

	h.commit(next)
}

// CommitTyping records a per-keystroke content edit. Only the first
// keystroke after an idle period pushes history; later keystrokes within
// the idle window replace the current state without a push, so undoing a
// burst is a single step. The window restarts on every keystroke.
func (h *History) CommitTyping(next models.Note) {
	h.mu.Lock()
	if !h.typing {
		h.past = append(h.past, h.current)
		h.future = nil
		h.typing = true
	}
	h.current = next.CloneCells()

	if h.timer == nil {
		h.timer = time.AfterFunc(h.idle, h.endBurst)
	} else {
		h.timer.Reset(h.idle)
	}
	h.mu.Unlock()

	h.commit(next)
}

// endBurst is the idle-timer callback; it closes the burst with no history
// action of its own.
func (h *History) endBurst() {
	h.mu.Lock()
	h.typing = false
	h.mu.Unlock()
}

// Undo steps back one entry. It reports false (and does nothing) when the
// past stack is empty. The displaced current state moves to the front of
// the future stack, and the restored state is committed downstream.
func (h *History) Undo() bool {
	h.mu.Lock()
	if len(h.past) == 0 {
		h.mu.Unlock()
		return false
	}
	prev := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = append([]models.Note{h.current}, h.future...)
	h.current = prev
	restored := prev.CloneCells()
	h.mu.Unlock()

	h.commit(restored)
	return true
}

// Redo is the symmetric inverse of Undo over the future stack.
func (h *History) Redo() bool {
	h.mu.Lock()
	if len(h.future) == 0 {
		h.mu.Unlock()
		return false
	}
	next := h.future[0]
	h.future = h.future[1:]
	h.past = append(h.past, h.current)
	h.current = next
	restored := next.CloneCells()
	h.mu.Unlock()

	h.commit(restored)
	return true
}

// CanUndo reports whether the past stack is non-empty.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.past) > 0
}

// CanRedo reports whether the future stack is non-empty.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.future) > 0
}

// UndoDepth returns the number of undo steps currently available.
func (h *History) UndoDepth() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.past)
}

// Stop cancels a pending idle timer. Call when the editing session ends.
func (h *History) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.timer != nil {
		h.timer.Stop()
	}
}
