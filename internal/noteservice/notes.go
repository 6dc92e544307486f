// Package noteservice provides the scoped, read-through access layer over
// the record store: cached note and folder collections with CRUD, optimistic
// local updates, and bus-driven re-validation.
package noteservice

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/bus"
	"github.com/starford/othala/internal/document"
	"github.com/starford/othala/internal/models"
)

// fetchTimeout bounds a single-note fetch; beyond it the read fails with
// apperr.ErrTimeout instead of hanging.
const fetchTimeout = 5 * time.Second

// NoteStore is the persistence surface the notes collection needs.
type NoteStore interface {
	GetNote(ctx context.Context, id string) (models.Note, error)
	AllNotes(ctx context.Context) ([]models.Note, error)
	NotesIn(ctx context.Context, folderID *string) ([]models.Note, error)
	PutNote(ctx context.Context, n models.Note) (models.Note, error)
	DeleteNote(ctx context.Context, id string) error
}

// Scope selects which notes a collection tracks: every note, or the notes
// of one folder (nil folder = root).
type Scope struct {
	folder *string
	scoped bool
}

// ScopeAll tracks every note.
func ScopeAll() Scope { return Scope{} }

// ScopeFolder tracks the notes of one folder; nil selects the root.
func ScopeFolder(folderID *string) Scope { return Scope{folder: folderID, scoped: true} }

func (s Scope) contains(n models.Note) bool {
	if !s.scoped {
		return true
	}
	if s.folder == nil || n.FolderID == nil {
		return s.folder == nil && n.FolderID == nil
	}
	return *s.folder == *n.FolderID
}

func (s Scope) equal(o Scope) bool {
	if s.scoped != o.scoped {
		return false
	}
	if s.folder == nil || o.folder == nil {
		return s.folder == nil && o.folder == nil
	}
	return *s.folder == *o.folder
}

// Notes is a folder-scoped read cache with CRUD over the note store. A
// mutation through any collection instance reaches the others via the bus:
// each instance silently re-fetches on the notes-changed signal.
type Notes struct {
	store NoteStore
	bus   *bus.Bus

	mu     sync.Mutex
	scope  Scope
	cached []models.Note
	loaded bool

	unsubscribe func()
}

// NewNotes creates a collection for the given scope and subscribes it to
// the bus. Call Close to unsubscribe.
func NewNotes(store NoteStore, b *bus.Bus, scope Scope) *Notes {
	n := &Notes{store: store, bus: b, scope: scope}
	n.unsubscribe = b.Subscribe(bus.NotesChanged, n.refetchSilent)
	return n
}

// Close detaches the collection from the bus.
func (n *Notes) Close() {
	n.unsubscribe()
}

// List returns the notes in scope, newest update first. The first call
// fetches; later calls serve the cache until a signal or scope change
// invalidates it.
func (n *Notes) List(ctx context.Context) ([]models.Note, error) {
	n.mu.Lock()
	loaded := n.loaded
	n.mu.Unlock()
	if !loaded {
		if err := n.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]models.Note, len(n.cached))
	copy(out, n.cached)
	return out, nil
}

// ListIn is a one-shot scoped read through the same query path as the
// cache, for callers that ask for a different scope per request. It does
// not touch the instance cache.
func (n *Notes) ListIn(ctx context.Context, scope Scope) ([]models.Note, error) {
	var (
		fetched []models.Note
		err     error
	)
	if scope.scoped {
		fetched, err = n.store.NotesIn(ctx, scope.folder)
	} else {
		fetched, err = n.store.AllNotes(ctx)
	}
	if err != nil {
		return nil, err
	}
	sortByUpdated(fetched)
	return fetched, nil
}

// SetScope switches the collection to a different scope and re-fetches when
// the scope identity actually changed.
func (n *Notes) SetScope(ctx context.Context, scope Scope) error {
	n.mu.Lock()
	if n.scope.equal(scope) {
		n.mu.Unlock()
		return nil
	}
	n.scope = scope
	n.loaded = false
	n.mu.Unlock()
	return n.Refresh(ctx)
}

// Refresh re-reads the in-scope notes from the store, replacing the cache.
// On failure the previous cache stays intact.
func (n *Notes) Refresh(ctx context.Context) error {
	n.mu.Lock()
	scope := n.scope
	n.mu.Unlock()

	var (
		fetched []models.Note
		err     error
	)
	if scope.scoped {
		fetched, err = n.store.NotesIn(ctx, scope.folder)
	} else {
		fetched, err = n.store.AllNotes(ctx)
	}
	if err != nil {
		return err
	}
	sortByUpdated(fetched)

	n.mu.Lock()
	defer n.mu.Unlock()
	n.cached = fetched
	n.loaded = true
	return nil
}

func (n *Notes) refetchSilent() {
	if err := n.Refresh(context.Background()); err != nil {
		slog.Warn("notes: refresh after change signal failed", slog.String("error", err.Error()))
	}
}

// Get fetches a single note by id, bounded by the fetch timeout. A slow
// store surfaces apperr.ErrTimeout; a miss surfaces apperr.ErrNotFound.
func (n *Notes) Get(ctx context.Context, id string) (models.Note, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	note, err := n.store.GetNote(ctx, id)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return models.Note{}, apperr.ErrTimeout
		}
		return models.Note{}, err
	}
	return note, nil
}

// Create builds a new note with a fresh id and one empty markdown cell,
// optimistically inserts it into the cached list when it belongs to the
// current scope, then writes it durably and publishes the change signal.
// If the durable write fails the optimistic entry is rolled back and the
// error is returned.
func (n *Notes) Create(ctx context.Context, title string, folderID *string) (models.Note, error) {
	if title == "" {
		title = "Untitled Note"
	}
	note := models.Note{
		ID:       uuid.NewString(),
		Title:    title,
		FolderID: folderID,
		Cells:    []models.Cell{document.NewCell(models.CellMarkdown)},
	}

	n.mu.Lock()
	optimistic := n.loaded && n.scope.contains(note)
	if optimistic {
		n.cached = append([]models.Note{note}, n.cached...)
	}
	n.mu.Unlock()

	stored, err := n.store.PutNote(ctx, note)
	if err != nil {
		if optimistic {
			n.dropCached(note.ID)
		}
		slog.Error("notes: create failed", slog.String("id", note.ID), slog.String("error", err.Error()))
		return models.Note{}, err
	}

	n.replaceCached(stored)
	n.bus.Publish(bus.NotesChanged)
	return stored, nil
}

// Update writes the full note durably (the store stamps UpdatedAt), then
// updates the cache with the stamped record and publishes.
func (n *Notes) Update(ctx context.Context, note models.Note) (models.Note, error) {
	stored, err := n.store.PutNote(ctx, note)
	if err != nil {
		slog.Error("notes: update failed", slog.String("id", note.ID), slog.String("error", err.Error()))
		return models.Note{}, err
	}
	n.replaceCached(stored)
	n.bus.Publish(bus.NotesChanged)
	return stored, nil
}

// Delete removes a note durably and from the cache, then publishes.
func (n *Notes) Delete(ctx context.Context, id string) error {
	if err := n.store.DeleteNote(ctx, id); err != nil {
		slog.Error("notes: delete failed", slog.String("id", id), slog.String("error", err.Error()))
		return err
	}
	n.dropCached(id)
	n.bus.Publish(bus.NotesChanged)
	return nil
}

// Copy deep-duplicates a note into the target folder: new note id, new id
// for every cell, title marked as a copy.
func (n *Notes) Copy(ctx context.Context, src models.Note, targetFolder *string) (models.Note, error) {
	dup := document.Clone(src, targetFolder)
	stored, err := n.store.PutNote(ctx, dup)
	if err != nil {
		slog.Error("notes: copy failed", slog.String("source", src.ID), slog.String("error", err.Error()))
		return models.Note{}, err
	}
	if err := n.Refresh(ctx); err != nil {
		slog.Warn("notes: refresh after copy failed", slog.String("error", err.Error()))
	}
	n.bus.Publish(bus.NotesChanged)
	return stored, nil
}

func (n *Notes) replaceCached(note models.Note) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.loaded {
		return
	}
	replaced := false
	for i := range n.cached {
		if n.cached[i].ID == note.ID {
			n.cached[i] = note
			replaced = true
			break
		}
	}
	if !replaced && n.scope.contains(note) {
		n.cached = append([]models.Note{note}, n.cached...)
	}
	sortByUpdated(n.cached)
}

func (n *Notes) dropCached(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := range n.cached {
		if n.cached[i].ID == id {
			n.cached = append(n.cached[:i], n.cached[i+1:]...)
			return
		}
	}
}

func sortByUpdated(notes []models.Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})
}
