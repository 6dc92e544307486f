package noteservice

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/starford/othala/internal/bus"
	"github.com/starford/othala/internal/models"
)

// FolderStore is the persistence surface the folder collection needs.
type FolderStore interface {
	GetFolder(ctx context.Context, id string) (models.Folder, error)
	AllFolders(ctx context.Context) ([]models.Folder, error)
	PutFolder(ctx context.Context, f models.Folder) (models.Folder, error)
	DeleteFolder(ctx context.Context, id string) error
}

// Folders is the read cache with CRUD over every folder. Like Notes, it
// re-fetches silently on the folders-changed signal.
type Folders struct {
	store FolderStore
	bus   *bus.Bus

	mu     sync.Mutex
	cached []models.Folder
	loaded bool

	unsubscribe func()
}

// NewFolders creates the collection and subscribes it to the bus.
func NewFolders(store FolderStore, b *bus.Bus) *Folders {
	f := &Folders{store: store, bus: b}
	f.unsubscribe = b.Subscribe(bus.FoldersChanged, f.refetchSilent)
	return f
}

// Close detaches the collection from the bus.
func (f *Folders) Close() {
	f.unsubscribe()
}

// List returns all folders, fetching on first use.
func (f *Folders) List(ctx context.Context) ([]models.Folder, error) {
	f.mu.Lock()
	loaded := f.loaded
	f.mu.Unlock()
	if !loaded {
		if err := f.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Folder, len(f.cached))
	copy(out, f.cached)
	return out, nil
}

// Refresh re-reads all folders; the previous cache survives a failure.
func (f *Folders) Refresh(ctx context.Context) error {
	fetched, err := f.store.AllFolders(ctx)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cached = fetched
	f.loaded = true
	return nil
}

func (f *Folders) refetchSilent() {
	if err := f.Refresh(context.Background()); err != nil {
		slog.Warn("folders: refresh after change signal failed", slog.String("error", err.Error()))
	}
}

// Create builds a folder with a fresh id, optimistically prepends it to the
// cache, writes durably, and publishes. A failed write rolls the optimistic
// entry back and returns the error.
func (f *Folders) Create(ctx context.Context, name string, parentID *string) (models.Folder, error) {
	folder := models.Folder{
		ID:       uuid.NewString(),
		Name:     name,
		ParentID: parentID,
	}

	f.mu.Lock()
	optimistic := f.loaded
	if optimistic {
		f.cached = append([]models.Folder{folder}, f.cached...)
	}
	f.mu.Unlock()

	stored, err := f.store.PutFolder(ctx, folder)
	if err != nil {
		if optimistic {
			f.dropCached(folder.ID)
		}
		slog.Error("folders: create failed", slog.String("id", folder.ID), slog.String("error", err.Error()))
		return models.Folder{}, err
	}

	f.mu.Lock()
	for i := range f.cached {
		if f.cached[i].ID == stored.ID {
			f.cached[i] = stored
			break
		}
	}
	f.mu.Unlock()

	f.bus.Publish(bus.FoldersChanged)
	return stored, nil
}

// Update replaces a folder record durably, re-fetches, and publishes.
func (f *Folders) Update(ctx context.Context, folder models.Folder) (models.Folder, error) {
	stored, err := f.store.PutFolder(ctx, folder)
	if err != nil {
		slog.Error("folders: update failed", slog.String("id", folder.ID), slog.String("error", err.Error()))
		return models.Folder{}, err
	}
	if err := f.Refresh(ctx); err != nil {
		slog.Warn("folders: refresh after update failed", slog.String("error", err.Error()))
	}
	f.bus.Publish(bus.FoldersChanged)
	return stored, nil
}

// Delete removes a folder durably and from the cache, then publishes. The
// folder's notes are neither deleted nor re-parented; note queries tolerate
// the dangling reference.
func (f *Folders) Delete(ctx context.Context, id string) error {
	if err := f.store.DeleteFolder(ctx, id); err != nil {
		slog.Error("folders: delete failed", slog.String("id", id), slog.String("error", err.Error()))
		return err
	}
	f.dropCached(id)
	f.bus.Publish(bus.FoldersChanged)
	return nil
}

func (f *Folders) dropCached(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.cached {
		if f.cached[i].ID == id {
			f.cached = append(f.cached[:i], f.cached[i+1:]...)
			return
		}
	}
}
