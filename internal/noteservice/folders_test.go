package noteservice

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/bus"
	"github.com/starford/othala/internal/models"
)

// fakeFolderStore is an in-memory FolderStore with switchable failures.
type fakeFolderStore struct {
	mu      sync.Mutex
	folders map[string]models.Folder
	failPut bool
}

func newFakeFolderStore() *fakeFolderStore {
	return &fakeFolderStore{folders: make(map[string]models.Folder)}
}

func (s *fakeFolderStore) GetFolder(_ context.Context, id string) (models.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.folders[id]
	if !ok {
		return models.Folder{}, apperr.ErrNotFound
	}
	return f, nil
}

func (s *fakeFolderStore) AllFolders(context.Context) ([]models.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Folder, 0, len(s.folders))
	for _, f := range s.folders {
		out = append(out, f)
	}
	return out, nil
}

func (s *fakeFolderStore) PutFolder(_ context.Context, f models.Folder) (models.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut {
		return models.Folder{}, errors.New("disk full")
	}
	s.folders[f.ID] = f
	return f, nil
}

func (s *fakeFolderStore) DeleteFolder(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.folders, id)
	return nil
}

func newFolders(t *testing.T, store FolderStore) *Folders {
	t.Helper()
	b := bus.New()
	t.Cleanup(b.Close)
	f := NewFolders(store, b)
	t.Cleanup(f.Close)
	return f
}

func TestFolderCreate(t *testing.T) {
	store := newFakeFolderStore()
	folders := newFolders(t, store)
	ctx := context.Background()

	parent := "p1"
	created, err := folders.Create(ctx, "Work", &parent)
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == "" || created.Name != "Work" {
		t.Errorf("created = %+v", created)
	}
	if created.ParentID == nil || *created.ParentID != "p1" {
		t.Errorf("parent = %v", created.ParentID)
	}

	got, err := folders.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != created.ID {
		t.Errorf("list = %+v", got)
	}
}

func TestFolderCreate_RollsBackOptimisticEntry(t *testing.T) {
	store := newFakeFolderStore()
	folders := newFolders(t, store)
	ctx := context.Background()

	if _, err := folders.Create(ctx, "keep", nil); err != nil {
		t.Fatal(err)
	}

	store.failPut = true
	if _, err := folders.Create(ctx, "lost", nil); err == nil {
		t.Fatal("expected error from failed write")
	}
	store.failPut = false

	got, err := folders.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "keep" {
		t.Errorf("list after rollback = %+v", got)
	}
}

func TestFolderUpdate(t *testing.T) {
	store := newFakeFolderStore()
	folders := newFolders(t, store)
	ctx := context.Background()

	created, _ := folders.Create(ctx, "Old", nil)
	created.Name = "New"
	updated, err := folders.Update(ctx, created)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "New" {
		t.Errorf("updated = %+v", updated)
	}

	got, _ := folders.List(ctx)
	if len(got) != 1 || got[0].Name != "New" {
		t.Errorf("list = %+v", got)
	}
}

func TestFolderDelete(t *testing.T) {
	store := newFakeFolderStore()
	folders := newFolders(t, store)
	ctx := context.Background()

	created, _ := folders.Create(ctx, "doomed", nil)
	if err := folders.Delete(ctx, created.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := folders.List(ctx)
	if len(got) != 0 {
		t.Errorf("list = %+v", got)
	}
}
