package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/document"
	"github.com/starford/othala/internal/lint"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/noteservice"
)

// StatsStore is the persistence surface for the user-stats singleton.
type StatsStore interface {
	UserStats(ctx context.Context) (models.UserStats, error)
	PutUserStats(ctx context.Context, stats models.UserStats) error
}

// Handler holds API route handlers.
type Handler struct {
	notes   *noteservice.Notes
	folders *noteservice.Folders
	stats   StatsStore
}

// NewHandler creates a new Handler. notes should be an all-notes scoped
// collection; folder-scoped listing goes through one-shot scoped reads.
func NewHandler(notes *noteservice.Notes, folders *noteservice.Folders, stats StatsStore) *Handler {
	return &Handler{notes: notes, folders: folders, stats: stats}
}

// noteScope maps the ?folder= query parameter onto a collection scope:
// absent means every note, "root" means the nil folder, anything else is a
// folder id.
func noteScope(r *http.Request) noteservice.Scope {
	if !r.URL.Query().Has("folder") {
		return noteservice.ScopeAll()
	}
	f := r.URL.Query().Get("folder")
	if f == "" || f == "root" {
		return noteservice.ScopeFolder(nil)
	}
	return noteservice.ScopeFolder(&f)
}

// ListNotes handles GET /notes with optional ?folder= scoping.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.notes.ListIn(r.Context(), noteScope(r))
	if err != nil {
		slog.Error("list notes failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if notes == nil {
		notes = []models.Note{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notes": notes,
		"total": len(notes),
	})
}

// GetNote handles GET /notes/{id}. A miss is an explicit not-found state;
// a read past the fetch bound is a timeout, distinguishable so the client
// can offer a retry.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	note, err := h.notes.Get(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrTimeout):
			writeJSON(w, http.StatusGatewayTimeout, errorBody("request timed out"))
		default:
			slog.Error("get note failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /notes.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	note, err := h.notes.Create(r.Context(), req.Title, req.FolderID)
	if err != nil {
		slog.Error("create note failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// UpdateNote handles PUT /notes/{id}: full-record replacement, last write
// wins. The store stamps updatedAt; the caller's value is ignored.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	id := chi.URLParam(r, "id")

	var note models.Note
	if err := json.NewDecoder(r.Body).Decode(&note); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if note.ID == "" {
		note.ID = id
	}
	if note.ID != id {
		writeJSON(w, http.StatusBadRequest, errorBody("id mismatch"))
		return
	}
	for _, c := range note.Cells {
		if !c.Type.Valid() {
			writeJSON(w, http.StatusBadRequest, errorBody("unknown cell type"))
			return
		}
	}

	stored, err := h.notes.Update(r.Context(), note)
	if err != nil {
		slog.Error("update note failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// DeleteNote handles DELETE /notes/{id}.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.notes.Delete(r.Context(), id); err != nil {
		slog.Error("delete note failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CopyNote handles POST /notes/{id}/copy: a deep duplicate with fresh note
// and cell ids, placed in the requested folder.
func (h *Handler) CopyNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req CopyNoteRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
			return
		}
	}

	src, err := h.notes.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("copy note failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}

	dup, err := h.notes.Copy(r.Context(), src, req.FolderID)
	if err != nil {
		slog.Error("copy note failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusCreated, dup)
}

// ExportNote handles GET /notes/{id}/export: the flattened-text projection
// consumed by the AI panels.
func (h *Handler) ExportNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	note, err := h.notes.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("export note failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, ExportResponse{ID: note.ID, Text: document.Flatten(note)})
}

// LintNote handles GET /notes/{id}/lint: advisory findings over the note's
// flattened text.
func (h *Handler) LintNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	note, err := h.notes.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("lint note failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	issues := lint.Lint(document.Flatten(note))
	if issues == nil {
		issues = []lint.Issue{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"issues": issues})
}

// ListFolders handles GET /folders.
func (h *Handler) ListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.folders.List(r.Context())
	if err != nil {
		slog.Error("list folders failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if folders == nil {
		folders = []models.Folder{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"folders": folders})
}

// CreateFolder handles POST /folders.
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req CreateFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	folder, err := h.folders.Create(r.Context(), req.Name, req.ParentID)
	if err != nil {
		slog.Error("create folder failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusCreated, folder)
}

// UpdateFolder handles PUT /folders/{id}.
func (h *Handler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var folder models.Folder
	if err := json.NewDecoder(r.Body).Decode(&folder); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if folder.ID == "" {
		folder.ID = id
	}
	if folder.ID != id {
		writeJSON(w, http.StatusBadRequest, errorBody("id mismatch"))
		return
	}

	stored, err := h.folders.Update(r.Context(), folder)
	if err != nil {
		slog.Error("update folder failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// DeleteFolder handles DELETE /folders/{id}. The folder's notes are left in
// place with their folder reference dangling.
func (h *Handler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.folders.Delete(r.Context(), id); err != nil {
		slog.Error("delete folder failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetUserStats handles GET /user/stats.
func (h *Handler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.UserStats(r.Context())
	if err != nil {
		slog.Error("get user stats failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// PutUserStats handles PUT /user/stats.
func (h *Handler) PutUserStats(w http.ResponseWriter, r *http.Request) {
	var stats models.UserStats
	if err := json.NewDecoder(r.Body).Decode(&stats); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.stats.PutUserStats(r.Context(), stats); err != nil {
		slog.Error("put user stats failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
