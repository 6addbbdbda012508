package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mmaliks/tasker-api/internal/api/shared"
	"github.com/mmaliks/tasker-api/internal/domain"
	"github.com/mmaliks/tasker-api/internal/store"
)

// NoteHandler handles note-related API requests.
type NoteHandler struct {
	noteStore store.NoteStore
	validator *validator.Validate
}

// NewNoteHandler creates a new NoteHandler with the given dependencies.
func NewNoteHandler(noteStore store.NoteStore) *NoteHandler {
	return &NoteHandler{
		noteStore: noteStore,
		validator: validator.New(),
	}
}

// Create handles POST /notes.
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found in request context")
		return
	}

	var req CreateNoteRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	note, err := domain.NewNote(userID, req.Title, req.Content)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid note data: "+err.Error())
		return
	}

	if err := h.noteStore.Create(r.Context(), note); err != nil {
		slog.Error("failed to create note", "error", err, "user_id", userID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to create note")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, note)
}

// List handles GET /notes.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found in request context")
		return
	}

	notes, err := h.noteStore.ListByUser(r.Context(), userID)
	if err != nil {
		slog.Error("failed to list notes", "error", err, "user_id", userID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to list notes")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, notes)
}

// Update handles PUT /notes/{id}.
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, noteID, ok := requireUserAndPathID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateNoteRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	note, err := h.noteStore.GetByID(r.Context(), noteID)
	if err != nil {
		if store.IsNotFoundError(err) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Note not found")
			return
		}
		slog.Error("failed to get note for update", "error", err, "note_id", noteID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to update note")
		return
	}
	if note.UserID != userID {
		shared.RespondWithError(w, r, http.StatusNotFound, "Note not found")
		return
	}

	if req.Title != nil {
		note.Title = *req.Title
	}
	if req.Content != nil {
		note.Content = *req.Content
	}
	note.UpdatedAt = time.Now().UTC()

	if err := note.Validate(); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid note data: "+err.Error())
		return
	}

	if err := h.noteStore.Update(r.Context(), note); err != nil {
		if store.IsNotFoundError(err) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Note not found")
			return
		}
		slog.Error("failed to update note", "error", err, "note_id", noteID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to update note")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, note)
}

// Delete handles DELETE /notes/{id}.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, noteID, ok := requireUserAndPathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.noteStore.Delete(r.Context(), noteID, userID); err != nil {
		if store.IsNotFoundError(err) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Note not found")
			return
		}
		slog.Error("failed to delete note", "error", err, "note_id", noteID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to delete note")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "deleted"})
}
