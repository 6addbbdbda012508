package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmaliks/tasker-api/internal/domain"
	"github.com/mmaliks/tasker-api/internal/store"
)

func TestNoteCreateAndList(t *testing.T) {
	t.Parallel()

	noteStore := newFakeNoteStore()
	handler := NewNoteHandler(noteStore)
	userID := uuid.New()

	req := authedRequest(t, "POST", "/api/notes", userID, "", "", map[string]interface{}{
		"title":   "Shopping",
		"content": "milk, eggs",
	})
	recorder := httptest.NewRecorder()
	handler.Create(recorder, req)

	require.Equal(t, http.StatusCreated, recorder.Code)

	var created domain.Note
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&created))
	assert.Equal(t, userID, created.UserID)
	assert.Equal(t, "Shopping", created.Title)

	// Listing only surfaces the caller's notes
	other, err := domain.NewNote(uuid.New(), "Other", "")
	require.NoError(t, err)
	require.NoError(t, noteStore.Create(context.Background(), other))

	req = authedRequest(t, "GET", "/api/notes", userID, "", "", nil)
	recorder = httptest.NewRecorder()
	handler.List(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)

	var listed []*domain.Note
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)
}

func TestNoteUpdateOwnership(t *testing.T) {
	t.Parallel()

	noteStore := newFakeNoteStore()
	handler := NewNoteHandler(noteStore)
	userID := uuid.New()

	note, err := domain.NewNote(userID, "Shopping", "milk")
	require.NoError(t, err)
	require.NoError(t, noteStore.Create(context.Background(), note))

	title := "Groceries"

	// A stranger's update reads as absence
	req := authedRequest(t, "PUT", "/api/notes/"+note.ID.String(),
		uuid.New(), "id", note.ID.String(), UpdateNoteRequest{Title: &title})
	recorder := httptest.NewRecorder()
	handler.Update(recorder, req)

	assert.Equal(t, http.StatusNotFound, recorder.Code)

	// The owner's update lands
	req = authedRequest(t, "PUT", "/api/notes/"+note.ID.String(),
		userID, "id", note.ID.String(), UpdateNoteRequest{Title: &title})
	recorder = httptest.NewRecorder()
	handler.Update(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)

	updated, err := noteStore.GetByID(context.Background(), note.ID)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", updated.Title)
}

func TestNoteDelete(t *testing.T) {
	t.Parallel()

	noteStore := newFakeNoteStore()
	handler := NewNoteHandler(noteStore)
	userID := uuid.New()

	note, err := domain.NewNote(userID, "Shopping", "")
	require.NoError(t, err)
	require.NoError(t, noteStore.Create(context.Background(), note))

	req := authedRequest(t, "DELETE", "/api/notes/"+note.ID.String(),
		userID, "id", note.ID.String(), nil)
	recorder := httptest.NewRecorder()
	handler.Delete(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)

	_, err = noteStore.GetByID(context.Background(), note.ID)
	assert.ErrorIs(t, err, store.ErrNoteNotFound)
}
