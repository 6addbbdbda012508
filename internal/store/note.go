package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/mmaliks/tasker-api/internal/domain"
)

// NoteStore defines the interface for note data persistence.
type NoteStore interface {
	// Create saves a new note to the store.
	Create(ctx context.Context, note *domain.Note) error

	// GetByID retrieves a note by its unique ID.
	// Returns ErrNoteNotFound if the note does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error)

	// ListByUser retrieves all notes owned by the given user, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Note, error)

	// Update modifies an existing note owned by the given user.
	// Returns ErrNoteNotFound if no note matches the id/owner pair.
	Update(ctx context.Context, note *domain.Note) error

	// Delete removes a note owned by the given user.
	// Returns ErrNoteNotFound if no note matches the id/owner pair.
	Delete(ctx context.Context, id, userID uuid.UUID) error

	// DeleteByUser removes all notes owned by the user. Part of the ban cascade.
	DeleteByUser(ctx context.Context, userID uuid.UUID) error

	// WithTx returns a new NoteStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) NoteStore
}
