package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Note-specific validation errors
var (
	// ErrNoteIDEmpty is returned when a note ID is empty or nil.
	ErrNoteIDEmpty = errors.New("note ID cannot be empty")

	// ErrNoteUserIDEmpty is returned when a note's user ID is empty or nil.
	ErrNoteUserIDEmpty = errors.New("note user ID cannot be empty")

	// ErrNoteTitleEmpty is returned when a note's title is empty.
	ErrNoteTitleEmpty = errors.New("note title cannot be empty")
)

// Note is a free-form piece of text owned by a user.
type Note struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewNote creates a new Note owned by userID. It generates a new UUID for the
// note ID and sets the creation/update timestamps.
// Returns an error if validation fails.
func NewNote(userID uuid.UUID, title, content string) (*Note, error) {
	note := &Note{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Content:   content,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := note.Validate(); err != nil {
		return nil, err
	}

	return note, nil
}

// Validate checks if the Note has valid data.
func (n *Note) Validate() error {
	if n.ID == uuid.Nil {
		return ErrNoteIDEmpty
	}

	if n.UserID == uuid.Nil {
		return ErrNoteUserIDEmpty
	}

	if n.Title == "" {
		return ErrNoteTitleEmpty
	}

	return nil
}
