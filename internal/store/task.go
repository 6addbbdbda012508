package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/mmaliks/tasker-api/internal/domain"
)

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task to the store.
	// Returns validation errors from the domain Task if data is invalid.
	// Returns ErrInvalidEntity if the owning user does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// ListByUser retrieves all tasks owned by the given user, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// Update modifies an existing task owned by the given user.
	// Returns ErrTaskNotFound if no task matches the id/owner pair.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task owned by the given user.
	// Returns ErrTaskNotFound if no task matches the id/owner pair.
	Delete(ctx context.Context, id, userID uuid.UUID) error

	// DeleteByID removes a task regardless of owner scoping. Used by the
	// sweeper's failure transition.
	// Returns ErrTaskNotFound if the task does not exist.
	DeleteByID(ctx context.Context, id uuid.UUID) error

	// FindDeadlineCandidates retrieves incomplete deadline-based tasks that
	// have a push target configured. These are the tasks the sweeper
	// evaluates for deadline reminders.
	FindDeadlineCandidates(ctx context.Context) ([]*domain.Task, error)

	// FindCustomCandidates retrieves incomplete custom-frequency tasks that
	// have a push target configured.
	FindCustomCandidates(ctx context.Context) ([]*domain.Task, error)

	// FindOverdue retrieves incomplete deadline-based tasks whose deadline is
	// strictly before the supplied instant.
	FindOverdue(ctx context.Context, now time.Time) ([]*domain.Task, error)

	// CountCompleted returns the number of completed tasks owned by the user.
	// Drives achievement unlocking.
	CountCompleted(ctx context.Context, userID uuid.UUID) (int, error)

	// CountByDeadlineDate returns the number of the user's tasks whose
	// deadline falls on the same calendar day as the supplied instant,
	// filtered by completion flag.
	CountByDeadlineDate(ctx context.Context, userID uuid.UUID, day time.Time, completed bool) (int, error)

	// NextUpcoming returns how many incomplete tasks the user has with a
	// deadline after the supplied instant, and the nearest such deadline
	// (nil when there are none).
	NextUpcoming(ctx context.Context, userID uuid.UUID, now time.Time) (int, *time.Time, error)

	// DeleteByUser removes all tasks owned by the user. Part of the ban cascade.
	DeleteByUser(ctx context.Context, userID uuid.UUID) error

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	// The transaction should be created and managed by the caller.
	WithTx(tx *sql.Tx) TaskStore
}
