package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/mmaliks/tasker-api/internal/domain"
)

// FailedTaskStore defines the interface for failed-task snapshot persistence.
type FailedTaskStore interface {
	// Create inserts a failed-task snapshot. The task_id column carries a
	// unique constraint; inserting a second snapshot for the same original
	// task returns ErrTaskAlreadyFailed.
	Create(ctx context.Context, failed *domain.FailedTask) error

	// ExistsForTask reports whether a snapshot already references the given
	// original task id. The sweeper checks this before starting the failure
	// transition so duplicate ticks are bounded to at most one strike.
	ExistsForTask(ctx context.Context, taskID uuid.UUID) (bool, error)

	// ListByUser retrieves the user's failed tasks, most recent first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.FailedTask, error)

	// DeleteByUser removes all of the user's failed tasks. Part of the ban cascade.
	DeleteByUser(ctx context.Context, userID uuid.UUID) error

	// WithTx returns a new FailedTaskStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) FailedTaskStore
}
