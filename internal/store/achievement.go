package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/mmaliks/tasker-api/internal/domain"
)

// AchievementStore defines the interface for achievement persistence.
type AchievementStore interface {
	// ListAll retrieves every achievement definition.
	ListAll(ctx context.Context) ([]*domain.Achievement, error)

	// ListProgress retrieves every achievement joined with the user's unlock
	// state. Progress percentages are computed by the caller from the user's
	// completed-task count.
	ListProgress(ctx context.Context, userID uuid.UUID) ([]*domain.AchievementProgress, error)

	// Unlock records that the user unlocked the achievement at the given
	// instant. The insert is idempotent; the boolean reports whether a new
	// record was created.
	Unlock(ctx context.Context, userID, achievementID uuid.UUID, at time.Time) (bool, error)

	// DeleteByUser removes all of the user's unlock records. Part of the ban cascade.
	DeleteByUser(ctx context.Context, userID uuid.UUID) error

	// WithTx returns a new AchievementStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) AchievementStore
}
