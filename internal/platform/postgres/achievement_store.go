package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mmaliks/tasker-api/internal/domain"
	"github.com/mmaliks/tasker-api/internal/platform/logger"
	"github.com/mmaliks/tasker-api/internal/store"
)

// PostgresAchievementStore implements the store.AchievementStore interface
// using a PostgreSQL database as the storage backend.
type PostgresAchievementStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAchievementStore creates a new PostgreSQL implementation of the
// AchievementStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresAchievementStore(db store.DBTX, logger *slog.Logger) *PostgresAchievementStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAchievementStore{
		db:     db,
		logger: logger.With(slog.String("component", "achievement_store")),
	}
}

// Ensure PostgresAchievementStore implements store.AchievementStore interface
var _ store.AchievementStore = (*PostgresAchievementStore)(nil)

// ListAll implements store.AchievementStore.ListAll
func (s *PostgresAchievementStore) ListAll(ctx context.Context) ([]*domain.Achievement, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, sub_title, condition FROM achievements ORDER BY condition`)
	if err != nil {
		log.Error("failed to query achievements", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var achievements []*domain.Achievement
	for rows.Next() {
		var a domain.Achievement
		if err := rows.Scan(&a.ID, &a.Title, &a.SubTitle, &a.Condition); err != nil {
			return nil, err
		}
		achievements = append(achievements, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if achievements == nil {
		achievements = []*domain.Achievement{}
	}
	return achievements, nil
}

// ListProgress implements store.AchievementStore.ListProgress
// Unlock state comes from a left join against the user's unlock records;
// the Progress percentage is filled in by the caller.
func (s *PostgresAchievementStore) ListProgress(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.AchievementProgress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT a.id, a.title, a.sub_title, a.condition,
			ua.id IS NOT NULL AS is_completed, ua.achieved_at
		FROM achievements a
		LEFT JOIN user_achievements ua
			ON a.id = ua.achievement_id AND ua.user_id = $1
		ORDER BY a.condition
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to query achievement progress",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var progress []*domain.AchievementProgress
	for rows.Next() {
		var p domain.AchievementProgress
		var achievedAt sql.NullTime
		err := rows.Scan(&p.ID, &p.Title, &p.SubTitle, &p.Condition,
			&p.IsCompleted, &achievedAt)
		if err != nil {
			return nil, err
		}
		if achievedAt.Valid {
			t := achievedAt.Time
			p.AchievedAt = &t
		}
		progress = append(progress, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if progress == nil {
		progress = []*domain.AchievementProgress{}
	}
	return progress, nil
}

// Unlock implements store.AchievementStore.Unlock
// ON CONFLICT DO NOTHING makes the insert idempotent; the returned boolean
// reports whether a new record was created.
func (s *PostgresAchievementStore) Unlock(
	ctx context.Context,
	userID, achievementID uuid.UUID,
	at time.Time,
) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO user_achievements (id, user_id, achievement_id, achieved_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, achievement_id) DO NOTHING`,
		uuid.New(), userID, achievementID, at)
	if err != nil {
		log.Error("failed to unlock achievement",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("achievement_id", achievementID.String()))
		return false, MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	if rowsAffected > 0 {
		log.Info("achievement unlocked",
			slog.String("user_id", userID.String()),
			slog.String("achievement_id", achievementID.String()))
	}
	return rowsAffected > 0, nil
}

// DeleteByUser implements store.AchievementStore.DeleteByUser
func (s *PostgresAchievementStore) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM user_achievements WHERE user_id = $1`, userID)
	if err != nil {
		log.Error("failed to delete user achievements",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return MapError(err)
	}
	return nil
}

// WithTx implements store.AchievementStore.WithTx
func (s *PostgresAchievementStore) WithTx(tx *sql.Tx) store.AchievementStore {
	return &PostgresAchievementStore{
		db:     tx,
		logger: s.logger,
	}
}
