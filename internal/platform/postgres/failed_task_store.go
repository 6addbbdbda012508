package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mmaliks/tasker-api/internal/domain"
	"github.com/mmaliks/tasker-api/internal/platform/logger"
	"github.com/mmaliks/tasker-api/internal/store"
)

// PostgresFailedTaskStore implements the store.FailedTaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresFailedTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresFailedTaskStore creates a new PostgreSQL implementation of the
// FailedTaskStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresFailedTaskStore(db store.DBTX, logger *slog.Logger) *PostgresFailedTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresFailedTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "failed_task_store")),
	}
}

// Ensure PostgresFailedTaskStore implements store.FailedTaskStore interface
var _ store.FailedTaskStore = (*PostgresFailedTaskStore)(nil)

// Create implements store.FailedTaskStore.Create
// The failed_tasks.task_id column carries a unique constraint, so inserting a
// second snapshot for the same original task returns store.ErrTaskAlreadyFailed.
func (s *PostgresFailedTaskStore) Create(ctx context.Context, failed *domain.FailedTask) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := failed.Validate(); err != nil {
		log.Warn("failed task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", failed.TaskID.String()))
		return err
	}

	dates, err := json.Marshal(failed.Dates)
	if err != nil {
		return fmt.Errorf("failed to marshal failed task dates: %w", err)
	}

	query := `
		INSERT INTO failed_tasks (id, task_id, user_id, title, content,
			task_type, frequency, deadline, dates, task_priority, fcm_token,
			failed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		failed.ID,
		failed.TaskID,
		failed.UserID,
		failed.Title,
		failed.Content,
		failed.Type,
		failed.Frequency,
		failed.Deadline,
		dates,
		failed.Priority,
		failed.FCMToken,
		failed.FailedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("failed task snapshot already exists",
				slog.String("task_id", failed.TaskID.String()))
			return store.ErrTaskAlreadyFailed
		}

		log.Error("failed to create failed task snapshot",
			slog.String("error", err.Error()),
			slog.String("task_id", failed.TaskID.String()),
			slog.String("user_id", failed.UserID.String()))
		return MapError(err)
	}

	log.Info("failed task snapshot created",
		slog.String("task_id", failed.TaskID.String()),
		slog.String("user_id", failed.UserID.String()))
	return nil
}

// ExistsForTask implements store.FailedTaskStore.ExistsForTask
func (s *PostgresFailedTaskStore) ExistsForTask(ctx context.Context, taskID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM failed_tasks WHERE task_id = $1)`,
		taskID).Scan(&exists)
	if err != nil {
		return false, MapError(err)
	}
	return exists, nil
}

// ListByUser implements store.FailedTaskStore.ListByUser
func (s *PostgresFailedTaskStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.FailedTask, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, task_id, user_id, title, content, task_type, frequency,
			deadline, dates, task_priority, fcm_token, failed_at
		FROM failed_tasks
		WHERE user_id = $1
		ORDER BY failed_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to query failed tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var failedTasks []*domain.FailedTask
	for rows.Next() {
		var failed domain.FailedTask
		var taskType, frequency string
		var deadline sql.NullTime
		var dates []byte

		err := rows.Scan(
			&failed.ID,
			&failed.TaskID,
			&failed.UserID,
			&failed.Title,
			&failed.Content,
			&taskType,
			&frequency,
			&deadline,
			&dates,
			&failed.Priority,
			&failed.FCMToken,
			&failed.FailedAt,
		)
		if err != nil {
			log.Error("failed to scan failed task row",
				slog.String("error", err.Error()))
			return nil, err
		}

		failed.Type = domain.TaskType(taskType)
		failed.Frequency = domain.Frequency(frequency)
		if deadline.Valid {
			t := deadline.Time
			failed.Deadline = &t
		}
		if len(dates) > 0 {
			if err := json.Unmarshal(dates, &failed.Dates); err != nil {
				return nil, fmt.Errorf("failed to unmarshal failed task dates: %w", err)
			}
		}

		failedTasks = append(failedTasks, &failed)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	if failedTasks == nil {
		failedTasks = []*domain.FailedTask{}
	}
	return failedTasks, nil
}

// DeleteByUser implements store.FailedTaskStore.DeleteByUser
func (s *PostgresFailedTaskStore) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM failed_tasks WHERE user_id = $1`, userID)
	if err != nil {
		log.Error("failed to delete failed tasks by user",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return MapError(err)
	}
	return nil
}

// WithTx implements store.FailedTaskStore.WithTx
func (s *PostgresFailedTaskStore) WithTx(tx *sql.Tx) store.FailedTaskStore {
	return &PostgresFailedTaskStore{
		db:     tx,
		logger: s.logger,
	}
}
