package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mmaliks/tasker-api/internal/domain"
	"github.com/mmaliks/tasker-api/internal/platform/logger"
	"github.com/mmaliks/tasker-api/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the
// TaskStore interface. It accepts a database connection or transaction that
// should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

const taskColumns = `id, user_id, title, content, task_type, frequency,
		deadline, dates, is_completed, task_priority, fcm_token,
		created_at, updated_at`

// Create implements store.TaskStore.Create
// Returns validation errors from the domain Task if data is invalid.
// Returns store.ErrInvalidEntity if the owning user doesn't exist.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	dates, err := json.Marshal(task.Dates)
	if err != nil {
		return fmt.Errorf("failed to marshal task dates: %w", err)
	}

	query := `
		INSERT INTO tasks (id, user_id, title, content, task_type, frequency,
			deadline, dates, is_completed, task_priority, fcm_token,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.UserID,
		task.Title,
		task.Content,
		task.Type,
		task.Frequency,
		task.Deadline,
		dates,
		task.IsCompleted,
		task.Priority,
		task.FCMToken,
		task.CreatedAt,
		task.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during task creation",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()),
				slog.String("user_id", task.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, task.UserID)
		}

		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("user_id", task.UserID.String()))
		return MapError(err)
	}

	log.Info("task created successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", task.UserID.String()),
		slog.String("task_type", string(task.Type)))
	return nil
}

// GetByID implements store.TaskStore.GetByID
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}

	return task, nil
}

// ListByUser implements store.TaskStore.ListByUser
func (s *PostgresTaskStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1
		ORDER BY created_at DESC`
	return s.queryTasks(ctx, query, userID)
}

// Update implements store.TaskStore.Update
// The update is scoped to the task's owner.
// Returns store.ErrTaskNotFound if no task matches the id/owner pair.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	dates, err := json.Marshal(task.Dates)
	if err != nil {
		return fmt.Errorf("failed to marshal task dates: %w", err)
	}

	task.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE tasks
		SET title = $1, content = $2, task_type = $3, frequency = $4,
			deadline = $5, dates = $6, is_completed = $7, task_priority = $8,
			fcm_token = $9, updated_at = $10
		WHERE id = $11 AND user_id = $12
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		task.Title,
		task.Content,
		task.Type,
		task.Frequency,
		task.Deadline,
		dates,
		task.IsCompleted,
		task.Priority,
		task.FCMToken,
		task.UpdatedAt,
		task.ID,
		task.UserID,
	)

	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		log.Debug("task not found for update",
			slog.String("task_id", task.ID.String()))
		return store.ErrTaskNotFound
	}

	log.Info("task updated successfully",
		slog.String("task_id", task.ID.String()))
	return nil
}

// Delete implements store.TaskStore.Delete
// Returns store.ErrTaskNotFound if no task matches the id/owner pair.
func (s *PostgresTaskStore) Delete(ctx context.Context, id, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		return store.ErrTaskNotFound
	}

	log.Info("task deleted successfully", slog.String("task_id", id.String()))
	return nil
}

// DeleteByID implements store.TaskStore.DeleteByID
// Unlike Delete it is not owner-scoped; only the sweeper uses it.
func (s *PostgresTaskStore) DeleteByID(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		return store.ErrTaskNotFound
	}

	return nil
}

// FindDeadlineCandidates implements store.TaskStore.FindDeadlineCandidates
func (s *PostgresTaskStore) FindDeadlineCandidates(ctx context.Context) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + `
		FROM tasks
		WHERE deadline IS NOT NULL AND is_completed = FALSE AND fcm_token <> ''`
	return s.queryTasks(ctx, query)
}

// FindCustomCandidates implements store.TaskStore.FindCustomCandidates
func (s *PostgresTaskStore) FindCustomCandidates(ctx context.Context) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + `
		FROM tasks
		WHERE frequency = 'custom' AND is_completed = FALSE AND fcm_token <> ''`
	return s.queryTasks(ctx, query)
}

// FindOverdue implements store.TaskStore.FindOverdue
func (s *PostgresTaskStore) FindOverdue(ctx context.Context, now time.Time) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + `
		FROM tasks
		WHERE deadline IS NOT NULL AND is_completed = FALSE AND deadline < $1`
	return s.queryTasks(ctx, query, now)
}

// CountCompleted implements store.TaskStore.CountCompleted
func (s *PostgresTaskStore) CountCompleted(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE user_id = $1 AND is_completed = TRUE`,
		userID).Scan(&count)
	if err != nil {
		return 0, MapError(err)
	}
	return count, nil
}

// CountByDeadlineDate implements store.TaskStore.CountByDeadlineDate
func (s *PostgresTaskStore) CountByDeadlineDate(
	ctx context.Context,
	userID uuid.UUID,
	day time.Time,
	completed bool,
) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks
		 WHERE user_id = $1 AND deadline::date = $2::date AND is_completed = $3`,
		userID, day, completed).Scan(&count)
	if err != nil {
		return 0, MapError(err)
	}
	return count, nil
}

// NextUpcoming implements store.TaskStore.NextUpcoming
func (s *PostgresTaskStore) NextUpcoming(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
) (int, *time.Time, error) {
	var count int
	var next sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(deadline) FROM tasks
		 WHERE user_id = $1 AND is_completed = FALSE AND deadline > $2`,
		userID, now).Scan(&count, &next)
	if err != nil {
		return 0, nil, MapError(err)
	}

	if !next.Valid {
		return count, nil, nil
	}
	return count, &next.Time, nil
}

// DeleteByUser implements store.TaskStore.DeleteByUser
// Deleting zero rows is not an error; a banned user may own no tasks.
func (s *PostgresTaskStore) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE user_id = $1`, userID)
	if err != nil {
		log.Error("failed to delete tasks by user",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return MapError(err)
	}
	return nil
}

// WithTx implements store.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// queryTasks runs a multi-row task query and scans the results.
func (s *PostgresTaskStore) queryTasks(
	ctx context.Context,
	query string,
	args ...any,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, err
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	if tasks == nil {
		tasks = []*domain.Task{}
	}
	return tasks, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask scans one task row, decoding the jsonb dates column and the
// nullable deadline.
func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var taskType, frequency string
	var deadline sql.NullTime
	var dates []byte

	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Content,
		&taskType,
		&frequency,
		&deadline,
		&dates,
		&task.IsCompleted,
		&task.Priority,
		&task.FCMToken,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Type = domain.TaskType(taskType)
	task.Frequency = domain.Frequency(frequency)
	if deadline.Valid {
		t := deadline.Time
		task.Deadline = &t
	}
	if len(dates) > 0 {
		if err := json.Unmarshal(dates, &task.Dates); err != nil {
			return nil, fmt.Errorf("failed to unmarshal task dates: %w", err)
		}
	}

	return &task, nil
}
