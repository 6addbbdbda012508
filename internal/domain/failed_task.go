package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// FailedTask-specific validation errors
var (
	// ErrFailedTaskIDEmpty is returned when a failed task ID is empty or nil.
	ErrFailedTaskIDEmpty = errors.New("failed task ID cannot be empty")

	// ErrFailedTaskTaskIDEmpty is returned when the back-reference to the
	// original task is empty or nil.
	ErrFailedTaskTaskIDEmpty = errors.New("failed task must reference the original task")

	// ErrFailedTaskUserIDEmpty is returned when a failed task's user ID is empty or nil.
	ErrFailedTaskUserIDEmpty = errors.New("failed task user ID cannot be empty")
)

// FailedTask is a terminal snapshot of a Task taken at the moment the sweeper
// judged it overdue and incomplete. At most one FailedTask exists per original
// task id; the record is never mutated and is deleted only by the cascading
// user deletion. TaskID is a non-owning back-reference; the original Task row
// is removed as part of the failure transition.
type FailedTask struct {
	ID        uuid.UUID  `json:"id"`
	TaskID    uuid.UUID  `json:"task_id"`
	UserID    uuid.UUID  `json:"user_id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Type      TaskType   `json:"task_type"`
	Frequency Frequency  `json:"frequency"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	Dates     []string   `json:"dates,omitempty"`
	Priority  string     `json:"task_priority"`
	FCMToken  string     `json:"fcm_token,omitempty"`
	FailedAt  time.Time  `json:"failed_at"`
}

// NewFailedTask snapshots the given task as failed at the given instant.
func NewFailedTask(task *Task, failedAt time.Time) (*FailedTask, error) {
	failed := &FailedTask{
		ID:        uuid.New(),
		TaskID:    task.ID,
		UserID:    task.UserID,
		Title:     task.Title,
		Content:   task.Content,
		Type:      task.Type,
		Frequency: task.Frequency,
		Deadline:  task.Deadline,
		Dates:     task.Dates,
		Priority:  task.Priority,
		FCMToken:  task.FCMToken,
		FailedAt:  failedAt.UTC(),
	}

	if err := failed.Validate(); err != nil {
		return nil, err
	}

	return failed, nil
}

// Validate checks if the FailedTask has valid data.
func (f *FailedTask) Validate() error {
	if f.ID == uuid.Nil {
		return ErrFailedTaskIDEmpty
	}

	if f.TaskID == uuid.Nil {
		return ErrFailedTaskTaskIDEmpty
	}

	if f.UserID == uuid.Nil {
		return ErrFailedTaskUserIDEmpty
	}

	return nil
}
