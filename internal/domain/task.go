package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Task-specific validation errors
var (
	// ErrTaskIDEmpty is returned when a task ID is empty or nil.
	ErrTaskIDEmpty = errors.New("task ID cannot be empty")

	// ErrTaskUserIDEmpty is returned when a task's user ID is empty or nil.
	ErrTaskUserIDEmpty = errors.New("task user ID cannot be empty")

	// ErrTaskTitleEmpty is returned when a task's title is empty.
	ErrTaskTitleEmpty = errors.New("task title cannot be empty")

	// ErrTaskInvalidType is returned when a task's type/frequency combination
	// is not one of the supported variants.
	ErrTaskInvalidType = errors.New("invalid task type/frequency combination")

	// ErrTaskDeadlineMissing is returned when a deadline-based task carries
	// no deadline instant.
	ErrTaskDeadlineMissing = errors.New("task deadline is required")

	// ErrTaskDatesMissing is returned when a custom scheduled task carries
	// an empty dates list.
	ErrTaskDatesMissing = errors.New("custom tasks must include at least one date")
)

// TaskType identifies how a task's schedule is represented.
type TaskType string

const (
	// TaskTypeOneTime is a task with a single absolute deadline.
	TaskTypeOneTime TaskType = "oneTime"

	// TaskTypeScheduled is a recurring task; its Frequency selects the
	// deadline representation.
	TaskTypeScheduled TaskType = "scheduled"
)

// Frequency describes the recurrence of a scheduled task.
type Frequency string

const (
	FrequencyEveryday  Frequency = "everyday"
	FrequencyEveryweek Frequency = "everyweek"
	FrequencyCustom    Frequency = "custom"
	FrequencyNone      Frequency = "none"
)

// Task represents a to-do item owned by a user. Exactly one of Deadline and
// Dates is authoritative: custom scheduled tasks carry a list of absolute
// date strings, every other type/frequency combination carries a single
// deadline instant.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Type        TaskType   `json:"task_type"`
	Frequency   Frequency  `json:"frequency"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Dates       []string   `json:"dates,omitempty"`
	IsCompleted bool       `json:"is_completed"`
	Priority    string     `json:"task_priority"`
	FCMToken    string     `json:"fcm_token,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewTask creates a new Task owned by userID. It generates a new UUID for the
// task ID and sets the creation/update timestamps.
// Returns an error if validation fails.
func NewTask(
	userID uuid.UUID,
	title, content string,
	taskType TaskType,
	frequency Frequency,
	deadline *time.Time,
	dates []string,
	priority string,
	fcmToken string,
) (*Task, error) {
	task := &Task{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Content:   content,
		Type:      taskType,
		Frequency: frequency,
		Deadline:  deadline,
		Dates:     dates,
		Priority:  priority,
		FCMToken:  fcmToken,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}

	if t.UserID == uuid.Nil {
		return ErrTaskUserIDEmpty
	}

	if t.Title == "" {
		return ErrTaskTitleEmpty
	}

	switch {
	case t.Type == TaskTypeOneTime && (t.Frequency == FrequencyNone || t.Frequency == ""),
		t.Type == TaskTypeScheduled && (t.Frequency == FrequencyEveryday || t.Frequency == FrequencyEveryweek):
		if t.Deadline == nil || t.Deadline.IsZero() {
			return ErrTaskDeadlineMissing
		}
	case t.Type == TaskTypeScheduled && t.Frequency == FrequencyCustom:
		if len(t.Dates) == 0 {
			return ErrTaskDatesMissing
		}
	default:
		return ErrTaskInvalidType
	}

	return nil
}

// IsCustom reports whether the task's schedule is a custom date list rather
// than a single deadline.
func (t *Task) IsCustom() bool {
	return t.Type == TaskTypeScheduled && t.Frequency == FrequencyCustom
}

// EffectiveDeadlines returns the instants against which reminder and overdue
// logic is evaluated: the single deadline for deadline-based tasks, or every
// parseable entry of the custom date list. Malformed entries are skipped
// individually; the second return value reports how many were skipped so the
// caller can surface a warning without aborting evaluation.
func (t *Task) EffectiveDeadlines() ([]time.Time, int) {
	if !t.IsCustom() {
		if t.Deadline == nil {
			return nil, 0
		}
		return []time.Time{*t.Deadline}, 0
	}

	deadlines := make([]time.Time, 0, len(t.Dates))
	skipped := 0
	for _, raw := range t.Dates {
		instant, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			skipped++
			continue
		}
		deadlines = append(deadlines, instant)
	}
	return deadlines, skipped
}

// MarkCompleted sets the completion flag and updates the UpdatedAt timestamp.
func (t *Task) MarkCompleted() {
	t.IsCompleted = true
	t.UpdatedAt = time.Now().UTC()
}
