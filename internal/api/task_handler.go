package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mmaliks/tasker-api/internal/api/shared"
	"github.com/mmaliks/tasker-api/internal/domain"
	"github.com/mmaliks/tasker-api/internal/store"
)

// TaskHandler handles task-related API requests.
type TaskHandler struct {
	taskStore   store.TaskStore
	failedStore store.FailedTaskStore
	userStore   store.UserStore
	validator   *validator.Validate
}

// NewTaskHandler creates a new TaskHandler with the given dependencies.
func NewTaskHandler(
	taskStore store.TaskStore,
	failedStore store.FailedTaskStore,
	userStore store.UserStore,
) *TaskHandler {
	return &TaskHandler{
		taskStore:   taskStore,
		failedStore: failedStore,
		userStore:   userStore,
		validator:   validator.New(),
	}
}

// Create handles POST /tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found in request context")
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	frequency := domain.Frequency(req.Frequency)
	if frequency == "" {
		frequency = domain.FrequencyNone
	}

	task, err := domain.NewTask(
		userID,
		req.Title,
		req.Content,
		domain.TaskType(req.Type),
		frequency,
		req.Deadline,
		req.Dates,
		req.Priority,
		req.FCMToken,
	)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task data: "+err.Error())
		return
	}

	if err := h.taskStore.Create(r.Context(), task); err != nil {
		slog.Error("failed to create task", "error", err, "user_id", userID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to create task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, task)
}

// List handles GET /tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found in request context")
		return
	}

	tasks, err := h.taskStore.ListByUser(r.Context(), userID)
	if err != nil {
		slog.Error("failed to list tasks", "error", err, "user_id", userID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to list tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasks)
}

// Get handles GET /tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := requireUserAndPathID(w, r, "id")
	if !ok {
		return
	}

	task, err := h.taskStore.GetByID(r.Context(), taskID)
	if err != nil {
		if store.IsNotFoundError(err) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
			return
		}
		slog.Error("failed to get task", "error", err, "task_id", taskID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to get task")
		return
	}

	if task.UserID != userID {
		// Ownership mismatch reads as absence, never as a hint the id exists.
		shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// Update handles PUT /tasks/{id}. Non-completion updates consume one of the
// owner's update quota; flipping only the completion flag is free.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := requireUserAndPathID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	task, err := h.taskStore.GetByID(r.Context(), taskID)
	if err != nil {
		if store.IsNotFoundError(err) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
			return
		}
		slog.Error("failed to get task for update", "error", err, "task_id", taskID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to update task")
		return
	}
	if task.UserID != userID {
		shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
		return
	}

	completionOnly := isCompletionOnly(&req)
	if !completionOnly {
		user, err := h.userStore.GetByID(r.Context(), userID)
		if err != nil {
			slog.Error("failed to load user for quota check", "error", err, "user_id", userID)
			shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to update task")
			return
		}
		if user.RemainingUpdates <= 0 {
			shared.RespondWithError(w, r, http.StatusForbidden, "No remaining task updates")
			return
		}
		user.RemainingUpdates--
		user.UpdatedAt = time.Now().UTC()
		if err := h.userStore.Update(r.Context(), user); err != nil {
			slog.Error("failed to consume update quota", "error", err, "user_id", userID)
			shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to update task")
			return
		}
	}

	applyTaskUpdate(task, &req)
	if err := task.Validate(); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task data: "+err.Error())
		return
	}

	if err := h.taskStore.Update(r.Context(), task); err != nil {
		if store.IsNotFoundError(err) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
			return
		}
		slog.Error("failed to update task", "error", err, "task_id", taskID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to update task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// Delete handles DELETE /tasks/{id}. Deletes consume the owner's delete quota.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := requireUserAndPathID(w, r, "id")
	if !ok {
		return
	}

	user, err := h.userStore.GetByID(r.Context(), userID)
	if err != nil {
		slog.Error("failed to load user for quota check", "error", err, "user_id", userID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to delete task")
		return
	}
	if user.RemainingDeletes <= 0 {
		shared.RespondWithError(w, r, http.StatusForbidden, "No remaining task deletes")
		return
	}

	if err := h.taskStore.Delete(r.Context(), taskID, userID); err != nil {
		if store.IsNotFoundError(err) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
			return
		}
		slog.Error("failed to delete task", "error", err, "task_id", taskID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to delete task")
		return
	}

	user.RemainingDeletes--
	user.UpdatedAt = time.Now().UTC()
	if err := h.userStore.Update(r.Context(), user); err != nil {
		slog.Error("failed to consume delete quota", "error", err, "user_id", userID)
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListFailed handles GET /tasks/failed.
func (h *TaskHandler) ListFailed(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found in request context")
		return
	}

	failed, err := h.failedStore.ListByUser(r.Context(), userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.Error("failed to list failed tasks", "error", err, "user_id", userID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to list failed tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, failed)
}

// isCompletionOnly reports whether the update touches nothing but the
// completion flag.
func isCompletionOnly(req *UpdateTaskRequest) bool {
	return req.IsCompleted != nil &&
		req.Title == nil &&
		req.Content == nil &&
		req.Deadline == nil &&
		req.Dates == nil &&
		req.Priority == nil &&
		req.FCMToken == nil
}

// applyTaskUpdate copies the request's present fields onto the task.
func applyTaskUpdate(task *domain.Task, req *UpdateTaskRequest) {
	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Content != nil {
		task.Content = *req.Content
	}
	if req.Deadline != nil {
		task.Deadline = req.Deadline
	}
	if req.Dates != nil {
		task.Dates = req.Dates
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.FCMToken != nil {
		task.FCMToken = *req.FCMToken
	}
	if req.IsCompleted != nil {
		if *req.IsCompleted {
			task.MarkCompleted()
			return
		}
		task.IsCompleted = false
	}
	task.UpdatedAt = time.Now().UTC()
}
