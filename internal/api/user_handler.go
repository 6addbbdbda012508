package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mmaliks/tasker-api/internal/api/shared"
	"github.com/mmaliks/tasker-api/internal/domain"
	"github.com/mmaliks/tasker-api/internal/store"
)

// StrikeChecker bans a user whose strike counter crossed the threshold. It
// returns the strike count it acted on alongside the verdict. Satisfied by
// sweep.StrikeLedger.
type StrikeChecker interface {
	CheckAndBan(ctx context.Context, userID uuid.UUID) (int, bool, error)
}

// UserHandler handles profile, home-summary and achievement requests.
type UserHandler struct {
	userStore        store.UserStore
	taskStore        store.TaskStore
	achievementStore store.AchievementStore
	strikeChecker    StrikeChecker
	validator        *validator.Validate
}

// NewUserHandler creates a new UserHandler with the given dependencies.
func NewUserHandler(
	userStore store.UserStore,
	taskStore store.TaskStore,
	achievementStore store.AchievementStore,
	strikeChecker StrikeChecker,
) *UserHandler {
	return &UserHandler{
		userStore:        userStore,
		taskStore:        taskStore,
		achievementStore: achievementStore,
		strikeChecker:    strikeChecker,
		validator:        validator.New(),
	}
}

// Me handles GET /users/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found in request context")
		return
	}

	user, err := h.userStore.GetByID(r.Context(), userID)
	if err != nil {
		if store.IsNotFoundError(err) {
			shared.RespondWithError(w, r, http.StatusNotFound, "User not found")
			return
		}
		slog.Error("failed to get user", "error", err, "user_id", userID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to get user")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, user)
}

// UpdateMe handles PUT /users/me. Only the display name and the notification
// toggle are client-mutable.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found in request context")
		return
	}

	var req UpdateUserRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, err := h.userStore.GetByID(r.Context(), userID)
	if err != nil {
		if store.IsNotFoundError(err) {
			shared.RespondWithError(w, r, http.StatusNotFound, "User not found")
			return
		}
		slog.Error("failed to get user for update", "error", err, "user_id", userID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to update user")
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.NotificationsOn != nil {
		user.NotificationsOn = *req.NotificationsOn
	}
	user.UpdatedAt = time.Now().UTC()

	if err := user.Validate(); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid user data: "+err.Error())
		return
	}

	if err := h.userStore.Update(r.Context(), user); err != nil {
		slog.Error("failed to update user", "error", err, "user_id", userID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to update user")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, user)
}

// Home handles GET /users/me/home: the day summary shown on the client's
// landing screen.
func (h *UserHandler) Home(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found in request context")
		return
	}

	user, err := h.userStore.GetByID(r.Context(), userID)
	if err != nil {
		if store.IsNotFoundError(err) {
			shared.RespondWithError(w, r, http.StatusNotFound, "User not found")
			return
		}
		slog.Error("failed to get user for home", "error", err, "user_id", userID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to build home summary")
		return
	}

	now := time.Now().UTC()

	completedToday, err := h.taskStore.CountByDeadlineDate(r.Context(), userID, now, true)
	if err != nil {
		slog.Error("failed to count completed tasks", "error", err, "user_id", userID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to build home summary")
		return
	}

	remainingToday, err := h.taskStore.CountByDeadlineDate(r.Context(), userID, now, false)
	if err != nil {
		slog.Error("failed to count remaining tasks", "error", err, "user_id", userID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to build home summary")
		return
	}

	upcoming, nextDeadline, err := h.taskStore.NextUpcoming(r.Context(), userID, now)
	if err != nil {
		slog.Error("failed to find upcoming tasks", "error", err, "user_id", userID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to build home summary")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, HomeResponse{
		CompletedToday:  completedToday,
		RemainingToday:  remainingToday,
		UpcomingCount:   upcoming,
		NextDeadline:    nextDeadline,
		TaskStrikes:     user.TaskStrikes,
		StrikeThreshold: domain.StrikeThreshold,
	})
}

// Achievements handles GET /users/me/achievements: every achievement joined
// with the user's unlock state, with progress computed from the completed
// task count.
func (h *UserHandler) Achievements(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found in request context")
		return
	}

	progress, err := h.achievementStore.ListProgress(r.Context(), userID)
	if err != nil {
		slog.Error("failed to list achievement progress", "error", err, "user_id", userID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to list achievements")
		return
	}

	completed, err := h.taskStore.CountCompleted(r.Context(), userID)
	if err != nil {
		slog.Error("failed to count completed tasks", "error", err, "user_id", userID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to list achievements")
		return
	}

	for _, p := range progress {
		if p.IsCompleted {
			p.Progress = 100
			continue
		}
		p.Progress = progressPercent(completed, p.Condition)
	}

	shared.RespondWithJSON(w, r, http.StatusOK, progress)
}

// AchievementsCheck handles POST /users/me/achievements/check: unlocks every
// achievement whose condition the user's completed-task count now meets, and
// returns the newly unlocked ids.
func (h *UserHandler) AchievementsCheck(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found in request context")
		return
	}

	completed, err := h.taskStore.CountCompleted(r.Context(), userID)
	if err != nil {
		slog.Error("failed to count completed tasks", "error", err, "user_id", userID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to check achievements")
		return
	}

	achievements, err := h.achievementStore.ListAll(r.Context())
	if err != nil {
		slog.Error("failed to list achievements", "error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to check achievements")
		return
	}

	now := time.Now().UTC()
	newlyUnlocked := make([]uuid.UUID, 0)
	for _, a := range achievements {
		if completed < a.Condition {
			continue
		}
		unlocked, err := h.achievementStore.Unlock(r.Context(), userID, a.ID, now)
		if err != nil {
			slog.Error("failed to unlock achievement",
				"error", err, "user_id", userID, "achievement_id", a.ID)
			shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to check achievements")
			return
		}
		if unlocked {
			newlyUnlocked = append(newlyUnlocked, a.ID)
		}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AchievementCheckResponse{
		CompletedTasks: completed,
		NewlyUnlocked:  newlyUnlocked,
	})
}

// StrikesCheck handles POST /users/me/strikes/check: runs the ban cascade
// immediately if the caller's strike counter already crossed the threshold.
// Lets a client catch a ban that accrued while the sweeper was down.
func (h *UserHandler) StrikesCheck(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found in request context")
		return
	}

	strikes, banned, err := h.strikeChecker.CheckAndBan(r.Context(), userID)
	if err != nil {
		if store.IsNotFoundError(err) {
			shared.RespondWithError(w, r, http.StatusNotFound, "User not found")
			return
		}
		slog.Error("failed to run strike check", "error", err, "user_id", userID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to check strikes")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, StrikeCheckResponse{
		Banned:  banned,
		Strikes: strikes,
	})
}

// progressPercent computes an integer 0-100 progress toward a condition.
func progressPercent(completed, condition int) int {
	if condition <= 0 {
		return 0
	}
	pct := completed * 100 / condition
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return pct
}
