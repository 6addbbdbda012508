package api

import (
	"time"

	"github.com/google/uuid"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,min=1,max=100"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	// UserID is the unique identifier for the authenticated user
	UserID uuid.UUID `json:"user_id"`

	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"token"`

	// RefreshToken is the JWT token used to obtain new access tokens
	RefreshToken string `json:"refresh_token,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse defines the successful response for the token refresh endpoint.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// CreateTaskRequest defines the payload for task creation.
// Custom scheduled tasks carry dates; every other type/frequency combination
// carries a deadline. The domain layer enforces the exact invariant.
type CreateTaskRequest struct {
	Title     string     `json:"title"         validate:"required,min=1,max=200"`
	Content   string     `json:"content"       validate:"max=2000"`
	Type      string     `json:"task_type"     validate:"required,oneof=oneTime scheduled"`
	Frequency string     `json:"frequency"     validate:"omitempty,oneof=everyday everyweek custom none"`
	Deadline  *time.Time `json:"deadline"`
	Dates     []string   `json:"dates"`
	Priority  string     `json:"task_priority" validate:"omitempty,max=50"`
	FCMToken  string     `json:"fcm_token"     validate:"omitempty,max=512"`
}

// UpdateTaskRequest defines the payload for task updates. All fields are
// optional; absent fields keep their stored value. An update that only flips
// the completion flag does not consume the owner's update quota.
type UpdateTaskRequest struct {
	Title       *string    `json:"title"         validate:"omitempty,min=1,max=200"`
	Content     *string    `json:"content"       validate:"omitempty,max=2000"`
	Deadline    *time.Time `json:"deadline"`
	Dates       []string   `json:"dates"`
	Priority    *string    `json:"task_priority" validate:"omitempty,max=50"`
	FCMToken    *string    `json:"fcm_token"     validate:"omitempty,max=512"`
	IsCompleted *bool      `json:"is_completed"`
}

// CreateNoteRequest defines the payload for note creation.
type CreateNoteRequest struct {
	Title   string `json:"title"   validate:"required,min=1,max=200"`
	Content string `json:"content" validate:"max=10000"`
}

// UpdateNoteRequest defines the payload for note updates.
type UpdateNoteRequest struct {
	Title   *string `json:"title"   validate:"omitempty,min=1,max=200"`
	Content *string `json:"content" validate:"omitempty,max=10000"`
}

// UpdateUserRequest defines the payload for profile updates.
type UpdateUserRequest struct {
	Name            *string `json:"name"             validate:"omitempty,min=1,max=100"`
	NotificationsOn *bool   `json:"notifications_on"`
}

// HomeResponse summarizes the user's day for the client's home screen.
type HomeResponse struct {
	CompletedToday  int        `json:"completed_today"`
	RemainingToday  int        `json:"remaining_today"`
	UpcomingCount   int        `json:"upcoming_count"`
	NextDeadline    *time.Time `json:"next_deadline,omitempty"`
	TaskStrikes     int        `json:"task_strikes"`
	StrikeThreshold int        `json:"strike_threshold"`
}

// StrikeCheckResponse reports the outcome of a manual strike check.
type StrikeCheckResponse struct {
	Banned  bool `json:"banned"`
	Strikes int  `json:"strikes"`
}

// AchievementCheckResponse lists the achievements newly unlocked by a check.
type AchievementCheckResponse struct {
	CompletedTasks int         `json:"completed_tasks"`
	NewlyUnlocked  []uuid.UUID `json:"newly_unlocked"`
}
