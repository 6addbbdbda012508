package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrAchievementIDEmpty is returned when an achievement ID is empty or nil.
	ErrAchievementIDEmpty = errors.New("achievement ID cannot be empty")

	// ErrAchievementTitleEmpty is returned when an achievement's title is empty.
	ErrAchievementTitleEmpty = errors.New("achievement title cannot be empty")

	// ErrAchievementBadCondition is returned when an achievement's unlock
	// condition is not a positive task count.
	ErrAchievementBadCondition = errors.New("achievement condition must be positive")
)

// Achievement describes a milestone unlocked once a user has completed
// Condition tasks.
type Achievement struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	SubTitle  string    `json:"sub_title"`
	Condition int       `json:"condition"` // number of completed tasks needed
}

// Validate checks if the Achievement has valid data.
func (a *Achievement) Validate() error {
	if a.ID == uuid.Nil {
		return ErrAchievementIDEmpty
	}

	if a.Title == "" {
		return ErrAchievementTitleEmpty
	}

	if a.Condition <= 0 {
		return ErrAchievementBadCondition
	}

	return nil
}

// UserAchievement records that a user unlocked an achievement. At most one
// record exists per (user, achievement) pair.
type UserAchievement struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	AchievementID uuid.UUID `json:"achievement_id"`
	AchievedAt    time.Time `json:"achieved_at"`
}

// AchievementProgress is the read model returned to clients: an achievement
// joined with the requesting user's unlock state and percentage progress.
type AchievementProgress struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	SubTitle    string     `json:"sub_title"`
	Condition   int        `json:"condition"`
	Progress    int        `json:"progress"` // 0-100
	IsCompleted bool       `json:"is_completed"`
	AchievedAt  *time.Time `json:"achieved_at,omitempty"`
}
