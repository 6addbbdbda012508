package domain

import (
	"time"

	"github.com/google/uuid"
)

// BannedAccount is an identity-only record preventing an email from
// re-registering after its owner crossed the strike threshold. Created once
// at the moment of the ban; never updated and never deleted by normal flow.
type BannedAccount struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	BannedAt time.Time `json:"banned_at"`
}

// NewBannedAccount creates a ban record for the given email.
func NewBannedAccount(email string) (*BannedAccount, error) {
	if email == "" {
		return nil, ErrEmptyEmail
	}

	return &BannedAccount{
		ID:       uuid.New(),
		Email:    email,
		BannedAt: time.Now().UTC(),
	}, nil
}
