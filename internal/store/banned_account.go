package store

import (
	"context"
	"database/sql"

	"github.com/mmaliks/tasker-api/internal/domain"
)

// BannedAccountStore defines the interface for ban record persistence.
type BannedAccountStore interface {
	// Add records the ban. The insert is idempotent: adding an email that is
	// already banned is not an error.
	Add(ctx context.Context, banned *domain.BannedAccount) error

	// IsBanned reports whether the email has a ban record.
	IsBanned(ctx context.Context, email string) (bool, error)

	// WithTx returns a new BannedAccountStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) BannedAccountStore
}
