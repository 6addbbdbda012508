package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/mmaliks/tasker-api/internal/domain"
	"github.com/mmaliks/tasker-api/internal/platform/logger"
	"github.com/mmaliks/tasker-api/internal/store"
)

// PostgresBannedAccountStore implements the store.BannedAccountStore
// interface using a PostgreSQL database as the storage backend.
type PostgresBannedAccountStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresBannedAccountStore creates a new PostgreSQL implementation of
// the BannedAccountStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresBannedAccountStore(db store.DBTX, logger *slog.Logger) *PostgresBannedAccountStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresBannedAccountStore{
		db:     db,
		logger: logger.With(slog.String("component", "banned_account_store")),
	}
}

// Ensure PostgresBannedAccountStore implements store.BannedAccountStore interface
var _ store.BannedAccountStore = (*PostgresBannedAccountStore)(nil)

// Add implements store.BannedAccountStore.Add
// ON CONFLICT DO NOTHING makes the insert idempotent: re-banning an email is
// not an error.
func (s *PostgresBannedAccountStore) Add(ctx context.Context, banned *domain.BannedAccount) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO banned_accounts (id, email, banned_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (email) DO NOTHING`,
		banned.ID, banned.Email, banned.BannedAt)
	if err != nil {
		log.Error("failed to add banned account",
			slog.String("error", err.Error()))
		return MapError(err)
	}

	log.Info("account banned", slog.String("email", banned.Email))
	return nil
}

// IsBanned implements store.BannedAccountStore.IsBanned
func (s *PostgresBannedAccountStore) IsBanned(ctx context.Context, email string) (bool, error) {
	var banned bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM banned_accounts WHERE email = $1)`,
		email).Scan(&banned)
	if err != nil {
		return false, MapError(err)
	}
	return banned, nil
}

// WithTx implements store.BannedAccountStore.WithTx
func (s *PostgresBannedAccountStore) WithTx(tx *sql.Tx) store.BannedAccountStore {
	return &PostgresBannedAccountStore{
		db:     tx,
		logger: s.logger,
	}
}
