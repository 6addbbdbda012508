package sweep

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mmaliks/tasker-api/internal/domain"
	"github.com/mmaliks/tasker-api/internal/platform/logger"
	"github.com/mmaliks/tasker-api/internal/store"
)

// StrikeLedger owns the per-user strike counter and the ban cascade that runs
// when the counter reaches domain.StrikeThreshold. The cascade removes every
// trace of the account in a fixed order: the ban record is written first so
// the email stays blocked even if a later step is retried, then the user's
// tasks, failed tasks, notes and achievement unlocks, and finally the user
// row itself.
type StrikeLedger struct {
	db           store.TxRunner
	users        store.UserStore
	tasks        store.TaskStore
	failed       store.FailedTaskStore
	notes        store.NoteStore
	achievements store.AchievementStore
	banned       store.BannedAccountStore
	logger       *slog.Logger
}

// NewStrikeLedger creates a StrikeLedger over the given stores.
// If log is nil, a default logger will be used.
func NewStrikeLedger(
	db store.TxRunner,
	users store.UserStore,
	tasks store.TaskStore,
	failed store.FailedTaskStore,
	notes store.NoteStore,
	achievements store.AchievementStore,
	banned store.BannedAccountStore,
	log *slog.Logger,
) *StrikeLedger {
	if log == nil {
		log = slog.Default()
	}

	return &StrikeLedger{
		db:           db,
		users:        users,
		tasks:        tasks,
		failed:       failed,
		notes:        notes,
		achievements: achievements,
		banned:       banned,
		logger:       log.With(slog.String("component", "strike_ledger")),
	}
}

// RecordFailure adds one strike to the user inside the caller's transaction.
// When the new count reaches domain.StrikeThreshold the ban cascade runs in
// the same transaction, so a crash can never leave the account half-banned.
// It returns the new strike count and whether the account was banned.
func (l *StrikeLedger) RecordFailure(ctx context.Context, tx *sql.Tx, user *domain.User) (int, bool, error) {
	log := logger.FromContextOrDefault(ctx, l.logger)

	strikes, err := l.users.WithTx(tx).IncrementStrikes(ctx, user.ID)
	if err != nil {
		return 0, false, fmt.Errorf("failed to increment strikes: %w", err)
	}

	log.Info("strike recorded",
		slog.String("user_id", user.ID.String()),
		slog.Int("strikes", strikes))

	if strikes < domain.StrikeThreshold {
		return strikes, false, nil
	}

	if err := l.cascade(ctx, tx, user); err != nil {
		return strikes, false, err
	}
	return strikes, true, nil
}

// CheckAndBan bans the user if their strike counter has reached the
// threshold, running the cascade in its own transaction. It returns the
// strike count it observed and whether the account was banned, so callers
// report a count consistent with the verdict. Used by the client-facing
// strike check so an account that crossed the threshold while the sweeper
// was down is still cleaned up.
func (l *StrikeLedger) CheckAndBan(ctx context.Context, userID uuid.UUID) (int, bool, error) {
	user, err := l.users.GetByID(ctx, userID)
	if err != nil {
		return 0, false, err
	}

	if !user.Banned() {
		return user.TaskStrikes, false, nil
	}

	err = l.db.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return l.cascade(ctx, tx, user)
	})
	if err != nil {
		return user.TaskStrikes, false, err
	}
	return user.TaskStrikes, true, nil
}

// cascade deletes the account and everything it owns, and records the ban.
// All statements run on tx; the caller owns commit and rollback.
func (l *StrikeLedger) cascade(ctx context.Context, tx *sql.Tx, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, l.logger)

	ban, err := domain.NewBannedAccount(user.Email)
	if err != nil {
		return fmt.Errorf("failed to build ban record: %w", err)
	}
	if err := l.banned.WithTx(tx).Add(ctx, ban); err != nil {
		return fmt.Errorf("failed to record ban: %w", err)
	}

	if err := l.tasks.WithTx(tx).DeleteByUser(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to delete tasks: %w", err)
	}
	if err := l.failed.WithTx(tx).DeleteByUser(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to delete failed tasks: %w", err)
	}
	if err := l.notes.WithTx(tx).DeleteByUser(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to delete notes: %w", err)
	}
	if err := l.achievements.WithTx(tx).DeleteByUser(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to delete achievements: %w", err)
	}
	if err := l.users.WithTx(tx).Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	log.Warn("account banned",
		slog.String("user_id", user.ID.String()))
	return nil
}
