package sweep

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmaliks/tasker-api/internal/domain"
	"github.com/mmaliks/tasker-api/internal/notify"
	"github.com/mmaliks/tasker-api/internal/store"
)

// Dispatcher enqueues notifications for asynchronous delivery. Satisfied by
// notify.Dispatcher.
type Dispatcher interface {
	Enqueue(target string, note notify.Notification) bool
}

// Clock returns the current instant. Injectable so tests can pin time.
type Clock func() time.Time

// Config collects the sweeper's dependencies and tuning.
type Config struct {
	DB         store.TxRunner
	Tasks      store.TaskStore
	Users      store.UserStore
	Failed     store.FailedTaskStore
	Ledger     *StrikeLedger
	Dispatcher Dispatcher

	// Interval between ticks. Used to size the very first window.
	Interval time.Duration

	// Offsets are the reminder offsets. Empty means DefaultOffsets.
	Offsets []time.Duration

	// Workers bounds per-tick task processing concurrency.
	Workers int

	// Now overrides the clock. Nil means time.Now.
	Now Clock

	Logger *slog.Logger
}

// Sweeper walks all reminder candidates and overdue tasks once per tick.
// Each tick evaluates reminders over the half-open window
// [previous tick instant, this tick instant), so consecutive windows are
// contiguous and disjoint and every reminder instant is due in exactly one
// tick. Overdue evaluation needs no window: a task is overdue the first tick
// after its deadline passes, and the failure transition removes it.
type Sweeper struct {
	db         store.TxRunner
	tasks      store.TaskStore
	users      store.UserStore
	failed     store.FailedTaskStore
	ledger     *StrikeLedger
	dispatcher Dispatcher
	interval   time.Duration
	offsets    []time.Duration
	workers    int
	now        Clock
	logger     *slog.Logger

	mu       sync.Mutex
	running  bool
	lastTick time.Time

	// congratsSent suppresses duplicate completion notifications within this
	// process. At-least-once across restarts is acceptable for a
	// congratulations push.
	congratsMu   sync.Mutex
	congratsSent map[uuid.UUID]struct{}
}

// NewSweeper creates a Sweeper from the given configuration.
func NewSweeper(cfg Config) *Sweeper {
	offsets := cfg.Offsets
	if len(offsets) == 0 {
		offsets = DefaultOffsets
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Sweeper{
		db:           cfg.DB,
		tasks:        cfg.Tasks,
		users:        cfg.Users,
		failed:       cfg.Failed,
		ledger:       cfg.Ledger,
		dispatcher:   cfg.Dispatcher,
		interval:     cfg.Interval,
		offsets:      offsets,
		workers:      workers,
		now:          now,
		logger:       log.With(slog.String("component", "sweeper")),
		congratsSent: make(map[uuid.UUID]struct{}),
	}
}

// Tick runs one sweep. If a previous tick is still running the call is
// skipped: the next tick's window simply starts where the skipped one would
// have, so no reminder instant is lost. Per-task errors are contained and
// logged; Tick only returns an error when a candidate listing fails outright.
func (s *Sweeper) Tick(ctx context.Context) error {
	tickAt := s.now()

	windowStart, windowEnd, ok := s.beginTick(tickAt)
	if !ok {
		s.logger.Warn("previous sweep still running, skipping tick")
		return nil
	}
	defer s.endTick()

	log := s.logger.With(
		slog.Time("window_start", windowStart),
		slog.Time("window_end", windowEnd))
	log.Debug("sweep tick started")

	var errs []error
	if err := s.sweepReminders(ctx, windowStart, windowEnd); err != nil {
		// The window was never evaluated, so rewind to retry it next tick.
		s.rewindTick(windowStart)
		errs = append(errs, err)
	}
	if err := s.sweepOverdue(ctx, windowEnd); err != nil {
		errs = append(errs, err)
	}

	log.Debug("sweep tick finished")
	return errors.Join(errs...)
}

// beginTick claims the re-entrancy guard and computes the tick's reminder
// window. The very first window reaches one interval back so reminders that
// became due while the process was starting are not silently lost.
func (s *Sweeper) beginTick(tickAt time.Time) (windowStart, windowEnd time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return time.Time{}, time.Time{}, false
	}
	s.running = true

	windowStart = s.lastTick
	if windowStart.IsZero() {
		windowStart = tickAt.Add(-s.interval)
	}
	s.lastTick = tickAt
	return windowStart, tickAt, true
}

func (s *Sweeper) endTick() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// rewindTick restores lastTick to the start of a window whose candidate
// listing failed, so the next tick covers the same instants again instead of
// dropping them.
func (s *Sweeper) rewindTick(windowStart time.Time) {
	s.mu.Lock()
	s.lastTick = windowStart
	s.mu.Unlock()
}

// sweepReminders evaluates every reminder candidate against the window and
// dispatches reminder or completion notifications. Candidates are processed
// by a bounded worker pool; a failure on one task never stops the others.
func (s *Sweeper) sweepReminders(ctx context.Context, windowStart, windowEnd time.Time) error {
	deadline, err := s.tasks.FindDeadlineCandidates(ctx)
	if err != nil {
		return fmt.Errorf("failed to list deadline candidates: %w", err)
	}
	custom, err := s.tasks.FindCustomCandidates(ctx)
	if err != nil {
		return fmt.Errorf("failed to list custom candidates: %w", err)
	}

	candidates := make([]*domain.Task, 0, len(deadline)+len(custom))
	candidates = append(candidates, deadline...)
	candidates = append(candidates, custom...)
	if len(candidates) == 0 {
		return nil
	}

	queue := make(chan *domain.Task)
	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range queue {
				s.remindTask(ctx, task, windowStart, windowEnd)
			}
		}()
	}
	for _, task := range candidates {
		queue <- task
	}
	close(queue)
	wg.Wait()
	return nil
}

// remindTask dispatches notifications for the task: one reminder per due
// instant if it is still incomplete, or a one-time congratulations if it was
// completed before the reminder instant arrived. The task and its owner are
// re-read just before dispatch so a completion or deletion that raced the
// sweep is respected.
func (s *Sweeper) remindTask(ctx context.Context, task *domain.Task, windowStart, windowEnd time.Time) {
	log := s.logger.With(slog.String("task_id", task.ID.String()))

	due, skipped := DueReminders(task, s.offsets, windowStart, windowEnd)
	if skipped > 0 {
		log.Warn("skipped malformed custom date entries",
			slog.Int("skipped", skipped))
	}
	if len(due) == 0 {
		return
	}

	current, err := s.tasks.GetByID(ctx, task.ID)
	if err != nil {
		if store.IsNotFoundError(err) {
			s.clearCongrats(task.ID)
			return
		}
		log.Error("failed to re-read task before dispatch",
			slog.String("error", err.Error()))
		return
	}

	user, err := s.users.GetByID(ctx, current.UserID)
	if err != nil {
		if !store.IsNotFoundError(err) {
			log.Error("failed to load task owner",
				slog.String("error", err.Error()))
		}
		return
	}
	if !user.NotificationsOn {
		return
	}

	if current.IsCompleted {
		if s.markCongrats(current.ID) {
			s.dispatcher.Enqueue(current.FCMToken, notify.CongratsFor(current.Title))
			log.Debug("completion notification enqueued")
		}
		return
	}

	for range due {
		s.dispatcher.Enqueue(current.FCMToken, notify.ReminderFor(current.Title, current.Content))
	}
	log.Debug("reminders enqueued", slog.Int("due_instants", len(due)))
}

// sweepOverdue runs the failure transition for every incomplete task whose
// deadline has passed.
func (s *Sweeper) sweepOverdue(ctx context.Context, now time.Time) error {
	overdue, err := s.tasks.FindOverdue(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to list overdue tasks: %w", err)
	}

	for _, task := range overdue {
		if err := s.failTask(ctx, task, now); err != nil {
			s.logger.Error("failure transition failed",
				slog.String("task_id", task.ID.String()),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

// failTask runs the failure transition for one overdue task: snapshot the
// task as failed, remove the live row, and record a strike, all in a single
// transaction. The snapshot's unique task reference makes the transition
// idempotent, so a tick that re-observes a task mid-transition adds at most
// one strike. The warning notification is dispatched only after the
// transaction commits.
func (s *Sweeper) failTask(ctx context.Context, task *domain.Task, now time.Time) error {
	var (
		user   *domain.User
		banned bool
	)

	err := s.db.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		failedTx := s.failed.WithTx(tx)

		exists, err := failedTx.ExistsForTask(ctx, task.ID)
		if err != nil {
			return fmt.Errorf("failed to check failure snapshot: %w", err)
		}
		if exists {
			return store.ErrTaskAlreadyFailed
		}

		snapshot, err := domain.NewFailedTask(task, now)
		if err != nil {
			return fmt.Errorf("failed to build failure snapshot: %w", err)
		}
		if err := failedTx.Create(ctx, snapshot); err != nil {
			return err
		}

		user, err = s.users.WithTx(tx).GetByID(ctx, task.UserID)
		if err != nil {
			return fmt.Errorf("failed to load task owner: %w", err)
		}

		// The live row goes before the strike is recorded: at the threshold
		// the ledger's cascade deletes all of the user's tasks, including
		// this one.
		if err := s.tasks.WithTx(tx).DeleteByID(ctx, task.ID); err != nil {
			return fmt.Errorf("failed to delete overdue task: %w", err)
		}

		_, banned, err = s.ledger.RecordFailure(ctx, tx, user)
		return err
	})

	if errors.Is(err, store.ErrTaskAlreadyFailed) {
		s.logger.Debug("task already failed, skipping",
			slog.String("task_id", task.ID.String()))
		return nil
	}
	if err != nil {
		return err
	}

	s.clearCongrats(task.ID)

	if !banned && user.NotificationsOn {
		s.dispatcher.Enqueue(task.FCMToken, notify.WarningFor(task.Title))
	}
	return nil
}

// markCongrats records that a completion notification was sent for the task.
// It returns false when one was already sent by this process.
func (s *Sweeper) markCongrats(taskID uuid.UUID) bool {
	s.congratsMu.Lock()
	defer s.congratsMu.Unlock()

	if _, sent := s.congratsSent[taskID]; sent {
		return false
	}
	s.congratsSent[taskID] = struct{}{}
	return true
}

// clearCongrats drops the suppression entry for a task that no longer exists.
func (s *Sweeper) clearCongrats(taskID uuid.UUID) {
	s.congratsMu.Lock()
	delete(s.congratsSent, taskID)
	s.congratsMu.Unlock()
}
