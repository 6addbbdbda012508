package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Default configuration values for the dispatcher.
const (
	// DefaultQueueSize is the default capacity of the delivery queue.
	DefaultQueueSize = 100

	// DefaultWorkerCount is the default number of delivery workers.
	DefaultWorkerCount = 4

	// deliveryTimeout bounds a single delivery attempt.
	deliveryTimeout = 15 * time.Second
)

// delivery pairs a notification with its target token while it waits in the
// queue.
type delivery struct {
	target string
	note   Notification
}

// Dispatcher fans notifications out to a pool of delivery workers over a
// buffered queue. Enqueueing never blocks: when the queue is full the
// notification is dropped and logged. Push delivery is best-effort by
// contract, so dropped or failed deliveries are never retried.
type Dispatcher struct {
	notifier  Notifier
	queue     chan delivery
	workers   int
	wg        sync.WaitGroup
	logger    *slog.Logger
	stopOnce  sync.Once
	startOnce sync.Once
}

// NewDispatcher creates a new Dispatcher delivering through the given
// Notifier. Zero or negative workers/queueSize fall back to the defaults.
// If logger is nil, a default logger will be used.
func NewDispatcher(notifier Notifier, workers, queueSize int, logger *slog.Logger) *Dispatcher {
	if workers <= 0 {
		workers = DefaultWorkerCount
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		notifier: notifier,
		queue:    make(chan delivery, queueSize),
		workers:  workers,
		logger:   logger.With(slog.String("component", "notify_dispatcher")),
	}
}

// Start launches the delivery workers. It is safe to call once; subsequent
// calls are no-ops.
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		d.logger.Info("starting notification dispatcher",
			slog.Int("workers", d.workers),
			slog.Int("queue_size", cap(d.queue)))

		for i := 0; i < d.workers; i++ {
			d.wg.Add(1)
			go d.worker(i)
		}
	})
}

// Enqueue submits a notification for asynchronous delivery. It returns false
// when the target is empty or the queue is full; the notification is dropped
// in both cases.
func (d *Dispatcher) Enqueue(target string, note Notification) bool {
	if target == "" {
		return false
	}

	select {
	case d.queue <- delivery{target: target, note: note}:
		return true
	default:
		d.logger.Warn("notification queue full, dropping notification",
			slog.String("kind", string(note.Kind)))
		return false
	}
}

// Stop closes the queue and waits for in-flight deliveries to finish.
// No notifications can be enqueued after Stop returns.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.logger.Info("stopping notification dispatcher")
		close(d.queue)
		d.wg.Wait()
		d.logger.Info("notification dispatcher stopped")
	})
}

// worker drains the queue until it is closed.
func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()

	log := d.logger.With(slog.Int("worker_id", id))
	for item := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		err := d.notifier.Send(ctx, item.target, item.note)
		cancel()

		if err != nil {
			log.Warn("notification delivery failed",
				slog.String("kind", string(item.note.Kind)),
				slog.String("error", err.Error()))
		}
	}
}
