package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureNotifier records deliveries and can block to fill the queue.
type captureNotifier struct {
	mu        sync.Mutex
	delivered []Notification
	block     chan struct{}
}

func (c *captureNotifier) Send(_ context.Context, _ string, n Notification) error {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	c.delivered = append(c.delivered, n)
	c.mu.Unlock()
	return nil
}

func (c *captureNotifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.delivered)
}

func TestDispatcherDeliversEnqueued(t *testing.T) {
	t.Parallel()

	notifier := &captureNotifier{}
	d := NewDispatcher(notifier, 2, 10, nil)
	d.Start()

	require.True(t, d.Enqueue("token-1", ReminderFor("Pay rent", "before noon")))
	require.True(t, d.Enqueue("token-2", WarningFor("Pay rent")))

	d.Stop()

	assert.Equal(t, 2, notifier.count())
}

func TestDispatcherRejectsEmptyTarget(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(&captureNotifier{}, 1, 1, nil)
	d.Start()
	defer d.Stop()

	assert.False(t, d.Enqueue("", CongratsFor("Pay rent")))
}

func TestDispatcherDropsWhenQueueFull(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	notifier := &captureNotifier{block: block}
	d := NewDispatcher(notifier, 1, 1, nil)
	d.Start()

	// First delivery occupies the worker, second fills the queue.
	require.True(t, d.Enqueue("token", ReminderFor("a", "")))
	// Give the worker a moment to pick the first item up.
	require.Eventually(t, func() bool {
		return d.Enqueue("token", ReminderFor("b", ""))
	}, time.Second, 5*time.Millisecond)

	// Queue now holds one item and the worker is blocked: the next enqueue
	// must be dropped, not block the caller.
	done := make(chan bool, 1)
	go func() { done <- d.Enqueue("token", ReminderFor("c", "")) }()

	select {
	case accepted := <-done:
		assert.False(t, accepted)
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}

	close(block)
	d.Stop()
}

func TestNotificationWording(t *testing.T) {
	t.Parallel()

	reminder := ReminderFor("Pay rent", "before noon")
	assert.Equal(t, KindReminder, reminder.Kind)
	assert.Equal(t, "Task Reminder For: Pay rent", reminder.Title)
	assert.Contains(t, reminder.Body, "before noon")

	congrats := CongratsFor("Pay rent")
	assert.Equal(t, KindCongrats, congrats.Kind)
	assert.Contains(t, congrats.Body, "Pay rent")

	warning := WarningFor("Pay rent")
	assert.Equal(t, KindWarning, warning.Kind)
	assert.Equal(t, "You Got Striked!", warning.Title)
}
