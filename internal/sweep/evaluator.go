// Package sweep implements the periodic deadline sweep: reminder evaluation,
// the overdue failure transition, and the strike ledger with its ban cascade.
package sweep

import (
	"fmt"
	"time"

	"github.com/mmaliks/tasker-api/internal/domain"
)

// DefaultOffsets are the reminder offsets used when none are configured.
// Each offset is counted backwards from a task deadline. A sub-minute offset
// is only reliably observable when the sweep interval is shortened to match.
var DefaultOffsets = []time.Duration{
	10 * time.Second,
	5 * time.Minute,
	10 * time.Minute,
	15 * time.Minute,
	20 * time.Minute,
}

// ParseOffsets converts configured duration strings into durations.
// Non-positive offsets are rejected: a reminder must precede its deadline.
func ParseOffsets(raw []string) ([]time.Duration, error) {
	if len(raw) == 0 {
		return DefaultOffsets, nil
	}

	offsets := make([]time.Duration, 0, len(raw))
	for _, s := range raw {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid reminder offset %q: %w", s, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("invalid reminder offset %q: must be positive", s)
		}
		offsets = append(offsets, d)
	}
	return offsets, nil
}

// DueReminders returns the reminder instants for the task that fall inside
// the half-open window [windowStart, windowEnd). A reminder instant is a task
// deadline minus one of the offsets; for custom scheduled tasks every
// parseable date contributes its own set of instants.
//
// The second return value is the number of malformed custom date entries that
// were skipped. Malformed entries are never fatal: the rest of the task's
// dates are still evaluated.
//
// The function is pure. Callers guarantee the windows of consecutive ticks
// are contiguous and disjoint, which makes every reminder instant due in
// exactly one tick.
func DueReminders(task *domain.Task, offsets []time.Duration, windowStart, windowEnd time.Time) ([]time.Time, int) {
	if len(offsets) == 0 {
		offsets = DefaultOffsets
	}

	deadlines, skipped := task.EffectiveDeadlines()
	if len(deadlines) == 0 {
		return nil, skipped
	}

	var due []time.Time
	for _, deadline := range deadlines {
		for _, offset := range offsets {
			instant := deadline.Add(-offset)
			if !instant.Before(windowStart) && instant.Before(windowEnd) {
				due = append(due, instant)
			}
		}
	}
	return due, skipped
}
