// Package notify delivers push notifications to users' devices.
// Delivery is fire-and-forget: the rest of the application enqueues a
// notification and never waits for, or learns about, the delivery result.
package notify

import (
	"context"
	"fmt"
)

// Kind classifies a push notification. The mobile client switches on the
// value carried in the message data payload.
type Kind string

const (
	// KindReminder is sent at a configured offset before a task's deadline.
	KindReminder Kind = "reminder"

	// KindCongrats is sent when a reminder was due but the task had already
	// been completed.
	KindCongrats Kind = "completed"

	// KindWarning is sent when a task misses its deadline and the owner
	// receives a strike.
	KindWarning Kind = "warning"
)

// Notification is a single push message.
type Notification struct {
	Kind  Kind
	Title string
	Body  string
}

// Notifier sends a notification to a delivery target (an FCM device token).
// Implementations must be safe for concurrent use.
type Notifier interface {
	Send(ctx context.Context, target string, n Notification) error
}

// ReminderFor builds the reminder notification for a task.
func ReminderFor(title, content string) Notification {
	return Notification{
		Kind:  KindReminder,
		Title: fmt.Sprintf("Task Reminder For: %s", title),
		Body:  fmt.Sprintf("Don't forget: %s", content),
	}
}

// CongratsFor builds the completion notification for a task.
func CongratsFor(title string) Notification {
	return Notification{
		Kind:  KindCongrats,
		Title: "Congrats!",
		Body:  fmt.Sprintf("You've successfully completed: %s", title),
	}
}

// WarningFor builds the strike notification for a failed task.
func WarningFor(title string) Notification {
	return Notification{
		Kind:  KindWarning,
		Title: "You Got Striked!",
		Body:  fmt.Sprintf("You Failed to Complete This Task On Time: %s", title),
	}
}
