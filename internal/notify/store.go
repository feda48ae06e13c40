package notify

import (
	"context"
	"fmt"

	"hydro-go/internal/hydro"
	"hydro-go/internal/model"
)

// ReminderStore persists a reminder schedule as one unit.
type ReminderStore interface {
	ReplaceReminders(reminders []model.ReminderTime) error
}

// StoreNotifier records the schedule in the database, where `hydro reminders`
// and the reminder daemon read it back. When next is set the schedule is
// handed on after it has been stored.
type StoreNotifier struct {
	store ReminderStore
	next  hydro.Notifier
}

var _ hydro.Notifier = (*StoreNotifier)(nil)

// NewStoreNotifier creates a StoreNotifier. next may be nil.
func NewStoreNotifier(store ReminderStore, next hydro.Notifier) *StoreNotifier {
	return &StoreNotifier{store: store, next: next}
}

func (n *StoreNotifier) ReplaceReminders(ctx context.Context, reminders []model.ReminderTime) error {
	if err := n.store.ReplaceReminders(reminders); err != nil {
		return fmt.Errorf("storing reminders: %w", err)
	}
	if n.next == nil {
		return nil
	}
	return n.next.ReplaceReminders(ctx, reminders)
}
