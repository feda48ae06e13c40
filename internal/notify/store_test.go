package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"hydro-go/internal/model"
	"hydro-go/internal/testutil"
)

func TestStoreNotifier_ReplaceReminders(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	next := &testutil.RecordingNotifier{}
	n := NewStoreNotifier(db, next)

	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	reminders := []model.ReminderTime{
		{Minute: 480, At: day.Add(8 * time.Hour), PacingTargetML: 700},
		{Minute: 720, At: day.Add(12 * time.Hour), PacingTargetML: 1400},
	}
	if err := n.ReplaceReminders(context.Background(), reminders); err != nil {
		t.Fatalf("ReplaceReminders() error = %v", err)
	}

	stored, err := db.ListReminders()
	if err != nil {
		t.Fatalf("ListReminders() error = %v", err)
	}
	if len(stored) != 2 || stored[1].Minute != 720 {
		t.Errorf("stored reminders = %+v", stored)
	}
	if next.Calls() != 1 || len(next.Last()) != 2 {
		t.Errorf("next notifier got %d calls, last = %+v", next.Calls(), next.Last())
	}

	if err := n.ReplaceReminders(context.Background(), nil); err != nil {
		t.Fatalf("ReplaceReminders(nil) error = %v", err)
	}
	stored, err = db.ListReminders()
	if err != nil {
		t.Fatalf("ListReminders() error = %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("len(stored) = %d after clearing, want 0", len(stored))
	}
}

type failingStore struct{}

func (failingStore) ReplaceReminders([]model.ReminderTime) error { return errors.New("disk full") }

func TestStoreNotifier_StoreFailureStopsChain(t *testing.T) {
	next := &testutil.RecordingNotifier{}
	n := NewStoreNotifier(failingStore{}, next)

	if err := n.ReplaceReminders(context.Background(), []model.ReminderTime{{Minute: 60}}); err == nil {
		t.Fatal("ReplaceReminders() expected error")
	}
	if next.Calls() != 0 {
		t.Errorf("next notifier called %d times after store failure", next.Calls())
	}
}
