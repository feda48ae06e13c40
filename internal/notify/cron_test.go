package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hydro-go/internal/hydro"
	"hydro-go/internal/model"
)

func TestCronSpec(t *testing.T) {
	tests := []struct {
		minute  int
		want    string
		wantErr bool
	}{
		{minute: 0, want: "0 0 * * *"},
		{minute: 420, want: "0 7 * * *"},
		{minute: 1339, want: "19 22 * * *"},
		{minute: 1440, wantErr: true},
		{minute: -5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, err := CronSpec(model.ReminderTime{Minute: tt.minute})
			if tt.wantErr {
				if !errors.Is(err, hydro.ErrInvalidInput) {
					t.Errorf("CronSpec(%d) error = %v, want ErrInvalidInput", tt.minute, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CronSpec(%d) error = %v", tt.minute, err)
			}
			if got != tt.want {
				t.Errorf("CronSpec(%d) = %q, want %q", tt.minute, got, tt.want)
			}
		})
	}
}

func TestCronRunner_ReplaceReminders(t *testing.T) {
	var mu sync.Mutex
	var fired []int
	r := NewCronRunner(time.UTC, func(rem model.ReminderTime) {
		mu.Lock()
		defer mu.Unlock()
		fired = append(fired, rem.Minute)
	}, hydro.NewNopLogger())

	first := []model.ReminderTime{{Minute: 420}, {Minute: 600}, {Minute: 780}}
	if err := r.ReplaceReminders(context.Background(), first); err != nil {
		t.Fatalf("ReplaceReminders() error = %v", err)
	}
	if r.Len() != 3 {
		t.Errorf("Len() = %d, want 3", r.Len())
	}

	second := []model.ReminderTime{{Minute: 1320, PacingTargetML: 900}}
	if err := r.ReplaceReminders(context.Background(), second); err != nil {
		t.Fatalf("second ReplaceReminders() error = %v", err)
	}
	if r.Len() != 1 || len(r.cron.Entries()) != 1 {
		t.Fatalf("Len() = %d, entries = %d, want 1", r.Len(), len(r.cron.Entries()))
	}

	r.cron.Entry(r.jobs[0]).Job.Run()
	mu.Lock()
	defer mu.Unlock()
	if len(fired) != 1 || fired[0] != 1320 {
		t.Errorf("fired = %v, want [1320]", fired)
	}
}

func TestCronRunner_InvalidSetKeepsPrevious(t *testing.T) {
	r := NewCronRunner(time.UTC, func(model.ReminderTime) {}, hydro.NewNopLogger())

	if err := r.ReplaceReminders(context.Background(), []model.ReminderTime{{Minute: 420}, {Minute: 480}}); err != nil {
		t.Fatalf("ReplaceReminders() error = %v", err)
	}

	bad := []model.ReminderTime{{Minute: 500}, {Minute: 5000}}
	if err := r.ReplaceReminders(context.Background(), bad); err == nil {
		t.Fatal("ReplaceReminders() expected error for out-of-range minute")
	}
	if r.Len() != 2 || len(r.cron.Entries()) != 2 {
		t.Errorf("Len() = %d, entries = %d, want previous 2", r.Len(), len(r.cron.Entries()))
	}
}

func TestCronRunner_RunStopsOnCancel(t *testing.T) {
	r := NewCronRunner(time.UTC, func(model.ReminderTime) {}, hydro.NewNopLogger())
	if err := r.ReplaceReminders(context.Background(), []model.ReminderTime{{Minute: 0}}); err != nil {
		t.Fatalf("ReplaceReminders() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for r.Next().IsZero() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if r.Next().IsZero() {
		t.Error("Next() is zero while running")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
