package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"hydro-go/internal/hydro"
	"hydro-go/internal/model"
)

// ErrUnavailable is returned by stub collaborators configured to fail.
var ErrUnavailable = errors.New("collaborator unavailable")

// StubWeather returns a fixed reading, nothing, or an error.
type StubWeather struct {
	Signal *hydro.WeatherSignal
	Fail   bool
}

func (s *StubWeather) CurrentWeather(ctx context.Context, day time.Time) (*hydro.WeatherSignal, error) {
	if s.Fail {
		return nil, ErrUnavailable
	}
	return s.Signal, nil
}

// StubWorkout returns a fixed reading, nothing, or an error.
type StubWorkout struct {
	Signal *hydro.WorkoutSignal
	Fail   bool
}

func (s *StubWorkout) Workout(ctx context.Context, day time.Time) (*hydro.WorkoutSignal, error) {
	if s.Fail {
		return nil, ErrUnavailable
	}
	return s.Signal, nil
}

// RecordingNotifier remembers every schedule handed to it.
type RecordingNotifier struct {
	mu    sync.Mutex
	calls [][]model.ReminderTime
	Err   error
}

func (n *RecordingNotifier) ReplaceReminders(ctx context.Context, reminders []model.ReminderTime) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.calls = append(n.calls, append([]model.ReminderTime(nil), reminders...))
	return nil
}

// Calls returns how many schedules were delivered.
func (n *RecordingNotifier) Calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

// Last returns the most recently delivered schedule.
func (n *RecordingNotifier) Last() []model.ReminderTime {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.calls) == 0 {
		return nil
	}
	return n.calls[len(n.calls)-1]
}
