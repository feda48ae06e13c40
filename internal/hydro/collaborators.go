package hydro

import (
	"context"
	"time"

	"hydro-go/internal/model"
)

// WeatherProvider supplies today's weather. It returns nil when no reading
// is available; the goal is then computed without a weather adjustment.
type WeatherProvider interface {
	CurrentWeather(ctx context.Context, day time.Time) (*WeatherSignal, error)
}

// WorkoutProvider supplies the exercise minutes for a day, or nil.
type WorkoutProvider interface {
	Workout(ctx context.Context, day time.Time) (*WorkoutSignal, error)
}

// Notifier delivers reminders. ReplaceReminders swaps the whole scheduled
// set at once; a partially replaced set is never observable.
type Notifier interface {
	ReplaceReminders(ctx context.Context, reminders []model.ReminderTime) error
}
