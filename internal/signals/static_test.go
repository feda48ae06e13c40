package signals

import (
	"context"
	"testing"
	"time"

	"hydro-go/internal/config"
)

func float64Ptr(v float64) *float64 { return &v }
func intPtr(v int) *int             { return &v }

func TestStaticWeather(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	t.Run("no reading", func(t *testing.T) {
		got, err := NewStaticWeather(nil).CurrentWeather(ctx, day)
		if err != nil || got != nil {
			t.Errorf("CurrentWeather() = %v, %v, want nil, nil", got, err)
		}
	})

	t.Run("fixed reading", func(t *testing.T) {
		got, err := NewStaticWeather(float64Ptr(-4)).CurrentWeather(ctx, day)
		if err != nil {
			t.Fatalf("CurrentWeather() error = %v", err)
		}
		if got == nil || got.TemperatureC != -4 {
			t.Errorf("CurrentWeather() = %+v, want -4°C", got)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := NewStaticWeather(float64Ptr(30)).CurrentWeather(cctx, day); err == nil {
			t.Error("CurrentWeather() expected error for cancelled context")
		}
	})
}

func TestStaticWorkout_ReturnsCopies(t *testing.T) {
	w := NewStaticWorkout(intPtr(30))

	first, err := w.Workout(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Workout() error = %v", err)
	}
	first.ExerciseMinutes = 999

	second, err := w.Workout(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Workout() error = %v", err)
	}
	if second.ExerciseMinutes != 30 {
		t.Errorf("ExerciseMinutes = %d, want 30", second.ExerciseMinutes)
	}
}

func TestFromConfig(t *testing.T) {
	ctx := context.Background()
	cfg := config.SignalsConfig{TemperatureC: float64Ptr(28), ExerciseMinutes: intPtr(20)}

	s := FromConfig(cfg, float64Ptr(33), nil)

	weather, err := s.Weather.CurrentWeather(ctx, time.Now())
	if err != nil {
		t.Fatalf("CurrentWeather() error = %v", err)
	}
	if weather.TemperatureC != 33 {
		t.Errorf("TemperatureC = %v, want override 33", weather.TemperatureC)
	}

	workout, err := s.Workouts.Workout(ctx, time.Now())
	if err != nil {
		t.Fatalf("Workout() error = %v", err)
	}
	if workout.ExerciseMinutes != 20 {
		t.Errorf("ExerciseMinutes = %d, want configured 20", workout.ExerciseMinutes)
	}
}
