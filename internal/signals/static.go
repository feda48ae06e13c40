package signals

import (
	"context"
	"time"

	"hydro-go/internal/config"
	"hydro-go/internal/hydro"
)

// StaticWeather reports the same reading for every day. A nil reading
// means no weather is known.
type StaticWeather struct {
	reading *hydro.WeatherSignal
}

var _ hydro.WeatherProvider = (*StaticWeather)(nil)

func NewStaticWeather(tempC *float64) *StaticWeather {
	if tempC == nil {
		return &StaticWeather{}
	}
	return &StaticWeather{reading: &hydro.WeatherSignal{TemperatureC: *tempC, ConditionKey: "manual"}}
}

func (w *StaticWeather) CurrentWeather(ctx context.Context, day time.Time) (*hydro.WeatherSignal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if w.reading == nil {
		return nil, nil
	}
	reading := *w.reading
	return &reading, nil
}

// StaticWorkout reports the same exercise minutes for every day.
type StaticWorkout struct {
	reading *hydro.WorkoutSignal
}

var _ hydro.WorkoutProvider = (*StaticWorkout)(nil)

func NewStaticWorkout(minutes *int) *StaticWorkout {
	if minutes == nil {
		return &StaticWorkout{}
	}
	return &StaticWorkout{reading: &hydro.WorkoutSignal{ExerciseMinutes: *minutes}}
}

func (w *StaticWorkout) Workout(ctx context.Context, day time.Time) (*hydro.WorkoutSignal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if w.reading == nil {
		return nil, nil
	}
	reading := *w.reading
	return &reading, nil
}

// FromConfig builds providers from the [signals] section. Overrides, when
// non-nil, win over the configured values; the CLI passes its flags here.
func FromConfig(cfg config.SignalsConfig, tempOverride *float64, minutesOverride *int) hydro.Signals {
	temp := cfg.TemperatureC
	if tempOverride != nil {
		temp = tempOverride
	}
	minutes := cfg.ExerciseMinutes
	if minutesOverride != nil {
		minutes = minutesOverride
	}
	return hydro.Signals{
		Weather:  NewStaticWeather(temp),
		Workouts: NewStaticWorkout(minutes),
	}
}
