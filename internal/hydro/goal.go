package hydro

import (
	"fmt"
	"math"

	"hydro-go/internal/model"
)

// WeatherSignal is the optional input from the weather collaborator.
// Negative temperatures are valid.
type WeatherSignal struct {
	TemperatureC float64
	ConditionKey string
}

// WorkoutSignal is the optional per-day input from the workout collaborator.
type WorkoutSignal struct {
	ExerciseMinutes int
}

// Validate rejects negative exercise minutes. Callers must validate before
// handing the signal to the calculator, which never clamps its inputs.
func (w *WorkoutSignal) Validate() error {
	if w.ExerciseMinutes < 0 {
		return fmt.Errorf("%w: exercise minutes must not be negative, got %d", ErrInvalidInput, w.ExerciseMinutes)
	}
	return nil
}

// GoalParams are the tunable constants of the goal formula.
type GoalParams struct {
	MLPerKg float64
	// Activity multipliers in percent.
	ChillPercent   int
	SteadyPercent  int
	IntensePercent int

	ComfortTempC float64
	MLPerDegree  float64
	WeatherCapML int

	MLPerWorkoutMinute int
	WorkoutCapML       int

	FloorML int
}

// DefaultGoalParams returns the documented defaults. With these, a 70 kg
// steady profile gets 70 * 33 * 1.2 = 2772 ml.
func DefaultGoalParams() GoalParams {
	return GoalParams{
		MLPerKg:            33,
		ChillPercent:       100,
		SteadyPercent:      120,
		IntensePercent:     140,
		ComfortTempC:       25,
		MLPerDegree:        40,
		WeatherCapML:       800,
		MLPerWorkoutMinute: 12,
		WorkoutCapML:       1000,
		FloorML:            500,
	}
}

// GoalCalculator derives the daily hydration target. It is a pure function
// of its inputs.
type GoalCalculator struct {
	params GoalParams
}

// NewGoalCalculator creates a GoalCalculator with the given parameters.
func NewGoalCalculator(params GoalParams) *GoalCalculator {
	return &GoalCalculator{params: params}
}

// Params returns the calculator's parameters.
func (c *GoalCalculator) Params() GoalParams {
	return c.params
}

// Compute returns the daily goal for the profile and the optional signals.
// A custom goal overrides the formula and disables every adjustment.
func (c *GoalCalculator) Compute(profile *model.Profile, weather *WeatherSignal, workout *WorkoutSignal) model.DailyGoal {
	var goal model.DailyGoal

	if profile.CustomGoalML != nil {
		goal.BaseML = *profile.CustomGoalML
		goal.TotalML = max(c.params.FloorML, goal.BaseML)
		return goal
	}

	goal.BaseML = c.BaseML(profile.WeightKg, profile.Activity)
	if profile.PrefersWeatherGoal && weather != nil {
		goal.WeatherAdjustmentML = c.WeatherAdjustmentML(weather.TemperatureC)
	}
	if profile.PrefersHealthKit && workout != nil {
		goal.WorkoutAdjustmentML = c.WorkoutAdjustmentML(workout.ExerciseMinutes)
	}

	goal.TotalML = max(c.params.FloorML, goal.BaseML+goal.WeatherAdjustmentML+goal.WorkoutAdjustmentML)
	return goal
}

// BaseML is the weight and activity driven part of the goal.
// It is non-decreasing in weight and in activity tier.
func (c *GoalCalculator) BaseML(weightKg float64, activity model.ActivityLevel) int {
	percent := c.activityPercent(activity)
	return int(math.Round(weightKg * c.params.MLPerKg * float64(percent) / 100))
}

// WeatherAdjustmentML grows with temperature above the comfort threshold
// and saturates at WeatherCapML.
func (c *GoalCalculator) WeatherAdjustmentML(tempC float64) int {
	if tempC <= c.params.ComfortTempC {
		return 0
	}
	adj := int(math.Round((tempC - c.params.ComfortTempC) * c.params.MLPerDegree))
	return min(adj, c.params.WeatherCapML)
}

// WorkoutAdjustmentML is proportional to exercise minutes, capped at WorkoutCapML.
func (c *GoalCalculator) WorkoutAdjustmentML(minutes int) int {
	if minutes <= 0 {
		return 0
	}
	return min(minutes*c.params.MLPerWorkoutMinute, c.params.WorkoutCapML)
}

func (c *GoalCalculator) activityPercent(activity model.ActivityLevel) int {
	switch activity {
	case model.Intense:
		return c.params.IntensePercent
	case model.Steady:
		return c.params.SteadyPercent
	default:
		return c.params.ChillPercent
	}
}
