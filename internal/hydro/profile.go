package hydro

import (
	"fmt"

	"hydro-go/internal/model"
)

// MaxReminderCount bounds the number of reminder slots per day.
const MaxReminderCount = 48

// DefaultProfile returns the profile used before onboarding has stored one.
func DefaultProfile() *model.Profile {
	return &model.Profile{
		UnitSystem:       model.Metric,
		WeightKg:         70,
		Activity:         model.Steady,
		WakeMinutes:      7 * 60,
		SleepMinutes:     23 * 60,
		RemindersEnabled: true,
		ReminderCount:    8,
	}
}

// ValidateProfile checks the profile invariants.
func ValidateProfile(p *model.Profile) error {
	if p == nil {
		return fmt.Errorf("%w: profile is nil", ErrInvalidInput)
	}
	if p.WeightKg <= 0 {
		return fmt.Errorf("%w: weight must be positive, got %v", ErrInvalidInput, p.WeightKg)
	}
	switch p.UnitSystem {
	case model.Metric, model.Imperial:
	default:
		return fmt.Errorf("%w: unknown unit system %q", ErrInvalidInput, p.UnitSystem)
	}
	switch p.Activity {
	case model.Chill, model.Steady, model.Intense:
	default:
		return fmt.Errorf("%w: unknown activity level %q", ErrInvalidInput, p.Activity)
	}
	if p.WakeMinutes < 0 || p.WakeMinutes >= minutesPerDay {
		return fmt.Errorf("%w: wake minute %d outside [0, %d)", ErrInvalidInput, p.WakeMinutes, minutesPerDay)
	}
	if p.SleepMinutes < 0 || p.SleepMinutes >= minutesPerDay {
		return fmt.Errorf("%w: sleep minute %d outside [0, %d)", ErrInvalidInput, p.SleepMinutes, minutesPerDay)
	}
	if p.ReminderCount < 0 || p.ReminderCount > MaxReminderCount {
		return fmt.Errorf("%w: reminder count %d outside [0, %d]", ErrInvalidInput, p.ReminderCount, MaxReminderCount)
	}
	if p.CustomGoalML != nil && *p.CustomGoalML <= 0 {
		return fmt.Errorf("%w: custom goal must be positive, got %d", ErrInvalidInput, *p.CustomGoalML)
	}
	return nil
}

// CheckConflicts reports settings the goal calculator will override.
// A custom goal always wins over the weather and workout preferences.
func CheckConflicts(p *model.Profile) error {
	if p.CustomGoalML == nil {
		return nil
	}
	if p.PrefersWeatherGoal || p.PrefersHealthKit {
		return fmt.Errorf("%w: custom goal of %d ml ignores weather/workout adjustments",
			ErrConfigurationConflict, *p.CustomGoalML)
	}
	return nil
}

// ValidateEntry checks a new entry before it enters the ledger.
func ValidateEntry(e *model.Entry) error {
	if e.VolumeML <= 0 {
		return fmt.Errorf("%w: volume must be positive, got %d", ErrInvalidInput, e.VolumeML)
	}
	if !e.FluidType.Valid() {
		return fmt.Errorf("%w: unknown fluid type %q", ErrInvalidInput, e.FluidType)
	}
	switch e.Source {
	case model.SourceManual, model.SourceHealthKit:
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalidInput, e.Source)
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("%w: entry timestamp is required", ErrInvalidInput)
	}
	return nil
}
