package model

import "time"

// UnitSystem selects how volumes and weights are presented to the user.
// Storage is always metric (ml, kg).
type UnitSystem string

const (
	Metric   UnitSystem = "metric"
	Imperial UnitSystem = "imperial"
)

// ActivityLevel is one of exactly three tiers used by the goal formula.
type ActivityLevel string

const (
	Chill   ActivityLevel = "chill"
	Steady  ActivityLevel = "steady"
	Intense ActivityLevel = "intense"
)

// Source records where an entry came from.
type Source string

const (
	SourceManual    Source = "manual"
	SourceHealthKit Source = "healthKit"
)

// FluidType is the kind of drink logged in an entry.
type FluidType string

const (
	Water          FluidType = "water"
	SparklingWater FluidType = "sparklingWater"
	Tea            FluidType = "tea"
	Coffee         FluidType = "coffee"
	Juice          FluidType = "juice"
	Milk           FluidType = "milk"
	SportsDrink    FluidType = "sportsDrink"
	Other          FluidType = "other"
)

// FluidTypes lists every known fluid type in display order.
var FluidTypes = []FluidType{Water, SparklingWater, Tea, Coffee, Juice, Milk, SportsDrink, Other}

// Valid reports whether f is a known fluid type.
func (f FluidType) Valid() bool {
	for _, known := range FluidTypes {
		if f == known {
			return true
		}
	}
	return false
}

// Profile holds the user's settings. There is a single profile per database.
type Profile struct {
	Name               string
	UnitSystem         UnitSystem
	WeightKg           float64 // canonical weight, always kg
	Activity           ActivityLevel
	CustomGoalML       *int // explicit override; nil means computed
	WakeMinutes        int  // minute of day in [0, 1440)
	SleepMinutes       int  // minute of day in [0, 1440)
	RemindersEnabled   bool
	ReminderCount      int
	SmartReminders     bool
	PrefersWeatherGoal bool
	PrefersHealthKit   bool // enables the workout adjustment
}

// Entry is a single logged drink.
type Entry struct {
	ID        string // UUID
	Timestamp time.Time
	VolumeML  int
	Source    Source
	FluidType FluidType
	Note      string
}

// EntryEdit carries the user-editable fields of an entry. Nil fields are left unchanged.
type EntryEdit struct {
	VolumeML  *int
	FluidType *FluidType
	Note      *string
}

// DailyGoal is the computed hydration target for a day.
type DailyGoal struct {
	BaseML              int
	WeatherAdjustmentML int
	WorkoutAdjustmentML int
	TotalML             int // max(floor, base + adjustments)
}

// Quest is a single-day sub-goal tied to a reward.
type Quest struct {
	ID          string
	Title       string
	Detail      string
	FluidType   *FluidType // nil counts every fluid
	TargetML    int
	ProgressML  int
	RewardXP    int
	RewardCoins int
}

// Completed reports whether progress has reached the target.
func (q Quest) Completed() bool {
	return q.ProgressML >= q.TargetML
}

// ConditionKind selects which cumulative counter an achievement watches.
type ConditionKind string

const (
	ConditionStreak  ConditionKind = "streak"
	ConditionEntries ConditionKind = "entries"
	ConditionGoalMet ConditionKind = "goalMet"
)

// Condition is an achievement unlock rule: counter(Kind) >= Threshold.
type Condition struct {
	Kind      ConditionKind
	Threshold int
}

// Achievement is a one-time unlock. UnlockedAt is nil while locked.
type Achievement struct {
	ID          string
	Title       string
	Detail      string
	Condition   Condition
	RewardCoins int
	UnlockedAt  *time.Time
}

// Unlocked reports whether the achievement has been unlocked.
func (a Achievement) Unlocked() bool {
	return a.UnlockedAt != nil
}

// Reward is an XP/coin award. Key is unique; a key is awarded at most once.
type Reward struct {
	Key       string // e.g. "goal:2024-01-15", "quest:2024-01-15:daily-goal", "achievement:first-sip"
	XP        int
	Coins     int
	AwardedAt time.Time
}

// GameState is the derived gamification state.
type GameState struct {
	Level         int
	XP            int
	Coins         int
	StreakDays    int
	LongestStreak int
	GoalMetDays   int
	TotalEntries  int
	Quests        []Quest
	Achievements  []Achievement
	Rewards       []Reward

	// EvaluatedThrough is the day key of the last day the tracker ran on.
	// Earlier days without a goal reward were closed as missed.
	EvaluatedThrough string
}

// DayTotal is the intake for one calendar day. Day is local midnight.
type DayTotal struct {
	Day     time.Time
	TotalML int
}

// ReminderTime is a single scheduled reminder.
type ReminderTime struct {
	Minute         int       // minute of day in [0, 1440)
	At             time.Time // absolute fire time
	PacingTargetML int       // intake expected by the end of this slot
}

// Operation tracks a CLI command that mutated the database.
type Operation struct {
	ID         int64
	Operation  string
	Parameters string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string // "success" or "error"
}
