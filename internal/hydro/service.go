package hydro

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hydro-go/internal/model"
)

const (
	// QuickAddMinML and QuickAddMaxML bound amounts coming from widgets.
	QuickAddMinML = 50
	QuickAddMaxML = 2000
)

// Params bundles the tunable parameters of the engine.
type Params struct {
	Goal     GoalParams
	Game     GameParams
	Location *time.Location // calendar days are bucketed here; nil means time.Local
}

// DefaultParams returns the documented defaults in the local time zone.
func DefaultParams() Params {
	return Params{Goal: DefaultGoalParams(), Game: DefaultGameParams(), Location: time.Local}
}

// Signals groups the optional external signal collaborators. Either may be nil.
type Signals struct {
	Weather  WeatherProvider
	Workouts WorkoutProvider
}

// Dashboard is the recomputed view of a day after a refresh.
type Dashboard struct {
	Day       time.Time
	Profile   *model.Profile
	Goal      model.DailyGoal
	TotalML   int
	Entries   []model.Entry // most recent first
	Quests    []model.Quest
	State     model.GameState
	Delta     Delta
	Reminders []model.ReminderTime
}

// HistoryDay is one row of the intake history.
type HistoryDay struct {
	Day     time.Time
	TotalML int
	GoalML  int
	Met     bool
}

// HydroService is the orchestration layer that coordinates the ledger, the
// calculators and the collaborators to perform the operations needed by the CLI.
// Every mutation is followed by an explicit Refresh by the caller; nothing is
// patched incrementally.
type HydroService struct {
	database  Database
	notifier  Notifier
	signals   Signals
	ledger    *Ledger
	goals     *GoalCalculator
	quests    *QuestEngine
	tracker   *Tracker
	reminders *ReminderScheduler
	logger    Logger
	clock     Clock
	loc       *time.Location
}

// NewHydroService creates a new HydroService with the provided dependencies.
// notifier may be nil, in which case reminders are computed but not delivered.
// Call Load before using a service backed by an existing database.
func NewHydroService(database Database, notifier Notifier, signals Signals, params Params, logger Logger, clock Clock, idgen IDGenerator) *HydroService {
	loc := params.Location
	if loc == nil {
		loc = time.Local
	}
	return &HydroService{
		database:  database,
		notifier:  notifier,
		signals:   signals,
		ledger:    NewLedger(idgen),
		goals:     NewGoalCalculator(params.Goal),
		quests:    NewQuestEngine(),
		tracker:   NewTracker(params.Game),
		reminders: NewReminderScheduler(),
		logger:    logger,
		clock:     clock,
		loc:       loc,
	}
}

// Load reads every entry from the database into the ledger.
func (s *HydroService) Load() error {
	stored, err := s.database.ListEntries()
	if err != nil {
		return fmt.Errorf("listing entries: %w", err)
	}
	entries := make([]model.Entry, len(stored))
	for i, e := range stored {
		entries[i] = *e
	}
	s.ledger.Load(entries)
	s.logger.Debug("ledger loaded", "entries", len(entries))
	return nil
}

// Today returns midnight of the current calendar day.
func (s *HydroService) Today() time.Time {
	return StartOfDay(s.clock.Now().In(s.loc))
}

// Ledger exposes the service's ledger for read access.
func (s *HydroService) Ledger() *Ledger {
	return s.ledger
}

// Profile returns the stored profile, or the default profile if none is stored yet.
func (s *HydroService) Profile() (*model.Profile, error) {
	p, err := s.database.LoadProfile()
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	if p == nil {
		return DefaultProfile(), nil
	}
	return p, nil
}

// SaveProfile validates and stores the profile. Conflicting settings are
// accepted and resolved by the goal calculator; they are logged.
func (s *HydroService) SaveProfile(p *model.Profile) error {
	if err := ValidateProfile(p); err != nil {
		return err
	}
	if err := CheckConflicts(p); err != nil {
		s.logger.Warn("profile settings conflict", "error", err)
	}
	if err := s.database.SaveProfile(p); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	s.logger.Info("profile saved", "name", p.Name)
	return nil
}

// AddEntry adds a drink to the ledger and persists it. A zero timestamp
// means now. Returns the stored entry with its assigned id.
func (s *HydroService) AddEntry(entry model.Entry) (model.Entry, error) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.clock.Now()
	}
	if entry.Source == "" {
		entry.Source = model.SourceManual
	}
	if entry.FluidType == "" {
		entry.FluidType = model.Water
	}

	id, err := s.ledger.Add(entry)
	if err != nil {
		return model.Entry{}, err
	}
	stored, err := s.ledger.Get(id)
	if err != nil {
		return model.Entry{}, err
	}

	if err := s.database.InsertEntry(&stored); err != nil {
		if _, rbErr := s.ledger.Delete(id); rbErr != nil {
			s.logger.Error("rolling back ledger add", "id", id, "error", rbErr)
		}
		return model.Entry{}, fmt.Errorf("storing entry: %w", err)
	}

	s.logger.Info("entry added", "id", id, "ml", stored.VolumeML, "fluid", string(stored.FluidType), "source", string(stored.Source))
	return stored, nil
}

// QuickAdd logs a manual glass of water, clamping the amount to the widget range.
func (s *HydroService) QuickAdd(amountML int) (model.Entry, error) {
	clamped := min(max(amountML, QuickAddMinML), QuickAddMaxML)
	if clamped != amountML {
		s.logger.Debug("quick add amount clamped", "requested", amountML, "ml", clamped)
	}
	return s.AddEntry(model.Entry{
		VolumeML:  clamped,
		Source:    model.SourceManual,
		FluidType: model.Water,
	})
}

// ImportEntry records a drink from the health store, possibly backdated.
func (s *HydroService) ImportEntry(timestamp time.Time, volumeML int, fluid model.FluidType) (model.Entry, error) {
	if timestamp.IsZero() {
		return model.Entry{}, fmt.Errorf("%w: imported entries need a timestamp", ErrInvalidInput)
	}
	return s.AddEntry(model.Entry{
		Timestamp: timestamp,
		VolumeML:  volumeML,
		Source:    model.SourceHealthKit,
		FluidType: fluid,
	})
}

// UpdateEntry edits an entry's volume, fluid type or note.
func (s *HydroService) UpdateEntry(id string, edit model.EntryEdit) (model.Entry, error) {
	before, after, err := s.ledger.Update(id, edit)
	if err != nil {
		return model.Entry{}, err
	}

	if err := s.database.UpdateEntry(&after); err != nil {
		s.ledger.Replace(before)
		return model.Entry{}, fmt.Errorf("storing entry update: %w", err)
	}

	s.logger.Info("entry updated", "id", id, "ml", after.VolumeML)
	return after, nil
}

// DeleteEntry removes an entry. Rewards already granted for it are kept.
func (s *HydroService) DeleteEntry(id string) error {
	removed, err := s.ledger.Delete(id)
	if err != nil {
		return err
	}

	if err := s.database.DeleteEntry(id); err != nil {
		s.ledger.Restore(removed)
		return fmt.Errorf("deleting stored entry: %w", err)
	}

	s.logger.Info("entry deleted", "id", id)
	return nil
}

// EntriesOn returns the entries of day, most recent first.
func (s *HydroService) EntriesOn(day time.Time) []model.Entry {
	return s.ledger.EntriesOn(day.In(s.loc))
}

// TotalOn returns the ml logged on day.
func (s *HydroService) TotalOn(day time.Time) int {
	return s.ledger.TotalOn(day.In(s.loc))
}

// Goal computes today's goal from the profile and whatever signals are available.
func (s *HydroService) Goal(ctx context.Context) (model.DailyGoal, error) {
	profile, err := s.Profile()
	if err != nil {
		return model.DailyGoal{}, err
	}
	return s.goalFor(ctx, profile, s.Today())
}

func (s *HydroService) goalFor(ctx context.Context, profile *model.Profile, day time.Time) (model.DailyGoal, error) {
	weather, workout := s.fetchSignals(ctx, day)
	if workout != nil {
		if err := workout.Validate(); err != nil {
			return model.DailyGoal{}, fmt.Errorf("workout signal: %w", err)
		}
	}
	return s.goals.Compute(profile, weather, workout), nil
}

// fetchSignals asks the collaborators for today's signals. A failing or
// missing collaborator simply yields no signal.
func (s *HydroService) fetchSignals(ctx context.Context, day time.Time) (*WeatherSignal, *WorkoutSignal) {
	var weather *WeatherSignal
	var workout *WorkoutSignal

	if s.signals.Weather != nil {
		w, err := s.signals.Weather.CurrentWeather(ctx, day)
		if err != nil {
			s.logger.Warn("weather unavailable", "error", err)
		} else {
			weather = w
		}
	}
	if s.signals.Workouts != nil {
		w, err := s.signals.Workouts.Workout(ctx, day)
		if err != nil {
			s.logger.Warn("workout data unavailable", "error", err)
		} else {
			workout = w
		}
	}
	return weather, workout
}

// Refresh recomputes the goal, quests, game state and reminders for today.
// Newly earned rewards and achievements are persisted, and the reminder set
// is handed to the notifier as a whole.
func (s *HydroService) Refresh(ctx context.Context) (*Dashboard, error) {
	profile, err := s.Profile()
	if err != nil {
		return nil, err
	}

	today := s.Today()
	goal, err := s.goalFor(ctx, profile, today)
	if err != nil {
		return nil, err
	}

	entries := s.ledger.EntriesOn(today)
	quests := s.quests.DailyQuests(today, entries, goal, profile)

	prev, err := s.database.LoadGameState()
	if err != nil {
		return nil, fmt.Errorf("loading game state: %w", err)
	}
	if prev == nil {
		prev = &model.GameState{}
	}

	state, delta := s.tracker.Advance(*prev, AdvanceInput{
		History:      s.ledger.DailyTotals(s.loc),
		Goal:         goal,
		Today:        today,
		Now:          s.clock.Now(),
		Quests:       quests,
		TotalEntries: s.ledger.Count(),
	})
	if err := s.database.SaveGameState(&state); err != nil {
		return nil, fmt.Errorf("saving game state: %w", err)
	}
	for _, a := range delta.Unlocked {
		s.logger.Info("achievement unlocked", "id", a.ID)
	}
	if delta.LeveledUp() {
		s.logger.Info("level up", "level", delta.LevelAfter, "xp", state.XP)
	}

	reminders := s.scheduleReminders(profile, goal.TotalML)
	if s.notifier != nil {
		if err := s.notifier.ReplaceReminders(ctx, reminders); err != nil {
			return nil, fmt.Errorf("replacing reminders: %w", err)
		}
	}

	s.logger.Debug("refreshed", "day", DayKey(today), "goal", goal.TotalML, "streak", state.StreakDays)
	return &Dashboard{
		Day:       today,
		Profile:   profile,
		Goal:      goal,
		TotalML:   sumVolume(entries, nil),
		Entries:   entries,
		Quests:    quests,
		State:     state,
		Delta:     delta,
		Reminders: reminders,
	}, nil
}

// Reminders computes today's reminder schedule without delivering it.
func (s *HydroService) Reminders(ctx context.Context) ([]model.ReminderTime, error) {
	profile, err := s.Profile()
	if err != nil {
		return nil, err
	}
	today := s.Today()
	goal, err := s.goalFor(ctx, profile, today)
	if err != nil {
		return nil, err
	}
	return s.scheduleReminders(profile, goal.TotalML), nil
}

// scheduleReminders builds the schedule for the waking window the clock is
// in. A window past midnight also counts the next day's entries.
func (s *HydroService) scheduleReminders(profile *model.Profile, goalML int) []model.ReminderTime {
	day := ScheduleDay(profile, s.clock.Now().In(s.loc))
	entries := s.ledger.EntriesOn(day)
	if profile != nil && profile.SleepMinutes < profile.WakeMinutes {
		entries = append(entries, s.ledger.EntriesOn(nextDay(day))...)
	}
	return s.reminders.Schedule(profile, entries, goalML, day)
}

// History returns the last n calendar days, oldest first, measured against
// today's goal. Days without entries are included with a zero total.
func (s *HydroService) History(ctx context.Context, n int) ([]HistoryDay, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: history length must be positive, got %d", ErrInvalidInput, n)
	}
	goal, err := s.Goal(ctx)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]int)
	for _, d := range s.ledger.DailyTotals(s.loc) {
		totals[DayKey(d.Day)] = d.TotalML
	}

	today := s.Today()
	out := make([]HistoryDay, 0, n)
	for i := n - 1; i >= 0; i-- {
		day := StartOfDay(today.AddDate(0, 0, -i))
		total := totals[DayKey(day)]
		out = append(out, HistoryDay{
			Day:     day,
			TotalML: total,
			GoalML:  goal.TotalML,
			Met:     total > 0 && total >= goal.TotalML,
		})
	}
	return out, nil
}

// IsNotFound reports whether err is an unknown-entry error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
