package hydro

import "hydro-go/internal/model"

// Database provides an interface for persisting the profile, the ledger and
// the game state. Lookups of a single record return nil, nil when absent.
type Database interface {
	// Profile operations

	// LoadProfile returns the stored profile, or nil if onboarding has not stored one.
	LoadProfile() (*model.Profile, error)

	// SaveProfile stores the profile, replacing any previous one.
	SaveProfile(profile *model.Profile) error

	// Entry operations

	// ListEntries returns every entry ordered by timestamp.
	ListEntries() ([]*model.Entry, error)

	// InsertEntry stores a new entry. The ID must already be assigned.
	InsertEntry(entry *model.Entry) error

	// UpdateEntry overwrites the editable fields of an existing entry.
	UpdateEntry(entry *model.Entry) error

	// DeleteEntry removes an entry by id.
	DeleteEntry(id string) error

	// Game state operations

	// LoadGameState returns the persisted rewards, achievements and counters.
	// A fresh database returns a zero GameState.
	LoadGameState() (*model.GameState, error)

	// SaveGameState persists the state. Rewards and unlocked achievements are
	// only ever added; existing rows are left untouched.
	SaveGameState(state *model.GameState) error

	// Reminder operations

	// ReplaceReminders atomically replaces the stored reminder schedule.
	ReplaceReminders(reminders []model.ReminderTime) error

	// ListReminders returns the stored reminder schedule in fire order.
	ListReminders() ([]model.ReminderTime, error)

	// Close closes the database connection.
	Close() error
}
