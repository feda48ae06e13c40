package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hydro-go/internal/database/migrations"
	"hydro-go/internal/hydro"
	"hydro-go/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements the hydro.Database interface using SQLite.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

// NewSQLiteDatabase creates a new SQLite database connection.
// path can be a file path or ":memory:" for in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	return &SQLiteDatabase{db: db, path: path}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{db: db}
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// This is exported for use in tools and tests that need a properly configured SQLite connection.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Each connection to ":memory:" is a separate database, and SQLite
	// serialises writers anyway, so a single connection is enough.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// Profile operations

func (s *SQLiteDatabase) LoadProfile() (*model.Profile, error) {
	row := s.db.QueryRow(`SELECT name, unit_system, weight_kg, activity, custom_goal_ml,
		wake_minutes, sleep_minutes, reminders_enabled, reminder_count, smart_reminders,
		prefers_weather_goal, prefers_health_kit
		FROM profile WHERE id = 1`)

	var p model.Profile
	var unitSystem, activity string
	var customGoal sql.NullInt64
	err := row.Scan(&p.Name, &unitSystem, &p.WeightKg, &activity, &customGoal,
		&p.WakeMinutes, &p.SleepMinutes, &p.RemindersEnabled, &p.ReminderCount, &p.SmartReminders,
		&p.PrefersWeatherGoal, &p.PrefersHealthKit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not stored yet
		}
		return nil, fmt.Errorf("loading profile: %w", err)
	}

	p.UnitSystem = model.UnitSystem(unitSystem)
	p.Activity = model.ActivityLevel(activity)
	if customGoal.Valid {
		goal := int(customGoal.Int64)
		p.CustomGoalML = &goal
	}
	return &p, nil
}

func (s *SQLiteDatabase) SaveProfile(p *model.Profile) error {
	var customGoal sql.NullInt64
	if p.CustomGoalML != nil {
		customGoal = sql.NullInt64{Int64: int64(*p.CustomGoalML), Valid: true}
	}

	_, err := s.db.Exec(`INSERT INTO profile (id, name, unit_system, weight_kg, activity, custom_goal_ml,
		wake_minutes, sleep_minutes, reminders_enabled, reminder_count, smart_reminders,
		prefers_weather_goal, prefers_health_kit)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			unit_system = excluded.unit_system,
			weight_kg = excluded.weight_kg,
			activity = excluded.activity,
			custom_goal_ml = excluded.custom_goal_ml,
			wake_minutes = excluded.wake_minutes,
			sleep_minutes = excluded.sleep_minutes,
			reminders_enabled = excluded.reminders_enabled,
			reminder_count = excluded.reminder_count,
			smart_reminders = excluded.smart_reminders,
			prefers_weather_goal = excluded.prefers_weather_goal,
			prefers_health_kit = excluded.prefers_health_kit`,
		p.Name, string(p.UnitSystem), p.WeightKg, string(p.Activity), customGoal,
		p.WakeMinutes, p.SleepMinutes, p.RemindersEnabled, p.ReminderCount, p.SmartReminders,
		p.PrefersWeatherGoal, p.PrefersHealthKit)
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

// Entry operations

func (s *SQLiteDatabase) ListEntries() ([]*model.Entry, error) {
	rows, err := s.db.Query(`SELECT id, timestamp, volume_ml, source, fluid_type, note
		FROM entries ORDER BY timestamp, id`)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	var result []*model.Entry
	for rows.Next() {
		var e model.Entry
		var source, fluid string
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.VolumeML, &source, &fluid, &e.Note); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		e.Source = model.Source(source)
		e.FluidType = model.FluidType(fluid)
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}
	return result, nil
}

func (s *SQLiteDatabase) InsertEntry(e *model.Entry) error {
	_, err := s.db.Exec(`INSERT INTO entries (id, timestamp, volume_ml, source, fluid_type, note)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp.UTC(), e.VolumeML, string(e.Source), string(e.FluidType), e.Note)
	if err != nil {
		return fmt.Errorf("inserting entry: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) UpdateEntry(e *model.Entry) error {
	res, err := s.db.Exec(`UPDATE entries SET volume_ml = ?, fluid_type = ?, note = ? WHERE id = ?`,
		e.VolumeML, string(e.FluidType), e.Note, e.ID)
	if err != nil {
		return fmt.Errorf("updating entry: %w", err)
	}
	return requireOneRow(res, e.ID)
}

func (s *SQLiteDatabase) DeleteEntry(id string) error {
	res, err := s.db.Exec(`DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting entry: %w", err)
	}
	return requireOneRow(res, id)
}

func requireOneRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("entry %s: %w", id, hydro.ErrNotFound)
	}
	return nil
}

// Game state operations

func (s *SQLiteDatabase) LoadGameState() (*model.GameState, error) {
	state := &model.GameState{Level: 1}

	err := s.db.QueryRow(`SELECT level, xp, coins, streak_days, longest_streak, goal_met_days, total_entries, evaluated_through
		FROM game_state WHERE id = 1`).
		Scan(&state.Level, &state.XP, &state.Coins, &state.StreakDays, &state.LongestStreak,
			&state.GoalMetDays, &state.TotalEntries, &state.EvaluatedThrough)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("loading game state: %w", err)
	}

	rows, err := s.db.Query(`SELECT key, xp, coins, awarded_at FROM rewards ORDER BY awarded_at, key`)
	if err != nil {
		return nil, fmt.Errorf("listing rewards: %w", err)
	}
	for rows.Next() {
		var r model.Reward
		if err := rows.Scan(&r.Key, &r.XP, &r.Coins, &r.AwardedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning reward: %w", err)
		}
		state.Rewards = append(state.Rewards, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rewards: %w", err)
	}

	rows, err = s.db.Query(`SELECT id, unlocked_at FROM achievements ORDER BY unlocked_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing achievements: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a model.Achievement
		var unlockedAt time.Time
		if err := rows.Scan(&a.ID, &unlockedAt); err != nil {
			return nil, fmt.Errorf("scanning achievement: %w", err)
		}
		a.UnlockedAt = &unlockedAt
		state.Achievements = append(state.Achievements, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating achievements: %w", err)
	}

	return state, nil
}

// SaveGameState writes the counters and appends new rewards and unlocks in a
// single transaction. Existing reward and achievement rows are never modified,
// so an unlock time, once written, stays.
func (s *SQLiteDatabase) SaveGameState(state *model.GameState) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO game_state (id, level, xp, coins, streak_days, longest_streak, goal_met_days, total_entries, evaluated_through)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			level = excluded.level,
			xp = excluded.xp,
			coins = excluded.coins,
			streak_days = excluded.streak_days,
			longest_streak = excluded.longest_streak,
			goal_met_days = excluded.goal_met_days,
			total_entries = excluded.total_entries,
			evaluated_through = excluded.evaluated_through`,
		state.Level, state.XP, state.Coins, state.StreakDays, state.LongestStreak,
		state.GoalMetDays, state.TotalEntries, state.EvaluatedThrough)
	if err != nil {
		return fmt.Errorf("saving counters: %w", err)
	}

	for _, r := range state.Rewards {
		_, err := tx.ExecContext(ctx, `INSERT INTO rewards (key, xp, coins, awarded_at) VALUES (?, ?, ?, ?)
			ON CONFLICT (key) DO NOTHING`, r.Key, r.XP, r.Coins, r.AwardedAt.UTC())
		if err != nil {
			return fmt.Errorf("saving reward %s: %w", r.Key, err)
		}
	}

	for _, a := range state.Achievements {
		if a.UnlockedAt == nil {
			continue
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO achievements (id, unlocked_at) VALUES (?, ?)
			ON CONFLICT (id) DO NOTHING`, a.ID, a.UnlockedAt.UTC())
		if err != nil {
			return fmt.Errorf("saving achievement %s: %w", a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Reminder operations

func (s *SQLiteDatabase) ReplaceReminders(reminders []model.ReminderTime) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reminders`); err != nil {
		return fmt.Errorf("clearing reminders: %w", err)
	}
	for i, r := range reminders {
		_, err := tx.ExecContext(ctx, `INSERT INTO reminders (position, minute, fire_at, pacing_target_ml)
			VALUES (?, ?, ?, ?)`, i, r.Minute, r.At.UTC(), r.PacingTargetML)
		if err != nil {
			return fmt.Errorf("inserting reminder %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) ListReminders() ([]model.ReminderTime, error) {
	rows, err := s.db.Query(`SELECT minute, fire_at, pacing_target_ml FROM reminders ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("listing reminders: %w", err)
	}
	defer rows.Close()

	var result []model.ReminderTime
	for rows.Next() {
		var r model.ReminderTime
		if err := rows.Scan(&r.Minute, &r.At, &r.PacingTargetML); err != nil {
			return nil, fmt.Errorf("scanning reminder: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reminders: %w", err)
	}
	return result, nil
}

// Operation tracking

func (s *SQLiteDatabase) CreateOperation(operation string, parameters string) (*model.Operation, error) {
	op := &model.Operation{
		Operation:  operation,
		Parameters: parameters,
		StartedAt:  time.Now().UTC(),
		Status:     "running",
	}
	res, err := s.db.Exec(`INSERT INTO operations (operation, parameters, started_at, status) VALUES (?, ?, ?, ?)`,
		op.Operation, op.Parameters, op.StartedAt, op.Status)
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}
	op.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading operation id: %w", err)
	}
	return op, nil
}

func (s *SQLiteDatabase) FinishOperation(id int64, status string) error {
	_, err := s.db.Exec(`UPDATE operations SET finished_at = ?, status = ? WHERE id = ?`,
		time.Now().UTC(), status, id)
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	return nil
}

// ListOperations returns the most recent operations, newest first.
func (s *SQLiteDatabase) ListOperations(limit int) ([]*model.Operation, error) {
	rows, err := s.db.Query(`SELECT id, operation, parameters, started_at, finished_at, status
		FROM operations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var result []*model.Operation
	for rows.Next() {
		var op model.Operation
		var finished sql.NullTime
		if err := rows.Scan(&op.ID, &op.Operation, &op.Parameters, &op.StartedAt, &finished, &op.Status); err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		if finished.Valid {
			op.FinishedAt = &finished.Time
		}
		result = append(result, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating operations: %w", err)
	}
	return result, nil
}

func (s *SQLiteDatabase) MaxOperationID() (int64, error) {
	var id int64
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(id), 0) FROM operations`).Scan(&id); err != nil {
		return 0, fmt.Errorf("getting max operation ID: %w", err)
	}
	return id, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// Migrate applies any pending schema migrations.
func (s *SQLiteDatabase) Migrate() error {
	return migrations.MigrateUp(s.db)
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// MigrationStatus reports the schema version against the latest migration.
func (s *SQLiteDatabase) MigrationStatus() (migrations.Status, error) {
	return migrations.GetStatus(s.db)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	_, err := s.db.Exec("VACUUM INTO ?", destPath)
	if err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteDatabase implements hydro.Database interface
var _ hydro.Database = (*SQLiteDatabase)(nil)
