package app

import (
	"fmt"

	"hydro-go/internal/config"
	"hydro-go/internal/database"
	"hydro-go/internal/database/migrations"
)

// MigrateDatabase brings the configured database to the latest schema and
// returns the resulting status.
func MigrateDatabase(cfg *config.Config) (migrations.Status, error) {
	db, err := newMigratedDB(cfg)
	if err != nil {
		return migrations.Status{}, err
	}
	defer db.Close()
	return db.MigrationStatus()
}

// DatabaseStatus reports the schema version of the configured database
// without changing it.
func DatabaseStatus(cfg *config.Config) (migrations.Status, error) {
	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		return migrations.Status{}, fmt.Errorf("creating database: %w", err)
	}
	defer db.Close()
	return db.MigrationStatus()
}

func newMigratedDB(cfg *config.Config) (*database.SQLiteDatabase, error) {
	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return db, nil
}
