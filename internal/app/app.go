package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"hydro-go/internal/config"
	"hydro-go/internal/database"
	"hydro-go/internal/encryption"
	"hydro-go/internal/hydro"
	"hydro-go/internal/model"
	"hydro-go/internal/notify"
	"hydro-go/internal/vault"
)

// Options carries the collaborators the CLI decides on per command.
// Zero values fall back to the real implementations.
type Options struct {
	Signals  hydro.Signals
	Notifier hydro.Notifier // receives reminders after they are stored
	Clock    hydro.Clock
	IDs      hydro.IDGenerator
	Console  io.Writer // warnings and errors; defaults to stderr
}

// HydroApp is the application layer between the CLI and HydroService.
// It constructs all dependencies from config, records an operation for
// mutating commands, and snapshots the database to the vault on Close.
type HydroApp struct {
	cfg       *config.Config
	db        *database.SQLiteDatabase
	vault     hydro.Vault // nil when no vault is configured
	encryptor hydro.Encryptor
	service   *hydro.HydroService
	op        *Operation
	logger    hydro.Logger
	logFile   *os.File
}

// NewHydroApp creates a fully wired HydroApp from the given config.
// operation names the CLI command being run (e.g. "AddEntry", "Refresh").
// The caller must call Close when done.
func NewHydroApp(cfg *config.Config, operation string, opts Options) (*HydroApp, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	gameParams, err := cfg.GameParams()
	if err != nil {
		return nil, fmt.Errorf("game config: %w", err)
	}

	var v hydro.Vault
	if len(cfg.Vaults) > 0 {
		v, err = vault.NewVaultFromConfig(cfg.Vaults[0])
		if err != nil {
			return nil, fmt.Errorf("creating vault: %w", err)
		}
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	if v != nil {
		if err := checkNotBehind(db, v, cfg.InstallID); err != nil {
			db.Close()
			return nil, err
		}
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	opID := time.Now().UTC().Format("20060102T150405Z")
	slogger, logFile, err := newLogger(cfg.LogDir, opID, console)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	clock := opts.Clock
	if clock == nil {
		clock = hydro.RealClock{}
	}
	ids := opts.IDs
	if ids == nil {
		ids = hydro.UUIDGenerator{}
	}

	params := hydro.Params{Goal: cfg.GoalParams(), Game: gameParams, Location: loc}
	notifier := notify.NewStoreNotifier(db, opts.Notifier)
	svc := hydro.NewHydroService(db, notifier, opts.Signals, params, logger, clock, ids)
	if err := svc.Load(); err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("loading entries: %w", err)
	}

	return &HydroApp{
		cfg:       cfg,
		db:        db,
		vault:     v,
		encryptor: enc,
		service:   svc,
		op:        NewOperation(operation, ""),
		logger:    logger,
		logFile:   logFile,
	}, nil
}

// checkNotBehind refuses to work on a local database older than the
// newest snapshot in the vault; writing to it would fork the history.
func checkNotBehind(db *database.SQLiteDatabase, v hydro.Vault, installID string) error {
	remoteVersion, err := v.GetSnapshotVersion(installID, hydro.SnapshotDatabase)
	if err != nil {
		return fmt.Errorf("checking remote snapshot version: %w", err)
	}
	localMax, err := db.MaxOperationID()
	if err != nil {
		return fmt.Errorf("checking local operation log: %w", err)
	}
	if remoteVersion > localMax {
		return fmt.Errorf("local database is behind remote (local=%d, remote=%d): run `hydro restore` or re-initialize", localMax, remoteVersion)
	}
	return nil
}

// Service exposes the underlying service for read-only commands.
func (a *HydroApp) Service() *hydro.HydroService {
	return a.service
}

// Operation returns the operation record of the running command.
func (a *HydroApp) Operation() *Operation {
	return a.op
}

// persistOperation saves the operation, giving it an ID. Only DB-mutating
// commands call it; Close uploads a snapshot for persisted operations.
func (a *HydroApp) persistOperation(parameters string) error {
	if a.op.Persisted() {
		return nil
	}
	a.op.Parameters = parameters
	dbOp, err := a.db.CreateOperation(a.op.Name, a.op.Parameters)
	if err != nil {
		return fmt.Errorf("persisting operation: %w", err)
	}
	a.op.ID = dbOp.ID
	return nil
}

// Profile returns the stored or default profile.
func (a *HydroApp) Profile() (*model.Profile, error) {
	return a.service.Profile()
}

// SaveProfile validates and stores the profile.
func (a *HydroApp) SaveProfile(p *model.Profile) error {
	if err := a.persistOperation(p.Name); err != nil {
		return err
	}
	return a.op.Fail(a.service.SaveProfile(p))
}

// AddEntry logs a drink.
func (a *HydroApp) AddEntry(e model.Entry) (model.Entry, error) {
	if err := a.persistOperation(fmt.Sprintf("%d %s", e.VolumeML, e.FluidType)); err != nil {
		return model.Entry{}, err
	}
	stored, err := a.service.AddEntry(e)
	return stored, a.op.Fail(err)
}

// QuickAdd logs a clamped glass of water.
func (a *HydroApp) QuickAdd(amountML int) (model.Entry, error) {
	if err := a.persistOperation(fmt.Sprintf("%d", amountML)); err != nil {
		return model.Entry{}, err
	}
	stored, err := a.service.QuickAdd(amountML)
	return stored, a.op.Fail(err)
}

// ImportEntry records a backdated drink from the health store.
func (a *HydroApp) ImportEntry(ts time.Time, volumeML int, fluid model.FluidType) (model.Entry, error) {
	if err := a.persistOperation(fmt.Sprintf("%s %d %s", ts.Format(time.RFC3339), volumeML, fluid)); err != nil {
		return model.Entry{}, err
	}
	stored, err := a.service.ImportEntry(ts, volumeML, fluid)
	return stored, a.op.Fail(err)
}

// UpdateEntry edits an entry.
func (a *HydroApp) UpdateEntry(id string, edit model.EntryEdit) (model.Entry, error) {
	if err := a.persistOperation(id); err != nil {
		return model.Entry{}, err
	}
	updated, err := a.service.UpdateEntry(id, edit)
	return updated, a.op.Fail(err)
}

// DeleteEntry removes an entry.
func (a *HydroApp) DeleteEntry(id string) error {
	if err := a.persistOperation(id); err != nil {
		return err
	}
	return a.op.Fail(a.service.DeleteEntry(id))
}

// Refresh recomputes today's dashboard. It persists game state and
// reminders, so it counts as a mutation.
func (a *HydroApp) Refresh(ctx context.Context) (*hydro.Dashboard, error) {
	if err := a.persistOperation(""); err != nil {
		return nil, err
	}
	d, err := a.service.Refresh(ctx)
	return d, a.op.Fail(err)
}

// History returns the last n days against today's goal.
func (a *HydroApp) History(ctx context.Context, n int) ([]hydro.HistoryDay, error) {
	return a.service.History(ctx, n)
}

// StoredReminders returns the schedule from the last refresh.
func (a *HydroApp) StoredReminders() ([]model.ReminderTime, error) {
	return a.db.ListReminders()
}

// Operations returns the most recent operations, newest first.
func (a *HydroApp) Operations(limit int) ([]*model.Operation, error) {
	return a.db.ListOperations(limit)
}

// Backup forces a snapshot upload on Close.
func (a *HydroApp) Backup() error {
	if a.vault == nil {
		return fmt.Errorf("no vaults configured")
	}
	return a.persistOperation("")
}

// Close finalizes the operation and closes all resources.
// For persisted operations: finishes the operation record, snapshots the DB,
// encrypts it and uploads it to the vault with version = operation ID.
func (a *HydroApp) Close() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	var snapshotPath string
	if a.op.Persisted() {
		if err := a.db.FinishOperation(a.op.ID, a.op.Status); err != nil {
			keep(fmt.Errorf("finishing operation: %w", err))
		}

		if a.vault != nil {
			path, err := a.snapshot()
			keep(err)
			snapshotPath = path
		}
	}

	if err := a.db.Close(); err != nil {
		keep(fmt.Errorf("closing database: %w", err))
	}

	if snapshotPath != "" {
		keep(a.uploadSnapshot(snapshotPath, a.op.ID))
		os.Remove(snapshotPath)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}

// snapshot copies the live database into a temp file.
func (a *HydroApp) snapshot() (string, error) {
	tmpFile, err := os.CreateTemp("", "hydro-db-snapshot-*.db")
	if err != nil {
		return "", fmt.Errorf("creating temp file for db snapshot: %w", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	// VACUUM INTO refuses to overwrite an existing file.
	os.Remove(tmpPath)

	if err := a.db.BackupTo(tmpPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("snapshotting database: %w", err)
	}
	return tmpPath, nil
}

// uploadSnapshot encrypts the snapshot file and stores it in the vault.
func (a *HydroApp) uploadSnapshot(path string, version int64) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening db snapshot for upload: %w", err)
	}
	defer f.Close()

	var encrypted bytes.Buffer
	if err := a.encryptor.Encrypt(f, &encrypted); err != nil {
		return fmt.Errorf("encrypting db snapshot: %w", err)
	}

	size := int64(encrypted.Len())
	if err := a.vault.PutSnapshot(a.cfg.InstallID, hydro.SnapshotDatabase, &encrypted, size, version); err != nil {
		return fmt.Errorf("uploading snapshot to vault: %w", err)
	}
	a.logger.Info("snapshot uploaded", "version", version, "bytes", size)
	return nil
}

// PublishKeys copies the key files to the vault so a restore on a new
// device can recover them. The private key is stored passphrase-encrypted.
func PublishKeys(cfg *config.Config) error {
	if len(cfg.Vaults) == 0 || cfg.Encryption.Type == "test" {
		return nil
	}
	v, err := vault.NewVaultFromConfig(cfg.Vaults[0])
	if err != nil {
		return fmt.Errorf("creating vault: %w", err)
	}

	keys := map[string]string{
		hydro.SnapshotPublicKey:  cfg.Encryption.PublicKeyPath,
		hydro.SnapshotPrivateKey: cfg.Encryption.PrivateKeyPath,
	}
	for name, path := range keys {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}
		if err := v.PutSnapshot(cfg.InstallID, name, bytes.NewReader(data), int64(len(data)), 0); err != nil {
			return fmt.Errorf("uploading %s: %w", name, err)
		}
	}
	return nil
}

// Restore replaces the local database with the newest vault snapshot.
// Missing key files are fetched from the vault first. It returns the
// snapshot version restored.
func Restore(cfg *config.Config, passphrase string) (int64, error) {
	if cfg.Database.Type != "sqlite" {
		return 0, fmt.Errorf("restore needs a sqlite database, have %q", cfg.Database.Type)
	}
	if len(cfg.Vaults) == 0 {
		return 0, fmt.Errorf("no vaults configured")
	}
	v, err := vault.NewVaultFromConfig(cfg.Vaults[0])
	if err != nil {
		return 0, fmt.Errorf("creating vault: %w", err)
	}

	version, err := v.GetSnapshotVersion(cfg.InstallID, hydro.SnapshotDatabase)
	if err != nil {
		return 0, fmt.Errorf("checking remote snapshot version: %w", err)
	}
	if version == 0 {
		return 0, fmt.Errorf("vault holds no snapshot for install %s", cfg.InstallID)
	}

	if cfg.Encryption.Type != "test" {
		if err := fetchMissingKeys(cfg, v); err != nil {
			return 0, err
		}
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return 0, fmt.Errorf("creating encryptor: %w", err)
	}
	dec, err := enc.Unlock(passphrase)
	if err != nil {
		return 0, fmt.Errorf("unlocking private key: %w", err)
	}

	var encrypted bytes.Buffer
	if err := v.GetSnapshot(cfg.InstallID, hydro.SnapshotDatabase, &encrypted); err != nil {
		return 0, fmt.Errorf("downloading snapshot: %w", err)
	}

	if err := os.MkdirAll(cfg.Database.DataDir, 0755); err != nil {
		return 0, fmt.Errorf("creating data directory: %w", err)
	}
	dest := filepath.Join(cfg.Database.DataDir, database.DatabaseFileName)
	tmp, err := os.CreateTemp(cfg.Database.DataDir, ".restore-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := dec.Decrypt(&encrypted, tmp); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("decrypting snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("closing restored database: %w", err)
	}

	restored, err := database.NewSQLiteDatabase(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("opening restored database: %w", err)
	}
	checkErr := restored.CheckMigrations()
	restored.Close()
	if checkErr != nil {
		return 0, fmt.Errorf("restored database unusable: %w", checkErr)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return 0, fmt.Errorf("replacing database: %w", err)
	}
	return version, nil
}

func fetchMissingKeys(cfg *config.Config, v hydro.Vault) error {
	keys := map[string]string{
		hydro.SnapshotPublicKey:  cfg.Encryption.PublicKeyPath,
		hydro.SnapshotPrivateKey: cfg.Encryption.PrivateKeyPath,
	}
	for name, path := range keys {
		if _, err := os.Stat(path); err == nil {
			continue
		}
		var buf bytes.Buffer
		if err := v.GetSnapshot(cfg.InstallID, name, &buf); err != nil {
			return fmt.Errorf("fetching %s from vault: %w", name, err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return fmt.Errorf("creating key directory: %w", err)
		}
		if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}
