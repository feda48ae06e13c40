package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"hydro-go/internal/hydro"
)

// Config represents the main configuration for hydro.
type Config struct {
	InstallID  string           `toml:"install_id"`
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	Timezone   string           `toml:"timezone,omitempty"` // IANA name; empty means the system zone
	Vaults     []VaultConfig    `toml:"vaults"`
	Encryption EncryptionConfig `toml:"encryption"`
	Database   DatabaseConfig   `toml:"database"`
	Goal       GoalConfig       `toml:"goal"`
	Game       GameConfig       `toml:"game"`
	Signals    SignalsConfig    `toml:"signals"`
}

// EncryptionConfig holds paths to the age key pair used to encrypt snapshots.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// VaultConfig represents configuration for a snapshot vault backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type VaultConfig struct {
	Type string `toml:"type"` // "memory", "s3", or "filesystem"
	Name string `toml:"name"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"` // for S3-compatible stores such as MinIO
	// Static credentials; when empty the default AWS credential chain is used.
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSVaultRoot string `toml:"fs_vault_root,omitempty"`
}

// DatabaseConfig represents configuration for the database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// GoalConfig overrides the goal formula. Zero values keep the defaults.
type GoalConfig struct {
	MLPerKg            float64 `toml:"ml_per_kg,omitempty"`
	ChillPercent       int     `toml:"chill_percent,omitempty"`
	SteadyPercent      int     `toml:"steady_percent,omitempty"`
	IntensePercent     int     `toml:"intense_percent,omitempty"`
	ComfortTempC       float64 `toml:"comfort_temp_c,omitempty"`
	MLPerDegree        float64 `toml:"ml_per_degree,omitempty"`
	WeatherCapML       int     `toml:"weather_cap_ml,omitempty"`
	MLPerWorkoutMinute int     `toml:"ml_per_workout_minute,omitempty"`
	WorkoutCapML       int     `toml:"workout_cap_ml,omitempty"`
	FloorML            int     `toml:"floor_ml,omitempty"`
}

// GameConfig overrides the XP economy. Zero values keep the defaults.
type GameConfig struct {
	LevelThresholds []int `toml:"level_thresholds,omitempty"`
	GoalXP          int   `toml:"goal_xp,omitempty"`
	GoalCoins       int   `toml:"goal_coins,omitempty"`
}

// SignalsConfig holds fixed readings used when no live provider is wired.
type SignalsConfig struct {
	TemperatureC    *float64 `toml:"temperature_c,omitempty"`
	ExerciseMinutes *int     `toml:"exercise_minutes,omitempty"`
}

// NewConfig creates a new Config with the provided values and default paths.
func NewConfig(installID, baseDir string) *Config {
	return &Config{
		InstallID: installID,
		BaseDir:   baseDir,
		LogDir:    filepath.Join(baseDir, "log"),
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "hydro.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "hydro.key"),
		},
		Database: DatabaseConfig{Type: "sqlite", DataDir: filepath.Join(baseDir, "db")},
	}
}

// Location resolves the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// GoalParams merges the goal overrides into the defaults.
func (c *Config) GoalParams() hydro.GoalParams {
	p := hydro.DefaultGoalParams()
	g := c.Goal
	if g.MLPerKg > 0 {
		p.MLPerKg = g.MLPerKg
	}
	if g.ChillPercent > 0 {
		p.ChillPercent = g.ChillPercent
	}
	if g.SteadyPercent > 0 {
		p.SteadyPercent = g.SteadyPercent
	}
	if g.IntensePercent > 0 {
		p.IntensePercent = g.IntensePercent
	}
	if g.ComfortTempC != 0 {
		p.ComfortTempC = g.ComfortTempC
	}
	if g.MLPerDegree > 0 {
		p.MLPerDegree = g.MLPerDegree
	}
	if g.WeatherCapML > 0 {
		p.WeatherCapML = g.WeatherCapML
	}
	if g.MLPerWorkoutMinute > 0 {
		p.MLPerWorkoutMinute = g.MLPerWorkoutMinute
	}
	if g.WorkoutCapML > 0 {
		p.WorkoutCapML = g.WorkoutCapML
	}
	if g.FloorML > 0 {
		p.FloorML = g.FloorML
	}
	return p
}

// GameParams merges the game overrides into the defaults. Level thresholds
// must start at 0 and increase strictly.
func (c *Config) GameParams() (hydro.GameParams, error) {
	p := hydro.DefaultGameParams()
	g := c.Game
	if len(g.LevelThresholds) > 0 {
		if g.LevelThresholds[0] != 0 {
			return hydro.GameParams{}, fmt.Errorf("level_thresholds must start at 0, got %d", g.LevelThresholds[0])
		}
		for i := 1; i < len(g.LevelThresholds); i++ {
			if g.LevelThresholds[i] <= g.LevelThresholds[i-1] {
				return hydro.GameParams{}, fmt.Errorf("level_thresholds must be strictly increasing at index %d", i)
			}
		}
		p.LevelThresholds = append([]int(nil), g.LevelThresholds...)
	}
	if g.GoalXP > 0 {
		p.GoalXP = g.GoalXP
	}
	if g.GoalCoins > 0 {
		p.GoalCoins = g.GoalCoins
	}
	return p, nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
