package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// GetDefaults returns application default paths, checking environment variables first.
// Variables may also come from a dotenv file (HYDRO_ENV_FILE, default ./.env);
// values already present in the environment win over the file.
//   - HYDRO_CONFIG_PATH: config file location (default: ~/.config/hydro.toml)
//   - HYDRO_HOME: base directory for hydro data (default: ~/.local/share/hydro)
func GetDefaults() (map[string]string, error) {
	if err := loadEnvFile(envFilePath()); err != nil {
		return nil, err
	}

	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
		"data_dir":    filepath.Join(baseDir, "db"),
	}, nil
}

func envFilePath() string {
	if path := os.Getenv("HYDRO_ENV_FILE"); path != "" {
		return path
	}
	return ".env"
}

// loadEnvFile loads path into the environment. A missing file is not an error.
func loadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

func getConfigPath() (string, error) {
	if path := os.Getenv("HYDRO_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "hydro.toml"), nil
}

func getBaseDir() (string, error) {
	if path := os.Getenv("HYDRO_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "hydro"), nil
}
