package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Gemini
	GeminiAPIKey string
	GeminiModel  string

	// Server
	ServerPort string

	// Backup
	BackupSchedule string // cron expression for history backups

	// Paths
	HistoryFile string // $CONFIG_DIR/focusflow.db
	BackupDir   string // $CONFIG_DIR/backups

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Setup viper FIRST to load .env file
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	viper.SetDefault("BACKUP_SCHEDULE", "0 4 * * *")

	// NOW read CONFIG_DIR from viper (which has loaded .env file)
	configDir := viper.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "focusflow")
	} else {
		// Convert relative path to absolute path
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := &Config{
		// Gemini. The API key is optional: without it the app still
		// runs and study-aid generation fails with a clear message.
		GeminiAPIKey: viper.GetString("GEMINI_API_KEY"),
		GeminiModel:  viper.GetString("GEMINI_MODEL"),

		// Server
		ServerPort: viper.GetString("SERVER_PORT"),

		// Backup
		BackupSchedule: viper.GetString("BACKUP_SCHEDULE"),

		// Paths
		HistoryFile: filepath.Join(configDir, "focusflow.db"),
		BackupDir:   filepath.Join(configDir, "backups"),

		// Logging
		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	return config, nil
}
