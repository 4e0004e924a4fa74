package config

import (
	"path/filepath"
	"strings"
)

// Storage backends
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log" validate:"required"`
	Storage  StorageConfig  `mapstructure:"storage" validate:"required"`
	Bot      BotConfig      `mapstructure:"bot" validate:"required"`
	Reminder ReminderConfig `mapstructure:"reminder"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// StorageConfig selects where the registry, progress records and completion counts live.
type StorageConfig struct {
	Backend string `mapstructure:"backend" validate:"required,oneof=file sqlite postgres"`
	DataDir string `mapstructure:"data_dir" validate:"required"`
	// DSN is required for postgres. For sqlite it defaults to a file in DataDir.
	DSN string `mapstructure:"dsn" validate:"required_if=Backend postgres"`
}

// BotConfig contains the Telegram front end settings.
type BotConfig struct {
	Token       string `mapstructure:"token" validate:"required"`
	OwnerChatID int64  `mapstructure:"owner_chat_id" validate:"required"`
	Debug       bool   `mapstructure:"debug"`
	UploadDir   string `mapstructure:"upload_dir"`
}

// ReminderConfig schedules the daily practice reminder.
type ReminderConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	At      string `mapstructure:"at" validate:"required,datetime=15:04"`
}

// normalize lowercases the enumerated settings so they validate case-insensitively
func (c *Config) normalize() {
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
}

// RegistryPath is the location of the set registry file
func (s StorageConfig) RegistryPath() string {
	return filepath.Join(s.DataDir, "registry.json")
}

// ProgressDir is the directory holding per-set progress files
func (s StorageConfig) ProgressDir() string {
	return filepath.Join(s.DataDir, "progress")
}

// CompletionsPath is the location of the completion count file
func (s StorageConfig) CompletionsPath() string {
	return filepath.Join(s.DataDir, "completions.json")
}

// DatabaseDSN returns the connection string for the SQL backends
func (s StorageConfig) DatabaseDSN() string {
	if s.DSN == "" && s.Backend == BackendSQLite {
		return filepath.Join(s.DataDir, "drillbot.db")
	}
	return s.DSN
}

// Uploads returns the directory where documents sent to the bot are stored
func (b BotConfig) Uploads(dataDir string) string {
	if b.UploadDir != "" {
		return b.UploadDir
	}
	return filepath.Join(dataDir, "sources")
}
