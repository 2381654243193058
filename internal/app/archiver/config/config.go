package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

const (
	envPrefix = "clipkeeper"

	defaultEnv           = EnvLocal
	defaultBackupDir     = ".clipkeeper"
	defaultSourceDir     = "Library/Application Support/Alfred/Databases"
	defaultSourceFile    = "clipboard.alfdb"
	defaultArchiveFile   = "clipboard-archive.alfdb"
	defaultShellBin      = "sqlite3"
	defaultBusyTimeoutMS = 5000

	snapshotStampLayout = "2006-01-02_15-04-05"
)

// Config is built once at startup and never mutated afterwards. No component
// reads the environment after Load returns; the per-run snapshot filename is
// stamped here so every path the process uses is fixed up front.
type Config struct {
	Env           string `mapstructure:"app_env"`
	BackupDir     string `mapstructure:"backup_dir"`
	SourceDir     string `mapstructure:"source_dir"`
	SourceFile    string `mapstructure:"source_file"`
	ArchiveFile   string `mapstructure:"archive_file"`
	SnapshotFile  string `mapstructure:"snapshot_file"`
	ShellBin      string `mapstructure:"shell_bin"`
	BusyTimeoutMS int    `mapstructure:"busy_timeout_ms"`
}

// Load reads the environment (plus an optional .env file) and returns the
// resolved configuration. Environment variables use the CLIPKEEPER_ prefix.
func Load() (*Config, error) {
	// Look for .env next to the binary's working directory, then one up.
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = "../.env"
	}
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("loading %s: %w", envPath, err)
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	viper.SetDefault("APP_ENV", defaultEnv)
	viper.SetDefault("BACKUP_DIR", filepath.Join(homeDir, defaultBackupDir))
	viper.SetDefault("SOURCE_DIR", filepath.Join(homeDir, defaultSourceDir))
	viper.SetDefault("SOURCE_FILE", defaultSourceFile)
	viper.SetDefault("ARCHIVE_FILE", defaultArchiveFile)
	viper.SetDefault("SNAPSHOT_FILE", snapshotName(time.Now()))
	viper.SetDefault("SHELL_BIN", defaultShellBin)
	viper.SetDefault("BUSY_TIMEOUT_MS", defaultBusyTimeoutMS)

	config := &Config{
		Env:           viper.GetString("APP_ENV"),
		BackupDir:     viper.GetString("BACKUP_DIR"),
		SourceDir:     viper.GetString("SOURCE_DIR"),
		SourceFile:    viper.GetString("SOURCE_FILE"),
		ArchiveFile:   viper.GetString("ARCHIVE_FILE"),
		SnapshotFile:  viper.GetString("SNAPSHOT_FILE"),
		ShellBin:      viper.GetString("SHELL_BIN"),
		BusyTimeoutMS: viper.GetInt("BUSY_TIMEOUT_MS"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func snapshotName(now time.Time) string {
	return fmt.Sprintf("clipboard-%s.alfdb", now.Format(snapshotStampLayout))
}

func (c *Config) validate() error {
	if c.BackupDir == "" {
		return fmt.Errorf("backup_dir must not be empty")
	}
	if c.SourceDir == "" {
		return fmt.Errorf("source_dir must not be empty")
	}
	if c.SourceFile == "" {
		return fmt.Errorf("source_file must not be empty")
	}
	if c.ArchiveFile == "" {
		return fmt.Errorf("archive_file must not be empty")
	}
	if c.SnapshotFile == "" {
		return fmt.Errorf("snapshot_file must not be empty")
	}
	if c.SnapshotFile == c.ArchiveFile {
		return fmt.Errorf("snapshot_file must not equal archive_file")
	}
	if c.BusyTimeoutMS < 0 {
		return fmt.Errorf("busy_timeout_ms must not be negative")
	}
	return nil
}

// SourcePath is the live source store file.
func (c *Config) SourcePath() string {
	return filepath.Join(c.SourceDir, c.SourceFile)
}

// ArchivePath is the cumulative archive file inside the backup directory.
func (c *Config) ArchivePath() string {
	return filepath.Join(c.BackupDir, c.ArchiveFile)
}

// SnapshotPath is this run's snapshot file inside the backup directory.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.BackupDir, c.SnapshotFile)
}

// IsProd reports whether the prod environment is configured.
func (c *Config) IsProd() bool {
	return c.Env == EnvProd
}

// IsDev reports whether the dev environment is configured.
func (c *Config) IsDev() bool {
	return c.Env == EnvDev
}

// IsLocal reports whether the local environment is configured.
func (c *Config) IsLocal() bool {
	return c.Env == EnvLocal || c.Env == ""
}
