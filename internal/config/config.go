// Package config provides configuration management for slicersave using Viper.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/thoreinstein/slicersave/internal/paths"
)

// AppName is the application name used for config file naming.
const AppName = "slicersave"

// Config represents the top-level configuration structure.
type Config struct {
	// BackupDir is the default destination for backup artifacts.
	BackupDir string `mapstructure:"backup_dir" yaml:"backup_dir"`

	// Compress controls whether backups are sealed into ZIP containers
	// by default.
	Compress bool `mapstructure:"compress" yaml:"compress"`

	// Verify controls whether backups are verified after creation by
	// default.
	Verify bool `mapstructure:"verify" yaml:"verify"`

	// StrictExtra makes untracked extra files fail verification.
	StrictExtra bool `mapstructure:"strict_extra" yaml:"strict_extra"`
}

// Init initializes Viper with default configuration.
// Call this once at application startup before accessing config values.
func Init() {
	// Config file settings
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Search paths (in order of precedence)
	viper.AddConfigPath(".") // Current directory
	viper.AddConfigPath(filepath.Join(paths.ConfigHome(), AppName))

	// Environment variable support
	viper.SetEnvPrefix("SLICERSAVE")
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("backup_dir", paths.DefaultBackupDir())
	viper.SetDefault("compress", true)
	viper.SetDefault("verify", true)
	viper.SetDefault("strict_extra", false)
}

// Load reads the configuration file.
// If path is provided, it reads from that specific file.
// If path is empty, it searches in the default locations.
// Returns the loaded configuration or default values if no file is found (when path is empty).
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		// If config file not found...
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// If user specified a path, this is an error
			if path != "" {
				return nil, fmt.Errorf("config file not found at %s: %w", path, err)
			}
			// Otherwise (implicit load), it's fine to use defaults
		} else {
			// Real read error (parsing, permissions, etc)
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the loaded configuration for usable values.
func (c *Config) Validate() error {
	if c.BackupDir == "" {
		return fmt.Errorf("backup_dir must not be empty")
	}
	return nil
}
