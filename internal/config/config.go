// Package config loads playkit's configuration with viper and sets
// up the application logger.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the application configuration.
type Config struct {
	Player   PlayerConfig   `mapstructure:"player"`
	History  HistoryConfig  `mapstructure:"history"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Advanced AdvancedConfig `mapstructure:"advanced"`
}

// PlayerConfig controls session creation and initial playback state.
type PlayerConfig struct {
	// Executable overrides the mpv binary path.
	Executable string `mapstructure:"executable"`
	// AssetsDir is where asset sources are resolved from.
	AssetsDir string `mapstructure:"assets_dir"`
	// Fullscreen starts sessions in fullscreen.
	Fullscreen bool `mapstructure:"fullscreen"`
	// LoadUserConfig lets mpv read the user's own mpv.conf.
	LoadUserConfig bool `mapstructure:"load_user_config"`
	// ExtraArgs are passed to mpv verbatim.
	ExtraArgs []string `mapstructure:"extra_args"`
	// MixWithOthers shares the audio device with other applications.
	MixWithOthers bool `mapstructure:"mix_with_others"`
	// Volume is the initial volume in [0,1].
	Volume float64 `mapstructure:"volume"`
	// Speed is the initial playback speed.
	Speed float64 `mapstructure:"speed"`
	// Looping restarts media when it completes.
	Looping bool `mapstructure:"looping"`
}

// HistoryConfig controls the watch history database.
type HistoryConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Database is the SQLite file path. Empty means the default data
	// directory.
	Database string `mapstructure:"database"`
	// SaveInterval is how often playback progress is persisted, in
	// seconds.
	SaveInterval int `mapstructure:"save_interval"`
}

// LoggingConfig controls log output and rotation.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// AdvancedConfig holds settings most users never touch.
type AdvancedConfig struct {
	Debug bool `mapstructure:"debug"`
}

// SetDefaults registers every default value on the given viper
// instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("player.executable", "")
	v.SetDefault("player.assets_dir", "")
	v.SetDefault("player.fullscreen", false)
	v.SetDefault("player.load_user_config", false)
	v.SetDefault("player.extra_args", []string{})
	v.SetDefault("player.mix_with_others", true)
	v.SetDefault("player.volume", 1.0)
	v.SetDefault("player.speed", 1.0)
	v.SetDefault("player.looping", false)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.database", "")
	v.SetDefault("history.save_interval", 10)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)

	v.SetDefault("advanced.debug", false)
}

// Load reads the configuration file, falling back to defaults when no
// file exists. The viper instance is returned so callers can watch
// for changes.
func Load(path string) (*Config, *viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
	}

	v.SetEnvPrefix("PLAYKIT")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, v, nil
}

// SaveDefaultConfig writes a config file populated with every
// default value, as a starting point for editing.
func SaveDefaultConfig(path string) error {
	v := viper.New()
	SetDefaults(v)
	data, err := yaml.Marshal(v.AllSettings())
	if err != nil {
		return fmt.Errorf("marshaling defaults: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// InitializeDirs creates the config, data, and state directories.
func InitializeDirs() error {
	for _, dir := range []string{ConfigDir(), DataDir(), stateDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// ConfigDir is where the config file lives.
func ConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "playkit")
	}
	return filepath.Join(".", ".playkit")
}

// DataDir is where persistent data such as the history database
// lives.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "playkit")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "playkit")
	}
	return filepath.Join(".", ".playkit")
}

// stateDir is where logs live.
func stateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "playkit")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", "playkit")
	}
	return filepath.Join(".", ".playkit")
}

// HistoryDatabasePath resolves the configured database path, using
// the data directory when unset.
func (c *Config) HistoryDatabasePath() string {
	if c.History.Database != "" {
		return c.History.Database
	}
	return filepath.Join(DataDir(), "history.db")
}
