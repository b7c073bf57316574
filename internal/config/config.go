package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// HABITLENS_QUERY_TIMEOUT=5s or HABITLENS_SERVE_ADDR=:9000.
const EnvPrefix = "HABITLENS"

// FileName is the config file name inside Dir().
const FileName = "config.yaml"

// Config is the resolved runtime configuration.
type Config struct {
	DataDir              string        `mapstructure:"data_dir" yaml:"data_dir"`
	DB                   string        `mapstructure:"db" yaml:"db"`
	QueryTimeout         time.Duration `mapstructure:"query_timeout" yaml:"query_timeout"`
	LaunchCountSupported bool          `mapstructure:"launch_count_supported" yaml:"launch_count_supported"`
	CategoriesSupported  bool          `mapstructure:"categories_supported" yaml:"categories_supported"`
	SettingsCommand      string        `mapstructure:"settings_command" yaml:"settings_command"`
	DesktopDirs          []string      `mapstructure:"desktop_dirs" yaml:"desktop_dirs"`
	Serve                ServeConfig   `mapstructure:"serve" yaml:"serve"`
	TUI                  TUIConfig     `mapstructure:"tui" yaml:"tui"`
	Log                  LogConfig     `mapstructure:"log" yaml:"log"`
}

// ServeConfig configures the local HTTP API.
type ServeConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// TUIConfig configures the dashboard.
type TUIConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	JSON  bool   `mapstructure:"json" yaml:"json"`
}

// DBPath returns the database path, defaulting to {data_dir}/habitlens.db.
func (c *Config) DBPath() string {
	if c.DB != "" {
		return c.DB
	}
	return filepath.Join(c.DataDir, "habitlens.db")
}

// Default returns the built-in configuration.
func Default() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	return &Config{
		DataDir:              filepath.Join(home, ".habitlens"),
		QueryTimeout:         10 * time.Second,
		LaunchCountSupported: true,
		CategoriesSupported:  true,
		DesktopDirs:          defaultDesktopDirs(home),
		Serve:                ServeConfig{Addr: "127.0.0.1:7777"},
		TUI:                  TUIConfig{Interval: 30 * time.Second},
		Log:                  LogConfig{Level: "warn"},
	}, nil
}

// defaultDesktopDirs follows the XDG base directory search path for
// application entries.
func defaultDesktopDirs(home string) []string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = filepath.Join(home, ".local", "share")
	}
	dataDirs := os.Getenv("XDG_DATA_DIRS")
	if dataDirs == "" {
		dataDirs = "/usr/local/share:/usr/share"
	}

	dirs := []string{filepath.Join(dataHome, "applications")}
	for _, d := range strings.Split(dataDirs, ":") {
		if d != "" {
			dirs = append(dirs, filepath.Join(d, "applications"))
		}
	}
	return dirs
}

// SetDefaults registers the built-in values with v and wires environment
// overrides.
func SetDefaults(v *viper.Viper) error {
	def, err := Default()
	if err != nil {
		return err
	}

	v.SetDefault("data_dir", def.DataDir)
	v.SetDefault("db", def.DB)
	v.SetDefault("query_timeout", def.QueryTimeout)
	v.SetDefault("launch_count_supported", def.LaunchCountSupported)
	v.SetDefault("categories_supported", def.CategoriesSupported)
	v.SetDefault("settings_command", def.SettingsCommand)
	v.SetDefault("desktop_dirs", def.DesktopDirs)
	v.SetDefault("serve.addr", def.Serve.Addr)
	v.SetDefault("tui.interval", def.TUI.Interval)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.json", def.Log.JSON)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return nil
}

// Load reads the config file (if any) into v and decodes the result. An
// explicit path must exist; the default {Dir()}/config.yaml is optional.
func Load(v *viper.Viper, path string) (*Config, error) {
	if err := SetDefaults(v); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if dir, err := Dir(); err == nil {
		def := filepath.Join(dir, FileName)
		if _, err := os.Stat(def); err == nil {
			v.SetConfigFile(def)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", def, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.QueryTimeout < 0 {
		return nil, fmt.Errorf("query_timeout must not be negative, got %s", cfg.QueryTimeout)
	}
	return &cfg, nil
}

// WriteDefault writes the built-in configuration to path as YAML. It
// refuses to overwrite an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
		}
	}

	def, err := Default()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
