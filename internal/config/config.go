package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // habit.timezone must resolve on hosts without zoneinfo

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
)

// DefaultAddr is where `habit serve` listens when nothing else is configured.
const DefaultAddr = "127.0.0.1:7420"

// DefaultTokenTTL is the lifetime of tokens minted by `habit token`.
const DefaultTokenTTL = 30 * 24 * time.Hour

// Config holds the top-level habit configuration.
type Config struct {
	User   UserConfig   `toml:"user"`
	Habit  HabitConfig  `toml:"habit"`
	Server ServerConfig `toml:"server"`
	Log    LogConfig    `toml:"log"`
}

// UserConfig identifies the local owner of every habit the CLI touches.
type UserConfig struct {
	Name string `toml:"name"`
	// ID is generated once by `habit init` and never changes.
	ID string `toml:"id"`
}

// HabitConfig controls how "today" is determined.
type HabitConfig struct {
	// Timezone is an IANA zone name or "Local". Every surface projects the
	// current instant to a day key in this zone; stored days are never
	// reprojected.
	Timezone string `toml:"timezone"`
}

// ServerConfig configures `habit serve`. Environment variables override
// file values, see ApplyEnv.
type ServerConfig struct {
	Addr        string `toml:"addr" env:"HABIT_ADDR"`
	TokenSecret string `toml:"token_secret" env:"HABIT_TOKEN_SECRET"`
	TokenTTL    string `toml:"token_ttl" env:"HABIT_TOKEN_TTL"`
}

// LogConfig controls the rotating log file.
type LogConfig struct {
	Debug bool `toml:"debug" env:"HABIT_DEBUG"`
}

// Paths returns standard XDG-compliant paths.
type Paths struct {
	ConfigDir  string
	DataDir    string
	CacheDir   string
	StateDir   string
	ConfigFile string
	DBFile     string
	LogFile    string
}

// GetPaths returns the resolved paths, respecting XDG env vars.
func GetPaths() Paths {
	home, _ := os.UserHomeDir()

	configDir := envOr("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	dataDir := envOr("XDG_DATA_HOME", filepath.Join(home, ".local", "share"))
	cacheDir := envOr("XDG_CACHE_HOME", filepath.Join(home, ".cache"))
	stateDir := envOr("XDG_STATE_HOME", filepath.Join(home, ".local", "state"))

	habitConfig := filepath.Join(configDir, "habit")
	habitData := filepath.Join(dataDir, "habit")
	habitState := filepath.Join(stateDir, "habit")

	return Paths{
		ConfigDir:  habitConfig,
		DataDir:    habitData,
		CacheDir:   filepath.Join(cacheDir, "habit"),
		StateDir:   habitState,
		ConfigFile: filepath.Join(habitConfig, "config.toml"),
		DBFile:     filepath.Join(habitData, "habit.db"),
		LogFile:    filepath.Join(habitState, "habit.log"),
	}
}

// EnsureDirs creates all required directories.
func (p Paths) EnsureDirs() error {
	dirs := []string{p.ConfigDir, p.DataDir, p.CacheDir, p.StateDir}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// Load reads config from disk, returning defaults if not found.
func Load() (*Config, error) {
	paths := GetPaths()
	cfg := defaultConfig()

	data, err := os.ReadFile(paths.ConfigFile)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", paths.ConfigFile, err)
	}
	return cfg, nil
}

// Save writes config to disk.
func Save(cfg *Config) error {
	paths := GetPaths()
	if err := paths.EnsureDirs(); err != nil {
		return err
	}

	f, err := os.OpenFile(paths.ConfigFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Initialized returns true if habit has been set up.
func Initialized() bool {
	paths := GetPaths()
	_, err := os.Stat(paths.ConfigFile)
	return err == nil
}

// ApplyEnv overlays HABIT_* environment variables onto cfg. Unset variables
// leave the file values alone.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(&c.Server); err != nil {
		return fmt.Errorf("parse server env: %w", err)
	}
	if err := env.Parse(&c.Log); err != nil {
		return fmt.Errorf("parse log env: %w", err)
	}
	return nil
}

// Location resolves Habit.Timezone. An empty value or "Local" is time.Local.
func (c *Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Habit.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid habit.timezone %q: %w", name, err)
	}
	return loc, nil
}

// TokenTTL parses Server.TokenTTL, falling back to DefaultTokenTTL.
func (c *Config) TokenTTL() (time.Duration, error) {
	if strings.TrimSpace(c.Server.TokenTTL) == "" {
		return DefaultTokenTTL, nil
	}
	d, err := time.ParseDuration(c.Server.TokenTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid server.token_ttl %q: %w", c.Server.TokenTTL, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("server.token_ttl must be positive, got %s", d)
	}
	return d, nil
}

// EnsureUserID assigns a fresh user ID when none is set. It reports whether
// cfg was changed.
func (c *Config) EnsureUserID() bool {
	if c.User.ID != "" {
		return false
	}
	c.User.ID = uuid.NewString()
	return true
}

func defaultConfig() *Config {
	return &Config{
		Habit: HabitConfig{
			Timezone: "Local",
		},
		Server: ServerConfig{
			Addr: DefaultAddr,
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
