package config

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// KeyType represents the data type of a config key.
type KeyType string

const (
	KeyTypeString   KeyType = "string"
	KeyTypeBool     KeyType = "bool"
	KeyTypeDuration KeyType = "duration"
)

// KeyEntry describes a known, settable config key.
type KeyEntry struct {
	// Type is the value's data type.
	Type KeyType
	// Desc is a human-readable description shown by `habit config`.
	Desc string
	// DefaultStr is the string representation of the default value.
	DefaultStr string
	// Secret keys are masked when printed.
	Secret bool

	get   func(*Config) string
	set   func(cfg *Config, value string) error
	unset func(cfg *Config)
}

// Get returns the current value of the key as a string.
func (e *KeyEntry) Get(cfg *Config) string { return e.get(cfg) }

// Set validates and sets the value, returning a descriptive error on type mismatch.
func (e *KeyEntry) Set(cfg *Config, value string) error { return e.set(cfg, value) }

// Unset resets the key to its schema default.
func (e *KeyEntry) Unset(cfg *Config) { e.unset(cfg) }

// SchemaKeys is the authoritative registry of all settable config keys.
// Keys use dot-notation matching the TOML section structure.
var SchemaKeys = map[string]*KeyEntry{
	"user.name": {
		Type:       KeyTypeString,
		Desc:       "Display name",
		DefaultStr: "",
		get:        func(cfg *Config) string { return cfg.User.Name },
		set:        func(cfg *Config, v string) error { cfg.User.Name = v; return nil },
		unset:      func(cfg *Config) { cfg.User.Name = "" },
	},
	"habit.timezone": {
		Type:       KeyTypeString,
		Desc:       "IANA zone used to decide what \"today\" is (or Local)",
		DefaultStr: "Local",
		get:        func(cfg *Config) string { return cfg.Habit.Timezone },
		set: func(cfg *Config, v string) error {
			probe := Config{Habit: HabitConfig{Timezone: v}}
			if _, err := probe.Location(); err != nil {
				return err
			}
			cfg.Habit.Timezone = v
			return nil
		},
		unset: func(cfg *Config) { cfg.Habit.Timezone = "Local" },
	},
	"server.addr": {
		Type:       KeyTypeString,
		Desc:       "Listen address for `habit serve`",
		DefaultStr: DefaultAddr,
		get:        func(cfg *Config) string { return cfg.Server.Addr },
		set:        func(cfg *Config, v string) error { cfg.Server.Addr = v; return nil },
		unset:      func(cfg *Config) { cfg.Server.Addr = DefaultAddr },
	},
	"server.token_secret": {
		Type:       KeyTypeString,
		Desc:       "HMAC secret used to sign API tokens",
		DefaultStr: "",
		Secret:     true,
		get:        func(cfg *Config) string { return cfg.Server.TokenSecret },
		set: func(cfg *Config, v string) error {
			if len(v) < 32 {
				return fmt.Errorf("server.token_secret must be at least 32 characters")
			}
			cfg.Server.TokenSecret = v
			return nil
		},
		unset: func(cfg *Config) { cfg.Server.TokenSecret = "" },
	},
	"server.token_ttl": {
		Type:       KeyTypeDuration,
		Desc:       "Lifetime of tokens minted by `habit token` (e.g. 720h)",
		DefaultStr: DefaultTokenTTL.String(),
		get:        func(cfg *Config) string { return cfg.Server.TokenTTL },
		set: func(cfg *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid value %q for server.token_ttl: %w", v, err)
			}
			if d <= 0 {
				return fmt.Errorf("server.token_ttl must be positive")
			}
			cfg.Server.TokenTTL = v
			return nil
		},
		unset: func(cfg *Config) { cfg.Server.TokenTTL = "" },
	},
	"log.debug": {
		Type:       KeyTypeBool,
		Desc:       "Mirror debug logs to stderr",
		DefaultStr: "false",
		get:        func(cfg *Config) string { return fmt.Sprintf("%t", cfg.Log.Debug) },
		set: func(cfg *Config, v string) error {
			b, err := ParseBoolValue(v)
			if err != nil {
				return fmt.Errorf("invalid value %q for log.debug: %w", v, err)
			}
			cfg.Log.Debug = b
			return nil
		},
		unset: func(cfg *Config) { cfg.Log.Debug = false },
	},
}

// ValidKeyNames returns the sorted list of all known config key names.
func ValidKeyNames() []string {
	names := make([]string, 0, len(SchemaKeys))
	for k := range SchemaKeys {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// LookupKey returns the KeyEntry for a known config key.
func LookupKey(key string) (*KeyEntry, bool) {
	entry, ok := SchemaKeys[key]
	return entry, ok
}

// ParseBoolValue accepts common boolean string representations.
// Valid truthy values: true, 1, yes, on.
// Valid falsy values: false, 0, no, off.
func ParseBoolValue(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("not a boolean: %q (use one of: true/false, 1/0, yes/no, on/off)", s)
	}
}
