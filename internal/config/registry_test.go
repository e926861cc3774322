package config

import (
	"sort"
	"strings"
	"testing"
)

func TestValidKeyNames_Sorted(t *testing.T) {
	names := ValidKeyNames()
	if len(names) == 0 {
		t.Fatal("expected non-empty key list")
	}
	if !sort.StringsAreSorted(names) {
		t.Fatalf("expected sorted key names, got %v", names)
	}
}

func TestValidKeyNames_ContainsKnownKeys(t *testing.T) {
	expected := []string{"user.name", "habit.timezone", "server.addr", "server.token_secret", "server.token_ttl", "log.debug"}
	nameSet := make(map[string]bool)
	for _, n := range ValidKeyNames() {
		nameSet[n] = true
	}
	for _, want := range expected {
		if !nameSet[want] {
			t.Errorf("ValidKeyNames missing expected key %q", want)
		}
	}
}

func TestLookupKey_Unknown(t *testing.T) {
	if _, ok := LookupKey("not.a.real.key"); ok {
		t.Fatal("expected unknown key to return false")
	}
}

func TestParseBoolValue(t *testing.T) {
	for _, v := range []string{"true", "1", "yes", "on", "TRUE", "On"} {
		if b, err := ParseBoolValue(v); err != nil || !b {
			t.Errorf("ParseBoolValue(%q) = %v, %v; want true", v, b, err)
		}
	}
	for _, v := range []string{"false", "0", "no", "off", "NO"} {
		if b, err := ParseBoolValue(v); err != nil || b {
			t.Errorf("ParseBoolValue(%q) = %v, %v; want false", v, b, err)
		}
	}
	for _, v := range []string{"maybe", "", "2"} {
		if _, err := ParseBoolValue(v); err == nil {
			t.Errorf("ParseBoolValue(%q): expected error", v)
		}
	}
}

func TestSetGetUnset_Timezone(t *testing.T) {
	cfg := defaultConfig()
	entry, _ := LookupKey("habit.timezone")

	if err := entry.Set(cfg, "America/New_York"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := entry.Get(cfg); got != "America/New_York" {
		t.Fatalf("Get = %q", got)
	}
	if err := entry.Set(cfg, "Nowhere/Special"); err == nil {
		t.Fatal("expected error for unknown zone")
	}
	if got := entry.Get(cfg); got != "America/New_York" {
		t.Fatalf("failed Set must not change value, got %q", got)
	}

	entry.Unset(cfg)
	if got := entry.Get(cfg); got != "Local" {
		t.Fatalf("Unset: expected Local, got %q", got)
	}
}

func TestSet_TokenSecretTooShort(t *testing.T) {
	cfg := defaultConfig()
	entry, _ := LookupKey("server.token_secret")
	if !entry.Secret {
		t.Fatal("token secret should be marked secret")
	}
	if err := entry.Set(cfg, "short"); err == nil {
		t.Fatal("expected error for short secret")
	}
	if err := entry.Set(cfg, strings.Repeat("k", 32)); err != nil {
		t.Fatalf("Set: %v", err)
	}
}

func TestSet_TokenTTL(t *testing.T) {
	cfg := defaultConfig()
	entry, _ := LookupKey("server.token_ttl")
	if err := entry.Set(cfg, "48h"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := entry.Set(cfg, "0s"); err == nil {
		t.Fatal("expected error for zero ttl")
	}
	if err := entry.Set(cfg, "forever"); err == nil {
		t.Fatal("expected error for unparsable ttl")
	}
}

func TestSetGetUnset_LogDebug(t *testing.T) {
	cfg := defaultConfig()
	entry, _ := LookupKey("log.debug")
	if err := entry.Set(cfg, "yes"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := entry.Get(cfg); got != "true" {
		t.Fatalf("Get = %q", got)
	}
	if err := entry.Set(cfg, "notabool"); err == nil {
		t.Fatal("expected error for invalid bool value")
	}
	entry.Unset(cfg)
	if got := entry.Get(cfg); got != "false" {
		t.Fatalf("Unset: got %q", got)
	}
}

func TestAllSchemaKeys_GetSetUnsetDoNotPanic(t *testing.T) {
	cfg := defaultConfig()
	for key, entry := range SchemaKeys {
		_ = entry.Get(cfg)
		entry.Unset(cfg)
		_ = entry.Get(cfg)

		if entry.Type == KeyTypeString && !entry.Secret {
			if err := entry.Set(cfg, entry.DefaultStr); err != nil {
				t.Errorf("key %q: Set with default value %q failed: %v", key, entry.DefaultStr, err)
			}
		}
		if entry.Desc == "" {
			t.Errorf("key %q has no description", key)
		}
	}
}
