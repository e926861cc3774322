package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/rnwolfe/habit/internal/config"
	"github.com/rnwolfe/habit/internal/ui"
	"github.com/stretchr/testify/require"
)

const testUserID = "0b7c5a3e-3f7d-4a55-9d6c-1f9f3b2c8e10"

// testNow is mid-afternoon on 2026-02-25 UTC.
var testNow = time.Date(2026, 2, 25, 15, 0, 0, 0, time.UTC)

// cmdTestEnv isolates XDG dirs, writes an initialized config and pins the
// clock to testNow.
func cmdTestEnv(t *testing.T) *config.Config {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir+"/config")
	t.Setenv("XDG_DATA_HOME", tmpDir+"/data")
	t.Setenv("XDG_CACHE_HOME", tmpDir+"/cache")
	t.Setenv("XDG_STATE_HOME", tmpDir+"/state")
	t.Setenv("HABIT_ADDR", "")
	t.Setenv("HABIT_TOKEN_SECRET", "")
	t.Setenv("HABIT_TOKEN_TTL", "")
	t.Setenv("HABIT_DEBUG", "")

	cfg := &config.Config{
		User:   config.UserConfig{Name: "Ada", ID: testUserID},
		Habit:  config.HabitConfig{Timezone: "UTC"},
		Server: config.ServerConfig{Addr: config.DefaultAddr, TokenSecret: "0123456789abcdef0123456789abcdef"},
	}
	require.NoError(t, config.Save(cfg))

	setNow(t, testNow)
	resetFlags(t)
	return cfg
}

func setNow(t *testing.T, now time.Time) {
	t.Helper()
	orig := nowFunc
	nowFunc = func() time.Time { return now }
	t.Cleanup(func() { nowFunc = orig })
}

// resetFlags clears package-level flag values between tests.
func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		listAll, listJSON, rmForce = false, false, false
		doneDate, undoDate = "", ""
		streakJSON, logLimit = false, 30
		todayPlain = false
		exportFile, importFile = "", ""
		tokenQuiet = false
		versionShort, versionJSON = false, false
	})
}

// captureOutput redirects ui output into a buffer while fn runs.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	var buf bytes.Buffer
	orig := ui.Out
	ui.Out = &buf
	defer func() { ui.Out = orig }()
	fn()
	return buf.String()
}

// mustRun runs a command function with captured output and fails on error.
func mustRun(t *testing.T, fn func() error) string {
	t.Helper()
	var err error
	out := captureOutput(t, func() { err = fn() })
	require.NoError(t, err, out)
	return out
}
