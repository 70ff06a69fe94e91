package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windowsadmins/adminkit/pkg/config"
)

func useLogger(t *testing.T, cfg LoggerConfig) {
	t.Helper()
	require.NoError(t, InitWithConfig(cfg))
	t.Cleanup(resetLogger)
}

func resetLogger() {
	instMu.Lock()
	old := instance
	instance = &Logger{out: os.Stderr, logLevel: LevelInfo}
	instMu.Unlock()
	old.close()
}

func TestSessionFiles(t *testing.T) {
	base := t.TempDir()
	var console bytes.Buffer
	useLogger(t, LoggerConfig{
		BaseDir:       base,
		Component:     "servicesbylicense",
		Level:         LevelInfo,
		EnableConsole: true,
		Console:       &console,
	})

	Info("Built comparison matrix", "rows", 2, "columns", 1)
	Debug("hidden at INFO")
	Warn("Attempt failed", "error", os.ErrNotExist)
	CloseLogger()

	dir := CurrentLogDir()
	require.NotEmpty(t, dir)
	assert.Equal(t, base, filepath.Dir(dir))
	assert.True(t, strings.HasPrefix(SessionID(), "servicesbylicense-"))

	text, err := os.ReadFile(filepath.Join(dir, "servicesbylicense.log"))
	require.NoError(t, err)
	assert.Contains(t, string(text), "INFO  Built comparison matrix rows=2 columns=1")
	assert.Contains(t, string(text), "WARN  Attempt failed error=file does not exist")
	assert.NotContains(t, string(text), "hidden at INFO")
	assert.Equal(t, string(text), console.String())

	f, err := os.Open(filepath.Join(dir, "events.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	var entries []LogEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e LogEntry
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		entries = append(entries, e)
	}
	require.Len(t, entries, 2)
	assert.Equal(t, "INFO", entries[0].Level)
	assert.Equal(t, "servicesbylicense", entries[0].Component)
	assert.EqualValues(t, 2, entries[0].Properties["rows"])
	assert.Equal(t, "file does not exist", entries[1].Properties["error"])
}

func TestLoggingAfterClose(t *testing.T) {
	var console bytes.Buffer
	useLogger(t, LoggerConfig{
		BaseDir:       t.TempDir(),
		Component:     "registerapp",
		Level:         LevelInfo,
		EnableConsole: true,
		Console:       &console,
	})

	Info("before close")
	CloseLogger()
	Info("after close")

	text, err := os.ReadFile(filepath.Join(CurrentLogDir(), "registerapp.log"))
	require.NoError(t, err)
	assert.Contains(t, string(text), "before close")
	assert.NotContains(t, string(text), "after close")
	assert.Contains(t, console.String(), "INFO  after close")
}

func TestLoggingAfterCloseWithoutConsole(t *testing.T) {
	useLogger(t, LoggerConfig{BaseDir: t.TempDir(), Component: "sysinfo", Level: LevelInfo})
	CloseLogger()

	assert.NotPanics(t, func() { Warn("dropped") })
	assert.Equal(t, io.Discard, current().out)
}

func TestConsoleOnlyLogger(t *testing.T) {
	var console bytes.Buffer
	useLogger(t, LoggerConfig{Component: "sysinfo", Level: LevelDebug, Console: &console})

	Debug("collecting", "section", "disks")
	Error("failed")

	assert.Empty(t, CurrentLogDir())
	assert.Contains(t, console.String(), "DEBUG collecting section=disks")
	assert.Contains(t, console.String(), "ERROR failed")
}

func TestInitFromConfiguration(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.LogPath = t.TempDir()
	cfg.LogLevel = "warn"
	require.NoError(t, Init(cfg, "appinventory", 1))
	t.Cleanup(resetLogger)

	l := current()
	assert.Equal(t, LevelInfo, l.logLevel)
	assert.FileExists(t, filepath.Join(CurrentLogDir(), "appinventory.log"))
}

func TestPruneSessions(t *testing.T) {
	base := t.TempDir()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
	mk := func(ts time.Time) string {
		name := ts.Format(sessionDirLayout)
		require.NoError(t, os.Mkdir(filepath.Join(base, name), 0755))
		return name
	}
	newest := mk(now.Add(-time.Hour))
	second := mk(now.Add(-2 * time.Hour))
	third := mk(now.Add(-3 * time.Hour))
	ancient := mk(now.Add(-40 * 24 * time.Hour))
	require.NoError(t, os.Mkdir(filepath.Join(base, "not-a-session"), 0755))

	pruneSessions(base, RetentionPolicy{MaxRuns: 3, MaxAgeDays: 30}, now)

	assert.DirExists(t, filepath.Join(base, newest))
	assert.DirExists(t, filepath.Join(base, second))
	assert.NoDirExists(t, filepath.Join(base, third))
	assert.NoDirExists(t, filepath.Join(base, ancient))
	assert.DirExists(t, filepath.Join(base, "not-a-session"))
}

func TestPruneSessionsByAgeOnly(t *testing.T) {
	base := t.TempDir()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
	recent := now.Add(-24 * time.Hour).Format(sessionDirLayout)
	old := now.Add(-10 * 24 * time.Hour).Format(sessionDirLayout)
	require.NoError(t, os.Mkdir(filepath.Join(base, recent), 0755))
	require.NoError(t, os.Mkdir(filepath.Join(base, old), 0755))

	pruneSessions(base, RetentionPolicy{MaxAgeDays: 7}, now)

	assert.DirExists(t, filepath.Join(base, recent))
	assert.NoDirExists(t, filepath.Join(base, old))
}

func TestLevels(t *testing.T) {
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelDebug, ParseLevel(" debug "))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
	assert.Equal(t, LevelError, ParseLevel("ERROR"))

	assert.Equal(t, LevelInfo, LevelFromVerbosity(LevelWarn, 1))
	assert.Equal(t, LevelDebug, LevelFromVerbosity(LevelInfo, 5))
	assert.Equal(t, "WARN", LevelWarn.String())
}
