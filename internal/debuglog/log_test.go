package debuglog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, Close())
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func TestLevels(t *testing.T) {
	tests := []struct {
		input string
		level LogLevel
		name  string
		hc    hclog.Level
	}{
		{"debug", LevelDebug, "DEBUG", hclog.Debug},
		{"TRACE", LevelDebug, "DEBUG", hclog.Debug},
		{" info ", LevelInfo, "INFO", hclog.Info},
		{"warning", LevelWarn, "WARN", hclog.Warn},
		{"ERROR", LevelError, "ERROR", hclog.Error},
		{"off", LevelOff, "OFF", hclog.Off},
		{"loud", LevelInfo, "INFO", hclog.Info},
		{"", LevelInfo, "INFO", hclog.Info},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseLogLevel(tt.input)
			assert.Equal(t, tt.level, got)
			assert.Equal(t, tt.name, got.String())
			assert.Equal(t, tt.hc, got.hclog())
		})
	}
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestSetupFiltersByLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "reel.log")
	require.NoError(t, Setup(LevelInfo, logPath))
	assert.Equal(t, LevelInfo, GetLevel())

	Debugf("lookup gen=%d", 3)
	Infof("config reloaded from %s", "config.toml")
	Warnf("caching %d movies: disk full", 5)
	Errorf("catalog unavailable")

	content := readLog(t, logPath)
	assert.NotContains(t, content, "lookup gen=3")
	assert.Contains(t, content, "config reloaded from config.toml")
	assert.Contains(t, content, "caching 5 movies: disk full")
	assert.Contains(t, content, "catalog unavailable")
	assert.Contains(t, content, "reel:", "entries carry the logger name")
}

func TestSetupOffNeedsNoFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	require.NoError(t, Setup(LevelOff))
	assert.Equal(t, LevelOff, GetLevel())

	Errorf("dropped")
	WithFields(map[string]interface{}{"component": "tui"}).Warnf("dropped")

	_, err := os.Stat(filepath.Join(home, ".reel", "reel.log"))
	assert.True(t, os.IsNotExist(err), "no log file is created when logging is off")
}

func TestSetupDefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	require.NoError(t, Setup(LevelWarn))
	Warnf("deep link %q not recognised", "https://example.com")

	content := readLog(t, filepath.Join(home, ".reel", "reel.log"))
	assert.Contains(t, content, "not recognised")
}

func TestFieldLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "fields.log")
	require.NoError(t, Setup(LevelDebug, logPath))

	WithFields(map[string]interface{}{
		"component": "pipeline",
		"gen":       7,
	}).Debugf("lookup dropped")

	content := readLog(t, logPath)
	assert.Contains(t, content, "lookup dropped")
	assert.Contains(t, content, "component=pipeline")
	assert.Contains(t, content, "gen=7")
}

func TestSetLevelAndLogger(t *testing.T) {
	t.Cleanup(func() { _ = Setup(LevelOff) })

	SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, GetLevel())
	SetLevel(LevelError)
	assert.Equal(t, LevelError, GetLevel())

	require.NoError(t, Close())
	assert.NotNil(t, Logger(), "a closed logger is a null logger, never nil")
}
