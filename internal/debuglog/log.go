package debuglog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelOff // Disables all logging
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel parses a string into a LogLevel. Unknown input maps to INFO.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG", "TRACE":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "OFF":
		return LevelOff
	default:
		return LevelInfo
	}
}

func (l LogLevel) hclog() hclog.Level {
	switch l {
	case LevelDebug:
		return hclog.Debug
	case LevelInfo:
		return hclog.Info
	case LevelWarn:
		return hclog.Warn
	case LevelError:
		return hclog.Error
	default:
		return hclog.Off
	}
}

var (
	mu           sync.RWMutex
	currentLevel = LevelOff
	logger       hclog.Logger = hclog.NewNullLogger()
	logFile      *os.File
)

// Setup configures the logging system with the specified level and optional file path.
// If filePath is empty, defaults to ~/.reel/reel.log.
func Setup(level LogLevel, filePath ...string) error {
	mu.Lock()
	defer mu.Unlock()

	currentLevel = level
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	if level == LevelOff {
		logger = hclog.NewNullLogger()
		return nil
	}

	var logPath string
	if len(filePath) > 0 && filePath[0] != "" {
		logPath = filePath[0]
	} else {
		home, _ := os.UserHomeDir()
		logPath = filepath.Join(home, ".reel", "reel.log")
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}

	logFile = f
	logger = hclog.New(&hclog.LoggerOptions{
		Name:       "reel",
		Level:      level.hclog(),
		Output:     f,
		TimeFormat: "2006-01-02 15:04:05.000000",
		Color:      hclog.ColorOff,
	})
	return nil
}

// SetLevel changes the current logging level
func SetLevel(level LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	currentLevel = level
	logger.SetLevel(level.hclog())
}

// GetLevel returns the current logging level
func GetLevel() LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return currentLevel
}

// Logger exposes the underlying hclog logger for components that want
// key/value logging directly.
func Logger() hclog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Close closes the log file if open
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	logger = hclog.NewNullLogger()
	if logFile != nil {
		err := logFile.Close()
		logFile = nil
		return err
	}
	return nil
}

func logf(level LogLevel, kv []interface{}, format string, args ...any) {
	mu.RLock()
	l, lvl := logger, currentLevel
	mu.RUnlock()

	if level < lvl {
		return
	}

	message := fmt.Sprintf(format, args...)
	switch level {
	case LevelDebug:
		l.Debug(message, kv...)
	case LevelInfo:
		l.Info(message, kv...)
	case LevelWarn:
		l.Warn(message, kv...)
	case LevelError:
		l.Error(message, kv...)
	}
}

func Debugf(format string, args ...any) {
	logf(LevelDebug, nil, format, args...)
}

func Infof(format string, args ...any) {
	logf(LevelInfo, nil, format, args...)
}

func Warnf(format string, args ...any) {
	logf(LevelWarn, nil, format, args...)
}

func Errorf(format string, args ...any) {
	logf(LevelError, nil, format, args...)
}

// FieldLogger attaches key/value fields to every message.
type FieldLogger struct {
	kv []interface{}
}

// WithFields returns a new logger with the specified fields
func WithFields(fields map[string]interface{}) *FieldLogger {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kv := make([]interface{}, 0, len(fields)*2)
	for _, k := range keys {
		kv = append(kv, k, fields[k])
	}
	return &FieldLogger{kv: kv}
}

func (fl *FieldLogger) Debugf(format string, args ...any) {
	logf(LevelDebug, fl.kv, format, args...)
}

func (fl *FieldLogger) Infof(format string, args ...any) {
	logf(LevelInfo, fl.kv, format, args...)
}

func (fl *FieldLogger) Warnf(format string, args ...any) {
	logf(LevelWarn, fl.kv, format, args...)
}

func (fl *FieldLogger) Errorf(format string, args ...any) {
	logf(LevelError, fl.kv, format, args...)
}
