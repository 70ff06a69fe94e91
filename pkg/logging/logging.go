// pkg/logging/logging.go - timestamped session logging for AdminKit tools
//
// Each tool run gets its own session directory (YYYY-MM-DD-HHMMss) under the
// configured log path, holding a plain text log and a JSON lines event log.
// Old session directories are pruned by count and by age when a run starts.

package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/windowsadmins/adminkit/pkg/config"
)

// LogLevel represents the severity of the log message.
type LogLevel int

const (
	LevelError LogLevel = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// String returns the string representation of the LogLevel.
func (ll LogLevel) String() string {
	switch ll {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a configuration string to a LogLevel, defaulting to INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LevelError
	case "WARN", "WARNING":
		return LevelWarn
	case "DEBUG":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// LevelFromVerbosity maps -v counts onto a level above base.
func LevelFromVerbosity(base LogLevel, verbosity int) LogLevel {
	level := base + LogLevel(verbosity)
	if level > LevelDebug {
		return LevelDebug
	}
	return level
}

// LogEntry is one line of events.jsonl.
type LogEntry struct {
	Time       int64                  `json:"time"`
	Timestamp  string                 `json:"timestamp"`
	Level      string                 `json:"level"`
	Message    string                 `json:"message"`
	Component  string                 `json:"component"`
	PID        int                    `json:"pid"`
	Hostname   string                 `json:"hostname"`
	SessionID  string                 `json:"session_id"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// RetentionPolicy defines log retention rules
type RetentionPolicy struct {
	MaxRuns    int // Keep the newest N session directories
	MaxAgeDays int // Delete session directories older than this
}

// LoggerConfig holds configuration for the session logger
type LoggerConfig struct {
	BaseDir       string
	Component     string
	SessionID     string
	Level         LogLevel
	Retention     RetentionPolicy
	EnableConsole bool
	Console       io.Writer // defaults to os.Stderr
}

// Logger encapsulates session logging.
type Logger struct {
	mu        sync.Mutex
	out       io.Writer
	logLevel  LogLevel
	logFile   *os.File
	jsonFile  *os.File
	config    LoggerConfig
	logDir    string
	hostname  string
	sessionTS time.Time
}

const sessionDirLayout = "2006-01-02-150405"

var (
	instance = &Logger{out: os.Stderr, logLevel: LevelInfo}
	instMu   sync.Mutex
)

// Init starts a session logger for component from the tool configuration.
func Init(cfg *config.Configuration, component string, verbosity int) error {
	level := LevelFromVerbosity(ParseLevel(cfg.LogLevel), verbosity)
	if cfg.Debug {
		level = LevelDebug
	}
	return InitWithConfig(LoggerConfig{
		BaseDir:   cfg.LogPath,
		Component: component,
		Level:     level,
		Retention: RetentionPolicy{
			MaxRuns:    cfg.LogRetentionRuns,
			MaxAgeDays: cfg.LogRetentionDays,
		},
		EnableConsole: verbosity > 0 || cfg.Verbose,
	})
}

// InitWithConfig replaces the package logger with one built from logCfg.
func InitWithConfig(logCfg LoggerConfig) error {
	l, err := newLoggerWithConfig(logCfg)
	if err != nil {
		return err
	}
	instMu.Lock()
	old := instance
	instance = l
	instMu.Unlock()
	old.close()
	return nil
}

func generateSessionID(component string, start time.Time) string {
	return fmt.Sprintf("%s-%d-%s", component, start.Unix(), start.Format(sessionDirLayout))
}

func newLoggerWithConfig(cfg LoggerConfig) (*Logger, error) {
	start := time.Now()
	if cfg.Component == "" {
		cfg.Component = "adminkit"
	}
	if cfg.SessionID == "" {
		cfg.SessionID = generateSessionID(cfg.Component, start)
	}
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}

	l := &Logger{
		logLevel:  cfg.Level,
		config:    cfg,
		hostname:  hostname,
		sessionTS: start,
	}

	var writers []io.Writer
	if cfg.BaseDir != "" {
		if err := os.MkdirAll(cfg.BaseDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create base log directory: %w", err)
		}
		pruneSessions(cfg.BaseDir, cfg.Retention, start)

		l.logDir = filepath.Join(cfg.BaseDir, start.Format(sessionDirLayout))
		if err := os.MkdirAll(l.logDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create session log directory %s: %w", l.logDir, err)
		}
		var err error
		l.logFile, err = os.OpenFile(filepath.Join(l.logDir, cfg.Component+".log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open main log file: %w", err)
		}
		l.jsonFile, err = os.OpenFile(filepath.Join(l.logDir, "events.jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			l.logFile.Close()
			return nil, fmt.Errorf("failed to open JSON log file: %w", err)
		}
		writers = append(writers, l.logFile)
	}
	if cfg.EnableConsole || cfg.BaseDir == "" {
		writers = append(writers, l.consoleWriter())
	}
	l.out = io.MultiWriter(writers...)
	return l, nil
}

func (l *Logger) consoleWriter() io.Writer {
	if l.config.Console != nil {
		return l.config.Console
	}
	return os.Stderr
}

// pruneSessions removes session directories beyond MaxRuns or older than MaxAgeDays.
func pruneSessions(baseDir string, retention RetentionPolicy, now time.Time) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return
	}
	var sessions []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := time.ParseInLocation(sessionDirLayout, entry.Name(), time.Local); err == nil {
			sessions = append(sessions, entry.Name())
		}
	}
	// Newest first; the layout sorts chronologically.
	sort.Sort(sort.Reverse(sort.StringSlice(sessions)))

	for i, name := range sessions {
		expired := false
		if retention.MaxRuns > 0 && i >= retention.MaxRuns-1 {
			expired = true
		}
		if retention.MaxAgeDays > 0 {
			ts, _ := time.ParseInLocation(sessionDirLayout, name, time.Local)
			if now.Sub(ts) > time.Duration(retention.MaxAgeDays)*24*time.Hour {
				expired = true
			}
		}
		if expired {
			os.RemoveAll(filepath.Join(baseDir, name))
		}
	}
}

// close releases the session files. Later messages go to the console, if
// enabled, and are otherwise dropped.
func (l *Logger) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.logFile != nil {
		l.out = io.Discard
		if l.config.EnableConsole {
			l.out = l.consoleWriter()
		}
		l.logFile.Close()
		l.logFile = nil
	}
	if l.jsonFile != nil {
		l.jsonFile.Close()
		l.jsonFile = nil
	}
}

// CloseLogger closes the session log files.
func CloseLogger() {
	instMu.Lock()
	l := instance
	instMu.Unlock()
	l.close()
}

// CurrentLogDir returns the session directory, or "" when logging to console only.
func CurrentLogDir() string {
	instMu.Lock()
	defer instMu.Unlock()
	return instance.logDir
}

// SessionID returns the session identifier of the current logger.
func SessionID() string {
	instMu.Lock()
	defer instMu.Unlock()
	return instance.config.SessionID
}

func (l *Logger) logMessage(level LogLevel, message string, keyValues ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level > l.logLevel {
		return
	}
	now := time.Now()
	l.writeMainLog(now, level, message, keyValues)

	if l.jsonFile != nil {
		properties := make(map[string]interface{}, len(keyValues)/2)
		for i := 0; i+1 < len(keyValues); i += 2 {
			properties[fmt.Sprintf("%v", keyValues[i])] = jsonValue(keyValues[i+1])
		}
		entry := LogEntry{
			Time:       now.Unix(),
			Timestamp:  now.Format(time.RFC3339),
			Level:      level.String(),
			Message:    message,
			Component:  l.config.Component,
			PID:        os.Getpid(),
			Hostname:   l.hostname,
			SessionID:  l.config.SessionID,
			Properties: properties,
		}
		if data, err := json.Marshal(entry); err == nil {
			l.jsonFile.Write(append(data, '\n'))
		}
	}
}

// jsonValue keeps errors readable in events.jsonl.
func jsonValue(v interface{}) interface{} {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return v
}

// writeMainLog writes "[ts] LEVEL message k=v" lines.
func (l *Logger) writeMainLog(now time.Time, level LogLevel, message string, keyValues []interface{}) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %-5s %s", now.Format("2006-01-02 15:04:05"), level, message)
	for i := 0; i+1 < len(keyValues); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keyValues[i], keyValues[i+1])
	}
	if len(keyValues)%2 == 1 {
		fmt.Fprintf(&b, " %v", keyValues[len(keyValues)-1])
	}
	b.WriteByte('\n')
	io.WriteString(l.out, b.String())
}

func current() *Logger {
	instMu.Lock()
	defer instMu.Unlock()
	return instance
}

// Info logs informational messages.
func Info(message string, keyValues ...interface{}) {
	current().logMessage(LevelInfo, message, keyValues...)
}

// Debug logs debug messages.
func Debug(message string, keyValues ...interface{}) {
	current().logMessage(LevelDebug, message, keyValues...)
}

// Warn logs warning messages.
func Warn(message string, keyValues ...interface{}) {
	current().logMessage(LevelWarn, message, keyValues...)
}

// Error logs error messages.
func Error(message string, keyValues ...interface{}) {
	current().logMessage(LevelError, message, keyValues...)
}
