package cmdio

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelSuccess
	LevelWarning
	LevelError
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelSuccess:
		return "SUCCESS"
	case LevelWarning:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a level name (case-insensitive) to a LogLevel
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "SUCCESS":
		return LevelSuccess, nil
	case "WARN", "WARNING":
		return LevelWarning, nil
	case "ERROR":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// LogFormat defines the output format for log messages
type LogFormat int

const (
	LogFormatSymbols LogFormat = iota // ● ◆ ✓ ▲ ✗
	LogFormatTagged                   // [DEBUG] [INFO] [SUCCESS] [WARN] [ERROR]
	LogFormatPlain                    // No prefix
)

var levelColors = map[LogLevel]color.Attribute{
	LevelDebug:   color.FgMagenta,
	LevelInfo:    color.FgBlue,
	LevelSuccess: color.FgGreen,
	LevelWarning: color.FgYellow,
	LevelError:   color.FgRed,
}

func symbolPrefixes() map[LogLevel]string {
	return map[LogLevel]string{
		LevelDebug:   "●",
		LevelInfo:    "◆",
		LevelSuccess: "✓",
		LevelWarning: "▲",
		LevelError:   "✗",
	}
}

func taggedPrefixes() map[LogLevel]string {
	return map[LogLevel]string{
		LevelDebug:   "[DEBUG]",
		LevelInfo:    "[INFO]",
		LevelSuccess: "[SUCCESS]",
		LevelWarning: "[WARN]",
		LevelError:   "[ERROR]",
	}
}

// Logger provides leveled logging with customizable formatting
type Logger struct {
	mu           sync.Mutex
	io           *IOManager
	format       LogFormat
	prefixes     map[LogLevel]string
	level        LogLevel
	withTime     bool
	timeFormat   string
	errorsStderr bool
	tee          io.Writer
}

// NewLogger creates a new logger bound to the given IOManager. Debug
// messages are filtered until WithLevel lowers the threshold.
func NewLogger(m *IOManager) *Logger {
	return &Logger{
		io:           m,
		format:       LogFormatSymbols,
		prefixes:     symbolPrefixes(),
		level:        LevelInfo,
		timeFormat:   "15:04:05",
		errorsStderr: true,
	}
}

// WithFormat sets the log format and returns the logger for chaining
func (l *Logger) WithFormat(format LogFormat) *Logger {
	l.format = format
	switch format {
	case LogFormatSymbols:
		l.prefixes = symbolPrefixes()
	case LogFormatTagged:
		l.prefixes = taggedPrefixes()
	case LogFormatPlain:
		l.prefixes = make(map[LogLevel]string)
	}
	return l
}

// WithLevel sets the minimum level that is written
func (l *Logger) WithLevel(level LogLevel) *Logger {
	l.level = level
	return l
}

// WithTimestamp enables or disables timestamp in log output
func (l *Logger) WithTimestamp(enabled bool) *Logger {
	l.withTime = enabled
	return l
}

// WithTimeFormat sets the time format (Go time format string)
func (l *Logger) WithTimeFormat(format string) *Logger {
	l.timeFormat = format
	return l
}

// ErrorsToStderr controls whether errors and warnings go to stderr
func (l *Logger) ErrorsToStderr(enabled bool) *Logger {
	l.errorsStderr = enabled
	return l
}

// WithTee copies every written line, uncolored and timestamped, to w (for
// example a rotating log file)
func (l *Logger) WithTee(w io.Writer) *Logger {
	l.tee = w
	return l
}

// Enabled reports whether messages at level are written
func (l *Logger) Enabled(level LogLevel) bool {
	return level >= l.level
}

// Log outputs a log message at the specified level
func (l *Logger) Log(level LogLevel, format string, args ...any) {
	if !l.Enabled(level) {
		return
	}
	msg := fmt.Sprintf(format, args...)

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.selectWriter(level), l.formatMessage(level, msg))
	if l.tee != nil {
		fmt.Fprintf(l.tee, "%s %-7s %s\n", time.Now().Format(time.RFC3339), level, msg)
	}
}

// formatMessage formats the log message according to the configured format
func (l *Logger) formatMessage(level LogLevel, msg string) string {
	if strings.TrimSpace(msg) == "" {
		return msg
	}

	parts := make([]string, 0, 3)
	if prefix := l.prefixes[level]; prefix != "" {
		parts = append(parts, prefix)
	}
	if l.withTime {
		parts = append(parts, "["+time.Now().Format(l.timeFormat)+"]")
	}
	parts = append(parts, msg)
	return l.io.Colorize(strings.Join(parts, " "), levelColors[level])
}

// selectWriter chooses stdout or stderr based on log level and configuration
func (l *Logger) selectWriter(level LogLevel) io.Writer {
	if l.errorsStderr && (level == LevelError || level == LevelWarning) {
		return l.io.Err()
	}
	return l.io.Out()
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...any) {
	l.Log(LevelDebug, format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...any) {
	l.Log(LevelInfo, format, args...)
}

// Success logs a success message
func (l *Logger) Success(format string, args ...any) {
	l.Log(LevelSuccess, format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...any) {
	l.Log(LevelWarning, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...any) {
	l.Log(LevelError, format, args...)
}
