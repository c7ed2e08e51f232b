// Package log is a small levelled logger shared by every component. The level
// is global and atomic so it can be changed at runtime; component loggers only
// add a prefix. None of these functions may be called from the audio callback.
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync/atomic"
)

// LogLevel defines the severity of a log message.
type LogLevel uint32

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// String returns the string representation of the LogLevel.
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
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string (case-insensitive) to a LogLevel.
// Returns LevelInfo and false if the string is not recognized.
func ParseLevel(levelStr string) (LogLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "FATAL":
		return LevelFatal, true
	default:
		return LevelInfo, false
	}
}

var (
	currentLevel atomic.Uint32
	output       atomic.Pointer[stdlog.Logger]
	exit         = os.Exit
)

func init() {
	SetLevel(LevelInfo)
	SetOutput(os.Stderr)
}

// SetLevel sets the global logging level.
func SetLevel(level LogLevel) {
	currentLevel.Store(uint32(level))
}

// GetLevel gets the current global logging level.
func GetLevel() LogLevel {
	return LogLevel(currentLevel.Load())
}

// SetOutput redirects every logger to w. Tests use it to capture output.
func SetOutput(w io.Writer) {
	output.Store(stdlog.New(w, "", stdlog.Ldate|stdlog.Ltime|stdlog.Lmicroseconds))
}

// Configure applies the configured level name. debug forces LevelDebug.
func Configure(levelName string, debug bool) error {
	if debug {
		SetLevel(LevelDebug)
		return nil
	}
	level, ok := ParseLevel(levelName)
	SetLevel(level)
	if !ok {
		return fmt.Errorf("unknown log level %q", levelName)
	}
	return nil
}

// Logger writes messages tagged with a component name.
type Logger struct {
	component string
}

// New returns a Logger whose messages are prefixed with "component:".
func New(component string) *Logger {
	return &Logger{component: component}
}

var std = &Logger{}

func (l *Logger) emit(level LogLevel, msg string) {
	if level < GetLevel() {
		return
	}
	// Keep the column layout of the level tags aligned.
	pad := ""
	if len(level.String()) == 4 {
		pad = " "
	}
	if l.component != "" {
		output.Load().Printf("[%s]%s %s: %s", level, pad, l.component, msg)
		return
	}
	output.Load().Printf("[%s]%s %s", level, pad, msg)
}

func (l *Logger) Debugf(format string, v ...any) {
	if LevelDebug >= GetLevel() {
		l.emit(LevelDebug, fmt.Sprintf(format, v...))
	}
}

func (l *Logger) Infof(format string, v ...any) {
	if LevelInfo >= GetLevel() {
		l.emit(LevelInfo, fmt.Sprintf(format, v...))
	}
}

func (l *Logger) Warnf(format string, v ...any) {
	if LevelWarn >= GetLevel() {
		l.emit(LevelWarn, fmt.Sprintf(format, v...))
	}
}

func (l *Logger) Errorf(format string, v ...any) {
	if LevelError >= GetLevel() {
		l.emit(LevelError, fmt.Sprintf(format, v...))
	}
}

// Fatalf always logs, regardless of level, then exits with status 1.
func (l *Logger) Fatalf(format string, v ...any) {
	l.emit(LevelFatal, fmt.Sprintf(format, v...))
	exit(1)
}

// Package level helpers write without a component prefix.

func Debugf(format string, v ...any) { std.Debugf(format, v...) }
func Infof(format string, v ...any)  { std.Infof(format, v...) }
func Warnf(format string, v ...any)  { std.Warnf(format, v...) }
func Errorf(format string, v ...any) { std.Errorf(format, v...) }
func Fatalf(format string, v ...any) { std.Fatalf(format, v...) }
