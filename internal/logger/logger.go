// Package logger provides leveled logging with support for debug, info, warn, and error levels.
// Text output wraps the standard log package; JSON output writes one object per line.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// Level represents a logging level
type Level int

const (
	// DebugLevel logs are typically voluminous, and are usually disabled in production.
	DebugLevel Level = iota
	// InfoLevel is the default logging priority.
	InfoLevel
	// WarnLevel logs are more important than Info, but don't need individual human review.
	WarnLevel
	// ErrorLevel logs are high-priority. If an application is running smoothly, it shouldn't generate any error-level logs.
	ErrorLevel
)

var levelNames = map[Level]string{
	DebugLevel: "debug",
	InfoLevel:  "info",
	WarnLevel:  "warn",
	ErrorLevel: "error",
}

// ParseLevel maps a config level name to a Level. Unknown names are InfoLevel.
func ParseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Logger provides leveled logging
type Logger struct {
	mu     sync.Mutex
	level  Level
	json   bool
	out    io.Writer
	logger *log.Logger
}

type entry struct {
	Time  string `json:"time"`
	Level string `json:"level"`
	Msg   string `json:"msg"`
}

var (
	// Global logger instance
	defaultLogger *Logger
)

// Init initializes the default logger with the specified level and format
func Init(level string, format string) {
	defaultLogger = newLogger(ParseLevel(level), format, os.Stderr)
}

// SetOutput redirects the default logger, initializing it at debug level when
// Init has not been called.
func SetOutput(w io.Writer) {
	if defaultLogger == nil {
		defaultLogger = newLogger(DebugLevel, "text", w)
		return
	}
	defaultLogger = newLogger(defaultLogger.level, formatName(defaultLogger.json), w)
}

func formatName(isJSON bool) string {
	if isJSON {
		return "json"
	}
	return "text"
}

func newLogger(l Level, format string, w io.Writer) *Logger {
	isJSON := strings.ToLower(format) == "json"

	// Set log flags based on format
	flags := log.LstdFlags | log.Lmicroseconds
	if !isJSON {
		flags |= log.Lshortfile
	}

	return &Logger{
		level:  l,
		json:   isJSON,
		out:    w,
		logger: log.New(w, "", flags),
	}
}

func (l *Logger) output(lv Level, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if l.json {
		line, err := json.Marshal(entry{
			Time:  time.Now().UTC().Format(time.RFC3339Nano),
			Level: levelNames[lv],
			Msg:   msg,
		})
		if err != nil {
			return
		}
		l.mu.Lock()
		_, _ = l.out.Write(append(line, '\n'))
		l.mu.Unlock()
		return
	}
	_ = l.logger.Output(3, "["+strings.ToUpper(levelNames[lv])+"] "+msg)
}

// Debug logs a message at DebugLevel
func Debug(format string, args ...interface{}) {
	if defaultLogger != nil && defaultLogger.level <= DebugLevel {
		defaultLogger.output(DebugLevel, format, args...)
	}
}

// Info logs a message at InfoLevel
func Info(format string, args ...interface{}) {
	if defaultLogger != nil && defaultLogger.level <= InfoLevel {
		defaultLogger.output(InfoLevel, format, args...)
	}
}

// Warn logs a message at WarnLevel
func Warn(format string, args ...interface{}) {
	if defaultLogger != nil && defaultLogger.level <= WarnLevel {
		defaultLogger.output(WarnLevel, format, args...)
	}
}

// Error logs a message at ErrorLevel
func Error(format string, args ...interface{}) {
	if defaultLogger != nil && defaultLogger.level <= ErrorLevel {
		defaultLogger.output(ErrorLevel, format, args...)
	}
}

// Fatal logs a message at ErrorLevel and exits
func Fatal(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.output(ErrorLevel, "[FATAL] "+format, args...)
	} else {
		log.Printf("[FATAL] "+format, args...)
	}
	os.Exit(1)
}
