// Package logger provides leveled logging for the monitor.
package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Level represents a logging level.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// ParseLevel maps a level name to a Level, defaulting to InfoLevel.
func ParseLevel(name string) Level {
	switch strings.ToLower(name) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Logger provides leveled logging.
type Logger struct {
	level  Level
	logger *log.Logger
}

var defaultLogger *Logger

// Init initializes the default logger with the specified level and format.
// The "text" format adds caller locations for interactive debugging.
func Init(level string, format string) {
	flags := log.LstdFlags | log.Lmicroseconds
	if strings.ToLower(format) == "text" {
		flags |= log.Lshortfile
	}

	defaultLogger = &Logger{
		level:  ParseLevel(level),
		logger: log.New(os.Stderr, "", flags),
	}
}

func emit(level Level, tag, format string, args ...any) {
	if defaultLogger == nil || defaultLogger.level > level {
		return
	}
	msg := fmt.Sprintf(tag+format, args...)
	_ = defaultLogger.logger.Output(3, msg)
}

func Debug(format string, args ...any) {
	emit(DebugLevel, "[DEBUG] ", format, args...)
}

func Info(format string, args ...any) {
	emit(InfoLevel, "[INFO] ", format, args...)
}

func Warn(format string, args ...any) {
	emit(WarnLevel, "[WARN] ", format, args...)
}

func Error(format string, args ...any) {
	emit(ErrorLevel, "[ERROR] ", format, args...)
}

func Fatal(format string, args ...any) {
	msg := fmt.Sprintf("[FATAL] "+format, args...)
	if defaultLogger != nil {
		_ = defaultLogger.logger.Output(2, msg)
	}
	os.Exit(1)
}
