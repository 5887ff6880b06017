// Package logger provides leveled logging for the pipeline.
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

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
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

var (
	minLevel = InfoLevel
	std      = log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)
)

// Init configures the default logger from config values. The text format
// additionally records call sites.
func Init(level string, format string) {
	minLevel = ParseLevel(level)
	flags := log.LstdFlags | log.Lmicroseconds
	if strings.ToLower(format) == "text" {
		flags |= log.Lshortfile
	}
	std = log.New(os.Stderr, "", flags)
}

func logf(level Level, tag, format string, args ...any) {
	if level < minLevel {
		return
	}
	_ = std.Output(3, fmt.Sprintf(tag+format, args...))
}

func Debug(format string, args ...any) { logf(DebugLevel, "[DEBUG] ", format, args...) }

func Info(format string, args ...any) { logf(InfoLevel, "[INFO] ", format, args...) }

func Warn(format string, args ...any) { logf(WarnLevel, "[WARN] ", format, args...) }

func Error(format string, args ...any) { logf(ErrorLevel, "[ERROR] ", format, args...) }

// Fatal logs unconditionally and exits the process.
func Fatal(format string, args ...any) {
	_ = std.Output(2, fmt.Sprintf("[FATAL] "+format, args...))
	os.Exit(1)
}
