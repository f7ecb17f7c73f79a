// Package common provides shared utilities for navsync
package common

import (
	"io"
	"os"

	"github.com/phuslu/log"
)

// Logger wraps log.Logger to provide a consistent interface
type Logger struct {
	log.Logger
}

func parseLevel(level string) log.Level {
	switch level {
	case "trace":
		return log.TraceLevel
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// NewLogger creates a console logger on stderr with the specified level
func NewLogger(level string) *Logger {
	return &Logger{Logger: log.Logger{
		Level:      parseLevel(level),
		TimeFormat: "15:04:05",
		Writer: &log.ConsoleWriter{
			ColorOutput:    true,
			QuoteString:    true,
			EndWithMessage: true,
			Writer:         os.Stderr,
		},
	}}
}

// NewLoggerWithOutput creates a JSON logger writing to a specific output
func NewLoggerWithOutput(level string, w io.Writer) *Logger {
	return &Logger{Logger: log.Logger{
		Level:  parseLevel(level),
		Writer: &log.IOWriter{Writer: w},
	}}
}

// NewLoggerFromConfig builds a logger from the [logging] section.
// Outputs may combine "console" and "file"; format "json" switches console output to JSON lines.
func NewLoggerFromConfig(cfg LoggingConfig) *Logger {
	var writers log.MultiEntryWriter
	for _, out := range cfg.Outputs {
		switch out {
		case "console":
			if cfg.Format == "json" {
				writers = append(writers, &log.IOWriter{Writer: os.Stderr})
			} else {
				writers = append(writers, &log.ConsoleWriter{
					ColorOutput:    true,
					QuoteString:    true,
					EndWithMessage: true,
					Writer:         os.Stderr,
				})
			}
		case "file":
			if cfg.FilePath == "" {
				continue
			}
			writers = append(writers, &log.FileWriter{
				Filename:     cfg.FilePath,
				MaxSize:      int64(cfg.MaxSizeMB) * 1024 * 1024,
				MaxBackups:   cfg.MaxBackups,
				EnsureFolder: true,
				LocalTime:    true,
			})
		}
	}

	if len(writers) == 0 {
		return NewLogger(cfg.Level)
	}

	return &Logger{Logger: log.Logger{
		Level:      parseLevel(cfg.Level),
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Writer:     &writers,
	}}
}

// NewDefaultLogger creates a logger with default settings
func NewDefaultLogger() *Logger {
	return NewLogger("info")
}

// NewSilentLogger creates a logger that discards all output
func NewSilentLogger() *Logger {
	return NewLoggerWithOutput("error", io.Discard)
}
