package logging

import (
	"io"
	"log/slog"
	"os"
)

type LoggingService struct {
	Logger *slog.Logger
	closer io.Closer
}

var DefaultLoggingService *LoggingService

// InitLogger initializes the global logger instance at info level.
// An empty logDir logs to the console only.
func InitLogger(logDir string) {
	InitLoggerWithLevel(logDir, slog.LevelInfo)
}

// InitLoggerWithLevel initializes the global logger with a console level.
// The file handler always records debug output.
func InitLoggerWithLevel(logDir string, consoleLevel slog.Level) {
	if DefaultLoggingService != nil && DefaultLoggingService.closer != nil {
		_ = DefaultLoggingService.closer.Close()
	}

	logger, closer := SetupLogger(logDir, consoleLevel)
	DefaultLoggingService = &LoggingService{
		Logger: logger,
		closer: closer,
	}
	slog.SetDefault(DefaultLoggingService.Logger)
}

// Close releases the log file, if any
func Close() error {
	if DefaultLoggingService == nil || DefaultLoggingService.closer == nil {
		return nil
	}
	err := DefaultLoggingService.closer.Close()
	DefaultLoggingService.closer = nil
	return err
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	logger(slog.LevelInfo).Info(msg, args...)
}

func Error(msg string, args ...any) {
	logger(slog.LevelError).Error(msg, args...)
}

func Warn(msg string, args ...any) {
	logger(slog.LevelWarn).Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	logger(slog.LevelDebug).Debug(msg, args...)
}

// logger returns the global logger, or a console fallback at the given
// level if InitLogger was never called
func logger(level slog.Level) *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))
	}
	return DefaultLoggingService.Logger
}
