// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging provides structured logging for crucible components.
//
// The logger is built on log/slog and fans out to up to two destinations:
//
//	┌──────────────────────────────────────┐
//	│                Logger                │
//	│  ┌─────────────┐   ┌──────────────┐  │
//	│  │   stderr    │   │   log file   │  │
//	│  │  (default)  │   │  (optional)  │  │
//	│  └─────────────┘   └──────────────┘  │
//	└──────────────────────────────────────┘
//
// # Basic Usage
//
//	logger := logging.Default()
//	logger.Info("route solved", "cost", res.Cost)
//
// # File Logging
//
//	logger := logging.New(logging.Config{
//	    Level:   logging.LevelInfo,
//	    LogDir:  "~/.crucible/logs",
//	    Service: "crucible",
//	})
//	defer logger.Close()
//
// File logs are named `{service}_{date}.log` and are always JSON.
//
// # Thread Safety
//
// Logger is safe for concurrent use.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents log severity levels, ordered Debug < Info < Warn < Error.
type Level int

const (
	// LevelDebug is for development troubleshooting, such as per-search
	// expansion statistics.
	LevelDebug Level = iota

	// LevelInfo is for normal operational messages.
	LevelInfo

	// LevelWarn is for recoverable problems, such as a cache write failure.
	LevelWarn

	// LevelError is for operation failures.
	LevelError
)

// String returns "DEBUG", "INFO", "WARN", "ERROR", or "UNKNOWN".
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel converts a level name (debug, info, warn, warning, error) to
// a Level. Matching is case-insensitive.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Config configures the Logger.
//
// A zero-value Config writes Info+ messages to stderr in text format.
type Config struct {
	// Level sets the minimum log level.
	Level Level

	// LogDir enables file logging to "{Service}_{YYYY-MM-DD}.log" in this
	// directory, in addition to stderr. Supports ~ expansion.
	LogDir string

	// Service is attached to every entry as the "service" attribute.
	Service string

	// JSON selects JSON output for the console destination.
	JSON bool

	// Quiet disables console output.
	Quiet bool

	// Output replaces stderr as the console destination. Nil means stderr.
	Output io.Writer
}

// Logger wraps slog with an optional log file.
//
// Use With to create child loggers that carry request-scoped attributes:
//
//	reqLogger := logger.With("request_id", reqID)
type Logger struct {
	slog   *slog.Logger
	config Config

	// file is shared with child loggers; only the root closes it.
	file *os.File
	root bool
	mu   sync.Mutex
}

// New creates a Logger from config. Call Close to release the log file.
//
// A log directory that cannot be created or opened is skipped silently;
// console logging still works.
func New(config Config) *Logger {
	var handlers []slog.Handler
	opts := &slog.HandlerOptions{Level: config.Level.toSlogLevel()}

	console := config.Output
	if console == nil {
		console = os.Stderr
	}
	if !config.Quiet {
		if config.JSON {
			handlers = append(handlers, slog.NewJSONHandler(console, opts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(console, opts))
		}
	}

	logger := &Logger{config: config, root: true}

	if config.LogDir != "" {
		logDir := expandPath(config.LogDir)
		if err := os.MkdirAll(logDir, 0750); err == nil {
			service := config.Service
			if service == "" {
				service = "crucible"
			}
			name := fmt.Sprintf("%s_%s.log", service, time.Now().Format("2006-01-02"))
			file, err := os.OpenFile(filepath.Join(logDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
			if err == nil {
				logger.file = file
				handlers = append(handlers, slog.NewJSONHandler(file, opts))
			}
		}
	}

	var handler slog.Handler
	switch len(handlers) {
	case 0:
		handler = slog.NewTextHandler(io.Discard, opts)
	case 1:
		handler = handlers[0]
	default:
		handler = &multiHandler{handlers: handlers}
	}

	if config.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", config.Service)})
	}

	logger.slog = slog.New(handler)
	return logger
}

// Default returns an Info-level stderr logger tagged with service "crucible".
func Default() *Logger {
	return New(Config{Level: LevelInfo, Service: "crucible"})
}

// Debug logs at Debug level.
func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }

// Info logs at Info level.
func (l *Logger) Info(msg string, args ...any) { l.slog.Info(msg, args...) }

// Warn logs at Warn level.
func (l *Logger) Warn(msg string, args ...any) { l.slog.Warn(msg, args...) }

// Error logs at Error level.
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// With returns a child Logger carrying args on every entry. The child
// shares the parent's log file; closing the child does not close it.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:   l.slog.With(args...),
		config: l.config,
		file:   l.file,
	}
}

// Slog returns the underlying slog.Logger, for packages that take one.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Close syncs and closes the log file. Safe to call more than once.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.root || l.file == nil {
		return nil
	}

	file := l.file
	l.file = nil
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("sync log file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}

// multiHandler fans out records to several handlers.
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
