/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package log provides centralized slog-based logging for the designer, the
// persistence service and the CLI. Records carry a component and, where useful,
// an operation attribute so asset failures can be traced back to a reference.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"stickerdesigner/internal/config"
	"stickerdesigner/internal/version"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger initialization. FromEnv and FromConfig fill it from
// VSD_LOG_* variables or the logging section of the user config.
// Defaults: INFO level, console format on stderr, no source, no file.
type Options struct {
	Level     string
	Format    string // "console" or "json"
	AddSource bool
	// File enables a rotated JSON log next to the console output.
	File       string
	MaxSizeMB  int // per file before rotation; 0 means 10
	MaxBackups int // rotated files kept; 0 means 3
	Console    io.Writer
}

var (
	mu     sync.RWMutex
	logger *slog.Logger
)

// L returns the application logger, initializing from env on first use.
func L() *slog.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init(FromEnv())
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Init configures the global logger and installs it as slog.Default.
func Init(opts Options) {
	lvl := parseLevel(opts.Level)
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	sinks := []slog.Handler{withSceneContext(consoleSink(console, opts.Format, lvl, opts.AddSource))}
	if file := strings.TrimSpace(opts.File); file != "" {
		sinks = append(sinks, withSceneContext(fileSink(file, opts, lvl)))
	}
	h := sinks[0]
	if len(sinks) > 1 {
		h = fanout(sinks)
	}

	l := slog.New(h).With(
		slog.String("app", "stickerdesigner"),
		slog.String("ver", version.Version),
		slog.Time("ts_init", time.Now()),
	)
	mu.Lock()
	logger = l
	mu.Unlock()
	slog.SetDefault(l)
}

func consoleSink(w io.Writer, format string, lvl slog.Leveler, src bool) slog.Handler {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl, AddSource: src})
	}
	return newConsoleHandler(w, lvl, src)
}

func fileSink(path string, opts Options, lvl slog.Leveler) slog.Handler {
	size, backups := opts.MaxSizeMB, opts.MaxBackups
	if size <= 0 {
		size = 10
	}
	if backups <= 0 {
		backups = 3
	}
	w := &lj.Logger{Filename: path, MaxSize: size, MaxBackups: backups, MaxAge: 28, Compress: true}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource})
}

// FromEnv builds Options from VSD_LOG_LEVEL, VSD_LOG_FORMAT, VSD_LOG_SOURCE and VSD_LOG_FILE.
func FromEnv() Options {
	return Options{
		Level:     getenv(config.EnvLogLevel, "info"),
		Format:    getenv(config.EnvLogFormat, "console"),
		AddSource: strings.EqualFold(getenv(config.EnvLogSource, "false"), "true"),
		File:      os.Getenv(config.EnvLogFile),
	}
}

// FromConfig maps the logging section of a loaded config. config.Load has
// already applied the VSD_LOG_* overrides.
func FromConfig(c config.LoggingConfig) Options {
	return Options{Level: c.Level, Format: c.Format, AddSource: c.Source, File: c.File}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// WithComponent returns a logger with the component attribute pre-set.
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// WithOperation annotates the logger with an operation name.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

// Discard returns a logger that drops every record.
func Discard() *slog.Logger { return slog.New(slog.DiscardHandler) }

type (
	generationKey struct{}
	requestIDKey  struct{}
)

// WithGeneration stores a scene generation token on ctx; records logged with
// that context carry it as scene_gen.
func WithGeneration(ctx context.Context, gen uint64) context.Context {
	return context.WithValue(ctx, generationKey{}, gen)
}

// WithRequestID stores an HTTP request id on ctx; records carry it as req.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored by WithRequestID.
func RequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

func parseLevel(s string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
