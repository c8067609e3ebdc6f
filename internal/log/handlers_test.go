/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"stickerdesigner/internal/config"
)

func TestFromEnvAndConfig(t *testing.T) {
	t.Setenv("VSD_LOG_LEVEL", "warn")
	t.Setenv("VSD_LOG_FORMAT", "json")
	t.Setenv("VSD_LOG_SOURCE", "true")
	t.Setenv("VSD_LOG_FILE", "")

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}
	if v := getenv("VSD_SURELY_UNSET_VAR", "fallback"); v != "fallback" {
		t.Fatalf("getenv fallback failed: %q", v)
	}

	opts = FromConfig(config.LoggingConfig{Level: "debug", Format: "console", Source: true, File: "x.log"})
	if opts.Level != "debug" || opts.Format != "console" || !opts.AddSource || opts.File != "x.log" {
		t.Fatalf("FromConfig mismatch: %+v", opts)
	}
}

func TestConsoleHandler_Line(t *testing.T) {
	var buf bytes.Buffer
	h := newConsoleHandler(&buf, slog.LevelWarn, false)

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info should not be enabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("error should be enabled at warn level")
	}

	h2 := h.WithAttrs([]slog.Attr{
		slog.String("component", "scene"),
		slog.String("app", "stickerdesigner"),
		slog.String("ref", "two words"),
	}).WithGroup("grp")

	r := slog.NewRecord(time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC), slog.LevelError, "boom", 0)
	r.AddAttrs(slog.Int("n", 42), slog.Float64("pi", 3.14), slog.Bool("ok", true),
		slog.Duration("took", 1500*time.Millisecond), slog.Any("err", errors.New("bad svg")))
	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("handle error: %v", err)
	}

	got := strings.TrimSpace(buf.String())
	want := `09:30:00.000 ERR [scene] boom ref="two words" grp.n=42 grp.pi=3.14 grp.ok=true grp.took=1.5s grp.err="bad svg"`
	if got != want {
		t.Fatalf("line mismatch\n got: %s\nwant: %s", got, want)
	}
}

func TestConsoleWriterCarriesSceneGeneration(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "debug", Format: "json", Console: &buf})
	t.Cleanup(func() { Init(Options{Console: io.Discard}) })

	ctx := WithGeneration(context.Background(), 7)
	WithComponent("scene").InfoContext(ctx, "reset")

	var m map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &m); err != nil {
		t.Fatalf("unmarshal: %v (%q)", err, buf.String())
	}
	if m["component"] != "scene" {
		t.Fatalf("component = %v", m["component"])
	}
	if gen, ok := m["scene_gen"].(float64); !ok || gen != 7 {
		t.Fatalf("scene_gen = %v", m["scene_gen"])
	}
	if _, ok := m["req"]; ok {
		t.Fatal("req should only appear for request contexts")
	}
}

func TestFanoutRespectsSinkLevels(t *testing.T) {
	var loud, quiet bytes.Buffer
	h := fanout{
		newConsoleHandler(&loud, slog.LevelDebug, false),
		newConsoleHandler(&quiet, slog.LevelError, false),
	}
	l := slog.New(h)
	l.Debug("detail")
	l.Error("failure")
	if n := strings.Count(loud.String(), "\n"); n != 2 {
		t.Fatalf("debug sink got %d lines: %q", n, loud.String())
	}
	if strings.Contains(quiet.String(), "detail") || !strings.Contains(quiet.String(), "failure") {
		t.Fatalf("error sink = %q", quiet.String())
	}
}

func TestRequestID(t *testing.T) {
	if _, ok := RequestID(context.Background()); ok {
		t.Fatal("empty context has no request id")
	}
	if id, ok := RequestID(WithRequestID(context.Background(), "abc")); !ok || id != "abc" {
		t.Fatalf("RequestID = %q %v", id, ok)
	}
}

func TestDiscardDropsEverything(t *testing.T) {
	if Discard().Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("discard logger should not enable error level")
	}
}
