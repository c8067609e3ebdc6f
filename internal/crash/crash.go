/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a crash report plus an autosave of the
// open design, then exits.
package crash

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"stickerdesigner/internal/config"
	"stickerdesigner/internal/domain"
	applog "stickerdesigner/internal/log"
	"stickerdesigner/internal/telemetry"
	"stickerdesigner/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Snapshotter yields the current design; *scene.Manager satisfies it.
type Snapshotter interface {
	Descriptors() []domain.StickerDescriptor
}

// Dir returns where reports go: VSD_CRASH_DIR when set, else the temp dir.
func Dir() string {
	if v := strings.TrimSpace(os.Getenv(config.EnvCrashDir)); v != "" {
		return v
	}
	return os.TempDir()
}

// Recover captures a panic, logs it with its stack, writes a report file
// and, when snap is non-nil, a crash-safe autosave of the design.
//
// Usage: defer crash.Recover(manager)
func Recover(snap Snapshotter) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	dir := Dir()
	reportPath, err := writeReport(dir, r, stack)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err))
	}
	if snap != nil {
		if path, err := autosave(dir, snap); err != nil {
			l.Error("autosave design failed", slog.Any("err", err))
		} else {
			l.Info("autosave design written", slog.String("path", path))
		}
	}

	if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
		l.Error("failed to write crash message to stderr", slog.Any("err", err))
	}
	if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
		l.Error("failed to write version info to stderr", slog.Any("err", err))
	}
	exitFn(2)
}

func stamp() string { return time.Now().Format("20060102-150405") }

func writeReport(dir string, panicVal any, stack []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", stamp()))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Vehicle Sticker Designer Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, err
	}
	// optionally upload the report (opt-in via env)
	telemetry.UploadCrash(buf.Bytes())
	return path, nil
}

// autosave writes the design in the same {id, stickers} shape the save
// service stores, so it can be re-posted as is.
func autosave(dir string, snap Snapshotter) (path string, err error) {
	defer func() {
		// the scene may be what panicked
		if r := recover(); r != nil {
			err = fmt.Errorf("snapshot panicked: %v", r)
		}
	}()
	stickers, err := json.Marshal(snap.Descriptors())
	if err != nil {
		return "", err
	}
	b, err := json.MarshalIndent(domain.NewDesign(time.Now(), stickers), "", "  ")
	if err != nil {
		return "", err
	}
	path = filepath.Join(dir, fmt.Sprintf("crash-%s-design.json", stamp()))
	return path, os.WriteFile(path, b, 0o644)
}
