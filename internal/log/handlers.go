/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// fanout sends every record to all sinks.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

// sceneContext copies scene_gen and req from the context onto the record.
type sceneContext struct{ next slog.Handler }

func withSceneContext(h slog.Handler) slog.Handler { return sceneContext{next: h} }

func (s sceneContext) Enabled(ctx context.Context, level slog.Level) bool {
	return s.next.Enabled(ctx, level)
}

func (s sceneContext) Handle(ctx context.Context, r slog.Record) error {
	gen, hasGen := ctx.Value(generationKey{}).(uint64)
	req, hasReq := RequestID(ctx)
	if hasGen || hasReq {
		r = r.Clone()
		if hasGen {
			r.AddAttrs(slog.Uint64("scene_gen", gen))
		}
		if hasReq {
			r.AddAttrs(slog.String("req", req))
		}
	}
	return s.next.Handle(ctx, r)
}

func (s sceneContext) WithAttrs(attrs []slog.Attr) slog.Handler {
	return sceneContext{next: s.next.WithAttrs(attrs)}
}

func (s sceneContext) WithGroup(name string) slog.Handler {
	return sceneContext{next: s.next.WithGroup(name)}
}

// consoleHandler prints one human-friendly line per record:
//
//	15:04:05.000 INF [scene] message key=value ...
//
// The component attribute is hoisted into the brackets; app, ver and ts_init
// are left to the JSON sinks.
type consoleHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     slog.Leveler
	addSource bool
	component string
	prefix    string // group path, "a.b."
	attrs     []string
}

func newConsoleHandler(w io.Writer, level slog.Leveler, addSource bool) *consoleHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: level, addSource: addSource}
}

var consoleSkip = map[string]bool{"app": true, "ver": true, "ts_init": true}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.Grow(160)
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	b.WriteString(ts.Format("15:04:05.000"))
	b.WriteByte(' ')
	b.WriteString(levelTag(r.Level))
	if h.component != "" {
		b.WriteString(" [")
		b.WriteString(h.component)
		b.WriteByte(']')
	}
	if r.Message != "" {
		b.WriteByte(' ')
		b.WriteString(r.Message)
	}
	for _, a := range h.attrs {
		b.WriteByte(' ')
		b.WriteString(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		if s := h.format(a); s != "" {
			b.WriteByte(' ')
			b.WriteString(s)
		}
		return true
	})
	if h.addSource {
		if f, _ := runtime.CallersFrames([]uintptr{r.PC}).Next(); r.PC != 0 && f.File != "" {
			b.WriteString(" src=")
			b.WriteString(f.File)
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(f.Line))
		}
	}
	b.WriteByte('\n')
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *consoleHandler) format(a slog.Attr) string {
	if a.Equal(slog.Attr{}) {
		return ""
	}
	return h.prefix + a.Key + "=" + consoleValue(a.Value)
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append([]string(nil), h.attrs...)
	for _, a := range attrs {
		switch {
		case a.Key == "component" && h.prefix == "":
			c.component = a.Value.String()
		case consoleSkip[a.Key] && h.prefix == "":
		default:
			if s := h.format(a); s != "" {
				c.attrs = append(c.attrs, s)
			}
		}
	}
	return &c
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}

func levelTag(l slog.Level) string {
	switch {
	case l < slog.LevelInfo:
		return "DBG"
	case l < slog.LevelWarn:
		return "INF"
	case l < slog.LevelError:
		return "WRN"
	default:
		return "ERR"
	}
}

func consoleValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if s == "" || strings.ContainsAny(s, " \t\n\"=") {
			return strconv.Quote(s)
		}
		return s
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return strconv.Quote(err.Error())
		}
		return strconv.Quote(v.String())
	default:
		return v.String()
	}
}
