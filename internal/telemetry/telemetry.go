/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */


// Package telemetry provides a tiny, privacy‑respecting, opt‑in event sender
// for anonymous usage metrics and optional crash uploads.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"stickerdesigner/internal/config"
	applog "stickerdesigner/internal/log"
	"stickerdesigner/internal/version"
)

// Event names emitted by the designer. Properties never carry sticker
// sources, text or file names.
const (
	EventStickerAdded   = "sticker_added"
	EventDesignExported = "design_exported"
	EventDesignSaved    = "design_saved"
)

// Config holds runtime configuration for telemetry and crash uploads.
// All telemetry is strictly opt‑in and disabled by default. If no URLs are
// set, events are dropped even when OptIn is true.
type Config struct {
	OptIn        bool
	EventsURL    string
	CrashURL     string
	Timeout      time.Duration
	DebugLogging bool
	QueueSize    int
}

// FromEnv reads the VSD_TELEMETRY_* and VSD_CRASH_UPLOAD_URL variables.
func FromEnv() Config {
	cfg := Config{
		OptIn:        parseBool(os.Getenv(config.EnvTelemetryOptIn)),
		EventsURL:    strings.TrimSpace(os.Getenv(config.EnvTelemetryURL)),
		CrashURL:     strings.TrimSpace(os.Getenv(config.EnvCrashURL)),
		Timeout:      1500 * time.Millisecond,
		DebugLogging: os.Getenv(config.EnvTelemetryDebug) != "",
	}
	if ms := strings.TrimSpace(os.Getenv(config.EnvTelemetryMs)); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 {
			cfg.Timeout = time.Duration(v) * time.Millisecond
		}
	}
	return cfg
}

// FromConfig is FromEnv with the opt-in also granted by the config file.
func FromConfig(app config.AppConfig) Config {
	cfg := FromEnv()
	cfg.OptIn = cfg.OptIn || app.General.TelemetryOptIn
	return cfg
}

func parseBool(v string) bool {
	s := strings.ToLower(strings.TrimSpace(v))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

// Payload is the JSON body of one event.
type Payload struct {
	Name    string         `json:"name"`
	TS      string         `json:"ts"`
	Version string         `json:"version"`
	OS      string         `json:"os"`
	Arch    string         `json:"arch"`
	Props   map[string]any `json:"props,omitempty"`
}

// Client is a minimal async sender; it drops events silently on errors.
// Event never blocks: the queue is bounded and overflow is counted.
type Client struct {
	cfg     Config
	log     *slog.Logger
	cli     *http.Client
	q       chan Payload
	pending sync.WaitGroup
	dropped atomic.Int64
	once    sync.Once
	closed  chan struct{}
}

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// Default returns the package client, creating it from env on first use.
func Default() *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		defaultClient = New(FromEnv())
	}
	return defaultClient
}

// SetDefault replaces the package client, closing the previous one.
func SetDefault(c *Client) {
	defaultMu.Lock()
	prev := defaultClient
	defaultClient = c
	defaultMu.Unlock()
	if prev != nil && prev != c {
		prev.Close()
	}
}

// New constructs a client and starts its sender goroutine.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 1500 * time.Millisecond
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	c := &Client{
		cfg:    cfg,
		log:    applog.WithComponent("telemetry"),
		cli:    &http.Client{Timeout: cfg.Timeout},
		q:      make(chan Payload, cfg.QueueSize),
		closed: make(chan struct{}),
	}
	go c.loop()
	return c
}

// Enabled reports whether anonymous telemetry is enabled and an endpoint is configured.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Dropped returns how many events were discarded because the queue was full.
func (c *Client) Dropped() int64 { return c.dropped.Load() }

// Event queues a small JSON event if enabled. Safe to call from anywhere.
func (c *Client) Event(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	p := Payload{
		Name:    name,
		TS:      time.Now().UTC().Format(time.RFC3339Nano),
		Version: version.String(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
	if len(props) > 0 {
		p.Props = make(map[string]any, len(props))
		for k, v := range props {
			p.Props[k] = v
		}
	}
	c.pending.Add(1)
	select {
	case c.q <- p:
	default:
		c.pending.Done()
		c.dropped.Add(1)
	}
}

// Flush waits until queued events are sent or ctx is done.
func (c *Client) Flush(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		c.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Close stops the sender goroutine. Queued events are discarded.
func (c *Client) Close() { c.once.Do(func() { close(c.closed) }) }

func (c *Client) loop() {
	for {
		select {
		case <-c.closed:
			for {
				select {
				case <-c.q:
					c.pending.Done()
				default:
					return
				}
			}
		case p := <-c.q:
			c.post(c.cfg.EventsURL, "application/json", mustJSON(p), "telemetry event")
			c.pending.Done()
		}
	}
}

func mustJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}

func (c *Client) post(url, contentType string, body []byte, what string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.cli.Do(req)
	if err != nil {
		if c.cfg.DebugLogging {
			c.log.Debug(what+" failed", slog.Any("err", err))
		}
		return
	}
	_ = resp.Body.Close()
	if c.cfg.DebugLogging {
		c.log.Debug(what+" sent", slog.Int("status", resp.StatusCode))
	}
}

// UploadCrash posts an already‑serialized crash report to the configured
// crash URL if opt‑in. It returns once the upload finished or failed.
func (c *Client) UploadCrash(report []byte) {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return
	}
	c.post(c.cfg.CrashURL, "text/plain; charset=utf-8", report, "crash report")
}

// Event sends through the default client.
func Event(name string, props map[string]any) { Default().Event(name, props) }

// UploadCrash uploads through the default client.
func UploadCrash(report []byte) { Default().UploadCrash(report) }
