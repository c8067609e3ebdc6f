/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package designer is the sticker designer view model. It owns one scene, the
// object factory bound to it and the sticker catalog, and maps the user's
// actions onto them.
package designer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stickerdesigner/internal/assets"
	"stickerdesigner/internal/backend"
	"stickerdesigner/internal/catalog"
	"stickerdesigner/internal/config"
	"stickerdesigner/internal/export"
	applog "stickerdesigner/internal/log"
	"stickerdesigner/internal/scene"
	"stickerdesigner/internal/telemetry"
	"stickerdesigner/internal/textlayout"
	"stickerdesigner/internal/undo"
)

var (
	// ErrUnknownSticker is returned by PickCatalog for an id not in the catalog.
	ErrUnknownSticker = errors.New("unknown catalog sticker")
	// ErrNoBackend is returned by Save when no persistence client is configured.
	ErrNoBackend = errors.New("no design service configured")
)

// Saver posts designs; *backend.Client implements it.
type Saver interface {
	SaveDesign(ctx context.Context, stickers any) (backend.SaveResponse, error)
}

// Tracker receives anonymous usage events; *telemetry.Client implements it.
type Tracker interface {
	Event(name string, props map[string]any)
}

// Options wires a Designer. Nil collaborators get working defaults.
type Options struct {
	Config    config.AppConfig
	Source    scene.Source
	Saver     Saver
	Confirmer scene.Confirmer
	Notifier  scene.Notifier
	Fonts     textlayout.Provider
	Tracker   Tracker
	Now       func() time.Time
	Logger    *slog.Logger
}

// Designer is the view model behind a designer window or a headless render.
type Designer struct {
	m       *scene.Manager
	f       *scene.Factory
	cat     *catalog.Catalog
	saver   Saver
	track   Tracker
	now     func() time.Time
	demo    string
	profile config.CanvasProfile
	hist    *undo.Manager
	log     *slog.Logger
}

// New builds a designer from opts. The scene stays uninitialized until Activate.
func New(opts Options) (*Designer, error) {
	cfg := opts.Config
	profile, err := cfg.Canvas.Resolve()
	if err != nil {
		return nil, err
	}
	l := opts.Logger
	if l == nil {
		l = applog.WithComponent("designer")
	}
	fonts := opts.Fonts
	if fonts == nil {
		var ferr error
		fonts, ferr = textlayout.ProviderFor(cfg.Text.Fonts)
		if ferr != nil {
			l.Warn("some fonts failed to load", slog.Any("err", ferr))
		}
	}
	src := opts.Source
	if src == nil {
		src = assets.NewFetcher(cfg.Assets)
	}
	m := scene.NewManager(scene.Options{
		Profile:   profile,
		Handles:   scene.HandleStyleFrom(cfg.Handles),
		Confirmer: opts.Confirmer,
		Notifier:  opts.Notifier,
		Fonts:     fonts,
		Logger:    opts.Logger,
	})
	f := scene.NewFactory(m, src)
	f.Text = scene.TextDefaultsFrom(cfg.Text)

	d := &Designer{
		m:       m,
		f:       f,
		cat:     catalog.FromConfig(cfg.Catalog),
		saver:   opts.Saver,
		track:   opts.Tracker,
		now:     opts.Now,
		demo:    cfg.Catalog.DemoSticker,
		profile: profile,
		hist:    undo.NewManager(undo.Config{MaxDepth: 50, MinInterval: 300 * time.Millisecond}),
		log:     l,
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.track == nil {
		d.track = telemetry.Default()
	}
	return d, nil
}

// Scene returns the managed scene.
func (d *Designer) Scene() *scene.Manager { return d.m }

// Factory returns the object factory bound to the scene.
func (d *Designer) Factory() *scene.Factory { return d.f }

// Catalog returns the sticker catalog.
func (d *Designer) Catalog() *catalog.Catalog { return d.cat }

// Activate (re)initializes the scene on the profile's canvas and, when the
// scene holds no user objects afterwards, adds the demo sticker.
func (d *Designer) Activate(ctx context.Context) error {
	if err := d.m.Reset(d.profile.Width, d.profile.Height); err != nil {
		return err
	}
	if d.demo == "" || len(d.m.UserObjects()) > 0 {
		return nil
	}
	if _, err := d.f.Add(ctx, d.demo); err != nil && !errors.Is(err, scene.ErrStaleScene) {
		d.log.Warn("demo sticker not added", slog.Any("err", err))
	}
	return nil
}

// PickCatalog adds the catalog sticker with the given id.
func (d *Designer) PickCatalog(ctx context.Context, id int) (scene.Object, error) {
	e, ok := d.cat.ByID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSticker, id)
	}
	return d.added(d.f.Add(ctx, e.ImageRef))
}

// Drop adds a dragged reference (URL, data URL or path).
func (d *Designer) Drop(ctx context.Context, ref string) (scene.Object, error) {
	return d.added(d.f.Add(ctx, ref))
}

// Upload adds a user-picked file after the MIME allow-list check.
func (d *Designer) Upload(ctx context.Context, file scene.UserFile) (scene.Object, error) {
	return d.added(d.f.FromUserFile(ctx, file))
}

// AddText adds a text label; empty family, size or colour use the text defaults.
func (d *Designer) AddText(content, family string, sizePt float64, fill string) (scene.Object, error) {
	return d.added(d.f.MakeText(content, family, sizePt, fill))
}

func (d *Designer) added(obj scene.Object, err error) (scene.Object, error) {
	if err != nil {
		return nil, err
	}
	d.track.Event(telemetry.EventStickerAdded, map[string]any{"kind": obj.Kind().String()})
	return obj, nil
}

// SelectVehicle swaps the vehicle silhouette.
func (d *Designer) SelectVehicle(kind string) error { return d.m.SetVehicle(kind) }

// Clear asks for confirmation, then empties the scene and reloads the vehicle.
func (d *Designer) Clear() error { return d.m.Clear() }

// Download renders the design as PNG and names it vehicle-sticker-<unix ms>.png.
func (d *Designer) Download(multiplier float64) (string, []byte, error) {
	return d.DownloadAs(export.FormatPNG, multiplier)
}

// DownloadAs renders the design in format f.
func (d *Designer) DownloadAs(f export.Format, multiplier float64) (string, []byte, error) {
	var buf bytes.Buffer
	if err := export.Encode(&buf, f, d.m, multiplier); err != nil {
		return "", nil, err
	}
	d.track.Event(telemetry.EventDesignExported, map[string]any{"format": string(f)})
	return export.FileName(f, d.now()), buf.Bytes(), nil
}

// Save posts the scene's descriptors (vehicle first, paint order) to the
// design service.
func (d *Designer) Save(ctx context.Context) (backend.SaveResponse, error) {
	if d.saver == nil {
		return backend.SaveResponse{}, ErrNoBackend
	}
	if !d.m.Active() {
		return backend.SaveResponse{}, scene.ErrNoCanvas
	}
	stickers := d.m.Descriptors()
	res, err := d.saver.SaveDesign(ctx, stickers)
	if err != nil {
		d.log.Error("save design failed", slog.Any("err", err))
		return backend.SaveResponse{}, err
	}
	d.track.Event(telemetry.EventDesignSaved, map[string]any{"objects": len(stickers)})
	return res, nil
}

// layoutEntry is one object's placement inside an undo snapshot.
type layoutEntry struct {
	ID        string          `json:"id"`
	Transform scene.Transform `json:"transform"`
}

func (d *Designer) capture() (undo.Snapshot, error) {
	objs := d.m.UserObjects()
	layout := make([]layoutEntry, 0, len(objs))
	for _, o := range objs {
		layout = append(layout, layoutEntry{ID: o.ID(), Transform: o.Transform()})
	}
	blob, err := json.Marshal(layout)
	if err != nil {
		return undo.Snapshot{}, fmt.Errorf("capture layout: %w", err)
	}
	return undo.Snapshot{Generation: d.m.Generation(), Blob: blob, TS: d.now()}, nil
}

func (d *Designer) restore(s undo.Snapshot) error {
	var layout []layoutEntry
	if err := json.Unmarshal(s.Blob, &layout); err != nil {
		return err
	}
	for _, e := range layout {
		if err := d.m.SetTransform(e.ID, e.Transform); err != nil && !errors.Is(err, scene.ErrUnknownObject) {
			return err
		}
	}
	return nil
}

// Checkpoint records the current layout before a move, scale or rotation.
// Calls in quick succession collapse into one undo step. History from an
// earlier scene generation is discarded.
func (d *Designer) Checkpoint() {
	if !d.m.Active() {
		return
	}
	s, err := d.capture()
	if err != nil {
		d.log.Warn("checkpoint skipped", slog.Any("err", err))
		return
	}
	d.hist.Drop(s.Generation)
	d.hist.Push(s)
}

// Undo restores the layout before the last checkpointed change. It reports
// false when there is nothing to undo.
func (d *Designer) Undo() (bool, error) {
	cur, err := d.capture()
	if err != nil {
		return false, err
	}
	s, ok := d.hist.Undo(cur)
	if !ok {
		return false, nil
	}
	return true, d.restore(s)
}

// Redo reapplies the layout the last Undo replaced.
func (d *Designer) Redo() (bool, error) {
	cur, err := d.capture()
	if err != nil {
		return false, err
	}
	s, ok := d.hist.Redo(cur)
	if !ok {
		return false, nil
	}
	return true, d.restore(s)
}

// Close disposes the scene.
func (d *Designer) Close() { d.m.Dispose() }
