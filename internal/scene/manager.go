/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package scene holds the designer's canvas model: an ordered list of
// placed objects with the vehicle silhouette pinned at the back, a single
// selection, and the placement and factory logic that feeds it.
//
// A Manager is safe for concurrent use. Factory calls block while an asset
// is fetched and decoded; calls issued from several goroutines land in
// completion order, not request order. Each call captures the scene
// generation before it suspends and is dropped with ErrStaleScene if the
// scene was reset or cleared in the meantime.
package scene

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"sync"

	"stickerdesigner/internal/config"
	"stickerdesigner/internal/domain"
	applog "stickerdesigner/internal/log"
	"stickerdesigner/internal/textlayout"
	"stickerdesigner/internal/vector"
)

// Options configures a Manager. Zero fields take defaults: the compact
// profile, the default handle style, the builtin fonts, and a Confirmer
// that always says yes.
type Options struct {
	Profile   config.CanvasProfile
	Handles   HandleStyle
	Confirmer Confirmer
	Notifier  Notifier
	Fonts     textlayout.Provider
	Logger    *slog.Logger
}

// Manager owns one scene. It starts uninitialized; Reset binds it to a
// canvas and may be called again on every view activation.
type Manager struct {
	mu         sync.Mutex
	profile    config.CanvasProfile
	placement  Placement
	confirm    Confirmer
	notify     Notifier
	fonts      textlayout.Provider
	log        *slog.Logger
	background vector.Color

	active        bool
	width, height int
	objects       []Object
	selected      Object
	gen           uint64
	vehicle       string

	listeners []func()
}

// NewManager creates an uninitialized manager.
func NewManager(opts Options) *Manager {
	p := opts.Profile
	if p.Width == 0 || p.Height == 0 {
		p, _ = config.Profile(config.ProfileCompact)
	}
	hs := opts.Handles
	if hs == (HandleStyle{}) {
		hs = DefaultHandleStyle()
	}
	m := &Manager{
		profile:    p,
		placement:  PlacementFrom(p, hs),
		confirm:    opts.Confirmer,
		notify:     opts.Notifier,
		fonts:      opts.Fonts,
		log:        opts.Logger,
		background: vector.White,
		vehicle:    NormalizeVehicle(p.DefaultVehicle),
	}
	if m.confirm == nil {
		m.confirm = AlwaysConfirm
	}
	if m.notify == nil {
		m.notify = discardNotifier{}
	}
	if m.fonts == nil {
		m.fonts = textlayout.DefaultProvider()
	}
	if m.log == nil {
		m.log = applog.WithComponent("scene")
	}
	if p.Background != "" {
		if c, err := vector.ParseHex(p.Background); err == nil {
			m.background = c
		}
	}
	return m
}

// Profile returns the canvas profile the manager was built with.
func (m *Manager) Profile() config.CanvasProfile { return m.profile }

// Placement returns the placement policy in effect.
func (m *Manager) Placement() Placement { return m.placement }

// Fonts returns the text provider used for labels.
func (m *Manager) Fonts() textlayout.Provider { return m.fonts }

// Reset disposes the current scene and builds an empty one of w×h with the
// current vehicle loaded. Non-positive sizes mean there is no canvas to bind.
func (m *Manager) Reset(w, h int) error {
	if w <= 0 || h <= 0 {
		return ErrNoCanvas
	}
	m.mu.Lock()
	m.objects = nil
	m.selected = nil
	m.gen++
	m.active = true
	m.width, m.height = w, h
	err := m.setVehicleLocked(m.vehicle)
	gen := m.gen
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.log.Debug("scene reset", slog.Int("w", w), slog.Int("h", h), slog.Uint64("gen", gen))
	m.changed()
	return nil
}

// Dispose drops the scene and returns to the uninitialized state.
func (m *Manager) Dispose() {
	m.mu.Lock()
	m.objects = nil
	m.selected = nil
	m.active = false
	m.gen++
	m.mu.Unlock()
	m.changed()
}

// SetVehicle replaces the vehicle silhouette. Unknown kinds become car.
func (m *Manager) SetVehicle(kind string) error {
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return ErrNoCanvas
	}
	err := m.setVehicleLocked(kind)
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.changed()
	return nil
}

func (m *Manager) setVehicleLocked(kind string) error {
	v, err := newVehicle(kind)
	if err != nil {
		return fmt.Errorf("build vehicle %q: %w", kind, err)
	}
	s := m.profile.VehicleScale
	if s <= 0 {
		s = 1
	}
	v.xf = Transform{
		CenterX: float64(m.width) / 2,
		CenterY: float64(m.height) * m.profile.VehicleBias,
		ScaleX:  s,
		ScaleY:  s,
	}
	out := make([]Object, 0, len(m.objects)+1)
	out = append(out, v)
	for _, o := range m.objects {
		if o.Kind() != KindVehicle {
			out = append(out, o)
		}
	}
	m.objects = out
	m.vehicle = v.VehicleKind
	return nil
}

// VehicleKind returns the kind that Reset and Clear will load.
func (m *Manager) VehicleKind() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vehicle
}

// Add appends obj to paint order and makes it the only selection.
// Placement is the caller's concern.
func (m *Manager) Add(obj Object) error {
	if err := checkAddable(obj); err != nil {
		return err
	}
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return ErrNoCanvas
	}
	m.appendLocked(obj)
	m.mu.Unlock()
	m.changed()
	return nil
}

func checkAddable(obj Object) error {
	if obj == nil {
		return errors.New("scene: nil object")
	}
	if obj.Kind() == KindVehicle {
		return errors.New("scene: vehicles are set with SetVehicle")
	}
	return nil
}

func (m *Manager) appendLocked(obj Object) {
	m.objects = append(m.objects, obj)
	m.selected = obj
}

// begin captures the generation an asynchronous continuation belongs to.
func (m *Manager) begin() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return 0, ErrNoCanvas
	}
	return m.gen, nil
}

// commit inserts obj if the scene is still generation gen, optionally
// running the placement policy against the current canvas first.
func (m *Manager) commit(gen uint64, obj Object, place bool) error {
	if err := checkAddable(obj); err != nil {
		return err
	}
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return ErrNoCanvas
	}
	if gen != m.gen {
		m.mu.Unlock()
		return ErrStaleScene
	}
	if place {
		m.placement.Apply(obj, m.width, m.height)
	}
	m.appendLocked(obj)
	m.mu.Unlock()
	m.changed()
	return nil
}

// Clear asks for confirmation, then empties the scene and reloads the last
// vehicle. A declined prompt leaves everything untouched.
func (m *Manager) Clear() error {
	m.mu.Lock()
	active, confirm := m.active, m.confirm
	m.mu.Unlock()
	if !active {
		return ErrNoCanvas
	}
	// The prompt may block on the UI, so it runs unlocked.
	if !confirm.Confirm(MsgConfirmClear) {
		return ErrDeclined
	}
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return ErrNoCanvas
	}
	m.objects = nil
	m.selected = nil
	m.gen++
	err := m.setVehicleLocked(m.vehicle)
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.changed()
	return nil
}

// ExportImage flattens the scene at multiplier× the canvas resolution
// (the profile's export multiplier when <= 0). Handles are never drawn.
func (m *Manager) ExportImage(multiplier float64) (*image.RGBA, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return nil, ErrNoCanvas
	}
	return m.composeLocked(m.multiplier(multiplier), false), nil
}

// ExportRaster is ExportImage encoded as PNG.
func (m *Manager) ExportRaster(multiplier float64) ([]byte, error) {
	img, err := m.ExportImage(multiplier)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPreview composes the scene with the selection's border and corner
// handles on top.
func (m *Manager) RenderPreview(multiplier float64) (*image.RGBA, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return nil, ErrNoCanvas
	}
	if multiplier <= 0 {
		multiplier = 1
	}
	return m.composeLocked(multiplier, true), nil
}

func (m *Manager) multiplier(v float64) float64 {
	if v > 0 {
		return v
	}
	if m.profile.ExportMultiplier > 0 {
		return m.profile.ExportMultiplier
	}
	return 2
}

// Active reports whether the manager is bound to a canvas.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Size returns the canvas size (zero when uninitialized).
func (m *Manager) Size() (w, h int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.width, m.height
}

// Generation returns the current generation token.
func (m *Manager) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen
}

// Objects returns the paint order, back to front.
func (m *Manager) Objects() []Object {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Object(nil), m.objects...)
}

// Len returns the number of objects including the vehicle.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// UserObjects returns every object except the vehicle.
func (m *Manager) UserObjects() []Object {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Object
	for _, o := range m.objects {
		if o.Kind() != KindVehicle {
			out = append(out, o)
		}
	}
	return out
}

// Descriptors snapshots the scene in paint order for saving.
func (m *Manager) Descriptors() []domain.StickerDescriptor {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.StickerDescriptor, 0, len(m.objects))
	for _, o := range m.objects {
		out = append(out, o.descriptor())
	}
	return out
}

// OnChange registers fn to run after every mutation (outside the lock).
func (m *Manager) OnChange(fn func()) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

func (m *Manager) changed() {
	m.mu.Lock()
	ls := append([]func(){}, m.listeners...)
	m.mu.Unlock()
	for _, fn := range ls {
		fn()
	}
}
