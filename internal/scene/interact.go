/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package scene

import (
	"fmt"
	"math"
	"strings"

	"stickerdesigner/internal/vector"
)

// Direct manipulation. Gestures act on the current selection and are not
// bound by the auto-fit ceiling.

// HitTest returns the top-most interactive object under canvas point (x,y).
func (m *Manager) HitTest(x, y float64) (Object, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return nil, false
	}
	for i := len(m.objects) - 1; i >= 0; i-- {
		o := m.objects[i]
		if !o.Interactive() {
			continue
		}
		if contains(o, vector.Pt{X: x, Y: y}) {
			return o, true
		}
	}
	return nil, false
}

func contains(o Object, p vector.Pt) bool {
	w, h := naturalOrBounds(o)
	if w <= 0 || h <= 0 {
		return false
	}
	inv, ok := o.Transform().Matrix(w, h).Invert()
	if !ok {
		return false
	}
	return vector.R(0, 0, w, h).Contains(inv.Apply(p))
}

// Bounds returns the canvas-space bounding box of an object.
func Bounds(o Object) vector.Rect {
	w, h := naturalOrBounds(o)
	return o.Transform().Matrix(w, h).Bounds(vector.R(0, 0, w, h))
}

// Select makes the object with id the sole selection. The vehicle cannot
// be selected.
func (m *Manager) Select(id string) error {
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return ErrNoCanvas
	}
	o := m.findLocked(id)
	if o == nil || !o.Interactive() {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownObject, id)
	}
	m.selected = o
	m.mu.Unlock()
	m.changed()
	return nil
}

// Deselect clears the selection.
func (m *Manager) Deselect() {
	m.mu.Lock()
	had := m.selected != nil
	m.selected = nil
	m.mu.Unlock()
	if had {
		m.changed()
	}
}

// Selection returns the selected object, or nil.
func (m *Manager) Selection() Object {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected
}

func (m *Manager) findLocked(id string) Object {
	for _, o := range m.objects {
		if o.ID() == id {
			return o
		}
	}
	return nil
}

func (m *Manager) indexLocked(id string) int {
	for i, o := range m.objects {
		if o.ID() == id {
			return i
		}
	}
	return -1
}

// mutateSelection applies fn to the selection's transform.
func (m *Manager) mutateSelection(fn func(t *Transform) error) error {
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return ErrNoCanvas
	}
	if m.selected == nil {
		m.mu.Unlock()
		return ErrNoSelection
	}
	b := m.selected.base()
	t := b.xf
	if err := fn(&t); err != nil {
		m.mu.Unlock()
		return err
	}
	b.xf = t
	m.mu.Unlock()
	m.changed()
	return nil
}

// Move drags the selection by (dx,dy) canvas pixels.
func (m *Manager) Move(dx, dy float64) error {
	if !finite(dx, dy) {
		return &ValidationError{Message: "move offset must be finite"}
	}
	return m.mutateSelection(func(t *Transform) error {
		t.CenterX += dx
		t.CenterY += dy
		return nil
	})
}

// ScaleBy multiplies both scale factors of the selection.
func (m *Manager) ScaleBy(factor float64) error {
	if !(factor > 0) || math.IsInf(factor, 0) {
		return &ValidationError{Message: "scale factor must be positive"}
	}
	return m.mutateSelection(func(t *Transform) error {
		t.ScaleX *= factor
		t.ScaleY *= factor
		return nil
	})
}

// SetScale sets the selection's scale factors.
func (m *Manager) SetScale(sx, sy float64) error {
	if err := validScale(sx, sy); err != nil {
		return err
	}
	return m.mutateSelection(func(t *Transform) error {
		t.ScaleX, t.ScaleY = sx, sy
		return nil
	})
}

// Rotate turns the selection by delta degrees clockwise.
func (m *Manager) Rotate(delta float64) error {
	if !finite(delta) {
		return &ValidationError{Message: "rotation must be finite"}
	}
	return m.mutateSelection(func(t *Transform) error {
		t.RotationDeg = normDeg(t.RotationDeg + delta)
		return nil
	})
}

// SetRotation sets the selection's absolute rotation.
func (m *Manager) SetRotation(deg float64) error {
	if !finite(deg) {
		return &ValidationError{Message: "rotation must be finite"}
	}
	return m.mutateSelection(func(t *Transform) error {
		t.RotationDeg = normDeg(deg)
		return nil
	})
}

// SetTransform replaces the transform of any interactive object by id.
func (m *Manager) SetTransform(id string, t Transform) error {
	if err := validScale(t.ScaleX, t.ScaleY); err != nil {
		return err
	}
	if !finite(t.CenterX, t.CenterY, t.RotationDeg) {
		return &ValidationError{Message: "transform must be finite"}
	}
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return ErrNoCanvas
	}
	o := m.findLocked(id)
	if o == nil || !o.Interactive() {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownObject, id)
	}
	t.RotationDeg = normDeg(t.RotationDeg)
	o.base().xf = t
	m.mu.Unlock()
	m.changed()
	return nil
}

// UpdateText edits a text label in place; zero size or empty family or
// colour keep their current values.
func (m *Manager) UpdateText(id, content, family string, size float64, fill string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		m.notify.Notify(MsgEmptyText)
		return &ValidationError{Message: MsgEmptyText}
	}
	if fill != "" {
		if _, err := vector.ParseHex(fill); err != nil {
			m.notify.Notify(MsgBadColor)
			return &ValidationError{Message: MsgBadColor, Err: err}
		}
	}
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return ErrNoCanvas
	}
	tl, ok := m.findLocked(id).(*TextLabel)
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: no text label %s", ErrUnknownObject, id)
	}
	if family == "" {
		family = tl.FontFamily
	}
	if size <= 0 {
		size = tl.FontSizePt
	}
	if fill == "" {
		fill = tl.FillColor
	}
	tl.set(m.fonts, content, family, size, fill)
	m.mu.Unlock()
	m.changed()
	return nil
}

// BringForward moves an object one step towards the front.
func (m *Manager) BringForward(id string) error { return m.shift(id, +1) }

// SendBackward moves an object one step towards the back; it never passes
// the vehicle.
func (m *Manager) SendBackward(id string) error { return m.shift(id, -1) }

func (m *Manager) shift(id string, dir int) error {
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return ErrNoCanvas
	}
	i := m.indexLocked(id)
	if i < 0 || !m.objects[i].Interactive() {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownObject, id)
	}
	j := i + dir
	floor := 0
	if len(m.objects) > 0 && m.objects[0].Kind() == KindVehicle {
		floor = 1
	}
	if j < floor || j >= len(m.objects) {
		m.mu.Unlock()
		return nil
	}
	m.objects[i], m.objects[j] = m.objects[j], m.objects[i]
	m.mu.Unlock()
	m.changed()
	return nil
}

func validScale(sx, sy float64) error {
	if !(sx > 0) || !(sy > 0) || math.IsInf(sx, 0) || math.IsInf(sy, 0) {
		return &ValidationError{Message: "scale must be positive"}
	}
	return nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func normDeg(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}
