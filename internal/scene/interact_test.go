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
	"errors"
	"math"
	"testing"
)

func placedSquare(t *testing.T, env *testEnv) *StickerVector {
	t.Helper()
	sv, err := NewStickerVector("", []byte(`<svg width="100" height="100" viewBox="0 0 100 100" xmlns="http://www.w3.org/2000/svg"><rect width="100" height="100" fill="#22c55e"/></svg>`))
	if err != nil {
		t.Fatal(err)
	}
	env.m.Placement().Apply(sv, 800, 500)
	if err := env.m.Add(sv); err != nil {
		t.Fatal(err)
	}
	return sv
}

func TestHitTestSkipsVehicle(t *testing.T) {
	env := newEnv(t, nil)
	if _, ok := env.m.HitTest(400, 500/2.2); ok {
		t.Fatalf("vehicle must not be hit-testable")
	}
	sq := placedSquare(t, env) // 150x150 at (400,275)
	if o, ok := env.m.HitTest(400, 275); !ok || o != sq {
		t.Fatalf("expected to hit the square")
	}
	if _, ok := env.m.HitTest(400+80, 275); ok {
		t.Fatalf("point outside the square should miss")
	}
	if err := env.m.SetRotation(45); err != nil {
		t.Fatal(err)
	}
	// The rotated diagonal reaches ~106px from the centre.
	if _, ok := env.m.HitTest(400+100, 275); !ok {
		t.Fatalf("rotated corner should be hit")
	}
}

func TestGesturesActOnSelection(t *testing.T) {
	env := newEnv(t, nil)
	if err := env.m.Move(1, 1); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	sq := placedSquare(t, env)
	if err := env.m.Move(10, -5); err != nil {
		t.Fatal(err)
	}
	if err := env.m.ScaleBy(3); err != nil {
		t.Fatal(err)
	}
	if err := env.m.Rotate(-30); err != nil {
		t.Fatal(err)
	}
	xf := sq.Transform()
	if xf.CenterX != 410 || xf.CenterY != 270 {
		t.Fatalf("unexpected centre after move: %+v", xf)
	}
	if math.Abs(xf.ScaleX-4.5) > 1e-9 {
		t.Fatalf("interactive resize may exceed the auto-fit ceiling: %+v", xf)
	}
	if xf.RotationDeg != 330 {
		t.Fatalf("rotation should be normalised to [0,360): %v", xf.RotationDeg)
	}
	if err := env.m.ScaleBy(0); !IsValidation(err) {
		t.Fatalf("zero scale must be rejected, got %v", err)
	}
	nan, inf := math.NaN(), math.Inf(1)
	for name, err := range map[string]error{
		"Move":         env.m.Move(nan, 0),
		"Rotate":       env.m.Rotate(inf),
		"SetRotation":  env.m.SetRotation(nan),
		"SetTransform": env.m.SetTransform(sq.ID(), Transform{CenterX: nan, ScaleX: 1, ScaleY: 1}),
	} {
		if !IsValidation(err) {
			t.Fatalf("%s with a non-finite value must be rejected, got %v", name, err)
		}
	}
	if got := sq.Transform(); got != xf {
		t.Fatalf("rejected gestures changed the transform: %+v", got)
	}
	if err := env.m.SetScale(-1, 1); !IsValidation(err) {
		t.Fatalf("negative scale must be rejected, got %v", err)
	}
}

func TestSelectAndDeselect(t *testing.T) {
	env := newEnv(t, nil)
	a := placedSquare(t, env)
	_ = placedSquare(t, env)
	if err := env.m.Select(a.ID()); err != nil {
		t.Fatal(err)
	}
	if env.m.Selection() != a {
		t.Fatalf("select failed")
	}
	vid := env.m.Objects()[0].ID()
	if err := env.m.Select(vid); !errors.Is(err, ErrUnknownObject) {
		t.Fatalf("vehicle must not be selectable, got %v", err)
	}
	env.m.Deselect()
	if env.m.Selection() != nil {
		t.Fatalf("deselect failed")
	}
}

func TestSetTransformAndUpdateText(t *testing.T) {
	env := newEnv(t, nil)
	obj, err := env.f.MakeText("Hi", "", 0, "")
	if err != nil {
		t.Fatal(err)
	}
	w0, _ := obj.NaturalSize()
	if err := env.m.SetTransform(obj.ID(), Transform{CenterX: 10, CenterY: 20, ScaleX: 2, ScaleY: 2, RotationDeg: 370}); err != nil {
		t.Fatal(err)
	}
	if xf := obj.Transform(); xf.CenterX != 10 || xf.RotationDeg != 10 {
		t.Fatalf("unexpected transform: %+v", xf)
	}
	if err := env.m.UpdateText(obj.ID(), "Hello there", "", 0, "#ff0000"); err != nil {
		t.Fatal(err)
	}
	tl := obj.(*TextLabel)
	if tl.Content != "Hello there" || tl.FillColor != "#ff0000" || tl.FontSizePt != 28 {
		t.Fatalf("unexpected label: %+v", tl)
	}
	if w1, _ := tl.NaturalSize(); w1 <= w0 {
		t.Fatalf("longer text should be wider: %v vs %v", w1, w0)
	}
	if err := env.m.UpdateText(obj.ID(), " ", "", 0, ""); !IsValidation(err) {
		t.Fatalf("empty update must be rejected, got %v", err)
	}
	if err := env.m.UpdateText(obj.ID(), "ok", "", 0, "#zz"); !IsValidation(err) {
		t.Fatalf("bad colour update must be rejected, got %v", err)
	}
	if got := env.notes.Messages; len(got) != 2 || got[1] != MsgBadColor {
		t.Fatalf("expected empty-text then colour notices, got %v", got)
	}
	if tl := obj.(*TextLabel); tl.Content != "Hello there" {
		t.Fatalf("rejected update changed the label: %+v", tl)
	}
	sq := placedSquare(t, env)
	if err := env.m.UpdateText(sq.ID(), "x", "", 0, ""); !errors.Is(err, ErrUnknownObject) {
		t.Fatalf("UpdateText on a non-text object should fail, got %v", err)
	}
}

func TestSendBackwardNeverPassesVehicle(t *testing.T) {
	env := newEnv(t, nil)
	a := placedSquare(t, env)
	b := placedSquare(t, env)
	if err := env.m.SendBackward(b.ID()); err != nil {
		t.Fatal(err)
	}
	if err := env.m.SendBackward(b.ID()); err != nil {
		t.Fatal(err)
	}
	objs := env.m.Objects()
	if objs[1] != b || objs[2] != a {
		t.Fatalf("unexpected order after sending backward")
	}
	assertVehicleInvariant(t, env.m)
	if err := env.m.BringForward(objs[0].ID()); !errors.Is(err, ErrUnknownObject) {
		t.Fatalf("vehicle must not be reordered, got %v", err)
	}
}

func TestPreviewDrawsHandlesExportDoesNot(t *testing.T) {
	env := newEnv(t, nil)
	sq := placedSquare(t, env)
	// Move clear of the vehicle so the export sample sees background.
	if err := env.m.Move(-280, 125); err != nil {
		t.Fatal(err)
	}
	preview, err := env.m.RenderPreview(1)
	if err != nil {
		t.Fatal(err)
	}
	export, err := env.m.ExportImage(1)
	if err != nil {
		t.Fatal(err)
	}
	// Top-left corner handle of the 150x150 square centred at (120,400).
	x, y := 120-75, 400-75
	hc := sq.Handles().CornerColor
	if c := preview.RGBAAt(x-3, y); c.R != hc.R || c.G != hc.G || c.B != hc.B {
		t.Fatalf("expected a handle at the corner in preview, got %+v", c)
	}
	if c := export.RGBAAt(x-3, y); c.R != 255 || c.G != 255 || c.B != 255 {
		t.Fatalf("export must not draw handles, got %+v", c)
	}
}

func TestBoundsOfRotatedObject(t *testing.T) {
	env := newEnv(t, nil)
	sq := placedSquare(t, env)
	_ = env.m.SetRotation(90)
	b := Bounds(sq)
	if math.Abs(b.W-150) > 1e-6 || math.Abs(b.Center().X-400) > 1e-6 {
		t.Fatalf("unexpected bounds: %+v", b)
	}
}
