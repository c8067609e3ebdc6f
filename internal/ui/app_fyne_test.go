//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// These tests validate the Fyne-based designer widgets. They are gated behind
// the "fyne" build tag so CI (which is headless) does not need Fyne or a display.
// To run locally:
//
//	go test -tags fyne ./internal/ui
package ui

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"

	"stickerdesigner/internal/catalog"
	applog "stickerdesigner/internal/log"
	"stickerdesigner/internal/scene"
	"stickerdesigner/internal/textlayout"
)

func almostEqual(a, b, eps float32) bool {
	if a > b {
		return a-b <= eps
	}
	return b-a <= eps
}

func newCanvasScene(t *testing.T) (*scene.Manager, *scene.Factory) {
	t.Helper()
	m := scene.NewManager(scene.Options{Fonts: textlayout.BasicProvider{}, Logger: applog.Discard()})
	if err := m.Reset(800, 500); err != nil {
		t.Fatalf("reset: %v", err)
	}
	return m, scene.NewFactory(m, nil)
}

func TestFitInto_Letterboxes(t *testing.T) {
	ox, oy, scale := fitInto(fyne.NewSize(1000, 500), 800, 500)
	if !almostEqual(scale, 1, 0.001) || !almostEqual(ox, 100, 0.01) || oy != 0 {
		t.Fatalf("wide: ox=%v oy=%v scale=%v", ox, oy, scale)
	}
	ox, oy, scale = fitInto(fyne.NewSize(400, 400), 800, 500)
	if !almostEqual(scale, 0.5, 0.001) || ox != 0 || !almostEqual(oy, 75, 0.01) {
		t.Fatalf("narrow: ox=%v oy=%v scale=%v", ox, oy, scale)
	}
	if _, _, s := fitInto(fyne.NewSize(0, 0), 800, 500); s != 1 {
		t.Fatalf("empty widget should fall back to scale 1, got %v", s)
	}
}

func TestStickerCanvas_TapSelectsAndDeselects(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	m, f := newCanvasScene(t)
	obj, err := f.MakeText("Hi", "", 0, "")
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	m.Deselect()

	sc := NewStickerCanvas(m)
	sc.Resize(fyne.NewSize(800, 500))

	xf := obj.Transform()
	sc.Tapped(&fyne.PointEvent{Position: fyne.NewPos(float32(xf.CenterX), float32(xf.CenterY))})
	if sel := m.Selection(); sel == nil || sel.ID() != obj.ID() {
		t.Fatalf("expected text selected, got %v", sel)
	}
	sc.Tapped(&fyne.PointEvent{Position: fyne.NewPos(2, 2)})
	if m.Selection() != nil {
		t.Fatal("tap on empty area should deselect")
	}
}

func TestStickerCanvas_DragMovesSelection(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	m, f := newCanvasScene(t)
	obj, err := f.MakeText("Move me", "", 0, "")
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	m.Deselect()
	sc := NewStickerCanvas(m)
	// Half size: one widget pixel is two canvas pixels.
	sc.Resize(fyne.NewSize(400, 250))

	before := obj.Transform()
	start := fyne.NewPos(float32(before.CenterX/2), float32(before.CenterY/2))
	sc.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: start.Add(fyne.NewDelta(5, 0))}, Dragged: fyne.NewDelta(5, 0)})
	sc.DragEnd()

	after := m.Selection()
	if after == nil || after.ID() != obj.ID() {
		t.Fatal("drag should select the object under the pointer")
	}
	if dx := after.Transform().CenterX - before.CenterX; dx < 9.99 || dx > 10.01 {
		t.Fatalf("expected move of 10 canvas px, got %v", dx)
	}
}

func TestStickerCanvas_ScrollScalesSelection(t *testing.T) {
	m, f := newCanvasScene(t)
	if _, err := f.MakeText("Zoom", "", 0, ""); err != nil {
		t.Fatalf("text: %v", err)
	}
	sel := m.Selection()
	if sel == nil {
		t.Fatal("new text should be selected")
	}
	sc := NewStickerCanvas(m)
	hooks := 0
	sc.OnBeforeChange = func() { hooks++ }
	before := sel.Transform().ScaleX
	sc.Scrolled(&fyne.ScrollEvent{Scrolled: fyne.NewDelta(0, 1)})
	if hooks != 1 {
		t.Fatalf("OnBeforeChange calls = %d", hooks)
	}
	if got := m.Selection().Transform().ScaleX; !almostEqual(float32(got), float32(before*1.05), 0.0001) {
		t.Fatalf("scale after scroll = %v, want %v", got, before*1.05)
	}
}

func TestStickerCanvas_RendererShowsPreview(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	m, _ := newCanvasScene(t)
	sc := NewStickerCanvas(m)
	r, ok := sc.CreateRenderer().(*stickerCanvasRenderer)
	if !ok {
		t.Fatalf("expected stickerCanvasRenderer, got %T", sc.CreateRenderer())
	}
	r.Layout(fyne.NewSize(1000, 500))
	if r.img.Image == nil || !r.img.Visible() {
		t.Fatal("preview image should be visible for an active scene")
	}
	if pos := r.img.Position(); !almostEqual(pos.X, 100, 0.01) {
		t.Fatalf("preview offset = %v, want 100", pos.X)
	}

	m.Dispose()
	r.Refresh()
	if r.img.Visible() {
		t.Fatal("preview should hide once the scene is disposed")
	}
}

func TestFilterCatalog_All(t *testing.T) {
	c := catalog.New([]catalog.Entry{{ID: 1, Name: "Flame", Category: "racing"}, {ID: 2, Name: "Star", Category: "shapes"}})
	if got := len(filterCatalog(c, allCategories)); got != 2 {
		t.Fatalf("All = %d entries", got)
	}
	if got := filterCatalog(c, "racing"); len(got) != 1 || got[0].Name != "Flame" {
		t.Fatalf("racing = %+v", got)
	}
	if opts := categoryOptions(c); opts[0] != allCategories || len(opts) != 3 {
		t.Fatalf("options = %v", opts)
	}
}
