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
	"math"
	"testing"

	"stickerdesigner/internal/config"
	"stickerdesigner/internal/textlayout"
)

func compactPlacement(t *testing.T) Placement {
	t.Helper()
	p, err := config.Profile(config.ProfileCompact)
	if err != nil {
		t.Fatal(err)
	}
	return PlacementFrom(p, DefaultHandleStyle())
}

func TestAutoScale(t *testing.T) {
	p := compactPlacement(t)
	cases := []struct {
		name string
		w, h float64
		want float64
	}{
		{"large image bound by height", 2000, 1000, 0.175},
		{"wide image bound by width", 4000, 100, 0.1},
		{"tiny image capped", 10, 10, 1.5},
		{"unknown size", 0, 0, 1},
		{"half known", 100, 0, 1},
		{"nan", math.NaN(), 10, 1},
	}
	for _, c := range cases {
		got := p.AutoScale(c.w, c.h, 800, 500)
		if math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("%s: AutoScale = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestAutoScaleClassicProfile(t *testing.T) {
	prof, _ := config.Profile(config.ProfileClassic)
	p := PlacementFrom(prof, DefaultHandleStyle())
	// target 480x240 on 800x600
	if got := p.AutoScale(960, 240, 800, 600); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("AutoScale = %v, want 0.5", got)
	}
}

func TestAutoScaleNeverExceedsCeiling(t *testing.T) {
	for _, limit := range []float64{0, -1, 4, math.NaN()} {
		p := compactPlacement(t)
		p.MaxAutoScale = limit
		if got := p.AutoScale(10, 10, 800, 500); got != 1.5 {
			t.Fatalf("MaxAutoScale=%v: AutoScale = %v, want 1.5", limit, got)
		}
	}
	p := compactPlacement(t)
	p.MaxAutoScale = 1.2
	if got := p.AutoScale(10, 10, 800, 500); got != 1.2 {
		t.Fatalf("lower limit not honoured: %v", got)
	}
}

func TestPlaceholderRasterDrawsCaption(t *testing.T) {
	ph := NewPlaceholder()
	plain, _ := rasterizeVector(ph.art, 2)
	img, _ := ph.render(textlayout.BasicProvider{}, 2)
	b := img.Bounds()
	if b != plain.Bounds() {
		t.Fatalf("bounds differ: %v vs %v", b, plain.Bounds())
	}
	changed := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.At(x, y) != plain.At(x, y) {
				changed++
			}
		}
	}
	if changed == 0 {
		t.Fatal("placeholder caption was not drawn")
	}
}

func TestApplyPositionsAndStyles(t *testing.T) {
	p := compactPlacement(t)
	ph := NewPlaceholder()
	p.Apply(ph, 800, 500)
	xf := ph.Transform()
	if xf.CenterX != 400 || xf.CenterY != 275 {
		t.Fatalf("unexpected centre: %+v", xf)
	}
	if xf.ScaleX != xf.ScaleY || xf.ScaleX > 1.5 {
		t.Fatalf("expected uniform scale <= 1.5, got %+v", xf)
	}
	if ph.Handles() != DefaultHandleStyle() {
		t.Fatalf("handle style not applied: %+v", ph.Handles())
	}
	if ph.Handles().CornerShape != "circle" || ph.Handles().CornerSize != 10 {
		t.Fatalf("unexpected default handle style: %+v", ph.Handles())
	}
}

func TestApplyFallsBackToBoundingBox(t *testing.T) {
	sv, err := NewStickerVector("", []byte(`<svg xmlns="http://www.w3.org/2000/svg"><rect x="0" y="0" width="1000" height="100" fill="red"/></svg>`))
	if err != nil {
		t.Fatal(err)
	}
	p := compactPlacement(t)
	p.Apply(sv, 800, 500)
	if got := sv.Transform().ScaleX; math.Abs(got-0.4) > 1e-6 {
		t.Fatalf("expected scale from path extents 0.4, got %v", got)
	}
}
