/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// Measurement and rasterization of text labels. Labels are laid out at
// their natural size: one line per '\n', no wrapping, left aligned.

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// FontSpec describes a requested font.
type FontSpec struct {
	Family string // logical family name
	SizePx float64
	Weight int // 100..900, 0 means 400
	Italic bool
}

// Metrics provides font metrics in pixels for the resolved face.
type Metrics struct {
	Ascent, Descent, LineGap float64
}

func (m Metrics) LineHeight() float64 { return m.Ascent + m.Descent + m.LineGap }

// Provider maps FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// BasicProvider uses x/image/basicfont Face7x13 for deterministic tests.
// The requested size is ignored.
type BasicProvider struct{}

func (BasicProvider) Resolve(FontSpec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	return f, metricsOf(f)
}

func metricsOf(f font.Face) Metrics {
	m := f.Metrics()
	return Metrics{
		Ascent:  fixedToFloat(m.Ascent),
		Descent: fixedToFloat(m.Descent),
		LineGap: math.Max(0, fixedToFloat(m.Height-m.Ascent-m.Descent)),
	}
}

func fixedToFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }

// Line is a single laid out line.
type Line struct {
	Text  string
	Width float64
}

// Block is the natural-size layout of a label.
type Block struct {
	Lines   []Line
	Width   float64
	Height  float64
	Metrics Metrics
}

// Measure lays out text without wrapping. Empty text still yields one line
// so a label always has a grabbable height.
func Measure(provider Provider, spec FontSpec, text string) Block {
	if provider == nil {
		provider = BasicProvider{}
	}
	face, met := provider.Resolve(spec)
	d := &font.Drawer{Face: face}
	blk := Block{Metrics: met}
	for _, s := range strings.Split(text, "\n") {
		w := fixedToFloat(d.MeasureString(s))
		blk.Lines = append(blk.Lines, Line{Text: s, Width: w})
		if w > blk.Width {
			blk.Width = w
		}
	}
	blk.Height = float64(len(blk.Lines))*met.LineHeight() - met.LineGap
	if blk.Height < 1 {
		blk.Height = 1
	}
	if blk.Width < 1 {
		blk.Width = 1
	}
	return blk
}

// Rasterize renders text into a transparent image sized to the natural
// block scaled by scale (>= 1 for crisp exports). The font is resolved at
// SizePx*scale so glyphs are not upsampled.
func Rasterize(provider Provider, spec FontSpec, text string, fill color.Color, scale float64) *image.RGBA {
	if provider == nil {
		provider = BasicProvider{}
	}
	if scale <= 0 {
		scale = 1
	}
	scaled := spec
	scaled.SizePx = spec.SizePx * scale
	blk := Measure(provider, scaled, text)
	w := int(math.Ceil(blk.Width))
	h := int(math.Ceil(blk.Height))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	face, met := provider.Resolve(scaled)
	d := &font.Drawer{Dst: img, Src: image.NewUniform(fill), Face: face}
	y := met.Ascent
	for _, ln := range blk.Lines {
		d.Dot = fixed.Point26_6{X: 0, Y: fixed.Int26_6(y * 64)}
		d.DrawString(ln.Text)
		y += met.LineHeight()
	}
	return img
}

// Draw is a convenience that rasterizes text and composites it at (x,y).
func Draw(dst draw.Image, provider Provider, spec FontSpec, text string, fill color.Color, x, y int) {
	src := Rasterize(provider, spec, text, fill, 1)
	r := src.Bounds().Add(image.Pt(x, y))
	draw.Draw(dst, r, src, image.Point{}, draw.Over)
}
