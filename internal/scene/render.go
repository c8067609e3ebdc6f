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
	"image"
	"image/draw"
	"math"

	"github.com/srwiley/rasterx"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/fixed"

	"stickerdesigner/internal/textlayout"
	"stickerdesigner/internal/vector"
)

// composeLocked paints background and objects back to front. Exports use
// Catmull-Rom resampling; previews trade quality for speed.
func (m *Manager) composeLocked(mult float64, preview bool) *image.RGBA {
	w := int(math.Round(float64(m.width) * mult))
	h := int(math.Round(float64(m.height) * mult))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(m.background.RGBA()), image.Point{}, draw.Src)

	var interp xdraw.Transformer = xdraw.CatmullRom
	if preview {
		interp = xdraw.ApproxBiLinear
	}
	view := vector.Scale(mult, mult)
	for _, o := range m.objects {
		drawObject(dst, o, view, mult, m.fonts, interp)
	}
	if preview && m.selected != nil {
		drawHandles(dst, m.selected, view, mult)
	}
	return dst
}

func drawObject(dst *image.RGBA, o Object, view vector.Affine2D, mult float64, fonts textlayout.Provider, interp xdraw.Transformer) {
	w, h := naturalOrBounds(o)
	if w <= 0 || h <= 0 {
		return
	}
	xf := o.Transform()
	dev := mult * math.Max(math.Abs(xf.ScaleX), math.Abs(xf.ScaleY))
	img, local := o.render(fonts, dev)
	if img == nil || img.Bounds().Empty() {
		return
	}
	full := view.Mul(xf.Matrix(w, h)).Mul(local)
	if _, ok := full.Invert(); !ok {
		return
	}
	interp.Transform(dst, full.Aff3(), img, img.Bounds(), xdraw.Over, nil)
}

// drawHandles strokes the selection border and paints the four corner
// handles in device space.
func drawHandles(dst *image.RGBA, o Object, view vector.Affine2D, mult float64) {
	hs := o.Handles()
	w, h := naturalOrBounds(o)
	if w <= 0 || h <= 0 {
		return
	}
	mtx := view.Mul(o.Transform().Matrix(w, h))
	var pts [4]vector.Pt
	for i, c := range vector.R(0, 0, w, h).Corners() {
		pts[i] = mtx.Apply(c)
	}

	b := dst.Bounds()
	scanner := rasterx.NewScannerGV(b.Dx(), b.Dy(), dst, b)
	dasher := rasterx.NewDasher(b.Dx(), b.Dy(), scanner)

	bw := hs.BorderScaleFactor
	if bw <= 0 {
		bw = 1
	}
	dasher.SetStroke(toFixed(bw*mult), toFixed(4), rasterx.ButtCap, rasterx.ButtCap, rasterx.FlatGap, rasterx.Miter, nil, 0)
	dasher.Start(toPoint(pts[0]))
	for _, p := range pts[1:] {
		dasher.Line(toPoint(p))
	}
	dasher.Stop(true)
	dasher.SetColor(hs.BorderColor.RGBA())
	dasher.Draw()
	dasher.Clear()

	r := hs.CornerSize * mult / 2
	if r <= 0 {
		return
	}
	rot := o.Transform().RotationDeg
	var painter interface {
		rasterx.Adder
		SetColor(interface{})
		Draw()
	}
	if hs.TransparentCorners {
		dasher.SetStroke(toFixed(mult), toFixed(4), rasterx.ButtCap, rasterx.ButtCap, rasterx.FlatGap, rasterx.Miter, nil, 0)
		painter = dasher
	} else {
		painter = rasterx.NewFiller(b.Dx(), b.Dy(), scanner)
	}
	for _, p := range pts {
		if hs.CornerShape == "rect" || hs.CornerShape == "square" {
			rasterx.AddRect(p.X-r, p.Y-r, p.X+r, p.Y+r, rot, painter)
		} else {
			rasterx.AddCircle(p.X, p.Y, r, painter)
		}
	}
	painter.SetColor(hs.CornerColor.RGBA())
	painter.Draw()
}

func toFixed(v float64) fixed.Int26_6 { return fixed.Int26_6(math.Round(v * 64)) }

func toPoint(p vector.Pt) fixed.Point26_6 {
	return fixed.Point26_6{X: toFixed(p.X), Y: toFixed(p.Y)}
}
