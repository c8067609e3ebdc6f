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
	"math"

	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"

	"stickerdesigner/internal/assets"
	"stickerdesigner/internal/config"
	"stickerdesigner/internal/domain"
	"stickerdesigner/internal/textlayout"
	"stickerdesigner/internal/vector"
)

// Kind discriminates the object variants.
type Kind int

const (
	KindVehicle Kind = iota
	KindImage
	KindVector
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindVehicle:
		return domain.TypeVehicle
	case KindImage:
		return domain.TypeImage
	case KindVector:
		return domain.TypeVector
	case KindText:
		return domain.TypeText
	}
	return "unknown"
}

// Transform places an object on the canvas. The origin is always the
// object's centre; rotation is clockwise in degrees.
type Transform struct {
	CenterX, CenterY float64
	ScaleX, ScaleY   float64
	RotationDeg      float64
}

// IdentityTransform is a unit transform centred at the origin.
var IdentityTransform = Transform{ScaleX: 1, ScaleY: 1}

// Matrix maps object-local coordinates (0..w, 0..h) onto the canvas.
func (t Transform) Matrix(w, h float64) vector.Affine2D {
	return vector.Translate(t.CenterX, t.CenterY).
		Mul(vector.Rotate(vector.Deg2Rad(t.RotationDeg))).
		Mul(vector.Scale(t.ScaleX, t.ScaleY)).
		Mul(vector.Translate(-w/2, -h/2))
}

// HandleStyle is the selection affordance shared by every interactive object.
type HandleStyle struct {
	CornerSize         float64
	CornerColor        vector.Color
	CornerShape        string // circle | rect
	TransparentCorners bool
	BorderColor        vector.Color
	BorderScaleFactor  float64
}

// HandleStyleFrom converts the config record; bad colours fall back to black.
func HandleStyleFrom(c config.HandleConfig) HandleStyle {
	return HandleStyle{
		CornerSize:         c.CornerSize,
		CornerColor:        vector.MustParseHex(c.CornerColor),
		CornerShape:        c.CornerShape,
		TransparentCorners: c.TransparentCorners,
		BorderColor:        vector.MustParseHex(c.BorderColor),
		BorderScaleFactor:  c.BorderScaleFactor,
	}
}

// DefaultHandleStyle is the style from config.Defaults.
func DefaultHandleStyle() HandleStyle { return HandleStyleFrom(config.Defaults().Handles) }

// Object is a scene entry. The set of implementations is closed:
// *Vehicle, *StickerImage, *StickerVector and *TextLabel.
//
// Objects handed out by a Manager must only be mutated through it.
type Object interface {
	ID() string
	Kind() Kind
	// NaturalSize is the untransformed size in canvas pixels; zero when unknown.
	NaturalSize() (w, h float64)
	Transform() Transform
	Interactive() bool
	Handles() HandleStyle

	base() *objectBase
	// render returns a bitmap of the object in local coordinates together
	// with the matrix mapping bitmap pixels to local units. scale is the
	// device pixels per local unit the bitmap should aim for.
	render(fonts textlayout.Provider, scale float64) (image.Image, vector.Affine2D)
	descriptor() domain.StickerDescriptor
}

type objectBase struct {
	id      string
	xf      Transform
	handles HandleStyle
}

func newBase() objectBase { return objectBase{id: uuid.NewString(), xf: IdentityTransform} }

func (b *objectBase) ID() string           { return b.id }
func (b *objectBase) Transform() Transform { return b.xf }
func (b *objectBase) Handles() HandleStyle { return b.handles }
func (b *objectBase) base() *objectBase    { return b }
func (b *objectBase) Interactive() bool    { return true }
func (b *objectBase) fill(d *domain.StickerDescriptor, w, h float64) {
	d.ID = b.id
	d.Left, d.Top = b.xf.CenterX, b.xf.CenterY
	d.ScaleX, d.ScaleY = b.xf.ScaleX, b.xf.ScaleY
	d.Angle = b.xf.RotationDeg
	d.Width, d.Height = w, h
}

// Vehicle is the non-interactive silhouette painted behind everything else.
type Vehicle struct {
	objectBase
	VehicleKind string
	art         *assets.Vector
}

func newVehicle(kind string) (*Vehicle, error) {
	kind = NormalizeVehicle(kind)
	art, err := assets.ParseVector([]byte(VehicleMarkup(kind)))
	if err != nil {
		return nil, err
	}
	return &Vehicle{objectBase: newBase(), VehicleKind: kind, art: art}, nil
}

func (v *Vehicle) Kind() Kind                      { return KindVehicle }
func (v *Vehicle) Interactive() bool               { return false }
func (v *Vehicle) NaturalSize() (float64, float64) { return v.art.Size() }
func (v *Vehicle) render(_ textlayout.Provider, scale float64) (image.Image, vector.Affine2D) {
	return rasterizeVector(v.art, scale)
}
func (v *Vehicle) descriptor() domain.StickerDescriptor {
	d := domain.StickerDescriptor{Type: domain.TypeVehicle, Vehicle: v.VehicleKind}
	w, h := v.NaturalSize()
	v.fill(&d, w, h)
	return d
}

// StickerImage is a raster (or pre-rasterized vector) sticker.
type StickerImage struct {
	objectBase
	SourceRef     string
	NaturalWidth  int
	NaturalHeight int
	img           image.Image
}

// NewStickerImage wraps a decoded image.
func NewStickerImage(ref string, img image.Image) *StickerImage {
	b := img.Bounds()
	return &StickerImage{objectBase: newBase(), SourceRef: ref, NaturalWidth: b.Dx(), NaturalHeight: b.Dy(), img: img}
}

func (s *StickerImage) Kind() Kind { return KindImage }
func (s *StickerImage) NaturalSize() (float64, float64) {
	return float64(s.NaturalWidth), float64(s.NaturalHeight)
}
func (s *StickerImage) Image() image.Image { return s.img }
func (s *StickerImage) render(textlayout.Provider, float64) (image.Image, vector.Affine2D) {
	b := s.img.Bounds()
	return s.img, vector.Translate(-float64(b.Min.X), -float64(b.Min.Y))
}
func (s *StickerImage) descriptor() domain.StickerDescriptor {
	d := domain.StickerDescriptor{Type: domain.TypeImage, Source: s.SourceRef}
	w, h := s.NaturalSize()
	s.fill(&d, w, h)
	return d
}

// StickerVector is an SVG document placed as one grouped unit.
type StickerVector struct {
	objectBase
	SourceRef    string // empty for inline markup
	SourceMarkup string
	BoundingBox  vector.Rect
	Placeholder  bool
	art          *assets.Vector
}

// NewStickerVector parses markup into a grouped vector sticker.
func NewStickerVector(ref string, markup []byte) (*StickerVector, error) {
	art, err := assets.ParseVector(markup)
	if err != nil {
		return nil, err
	}
	return &StickerVector{
		objectBase:   newBase(),
		SourceRef:    ref,
		SourceMarkup: string(markup),
		BoundingBox:  art.BoundingBox(),
		art:          art,
	}, nil
}

// NewPlaceholder returns the neutral fallback sticker.
func NewPlaceholder() *StickerVector {
	sv, err := NewStickerVector("", []byte(placeholderSVG))
	if err != nil {
		// The embedded markup always parses.
		panic(err)
	}
	sv.Placeholder = true
	return sv
}

func (s *StickerVector) Kind() Kind { return KindVector }
func (s *StickerVector) NaturalSize() (float64, float64) {
	return s.art.Size()
}
func (s *StickerVector) bounds() vector.Rect { return s.BoundingBox }
func (s *StickerVector) render(fonts textlayout.Provider, scale float64) (image.Image, vector.Affine2D) {
	img, local := rasterizeVector(s.art, scale)
	if rgba, ok := img.(*image.RGBA); ok && s.Placeholder {
		drawPlaceholderCaption(rgba, fonts)
	}
	return img, local
}

// drawPlaceholderCaption centres the placeholder caption on the tile.
// oksvg has no text support, so the label is rasterized with the scene fonts.
func drawPlaceholderCaption(dst *image.RGBA, fonts textlayout.Provider) {
	b := dst.Bounds()
	k := float64(b.Dx()) / placeholderSide
	if !(k > 0) {
		return
	}
	spec := textlayout.FontSpec{Family: placeholderFont, SizePx: placeholderCaptionPx}
	txt := textlayout.Rasterize(fonts, spec, placeholderCaption, vector.MustParseHex(placeholderCaptionFill).RGBA(), k)
	tb := txt.Bounds()
	x := b.Min.X + (b.Dx()-tb.Dx())/2
	y := b.Min.Y + (b.Dy()-tb.Dy())/2
	xdraw.Draw(dst, tb.Add(image.Pt(x, y)), txt, image.Point{}, xdraw.Over)
}
func (s *StickerVector) descriptor() domain.StickerDescriptor {
	d := domain.StickerDescriptor{Type: domain.TypeVector, Source: s.SourceRef}
	if s.SourceRef == "" {
		d.Source = assets.DataURL(assets.MIMESVG, []byte(s.SourceMarkup))
	}
	w, h := s.NaturalSize()
	s.fill(&d, w, h)
	return d
}

// TextLabel is free text laid out at its natural size.
type TextLabel struct {
	objectBase
	Content    string
	FontFamily string
	FontSizePt float64
	FillColor  string
	w, h       float64
}

func newTextLabel(fonts textlayout.Provider, content, family string, size float64, fill string) *TextLabel {
	t := &TextLabel{objectBase: newBase()}
	t.set(fonts, content, family, size, fill)
	return t
}

func (t *TextLabel) set(fonts textlayout.Provider, content, family string, size float64, fill string) {
	t.Content, t.FontFamily, t.FontSizePt, t.FillColor = content, family, size, fill
	blk := textlayout.Measure(fonts, t.fontSpec(1), content)
	t.w, t.h = blk.Width, blk.Height
}

func (t *TextLabel) fontSpec(scale float64) textlayout.FontSpec {
	return textlayout.FontSpec{Family: t.FontFamily, SizePx: t.FontSizePt * scale}
}

func (t *TextLabel) Kind() Kind                      { return KindText }
func (t *TextLabel) NaturalSize() (float64, float64) { return t.w, t.h }
func (t *TextLabel) render(fonts textlayout.Provider, scale float64) (image.Image, vector.Affine2D) {
	scale = clampRasterScale(scale, t.w, t.h)
	img := textlayout.Rasterize(fonts, t.fontSpec(1), t.Content, vector.MustParseHex(t.FillColor).RGBA(), scale)
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return img, vector.Identity
	}
	return img, vector.Scale(t.w/float64(b.Dx()), t.h/float64(b.Dy()))
}
func (t *TextLabel) descriptor() domain.StickerDescriptor {
	d := domain.StickerDescriptor{Type: domain.TypeText, Text: t.Content, FontFamily: t.FontFamily, FontSize: t.FontSizePt, Fill: t.FillColor}
	t.fill(&d, t.w, t.h)
	return d
}

// maxRasterSide bounds intermediate bitmaps for very large scales.
const maxRasterSide = 4096

func clampRasterScale(scale, w, h float64) float64 {
	if scale <= 0 || math.IsNaN(scale) {
		scale = 1
	}
	if side := math.Max(w, h) * scale; side > maxRasterSide {
		scale = maxRasterSide / math.Max(w, h)
	}
	return scale
}

func rasterizeVector(art *assets.Vector, scale float64) (image.Image, vector.Affine2D) {
	w, h := art.Size()
	scale = clampRasterScale(scale, w, h)
	rw := int(math.Ceil(w * scale))
	rh := int(math.Ceil(h * scale))
	img := art.Rasterize(rw, rh)
	return img, vector.Scale(w/float64(img.Bounds().Dx()), h/float64(img.Bounds().Dy()))
}
