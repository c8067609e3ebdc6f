/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package assets

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/webp"

	"stickerdesigner/internal/vector"
)

// Allowed upload media types.
const (
	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
	MIMESVG  = "image/svg+xml"
	MIMEWebP = "image/webp"
)

// SniffMIME guesses the media type from content, using the file name
// extension only to recognise SVG when the bytes are inconclusive.
func SniffMIME(data []byte, name string) string {
	if looksLikeSVG(data) {
		return MIMESVG
	}
	ct := http.DetectContentType(data)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	if strings.HasPrefix(ct, "image/") {
		return ct
	}
	if strings.EqualFold(filepath.Ext(name), ".svg") {
		return MIMESVG
	}
	return ct
}

func looksLikeSVG(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(bytes.ToLower(head), []byte("<svg"))
}

// DecodeRaster decodes PNG, JPEG, GIF or WebP bytes.
func DecodeRaster(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.New("decode image: empty data")
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("decode image: empty %s", format)
	}
	return img, nil
}

// Vector is a parsed SVG document kept as one grouped unit.
type Vector struct {
	Markup []byte
	mu     sync.Mutex
	icon   *oksvg.SvgIcon
	box    vector.Rect
}

// ParseVector parses SVG markup. Documents with neither a usable viewBox
// (or width/height) nor any drawable path are rejected.
func ParseVector(markup []byte) (*Vector, error) {
	if !looksLikeSVG(markup) {
		return nil, errors.New("parse svg: no <svg> element")
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}
	v := &Vector{Markup: append([]byte(nil), markup...), icon: icon}
	v.box = vector.R(icon.ViewBox.X, icon.ViewBox.Y, icon.ViewBox.W, icon.ViewBox.H)
	if v.box.Empty() {
		pb := pathBounds(icon)
		if pb.Empty() {
			return nil, errors.New("parse svg: nothing to draw")
		}
		v.box = pb
		icon.ViewBox.X, icon.ViewBox.Y, icon.ViewBox.W, icon.ViewBox.H = pb.X, pb.Y, pb.W, pb.H
	}
	return v, nil
}

// Size is the declared document size (viewBox, or width/height attributes).
func (v *Vector) Size() (w, h float64) {
	return v.box.W, v.box.H
}

// BoundingBox returns the extents of the drawable paths, falling back to
// the declared box when the document has no paths.
func (v *Vector) BoundingBox() vector.Rect {
	v.mu.Lock()
	defer v.mu.Unlock()
	if pb := pathBounds(v.icon); !pb.Empty() {
		return pb
	}
	return v.box
}

// Rasterize draws the document stretched to w×h pixels.
func (v *Vector) Rasterize(w, h int) *image.RGBA {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	v.mu.Lock()
	defer v.mu.Unlock()
	v.icon.SetTarget(0, 0, float64(w), float64(h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	v.icon.Draw(raster, 1.0)
	return img
}

// pathBounds scans the untransformed path coordinates of every element.
// rasterx encodes a path as a command word followed by its points.
func pathBounds(icon *oksvg.SvgIcon) vector.Rect {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	seen := false
	for _, sp := range icon.SVGPaths {
		p := sp.Path
		for i := 0; i < len(p); {
			n := 0
			switch rasterx.PathCommand(p[i]) {
			case rasterx.PathMoveTo, rasterx.PathLineTo:
				n = 1
			case rasterx.PathQuadTo:
				n = 2
			case rasterx.PathCubicTo:
				n = 3
			}
			i++
			for k := 0; k < n && i+1 < len(p); k++ {
				x := float64(p[i]) / 64
				y := float64(p[i+1]) / 64
				minX, minY = math.Min(minX, x), math.Min(minY, y)
				maxX, maxY = math.Max(maxX, x), math.Max(maxY, y)
				seen = true
				i += 2
			}
		}
	}
	if !seen {
		return vector.Rect{}
	}
	return vector.R(minX, minY, maxX-minX, maxY-minY)
}

// ToRGBA copies img into a fresh RGBA so it can be transformed safely.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
