/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"stickerdesigner/internal/assets"
	"stickerdesigner/internal/domain"
	"stickerdesigner/internal/scene"
)

// Document is a resolution-independent snapshot of a scene.
type Document struct {
	Width      int
	Height     int
	Background string
	Stickers   []domain.StickerDescriptor
}

// DocumentOf snapshots m. The scene must be bound to a canvas.
func DocumentOf(m *scene.Manager) (Document, error) {
	if !m.Active() {
		return Document{}, scene.ErrNoCanvas
	}
	w, h := m.Size()
	return Document{
		Width:      w,
		Height:     h,
		Background: m.Profile().Background,
		Stickers:   m.Descriptors(),
	}, nil
}

// SVG writes doc as a standalone SVG document. Images and vector stickers
// are referenced through <image>, the vehicle is embedded as a data URL and
// text stays editable as <text>.
func SVG(w io.Writer, doc Document) error {
	if doc.Width <= 0 || doc.Height <= 0 {
		return scene.ErrNoCanvas
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		doc.Width, doc.Height, doc.Width, doc.Height)
	bg := doc.Background
	if bg == "" {
		bg = "#ffffff"
	}
	fmt.Fprintf(&b, `  <rect x="0" y="0" width="%d" height="%d" fill="%s"/>`+"\n", doc.Width, doc.Height, attr(bg))

	for _, s := range doc.Stickers {
		if s.Width <= 0 || s.Height <= 0 {
			continue
		}
		fmt.Fprintf(&b, `  <g id="%s" transform="%s">`+"\n", attr(s.ID), transformOf(s))
		switch s.Type {
		case domain.TypeVehicle:
			href := assets.DataURL(assets.MIMESVG, []byte(scene.VehicleMarkup(s.Vehicle)))
			writeImage(&b, href, s.Width, s.Height)
		case domain.TypeImage, domain.TypeVector:
			writeImage(&b, s.Source, s.Width, s.Height)
		case domain.TypeText:
			writeText(&b, s)
		}
		b.WriteString("  </g>\n")
	}
	b.WriteString("</svg>\n")
	_, err := w.Write(b.Bytes())
	return err
}

// transformOf maps the local box (origin top-left) onto the canvas.
func transformOf(s domain.StickerDescriptor) string {
	sx, sy := s.ScaleX, s.ScaleY
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	return fmt.Sprintf("translate(%s %s) rotate(%s) scale(%s %s) translate(%s %s)",
		num(s.Left), num(s.Top), num(s.Angle), num(sx), num(sy), num(-s.Width/2), num(-s.Height/2))
}

func writeImage(b *bytes.Buffer, href string, w, h float64) {
	if href == "" {
		return
	}
	fmt.Fprintf(b, `    <image x="0" y="0" width="%s" height="%s" preserveAspectRatio="none" href="%s" xlink:href="%s"/>`+"\n",
		num(w), num(h), attr(href), attr(href))
}

func writeText(b *bytes.Buffer, s domain.StickerDescriptor) {
	size := s.FontSize
	if size <= 0 {
		size = 24
	}
	fill := s.Fill
	if fill == "" {
		fill = "#000000"
	}
	lines := strings.Split(s.Text, "\n")
	lh := s.Height / float64(len(lines))
	fmt.Fprintf(b, `    <text font-family="%s" font-size="%s" fill="%s" dominant-baseline="text-before-edge">`,
		attr(s.FontFamily), num(size), attr(fill))
	for i, ln := range lines {
		fmt.Fprintf(b, `<tspan x="0" y="%s">%s</tspan>`, num(float64(i)*lh), text(ln))
	}
	b.WriteString("</text>\n")
}

func num(v float64) string {
	s := fmt.Sprintf("%.3f", v)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}

func attr(s string) string { return text(s) }

func text(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
