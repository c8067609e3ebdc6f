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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"stickerdesigner/internal/assets"
	"stickerdesigner/internal/config"
	applog "stickerdesigner/internal/log"
	"stickerdesigner/internal/vector"
)

// Source resolves a reference to bytes. *assets.Fetcher implements it.
type Source interface {
	Fetch(ctx context.Context, ref string) (*assets.Asset, error)
}

// UserFile is what a file picker or drop zone hands over.
type UserFile struct {
	Name string
	MIME string
	Data []byte
}

// AllowedUploadTypes is the MIME allow-list for user files.
var AllowedUploadTypes = []string{assets.MIMEPNG, assets.MIMEJPEG, assets.MIMESVG, assets.MIMEWebP}

// TextDefaults fill in MakeText arguments left empty.
type TextDefaults struct {
	Family string
	Size   float64
	Color  string
}

// TextDefaultsFrom converts the text config section.
func TextDefaultsFrom(c config.TextConfig) TextDefaults {
	return TextDefaults{Family: c.Font, Size: c.Size, Color: c.Color}
}

// Factory turns references, uploads and text into placed scene objects.
type Factory struct {
	m    *Manager
	src  Source
	Text TextDefaults
	log  *slog.Logger
}

// NewFactory binds a factory to m. A nil src uses an assets.Fetcher with
// default limits.
func NewFactory(m *Manager, src Source) *Factory {
	if src == nil {
		src = assets.NewFetcher(config.Defaults().Assets)
	}
	return &Factory{
		m:    m,
		src:  src,
		Text: TextDefaultsFrom(config.Defaults().Text),
		log:  applog.WithComponent("factory"),
	}
}

// Add routes a catalog or dropped reference by ClassifyReference.
func (f *Factory) Add(ctx context.Context, ref string) (Object, error) {
	if ClassifyReference(ref) == Vector {
		return f.FromVectorMarkup(ctx, ref)
	}
	return f.FromImageReference(ctx, ref)
}

// FromImageReference decodes a raster reference and places it. Failures
// substitute the placeholder sticker; the error is only logged.
func (f *Factory) FromImageReference(ctx context.Context, ref string) (Object, error) {
	gen, err := f.m.begin()
	if err != nil {
		return nil, err
	}
	lctx := applog.WithGeneration(ctx, gen)
	obj, lerr := f.loadRaster(ctx, ref)
	if lerr != nil {
		f.log.WarnContext(lctx, "image load failed; using placeholder", slog.String("ref", assets.Abbrev(ref)), slog.Any("err", lerr))
		obj = NewPlaceholder()
	}
	return f.finish(lctx, gen, obj)
}

// FromVectorMarkup parses inline SVG markup, or fetches a reference first,
// into one grouped sticker. Failures substitute the placeholder.
func (f *Factory) FromVectorMarkup(ctx context.Context, refOrMarkup string) (Object, error) {
	gen, err := f.m.begin()
	if err != nil {
		return nil, err
	}
	lctx := applog.WithGeneration(ctx, gen)
	obj, lerr := f.loadVector(ctx, refOrMarkup)
	if lerr != nil {
		f.log.WarnContext(lctx, "svg load failed; using placeholder", slog.String("ref", assets.Abbrev(refOrMarkup)), slog.Any("err", lerr))
		obj = NewPlaceholder()
	}
	return f.finish(lctx, gen, obj)
}

// FromUserFile checks the MIME allow-list, then dispatches the file as a
// data URL. Rejected files notify the user and leave the scene alone.
func (f *Factory) FromUserFile(ctx context.Context, file UserFile) (Object, error) {
	if _, err := f.m.begin(); err != nil {
		return nil, err
	}
	mime := normalizeMIME(file.MIME)
	if !allowedUpload(mime) {
		f.m.notify.Notify(MsgBadUploadType)
		f.log.Info("upload rejected", slog.String("name", file.Name), slog.String("mime", file.MIME))
		return nil, &ValidationError{Message: MsgBadUploadType}
	}
	ref := assets.DataURL(mime, file.Data)
	if mime == assets.MIMESVG {
		return f.FromVectorMarkup(ctx, ref)
	}
	return f.FromImageReference(ctx, ref)
}

// MakeText inserts a label at the canvas centre at natural size. Empty
// family, size or colour take the factory's text defaults.
func (f *Factory) MakeText(content, family string, sizePt float64, fill string) (Object, error) {
	gen, err := f.m.begin()
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		f.m.notify.Notify(MsgEmptyText)
		return nil, &ValidationError{Message: MsgEmptyText}
	}
	if family == "" {
		family = f.Text.Family
	}
	if sizePt <= 0 {
		sizePt = f.Text.Size
	}
	if fill == "" {
		fill = f.Text.Color
	}
	if _, err := vector.ParseHex(fill); err != nil {
		f.m.notify.Notify(MsgBadColor)
		return nil, &ValidationError{Message: MsgBadColor, Err: err}
	}
	tl := newTextLabel(f.m.fonts, content, family, sizePt, fill)
	w, h := f.m.Size()
	tl.xf = Transform{CenterX: float64(w) / 2, CenterY: float64(h) / 2, ScaleX: 1, ScaleY: 1}
	tl.handles = f.m.placement.Handles
	if err := f.m.commit(gen, tl, false); err != nil {
		return nil, err
	}
	return tl, nil
}

func (f *Factory) finish(ctx context.Context, gen uint64, obj Object) (Object, error) {
	if err := f.m.commit(gen, obj, true); err != nil {
		if errors.Is(err, ErrStaleScene) {
			f.log.InfoContext(ctx, "discarding result for a replaced scene", slog.String("kind", obj.Kind().String()))
		}
		return nil, err
	}
	t := obj.Transform()
	f.log.DebugContext(ctx, "object added", slog.String("kind", obj.Kind().String()), slog.String("id", obj.ID()), slog.Float64("scale", t.ScaleX))
	return obj, nil
}

func (f *Factory) loadRaster(ctx context.Context, ref string) (Object, error) {
	start := time.Now()
	a, err := f.src.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	// An SVG reached through the raster path is rasterized at its natural size.
	if a.MIME == assets.MIMESVG {
		v, err := assets.ParseVector(a.Data)
		if err != nil {
			return nil, err
		}
		w, h := v.Size()
		return NewStickerImage(ref, v.Rasterize(int(w+0.5), int(h+0.5))), nil
	}
	img, err := assets.DecodeRaster(a.Data)
	if err != nil {
		return nil, err
	}
	f.log.Debug("image decoded", slog.String("ref", assets.Abbrev(ref)), slog.Duration("took", time.Since(start)))
	return NewStickerImage(ref, img), nil
}

func (f *Factory) loadVector(ctx context.Context, refOrMarkup string) (Object, error) {
	s := strings.TrimSpace(refOrMarkup)
	if strings.HasPrefix(s, "<") {
		return NewStickerVector("", []byte(s))
	}
	a, err := f.src.Fetch(ctx, s)
	if err != nil {
		return nil, err
	}
	ref := s
	if strings.HasPrefix(strings.ToLower(s), "data:") {
		ref = ""
	}
	sv, err := NewStickerVector(ref, a.Data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", assets.Abbrev(s), err)
	}
	return sv, nil
}

func normalizeMIME(m string) string {
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = m[:i]
	}
	return strings.ToLower(strings.TrimSpace(m))
}

func allowedUpload(mime string) bool {
	for _, a := range AllowedUploadTypes {
		if a == mime {
			return true
		}
	}
	return false
}
