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
	"sync"
	"testing"

	"stickerdesigner/internal/assets"
)

func TestVectorReferenceBecomesStickerVector(t *testing.T) {
	src := mapSource{"https://example.com/bolt.SVG": {MIME: assets.MIMESVG, Data: []byte(lightningSVG)}}
	env := newEnv(t, src)
	obj, err := env.f.Add(context.Background(), "https://example.com/bolt.SVG")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	sv, ok := obj.(*StickerVector)
	if !ok {
		t.Fatalf("expected *StickerVector, got %T", obj)
	}
	if sv.Placeholder || sv.SourceRef != "https://example.com/bolt.SVG" {
		t.Fatalf("unexpected vector sticker: %+v", sv)
	}
	if env.m.Selection() != obj {
		t.Fatalf("new sticker should be selected")
	}
	// 40x80 into a 400x175 target would be 2.19; the ceiling wins.
	if xf := obj.Transform(); xf.ScaleX != 1.5 || xf.ScaleY != 1.5 {
		t.Fatalf("unexpected scale %+v", xf)
	}
}

func TestAutoPlacedStickersNeverExceedCeiling(t *testing.T) {
	src := mapSource{
		"tiny.png": {MIME: assets.MIMEPNG, Data: pngOf(t, 4, 4)},
		"huge.png": {MIME: assets.MIMEPNG, Data: pngOf(t, 3000, 1200)},
		"bolt.svg": {MIME: assets.MIMESVG, Data: []byte(lightningSVG)},
	}
	env := newEnv(t, src)
	for _, ref := range []string{"tiny.png", "huge.png", "bolt.svg", "missing.png"} {
		if _, err := env.f.Add(context.Background(), ref); err != nil {
			t.Fatalf("add %s: %v", ref, err)
		}
	}
	for _, o := range env.m.UserObjects() {
		xf := o.Transform()
		if xf.ScaleX <= 0 || xf.ScaleX > 1.5 || xf.ScaleY <= 0 || xf.ScaleY > 1.5 {
			t.Fatalf("auto-placed %s exceeds ceiling: %+v", o.Kind(), xf)
		}
		if xf.ScaleX != xf.ScaleY {
			t.Fatalf("auto-placement must be uniform: %+v", xf)
		}
	}
	if got := env.m.UserObjects()[1].Transform().ScaleX; got != 400.0/3000 {
		t.Fatalf("huge image scale = %v, want %v", got, 400.0/3000)
	}
}

func TestBrokenImageYieldsPlaceholderAtDefaultPosition(t *testing.T) {
	src := mapSource{"broken.png": {MIME: assets.MIMEPNG, Data: []byte("definitely not a png")}}
	env := newEnv(t, src)
	for _, ref := range []string{"broken.png", "https://nowhere.invalid/x.jpg"} {
		obj, err := env.f.FromImageReference(context.Background(), ref)
		if err != nil {
			t.Fatalf("decode failures must not surface: %v", err)
		}
		sv, ok := obj.(*StickerVector)
		if !ok || !sv.Placeholder {
			t.Fatalf("expected placeholder sticker, got %T", obj)
		}
		xf := sv.Transform()
		if xf.CenterX != 400 || xf.CenterY != 275 {
			t.Fatalf("placeholder not at default placement: %+v", xf)
		}
	}
	if len(env.notes.Messages) != 0 {
		t.Fatalf("decode failures must not notify the user: %v", env.notes.Messages)
	}
}

func TestMalformedMarkupYieldsPlaceholder(t *testing.T) {
	env := newEnv(t, nil)
	obj, err := env.f.FromVectorMarkup(context.Background(), "<svg><g>")
	if err != nil {
		t.Fatal(err)
	}
	if sv, ok := obj.(*StickerVector); !ok || !sv.Placeholder {
		t.Fatalf("expected placeholder, got %#v", obj)
	}
}

func TestInlineMarkup(t *testing.T) {
	env := newEnv(t, nil)
	obj, err := env.f.FromVectorMarkup(context.Background(), lightningSVG)
	if err != nil {
		t.Fatal(err)
	}
	sv := obj.(*StickerVector)
	if sv.Placeholder || sv.SourceRef != "" || sv.SourceMarkup != lightningSVG {
		t.Fatalf("unexpected inline sticker: %+v", sv)
	}
	if w, h := sv.NaturalSize(); w != 40 || h != 80 {
		t.Fatalf("natural size = %vx%v", w, h)
	}
}

func TestMakeTextRejectsEmpty(t *testing.T) {
	env := newEnv(t, nil)
	before := env.m.Len()
	for _, s := range []string{"", "   ", "\n\t"} {
		_, err := env.f.MakeText(s, "Arial", 28, "#111827")
		if !IsValidation(err) {
			t.Fatalf("expected ValidationError for %q, got %v", s, err)
		}
	}
	if env.m.Len() != before {
		t.Fatalf("rejected text changed the scene")
	}
	if len(env.notes.Messages) != 3 || env.notes.Messages[0] != MsgEmptyText {
		t.Fatalf("expected user notices, got %v", env.notes.Messages)
	}
}

func TestMakeTextAtCentreNaturalSize(t *testing.T) {
	env := newEnv(t, nil)
	obj, err := env.f.MakeText("  Speed Demon ", "", 0, "")
	if err != nil {
		t.Fatal(err)
	}
	tl := obj.(*TextLabel)
	if tl.Content != "Speed Demon" {
		t.Fatalf("content should be trimmed: %q", tl.Content)
	}
	if tl.FontFamily != "Arial" || tl.FontSizePt != 28 || tl.FillColor != "#111827" {
		t.Fatalf("defaults not applied: %+v", tl)
	}
	xf := tl.Transform()
	if xf.CenterX != 400 || xf.CenterY != 250 || xf.ScaleX != 1 || xf.ScaleY != 1 {
		t.Fatalf("text should sit at canvas centre, natural size: %+v", xf)
	}
	if tl.Handles() != DefaultHandleStyle() {
		t.Fatalf("text should share the handle style")
	}
	if w, h := tl.NaturalSize(); w <= 0 || h <= 0 {
		t.Fatalf("expected measured size, got %vx%v", w, h)
	}
	if _, err := env.f.MakeText("x", "", 0, "not-a-colour"); !IsValidation(err) {
		t.Fatalf("expected validation error for a bad colour, got %v", err)
	}
	if n := len(env.notes.Messages); n != 1 || env.notes.Messages[0] != MsgBadColor {
		t.Fatalf("bad colour should notify the user, got %v", env.notes.Messages)
	}
}

func TestUploadRejectsDisallowedMIME(t *testing.T) {
	env := newEnv(t, nil)
	before := shape(env.m)
	for _, mime := range []string{"text/plain", "image/gif", ""} {
		_, err := env.f.FromUserFile(context.Background(), UserFile{Name: "notes.txt", MIME: mime, Data: []byte("hello")})
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Message != MsgBadUploadType {
			t.Fatalf("expected upload validation error for %q, got %v", mime, err)
		}
	}
	if shape(env.m) != before {
		t.Fatalf("rejected upload changed the scene")
	}
	if len(env.notes.Messages) != 3 {
		t.Fatalf("expected a notice per rejection, got %v", env.notes.Messages)
	}
}

func TestUploadDispatchesByType(t *testing.T) {
	env := newEnv(t, nil)
	obj, err := env.f.FromUserFile(context.Background(), UserFile{Name: "logo.png", MIME: "image/png", Data: pngOf(t, 20, 10)})
	if err != nil {
		t.Fatal(err)
	}
	si, ok := obj.(*StickerImage)
	if !ok || si.NaturalWidth != 20 || si.NaturalHeight != 10 {
		t.Fatalf("expected 20x10 image sticker, got %#v", obj)
	}
	if got := assets.DataURLMIME(si.SourceRef); got != assets.MIMEPNG {
		t.Fatalf("upload should be carried as a data URL, got %q", got)
	}
	obj, err = env.f.FromUserFile(context.Background(), UserFile{Name: "bolt.svg", MIME: "image/svg+xml", Data: []byte(lightningSVG)})
	if err != nil {
		t.Fatal(err)
	}
	if sv, ok := obj.(*StickerVector); !ok || sv.Placeholder {
		t.Fatalf("expected parsed vector sticker, got %#v", obj)
	}
}

// gateSource blocks every fetch until released.
type gateSource struct {
	started chan struct{}
	release chan struct{}
	asset   *assets.Asset
	once    sync.Once
}

func (g *gateSource) Fetch(ctx context.Context, ref string) (*assets.Asset, error) {
	g.once.Do(func() { close(g.started) })
	select {
	case <-g.release:
		return g.asset, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestStaleContinuationIsDiscarded(t *testing.T) {
	for _, name := range []string{"reset", "clear"} {
		t.Run(name, func(t *testing.T) {
			src := &gateSource{started: make(chan struct{}), release: make(chan struct{}), asset: &assets.Asset{MIME: assets.MIMESVG, Data: []byte(lightningSVG)}}
			env := newEnv(t, src)
			done := make(chan error, 1)
			go func() {
				_, err := env.f.FromVectorMarkup(context.Background(), "bolt.svg")
				done <- err
			}()
			<-src.started
			var err error
			if name == "reset" {
				err = env.m.Reset(800, 500)
			} else {
				err = env.m.Clear()
			}
			if err != nil {
				t.Fatal(err)
			}
			close(src.release)
			if err := <-done; !errors.Is(err, ErrStaleScene) {
				t.Fatalf("expected ErrStaleScene, got %v", err)
			}
			if env.m.Len() != 1 {
				t.Fatalf("stale result leaked into the new scene: %d objects", env.m.Len())
			}
		})
	}
}

func TestConcurrentAddsLandInCompletionOrder(t *testing.T) {
	src := mapSource{}
	for _, ref := range []string{"a.png", "b.png", "c.png", "d.png"} {
		src[ref] = &assets.Asset{MIME: assets.MIMEPNG, Data: pngOf(t, 8, 8)}
	}
	env := newEnv(t, src)
	var wg sync.WaitGroup
	for ref := range src {
		wg.Add(1)
		go func(ref string) {
			defer wg.Done()
			if _, err := env.f.FromImageReference(context.Background(), ref); err != nil {
				t.Errorf("add %s: %v", ref, err)
			}
		}(ref)
	}
	wg.Wait()
	if env.m.Len() != 5 {
		t.Fatalf("expected 4 stickers plus vehicle, got %d", env.m.Len())
	}
	assertVehicleInvariant(t, env.m)
}
