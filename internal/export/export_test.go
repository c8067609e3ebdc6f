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
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	applog "stickerdesigner/internal/log"
	"stickerdesigner/internal/scene"
	"stickerdesigner/internal/textlayout"
)

func newScene(t *testing.T) *scene.Manager {
	t.Helper()
	m := scene.NewManager(scene.Options{Fonts: textlayout.BasicProvider{}, Logger: applog.Discard()})
	if err := m.Reset(800, 500); err != nil {
		t.Fatalf("reset: %v", err)
	}
	f := scene.NewFactory(m, nil)
	if _, err := f.MakeText("Ride <safe> & \"fast\"", "", 0, ""); err != nil {
		t.Fatalf("make text: %v", err)
	}
	return m
}

func TestPNG_RoundTripSize(t *testing.T) {
	m := newScene(t)
	var buf bytes.Buffer
	if err := Encode(&buf, FormatPNG, m, 1); err != nil {
		t.Fatalf("encode: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 800 || b.Dy() != 500 {
		t.Fatalf("size = %v", b)
	}
}

func TestJPEG_FlattensTransparency(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	if err := JPEG(&buf, src, 0); err != nil {
		t.Fatalf("jpeg: %v", err)
	}
	img, err := jpeg.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	r, g, b, _ := img.At(1, 1).RGBA()
	if r>>8 < 0xf0 || g>>8 < 0xf0 || b>>8 < 0xf0 {
		t.Fatalf("expected white, got %d %d %d", r>>8, g>>8, b>>8)
	}
}

func TestThumbnail_FitsBox(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 400, 100))
	src.Set(0, 0, color.Black)
	th := Thumbnail(src, 100)
	if b := th.Bounds(); b.Dx() != 100 || b.Dy() != 25 {
		t.Fatalf("thumb = %v", b)
	}
	if Thumbnail(src, 1000) != image.Image(src) {
		t.Fatalf("small images should pass through")
	}
}

func TestSVG_DocumentContent(t *testing.T) {
	m := newScene(t)
	var buf bytes.Buffer
	if err := Encode(&buf, FormatSVG, m, 0); err != nil {
		t.Fatalf("svg: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`viewBox="0 0 800 500"`,
		`href="data:image/svg+xml`,
		`translate(400 227.273)`,
		`Ride &lt;safe&gt; &amp; &#34;fast&#34;`,
		`translate(400 250)`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("svg missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "data:image/svg+xml") > strings.Index(out, "<text") {
		t.Fatalf("vehicle must be painted before the text")
	}
}

func TestSVG_RequiresCanvas(t *testing.T) {
	m := scene.NewManager(scene.Options{Logger: applog.Discard()})
	if err := Encode(&bytes.Buffer{}, FormatSVG, m, 0); err != scene.ErrNoCanvas {
		t.Fatalf("err = %v", err)
	}
}

func TestWriteFile_CreatesDirs(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a", "b", "out.bin")
	if err := WriteFile(p, []byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if b, err := os.ReadFile(p); err != nil || string(b) != "x" {
		t.Fatalf("read back %q, %v", b, err)
	}
}

func TestFileName(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	if got := FileName(FormatPNG, now); got != "vehicle-sticker-1700000000123.png" {
		t.Fatalf("name = %s", got)
	}
	if got := FileName(FormatJPEG, now); got != "vehicle-sticker-1700000000123.jpg" {
		t.Fatalf("name = %s", got)
	}
}
