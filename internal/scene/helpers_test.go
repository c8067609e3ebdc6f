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
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"
	"testing"

	"stickerdesigner/internal/assets"
	applog "stickerdesigner/internal/log"
	"stickerdesigner/internal/textlayout"
)

const lightningSVG = `<svg width="40" height="80" viewBox="0 0 40 80" xmlns="http://www.w3.org/2000/svg">
  <path d="M25 0 L0 45 L18 45 L12 80 L40 30 L22 30 Z" fill="#facc15"/>
</svg>`

// mapSource serves fixed assets by reference and decodes data URLs.
type mapSource map[string]*assets.Asset

func (s mapSource) Fetch(ctx context.Context, ref string) (*assets.Asset, error) {
	if a, ok := s[ref]; ok {
		return a, nil
	}
	if strings.HasPrefix(ref, "data:") {
		return (&assets.Fetcher{}).Fetch(ctx, ref)
	}
	return nil, fmt.Errorf("not found: %s", ref)
}

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+3] = 0xdc, 0xff
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

type testEnv struct {
	m        *Manager
	f        *Factory
	notes    *RecordingNotifier
	confirms []string
	answer   bool
}

func newEnv(t *testing.T, src Source) *testEnv {
	t.Helper()
	env := &testEnv{notes: &RecordingNotifier{}, answer: true}
	env.m = NewManager(Options{
		Notifier: env.notes,
		Confirmer: ConfirmFunc(func(p string) bool {
			env.confirms = append(env.confirms, p)
			return env.answer
		}),
		Fonts:  textlayout.BasicProvider{},
		Logger: applog.Discard(),
	})
	if src == nil {
		src = mapSource{}
	}
	env.f = NewFactory(env.m, src)
	env.f.log = applog.Discard()
	if err := env.m.Reset(800, 500); err != nil {
		t.Fatalf("reset: %v", err)
	}
	return env
}

// shape strips ids so two scenes can be compared structurally.
func shape(m *Manager) string {
	var b strings.Builder
	for _, d := range m.Descriptors() {
		d.ID = ""
		fmt.Fprintf(&b, "%+v\n", d)
	}
	return b.String()
}

func assertVehicleInvariant(t *testing.T, m *Manager) {
	t.Helper()
	objs := m.Objects()
	n := 0
	for i, o := range objs {
		if o.Kind() == KindVehicle {
			n++
			if i != 0 {
				t.Fatalf("vehicle at index %d, want 0", i)
			}
			if o.Interactive() {
				t.Fatalf("vehicle must not be interactive")
			}
		}
	}
	if n != 1 {
		t.Fatalf("expected exactly one vehicle, got %d", n)
	}
}
