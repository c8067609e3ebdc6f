/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontLibrary stores parsed OpenType fonts keyed by family/weight/italic.
// Families are matched case-insensitively. A request for an unknown family
// resolves to the library's default family so text always renders.
type FontLibrary struct {
	mu       sync.RWMutex
	fonts    map[fontKey]*opentype.Font
	fallback string
}

type fontKey struct {
	family string
	weight int
	italic bool
}

// DefaultFamily is the family the built-in Go fonts are registered under.
const DefaultFamily = "Go"

func NewFontLibrary() *FontLibrary {
	return &FontLibrary{fonts: make(map[fontKey]*opentype.Font), fallback: strings.ToLower(DefaultFamily)}
}

var (
	builtinOnce sync.Once
	builtin     *FontLibrary
	builtinErr  error
)

// Builtin returns a shared library preloaded with the Go font family
// (regular, bold, italic, bold italic).
func Builtin() (*FontLibrary, error) {
	builtinOnce.Do(func() {
		lib := NewFontLibrary()
		if err := registerGoFonts(lib); err != nil {
			builtinErr = err
			return
		}
		builtin = lib
	})
	return builtin, builtinErr
}

func registerGoFonts(lib *FontLibrary) error {
	for _, f := range []struct {
		weight int
		italic bool
		data   []byte
	}{
		{400, false, goregular.TTF},
		{700, false, gobold.TTF},
		{400, true, goitalic.TTF},
		{700, true, gobolditalic.TTF},
	} {
		if err := lib.Register(DefaultFamily, f.weight, f.italic, f.data); err != nil {
			return err
		}
	}
	return nil
}

// ProviderFor returns a provider over the Go fonts plus one regular face per
// family→TTF/OTF path in extra. Fonts that fail to load are reported together
// with a provider that still serves the rest.
func ProviderFor(extra map[string]string) (Provider, error) {
	if len(extra) == 0 {
		return DefaultProvider(), nil
	}
	lib := NewFontLibrary()
	if err := registerGoFonts(lib); err != nil {
		return BasicProvider{}, err
	}
	var errs []error
	for family, path := range extra {
		if err := lib.LoadTTF(family, 400, false, path); err != nil {
			errs = append(errs, fmt.Errorf("font %q: %w", family, err))
		}
	}
	return OTProvider{Lib: lib}, errors.Join(errs...)
}

// Register parses font data and stores it under the given family/weight/italic.
func (fl *FontLibrary) Register(family string, weight int, italic bool, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", family, err)
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.fonts == nil {
		fl.fonts = make(map[fontKey]*opentype.Font)
	}
	fl.fonts[fontKey{family: strings.ToLower(family), weight: weight, italic: italic}] = f
	return nil
}

// LoadTTF loads a font file into the library under the given family/weight/italic.
func (fl *FontLibrary) LoadTTF(family string, weight int, italic bool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	return fl.Register(family, weight, italic, data)
}

// Families lists the registered family names (lower-cased, unordered).
func (fl *FontLibrary) Families() []string {
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	seen := map[string]bool{}
	var out []string
	for k := range fl.fonts {
		if !seen[k.family] {
			seen[k.family] = true
			out = append(out, k.family)
		}
	}
	return out
}

func (fl *FontLibrary) find(spec FontSpec) *opentype.Font {
	if fl == nil {
		return nil
	}
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	if len(fl.fonts) == 0 {
		return nil
	}
	weight := spec.Weight
	if weight == 0 {
		weight = 400
	}
	for _, fam := range []string{strings.ToLower(spec.Family), fl.fallback} {
		if f, ok := fl.fonts[fontKey{family: fam, weight: weight, italic: spec.Italic}]; ok {
			return f
		}
		// Same family, closest weight with the requested slant, then any slant.
		var best *opentype.Font
		bestDelta := 1 << 30
		for k, f := range fl.fonts {
			if k.family != fam {
				continue
			}
			d := abs(k.weight - weight)
			if k.italic != spec.Italic {
				d += 1000
			}
			if d < bestDelta {
				best, bestDelta = f, d
			}
		}
		if best != nil {
			return best
		}
	}
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// OTProvider resolves FontSpec using a FontLibrary and falls back to another Provider.
// It uses kerning as provided by opentype.Face and font.Drawer.
type OTProvider struct {
	Lib      *FontLibrary
	DPI      float64 // default 72 if zero
	Fallback Provider
}

func (p OTProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	if spec.SizePx <= 0 {
		spec.SizePx = 12
	}
	dpi := p.DPI
	if dpi <= 0 {
		dpi = 72
	}
	if p.Lib != nil {
		if f := p.Lib.find(spec); f != nil {
			// At 72 DPI one point is one pixel.
			face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: spec.SizePx, DPI: dpi, Hinting: font.HintingNone})
			if err == nil {
				return face, metricsOf(face)
			}
		}
	}
	fb := p.Fallback
	if fb == nil {
		fb = BasicProvider{}
	}
	return fb.Resolve(spec)
}

// DefaultProvider resolves against the builtin Go fonts, or basicfont when
// those cannot be parsed.
func DefaultProvider() Provider {
	lib, err := Builtin()
	if err != nil {
		return BasicProvider{}
	}
	return OTProvider{Lib: lib}
}
