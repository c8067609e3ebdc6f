/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0
 */

package export

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"stickerdesigner/internal/scene"
)

// Format is an export file format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatPDF  Format = "pdf"
	FormatSVG  Format = "svg"
)

// ParseFormat accepts a format name or file extension, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "", "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "pdf":
		return FormatPDF, nil
	case "svg":
		return FormatSVG, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// Ext returns the file extension without the dot.
func (f Format) Ext() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return string(f)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPDF:
		return "application/pdf"
	case FormatSVG:
		return "image/svg+xml"
	default:
		return "image/png"
	}
}

// FileName returns the download name, vehicle-sticker-<unix ms>.<ext>.
func FileName(f Format, now time.Time) string {
	return fmt.Sprintf("vehicle-sticker-%d.%s", now.UnixMilli(), f.Ext())
}

// Encode renders m in format f. multiplier applies to raster output; <= 0
// uses the canvas profile's export multiplier.
func Encode(w io.Writer, f Format, m *scene.Manager, multiplier float64) error {
	switch f {
	case FormatSVG:
		doc, err := DocumentOf(m)
		if err != nil {
			return err
		}
		return SVG(w, doc)
	case FormatPNG, FormatJPEG, FormatPDF:
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
	img, err := m.ExportImage(multiplier)
	if err != nil {
		return err
	}
	switch f {
	case FormatJPEG:
		return JPEG(w, img, 0)
	case FormatPDF:
		cw, ch := m.Size()
		return PDF(w, img, float64(cw), float64(ch), PDFOptions{})
	default:
		return PNG(w, img)
	}
}

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb   PresetName = "web"
	PresetPrint PresetName = "print"
)

// BatchOptions controls exporting one scene to several formats at once.
// Files are written as vehicle-sticker-<ms>.<ext> under OutDir (default
// "exports/<preset>").
type BatchOptions struct {
	Preset     PresetName
	Formats    []string // empty means preset defaults
	Multiplier float64  // when > 0 overrides the preset's
	OutDir     string
	Now        time.Time
}

// BatchExport runs the exports described by opt and returns the written paths.
func BatchExport(m *scene.Manager, opt BatchOptions) ([]string, error) {
	if m == nil || !m.Active() {
		return nil, scene.ErrNoCanvas
	}
	names := opt.Formats
	if len(names) == 0 {
		names = presetDefaultFormats(opt.Preset)
	}
	mult := opt.Multiplier
	if mult <= 0 {
		mult = presetMultiplier(opt.Preset)
	}
	outDir := opt.OutDir
	if outDir == "" {
		p := opt.Preset
		if p == "" {
			p = PresetWeb
		}
		outDir = filepath.Join("exports", string(p))
	}
	now := opt.Now
	if now.IsZero() {
		now = time.Now()
	}

	var paths []string
	seen := map[Format]bool{}
	for _, name := range names {
		f, err := ParseFormat(name)
		if err != nil {
			return paths, err
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		var buf bytes.Buffer
		if err := Encode(&buf, f, m, mult); err != nil {
			return paths, fmt.Errorf("%s export: %w", f, err)
		}
		path := filepath.Join(outDir, FileName(f, now))
		if err := WriteFile(path, buf.Bytes()); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func presetDefaultFormats(p PresetName) []string {
	if p == PresetPrint {
		return []string{"pdf", "png"}
	}
	return []string{"png"}
}

// presetMultiplier returns 0 for web so the profile default applies.
func presetMultiplier(p PresetName) float64 {
	if p == PresetPrint {
		return 4
	}
	return 0
}
