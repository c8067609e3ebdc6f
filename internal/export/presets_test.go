/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0
 */
package export

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": FormatPNG, "PNG": FormatPNG, ".jpg": FormatJPEG, "jpeg": FormatJPEG, "pdf": FormatPDF, "svg": FormatSVG}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("tiff"); err == nil {
		t.Fatalf("expected error for tiff")
	}
	if FormatPDF.ContentType() != "application/pdf" || FormatSVG.ContentType() != "image/svg+xml" {
		t.Fatalf("content types")
	}
}

func TestBatchExport_WebPreset(t *testing.T) {
	m := newScene(t)
	out := filepath.Join(t.TempDir(), "web")
	now := time.UnixMilli(42)
	paths, err := BatchExport(m, BatchOptions{Preset: PresetWeb, OutDir: out, Now: now})
	if err != nil {
		t.Fatalf("batch export web: %v", err)
	}
	if len(paths) != 1 || paths[0] != filepath.Join(out, "vehicle-sticker-42.png") {
		t.Fatalf("paths = %v", paths)
	}
	checkFiles(t, paths)
}

func TestBatchExport_PrintPreset(t *testing.T) {
	m := newScene(t)
	out := t.TempDir()
	paths, err := BatchExport(m, BatchOptions{Preset: PresetPrint, OutDir: out, Formats: []string{"pdf", "png", "PNG", "svg"}, Multiplier: 1})
	if err != nil {
		t.Fatalf("batch export print: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("duplicate formats should collapse: %v", paths)
	}
	checkFiles(t, paths)
}

func checkFiles(t *testing.T, paths []string) {
	t.Helper()
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			t.Fatalf("missing %s: %v", p, err)
		}
		if st.Size() <= 0 {
			t.Fatalf("empty file: %s", p)
		}
	}
}
