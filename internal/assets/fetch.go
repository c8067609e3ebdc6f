/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package assets resolves sticker references (data: URLs, http(s) URLs and
// local paths) into bytes and decodes them into raster images or parsed
// vector documents.
package assets

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stickerdesigner/internal/config"
	applog "stickerdesigner/internal/log"
)

// Asset is a fetched reference with its best-known media type.
type Asset struct {
	Ref  string
	MIME string
	Data []byte
}

// ErrTooLarge is returned when an asset exceeds the configured byte cap.
var ErrTooLarge = errors.New("asset exceeds size limit")

// Fetcher loads asset bytes for a reference.
type Fetcher struct {
	Client   *http.Client
	MaxBytes int64
	log      *slog.Logger
}

// NewFetcher builds a Fetcher from the assets config section.
func NewFetcher(cfg config.AssetsConfig) *Fetcher {
	return &Fetcher{
		Client:   &http.Client{Timeout: cfg.FetchTimeout()},
		MaxBytes: cfg.MaxBytes,
		log:      applog.WithComponent("assets"),
	}
}

func (f *Fetcher) logger() *slog.Logger {
	if f.log == nil {
		return applog.Discard()
	}
	return f.log
}

// Fetch resolves ref. Supported forms: data: URLs, http(s) URLs, file:// URLs
// and plain filesystem paths.
func (f *Fetcher) Fetch(ctx context.Context, ref string) (*Asset, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.New("empty asset reference")
	}
	start := time.Now()
	var (
		a   *Asset
		err error
	)
	switch {
	case hasPrefixFold(ref, "data:"):
		a, err = parseDataURL(ref)
	case hasPrefixFold(ref, "http://"), hasPrefixFold(ref, "https://"):
		a, err = f.fetchHTTP(ctx, ref)
	case hasPrefixFold(ref, "file://"):
		u, perr := url.Parse(ref)
		if perr != nil {
			return nil, fmt.Errorf("parse %s: %w", ref, perr)
		}
		a, err = f.readFile(u.Path)
	default:
		a, err = f.readFile(ref)
	}
	if err != nil {
		return nil, err
	}
	a.Ref = ref
	if a.MIME == "" {
		a.MIME = SniffMIME(a.Data, pathOf(ref))
	}
	f.logger().Debug("asset fetched", slog.String("ref", Abbrev(ref)), slog.String("mime", a.MIME), slog.Int("bytes", len(a.Data)), slog.Duration("took", time.Since(start)))
	return a, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, ref string) (*Asset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, err
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", Abbrev(ref), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: %s", Abbrev(ref), resp.Status)
	}
	data, err := f.readAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", Abbrev(ref), err)
	}
	ct := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	ct = strings.ToLower(strings.TrimSpace(ct))
	// Servers often label SVG as text/plain or octet-stream; trust the bytes then.
	if !strings.HasPrefix(ct, "image/") {
		ct = ""
	}
	return &Asset{MIME: ct, Data: data}, nil
}

func (f *Fetcher) readFile(path string) (*Asset, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open asset: %w", err)
	}
	defer fh.Close()
	data, err := f.readAll(fh)
	if err != nil {
		return nil, fmt.Errorf("read asset %s: %w", path, err)
	}
	return &Asset{Data: data}, nil
}

func (f *Fetcher) readAll(r io.Reader) ([]byte, error) {
	if f.MaxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, f.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > f.MaxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

// DataURL encodes data as a base64 data: URL.
func DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// parseDataURL decodes data:[<mediatype>][;base64],<payload>.
func parseDataURL(ref string) (*Asset, error) {
	comma := strings.IndexByte(ref, ',')
	if comma < 0 {
		return nil, errors.New("malformed data URL: missing comma")
	}
	meta := ref[len("data:"):comma]
	payload := ref[comma+1:]
	isB64 := false
	params := strings.Split(meta, ";")
	mime := strings.ToLower(strings.TrimSpace(params[0]))
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isB64 = true
		}
	}
	var data []byte
	if isB64 {
		d, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
		if err != nil {
			// Some producers drop the padding.
			d, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(strings.TrimSpace(payload), "="))
			if err != nil {
				return nil, fmt.Errorf("malformed data URL: %w", err)
			}
		}
		data = d
	} else {
		s, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("malformed data URL: %w", err)
		}
		data = []byte(s)
	}
	return &Asset{MIME: mime, Data: data}, nil
}

// DataURLMIME returns the media type declared by a data: URL, or "".
func DataURLMIME(ref string) string {
	if !hasPrefixFold(ref, "data:") {
		return ""
	}
	meta := ref[len("data:"):]
	if i := strings.IndexAny(meta, ";,"); i >= 0 {
		meta = meta[:i]
	}
	return strings.ToLower(strings.TrimSpace(meta))
}

// Abbrev shortens long references (data URLs) for log output.
func Abbrev(ref string) string {
	const max = 96
	if len(ref) <= max {
		return ref
	}
	return ref[:max] + "…"
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// pathOf strips query and fragment from URL-ish references.
func pathOf(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	return filepath.Base(ref)
}
