/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */


package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"stickerdesigner/internal/domain"
	applog "stickerdesigner/internal/log"
	"stickerdesigner/internal/storage"
)

var fixedNow = time.UnixMilli(1700000000000)

type fixture struct {
	path string
	srv  *Server
	h    http.Handler
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "saved-designs.json")
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	opts.Logger = applog.Discard()
	srv, err := NewServer(storage.NewJSONFile(path), opts)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return &fixture{path: path, srv: srv, h: srv.Handler()}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) designs(t *testing.T) []domain.Design {
	t.Helper()
	got, err := storage.NewJSONFile(f.path).List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	return got
}

func TestListDesigns_EmptyIsArray(t *testing.T) {
	f := newFixture(t, Options{})
	rec := f.do(t, http.MethodGet, "/api/designs", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("body = %q", got)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content-type = %q", ct)
	}
}

func TestSaveDesign_MissingStickersRejected(t *testing.T) {
	f := newFixture(t, Options{})
	rec := f.do(t, http.MethodPost, "/api/save-design", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"No stickers data"}` {
		t.Fatalf("body = %s", got)
	}
	if _, err := os.Stat(f.path); !os.IsNotExist(err) {
		t.Fatalf("designs file must stay untouched, stat err = %v", err)
	}
}

func TestSaveDesign_FalsyStickersRejected(t *testing.T) {
	f := newFixture(t, Options{})
	for _, body := range []string{`{"stickers":null}`, `{"stickers":false}`, `{"stickers":0}`, `{"stickers":""}`, `[]`, `"x"`, ``} {
		rec := f.do(t, http.MethodPost, "/api/save-design", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", body, rec.Code)
		}
		var env map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil || env["error"] != domain.ErrNoStickers.Error() {
			t.Fatalf("%s: body = %s", body, rec.Body.String())
		}
	}
	if n := len(f.designs(t)); n != 0 {
		t.Fatalf("designs = %d", n)
	}
}

func TestSaveDesign_AppendsWithTimestampID(t *testing.T) {
	f := newFixture(t, Options{})
	rec := f.do(t, http.MethodPost, "/api/save-design", `{"stickers":[{"id":1}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var res SaveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Success || res.Message != MsgSaved {
		t.Fatalf("response = %+v", res)
	}
	got := f.designs(t)
	if len(got) != 1 || got[0].ID != fixedNow.UnixMilli() {
		t.Fatalf("designs = %+v", got)
	}
	if string(got[0].Stickers) != `[{"id":1}]` {
		t.Fatalf("stickers = %s", got[0].Stickers)
	}

	// empty arrays and non-empty strings are truthy and saved too
	if rec := f.do(t, http.MethodPost, "/api/save-design", `{"stickers":[]}`); rec.Code != http.StatusOK {
		t.Fatalf("empty array: status = %d", rec.Code)
	}
	if rec := f.do(t, http.MethodPost, "/api/save-design", `{"stickers":"0"}`); rec.Code != http.StatusOK {
		t.Fatalf("string zero: status = %d", rec.Code)
	}
	if n := len(f.designs(t)); n != 3 {
		t.Fatalf("designs = %d", n)
	}

	rec = f.do(t, http.MethodGet, "/api/designs", "")
	var listed []domain.Design
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil || len(listed) != 3 {
		t.Fatalf("list = %s (%v)", rec.Body.String(), err)
	}
}

func TestSaveDesign_InvalidJSON(t *testing.T) {
	f := newFixture(t, Options{})
	rec := f.do(t, http.MethodPost, "/api/save-design", `{"stickers":`)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), MsgInvalidJSON) {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestSaveDesign_BodyTooLarge(t *testing.T) {
	f := newFixture(t, Options{MaxBodyBytes: 32})
	rec := f.do(t, http.MethodPost, "/api/save-design", `{"stickers":"`+strings.Repeat("x", 64)+`"}`)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestWrongMethods(t *testing.T) {
	f := newFixture(t, Options{})
	cases := map[string]string{
		"/api/designs":     http.MethodPost,
		"/api/save-design": http.MethodGet,
	}
	for path, method := range cases {
		rec := f.do(t, method, path, "")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s %s: status = %d", method, path, rec.Code)
		}
		if rec.Header().Get("Allow") == "" {
			t.Fatalf("%s %s: missing Allow", method, path)
		}
	}
}

func TestHealthReadyVersion(t *testing.T) {
	f := newFixture(t, Options{})
	for _, p := range []string{"/healthz", "/readyz", "/version"} {
		if rec := f.do(t, http.MethodGet, p, ""); rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", p, rec.Code)
		}
	}

	srv, err := NewServer(storage.NewJSONFile(filepath.Join(t.TempDir(), "gone", "d.json")), Options{Logger: applog.Discard()})
	if err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz on missing dir = %d", rec.Code)
	}
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>designer</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	f := newFixture(t, Options{StaticDir: dir})
	rec := f.do(t, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "designer") {
		t.Fatalf("static: %d %s", rec.Code, rec.Body.String())
	}
}

func TestNewServer_NilStore(t *testing.T) {
	if _, err := NewServer(nil, Options{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRequestIDs(t *testing.T) {
	f := newFixture(t, Options{})
	rec := f.do(t, http.MethodGet, "/healthz", "")
	id := rec.Header().Get(HeaderRequestID)
	if len(id) != 36 {
		t.Fatalf("generated request id = %q", id)
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, "client-42")
	rec = httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	if got := rec.Header().Get(HeaderRequestID); got != "client-42" {
		t.Fatalf("echoed request id = %q", got)
	}
}
