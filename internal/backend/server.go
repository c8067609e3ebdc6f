/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */


// Package backend is the design persistence service: a small JSON HTTP API in front of a
// storage.Store, plus the client the designer uses to talk to it.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	gojsonschema "github.com/xeipuuv/gojsonschema"
	"stickerdesigner/internal/config"
	"stickerdesigner/internal/domain"
	applog "stickerdesigner/internal/log"
	"stickerdesigner/internal/storage"
	"stickerdesigner/internal/version"
)

// Response messages shared with the client.
const (
	MsgSaved       = "Design saved!"
	MsgInvalidJSON = "Invalid JSON body"
	MsgTooLarge    = "Request body too large"
)

// Options configures a Server. Zero values take the config defaults.
type Options struct {
	StaticDir    string
	MaxBodyBytes int64
	Now          func() time.Time
	Logger       *slog.Logger
}

// Server serves the design API over a Store.
type Server struct {
	store   storage.Store
	static  string
	maxBody int64
	now     func() time.Time
	log     *slog.Logger
	schema  *gojsonschema.Schema
}

// NewServer wires the routes over store.
func NewServer(store storage.Store, opts Options) (*Server, error) {
	if store == nil {
		return nil, errors.New("backend: nil store")
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(domain.SaveRequestSchema))
	if err != nil {
		return nil, fmt.Errorf("load request schema: %w", err)
	}
	s := &Server{
		store:   store,
		static:  opts.StaticDir,
		maxBody: opts.MaxBodyBytes,
		now:     opts.Now,
		log:     opts.Logger,
		schema:  schema,
	}
	if s.maxBody <= 0 {
		s.maxBody = config.Defaults().Server.MaxBodyBytes
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = applog.WithComponent("backend")
	}
	return s, nil
}

// Handler returns the routed, logged HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("store not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(version.String()))
	})
	mux.HandleFunc("/api/designs", s.handleListDesigns)
	mux.HandleFunc("/api/save-design", s.handleSaveDesign)

	if s.static != "" {
		if st, err := os.Stat(s.static); err == nil && st.IsDir() {
			mux.Handle("/", http.FileServer(http.Dir(s.static)))
		} else {
			s.log.Warn("static dir unavailable", slog.String("dir", s.static))
		}
	}
	return s.logRequests(mux)
}

// GET /api/designs → every saved design, oldest first.
func (s *Server) handleListDesigns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	designs, err := s.store.List(r.Context())
	if err != nil {
		s.log.ErrorContext(r.Context(), "list designs failed", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, designs)
}

// POST /api/save-design {stickers: …} → appends {id: now-ms, stickers}.
func (s *Server) handleSaveDesign(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	_ = r.Body.Close()
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, errors.New(MsgTooLarge))
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		// an empty body reads as {} and so has no stickers
		body = []byte("{}")
	}
	if !json.Valid(body) {
		writeError(w, http.StatusBadRequest, errors.New(MsgInvalidJSON))
		return
	}
	res, err := s.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil || !res.Valid() {
		writeError(w, http.StatusBadRequest, domain.ErrNoStickers)
		return
	}
	var req struct {
		Stickers json.RawMessage `json:"stickers"`
	}
	if err := json.Unmarshal(body, &req); err != nil || !domain.Truthy(req.Stickers) {
		writeError(w, http.StatusBadRequest, domain.ErrNoStickers)
		return
	}
	d := domain.NewDesign(s.now(), req.Stickers)
	if err := s.store.Append(r.Context(), d); err != nil {
		s.log.ErrorContext(r.Context(), "save design failed", slog.Int64("id", d.ID), slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.log.InfoContext(r.Context(), "design saved", slog.Int64("id", d.ID), slog.Int("bytes", len(req.Stickers)))
	writeJSON(w, http.StatusOK, SaveResponse{Success: true, Message: MsgSaved})
}

// SaveResponse is the body of a successful save.
type SaveResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

// logRequests tags each request with an id (the caller's X-Request-ID or a
// fresh UUID) and logs it once the handler returns.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(HeaderRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		r = r.WithContext(applog.WithRequestID(r.Context(), id))
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.DebugContext(r.Context(), "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("took", time.Since(start)),
		)
	})
}

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	l := applog.WithOperation(applog.WithComponent("backend"), "serve")
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() {
		l.Info("listening", slog.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		l.Info("shutting down")
		return srv.Shutdown(sctx)
	}
}

// Start opens the configured store and serves the API until ctx is done.
func Start(ctx context.Context, cfg config.ServerConfig) error {
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			applog.WithComponent("backend").Warn("store close", slog.Any("err", err))
		}
	}()
	srv, err := NewServer(store, Options{StaticDir: cfg.StaticDir, MaxBodyBytes: cfg.MaxBodyBytes})
	if err != nil {
		return err
	}
	return ListenAndServe(ctx, cfg.Addr, srv.Handler())
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeError(w, http.StatusMethodNotAllowed, errors.New(http.StatusText(http.StatusMethodNotAllowed)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}
