/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"stickerdesigner/internal/domain"
	applog "stickerdesigner/internal/log"
)

// BackupSuffix names the copy of the previous file kept by every Append.
const BackupSuffix = ".bak"

// JSONFile stores designs as one indented JSON array. Each Append reads the
// whole file, appends, and replaces it via a temp file and rename.
type JSONFile struct {
	Path string

	mu  sync.Mutex
	log *slog.Logger
}

// NewJSONFile returns a store backed by path. The file is created on first Append.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{Path: path, log: applog.WithComponent("storage").With(slog.String("file", path))}
}

// List reads all designs. A missing file is an empty list; an unreadable or
// corrupt file falls back to the backup when one exists.
func (s *JSONFile) List(ctx context.Context) ([]domain.Design, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked()
}

// Append adds d at the end of the file.
func (s *JSONFile) Append(ctx context.Context, d domain.Design) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l := applog.WithOperation(s.log, "append").With(slog.Int64("id", d.ID))
	s.mu.Lock()
	defer s.mu.Unlock()
	designs, err := s.readLocked()
	if err != nil {
		l.Error("read designs failed", slog.Any("err", err))
		return err
	}
	designs = append(designs, d)
	data, err := json.MarshalIndent(designs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal designs: %w", err)
	}

	if dir := filepath.Dir(s.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure designs dir: %w", err)
		}
	}
	if _, statErr := os.Stat(s.Path); statErr == nil {
		if cerr := copyFile(s.Path, s.Path+BackupSuffix); cerr != nil {
			l.Warn("backup failed", slog.Any("err", cerr))
		}
	}
	temp := filepath.Join(filepath.Dir(s.Path), fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(s.Path), os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp designs: %w", werr)
	}
	if rerr := os.Rename(temp, s.Path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace designs: %w", rerr)
	}
	l.Debug("design saved", slog.Int("total", len(designs)))
	return nil
}

// Ping checks that the directory holding the file is usable.
func (s *JSONFile) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(s.Path)
	st, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("designs dir: %w", err)
	}
	if !st.IsDir() {
		return fmt.Errorf("designs dir %s is not a directory", dir)
	}
	return nil
}

func (s *JSONFile) Close() error { return nil }

func (s *JSONFile) readLocked() ([]domain.Design, error) {
	designs, err := readDesigns(s.Path)
	if err == nil {
		return designs, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.Design{}, nil
	}
	bak, berr := readDesigns(s.Path + BackupSuffix)
	if berr != nil {
		return nil, fmt.Errorf("read designs: %w; backup attempt: %v", err, berr)
	}
	s.log.Warn("designs file unreadable, using backup", slog.Any("err", err))
	return bak, nil
}

func readDesigns(path string) ([]domain.Design, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := validateDesigns(filepath.Base(path), b); err != nil {
		return nil, err
	}
	designs := []domain.Design{}
	if err := json.Unmarshal(b, &designs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if designs == nil {
		designs = []domain.Design{}
	}
	for i := range designs {
		designs[i].Stickers = domain.Compact(designs[i].Stickers)
	}
	return designs, nil
}

var designsSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(domain.DesignsSchema))
})

// validateDesigns rejects files that parse but are not a designs array,
// such as records without an id.
func validateDesigns(name string, b []byte) error {
	schema, err := designsSchema()
	if err != nil {
		return fmt.Errorf("load designs schema: %w", err)
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(b))
	if err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	if !res.Valid() {
		return fmt.Errorf("%s does not match the designs schema: %s", name, res.Errors()[0])
	}
	return nil
}

// writeFileSync writes data to a file and flushes it to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies src over dst.
func copyFile(src, dst string) error {
	b, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return writeFileSync(dst, b)
}
