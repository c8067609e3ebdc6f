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
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stickerdesigner/internal/domain"
	applog "stickerdesigner/internal/log"
	"stickerdesigner/internal/version"

	// database/sql drivers: pure-Go SQLite and pgx for PostgreSQL
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// schemaVersion tracks the designs schema. Bump it together with a new step in runMigrations.
const schemaVersion = 2

type dialect struct {
	name   string
	driver string
	serial string
}

var (
	dialectSQLite   = dialect{name: KindSQLite, driver: "sqlite", serial: "INTEGER PRIMARY KEY AUTOINCREMENT"}
	dialectPostgres = dialect{name: KindPostgres, driver: "pgx", serial: "BIGSERIAL PRIMARY KEY"}
)

// ph returns the n-th (1-based) bind placeholder.
func (d dialect) ph(n int) string {
	if d.name == KindPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// SQLStore keeps designs in a relational table. Rows are returned in
// insertion order; stickers are stored verbatim as JSON text.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	log     *slog.Logger
}

// OpenSQLite opens (creating when needed) a SQLite designs database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "sqlite_open").With(slog.String("path", path))
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open(dialectSQLite.driver, dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	return newSQLStore(ctx, db, dialectSQLite, l)
}

// OpenPostgres connects to PostgreSQL through the pgx stdlib driver.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "postgres_open")
	db, err := sql.Open(dialectPostgres.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		l.Error("ping failed", slog.Any("err", err))
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return newSQLStore(ctx, db, dialectPostgres, l)
}

func newSQLStore(ctx context.Context, db *sql.DB, d dialect, l *slog.Logger) (*SQLStore, error) {
	if err := ensureVersion(ctx, db, d); err != nil {
		_ = db.Close()
		l.Error("ensure version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureSchema(ctx, db, d); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db, d); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Info("design store ready", slog.String("dialect", d.name))
	return &SQLStore{db: db, dialect: d, log: applog.WithComponent("storage").With(slog.String("dialect", d.name))}, nil
}

func ensureVersion(ctx context.Context, db *sql.DB, d dialect) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS store_version (
		id          INTEGER PRIMARY KEY CHECK(id=1),
		schema      INTEGER NOT NULL,
		app         TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create version table: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM store_version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// fresh database: the schema step below creates the v1 layout
		q := fmt.Sprintf(`INSERT INTO store_version (id, schema, app, created_at, updated_at) VALUES(1, 1, %s, %s, %s)`, d.ph(1), d.ph(2), d.ph(3))
		if _, err := db.ExecContext(ctx, q, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		q := fmt.Sprintf(`UPDATE store_version SET app=%s, updated_at=%s WHERE id=1`, d.ph(1), d.ph(2))
		if _, err := db.ExecContext(ctx, q, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

func ensureSchema(ctx context.Context, db *sql.DB, d dialect) error {
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS designs (
		seq        %s,
		design_id  BIGINT NOT NULL,
		stickers   TEXT   NOT NULL,
		saved_at   TEXT   NOT NULL
	)`, d.serial)
	if _, err := db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("create designs: %w", err)
	}
	return nil
}

// runMigrations applies incremental schema steps up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB, d dialect) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM store_version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{`CREATE INDEX IF NOT EXISTS idx_designs_design_id ON designs(design_id)`}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		upd := fmt.Sprintf(`UPDATE store_version SET schema=%s, updated_at=%s WHERE id=1`, d.ph(1), d.ph(2))
		if _, err := tx.ExecContext(ctx, upd, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// SchemaVersion reports the schema version recorded in the database.
func (s *SQLStore) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, `SELECT schema FROM store_version WHERE id=1`).Scan(&v)
	return v, err
}

// List returns all designs in insertion order.
func (s *SQLStore) List(ctx context.Context) ([]domain.Design, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT design_id, stickers FROM designs ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list designs: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.log.Warn("rows close", slog.Any("err", err))
		}
	}()
	out := []domain.Design{}
	for rows.Next() {
		var (
			d   domain.Design
			raw string
		)
		if err := rows.Scan(&d.ID, &raw); err != nil {
			return nil, err
		}
		d.Stickers = json.RawMessage(raw)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Append inserts d.
func (s *SQLStore) Append(ctx context.Context, d domain.Design) error {
	q := fmt.Sprintf(`INSERT INTO designs (design_id, stickers, saved_at) VALUES(%s, %s, %s)`, s.dialect.ph(1), s.dialect.ph(2), s.dialect.ph(3))
	if _, err := s.db.ExecContext(ctx, q, d.ID, string(d.Stickers), d.SavedAt().UTC().Format(time.RFC3339Nano)); err != nil {
		s.log.Error("insert design failed", slog.Int64("id", d.ID), slog.Any("err", err))
		return fmt.Errorf("insert design: %w", err)
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLStore) Close() error { return s.db.Close() }
