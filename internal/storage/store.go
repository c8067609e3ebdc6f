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
	"errors"
	"fmt"
	"strings"

	"stickerdesigner/internal/config"
	"stickerdesigner/internal/domain"
)

// Store persists saved designs in insertion order.
type Store interface {
	// List returns every design, oldest first. An empty store yields an empty slice.
	List(ctx context.Context) ([]domain.Design, error)
	// Append adds d after the existing designs.
	Append(ctx context.Context, d domain.Design) error
	// Ping reports whether the store can serve requests.
	Ping(ctx context.Context) error
	Close() error
}

// Store kinds accepted by Open.
const (
	KindJSON     = "json"
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
)

// ErrUnknownStore is returned by Open for an unsupported store kind.
var ErrUnknownStore = errors.New("unknown store kind")

// Open builds the store selected by cfg.Store (json when empty).
func Open(ctx context.Context, cfg config.ServerConfig) (Store, error) {
	switch kind := strings.ToLower(strings.TrimSpace(cfg.Store)); kind {
	case "", KindJSON:
		path := cfg.DesignsFile
		if path == "" {
			path = config.Defaults().Server.DesignsFile
		}
		return NewJSONFile(path), nil
	case KindSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = config.Defaults().Server.SQLitePath
		}
		s, err := OpenSQLite(ctx, path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case KindPostgres, "pg", "postgresql":
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return nil, errors.New("postgres store requires a DSN")
		}
		s, err := OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, kind)
	}
}
