/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package catalog holds the immutable sticker seed list shown in the gallery.
package catalog

import (
	"sort"
	"strings"

	"stickerdesigner/internal/config"
)

// Entry is one gallery sticker.
type Entry struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	ImageRef string `json:"image"`
}

// Catalog is read-only after construction.
type Catalog struct {
	entries []Entry
	byID    map[int]Entry
}

// New builds a catalog; later duplicates of an id are ignored.
func New(entries []Entry) *Catalog {
	c := &Catalog{byID: make(map[int]Entry, len(entries))}
	for _, e := range entries {
		if _, dup := c.byID[e.ID]; dup {
			continue
		}
		c.byID[e.ID] = e
		c.entries = append(c.entries, e)
	}
	return c
}

// FromConfig builds the catalog from the config seed list, or the built-in
// list when none is configured.
func FromConfig(cfg config.CatalogConfig) *Catalog {
	src := cfg.Entries
	if len(src) == 0 {
		src = config.DefaultCatalog()
	}
	entries := make([]Entry, 0, len(src))
	for _, e := range src {
		entries = append(entries, Entry{ID: e.ID, Name: e.Name, Category: e.Category, ImageRef: e.Image})
	}
	return New(entries)
}

// All returns every entry in seed order.
func (c *Catalog) All() []Entry { return append([]Entry(nil), c.entries...) }

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }

func (c *Catalog) ByID(id int) (Entry, bool) {
	e, ok := c.byID[id]
	return e, ok
}

// Categories returns the distinct categories, sorted.
func (c *Catalog) Categories() []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range c.entries {
		k := strings.ToLower(e.Category)
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Filter returns entries in category (case-insensitive); "" and "all"
// return everything.
func (c *Catalog) Filter(category string) []Entry {
	cat := strings.ToLower(strings.TrimSpace(category))
	if cat == "" || cat == "all" {
		return c.All()
	}
	var out []Entry
	for _, e := range c.entries {
		if strings.ToLower(e.Category) == cat {
			out = append(out, e)
		}
	}
	return out
}
