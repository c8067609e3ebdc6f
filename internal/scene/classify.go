/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package scene

import (
	"net/url"
	"strings"

	"stickerdesigner/internal/assets"
)

// RefKind says which decoder a reference should be routed to.
type RefKind int

const (
	Raster RefKind = iota
	Vector
)

func (k RefKind) String() string {
	if k == Vector {
		return "vector"
	}
	return "raster"
}

// ClassifyReference routes a catalog entry, dropped URL or data URL.
// A reference is vector when its path ends in ".svg" (any case, query and
// fragment ignored) or when it is an SVG data URL. Everything else is raster.
func ClassifyReference(ref string) RefKind {
	r := strings.TrimSpace(ref)
	if r == "" {
		return Raster
	}
	if strings.HasPrefix(strings.ToLower(r), "data:") {
		if assets.DataURLMIME(r) == assets.MIMESVG {
			return Vector
		}
		return Raster
	}
	p := r
	if u, err := url.Parse(r); err == nil && u.Scheme != "" && u.Opaque == "" {
		p = u.Path
	} else if i := strings.IndexAny(r, "?#"); i >= 0 {
		p = r[:i]
	}
	if strings.HasSuffix(strings.ToLower(p), ".svg") {
		return Vector
	}
	return Raster
}
