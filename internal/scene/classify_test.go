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

import "testing"

func TestClassifyReference(t *testing.T) {
	cases := []struct {
		ref  string
		want RefKind
	}{
		{"https://upload.wikimedia.org/wikipedia/commons/1/13/Lightning_bolt.svg", Vector},
		{"images/LOGO.SVG", Vector},
		{"  sticker.svg  ", Vector},
		{"https://cdn.example.com/a.svg?v=2#top", Vector},
		{"data:image/svg+xml;base64,PHN2Zy8+", Vector},
		{"data:image/svg+xml,%3Csvg%2F%3E", Vector},
		{"https://i.imgur.com/DS4Yy6v.png", Raster},
		{"data:image/png;base64,AAAA", Raster},
		{"https://example.com/svg", Raster},
		{"photo.svg.png", Raster},
		{"C:\\stickers\\flame.svg", Vector},
		{"", Raster},
	}
	for _, c := range cases {
		if got := ClassifyReference(c.ref); got != c.want {
			t.Fatalf("ClassifyReference(%q) = %v, want %v", c.ref, got, c.want)
		}
	}
}

func TestNormalizeVehicle(t *testing.T) {
	for in, want := range map[string]string{"car": "car", "BIKE": "bike", " truck ": "truck", "boat": "car", "": "car"} {
		if got := NormalizeVehicle(in); got != want {
			t.Fatalf("NormalizeVehicle(%q) = %q, want %q", in, got, want)
		}
	}
}
