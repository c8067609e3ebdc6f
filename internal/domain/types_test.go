/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDesignJSONKeepsStickersOpaque(t *testing.T) {
	d := NewDesign(time.UnixMilli(1700000000123), json.RawMessage(`[{"id":1,"anything":true}]`))
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"id":1700000000123,"stickers":[{"id":1,"anything":true}]}` {
		t.Fatalf("unexpected encoding: %s", b)
	}
	if !d.SavedAt().Equal(time.UnixMilli(1700000000123)) {
		t.Fatalf("SavedAt mismatch: %v", d.SavedAt())
	}
}

func TestTruthy(t *testing.T) {
	cases := map[string]bool{
		"":           false,
		"null":       false,
		"false":      false,
		"0":          false,
		"0.0":        false,
		`""`:         false,
		"[]":         true,
		"{}":         true,
		"1":          true,
		`"x"`:        true,
		`"0"`:        true,
		`"0.0"`:      true,
		`"-0"`:       true,
		`"false"`:    true,
		"true":       true,
		`[{"id":1}]`: true,
	}
	for in, want := range cases {
		if got := Truthy(json.RawMessage(in)); got != want {
			t.Fatalf("Truthy(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDecodeStickers(t *testing.T) {
	list, err := DecodeStickers(json.RawMessage(`[{"id":"a","type":"text","text":"Hi","left":400,"top":250,"scaleX":1,"scaleY":1}]`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].Type != TypeText || list[0].Left != 400 {
		t.Fatalf("unexpected descriptors: %+v", list)
	}
	if _, err := DecodeStickers(json.RawMessage(`{"not":"a list"}`)); err == nil {
		t.Fatalf("expected error for non-array payload")
	}
}
