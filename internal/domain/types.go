/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// Data model shared by the designer, the persistence service and its stores.
// Saved designs keep their sticker list opaque: the service never interprets
// it beyond checking that it is present.

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

// Object type names used in sticker descriptors.
const (
	TypeVehicle = "vehicle"
	TypeImage   = "image"
	TypeVector  = "vector"
	TypeText    = "text"
)

// Design is one persisted record: {id: unix-millis, stickers: <opaque>}.
type Design struct {
	ID       int64           `json:"id"`
	Stickers json.RawMessage `json:"stickers"`
}

// NewDesign stamps stickers with the given time in Unix milliseconds.
func NewDesign(now time.Time, stickers json.RawMessage) Design {
	return Design{ID: now.UnixMilli(), Stickers: Compact(stickers)}
}

// SavedAt converts the id back into a timestamp.
func (d Design) SavedAt() time.Time { return time.UnixMilli(d.ID) }

// StickerDescriptor is the serialisable snapshot of one placed object as the
// designer submits it for saving. Positions are canvas pixels, centre origin.
type StickerDescriptor struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"`
	Source     string  `json:"source,omitempty"`
	Vehicle    string  `json:"vehicle,omitempty"`
	Text       string  `json:"text,omitempty"`
	FontFamily string  `json:"fontFamily,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty"`
	Fill       string  `json:"fill,omitempty"`
	Left       float64 `json:"left"`
	Top        float64 `json:"top"`
	ScaleX     float64 `json:"scaleX"`
	ScaleY     float64 `json:"scaleY"`
	Angle      float64 `json:"angle"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
}

// ErrNoStickers marks a design without a usable stickers value.
var ErrNoStickers = errors.New("No stickers data")

// Compact strips insignificant whitespace so every store returns the same
// bytes. Invalid JSON is kept as is.
func Compact(raw json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}

// Truthy reports whether raw would count as present: missing, null, false,
// 0 and "" do not. Empty arrays, objects and non-empty strings do.
func Truthy(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 {
		return false
	}
	switch string(t) {
	case "null", "false", `""`:
		return false
	}
	if t[0] == '"' {
		return true
	}
	var n json.Number
	if err := json.Unmarshal(t, &n); err == nil {
		f, err := n.Float64()
		return err != nil || f != 0
	}
	return true
}

// DecodeStickers interprets a stickers payload as descriptors. Payloads
// written by other clients may not follow that shape; those yield an error.
func DecodeStickers(raw json.RawMessage) ([]StickerDescriptor, error) {
	var out []StickerDescriptor
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
