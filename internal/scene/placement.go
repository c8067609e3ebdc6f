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
	"math"

	"stickerdesigner/internal/config"
)

// Placement computes the initial transform and styling of a freshly made
// sticker. The fit fractions and bias come from the canvas profile.
type Placement struct {
	FitWidth     float64
	FitHeight    float64
	VerticalBias float64
	MaxAutoScale float64
	Handles      HandleStyle
}

// PlacementFrom takes the placement parameters out of a resolved profile.
func PlacementFrom(p config.CanvasProfile, hs HandleStyle) Placement {
	return Placement{
		FitWidth:     p.FitWidth,
		FitHeight:    p.FitHeight,
		VerticalBias: p.VerticalBias,
		MaxAutoScale: p.MaxAutoScale,
		Handles:      hs,
	}
}

// AutoScale returns the uniform fit scale for an object of natural size
// w×h on a cw×ch canvas: min(target/natural per axis, MaxAutoScale).
// Unknown sizes yield 1.
func (p Placement) AutoScale(w, h float64, cw, ch int) float64 {
	if !(w > 0) || !(h > 0) || math.IsInf(w, 0) || math.IsInf(h, 0) {
		return 1
	}
	tw := float64(cw) * p.FitWidth
	th := float64(ch) * p.FitHeight
	s := math.Min(tw/w, th/h)
	limit := p.MaxAutoScale
	if !(limit > 0) || limit > config.MaxAutoScaleCeiling {
		limit = config.MaxAutoScaleCeiling
	}
	s = math.Min(s, limit)
	if !(s > 0) {
		return 1
	}
	return s
}

// Apply positions obj at the default spot for a cw×ch canvas.
func (p Placement) Apply(obj Object, cw, ch int) {
	w, h := naturalOrBounds(obj)
	s := p.AutoScale(w, h, cw, ch)
	b := obj.base()
	b.xf = Transform{
		CenterX: float64(cw) / 2,
		CenterY: float64(ch) * p.VerticalBias,
		ScaleX:  s,
		ScaleY:  s,
	}
	b.handles = p.Handles
}

// naturalOrBounds prefers the declared size and falls back to the
// bounding box of the drawable content.
func naturalOrBounds(obj Object) (float64, float64) {
	w, h := obj.NaturalSize()
	if w > 0 && h > 0 {
		return w, h
	}
	if sv, ok := obj.(*StickerVector); ok {
		bb := sv.bounds()
		return bb.W, bb.H
	}
	return 0, 0
}
