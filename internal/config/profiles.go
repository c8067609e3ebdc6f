/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"fmt"
	"math"
	"strings"
)

// MaxAutoScaleCeiling bounds the automatic fit scale of new stickers.
const MaxAutoScaleCeiling = 1.5

// Profile names. The two profiles mirror the two canvas layouts the designer
// has shipped with; neither is more correct than the other.
const (
	ProfileCompact = "compact"
	ProfileClassic = "classic"
)

// CanvasProfile is the fully resolved set of canvas and placement parameters.
type CanvasProfile struct {
	Name             string
	Width, Height    int
	FitWidth         float64 // fraction of canvas width a new sticker may occupy
	FitHeight        float64 // fraction of canvas height a new sticker may occupy
	VerticalBias     float64 // sticker centre Y as a fraction of canvas height
	VehicleScale     float64
	VehicleBias      float64 // vehicle centre Y as a fraction of canvas height
	MaxAutoScale     float64
	ExportMultiplier float64
	Background       string
	DefaultVehicle   string
}

var profiles = map[string]CanvasProfile{
	ProfileCompact: {
		Name: ProfileCompact, Width: 800, Height: 500,
		FitWidth: 0.5, FitHeight: 0.35, VerticalBias: 0.55,
		VehicleScale: 3, VehicleBias: 1 / 2.2,
		MaxAutoScale: 1.5, ExportMultiplier: 2,
		Background: "#ffffff", DefaultVehicle: "car",
	},
	ProfileClassic: {
		Name: ProfileClassic, Width: 800, Height: 600,
		FitWidth: 0.6, FitHeight: 0.4, VerticalBias: 0.5,
		VehicleScale: 2, VehicleBias: 1 / 2.2,
		MaxAutoScale: 1.5, ExportMultiplier: 2,
		Background: "#ffffff", DefaultVehicle: "car",
	},
}

// Profile looks up a built-in profile by name (case-insensitive).
func Profile(name string) (CanvasProfile, error) {
	p, ok := profiles[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return CanvasProfile{}, fmt.Errorf("unknown canvas profile %q", name)
	}
	return p, nil
}

// Resolve merges the overrides in c onto its named profile. An empty or
// unknown profile name falls back to compact and reports the error.
func (c CanvasConfig) Resolve() (CanvasProfile, error) {
	name := c.Profile
	if strings.TrimSpace(name) == "" {
		name = ProfileCompact
	}
	p, err := Profile(name)
	if err != nil {
		p = profiles[ProfileCompact]
	}
	if c.Width > 0 {
		p.Width = c.Width
	}
	if c.Height > 0 {
		p.Height = c.Height
	}
	if c.FitWidth > 0 {
		p.FitWidth = c.FitWidth
	}
	if c.FitHeight > 0 {
		p.FitHeight = c.FitHeight
	}
	if c.VerticalBias > 0 {
		p.VerticalBias = c.VerticalBias
	}
	if c.VehicleScale > 0 {
		p.VehicleScale = c.VehicleScale
	}
	if c.VehicleBias > 0 {
		p.VehicleBias = c.VehicleBias
	}
	if c.MaxAutoScale > 0 {
		p.MaxAutoScale = math.Min(c.MaxAutoScale, MaxAutoScaleCeiling)
	}
	if c.ExportMultiplier > 0 {
		p.ExportMultiplier = c.ExportMultiplier
	}
	if v := strings.TrimSpace(c.Background); v != "" {
		p.Background = v
	}
	if v := strings.TrimSpace(c.DefaultVehicle); v != "" {
		p.DefaultVehicle = strings.ToLower(v)
	}
	return p, err
}
