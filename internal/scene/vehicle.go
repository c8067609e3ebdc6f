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

import "strings"

// Vehicle kinds with a built-in silhouette.
const (
	VehicleCar   = "car"
	VehicleBike  = "bike"
	VehicleTruck = "truck"
)

// VehicleKinds lists the supported kinds in selector order.
var VehicleKinds = []string{VehicleCar, VehicleBike, VehicleTruck}

var vehicleTemplates = map[string]string{
	VehicleCar: `<svg width="100" height="50" viewBox="0 0 100 50" xmlns="http://www.w3.org/2000/svg">
  <rect x="10" y="20" width="80" height="20" fill="#374151" rx="2"/>
  <rect x="15" y="15" width="70" height="10" fill="#4B5563" rx="1"/>
  <circle cx="25" cy="45" r="8" fill="#6B7280"/>
  <circle cx="75" cy="45" r="8" fill="#6B7280"/>
</svg>`,
	VehicleBike: `<svg width="100" height="50" viewBox="0 0 100 50" xmlns="http://www.w3.org/2000/svg">
  <circle cx="20" cy="35" r="12" fill="#374151"/>
  <circle cx="80" cy="35" r="12" fill="#374151"/>
  <line x1="20" y1="35" x2="80" y2="35" stroke="#374151" stroke-width="3"/>
</svg>`,
	VehicleTruck: `<svg width="100" height="50" viewBox="0 0 100 50" xmlns="http://www.w3.org/2000/svg">
  <rect x="10" y="25" width="40" height="20" fill="#374151" rx="2"/>
  <rect x="50" y="20" width="40" height="25" fill="#4B5563" rx="2"/>
  <circle cx="25" cy="50" r="8" fill="#6B7280"/>
  <circle cx="75" cy="50" r="8" fill="#6B7280"/>
</svg>`,
}

// Placeholder tile geometry and caption, shared by the SVG markup and the
// raster caption.
const (
	placeholderSide        = 60
	placeholderCaption     = "Sticker"
	placeholderCaptionPx   = 12
	placeholderCaptionFill = "#9CA3AF"
	placeholderFont        = "Arial"
)

// placeholderSVG is the neutral sticker substituted for assets that fail
// to load.
const placeholderSVG = `<svg width="60" height="60" viewBox="0 0 60 60" xmlns="http://www.w3.org/2000/svg">
  <rect width="60" height="60" rx="8" fill="#F3F4F6"/>
  <rect x="10" y="10" width="40" height="40" rx="4" fill="#E5E7EB"/>
  <text x="30" y="36" font-family="Arial" font-size="12" fill="#9CA3AF" text-anchor="middle">Sticker</text>
</svg>`

// NormalizeVehicle maps unknown kinds to car.
func NormalizeVehicle(kind string) string {
	k := strings.ToLower(strings.TrimSpace(kind))
	if _, ok := vehicleTemplates[k]; ok {
		return k
	}
	return VehicleCar
}

// VehicleMarkup returns the silhouette SVG for kind (car when unknown).
func VehicleMarkup(kind string) string {
	return vehicleTemplates[NormalizeVehicle(kind)]
}
