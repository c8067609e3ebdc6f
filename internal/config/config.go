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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Canvas        CanvasConfig  `yaml:"canvas"`
	Handles       HandleConfig  `yaml:"handles"`
	Text          TextConfig    `yaml:"text"`
	Catalog       CatalogConfig `yaml:"catalog"`
	Assets        AssetsConfig  `yaml:"assets"`
	Server        ServerConfig  `yaml:"server"`
	Client        ClientConfig  `yaml:"client"`
	Logging       LoggingConfig `yaml:"logging"`
}

type GeneralConfig struct {
	TelemetryOptIn bool `yaml:"telemetry_opt_in"`
}

// CanvasConfig selects a named profile; any non-zero override wins over the profile value.
type CanvasConfig struct {
	Profile          string  `yaml:"profile"`
	Width            int     `yaml:"width,omitempty"`
	Height           int     `yaml:"height,omitempty"`
	FitWidth         float64 `yaml:"fit_width,omitempty"`
	FitHeight        float64 `yaml:"fit_height,omitempty"`
	VerticalBias     float64 `yaml:"vertical_bias,omitempty"`
	VehicleScale     float64 `yaml:"vehicle_scale,omitempty"`
	VehicleBias      float64 `yaml:"vehicle_bias,omitempty"`
	MaxAutoScale     float64 `yaml:"max_auto_scale,omitempty"`
	ExportMultiplier float64 `yaml:"export_multiplier,omitempty"`
	Background       string  `yaml:"background,omitempty"`
	DefaultVehicle   string  `yaml:"default_vehicle,omitempty"`
}

// HandleConfig is the selection affordance shared by every user-manipulable object.
type HandleConfig struct {
	CornerSize         float64 `yaml:"corner_size"`
	CornerColor        string  `yaml:"corner_color"`
	CornerShape        string  `yaml:"corner_shape"` // circle | rect
	TransparentCorners bool    `yaml:"transparent_corners"`
	BorderColor        string  `yaml:"border_color"`
	BorderScaleFactor  float64 `yaml:"border_scale_factor"`
}

type TextConfig struct {
	Font  string            `yaml:"font"`
	Size  float64           `yaml:"size"`
	Color string            `yaml:"color"`
	Fonts map[string]string `yaml:"fonts,omitempty"` // family -> TTF/OTF path
}

type CatalogEntry struct {
	ID       int    `yaml:"id"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	Image    string `yaml:"image"`
}

type CatalogConfig struct {
	Entries     []CatalogEntry `yaml:"entries,omitempty"`
	DemoSticker string         `yaml:"demo_sticker"`
}

type AssetsConfig struct {
	FetchTimeoutMs int   `yaml:"fetch_timeout_ms"`
	MaxBytes       int64 `yaml:"max_bytes"`
}

type ServerConfig struct {
	Addr         string `yaml:"addr"`
	StaticDir    string `yaml:"static_dir"`
	Store        string `yaml:"store"` // json | sqlite | postgres
	DesignsFile  string `yaml:"designs_file"`
	SQLitePath   string `yaml:"sqlite_path"`
	PostgresDSN  string `yaml:"postgres_dsn"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
}

type ClientConfig struct {
	BaseURL   string `yaml:"base_url"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false},
		Canvas:        CanvasConfig{Profile: ProfileCompact, Background: "#ffffff", DefaultVehicle: "car"},
		Handles: HandleConfig{
			CornerSize:         10,
			CornerColor:        "#6366f1",
			CornerShape:        "circle",
			TransparentCorners: false,
			BorderColor:        "#6366f1",
			BorderScaleFactor:  2,
		},
		Text: TextConfig{Font: "Arial", Size: 28, Color: "#111827"},
		Catalog: CatalogConfig{
			Entries:     DefaultCatalog(),
			DemoSticker: "https://i.imgur.com/DS4Yy6v.png",
		},
		Assets:  AssetsConfig{FetchTimeoutMs: 15000, MaxBytes: 20 << 20},
		Server:  ServerConfig{Addr: ":3000", StaticDir: "public", Store: "json", DesignsFile: "saved-designs.json", SQLitePath: "designs.sqlite", MaxBodyBytes: 10 << 20},
		Client:  ClientConfig{BaseURL: "http://localhost:3000", TimeoutMs: 15000},
		Logging: LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// DefaultCatalog is the built-in sticker seed list.
func DefaultCatalog() []CatalogEntry {
	return []CatalogEntry{
		{ID: 1, Name: "Red Car Top", Category: "cars", Image: "https://upload.wikimedia.org/wikipedia/commons/5/55/Red_car_top_view.svg"},
		{ID: 2, Name: "Motorbike Icon", Category: "bikes", Image: "https://upload.wikimedia.org/wikipedia/commons/f/f3/Motorbike_icon.svg"},
		{ID: 3, Name: "Lightning Bolt", Category: "custom", Image: "https://upload.wikimedia.org/wikipedia/commons/1/13/Lightning_bolt.svg"},
		{ID: 4, Name: "Demo Logo", Category: "custom", Image: "https://i.imgur.com/DS4Yy6v.png"},
	}
}

// Env var names used as overrides.
const (
	EnvProfile        = "VSD_PROFILE"
	EnvAddr           = "VSD_ADDR"
	EnvPort           = "PORT"
	EnvStore          = "VSD_STORE"
	EnvDesignsFile    = "VSD_DESIGNS_FILE"
	EnvSQLitePath     = "VSD_SQLITE_PATH"
	EnvPostgresDSN    = "VSD_PG_DSN"
	EnvDatabaseURL    = "DATABASE_URL"
	EnvStaticDir      = "VSD_STATIC_DIR"
	EnvBackendURL     = "VSD_BACKEND_URL"
	EnvTelemetryOptIn = "VSD_TELEMETRY_OPT_IN"
	EnvTelemetryURL   = "VSD_TELEMETRY_URL"
	EnvCrashURL       = "VSD_CRASH_UPLOAD_URL"
	EnvTelemetryMs    = "VSD_TELEMETRY_TIMEOUT_MS"
	EnvTelemetryDebug = "VSD_TELEMETRY_DEBUG"
	EnvCrashDir       = "VSD_CRASH_DIR"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "VSD_LOG_LEVEL"
	EnvLogFormat = "VSD_LOG_FORMAT"
	EnvLogSource = "VSD_LOG_SOURCE"
	EnvLogFile   = "VSD_LOG_FILE"
)

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "StickerDesigner")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "StickerDesigner")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "stickerdesigner")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
func Load() (AppConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Defaults()
		applyEnvOverrides(&cfg)
		return cfg, err
	}
	return LoadFile(path)
}

// LoadFile is Load for an explicit path. A missing file is not an error; a malformed one is.
func LoadFile(path string) (AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			applyEnvOverrides(&cfg)
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		applyEnvOverrides(&cfg)
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

// SaveFile writes cfg to path, creating the parent directory.
func SaveFile(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn

	// canvas: non-zero overrides only, profile resolution happens in Resolve
	c := &dst.Canvas
	sc := src.Canvas
	if v := strings.ToLower(strings.TrimSpace(sc.Profile)); v != "" {
		c.Profile = v
	}
	if sc.Width > 0 {
		c.Width = sc.Width
	}
	if sc.Height > 0 {
		c.Height = sc.Height
	}
	if sc.FitWidth > 0 {
		c.FitWidth = sc.FitWidth
	}
	if sc.FitHeight > 0 {
		c.FitHeight = sc.FitHeight
	}
	if sc.VerticalBias > 0 {
		c.VerticalBias = sc.VerticalBias
	}
	if sc.VehicleScale > 0 {
		c.VehicleScale = sc.VehicleScale
	}
	if sc.VehicleBias > 0 {
		c.VehicleBias = sc.VehicleBias
	}
	if sc.MaxAutoScale > 0 {
		c.MaxAutoScale = sc.MaxAutoScale
	}
	if sc.ExportMultiplier > 0 {
		c.ExportMultiplier = sc.ExportMultiplier
	}
	if v := strings.TrimSpace(sc.Background); v != "" {
		c.Background = v
	}
	if v := strings.ToLower(strings.TrimSpace(sc.DefaultVehicle)); v != "" {
		c.DefaultVehicle = v
	}

	// handles: a file that mentions handles at all is taken as a whole record
	if src.Handles != (HandleConfig{}) {
		h := src.Handles
		if h.CornerSize <= 0 {
			h.CornerSize = dst.Handles.CornerSize
		}
		if strings.TrimSpace(h.CornerColor) == "" {
			h.CornerColor = dst.Handles.CornerColor
		}
		if strings.TrimSpace(h.CornerShape) == "" {
			h.CornerShape = dst.Handles.CornerShape
		}
		if strings.TrimSpace(h.BorderColor) == "" {
			h.BorderColor = dst.Handles.BorderColor
		}
		if h.BorderScaleFactor <= 0 {
			h.BorderScaleFactor = dst.Handles.BorderScaleFactor
		}
		dst.Handles = h
	}

	if v := strings.TrimSpace(src.Text.Font); v != "" {
		dst.Text.Font = v
	}
	if src.Text.Size > 0 {
		dst.Text.Size = src.Text.Size
	}
	if v := strings.TrimSpace(src.Text.Color); v != "" {
		dst.Text.Color = v
	}
	if len(src.Text.Fonts) > 0 {
		dst.Text.Fonts = src.Text.Fonts
	}

	if len(src.Catalog.Entries) > 0 {
		dst.Catalog.Entries = src.Catalog.Entries
	}
	// an explicit empty demo_sticker disables the demo; yaml cannot tell "absent" from "",
	// so a file has to use "none" for that
	if v := strings.TrimSpace(src.Catalog.DemoSticker); v != "" {
		if strings.EqualFold(v, "none") {
			dst.Catalog.DemoSticker = ""
		} else {
			dst.Catalog.DemoSticker = v
		}
	}

	if src.Assets.FetchTimeoutMs > 0 {
		dst.Assets.FetchTimeoutMs = src.Assets.FetchTimeoutMs
	}
	if src.Assets.MaxBytes > 0 {
		dst.Assets.MaxBytes = src.Assets.MaxBytes
	}

	if v := strings.TrimSpace(src.Server.Addr); v != "" {
		dst.Server.Addr = v
	}
	if v := strings.TrimSpace(src.Server.StaticDir); v != "" {
		dst.Server.StaticDir = v
	}
	if v := strings.ToLower(strings.TrimSpace(src.Server.Store)); v != "" {
		dst.Server.Store = v
	}
	if v := strings.TrimSpace(src.Server.DesignsFile); v != "" {
		dst.Server.DesignsFile = v
	}
	if v := strings.TrimSpace(src.Server.SQLitePath); v != "" {
		dst.Server.SQLitePath = v
	}
	if v := strings.TrimSpace(src.Server.PostgresDSN); v != "" {
		dst.Server.PostgresDSN = v
	}
	if src.Server.MaxBodyBytes > 0 {
		dst.Server.MaxBodyBytes = src.Server.MaxBodyBytes
	}

	if v := strings.TrimSpace(src.Client.BaseURL); v != "" {
		dst.Client.BaseURL = v
	}
	if src.Client.TimeoutMs != 0 {
		dst.Client.TimeoutMs = src.Client.TimeoutMs
	}

	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(strings.TrimSpace(v))
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvProfile)); v != "" {
		cfg.Canvas.Profile = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvPort)); v != "" {
		cfg.Server.Addr = ":" + v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAddr)); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStore)); v != "" {
		cfg.Server.Store = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvDesignsFile)); v != "" {
		cfg.Server.DesignsFile = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSQLitePath)); v != "" {
		cfg.Server.SQLitePath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDatabaseURL)); v != "" {
		cfg.Server.PostgresDSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPostgresDSN)); v != "" {
		cfg.Server.PostgresDSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStaticDir)); v != "" {
		cfg.Server.StaticDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendURL)); v != "" {
		cfg.Client.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = parseBool(v)
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	candidates := map[string][]string{
		"canvas.profile":           {EnvProfile},
		"server.addr":              {EnvAddr, EnvPort},
		"server.store":             {EnvStore},
		"server.designs_file":      {EnvDesignsFile},
		"server.sqlite_path":       {EnvSQLitePath},
		"server.postgres_dsn":      {EnvPostgresDSN, EnvDatabaseURL},
		"server.static_dir":        {EnvStaticDir},
		"client.base_url":          {EnvBackendURL},
		"general.telemetry_opt_in": {EnvTelemetryOptIn},
		"logging.level":            {EnvLogLevel},
		"logging.format":           {EnvLogFormat},
		"logging.source":           {EnvLogSource},
		"logging.file":             {EnvLogFile},
	}
	for _, env := range candidates[key] {
		if os.Getenv(env) != "" {
			return env, true
		}
	}
	return "", false
}

// FetchTimeout is the per-reference download timeout.
func (a AssetsConfig) FetchTimeout() time.Duration {
	if a.FetchTimeoutMs <= 0 {
		return time.Duration(Defaults().Assets.FetchTimeoutMs) * time.Millisecond
	}
	return time.Duration(a.FetchTimeoutMs) * time.Millisecond
}

// Timeout returns the client request timeout.
func (c ClientConfig) Timeout() time.Duration {
	if c.TimeoutMs <= 0 {
		return time.Duration(Defaults().Client.TimeoutMs) * time.Millisecond
	}
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// String renders the addr in a log-friendly way, e.g. for "listening on".
func (s ServerConfig) String() string {
	return fmt.Sprintf("addr=%s store=%s", s.Addr, s.Store)
}

// ParsePort is a small helper for CLI flags that accept either ":3000" or "3000".
func ParsePort(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", errors.New("empty address")
	}
	if strings.Contains(v, ":") {
		return v, nil
	}
	if _, err := strconv.Atoi(v); err != nil {
		return "", fmt.Errorf("invalid port %q", v)
	}
	return ":" + v, nil
}
