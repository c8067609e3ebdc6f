/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"stickerdesigner/internal/backend"
	"stickerdesigner/internal/catalog"
	"stickerdesigner/internal/config"
	"stickerdesigner/internal/crash"
	"stickerdesigner/internal/designer"
	"stickerdesigner/internal/domain"
	"stickerdesigner/internal/export"
	applog "stickerdesigner/internal/log"
	"stickerdesigner/internal/scene"
	"stickerdesigner/internal/telemetry"
	"stickerdesigner/internal/ui"
	"stickerdesigner/internal/version"
)

func usage() {
	fmt.Println("Vehicle Sticker Designer")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  stickerdesigner version|-v|--version            Show version")
	fmt.Println("  stickerdesigner serve [-addr :3000] [-store json|sqlite|postgres] [-static dir]")
	fmt.Println("                                                  Run the design service and static front end")
	fmt.Println("  stickerdesigner render [-vehicle car] [-sticker ref|id]... [-text t] [-format png] [-scale 2] [-o file] [-thumb px]")
	fmt.Println("                                                  Compose a design headlessly and export it")
	fmt.Println("  stickerdesigner batch [-preset web|print] [-format png,pdf] [-sticker ref|id]... [-out dir]")
	fmt.Println("                                                  Export one design in several formats")
	fmt.Println("  stickerdesigner designs list|save <file.json> [-url base] [-summary]")
	fmt.Println("                                                  List or save designs through the service")
	fmt.Println("  stickerdesigner catalog [category]              Print the sticker catalog")
	fmt.Println("  stickerdesigner ui [-config file]               Launch the designer window (build with -tags fyne)")
	fmt.Println()
	fmt.Println("Every command accepts -config <file> to use a specific YAML config.")
}

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}
	var err error
	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("Vehicle Sticker Designer")
		fmt.Println(version.String())
		return
	case "serve":
		err = runServe(args[2:])
	case "render":
		err = runRender(args[2:], false)
	case "batch":
		err = runRender(args[2:], true)
	case "designs":
		err = runDesigns(args[2:])
	case "catalog":
		err = runCatalog(args[2:])
	case "ui":
		fs := flag.NewFlagSet("ui", flag.ExitOnError)
		cfgPath := fs.String("config", "", "config file")
		_ = fs.Parse(args[2:])
		err = ui.Run(*cfgPath)
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Printf("unknown command %q\n\n", args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		l.Error("command failed", slog.String("cmd", args[1]), slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

// stringList collects a repeatable flag.
type stringList []string

func (s *stringList) String() string     { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error { *s = append(*s, v); return nil }

// loadConfig reads the user config (or path) and re-initializes logging from it.
func loadConfig(path string) (config.AppConfig, error) {
	var cfg config.AppConfig
	var err error
	if strings.TrimSpace(path) == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFile(path)
	}
	if err != nil {
		return cfg, err
	}
	applog.Init(applog.FromConfig(cfg.Logging))
	return cfg, nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "", "config file")
	addr := fs.String("addr", "", "listen address (default from config, :3000)")
	store := fs.String("store", "", "json | sqlite | postgres")
	static := fs.String("static", "", "static front-end directory")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		if !strings.Contains(*addr, ":") {
			*addr = ":" + *addr
		}
		cfg.Server.Addr = *addr
	}
	if *store != "" {
		cfg.Server.Store = *store
	}
	if *static != "" {
		cfg.Server.StaticDir = *static
	}

	tc := telemetry.New(telemetry.FromConfig(cfg))
	telemetry.SetDefault(tc)
	defer tc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return backend.Start(ctx, cfg.Server)
}

func runRender(args []string, batch bool) error {
	name := "render"
	if batch {
		name = "batch"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	cfgPath := fs.String("config", "", "config file")
	vehicle := fs.String("vehicle", "", "car | bike | truck")
	var stickers stringList
	fs.Var(&stickers, "sticker", "catalog id, URL, data URL or file path (repeatable)")
	text := fs.String("text", "", "add a text label")
	format := fs.String("format", "", "png | jpeg | pdf | svg (batch: comma separated)")
	scale := fs.Float64("scale", 0, "export multiplier (default from canvas profile)")
	out := fs.String("o", "", "output file (render)")
	outDir := fs.String("out", "", "output directory (batch)")
	preset := fs.String("preset", string(export.PresetWeb), "web | print (batch)")
	thumb := fs.Int("thumb", 0, "also write a PNG thumbnail with this longest side")
	noDemo := fs.Bool("no-demo", false, "do not add the demo sticker")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *noDemo || len(stickers) > 0 || *text != "" {
		cfg.Catalog.DemoSticker = ""
	}
	l := applog.WithComponent("render")
	d, err := designer.New(designer.Options{
		Config:   cfg,
		Notifier: scene.NotifierFunc(func(msg string) { fmt.Fprintln(os.Stderr, msg) }),
		Logger:   l,
	})
	if err != nil {
		return err
	}
	defer d.Close()
	defer crash.Recover(d.Scene())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := d.Activate(ctx); err != nil {
		return err
	}
	if *vehicle != "" {
		if err := d.SelectVehicle(*vehicle); err != nil {
			return err
		}
	}
	for _, ref := range stickers {
		if id, convErr := strconv.Atoi(ref); convErr == nil {
			_, err = d.PickCatalog(ctx, id)
		} else {
			_, err = d.Drop(ctx, ref)
		}
		if err != nil {
			return fmt.Errorf("sticker %q: %w", ref, err)
		}
	}
	if *text != "" {
		if _, err := d.AddText(*text, "", 0, ""); err != nil {
			return err
		}
	}
	d.Scene().Deselect()

	if batch {
		var formats []string
		if *format != "" {
			formats = strings.Split(*format, ",")
		}
		paths, err := export.BatchExport(d.Scene(), export.BatchOptions{
			Preset:     export.PresetName(*preset),
			Formats:    formats,
			Multiplier: *scale,
			OutDir:     *outDir,
			Now:        time.Now(),
		})
		for _, p := range paths {
			fmt.Println("Wrote", p)
		}
		return err
	}

	f, err := export.ParseFormat(*format)
	if err != nil {
		return err
	}
	mult := *scale
	if mult <= 0 {
		mult = cfg.Canvas.ExportMultiplier
	}
	fileName, data, err := d.DownloadAs(f, mult)
	if err != nil {
		return err
	}
	path := *out
	if path == "" {
		path = fileName
	}
	if err := export.WriteFile(path, data); err != nil {
		return err
	}
	fmt.Println("Wrote", path)

	if *thumb > 0 {
		img, err := d.Scene().ExportImage(1)
		if err != nil {
			return err
		}
		thumbPath := strings.TrimSuffix(path, filepath.Ext(path)) + "-thumb.png"
		fh, err := os.Create(thumbPath)
		if err != nil {
			return err
		}
		werr := export.PNG(fh, export.Thumbnail(img, *thumb))
		if err := errors.Join(werr, fh.Close()); err != nil {
			return err
		}
		fmt.Println("Wrote", thumbPath)
	}
	return nil
}

func runDesigns(args []string) error {
	if len(args) < 1 {
		return errors.New("designs requires list or save <file.json>")
	}
	sub := args[0]
	fs := flag.NewFlagSet("designs "+sub, flag.ExitOnError)
	cfgPath := fs.String("config", "", "config file")
	baseURL := fs.String("url", "", "design service base URL")
	summary := fs.Bool("summary", false, "list: one line per design instead of JSON")
	_ = fs.Parse(args[1:])

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *baseURL != "" {
		cfg.Client.BaseURL = *baseURL
	}
	c := backend.NewClientFromConfig(cfg.Client)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Client.Timeout())
	defer cancel()

	switch sub {
	case "list":
		designs, err := c.ListDesigns(ctx)
		if err != nil {
			return err
		}
		if *summary {
			for _, d := range designs {
				fmt.Printf("%d  %s  %s\n", d.ID, d.SavedAt().Format(time.RFC3339), describeStickers(d.Stickers))
			}
			return nil
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(designs)
	case "save":
		if fs.NArg() < 1 {
			return errors.New("designs save requires <file.json>")
		}
		raw, err := os.ReadFile(fs.Arg(0))
		if err != nil {
			return err
		}
		var stickers any
		if err := json.Unmarshal(raw, &stickers); err != nil {
			return fmt.Errorf("%s: %w", fs.Arg(0), err)
		}
		res, err := c.SaveDesign(ctx, stickers)
		if err != nil {
			return err
		}
		fmt.Println(res.Message)
		return nil
	default:
		return fmt.Errorf("unknown designs command %q", sub)
	}
}

// describeStickers counts objects by type for designs saved by this tool.
// Other payload shapes are reported by size only.
func describeStickers(raw json.RawMessage) string {
	list, err := domain.DecodeStickers(raw)
	if err != nil {
		return fmt.Sprintf("opaque stickers (%d bytes)", len(raw))
	}
	counts := map[string]int{}
	for _, s := range list {
		counts[s.Type]++
	}
	parts := []string{fmt.Sprintf("%d objects", len(list))}
	for _, k := range []string{domain.TypeImage, domain.TypeVector, domain.TypeText} {
		if counts[k] > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
		}
	}
	return strings.Join(parts, " ")
}

func runCatalog(args []string) error {
	fs := flag.NewFlagSet("catalog", flag.ExitOnError)
	cfgPath := fs.String("config", "", "config file")
	_ = fs.Parse(args)
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	c := catalog.FromConfig(cfg.Catalog)
	for _, e := range c.Filter(fs.Arg(0)) {
		fmt.Printf("%3d  %-20s %-10s %s\n", e.ID, e.Name, e.Category, e.ImageRef)
	}
	return nil
}
