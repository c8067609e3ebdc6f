//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"stickerdesigner/internal/assets"
	"stickerdesigner/internal/backend"
	"stickerdesigner/internal/catalog"
	"stickerdesigner/internal/config"
	"stickerdesigner/internal/crash"
	"stickerdesigner/internal/designer"
	"stickerdesigner/internal/export"
	applog "stickerdesigner/internal/log"
	"stickerdesigner/internal/scene"
	"stickerdesigner/internal/telemetry"
	"stickerdesigner/internal/version"
)

const allCategories = "All"

// Run starts the desktop designer window. cfgPath selects a config file; empty
// uses the user config.
func Run(cfgPath string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	applog.Init(applog.FromConfig(cfg.Logging))
	l := applog.WithComponent("ui")
	l.Info("starting UI", slog.String("version", version.String()))

	tc := telemetry.New(telemetry.FromConfig(cfg))
	telemetry.SetDefault(tc)
	defer tc.Close()

	fyneApp := app.NewWithID("stickerdesigner")
	w := fyneApp.NewWindow("Vehicle Sticker Designer")
	// Restore window size from preferences (with sane minimums)
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1100)
	winH := prefs.IntWithFallback("window.height", 720)
	if winW < 800 {
		winW = 800
	}
	if winH < 560 {
		winH = 560
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	notify := scene.NotifierFunc(func(msg string) {
		l.Info("notify", slog.String("msg", msg))
		fyne.Do(func() {
			status.SetText(msg)
			dialog.ShowInformation("Sticker Designer", msg, w)
		})
	})

	var saver designer.Saver
	if strings.TrimSpace(cfg.Client.BaseURL) != "" {
		saver = backend.NewClientFromConfig(cfg.Client)
	}
	d, err := designer.New(designer.Options{
		Config:    cfg,
		Saver:     saver,
		Confirmer: confirmOn(w),
		Notifier:  notify,
		Tracker:   tc,
		Logger:    l,
	})
	if err != nil {
		return err
	}
	m := d.Scene()
	defer crash.Recover(m)
	defer d.Close()

	sc := NewStickerCanvas(m)
	sc.OnBeforeChange = d.Checkpoint
	m.OnChange(func() { fyne.Do(sc.Refresh) })

	// background runs fn off the UI goroutine; errors land in the status line.
	background := func(what string, fn func(ctx context.Context) error) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := fn(ctx); err != nil {
				reportError(w, status, l, what, err)
			}
		}()
	}

	// Vehicle selector
	vehicleSel := widget.NewSelect(scene.VehicleKinds, func(kind string) {
		if kind == "" || kind == m.VehicleKind() {
			return
		}
		background("vehicle", func(context.Context) error { return d.SelectVehicle(kind) })
	})

	// Catalog list with category filter
	entries := d.Catalog().All()
	catList := widget.NewList(
		func() int { return len(entries) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i >= 0 && int(i) < len(entries) {
				o.(*widget.Label).SetText(entries[i].Name)
			} else {
				o.(*widget.Label).SetText("")
			}
		},
	)
	catList.OnSelected = func(i widget.ListItemID) {
		if i < 0 || int(i) >= len(entries) {
			return
		}
		e := entries[i]
		catList.UnselectAll()
		background("catalog", func(ctx context.Context) error {
			_, err := d.PickCatalog(ctx, e.ID)
			return err
		})
	}
	categorySel := widget.NewSelect(categoryOptions(d.Catalog()), func(cat string) {
		entries = filterCatalog(d.Catalog(), cat)
		catList.Refresh()
	})
	categorySel.SetSelected(allCategories)

	// Text tool
	textEntry := widget.NewEntry()
	textEntry.SetPlaceHolder("Sticker text")
	addTextBtn := widget.NewButton("Add Text", func() {
		content := textEntry.Text
		if _, err := d.AddText(content, "", 0, ""); err != nil {
			reportError(w, status, l, "text", err)
			return
		}
		textEntry.SetText("")
	})

	uploadBtn := widget.NewButton("Upload…", func() {
		open := dialog.NewFileOpen(func(ur fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if ur == nil {
				return
			}
			data, rerr := io.ReadAll(ur)
			name := ur.URI().Name()
			_ = ur.Close()
			if rerr != nil {
				dialog.ShowError(rerr, w)
				return
			}
			file := scene.UserFile{Name: name, MIME: assets.SniffMIME(data, name), Data: data}
			background("upload", func(ctx context.Context) error {
				_, err := d.Upload(ctx, file)
				return err
			})
		}, w)
		open.SetFilter(fstorage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".svg", ".webp"}))
		open.Show()
	})

	// Selection tools
	rotate := func(deg float64) {
		d.Checkpoint()
		_ = m.Rotate(deg)
	}
	rotL := widget.NewButton("⟲", func() { rotate(-15) })
	rotR := widget.NewButton("⟳", func() { rotate(15) })
	undoBtn := widget.NewButton("Undo", func() {
		if _, err := d.Undo(); err != nil {
			reportError(w, status, l, "undo", err)
		}
	})
	redoBtn := widget.NewButton("Redo", func() {
		if _, err := d.Redo(); err != nil {
			reportError(w, status, l, "redo", err)
		}
	})
	forward := widget.NewButton("Forward", func() {
		if sel := m.Selection(); sel != nil {
			_ = m.BringForward(sel.ID())
		}
	})
	backward := widget.NewButton("Backward", func() {
		if sel := m.Selection(); sel != nil {
			_ = m.SendBackward(sel.ID())
		}
	})

	clearBtn := widget.NewButton("Clear", func() {
		background("clear", func(context.Context) error { return d.Clear() })
	})

	formatSel := widget.NewSelect([]string{string(export.FormatPNG), string(export.FormatJPEG), string(export.FormatPDF), string(export.FormatSVG)}, nil)
	formatSel.SetSelected(prefs.StringWithFallback("export.format", string(export.FormatPNG)))
	downloadBtn := widget.NewButton("Download", func() {
		f, err := export.ParseFormat(formatSel.Selected)
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		name, data, err := d.DownloadAs(f, cfg.Canvas.ExportMultiplier)
		if err != nil {
			reportError(w, status, l, "download", err)
			return
		}
		prefs.SetString("export.format", string(f))
		save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				return
			}
			_, werr := uc.Write(data)
			cerr := uc.Close()
			if werr = errors.Join(werr, cerr); werr != nil {
				dialog.ShowError(werr, w)
				return
			}
			status.SetText("Exported " + uc.URI().Name())
		}, w)
		save.SetFileName(name)
		save.SetFilter(fstorage.NewExtensionFileFilter([]string{"." + f.Ext()}))
		save.Show()
	})

	saveBtn := widget.NewButton("Save Design", func() {
		background("save", func(ctx context.Context) error {
			res, err := d.Save(ctx)
			if err != nil {
				return err
			}
			fyne.Do(func() {
				status.SetText(res.Message)
				dialog.ShowInformation("Save Design", res.Message, w)
			})
			return nil
		})
	})

	w.SetOnDropped(func(_ fyne.Position, uris []fyne.URI) {
		for _, u := range uris {
			ref := u.String()
			if u.Scheme() == "file" {
				ref = u.Path()
			}
			background("drop", func(ctx context.Context) error {
				_, err := d.Drop(ctx, ref)
				return err
			})
		}
	})

	left := container.NewBorder(
		container.NewVBox(widget.NewLabel("Vehicle"), vehicleSel, widget.NewSeparator(), widget.NewLabel("Stickers"), categorySel),
		container.NewVBox(widget.NewSeparator(), textEntry, addTextBtn, uploadBtn),
		nil, nil,
		catList,
	)
	toolbar := container.NewHBox(undoBtn, redoBtn, widget.NewSeparator(), rotL, rotR, forward, backward, widget.NewSeparator(), clearBtn, layoutSpacer(), formatSel, downloadBtn, saveBtn)
	center := container.NewBorder(toolbar, status, nil, nil, sc)
	split := container.NewHSplit(left, center)
	split.Offset = 0.24
	w.SetContent(split)

	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		w.Close()
	})

	if err := d.Activate(context.Background()); err != nil {
		return err
	}
	vehicleSel.SetSelected(m.VehicleKind())

	w.ShowAndRun()
	return nil
}

func loadConfig(path string) (config.AppConfig, error) {
	if strings.TrimSpace(path) == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

// confirmOn asks through a modal dialog. The scene calls it off the UI
// goroutine, so it blocks until the user answers.
func confirmOn(w fyne.Window) scene.Confirmer {
	return scene.ConfirmFunc(func(prompt string) bool {
		answer := make(chan bool, 1)
		fyne.Do(func() {
			dialog.ShowConfirm("Please confirm", prompt, func(ok bool) { answer <- ok }, w)
		})
		return <-answer
	})
}

func reportError(w fyne.Window, status *widget.Label, l *slog.Logger, what string, err error) {
	if errors.Is(err, scene.ErrStaleScene) || errors.Is(err, context.Canceled) {
		l.Debug("dropped stale result", slog.String("op", what))
		return
	}
	l.Error(what+" failed", slog.Any("err", err))
	fyne.Do(func() {
		status.SetText(fmt.Sprintf("%s failed: %v", what, err))
		if !scene.IsValidation(err) {
			dialog.ShowError(err, w)
		}
	})
}

func categoryOptions(c *catalog.Catalog) []string {
	return append([]string{allCategories}, c.Categories()...)
}

func filterCatalog(c *catalog.Catalog, category string) []catalog.Entry { return c.Filter(category) }

func layoutSpacer() fyne.CanvasObject {
	r := canvas.NewRectangle(color.Transparent)
	r.SetMinSize(fyne.NewSize(24, 1))
	return r
}

// StickerCanvas shows the scene preview and maps pointer input onto the
// scene's selection: tap selects, drag moves, wheel scales.
type StickerCanvas struct {
	widget.BaseWidget
	m *scene.Manager

	// OnBeforeChange runs before a drag or wheel step changes the selection.
	OnBeforeChange func()

	dragging bool
}

func NewStickerCanvas(m *scene.Manager) *StickerCanvas {
	sc := &StickerCanvas{m: m}
	sc.ExtendBaseWidget(sc)
	return sc
}

// CreateRenderer builds the backdrop and the preview image.
func (s *StickerCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 30, G: 30, B: 34, A: 255})
	img := canvas.NewImageFromImage(nil)
	img.FillMode = canvas.ImageFillStretch
	img.ScaleMode = canvas.ImageScaleSmooth
	r := &stickerCanvasRenderer{sc: s, bg: bg, img: img, objects: []fyne.CanvasObject{bg, img}}
	r.Refresh()
	return r
}

// PreferredSize matches the compact canvas so the whole design fits at 1:1.
func (s *StickerCanvas) PreferredSize() fyne.Size { return fyne.NewSize(800, 500) }

// view returns where the scene canvas sits inside the widget.
func (s *StickerCanvas) view() (ox, oy, scale float32) {
	w, h := s.m.Size()
	return fitInto(s.Size(), w, h)
}

// fitInto centres a cw x ch canvas inside size, preserving aspect ratio.
func fitInto(size fyne.Size, cw, ch int) (ox, oy, scale float32) {
	if cw <= 0 || ch <= 0 || size.Width <= 0 || size.Height <= 0 {
		return 0, 0, 1
	}
	sx := size.Width / float32(cw)
	sy := size.Height / float32(ch)
	scale = sx
	if sy < scale {
		scale = sy
	}
	ox = (size.Width - float32(cw)*scale) / 2
	oy = (size.Height - float32(ch)*scale) / 2
	return ox, oy, scale
}

// toScene converts a widget position to scene coordinates.
func (s *StickerCanvas) toScene(pos fyne.Position) (float64, float64) {
	ox, oy, scale := s.view()
	return float64((pos.X - ox) / scale), float64((pos.Y - oy) / scale)
}

// Tapped selects the topmost interactive object under the pointer.
func (s *StickerCanvas) Tapped(e *fyne.PointEvent) {
	x, y := s.toScene(e.Position)
	if obj, ok := s.m.HitTest(x, y); ok {
		_ = s.m.Select(obj.ID())
		return
	}
	s.m.Deselect()
}

// Dragged moves the selection; a drag that starts on an object selects it first.
func (s *StickerCanvas) Dragged(e *fyne.DragEvent) {
	if !s.dragging {
		s.dragging = true
		start := e.Position.Subtract(e.Dragged)
		x, y := s.toScene(start)
		if obj, ok := s.m.HitTest(x, y); ok {
			_ = s.m.Select(obj.ID())
		}
	}
	if s.m.Selection() == nil {
		return
	}
	s.beforeChange()
	_, _, scale := s.view()
	_ = s.m.Move(float64(e.Dragged.DX/scale), float64(e.Dragged.DY/scale))
}

func (s *StickerCanvas) DragEnd() { s.dragging = false }

// Scrolled scales the selection by 5% per wheel step.
func (s *StickerCanvas) Scrolled(e *fyne.ScrollEvent) {
	if s.m.Selection() == nil || e.Scrolled.DY == 0 {
		return
	}
	factor := 1.05
	if e.Scrolled.DY < 0 {
		factor = 1 / factor
	}
	s.beforeChange()
	_ = s.m.ScaleBy(factor)
}

func (s *StickerCanvas) beforeChange() {
	if s.OnBeforeChange != nil {
		s.OnBeforeChange()
	}
}

type stickerCanvasRenderer struct {
	sc      *StickerCanvas
	bg      *canvas.Rectangle
	img     *canvas.Image
	objects []fyne.CanvasObject
}

func (r *stickerCanvasRenderer) Destroy()                     {}
func (r *stickerCanvasRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *stickerCanvasRenderer) MinSize() fyne.Size           { return fyne.NewSize(400, 250) }

func (r *stickerCanvasRenderer) Refresh() {
	var img image.Image
	if rgba, err := r.sc.m.RenderPreview(1); err == nil {
		img = rgba
	}
	r.img.Image = img
	r.Layout(r.sc.Size())
	canvas.Refresh(r.sc)
}

func (r *stickerCanvasRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))
	w, h := r.sc.m.Size()
	ox, oy, scale := fitInto(size, w, h)
	r.img.Move(fyne.NewPos(ox, oy))
	r.img.Resize(fyne.NewSize(float32(w)*scale, float32(h)*scale))
	if r.img.Image == nil {
		r.img.Hide()
	} else {
		r.img.Show()
	}
}
