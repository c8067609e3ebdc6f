/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// PDFOptions controls PDF export behavior.
// The page is sized to the canvas in points (one canvas pixel per point) and
// carries the flattened raster scaled to fill it, so a 2x raster prints at
// 144 dpi.
type PDFOptions struct {
	Title  string
	Author string
}

// PDF writes a single-page document holding img stretched to wPt×hPt.
func PDF(w io.Writer, img image.Image, wPt, hPt float64, opt PDFOptions) error {
	if wPt <= 0 || hPt <= 0 {
		return fmt.Errorf("invalid page size %.1fx%.1f", wPt, hPt)
	}
	var raster bytes.Buffer
	if err := PNG(&raster, img); err != nil {
		return err
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: wPt, Ht: hPt},
	})
	title := opt.Title
	if title == "" {
		title = "Vehicle sticker design"
	}
	author := opt.Author
	if author == "" {
		author = "Sticker Designer"
	}
	pdf.SetTitle(title, false)
	pdf.SetAuthor(author, false)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	imgOpt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader("design", imgOpt, &raster)
	pdf.ImageOptions("design", 0, 0, wPt, hPt, false, imgOpt, 0, "")
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
