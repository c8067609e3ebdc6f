//go:build fyne && !cgo

package ui

import "fmt"

// Run reports that the designer window needs cgo for OpenGL.
func Run(_ string) error {
	return fmt.Errorf("the designer window requires cgo (OpenGL). Install a C toolchain and rebuild with CGO_ENABLED=1: go run -tags fyne ./cmd/stickerdesigner ui")
}
