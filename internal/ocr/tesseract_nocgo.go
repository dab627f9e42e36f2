//go:build !cgo

package ocr

import (
	"context"
	"errors"
	"image"

	"github.com/ironsheep/text-detect-mcp/internal/detection"
)

// ErrUnavailable is returned when the binary was built without cgo.
var ErrUnavailable = errors.New("tesseract requires a cgo-enabled build")

// Tesseract is a placeholder in builds without cgo; it cannot be constructed.
type Tesseract struct{}

var _ detection.Detector = (*Tesseract)(nil)

// NewTesseract always fails without cgo.
func NewTesseract(opts Options) (*Tesseract, error) {
	return nil, ErrUnavailable
}

// Detect always fails without cgo.
func (t *Tesseract) Detect(ctx context.Context, img image.Image) ([]detection.RawRegion, error) {
	return nil, ErrUnavailable
}

// Close is a no-op.
func (t *Tesseract) Close() error { return nil }

// Languages returns nil.
func (t *Tesseract) Languages() []string { return nil }
