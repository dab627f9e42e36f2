//go:build cgo

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/text-detect-mcp/internal/detection"
)

// Tesseract is a detection.Detector backed by one gosseract client.
type Tesseract struct {
	mu     sync.Mutex
	client *gosseract.Client
	level  gosseract.PageIteratorLevel
	opts   Options
}

var _ detection.Detector = (*Tesseract)(nil)

// NewTesseract creates the engine handle and runs a warm-up pass so that a
// missing language model or tessdata directory fails here, not on the first
// detection.
func NewTesseract(opts Options) (*Tesseract, error) {
	opts = opts.withDefaults()

	level, err := iteratorLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	client := gosseract.NewClient()

	if opts.TessdataDir != "" {
		if err := client.SetTessdataPrefix(opts.TessdataDir); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}

	if err := client.SetLanguage(opts.Languages...); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}

	t := &Tesseract{client: client, level: level, opts: opts}
	if err := t.warmUp(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize tesseract: %w", err)
	}

	return t, nil
}

// Detect runs recognition over img and returns one region per word, line
// or block, in the engine's reading order. Empty recognitions are skipped.
func (t *Tesseract) Detect(ctx context.Context, img image.Image) ([]detection.RawRegion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image for OCR: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := t.client.GetBoundingBoxes(t.level)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	regions := make([]detection.RawRegion, 0, len(boxes))
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		regions = append(regions, detection.RawRegion{
			Quad:       detection.RawQuadFromRect(box.Box),
			Text:       text,
			Confidence: box.Confidence / 100.0,
		})
	}

	return regions, nil
}

// Close releases the engine handle.
func (t *Tesseract) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client.Close()
}

// Languages reports the configured language codes.
func (t *Tesseract) Languages() []string {
	return append([]string(nil), t.opts.Languages...)
}

// warmUp forces the engine to load its model on a blank image.
func (t *Tesseract) warmUp() error {
	blank := image.NewGray(image.Rect(0, 0, 32, 32))
	for i := range blank.Pix {
		blank.Pix[i] = 0xff
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, blank); err != nil {
		return err
	}
	if err := t.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return err
	}
	_, err := t.client.Text()
	return err
}

func iteratorLevel(l Level) (gosseract.PageIteratorLevel, error) {
	switch l {
	case LevelWord:
		return gosseract.RIL_WORD, nil
	case LevelLine:
		return gosseract.RIL_TEXTLINE, nil
	case LevelBlock:
		return gosseract.RIL_BLOCK, nil
	default:
		return 0, fmt.Errorf("unknown iterator level: %q", l)
	}
}
