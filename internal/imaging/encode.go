package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// Format is an output encoding for saved images.
type Format string

// Supported output formats.
const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// DefaultSaveExtension is appended to save destinations that have none.
const DefaultSaveExtension = ".jpg"

// ParseFormat accepts "jpeg", "jpg" or "png" in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("unsupported image format: %q (want jpeg or png)", s)
	}
}

// FormatFromPath derives the output format from the extension of path.
func FormatFromPath(path string) (Format, error) {
	f, err := imaging.FormatFromFilename(path)
	if err != nil {
		return "", fmt.Errorf("unsupported image format for %s: %w", filepath.Base(path), err)
	}
	switch f {
	case imaging.JPEG:
		return FormatJPEG, nil
	case imaging.PNG:
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("unsupported image format for %s: %s", filepath.Base(path), f)
	}
}

// MimeType returns the MIME type of the format.
func (f Format) MimeType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/jpeg"
}

// Encode writes img to w in the given format. jpegQuality only applies to JPEG.
func Encode(w io.Writer, img image.Image, format Format, jpegQuality int) error {
	switch format {
	case FormatJPEG:
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality))
	case FormatPNG:
		return imaging.Encode(w, img, imaging.PNG)
	default:
		return fmt.Errorf("unsupported image format: %q", format)
	}
}

// Save encodes img into a new file at path, replacing any existing file.
func Save(path string, img image.Image, format Format, jpegQuality int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := Encode(f, img, format, jpegQuality); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode image: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// EncodedImage is an image packaged for a display client.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodeBase64PNG renders img as a base64 PNG payload.
func EncodeBase64PNG(img image.Image) (*EncodedImage, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, FormatPNG, 0); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	b := img.Bounds()
	return &EncodedImage{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    FormatPNG.MimeType(),
	}, nil
}
