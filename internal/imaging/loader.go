package imaging

import (
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// SupportedExtensions lists the file extensions accepted as input images.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png"}

// HasSupportedExtension reports whether path ends in one of
// SupportedExtensions. The comparison is case-insensitive.
func HasSupportedExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Load opens and decodes the image at path.
//
// Every call reads the file again; nothing is cached, so the result always
// reflects what is currently on disk.
//
// # Errors
//
//   - Returns error if path is empty
//   - Returns error if the file does not exist or cannot be read
//   - Returns error if the file is not a valid PNG or JPEG image
func Load(path string) (image.Image, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("empty image path")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	return img, nil
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is "png", "jpeg" or "unknown", detected from the file extension.
	Format string `json:"format"`

	// Channels is 1 for grayscale images, 4 for images with alpha and 3 otherwise.
	Channels int `json:"channels"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// Describe returns metadata about img, which was decoded from path.
func Describe(path string, img image.Image) (*ImageInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		format = "png"
	case ".jpg", ".jpeg":
		format = "jpeg"
	}

	bounds := img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		Channels:      Channels(img),
		FileSizeBytes: stat.Size(),
	}, nil
}

// Channels returns the number of color channels the image carries.
func Channels(img image.Image) int {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return 1
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		return 4
	default:
		return 3
	}
}

// Thumbnail scales img down to fit within maxSize x maxSize, keeping its
// aspect ratio. Images that already fit are returned as an unscaled copy.
func Thumbnail(img image.Image, maxSize int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxSize && b.Dy() <= maxSize {
		return imaging.Clone(img)
	}
	return imaging.Fit(img, maxSize, maxSize, imaging.Lanczos)
}
