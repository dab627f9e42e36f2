package imaging

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// createTestImage creates a solid PNG file and returns its path.
// The caller is responsible for removing the file.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	img := solidImage(width, height, c)

	tmpFile, err := os.CreateTemp("", "test-image-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer tmpFile.Close()

	if err := png.Encode(tmpFile, img); err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to encode image: %v", err)
	}

	return tmpFile.Name()
}

// solidImage returns an in-memory NRGBA image filled with c.
func solidImage(width, height int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// gradientImage returns an NRGBA image whose channels vary with position so
// transforms have something non-uniform to work on.
func gradientImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{
				R: uint8(x * 255 / maxInt(width-1, 1)),
				G: uint8(y * 255 / maxInt(height-1, 1)),
				B: uint8((x + y) % 256),
				A: 255,
			})
		}
	}
	return img
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func TestHasSupportedExtension(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"photo.jpg", true},
		{"photo.JPEG", true},
		{"/a/b/scan.png", true},
		{"anim.gif", false},
		{"notes.txt", false},
		{"noext", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := HasSupportedExtension(tt.path); got != tt.want {
				t.Errorf("HasSupportedExtension(%q): got %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	imgPath := createTestImage(t, 100, 80, color.RGBA{255, 0, 0, 255})
	defer os.Remove(imgPath)

	img, err := Load(imgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() != 100 || bounds.Dy() != 80 {
		t.Errorf("unexpected dimensions: got %dx%d, want 100x80", bounds.Dx(), bounds.Dy())
	}
}

func TestLoad_ReadsFreshFromDisk(t *testing.T) {
	imgPath := createTestImage(t, 10, 10, color.RGBA{255, 0, 0, 255})
	defer os.Remove(imgPath)

	if _, err := Load(imgPath); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	f, err := os.Create(imgPath)
	if err != nil {
		t.Fatalf("failed to rewrite file: %v", err)
	}
	png.Encode(f, solidImage(20, 15, color.White))
	f.Close()

	img, err := Load(imgPath)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 15 {
		t.Errorf("Load returned stale image: %v", img.Bounds())
	}
}

func TestLoad_Errors(t *testing.T) {
	invalid, err := os.CreateTemp("", "invalid-image-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	invalid.WriteString("not an image")
	invalid.Close()
	defer os.Remove(invalid.Name())

	tests := []struct {
		name string
		path string
	}{
		{"empty path", ""},
		{"blank path", "   "},
		{"missing file", "/nonexistent/path/to/image.png"},
		{"corrupt file", invalid.Name()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.path); err == nil {
				t.Errorf("Load(%q) should fail", tt.path)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	dir := t.TempDir()
	jpgPath := filepath.Join(dir, "photo.jpg")

	f, err := os.Create(jpgPath)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	jpeg.Encode(f, solidImage(40, 30, color.White), nil)
	f.Close()

	img, err := Load(jpgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	info, err := Describe(jpgPath, img)
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if info.Width != 40 || info.Height != 30 {
		t.Errorf("dimensions: got %dx%d, want 40x30", info.Width, info.Height)
	}
	if info.Format != "jpeg" {
		t.Errorf("Format: got %s, want jpeg", info.Format)
	}
	if info.Channels != 3 {
		t.Errorf("Channels: got %d, want 3", info.Channels)
	}
	if info.FileSizeBytes <= 0 {
		t.Error("FileSizeBytes should be positive")
	}
}

func TestChannels(t *testing.T) {
	rect := image.Rect(0, 0, 2, 2)
	tests := []struct {
		name string
		img  image.Image
		want int
	}{
		{"gray", image.NewGray(rect), 1},
		{"nrgba", image.NewNRGBA(rect), 4},
		{"rgba", image.NewRGBA(rect), 4},
		{"ycbcr", image.NewYCbCr(rect, image.YCbCrSubsampleRatio420), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Channels(tt.img); got != tt.want {
				t.Errorf("Channels: got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestThumbnail(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"landscape", 800, 600, 400, 300},
		{"portrait", 300, 1200, 100, 400},
		{"already small", 120, 90, 120, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thumb := Thumbnail(solidImage(tt.w, tt.h, color.White), 400)
			b := thumb.Bounds()
			if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("thumbnail: got %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}
