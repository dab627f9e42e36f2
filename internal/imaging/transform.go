package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/transform"
	"github.com/disintegration/imaging"
)

// Mode is a preprocessing policy applied to an image before detection.
type Mode string

// The recognized preprocessing modes. The string values are the exact
// literals accepted by ParseMode.
const (
	ModeNone      Mode = "None"
	ModeGrayscale Mode = "Grayscale"
	ModeResize    Mode = "Resize"
	ModeContrast  Mode = "Contrast"
)

// Contrast remap parameters: out = clamp(ContrastAlpha*in + ContrastBeta, 0, 255).
const (
	ContrastAlpha = 1.5
	ContrastBeta  = 0.0
)

// ResizeRatio is the scale applied by ModeResize to both dimensions.
const ResizeRatio = 0.5

// MaxPixels bounds the area of any image produced by Scale.
const MaxPixels = 1 << 25

// Modes returns every recognized mode in display order.
func Modes() []Mode {
	return []Mode{ModeNone, ModeGrayscale, ModeResize, ModeContrast}
}

// ParseMode matches s against the recognized mode literals. Matching is
// exact; "grayscale" or "Sepia" are rejected.
func ParseMode(s string) (Mode, bool) {
	for _, m := range Modes() {
		if string(m) == s {
			return m, true
		}
	}
	return ModeNone, false
}

// Apply runs the preprocessing mode over img.
//
// ModeNone (and any unrecognized mode) returns img itself. Other modes return
// a new image and never modify img.
//
//   - ModeGrayscale: single-channel luminance (*image.Gray), same dimensions
//   - ModeResize: both dimensions halved (floored, minimum 1) using area averaging
//   - ModeContrast: every color channel remapped with ContrastAlpha/ContrastBeta
func Apply(img image.Image, mode Mode) image.Image {
	switch mode {
	case ModeGrayscale:
		return effect.Grayscale(img)
	case ModeResize:
		b := img.Bounds()
		w, h := scaledSize(b.Dx(), b.Dy(), ResizeRatio)
		return imaging.Resize(img, w, h, imaging.Box)
	case ModeContrast:
		return adjust.Apply(img, func(c color.RGBA) color.RGBA {
			return color.RGBA{
				R: remapChannel(c.R),
				G: remapChannel(c.G),
				B: remapChannel(c.B),
				A: c.A,
			}
		})
	default:
		return img
	}
}

// Scale resizes img uniformly by factor using bilinear resampling.
//
// Each dimension is floored and clamped to at least one pixel. A result
// larger than MaxPixels is shrunk, keeping the aspect ratio, until it fits.
// When the result would have the same size as img, img itself is returned,
// so a factor of 1.0 is the identity.
func Scale(img image.Image, factor float64) image.Image {
	b := img.Bounds()
	w, h := scaledSize(b.Dx(), b.Dy(), factor)
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	return transform.Resize(img, w, h, transform.Linear)
}

// Transform applies mode and then zoom to img. The order is fixed.
func Transform(img image.Image, mode Mode, zoom float64) image.Image {
	return Scale(Apply(img, mode), zoom)
}

// ScaledSize reports the dimensions Scale would produce for a w x h image.
func ScaledSize(w, h int, factor float64) (int, int) {
	return scaledSize(w, h, factor)
}

// Fits reports whether Transform(img, mode, zoom) stays within MaxPixels
// for a w x h img without being shrunk.
func Fits(w, h int, mode Mode, zoom float64) bool {
	if mode == ModeResize {
		w, h = scaledSize(w, h, ResizeRatio)
	}
	if zoom <= 0 || math.IsNaN(zoom) {
		return true
	}
	fw := math.Max(1, math.Floor(float64(w)*zoom))
	fh := math.Max(1, math.Floor(float64(h)*zoom))
	return fw*fh <= MaxPixels
}

func scaledSize(w, h int, factor float64) (int, int) {
	if factor <= 0 || math.IsNaN(factor) {
		return 1, 1
	}
	return fitPixelBudget(clampDim(float64(w)*factor), clampDim(float64(h)*factor))
}

func fitPixelBudget(w, h int) (int, int) {
	if int64(w)*int64(h) <= MaxPixels {
		return w, h
	}
	s := math.Sqrt(MaxPixels / (float64(w) * float64(h)))
	w, h = clampDim(float64(w)*s), clampDim(float64(h)*s)
	// One axis can floor to the 1 pixel minimum; cap the other directly.
	if w > MaxPixels {
		w = MaxPixels
	}
	if h > MaxPixels/w {
		h = MaxPixels / w
	}
	return w, h
}

func clampDim(v float64) int {
	if math.IsInf(v, 1) || v >= math.MaxInt32 {
		return math.MaxInt32
	}
	d := int(math.Floor(v))
	if d < 1 {
		return 1
	}
	return d
}

func remapChannel(v uint8) uint8 {
	out := math.Round(ContrastAlpha*float64(v) + ContrastBeta)
	if out < 0 {
		return 0
	}
	if out > 255 {
		return 255
	}
	return uint8(out)
}
