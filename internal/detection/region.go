package detection

import (
	"context"
	"image"
	"math"
)

// Point is a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Corner indexes into a Quad.
const (
	TopLeft = iota
	TopRight
	BottomRight
	BottomLeft
)

// Quad is an ordered quadrilateral: top-left, top-right, bottom-right,
// bottom-left.
type Quad [4]Point

// Region is a detected text location with its recognized content.
// Regions are values; nothing downstream of the detector modifies them.
type Region struct {
	Quad       Quad    `json:"quad"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// TopLeft returns the region's top-left corner.
func (r Region) TopLeft() Point { return r.Quad[TopLeft] }

// BottomRight returns the region's bottom-right corner.
func (r Region) BottomRight() Point { return r.Quad[BottomRight] }

// RawRegion is a detector's native per-region tuple, before coordinates are
// coerced to integers.
type RawRegion struct {
	Quad       [4][2]float64
	Text       string
	Confidence float64
}

// Detector finds text in an image. Implementations must be safe to reuse
// across calls; the pipeline creates one per process.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]RawRegion, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(ctx context.Context, img image.Image) ([]RawRegion, error)

// Detect calls f(ctx, img).
func (f DetectorFunc) Detect(ctx context.Context, img image.Image) ([]RawRegion, error) {
	return f(ctx, img)
}

// FromRaw converts detector output into Regions, rounding each corner to the
// nearest integer. Order is preserved and the result is never nil.
func FromRaw(raw []RawRegion) []Region {
	regions := make([]Region, 0, len(raw))
	for _, r := range raw {
		var q Quad
		for i, p := range r.Quad {
			q[i] = Point{X: roundCoord(p[0]), Y: roundCoord(p[1])}
		}
		regions = append(regions, Region{
			Quad:       q,
			Text:       r.Text,
			Confidence: r.Confidence,
		})
	}
	return regions
}

// RawQuadFromRect builds the four ordered corners of an axis-aligned
// rectangle. Max is used as the bottom-right corner.
func RawQuadFromRect(r image.Rectangle) [4][2]float64 {
	return [4][2]float64{
		{float64(r.Min.X), float64(r.Min.Y)},
		{float64(r.Max.X), float64(r.Min.Y)},
		{float64(r.Max.X), float64(r.Max.Y)},
		{float64(r.Min.X), float64(r.Max.Y)},
	}
}

// Texts returns the recognized strings of regions in order.
func Texts(regions []Region) []string {
	texts := make([]string, len(regions))
	for i, r := range regions {
		texts[i] = r.Text
	}
	return texts
}

func roundCoord(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Round(v))
}
