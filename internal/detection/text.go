package detection

import (
	"context"
	"image"
	"math"
	"sort"
)

// Bounds represents a rectangular bounding box in pixel coordinates.
// (X1, Y1) is the top-left corner and (X2, Y2) the bottom-right corner.
type Bounds struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// TextRegion represents a detected text region
type TextRegion struct {
	Bounds     Bounds  `json:"bounds"`
	Confidence float64 `json:"confidence"`
	Area       int     `json:"area"`
}

// EdgeDetector is a Detector that finds text-like areas from edge density.
// It does not recognize characters, so every region it reports has empty Text.
type EdgeDetector struct {
	// MinConfidence drops candidate windows scoring below it (0.0 to 1.0).
	MinConfidence float64
}

// NewEdgeDetector creates an EdgeDetector with the given threshold.
func NewEdgeDetector(minConfidence float64) *EdgeDetector {
	return &EdgeDetector{MinConfidence: minConfidence}
}

// Detect returns text-like regions in reading order: top to bottom, then
// left to right.
func (d *EdgeDetector) Detect(ctx context.Context, img image.Image) ([]RawRegion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	regions := DetectTextRegions(img, d.MinConfidence)
	sort.SliceStable(regions, func(i, j int) bool {
		a, b := regions[i].Bounds, regions[j].Bounds
		if a.Y1 != b.Y1 {
			return a.Y1 < b.Y1
		}
		return a.X1 < b.X1
	})

	raw := make([]RawRegion, 0, len(regions))
	for _, r := range regions {
		raw = append(raw, RawRegion{
			Quad:       RawQuadFromRect(image.Rect(r.Bounds.X1, r.Bounds.Y1, r.Bounds.X2, r.Bounds.Y2)),
			Confidence: r.Confidence,
		})
	}
	return raw, nil
}

// DetectTextRegions finds regions likely to contain text, highest confidence
// first. This is a heuristic-based approach that looks for areas with medium
// edge density and predominantly horizontal structure.
func DetectTextRegions(img image.Image, minConfidence float64) []TextRegion {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	edges := detectEdges(img, width, height)

	// Use sliding window to find regions with high edge density
	windowSizes := []struct{ w, h int }{
		{100, 30}, // Small text
		{150, 40}, // Medium text
		{200, 50}, // Large text
		{80, 25},  // Very small text
	}

	candidates := make([]TextRegion, 0)

	for _, ws := range windowSizes {
		stepX := ws.w / 2
		stepY := ws.h / 2

		for y := 0; y <= height-ws.h; y += stepY {
			for x := 0; x <= width-ws.w; x += stepX {
				edgeCount := 0
				for wy := 0; wy < ws.h; wy++ {
					for wx := 0; wx < ws.w; wx++ {
						if edges[y+wy][x+wx] {
							edgeCount++
						}
					}
				}

				area := ws.w * ws.h
				density := float64(edgeCount) / float64(area)

				// Text typically has medium edge density (not too sparse, not too dense)
				if density < 0.05 || density > 0.4 {
					continue
				}

				horizontalScore := calculateHorizontalScore(edges, x, y, ws.w, ws.h)
				confidence := horizontalScore * (1.0 - math.Abs(density-0.2)/0.2)
				if confidence < minConfidence || confidence <= 0 {
					continue
				}

				candidates = append(candidates, TextRegion{
					Bounds: Bounds{
						X1: x + bounds.Min.X,
						Y1: y + bounds.Min.Y,
						X2: x + ws.w + bounds.Min.X,
						Y2: y + ws.h + bounds.Min.Y,
					},
					Confidence: math.Round(confidence*1000) / 1000,
					Area:       area,
				})
			}
		}
	}

	merged := mergeOverlappingRegions(candidates)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Confidence > merged[j].Confidence
	})

	return merged
}

// detectEdges marks pixels whose horizontal or vertical luminance gradient
// exceeds a fixed threshold. Border pixels are never edges.
func detectEdges(img image.Image, width, height int) [][]bool {
	bounds := img.Bounds()
	edges := make([][]bool, height)
	threshold := 30.0

	for y := 0; y < height; y++ {
		edges[y] = make([]bool, width)
		for x := 0; x < width; x++ {
			if x == 0 || y == 0 || x == width-1 || y == height-1 {
				continue
			}

			c := grayValue(img, x+bounds.Min.X, y+bounds.Min.Y)
			cx := grayValue(img, x+1+bounds.Min.X, y+bounds.Min.Y)
			cy := grayValue(img, x+bounds.Min.X, y+1+bounds.Min.Y)

			dx := math.Abs(float64(c) - float64(cx))
			dy := math.Abs(float64(c) - float64(cy))

			if dx > threshold || dy > threshold {
				edges[y][x] = true
			}
		}
	}

	return edges
}

// grayValue returns the BT.601 luminance of a pixel.
func grayValue(img image.Image, x, y int) uint8 {
	r, g, b, _ := img.At(x, y).RGBA()
	return uint8((float64(r>>8)*0.299 + float64(g>>8)*0.587 + float64(b>>8)*0.114))
}

// calculateHorizontalScore calculates how "horizontal" the edge distribution is
func calculateHorizontalScore(edges [][]bool, x, y, w, h int) float64 {
	horizontalRuns := 0
	verticalRuns := 0

	for row := y; row < y+h; row++ {
		inRun := false
		for col := x; col < x+w; col++ {
			if edges[row][col] {
				if !inRun {
					horizontalRuns++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	for col := x; col < x+w; col++ {
		inRun := false
		for row := y; row < y+h; row++ {
			if edges[row][col] {
				if !inRun {
					verticalRuns++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	if horizontalRuns+verticalRuns == 0 {
		return 0
	}
	return float64(horizontalRuns) / float64(horizontalRuns+verticalRuns)
}

// mergeOverlappingRegions combines overlapping text regions
func mergeOverlappingRegions(regions []TextRegion) []TextRegion {
	if len(regions) == 0 {
		return regions
	}

	merged := make([]TextRegion, 0)

	for _, r := range regions {
		foundMerge := false
		for i := range merged {
			if regionsOverlap(r.Bounds, merged[i].Bounds) {
				merged[i].Bounds = mergeBounds(r.Bounds, merged[i].Bounds)
				merged[i].Confidence = math.Max(r.Confidence, merged[i].Confidence)
				merged[i].Area = (merged[i].Bounds.X2 - merged[i].Bounds.X1) *
					(merged[i].Bounds.Y2 - merged[i].Bounds.Y1)
				foundMerge = true
				break
			}
		}
		if !foundMerge {
			merged = append(merged, r)
		}
	}

	return merged
}

// regionsOverlap checks if two bounds overlap
func regionsOverlap(a, b Bounds) bool {
	return a.X1 < b.X2 && a.X2 > b.X1 && a.Y1 < b.Y2 && a.Y2 > b.Y1
}

// mergeBounds combines two bounds into their union
func mergeBounds(a, b Bounds) Bounds {
	return Bounds{
		X1: minInt(a.X1, b.X1),
		Y1: minInt(a.Y1, b.Y1),
		X2: maxInt(a.X2, b.X2),
		Y2: maxInt(a.Y2, b.Y2),
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
