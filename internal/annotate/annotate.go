// Package annotate burns detection results into images and writes the flat
// text artifact.
package annotate

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/text-detect-mcp/internal/detection"
)

// Style holds the fixed drawing parameters of an Annotator.
type Style struct {
	BoxColor    color.NRGBA
	LabelColor  color.NRGBA
	StrokeWidth int
	FontSize    float64

	// LabelOffset is how far above the top-left corner the label baseline sits.
	LabelOffset int
}

// DefaultStyle draws green 2px boxes with blue labels 10px above them.
func DefaultStyle() Style {
	return Style{
		BoxColor:    color.NRGBA{R: 0, G: 255, B: 0, A: 255},
		LabelColor:  color.NRGBA{R: 0, G: 0, B: 255, A: 255},
		StrokeWidth: 2,
		FontSize:    18,
		LabelOffset: 10,
	}
}

// ParseColor parses "#RRGGBB" or "#RGB" into an opaque color.
func ParseColor(hex string) (color.NRGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// NewStyle builds a Style from hex colors, starting from DefaultStyle.
func NewStyle(boxHex, labelHex string, strokeWidth int, fontSize float64) (Style, error) {
	s := DefaultStyle()

	box, err := ParseColor(boxHex)
	if err != nil {
		return s, err
	}
	label, err := ParseColor(labelHex)
	if err != nil {
		return s, err
	}
	if strokeWidth < 1 {
		return s, fmt.Errorf("stroke width must be >= 1 (got %d)", strokeWidth)
	}
	if fontSize <= 0 {
		return s, fmt.Errorf("font size must be > 0 (got %g)", fontSize)
	}

	s.BoxColor = box
	s.LabelColor = label
	s.StrokeWidth = strokeWidth
	s.FontSize = fontSize
	return s, nil
}

// Annotator draws region boxes and labels. It is not safe for concurrent
// use because the font face caches glyphs.
type Annotator struct {
	style Style
	face  font.Face
}

// New creates an Annotator using the Go Regular font at style.FontSize.
func New(style Style) (*Annotator, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse label font: %w", err)
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    style.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create label font face: %w", err)
	}

	return &Annotator{style: style, face: face}, nil
}

// Style returns the annotator's drawing parameters.
func (a *Annotator) Style() Style {
	return a.style
}

// Annotate returns a copy of img with a rectangle and label drawn for every
// region, in order. img is never modified. With no regions the copy is
// pixel-identical to img.
func (a *Annotator) Annotate(img image.Image, regions []detection.Region) *image.NRGBA {
	dst := imaging.Clone(img)

	for _, r := range regions {
		a.drawBox(dst, r.TopLeft(), r.BottomRight())
		if r.Text != "" {
			a.drawLabel(dst, r.TopLeft(), r.Text)
		}
	}

	return dst
}

// drawBox strokes the rectangle spanning tl and br, both inclusive. Extra
// stroke width grows inward.
func (a *Annotator) drawBox(dst *image.NRGBA, tl, br detection.Point) {
	x1, x2 := minInt(tl.X, br.X), maxInt(tl.X, br.X)
	y1, y2 := minInt(tl.Y, br.Y), maxInt(tl.Y, br.Y)
	sw := a.style.StrokeWidth
	c := a.style.BoxColor

	fillRect(dst, image.Rectangle{Min: image.Pt(x1, y1), Max: image.Pt(x2+1, y1+sw)}, c)
	fillRect(dst, image.Rectangle{Min: image.Pt(x1, y2-sw+1), Max: image.Pt(x2+1, y2+1)}, c)
	fillRect(dst, image.Rectangle{Min: image.Pt(x1, y1), Max: image.Pt(x1+sw, y2+1)}, c)
	fillRect(dst, image.Rectangle{Min: image.Pt(x2-sw+1, y1), Max: image.Pt(x2+1, y2+1)}, c)
}

// fillRect paints the part of r that lies inside img.
func fillRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	r = r.Intersect(img.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

// drawLabel draws text with its baseline LabelOffset pixels above tl.
// Glyphs falling outside the image are clipped.
func (a *Annotator) drawLabel(dst *image.NRGBA, tl detection.Point, text string) {
	x, y := tl.X, tl.Y-a.style.LabelOffset

	// Skip labels that cannot touch the image; this also keeps the dot
	// within fixed.Int26_6 range.
	bounds, _ := font.BoundString(a.face, text)
	area := image.Rect(
		x+bounds.Min.X.Floor(), y+bounds.Min.Y.Floor(),
		x+bounds.Max.X.Ceil(), y+bounds.Max.Y.Ceil(),
	)
	if !area.Overlaps(dst.Rect) {
		return
	}

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(a.style.LabelColor),
		Face: a.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
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
