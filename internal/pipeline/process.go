package pipeline

import (
	"context"
	"image"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/text-detect-mcp/internal/annotate"
	"github.com/ironsheep/text-detect-mcp/internal/detection"
	"github.com/ironsheep/text-detect-mcp/internal/imaging"
)

// Params are the processing parameters applied before detection.
type Params struct {
	Mode imaging.Mode `json:"preprocess_mode"`
	Zoom float64      `json:"zoom_factor"`
}

// Result is the output of one Process call. A new Result is built on every
// call and shares no pixel data with its input.
type Result struct {
	// Image is the transformed image with detection overlays.
	Image *image.NRGBA `json:"-"`

	// Regions are the detections in detector order, in the coordinates of
	// the transformed image.
	Regions []detection.Region `json:"regions"`

	// Width and Height are the dimensions of Image.
	Width  int `json:"width"`
	Height int `json:"height"`

	Mode imaging.Mode `json:"preprocess_mode"`
	Zoom float64      `json:"zoom_factor"`

	// MeanConfidence is the average region confidence, 0 with no regions.
	MeanConfidence float64 `json:"mean_confidence"`
}

// Process runs Transform, Detect and Annotate on img. It performs no I/O and
// does not modify img.
func Process(ctx context.Context, img image.Image, params Params, detector detection.Detector, annotator *annotate.Annotator) (*Result, error) {
	if _, ok := imaging.ParseMode(string(params.Mode)); !ok {
		return nil, newError(KindInvalidPreprocessMode, "unrecognized preprocessing mode "+string(params.Mode), nil)
	}

	transformed := imaging.Transform(img, params.Mode, params.Zoom)

	regions, err := detect(ctx, detector, transformed)
	if err != nil {
		return nil, err
	}

	annotated := annotator.Annotate(transformed, regions)
	b := annotated.Bounds()

	return &Result{
		Image:          annotated,
		Regions:        regions,
		Width:          b.Dx(),
		Height:         b.Dy(),
		Mode:           params.Mode,
		Zoom:           params.Zoom,
		MeanConfidence: meanConfidence(regions),
	}, nil
}

// detect runs the detector and converts its output. A context that is
// already done aborts before the detector is called.
func detect(ctx context.Context, detector detection.Detector, img image.Image) ([]detection.Region, error) {
	if err := ctx.Err(); err != nil {
		return nil, newError(KindDetectionFailure, "detection cancelled", err)
	}

	raw, err := detector.Detect(ctx, img)
	if err != nil {
		return nil, newError(KindDetectionFailure, "detector returned an error", err)
	}
	return detection.FromRaw(raw), nil
}

func meanConfidence(regions []detection.Region) float64 {
	if len(regions) == 0 {
		return 0
	}
	conf := make([]float64, len(regions))
	for i, r := range regions {
		conf[i] = r.Confidence
	}
	m := stat.Mean(conf, nil)
	if math.IsNaN(m) {
		return 0
	}
	return m
}
