package pipeline

import (
	"github.com/ironsheep/text-detect-mcp/internal/imaging"
)

// ZoomStep is the factor applied by one zoom-in or zoom-out action.
const ZoomStep = 1.1

// DefaultZoom is the zoom factor of a fresh session or upload.
const DefaultZoom = 1.0

// Session is the mutable parameter set owned by one Controller.
type Session struct {
	ImagePath string       `json:"image_path"`
	Mode      imaging.Mode `json:"preprocess_mode"`
	Zoom      float64      `json:"zoom_factor"`
}

// NewSession returns the startup state: no image, mode None, zoom 1.0.
func NewSession() Session {
	return Session{
		Mode: imaging.ModeNone,
		Zoom: DefaultZoom,
	}
}

// Loaded reports whether an image has been uploaded.
func (s Session) Loaded() bool {
	return s.ImagePath != ""
}

// Params returns the processing parameters of the session.
func (s Session) Params() Params {
	return Params{Mode: s.Mode, Zoom: s.Zoom}
}
