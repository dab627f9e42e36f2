package pipeline

import (
	"context"
	"image"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/text-detect-mcp/internal/annotate"
	"github.com/ironsheep/text-detect-mcp/internal/detection"
	"github.com/ironsheep/text-detect-mcp/internal/imaging"
	"github.com/ironsheep/text-detect-mcp/internal/logger"
)

// Options configure the effectful parts of a Controller.
type Options struct {
	// ArtifactPath is the text file rewritten by every RunDetection.
	ArtifactPath string

	// ThumbnailSize bounds the preview returned by Upload.
	ThumbnailSize int

	// JPEGQuality is used when Save encodes JPEG.
	JPEGQuality int
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		ArtifactPath:  "detected_text.txt",
		ThumbnailSize: 400,
		JPEGQuality:   95,
	}
}

// Controller owns one Session and runs the pipeline operations against it.
// At most one operation is in flight at a time; an operation started while
// another is running fails with ErrBusy.
type Controller struct {
	busy sync.Mutex

	mu       sync.RWMutex
	session  Session
	lastText *string

	// size of the active image as decoded at upload
	srcW, srcH int

	detector  detection.Detector
	annotator *annotate.Annotator
	opts      Options
}

// NewController creates a Controller in the Idle state.
func NewController(detector detection.Detector, annotator *annotate.Annotator, opts Options) *Controller {
	def := DefaultOptions()
	if opts.ArtifactPath == "" {
		opts.ArtifactPath = def.ArtifactPath
	}
	if opts.ThumbnailSize <= 0 {
		opts.ThumbnailSize = def.ThumbnailSize
	}
	if opts.JPEGQuality <= 0 {
		opts.JPEGQuality = def.JPEGQuality
	}

	return &Controller{
		session:   NewSession(),
		detector:  detector,
		annotator: annotator,
		opts:      opts,
	}
}

// Session returns a snapshot of the current session state.
func (c *Controller) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// LastText returns the serialized text of the most recent successful
// RunDetection. ok is false until one has completed.
func (c *Controller) LastText() (text string, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.lastText == nil {
		return "", false
	}
	return *c.lastText, true
}

// ArtifactPath returns the path RunDetection writes to.
func (c *Controller) ArtifactPath() string {
	return c.opts.ArtifactPath
}

func (c *Controller) acquire(op string) error {
	if !c.busy.TryLock() {
		logger.WithField("op", op).Warn("Rejected operation: another is in progress")
		return ErrBusy
	}
	return nil
}

func (c *Controller) release() {
	c.busy.Unlock()
}

func (c *Controller) fields(op string) logrus.Fields {
	s := c.Session()
	return logrus.Fields{
		"op":   op,
		"path": s.ImagePath,
		"mode": s.Mode,
		"zoom": s.Zoom,
	}
}

// UploadResult describes a successfully uploaded image.
type UploadResult struct {
	Path      string             `json:"path"`
	Info      *imaging.ImageInfo `json:"info"`
	Thumbnail image.Image        `json:"-"`
	Session   Session            `json:"session"`
}

// Upload validates and decodes the image at path and makes it the active
// image. The zoom factor is reset; the preprocessing mode is kept. Only a
// thumbnail is retained in the result.
func (c *Controller) Upload(path string) (*UploadResult, error) {
	if err := c.acquire("upload"); err != nil {
		return nil, err
	}
	defer c.release()

	if path == "" {
		return nil, newError(KindDecodeFailure, "image path is empty", nil)
	}
	if !imaging.HasSupportedExtension(path) {
		return nil, newError(KindDecodeFailure, "unsupported image extension "+filepath.Ext(path), nil)
	}

	img, err := imaging.Load(path)
	if err != nil {
		logger.WithError(err).WithField("path", path).Warn("Upload failed")
		return nil, newError(KindDecodeFailure, "failed to load "+filepath.Base(path), err)
	}

	info, err := imaging.Describe(path, img)
	if err != nil {
		return nil, newError(KindDecodeFailure, "failed to read image metadata", err)
	}

	b := img.Bounds()
	c.mu.Lock()
	c.session.ImagePath = path
	c.session.Zoom = DefaultZoom
	c.srcW, c.srcH = b.Dx(), b.Dy()
	snapshot := c.session
	c.mu.Unlock()

	logger.WithFields(c.fields("upload")).WithFields(logrus.Fields{
		"width":  info.Width,
		"height": info.Height,
	}).Debug("Image loaded")

	return &UploadResult{
		Path:      path,
		Info:      info,
		Thumbnail: imaging.Thumbnail(img, c.opts.ThumbnailSize),
		Session:   snapshot,
	}, nil
}

// SetPreprocessMode sets the active mode. Anything other than the four mode
// names is rejected and the current mode is kept.
func (c *Controller) SetPreprocessMode(value string) (imaging.Mode, error) {
	if err := c.acquire("set_preprocess_mode"); err != nil {
		return "", err
	}
	defer c.release()

	mode, ok := imaging.ParseMode(value)
	if !ok {
		logger.WithField("value", value).Warn("Rejected preprocessing mode")
		return c.Session().Mode, newError(KindInvalidPreprocessMode, "unrecognized preprocessing mode "+value, nil)
	}

	c.mu.Lock()
	c.session.Mode = mode
	c.mu.Unlock()

	logger.WithFields(c.fields("set_preprocess_mode")).Debug("Preprocessing mode changed")
	return mode, nil
}

// ZoomIn multiplies the zoom factor by ZoomStep and returns the new factor.
// A step that would make the transformed image exceed imaging.MaxPixels is
// rejected with ErrZoomLimit and the current factor is returned.
func (c *Controller) ZoomIn() (float64, error) {
	return c.zoom("zoom_in", true)
}

// ZoomOut divides the zoom factor by ZoomStep and returns the new factor.
func (c *Controller) ZoomOut() (float64, error) {
	return c.zoom("zoom_out", false)
}

func (c *Controller) zoom(op string, in bool) (float64, error) {
	if err := c.acquire(op); err != nil {
		return 0, err
	}
	defer c.release()

	c.mu.Lock()
	if !c.session.Loaded() {
		c.mu.Unlock()
		logger.WithField("op", op).Warn("No image loaded")
		return 0, ErrNoActiveImage
	}
	if in {
		next := c.session.Zoom * ZoomStep
		if !imaging.Fits(c.srcW, c.srcH, c.session.Mode, next) {
			z := c.session.Zoom
			c.mu.Unlock()
			logger.WithFields(c.fields(op)).Warn("Rejected zoom: image would exceed the pixel limit")
			return z, newError(KindZoomLimit, "zooming in further would exceed the image size limit", nil)
		}
		c.session.Zoom = next
	} else {
		c.session.Zoom /= ZoomStep
	}
	z := c.session.Zoom
	c.mu.Unlock()

	logger.WithFields(c.fields(op)).Debug("Zoom changed")
	return z, nil
}

// DetectionResult is the output of RunDetection.
type DetectionResult struct {
	*Result
	Text         string `json:"text"`
	ArtifactPath string `json:"artifact_path"`
}

// RunDetection reloads the active image, processes it with the current
// session parameters and rewrites the text artifact.
func (c *Controller) RunDetection(ctx context.Context) (*DetectionResult, error) {
	if err := c.acquire("detect"); err != nil {
		return nil, err
	}
	defer c.release()

	s := c.Session()
	img, err := c.reload(s, "detect")
	if err != nil {
		return nil, err
	}

	res, err := c.Process(ctx, img, s.Params())
	if err != nil {
		logger.WithError(err).WithFields(c.fields("detect")).Warn("Detection failed")
		return nil, err
	}

	if err := annotate.WriteTextArtifact(c.opts.ArtifactPath, res.Regions); err != nil {
		return nil, newError(KindPersistFailure, "failed to write text artifact", err)
	}

	text := annotate.SerializeText(res.Regions)
	c.mu.Lock()
	c.lastText = &text
	c.mu.Unlock()

	logger.WithFields(c.fields("detect")).WithFields(logrus.Fields{
		"regions":  len(res.Regions),
		"artifact": c.opts.ArtifactPath,
	}).Debug("Detection complete")

	return &DetectionResult{
		Result:       res,
		Text:         text,
		ArtifactPath: c.opts.ArtifactPath,
	}, nil
}

// Process is the pure pipeline using the controller's detector and annotator.
func (c *Controller) Process(ctx context.Context, img image.Image, params Params) (*Result, error) {
	return Process(ctx, img, params, c.detector, c.annotator)
}

// SaveResult describes an annotated image written by Save.
type SaveResult struct {
	Path    string         `json:"path"`
	Format  imaging.Format `json:"format"`
	Width   int            `json:"width"`
	Height  int            `json:"height"`
	Regions int            `json:"regions"`
}

// Save reloads the active image, detects and annotates it at its original
// resolution, and writes it to dest. The session's mode and zoom are not
// applied. format may be "jpeg", "jpg", "png" or empty, in which case it
// comes from the extension of dest. A dest without an extension gets
// DefaultSaveExtension.
func (c *Controller) Save(ctx context.Context, dest, format string) (*SaveResult, error) {
	if err := c.acquire("save"); err != nil {
		return nil, err
	}
	defer c.release()

	s := c.Session()
	if !s.Loaded() {
		logger.WithField("op", "save").Warn("No image loaded")
		return nil, ErrNoActiveImage
	}
	if dest == "" {
		return nil, newError(KindPersistFailure, "destination path is empty", nil)
	}
	if filepath.Ext(dest) == "" {
		dest += imaging.DefaultSaveExtension
	}

	f, err := resolveFormat(dest, format)
	if err != nil {
		return nil, err
	}

	img, err := c.reload(s, "save")
	if err != nil {
		return nil, err
	}

	regions, err := detect(ctx, c.detector, img)
	if err != nil {
		logger.WithError(err).WithFields(c.fields("save")).Warn("Detection failed")
		return nil, err
	}
	annotated := c.annotator.Annotate(img, regions)

	if err := imaging.Save(dest, annotated, f, c.opts.JPEGQuality); err != nil {
		return nil, newError(KindPersistFailure, "failed to save annotated image", err)
	}

	b := annotated.Bounds()
	logger.WithFields(c.fields("save")).WithFields(logrus.Fields{
		"dest":    dest,
		"format":  f,
		"regions": len(regions),
	}).Debug("Annotated image saved")

	return &SaveResult{
		Path:    dest,
		Format:  f,
		Width:   b.Dx(),
		Height:  b.Dy(),
		Regions: len(regions),
	}, nil
}

func resolveFormat(dest, format string) (imaging.Format, error) {
	if format != "" {
		f, err := imaging.ParseFormat(format)
		if err != nil {
			return "", newError(KindInvalidFormat, "unsupported output format "+format, err)
		}
		return f, nil
	}
	f, err := imaging.FormatFromPath(dest)
	if err != nil {
		return "", newError(KindInvalidFormat, "unsupported output extension "+filepath.Ext(dest), err)
	}
	return f, nil
}

// reload decodes the active image from disk.
func (c *Controller) reload(s Session, op string) (image.Image, error) {
	if !s.Loaded() {
		logger.WithField("op", op).Warn("No image loaded")
		return nil, ErrNoActiveImage
	}
	img, err := imaging.Load(s.ImagePath)
	if err != nil {
		logger.WithError(err).WithFields(c.fields(op)).Warn("Reload failed")
		return nil, newError(KindDecodeFailure, "failed to reload "+filepath.Base(s.ImagePath), err)
	}
	return img, nil
}
