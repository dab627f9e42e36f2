package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/text-detect-mcp/internal/accuracy"
	"github.com/ironsheep/text-detect-mcp/internal/detection"
	"github.com/ironsheep/text-detect-mcp/internal/imaging"
	"github.com/ironsheep/text-detect-mcp/internal/logger"
	"github.com/ironsheep/text-detect-mcp/internal/pipeline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "upload_image", "detect_text").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// Notice is the confirmation a client shows after a side effect.
type Notice struct {
	Level string `json:"level"`
	Event string `json:"event"`
	Path  string `json:"path"`
}

// Notice events.
const (
	EventImageLoaded = "image_loaded"
	EventTextSaved   = "text_saved"
	EventImageSaved  = "image_saved"
)

func infoNotice(event, path string) *Notice {
	return &Notice{Level: "info", Event: event, Path: path}
}

// ErrorData is attached to tool execution errors so clients can tell a
// warning from a failure without parsing the message.
type ErrorData struct {
	Kind     pipeline.ErrorKind `json:"kind,omitempty"`
	Severity string             `json:"severity"`
	Detail   string             `json:"detail"`

	// ZoomFactor is set when a zoom step was applied but the detection
	// that followed it failed.
	ZoomFactor *float64 `json:"zoom_factor,omitempty"`
}

// zoomRefreshError is returned by zoom_in and zoom_out when the zoom step
// succeeded and the refresh detection did not.
type zoomRefreshError struct {
	zoom float64
	err  error
}

func (e *zoomRefreshError) Error() string {
	return fmt.Sprintf("zoom factor is now %g; detection failed: %v", e.zoom, e.err)
}

func (e *zoomRefreshError) Unwrap() error {
	return e.err
}

// errNoDetection is returned by score_text before any detection has run.
var errNoDetection = errors.New("no detection has run yet; call detect_text first")

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000
// and ErrorData.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return s.toolErrorResponse(req.ID, params.Name, err)
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Session
	case "upload_image":
		return s.handleUploadImage(args)
	case "set_preprocess_mode":
		return s.handleSetPreprocessMode(args)
	case "session_state":
		return s.handleSessionState()

	// Detection
	case "detect_text":
		return s.handleDetectText(ctx, args)
	case "zoom_in":
		return s.handleZoom(ctx, args, s.ctrl.ZoomIn)
	case "zoom_out":
		return s.handleZoom(ctx, args, s.ctrl.ZoomOut)

	// Output
	case "save_image":
		return s.handleSaveImage(ctx, args)
	case "score_text":
		return s.handleScoreText(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

func (s *Server) toolErrorResponse(id interface{}, tool string, err error) *MCPResponse {
	data := ErrorData{Severity: pipeline.SeverityError, Detail: err.Error()}
	message := "Tool execution failed"

	var perr *pipeline.Error
	if errors.As(err, &perr) {
		data.Kind = perr.Kind
		data.Severity = perr.Severity()
		message = perr.Message
	}

	var zerr *zoomRefreshError
	if errors.As(err, &zerr) {
		z := zerr.zoom
		data.ZoomFactor = &z
	}

	entry := logger.WithError(err).WithField("tool", tool)
	if data.Severity == pipeline.SeverityWarning {
		entry.Warn("Tool rejected")
	} else {
		entry.Error("Tool failed")
	}

	return s.errorResponse(id, -32000, message, data)
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments, treating absent arguments as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func boolOrDefault(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// === Session Handlers ===

type uploadImageArgs struct {
	Path string `json:"path"`
}

type uploadImageResult struct {
	Path      string                `json:"path"`
	Info      *imaging.ImageInfo    `json:"info"`
	Thumbnail *imaging.EncodedImage `json:"thumbnail"`
	Session   pipeline.Session      `json:"session"`
	Notice    *Notice               `json:"notice"`
}

func (s *Server) handleUploadImage(args json.RawMessage) (interface{}, error) {
	var a uploadImageArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	res, err := s.ctrl.Upload(a.Path)
	if err != nil {
		return nil, err
	}

	thumb, err := imaging.EncodeBase64PNG(res.Thumbnail)
	if err != nil {
		return nil, err
	}

	return &uploadImageResult{
		Path:      res.Path,
		Info:      res.Info,
		Thumbnail: thumb,
		Session:   res.Session,
		Notice:    infoNotice(EventImageLoaded, res.Path),
	}, nil
}

type setPreprocessModeArgs struct {
	Mode string `json:"mode"`
}

type sessionResult struct {
	Session      pipeline.Session `json:"session"`
	LastText     *string          `json:"last_text,omitempty"`
	ArtifactPath string           `json:"artifact_path"`
}

func (s *Server) handleSetPreprocessMode(args json.RawMessage) (interface{}, error) {
	var a setPreprocessModeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	if _, err := s.ctrl.SetPreprocessMode(a.Mode); err != nil {
		return nil, err
	}
	return s.sessionResult(), nil
}

func (s *Server) handleSessionState() (interface{}, error) {
	return s.sessionResult(), nil
}

func (s *Server) sessionResult() *sessionResult {
	r := &sessionResult{
		Session:      s.ctrl.Session(),
		ArtifactPath: s.ctrl.ArtifactPath(),
	}
	if text, ok := s.ctrl.LastText(); ok {
		r.LastText = &text
	}
	return r
}

// === Detection Handlers ===

type detectTextArgs struct {
	IncludeImage *bool `json:"include_image"`
}

type detectTextResult struct {
	Regions        []detection.Region    `json:"regions"`
	Text           string                `json:"text"`
	Width          int                   `json:"width"`
	Height         int                   `json:"height"`
	Mode           imaging.Mode          `json:"preprocess_mode"`
	Zoom           float64               `json:"zoom_factor"`
	MeanConfidence float64               `json:"mean_confidence"`
	AnnotatedImage *imaging.EncodedImage `json:"annotated_image,omitempty"`
	Notice         *Notice               `json:"notice"`
}

func (s *Server) handleDetectText(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a detectTextArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.runDetection(ctx, boolOrDefault(a.IncludeImage, true))
}

func (s *Server) runDetection(ctx context.Context, includeImage bool) (*detectTextResult, error) {
	res, err := s.ctrl.RunDetection(ctx)
	if err != nil {
		return nil, err
	}

	out := &detectTextResult{
		Regions:        res.Regions,
		Text:           res.Text,
		Width:          res.Width,
		Height:         res.Height,
		Mode:           res.Mode,
		Zoom:           res.Zoom,
		MeanConfidence: res.MeanConfidence,
		Notice:         infoNotice(EventTextSaved, res.ArtifactPath),
	}

	if includeImage {
		encoded, err := imaging.EncodeBase64PNG(res.Image)
		if err != nil {
			return nil, err
		}
		out.AnnotatedImage = encoded
	}
	return out, nil
}

type zoomArgs struct {
	Refresh      *bool `json:"refresh"`
	IncludeImage *bool `json:"include_image"`
}

type zoomResult struct {
	Zoom      float64           `json:"zoom_factor"`
	Detection *detectTextResult `json:"detection,omitempty"`
}

func (s *Server) handleZoom(ctx context.Context, args json.RawMessage, zoom func() (float64, error)) (interface{}, error) {
	var a zoomArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	z, err := zoom()
	if err != nil {
		return nil, err
	}

	out := &zoomResult{Zoom: z}
	if boolOrDefault(a.Refresh, true) {
		det, err := s.runDetection(ctx, boolOrDefault(a.IncludeImage, true))
		if err != nil {
			return nil, &zoomRefreshError{zoom: z, err: err}
		}
		out.Detection = det
	}
	return out, nil
}

// === Output Handlers ===

type saveImageArgs struct {
	Path   string `json:"path"`
	Format string `json:"format"`
}

type saveImageResult struct {
	*pipeline.SaveResult
	Notice *Notice `json:"notice"`
}

func (s *Server) handleSaveImage(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a saveImageArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	res, err := s.ctrl.Save(ctx, a.Path, a.Format)
	if err != nil {
		return nil, err
	}
	return &saveImageResult{
		SaveResult: res,
		Notice:     infoNotice(EventImageSaved, res.Path),
	}, nil
}

type scoreTextArgs struct {
	Expected string `json:"expected"`
}

func (s *Server) handleScoreText(args json.RawMessage) (interface{}, error) {
	var a scoreTextArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	if !s.ctrl.Session().Loaded() {
		return nil, pipeline.ErrNoActiveImage
	}
	text, ok := s.ctrl.LastText()
	if !ok {
		return nil, errNoDetection
	}

	score := accuracy.Compare(a.Expected, text)
	return &score, nil
}
