package server

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/text-detect-mcp/internal/annotate"
	"github.com/ironsheep/text-detect-mcp/internal/detection"
	"github.com/ironsheep/text-detect-mcp/internal/pipeline"
)

type testServer struct {
	srv      *Server
	ctrl     *pipeline.Controller
	dir      string
	artifact string
}

// newTestServer builds a server around a controller whose detector always
// reports a single HELLO region.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithDetector(t, detection.DetectorFunc(func(ctx context.Context, img image.Image) ([]detection.RawRegion, error) {
		return []detection.RawRegion{{
			Quad:       [4][2]float64{{10, 10}, {50, 10}, {50, 30}, {10, 30}},
			Text:       "HELLO",
			Confidence: 0.8,
		}}, nil
	}))
}

func newTestServerWithDetector(t *testing.T, det detection.Detector) *testServer {
	t.Helper()

	ann, err := annotate.New(annotate.DefaultStyle())
	if err != nil {
		t.Fatalf("annotate.New failed: %v", err)
	}

	dir := t.TempDir()
	artifact := filepath.Join(dir, "detected_text.txt")
	ctrl := pipeline.NewController(det, ann, pipeline.Options{ArtifactPath: artifact})

	return &testServer{srv: New(ctrl), ctrl: ctrl, dir: dir, artifact: artifact}
}

// createTestImageFile creates a test image file and returns its path
func createTestImageFile(t *testing.T, dir string, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(dir, "input.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}

	return path
}

// callTool sends a tools/call request and returns the response.
func (ts *testServer) callTool(t *testing.T, name string, args interface{}) *MCPResponse {
	t.Helper()

	params := map[string]interface{}{"name": name}
	if args != nil {
		params["arguments"] = args
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		t.Fatal(err)
	}

	resp := ts.srv.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// mustSucceed decodes the JSON text content of a successful tool response.
func mustSucceed(t *testing.T, resp *MCPResponse) map[string]interface{} {
	t.Helper()

	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("unexpected content: %v", result["content"])
	}

	var out map[string]interface{}
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), &out); err != nil {
		t.Fatalf("content is not JSON: %v", err)
	}
	return out
}

// mustFail returns the ErrorData of a failed tool response.
func mustFail(t *testing.T, resp *MCPResponse) ErrorData {
	t.Helper()

	if resp.Error == nil {
		t.Fatalf("expected an error, got result %v", resp.Result)
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
	}
	data, ok := resp.Error.Data.(ErrorData)
	if !ok {
		t.Fatalf("Error data: got %T, want ErrorData", resp.Error.Data)
	}
	return data
}

func (ts *testServer) upload(t *testing.T, width, height int) string {
	t.Helper()
	path := createTestImageFile(t, ts.dir, width, height, color.RGBA{255, 255, 255, 255})
	mustSucceed(t, ts.callTool(t, "upload_image", map[string]interface{}{"path": path}))
	return path
}

func TestHandleToolsCall_UploadImage(t *testing.T) {
	ts := newTestServer(t)
	path := createTestImageFile(t, ts.dir, 800, 200, color.RGBA{255, 0, 0, 255})

	out := mustSucceed(t, ts.callTool(t, "upload_image", map[string]interface{}{"path": path}))

	info := out["info"].(map[string]interface{})
	if info["width"] != float64(800) || info["height"] != float64(200) || info["format"] != "png" {
		t.Errorf("info: got %v", info)
	}

	thumb := out["thumbnail"].(map[string]interface{})
	if thumb["width"] != float64(400) || thumb["height"] != float64(100) {
		t.Errorf("thumbnail size: got %vx%v, want 400x100", thumb["width"], thumb["height"])
	}
	if thumb["mime_type"] != "image/png" || thumb["image_base64"] == "" {
		t.Errorf("thumbnail payload: got %v", thumb["mime_type"])
	}

	notice := out["notice"].(map[string]interface{})
	if notice["level"] != "info" || notice["event"] != EventImageLoaded || notice["path"] != path {
		t.Errorf("notice: got %v", notice)
	}
}

func TestHandleToolsCall_UploadImageFailure(t *testing.T) {
	ts := newTestServer(t)

	data := mustFail(t, ts.callTool(t, "upload_image", map[string]interface{}{"path": "/nonexistent/image.png"}))
	if data.Kind != pipeline.KindDecodeFailure || data.Severity != "error" {
		t.Errorf("error data: got %+v", data)
	}

	data = mustFail(t, ts.callTool(t, "upload_image", map[string]interface{}{}))
	if data.Kind != pipeline.KindDecodeFailure {
		t.Errorf("missing path: got %+v", data)
	}
}

func TestHandleToolsCall_NoActiveImageIsWarning(t *testing.T) {
	tests := []struct {
		tool string
		args interface{}
	}{
		{"detect_text", nil},
		{"zoom_in", nil},
		{"zoom_out", map[string]interface{}{"refresh": false}},
		{"save_image", map[string]interface{}{"path": "/tmp/never-written.png"}},
		{"score_text", map[string]interface{}{"expected": "HELLO"}},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			ts := newTestServer(t)
			data := mustFail(t, ts.callTool(t, tt.tool, tt.args))
			if data.Kind != pipeline.KindNoActiveImage || data.Severity != "warning" {
				t.Errorf("error data: got %+v", data)
			}
		})
	}
}

func TestHandleToolsCall_DetectText(t *testing.T) {
	ts := newTestServer(t)
	ts.upload(t, 120, 80)

	out := mustSucceed(t, ts.callTool(t, "detect_text", nil))

	if out["text"] != "HELLO" {
		t.Errorf("text: got %v", out["text"])
	}
	regions := out["regions"].([]interface{})
	if len(regions) != 1 {
		t.Fatalf("regions: got %d, want 1", len(regions))
	}
	first := regions[0].(map[string]interface{})
	quad := first["quad"].([]interface{})
	tl := quad[0].(map[string]interface{})
	if tl["x"] != float64(10) || tl["y"] != float64(10) {
		t.Errorf("top-left: got %v", tl)
	}

	if _, ok := out["annotated_image"].(map[string]interface{}); !ok {
		t.Error("annotated_image should be included by default")
	}

	notice := out["notice"].(map[string]interface{})
	if notice["event"] != EventTextSaved || notice["path"] != ts.artifact {
		t.Errorf("notice: got %v", notice)
	}

	data, err := os.ReadFile(ts.artifact)
	if err != nil {
		t.Fatalf("artifact not written: %v", err)
	}
	if string(data) != "HELLO" {
		t.Errorf("artifact: got %q", data)
	}
}

func TestHandleToolsCall_DetectTextWithoutImage(t *testing.T) {
	ts := newTestServer(t)
	ts.upload(t, 60, 60)

	out := mustSucceed(t, ts.callTool(t, "detect_text", map[string]interface{}{"include_image": false}))
	if _, ok := out["annotated_image"]; ok {
		t.Error("annotated_image should be omitted when include_image is false")
	}
}

func TestHandleToolsCall_SetPreprocessMode(t *testing.T) {
	ts := newTestServer(t)

	out := mustSucceed(t, ts.callTool(t, "set_preprocess_mode", map[string]interface{}{"mode": "Contrast"}))
	session := out["session"].(map[string]interface{})
	if session["preprocess_mode"] != "Contrast" {
		t.Errorf("mode: got %v", session["preprocess_mode"])
	}

	data := mustFail(t, ts.callTool(t, "set_preprocess_mode", map[string]interface{}{"mode": "Sepia"}))
	if data.Kind != pipeline.KindInvalidPreprocessMode || data.Severity != "warning" {
		t.Errorf("error data: got %+v", data)
	}
	if ts.ctrl.Session().Mode != "Contrast" {
		t.Errorf("mode after rejection: got %v", ts.ctrl.Session().Mode)
	}
}

func TestHandleToolsCall_ZoomRefreshes(t *testing.T) {
	ts := newTestServer(t)
	ts.upload(t, 100, 100)

	out := mustSucceed(t, ts.callTool(t, "zoom_in", map[string]interface{}{"include_image": false}))
	if z := out["zoom_factor"].(float64); z < 1.0999 || z > 1.1001 {
		t.Errorf("zoom_factor: got %v, want 1.1", z)
	}
	det, ok := out["detection"].(map[string]interface{})
	if !ok {
		t.Fatal("zoom should re-run detection by default")
	}
	if det["width"] != float64(110) || det["height"] != float64(110) {
		t.Errorf("zoomed size: got %vx%v, want 110x110", det["width"], det["height"])
	}

	out = mustSucceed(t, ts.callTool(t, "zoom_out", map[string]interface{}{"refresh": false}))
	if _, ok := out["detection"]; ok {
		t.Error("detection should be omitted when refresh is false")
	}
	if z := out["zoom_factor"].(float64); z < 0.9999 || z > 1.0001 {
		t.Errorf("zoom_factor: got %v, want 1.0", z)
	}
}

func TestHandleToolsCall_ZoomRefreshFailureReportsZoom(t *testing.T) {
	ts := newTestServerWithDetector(t, detection.DetectorFunc(func(ctx context.Context, img image.Image) ([]detection.RawRegion, error) {
		return nil, errors.New("engine crashed")
	}))
	ts.upload(t, 100, 100)

	data := mustFail(t, ts.callTool(t, "zoom_in", nil))
	if data.Kind != pipeline.KindDetectionFailure {
		t.Errorf("Kind: got %q, want %q", data.Kind, pipeline.KindDetectionFailure)
	}
	if data.ZoomFactor == nil {
		t.Fatal("error data should carry the applied zoom factor")
	}
	if z := *data.ZoomFactor; math.Abs(z-1.1) > 1e-9 {
		t.Errorf("zoom_factor: got %v, want 1.1", z)
	}
	if z := ts.ctrl.Session().Zoom; math.Abs(z-1.1) > 1e-9 {
		t.Errorf("session zoom: got %v, want 1.1", z)
	}

	// Other failures do not report a zoom factor.
	data = mustFail(t, ts.callTool(t, "detect_text", nil))
	if data.ZoomFactor != nil {
		t.Errorf("detect_text error data: unexpected zoom_factor %v", *data.ZoomFactor)
	}
}

func TestHandleToolsCall_ZoomLimitIsWarning(t *testing.T) {
	ts := newTestServer(t)
	ts.upload(t, 100, 100)

	var resp *MCPResponse
	for i := 0; i < 500; i++ {
		resp = ts.callTool(t, "zoom_in", map[string]interface{}{"refresh": false})
		if resp.Error != nil {
			break
		}
	}

	data := mustFail(t, resp)
	if data.Kind != pipeline.KindZoomLimit {
		t.Errorf("Kind: got %q, want %q", data.Kind, pipeline.KindZoomLimit)
	}
	if data.Severity != pipeline.SeverityWarning {
		t.Errorf("Severity: got %q, want %q", data.Severity, pipeline.SeverityWarning)
	}
}

func TestHandleToolsCall_SaveImage(t *testing.T) {
	ts := newTestServer(t)
	ts.upload(t, 120, 90)
	mustSucceed(t, ts.callTool(t, "zoom_in", map[string]interface{}{"refresh": false}))

	dest := filepath.Join(ts.dir, "annotated")
	out := mustSucceed(t, ts.callTool(t, "save_image", map[string]interface{}{"path": dest}))

	want := dest + ".jpg"
	if out["path"] != want || out["format"] != "jpeg" {
		t.Errorf("save result: got path %v format %v", out["path"], out["format"])
	}
	if out["width"] != float64(120) || out["height"] != float64(90) {
		t.Errorf("saved size: got %vx%v, want 120x90", out["width"], out["height"])
	}
	notice := out["notice"].(map[string]interface{})
	if notice["event"] != EventImageSaved || notice["path"] != want {
		t.Errorf("notice: got %v", notice)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("saved file missing: %v", err)
	}

	data := mustFail(t, ts.callTool(t, "save_image", map[string]interface{}{"path": dest + ".gif"}))
	if data.Kind != pipeline.KindInvalidFormat || data.Severity != "error" {
		t.Errorf("error data: got %+v", data)
	}
}

func TestHandleToolsCall_SessionState(t *testing.T) {
	ts := newTestServer(t)

	out := mustSucceed(t, ts.callTool(t, "session_state", nil))
	session := out["session"].(map[string]interface{})
	if session["image_path"] != "" || session["preprocess_mode"] != "None" || session["zoom_factor"] != float64(1) {
		t.Errorf("initial session: got %v", session)
	}
	if _, ok := out["last_text"]; ok {
		t.Error("last_text should be absent before detection")
	}

	path := ts.upload(t, 60, 60)
	mustSucceed(t, ts.callTool(t, "detect_text", map[string]interface{}{"include_image": false}))

	out = mustSucceed(t, ts.callTool(t, "session_state", nil))
	session = out["session"].(map[string]interface{})
	if session["image_path"] != path {
		t.Errorf("image_path: got %v", session["image_path"])
	}
	if out["last_text"] != "HELLO" {
		t.Errorf("last_text: got %v", out["last_text"])
	}
}

func TestHandleToolsCall_ScoreText(t *testing.T) {
	ts := newTestServer(t)
	ts.upload(t, 60, 60)

	resp := ts.callTool(t, "score_text", map[string]interface{}{"expected": "HELLO"})
	data := mustFail(t, resp)
	if data.Kind != "" || data.Detail != errNoDetection.Error() {
		t.Errorf("before detection: got %+v", data)
	}

	mustSucceed(t, ts.callTool(t, "detect_text", map[string]interface{}{"include_image": false}))

	out := mustSucceed(t, ts.callTool(t, "score_text", map[string]interface{}{"expected": "HELLO"}))
	if out["exact"] != true || out["character_error_rate"] != float64(0) {
		t.Errorf("exact match: got %v", out)
	}

	out = mustSucceed(t, ts.callTool(t, "score_text", map[string]interface{}{"expected": "HELL0"}))
	if out["character_error_rate"] != 0.2 {
		t.Errorf("CER: got %v, want 0.2", out["character_error_rate"])
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.srv.handleToolsCall(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Params:  json.RawMessage(`{invalid`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("expected -32602, got %+v", resp.Error)
	}
}

func TestExecuteTool_UnknownTool(t *testing.T) {
	ts := newTestServer(t)

	_, err := ts.srv.executeTool(context.Background(), "unknown_tool", json.RawMessage(`{}`))
	if err == nil {
		t.Error("executeTool should fail for unknown tool")
	}
}

func TestExecuteTool_InvalidJSON(t *testing.T) {
	ts := newTestServer(t)

	_, err := ts.srv.executeTool(context.Background(), "upload_image", json.RawMessage(`{invalid`))
	if err == nil {
		t.Error("executeTool should fail for invalid JSON")
	}
}
