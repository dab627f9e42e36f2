package server

import "github.com/ironsheep/text-detect-mcp/internal/imaging"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func modeNames() []string {
	modes := imaging.Modes()
	names := make([]string, len(modes))
	for i, m := range modes {
		names[i] = string(m)
	}
	return names
}

func refreshProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "boolean",
		"description": "Re-run detection on the zoomed view and return it. Default true",
		"default":     true,
	}
}

func includeImageProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "boolean",
		"description": "Include the annotated image as base64-encoded PNG. Default true",
		"default":     true,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Session
		{
			Name:        "upload_image",
			Description: "Load a JPEG or PNG file as the active image. Returns its dimensions and a preview thumbnail. Resets the zoom factor to 1.0.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to a .jpg, .jpeg or .png file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "set_preprocess_mode",
			Description: "Choose the preprocessing applied before detection: None, Grayscale, Resize (50%) or Contrast (x1.5).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        modeNames(),
						"description": "Preprocessing mode",
					},
				},
				"required": []string{"mode"},
			},
		},
		{
			Name:        "session_state",
			Description: "Report the active image path, preprocessing mode, zoom factor and the text of the last detection.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// Detection
		{
			Name:        "detect_text",
			Description: "Reload the active image, apply preprocessing and zoom, detect text, and return the regions with the annotated image. Overwrites the text artifact file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"include_image": includeImageProperty(),
				},
			},
		},
		{
			Name:        "zoom_in",
			Description: "Multiply the zoom factor by 1.1. Rejected when the zoomed image would be too large. If the refresh detection fails, the new zoom factor stays applied and is reported in the error data.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"refresh":       refreshProperty(),
					"include_image": includeImageProperty(),
				},
			},
		},
		{
			Name:        "zoom_out",
			Description: "Divide the zoom factor by 1.1. If the refresh detection fails, the new zoom factor stays applied and is reported in the error data.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"refresh":       refreshProperty(),
					"include_image": includeImageProperty(),
				},
			},
		},

		// Output
		{
			Name:        "save_image",
			Description: "Detect text on the active image at its original resolution, without preprocessing or zoom, and save it with the detections drawn on. A path without an extension gets .jpg.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Destination file path",
					},
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"jpeg", "png"},
						"description": "Output format. Defaults to the extension of path",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "score_text",
			Description: "Compare the text of the last detection with the expected text and report character and word error rates.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"expected": map[string]interface{}{
						"type":        "string",
						"description": "The text the image is known to contain",
					},
				},
				"required": []string{"expected"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
