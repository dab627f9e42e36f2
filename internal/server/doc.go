// Package server implements the MCP (Model Context Protocol) server that
// drives the text detection pipeline.
//
// The server is the control surface of the pipeline: every tool maps to one
// pipeline.Controller operation and returns structured results a client can
// render. It holds no state of its own beyond the controller.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Session:
//   - upload_image: Make a JPEG/PNG file the active image, returns a thumbnail
//   - set_preprocess_mode: None, Grayscale, Resize or Contrast
//   - session_state: Current path, mode, zoom and last detected text
//
// Detection:
//   - detect_text: Transform, detect and annotate; rewrites the text artifact
//   - zoom_in, zoom_out: Change the zoom factor by 1.1 and, unless
//     refresh is false, run detection on the zoomed view
//
// Output:
//   - save_image: Annotate the original-resolution image and write it as JPEG or PNG
//   - score_text: Character and word error rates of the last detection
//
// # Notices
//
// Results of tools with side effects carry a notice object
// ({"level": "info", "event": "image_loaded" | "text_saved" | "image_saved", "path": ...})
// so a client can confirm the write without parsing free text.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: {"kind", "severity", "detail"}; kind is a pipeline.ErrorKind and
//     severity is "warning" for rejected actions (no image loaded, unknown
//     mode, busy, zoom limit) and "error" otherwise
//
// A zoom step is kept even when the refresh detection after it fails. The
// error data of such a failure carries the new "zoom_factor".
//
// # Usage
//
//	srv := server.New(ctrl)
//	if err := srv.Run(ctx); err != nil {
//	    logger.Logger.Fatal(err)
//	}
package server
