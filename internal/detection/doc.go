// Package detection defines the text detector capability consumed by the
// pipeline and the region model its output is marshaled into.
//
// # Detector Contract
//
// A Detector takes an image and returns an ordered sequence of RawRegion
// values: a quadrilateral of four float corner points (top-left, top-right,
// bottom-right, bottom-left), the recognized string, and a confidence score.
// An empty sequence is a valid result meaning "no text found".
//
// FromRaw converts raw detector output into Region values with integer corner
// coordinates. It rounds every coordinate to the nearest pixel and preserves
// the detector's ordering exactly; nothing is filtered or sorted.
//
// # Implementations
//
// The Tesseract-backed detector lives in the ocr package. This package ships
// EdgeDetector, a pure-Go heuristic that locates text-like areas by edge
// density. It reports boxes without recognized text and is useful when no OCR
// engine is installed.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// # Confidence Scores
//
// Confidence is normalized to 0.0 to 1.0 by every implementation. For
// EdgeDetector it combines edge density and horizontal structure.
package detection
