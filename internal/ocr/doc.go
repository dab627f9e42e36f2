// Package ocr provides the Tesseract-backed text detector (via gosseract/v2).
//
// Tesseract is both locator and recognizer here: one call yields the boxes of
// words, lines or blocks together with their recognized text and confidence.
//
// # Prerequisites
//
// Tesseract and its development headers must be installed, and the binary must
// be built with cgo enabled:
//   - Ubuntu/Debian: apt-get install tesseract-ocr libtesseract-dev libleptonica-dev
//   - macOS: brew install tesseract
//
// Language data files are required for each language:
//   - Ubuntu/Debian: apt-get install tesseract-ocr-eng (for English)
//   - Other languages: tesseract-ocr-<lang> packages
//
// Builds without cgo still compile, but NewTesseract always fails there so the
// process refuses to start rather than running without a detector.
//
// # Lifecycle
//
// A Tesseract detector wraps one long-lived engine handle. NewTesseract loads
// the language model and runs a warm-up recognition so a missing language or
// tessdata directory is reported at startup. The handle is reused for every
// Detect call and released with Close. Calls are serialized internally; the
// engine is not safe for concurrent use.
//
// # Iterator Levels
//
//   - "word": one region per recognized word (default)
//   - "line": one region per text line
//   - "block": one region per paragraph-like block
//
// # Confidence
//
// Tesseract reports confidence as 0-100; it is normalized to 0.0-1.0.
package ocr
