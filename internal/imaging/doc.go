// Package imaging loads, transforms and encodes the images the detection
// pipeline works on.
//
// It covers three concerns:
//
//   - Loading: decoding a JPEG or PNG from a path and describing it, plus the
//     bounded preview thumbnail shown after an upload.
//   - Transforming: the preprocessing modes (None, Grayscale, Resize, Contrast)
//     and the zoom scale that is applied after them.
//   - Encoding: writing an image as JPEG or PNG, and the base64 PNG payload used
//     to hand images to a display client.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward.
//
// # Transform Order
//
// Transform always applies the preprocessing mode first and the zoom factor
// second, so zoom magnifies the preprocessed view rather than the raw source.
// Every transform is deterministic: the same input image and parameters produce
// byte-identical output.
//
// # Degenerate Sizes
//
// Halving or zooming never produces an empty image. Each computed dimension is
// floored to an integer and then clamped to a minimum of one pixel.
package imaging
