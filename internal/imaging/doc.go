// Package imaging provides the raster primitives used by page detection.
//
// It wraps decoding and encoding (with EXIF orientation applied on load),
// single-channel conversions, blurring, Canny edge detection, thresholding,
// morphology and gradient magnitude. Single-channel rasters are plain
// *image.Gray values with the origin at (0, 0); binary masks use 0 for
// background and 255 for foreground.
//
// It also crops named page regions and renders detection previews for MCP
// clients.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Every other function is
// stateless, never modifies its input and returns a newly allocated image,
// so operations can run concurrently on a shared source.
//
// # Error Handling
//
// Functions return errors for:
//   - File I/O errors during image loading
//   - Empty or undecodable input
//   - Encoding errors during image output
package imaging
