// Package normalizer turns a photographed page into a flat, upright JPEG.
//
// Process loads an image, locates the page with the detection cascade,
// rectifies the page quadrilateral onto a rectangle and writes the result
// as a quality-90 JPEG. Failures are reported as typed errors:
//
//   - *LoadError: the input is missing, empty or not a decodable image
//   - *BoundaryNotFoundError: no tier of the detector accepted a quad
//   - *IOError: the output could not be written
//
// UserMessage maps any of these to a short message suitable for showing to
// the person who took the photo.
package normalizer
