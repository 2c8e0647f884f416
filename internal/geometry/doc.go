// Package geometry provides the planar math behind page rectification.
//
// It covers point ordering for quadrilaterals, polygon measurements, polygon
// simplification for contour approximation, and the projective transform that
// maps a photographed page onto an upright rectangle.
//
// # Coordinate System
//
// Points use floating-point image coordinates:
//   - Origin (0, 0) at the top-left pixel
//   - X increases rightward
//   - Y increases downward
//
// A Quad is always stored in canonical order once it has been passed through
// OrderPoints: top-left, top-right, bottom-right, bottom-left.
//
// # Thread Safety
//
// All functions are pure. Rectify reads the source image concurrently from a
// small number of goroutines but never writes to it.
package geometry
