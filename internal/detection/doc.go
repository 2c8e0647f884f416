// Package detection finds the page quadrilateral in a photographed document.
//
// Detection is a cascade of three tiers, tried in order until one yields a
// quad that looks like a page:
//
//  1. Recipes: seven edge-extraction strategies, conservative first
//     (gentle Canny) to aggressive (low-threshold Canny with dilation).
//     Each recipe's external contours are approximated to polygons; the
//     first four-cornered polygon covering between 30% and 99% of the frame
//     wins. A looser pass then takes the extreme corners of coarse polygons.
//  2. Largest contour: a single conservative Canny pass, whose largest
//     contour is reduced to its extreme corners.
//  3. Frame margin: for scans over 2000 px on both sides, a rectangle inset
//     5% from each edge, on the assumption that the page fills the frame.
//
// # Working Copy
//
// Tiers 1 and 2 run on a copy downscaled so its longest side is at most
// 1024 px (configurable with WithMaxSide). Area fractions do not depend on
// scale, and accepted quads are mapped back to source pixel coordinates.
//
// # Contours
//
// FindExternalContours labels 8-connected foreground regions in a binary
// mask and traces the outer boundary of each region that is not enclosed by
// another one, similar to an external-only contour retrieval mode.
//
// # Concurrency
//
// Tier-one recipes may be evaluated concurrently. The reported candidate is
// always the one from the earliest recipe in the list that succeeded, so the
// result does not depend on scheduling.
package detection
