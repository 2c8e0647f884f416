package geometry

import (
	"fmt"
	"math"
)

// Point is a 2D coordinate in image space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

func (p Point) String() string {
	return fmt.Sprintf("(%.1f,%.1f)", p.X, p.Y)
}

// Quad is a quadrilateral. After OrderPoints the corners are, in order,
// top-left, top-right, bottom-right, bottom-left.
type Quad [4]Point

// Corner indexes into an ordered Quad.
const (
	TopLeft = iota
	TopRight
	BottomRight
	BottomLeft
)

// OrderPoints sorts four unordered points into canonical corner order.
//
// The top-left corner has the smallest x+y and the bottom-right the largest.
// With y growing downward, the top-right corner has the smallest y-x and the
// bottom-left the largest. Ties resolve to the first point found.
//
// No collinearity check is made; four roughly quadrilateral points are assumed.
func OrderPoints(pts [4]Point) Quad {
	q, _ := ExtremeCorners(pts[:])
	return q
}

// Area returns the enclosed area of the quad (absolute shoelace value).
func (q Quad) Area() float64 {
	return Area(q[:])
}

// Scale multiplies x coordinates by sx and y coordinates by sy.
func (q Quad) Scale(sx, sy float64) Quad {
	var out Quad
	for i, p := range q {
		out[i] = Point{X: p.X * sx, Y: p.Y * sy}
	}
	return out
}

// Dimensions returns the rectified output size for an ordered quad.
//
// The width spans the longer of the two horizontal edges and the height the
// longer of the two vertical edges. Corners are treated as pixel centres, so
// an edge of length L covers trunc(L)+1 pixels: the quad
// (0,0),(W-1,0),(W-1,H-1),(0,H-1) rectifies to exactly W x H.
// Edges shorter than one pixel report a zero dimension.
func (q Quad) Dimensions() (width, height int) {
	w := math.Max(q[BottomRight].Dist(q[BottomLeft]), q[TopRight].Dist(q[TopLeft]))
	h := math.Max(q[TopRight].Dist(q[BottomRight]), q[TopLeft].Dist(q[BottomLeft]))
	return span(w), span(h)
}

func span(length float64) int {
	if length < 1 || math.IsNaN(length) {
		return 0
	}
	return int(length) + 1
}

// Degenerate reports whether the quad encloses no area or would rectify
// to an empty image.
func (q Quad) Degenerate() bool {
	if q.Area() <= 0 {
		return true
	}
	w, h := q.Dimensions()
	return w < 1 || h < 1
}

// Area computes the absolute polygon area with the shoelace formula.
// Fewer than three points enclose nothing.
func Area(pts []Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(sum) / 2
}

// ArcLength returns the length of a polyline, including the closing
// segment when closed is true.
func ArcLength(pts []Point, closed bool) float64 {
	n := len(pts)
	if n < 2 {
		return 0
	}
	var length float64
	for i := 1; i < n; i++ {
		length += pts[i].Dist(pts[i-1])
	}
	if closed {
		length += pts[n-1].Dist(pts[0])
	}
	return length
}

// ExtremeCorners picks the four most extreme points of a vertex set using
// the same sum/difference rule as OrderPoints, and returns them ordered.
// It reports false when fewer than four points are given.
func ExtremeCorners(pts []Point) (Quad, bool) {
	if len(pts) < 4 {
		return Quad{}, false
	}

	minSum, maxSum := 0, 0
	minDiff, maxDiff := 0, 0
	for i := 1; i < len(pts); i++ {
		s := pts[i].X + pts[i].Y
		d := pts[i].Y - pts[i].X
		if s < pts[minSum].X+pts[minSum].Y {
			minSum = i
		}
		if s > pts[maxSum].X+pts[maxSum].Y {
			maxSum = i
		}
		if d < pts[minDiff].Y-pts[minDiff].X {
			minDiff = i
		}
		if d > pts[maxDiff].Y-pts[maxDiff].X {
			maxDiff = i
		}
	}

	return Quad{pts[minSum], pts[minDiff], pts[maxSum], pts[maxDiff]}, true
}
