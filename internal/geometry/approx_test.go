package geometry

import "testing"

// rectOutline walks the border of an axis-aligned rectangle clockwise one
// pixel at a time, the way a traced contour would.
func rectOutline(x0, y0, x1, y1 int) []Point {
	var pts []Point
	for x := x0; x < x1; x++ {
		pts = append(pts, Pt(float64(x), float64(y0)))
	}
	for y := y0; y < y1; y++ {
		pts = append(pts, Pt(float64(x1), float64(y)))
	}
	for x := x1; x > x0; x-- {
		pts = append(pts, Pt(float64(x), float64(y1)))
	}
	for y := y1; y > y0; y-- {
		pts = append(pts, Pt(float64(x0), float64(y)))
	}
	return pts
}

func TestApproxPolyDP_Rectangle(t *testing.T) {
	outline := rectOutline(10, 10, 90, 60)
	eps := 0.02 * ArcLength(outline, true)

	got := ApproxPolyDP(outline, eps)
	if len(got) != 4 {
		t.Fatalf("expected 4 vertices, got %d: %v", len(got), got)
	}

	want := map[Point]bool{{10, 10}: true, {90, 10}: true, {90, 60}: true, {10, 60}: true}
	for _, p := range got {
		if !want[p] {
			t.Errorf("unexpected vertex %v", p)
		}
	}
}

func TestApproxPolyDP_NoisyEdges(t *testing.T) {
	outline := rectOutline(0, 0, 200, 100)
	// Jitter every other point by one pixel perpendicular to its edge.
	for i := range outline {
		if i%2 == 0 {
			continue
		}
		p := outline[i]
		switch {
		case p.Y == 0 && p.X > 0 && p.X < 200:
			outline[i].Y = 1
		case p.Y == 100 && p.X > 0 && p.X < 200:
			outline[i].Y = 99
		}
	}

	got := ApproxPolyDP(outline, 0.02*ArcLength(outline, true))
	if len(got) != 4 {
		t.Errorf("expected 4 vertices after smoothing jitter, got %d: %v", len(got), got)
	}
}

func TestApproxPolyDP_SmallEpsilonKeepsCorners(t *testing.T) {
	// An L-shape has six true corners.
	l := []Point{{0, 0}, {50, 0}, {50, 20}, {20, 20}, {20, 60}, {0, 60}}
	got := ApproxPolyDP(l, 1)
	if len(got) != 6 {
		t.Errorf("expected 6 vertices, got %d: %v", len(got), got)
	}
}

func TestApproxPolyDP_Short(t *testing.T) {
	pts := []Point{{0, 0}, {1, 1}}
	got := ApproxPolyDP(pts, 5)
	if len(got) != 2 {
		t.Errorf("expected input returned unchanged, got %v", got)
	}
}
