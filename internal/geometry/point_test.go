package geometry

import (
	"math"
	"testing"
)

func permutations(pts [4]Point) [][4]Point {
	var out [][4]Point
	var rec func(k int, cur [4]Point)
	rec = func(k int, cur [4]Point) {
		if k == len(cur) {
			out = append(out, cur)
			return
		}
		for i := k; i < len(cur); i++ {
			cur[k], cur[i] = cur[i], cur[k]
			rec(k+1, cur)
			cur[k], cur[i] = cur[i], cur[k]
		}
	}
	rec(0, pts)
	return out
}

func TestOrderPoints(t *testing.T) {
	tests := []struct {
		name string
		want Quad
	}{
		{
			name: "axis aligned",
			want: Quad{{0, 0}, {100, 0}, {100, 50}, {0, 50}},
		},
		{
			name: "skewed page",
			want: Quad{{10, 20}, {110, 25}, {105, 200}, {5, 190}},
		},
		{
			name: "perspective",
			want: Quad{{300, 120}, {1700, 80}, {1900, 2800}, {150, 2900}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perms := permutations([4]Point(tt.want))
			if len(perms) != 24 {
				t.Fatalf("expected 24 permutations, got %d", len(perms))
			}
			for _, p := range perms {
				got := OrderPoints(p)
				if got != tt.want {
					t.Errorf("OrderPoints(%v) = %v, want %v", p, got, tt.want)
				}
			}
		})
	}
}

func TestOrderPoints_Example(t *testing.T) {
	got := OrderPoints([4]Point{{100, 50}, {0, 0}, {0, 50}, {100, 0}})
	want := Quad{{0, 0}, {100, 0}, {100, 50}, {0, 50}}
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestOrderPoints_MatchesExtremeCorners(t *testing.T) {
	pts := [4]Point{{180, 20}, {15, 10}, {10, 280}, {190, 270}}
	want, ok := ExtremeCorners(pts[:])
	if !ok {
		t.Fatal("ExtremeCorners rejected four points")
	}
	if got := OrderPoints(pts); got != want {
		t.Errorf("OrderPoints = %v, ExtremeCorners = %v", got, want)
	}
}

func TestQuadDimensions(t *testing.T) {
	tests := []struct {
		name          string
		quad          Quad
		width, height int
	}{
		{"pixel centres", Quad{{0, 0}, {99, 0}, {99, 49}, {0, 49}}, 100, 50},
		{"longest edge wins", Quad{{0, 0}, {80, 0}, {100, 60}, {0, 60}}, 101, 64},
		{"fractional", Quad{{0.5, 0.5}, {10.9, 0.5}, {10.9, 5.2}, {0.5, 5.2}}, 11, 5},
		{"collapsed", Quad{{5, 5}, {5, 5}, {5, 5}, {5, 5}}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := tt.quad.Dimensions()
			if w != tt.width || h != tt.height {
				t.Errorf("Dimensions() = %dx%d, want %dx%d", w, h, tt.width, tt.height)
			}
		})
	}
}

func TestQuadDegenerate(t *testing.T) {
	if (Quad{{0, 0}, {10, 0}, {10, 10}, {0, 10}}).Degenerate() {
		t.Error("square reported degenerate")
	}
	if !(Quad{{0, 0}, {5, 0}, {10, 0}, {20, 0}}).Degenerate() {
		t.Error("collinear quad not reported degenerate")
	}
}

func TestArea(t *testing.T) {
	square := []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	if got := Area(square); got != 100 {
		t.Errorf("Area(square) = %v, want 100", got)
	}

	// Orientation must not change the sign.
	reversed := []Point{{0, 10}, {10, 10}, {10, 0}, {0, 0}}
	if got := Area(reversed); got != 100 {
		t.Errorf("Area(reversed) = %v, want 100", got)
	}

	if got := Area(square[:2]); got != 0 {
		t.Errorf("Area(segment) = %v, want 0", got)
	}
}

func TestArcLength(t *testing.T) {
	pts := []Point{{0, 0}, {3, 0}, {3, 4}}
	if got := ArcLength(pts, false); got != 7 {
		t.Errorf("open ArcLength = %v, want 7", got)
	}
	if got := ArcLength(pts, true); got != 12 {
		t.Errorf("closed ArcLength = %v, want 12", got)
	}
}

func TestQuadScale(t *testing.T) {
	q := Quad{{1, 2}, {3, 2}, {3, 4}, {1, 4}}.Scale(2.5, 2)
	want := Quad{{2.5, 4}, {7.5, 4}, {7.5, 8}, {2.5, 8}}
	if q != want {
		t.Errorf("Scale = %v, want %v", q, want)
	}
}

func TestExtremeCorners(t *testing.T) {
	// An octagon-ish outline with extra vertices near the corners.
	pts := []Point{
		{20, 10}, {50, 5}, {90, 12}, {95, 40},
		{88, 90}, {50, 95}, {8, 85}, {5, 45},
	}
	q, ok := ExtremeCorners(pts)
	if !ok {
		t.Fatal("ExtremeCorners reported no result")
	}
	want := Quad{{20, 10}, {90, 12}, {88, 90}, {8, 85}}
	if q != want {
		t.Errorf("ExtremeCorners = %v, want %v", q, want)
	}

	if _, ok := ExtremeCorners(pts[:3]); ok {
		t.Error("expected false for fewer than four points")
	}
}

func TestPointDist(t *testing.T) {
	if d := Pt(0, 0).Dist(Pt(3, 4)); math.Abs(d-5) > 1e-12 {
		t.Errorf("Dist = %v, want 5", d)
	}
}
