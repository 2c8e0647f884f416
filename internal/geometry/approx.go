package geometry

// ApproxPolyDP simplifies a closed curve with the Douglas-Peucker algorithm.
//
// Every point dropped lies within epsilon of the simplified polygon. The
// curve is split at its first point and the point farthest from it, and
// each half is simplified independently, so the result always keeps those
// two anchors.
func ApproxPolyDP(curve []Point, epsilon float64) []Point {
	n := len(curve)
	if n < 3 {
		out := make([]Point, n)
		copy(out, curve)
		return out
	}

	far := 0
	var farDist float64
	for i := 1; i < n; i++ {
		d := distSq(curve[0], curve[i])
		if d > farDist {
			farDist = d
			far = i
		}
	}
	if far == 0 {
		return []Point{curve[0]}
	}

	// First half: curve[0..far]; second half: curve[far..n-1] then back to curve[0].
	first := douglasPeucker(curve[:far+1], epsilon)

	second := make([]Point, 0, n-far+1)
	second = append(second, curve[far:]...)
	second = append(second, curve[0])
	secondSimplified := douglasPeucker(second, epsilon)

	out := make([]Point, 0, len(first)+len(secondSimplified))
	out = append(out, first...)
	// Drop the duplicated anchors: far (shared) and the closing curve[0].
	out = append(out, secondSimplified[1:len(secondSimplified)-1]...)

	// The starting anchor is kept unconditionally above; drop it when it
	// sits on the segment joining its neighbours.
	if len(out) > 3 && segmentDist(out[0], out[len(out)-1], out[1]) <= epsilon {
		out = out[1:]
	}
	return out
}

// douglasPeucker simplifies an open polyline, keeping both endpoints.
func douglasPeucker(pts []Point, epsilon float64) []Point {
	n := len(pts)
	if n < 3 {
		out := make([]Point, n)
		copy(out, pts)
		return out
	}

	keep := make([]bool, n)
	keep[0] = true
	keep[n-1] = true

	type span struct{ lo, hi int }
	stack := []span{{0, n - 1}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		idx := -1
		var maxDist float64
		for i := s.lo + 1; i < s.hi; i++ {
			d := segmentDist(pts[i], pts[s.lo], pts[s.hi])
			if d > maxDist {
				maxDist = d
				idx = i
			}
		}
		if idx >= 0 && maxDist > epsilon {
			keep[idx] = true
			stack = append(stack, span{s.lo, idx}, span{idx, s.hi})
		}
	}

	out := make([]Point, 0, n)
	for i, k := range keep {
		if k {
			out = append(out, pts[i])
		}
	}
	return out
}

// segmentDist is the distance from p to the segment a-b.
func segmentDist(p, a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return p.Dist(a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return p.Dist(Point{X: a.X + t*dx, Y: a.Y + t*dy})
}

func distSq(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}
