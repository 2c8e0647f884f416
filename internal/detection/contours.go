package detection

import (
	"image"
	"sort"

	"github.com/ironsheep/page-tools-mcp/internal/geometry"
)

// Contour is the traced outer boundary of one connected foreground region
// of a binary mask.
type Contour struct {
	// Points walk the boundary clockwise, one pixel centre per step.
	Points []geometry.Point

	// Area is the shoelace area enclosed by Points.
	Area float64

	// Perimeter is the closed arc length of Points.
	Perimeter float64
}

// Moore neighbourhood in clockwise order for y-down image coordinates,
// starting east.
var (
	neighborDX = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	neighborDY = [8]int{0, 1, 1, 1, 0, -1, -1, -1}
)

// FindExternalContours returns the outer boundaries of the outermost
// foreground regions in mask, largest area first.
//
// Foreground is any non-zero pixel. Regions are 8-connected. A region is
// outermost when it touches the image border or the background that
// reaches the border; regions sitting inside a hole of another region
// (text inside a page outline, for example) are skipped.
func FindExternalContours(mask *image.Gray) []Contour {
	width, height := mask.Rect.Dx(), mask.Rect.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	fg := make([]bool, width*height)
	for y := 0; y < height; y++ {
		row := mask.Pix[y*mask.Stride : y*mask.Stride+width]
		for x, v := range row {
			fg[y*width+x] = v != 0
		}
	}

	outside := outsideBackground(fg, width, height)
	visited := make([]bool, width*height)
	var contours []Contour

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			if !fg[i] || visited[i] {
				continue
			}

			// Raster order guarantees (x, y) is the top-most, left-most
			// pixel of its region, which is where tracing must start.
			size, external := floodRegion(fg, visited, outside, width, height, x, y)
			if !external {
				continue
			}

			pts := traceBoundary(fg, width, height, x, y, 8*size+16)
			contours = append(contours, Contour{
				Points:    pts,
				Area:      geometry.Area(pts),
				Perimeter: geometry.ArcLength(pts, true),
			})
		}
	}

	sort.SliceStable(contours, func(i, j int) bool {
		return contours[i].Area > contours[j].Area
	})
	return contours
}

// outsideBackground marks background pixels 4-connected to the image border.
// 4-connectivity for background pairs with 8-connectivity for foreground, so
// a diagonal-stepping outline still seals its interior.
func outsideBackground(fg []bool, width, height int) []bool {
	outside := make([]bool, width*height)
	stack := make([]int, 0, 2*(width+height))

	push := func(x, y int) {
		i := y*width + x
		if !fg[i] && !outside[i] {
			outside[i] = true
			stack = append(stack, i)
		}
	}
	for x := 0; x < width; x++ {
		push(x, 0)
		push(x, height-1)
	}
	for y := 0; y < height; y++ {
		push(0, y)
		push(width-1, y)
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%width, i/width
		if x > 0 {
			push(x-1, y)
		}
		if x < width-1 {
			push(x+1, y)
		}
		if y > 0 {
			push(x, y-1)
		}
		if y < height-1 {
			push(x, y+1)
		}
	}
	return outside
}

// floodRegion marks the 8-connected region containing (startX, startY) as
// visited. It reports the region's pixel count and whether the region is
// outermost.
func floodRegion(fg, visited, outside []bool, width, height, startX, startY int) (size int, external bool) {
	start := startY*width + startX
	visited[start] = true
	stack := []int{start}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		size++

		x, y := i%width, i/width
		if x == 0 || y == 0 || x == width-1 || y == height-1 {
			external = true
		}

		for d := 0; d < 8; d++ {
			nx, ny := x+neighborDX[d], y+neighborDY[d]
			if nx < 0 || ny < 0 || nx >= width || ny >= height {
				continue
			}
			n := ny*width + nx
			if !fg[n] {
				// Only edge-adjacent background counts as touching.
				if d%2 == 0 && outside[n] {
					external = true
				}
				continue
			}
			if !visited[n] {
				visited[n] = true
				stack = append(stack, n)
			}
		}
	}
	return size, external
}

// traceBoundary follows the outer boundary of the region whose top-most,
// left-most pixel is (startX, startY) using Moore-neighbour tracing.
//
// After a move in direction d the search resumes at d-1 for axis moves and
// d-2 for diagonal moves, sweeping clockwise. Tracing stops when the start
// pixel is about to be left along the same step as the first move, which
// also closes regions that pass through the start pixel twice. limit caps
// the walk length.
func traceBoundary(fg []bool, width, height, startX, startY, limit int) []geometry.Point {
	isFG := func(x, y int) bool {
		return x >= 0 && y >= 0 && x < width && y < height && fg[y*width+x]
	}

	next := func(x, y, d int) (int, int, int, bool) {
		start := (d + 7) % 8
		if d%2 == 1 {
			start = (d + 6) % 8
		}
		for k := 0; k < 8; k++ {
			nd := (start + k) % 8
			nx, ny := x+neighborDX[nd], y+neighborDY[nd]
			if isFG(nx, ny) {
				return nx, ny, nd, true
			}
		}
		return 0, 0, 0, false
	}

	pts := []geometry.Point{geometry.Pt(float64(startX), float64(startY))}

	// Nothing lies above or to the left of the start pixel, so begin as
	// though we had just moved east.
	x1, y1, d1, ok := next(startX, startY, 0)
	if !ok {
		return pts
	}

	x, y, d := x1, y1, d1
	for steps := 0; steps < limit; steps++ {
		nx, ny, nd, _ := next(x, y, d)
		if x == startX && y == startY && nx == x1 && ny == y1 && nd == d1 {
			break
		}
		pts = append(pts, geometry.Pt(float64(x), float64(y)))
		x, y, d = nx, ny, nd
	}
	return pts
}
