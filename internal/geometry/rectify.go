package geometry

import (
	"errors"
	"fmt"
	"image"
	"math"
	"runtime"
	"sync"

	"github.com/disintegration/imaging"
)

// ErrDegenerateQuad is returned when a quad would rectify to an empty image.
var ErrDegenerateQuad = errors.New("degenerate quadrilateral")

// Rectify warps the region of img bounded by the ordered quad q onto an
// upright rectangle.
//
// The output is Dimensions() in size. Corners map as
//
//	TL -> (0, 0)      TR -> (w-1, 0)
//	BL -> (0, h-1)    BR -> (w-1, h-1)
//
// Each output pixel is mapped back into the source through the projective
// transform and bilinearly interpolated. Samples that fall outside the
// source are clamped to the nearest edge pixel. The source image is never
// modified.
func Rectify(img image.Image, q Quad) (*image.NRGBA, error) {
	w, h := q.Dimensions()
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("%w: output size %dx%d", ErrDegenerateQuad, w, h)
	}

	rect := [4]Point{
		{X: 0, Y: 0},
		{X: float64(w - 1), Y: 0},
		{X: float64(w - 1), Y: float64(h - 1)},
		{X: 0, Y: float64(h - 1)},
	}
	// Solve destination -> source directly so no inversion is needed.
	toSrc, err := PerspectiveTransform(rect, [4]Point(q))
	if err != nil {
		return nil, fmt.Errorf("failed to compute transform: %w", err)
	}

	src := toNRGBA(img)
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))

	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			off := y * dst.Stride
			for x := 0; x < w; x++ {
				p := toSrc.Apply(Point{X: float64(x), Y: float64(y)})
				r, g, b, a := bilinear(src, p.X, p.Y)
				dst.Pix[off+0] = r
				dst.Pix[off+1] = g
				dst.Pix[off+2] = b
				dst.Pix[off+3] = a
				off += 4
			}
		}
	})

	return dst, nil
}

// toNRGBA returns img as a zero-origin *image.NRGBA, copying only when needed.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}

// bilinear samples src at a fractional coordinate with edge clamping.
func bilinear(src *image.NRGBA, fx, fy float64) (r, g, b, a uint8) {
	w := src.Rect.Dx()
	h := src.Rect.Dy()

	fx = math.Max(0, math.Min(fx, float64(w-1)))
	fy = math.Max(0, math.Min(fy, float64(h-1)))

	x0 := int(fx)
	y0 := int(fy)
	x1 := min(x0+1, w-1)
	y1 := min(y0+1, h-1)
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	i00 := y0*src.Stride + x0*4
	i10 := y0*src.Stride + x1*4
	i01 := y1*src.Stride + x0*4
	i11 := y1*src.Stride + x1*4

	var out [4]uint8
	for c := 0; c < 4; c++ {
		top := float64(src.Pix[i00+c])*(1-tx) + float64(src.Pix[i10+c])*tx
		bottom := float64(src.Pix[i01+c])*(1-tx) + float64(src.Pix[i11+c])*tx
		v := top*(1-ty) + bottom*ty
		out[c] = uint8(math.Min(255, v+0.5))
	}
	return out[0], out[1], out[2], out[3]
}

// parallelRows splits [0, rows) into contiguous bands and runs fn on each
// band in its own goroutine.
func parallelRows(rows int, fn func(y0, y1 int)) {
	workers := runtime.NumCPU()
	if workers > rows {
		workers = rows
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	perWorker := (rows + workers - 1) / workers
	for w := 0; w < workers; w++ {
		y0 := w * perWorker
		y1 := min(y0+perWorker, rows)
		if y0 >= y1 {
			continue
		}
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			fn(y0, y1)
		}(y0, y1)
	}
	wg.Wait()
}
