package geometry

import (
	"errors"
	"math"
)

// ErrSingularTransform is returned when the corner correspondences do not
// define a unique projective transform (for example, three collinear corners).
var ErrSingularTransform = errors.New("perspective transform is singular")

// Homography is a 3x3 projective transform in row-major order with the
// last element normalised to 1.
type Homography [9]float64

// PerspectiveTransform solves for the homography that maps each src[i]
// onto dst[i].
//
// The eight unknowns h0..h7 (h8 fixed to 1) satisfy, per correspondence:
//
//	u = (h0*x + h1*y + h2) / (h6*x + h7*y + 1)
//	v = (h3*x + h4*y + h5) / (h6*x + h7*y + 1)
//
// which linearises into an 8x8 system solved by Gaussian elimination with
// partial pivoting.
func PerspectiveTransform(src, dst [4]Point) (Homography, error) {
	var a [8][9]float64
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		a[2*i] = [9]float64{x, y, 1, 0, 0, 0, -u * x, -u * y, u}
		a[2*i+1] = [9]float64{0, 0, 0, x, y, 1, -v * x, -v * y, v}
	}

	for col := 0; col < 8; col++ {
		pivot := col
		for row := col + 1; row < 8; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return Homography{}, ErrSingularTransform
		}
		a[col], a[pivot] = a[pivot], a[col]

		for row := 0; row < 8; row++ {
			if row == col {
				continue
			}
			f := a[row][col] / a[col][col]
			if f == 0 {
				continue
			}
			for k := col; k < 9; k++ {
				a[row][k] -= f * a[col][k]
			}
		}
	}

	var h Homography
	for i := 0; i < 8; i++ {
		h[i] = a[i][8] / a[i][i]
	}
	h[8] = 1
	return h, nil
}

// Apply maps p through the transform.
func (h Homography) Apply(p Point) Point {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	if w == 0 {
		return Point{X: math.Inf(1), Y: math.Inf(1)}
	}
	return Point{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}
}
