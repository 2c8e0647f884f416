package imaging

import (
	"image"
	"image/draw"
	"math"
	"runtime"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// Luminance converts img to 8-bit luminance using ITU-R BT.601 weights
// (0.299*R + 0.587*G + 0.114*B).
func Luminance(img image.Image) *image.Gray {
	return toGray(imaging.Grayscale(img))
}

// Lightness converts img to its CIE L* channel scaled to 0-255.
//
// L* tracks perceived brightness more closely than luma, which helps
// separate a cream page from a beige table where the RGB contrast is low.
func Lightness(img image.Image) *image.Gray {
	src := imaging.Clone(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))

	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			si := y * src.Stride
			di := y * dst.Stride
			for x := 0; x < w; x++ {
				c := colorful.Color{
					R: float64(src.Pix[si]) / 255,
					G: float64(src.Pix[si+1]) / 255,
					B: float64(src.Pix[si+2]) / 255,
				}
				l, _, _ := c.Lab()
				dst.Pix[di+x] = clampByte(l * 255)
				si += 4
			}
		}
	})
	return dst
}

// GaussianBlur smooths g with a Gaussian whose sigma matches an odd ksize
// square kernel (sigma = 0.3*((ksize-1)*0.5-1) + 0.8). Borders are
// normalised, so a uniform image stays uniform.
func GaussianBlur(g *image.Gray, ksize int) *image.Gray {
	if ksize < 3 {
		return cloneGray(g)
	}
	sigma := 0.3*((float64(ksize)-1)*0.5-1) + 0.8
	return toGray(imaging.Blur(g, sigma))
}

// Downscale shrinks img so its longest side is at most maxSide, keeping the
// aspect ratio. Images already small enough are returned unchanged.
// Box filtering averages whole source pixels, which keeps thin page edges
// from aliasing away.
func Downscale(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	if maxSide <= 0 || (b.Dx() <= maxSide && b.Dy() <= maxSide) {
		return img
	}
	return imaging.Fit(img, maxSide, maxSide, imaging.Box)
}

// toGray flattens img into a zero-origin *image.Gray. For the RGB types
// produced by the imaging and bild libraries the red channel is taken as
// the value, since both emit R=G=B for single-channel results.
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < h; y++ {
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+w], src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):])
		}
	case *image.NRGBA:
		for y := 0; y < h; y++ {
			si := src.PixOffset(b.Min.X, b.Min.Y+y)
			di := y * dst.Stride
			for x := 0; x < w; x++ {
				dst.Pix[di+x] = src.Pix[si+x*4]
			}
		}
	case *image.RGBA:
		for y := 0; y < h; y++ {
			si := src.PixOffset(b.Min.X, b.Min.Y+y)
			di := y * dst.Stride
			for x := 0; x < w; x++ {
				dst.Pix[di+x] = src.Pix[si+x*4]
			}
		}
	default:
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	}
	return dst
}

func cloneGray(g *image.Gray) *image.Gray {
	return toGray(g)
}

func clampByte(v float64) uint8 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// parallelRows splits [0, rows) into contiguous bands and runs fn on each
// band in its own goroutine.
func parallelRows(rows int, fn func(y0, y1 int)) {
	workers := min(runtime.NumCPU(), rows)
	if workers <= 1 {
		fn(0, rows)
		return
	}

	var wg sync.WaitGroup
	per := (rows + workers - 1) / workers
	for y0 := 0; y0 < rows; y0 += per {
		y1 := min(y0+per, rows)
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			fn(y0, y1)
		}(y0, y1)
	}
	wg.Wait()
}
