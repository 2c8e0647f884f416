package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/segment"
)

// AdaptiveThreshold binarises g against the mean of each pixel's
// blockSize x blockSize neighbourhood minus c.
//
// With invert false a pixel is foreground (255) when it is brighter than
// mean-c; with invert true when it is not. Windows are clipped at the image
// border and averaged over the pixels they cover, so a uniform image has no
// foreground in inverted mode.
func AdaptiveThreshold(g *image.Gray, blockSize int, c float64, invert bool) *image.Gray {
	width, height := g.Rect.Dx(), g.Rect.Dy()
	src := toGray(g)
	dst := image.NewGray(image.Rect(0, 0, width, height))
	if width == 0 || height == 0 {
		return dst
	}
	if blockSize < 3 {
		blockSize = 3
	}
	r := blockSize / 2

	// Summed-area table with a zero row and column in front.
	stride := width + 1
	integral := make([]uint64, stride*(height+1))
	for y := 0; y < height; y++ {
		var rowSum uint64
		for x := 0; x < width; x++ {
			rowSum += uint64(src.Pix[y*src.Stride+x])
			integral[(y+1)*stride+x+1] = integral[y*stride+x+1] + rowSum
		}
	}

	parallelRows(height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			top := max(y-r, 0)
			bottom := min(y+r, height-1) + 1
			for x := 0; x < width; x++ {
				left := max(x-r, 0)
				right := min(x+r, width-1) + 1

				sum := integral[bottom*stride+right] - integral[top*stride+right] -
					integral[bottom*stride+left] + integral[top*stride+left]
				count := float64((bottom - top) * (right - left))
				t := float64(sum)/count - c

				v := float64(src.Pix[y*src.Stride+x])
				fg := v > t
				if invert {
					fg = !fg
				}
				if fg {
					dst.Pix[y*dst.Stride+x] = 255
				}
			}
		}
	})
	return dst
}

// OtsuLevel picks the global threshold that maximises between-class
// variance of g's histogram. Pixels strictly above the level belong to the
// bright class. ok is false when g holds a single intensity.
func OtsuLevel(g *image.Gray) (level uint8, ok bool) {
	var hist [256]int
	width, height := g.Rect.Dx(), g.Rect.Dy()
	for y := 0; y < height; y++ {
		for _, v := range g.Pix[y*g.Stride : y*g.Stride+width] {
			hist[v]++
		}
	}

	total := width * height
	if total == 0 {
		return 0, false
	}
	var sumAll float64
	distinct := 0
	for i, n := range hist {
		sumAll += float64(i * n)
		if n > 0 {
			distinct++
		}
	}
	if distinct < 2 {
		return 0, false
	}

	var sumBg float64
	var weightBg int
	var best float64
	for t := 0; t < 256; t++ {
		weightBg += hist[t]
		if weightBg == 0 {
			continue
		}
		weightFg := total - weightBg
		if weightFg == 0 {
			break
		}
		sumBg += float64(t * hist[t])
		meanBg := sumBg / float64(weightBg)
		meanFg := (sumAll - sumBg) / float64(weightFg)
		between := float64(weightBg) * float64(weightFg) * (meanBg - meanFg) * (meanBg - meanFg)
		if between > best {
			best = between
			level = uint8(t)
		}
	}
	return level, true
}

// OtsuThreshold binarises g at its Otsu level. A single-intensity image
// yields an empty mask.
func OtsuThreshold(g *image.Gray) *image.Gray {
	level, ok := OtsuLevel(g)
	if !ok {
		return image.NewGray(image.Rect(0, 0, g.Rect.Dx(), g.Rect.Dy()))
	}
	// segment.Threshold keeps values >= its level.
	return toGray(segment.Threshold(g, level+1))
}
