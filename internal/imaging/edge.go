package imaging

import (
	"image"
	"math"
)

// EdgeDetectResult contains an edge mask encoded as base64 PNG.
//
// White pixels (255) are edges, black pixels (0) are background.
type EdgeDetectResult struct {
	// Width of the output image in pixels (same as input).
	Width int `json:"width"`

	// Height of the output image in pixels (same as input).
	Height int `json:"height"`

	// EdgePixels is the number of pixels marked as edges.
	EdgePixels int `json:"edge_pixels"`

	// ImageBase64 is the edge mask encoded as base64 PNG.
	ImageBase64 string `json:"image_base64"`

	// MimeType is always "image/png" for edge detection results.
	MimeType string `json:"mime_type"`
}

// EdgeDetect runs luminance conversion, a 5x5 Gaussian blur and Canny on img
// and returns the mask as a PNG.
func EdgeDetect(img image.Image, thresholdLow, thresholdHigh int) (*EdgeDetectResult, error) {
	gray := GaussianBlur(Luminance(img), 5)
	mask := Canny(gray, float64(thresholdLow), float64(thresholdHigh))
	return MaskResult(mask)
}

// MaskResult encodes a binary mask as an EdgeDetectResult.
func MaskResult(mask *image.Gray) (*EdgeDetectResult, error) {
	encoded, err := EncodePNGBase64(mask)
	if err != nil {
		return nil, err
	}
	return &EdgeDetectResult{
		Width:       mask.Rect.Dx(),
		Height:      mask.Rect.Dy(),
		EdgePixels:  CountNonZero(mask),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// Canny detects edges in a single-channel image.
//
// The input is expected to be pre-smoothed; Canny itself does not blur.
//
//  1. Gradient: 3x3 Sobel operators, magnitude = sqrt(Gx² + Gy²)
//  2. Non-maximum suppression: keep only local maxima along the gradient
//     direction, thinning edges to one pixel
//  3. Hysteresis: pixels at or above high are edges; pixels at or above low
//     are edges only when 8-connected to such a pixel, directly or through
//     other weak pixels
//
// Thresholds are on the 0-255 intensity scale, so a hard black/white step
// produces a magnitude of roughly 1000. A uniform image has no edges.
func Canny(g *image.Gray, low, high float64) *image.Gray {
	width, height := g.Rect.Dx(), g.Rect.Dy()
	mask := image.NewGray(image.Rect(0, 0, width, height))
	if width < 3 || height < 3 {
		return mask
	}
	if low > high {
		low, high = high, low
	}

	src := toGray(g)
	magnitude := make([]float32, width*height)
	sector := make([]uint8, width*height)

	parallelRows(height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			ym := clamp(y-1, 0, height-1) * src.Stride
			yc := y * src.Stride
			yp := clamp(y+1, 0, height-1) * src.Stride
			for x := 0; x < width; x++ {
				xm := clamp(x-1, 0, width-1)
				xp := clamp(x+1, 0, width-1)

				tl, tc, tr := float64(src.Pix[ym+xm]), float64(src.Pix[ym+x]), float64(src.Pix[ym+xp])
				ml, mr := float64(src.Pix[yc+xm]), float64(src.Pix[yc+xp])
				bl, bc, br := float64(src.Pix[yp+xm]), float64(src.Pix[yp+x]), float64(src.Pix[yp+xp])

				gx := (tr + 2*mr + br) - (tl + 2*ml + bl)
				gy := (bl + 2*bc + br) - (tl + 2*tc + tr)

				i := y*width + x
				magnitude[i] = float32(math.Sqrt(gx*gx + gy*gy))
				sector[i] = directionSector(gx, gy)
			}
		}
	})

	// Non-maximum suppression. Border pixels are never edges.
	suppressed := make([]float32, width*height)
	parallelRows(height, func(y0, y1 int) {
		for y := max(y0, 1); y < min(y1, height-1); y++ {
			for x := 1; x < width-1; x++ {
				i := y*width + x
				mag := magnitude[i]
				if mag == 0 {
					continue
				}

				var n1, n2 float32
				switch sector[i] {
				case 0: // horizontal gradient
					n1, n2 = magnitude[i-1], magnitude[i+1]
				case 1: // down-right diagonal (y grows downward)
					n1, n2 = magnitude[i-width-1], magnitude[i+width+1]
				case 2: // vertical gradient
					n1, n2 = magnitude[i-width], magnitude[i+width]
				default: // down-left diagonal
					n1, n2 = magnitude[i-width+1], magnitude[i+width-1]
				}

				if mag >= n1 && mag >= n2 {
					suppressed[i] = mag
				}
			}
		}
	})

	// Hysteresis, tracing weak pixels outward from every strong pixel.
	lowT, highT := float32(low), float32(high)
	stack := make([]int, 0, 1024)
	for i, v := range suppressed {
		if v < highT || mask.Pix[i] != 0 {
			continue
		}
		mask.Pix[i] = 255
		stack = append(stack, i)
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			px, py := p%width, p/width
			for dy := -1; dy <= 1; dy++ {
				ny := py + dy
				if ny < 0 || ny >= height {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					nx := px + dx
					if (dx == 0 && dy == 0) || nx < 0 || nx >= width {
						continue
					}
					n := ny*width + nx
					if mask.Pix[n] == 0 && suppressed[n] >= lowT && suppressed[n] > 0 {
						mask.Pix[n] = 255
						stack = append(stack, n)
					}
				}
			}
		}
	}

	return mask
}

// directionSector quantises a gradient direction into one of four sectors:
// 0 (0°), 1 (45°), 2 (90°) or 3 (135°).
func directionSector(gx, gy float64) uint8 {
	angle := math.Atan2(gy, gx)
	if angle < 0 {
		angle += math.Pi
	}
	switch {
	case angle < math.Pi/8 || angle >= 7*math.Pi/8:
		return 0
	case angle < 3*math.Pi/8:
		return 1
	case angle < 5*math.Pi/8:
		return 2
	default:
		return 3
	}
}

// CountNonZero returns the number of non-zero pixels in g.
func CountNonZero(g *image.Gray) int {
	n := 0
	w, h := g.Rect.Dx(), g.Rect.Dy()
	for y := 0; y < h; y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+w]
		for _, v := range row {
			if v != 0 {
				n++
			}
		}
	}
	return n
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
