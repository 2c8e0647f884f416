package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
)

// Dilate grows the foreground of a mask by radius pixels.
func Dilate(mask *image.Gray, radius float64) *image.Gray {
	if radius <= 0 {
		return cloneGray(mask)
	}
	return toGray(effect.Dilate(mask, radius))
}

// Erode shrinks the foreground of a mask by radius pixels.
func Erode(mask *image.Gray, radius float64) *image.Gray {
	if radius <= 0 {
		return cloneGray(mask)
	}
	return toGray(effect.Erode(mask, radius))
}

// Close fills gaps narrower than about 2*radius pixels in a mask by
// dilating and then eroding it. Broken page outlines from edge detection
// become closed loops that contour tracing can follow.
func Close(mask *image.Gray, radius float64) *image.Gray {
	return Erode(Dilate(mask, radius), radius)
}
