package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
)

// SobelMagnitude returns the Sobel gradient magnitude of g, saturated to
// 0-255. Unlike Canny it keeps full-width ridges, which suits a global
// threshold afterwards.
//
// bild clamps negative filter responses to zero, so only dark-to-light
// transitions survive a single pass. The inverted image is filtered too and
// the two results are merged, giving edges of either polarity.
func SobelMagnitude(g *image.Gray) *image.Gray {
	forward := toGray(effect.Sobel(g))
	reverse := toGray(effect.Sobel(effect.Invert(g)))
	for i, v := range reverse.Pix {
		if v > forward.Pix[i] {
			forward.Pix[i] = v
		}
	}
	return forward
}
