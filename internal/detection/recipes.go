package detection

import (
	"fmt"
	"image"
	"sync"

	"github.com/ironsheep/page-tools-mcp/internal/imaging"
)

// closeRadius is the structuring radius for morphological closing, roughly
// a 5x5 kernel.
const closeRadius = 2

// Recipe is one edge-extraction strategy tried in the first detection tier.
// Recipes run from conservative to aggressive: the early ones only fire on
// clean, high-contrast outlines, the later ones trade noise for recall.
type Recipe struct {
	Name  string
	edges func(w *workImage) *image.Gray
}

// Recipes returns the tier-one recipes in evaluation order.
func Recipes() []Recipe {
	return []Recipe{
		{Name: "canny-gentle", edges: func(w *workImage) *image.Gray {
			return imaging.Canny(w.blurred(5), 75, 200)
		}},
		{Name: "canny-standard", edges: func(w *workImage) *image.Gray {
			return imaging.Canny(w.blurred(5), 50, 150)
		}},
		{Name: "canny-closed", edges: func(w *workImage) *image.Gray {
			return imaging.Close(imaging.Canny(w.blurred(7), 30, 100), closeRadius)
		}},
		{Name: "lightness-canny", edges: func(w *workImage) *image.Gray {
			l := imaging.GaussianBlur(imaging.Lightness(w.rgb), 5)
			return imaging.Close(imaging.Canny(l, 40, 120), closeRadius)
		}},
		{Name: "adaptive-threshold", edges: func(w *workImage) *image.Gray {
			return imaging.Close(imaging.AdaptiveThreshold(w.blurred(5), 11, 2, true), closeRadius)
		}},
		{Name: "sobel-gradient", edges: func(w *workImage) *image.Gray {
			return imaging.Close(imaging.OtsuThreshold(imaging.SobelMagnitude(w.blurred(3))), closeRadius)
		}},
		{Name: "canny-aggressive", edges: func(w *workImage) *image.Gray {
			return imaging.Dilate(imaging.Canny(w.blurred(3), 10, 50), 1)
		}},
	}
}

// RecipeNames lists the tier-one recipe names in evaluation order.
func RecipeNames() []string {
	recipes := Recipes()
	names := make([]string, len(recipes))
	for i, r := range recipes {
		names[i] = r.Name
	}
	return names
}

func recipeByName(name string) (Recipe, error) {
	for _, r := range Recipes() {
		if r.Name == name {
			return r, nil
		}
	}
	return Recipe{}, fmt.Errorf("unknown recipe %q", name)
}

// workImage is the downscaled copy detection runs on. Blurred luminance
// planes are shared between recipes running concurrently.
type workImage struct {
	rgb  image.Image
	gray *image.Gray

	mu   sync.Mutex
	blur map[int]*blurPlane
}

// blurPlane is computed once per kernel size, outside workImage.mu.
type blurPlane struct {
	once sync.Once
	g    *image.Gray
}

func newWorkImage(img image.Image) *workImage {
	return &workImage{
		rgb:  img,
		gray: imaging.Luminance(img),
		blur: make(map[int]*blurPlane),
	}
}

func (w *workImage) width() int  { return w.gray.Rect.Dx() }
func (w *workImage) height() int { return w.gray.Rect.Dy() }

func (w *workImage) blurred(ksize int) *image.Gray {
	w.mu.Lock()
	p, ok := w.blur[ksize]
	if !ok {
		p = &blurPlane{}
		w.blur[ksize] = p
	}
	w.mu.Unlock()

	p.once.Do(func() { p.g = imaging.GaussianBlur(w.gray, ksize) })
	return p.g
}
