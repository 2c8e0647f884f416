package imaging

import (
	"fmt"
	"image"
	"sort"

	"github.com/disintegration/imaging"
)

// Region is a rectangle in image pixels. (X1, Y1) is inclusive and
// (X2, Y2) exclusive.
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Rect converts r to an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// namedRegions maps region names to fractions of the page: x1, y1, x2, y2.
var namedRegions = map[string][4]float64{
	"full":         {0, 0, 1, 1},
	"top-half":     {0, 0, 1, 0.5},
	"bottom-half":  {0, 0.5, 1, 1},
	"left-half":    {0, 0, 0.5, 1},
	"right-half":   {0.5, 0, 1, 1},
	"top-third":    {0, 0, 1, 1.0 / 3},
	"bottom-third": {0, 2.0 / 3, 1, 1},
	"center":       {0.25, 0.25, 0.75, 0.75},
}

// RegionNames lists the names NamedRegion accepts, sorted.
func RegionNames() []string {
	names := make([]string, 0, len(namedRegions))
	for name := range namedRegions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NamedRegion returns the named part of a w x h page. Barcodes on back
// covers usually sit in the bottom third; titles in the top half.
func NamedRegion(name string, w, h int) (Region, error) {
	f, ok := namedRegions[name]
	if !ok {
		return Region{}, fmt.Errorf("unknown region: %s", name)
	}
	return Region{
		X1: int(f[0] * float64(w)),
		Y1: int(f[1] * float64(h)),
		X2: int(f[2] * float64(w)),
		Y2: int(f[3] * float64(h)),
	}, nil
}

// CropRegion copies region r out of img. The region must lie inside the
// image and be non-empty.
func CropRegion(img image.Image, r Region) (*image.NRGBA, error) {
	b := img.Bounds()
	if r.X1 < b.Min.X || r.Y1 < b.Min.Y || r.X2 > b.Max.X || r.Y2 > b.Max.Y {
		return nil, fmt.Errorf("region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			r.X1, r.Y1, r.X2, r.Y2, b.Min.X, b.Min.Y, b.Max.X, b.Max.Y)
	}
	if r.X1 >= r.X2 || r.Y1 >= r.Y2 {
		return nil, fmt.Errorf("invalid region: x1 must be < x2, y1 must be < y2")
	}
	return imaging.Crop(img, r.Rect()), nil
}

// CropNamed crops a named region of img.
func CropNamed(img image.Image, name string) (*image.NRGBA, Region, error) {
	b := img.Bounds()
	r, err := NamedRegion(name, b.Dx(), b.Dy())
	if err != nil {
		return nil, Region{}, err
	}
	r = Region{X1: r.X1 + b.Min.X, Y1: r.Y1 + b.Min.Y, X2: r.X2 + b.Min.X, Y2: r.Y2 + b.Min.Y}
	out, err := CropRegion(img, r)
	if err != nil {
		return nil, Region{}, err
	}
	return out, r, nil
}
