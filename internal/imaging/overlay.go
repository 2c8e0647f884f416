package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"

	"github.com/ironsheep/page-tools-mcp/internal/geometry"
)

// OverlayResult contains a preview image with a detected page outline drawn on it.
type OverlayResult struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Scale       float64 `json:"scale"`
	ImageBase64 string  `json:"image_base64"`
	MimeType    string  `json:"mime_type"`
}

// QuadOverlay draws the outline of q onto a copy of img, labels each corner
// with its source coordinates, and returns the result as base64 PNG.
//
// When maxSide is positive the preview is shrunk so its longest side is at
// most maxSide; Scale reports preview pixels per source pixel.
func QuadOverlay(img image.Image, q geometry.Quad, lineColorHex string, maxSide int) (*OverlayResult, error) {
	lineColor, err := parseHexColor(lineColorHex)
	if err != nil {
		lineColor = color.RGBA{0, 255, 0, 255}
	}

	src := img.Bounds()
	preview := Downscale(img, maxSide)
	bounds := preview.Bounds()
	sx := float64(bounds.Dx()) / float64(src.Dx())
	sy := float64(bounds.Dy()) / float64(src.Dy())

	result := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(result, result.Bounds(), preview, bounds.Min, draw.Src)

	scaled := q.Scale(sx, sy)
	thickness := max(1, int(math.Round(float64(max(bounds.Dx(), bounds.Dy()))/300)))
	for i := range scaled {
		drawLine(result, scaled[i], scaled[(i+1)%4], thickness, lineColor)
	}

	labelColor := color.RGBA{255, 255, 255, 255}
	bgColor := color.RGBA{0, 0, 0, 180}
	for i, p := range scaled {
		label := fmt.Sprintf("%d,%d", int(math.Round(q[i].X)), int(math.Round(q[i].Y)))
		x := clamp(int(p.X)+3, 0, max(0, bounds.Dx()-len(label)*4))
		y := clamp(int(p.Y)+3, 0, max(0, bounds.Dy()-7))
		drawLabel(result, x, y, label, labelColor, bgColor)
	}

	encoded, err := EncodePNGBase64(result)
	if err != nil {
		return nil, err
	}

	return &OverlayResult{
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		Scale:       sx,
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// drawLine rasterises a segment by stepping one pixel at a time along its
// longer axis and stamping a square brush.
func drawLine(img *image.RGBA, a, b geometry.Point, thickness int, c color.RGBA) {
	steps := int(math.Ceil(math.Max(math.Abs(b.X-a.X), math.Abs(b.Y-a.Y))))
	if steps == 0 {
		steps = 1
	}
	half := thickness / 2
	bounds := img.Bounds()
	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		cx := int(math.Round(a.X + t*(b.X-a.X)))
		cy := int(math.Round(a.Y + t*(b.Y-a.Y)))
		for dy := -half; dy <= half; dy++ {
			for dx := -half; dx <= half; dx++ {
				p := image.Pt(cx+dx, cy+dy)
				if p.In(bounds) {
					img.SetRGBA(p.X, p.Y, c)
				}
			}
		}
	}
}

// parseHexColor parses a hex color string like "#FF0000" or "#FF000080"
func parseHexColor(hex string) (color.RGBA, error) {
	if len(hex) == 0 {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color length")
	}

	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}

// drawLabel draws a coordinate label using a 3x5 pixel font for digits and comma.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
		',': {"000", "000", "000", "010", "010"},
		'-': {"000", "000", "111", "000", "000"},
	}

	bounds := img.Bounds()
	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			p := image.Pt(x+dx, y+dy)
			if p.In(bounds) {
				img.Set(p.X, p.Y, bg)
			}
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel != '1' {
					continue
				}
				p := image.Pt(cx+col, y+row)
				if p.In(bounds) {
					img.Set(p.X, p.Y, fg)
				}
			}
		}
		cx += charWidth
	}
}
