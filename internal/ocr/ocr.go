package ocr

import (
	"errors"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

// DefaultLanguage is used when no language is given.
const DefaultLanguage = "eng"

// minShortSide is the short side pages are upscaled to before recognition.
const minShortSide = 1200

// ErrUnavailable is returned when the binary was built without Tesseract.
var ErrUnavailable = errors.New("ocr engine not available in this build")

// Bounds is a rectangle in page pixels.
type Bounds struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Word is one recognized word.
type Word struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // 0-1
	Bounds     Bounds  `json:"bounds"`
}

// Result is the text of a page.
type Result struct {
	Text     string `json:"text"`
	Words    []Word `json:"words"`
	Language string `json:"language"`
}

// Info describes the OCR engine compiled into the binary.
type Info struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Backend   string `json:"backend"`
	Error     string `json:"error,omitempty"`
}

// Prepare returns a grayscale, contrast-stretched copy of img whose short
// side is at least minShortSide pixels, along with the scale applied.
func Prepare(img image.Image) (*image.NRGBA, float64) {
	b := img.Bounds()
	short := min(b.Dx(), b.Dy())

	out := imaging.Grayscale(img)
	out = imaging.AdjustContrast(out, 20)

	scale := 1.0
	if short > 0 && short < minShortSide {
		scale = float64(minShortSide) / float64(short)
		out = imaging.Resize(out, int(float64(b.Dx())*scale+0.5), int(float64(b.Dy())*scale+0.5), imaging.Lanczos)
	}
	return out, scale
}

// language returns lang, or the default when lang is blank.
func language(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return DefaultLanguage
	}
	return lang
}

// unscale maps bounds found on a prepared page back to the source page.
func unscale(b Bounds, scale float64) Bounds {
	if scale == 1 {
		return b
	}
	return Bounds{
		X1: int(float64(b.X1) / scale),
		Y1: int(float64(b.Y1) / scale),
		X2: int(float64(b.X2)/scale + 0.5),
		Y2: int(float64(b.Y2)/scale + 0.5),
	}
}
