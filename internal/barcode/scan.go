package barcode

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
)

// ErrNotFound is returned when no ISBN barcode can be decoded.
var ErrNotFound = errors.New("no ISBN barcode found")

// Result is a decoded ISBN barcode.
type Result struct {
	ISBN13 string `json:"isbn13"`
	ISBN10 string `json:"isbn10,omitempty"`
}

// ScanISBN decodes an EAN-13 ISBN barcode from img.
//
// The reader runs in try-harder mode, which also scans the image turned a
// quarter turn, so barcodes printed along the spine edge are found. A
// sharpened grayscale copy is tried when the photo itself does not decode.
func ScanISBN(img image.Image) (*Result, error) {
	attempts := []func() image.Image{
		func() image.Image { return img },
		func() image.Image { return imaging.Sharpen(imaging.Grayscale(img), 1.0) },
	}

	var lastErr error
	for _, prepare := range attempts {
		text, err := decodeEAN13(prepare())
		if err != nil {
			lastErr = err
			continue
		}
		if !ValidISBN13(text) {
			lastErr = fmt.Errorf("barcode %s is not an ISBN", text)
			continue
		}
		res := &Result{ISBN13: text}
		res.ISBN10, _ = ToISBN10(text)
		return res, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrNotFound, lastErr)
}

func decodeEAN13(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("failed to create bitmap: %w", err)
	}
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	result, err := oned.NewEAN13Reader().Decode(bmp, hints)
	if err != nil {
		return "", err
	}
	return result.GetText(), nil
}
