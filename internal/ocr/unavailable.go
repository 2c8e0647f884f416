//go:build !tesseract

package ocr

import "image"

// Recognize always fails with ErrUnavailable; build with -tags tesseract
// to link the engine.
func Recognize(img image.Image, lang string) (*Result, error) {
	return nil, ErrUnavailable
}

// GetInfo reports that no engine is linked.
func GetInfo() Info {
	return Info{Backend: "none", Error: ErrUnavailable.Error()}
}
