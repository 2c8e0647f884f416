// Package ocr extracts text from normalized page images with Tesseract.
//
// The Tesseract engine is linked through gosseract and needs the tesseract
// and leptonica development libraries at build time, so it is only compiled
// with the "tesseract" build tag:
//
//	go build -tags tesseract ./...
//
// Without the tag, Recognize returns ErrUnavailable and Info reports the
// engine as missing. Everything else in the module builds and runs without
// a C toolchain.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install libtesseract-dev tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Language codes follow Tesseract ("eng", "deu", "fra", "chi_sim", ...);
// several can be combined with "+", as in "eng+deu".
//
// # Preprocessing
//
// Prepare converts a page to grayscale, raises contrast and upscales small
// pages so body text reaches the glyph size Tesseract is trained on.
// Recognize applies it before handing the page over.
package ocr
