package normalizer

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/page-tools-mcp/internal/detection"
	"github.com/ironsheep/page-tools-mcp/internal/geometry"
	"github.com/ironsheep/page-tools-mcp/internal/imaging"
)

// Normalizer detects, rectifies and saves pages. It is safe for concurrent
// use; the batch adapter shares one across its workers.
type Normalizer struct {
	detector *detection.Detector
	quality  int
	log      logrus.FieldLogger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithDetector replaces the default boundary detector.
func WithDetector(d *detection.Detector) Option {
	return func(n *Normalizer) {
		if d != nil {
			n.detector = d
		}
	}
}

// WithJPEGQuality sets the output JPEG quality (1-100).
func WithJPEGQuality(q int) Option {
	return func(n *Normalizer) { n.quality = q }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.log = l
		}
	}
}

// New returns a Normalizer writing quality-90 JPEGs.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		quality: imaging.DefaultJPEGQuality,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.detector == nil {
		n.detector = detection.NewDetector(detection.WithLogger(n.log))
	}
	n.log = n.log.WithField("component", "normalizer")
	return n
}

// Page is a rectified page held in memory.
type Page struct {
	Image     *image.NRGBA
	Candidate detection.Candidate
	Quad      geometry.Quad
}

// Width returns the rectified page width.
func (p *Page) Width() int { return p.Image.Rect.Dx() }

// Height returns the rectified page height.
func (p *Page) Height() int { return p.Image.Rect.Dy() }

// Result describes a normalized page written to disk.
type Result struct {
	Path         string        `json:"path"`
	Width        int           `json:"width"`
	Height       int           `json:"height"`
	Quad         geometry.Quad `json:"quad"`
	Tier         int           `json:"tier"`
	Strategy     string        `json:"strategy"`
	AreaFraction float64       `json:"area_fraction"`
}

// Detector returns the detector in use.
func (n *Normalizer) Detector() *detection.Detector {
	return n.detector
}

// NormalizeImage finds the page in img and warps it upright.
func (n *Normalizer) NormalizeImage(img image.Image) (*Page, error) {
	b := img.Bounds()
	cand, ok := n.detector.Detect(img)
	if !ok {
		return nil, &BoundaryNotFoundError{Width: b.Dx(), Height: b.Dy()}
	}

	quad := geometry.OrderPoints([4]geometry.Point(cand.Quad))
	out, err := geometry.Rectify(img, quad)
	if err != nil {
		// Detection never accepts a degenerate quad, so this is unexpected.
		return nil, fmt.Errorf("failed to rectify page: %w", err)
	}
	return &Page{Image: out, Candidate: cand, Quad: quad}, nil
}

// Normalize decodes an image stream and normalizes it.
func (n *Normalizer) Normalize(r io.Reader) (*Page, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, &LoadError{Err: err}
	}
	return n.NormalizeImage(img)
}

// WriteJPEG encodes a page to w at the configured quality.
func (n *Normalizer) WriteJPEG(w io.Writer, p *Page) error {
	return imaging.EncodeJPEG(w, p.Image, n.quality)
}

// Process normalizes the image at inputPath and writes it to outputPath as a
// JPEG, creating parent directories as needed. Exactly one file is written
// on success; nothing is written on failure.
func (n *Normalizer) Process(inputPath, outputPath string) (*Result, error) {
	log := n.log.WithField("path", inputPath)

	img, err := load(inputPath)
	if err != nil {
		log.WithError(err).Debug("input rejected")
		return nil, err
	}

	page, err := n.NormalizeImage(img)
	if err != nil {
		var notFound *BoundaryNotFoundError
		if errors.As(err, &notFound) {
			notFound.Path = inputPath
		}
		log.WithError(err).Info("page not normalized")
		return nil, err
	}

	if err := imaging.SaveJPEG(outputPath, page.Image, n.quality); err != nil {
		log.WithError(err).Warn("failed to save normalized page")
		return nil, &IOError{Path: outputPath, Err: err}
	}

	res := &Result{
		Path:         outputPath,
		Width:        page.Width(),
		Height:       page.Height(),
		Quad:         page.Quad,
		Tier:         page.Candidate.Tier,
		Strategy:     page.Candidate.Strategy,
		AreaFraction: page.Candidate.AreaFraction,
	}
	log.WithFields(logrus.Fields{
		"output":   outputPath,
		"width":    res.Width,
		"height":   res.Height,
		"tier":     res.Tier,
		"strategy": res.Strategy,
	}).Info("page normalized")
	return res, nil
}

// load opens an input file, distinguishing a missing or empty file from
// one that does not decode.
func load(path string) (image.Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &LoadError{Path: path, Err: errors.New("is a directory")}
	}
	if info.Size() == 0 {
		return nil, &LoadError{Path: path, Err: imaging.ErrEmptyImage}
	}

	img, err := imaging.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return img, nil
}
