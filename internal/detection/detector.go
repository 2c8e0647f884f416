package detection

import (
	"image"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/page-tools-mcp/internal/geometry"
	"github.com/ironsheep/page-tools-mcp/internal/imaging"
)

// Acceptance band for a candidate's area as a fraction of the image area.
// Below the band the quad is probably a label or a block of text; above it
// the quad is the image frame itself.
const (
	MinAreaFraction = 0.30
	MaxAreaFraction = 0.99
)

// Detection tiers, tried in order.
const (
	TierRecipes        = 1
	TierLargestContour = 2
	TierMargin         = 3
)

const (
	// DefaultMaxSide bounds the longest side of the working copy.
	DefaultMaxSide = 1024

	// minPerimeter is the smallest contour perimeter, in source pixels,
	// worth approximating.
	minPerimeter = 100.0

	// maxContours caps how many of the largest contours each recipe examines.
	maxContours = 20

	// Margin fallback: only for scans larger than this on both sides.
	marginMinSide     = 2000
	marginInset       = 0.05
	marginMinFraction = 0.80
)

var (
	approxTolerances         = []float64{0.01, 0.02, 0.03, 0.05}
	extremeCornerTolerance   = 0.10
	largestContourTolerances = []float64{0.01, 0.02, 0.05, 0.10, 0.15}
)

// Candidate is an accepted page boundary.
type Candidate struct {
	// Quad is ordered TL, TR, BR, BL in source image pixels.
	Quad geometry.Quad `json:"quad"`

	// Area is the enclosed area in source pixels.
	Area float64 `json:"area"`

	// AreaFraction is Area divided by the image area.
	AreaFraction float64 `json:"area_fraction"`

	// Tier is the detection tier that produced the candidate (1, 2 or 3).
	Tier int `json:"tier"`

	// Strategy names the recipe or fallback that produced the candidate.
	Strategy string `json:"strategy"`
}

// Detector locates the page quadrilateral in a photo. A Detector holds only
// configuration and is safe for concurrent use.
type Detector struct {
	maxSide  int
	parallel bool
	log      logrus.FieldLogger
}

// Option configures a Detector.
type Option func(*Detector)

// WithMaxSide sets the longest side of the working copy detection runs on.
// Zero or negative disables downscaling.
func WithMaxSide(n int) Option {
	return func(d *Detector) { d.maxSide = n }
}

// WithParallel toggles concurrent evaluation of the tier-one recipes. When
// the first recipe fails, the rest run on up to GOMAXPROCS goroutines and
// abandon their work once an earlier recipe succeeds. The result is the same
// either way; with a single CPU recipes always run in order.
func WithParallel(on bool) Option {
	return func(d *Detector) { d.parallel = on }
}

// WithLogger sets the logger for detection progress.
func WithLogger(l logrus.FieldLogger) Option {
	return func(d *Detector) {
		if l != nil {
			d.log = l
		}
	}
}

// NewDetector creates a Detector with default settings: 1024 px working
// copy, parallel recipes, standard logger.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		maxSide:  DefaultMaxSide,
		parallel: true,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.WithField("component", "detector")
	return d
}

// Detect finds the page boundary in img. It reports false when no tier
// produced an acceptable quad, which is an expected outcome for photos
// without a visible page.
//
//   - Tier 1 runs every recipe over a downscaled working copy and takes the
//     first recipe, in order, whose contours approximate to an acceptable quad.
//   - Tier 2 approximates the largest external Canny contour loosely and uses
//     its extreme corners. The same acceptance band applies, so a contour
//     hugging the image frame is still rejected.
//   - Tier 3 applies only to scans larger than 2000 px on both sides and
//     assumes the page fills the frame, returning a 5% inset rectangle.
func (d *Detector) Detect(img image.Image) (Candidate, bool) {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return Candidate{}, false
	}

	work := newWorkImage(imaging.Downscale(img, d.maxSide))
	sc := newScaler(srcW, srcH, work.width(), work.height())
	log := d.log.WithFields(logrus.Fields{
		"width":       srcW,
		"height":      srcH,
		"work_width":  work.width(),
		"work_height": work.height(),
	})

	if c, ok := d.detectRecipes(work, sc); ok {
		log.WithFields(candidateFields(c)).Debug("page boundary found")
		return c, true
	}
	if c, ok := detectLargestContour(work, sc); ok {
		log.WithFields(candidateFields(c)).Debug("page boundary found by largest contour")
		return c, true
	}
	if c, ok := detectMargin(srcW, srcH); ok {
		log.WithFields(candidateFields(c)).Debug("page boundary assumed from frame margin")
		return c, true
	}

	log.Debug("no page boundary found")
	return Candidate{}, false
}

// EdgeMask returns the binary mask a named recipe produces for img, at
// working-copy resolution.
func (d *Detector) EdgeMask(img image.Image, recipe string) (*image.Gray, error) {
	r, err := recipeByName(recipe)
	if err != nil {
		return nil, err
	}
	return r.edges(newWorkImage(imaging.Downscale(img, d.maxSide))), nil
}

func (d *Detector) detectRecipes(work *workImage, sc scaler) (Candidate, bool) {
	recipes := Recipes()
	workers := min(runtime.GOMAXPROCS(0), len(recipes)-1)

	if !d.parallel || workers < 2 {
		for _, r := range recipes {
			if c, ok := tryRecipe(r, work, sc, nil); ok {
				return c, true
			}
			d.log.WithField("strategy", r.Name).Debug("recipe found no page")
		}
		return Candidate{}, false
	}

	// The first recipe settles most clean photos; fan out only when it fails.
	if c, ok := tryRecipe(recipes[0], work, sc, nil); ok {
		return c, true
	}
	d.log.WithField("strategy", recipes[0].Name).Debug("recipe found no page")
	rest := recipes[1:]

	results := make([]Candidate, len(rest))
	accepted := make([]bool, len(rest))
	// Index of the earliest recipe known to have succeeded; later recipes
	// abandon their work once it drops below them.
	var best atomic.Int64
	best.Store(int64(len(rest)))
	var next atomic.Int64

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := next.Add(1) - 1
				if i >= int64(len(rest)) || i > best.Load() {
					return
				}
				stop := func() bool { return best.Load() < i }
				c, ok := tryRecipe(rest[i], work, sc, stop)
				if !ok {
					continue
				}
				results[i], accepted[i] = c, true
				for {
					cur := best.Load()
					if i >= cur || best.CompareAndSwap(cur, i) {
						break
					}
				}
			}
		}()
	}
	wg.Wait()

	for i := range rest {
		if accepted[i] {
			return results[i], true
		}
	}
	return Candidate{}, false
}

// tryRecipe runs one recipe and applies the two approximation passes to its
// largest contours. A non-nil stop is polled between stages; once it reports
// true the recipe gives up.
func tryRecipe(r Recipe, work *workImage, sc scaler, stop func() bool) (Candidate, bool) {
	stopped := func() bool { return stop != nil && stop() }
	if stopped() {
		return Candidate{}, false
	}

	edges := r.edges(work)
	if stopped() {
		return Candidate{}, false
	}
	contours := FindExternalContours(edges)
	if len(contours) > maxContours {
		contours = contours[:maxContours]
	}
	gate := minPerimeter * sc.perimeterScale()

	for _, c := range contours {
		if stopped() {
			return Candidate{}, false
		}
		if c.Perimeter < gate {
			continue
		}
		for _, tol := range approxTolerances {
			approx := geometry.ApproxPolyDP(c.Points, tol*c.Perimeter)
			if len(approx) != 4 {
				continue
			}
			q := geometry.OrderPoints([4]geometry.Point(approx))
			if cand, ok := sc.accept(q, TierRecipes, r.Name); ok {
				return cand, true
			}
		}
	}

	// Loose pass: settle for the extreme corners of a coarse polygon.
	for _, c := range contours {
		if stopped() {
			return Candidate{}, false
		}
		if c.Perimeter < gate {
			continue
		}
		approx := geometry.ApproxPolyDP(c.Points, extremeCornerTolerance*c.Perimeter)
		if len(approx) < 4 {
			continue
		}
		q, _ := geometry.ExtremeCorners(approx)
		if cand, ok := sc.accept(q, TierRecipes, r.Name+"/extreme-corners"); ok {
			return cand, true
		}
	}
	return Candidate{}, false
}

func detectLargestContour(work *workImage, sc scaler) (Candidate, bool) {
	contours := FindExternalContours(imaging.Canny(work.blurred(5), 50, 150))
	if len(contours) == 0 {
		return Candidate{}, false
	}
	largest := contours[0]

	for _, tol := range largestContourTolerances {
		approx := geometry.ApproxPolyDP(largest.Points, tol*largest.Perimeter)
		if len(approx) < 4 {
			continue
		}
		q, _ := geometry.ExtremeCorners(approx)
		if cand, ok := sc.accept(q, TierLargestContour, "largest-contour"); ok {
			return cand, true
		}
	}
	return Candidate{}, false
}

func detectMargin(w, h int) (Candidate, bool) {
	if w <= marginMinSide || h <= marginMinSide {
		return Candidate{}, false
	}
	inset := marginInset * float64(min(w, h))
	fw, fh := float64(w), float64(h)
	q := geometry.Quad{
		{X: inset, Y: inset},
		{X: fw - inset, Y: inset},
		{X: fw - inset, Y: fh - inset},
		{X: inset, Y: fh - inset},
	}
	area := q.Area()
	fraction := area / (fw * fh)
	if fraction <= marginMinFraction {
		return Candidate{}, false
	}
	return Candidate{
		Quad:         q,
		Area:         area,
		AreaFraction: fraction,
		Tier:         TierMargin,
		Strategy:     "frame-margin",
	}, true
}

// AcceptableFraction reports whether an area fraction lies in the tier-one
// acceptance band.
func AcceptableFraction(f float64) bool {
	return f >= MinAreaFraction && f <= MaxAreaFraction
}

// scaler maps working-copy coordinates back to the source image.
type scaler struct {
	srcW, srcH int
	sx, sy     float64
}

func newScaler(srcW, srcH, workW, workH int) scaler {
	return scaler{
		srcW: srcW,
		srcH: srcH,
		sx:   float64(srcW) / float64(workW),
		sy:   float64(srcH) / float64(workH),
	}
}

func (s scaler) srcArea() float64 { return float64(s.srcW) * float64(s.srcH) }

// perimeterScale converts a source-pixel length into working pixels.
func (s scaler) perimeterScale() float64 {
	return 1 / math.Max(s.sx, s.sy)
}

// toSource maps pixel centres of the working copy onto pixel centres of the
// source image.
func (s scaler) toSource(q geometry.Quad) geometry.Quad {
	if s.sx == 1 && s.sy == 1 {
		return q
	}
	var out geometry.Quad
	for i, p := range q {
		out[i] = geometry.Point{
			X: (p.X+0.5)*s.sx - 0.5,
			Y: (p.Y+0.5)*s.sy - 0.5,
		}
	}
	return out
}

// accept scales a working-copy quad to the source and applies the
// acceptance band.
func (s scaler) accept(q geometry.Quad, tier int, strategy string) (Candidate, bool) {
	q = s.toSource(q)
	if q.Degenerate() {
		return Candidate{}, false
	}
	area := q.Area()
	fraction := area / s.srcArea()
	if !AcceptableFraction(fraction) {
		return Candidate{}, false
	}
	return Candidate{
		Quad:         q,
		Area:         area,
		AreaFraction: fraction,
		Tier:         tier,
		Strategy:     strategy,
	}, true
}

func candidateFields(c Candidate) logrus.Fields {
	return logrus.Fields{
		"tier":          c.Tier,
		"strategy":      c.Strategy,
		"area_fraction": math.Round(c.AreaFraction*1000) / 1000,
	}
}
