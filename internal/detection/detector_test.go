package detection

import (
	"image"
	"image/color"
	"io"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/page-tools-mcp/internal/geometry"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

// pageOnBackground paints a convex quad q in fg over a bg canvas.
func pageOnBackground(w, h int, bg, fg color.NRGBA, q geometry.Quad) *image.NRGBA {
	return polygonOnBackground(w, h, bg, fg, q[:])
}

// polygonOnBackground paints a convex polygon, wound clockwise on screen.
func polygonOnBackground(w, h int, bg, fg color.NRGBA, poly []geometry.Point) *image.NRGBA {
	img := solidImage(w, h, bg)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if insideConvex(poly, float64(x), float64(y)) {
				i := img.PixOffset(x, y)
				img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = fg.R, fg.G, fg.B, fg.A
			}
		}
	}
	return img
}

func insideConvex(poly []geometry.Point, x, y float64) bool {
	for i := range poly {
		a, b := poly[i], poly[(i+1)%len(poly)]
		if (b.X-a.X)*(y-a.Y)-(b.Y-a.Y)*(x-a.X) < 0 {
			return false
		}
	}
	return true
}

var (
	gray  = color.NRGBA{128, 128, 128, 255}
	white = color.NRGBA{255, 255, 255, 255}
	dark  = color.NRGBA{40, 35, 30, 255}
	paper = color.NRGBA{235, 230, 220, 255}
)

func TestDetect_SolidSmallImage(t *testing.T) {
	d := NewDetector(WithLogger(quietLogger()))
	if c, ok := d.Detect(solidImage(50, 50, color.NRGBA{200, 60, 60, 255})); ok {
		t.Errorf("expected no boundary, got %+v", c)
	}
}

func TestDetect_UniformMidSizeImage(t *testing.T) {
	// Too small for the frame-margin fallback.
	d := NewDetector(WithLogger(quietLogger()))
	if c, ok := d.Detect(solidImage(1200, 1600, white)); ok {
		t.Errorf("expected no boundary, got %+v", c)
	}
}

func TestDetect_SkewedPage(t *testing.T) {
	truth := geometry.Quad{{X: 80, Y: 60}, {X: 520, Y: 100}, {X: 560, Y: 740}, {X: 50, Y: 700}}
	img := pageOnBackground(600, 800, dark, paper, truth)

	d := NewDetector(WithLogger(quietLogger()))
	c, ok := d.Detect(img)
	if !ok {
		t.Fatal("expected a boundary")
	}
	if c.Tier != TierRecipes {
		t.Errorf("Tier: got %d, want %d", c.Tier, TierRecipes)
	}
	for i := range truth {
		if dist := c.Quad[i].Dist(truth[i]); dist > 6 {
			t.Errorf("corner %d: got %v, want near %v (off by %.1f)", i, c.Quad[i], truth[i], dist)
		}
	}
	if !AcceptableFraction(c.AreaFraction) {
		t.Errorf("area fraction %v outside acceptance band", c.AreaFraction)
	}
}

func TestDetect_ParallelMatchesSequential(t *testing.T) {
	truth := geometry.Quad{{X: 100, Y: 40}, {X: 460, Y: 70}, {X: 430, Y: 560}, {X: 70, Y: 520}}
	img := pageOnBackground(540, 620, dark, paper, truth)

	seq, okSeq := NewDetector(WithParallel(false), WithLogger(quietLogger())).Detect(img)
	par, okPar := NewDetector(WithParallel(true), WithLogger(quietLogger())).Detect(img)
	if okSeq != okPar {
		t.Fatalf("found: sequential %v, parallel %v", okSeq, okPar)
	}
	if seq != par {
		t.Errorf("sequential %+v != parallel %+v", seq, par)
	}
}

func TestDetect_ParallelCleanPageCost(t *testing.T) {
	truth := geometry.Quad{{X: 150, Y: 200}, {X: 1050, Y: 200}, {X: 1050, Y: 1400}, {X: 150, Y: 1400}}
	img := pageOnBackground(1200, 1600, gray, white, truth)

	start := time.Now()
	seq, okSeq := NewDetector(WithParallel(false), WithLogger(quietLogger())).Detect(img)
	seqTime := time.Since(start)

	start = time.Now()
	par, okPar := NewDetector(WithParallel(true), WithLogger(quietLogger())).Detect(img)
	parTime := time.Since(start)

	if !okSeq || !okPar {
		t.Fatalf("found: sequential %v, parallel %v", okSeq, okPar)
	}
	if seq != par {
		t.Errorf("sequential %+v != parallel %+v", seq, par)
	}
	if seq.Tier != TierRecipes {
		t.Errorf("Tier: got %d, want %d", seq.Tier, TierRecipes)
	}
	// A page the first recipe finds must not pay for the later recipes.
	if limit := 3*seqTime + 500*time.Millisecond; parTime > limit {
		t.Errorf("parallel took %v, sequential %v", parTime, seqTime)
	}
}

func TestTryRecipe_Stop(t *testing.T) {
	truth := geometry.Quad{{X: 60, Y: 50}, {X: 340, Y: 50}, {X: 340, Y: 450}, {X: 60, Y: 450}}
	work := newWorkImage(pageOnBackground(400, 500, dark, paper, truth))
	sc := newScaler(400, 500, work.width(), work.height())
	first := Recipes()[0]

	if _, ok := tryRecipe(first, work, sc, nil); !ok {
		t.Fatal("expected the first recipe to find the page")
	}
	if c, ok := tryRecipe(first, work, sc, func() bool { return true }); ok {
		t.Errorf("stopped recipe returned %+v", c)
	}

	calls := 0
	stopAfterEdges := func() bool {
		calls++
		return calls > 1
	}
	if _, ok := tryRecipe(first, work, sc, stopAfterEdges); ok {
		t.Error("recipe stopped after its edge pass still returned a candidate")
	}
}

func TestWorkImage_BlurredShared(t *testing.T) {
	work := newWorkImage(solidImage(200, 300, gray))

	const n = 8
	planes := make([]*image.Gray, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			planes[i] = work.blurred(5)
		}()
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if planes[i] != planes[0] {
			t.Fatalf("call %d got a different blur plane", i)
		}
	}
	if work.blurred(3) == planes[0] {
		t.Error("kernel sizes share a plane")
	}
}

func TestDetect_PageRunningOffEdge(t *testing.T) {
	if testing.Short() {
		t.Skip("runs every recipe")
	}

	// The bottom of the page leaves the frame, so no recipe closes a quad.
	truth := geometry.Quad{{X: 200, Y: 200}, {X: 1000, Y: 220}, {X: 1010, Y: 1600}, {X: 190, Y: 1600}}
	img := pageOnBackground(1200, 1600, dark, paper, truth)

	c, ok := NewDetector(WithLogger(quietLogger())).Detect(img)
	if !ok {
		t.Fatal("expected the largest-contour fallback")
	}
	if c.Tier != TierLargestContour || c.Strategy != "largest-contour" {
		t.Errorf("got tier %d strategy %q, want tier %d largest-contour", c.Tier, c.Strategy, TierLargestContour)
	}
	if !AcceptableFraction(c.AreaFraction) {
		t.Errorf("area fraction %v outside acceptance band", c.AreaFraction)
	}
	if c.AreaFraction < 0.5 || c.AreaFraction > 0.7 {
		t.Errorf("AreaFraction: got %v, want about 0.58", c.AreaFraction)
	}
}

func TestDetect_FiveSidedOutline(t *testing.T) {
	// A regular pentagon never approximates to four vertices, so only the
	// loose pass can answer. Its extreme corners drop the apex.
	const r = 280.0
	cx, cy := 300.0, 320.0
	poly := make([]geometry.Point, 5)
	for k := range poly {
		a := -math.Pi/2 + float64(k)*2*math.Pi/5
		poly[k] = geometry.Pt(cx+r*math.Cos(a), cy+r*math.Sin(a))
	}
	img := polygonOnBackground(600, 600, dark, paper, poly)

	c, ok := NewDetector(WithLogger(quietLogger())).Detect(img)
	if !ok {
		t.Fatal("expected a boundary")
	}
	if c.Tier != TierRecipes {
		t.Errorf("Tier: got %d, want %d", c.Tier, TierRecipes)
	}
	if !strings.HasSuffix(c.Strategy, "/extreme-corners") {
		t.Errorf("Strategy: got %q, want an /extreme-corners suffix", c.Strategy)
	}
	want := geometry.Quad{poly[4], poly[1], poly[2], poly[3]}
	for i := range want {
		if dist := c.Quad[i].Dist(want[i]); dist > 8 {
			t.Errorf("corner %d: got %v, want near %v", i, c.Quad[i], want[i])
		}
	}
	if c.AreaFraction < 0.33 || c.AreaFraction > 0.42 {
		t.Errorf("AreaFraction: got %v, want about 0.375", c.AreaFraction)
	}
}

func TestDetect_DownscaledMatchesFullResolution(t *testing.T) {
	truth := geometry.Quad{{X: 150, Y: 120}, {X: 1050, Y: 160}, {X: 1100, Y: 1450}, {X: 90, Y: 1400}}
	img := pageOnBackground(1200, 1600, dark, paper, truth)

	c, ok := NewDetector(WithMaxSide(512), WithLogger(quietLogger())).Detect(img)
	if !ok {
		t.Fatal("expected a boundary")
	}
	// One working pixel is about 3 source pixels here.
	for i := range truth {
		if dist := c.Quad[i].Dist(truth[i]); dist > 12 {
			t.Errorf("corner %d: got %v, want near %v", i, c.Quad[i], truth[i])
		}
	}
}

func TestDetect_SmallPageRejected(t *testing.T) {
	// 10% of the frame is below the acceptance band; the image is too small
	// for the frame-margin fallback.
	truth := geometry.Quad{{X: 200, Y: 200}, {X: 389, Y: 200}, {X: 389, Y: 453}, {X: 200, Y: 453}}
	img := pageOnBackground(600, 800, dark, paper, truth)

	if c, ok := NewDetector(WithLogger(quietLogger())).Detect(img); ok {
		t.Errorf("expected no boundary, got %+v", c)
	}
}

func TestDetect_AcceptanceBound(t *testing.T) {
	quads := []geometry.Quad{
		{{X: 100, Y: 40}, {X: 460, Y: 70}, {X: 430, Y: 560}, {X: 70, Y: 520}},
		{{X: 20, Y: 20}, {X: 519, Y: 20}, {X: 519, Y: 599}, {X: 20, Y: 599}},
		{{X: 150, Y: 150}, {X: 400, Y: 180}, {X: 380, Y: 450}, {X: 160, Y: 430}},
		{{X: 5, Y: 5}, {X: 534, Y: 5}, {X: 534, Y: 614}, {X: 5, Y: 614}},
	}
	d := NewDetector(WithLogger(quietLogger()))
	for i, q := range quads {
		img := pageOnBackground(540, 620, dark, paper, q)
		c, ok := d.Detect(img)
		if !ok {
			continue
		}
		if c.Tier < TierMargin && !AcceptableFraction(c.AreaFraction) {
			t.Errorf("quad %d: tier %d candidate with fraction %v", i, c.Tier, c.AreaFraction)
		}
	}
}

func TestDetect_WhiteRectangleOnGray(t *testing.T) {
	if testing.Short() {
		t.Skip("full-resolution scenario")
	}

	const w, h = 2000, 3000
	side := math.Sqrt(0.6)
	rw, rh := int(float64(w)*side), int(float64(h)*side)
	x0, y0 := (w-rw)/2, (h-rh)/2
	img := solidImage(w, h, gray)
	for y := y0; y < y0+rh; y++ {
		for x := x0; x < x0+rw; x++ {
			i := img.PixOffset(x, y)
			img.Pix[i], img.Pix[i+1], img.Pix[i+2] = 255, 255, 255
		}
	}

	c, ok := NewDetector(WithLogger(quietLogger())).Detect(img)
	if !ok {
		t.Fatal("expected a boundary")
	}
	if c.AreaFraction < 0.55 || c.AreaFraction > 0.65 {
		t.Errorf("AreaFraction: got %v, want in [0.55, 0.65]", c.AreaFraction)
	}
}

func TestDetect_AllWhiteLargeScan(t *testing.T) {
	if testing.Short() {
		t.Skip("full-resolution scenario")
	}

	c, ok := NewDetector(WithLogger(quietLogger())).Detect(solidImage(3000, 4000, white))
	if !ok {
		t.Fatal("expected the frame-margin fallback")
	}
	if c.Tier != TierMargin {
		t.Errorf("Tier: got %d, want %d", c.Tier, TierMargin)
	}
	want := geometry.Quad{{X: 150, Y: 150}, {X: 2850, Y: 150}, {X: 2850, Y: 3850}, {X: 150, Y: 3850}}
	if c.Quad != want {
		t.Errorf("Quad: got %v, want %v", c.Quad, want)
	}
	if c.AreaFraction <= 0.8 {
		t.Errorf("AreaFraction: got %v, want > 0.8", c.AreaFraction)
	}
}

func TestDetectMargin(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		ok   bool
	}{
		{"large", 2400, 3200, true},
		{"exactly 2000 wide", 2000, 3000, false},
		{"short side small", 4000, 1500, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := detectMargin(tt.w, tt.h)
			if ok != tt.ok {
				t.Fatalf("ok: got %v, want %v", ok, tt.ok)
			}
			if ok && c.AreaFraction <= marginMinFraction {
				t.Errorf("fraction %v not above %v", c.AreaFraction, marginMinFraction)
			}
		})
	}
}

func TestRecipeNames(t *testing.T) {
	names := RecipeNames()
	if len(names) != 7 {
		t.Fatalf("expected 7 recipes, got %d", len(names))
	}
	if names[0] != "canny-gentle" || names[6] != "canny-aggressive" {
		t.Errorf("unexpected order: %v", names)
	}
}

func TestEdgeMask(t *testing.T) {
	img := pageOnBackground(300, 400, dark, paper, geometry.Quad{{X: 50, Y: 50}, {X: 250, Y: 50}, {X: 250, Y: 350}, {X: 50, Y: 350}})
	d := NewDetector(WithLogger(quietLogger()))

	for _, name := range RecipeNames() {
		mask, err := d.EdgeMask(img, name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if mask.Rect.Dx() != 300 || mask.Rect.Dy() != 400 {
			t.Errorf("%s: mask size %v", name, mask.Rect)
		}
	}

	if _, err := d.EdgeMask(img, "nope"); err == nil {
		t.Error("expected error for unknown recipe")
	}
}

func TestScalerToSource(t *testing.T) {
	sc := newScaler(2000, 3000, 500, 750)
	q := sc.toSource(geometry.Quad{{X: 0, Y: 0}, {X: 499, Y: 0}, {X: 499, Y: 749}, {X: 0, Y: 749}})
	want := geometry.Quad{{X: 1.5, Y: 1.5}, {X: 1997.5, Y: 1.5}, {X: 1997.5, Y: 2997.5}, {X: 1.5, Y: 2997.5}}
	for i := range q {
		if q[i].Dist(want[i]) > 1e-9 {
			t.Errorf("corner %d: got %v, want %v", i, q[i], want[i])
		}
	}
	if got := sc.perimeterScale(); got != 0.25 {
		t.Errorf("perimeterScale: got %v, want 0.25", got)
	}
}
