package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestAdaptiveThreshold_Uniform(t *testing.T) {
	mask := AdaptiveThreshold(solidGray(40, 40, 200), 11, 2, true)
	if n := CountNonZero(mask); n != 0 {
		t.Errorf("uniform image: got %d foreground pixels, want 0", n)
	}
}

func TestAdaptiveThreshold_DarkLine(t *testing.T) {
	g := solidGray(40, 40, 200)
	for y := 0; y < 40; y++ {
		g.SetGray(20, y, color.Gray{40})
	}

	mask := AdaptiveThreshold(g, 11, 2, true)
	if mask.GrayAt(20, 20).Y != 255 {
		t.Error("dark line should be foreground in inverted mode")
	}
	if mask.GrayAt(5, 20).Y != 0 {
		t.Error("flat background should not be foreground")
	}

	normal := AdaptiveThreshold(g, 11, 2, false)
	if normal.GrayAt(20, 20).Y != 0 {
		t.Error("dark line should be background in normal mode")
	}
}

func TestOtsuLevel(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 10, 10))
	for i := range g.Pix {
		if i < 50 {
			g.Pix[i] = 30
		} else {
			g.Pix[i] = 220
		}
	}

	level, ok := OtsuLevel(g)
	if !ok {
		t.Fatal("expected a level for a bimodal image")
	}
	if level < 30 || level >= 220 {
		t.Errorf("level %d does not separate 30 from 220", level)
	}

	mask := OtsuThreshold(g)
	if got := CountNonZero(mask); got != 50 {
		t.Errorf("OtsuThreshold foreground: got %d, want 50", got)
	}
}

func TestOtsuThreshold_Uniform(t *testing.T) {
	for _, v := range []uint8{0, 77, 255} {
		if _, ok := OtsuLevel(solidGray(8, 8, v)); ok {
			t.Errorf("uniform %d: expected no level", v)
		}
		if n := CountNonZero(OtsuThreshold(solidGray(8, 8, v))); n != 0 {
			t.Errorf("uniform %d: got %d foreground pixels, want 0", v, n)
		}
	}
}
