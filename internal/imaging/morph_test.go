package imaging

import (
	"image/color"
	"testing"
)

func TestClose_BridgesGap(t *testing.T) {
	mask := solidGray(40, 20, 0)
	for x := 5; x < 35; x++ {
		if x == 19 || x == 20 {
			continue
		}
		mask.SetGray(x, 10, color.Gray{255})
	}

	closed := Close(mask, 2)
	if closed.GrayAt(19, 10).Y == 0 || closed.GrayAt(20, 10).Y == 0 {
		t.Error("Close should bridge a two-pixel gap")
	}
	if closed.GrayAt(10, 2).Y != 0 {
		t.Error("Close should not add foreground far from the line")
	}
}

func TestDilate_Grows(t *testing.T) {
	mask := solidGray(21, 21, 0)
	mask.SetGray(10, 10, color.Gray{255})

	grown := Dilate(mask, 2)
	if grown.GrayAt(11, 10).Y == 0 || grown.GrayAt(10, 9).Y == 0 {
		t.Error("Dilate should mark direct neighbors")
	}
	if grown.GrayAt(0, 0).Y != 0 {
		t.Error("Dilate should not reach the corner")
	}
	if CountNonZero(mask) != 1 {
		t.Error("source mask modified")
	}
}

func TestErode_EmptyStaysEmpty(t *testing.T) {
	if n := CountNonZero(Erode(solidGray(10, 10, 0), 1)); n != 0 {
		t.Errorf("got %d foreground pixels, want 0", n)
	}
	if n := CountNonZero(Close(solidGray(10, 10, 0), 2)); n != 0 {
		t.Errorf("Close of empty: got %d, want 0", n)
	}
}

func TestSobelMagnitude(t *testing.T) {
	flat := SobelMagnitude(solidGray(16, 16, 255))
	if n := CountNonZero(flat); n != 0 {
		t.Errorf("uniform image: got %d non-zero gradient pixels, want 0", n)
	}

	step := solidGray(16, 16, 0)
	for y := 0; y < 16; y++ {
		for x := 8; x < 16; x++ {
			step.SetGray(x, y, color.Gray{255})
		}
	}
	if SobelMagnitude(step).GrayAt(8, 8).Y == 0 {
		t.Error("dark-to-light step should have a gradient")
	}

	// Light-to-dark must be detected as well.
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			step.SetGray(x, y, color.Gray{255 - step.GrayAt(x, y).Y})
		}
	}
	if SobelMagnitude(step).GrayAt(8, 8).Y == 0 {
		t.Error("light-to-dark step should have a gradient")
	}
}
