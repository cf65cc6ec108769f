package overlay

import (
	"image"
	"image/color"
	"testing"
)

// createTestImage creates a uniformly dark test image
func createTestImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{32, 32, 32, 255})
		}
	}
	return img
}

func TestDrawStrokesRegion(t *testing.T) {
	img := createTestImage(100, 100)
	region := image.Rect(20, 20, 80, 80)

	out := Draw(img, region)
	if out == nil {
		t.Fatal("Draw returned nil")
	}

	// Edge pixels are painted, the interior is not.
	if got := out.NRGBAAt(20, 20); got != regionColor {
		t.Errorf("Expected stroke color at region corner, got %v", got)
	}
	if got := out.NRGBAAt(79, 79); got != regionColor {
		t.Errorf("Expected stroke color at opposite corner, got %v", got)
	}
	if got := out.NRGBAAt(50, 50); got == regionColor {
		t.Error("Region interior should not be painted")
	}
}

func TestDrawDoesNotModifyOriginal(t *testing.T) {
	img := createTestImage(100, 100)
	before := img.NRGBAAt(20, 20)

	Draw(img, image.Rect(20, 20, 80, 80))

	if after := img.NRGBAAt(20, 20); after != before {
		t.Errorf("Original pixel changed from %v to %v", before, after)
	}
}

func TestDrawRegionOutsideBounds(t *testing.T) {
	img := createTestImage(100, 100)

	out := Draw(img, image.Rect(500, 500, 600, 600))
	if out == nil {
		t.Fatal("Draw returned nil")
	}
	for _, p := range []image.Point{{0, 0}, {50, 50}, {99, 99}} {
		if got := out.NRGBAAt(p.X, p.Y); got == regionColor {
			t.Errorf("Pixel %v painted for an out-of-bounds region", p)
		}
	}
}

func TestDrawStrokeScalesWithImage(t *testing.T) {
	img := createTestImage(1000, 1000)
	region := image.Rect(100, 100, 900, 900)

	out := Draw(img, region)

	// 0.004 * 1000 = 4 pixel stroke.
	for s := 0; s < 4; s++ {
		if got := out.NRGBAAt(500, 100+s); got != regionColor {
			t.Errorf("Expected stroke at row offset %d, got %v", s, got)
		}
	}
	if got := out.NRGBAAt(500, 104); got == regionColor {
		t.Error("Stroke is wider than expected")
	}
}
