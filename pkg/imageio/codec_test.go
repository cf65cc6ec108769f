package imageio

import (
	"errors"
	"image"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

// createTestImage creates a simple gradient test image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x * 255) / width)
			g := uint8((y * 255) / height)
			img.Set(x, y, color.RGBA{r, g, 128, 255})
		}
	}
	return img
}

func TestNew(t *testing.T) {
	codec := New()
	if codec == nil {
		t.Fatal("New() returned nil")
	}
	if codec.JPEGQuality != 90 {
		t.Errorf("Expected default JPEG quality 90, got %d", codec.JPEGQuality)
	}
	if codec.WebPQuality != 90 {
		t.Errorf("Expected default WebP quality 90, got %f", codec.WebPQuality)
	}
	if codec.WebPLossless {
		t.Error("Expected lossy WebP by default")
	}
}

func TestDecodeMissingFile(t *testing.T) {
	codec := New()

	_, err := codec.Decode(filepath.Join(t.TempDir(), "nope.jpg"))
	if err == nil {
		t.Fatal("Expected an error for a missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected fs.ErrNotExist, got %v", err)
	}
}

func TestDecodeCorruptFile(t *testing.T) {
	codec := New()
	path := filepath.Join(t.TempDir(), "broken.jpg")
	if err := os.WriteFile(path, []byte("this is not an image"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := codec.Decode(path)
	if err == nil {
		t.Fatal("Expected an error for a corrupt file")
	}
	if errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Corrupt file misreported as missing: %v", err)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	codec := New()
	dir := t.TempDir()
	img := createTestImage(120, 80)

	for _, ext := range []string{".jpg", ".png", ".bmp", ".gif", ".webp"} {
		path := filepath.Join(dir, "image"+ext)
		if err := codec.Encode(img, path); err != nil {
			t.Errorf("Encode to %s failed: %v", ext, err)
			continue
		}

		decoded, err := codec.Decode(path)
		if err != nil {
			t.Errorf("Decode of %s failed: %v", ext, err)
			continue
		}
		b := decoded.Bounds()
		if b.Dx() != 120 || b.Dy() != 80 {
			t.Errorf("Round trip through %s changed size to %dx%d", ext, b.Dx(), b.Dy())
		}
	}
}

func TestEncodePreservesPNGPixels(t *testing.T) {
	codec := New()
	path := filepath.Join(t.TempDir(), "exact.png")
	img := createTestImage(60, 40)

	if err := codec.Encode(img, path); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := codec.Decode(path)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	for _, p := range []image.Point{{0, 0}, {30, 20}, {59, 39}} {
		want := color.NRGBAModel.Convert(img.At(p.X, p.Y))
		got := color.NRGBAModel.Convert(decoded.At(p.X, p.Y))
		if got != want {
			t.Errorf("Pixel %v changed from %v to %v", p, want, got)
		}
	}
}

func TestEncodeUnsupportedFormat(t *testing.T) {
	codec := New()

	err := codec.Encode(createTestImage(10, 10), filepath.Join(t.TempDir(), "image.xyz"))
	if err == nil {
		t.Error("Expected an error for an unsupported extension")
	}
}

func TestEncodeUppercaseExtension(t *testing.T) {
	codec := New()
	path := filepath.Join(t.TempDir(), "image.JPG")

	if err := codec.Encode(createTestImage(10, 10), path); err != nil {
		t.Errorf("Encode with uppercase extension failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected output file to exist: %v", err)
	}
}
