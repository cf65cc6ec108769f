// Package imageio decodes and encodes the image files the pipeline works on.
// Format is keyed off the file extension; the destination keeps the source
// format, so whatever Decode accepted Encode can write back.
package imageio

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Codec reads and writes raster files.
type Codec struct {
	// JPEGQuality is the quality used when encoding .jpg/.jpeg files, 1-100.
	JPEGQuality int
	// WebPQuality is the quality used for lossy WebP encoding, 1-100.
	WebPQuality float32
	// WebPLossless switches WebP encoding to lossless mode.
	WebPLossless bool
}

// New returns a Codec with the default encoding quality.
func New() *Codec {
	return &Codec{
		JPEGQuality: 90,
		WebPQuality: 90,
	}
}

// Decode loads an image from path. Open errors (missing file, permissions)
// come back unwrapped so callers can classify them with errors.Is against
// fs.ErrNotExist / fs.ErrPermission; anything else means the file is not a
// decodable image.
func (c *Codec) Decode(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err == nil {
		return img, nil
	}

	// imaging.Open covers the registered formats. Retry by hand so WebP
	// variants its decoder rejects still load, and so a plain open failure
	// surfaces as such.
	f, openErr := os.Open(path)
	if openErr != nil {
		return nil, openErr
	}
	defer f.Close()

	if img, werr := webp.Decode(f); werr == nil {
		return img, nil
	}
	if _, serr := f.Seek(0, io.SeekStart); serr == nil {
		if img, _, derr := image.Decode(f); derr == nil {
			return img, nil
		}
	}
	return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
}

// Encode writes img to path in the format named by the path's extension.
func (c *Codec) Encode(img image.Image, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".webp":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		opts := &webp.Options{Lossless: c.WebPLossless, Quality: c.WebPQuality}
		return webp.Encode(f, img, opts)
	case ".jpg", ".jpeg":
		return imaging.Save(img, path, imaging.JPEGQuality(c.JPEGQuality))
	default:
		return imaging.Save(img, path)
	}
}
