// Package overlay renders detection regions onto a copy of an image, used to
// eyeball detector calibration without changing the real output files.
package overlay

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

var regionColor = color.NRGBA{0, 255, 0, 255}

// Draw returns a copy of img with region stroked in green. The stroke width
// scales with the image so the box stays visible on large photos.
func Draw(img image.Image, region image.Rectangle) *image.NRGBA {
	nrgba := imaging.Clone(img)
	b := nrgba.Bounds()
	stroke := int(math.Max(2, 0.004*float64(min(b.Dx(), b.Dy()))))

	r := region.Intersect(b)
	if r.Empty() {
		return nrgba
	}
	for s := 0; s < stroke; s++ {
		drawHLine(nrgba, r.Min.Y+s, r.Min.X, r.Max.X, regionColor)
		drawHLine(nrgba, r.Max.Y-1-s, r.Min.X, r.Max.X, regionColor)
		drawVLine(nrgba, r.Min.X+s, r.Min.Y, r.Max.Y, regionColor)
		drawVLine(nrgba, r.Max.X-1-s, r.Min.Y, r.Max.Y, regionColor)
	}
	return nrgba
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if x1 <= 0 || x0 >= img.Bounds().Dx() {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 > img.Bounds().Dx() {
		x1 = img.Bounds().Dx()
	}
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	if y1 <= 0 || y0 >= img.Bounds().Dy() {
		return
	}
	if y0 < 0 {
		y0 = 0
	}
	if y1 > img.Bounds().Dy() {
		y1 = img.Bounds().Dy()
	}
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}
