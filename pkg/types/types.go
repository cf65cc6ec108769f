package types

import (
	"errors"
	"image"
	"math"
)

// ErrInvalidDetection marks a detector response that violates the detection
// contract (unparseable payload, non-finite or inverted coordinates). Backends
// wrap it so callers can classify the failure with errors.Is.
var ErrInvalidDetection = errors.New("invalid detection")

// Box is an axis-aligned bounding box. Coordinates are in the pixel space of
// the image the detection was produced for, with the origin at the top-left.
type Box struct {
	XMin float64 `json:"x_min"`
	YMin float64 `json:"y_min"`
	XMax float64 `json:"x_max"`
	YMax float64 `json:"y_max"`
}

// Valid reports whether the box has finite coordinates and positive extent.
func (b Box) Valid() bool {
	for _, v := range [4]float64{b.XMin, b.YMin, b.XMax, b.YMax} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.XMin < b.XMax && b.YMin < b.YMax
}

// Rect converts the box to an image.Rectangle, rounding to whole pixels.
func (b Box) Rect() image.Rectangle {
	return image.Rect(round(b.XMin), round(b.YMin), round(b.XMax), round(b.YMax))
}

func round(v float64) int {
	return int(math.Round(v))
}

// Detection is a single detected object candidate.
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// DetectionResult is the ordered output of one inference call, in the
// detector's native ranking order (best candidate first). May be empty when
// nothing cleared the confidence threshold; an empty result is not an error.
type DetectionResult []Detection
