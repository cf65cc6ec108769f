// Package crop reduces a detection result to at most one crop region.
//
// The rule is deliberately simple: the first box in the detector's native
// order wins. The pipeline asks the detector for at most one detection; if a
// backend ignores that and returns more, the extras are dropped, never merged.
package crop

import (
	"image"

	"github.com/mvetter/autocrop/pkg/types"
)

// Select decides how an image should be cropped given the detections for it.
// It returns the chosen region and true, or a zero rectangle and false when
// the image should be saved unmodified.
//
// An empty result, a malformed first box (non-finite or inverted
// coordinates), or a box that leaves no area after clamping to bounds all
// yield no crop. The returned region is always contained in bounds. Select is
// pure: it performs no I/O and never modifies its arguments.
func Select(detections types.DetectionResult, bounds image.Rectangle) (image.Rectangle, bool) {
	if len(detections) == 0 {
		return image.Rectangle{}, false
	}

	box := detections[0].Box
	if !box.Valid() {
		return image.Rectangle{}, false
	}

	region := box.Rect().Intersect(bounds)
	if region.Empty() {
		return image.Rectangle{}, false
	}
	return region, true
}
