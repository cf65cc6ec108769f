package client

import (
	"context"

	"github.com/mvetter/autocrop/pkg/types"
)

// Options carries the inference parameters forwarded to a backend. Backends
// treat them as hints; the detection layer enforces both regardless.
type Options struct {
	// Confidence is the minimum score a detection must reach.
	Confidence float64
	// MaxDetections caps how many candidates the backend should return.
	MaxDetections int
}

// VisionClient is the wire-level contract to an object-detection backend.
// DetectObjects returns candidate boxes for the submitted image in the
// backend's native ranking order. Box coordinates may be normalized to [0,1]
// or expressed in pixels of the submitted image; the detection layer maps
// either form back to the source image. An empty slice means nothing was
// detected and is not an error.
type VisionClient interface {
	DetectObjects(ctx context.Context, model, imgB64 string, opts Options) ([]types.Detection, error)
}
