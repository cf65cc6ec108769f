// Package detection turns a decoded image into detections in that image's own
// pixel space, regardless of which backend produced them.
package detection

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	"github.com/disintegration/imaging"

	"github.com/mvetter/autocrop/pkg/client"
	"github.com/mvetter/autocrop/pkg/types"
)

// Inference policy. Fixed per deployment, overridable through Config, never
// scattered as literals.
const (
	// DefaultInputSize is the square the image is fitted into before it is
	// submitted for inference.
	DefaultInputSize = 640
	// DefaultConfidenceThreshold is the minimum score a detection must reach
	// to be kept.
	DefaultConfidenceThreshold = 0.8
	// DefaultMaxDetections caps how many detections one inference may yield.
	DefaultMaxDetections = 1
	// DefaultTimeout bounds a single inference call when the caller's context
	// carries no deadline of its own.
	DefaultTimeout = 120 * time.Second
)

// payloadJPEGQuality is the encoding quality of the submitted image. The
// payload is transient, so moderate quality keeps requests small.
const payloadJPEGQuality = 90

// Config carries the inference parameters for one Detector.
type Config struct {
	// Model names the backend model to run.
	Model string
	// InputSize is the square bound the image is fitted into before
	// submission. The fit preserves aspect ratio and never upscales.
	InputSize int
	// ConfidenceThreshold drops detections scoring below it.
	ConfidenceThreshold float64
	// MaxDetections truncates the result to the first N candidates.
	MaxDetections int
	// Timeout bounds each inference call.
	Timeout time.Duration
}

// DefaultConfig returns the stock inference policy.
func DefaultConfig() Config {
	return Config{
		InputSize:           DefaultInputSize,
		ConfidenceThreshold: DefaultConfidenceThreshold,
		MaxDetections:       DefaultMaxDetections,
		Timeout:             DefaultTimeout,
	}
}

// Detector runs object detection through a VisionClient and maps the results
// into the source image's pixel space.
type Detector struct {
	client client.VisionClient
	cfg    Config
}

// New creates a Detector. Zero fields in cfg fall back to the defaults above.
func New(c client.VisionClient, cfg Config) *Detector {
	if cfg.InputSize <= 0 {
		cfg.InputSize = DefaultInputSize
	}
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if cfg.MaxDetections <= 0 {
		cfg.MaxDetections = DefaultMaxDetections
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Detector{client: c, cfg: cfg}
}

// Infer submits img for detection and returns the kept candidates with box
// coordinates in img's pixel space, in the backend's ranking order. A run
// where nothing clears the confidence threshold returns an empty result and
// no error.
func (d *Detector) Infer(ctx context.Context, img image.Image) (types.DetectionResult, error) {
	if _, ok := ctx.Deadline(); !ok && d.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()
	}

	payload, sentW, sentH, err := encodePayload(img, d.cfg.InputSize)
	if err != nil {
		return nil, fmt.Errorf("prepare inference payload: %w", err)
	}

	raw, err := d.client.DetectObjects(ctx, d.cfg.Model, payload, client.Options{
		Confidence:    d.cfg.ConfidenceThreshold,
		MaxDetections: d.cfg.MaxDetections,
	})
	if err != nil {
		return nil, err
	}

	return d.mapToSource(raw, sentW, sentH, img.Bounds()), nil
}

// encodePayload fits img into a size×size square (downscale only), encodes it
// as JPEG and base64, and reports the submitted dimensions so boxes expressed
// in submitted pixels can be mapped back.
func encodePayload(img image.Image, size int) (string, int, int, error) {
	if size > 0 {
		b := img.Bounds()
		if b.Dx() > size || b.Dy() > size {
			img = imaging.Fit(img, size, size, imaging.Lanczos)
		}
	}
	b := img.Bounds()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: payloadJPEGQuality}); err != nil {
		return "", 0, 0, err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), b.Dx(), b.Dy(), nil
}

// mapToSource converts backend detections into bounds' pixel space, dropping
// sub-threshold and malformed candidates and truncating to MaxDetections.
// Relative order is preserved.
func (d *Detector) mapToSource(raw []types.Detection, sentW, sentH int, bounds image.Rectangle) types.DetectionResult {
	srcW, srcH := float64(bounds.Dx()), float64(bounds.Dy())

	out := make(types.DetectionResult, 0, len(raw))
	for _, det := range raw {
		if det.Confidence < d.cfg.ConfidenceThreshold {
			continue
		}
		b := normalizeBox(det.Box, sentW, sentH)
		det.Box = types.Box{
			XMin: b.XMin * srcW,
			YMin: b.YMin * srcH,
			XMax: b.XMax * srcW,
			YMax: b.YMax * srcH,
		}
		if !det.Box.Valid() {
			continue
		}
		out = append(out, det)
		if len(out) == d.cfg.MaxDetections {
			break
		}
	}
	return out
}

// normalizeBox brings a backend box into [0,1]. Backends answer either in
// normalized coordinates or in pixels of the submitted image; any coordinate
// above 1 means the latter.
func normalizeBox(b types.Box, sentW, sentH int) types.Box {
	if b.XMin > 1 || b.YMin > 1 || b.XMax > 1 || b.YMax > 1 {
		fw, fh := float64(sentW), float64(sentH)
		b = types.Box{XMin: b.XMin / fw, YMin: b.YMin / fh, XMax: b.XMax / fw, YMax: b.YMax / fh}
	}
	return types.Box{
		XMin: clamp(b.XMin, 0, 1),
		YMin: clamp(b.YMin, 0, 1),
		XMax: clamp(b.XMax, 0, 1),
		YMax: clamp(b.YMax, 0, 1),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
