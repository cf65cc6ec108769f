// Package batch drives the per-image detect, crop and save loop over a folder
// worth of files. One bad image never aborts the run: failures are classified
// per item and the loop moves on. The run can be observed through a
// ProgressSink and cancelled between items from any goroutine.
package batch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mvetter/autocrop/pkg/crop"
	"github.com/mvetter/autocrop/pkg/overlay"
	"github.com/mvetter/autocrop/pkg/types"
)

// Item pairs one source image with its destination path. Items are built once
// per run and never change.
type Item struct {
	Source string
	Dest   string
}

// Name returns the source file's base name, as reported to the sink.
func (i Item) Name() string { return filepath.Base(i.Source) }

// Summary is the durable output of one run.
type Summary struct {
	Processed int
	Total     int
	Cancelled bool
}

// Outcome tags what happened to one item.
type Outcome int

const (
	// OutcomeSucceeded means a detection was found and the crop was saved.
	OutcomeSucceeded Outcome = iota + 1
	// OutcomeSkippedNoDetection means nothing qualified and the image was
	// saved unmodified.
	OutcomeSkippedNoDetection
	// OutcomeFailed means the item failed with a classified error.
	OutcomeFailed
)

// Detector produces detections for a decoded image, with boxes in the image's
// own pixel space and the best candidate first.
type Detector interface {
	Infer(ctx context.Context, img image.Image) (types.DetectionResult, error)
}

// Codec decodes source files and encodes results.
type Codec interface {
	Decode(path string) (image.Image, error)
	Encode(img image.Image, path string) error
}

// Pipeline runs one batch. A Pipeline value is single-use: it owns the state
// of exactly one run, and only Cancel may be called from other goroutines
// while Run is in flight.
type Pipeline struct {
	// DebugOverlay additionally writes a *_boxes.* copy of each image that
	// had a detection, with the chosen region stroked. Set before Run.
	DebugOverlay bool

	detector Detector
	codec    Codec
	log      *logrus.Logger

	started   atomic.Bool
	cancelled atomic.Bool
}

// New creates a Pipeline. A nil log discards pipeline logging.
func New(detector Detector, codec Codec, log *logrus.Logger) *Pipeline {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Pipeline{detector: detector, codec: codec, log: log}
}

// Cancel requests that no further items be processed. The in-flight item
// always finishes first, so destinations are never left half-written. Cancel
// is safe to call from any goroutine and holds for the rest of the run.
func (p *Pipeline) Cancel() { p.cancelled.Store(true) }

// Cancelled reports whether Cancel has been called.
func (p *Pipeline) Cancelled() bool { return p.cancelled.Load() }

// Run processes items in order and returns the run's Summary.
//
// An empty item list returns a zero Summary immediately, with no callbacks.
// The only errors Run returns are ErrAlreadyRan and a failure to create the
// output directories, which aborts before any item and any callback.
// Cancellation, whether through Cancel or the context, is not an error: Run
// returns the partial Summary with Cancelled set. Per-item failures are
// logged and excluded from Processed but never surface as errors.
func (p *Pipeline) Run(ctx context.Context, items []Item, sink ProgressSink) (Summary, error) {
	if !p.started.CompareAndSwap(false, true) {
		return Summary{}, ErrAlreadyRan
	}
	if sink == nil {
		sink = NopSink{}
	}
	if len(items) == 0 {
		return Summary{}, nil
	}

	if err := p.ensureOutputDirs(items); err != nil {
		return Summary{}, err
	}

	log := p.log.WithField("run_id", uuid.NewString())
	summary := Summary{Total: len(items)}

	log.WithField("total", summary.Total).Info("batch started")
	p.notifyStart(log, sink, summary.Total)

	for i, item := range items {
		if p.cancelled.Load() || ctx.Err() != nil {
			summary.Cancelled = true
			break
		}
		p.notifyItem(log, sink, i, item.Name())

		outcome, itemErr := p.processItem(ctx, log, item)
		if itemErr != nil {
			log.WithFields(logrus.Fields{
				"path": itemErr.Path,
				"kind": itemErr.Kind.String(),
			}).WithError(itemErr.Err).Warn("item failed")
			continue
		}
		summary.Processed++
		if outcome == OutcomeSkippedNoDetection {
			log.WithField("path", item.Source).Debug("no detection, saved unmodified")
		} else {
			log.WithField("path", item.Source).Debug("cropped and saved")
		}
	}

	log.WithFields(logrus.Fields{
		"processed": summary.Processed,
		"total":     summary.Total,
		"cancelled": summary.Cancelled,
	}).Info("batch finished")
	p.notifyDone(log, sink, summary)
	return summary, nil
}

// ensureOutputDirs creates every distinct destination directory up front.
// Creation is idempotent; a failure here is the single batch-fatal condition.
func (p *Pipeline) ensureOutputDirs(items []Item) error {
	seen := make(map[string]struct{})
	for _, item := range items {
		dir := filepath.Dir(item.Dest)
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory %s: %w", dir, err)
		}
	}
	return nil
}

// processItem runs decode, infer, select and save for one item. Every failure
// leaves here classified; the returned *ItemError is nil on success.
func (p *Pipeline) processItem(ctx context.Context, log *logrus.Entry, item Item) (Outcome, *ItemError) {
	img, err := p.codec.Decode(item.Source)
	if err != nil {
		kind := KindDecode
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			kind = KindMissingFile
		}
		return OutcomeFailed, &ItemError{Path: item.Source, Kind: kind, Err: err}
	}

	detections, err := p.detector.Infer(ctx, img)
	if err != nil {
		kind := KindInference
		if errors.Is(err, types.ErrInvalidDetection) {
			kind = KindInvalidDetection
		}
		return OutcomeFailed, &ItemError{Path: item.Source, Kind: kind, Err: err}
	}

	out := img
	region, cropped := crop.Select(detections, img.Bounds())
	if cropped {
		out = imaging.Crop(img, region)
		if p.DebugOverlay {
			p.writeOverlay(log, item, img, region)
		}
	}

	if err := p.codec.Encode(out, item.Dest); err != nil {
		return OutcomeFailed, &ItemError{Path: item.Source, Kind: KindEncode, Err: err}
	}

	if !cropped {
		return OutcomeSkippedNoDetection, nil
	}
	return OutcomeSucceeded, nil
}

// writeOverlay saves the debug copy next to the destination. Best-effort: an
// overlay failure never fails the item.
func (p *Pipeline) writeOverlay(log *logrus.Entry, item Item, img image.Image, region image.Rectangle) {
	ext := filepath.Ext(item.Dest)
	path := strings.TrimSuffix(item.Dest, ext) + "_boxes" + ext
	if err := p.codec.Encode(overlay.Draw(img, region), path); err != nil {
		log.WithField("path", item.Source).WithError(err).Debug("debug overlay save failed")
	}
}

// The notify helpers shield the loop from sink panics: the batch must survive
// a faulty sink.

func (p *Pipeline) notifyStart(log *logrus.Entry, sink ProgressSink, total int) {
	defer recoverSink(log, "on_start")
	sink.OnStart(total)
}

func (p *Pipeline) notifyItem(log *logrus.Entry, sink ProgressSink, index int, name string) {
	defer recoverSink(log, "on_item")
	sink.OnItem(index, name)
}

func (p *Pipeline) notifyDone(log *logrus.Entry, sink ProgressSink, summary Summary) {
	defer recoverSink(log, "on_done")
	sink.OnDone(summary)
}

func recoverSink(log *logrus.Entry, callback string) {
	if r := recover(); r != nil {
		log.WithField("callback", callback).Warnf("progress sink panicked: %v", r)
	}
}
