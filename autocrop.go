// Package autocrop batch-crops a folder of images to their detected subjects.
//
// For every image in a folder, the pipeline asks an object-detection backend
// for the most prominent subject, crops the image to that detection, and
// saves it as name_cropped.ext in the output directory. Images with no
// qualifying detection are saved unmodified, a corrupt or unreadable file is
// logged and skipped without aborting the run, and the whole batch can be
// cancelled between items.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		"github.com/mvetter/autocrop"
//		"github.com/mvetter/autocrop/pkg/detection"
//		"github.com/mvetter/autocrop/pkg/ollama"
//	)
//
//	func main() {
//		backend, err := ollama.NewClient("http://localhost:11434")
//		if err != nil {
//			log.Fatal(err)
//		}
//		detector := detection.New(backend, detection.DefaultConfig())
//
//		proc := autocrop.New(detector, nil)
//		summary, err := proc.ProcessFolder(context.Background(), "./photos", "", nil)
//		if err != nil {
//			log.Fatal(err)
//		}
//		log.Printf("processed %d of %d images", summary.Processed, summary.Total)
//	}
//
// The heavy lifting lives in three packages: pkg/detection maps backend
// output into source pixel space, pkg/crop reduces it to a single region, and
// pkg/batch owns the per-item loop with its progress and cancellation
// protocol. A GUI embeds the same pieces by implementing batch.ProgressSink
// for its progress dialog and cancelling the run context from its cancel
// button.
package autocrop

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/mvetter/autocrop/internal/files"
	"github.com/mvetter/autocrop/pkg/batch"
	"github.com/mvetter/autocrop/pkg/imageio"
)

// Version of the autocrop library
const Version = "1.0.0"

// Processor wires a detection backend to the batch pipeline with a shared
// codec and logger, so callers hold one value per deployment and start runs
// off it.
type Processor struct {
	// DebugOverlay makes every run also write *_boxes.* copies showing the
	// selected region for each detection.
	DebugOverlay bool

	detector batch.Detector
	codec    *imageio.Codec
	log      *logrus.Logger
}

// New creates a Processor with the default codec. A nil log discards
// pipeline logging.
func New(detector batch.Detector, log *logrus.Logger) *Processor {
	return NewWithCodec(detector, imageio.New(), log)
}

// NewWithCodec creates a Processor with a custom-tuned codec.
func NewWithCodec(detector batch.Detector, codec *imageio.Codec, log *logrus.Logger) *Processor {
	return &Processor{detector: detector, codec: codec, log: log}
}

// Items enumerates the images directly inside folder and pairs each with its
// destination in outDir. The returned order is the order the batch will
// process.
func Items(folder, outDir string) ([]batch.Item, error) {
	paths, err := files.ListImages(folder)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	items := make([]batch.Item, 0, len(paths))
	for _, p := range paths {
		items = append(items, batch.Item{Source: p, Dest: files.DestPath(p, outDir)})
	}
	return items, nil
}

// ProcessFolder runs one batch over every image directly inside folder. An
// empty outDir defaults to an "output" directory under folder. A nil sink is
// fine. Cancelling ctx stops the run between items; the partial Summary still
// comes back with Cancelled set.
func (p *Processor) ProcessFolder(ctx context.Context, folder, outDir string, sink batch.ProgressSink) (batch.Summary, error) {
	if outDir == "" {
		outDir = filepath.Join(folder, files.DefaultOutputDirName)
	}

	items, err := Items(folder, outDir)
	if err != nil {
		return batch.Summary{}, err
	}

	pipe := batch.New(p.detector, p.codec, p.log)
	pipe.DebugOverlay = p.DebugOverlay
	return pipe.Run(ctx, items, sink)
}
