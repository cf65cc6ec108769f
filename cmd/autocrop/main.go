package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/mvetter/autocrop"
	"github.com/mvetter/autocrop/internal/config"
	"github.com/mvetter/autocrop/internal/files"
	"github.com/mvetter/autocrop/internal/logging"
	"github.com/mvetter/autocrop/pkg/batch"
	"github.com/mvetter/autocrop/pkg/client"
	"github.com/mvetter/autocrop/pkg/detection"
	"github.com/mvetter/autocrop/pkg/detserver"
	"github.com/mvetter/autocrop/pkg/imageio"
	"github.com/mvetter/autocrop/pkg/ollama"
)

// consoleSink renders batch progress on stdout, one line per image. The
// terminal report is printed by main from the returned summary.
type consoleSink struct {
	total int
}

func (s *consoleSink) OnStart(total int) {
	s.total = total
	fmt.Printf("Processing %d images\n", total)
}

func (s *consoleSink) OnItem(index int, name string) {
	fmt.Printf("[%d/%d] %s\n", index+1, s.total, name)
}

func (s *consoleSink) OnDone(batch.Summary) {}

func main() {
	def := config.Default()

	var in, out, cfgPath string
	var writeConfig, debug bool
	var backend, url, model, loglevel, logfile string
	var conf float64
	var size, maxdet, timeout int

	flag.StringVar(&in, "in", "", "input folder of images")
	flag.StringVar(&out, "out", "", "output directory (default: <in>/output)")
	flag.StringVar(&cfgPath, "config", "", "config file path (default: "+config.DefaultPath()+" when present)")
	flag.BoolVar(&writeConfig, "write-config", false, "write the default config file and exit")

	flag.StringVar(&backend, "backend", def.Detector.Backend, "detection backend: ollama or server")
	flag.StringVar(&url, "url", "", "backend URL (defaults: ollama=http://localhost:11434, server=http://localhost:8000)")
	flag.StringVar(&model, "model", def.Detector.Model, "model name")
	flag.Float64Var(&conf, "conf", def.Detector.ConfidenceThreshold, "confidence threshold (0-1]")
	flag.IntVar(&size, "size", def.Detector.InputSize, "square size the image is fitted into before inference")
	flag.IntVar(&maxdet, "maxdet", def.Detector.MaxDetections, "max detections per image")
	flag.IntVar(&timeout, "timeout", def.Detector.TimeoutSeconds, "per-image inference timeout in seconds")

	flag.BoolVar(&debug, "debug", false, "also write *_boxes.* overlays showing the selected region")
	flag.StringVar(&loglevel, "loglevel", def.Logging.Level, "log level: debug, info, warn, error")
	flag.StringVar(&logfile, "logfile", "", "mirror logs to a rotating file")
	flag.Parse()

	if writeConfig {
		path := cfgPath
		if path == "" {
			path = config.DefaultPath()
		}
		if err := config.Default().Save(path); err != nil {
			fmt.Fprintf(os.Stderr, "write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("wrote", path)
		return
	}

	if in == "" {
		fmt.Fprintf(os.Stderr, "usage: %s -in <folder> [-out dir] [-backend ollama|server] [-url URL] [-model name] [-debug]\n",
			filepath.Base(os.Args[0]))
		os.Exit(2)
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	// Flags override the config file only when set explicitly.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Detector.Backend = backend
		case "url":
			cfg.Detector.ServerURL = url
		case "model":
			cfg.Detector.Model = model
		case "conf":
			cfg.Detector.ConfidenceThreshold = conf
		case "size":
			cfg.Detector.InputSize = size
		case "maxdet":
			cfg.Detector.MaxDetections = maxdet
		case "timeout":
			cfg.Detector.TimeoutSeconds = timeout
		case "loglevel":
			cfg.Logging.Level = loglevel
		case "logfile":
			cfg.Logging.File = logfile
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Logging.Level, cfg.Logging.File)

	// Stop between items on Ctrl-C; the in-flight image still finishes.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var visionClient client.VisionClient
	switch cfg.Detector.Backend {
	case config.BackendOllama:
		visionClient, err = ollama.NewClient(cfg.Detector.ServerURL)
		if err != nil {
			log.Fatalf("failed to create ollama client: %v", err)
		}
	case config.BackendServer:
		dc, derr := detserver.NewClient(cfg.Detector.ServerURL)
		if derr != nil {
			log.Fatalf("failed to create detection service client: %v", derr)
		}
		if herr := dc.Health(ctx); herr != nil {
			log.Fatalf("detection service unreachable: %v", herr)
		}
		visionClient = dc
	}

	detector := detection.New(visionClient, cfg.Detector.Detection())

	codec := imageio.New()
	codec.JPEGQuality = cfg.Output.JPEGQuality
	codec.WebPLossless = cfg.Output.WebPLossless

	proc := autocrop.NewWithCodec(detector, codec, log)
	proc.DebugOverlay = debug

	if out == "" {
		out = filepath.Join(in, cfg.Output.DirName)
	}

	summary, err := proc.ProcessFolder(ctx, in, out, &consoleSink{})
	if err != nil {
		log.Fatalf("batch failed: %v", err)
	}

	switch {
	case summary.Total == 0:
		fmt.Printf("No images found in %s\n", in)
	case summary.Cancelled:
		fmt.Printf("Cancelled: processed %d of %d images\n", summary.Processed, summary.Total)
	default:
		fmt.Printf("Processing complete: %d of %d images\n", summary.Processed, summary.Total)
	}
}

// loadConfig reads the named config file, or the per-user one when present,
// or falls back to the defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	if def := config.DefaultPath(); files.FileExists(def) {
		return config.Load(def)
	}
	return config.Default(), nil
}
