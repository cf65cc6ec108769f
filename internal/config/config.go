package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mvetter/autocrop/internal/files"
	"github.com/mvetter/autocrop/pkg/detection"
)

// Detection backend names accepted in the config file and on the CLI.
const (
	BackendOllama = "ollama"
	BackendServer = "server"
)

// Config holds the application configuration.
type Config struct {
	Detector DetectorConfig `json:"detector"`
	Output   OutputConfig   `json:"output"`
	Logging  LoggingConfig  `json:"logging"`
}

// DetectorConfig selects and parameterizes the detection backend. An empty
// ServerURL means the backend's own local default.
type DetectorConfig struct {
	Backend             string  `json:"backend"`
	Model               string  `json:"model"`
	ServerURL           string  `json:"server_url"`
	InputSize           int     `json:"input_size"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	MaxDetections       int     `json:"max_detections"`
	TimeoutSeconds      int     `json:"timeout_seconds"`
}

// OutputConfig holds configuration for output generation.
type OutputConfig struct {
	DirName      string `json:"dir_name"`
	JPEGQuality  int    `json:"jpeg_quality"`
	WebPLossless bool   `json:"webp_lossless"`
}

// LoggingConfig holds the log level and optional log file.
type LoggingConfig struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

// Default returns a configuration with default values: the Ollama backend on
// its standard port with the stock inference policy.
func Default() *Config {
	return &Config{
		Detector: DetectorConfig{
			Backend:             BackendOllama,
			Model:               "qwen2.5vl",
			InputSize:           detection.DefaultInputSize,
			ConfidenceThreshold: detection.DefaultConfidenceThreshold,
			MaxDetections:       detection.DefaultMaxDetections,
			TimeoutSeconds:      int(detection.DefaultTimeout / time.Second),
		},
		Output: OutputConfig{
			DirName:     files.DefaultOutputDirName,
			JPEGQuality: 90,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a JSON config file over the defaults, so a partial file
// overrides only the fields it names.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to a JSON file, creating parent directories
// as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Detector.Backend {
	case BackendOllama, BackendServer:
	default:
		return fmt.Errorf("detector.backend must be %q or %q", BackendOllama, BackendServer)
	}
	if c.Detector.InputSize < 32 {
		return fmt.Errorf("detector.input_size must be at least 32")
	}
	if c.Detector.ConfidenceThreshold <= 0 || c.Detector.ConfidenceThreshold > 1 {
		return fmt.Errorf("detector.confidence_threshold must be in (0, 1]")
	}
	if c.Detector.MaxDetections < 1 {
		return fmt.Errorf("detector.max_detections must be at least 1")
	}
	if c.Detector.TimeoutSeconds < 1 {
		return fmt.Errorf("detector.timeout_seconds must be positive")
	}
	if c.Output.DirName == "" {
		return fmt.Errorf("output.dir_name cannot be empty")
	}
	if c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100 {
		return fmt.Errorf("output.jpeg_quality must be between 1 and 100")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	return nil
}

// Detection maps the detector section onto the detection layer's config.
func (d DetectorConfig) Detection() detection.Config {
	return detection.Config{
		Model:               d.Model,
		InputSize:           d.InputSize,
		ConfidenceThreshold: d.ConfidenceThreshold,
		MaxDetections:       d.MaxDetections,
		Timeout:             time.Duration(d.TimeoutSeconds) * time.Second,
	}
}

// DefaultPath returns the per-user configuration file path.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "autocrop", "config.json")
}
