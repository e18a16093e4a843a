package converter

import (
	"log/slog"
	"math"
	"time"

	"github.com/stackvity/webp-converter/pkg/converter/codec"
)

// ConversionRequest describes one input-to-output conversion. It is passed by
// value and never modified after construction.
type ConversionRequest struct {
	InputPath  string
	OutputPath string
	Quality    float32 // 0-100, clamped; ignored when Lossless
	Lossless   bool
}

// ClampQuality limits q to [MinQuality, MaxQuality]. NaN maps to MinQuality.
func ClampQuality(q float32) float32 {
	switch {
	case math.IsNaN(float64(q)) || q < MinQuality:
		return MinQuality
	case q > MaxQuality:
		return MaxQuality
	default:
		return q
	}
}

// Hooks defines callbacks for structured status updates during a batch.
// Implementations MUST be thread-safe as methods are called from every worker.
// Returned errors are logged and otherwise ignored.
type Hooks interface {
	OnFileDiscovered(path string) error
	OnFileStatusUpdate(path string, status Status, message string, duration time.Duration) error
	OnRunComplete(report Report) error
}

// NoOpHooks provides a default, do-nothing implementation of the Hooks interface.
type NoOpHooks struct{}

// OnFileDiscovered implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnFileDiscovered(path string) error { return nil }

// OnFileStatusUpdate implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnFileStatusUpdate(path string, status Status, message string, duration time.Duration) error {
	return nil
}

// OnRunComplete implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnRunComplete(report Report) error { return nil }

// Options holds all configuration for a batch run.
type Options struct {
	// --- Core Paths ---
	InputPath  string `mapstructure:"input"`  // Required: directory holding the source images
	OutputPath string `mapstructure:"output"` // Required: directory receiving <stem>.webp files

	// --- Encoding ---
	Quality  float32 `mapstructure:"quality"`  // Lossy quality, clamped to 0-100
	Lossless bool    `mapstructure:"lossless"` // Lossless encoding, Quality is ignored

	// --- Performance ---
	Concurrency int `mapstructure:"concurrency"` // Number of workers (0=auto)

	// --- Presentation (CLI only, ignored by the library) ---
	Verbose      bool         `mapstructure:"verbose"`
	TuiEnabled   bool         `mapstructure:"tuiEnabled"`
	ErrorsOnly   bool         `mapstructure:"errorsOnly"`
	OutputFormat OutputFormat `mapstructure:"outputFormat"`

	// --- Application Info ---
	AppVersion     string `mapstructure:"-"`
	ConfigFilePath string `mapstructure:"-"`
	ProfileName    string `mapstructure:"-"`

	// --- Injected Dependencies ---
	EventHooks Hooks        `mapstructure:"-"` // Optional: structured status callbacks
	Logger     slog.Handler `mapstructure:"-"` // Optional: diagnostics backend (nil discards)
	Codec      codec.Codec  `mapstructure:"-"` // Optional: defaults to codec.New()
}
