package converter

import "sort"

// Constants defining default values for configuration options.
// They seed the viper defaults in internal/cli/config.
const (
	// DefaultQuality is the lossy quality used when none is configured.
	DefaultQuality float32 = 87
	// DefaultLossless is the default encoding mode.
	DefaultLossless = false
	// DefaultConcurrency determines the default number of workers. 0 means runtime.NumCPU().
	DefaultConcurrency = 0
	// DefaultTuiEnabled is the default state for the Terminal UI.
	DefaultTuiEnabled = true
	// DefaultErrorsOnly hides "Converted" lines in CLI output when true.
	DefaultErrorsOnly = false
	// DefaultOutputFormat is the default format for the final summary report.
	DefaultOutputFormat = OutputFormatText
	// DefaultVerbose is the default state for verbose logging.
	DefaultVerbose = false
)

// Quality bounds. Requested values outside the range are clamped.
const (
	MinQuality float32 = 0
	MaxQuality float32 = 100
)

const (
	// WebPExtension is the extension of every output file.
	WebPExtension = ".webp"
	// ReportSchemaVersion indicates the version of the JSON report structure.
	ReportSchemaVersion = "1.0"
)

// Log line prefixes written to the LogSink.
const (
	LinePrefixConverted = "Converted: "
	LinePrefixError     = "Error: "
)

// supportedExtensions lists eligible inputs, lowercase and without the dot.
var supportedExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"bmp":  {},
	"tiff": {},
	"gif":  {},
}

// SupportedExtensions returns the recognized input extensions in sorted order.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(supportedExtensions))
	for ext := range supportedExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
