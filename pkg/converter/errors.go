package converter

import "errors"

// These errors classify every failure the converter reports. Callers check
// the category with errors.Is; the wrapped chain keeps the path and cause.
var (
	// ErrInvalidArgument covers identical input/output paths, empty directory
	// arguments and inputs that are already WebP. Never retryable.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDecode indicates the source bytes could not be decoded (corrupt or
	// unsupported content). Item-local during a batch.
	ErrDecode = errors.New("failed to decode image")

	// ErrEncode indicates the WebP encoder rejected the pixel buffer.
	ErrEncode = errors.New("failed to encode webp")

	// ErrIO indicates a filesystem failure: reading the input, creating or
	// writing the output file, creating the output directory, or listing the
	// input directory. Output-directory and input-listing failures are fatal
	// for a batch; per-file failures are item-local.
	ErrIO = errors.New("i/o error")
)

// ErrConfigValidation indicates an error during configuration validation
// (bad flag, env or config file value).
var ErrConfigValidation = errors.New("configuration validation failed")
