package converter

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/stackvity/webp-converter/pkg/converter/codec"
	"github.com/stackvity/webp-converter/pkg/util"
)

// Converter performs single input-to-output conversions. It holds no
// per-request state and is safe for concurrent use by the batch workers.
type Converter struct {
	codec  codec.Codec
	logger *slog.Logger
}

// NewConverter creates a Converter. A nil codec selects codec.New(); a nil
// handler discards diagnostics.
func NewConverter(c codec.Codec, loggerHandler slog.Handler) *Converter {
	if c == nil {
		c = codec.New()
	}
	return &Converter{
		codec:  c,
		logger: newLogger(loggerHandler, "converter"),
	}
}

// Convert runs the guards and, when they pass, decodes the input, encodes it
// as WebP and publishes the output file. It returns StatusSuccess when a file
// was written, StatusSkipped when the output already existed, or StatusFailed
// together with the error.
//
// Guards, in order:
//  1. input and output must differ (ErrInvalidArgument)
//  2. an existing output is left untouched and reported as skipped
//  3. WebP inputs are rejected (ErrInvalidArgument)
//
// On any failure no file is left at OutputPath.
func (c *Converter) Convert(req ConversionRequest) (Status, error) {
	if req.InputPath == "" || req.OutputPath == "" {
		return StatusFailed, fmt.Errorf("%w: input and output paths must not be empty", ErrInvalidArgument)
	}
	if util.SamePath(req.InputPath, req.OutputPath) {
		return StatusFailed, fmt.Errorf("%w: input and output paths must differ: %s", ErrInvalidArgument, req.InputPath)
	}
	if _, err := os.Stat(req.OutputPath); err == nil {
		c.logger.Debug("Output exists, skipping", slog.String("output", req.OutputPath))
		return StatusSkipped, nil
	}
	if util.ExtensionOf(req.InputPath) == "webp" {
		return StatusFailed, fmt.Errorf("%w: input is already a WebP image: %s", ErrInvalidArgument, req.InputPath)
	}

	buf, err := c.decode(req.InputPath)
	if err != nil {
		return StatusFailed, err
	}

	quality := ClampQuality(req.Quality)
	data, err := c.codec.Encode(buf, quality, req.Lossless)
	if err != nil {
		return StatusFailed, fmt.Errorf("%w %s: %w", ErrEncode, req.InputPath, err)
	}
	if len(data) == 0 {
		return StatusFailed, fmt.Errorf("%w %s: encoder returned no data", ErrEncode, req.InputPath)
	}

	published, err := publishFile(req.OutputPath, data)
	if err != nil {
		return StatusFailed, err
	}
	if !published {
		c.logger.Debug("Output appeared concurrently, skipping", slog.String("output", req.OutputPath))
		return StatusSkipped, nil
	}

	c.logger.Debug("Converted",
		slog.String("input", req.InputPath),
		slog.String("output", req.OutputPath),
		slog.Bool("lossless", req.Lossless),
		slog.Int("bytes", len(data)),
	)
	return StatusSuccess, nil
}

// decode reads and decodes the input. The pixel buffer belongs to this call only.
func (c *Converter) decode(path string) (*codec.PixelBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open input %s: %w", ErrIO, path, err)
	}
	defer f.Close()

	buf, err := c.codec.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrDecode, path, err)
	}
	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrDecode, path, err)
	}
	return buf, nil
}

// linkFile is os.Link, replaceable in tests.
var linkFile = os.Link

// publishFile writes data to a temp file next to path and then moves it into
// place, so a failed or interrupted write never leaves a truncated output.
// The move uses a hard link first, which refuses to replace an existing file;
// published is false when another writer got there first. Filesystems without
// hard links fall back to rename after re-checking that path is still free.
func publishFile(path string, data []byte) (published bool, err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return false, fmt.Errorf("%w: failed to create file %s: %w", ErrIO, path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return false, fmt.Errorf("%w: failed to write file %s: %w", ErrIO, path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return false, fmt.Errorf("%w: failed to flush file %s: %w", ErrIO, path, err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("%w: failed to close file %s: %w", ErrIO, path, err)
	}
	// CreateTemp uses 0600. Outputs get a fixed 0644; the process umask is not applied.
	if err := os.Chmod(tmpName, 0644); err != nil {
		return false, fmt.Errorf("%w: failed to set permissions on %s: %w", ErrIO, path, err)
	}

	linkErr := linkFile(tmpName, path)
	if linkErr == nil {
		return true, nil
	}
	if errors.Is(linkErr, fs.ErrExist) {
		return false, nil
	}
	// Rename replaces silently, so the existence check is repeated here. A
	// writer racing between this check and the rename can still be replaced
	// with identical content on filesystems without hard links.
	if _, err := os.Lstat(path); err == nil {
		return false, nil
	}
	if err := os.Rename(tmpName, path); err != nil {
		return false, fmt.Errorf("%w: failed to create file %s: %w", ErrIO, path, err)
	}
	return true, nil
}
