package converter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/stackvity/webp-converter/pkg/util"
)

// IsSupportedImage reports whether path has one of the recognized input
// extensions, compared case-insensitively. The file itself is not inspected.
func IsSupportedImage(path string) bool {
	_, ok := supportedExtensions[util.ExtensionOf(path)]
	return ok
}

// ListCandidates returns the regular files directly inside dir whose
// extension is supported. Subdirectories are not descended into. Entries
// that cannot be stat'ed (permission errors, dangling symlinks) are skipped
// and never counted as failures. Symlinks to regular files are followed.
// The result is sorted for stable display only.
//
// Failing to open dir itself is returned as an ErrIO error.
func ListCandidates(dir string, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = discardLogger()
	}
	logger = logger.With(slog.String("component", "filter"))

	f, err := os.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read input directory %q: %w", ErrIO, dir, err)
	}
	defer f.Close()

	entries, readErr := f.ReadDir(-1)
	if readErr != nil {
		// ReadDir still returns what it managed to read.
		logger.Warn("Directory listing incomplete", slog.String("path", dir), slog.String("error", readErr.Error()))
	}

	candidates := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !IsSupportedImage(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		info, err := os.Stat(path)
		if err != nil {
			logger.Debug("Skipping unreadable entry", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		if !info.Mode().IsRegular() {
			logger.Debug("Skipping non-regular entry", slog.String("path", path))
			continue
		}
		candidates = append(candidates, path)
	}
	sort.Strings(candidates)
	logger.Debug("Candidates listed", slog.String("path", dir), slog.Int("count", len(candidates)))
	return candidates, nil
}
