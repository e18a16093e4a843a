// Package util holds small path helpers shared by the converter and the CLI.
package util

import (
	"path/filepath"
	"strings"
)

// ExtensionOf returns the lowercased extension of path without the leading dot,
// or "" when there is none. A leading dot alone does not make an extension, so
// ".png" has no extension and "archive." has an empty one.
func ExtensionOf(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext == "" || ext == base {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// FileStem returns the final element of path without its extension.
// Only the last extension is dropped: "photo.tar.png" has stem "photo.tar".
func FileStem(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext == base {
		return base
	}
	return strings.TrimSuffix(base, ext)
}

// OutputPathFor places the stem of inputPath into outputDir with the given
// extension (including the dot). The input's own extension never accumulates.
func OutputPathFor(outputDir, inputPath, ext string) string {
	return filepath.Join(outputDir, FileStem(inputPath)+ext)
}

// SamePath reports whether a and b refer to the same location once cleaned and
// made absolute. The comparison is case-sensitive on every platform.
func SamePath(a, b string) bool {
	return normalize(a) == normalize(b)
}

func normalize(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
