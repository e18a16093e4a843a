package converter_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackvity/webp-converter/internal/testutil"
	"github.com/stackvity/webp-converter/pkg/converter"
)

func TestIsSupportedImage(t *testing.T) {
	testCases := []struct {
		path string
		want bool
	}{
		{"a.png", true},
		{"a.PNG", true},
		{"dir/photo.JpG", true},
		{"b.jpeg", true},
		{"c.bmp", true},
		{"d.tiff", true},
		{"e.gif", true},
		{"f.webp", false},
		{"g.tif", false},
		{"h.txt", false},
		{"noext", false},
		{".png", false},
		{"archive.png.zip", false},
	}
	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, converter.IsSupportedImage(tc.path))
		})
	}
}

func TestListCandidates_FiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	testutil.CreateDummyFile(t, filepath.Join(dir, "b.PNG"), "x")
	testutil.CreateDummyFile(t, filepath.Join(dir, "a.jpg"), "x")
	testutil.CreateDummyFile(t, filepath.Join(dir, "notes.txt"), "x")
	testutil.CreateDummyFile(t, filepath.Join(dir, "already.webp"), "x")
	testutil.CreateDummyFile(t, filepath.Join(dir, "nested", "deep.png"), "x")
	testutil.CreateDummyDir(t, filepath.Join(dir, "folder.png"))

	got, err := converter.ListCandidates(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.PNG"),
	}, got, "only top-level regular files with supported extensions are listed")
}

func TestListCandidates_EmptyDirectory(t *testing.T) {
	got, err := converter.ListCandidates(t.TempDir(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListCandidates_MissingDirectoryIsIOError(t *testing.T) {
	_, err := converter.ListCandidates(filepath.Join(t.TempDir(), "missing"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, converter.ErrIO)
}

func TestListCandidates_SymlinkHandling(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(t.TempDir(), "real.png")
	testutil.CreateDummyFile(t, target, "x")

	if err := os.Symlink(target, filepath.Join(dir, "link.png")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(dir, "gone.png"), filepath.Join(dir, "dangling.png")))

	got, err := converter.ListCandidates(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "link.png")}, got, "dangling links are skipped silently")
}
