package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/slicersave/internal/manifest"
)

// writeTree creates a small staged backup directory with a manifest.
func writeTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		manifest.Filename:       `{"version":"1.0","slicer":"orcaslicer","files":[]}`,
		"OrcaSlicer.conf":       `{"header": "OrcaSlicer 2.3.1"}`,
		"user/preset1.json":     `{"layer_height": 0.2}`,
		"user/sub/preset2.json": `{"layer_height": 0.28}`,
	}
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestPackUnpack_RoundTrip(t *testing.T) {
	src := writeTree(t)
	archivePath := filepath.Join(t.TempDir(), "backup.zip")

	require.NoError(t, Pack(src, archivePath))
	require.True(t, IsArchive(archivePath))

	dest := t.TempDir()
	require.NoError(t, Unpack(archivePath, dest))

	// Byte-exact reproduction of every file
	err := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		require.NoError(t, err)
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		require.NoError(t, err)

		want, err := os.ReadFile(path)
		require.NoError(t, err)
		got, err := os.ReadFile(filepath.Join(dest, rel))
		require.NoError(t, err, "missing %s after unpack", rel)
		require.Equal(t, want, got, "content mismatch for %s", rel)
		return nil
	})
	require.NoError(t, err)
}

func TestReadManifest(t *testing.T) {
	src := writeTree(t)
	archivePath := filepath.Join(t.TempDir(), "backup.zip")
	require.NoError(t, Pack(src, archivePath))

	m, err := ReadManifest(archivePath)
	require.NoError(t, err)
	require.Equal(t, "orcaslicer", m.Slicer)
}

func TestReadManifest_Missing(t *testing.T) {
	src := writeTree(t)
	require.NoError(t, os.Remove(filepath.Join(src, manifest.Filename)))

	archivePath := filepath.Join(t.TempDir(), "backup.zip")
	require.NoError(t, Pack(src, archivePath))

	_, err := ReadManifest(archivePath)
	require.True(t, errors.Is(err, manifest.ErrMissing), "got %v", err)
}

func TestUnpack_Corrupt(t *testing.T) {
	archivePath := filepath.Join(t.TempDir(), "broken.zip")
	require.NoError(t, os.WriteFile(archivePath, []byte("this is not a zip"), 0o644))

	err := Unpack(archivePath, t.TempDir())
	require.True(t, errors.Is(err, ErrCorrupt), "got %v", err)
}

func TestCheck_TruncatedContainer(t *testing.T) {
	src := writeTree(t)
	archivePath := filepath.Join(t.TempDir(), "backup.zip")
	require.NoError(t, Pack(src, archivePath))

	require.NoError(t, Check(archivePath))

	// Truncate the container and expect a structural failure
	data, err := os.ReadFile(archivePath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(archivePath, data[:len(data)/2], 0o644))

	require.Error(t, Check(archivePath))
}

func TestIsArchive(t *testing.T) {
	dir := t.TempDir()
	require.False(t, IsArchive(dir), "directory is not an archive")

	zipPath := filepath.Join(dir, "a.zip")
	require.NoError(t, os.WriteFile(zipPath, []byte("x"), 0o644))
	require.True(t, IsArchive(zipPath))

	txtPath := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("x"), 0o644))
	require.False(t, IsArchive(txtPath))
}
