package backup

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/slicersave/internal/archive"
	"github.com/thoreinstein/slicersave/internal/logging"
	"github.com/thoreinstein/slicersave/internal/manifest"
	"github.com/thoreinstein/slicersave/internal/slicer"
	"github.com/thoreinstein/slicersave/pkg/fileutil"
)

// writeSourceTree builds a realistic OrcaSlicer config tree and returns its
// root. The conf file is exactly 17400 bytes. Engine logs go to the test log.
func writeSourceTree(t *testing.T) string {
	t.Helper()
	slog.SetDefault(logging.ForTest(t))
	root := t.TempDir()

	conf := make([]byte, 17400)
	for i := range conf {
		conf[i] = byte('a' + i%26)
	}

	files := map[string][]byte{
		"OrcaSlicer.conf":            conf,
		"user/preset1.json":          []byte(`{"layer_height": 0.2}`),
		"user/machine/printer.json":  []byte(`{"nozzle": 0.4}`),
		"user/debug.log":             []byte("excluded by pattern"),
		"cache/thumbnails.bin":       []byte("never backed up"),
		"custom_scripts/post.py":     []byte("print('post-process')"),
		"unrelated_toplevel.txt":     []byte("not under any included root"),
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, content, 0o644))
	}
	return root
}

func orcaSource(root string) Source {
	return Source{
		Slicer:   "orcaslicer",
		Platform: "linux",
		Root:     root,
		Policy:   slicer.PolicyFor(slicer.TypeOrcaSlicer),
	}
}

func manifestPaths(m *manifest.Manifest) []string {
	paths := make([]string, 0, len(m.Files))
	for _, f := range m.Files {
		paths = append(paths, f.Path)
	}
	sort.Strings(paths)
	return paths
}

func TestCreate_ManifestContents(t *testing.T) {
	root := writeSourceTree(t)

	result, err := Create(orcaSource(root), t.TempDir(), CreateOptions{})
	require.NoError(t, err)

	m := result.Manifest
	require.Equal(t, "orcaslicer", m.Slicer)
	require.Equal(t, "linux", m.Platform)
	require.False(t, m.Compressed)

	wantPaths := []string{
		"OrcaSlicer.conf",
		"custom_scripts/post.py",
		"user/machine/printer.json",
		"user/preset1.json",
	}
	require.Equal(t, wantPaths, manifestPaths(m))

	require.Equal(t, len(m.Files), m.TotalFiles)
	var wantSize int64
	for _, f := range m.Files {
		wantSize += f.Size

		// Digests must match direct recomputation from the originals
		direct, err := fileutil.HashFile(filepath.Join(root, filepath.FromSlash(f.Path)))
		require.NoError(t, err)
		require.Equal(t, direct, f.SHA256, "digest mismatch for %s", f.Path)
	}
	require.Equal(t, wantSize, m.TotalSize)

	// Concrete sizes: conf is 17400 bytes
	for _, f := range m.Files {
		if f.Path == "OrcaSlicer.conf" {
			require.EqualValues(t, 17400, f.Size)
		}
	}
}

func TestCreate_ExcludedNeverInManifest(t *testing.T) {
	root := writeSourceTree(t)

	result, err := Create(orcaSource(root), t.TempDir(), CreateOptions{})
	require.NoError(t, err)

	for _, f := range result.Manifest.Files {
		require.NotEqual(t, "user/debug.log", f.Path, "excluded file leaked into manifest")
		require.NotContains(t, f.Path, "cache/", "excluded directory was descended into")
	}
}

func TestCreate_MissingOptionalRoot(t *testing.T) {
	root := writeSourceTree(t)
	require.NoError(t, os.RemoveAll(filepath.Join(root, "custom_scripts")))

	result, err := Create(orcaSource(root), t.TempDir(), CreateOptions{})
	require.NoError(t, err)

	for _, f := range result.Manifest.Files {
		require.NotContains(t, f.Path, "custom_scripts/")
	}
}

func TestCreate_CompressedVerifiesClean(t *testing.T) {
	root := writeSourceTree(t)

	result, err := Create(orcaSource(root), t.TempDir(), CreateOptions{Compress: true, Verify: true})
	require.NoError(t, err)

	require.True(t, result.Manifest.Compressed)
	require.Equal(t, ".zip", filepath.Ext(result.ArtifactPath))
	require.NoError(t, result.VerifyErr)
	require.NotNil(t, result.VerifyReport)
	require.True(t, result.VerifyReport.Valid())
	require.Empty(t, result.VerifyReport.Extra)

	// Staging must not leak into the destination
	entries, err := os.ReadDir(filepath.Dir(result.ArtifactPath))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestVerify_TamperDetection(t *testing.T) {
	root := writeSourceTree(t)

	result, err := Create(orcaSource(root), t.TempDir(), CreateOptions{})
	require.NoError(t, err)

	// Flip one byte of one backed-up file inside the directory artifact
	victim := filepath.Join(result.ArtifactPath, "user", "preset1.json")
	data, err := os.ReadFile(victim)
	require.NoError(t, err)
	data[0] ^= 0xff
	require.NoError(t, os.WriteFile(victim, data, 0o644))

	report, err := Verify(result.ArtifactPath, VerifyOptions{})
	require.NoError(t, err)

	require.False(t, report.Valid())
	require.Equal(t, []string{"user/preset1.json"}, report.Mismatched)
	require.Empty(t, report.Missing)
}

func TestVerify_MissingFile(t *testing.T) {
	root := writeSourceTree(t)

	result, err := Create(orcaSource(root), t.TempDir(), CreateOptions{})
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(result.ArtifactPath, "OrcaSlicer.conf")))

	report, err := Verify(result.ArtifactPath, VerifyOptions{})
	require.NoError(t, err)

	require.False(t, report.Valid())
	require.Equal(t, []string{"OrcaSlicer.conf"}, report.Missing)
}

func TestVerify_ExtraFilesInformational(t *testing.T) {
	root := writeSourceTree(t)

	result, err := Create(orcaSource(root), t.TempDir(), CreateOptions{})
	require.NoError(t, err)

	extra := filepath.Join(result.ArtifactPath, "user", "untracked.json")
	require.NoError(t, os.WriteFile(extra, []byte("{}"), 0o644))

	report, err := Verify(result.ArtifactPath, VerifyOptions{})
	require.NoError(t, err)
	require.True(t, report.Valid(), "extras must not invalidate by default")
	require.Equal(t, []string{"user/untracked.json"}, report.Extra)

	strict, err := Verify(result.ArtifactPath, VerifyOptions{Strict: true})
	require.NoError(t, err)
	require.False(t, strict.Valid(), "strict mode must fail on extras")
}

func TestVerify_CorruptContainer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.zip")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))

	_, err := Verify(path, VerifyOptions{})
	require.True(t, errors.Is(err, archive.ErrCorrupt), "got %v", err)
}

func TestVerify_TruncatedContainer(t *testing.T) {
	root := writeSourceTree(t)

	created, err := Create(orcaSource(root), t.TempDir(), CreateOptions{Compress: true})
	require.NoError(t, err)

	data, err := os.ReadFile(created.ArtifactPath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(created.ArtifactPath, data[:len(data)/2], 0o644))

	_, err = Verify(created.ArtifactPath, VerifyOptions{})
	require.True(t, errors.Is(err, archive.ErrCorrupt), "got %v", err)
}

func TestVerify_ManifestMissingIsFatal(t *testing.T) {
	root := writeSourceTree(t)

	result, err := Create(orcaSource(root), t.TempDir(), CreateOptions{})
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(result.ArtifactPath, manifest.Filename)))

	_, err = Verify(result.ArtifactPath, VerifyOptions{})
	require.True(t, errors.Is(err, manifest.ErrMissing), "got %v", err)
}

func TestRestore_DryRunTouchesNothing(t *testing.T) {
	root := writeSourceTree(t)

	created, err := Create(orcaSource(root), t.TempDir(), CreateOptions{Compress: true})
	require.NoError(t, err)

	destDir := t.TempDir()
	result, err := Restore(created.ArtifactPath, destDir, RestoreOptions{DryRun: true})
	require.NoError(t, err)

	require.True(t, result.DryRun)
	require.Len(t, result.Plan, created.Manifest.TotalFiles)
	require.Empty(t, result.Applied)
	require.Empty(t, result.SafetyBackupPath)

	entries, err := os.ReadDir(destDir)
	require.NoError(t, err)
	require.Empty(t, entries, "dry run must not touch the destination")
}

func TestRestore_ApplyMergesIntoDestination(t *testing.T) {
	root := writeSourceTree(t)

	created, err := Create(orcaSource(root), t.TempDir(), CreateOptions{Compress: true})
	require.NoError(t, err)

	// Non-empty destination: one file that will be overwritten, one
	// unrelated file that must survive.
	destDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(destDir, "user"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(destDir, "user", "preset1.json"), []byte("stale"), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(destDir, "notes.txt"), []byte("keep me"), 0o644))

	result, err := Restore(created.ArtifactPath, destDir, RestoreOptions{SkipSafetyBackup: true})
	require.NoError(t, err)
	require.Len(t, result.Applied, created.Manifest.TotalFiles)

	// Overwritten file matches the backed-up content
	restored, err := os.ReadFile(filepath.Join(destDir, "user", "preset1.json"))
	require.NoError(t, err)
	require.JSONEq(t, `{"layer_height": 0.2}`, string(restored))

	// Unrelated file untouched
	kept, err := os.ReadFile(filepath.Join(destDir, "notes.txt"))
	require.NoError(t, err)
	require.Equal(t, "keep me", string(kept))

	// Overwrite flag was computed per file
	var sawOverwrite bool
	for _, op := range result.Plan {
		if op.Path == "user/preset1.json" {
			sawOverwrite = op.Overwrite
		}
	}
	require.True(t, sawOverwrite)
}

func TestRestore_SafetyBackupBeforeOverwrite(t *testing.T) {
	root := writeSourceTree(t)

	created, err := Create(orcaSource(root), t.TempDir(), CreateOptions{Compress: true})
	require.NoError(t, err)

	// The destination is itself a valid-looking config tree
	destDir := filepath.Join(t.TempDir(), "OrcaSlicer")
	require.NoError(t, os.MkdirAll(filepath.Join(destDir, "user"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(destDir, "OrcaSlicer.conf"), []byte(`{"old": true}`), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(destDir, "user", "old_preset.json"), []byte("{}"), 0o644))

	result, err := Restore(created.ArtifactPath, destDir, RestoreOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, result.SafetyBackupPath)

	// The safety artifact independently verifies
	report, err := Verify(result.SafetyBackupPath, VerifyOptions{})
	require.NoError(t, err)
	require.True(t, report.Valid())

	// ...and records exactly the destination's pre-restore file set
	m, err := ReadManifest(result.SafetyBackupPath)
	require.NoError(t, err)
	require.Equal(t, []string{"OrcaSlicer.conf", "user/old_preset.json"}, manifestPaths(m))
}

func TestRestore_InvalidArtifactAborts(t *testing.T) {
	root := writeSourceTree(t)

	created, err := Create(orcaSource(root), t.TempDir(), CreateOptions{})
	require.NoError(t, err)

	// Tamper with the directory artifact
	victim := filepath.Join(created.ArtifactPath, "OrcaSlicer.conf")
	require.NoError(t, os.WriteFile(victim, []byte("tampered"), 0o644))

	destDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(destDir, "existing.txt"), []byte("x"), 0o644))

	_, err = Restore(created.ArtifactPath, destDir, RestoreOptions{SkipSafetyBackup: true})
	require.Error(t, err)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	require.Equal(t, StepVerify, stepErr.Step)
	require.True(t, errors.Is(err, ErrInvalidBackup))

	// Destination untouched
	entries, err := os.ReadDir(destDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestRestore_CorruptContainerAborts(t *testing.T) {
	archivePath := filepath.Join(t.TempDir(), "bogus.zip")
	require.NoError(t, os.WriteFile(archivePath, []byte("not a zip"), 0o644))

	_, err := Restore(archivePath, t.TempDir(), RestoreOptions{SkipSafetyBackup: true})
	require.Error(t, err)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	require.Equal(t, StepVerify, stepErr.Step)
}

func TestHashDeterminism(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.bin")
	require.NoError(t, os.WriteFile(path, []byte("stable bytes"), 0o644))

	first, err := fileutil.HashFile(path)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		again, err := fileutil.HashFile(path)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}
