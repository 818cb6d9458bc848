// Package archive packs a staged backup directory into a single compressed
// ZIP container and back.
//
// The round trip is byte-exact: unpacking a packed directory reproduces
// every file's exact bytes, with the manifest at its fixed root path.
// Entry names use forward-slash separators regardless of host OS.
//
// Deflate streams are produced and consumed with klauspost/compress, which
// is substantially faster than the standard library at identical ratios.
package archive

import (
	"archive/zip"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/flate"

	"github.com/thoreinstein/slicersave/internal/manifest"
)

// Ext is the artifact extension for compressed backups.
const Ext = ".zip"

// ErrCorrupt indicates a corrupt or truncated container.
// Callers must not assume any files were extracted when this is returned.
var ErrCorrupt = errors.New("corrupt archive")

// IsArchive reports whether path looks like a compressed artifact rather
// than a plain directory artifact.
func IsArchive(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return strings.EqualFold(filepath.Ext(path), Ext)
}

// Pack compresses the tree rooted at srcDir into a single container at
// outPath. On failure no partial container is left behind.
func Pack(srcDir, outPath string) (err error) {
	out, err := os.Create(outPath)
	if err != nil {
		return errors.Wrapf(err, "creating %s", outPath)
	}
	defer func() {
		out.Close()
		if err != nil {
			os.Remove(outPath)
		}
	}()

	zw := zip.NewWriter(out)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.DefaultCompression)
	})

	err = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return errors.Wrapf(walkErr, "walking %s", path)
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return errors.Wrapf(err, "relativizing %s", path)
		}

		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return errors.Wrapf(err, "adding %s", rel)
		}

		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "opening %s", path)
		}
		defer f.Close()

		if _, err := io.Copy(w, f); err != nil {
			return errors.Wrapf(err, "compressing %s", rel)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err = zw.Close(); err != nil {
		return errors.Wrapf(err, "finalizing %s", outPath)
	}
	if err = out.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", outPath)
	}
	return nil
}

// Unpack extracts a container into destDir, creating it if needed.
// Entry paths are confined to destDir; entries escaping it are rejected.
func Unpack(archivePath, destDir string) error {
	zr, err := openReader(archivePath)
	if err != nil {
		return err
	}
	defer zr.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", destDir)
	}

	for _, entry := range zr.File {
		if err := extractEntry(entry, destDir); err != nil {
			return errors.Wrapf(err, "extracting from %s", archivePath)
		}
	}
	return nil
}

// ReadManifest extracts and parses the manifest from a container without
// unpacking the rest of it.
func ReadManifest(archivePath string) (*manifest.Manifest, error) {
	zr, err := openReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	for _, entry := range zr.File {
		if entry.Name != manifest.Filename {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return nil, errors.Wrapf(ErrCorrupt, "%s: %v", archivePath, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, errors.Wrapf(ErrCorrupt, "%s: %v", archivePath, err)
		}
		return manifest.Parse(data)
	}

	return nil, errors.Wrapf(manifest.ErrMissing, "%s", archivePath)
}

// Check reads every entry in the container, validating structure and CRCs.
func Check(archivePath string) error {
	zr, err := openReader(archivePath)
	if err != nil {
		return err
	}
	defer zr.Close()

	for _, entry := range zr.File {
		rc, err := entry.Open()
		if err != nil {
			return errors.Wrapf(ErrCorrupt, "%s: %s: %v", archivePath, entry.Name, err)
		}
		_, err = io.Copy(io.Discard, rc)
		rc.Close()
		if err != nil {
			return errors.Wrapf(ErrCorrupt, "%s: %s: %v", archivePath, entry.Name, err)
		}
	}
	return nil
}

func openReader(archivePath string) (*zip.ReadCloser, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "opening %s", archivePath)
		}
		return nil, errors.Wrapf(ErrCorrupt, "%s: %v", archivePath, err)
	}
	zr.RegisterDecompressor(zip.Deflate, func(r io.Reader) io.ReadCloser {
		return flate.NewReader(r)
	})
	return zr, nil
}

func extractEntry(entry *zip.File, destDir string) error {
	name := filepath.FromSlash(entry.Name)
	target := filepath.Join(destDir, name)

	// Reject entries that escape the destination (zip slip).
	if rel, err := filepath.Rel(destDir, target); err != nil || strings.HasPrefix(rel, "..") {
		return errors.Newf("entry %q escapes destination", entry.Name)
	}

	if entry.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrapf(err, "creating parent of %s", target)
	}

	rc, err := entry.Open()
	if err != nil {
		return errors.Wrapf(ErrCorrupt, "%s: %v", entry.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrapf(err, "creating %s", target)
	}

	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return errors.Wrapf(ErrCorrupt, "%s: %v", entry.Name, err)
	}
	return out.Close()
}
