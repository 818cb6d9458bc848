package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"os"

	"github.com/cockroachdb/errors"
)

// HashFile computes the hex-encoded SHA256 digest of a file.
// The file is read in a single streaming pass, so memory use is bounded
// regardless of file size.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, "reading %s", path)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// CopyFile copies src to dst, returning the SHA256 digest, byte size, and
// mode of the source. The digest is computed while copying, so the source is
// read only once. The destination's permissions are set to match the source.
func CopyFile(src, dst string) (digest string, size int64, mode fs.FileMode, err error) {
	srcFile, err := os.Open(src)
	if err != nil {
		return "", 0, 0, errors.Wrapf(err, "opening %s", src)
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return "", 0, 0, errors.Wrapf(err, "stat %s", src)
	}
	mode = srcInfo.Mode()

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", 0, 0, errors.Wrapf(err, "creating %s", dst)
	}

	h := sha256.New()
	w := io.MultiWriter(dstFile, h)

	size, err = io.Copy(w, srcFile)
	if err != nil {
		dstFile.Close()
		return "", 0, 0, errors.Wrapf(err, "copying %s", src)
	}

	if err := dstFile.Close(); err != nil {
		return "", 0, 0, errors.Wrapf(err, "closing %s", dst)
	}

	if err := os.Chmod(dst, mode); err != nil {
		return "", 0, 0, errors.Wrapf(err, "setting permissions on %s", dst)
	}

	return hex.EncodeToString(h.Sum(nil)), size, mode, nil
}
