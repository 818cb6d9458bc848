package backup

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/slicersave/internal/archive"
	"github.com/thoreinstein/slicersave/internal/manifest"
	"github.com/thoreinstein/slicersave/pkg/fileutil"
)

// Verify checks an artifact's contents against its manifest.
//
// Integrity problems (missing files, digest mismatches, untracked extras)
// are accumulated into the report so it is always complete. Structural
// problems — the artifact does not exist, the container is corrupt, the
// manifest is missing or unparseable — are returned as errors instead.
//
// Compressed artifacts are extracted into a scratch directory before
// hashing; the scratch directory is removed on every exit path.
func Verify(artifactPath string, opts VerifyOptions) (*Report, error) {
	info, err := os.Stat(artifactPath)
	if err != nil {
		return nil, errors.Wrapf(err, "artifact %s", artifactPath)
	}

	checkDir := artifactPath
	if !info.IsDir() {
		if !archive.IsArchive(artifactPath) {
			return nil, errors.Wrapf(ErrNotAnArtifact, "%s", artifactPath)
		}

		// CRC-check the container before extracting anything.
		if err := archive.Check(artifactPath); err != nil {
			return nil, err
		}

		scratch, err := os.MkdirTemp("", "slicersave-verify-*")
		if err != nil {
			return nil, errors.Wrap(err, "creating scratch directory")
		}
		defer os.RemoveAll(scratch)

		if err := archive.Unpack(artifactPath, scratch); err != nil {
			return nil, err
		}
		checkDir = scratch
	}

	m, err := manifest.Load(checkDir)
	if err != nil {
		return nil, err
	}

	return checkTree(checkDir, m, opts)
}

// checkTree recomputes digests for every manifest entry under dir and
// scans for files the manifest does not know about.
func checkTree(dir string, m *manifest.Manifest, opts VerifyOptions) (*Report, error) {
	report := &Report{Strict: opts.Strict}

	recorded := make(map[string]struct{}, len(m.Files))
	for _, entry := range m.Files {
		recorded[entry.Path] = struct{}{}

		path := filepath.Join(dir, filepath.FromSlash(entry.Path))
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				report.Missing = append(report.Missing, entry.Path)
				continue
			}
			return nil, errors.Wrapf(err, "stat %s", path)
		}

		digest, err := fileutil.HashFile(path)
		if err != nil {
			return nil, err
		}
		if digest != entry.SHA256 {
			report.Mismatched = append(report.Mismatched, entry.Path)
		}
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, "walking %s", path)
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return errors.Wrapf(err, "relativizing %s", path)
		}
		slashRel := filepath.ToSlash(rel)

		if slashRel == manifest.Filename {
			return nil
		}
		if _, ok := recorded[slashRel]; !ok {
			report.Extra = append(report.Extra, slashRel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return report, nil
}
