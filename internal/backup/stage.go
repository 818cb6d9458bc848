package backup

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/slicersave/internal/manifest"
	"github.com/thoreinstein/slicersave/internal/slicer"
	"github.com/thoreinstein/slicersave/pkg/fileutil"
)

// stageTree copies the policy-selected parts of srcRoot into stagingDir and
// returns a manifest entry per staged file. Digests are computed while
// copying, so every source file is read exactly once.
//
// Included roots that do not exist are silently skipped. Exclusion patterns
// are applied at both directory-descent and file level: an excluded
// directory is never walked into.
func stageTree(srcRoot, stagingDir string, policy slicer.Policy) ([]manifest.FileEntry, error) {
	var entries []manifest.FileEntry

	for _, root := range policy.IncludeRoots {
		srcPath := filepath.Join(srcRoot, root)

		info, err := os.Stat(srcPath)
		if err != nil {
			if os.IsNotExist(err) {
				// Optional component, e.g. custom_scripts
				continue
			}
			return nil, errors.Wrapf(err, "stat %s", srcPath)
		}

		if !info.IsDir() {
			if excluded(info.Name(), policy.ExcludePatterns) {
				continue
			}
			entry, err := stageFile(srcRoot, srcPath, stagingDir)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
			continue
		}

		dirEntries, err := stageDir(srcRoot, srcPath, stagingDir, policy.ExcludePatterns)
		if err != nil {
			return nil, err
		}
		entries = append(entries, dirEntries...)
	}

	return entries, nil
}

// stageDir walks a directory tree, pruning excluded directories, and stages
// every surviving file.
func stageDir(srcRoot, dir, stagingDir string, excludes []string) ([]manifest.FileEntry, error) {
	var entries []manifest.FileEntry

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, "walking %s", path)
		}

		if excluded(d.Name(), excludes) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		entry, err := stageFile(srcRoot, path, stagingDir)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// stageFile copies one file into the staging tree and builds its entry.
// The recorded path is relative to srcRoot with forward-slash separators,
// so archives stay portable across host operating systems.
func stageFile(srcRoot, src, stagingDir string) (manifest.FileEntry, error) {
	rel, err := filepath.Rel(srcRoot, src)
	if err != nil {
		return manifest.FileEntry{}, errors.Wrapf(err, "relativizing %s", src)
	}

	dst := filepath.Join(stagingDir, rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return manifest.FileEntry{}, errors.Wrapf(err, "creating parent of %s", dst)
	}

	digest, size, _, err := fileutil.CopyFile(src, dst)
	if err != nil {
		return manifest.FileEntry{}, err
	}

	return manifest.FileEntry{
		Path:   filepath.ToSlash(rel),
		Size:   size,
		SHA256: digest,
	}, nil
}

// excluded reports whether a base name matches any exclusion pattern.
func excluded(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
