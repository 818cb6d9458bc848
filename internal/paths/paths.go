package paths

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
)

// Sentinel errors for path resolution.
var (
	// ErrHomeDirNotFound indicates the user's home directory could not be determined.
	ErrHomeDirNotFound = errors.New("home directory not found")
)

// DefaultDirPerm is the default permission for newly created directories.
const DefaultDirPerm = 0o755

// EnsureDir creates the directory and any necessary parents with specified permissions.
// If perm is 0, DefaultDirPerm is used.
// This function is idempotent; it returns nil if the directory already exists.
func EnsureDir(path string, perm os.FileMode) error {
	if perm == 0 {
		perm = DefaultDirPerm
	}
	return os.MkdirAll(path, perm)
}

// Home returns the user's home directory.
// Note: It returns an empty string on error.
// Use ResolveHome for proper error handling.
func Home() string {
	h, _ := ResolveHome()
	return h
}

// ResolveHome returns the user's home directory.
// Returns ErrHomeDirNotFound if the directory cannot be determined.
func ResolveHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(ErrHomeDirNotFound, err.Error())
	}
	return home, nil
}

// ConfigHome returns the XDG config home directory.
// On Linux: ~/.config
// On macOS: ~/Library/Application Support
// On Windows: %LOCALAPPDATA%
func ConfigHome() string {
	return xdg.ConfigHome
}

// DefaultBackupDir returns the default destination for backup artifacts:
// a fixed subdirectory of the user's home directory.
func DefaultBackupDir() string {
	home := Home()
	if home == "" {
		return ""
	}
	return filepath.Join(home, "OrcaBackups")
}

// BackupName generates a timestamped artifact name for a slicer backup.
// The slicer identity is title-cased with underscores
// ("orca-flashforge" becomes "Orca_Flashforge") and the timestamp has
// second precision. Compressed artifacts get a .zip extension.
func BackupName(slicerName string, t time.Time, compressed bool) string {
	name := titleUnderscore(slicerName)
	stamp := t.Format("2006-01-02_15-04-05")

	ext := ""
	if compressed {
		ext = ".zip"
	}

	return name + "_backup_" + stamp + ext
}

// titleUnderscore replaces dashes with underscores and capitalizes each word.
func titleUnderscore(s string) string {
	words := strings.Split(strings.ReplaceAll(s, "-", "_"), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, "_")
}
