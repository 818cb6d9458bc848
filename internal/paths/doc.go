// Package paths provides cross-platform path resolution for slicersave.
//
// It resolves the user's home directory, the XDG config home used for the
// slicersave configuration file, and the default backup destination, and
// generates timestamped artifact names for backups.
//
// # XDG Base Directory Compliance
//
// The package wraps github.com/adrg/xdg for cross-platform XDG Base Directory
// Specification compliance. On Linux and macOS, paths follow XDG conventions
// (~/.config, ~/.local/share, ~/.cache).
//
// # Backup Naming
//
// Artifact names carry the slicer identity plus a second-precision timestamp:
//
//	paths.BackupName("orca-flashforge", t, true) // Orca_Flashforge_backup_2026-01-23_10-07-12.zip
//
// Collision avoidance between artifacts with identical names is the caller's
// responsibility (distinct destination directories).
package paths
