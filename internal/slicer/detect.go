package slicer

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/thoreinstein/slicersave/internal/paths"
)

// ConfigDir returns the configuration directory for a slicer on this host.
// The directory is returned whether or not it exists.
//
// Locations:
//   - windows: %APPDATA%\<Name>
//   - darwin:  ~/Library/Application Support/<Name>
//   - linux:   ~/.config/<Name>, preferring the Flatpak location for
//     OrcaSlicer when present
func ConfigDir(t Type) string {
	return configDir(t, paths.Home(), runtime.GOOS)
}

func configDir(t Type, home, goos string) string {
	switch goos {
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", t.DisplayName())
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", t.DisplayName())
	default:
		if t == TypeOrcaSlicer {
			flatpak := filepath.Join(home,
				".var", "app", "io.github.softfever.OrcaSlicer", "config", "OrcaSlicer")
			if dirExists(flatpak) {
				return flatpak
			}
		}
		return filepath.Join(home, ".config", t.DisplayName())
	}
}

// Detect returns installation information for a single slicer.
func Detect(t Type) Info {
	return DetectAt(t, ConfigDir(t))
}

// DetectAt returns installation information for a slicer rooted at an
// explicit configuration directory. Used directly by tests and by restores
// into non-standard destinations.
func DetectAt(t Type, configDir string) Info {
	info := Info{
		Type:      t,
		ConfigDir: configDir,
		Exists:    dirExists(configDir),
	}

	if info.Exists {
		if v, err := ExtractVersion(info.ConfFile()); err == nil {
			info.Version = v
		}
	}

	return info
}

// DetectAll returns detection results for all supported slicers in
// deterministic order.
func DetectAll() []Info {
	types := Types()
	infos := make([]Info, 0, len(types))
	for _, t := range types {
		infos = append(infos, Detect(t))
	}
	return infos
}

// Installed returns only slicers with a complete installation.
func Installed() []Info {
	all := DetectAll()
	installed := make([]Info, 0, len(all))
	for _, info := range all {
		if info.Valid() {
			installed = append(installed, info)
		}
	}
	return installed
}

func dirExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
