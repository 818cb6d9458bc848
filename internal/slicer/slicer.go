package slicer

import (
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// Type is a validated slicer identity. It is a closed set at the parsing
// boundary; once constructed it is carried as a plain string value.
type Type string

// Supported slicer identities.
const (
	TypeOrcaSlicer     Type = "orcaslicer"
	TypeOrcaFlashforge Type = "orca-flashforge"
)

// ErrUnknownType indicates a slicer identity outside the supported set.
var ErrUnknownType = errors.New("unknown slicer type")

// ParseType validates a raw slicer identity string.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeOrcaSlicer, TypeOrcaFlashforge:
		return Type(s), nil
	}
	return "", errors.Wrapf(ErrUnknownType, "%q", s)
}

// Types returns all supported slicer identities in deterministic order.
func Types() []Type {
	return []Type{TypeOrcaSlicer, TypeOrcaFlashforge}
}

// String returns the identity as stored in manifests.
func (t Type) String() string {
	return string(t)
}

// DisplayName returns the human-readable slicer name.
func (t Type) DisplayName() string {
	switch t {
	case TypeOrcaSlicer:
		return "OrcaSlicer"
	case TypeOrcaFlashforge:
		return "Orca-Flashforge"
	}
	return string(t)
}

// ConfFileName returns the name of the slicer's main configuration file.
func (t Type) ConfFileName() string {
	switch t {
	case TypeOrcaSlicer:
		return "OrcaSlicer.conf"
	case TypeOrcaFlashforge:
		return "Orca-Flashforge.conf"
	}
	return ""
}

// Info describes a slicer installation on this host.
type Info struct {
	// Type is the slicer identity.
	Type Type

	// ConfigDir is the root of the slicer's configuration tree.
	// It is always set, even when the slicer is not installed.
	ConfigDir string

	// Exists reports whether ConfigDir is present on disk.
	Exists bool

	// Version is the detected slicer version, empty when unknown.
	Version string
}

// ConfFile returns the path to the slicer's main configuration file.
func (i Info) ConfFile() string {
	return filepath.Join(i.ConfigDir, i.Type.ConfFileName())
}

// UserDir returns the path to the slicer's user profiles directory.
func (i Info) UserDir() string {
	return filepath.Join(i.ConfigDir, "user")
}

// Valid reports whether the installation is complete enough to back up:
// the config directory, main .conf file, and user profiles directory all
// exist. The custom scripts directory is optional.
func (i Info) Valid() bool {
	if !i.Exists {
		return false
	}
	if !fileExists(i.ConfFile()) {
		return false
	}
	return dirExists(i.UserDir())
}
