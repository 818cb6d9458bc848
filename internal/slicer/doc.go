// Package slicer identifies supported slicer applications and discovers
// their configuration trees on the host.
//
// A slicer identity is validated once at the boundary via [ParseType] and
// carried as a plain string value afterwards; downstream code never
// re-validates it.
//
// Detection resolves the per-OS configuration directory for each supported
// slicer (including the Flatpak location on Linux), checks which
// installations are present, and extracts a best-effort application version
// from the slicer's main .conf file.
//
// The selection policy — which top-level paths of a configuration tree are
// included in a backup and which glob patterns are excluded — is a static
// table keyed by slicer identity, exposed via [PolicyFor].
package slicer
