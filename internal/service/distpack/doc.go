// Package distpack prepares the toolchain manifest consumed by the updater.
//
// It computes checksums for platform-specific binaries, wires role-to-files
// mappings, and persists build host settings. The resulting YAML is uploaded
// to the update folder served to build hosts.
package distpack
