// Package selfupdate keeps the build toolchain on a host current.
//
// It validates installed files against checksums from the published
// manifest, downloads changed artifacts to a temporary directory and applies
// them atomically. An update never starts while a firmware build is running.
package selfupdate
