// Package release contains core domain types for firmware release naming
// and build sequencing.
//
// It defines Branch (the release channel), Identifier (the canonical
// <base>+mwu<suffix> version string), Phase (the ordered build lifecycle)
// and Request (one build tool invocation for a site and phase).
package release
