// Package builder orchestrates firmware release builds.
//
// A run derives the release version for the requested channel, then drives
// the external build tool through the ordered lifecycle phases for every
// site, sequentially and stopping at the first failure. All progress is
// written to the console and to the append-only run log.
package builder
