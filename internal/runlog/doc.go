// Package runlog maintains the append-only build log file.
//
// Every run appends a banner with a unique run identifier, followed by
// structured progress lines and the captured output of external build
// invocations. The file is never rotated or truncated.
package runlog
