//go:build !cgo_sqlite

package storage

// Compiled by default: pure Go SQLite via modernc.org/sqlite. No C
// compiler required, cross-compiles everywhere, slightly slower scans.

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver registered for this build.
	DriverName = "sqlite"

	// BuildMode describes the current build configuration.
	BuildMode = "purego"
)
