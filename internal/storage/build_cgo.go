//go:build cgo_sqlite

package storage

// Compiled with -tags cgo_sqlite: C SQLite via mattn/go-sqlite3. Faster
// embedding scans on large corpora at the cost of requiring a C compiler.
//
// Build command:
//
//	CGO_ENABLED=1 go build -tags cgo_sqlite ./...

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the SQLite driver registered for this build.
	DriverName = "sqlite3"

	// BuildMode describes the current build configuration.
	BuildMode = "cgo"
)
