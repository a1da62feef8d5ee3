//go:build cgo_sqlite

// CGO SQLite driver using mattn/go-sqlite3, selected with the cgo_sqlite
// build tag. Requires CGO_ENABLED=1.
package sqlite

import (
	sqliteexternal "github.com/FocuswithJustin/gabcly/contrib/sqlite-external"
)

const (
	driverName    = sqliteexternal.DriverName
	driverType    = sqliteexternal.DriverType
	driverPackage = sqliteexternal.DriverPackage + " (via contrib/sqlite-external)"
)
