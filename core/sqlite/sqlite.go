// Package sqlite opens SQLite databases for the catalog through either a
// pure Go or a CGO driver, chosen at build time.
//
// Build modes:
//   - Default (CGO_ENABLED=0): modernc.org/sqlite
//   - CGO (CGO_ENABLED=1 -tags cgo_sqlite): mattn/go-sqlite3 via contrib/sqlite-external
//
// Use Open instead of sql.Open so the registered driver name always matches.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// DriverName returns the database/sql driver name in use.
func DriverName() string {
	return driverName
}

// DriverType returns "cgo" for mattn/go-sqlite3 and "purego" for
// modernc.org/sqlite.
func DriverType() string {
	return driverType
}

// IsCGO returns true if the CGO implementation is being used.
func IsCGO() bool {
	return driverType == "cgo"
}

// Open opens a SQLite database using the build's driver.
func Open(dataSourceName string) (*sql.DB, error) {
	return sql.Open(driverName, dataSourceName)
}

// OpenReadOnly opens the database file at path in read-only mode.
func OpenReadOnly(path string) (*sql.DB, error) {
	return Open("file:" + path + "?mode=ro")
}

// OpenWriter opens path for a single writer: one pooled connection with
// foreign keys enforced and a busy timeout, which both drivers honour as
// plain PRAGMAs.
func OpenWriter(ctx context.Context, path string) (*sql.DB, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}
	return db, nil
}

// Info describes the SQLite driver compiled into the binary.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	IsCGO      bool   `json:"is_cgo"`
	Package    string `json:"package"`
}

// GetInfo returns information about the current SQLite configuration.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      IsCGO(),
		Package:    driverPackage,
	}
}
