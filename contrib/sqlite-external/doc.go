// Package sqliteexternal registers the CGO SQLite driver
// (github.com/mattn/go-sqlite3) for catalog databases.
//
// It is only compiled with the cgo_sqlite tag:
//
//	CGO_ENABLED=1 go build -tags cgo_sqlite ./cmd/gabcly
//
// Without the tag, core/sqlite uses the pure Go modernc.org/sqlite driver
// and the binary needs no C toolchain.
package sqliteexternal
