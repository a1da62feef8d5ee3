// Package catalog indexes parsed gabc scores in a SQLite database so they
// can be listed, searched, and retrieved by id or digest.
//
// A score's identity is the BLAKE3 digest of its source text: indexing the
// same text twice returns the existing entry.
package catalog

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/gabcly/core/cas"
	"github.com/FocuswithJustin/gabcly/core/errors"
	"github.com/FocuswithJustin/gabcly/core/gabc"
	"github.com/FocuswithJustin/gabcly/core/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS scores (
	id          TEXT PRIMARY KEY,
	path        TEXT NOT NULL,
	blake3      TEXT NOT NULL UNIQUE,
	sha256      TEXT NOT NULL,
	name        TEXT NOT NULL DEFAULT '',
	office_part TEXT NOT NULL DEFAULT '',
	mode        TEXT NOT NULL DEFAULT '',
	syllables   INTEGER NOT NULL,
	notes       INTEGER NOT NULL,
	size        INTEGER NOT NULL,
	lyrics      TEXT NOT NULL,
	source      TEXT NOT NULL,
	indexed_at  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS attributes (
	score_id TEXT NOT NULL REFERENCES scores(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	key      TEXT NOT NULL,
	value    TEXT NOT NULL,
	PRIMARY KEY (score_id, position)
);
CREATE INDEX IF NOT EXISTS attributes_key ON attributes(key);
`

// timeLayout is fixed-width so that indexed_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one indexed score.
type Entry struct {
	ID         string           `json:"id"`
	Path       string           `json:"path"`
	Digests    cas.Digests      `json:"digests"`
	Name       string           `json:"name,omitempty"`
	OfficePart string           `json:"office_part,omitempty"`
	Mode       string           `json:"mode,omitempty"`
	Attributes []gabc.Attribute `json:"attributes"`
	Syllables  int              `json:"syllables"`
	Notes      int              `json:"notes"`
	Size       int64            `json:"size"`
	Lyrics     string           `json:"lyrics"`
	IndexedAt  time.Time        `json:"indexed_at"`
}

// Catalog is an open catalog database.
type Catalog struct {
	db       *sql.DB
	path     string
	readOnly bool
	now      func() time.Time
}

// Open opens the catalog at path for reading and writing, creating the
// database and its schema if needed.
func Open(ctx context.Context, path string) (*Catalog, error) {
	db, err := sqlite.OpenWriter(ctx, path)
	if err != nil {
		return nil, errors.NewIO("open catalog", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.NewIO("create catalog schema", path, err)
	}
	return &Catalog{db: db, path: path, now: time.Now}, nil
}

// OpenReadOnly opens an existing catalog without write access.
func OpenReadOnly(ctx context.Context, path string) (*Catalog, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("catalog", path)
		}
		return nil, errors.NewIO("stat catalog", path, err)
	}
	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return nil, errors.NewIO("open catalog", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.NewIO("open catalog", path, err)
	}
	return &Catalog{db: db, path: path, readOnly: true, now: time.Now}, nil
}

// Path returns the database path the catalog was opened with.
func (c *Catalog) Path() string {
	return c.path
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	if c.db != nil {
		err := c.db.Close()
		c.db = nil
		return err
	}
	return nil
}

// Index records doc, parsed from src read at path. If a score with the
// same BLAKE3 digest is already indexed, that entry is returned and
// created is false.
func (c *Catalog) Index(ctx context.Context, path, src string, doc *gabc.Document) (entry *Entry, created bool, err error) {
	if c.readOnly {
		return nil, false, errors.NewValidation("catalog", "opened read-only")
	}
	digests := cas.Sum([]byte(src))
	if existing, err := c.byDigest(ctx, digests.BLAKE3); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, errors.ErrNotFound) {
		return nil, false, err
	}

	entry = newEntry(path, src, digests, doc, c.now().UTC())

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, errors.NewIO("begin transaction", c.path, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `INSERT INTO scores
		(id, path, blake3, sha256, name, office_part, mode, syllables, notes, size, lyrics, source, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Path, entry.Digests.BLAKE3, entry.Digests.SHA256,
		entry.Name, entry.OfficePart, entry.Mode,
		entry.Syllables, entry.Notes, entry.Size, entry.Lyrics, src,
		entry.IndexedAt.Format(timeLayout),
	)
	if err != nil {
		return nil, false, errors.NewIO("insert score", c.path, err)
	}
	for i, a := range entry.Attributes {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO attributes (score_id, position, key, value) VALUES (?, ?, ?, ?)`,
			entry.ID, i, a.Key, a.Value,
		)
		if err != nil {
			return nil, false, errors.NewIO("insert attribute", c.path, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, false, errors.NewIO("commit", c.path, err)
	}
	return entry, true, nil
}

func newEntry(path, src string, digests cas.Digests, doc *gabc.Document, now time.Time) *Entry {
	e := &Entry{
		ID:         uuid.NewString(),
		Path:       path,
		Digests:    digests,
		Attributes: append([]gabc.Attribute{}, doc.Attributes...),
		Syllables:  len(doc.Syllables),
		Notes:      len(doc.Notes()),
		Size:       int64(len(src)),
		Lyrics:     doc.Text(),
		IndexedAt:  now,
	}
	e.Name, _ = doc.Attribute("name")
	e.OfficePart, _ = doc.Attribute("office-part")
	e.Mode, _ = doc.Attribute("mode")
	e.Name = strings.TrimSpace(e.Name)
	e.OfficePart = strings.TrimSpace(e.OfficePart)
	e.Mode = strings.TrimSpace(e.Mode)
	return e
}
