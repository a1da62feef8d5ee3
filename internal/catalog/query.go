package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/gabcly/core/cas"
	"github.com/FocuswithJustin/gabcly/core/errors"
	"github.com/FocuswithJustin/gabcly/core/gabc"
)

const entryColumns = `id, path, blake3, sha256, name, office_part, mode, syllables, notes, size, lyrics, indexed_at`

// List returns every entry, oldest first.
func (c *Catalog) List(ctx context.Context) ([]*Entry, error) {
	return c.query(ctx, `SELECT `+entryColumns+` FROM scores ORDER BY indexed_at, path`)
}

// Search returns entries whose name, lyrics, path, or any attribute value
// contains term, case-insensitively for ASCII.
func (c *Catalog) Search(ctx context.Context, term string) ([]*Entry, error) {
	if strings.TrimSpace(term) == "" {
		return nil, errors.NewValidation("term", "search term is empty")
	}
	pattern := "%" + escapeLike(term) + "%"
	return c.query(ctx, `SELECT `+entryColumns+` FROM scores
		WHERE name LIKE ?1 ESCAPE '\'
		   OR lyrics LIKE ?1 ESCAPE '\'
		   OR path LIKE ?1 ESCAPE '\'
		   OR id IN (SELECT score_id FROM attributes WHERE value LIKE ?1 ESCAPE '\')
		ORDER BY indexed_at, path`, pattern)
}

// Get returns the entry identified by ref: a full entry id, or a BLAKE3
// digest prefix of at least cas.MinPrefix hex characters.
func (c *Catalog) Get(ctx context.Context, ref string) (*Entry, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if _, err := uuid.Parse(ref); err == nil {
		entries, err := c.query(ctx, `SELECT `+entryColumns+` FROM scores WHERE id = ?`, ref)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			return nil, errors.NewNotFound("catalog entry", ref)
		}
		return entries[0], nil
	}
	if !cas.IsPrefix(ref) {
		return nil, errors.NewValidation("ref", "want an entry id or a hex digest prefix")
	}
	entries, err := c.query(ctx, `SELECT `+entryColumns+` FROM scores WHERE blake3 LIKE ? LIMIT 2`, ref+"%")
	if err != nil {
		return nil, err
	}
	switch len(entries) {
	case 0:
		return nil, errors.NewNotFound("catalog entry", ref)
	case 1:
		return entries[0], nil
	default:
		return nil, &errors.ValidationError{Field: "ref", Value: ref, Message: "digest prefix is ambiguous"}
	}
}

// Source returns the original source text of the entry identified by ref.
func (c *Catalog) Source(ctx context.Context, ref string) (string, error) {
	e, err := c.Get(ctx, ref)
	if err != nil {
		return "", err
	}
	var src string
	if err := c.db.QueryRowContext(ctx, `SELECT source FROM scores WHERE id = ?`, e.ID).Scan(&src); err != nil {
		return "", errors.NewIO("read source", c.path, err)
	}
	return src, nil
}

func (c *Catalog) byDigest(ctx context.Context, blake3 string) (*Entry, error) {
	entries, err := c.query(ctx, `SELECT `+entryColumns+` FROM scores WHERE blake3 = ?`, blake3)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, errors.NewNotFound("catalog entry", blake3)
	}
	return entries[0], nil
}

func (c *Catalog) query(ctx context.Context, q string, args ...any) ([]*Entry, error) {
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.NewIO("query catalog", c.path, err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		var indexedAt string
		if err := rows.Scan(&e.ID, &e.Path, &e.Digests.BLAKE3, &e.Digests.SHA256,
			&e.Name, &e.OfficePart, &e.Mode, &e.Syllables, &e.Notes, &e.Size,
			&e.Lyrics, &indexedAt); err != nil {
			return nil, errors.NewIO("scan catalog entry", c.path, err)
		}
		if e.IndexedAt, err = time.Parse(timeLayout, indexedAt); err != nil {
			return nil, errors.NewIO("parse indexed_at", c.path, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewIO("query catalog", c.path, err)
	}
	rows.Close()

	for _, e := range entries {
		if e.Attributes, err = c.attributes(ctx, e.ID); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (c *Catalog) attributes(ctx context.Context, id string) ([]gabc.Attribute, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT key, value FROM attributes WHERE score_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, errors.NewIO("query attributes", c.path, err)
	}
	defer rows.Close()

	attrs := []gabc.Attribute{}
	for rows.Next() {
		var a gabc.Attribute
		if err := rows.Scan(&a.Key, &a.Value); err != nil {
			return nil, errors.NewIO("scan attribute", c.path, err)
		}
		attrs = append(attrs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewIO("query attributes", c.path, err)
	}
	return attrs, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
