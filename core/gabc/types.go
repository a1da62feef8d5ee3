// Package gabc holds the semantic model of a gabc document and the builder
// that produces it from a grammar parse tree.
//
// A Document is immutable once built. Every Note carries the clef that was
// active where it appeared, so pitches can be resolved later without
// replaying the document.
package gabc

import (
	"encoding/json"
	"strings"

	"github.com/FocuswithJustin/gabcly/core/errors"
)

// Clef identifies a C or F clef and the staff line it sits on.
type Clef string

// The eight recognized clefs.
const (
	ClefC1 Clef = "c1"
	ClefC2 Clef = "c2"
	ClefC3 Clef = "c3"
	ClefC4 Clef = "c4"
	ClefF1 Clef = "f1"
	ClefF2 Clef = "f2"
	ClefF3 Clef = "f3"
	ClefF4 Clef = "f4"
)

// NoClef is stamped on notes that precede every clef in the document.
// Resolving the pitch of such a note fails.
const NoClef Clef = "no clef set"

// Document is a parsed gabc file.
type Document struct {
	// Attributes are the header pairs in source order. Keys may repeat.
	Attributes []Attribute `json:"attributes"`

	// Syllables are the body syllables in source order.
	Syllables []Syllable `json:"syllables"`
}

// Attribute is one "key:value;" header pair, untrimmed.
type Attribute struct {
	Key   string
	Value string
}

// MarshalJSON encodes the pair as a two-element array.
func (a Attribute) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{a.Key, a.Value})
}

// Syllable is a text span and the music written against it. Leading and
// trailing whitespace in Text marks word boundaries.
type Syllable struct {
	Text  string    `json:"text"`
	Music []Element `json:"music"`
}

// Element is one item of a syllable's music: a Note, a Barline or a Spacer.
type Element interface {
	isElement()
}

// Note is a single neume note.
type Note struct {
	// Prefix precedes the position; usually empty, "-" marks an initio debilis.
	Prefix string

	// Position is the staff position letter, a-m in either case.
	Position rune

	// Suffix holds shape and rhythmic signs; it has no bearing on pitch.
	Suffix string

	// Clef is the clef active where the note appeared.
	Clef Clef
}

// Barline is a division marker such as ";" or "::".
type Barline string

// Spacer is a neume spacing marker such as "/". It has no musical content.
type Spacer string

func (Note) isElement()    {}
func (Barline) isElement() {}
func (Spacer) isElement()  {}

type noteJSON struct {
	Prefix   string `json:"prefix"`
	Position string `json:"position"`
	Suffix   string `json:"suffix"`
	Clef     Clef   `json:"current_clef"`
}

// MarshalJSON encodes the note tagged with its variant name.
func (n Note) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]noteJSON{"Note": {
		Prefix:   n.Prefix,
		Position: string(n.Position),
		Suffix:   n.Suffix,
		Clef:     n.Clef,
	}})
}

// MarshalJSON encodes the barline tagged with its variant name.
func (b Barline) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"Barline": string(b)})
}

// MarshalJSON encodes the spacer tagged with its variant name.
func (s Spacer) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"Spacer": string(s)})
}

// HasNotes reports whether the syllable's music contains at least one Note.
func (s Syllable) HasNotes() bool {
	for _, e := range s.Music {
		if _, ok := e.(Note); ok {
			return true
		}
	}
	return false
}

// Attribute returns the value of the first attribute named key.
func (d *Document) Attribute(key string) (string, bool) {
	for _, a := range d.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Notes returns every note in document order.
func (d *Document) Notes() []Note {
	var notes []Note
	for _, s := range d.Syllables {
		for _, e := range s.Music {
			if n, ok := e.(Note); ok {
				notes = append(notes, n)
			}
		}
	}
	return notes
}

// Text returns the sung text with syllable boundaries removed, e.g.
// "Pópulus Sion, * ecce". Runs of whitespace collapse to one space.
func (d *Document) Text() string {
	var sb strings.Builder
	for _, s := range d.Syllables {
		sb.WriteString(s.Text)
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// Validate resolves the pitch of every note and reports every note whose
// clef cannot be resolved. A nil result means emission cannot fail.
func (d *Document) Validate() error {
	var errs []error
	for i, s := range d.Syllables {
		for j, e := range s.Music {
			n, ok := e.(Note)
			if !ok {
				continue
			}
			if _, err := n.AbsolutePitch(); err != nil {
				errs = append(errs, errors.Wrapf(err, "syllable %d (%q) element %d", i, s.Text, j))
			}
		}
	}
	return errors.Join(errs...)
}
