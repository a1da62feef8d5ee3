// Package lilypond renders gabc documents as LilyPond source using the
// Gregorian transcription template: one \absolute chant voice holding the
// notes and one \lyricmode block holding the hyphenated text.
package lilypond

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/FocuswithJustin/gabcly/core/errors"
	"github.com/FocuswithJustin/gabcly/core/gabc"
)

// FormatName identifies LilyPond output in diagnostics and the format registry.
const FormatName = "lilypond"

// Template pieces, derived from the LilyPond "modern transcription of
// Gregorian music" snippet. The note lines go between header and
// middle, the lyrics between middle and footer.
const (
	header = `\include "gregorian.ly"

chant = \absolute { \transpose c c' {
  \set Score.timing = ##f
  `
	middle = `
}}

verba = \lyricmode {
  `
	footer = `
}

\score {
  \new Staff <<
    \new Voice = "melody" \chant
    \new Lyrics = "one" \lyricsto melody \verba
  >>
  \layout {
    \context {
      \Staff
      \remove "Time_signature_engraver"
      \remove "Bar_engraver"
      \hide Stem
    }
    \context {
      \Voice
      \override Stem.length = #0
    }
    \context {
      \Score
      barAlways = ##t
    }
  }
}`
)

const stanzaFormat = ` \set stanza = "%s" `

// Divisio returns the LilyPond directive for a gabc barline.
func Divisio(b gabc.Barline) string {
	switch b {
	case "'":
		return `\divisioMinima`
	case ";", ":":
		return `\divisioMaior`
	case "::":
		return `\finalis`
	default:
		return `\divisioMinima`
	}
}

// Element returns the LilyPond text for one music element. Spacers have no
// notation and render empty.
func Element(e gabc.Element) (string, error) {
	switch e := e.(type) {
	case gabc.Note:
		return e.AbsolutePitch()
	case gabc.Barline:
		return Divisio(e), nil
	case gabc.Spacer:
		return "", nil
	default:
		errors.Invariant("unknown music element %T", e)
		return "", nil
	}
}

// Notes renders a syllable's music as a tie group: the first element, then
// the rest in parentheses, e.g. "g(c' c' d')". Empty elements after the
// second add no separator. A syllable with one element renders bare.
func Notes(s gabc.Syllable) (string, error) {
	var b strings.Builder
	for i, e := range s.Music {
		ly, err := Element(e)
		if err != nil {
			return "", errors.Wrapf(err, "syllable %q element %d", s.Text, i)
		}
		switch {
		case i == 1:
			b.WriteByte('(')
		case i > 1 && strings.TrimSpace(ly) != "":
			b.WriteByte(' ')
		}
		b.WriteString(ly)
	}
	if len(s.Music) > 1 {
		b.WriteByte(')')
	}
	return b.String(), nil
}

// Lyric renders a syllable's text for the lyric stream. Text under a
// syllable with no notes becomes a stanza label so LilyPond does not
// attach it to the next note; blank text is never labeled.
func Lyric(s gabc.Syllable) string {
	text := Sanitize(s.Text)
	if !s.HasNotes() && strings.TrimSpace(text) != "" {
		return fmt.Sprintf(stanzaFormat, text)
	}
	return text
}

// NoteLines renders every syllable's tie group followed by a newline.
func NoteLines(doc *gabc.Document) (string, error) {
	var b strings.Builder
	for _, s := range doc.Syllables {
		ly, err := Notes(s)
		if err != nil {
			return "", err
		}
		b.WriteString(ly)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// Lyrics renders the document's text as one lyric stream. Adjacent
// syllables are joined with " -- " when neither side has whitespace at
// the join.
func Lyrics(doc *gabc.Document) string {
	var b strings.Builder
	prev := ""
	for i, s := range doc.Syllables {
		ly := Lyric(s)
		if i > 0 && !endsInSpace(prev) && !startsWithSpace(ly) {
			b.WriteString(" -- ")
		}
		b.WriteString(ly)
		prev = ly
	}
	return b.String()
}

// Render returns the complete LilyPond file for doc.
func Render(doc *gabc.Document) (string, error) {
	var b strings.Builder
	if err := Write(&b, doc); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Write writes the complete LilyPond file for doc to w. Nothing is written
// if a note cannot be resolved.
func Write(w io.Writer, doc *gabc.Document) error {
	notes, err := NoteLines(doc)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, header+notes+middle+Lyrics(doc)+footer); err != nil {
		return errors.NewIO("write", "", err)
	}
	return nil
}

func startsWithSpace(s string) bool {
	return strings.TrimLeftFunc(s, unicode.IsSpace) != s
}

func endsInSpace(s string) bool {
	return strings.TrimRightFunc(s, unicode.IsSpace) != s
}
