package lilypond

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Sanitize makes syllable text safe to place in a \lyricmode block.
//
// Braces are removed, interior spaces become underscores so the text stays
// one lyric word, and text starting with a number is double-quoted.
// Leading and trailing whitespace collapse to a single space each, which
// Lyrics relies on to decide where words break.
func Sanitize(text string) string {
	lead := strings.TrimLeftFunc(text, unicode.IsSpace) != text
	trail := strings.TrimRightFunc(text, unicode.IsSpace) != text

	core := strings.TrimSpace(text)
	core = strings.NewReplacer("{", "", "}", "").Replace(core)
	core = strings.ReplaceAll(core, " ", "_")
	// Tabs or newlines left next to a removed brace.
	core = strings.TrimSpace(core)
	if r, _ := utf8.DecodeRuneInString(core); core != "" && unicode.IsNumber(r) {
		core = `"` + core + `"`
	}

	var b strings.Builder
	b.Grow(len(core) + 2)
	if lead {
		b.WriteByte(' ')
	}
	b.WriteString(core)
	if trail {
		b.WriteByte(' ')
	}
	return b.String()
}
