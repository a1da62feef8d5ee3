package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer states. The header holds "key:value;" attributes and "%" comments up
// to the "%%" separator; the body alternates syllable text with a
// parenthesized music span; a note position is followed by an optional
// suffix of shape and rhythm markers.
var (
	headerRules = []lexer.Rule{
		{Name: "Separator", Pattern: `%%\s*`, Action: lexer.Push("Body")},
		{Name: "Comment", Pattern: `%[^\r\n]*`},
		{Name: "Whitespace", Pattern: `\s+`},
		{Name: "Key", Pattern: `[^:;%\s][^:;\r\n]*`},
		{Name: "Colon", Pattern: `:`, Action: lexer.Push("Value")},
	}

	valueRules = []lexer.Rule{
		{Name: "Value", Pattern: `[^;]+`},
		{Name: "Semicolon", Pattern: `;`, Action: lexer.Pop()},
	}

	bodyRules = []lexer.Rule{
		// Whitespace after the last syllable belongs to no syllable.
		{Name: "Trailer", Pattern: `\s+\z`},
		{Name: "Text", Pattern: `[^()]+`},
		{Name: "LParen", Pattern: `\(`, Action: lexer.Push("Music")},
	}

	noteRules = []lexer.Rule{
		{Name: "Prefix", Pattern: `-`},
		{Name: "Position", Pattern: `[a-mA-M]`, Action: lexer.Push("NoteTail")},
	}

	// Clef must precede Position: "c3" is a clef, not the note c.
	musicRules = []lexer.Rule{
		{Name: "RParen", Pattern: `\)`, Action: lexer.Pop()},
		{Name: "Clef", Pattern: `[cf][1-4]`},
		{Name: "Prefix", Pattern: `-`},
		{Name: "Position", Pattern: `[a-mA-M]`, Action: lexer.Push("NoteTail")},
		{Name: "Barline", Pattern: "::|:|;|,|'|`"},
		{Name: "Spacer", Pattern: `//?|!|@|\s+`},
	}

	noteTailRules = []lexer.Rule{
		{Name: "Suffix", Pattern: `[~<>vVoOwWsSxXyqQrR#.'_0-9]+`},
		lexer.Return(),
	}
)

// newLexer returns a stateful lexer definition whose initial state uses root.
// All other states are shared, so every entry rule sees the same token set.
func newLexer(root []lexer.Rule) *lexer.StatefulDefinition {
	return lexer.MustStateful(lexer.Rules{
		"Root":     root,
		"Value":    valueRules,
		"Body":     bodyRules,
		"Music":    musicRules,
		"NoteTail": noteTailRules,
	})
}

var (
	fileLexer     = newLexer(headerRules)
	syllableLexer = newLexer(bodyRules)
	noteLexer     = newLexer(noteRules)
)
