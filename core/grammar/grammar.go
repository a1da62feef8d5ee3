// Package grammar tokenizes gabc source into a labeled parse tree.
//
// A gabc document is a header of "key:value;" attributes terminated by a
// "%%" line, followed by a body of syllables. Each syllable is a text span
// and a parenthesized music span holding clefs, notes, barlines and spacers:
//
//	name:Populus Sion;
//	%%
//	(c3) Pó(eh/hi)pu(h)lus(h) *(;) (::)
//
// The grammar is built with participle. Callers never see participle's
// generated structs; every entry point returns a *Node tree whose Text
// fields are substrings of the source.
package grammar

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/gabcly/core/errors"
)

// FormatName identifies gabc in errors and logs.
const FormatName = "gabc"

//nolint:govet // participle grammar tags are not standard struct tags
type fileGrammar struct {
	Header    []*headerGrammar   `@@* Separator`
	Syllables []*syllableGrammar `@@*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type headerGrammar struct {
	Pos       lexer.Position
	Comment   *string           `  @Comment`
	Attribute *attributeGrammar `| @@`
}

//nolint:govet // participle grammar tags are not standard struct tags
type attributeGrammar struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Key    string `@Key ":"`
	Value  string `@Value? ";"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type syllableGrammar struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Text   string          `@Text? "("`
	Music  []*musicGrammar `@@* ")"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type musicGrammar struct {
	Pos     lexer.Position
	Clef    *string      `  @Clef`
	Note    *noteGrammar `| @@`
	Barline *string      `| @Barline`
	Spacer  *string      `| @Spacer`
}

//nolint:govet // participle grammar tags are not standard struct tags
type noteGrammar struct {
	Pos      lexer.Position
	EndPos   lexer.Position
	Prefix   string `@Prefix?`
	Position string `@Position`
	Suffix   string `@Suffix?`
}

var (
	fileParser = participle.MustBuild[fileGrammar](
		participle.Lexer(fileLexer),
		participle.Elide("Whitespace", "Trailer"),
	)
	syllableParser = participle.MustBuild[syllableGrammar](
		participle.Lexer(syllableLexer),
		participle.Elide("Whitespace", "Trailer"),
	)
	noteParser = participle.MustBuild[noteGrammar](
		participle.Lexer(noteLexer),
	)
)

// ParseFile parses a complete gabc document. The name is used only in
// diagnostics. The returned tree's root is a File node whose children are
// Attribute, Comment and Syllable nodes in source order.
func ParseFile(name, src string) (*Node, error) {
	parsed, err := fileParser.ParseString(name, src)
	if err != nil {
		return nil, rejection(name, err)
	}

	root := &Node{Rule: File, Text: src}
	for _, h := range parsed.Header {
		switch {
		case h.Comment != nil:
			root.Children = append(root.Children, &Node{Rule: Comment, Text: *h.Comment, Offset: h.Pos.Offset})
		case h.Attribute != nil:
			root.Children = append(root.Children, h.Attribute.node(src))
		}
	}
	for _, s := range parsed.Syllables {
		root.Children = append(root.Children, s.node(src))
	}
	return root, nil
}

// ParseSyllable parses a single syllable such as "Pó(eh/hi)". Leading text
// whitespace is kept; whitespace after the closing parenthesis is ignored.
func ParseSyllable(src string) (*Node, error) {
	parsed, err := syllableParser.ParseString("", src)
	if err != nil {
		return nil, rejection("", err)
	}
	return parsed.node(src), nil
}

// ParseNote parses a single note such as "h..".
func ParseNote(src string) (*Node, error) {
	parsed, err := noteParser.ParseString("", src)
	if err != nil {
		return nil, rejection("", err)
	}
	return parsed.node(src), nil
}

// rejection converts a participle failure into a grammar rejection.
func rejection(name string, err error) error {
	pe := errors.NewParse(FormatName, name, err.Error())
	var perr participle.Error
	if errors.As(err, &perr) {
		pos := perr.Position()
		pe.Line = pos.Line
		pe.Column = pos.Column
		pe.Message = perr.Message()
	}
	return pe
}

func (a *attributeGrammar) node(src string) *Node {
	keyAt := a.Pos.Offset
	valueAt := keyAt + len(a.Key) + 1
	return &Node{
		Rule:   Attribute,
		Text:   src[a.Pos.Offset:a.EndPos.Offset],
		Offset: a.Pos.Offset,
		Children: []*Node{
			{Rule: Key, Text: a.Key, Offset: keyAt},
			{Rule: Value, Text: a.Value, Offset: valueAt},
		},
	}
}

func (s *syllableGrammar) node(src string) *Node {
	n := &Node{
		Rule:     Syllable,
		Text:     src[s.Pos.Offset:s.EndPos.Offset],
		Offset:   s.Pos.Offset,
		Children: make([]*Node, 0, len(s.Music)+1),
	}
	n.Children = append(n.Children, &Node{Rule: Text, Text: s.Text, Offset: s.Pos.Offset})
	for _, m := range s.Music {
		n.Children = append(n.Children, m.node(src))
	}
	return n
}

func (m *musicGrammar) node(src string) *Node {
	switch {
	case m.Clef != nil:
		return &Node{Rule: Clef, Text: *m.Clef, Offset: m.Pos.Offset}
	case m.Note != nil:
		return m.Note.node(src)
	case m.Barline != nil:
		return &Node{Rule: Barline, Text: *m.Barline, Offset: m.Pos.Offset}
	case m.Spacer != nil:
		return &Node{Rule: Spacer, Text: *m.Spacer, Offset: m.Pos.Offset}
	}
	errors.Invariant("music element at offset %d matched no alternative", m.Pos.Offset)
	return nil
}

func (n *noteGrammar) node(src string) *Node {
	out := &Node{
		Rule:   Note,
		Text:   src[n.Pos.Offset:n.EndPos.Offset],
		Offset: n.Pos.Offset,
	}
	at := n.Pos.Offset
	if n.Prefix != "" {
		out.Children = append(out.Children, &Node{Rule: Prefix, Text: n.Prefix, Offset: at})
		at += len(n.Prefix)
	}
	out.Children = append(out.Children, &Node{Rule: Position, Text: n.Position, Offset: at})
	at += len(n.Position)
	if n.Suffix != "" {
		out.Children = append(out.Children, &Node{Rule: Suffix, Text: n.Suffix, Offset: at})
	}
	return out
}
