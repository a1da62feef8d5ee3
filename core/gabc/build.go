package gabc

import (
	"unicode/utf8"

	"github.com/FocuswithJustin/gabcly/core/errors"
	"github.com/FocuswithJustin/gabcly/core/grammar"
)

// Parse parses gabc source into a Document.
func Parse(src string) (*Document, error) {
	return ParseFile("", src)
}

// ParseFile parses gabc source into a Document, naming the source in
// diagnostics.
func ParseFile(name, src string) (*Document, error) {
	root, err := grammar.ParseFile(name, src)
	if err != nil {
		return nil, err
	}
	return Build(root), nil
}

// ParseSyllable parses a single syllable such as "Pó(eh/hi)" whose notes
// are read under clef. A clef inside the syllable applies from that point on.
func ParseSyllable(src string, clef Clef) (*Syllable, error) {
	n, err := grammar.ParseSyllable(src)
	if err != nil {
		return nil, err
	}
	syl, _ := buildSyllable(n, clef)
	return &syl, nil
}

// ParseNote parses a single note such as "h.." written under clef.
func ParseNote(src string, clef Clef) (*Note, error) {
	n, err := grammar.ParseNote(src)
	if err != nil {
		return nil, err
	}
	note := buildNote(n, clef)
	return &note, nil
}

// Build converts a file parse tree into a Document. The tree must come from
// grammar.ParseFile; a tree missing productions the grammar guarantees
// causes a panic.
//
// The active clef is folded through the syllables in order: each syllable
// starts with the clef left by the previous one.
func Build(root *grammar.Node) *Document {
	if root.Rule != grammar.File {
		errors.Invariant("build from %v node, want file", root.Rule)
	}
	doc := &Document{
		Attributes: []Attribute{},
		Syllables:  []Syllable{},
	}
	clef := NoClef
	for _, child := range root.Children {
		switch child.Rule {
		case grammar.Attribute:
			doc.Attributes = append(doc.Attributes, buildAttribute(child))
		case grammar.Syllable:
			var syl Syllable
			syl, clef = buildSyllable(child, clef)
			doc.Syllables = append(doc.Syllables, syl)
		}
	}
	return doc
}

func buildAttribute(n *grammar.Node) Attribute {
	key, value := n.Child(grammar.Key), n.Child(grammar.Value)
	if key == nil || value == nil {
		errors.Invariant("attribute at offset %d without key or value", n.Offset)
	}
	return Attribute{Key: key.Text, Value: value.Text}
}

// buildSyllable returns the syllable and the clef in force after it.
func buildSyllable(n *grammar.Node, clef Clef) (Syllable, Clef) {
	if len(n.Children) == 0 || n.Children[0].Rule != grammar.Text {
		errors.Invariant("syllable at offset %d without text", n.Offset)
	}
	syl := Syllable{
		Text:  n.Children[0].Text,
		Music: make([]Element, 0, len(n.Children)-1),
	}
	for _, c := range n.Children[1:] {
		switch c.Rule {
		case grammar.Clef:
			clef = Clef(c.Text)
		case grammar.Note:
			syl.Music = append(syl.Music, buildNote(c, clef))
		case grammar.Barline:
			syl.Music = append(syl.Music, Barline(c.Text))
		case grammar.Spacer:
			syl.Music = append(syl.Music, Spacer(c.Text))
		default:
			errors.Invariant("%v node inside syllable at offset %d", c.Rule, n.Offset)
		}
	}
	return syl, clef
}

func buildNote(n *grammar.Node, clef Clef) Note {
	note := Note{Clef: clef}
	for _, c := range n.Children {
		switch c.Rule {
		case grammar.Prefix:
			note.Prefix = c.Text
		case grammar.Position:
			note.Position, _ = utf8.DecodeRuneInString(c.Text)
		case grammar.Suffix:
			note.Suffix = c.Text
		default:
			errors.Invariant("%v node inside note at offset %d", c.Rule, n.Offset)
		}
	}
	if note.Position == 0 {
		errors.Invariant("note at offset %d without position", n.Offset)
	}
	return note
}
