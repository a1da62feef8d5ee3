package grammar

import (
	"fmt"
	"strings"
)

// Rule labels a production in the parse tree.
type Rule int

// Productions, in roughly the order they nest.
const (
	File Rule = iota
	Attribute
	Key
	Value
	Comment
	Syllable
	Text
	Clef
	Note
	Prefix
	Position
	Suffix
	Barline
	Spacer
)

var ruleNames = [...]string{
	File:      "file",
	Attribute: "attribute",
	Key:       "key",
	Value:     "value",
	Comment:   "comment",
	Syllable:  "syllable",
	Text:      "text",
	Clef:      "clef",
	Note:      "note",
	Prefix:    "prefix",
	Position:  "position",
	Suffix:    "suffix",
	Barline:   "barline",
	Spacer:    "spacer",
}

func (r Rule) String() string {
	if r >= 0 && int(r) < len(ruleNames) {
		return ruleNames[r]
	}
	return fmt.Sprintf("rule(%d)", int(r))
}

// Node is one production in the parse tree. Text is the exact source span
// the production matched, starting at byte Offset.
type Node struct {
	Rule     Rule
	Text     string
	Offset   int
	Children []*Node
}

// Child returns the first direct child labeled rule, or nil.
func (n *Node) Child(rule Rule) *Node {
	for _, c := range n.Children {
		if c.Rule == rule {
			return c
		}
	}
	return nil
}

// End returns the byte offset just past the node's span.
func (n *Node) End() int {
	return n.Offset + len(n.Text)
}

// String renders the tree one production per line as "rule: text",
// indenting each level with a tab.
func (n *Node) String() string {
	var sb strings.Builder
	n.write(&sb, 0)
	return sb.String()
}

func (n *Node) write(sb *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		sb.WriteByte('\t')
	}
	sb.WriteString(n.Rule.String())
	sb.WriteString(": ")
	sb.WriteString(n.Text)
	sb.WriteByte('\n')
	for _, c := range n.Children {
		c.write(sb, depth+1)
	}
}
