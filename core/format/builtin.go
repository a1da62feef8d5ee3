package format

import (
	"encoding/json"
	"io"

	"github.com/FocuswithJustin/gabcly/core/errors"
	"github.com/FocuswithJustin/gabcly/core/gabc"
	"github.com/FocuswithJustin/gabcly/core/grammar"
	"github.com/FocuswithJustin/gabcly/core/lilypond"
)

func init() {
	Register(JSON{})
	Register(LilyPond{}, "ly")
	Register(Tree{})
}

// JSON emits the document model as JSON, indented unless Compact is set.
type JSON struct {
	Compact bool
}

func (JSON) Name() string      { return "json" }
func (JSON) Extension() string { return ".json" }

func (j JSON) Emit(w io.Writer, doc *gabc.Document, _ *grammar.Node) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if !j.Compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(doc); err != nil {
		return errors.NewIO("encode json", "", err)
	}
	return nil
}

// LilyPond emits the document as a complete LilyPond file, byte for byte
// as lilypond.Render produces it.
type LilyPond struct{}

func (LilyPond) Name() string      { return lilypond.FormatName }
func (LilyPond) Extension() string { return ".ly" }

func (LilyPond) Emit(w io.Writer, doc *gabc.Document, _ *grammar.Node) error {
	return lilypond.Write(w, doc)
}

// Tree emits the labeled parse tree, one node per line.
type Tree struct{}

func (Tree) Name() string      { return "tree" }
func (Tree) Extension() string { return ".tree" }

func (Tree) Emit(w io.Writer, _ *gabc.Document, tree *grammar.Node) error {
	if tree == nil {
		return errors.NewValidation("tree", "no parse tree to emit")
	}
	if _, err := io.WriteString(w, tree.String()); err != nil {
		return errors.NewIO("write", "", err)
	}
	return nil
}
