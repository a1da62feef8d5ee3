// Package format provides the registry of output formats a parsed gabc
// document can be emitted as. Formats register themselves at init time
// and are looked up by name or alias.
package format

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/FocuswithJustin/gabcly/core/errors"
	"github.com/FocuswithJustin/gabcly/core/gabc"
	"github.com/FocuswithJustin/gabcly/core/grammar"
)

// Format emits a parsed document in one output representation.
type Format interface {
	// Name is the canonical registry name.
	Name() string

	// Extension is the file extension used for output files, with the dot.
	Extension() string

	// Emit writes the document to w. tree is the parse tree the document
	// was built from; formats that only need the model ignore it.
	Emit(w io.Writer, doc *gabc.Document, tree *grammar.Node) error
}

var (
	mu       sync.RWMutex
	registry = make(map[string]Format)
	aliases  = make(map[string]string)
)

// Register adds f to the registry under its name and any aliases,
// replacing an earlier registration with the same name.
func Register(f Format, alias ...string) {
	mu.Lock()
	defer mu.Unlock()
	name := strings.ToLower(f.Name())
	registry[name] = f
	for _, a := range alias {
		aliases[strings.ToLower(a)] = name
	}
}

// Get returns the format registered under name or one of its aliases.
func Get(name string) (Format, error) {
	mu.RLock()
	defer mu.RUnlock()
	key := strings.ToLower(name)
	if canonical, ok := aliases[key]; ok {
		key = canonical
	}
	f, ok := registry[key]
	if !ok {
		return nil, errors.NewNotFound("format", name)
	}
	return f, nil
}

// List returns the canonical names of all registered formats, sorted.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DetectResult reports whether an input looks like gabc and why.
type DetectResult struct {
	Detected bool   `json:"detected"`
	Format   string `json:"format,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Detect reports whether the file at path with contents data looks like a
// gabc score: a .gabc extension, or a "%%" header separator preceded by at
// least one "key:value;" attribute.
func Detect(path string, data []byte) *DetectResult {
	if strings.EqualFold(filepath.Ext(path), ".gabc") {
		return &DetectResult{
			Detected: true,
			Format:   grammar.FormatName,
			Reason:   "gabc file extension detected",
		}
	}

	sep := bytes.Index(data, []byte("%%"))
	if sep < 0 {
		return &DetectResult{Detected: false, Reason: "no %% header separator"}
	}
	if !hasAttribute(data[:sep]) {
		return &DetectResult{Detected: false, Reason: "no header attribute before %%"}
	}
	return &DetectResult{
		Detected: true,
		Format:   grammar.FormatName,
		Reason:   "gabc header structure detected",
	}
}

func hasAttribute(header []byte) bool {
	for _, line := range bytes.Split(header, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] == '%' {
			continue
		}
		colon := bytes.IndexByte(line, ':')
		if colon > 0 && bytes.IndexByte(line[colon:], ';') > 0 {
			return true
		}
	}
	return false
}

// Emit looks up the named format and writes doc with it.
func Emit(name string, w io.Writer, doc *gabc.Document, tree *grammar.Node) error {
	f, err := Get(name)
	if err != nil {
		return err
	}
	if err := f.Emit(w, doc, tree); err != nil {
		return fmt.Errorf("emit %s: %w", f.Name(), err)
	}
	return nil
}
