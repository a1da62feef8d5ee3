package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/remeh/sizedwaitgroup"

	"github.com/FocuswithJustin/gabcly/core/cache"
	"github.com/FocuswithJustin/gabcly/core/errors"
	"github.com/FocuswithJustin/gabcly/core/format"
	"github.com/FocuswithJustin/gabcly/core/gabc"
	"github.com/FocuswithJustin/gabcly/core/grammar"
	"github.com/FocuswithJustin/gabcly/core/sqlite"
	"github.com/FocuswithJustin/gabcly/internal/logging"
	"github.com/FocuswithJustin/gabcly/internal/source"
	"github.com/FocuswithJustin/gabcly/internal/validation"
)

// parsed is a loaded score: its source, parse tree and model.
type parsed struct {
	src  *source.Source
	tree *grammar.Node
	doc  *gabc.Document
}

// load reads, decodes and parses the score at path ("-" for stdin).
func load(env *Env, path string) (*parsed, error) {
	start := time.Now()
	src, err := source.Read(path, env.Stdin)
	if err != nil {
		logging.ParseFailure(env.Ctx, path, err)
		return nil, err
	}
	if d := format.Detect(src.Name, []byte(src.Text)); !d.Detected {
		logging.WarnContext(env.Ctx, "input does not look like gabc", "path", src.Name, "reason", d.Reason)
	}
	var tree *grammar.Node
	var doc *gabc.Document
	cached := false
	if env.Docs != nil {
		var p *cache.Parsed
		p, cached, err = env.Docs.Parse(src.Name, src.Text)
		if err == nil {
			tree, doc = p.Tree, p.Document
		}
	} else if tree, err = grammar.ParseFile(src.Name, src.Text); err == nil {
		doc = gabc.Build(tree)
	}
	if err != nil {
		logging.ParseFailure(env.Ctx, src.Name, err)
		return nil, err
	}
	logging.DocumentParsed(env.Ctx, src.Name, len(doc.Attributes), len(doc.Syllables), len(doc.Notes()),
		time.Since(start), "compression", string(src.Compression), "raw_size", src.RawSize, "cached", cached)
	return &parsed{src: src, tree: tree, doc: doc}, nil
}

// emit loads path and writes it to stdout in the given format.
func emit(env *Env, path string, f format.Format) error {
	p, err := load(env, path)
	if err != nil {
		return err
	}
	if err := f.Emit(env.Stdout, p.doc, p.tree); err != nil {
		logging.ParseFailure(env.Ctx, p.src.Name, err, "format", f.Name())
		return fmt.Errorf("emit %s: %w", f.Name(), err)
	}
	return nil
}

// JSONCmd prints the document model as JSON.
type JSONCmd struct {
	File    string `arg:"" optional:"" help:"gabc file, or - for stdin" default:"-"`
	Compact bool   `help:"Print on one line"`
}

func (c *JSONCmd) Run(env *Env) error {
	return emit(env, c.File, format.JSON{Compact: c.Compact})
}

// LilyPondCmd prints a complete LilyPond file.
type LilyPondCmd struct {
	File string `arg:"" optional:"" help:"gabc file, or - for stdin" default:"-"`
}

func (c *LilyPondCmd) Run(env *Env) error {
	if err := emit(env, c.File, format.LilyPond{}); err != nil {
		return err
	}
	// The template has no final newline; end the terminal line.
	_, err := io.WriteString(env.Stdout, "\n")
	return err
}

// TreeCmd prints the labeled parse tree.
type TreeCmd struct {
	File string `arg:"" optional:"" help:"gabc file, or - for stdin" default:"-"`
}

func (c *TreeCmd) Run(env *Env) error {
	return emit(env, c.File, format.Tree{})
}

// ConvertCmd converts a score to any registered format, optionally to a file.
type ConvertCmd struct {
	File string `arg:"" help:"gabc file, or - for stdin"`
	To   string `required:"" short:"t" help:"Output format (json, lilypond, ly, tree)"`
	Out  string `short:"o" type:"path" help:"Output file or directory (default stdout)"`
}

func (c *ConvertCmd) Run(env *Env) error {
	f, err := format.Get(c.To)
	if err != nil {
		return fmt.Errorf("%w (available: %s)", err, strings.Join(format.List(), ", "))
	}
	if c.Out == "" {
		return emit(env, c.File, f)
	}

	p, err := load(env, c.File)
	if err != nil {
		return err
	}
	out, err := outputPath(c.Out, p.src.Name, f)
	if err != nil {
		return err
	}
	file, err := os.Create(out)
	if err != nil {
		return errors.NewIO("create", out, err)
	}
	if err := f.Emit(file, p.doc, p.tree); err != nil {
		file.Close()
		os.Remove(out)
		logging.ParseFailure(env.Ctx, p.src.Name, err, "format", f.Name())
		return fmt.Errorf("emit %s: %w", f.Name(), err)
	}
	if err := file.Close(); err != nil {
		return errors.NewIO("close", out, err)
	}
	logging.InfoContext(env.Ctx, "converted", "path", p.src.Name, "format", f.Name(), "out", out)
	fmt.Fprintf(env.Stdout, "Converted %s to %s\n", p.src.Name, out)
	return nil
}

// outputPath returns out, or a file inside it named after the input when
// out is an existing directory. A derived file name must be a safe single
// path element.
func outputPath(out, name string, f format.Format) (string, error) {
	info, err := os.Stat(out)
	if err != nil || !info.IsDir() {
		return out, nil
	}
	base := "stdin"
	if name != source.StdinName {
		base = filepath.Base(name)
		if ext := strings.ToLower(filepath.Ext(base)); ext == ".gz" || ext == ".xz" {
			base = strings.TrimSuffix(base, filepath.Ext(base))
		}
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	filename := base + f.Extension()
	if err := validation.ValidateFilename(filename); err != nil {
		return "", &errors.ValidationError{Field: "out", Value: filename, Message: "cannot derive output file name", Err: err}
	}
	return filepath.Join(out, filename), nil
}

// CheckCmd parses scores in parallel and reports each one.
type CheckCmd struct {
	Files   []string `arg:"" help:"gabc files to check"`
	Workers int      `short:"j" default:"${workers}" help:"Number of files checked at once"`
}

type checkResult struct {
	path      string
	syllables int
	notes     int
	err       error
}

func (c *CheckCmd) Run(env *Env) error {
	workers := c.Workers
	if workers < 1 {
		workers = 1
	}
	results := make([]checkResult, len(c.Files))
	swg := sizedwaitgroup.New(workers)
	for i, path := range c.Files {
		swg.Add()
		go func(i int, path string) {
			defer swg.Done()
			results[i] = check(env, path)
		}(i, path)
	}
	swg.Wait()

	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Fprintf(env.Stdout, "FAIL %s: %v\n", r.path, r.err)
			continue
		}
		fmt.Fprintf(env.Stdout, "ok   %s (%d syllables, %d notes)\n", r.path, r.syllables, r.notes)
	}
	if failed > 0 {
		logging.ErrorContext(env.Ctx, "check failed", "failed", failed, "total", len(results), "workers", workers)
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

func check(env *Env, path string) checkResult {
	p, err := load(env, path)
	if err != nil {
		return checkResult{path: path, err: err}
	}
	if err := p.doc.Validate(); err != nil {
		logging.ParseFailure(env.Ctx, path, err)
		return checkResult{path: path, err: err}
	}
	return checkResult{path: path, syllables: len(p.doc.Syllables), notes: len(p.doc.Notes())}
}

// VersionCmd shows version info.
type VersionCmd struct {
	JSON bool `help:"Print as JSON"`
}

func (c *VersionCmd) Run(env *Env) error {
	info := sqlite.GetInfo()
	if c.JSON {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Version string      `json:"version"`
			SQLite  sqlite.Info `json:"sqlite"`
		}{version, info})
	}
	fmt.Fprintf(env.Stdout, "gabcly version %s\n", version)
	fmt.Fprintf(env.Stdout, "sqlite driver: %s (%s)\n", info.DriverName, info.DriverType)
	return nil
}
