package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/gabcly/core/cache"
	"github.com/FocuswithJustin/gabcly/core/errors"
	"github.com/FocuswithJustin/gabcly/core/format"
	"github.com/FocuswithJustin/gabcly/core/gabc"
	"github.com/FocuswithJustin/gabcly/core/lilypond"
	"github.com/FocuswithJustin/gabcly/internal/catalog"
	"github.com/FocuswithJustin/gabcly/internal/config"
	"github.com/FocuswithJustin/gabcly/internal/logging"
	"github.com/FocuswithJustin/gabcly/internal/validation"
)

const populus = "name:Populus Sion;\noffice-part:Tractus;\nmode:8;\n%%\n(c3) Pó(eh/hi)pu(h)lus(h) Si(hi)on,(hgh.) *(;) ec(hihi)ce(e.) (::)"

func TestMain(m *testing.M) {
	logging.InitLoggerTo(io.Discard, logging.LevelError, logging.FormatText)
	os.Exit(m.Run())
}

// run parses args and runs the selected command with stdin as input,
// returning what it wrote to stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	cfg := &config.Config{LogLevel: "info", LogFormat: "text", Catalog: filepath.Join(t.TempDir(), "default.db"), Workers: 2}
	parser, err := newParser(&cli, cfg,
		kong.Writers(io.Discard, io.Discard),
		kong.Exit(func(int) { t.Fatalf("unexpected exit for %v", args) }),
	)
	if err != nil {
		t.Fatalf("newParser failed: %v", err)
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		t.Fatalf("Parse(%v) failed: %v", args, err)
	}
	var out bytes.Buffer
	env := &Env{
		Ctx:    logging.WithRunID(context.Background(), "test"),
		Stdin:  strings.NewReader(stdin),
		Stdout: &out,
		Now:    func() time.Time { return time.Now().Add(time.Hour) },
		Docs:   cache.NewDocuments(8),
	}
	err = ctx.Run(env)
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestJSONCommand(t *testing.T) {
	doc, err := gabc.Parse(populus)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want, _ := json.Marshal(doc)

	got, err := run(t, populus, "json", "--compact")
	if err != nil {
		t.Fatalf("json failed: %v", err)
	}
	if strings.TrimSuffix(got, "\n") != string(want) {
		t.Errorf("json output =\n%s\nwant\n%s", got, want)
	}
}

func TestLilyPondCommand(t *testing.T) {
	path := writeFile(t, t.TempDir(), "populus.gabc", populus)
	for _, name := range []string{"lilypond", "ly"} {
		got, err := run(t, "", name, path)
		if err != nil {
			t.Fatalf("%s failed: %v", name, err)
		}
		if !strings.HasPrefix(got, "\\include \"gregorian.ly\"") {
			t.Errorf("%s output starts %q", name, got[:min(len(got), 40)])
		}
		if !strings.Contains(got, "Pó -- pu -- lus") {
			t.Errorf("%s output missing lyrics", name)
		}
		if !strings.HasSuffix(got, "  }\n}\n") {
			t.Errorf("%s output does not end the template with one newline: %q", name, got[max(0, len(got)-20):])
		}
	}
}

func TestLilyPondCommandUnknownClef(t *testing.T) {
	out, err := run(t, "%%\nPo(e)", "lilypond")
	if !errors.Is(err, gabc.ErrUnknownClef) {
		t.Errorf("lilypond error = %v, want ErrUnknownClef", err)
	}
	if out != "" {
		t.Errorf("lilypond wrote %q on error", out)
	}
}

func TestTreeCommand(t *testing.T) {
	got, err := run(t, "%%\n(c4)a(d)", "tree", "-")
	if err != nil {
		t.Fatalf("tree failed: %v", err)
	}
	if !strings.HasPrefix(got, "file") {
		t.Errorf("tree output = %q, want it to start with the file node", got)
	}
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "populus.gabc", populus)
	outDir := filepath.Join(dir, "out")
	if err := os.Mkdir(outDir, 0o755); err != nil {
		t.Fatal(err)
	}

	if _, err := run(t, "", "convert", path, "--to", "ly", "--out", outDir); err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(outDir, "populus.ly"))
	if err != nil {
		t.Fatalf("converted file missing: %v", err)
	}
	doc, err := gabc.Parse(populus)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	rendered, err := lilypond.Render(doc)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if string(data) != rendered {
		t.Errorf("converted file differs from Render:\n%q\nwant\n%q", data, rendered)
	}

	stdout, err := run(t, "", "convert", path, "-t", "json")
	if err != nil {
		t.Fatalf("convert to stdout failed: %v", err)
	}
	if !strings.HasPrefix(stdout, "{\n") {
		t.Errorf("convert to stdout = %q", stdout)
	}
}

func TestConvertUnknownFormat(t *testing.T) {
	_, err := run(t, populus, "convert", "-", "--to", "pdf")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("convert error = %v, want ErrNotFound", err)
	}
	if err != nil && !strings.Contains(err.Error(), "json, lilypond, tree") {
		t.Errorf("convert error = %q, want the available formats", err)
	}
}

func TestOutputPath(t *testing.T) {
	dir := t.TempDir()
	ly, _ := format.Get("ly")
	tests := []struct {
		out  string
		name string
		want string
	}{
		{dir, "scores/populus.gabc", filepath.Join(dir, "populus.ly")},
		{dir, "populus.gabc.gz", filepath.Join(dir, "populus.ly")},
		{dir, "populus.gabc.XZ", filepath.Join(dir, "populus.ly")},
		{dir, "<stdin>", filepath.Join(dir, "stdin.ly")},
		{filepath.Join(dir, "x.ly"), "populus.gabc", filepath.Join(dir, "x.ly")},
	}
	for _, tt := range tests {
		got, err := outputPath(tt.out, tt.name, ly)
		if err != nil {
			t.Errorf("outputPath(%q, %q) failed: %v", tt.out, tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("outputPath(%q, %q) = %q, want %q", tt.out, tt.name, got, tt.want)
		}
	}

	for _, name := range []string{"-rf.gabc", "bad\x01name.gabc"} {
		_, err := outputPath(dir, name, ly)
		if !errors.Is(err, validation.ErrInvalidFilename) {
			t.Errorf("outputPath(%q) error = %v, want ErrInvalidFilename", name, err)
		}
	}
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.gabc", populus)
	noClef := writeFile(t, dir, "noclef.gabc", "%%\nPo(e)")
	missing := filepath.Join(dir, "missing.gabc")

	out, err := run(t, "", "check", "-j", "3", good, noClef, missing)
	if err == nil || err.Error() != "2 of 3 files failed" {
		t.Errorf("check error = %v, want 2 of 3 files failed", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("check printed %d lines, want 3:\n%s", len(lines), out)
	}
	if want := "ok   " + good + " (10 syllables, 16 notes)"; lines[0] != want {
		t.Errorf("line 0 = %q, want %q", lines[0], want)
	}
	if !strings.HasPrefix(lines[1], "FAIL "+noClef+": ") {
		t.Errorf("line 1 = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "FAIL "+missing+": ") {
		t.Errorf("line 2 = %q", lines[2])
	}

	copied := writeFile(t, dir, "copy.gabc", populus)
	if _, err := run(t, "", "check", good, copied); err != nil {
		t.Errorf("check of a valid file failed: %v", err)
	}
}

func TestCheckAndCatalogLogging(t *testing.T) {
	var buf bytes.Buffer
	logging.InitLoggerTo(&buf, logging.LevelDebug, logging.FormatJSON)
	defer logging.InitLoggerTo(io.Discard, logging.LevelError, logging.FormatText)

	dir := t.TempDir()
	bad := writeFile(t, dir, "noclef.gabc", "%%\nPo(e)")
	if _, err := run(t, "", "check", "-j", "2", bad); err == nil {
		t.Fatal("check of a file without a clef succeeded")
	}
	good := writeFile(t, dir, "populus.gabc", populus)
	if _, err := run(t, "", "catalog", "index", "--db", filepath.Join(dir, "c.db"), good); err != nil {
		t.Fatalf("catalog index failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{`"msg":"check failed"`, `"failed":1`, `"total":1`, `"msg":"catalog opened"`, `"read_only":false`, `"run_id":"test"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s:\n%s", want, out)
		}
	}
}

func TestCatalogCommands(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "catalog.db")
	path := writeFile(t, dir, "populus.gabc", populus)

	out, err := run(t, "", "catalog", "index", "--db", db, path)
	if err != nil {
		t.Fatalf("catalog index failed: %v", err)
	}
	if !strings.Contains(out, "1 indexed, 0 already present") {
		t.Errorf("index output = %q", out)
	}
	out, err = run(t, "", "catalog", "index", "--db", db, path)
	if err != nil {
		t.Fatalf("second catalog index failed: %v", err)
	}
	if !strings.Contains(out, "0 indexed, 1 already present") {
		t.Errorf("second index output = %q", out)
	}

	out, err = run(t, "", "catalog", "list", "--db", db, "--json")
	if err != nil {
		t.Fatalf("catalog list failed: %v", err)
	}
	var entries []*catalog.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("list output is not JSON: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "Populus Sion" {
		t.Fatalf("list entries = %+v", entries)
	}
	prefix := entries[0].Digests.BLAKE3[:8]

	out, err = run(t, "", "catalog", "list", "--db", db)
	if err != nil {
		t.Fatalf("catalog list failed: %v", err)
	}
	if !strings.HasPrefix(out, "DIGEST ") || !strings.Contains(out, "Populus Sion") || !strings.Contains(out, "Tractus") || !strings.HasSuffix(out, "Total: 1 scores\n") {
		t.Errorf("list table =\n%s", out)
	}

	out, err = run(t, "", "catalog", "search", "--db", db, "ecce")
	if err != nil {
		t.Fatalf("catalog search failed: %v", err)
	}
	if !strings.Contains(out, "Populus Sion") {
		t.Errorf("search output =\n%s", out)
	}
	out, err = run(t, "", "catalog", "search", "--db", db, "kyrie")
	if err != nil {
		t.Fatalf("catalog search failed: %v", err)
	}
	if out != "No scores found.\n" {
		t.Errorf("empty search output = %q", out)
	}

	out, err = run(t, "", "catalog", "show", "--db", db, prefix)
	if err != nil {
		t.Fatalf("catalog show failed: %v", err)
	}
	for _, want := range []string{"Title:     Populus Sion", "Syllables: 10", "  mode: 8", "Lyrics:    Pópulus Sion, * ecce"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, "", "catalog", "source", "--db", db, prefix)
	if err != nil {
		t.Fatalf("catalog source failed: %v", err)
	}
	if out != populus {
		t.Errorf("source = %q, want %q", out, populus)
	}

	if _, err := run(t, "", "catalog", "show", "--db", db, "ffffffff"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("show of unknown digest error = %v, want ErrNotFound", err)
	}
}

func TestCatalogListMissingDatabase(t *testing.T) {
	_, err := run(t, "", "catalog", "list", "--db", filepath.Join(t.TempDir(), "none.db"))
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("list error = %v, want ErrNotFound", err)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "", "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out, "gabcly version "+version+"\n") {
		t.Errorf("version output = %q", out)
	}

	out, err = run(t, "", "version", "--json")
	if err != nil {
		t.Fatalf("version --json failed: %v", err)
	}
	var v struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal([]byte(out), &v); err != nil || v.Version != version {
		t.Errorf("version --json = %q (%v)", out, err)
	}
}

func TestConfigDefaults(t *testing.T) {
	var cli CLI
	cfg := &config.Config{LogLevel: "debug", LogFormat: "json", Catalog: "x.db", Workers: 7}
	parser, err := newParser(&cli, cfg, kong.Writers(io.Discard, io.Discard))
	if err != nil {
		t.Fatalf("newParser failed: %v", err)
	}
	if _, err := parser.Parse([]string{"check", "a.gabc"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cli.LogLevel != "debug" || cli.LogFormat != "json" {
		t.Errorf("log flags = %q/%q, want debug/json", cli.LogLevel, cli.LogFormat)
	}
	if cli.Check.Workers != 7 {
		t.Errorf("workers = %d, want 7", cli.Check.Workers)
	}
	if err := cli.setupLogging(); err != nil {
		t.Errorf("setupLogging failed: %v", err)
	}
	logging.InitLoggerTo(io.Discard, logging.LevelError, logging.FormatText)
}
