package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/FocuswithJustin/gabcly/core/sqlite"
	"github.com/FocuswithJustin/gabcly/internal/catalog"
	"github.com/FocuswithJustin/gabcly/internal/logging"
)

// CatalogGroup holds the catalog subcommands.
type CatalogGroup struct {
	Index  CatalogIndexCmd  `cmd:"" help:"Parse and add scores to the catalog"`
	List   CatalogListCmd   `cmd:"" help:"List indexed scores"`
	Show   CatalogShowCmd   `cmd:"" help:"Show one indexed score"`
	Search CatalogSearchCmd `cmd:"" help:"Search names, lyrics, paths and attributes"`
	Source CatalogSourceCmd `cmd:"" help:"Print the stored gabc source of a score"`
}

type CatalogFlags struct {
	DB string `name:"db" default:"${catalog}" type:"path" help:"Catalog database path"`
}

func (f CatalogFlags) open(env *Env) (*catalog.Catalog, error) {
	cat, err := catalog.Open(env.Ctx, f.DB)
	if err != nil {
		return nil, err
	}
	logging.DebugContext(env.Ctx, "catalog opened", "path", cat.Path(), "read_only", false, "driver", sqlite.DriverName())
	return cat, nil
}

func (f CatalogFlags) openReadOnly(env *Env) (*catalog.Catalog, error) {
	cat, err := catalog.OpenReadOnly(env.Ctx, f.DB)
	if err != nil {
		return nil, err
	}
	logging.DebugContext(env.Ctx, "catalog opened", "path", cat.Path(), "read_only", true, "driver", sqlite.DriverName())
	return cat, nil
}

// CatalogIndexCmd parses each file and records it in the catalog.
type CatalogIndexCmd struct {
	CatalogFlags `embed:""`
	Files        []string `arg:"" help:"gabc files to index"`
}

func (c *CatalogIndexCmd) Run(env *Env) error {
	cat, err := c.open(env)
	if err != nil {
		return err
	}
	defer cat.Close()

	added, skipped := 0, 0
	for _, path := range c.Files {
		p, err := load(env, path)
		if err != nil {
			return err
		}
		entry, created, err := cat.Index(env.Ctx, p.src.Name, p.src.Text, p.doc)
		if err != nil {
			return err
		}
		if !created {
			skipped++
			fmt.Fprintf(env.Stdout, "exists  %s %s\n", entry.ShortDigest(), p.src.Name)
			continue
		}
		added++
		logging.CatalogEvent(env.Ctx, "indexed", entry.ID, "path", entry.Path, "blake3", entry.Digests.BLAKE3)
		fmt.Fprintf(env.Stdout, "indexed %s %s\n", entry.ShortDigest(), p.src.Name)
	}
	fmt.Fprintf(env.Stdout, "%d indexed, %d already present\n", added, skipped)
	return nil
}

// CatalogListCmd lists the catalog.
type CatalogListCmd struct {
	CatalogFlags `embed:""`
	JSON         bool `help:"Print as JSON"`
}

func (c *CatalogListCmd) Run(env *Env) error {
	cat, err := c.openReadOnly(env)
	if err != nil {
		return err
	}
	defer cat.Close()

	entries, err := cat.List(env.Ctx)
	if err != nil {
		return err
	}
	return printEntries(env, entries, c.JSON)
}

// CatalogSearchCmd finds scores matching a term.
type CatalogSearchCmd struct {
	CatalogFlags `embed:""`
	Term         string `arg:"" help:"Text to search for"`
	JSON         bool   `help:"Print as JSON"`
}

func (c *CatalogSearchCmd) Run(env *Env) error {
	cat, err := c.openReadOnly(env)
	if err != nil {
		return err
	}
	defer cat.Close()

	entries, err := cat.Search(env.Ctx, c.Term)
	if err != nil {
		return err
	}
	return printEntries(env, entries, c.JSON)
}

// CatalogShowCmd shows a single entry.
type CatalogShowCmd struct {
	CatalogFlags `embed:""`
	Ref          string `arg:"" help:"Entry id or BLAKE3 digest prefix"`
	JSON         bool   `help:"Print as JSON"`
}

func (c *CatalogShowCmd) Run(env *Env) error {
	cat, err := c.openReadOnly(env)
	if err != nil {
		return err
	}
	defer cat.Close()

	e, err := cat.Get(env.Ctx, c.Ref)
	if err != nil {
		return err
	}
	if c.JSON {
		return writeJSON(env.Stdout, e)
	}
	w := env.Stdout
	fmt.Fprintf(w, "ID:        %s\n", e.ID)
	fmt.Fprintf(w, "Title:     %s\n", e.Title())
	fmt.Fprintf(w, "Path:      %s\n", e.Path)
	fmt.Fprintf(w, "BLAKE3:    %s\n", e.Digests.BLAKE3)
	fmt.Fprintf(w, "SHA-256:   %s\n", e.Digests.SHA256)
	fmt.Fprintf(w, "Size:      %s\n", e.HumanSize())
	fmt.Fprintf(w, "Syllables: %d\n", e.Syllables)
	fmt.Fprintf(w, "Notes:     %d\n", e.Notes)
	fmt.Fprintf(w, "Indexed:   %s\n", e.Age(env.Now()))
	if len(e.Attributes) > 0 {
		fmt.Fprintln(w, "Attributes:")
		for _, a := range e.Attributes {
			fmt.Fprintf(w, "  %s: %s\n", a.Key, a.Value)
		}
	}
	fmt.Fprintf(w, "Lyrics:    %s\n", e.Lyrics)
	return nil
}

// CatalogSourceCmd prints the stored source text.
type CatalogSourceCmd struct {
	CatalogFlags `embed:""`
	Ref          string `arg:"" help:"Entry id or BLAKE3 digest prefix"`
}

func (c *CatalogSourceCmd) Run(env *Env) error {
	cat, err := c.openReadOnly(env)
	if err != nil {
		return err
	}
	defer cat.Close()

	src, err := cat.Source(env.Ctx, c.Ref)
	if err != nil {
		return err
	}
	_, err = io.WriteString(env.Stdout, src)
	return err
}

func printEntries(env *Env, entries []*catalog.Entry, asJSON bool) error {
	if asJSON {
		if entries == nil {
			entries = []*catalog.Entry{}
		}
		return writeJSON(env.Stdout, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(env.Stdout, "No scores found.")
		return nil
	}
	now := env.Now()
	w := env.Stdout
	fmt.Fprintf(w, "%-12s %-32s %-4s %-12s %-8s %s\n", "DIGEST", "TITLE", "MODE", "PART", "SIZE", "INDEXED")
	fmt.Fprintf(w, "%-12s %-32s %-4s %-12s %-8s %s\n", "------", "-----", "----", "----", "----", "-------")
	for _, e := range entries {
		fmt.Fprintf(w, "%-12s %-32s %-4s %-12s %-8s %s\n",
			e.ShortDigest(), truncate(e.Title(), 32), dash(e.Mode), truncate(dash(e.OfficePart), 12), e.HumanSize(), e.Age(now))
	}
	fmt.Fprintf(w, "\nTotal: %d scores\n", len(entries))
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
