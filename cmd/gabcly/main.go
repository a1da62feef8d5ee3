// Command gabcly parses gabc chant scores and converts them to JSON or
// LilyPond, checks them, and keeps a searchable catalog of indexed scores.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"github.com/FocuswithJustin/gabcly/core/cache"
	"github.com/FocuswithJustin/gabcly/internal/config"
	"github.com/FocuswithJustin/gabcly/internal/logging"
)

const (
	version           = "0.1.0"
	documentCacheSize = 256
)

// CLI defines the command-line interface for gabcly.
type CLI struct {
	// Global flags
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)" default:"${log_level}" enum:"debug,info,warn,warning,error"`
	LogFormat string `name:"log-format" help:"Log format (text, json)" default:"${log_format}" enum:"text,json"`

	JSON     JSONCmd      `cmd:"" name:"json" help:"Print the parsed document as JSON"`
	LilyPond LilyPondCmd  `cmd:"" name:"lilypond" aliases:"ly" help:"Print the score as a LilyPond file"`
	Tree     TreeCmd      `cmd:"" help:"Print the labeled parse tree"`
	Convert  ConvertCmd   `cmd:"" help:"Convert a score to a registered output format"`
	Check    CheckCmd     `cmd:"" help:"Parse and validate scores; fail if any is invalid"`
	Catalog  CatalogGroup `cmd:"" help:"Index, list, search, and retrieve scores"`
	Version  VersionCmd   `cmd:"" help:"Print version information"`
}

// Env carries the process streams and context into commands.
type Env struct {
	Ctx    context.Context
	Stdin  io.Reader
	Stdout io.Writer
	Now    func() time.Time
	// Docs caches parsed scores across the files of one run; nil disables it.
	Docs   *cache.Documents
}

func (c *CLI) setupLogging() error {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(c.LogFormat)
	if err != nil {
		return err
	}
	logging.InitLogger(level, format)
	return nil
}

func newParser(cli *CLI, cfg *config.Config, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("gabcly"),
		kong.Description("gabcly - gabc chant notation parser and converter"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars(cfg.Vars()),
	}, options...)
	return kong.New(cli, options...)
}

func main() {
	if err := config.LoadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "gabcly: loading .env: %v\n", err)
	}
	cfg := config.Load()

	var cli CLI
	parser, err := newParser(&cli, cfg)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	ctx.FatalIfErrorf(cli.setupLogging())

	env := &Env{
		Ctx:    logging.WithRunID(context.Background(), uuid.NewString()),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Now:    time.Now,
		Docs:   cache.NewDocuments(documentCacheSize),
	}
	err = ctx.Run(env)
	ctx.FatalIfErrorf(err)
}
