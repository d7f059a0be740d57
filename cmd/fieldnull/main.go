// Command fieldnull nulls the driver id column of INSERT tuples in a SQL dump.
//
// Usage:
//
//	fieldnull fix -i dump.sql -o dump_fixed.sql
//	fieldnull fix --config fieldnull.json --stream
//	fieldnull generate -n NullDriverIDs -p fixtures -o nullids.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	flags "github.com/jessevdk/go-flags"

	"github.com/KromDaniel/fieldnull/internal/config"
	"github.com/KromDaniel/fieldnull/internal/nuller"
	"github.com/KromDaniel/fieldnull/pkg/fieldnull"
)

// Options defines the CLI commands.
type Options struct {
	Fix      FixCommand      `command:"fix" description:"Rewrite a SQL dump, nulling driver ids"`
	Generate GenerateCommand `command:"generate" description:"Generate a standalone Go rewrite function"`
}

// FixCommand flags. Unset flags fall back to the config file, then to defaults.
type FixCommand struct {
	Config    string `short:"c" long:"config" description:"JSON config file"`
	Input     string `short:"i" long:"input" description:"Input SQL dump (path or afs URL)"`
	Output    string `short:"o" long:"output" description:"Output SQL dump (path or afs URL)"`
	Mode      string `short:"m" long:"mode" description:"Match mode: regexp, scan or escape-aware"`
	Template  string `short:"t" long:"template" description:"Replacement template, e.g. ', NULL, ${department})'"`
	Stream    bool   `short:"s" long:"stream" description:"Rewrite chunk by chunk instead of loading the whole dump"`
	Buffer    int    `long:"buffer-size" description:"Streaming buffer size in bytes"`
	ApplyDSN  string `long:"apply-dsn" description:"Execute the rewritten dump against this PostgreSQL DSN"`
	Verbose   bool   `short:"v" long:"verbose" description:"Print matcher diagnostics to stderr"`
	LogLevel  string `long:"log-level" description:"Log level: debug, info, warn or error"`
	LogFormat string `long:"log-format" description:"Log format: text or json"`

	ctx    context.Context
	stdout io.Writer
	stderr io.Writer
}

// GenerateCommand flags.
type GenerateCommand struct {
	Name     string   `short:"n" long:"name" required:"true" description:"Name of the generated function"`
	Package  string   `short:"p" long:"package" default:"main" description:"Go package of the generated file"`
	Output   string   `short:"o" long:"output" required:"true" description:"Output Go file"`
	Template string   `short:"t" long:"template" description:"Replacement template"`
	Tests    []string `long:"test-input" description:"Input for the generated test; repeatable"`

	ctx    context.Context
	stdout io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run parses args, executes the selected command and returns the exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := Options{
		Fix:      FixCommand{ctx: ctx, stdout: stdout, stderr: stderr},
		Generate: GenerateCommand{ctx: ctx, stdout: stdout},
	}
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "fieldnull"

	_, err := parser.ParseArgs(args)
	if err == nil {
		return 0
	}
	var flagsErr *flags.Error
	if errors.As(err, &flagsErr) {
		if flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(stdout, flagsErr.Message)
			return 0
		}
		fmt.Fprintln(stderr, flagsErr.Message)
		return 2
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

// Execute implements flags.Commander.
func (c *FixCommand) Execute(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(args, " "))
	}
	cfg, err := c.config()
	if err != nil {
		return err
	}
	logger := cfg.NewLogger(c.stderr)

	mode, err := nuller.ParseMode(cfg.Mode)
	if err != nil {
		return err
	}
	res, err := fieldnull.Run(c.ctx, fieldnull.Options{
		Input:      cfg.Input,
		Output:     cfg.Output,
		Mode:       mode,
		Template:   cfg.Template,
		Stream:     cfg.Stream,
		BufferSize: cfg.BufferSize,
		Verbose:    cfg.Verbose,
		ApplyDSN:   cfg.ApplyDSN,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	if res.Applied != nil {
		logger.Info("dump applied", "statements", res.Applied.Statements, "rows", res.Applied.RowsAffected)
	}
	fmt.Fprintf(c.stdout, "Fixed SQL written to %s\n", res.Output)
	return nil
}

// config layers the flags over the config file over the defaults.
func (c *FixCommand) config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if c.Config != "" {
		loaded, err := config.LoadFromFile(c.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if c.Input != "" {
		cfg.Input = c.Input
	}
	if c.Output != "" {
		cfg.Output = c.Output
	}
	if c.Mode != "" {
		cfg.Mode = c.Mode
	}
	if c.Template != "" {
		cfg.Template = c.Template
	}
	if c.Stream {
		cfg.Stream = true
	}
	if c.Buffer != 0 {
		cfg.BufferSize = c.Buffer
	}
	if c.ApplyDSN != "" {
		cfg.ApplyDSN = c.ApplyDSN
	}
	if c.Verbose {
		cfg.Verbose = true
	}
	if c.LogLevel != "" {
		cfg.LogLevel = c.LogLevel
	}
	if c.LogFormat != "" {
		cfg.LogFormat = c.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Execute implements flags.Commander.
func (c *GenerateCommand) Execute(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(args, " "))
	}
	err := fieldnull.Generate(c.ctx, fieldnull.GenerateOptions{
		Name:       c.Name,
		Package:    c.Package,
		OutputFile: c.Output,
		Template:   c.Template,
		TestInputs: c.Tests,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Generated %s\n", c.Output)
	if len(c.Tests) > 0 {
		fmt.Fprintf(c.stdout, "Generated %s\n", fieldnull.TestFileName(c.Output))
	}
	return nil
}
