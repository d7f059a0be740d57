package fieldnull

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/KromDaniel/fieldnull/internal/codegen"
	"github.com/KromDaniel/fieldnull/internal/storage"
)

// GenerateOptions configures Generate.
type GenerateOptions struct {
	// Name of the generated function
	Name string

	// Package is the Go package name for the generated code
	Package string

	// OutputFile is where the generated code is written
	OutputFile string

	// Template is the replacement template; empty means DefaultTemplate
	Template string

	// TestInputs, when set, also produce <OutputFile>_test.go with the
	// expected rewrite of each input
	TestInputs []string
}

// Generate writes a standalone Go function performing the rewrite with the
// standard regexp package. Escape-aware matching is not available there.
func Generate(ctx context.Context, opts GenerateOptions) error {
	if opts.OutputFile == "" {
		return fmt.Errorf("invalid options: output file cannot be empty")
	}
	g, err := codegen.New(codegen.Options{
		Name:       opts.Name,
		Package:    opts.Package,
		Template:   opts.Template,
		TestInputs: opts.TestInputs,
	})
	if err != nil {
		return err
	}

	store := storage.New()
	var buf bytes.Buffer
	if err := g.Source().Render(&buf); err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}
	if err := store.Write(ctx, opts.OutputFile, buf.Bytes()); err != nil {
		return err
	}

	if !g.HasTest() {
		return nil
	}
	buf.Reset()
	if err := g.TestSource().Render(&buf); err != nil {
		return fmt.Errorf("failed to generate test: %w", err)
	}
	return store.Write(ctx, TestFileName(opts.OutputFile), buf.Bytes())
}

// TestFileName returns the _test.go companion of a generated file.
func TestFileName(outputFile string) string {
	return strings.TrimSuffix(outputFile, ".go") + "_test.go"
}
