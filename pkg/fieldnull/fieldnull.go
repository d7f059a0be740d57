// Package fieldnull rewrites the driver id column of INSERT tuples in a SQL
// dump to NULL, keeping the department column that follows it.
//
// A tuple tail such as
//
//	, 'a1b2c3d4-e5f6-7890-abcd-ef1234567890', 'Engineering')
//
// becomes
//
//	, NULL, 'Engineering')
//
// Everything else in the dump is copied through unchanged.
package fieldnull

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/KromDaniel/fieldnull/internal/apply"
	"github.com/KromDaniel/fieldnull/internal/nuller"
	"github.com/KromDaniel/fieldnull/internal/storage"
	"github.com/KromDaniel/fieldnull/stream"
)

// Mode selects the engine used to find tuple tails.
type Mode = nuller.Mode

const (
	// ModeRegexp uses the standard regexp engine. It is the default.
	ModeRegexp = nuller.ModeRegexp
	// ModeScan uses a byte scanner with the same results as ModeRegexp.
	ModeScan = nuller.ModeScan
	// ModeEscapeAware also accepts SQL '' escapes inside the department.
	ModeEscapeAware = nuller.ModeEscapeAware
)

// DefaultTemplate is the replacement used when Options.Template is empty.
const DefaultTemplate = nuller.DefaultTemplate

var (
	// ErrInputNotFound is returned when the input does not exist or cannot be read.
	ErrInputNotFound = storage.ErrInputNotFound
	// ErrDecode is returned when the input is not valid UTF-8.
	ErrDecode = storage.ErrDecode
	// ErrOutputWrite is returned when the output cannot be created or written.
	ErrOutputWrite = storage.ErrOutputWrite
)

// DecodeError carries the offset of the first invalid UTF-8 byte.
type DecodeError = storage.DecodeError

// Options configures a rewrite run.
type Options struct {
	// Input is the dump to read: a local path or an afs URL (file://, mem://, ...)
	Input string

	// Output is where the rewritten dump is written; created or overwritten
	Output string

	// Mode selects the matching engine
	Mode Mode

	// Template is the replacement template; empty means DefaultTemplate
	Template string

	// Stream rewrites chunk by chunk instead of loading the whole dump
	Stream bool

	// BufferSize is the streaming chunk size; 0 means 64KB
	BufferSize int

	// Verbose enables [fieldnull] diagnostics on stderr
	Verbose bool

	// ApplyDSN, when set, executes the rewritten dump against PostgreSQL
	ApplyDSN string

	// Logger receives run-level events; nil discards them
	Logger *slog.Logger
}

// Validate checks if the options are valid.
func (o Options) Validate() error {
	if o.Input == "" {
		return fmt.Errorf("input cannot be empty")
	}
	if o.Output == "" {
		return fmt.Errorf("output cannot be empty")
	}
	if storage.Location(o.Input) == storage.Location(o.Output) {
		return fmt.Errorf("input and output cannot be the same location")
	}
	if o.BufferSize < 0 {
		return fmt.Errorf("buffer size cannot be negative")
	}
	if err := (stream.Config{BufferSize: o.BufferSize}).Validate(stream.MinBufferSize); err != nil {
		return err
	}
	return nil
}

// Result describes a completed run.
type Result struct {
	Output   string
	Matches  int
	BytesIn  int64
	BytesOut int64

	// Applied is set when Options.ApplyDSN was used
	Applied *apply.Result
}

// Run reads the input, rewrites every tuple tail and writes the output.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	n, err := nuller.New(nuller.Config{Mode: opts.Mode, Template: opts.Template, Verbose: opts.Verbose})
	if err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	store := storage.New()
	result := &Result{Output: opts.Output}
	logger.Debug("rewriting dump", "input", opts.Input, "output", opts.Output, "mode", n.Mode(), "stream", opts.Stream)

	if opts.Stream {
		err = runStream(ctx, store, n, opts, result)
	} else {
		err = runDocument(ctx, store, n, opts, result)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("dump rewritten", "output", opts.Output, "tuples", result.Matches, "bytes_in", result.BytesIn, "bytes_out", result.BytesOut)

	if opts.ApplyDSN != "" {
		applied, err := applyOutput(ctx, store, opts, logger)
		if err != nil {
			return result, err
		}
		result.Applied = applied
	}
	return result, nil
}

func runDocument(ctx context.Context, store *storage.Store, n *nuller.Nuller, opts Options, result *Result) error {
	data, err := store.Read(ctx, opts.Input)
	if err != nil {
		return err
	}
	out, stats := n.TransformBytes(data)
	if err := store.Write(ctx, opts.Output, out); err != nil {
		return err
	}
	result.Matches = stats.Matches
	result.BytesIn = int64(stats.BytesIn)
	result.BytesOut = int64(stats.BytesOut)
	return nil
}

func runStream(ctx context.Context, store *storage.Store, n *nuller.Nuller, opts Options, result *Result) error {
	rc, err := store.Open(ctx, opts.Input)
	if err != nil {
		return err
	}
	defer rc.Close()

	var stats nuller.Stats
	in := &countingReader{source: rc}
	tr := n.NewReader(ctx, in, opts.BufferSize, &stats)
	defer tr.Close()
	out := &countingReader{source: tr}

	if err := store.WriteFrom(ctx, opts.Output, out); err != nil {
		return err
	}
	stats.BytesIn, stats.BytesOut = int(in.n), int(out.n)
	n.Logger().Summary(stats)

	result.Matches = stats.Matches
	result.BytesIn = in.n
	result.BytesOut = out.n
	return nil
}

func applyOutput(ctx context.Context, store *storage.Store, opts Options, logger *slog.Logger) (*apply.Result, error) {
	doc, err := store.Read(ctx, opts.Output)
	if err != nil {
		return nil, err
	}
	db, err := apply.Open(ctx, opts.ApplyDSN)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	res, err := apply.New(db, logger).Apply(ctx, string(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to apply %s: %w", opts.Output, err)
	}
	return &res, nil
}

type countingReader struct {
	source io.Reader
	n      int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.source.Read(p)
	r.n += int64(n)
	return n, err
}

var defaultNuller = nuller.Default()

// Transform rewrites document in memory with the default mode and template.
func Transform(document string) string {
	return defaultNuller.Transform(document)
}
