package stream

import (
	"context"
	"errors"
	"io"
	"sync"
)

// TransformFunc rewrites one match. It may call emit any number of times;
// if it never does, the match is dropped. Non-matching bytes are passed
// through by the Processor itself.
type TransformFunc func(match []byte, emit func([]byte))

// Processor is the pattern-specific step run over each buffered chunk. It
// must:
//  1. find the matches in data and call onMatch for each,
//  2. emit the bytes between matches through emitNonMatch,
//  3. return how many bytes of data are fully handled.
//
// Bytes past the returned count are a candidate that may continue in the
// next chunk; they are offered again, with more data appended, on the next
// call. When isEOF is true the processor must consume all of data.
type Processor func(data []byte, isEOF bool, onMatch TransformFunc, emitNonMatch func([]byte)) (processed int)

// TransformConfig extends Config with transform-specific options.
type TransformConfig struct {
	Config

	// Context cancels reading. Nil means no cancellation.
	Context context.Context
}

// DefaultTransformConfig returns a TransformConfig with sensible defaults.
func DefaultTransformConfig() TransformConfig {
	return TransformConfig{Config: DefaultConfig()}
}

var inputBufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, DefaultBufferSize)
		return &buf
	},
}

// Transformer wraps a source io.Reader and rewrites matches lazily as it is
// read. It implements io.ReadCloser.
type Transformer struct {
	source    io.Reader
	cfg       TransformConfig
	processor Processor
	onMatch   TransformFunc

	inputBuf   []byte
	inputStart int // start of unprocessed data
	inputEnd   int // end of valid data

	outputBuf   []byte
	outputStart int // start of unread output

	sourceEOF bool
	err       error

	pooled   *[]byte
	released bool
}

// NewTransformer creates a Transformer reading from source.
func NewTransformer(source io.Reader, cfg TransformConfig, processor Processor, onMatch TransformFunc) *Transformer {
	cfg.Config = cfg.Config.withDefaults()
	t := &Transformer{
		source:    source,
		cfg:       cfg,
		processor: processor,
		onMatch:   onMatch,
	}
	if cfg.BufferSize == DefaultBufferSize {
		t.pooled, _ = inputBufPool.Get().(*[]byte) //nolint:errcheck // pool only holds *[]byte
		t.inputBuf = *t.pooled
	} else {
		t.inputBuf = make([]byte, cfg.BufferSize)
	}
	t.outputBuf = make([]byte, 0, cfg.BufferSize)
	return t
}

// Close returns the pooled read buffer. It is safe to call more than once.
func (t *Transformer) Close() error {
	if t.released {
		return nil
	}
	t.released = true
	if t.pooled != nil {
		inputBufPool.Put(t.pooled)
		t.pooled = nil
	}
	t.inputBuf = nil
	return nil
}

// Read implements io.Reader.
func (t *Transformer) Read(p []byte) (int, error) {
	if err := t.cancelled(); err != nil {
		return 0, err
	}
	for t.outputStart == len(t.outputBuf) {
		if t.err != nil {
			return 0, t.err
		}
		if t.released {
			return 0, errors.New("stream: read after close")
		}
		if err := t.processMore(); err != nil {
			// surface buffered output before the error
			t.err = err
			continue
		}
		if err := t.cancelled(); err != nil {
			t.err = err
		}
	}

	n := copy(p, t.outputBuf[t.outputStart:])
	t.outputStart += n
	if t.outputStart == len(t.outputBuf) {
		t.outputStart = 0
		t.outputBuf = t.outputBuf[:0]
	}
	return n, nil
}

func (t *Transformer) cancelled() error {
	if t.cfg.Context == nil {
		return nil
	}
	select {
	case <-t.cfg.Context.Done():
		return t.cfg.Context.Err()
	default:
		return nil
	}
}

// processMore reads one chunk from the source and processes it.
// It returns io.EOF once all input has been processed.
func (t *Transformer) processMore() error {
	if t.sourceEOF && t.inputStart >= t.inputEnd {
		return io.EOF
	}

	if t.inputStart > 0 {
		remaining := copy(t.inputBuf, t.inputBuf[t.inputStart:t.inputEnd])
		t.inputStart = 0
		t.inputEnd = remaining
	}

	if !t.sourceEOF {
		if t.inputEnd == len(t.inputBuf) {
			// a pending candidate fills the whole buffer
			grown := make([]byte, 2*len(t.inputBuf))
			copy(grown, t.inputBuf[:t.inputEnd])
			t.inputBuf = grown
		}
		n, err := t.source.Read(t.inputBuf[t.inputEnd:])
		t.inputEnd += n
		if err == io.EOF {
			t.sourceEOF = true
		} else if err != nil {
			return err
		}
	}

	if t.inputEnd == 0 {
		if t.sourceEOF {
			return io.EOF
		}
		return nil
	}

	data := t.inputBuf[t.inputStart:t.inputEnd]
	t.inputStart += t.processor(data, t.sourceEOF, t.onMatch, t.emitOutput)

	if !t.sourceEOF && t.cfg.MaxLeftover >= 0 {
		if leftover := t.inputEnd - t.inputStart; leftover > t.cfg.MaxLeftover {
			excess := leftover - t.cfg.MaxLeftover
			t.emitOutput(t.inputBuf[t.inputStart : t.inputStart+excess])
			t.inputStart += excess
		}
	}
	return nil
}

func (t *Transformer) emitOutput(data []byte) {
	t.outputBuf = append(t.outputBuf, data...)
}
