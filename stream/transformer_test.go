package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

// simpleProcessor replaces occurrences of find, holding back a possible
// partial occurrence at the end of each chunk.
func simpleProcessor(find []byte) Processor {
	return func(data []byte, isEOF bool, onMatch TransformFunc, emitNonMatch func([]byte)) int {
		processed := 0
		for {
			idx := bytes.Index(data[processed:], find)
			if idx == -1 {
				if isEOF {
					emitNonMatch(data[processed:])
					return len(data)
				}
				safePoint := len(data) - len(find) + 1
				if safePoint < processed {
					safePoint = processed
				}
				emitNonMatch(data[processed:safePoint])
				return safePoint
			}
			matchStart := processed + idx
			emitNonMatch(data[processed:matchStart])
			onMatch(data[matchStart:matchStart+len(find)], emitNonMatch)
			processed = matchStart + len(find)
		}
	}
}

// holdAllProcessor emits nothing until EOF, then upper-cases everything.
func holdAllProcessor(data []byte, isEOF bool, _ TransformFunc, emitNonMatch func([]byte)) int {
	if !isEOF {
		return 0
	}
	emitNonMatch(bytes.ToUpper(data))
	return len(data)
}

func replaceWith(s string) TransformFunc {
	return func(_ []byte, emit func([]byte)) {
		emit([]byte(s))
	}
}

func readAll(t *testing.T, r io.Reader) string {
	t.Helper()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return string(out)
}

func TestTransformerImplementsReadCloser(t *testing.T) {
	var _ io.ReadCloser = (*Transformer)(nil)
}

func TestTransformer(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		find    string
		onMatch TransformFunc
		want    string
	}{
		{"basic", "(1, null, 'HR')", "null", replaceWith("NULL"), "(1, NULL, 'HR')"},
		{"empty input", "", "null", replaceWith("NULL"), ""},
		{"no matches", "(5, 42, 'Finance')", "null", replaceWith("NULL"), "(5, 42, 'Finance')"},
		{"match at start", "null, 'HR')", "null", replaceWith("NULL"), "NULL, 'HR')"},
		{"match at end", "(1, null", "null", replaceWith("NULL"), "(1, NULL"},
		{"only matches", "nullnullnull", "null", replaceWith("N"), "NNN"},
		{"multiple", "(1, null), (2, null)", "null", replaceWith("NULL"), "(1, NULL), (2, NULL)"},
		{"drop", "a-null-b", "-null", func([]byte, func([]byte)) {}, "a-b"},
		{"passthrough", "a null b", "null", func(m []byte, emit func([]byte)) { emit(m) }, "a null b"},
		{"multiple emit", "x:null", "null", func(_ []byte, emit func([]byte)) {
			emit([]byte("N"))
			emit([]byte("ULL"))
		}, "x:NULL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTransformer(strings.NewReader(tt.input), DefaultTransformConfig(), simpleProcessor([]byte(tt.find)), tt.onMatch)
			defer tr.Close()
			if got := readAll(t, tr); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTransformerEmptyInputReturnsEOF(t *testing.T) {
	tr := NewTransformer(strings.NewReader(""), DefaultTransformConfig(), simpleProcessor([]byte("x")), replaceWith("y"))
	n, err := tr.Read(make([]byte, 10))
	if n != 0 || err != io.EOF {
		t.Errorf("Read() = %d, %v; want 0, io.EOF", n, err)
	}
}

func TestTransformerOneByteReads(t *testing.T) {
	input := strings.Repeat("(7, null, 'Ops'), ", 50)
	want := strings.ReplaceAll(input, "null", "NULL")

	cfg := DefaultTransformConfig()
	cfg.BufferSize = MinBufferSize
	tr := NewTransformer(iotest.OneByteReader(strings.NewReader(input)), cfg, simpleProcessor([]byte("null")), replaceWith("NULL"))
	if got := readAll(t, iotest.OneByteReader(tr)); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTransformerChunkBoundary(t *testing.T) {
	// place the match across every possible boundary of a small buffer
	for offset := 0; offset < 16; offset++ {
		input := strings.Repeat("x", 60+offset) + "MARKER" + strings.Repeat("y", 30)
		cfg := DefaultTransformConfig()
		cfg.BufferSize = 64
		tr := NewTransformer(strings.NewReader(input), cfg, simpleProcessor([]byte("MARKER")), replaceWith("#"))
		want := strings.Replace(input, "MARKER", "#", 1)
		if got := readAll(t, tr); got != want {
			t.Fatalf("offset %d: got %q, want %q", offset, got, want)
		}
	}
}

func TestTransformerGrowsBufferForUnlimitedLeftover(t *testing.T) {
	input := strings.Repeat("abc", 1000)
	cfg := DefaultTransformConfig()
	cfg.BufferSize = 100
	cfg.MaxLeftover = -1
	tr := NewTransformer(strings.NewReader(input), cfg, holdAllProcessor, nil)
	if got := readAll(t, tr); got != strings.ToUpper(input) {
		t.Errorf("output differs from input, got %d bytes", len(got))
	}
}

func TestTransformerMaxLeftoverFlushes(t *testing.T) {
	input := strings.Repeat("abc", 1000)
	cfg := DefaultTransformConfig()
	cfg.BufferSize = 100
	tr := NewTransformer(strings.NewReader(input), cfg, holdAllProcessor, nil)
	got := readAll(t, tr)
	if len(got) != len(input) {
		t.Fatalf("got %d bytes, want %d", len(got), len(input))
	}
	if got == strings.ToUpper(input) {
		t.Error("expected the leftover limit to flush unprocessed bytes unchanged")
	}
}

func TestTransformerContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := DefaultTransformConfig()
	cfg.Context = ctx
	tr := NewTransformer(strings.NewReader(strings.Repeat("x", 1<<20)), cfg, simpleProcessor([]byte("y")), replaceWith("z"))

	if _, err := tr.Read(make([]byte, 10)); err != nil {
		t.Fatalf("first read failed: %v", err)
	}
	cancel()
	if _, err := io.ReadAll(tr); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestTransformerSourceError(t *testing.T) {
	boom := errors.New("disk on fire")
	tr := NewTransformer(iotest.ErrReader(boom), DefaultTransformConfig(), simpleProcessor([]byte("x")), replaceWith("y"))
	if _, err := io.ReadAll(tr); !errors.Is(err, boom) {
		t.Errorf("expected source error, got %v", err)
	}
}

func TestTransformerClose(t *testing.T) {
	tr := NewTransformer(strings.NewReader("abc"), DefaultTransformConfig(), simpleProcessor([]byte("b")), replaceWith("B"))
	for i := 0; i < 3; i++ {
		if err := tr.Close(); err != nil {
			t.Fatalf("Close() #%d = %v", i, err)
		}
	}
	if _, err := tr.Read(make([]byte, 4)); err == nil {
		t.Error("expected error reading after Close")
	}
}

func BenchmarkTransformer(b *testing.B) {
	input := strings.Repeat("(1, 'a', null, 'Sales'), ", 4096)
	processor := simpleProcessor([]byte("null"))
	b.SetBytes(int64(len(input)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tr := NewTransformer(strings.NewReader(input), DefaultTransformConfig(), processor, replaceWith("NULL"))
		_, _ = io.Copy(io.Discard, tr)
		tr.Close()
	}
}
