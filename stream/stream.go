// Package stream rewrites matches in an io.Reader chunk by chunk.
//
// A Transformer reads its source in buffers, hands each buffer to a
// pattern-specific Processor and exposes the rewritten bytes as an
// io.Reader, so dumps larger than memory can be piped through:
//
//	tr := stream.NewTransformer(file, stream.DefaultTransformConfig(), proc, onMatch)
//	defer tr.Close()
//	_, err := io.Copy(out, tr)
package stream

import "fmt"

// MinBufferSize is the smallest BufferSize accepted by Config.Validate.
const MinBufferSize = 512

// DefaultBufferSize is used when Config.BufferSize is zero.
const DefaultBufferSize = 64 * 1024

// Config configures chunked reading.
type Config struct {
	// BufferSize is the chunk size for reading from the io.Reader.
	// Default: 64KB.
	BufferSize int

	// MaxLeftover limits the bytes a processor may hold back between
	// chunks. Excess is flushed unmatched.
	//
	// Set to -1 for unlimited: the buffer then grows to fit the longest
	// pending candidate, which keeps chunked output identical to a
	// whole-input rewrite. Set to 0 to use BufferSize / 2.
	MaxLeftover int
}

// DefaultConfig returns a Config with a 64KB buffer and the default leftover.
func DefaultConfig() Config {
	return Config{
		BufferSize:  DefaultBufferSize,
		MaxLeftover: 0,
	}
}

// ErrBufferTooSmall is returned when Config.BufferSize is below the minimum.
type ErrBufferTooSmall struct {
	Requested int
	Minimum   int
}

func (e ErrBufferTooSmall) Error() string {
	return fmt.Sprintf("stream: buffer size %d too small, minimum is %d", e.Requested, e.Minimum)
}

// Validate returns ErrBufferTooSmall if a non-zero BufferSize is below minBuffer.
func (c Config) Validate(minBuffer int) error {
	if c.BufferSize != 0 && c.BufferSize < minBuffer {
		return ErrBufferTooSmall{Requested: c.BufferSize, Minimum: minBuffer}
	}
	return nil
}

// withDefaults fills zero values.
func (c Config) withDefaults() Config {
	if c.BufferSize <= 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.MaxLeftover == 0 {
		c.MaxLeftover = c.BufferSize / 2
	}
	return c
}
