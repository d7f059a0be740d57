package nuller

import (
	"bytes"
	"context"
	"io"

	"github.com/KromDaniel/fieldnull/stream"
)

// Processor returns a stream.Processor that finds tuple tails chunk by
// chunk. A candidate cut by the end of a chunk is held back until more input
// arrives, so the streamed output equals Transform of the whole input.
// ModeRegexp streams through the scanner since both accept the same tails.
func (n *Nuller) Processor() stream.Processor {
	s := n.scan
	return func(data []byte, isEOF bool, onMatch stream.TransformFunc, emitNonMatch func([]byte)) int {
		processed := 0
		i := 0
		for {
			k := bytes.IndexByte(data[i:], ',')
			if k < 0 {
				break
			}
			i += k
			m, st := s.matchAt(data, i, isEOF)
			switch st {
			case scanMatch:
				emitNonMatch(data[processed:m.start])
				onMatch(data[m.start:m.end], emitNonMatch)
				processed = m.end
				i = m.end
			case scanNeedMore:
				emitNonMatch(data[processed:i])
				return i
			default:
				i++
			}
		}
		// no candidate can start in the remainder
		emitNonMatch(data[processed:])
		return len(data)
	}
}

// OnMatch returns the stream.TransformFunc that expands the replacement
// template for a single matched tail.
func (n *Nuller) OnMatch(stats *Stats) stream.TransformFunc {
	return func(match []byte, emit func([]byte)) {
		m, st := n.scan.matchAt(match, 0, true)
		if st != scanMatch {
			emit(match)
			return
		}
		if stats != nil {
			stats.Matches++
		}
		emit(n.expand(nil, match, m))
	}
}

// NewReader returns an io.Reader yielding the rewritten content of src.
// Candidates are never cut at chunk boundaries: the read buffer grows when a
// single pending tail does not fit in it.
func (n *Nuller) NewReader(ctx context.Context, src io.Reader, bufferSize int, stats *Stats) *stream.Transformer {
	cfg := stream.DefaultTransformConfig()
	if bufferSize > 0 {
		cfg.BufferSize = bufferSize
	}
	cfg.MaxLeftover = -1
	cfg.Context = ctx
	return stream.NewTransformer(src, cfg, n.Processor(), n.OnMatch(stats))
}
