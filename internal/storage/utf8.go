package storage

import (
	"io"
	"unicode/utf8"
)

// utf8Reader passes bytes through unchanged while validating them as UTF-8.
// A rune split across two reads is held in pending until it is complete.
type utf8Reader struct {
	source  io.ReadCloser
	url     string
	offset  int64 // bytes validated so far
	pending []byte
}

func (r *utf8Reader) Read(p []byte) (int, error) {
	n, err := r.source.Read(p)
	chunk := append(r.pending, p[:n]...)

	i := 0
	for i < len(chunk) {
		if chunk[i] < utf8.RuneSelf {
			i++
			continue
		}
		if !utf8.FullRune(chunk[i:]) {
			break
		}
		c, size := utf8.DecodeRune(chunk[i:])
		if c == utf8.RuneError && size == 1 {
			return n, &DecodeError{URL: r.url, Offset: r.offset + int64(i)}
		}
		i += size
	}
	r.offset += int64(i)
	r.pending = append(r.pending[:0:0], chunk[i:]...)

	if err == io.EOF && len(r.pending) > 0 {
		return n, &DecodeError{URL: r.url, Offset: r.offset}
	}
	return n, err
}

func (r *utf8Reader) Close() error {
	return r.source.Close()
}
