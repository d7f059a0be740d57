// Package storage reads SQL dumps from and writes them to any location
// understood by afs: local paths, file:// and mem:// URLs, or a cloud
// bucket when its afs connector is linked in.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

var (
	// ErrInputNotFound is returned when the input does not exist or cannot be read.
	ErrInputNotFound = errors.New("input not found")
	// ErrDecode is returned when the input is not valid UTF-8.
	ErrDecode = errors.New("input is not valid UTF-8")
	// ErrOutputWrite is returned when the output cannot be created or written.
	ErrOutputWrite = errors.New("output write failed")
)

// DecodeError reports the offset of the first byte that is not valid UTF-8.
type DecodeError struct {
	URL    string
	Offset int64
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: invalid UTF-8 at byte %d", e.URL, e.Offset)
}

// Is makes errors.Is(err, ErrDecode) hold for a *DecodeError.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// Store wraps an afs.Service.
type Store struct {
	fs afs.Service
}

// New creates a Store backed by the default afs service.
func New() *Store {
	return &Store{fs: afs.New()}
}

// Location turns a relative local path into an absolute one and leaves
// URLs untouched.
func Location(location string) string {
	if location == "" || strings.Contains(location, "://") || filepath.IsAbs(location) {
		return location
	}
	if abs, err := filepath.Abs(location); err == nil {
		return abs
	}
	return location
}

// Read loads the whole document at location and checks it is valid UTF-8.
func (s *Store) Read(ctx context.Context, location string) ([]byte, error) {
	location = Location(location)
	if err := s.checkExists(ctx, location); err != nil {
		return nil, err
	}
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInputNotFound, location, err)
	}
	if !utf8.Valid(data) {
		return nil, &DecodeError{URL: location, Offset: int64(invalidOffset(data))}
	}
	return data, nil
}

// Open returns a reader over the document at location. Bytes that are not
// valid UTF-8 make Read fail with a *DecodeError.
func (s *Store) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	location = Location(location)
	if err := s.checkExists(ctx, location); err != nil {
		return nil, err
	}
	rc, err := s.fs.OpenURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInputNotFound, location, err)
	}
	return &utf8Reader{source: rc, url: location}, nil
}

// Write creates or truncates location with data.
func (s *Store) Write(ctx context.Context, location string, data []byte) error {
	return s.WriteFrom(ctx, location, bytes.NewReader(data))
}

// WriteFrom creates or replaces location with everything read from r.
// The content is staged next to location and moved over it only once r is
// fully written, so a failed run leaves an existing output untouched.
// An error reading r is returned as is, not wrapped in ErrOutputWrite.
func (s *Store) WriteFrom(ctx context.Context, location string, r io.Reader) error {
	location = Location(location)
	parent, name := url.Split(location, file.Scheme)
	if url.Scheme(location, file.Scheme) == file.Scheme {
		if obj, err := s.fs.Object(ctx, parent); err != nil || !obj.IsDir() {
			return fmt.Errorf("%w: %s: missing directory %s", ErrOutputWrite, location, parent)
		}
	}

	staged := url.Join(parent, "."+uuid.NewString()+"-"+name)
	src := &errorTrackingReader{source: r}
	if err := s.fs.Upload(ctx, staged, file.DefaultFileOsMode, src); err != nil {
		_ = s.fs.Delete(ctx, staged)
		if src.err != nil {
			return src.err
		}
		return fmt.Errorf("%w: %s: %v", ErrOutputWrite, location, err)
	}
	if src.err != nil {
		_ = s.fs.Delete(ctx, staged)
		return src.err
	}
	if err := s.fs.Move(ctx, staged, location); err != nil {
		_ = s.fs.Delete(ctx, staged)
		return fmt.Errorf("%w: %s: %v", ErrOutputWrite, location, err)
	}
	return nil
}

func (s *Store) checkExists(ctx context.Context, location string) error {
	ok, err := s.fs.Exists(ctx, location)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInputNotFound, location, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrInputNotFound, location)
	}
	return nil
}

func invalidOffset(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return len(data)
}

// errorTrackingReader remembers the first non-EOF error of its source so a
// failed upload can be blamed on the right side.
type errorTrackingReader struct {
	source io.Reader
	err    error
}

func (r *errorTrackingReader) Read(p []byte) (int, error) {
	n, err := r.source.Read(p)
	if err != nil && err != io.EOF && r.err == nil {
		r.err = err
	}
	return n, err
}
