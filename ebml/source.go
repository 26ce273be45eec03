package ebml

import (
	"io"

	"github.com/varanine/daqfile/internal/hash"
)

// fingerprintPrefix is the number of leading bytes hashed into a source
// fingerprint. Recording headers live at the front of the file, so a
// mutated stream is overwhelmingly likely to differ within this prefix
// or in total size.
const fingerprintPrefix = 4096

// Source is an addressable, seekable span of bytes: a whole recording file
// or a bounded sub-range of one.
//
// Sub-sources created with Window share the underlying storage but carry
// independent bounds; reads are stateless (io.ReaderAt semantics), so any
// number of goroutines may read concurrently without per-reader file
// handles.
type Source struct {
	r    io.ReaderAt
	base int64
	size int64
}

// NewSource creates a Source covering size bytes of r starting at offset 0.
func NewSource(r io.ReaderAt, size int64) *Source {
	return &Source{r: r, size: size}
}

// Size returns the number of bytes spanned by the source.
func (s *Source) Size() int64 {
	return s.size
}

// Window returns a sub-source covering [off, off+length) of s.
//
// Returns ErrInvalidWindow if the requested range is not fully contained
// in s.
func (s *Source) Window(off, length int64) (*Source, error) {
	if off < 0 || length < 0 || off+length > s.size {
		return nil, ErrInvalidWindow
	}

	return &Source{r: s.r, base: s.base + off, size: length}, nil
}

// ReadAt implements io.ReaderAt relative to the source's own origin.
// Reads are clamped to the source's bounds; a read starting at or past the
// end returns io.EOF.
func (s *Source) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, ErrInvalidWindow
	}
	if off >= s.size {
		return 0, io.EOF
	}

	clamped := false
	if max := s.size - off; int64(len(p)) > max {
		p = p[:max]
		clamped = true
	}

	n, err := s.r.ReadAt(p, s.base+off)
	if err == nil && clamped {
		err = io.EOF
	}

	return n, err
}

// ReadRange reads exactly n bytes starting at off.
//
// Returns ErrWindowOverrun if the range extends past the source, and
// io.ErrUnexpectedEOF if the underlying storage delivers fewer bytes than
// the source's declared size promises.
func (s *Source) ReadRange(off, n int64) ([]byte, error) {
	if off < 0 || n < 0 || off+n > s.size {
		return nil, ErrWindowOverrun
	}
	if n == 0 {
		return nil, nil
	}

	buf := make([]byte, n)
	read, err := s.r.ReadAt(buf, s.base+off)
	if err != nil && !(err == io.EOF && int64(read) == n) {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}

		return nil, err
	}

	return buf, nil
}

// Fingerprint hashes the source's leading bytes and size into a 64-bit
// identity used to detect mutation of the underlying stream between
// document walks.
func (s *Source) Fingerprint() uint64 {
	n := s.size
	if n > fingerprintPrefix {
		n = fingerprintPrefix
	}

	prefix, err := s.ReadRange(0, n)
	if err != nil {
		// An unreadable source never matches a previously computed
		// fingerprint.
		return ^uint64(0)
	}

	return hash.Sum64(prefix) ^ uint64(s.size)
}
