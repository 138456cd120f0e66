package linesource

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Source yields one line at a time. Next returns io.EOF once the stream is
// exhausted and ErrLineTooLong (wrapped) for a single dropped line; any other
// error means the transport failed and the stream is over.
type Source interface {
	Next() (string, error)
}

// TransportError wraps a failure reported by the underlying transport.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

const DefaultMaxLineBytes = 4096

// ErrLineTooLong is returned, wrapped in a *LineTooLongError, when a line
// exceeds the size limit. Only that line is lost; the next call continues
// with the following line.
var ErrLineTooLong = errors.New("line too long")

type LineTooLongError struct {
	// Bytes is how much was discarded, including the newline when present.
	Bytes int
}

func (e *LineTooLongError) Error() string {
	return fmt.Sprintf("%v: dropped %d bytes", ErrLineTooLong, e.Bytes)
}

func (e *LineTooLongError) Unwrap() error { return ErrLineTooLong }

// ReaderSource splits an io.Reader into lines. Trailing "\r" is stripped so
// CRLF devices look the same as LF ones. maxLineBytes counts the newline.
type ReaderSource struct {
	r   *bufio.Reader
	err error
}

func NewReaderSource(r io.Reader, maxLineBytes int) *ReaderSource {
	if maxLineBytes <= 0 {
		maxLineBytes = DefaultMaxLineBytes
	}
	return &ReaderSource{r: bufio.NewReaderSize(r, maxLineBytes)}
}

func (s *ReaderSource) Next() (string, error) {
	if s.err != nil {
		return "", s.err
	}

	b, err := s.r.ReadSlice('\n')
	switch {
	case err == nil:
		return trimEOL(b), nil

	case errors.Is(err, bufio.ErrBufferFull):
		// Skip the rest of the oversized line.
		n := len(b)
		for errors.Is(err, bufio.ErrBufferFull) {
			b, err = s.r.ReadSlice('\n')
			n += len(b)
		}
		if err != nil {
			s.fail(err)
		}
		return "", &LineTooLongError{Bytes: n}

	default:
		s.fail(err)
		// Final line without a trailing newline.
		if len(b) > 0 {
			return trimEOL(b), nil
		}
		return "", s.err
	}
}

func (s *ReaderSource) fail(err error) {
	if errors.Is(err, io.EOF) {
		s.err = io.EOF
		return
	}
	s.err = &TransportError{Op: "read", Err: err}
}

func trimEOL(b []byte) string {
	return strings.TrimSuffix(strings.TrimSuffix(string(b), "\n"), "\r")
}

// SliceSource replays a fixed set of lines.
type SliceSource struct {
	lines []string
	i     int
}

func NewSliceSource(lines []string) *SliceSource {
	return &SliceSource{lines: lines}
}

func (s *SliceSource) Next() (string, error) {
	if s.i >= len(s.lines) {
		return "", io.EOF
	}
	l := s.lines[s.i]
	s.i++
	return l, nil
}

// IsDroppedLine reports whether err only cost one line.
func IsDroppedLine(err error) bool {
	return errors.Is(err, ErrLineTooLong)
}

// IsEndOfStream reports whether err is a clean end of stream.
func IsEndOfStream(err error) bool {
	return errors.Is(err, io.EOF)
}
