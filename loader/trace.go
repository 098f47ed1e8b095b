// Package loader reads memory-reference traces. A trace is a text file with
// one decimal memory address per line.
package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// IOError reports a trace that could not be opened or read.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to read trace: %v", e.Err)
	}
	return fmt.Sprintf("failed to read trace %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ParseError reports a trace line that is not a decimal integer.
type ParseError struct {
	Line int    // 1-based line number
	Text string // Line contents
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("trace line %d: %q is not a valid address: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// A Source supplies memory addresses one at a time. Next returns io.EOF once
// the trace is exhausted.
type Source interface {
	Next() (int64, error)
}

// Reader parses addresses from an io.Reader. The first malformed line stops
// the reader; every later call returns the same error.
type Reader struct {
	scanner *bufio.Scanner
	path    string
	line    int
	err     error
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Next returns the next address in the trace.
func (r *Reader) Next() (int64, error) {
	if r.err != nil {
		return 0, r.err
	}

	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			r.err = &IOError{Path: r.path, Err: err}
		} else {
			r.err = io.EOF
		}
		return 0, r.err
	}

	r.line++
	text := strings.TrimSpace(r.scanner.Text())

	addr, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		r.err = &ParseError{Line: r.line, Text: text, Err: err}
		return 0, r.err
	}

	return addr, nil
}

// Line returns the number of lines consumed so far.
func (r *Reader) Line() int {
	return r.line
}

// File is a Reader over an open trace file.
type File struct {
	*Reader
	f *os.File
}

// Open opens the trace at path for streaming.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}

	r := NewReader(f)
	r.path = path

	return &File{Reader: r, f: f}, nil
}

// Close closes the underlying file.
func (f *File) Close() error {
	return f.f.Close()
}

// Trace is a trace loaded fully into memory.
type Trace struct {
	// Path is the file the trace was read from.
	Path string
	// Addresses holds the memory addresses in trace order.
	Addresses []int64
}

// Load reads the whole trace at path.
func Load(path string) (*Trace, error) {
	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	addrs, err := ReadAll(f)
	if err != nil {
		return nil, err
	}

	return &Trace{Path: path, Addresses: addrs}, nil
}

// ReadAll drains src.
func ReadAll(src Source) ([]int64, error) {
	addrs := []int64{}
	for {
		addr, err := src.Next()
		if errors.Is(err, io.EOF) {
			return addrs, nil
		}
		if err != nil {
			return nil, err
		}

		addrs = append(addrs, addr)
	}
}

// Write writes addrs to w, one per line.
func Write(w io.Writer, addrs []int64) error {
	bw := bufio.NewWriter(w)
	for _, a := range addrs {
		if _, err := bw.WriteString(strconv.FormatInt(a, 10)); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// Save writes addrs to a trace file at path.
func Save(path string, addrs []int64) error {
	f, err := os.Create(path)
	if err != nil {
		return &IOError{Path: path, Err: err}
	}

	if err := Write(f, addrs); err != nil {
		_ = f.Close()
		return &IOError{Path: path, Err: err}
	}

	if err := f.Close(); err != nil {
		return &IOError{Path: path, Err: err}
	}

	return nil
}

// SliceSource replays addresses held in memory.
type SliceSource struct {
	addrs []int64
	pos   int
}

// NewSliceSource creates a Source over addrs.
func NewSliceSource(addrs []int64) *SliceSource {
	return &SliceSource{addrs: addrs}
}

// Next returns the next address.
func (s *SliceSource) Next() (int64, error) {
	if s.pos >= len(s.addrs) {
		return 0, io.EOF
	}

	addr := s.addrs[s.pos]
	s.pos++

	return addr, nil
}
