package capture

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Capture format: line-oriented text.
//
// - Blank lines ignored.
// - Lines starting with '#' ignored.
// - Line "START" begins a new segment (next record time is relative to 0 again).
// - Data lines are: <t_ns>,<quoted>
//   where t_ns is nanoseconds since START and quoted is the received line as a
//   Go-quoted string, so empty lines and control bytes survive the round trip.

type Record struct {
	At time.Duration
	// Start marks a segment boundary; Line is empty.
	Start bool
	Line  string
}

type Reader struct {
	r io.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func (rr *Reader) ReadAll() ([]Record, error) {
	s := bufio.NewScanner(rr.r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	recs := make([]Record, 0, 1024)
	n := 0
	for s.Scan() {
		n++
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "START" {
			recs = append(recs, Record{Start: true})
			continue
		}

		comma := strings.IndexByte(line, ',')
		if comma < 0 {
			return nil, fmt.Errorf("capture line %d: missing comma: %q", n, line)
		}
		tsStr := strings.TrimSpace(line[:comma])
		quoted := strings.TrimSpace(line[comma+1:])
		if tsStr == "" || quoted == "" {
			return nil, fmt.Errorf("capture line %d: empty field: %q", n, line)
		}

		tsNs, err := strconv.ParseInt(tsStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("capture line %d: invalid timestamp %q: %w", n, tsStr, err)
		}
		if tsNs < 0 {
			return nil, fmt.Errorf("capture line %d: negative timestamp %d", n, tsNs)
		}
		text, err := strconv.Unquote(quoted)
		if err != nil {
			return nil, fmt.Errorf("capture line %d: invalid quoted payload: %w", n, err)
		}

		recs = append(recs, Record{At: time.Duration(tsNs), Line: text})
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

// ReadFile loads every record from the capture at path.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewReader(f).ReadAll()
}

// Writer appends received lines to a capture file. It is safe for use by one
// writer goroutine while another calls Close.
type Writer struct {
	mu     sync.Mutex
	f      *os.File
	w      *bufio.Writer
	start  time.Time
	closed bool
}

func CreateWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	bw := bufio.NewWriterSize(f, 64*1024)
	if _, err := bw.WriteString("START\n"); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{f: f, w: bw, start: time.Now()}, nil
}

func (ww *Writer) WriteLine(now time.Time, line string) error {
	ww.mu.Lock()
	defer ww.mu.Unlock()
	if ww.closed {
		return errors.New("capture writer is closed")
	}

	d := now.Sub(ww.start)
	if d < 0 {
		d = 0
	}
	_, err := fmt.Fprintf(ww.w, "%d,%s\n", d.Nanoseconds(), strconv.Quote(line))
	return err
}

func (ww *Writer) Flush() error {
	ww.mu.Lock()
	defer ww.mu.Unlock()
	if ww.closed {
		return nil
	}
	return ww.w.Flush()
}

func (ww *Writer) Close() error {
	ww.mu.Lock()
	defer ww.mu.Unlock()
	if ww.closed {
		return nil
	}
	ww.closed = true
	if err := ww.w.Flush(); err != nil {
		_ = ww.f.Close()
		return err
	}
	return ww.f.Close()
}
