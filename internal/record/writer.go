package record

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"

	"firestige.xyz/ngtrace/internal/core"
)

// StdStream names standard input or output in place of a path.
const StdStream = "-"

// Writer encodes records as JSON lines, optionally gzip-compressed. A record
// is either written whole or not at all once Flush returns.
type Writer struct {
	file  io.Closer
	gz    *gzip.Writer
	buf   *bufio.Writer
	enc   *json.Encoder
	count int
}

// Create opens path for writing. A ".gz" suffix enables gzip; "-" writes to
// standard output.
func Create(path string) (*Writer, error) {
	if path == StdStream || path == "" {
		return NewWriter(os.Stdout), nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSinkWrite, err)
	}

	var w *Writer
	if strings.HasSuffix(path, ".gz") {
		gz, _ := gzip.NewWriterLevel(f, gzip.BestSpeed)
		w = NewWriter(gz)
		w.gz = gz
	} else {
		w = NewWriter(f)
	}
	w.file = f
	return w, nil
}

// NewWriter writes plain JSON lines to out. Closing the Writer does not
// close out.
func NewWriter(out io.Writer) *Writer {
	buf := bufio.NewWriter(out)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	return &Writer{buf: buf, enc: enc}
}

// Write appends one record.
func (w *Writer) Write(r Record) error {
	if err := w.enc.Encode(r); err != nil {
		return fmt.Errorf("%w: %v", core.ErrSinkWrite, err)
	}
	w.count++
	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() int {
	return w.count
}

// Flush pushes buffered lines to the underlying stream.
func (w *Writer) Flush() error {
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrSinkWrite, err)
	}
	if w.gz != nil {
		if err := w.gz.Flush(); err != nil {
			return fmt.Errorf("%w: %v", core.ErrSinkWrite, err)
		}
	}
	return nil
}

// Close flushes and releases the file opened by Create.
func (w *Writer) Close() error {
	err := w.buf.Flush()
	if w.gz != nil {
		if cerr := w.gz.Close(); err == nil {
			err = cerr
		}
	}
	if w.file != nil {
		if cerr := w.file.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrSinkWrite, err)
	}
	return nil
}
