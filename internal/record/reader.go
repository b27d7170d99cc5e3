package record

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"iter"
	"os"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"

	"firestige.xyz/ngtrace/internal/core"
)

const maxLineSize = 16 << 20

var gzipMagic = []byte{0x1f, 0x8b}

// Reader decodes JSON lines. Gzip input is detected from its magic bytes.
type Reader struct {
	sc      *bufio.Scanner
	closers []io.Closer
	line    int
}

// Open opens path for reading; "-" reads standard input.
func Open(path string) (*Reader, error) {
	if path == StdStream || path == "" {
		return NewReader(os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSourceOpen, err)
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closers = append(r.closers, f)
	return r, nil
}

// NewReader reads records from in.
func NewReader(in io.Reader) (*Reader, error) {
	br := bufio.NewReader(in)
	src := io.Reader(br)

	r := &Reader{}
	if magic, _ := br.Peek(len(gzipMagic)); bytes.Equal(magic, gzipMagic) {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrSourceOpen, err)
		}
		r.closers = append(r.closers, gz)
		src = gz
	}

	r.sc = bufio.NewScanner(src)
	r.sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return r, nil
}

// Next returns the next record, io.EOF at the end of the stream. A line that
// is not a record yields an error wrapping core.ErrRecordMalformed; reading
// may continue after it.
func (r *Reader) Next() (Record, error) {
	for r.sc.Scan() {
		r.line++
		line := bytes.TrimSpace(r.sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return Record{}, fmt.Errorf("%w: line %d: %v", core.ErrRecordMalformed, r.line, err)
		}
		return rec, nil
	}
	if err := r.sc.Err(); err != nil {
		return Record{}, fmt.Errorf("%w: %v", core.ErrSourceRead, err)
	}
	return Record{}, io.EOF
}

// All iterates the remaining records. Iteration ends at the end of the
// stream; every error, malformed lines included, is yielded.
func (r *Reader) All() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for {
			rec, err := r.Next()
			if err == io.EOF {
				return
			}
			if !yield(rec, err) {
				return
			}
			if err != nil && !isMalformed(err) {
				return
			}
		}
	}
}

// Line returns the number of the last line read.
func (r *Reader) Line() int {
	return r.line
}

// Close releases the underlying stream.
func (r *Reader) Close() error {
	var err error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if cerr := r.closers[i].Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
